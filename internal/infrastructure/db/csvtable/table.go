// Package csvtable persists accounts and the transaction log as
// row-structured CSV files with a fixed column header, mirroring the flat
// stores the ledger was designed around. Each repository keeps a typed
// in-memory index rebuilt from the file at startup; the account table is
// rewritten in full (atomically, via tmp + rename) on every mutation, while
// the transaction log is append-only.
package csvtable

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// ensureFile creates the file with the given header when it does not exist
// yet, returning whether it already existed.
func ensureFile(path string, header []string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create data dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return false, fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return false, err
	}
	return false, f.Close()
}

// readRows parses the full file and returns all data rows (header skipped).
func readRows(path string, wantColumns int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = wantColumns
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// writeRows rewrites the full file (header + rows) atomically: the new
// contents go to a temp file which then replaces the original, so a crash
// mid-write never corrupts the table.
func writeRows(path string, header []string, rows [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// appendRow appends one row to the file without rewriting it.
func appendRow(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
