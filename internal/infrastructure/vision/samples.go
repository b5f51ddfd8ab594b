package vision

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/centbank/facebank/internal/core/ports"
)

// SampleStore keeps accumulated enrollment face crops on disk, one
// subdirectory per account, one numbered file per crop. The full set feeds
// every retrain.
type SampleStore struct {
	mu  sync.Mutex
	dir string
}

func NewSampleStore(dir string) *SampleStore {
	return &SampleStore{dir: dir}
}

// Add appends crops for the account, continuing the existing numbering.
func (s *SampleStore) Add(accountID int, crops [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accountDir := filepath.Join(s.dir, strconv.Itoa(accountID))
	if err := os.MkdirAll(accountDir, 0o755); err != nil {
		return fmt.Errorf("create sample dir: %w", err)
	}
	next, err := nextIndex(accountDir)
	if err != nil {
		return err
	}
	for i, crop := range crops {
		name := filepath.Join(accountDir, strconv.Itoa(next+i)+".bin")
		if err := os.WriteFile(name, crop, 0o644); err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
	}
	return nil
}

// All returns every stored crop across all accounts, ordered by account id
// then sample index.
func (s *SampleStore) All() ([]ports.FaceSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sample dir: %w", err)
	}

	var samples []ports.FaceSample
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		accountID, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		accountDir := filepath.Join(s.dir, entry.Name())
		files, err := sortedSampleFiles(accountDir)
		if err != nil {
			return nil, err
		}
		for _, name := range files {
			crop, err := os.ReadFile(filepath.Join(accountDir, name))
			if err != nil {
				return nil, fmt.Errorf("read sample: %w", err)
			}
			samples = append(samples, ports.FaceSample{AccountID: accountID, Crop: crop})
		}
	}
	return samples, nil
}

func nextIndex(dir string) (int, error) {
	files, err := sortedSampleFiles(dir)
	if err != nil {
		return 0, err
	}
	next := 0
	for _, name := range files {
		n, err := strconv.Atoi(name[:len(name)-len(".bin")])
		if err == nil && n >= next {
			next = n + 1
		}
	}
	return next, nil
}

func sortedSampleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sample dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".bin" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		a, _ := strconv.Atoi(names[i][:len(names[i])-len(".bin")])
		b, _ := strconv.Atoi(names[j][:len(names[j])-len(".bin")])
		return a < b
	})
	return names, nil
}
