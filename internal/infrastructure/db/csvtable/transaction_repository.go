package csvtable

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/centbank/facebank/internal/core/domain"
)

var transactionHeader = []string{
	"transaction_id", "account_id", "kind", "amount",
	"description", "timestamp", "status", "transfer_ref",
}

const transactionColumns = 8

// TransactionRepository is the append-only transaction log. Appends go to
// the file first and to the in-memory index second; records are never
// rewritten. The id set makes the pre-accept membership check O(1) instead
// of a flat scan per append.
type TransactionRepository struct {
	mu        sync.Mutex
	path      string
	ids       map[int64]struct{}
	byAccount map[int][]*domain.TransactionRecord
}

func NewTransactionRepository(path string) (*TransactionRepository, error) {
	if _, err := ensureFile(path, transactionHeader); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	r := &TransactionRepository{
		path:      path,
		ids:       make(map[int64]struct{}),
		byAccount: make(map[int][]*domain.TransactionRecord),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TransactionRepository) load() error {
	rows, err := readRows(r.path, transactionColumns)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	for _, row := range rows {
		record, err := transactionFromRow(row)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		r.index(record)
	}
	return nil
}

func (r *TransactionRepository) Append(_ context.Context, record *domain.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[record.TransactionID]; exists {
		return domain.ErrDuplicateKey
	}
	if err := appendRow(r.path, transactionToRow(record)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	stored := *record
	r.index(&stored)
	return nil
}

// ListByAccount returns up to limit records for the account in insertion
// order, bounded to the newest entries.
func (r *TransactionRepository) ListByAccount(_ context.Context, accountID int, limit int) ([]*domain.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.byAccount[accountID]
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	out := make([]*domain.TransactionRecord, len(records))
	for i, record := range records {
		cp := *record
		out[i] = &cp
	}
	return out, nil
}

func (r *TransactionRepository) HasID(_ context.Context, transactionID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[transactionID]
	return ok, nil
}

func (r *TransactionRepository) index(record *domain.TransactionRecord) {
	r.ids[record.TransactionID] = struct{}{}
	r.byAccount[record.AccountID] = append(r.byAccount[record.AccountID], record)
}

func transactionToRow(t *domain.TransactionRecord) []string {
	return []string{
		strconv.FormatInt(t.TransactionID, 10),
		strconv.Itoa(t.AccountID),
		string(t.Kind),
		t.Amount.String(),
		t.Description,
		t.Timestamp.UTC().Format(time.RFC3339Nano),
		t.Status,
		t.TransferRef,
	}
}

func transactionFromRow(row []string) (*domain.TransactionRecord, error) {
	txID, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad transaction id %q: %w", row[0], err)
	}
	accountID, err := strconv.Atoi(row[1])
	if err != nil {
		return nil, fmt.Errorf("bad account id %q: %w", row[1], err)
	}
	amount, err := decimal.NewFromString(row[3])
	if err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", row[3], err)
	}
	ts, err := time.Parse(time.RFC3339Nano, row[5])
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", row[5], err)
	}
	return &domain.TransactionRecord{
		TransactionID: txID,
		AccountID:     accountID,
		Kind:          domain.TransactionKind(row[2]),
		Amount:        amount,
		Description:   row[4],
		Timestamp:     ts,
		Status:        row[6],
		TransferRef:   row[7],
	}, nil
}
