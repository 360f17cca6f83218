package history

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

var ErrNotFound = errors.New("transaction not found")

// Store keeps recent records, newest first.
type Store interface {
	Add(ctx context.Context, r Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
}

// MemoryStore is a bounded in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	max     int
	records []Record // newest first
}

func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 50
	}
	return &MemoryStore{max: max}
}

func (s *MemoryStore) Add(_ context.Context, r Record) error {
	if r.ID == "" {
		return errors.New("history: record id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]Record{r}, s.records...)
	if len(s.records) > s.max {
		s.records = s.records[:s.max]
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	return append([]Record(nil), s.records[:limit]...), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, errors.Wrapf(ErrNotFound, "%q", id)
}

// Seed adds the demo records shown before any real activity, oldest first.
func Seed(ctx context.Context, s Store, now time.Time) error {
	mock := MockRecords(now)
	for i := len(mock) - 1; i >= 0; i-- {
		if err := s.Add(ctx, mock[i]); err != nil {
			return err
		}
	}
	return nil
}

// MockRecords returns the demo history, newest first.
func MockRecords(now time.Time) []Record {
	return []Record{
		{
			ID: "2", Kind: KindWithdraw, Amount: "50.00", Token: "RLUSD", FiatAmount: "7,500",
			Phone: "+254798765432", Provider: "M-Pesa", Status: StatusPending,
			Timestamp: now.Add(-30 * time.Minute),
		},
		{
			ID: "1", Kind: KindDeposit, Amount: "100.00", Token: "RLUSD", FiatAmount: "15,000",
			Phone: "+254712345678", Provider: "M-Pesa", Status: StatusSuccess,
			Timestamp: now.Add(-time.Hour),
		},
		{
			ID: "3", Kind: KindPay, Amount: "25.00", Token: "RLUSD", FiatAmount: "3,750",
			Phone: "+256712345678", Provider: "MTN Mobile Money", Status: StatusSuccess,
			Timestamp: now.Add(-24 * time.Hour),
		},
	}
}
