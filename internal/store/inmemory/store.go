// Package inmemory provides an in-memory transaction repository for local
// development and tests.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	bq "finview/internal/bigquery"
)

// Store is an in-memory implementation of bq.TransactionRepository. It is
// safe for concurrent use. Data is lost on service restart.
type Store struct {
	mu   sync.RWMutex
	rows map[string]*bq.TransactionRow
}

// NewStore creates an empty in-memory transaction store.
func NewStore() *Store {
	return &Store{
		rows: make(map[string]*bq.TransactionRow),
	}
}

// InsertTransaction stores a new transaction, assigning its id and creation
// timestamp.
func (s *Store) InsertTransaction(ctx context.Context, row *bq.TransactionRow) error {
	if row.TransactionID == "" {
		row.TransactionID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to avoid external mutation.
	rowCopy := *row
	s.rows[row.TransactionID] = &rowCopy

	return nil
}

// UpdateTransaction replaces every mutable field of an existing transaction,
// scoped to the owning user.
func (s *Store) UpdateTransaction(ctx context.Context, row *bq.TransactionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rows[row.TransactionID]
	if !ok || existing.UserID != row.UserID {
		return bq.ErrNotFound
	}

	updated := *row
	updated.CreatedTS = existing.CreatedTS
	updated.UpdatedTS = bigquery.NullTimestamp{Timestamp: time.Now().UTC(), Valid: true}
	s.rows[row.TransactionID] = &updated

	return nil
}

// DeleteTransaction removes a transaction by id, scoped to the owning user.
func (s *Store) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rows[transactionID]
	if !ok || existing.UserID != userID {
		return bq.ErrNotFound
	}
	delete(s.rows, transactionID)

	return nil
}

// ListTransactions returns the user's transactions ordered by date
// descending, newest-created first within a date.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]*bq.TransactionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*bq.TransactionRow
	for _, row := range s.rows {
		if row.UserID != userID {
			continue
		}
		rowCopy := *row
		result = append(result, &rowCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TransactionDate != result[j].TransactionDate {
			return result[i].TransactionDate.After(result[j].TransactionDate)
		}
		return result[i].CreatedTS.After(result[j].CreatedTS)
	})

	return result, nil
}

// Close implements bq.TransactionRepository; the store holds no resources.
func (s *Store) Close() error {
	return nil
}

var _ bq.TransactionRepository = (*Store)(nil)
