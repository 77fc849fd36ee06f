// Package bigquery defines the transaction datastore contract and the row
// shape shared by the BigQuery-backed and in-memory implementations.
package bigquery

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"finview/internal/domain"
)

// ErrNotFound is returned when an update or delete targets a transaction id
// that does not exist within the caller's scope.
var ErrNotFound = errors.New("transaction not found")

// TransactionRepository provides transaction persistence operations. All
// operations are scoped to the owning user; callers above this layer never
// filter by user themselves.
type TransactionRepository interface {
	// InsertTransaction stores a new transaction, assigning its id.
	InsertTransaction(ctx context.Context, row *TransactionRow) error

	// UpdateTransaction replaces every field except the id of an existing
	// transaction. Returns ErrNotFound for an unknown id.
	UpdateTransaction(ctx context.Context, row *TransactionRow) error

	// DeleteTransaction removes a transaction by id. Returns ErrNotFound for
	// an unknown id.
	DeleteTransaction(ctx context.Context, userID, transactionID string) error

	// ListTransactions returns the user's transactions ordered by date
	// descending.
	ListTransactions(ctx context.Context, userID string) ([]*TransactionRow, error)

	// Close releases the repository's resources.
	Close() error
}

// TransactionRow represents a transaction record in the transactions table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id" json:"id"`

	UserID string `bigquery:"user_id" json:"-"`

	Amount *big.Rat `bigquery:"amount" json:"amount"` // NUMERIC, non-negative
	Type   string   `bigquery:"type" json:"type"`     // "income" or "expense"

	Category string `bigquery:"category" json:"category"`

	TransactionDate civil.Date `bigquery:"transaction_date" json:"date"`

	Description bigquery.NullString `bigquery:"description" json:"description,omitempty"`

	CreatedTS time.Time              `bigquery:"created_ts" json:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts" json:"-"`
}

// MarshalJSON renders the NUMERIC amount as a plain number so API clients see
// the same wire shape they submitted.
func (t TransactionRow) MarshalJSON() ([]byte, error) {
	type Alias TransactionRow
	return json.Marshal(&struct {
		Amount float64 `json:"amount"`
		*Alias
	}{
		Amount: ratToFloat(t.Amount),
		Alias:  (*Alias)(&t),
	})
}

// RowFromTransaction maps a validated domain transaction into its row shape.
func RowFromTransaction(tx domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		Amount:          new(big.Rat).SetFloat64(tx.Amount),
		Type:            string(tx.Type),
		Category:        tx.Category,
		TransactionDate: tx.Date,
	}
	if tx.Description != "" {
		row.Description = bigquery.NullString{StringVal: tx.Description, Valid: true}
	}
	return row
}

// Transaction maps the row back into the domain entity.
func (t *TransactionRow) Transaction() domain.Transaction {
	return domain.Transaction{
		ID:          t.TransactionID,
		UserID:      t.UserID,
		Amount:      ratToFloat(t.Amount),
		Type:        domain.TransactionType(t.Type),
		Category:    t.Category,
		Date:        t.TransactionDate,
		Description: t.Description.StringVal,
	}
}

func ratToFloat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}
