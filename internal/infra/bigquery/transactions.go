// Package bigquery implements the transaction repository over Google
// BigQuery, the external managed datastore that owns all durable state.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	bq "finview/internal/bigquery"
)

const transactionsTable = "transactions"

// Config carries the connection settings for the BigQuery repository.
type Config struct {
	// ProjectID is the GCP project holding the dataset.
	ProjectID string

	// Dataset is the BigQuery dataset with the transactions table.
	Dataset string

	// CredentialsFile optionally points at a service-account key; when empty
	// the client uses application default credentials.
	CredentialsFile string
}

// TransactionRepository is the concrete bq.TransactionRepository backed by
// BigQuery. It holds a shared client to avoid reconnecting per operation.
type TransactionRepository struct {
	client  *bigquery.Client
	dataset string
}

// NewTransactionRepository creates a repository with a shared BigQuery client.
func NewTransactionRepository(ctx context.Context, cfg Config) (*TransactionRepository, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRepository: creating client: %w", err)
	}
	return &TransactionRepository{
		client:  client,
		dataset: cfg.Dataset,
	}, nil
}

// Close closes the underlying BigQuery client.
func (r *TransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertTransaction delegates to InsertTransactionWithClient with the shared client.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, row *bq.TransactionRow) error {
	return InsertTransactionWithClient(ctx, r.client, r.dataset, row)
}

// UpdateTransaction delegates to UpdateTransactionWithClient with the shared client.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, row *bq.TransactionRow) error {
	return UpdateTransactionWithClient(ctx, r.client, r.dataset, row)
}

// DeleteTransaction delegates to DeleteTransactionWithClient with the shared client.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	return DeleteTransactionWithClient(ctx, r.client, r.dataset, userID, transactionID)
}

// ListTransactions delegates to ListTransactionsWithClient with the shared client.
func (r *TransactionRepository) ListTransactions(ctx context.Context, userID string) ([]*bq.TransactionRow, error) {
	return ListTransactionsWithClient(ctx, r.client, r.dataset, userID)
}

var _ bq.TransactionRepository = (*TransactionRepository)(nil)
