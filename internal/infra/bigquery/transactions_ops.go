package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	bq "finview/internal/bigquery"
)

// InsertTransactionWithClient inserts a single TransactionRow into the
// transactions table, assigning its id and creation timestamp.
func InsertTransactionWithClient(ctx context.Context, client *bigquery.Client, dataset string, row *bq.TransactionRow) error {
	if row.TransactionID == "" {
		row.TransactionID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now().UTC()
	}

	inserter := client.Dataset(dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}

	return nil
}

// UpdateTransactionWithClient replaces every mutable field of an existing
// transaction, scoped to the owning user. Returns bq.ErrNotFound when no row
// was touched.
func UpdateTransactionWithClient(ctx context.Context, client *bigquery.Client, dataset string, row *bq.TransactionRow) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET amount = @amount,
		    type = @type,
		    category = @category,
		    transaction_date = @transaction_date,
		    description = @description,
		    updated_ts = @updated_ts
		WHERE transaction_id = @transaction_id
		  AND user_id = @user_id
	`, dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "amount", Value: row.Amount},
		{Name: "type", Value: row.Type},
		{Name: "category", Value: row.Category},
		{Name: "transaction_date", Value: row.TransactionDate},
		{Name: "description", Value: row.Description.StringVal},
		{Name: "updated_ts", Value: time.Now().UTC()},
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "user_id", Value: row.UserID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}
	if affected == 0 {
		return bq.ErrNotFound
	}

	return nil
}

// DeleteTransactionWithClient removes a transaction by id, scoped to the
// owning user. Returns bq.ErrNotFound when no row was touched.
func DeleteTransactionWithClient(ctx context.Context, client *bigquery.Client, dataset, userID, transactionID string) error {
	q := client.Query(fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE transaction_id = @transaction_id
		  AND user_id = @user_id
	`, dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
		{Name: "user_id", Value: userID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if affected == 0 {
		return bq.ErrNotFound
	}

	return nil
}

// ListTransactionsWithClient returns the user's transactions ordered by date
// descending, newest-created first within a date.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string) ([]*bq.TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			amount,
			type,
			category,
			transaction_date,
			description,
			created_ts,
			updated_ts
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY transaction_date DESC, created_ts DESC
	`, dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var rows []*bq.TransactionRow
	for {
		var r bq.TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// runDML runs a DML query to completion and reports the affected row count.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}
