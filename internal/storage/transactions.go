package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions
			 (id, user_id, name, description, amount, currency, type, occurred_at, time_precision, created_at, payment_method)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.UserID, t.Name, t.Description, t.Amount.String(), t.Currency,
			string(t.Type), formatTime(t.Date), string(t.Precision()), formatTime(t.CreatedAt), t.PaymentMethod)
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return replaceTransactionTags(ctx, tx, t.ID, tagIDs(t.Tags))
	})
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions
			 SET name = ?, description = ?, amount = ?, currency = ?, type = ?,
			     occurred_at = ?, time_precision = ?, payment_method = ?
			 WHERE id = ? AND user_id = ?`,
			t.Name, t.Description, t.Amount.String(), t.Currency, string(t.Type),
			formatTime(t.Date), string(t.Precision()), t.PaymentMethod, t.ID, t.UserID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := requireRow(res, "transaction", t.ID); err != nil {
			return err
		}
		return replaceTransactionTags(ctx, tx, t.ID, tagIDs(t.Tags))
	})
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, "transaction", id)
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransaction+` WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	txns, err := r.attachTags(ctx, []core.Transaction{t})
	if err != nil {
		return core.Transaction{}, err
	}
	return txns[0], nil
}

// ListTransactions returns all of a user's transactions, newest first, with
// tags attached. Filtering happens in memory above this layer.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransaction+` WHERE user_id = ? ORDER BY occurred_at DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	return r.attachTags(ctx, txns)
}

// ListTransactionsInPeriod returns the user's transactions whose date falls
// in [from, to), tags attached.
func (r *Repository) ListTransactionsInPeriod(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransaction+` WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?
		 ORDER BY occurred_at DESC, created_at DESC`,
		userID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("list transactions in period: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	return r.attachTags(ctx, txns)
}

const selectTransaction = `SELECT id, user_id, name, description, amount, currency, type,
	occurred_at, time_precision, created_at, payment_method FROM transactions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                    core.Transaction
		amount, date, created string
		typ, precision       string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &amount, &t.Currency,
		&typ, &date, &precision, &created, &t.PaymentMethod)
	if err != nil {
		return core.Transaction{}, err
	}
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	t.Amount = m
	t.Type = core.TransactionType(typ)
	t.TimePrecision = core.TimePrecision(precision)
	t.Date = parseTime(date)
	t.CreatedAt = parseTime(created)
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// attachTags loads the tag rows for a batch of transactions in one query.
func (r *Repository) attachTags(ctx context.Context, txns []core.Transaction) ([]core.Transaction, error) {
	if len(txns) == 0 {
		return txns, nil
	}
	ids := make([]string, len(txns))
	args := make([]any, len(txns))
	for i, t := range txns {
		ids[i] = "?"
		args[i] = t.ID
	}
	query := fmt.Sprintf(
		`SELECT tt.transaction_id, t.id, t.user_id, t.name, t.color, t.description, t.display_order
		 FROM transaction_tags tt
		 JOIN tags t ON t.id = tt.tag_id
		 WHERE tt.transaction_id IN (%s)
		 ORDER BY t.display_order, t.name COLLATE NOCASE`, strings.Join(ids, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load transaction tags: %w", err)
	}
	defer rows.Close()

	byTxn := make(map[string][]core.Tag)
	for rows.Next() {
		var txnID string
		var tag core.Tag
		if err := rows.Scan(&txnID, &tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.Description, &tag.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan transaction tag: %w", err)
		}
		byTxn[txnID] = append(byTxn[txnID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range txns {
		txns[i].Tags = byTxn[txns[i].ID]
	}
	return txns, nil
}

func replaceTransactionTags(ctx context.Context, tx *sql.Tx, txnID string, tagIDs []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transaction_tags WHERE transaction_id = ?`, txnID); err != nil {
		return fmt.Errorf("clear transaction tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
			txnID, tagID); err != nil {
			return fmt.Errorf("attach tag %s: %w", tagID, err)
		}
	}
	return nil
}

func tagIDs(tags []core.Tag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
