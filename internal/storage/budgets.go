package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, user_id, name, currency, start_date, end_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, b.UserID, b.Name, b.Currency, formatDate(b.StartDate), formatDate(b.EndDate))
		if err != nil {
			return fmt.Errorf("create budget: %w", err)
		}
		return replaceBudgetItems(ctx, tx, b.ID, b.Items)
	})
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE budgets SET name = ?, currency = ?, start_date = ?, end_date = ?
			 WHERE id = ? AND user_id = ?`,
			b.Name, b.Currency, formatDate(b.StartDate), formatDate(b.EndDate), b.ID, b.UserID)
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		if err := requireRow(res, "budget", b.ID); err != nil {
			return err
		}
		return replaceBudgetItems(ctx, tx, b.ID, b.Items)
	})
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res, "budget", id)
}

func (r *Repository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	var (
		b          core.Budget
		start, end string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, currency, start_date, end_date
		 FROM budgets WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&b.ID, &b.UserID, &b.Name, &b.Currency, &start, &end)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, err)
	}
	b.StartDate = parseDate(start)
	b.EndDate = parseDate(end)
	items, err := r.loadBudgetItems(ctx, b.ID)
	if err != nil {
		return core.Budget{}, err
	}
	b.Items = items
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, currency, start_date, end_date
		 FROM budgets WHERE user_id = ? ORDER BY start_date DESC, name COLLATE NOCASE`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b          core.Budget
			start, end string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Currency, &start, &end); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.StartDate = parseDate(start)
		b.EndDate = parseDate(end)
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range budgets {
		items, err := r.loadBudgetItems(ctx, budgets[i].ID)
		if err != nil {
			return nil, err
		}
		budgets[i].Items = items
	}
	return budgets, nil
}

func (r *Repository) loadBudgetItems(ctx context.Context, budgetID string) ([]core.BudgetItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(tag_id, ''), expected FROM budget_items WHERE budget_id = ?`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("load budget items: %w", err)
	}
	defer rows.Close()

	var items []core.BudgetItem
	for rows.Next() {
		var (
			item     core.BudgetItem
			expected string
		)
		if err := rows.Scan(&item.TagID, &expected); err != nil {
			return nil, fmt.Errorf("scan budget item: %w", err)
		}
		m, err := core.ParseMoney(expected)
		if err != nil {
			return nil, fmt.Errorf("stored expected %q: %w", expected, err)
		}
		item.Expected = m
		items = append(items, item)
	}
	return items, rows.Err()
}

func replaceBudgetItems(ctx context.Context, tx *sql.Tx, budgetID string, items []core.BudgetItem) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM budget_items WHERE budget_id = ?`, budgetID); err != nil {
		return fmt.Errorf("clear budget items: %w", err)
	}
	for _, item := range items {
		// Misc lines persist tag_id as NULL so the FK stays clean.
		var tagID any
		if item.TagID != "" {
			tagID = item.TagID
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budget_items (budget_id, tag_id, expected) VALUES (?, ?, ?)`,
			budgetID, tagID, item.Expected.String()); err != nil {
			return fmt.Errorf("insert budget item: %w", err)
		}
	}
	return nil
}
