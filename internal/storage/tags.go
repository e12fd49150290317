package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

func (r *Repository) CreateTag(ctx context.Context, t core.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, name, color, description, display_order)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.Color, t.Description, t.DisplayOrder)
	if err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (r *Repository) UpdateTag(ctx context.Context, t core.Tag) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ?, description = ?, display_order = ?
		 WHERE id = ? AND user_id = ?`,
		t.Name, t.Color, t.Description, t.DisplayOrder, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return requireRow(res, "tag", t.ID)
}

func (r *Repository) DeleteTag(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return requireRow(res, "tag", id)
}

func (r *Repository) GetTag(ctx context.Context, userID, id string) (core.Tag, error) {
	var t core.Tag
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, color, description, display_order
		 FROM tags WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.Description, &t.DisplayOrder)
	if err != nil {
		return core.Tag{}, fmt.Errorf("get tag %s: %w", id, err)
	}
	return t, nil
}

// ListTags returns the user's tags in display order, name as tiebreak.
func (r *Repository) ListTags(ctx context.Context, userID string) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color, description, display_order
		 FROM tags WHERE user_id = ?
		 ORDER BY display_order, name COLLATE NOCASE`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.Description, &t.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ReorderTags rewrites display_order to match the given id sequence. All or
// nothing: a missing id rolls the whole reorder back so a stale client
// cannot half-apply an ordering.
func (r *Repository) ReorderTags(ctx context.Context, userID string, orderedIDs []string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for pos, id := range orderedIDs {
			res, err := tx.ExecContext(ctx,
				`UPDATE tags SET display_order = ? WHERE id = ? AND user_id = ?`,
				pos, id, userID)
			if err != nil {
				return fmt.Errorf("reorder tag %s: %w", id, err)
			}
			if err := requireRow(res, "tag", id); err != nil {
				return err
			}
		}
		return nil
	})
}

// ErrNotFound reports a write that matched no row owned by the caller.
var ErrNotFound = sql.ErrNoRows

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
