package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

func (r *Repository) CreateMessage(ctx context.Context, m core.Message) error {
	var readAt any
	if m.ReadAt != nil {
		readAt = formatTime(*m.ReadAt)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, kind, title, body, created_at, read_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Kind, m.Title, m.Body, formatTime(m.CreatedAt), readAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListMessages returns the user's messages, newest first. When unreadOnly is
// set, read messages are filtered out.
func (r *Repository) ListMessages(ctx context.Context, userID string, unreadOnly bool) ([]core.Message, error) {
	query := `SELECT id, user_id, kind, title, body, created_at, read_at
	 FROM messages WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []core.Message
	for rows.Next() {
		var (
			m       core.Message
			created string
			readAt  *string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Kind, &m.Title, &m.Body, &created, &readAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = parseTime(created)
		if readAt != nil {
			t := parseTime(*readAt)
			m.ReadAt = &t
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *Repository) MarkMessageRead(ctx context.Context, userID, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at = ? WHERE id = ? AND user_id = ? AND read_at IS NULL`,
		formatTime(at), id, userID)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for message %s: %w", id, err)
	}
	if n == 0 {
		// Already read or not ours. Marking twice is not an error, verify
		// the row exists before shrugging it off.
		var exists int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM messages WHERE id = ? AND user_id = ?`, id, userID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("message %s: %w", id, ErrNotFound)
		}
	}
	return nil
}
