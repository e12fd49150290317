package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/amqp"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

// MessageWriter is the storage slice the worker needs.
type MessageWriter interface {
	CreateMessage(ctx context.Context, m core.Message) error
}

// AlertWorker turns budget alert messages from the broker into inbox
// messages for the budget's owner.
type AlertWorker struct {
	store MessageWriter
}

func NewAlertWorker(store MessageWriter) *AlertWorker {
	return &AlertWorker{store: store}
}

const alertKind = "budget_alert"

// HandleAlert persists a single budget alert as an unread inbox message.
func (w *AlertWorker) HandleAlert(msg *amqp.BudgetAlertMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if msg.UserID == "" || msg.BudgetID == "" {
		return fmt.Errorf("alert missing identifiers: budget=%q user=%q", msg.BudgetID, msg.UserID)
	}

	m := core.Message{
		ID:        uuid.NewString(),
		UserID:    msg.UserID,
		Kind:      alertKind,
		Title:     alertTitle(msg),
		Body:      alertBody(msg),
		CreatedAt: time.Now().UTC(),
	}
	if err := w.store.CreateMessage(ctx, m); err != nil {
		return fmt.Errorf("store alert message: %w", err)
	}

	slog.InfoContext(ctx, "Stored budget alert",
		"budget_id", msg.BudgetID,
		"user_id", msg.UserID,
		"status", msg.Status)
	return nil
}

func alertTitle(msg *amqp.BudgetAlertMessage) string {
	name := msg.BudgetName
	if name == "" {
		name = msg.BudgetID
	}
	if strings.EqualFold(msg.Status, "over budget") {
		return fmt.Sprintf("Budget %q is over its limit", name)
	}
	return fmt.Sprintf("Budget %q is approaching its limit", name)
}

func alertBody(msg *amqp.BudgetAlertMessage) string {
	return fmt.Sprintf("Spending reached %.1f%% of the budgeted amount as of %s.",
		msg.Percentage, msg.Timestamp.UTC().Format("2 January 2006 15:04 MST"))
}
