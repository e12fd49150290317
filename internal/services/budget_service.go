package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/amqp"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/budget"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

// BudgetStore is the slice of the repository the budget service needs.
type BudgetStore interface {
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	ListTransactionsInPeriod(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error)
}

// AlertPublisher pushes budget threshold alerts to the message broker.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// BudgetService evaluates budgets against stored transactions and publishes
// an alert when a budget first crosses into approaching or over-budget
// territory. The broker is optional: without one, evaluation still works and
// alerts are skipped.
type BudgetService struct {
	store     BudgetStore
	publisher AlertPublisher

	mu         sync.Mutex
	lastStatus map[string]budget.Status
}

func NewBudgetService(store BudgetStore, publisher AlertPublisher) *BudgetService {
	return &BudgetService{
		store:      store,
		publisher:  publisher,
		lastStatus: make(map[string]budget.Status),
	}
}

// Comparison evaluates a single budget as of now.
func (s *BudgetService) Comparison(ctx context.Context, userID, budgetID string, now time.Time) (budget.OverviewEntry, error) {
	b, err := s.store.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return budget.OverviewEntry{}, fmt.Errorf("load budget: %w", err)
	}

	txns, err := s.transactionsFor(ctx, userID, []core.Budget{b})
	if err != nil {
		return budget.OverviewEntry{}, err
	}

	entries := budget.Overview([]core.Budget{b}, txns, now)
	s.publishCrossings(ctx, userID, entries)
	return entries[0], nil
}

// Overview evaluates every budget of the user as of now, in one pass over the
// union of the budget periods.
func (s *BudgetService) Overview(ctx context.Context, userID string, now time.Time) ([]budget.OverviewEntry, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return []budget.OverviewEntry{}, nil
	}

	txns, err := s.transactionsFor(ctx, userID, budgets)
	if err != nil {
		return nil, err
	}

	entries := budget.Overview(budgets, txns, now)
	s.publishCrossings(ctx, userID, entries)
	return entries, nil
}

// transactionsFor fetches the transactions covering the span of all given
// budget periods. Compare filters per budget afterwards, so over-fetching
// across overlapping periods is harmless.
func (s *BudgetService) transactionsFor(ctx context.Context, userID string, budgets []core.Budget) ([]core.Transaction, error) {
	from, to := budgets[0].StartDate, budgets[0].EndDate
	for _, b := range budgets[1:] {
		if b.StartDate.Before(from) {
			from = b.StartDate
		}
		if b.EndDate.After(to) {
			to = b.EndDate
		}
	}
	// End dates are inclusive calendar days; the query window is half-open.
	txns, err := s.store.ListTransactionsInPeriod(ctx, userID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// publishCrossings emits one alert per budget whose status moved into
// approaching or over-budget since the last evaluation. Publish failures are
// logged and swallowed so a broker outage never breaks a read.
func (s *BudgetService) publishCrossings(ctx context.Context, userID string, entries []budget.OverviewEntry) {
	for _, e := range entries {
		status := e.Comparison.Status
		if !s.statusChanged(e.BudgetID, status) {
			continue
		}
		if status == budget.StatusOnTrack {
			continue
		}
		if s.publisher == nil {
			slog.WarnContext(ctx, "AMQP client not available, skipping budget alert",
				"budget_id", e.BudgetID, "status", string(status))
			continue
		}
		msg := amqp.NewBudgetAlertMessage(e.BudgetID, userID, e.Name, string(status), e.Comparison.Percentage)
		if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert",
				"budget_id", e.BudgetID, "error", err)
		}
	}
}

// statusChanged records the latest status for the budget and reports whether
// it differs from the previous one.
func (s *BudgetService) statusChanged(budgetID string, status budget.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, seen := s.lastStatus[budgetID]
	s.lastStatus[budgetID] = status
	return !seen || prev != status
}
