package budget

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

// OverviewEntry is one budget's comparison enriched with period progress
// metadata for the dashboard.
type OverviewEntry struct {
	BudgetID      string
	Name          string
	Comparison    Comparison
	Pace          Pace
	DaysElapsed   int
	TotalDays     int
	DaysRemaining int
}

// Overview evaluates every budget against the transaction set and returns
// one entry per budget, in input order. Each budget is evaluated in
// isolation: a panic while computing one (a malformed period, a poisoned
// record) produces a zeroed entry for that budget and leaves the rest of the
// batch intact.
func Overview(budgets []core.Budget, txns []core.Transaction, now time.Time) []OverviewEntry {
	out := make([]OverviewEntry, len(budgets))

	// Comparisons are pure and independent, so they can run concurrently.
	var g errgroup.Group
	g.SetLimit(4)
	for i := range budgets {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					out[i] = zeroEntry(budgets[i])
				}
			}()
			out[i] = evaluate(budgets[i], txns, now)
			return nil
		})
	}
	// The goroutines never return errors; failures degrade per entry.
	_ = g.Wait()
	return out
}

func evaluate(b core.Budget, txns []core.Transaction, now time.Time) OverviewEntry {
	cmp := Compare(b, txns)
	elapsed, total := periodProgress(b.StartDate, b.EndDate, now)
	return OverviewEntry{
		BudgetID:      b.ID,
		Name:          b.Name,
		Comparison:    cmp,
		Pace:          SpendingPace(cmp.TotalActual, cmp.TotalExpected, elapsed, total),
		DaysElapsed:   elapsed,
		TotalDays:     total,
		DaysRemaining: DaysRemaining(b.EndDate, now),
	}
}

func zeroEntry(b core.Budget) OverviewEntry {
	return OverviewEntry{
		BudgetID: b.ID,
		Name:     b.Name,
		Comparison: Comparison{
			TotalExpected: core.ZeroMoney(),
			TotalActual:   core.ZeroMoney(),
			Status:        StatusOnTrack,
		},
		Pace: PaceOnTrack,
	}
}

// periodProgress returns how many calendar days of the inclusive period have
// elapsed as of now, and the period's total day count. Elapsed is clamped to
// [0, total]: a period that has not started yet reports 0, a finished one
// reports total.
func periodProgress(start, end, now time.Time) (elapsed, total int) {
	startDay := utcDate(start)
	endDay := utcDate(end)
	if endDay.Before(startDay) {
		return 0, 0
	}
	total = int(endDay.Sub(startDay)/(24*time.Hour)) + 1

	nowDay := utcDate(now)
	switch {
	case nowDay.Before(startDay):
		elapsed = 0
	case nowDay.After(endDay):
		elapsed = total
	default:
		elapsed = int(nowDay.Sub(startDay)/(24*time.Hour)) + 1
	}
	return elapsed, total
}

func utcDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
