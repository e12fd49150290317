package budget

import (
	"testing"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

func TestOverviewPreservesOrderAndIsolation(t *testing.T) {
	now := time.Date(2025, time.March, 16, 10, 0, 0, 0, time.UTC)
	good := marchBudget(core.BudgetItem{TagID: "A", Expected: core.MustMoney("100")})
	good.ID, good.Name = "good", "Good"
	// End before start: a malformed period must degrade to a zeroed entry,
	// not abort the batch.
	broken := core.Budget{
		ID:        "broken",
		Name:      "Broken",
		Currency:  "EUR",
		StartDate: day(2025, time.March, 31),
		EndDate:   day(2025, time.March, 1),
	}
	other := marchBudget(core.BudgetItem{TagID: "B", Expected: core.MustMoney("10")})
	other.ID, other.Name = "other", "Other"

	txns := []core.Transaction{
		expense("85", day(2025, time.March, 10), "A"),
		expense("9", day(2025, time.March, 10), "B"),
	}

	entries := Overview([]core.Budget{good, broken, other}, txns, now)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].BudgetID != "good" || entries[1].BudgetID != "broken" || entries[2].BudgetID != "other" {
		t.Fatalf("entries out of order: %s %s %s", entries[0].BudgetID, entries[1].BudgetID, entries[2].BudgetID)
	}

	if entries[0].Comparison.Status != StatusApproaching {
		t.Fatalf("good budget status = %s, want approaching at 85%%", entries[0].Comparison.Status)
	}
	if entries[0].TotalDays != 31 || entries[0].DaysElapsed != 16 {
		t.Fatalf("good budget progress = %d/%d, want 16/31", entries[0].DaysElapsed, entries[0].TotalDays)
	}
	if entries[0].DaysRemaining != 15 {
		t.Fatalf("good budget days remaining = %d, want 15", entries[0].DaysRemaining)
	}

	if !entries[1].Comparison.TotalActual.IsZero() || entries[1].TotalDays != 0 {
		t.Fatalf("broken budget should be zeroed, got %+v", entries[1])
	}

	if entries[2].Comparison.Status != StatusApproaching {
		t.Fatalf("other budget status = %s", entries[2].Comparison.Status)
	}
}

func TestPeriodProgressClamps(t *testing.T) {
	start, end := day(2025, time.March, 1), day(2025, time.March, 31)
	cases := []struct {
		now              time.Time
		elapsed, total   int
	}{
		{day(2025, time.February, 1), 0, 31},  // not started
		{day(2025, time.March, 1), 1, 31},     // first day counts
		{day(2025, time.March, 31), 31, 31},   // last day
		{day(2025, time.June, 1), 31, 31},     // finished, clamped
	}
	for _, tc := range cases {
		elapsed, total := periodProgress(start, end, tc.now)
		if elapsed != tc.elapsed || total != tc.total {
			t.Fatalf("periodProgress(now=%v) = %d/%d, want %d/%d", tc.now, elapsed, total, tc.elapsed, tc.total)
		}
	}

	// Single-day period.
	if elapsed, total := periodProgress(start, start, start); elapsed != 1 || total != 1 {
		t.Fatalf("single-day period = %d/%d, want 1/1", elapsed, total)
	}
}
