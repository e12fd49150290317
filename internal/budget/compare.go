// Package budget implements the budget-vs-actual comparison engine: per-line
// actual spend, totals, percentage used, status classification and pacing.
//
// Everything here is a pure function over already-fetched records. Nothing
// performs I/O, nothing mutates its inputs, and degenerate arithmetic
// (division by zero, empty periods) resolves to defined fallbacks instead of
// errors, so a single malformed budget can never take down a dashboard.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

// Status classifies how much of the budget has been consumed.
type Status string

const (
	StatusOnTrack     Status = "on track"     // percentage < 80
	StatusApproaching Status = "approaching"  // 80 <= percentage <= 100
	StatusOverBudget  Status = "over budget"  // percentage > 100
)

// Pace classifies spend rate against the linear expectation for the period.
type Pace string

const (
	PaceOnTrack Pace = "on-track"
	PaceFaster  Pace = "faster"
	PaceSlower  Pace = "slower"
)

// Line is one budget item with its computed actual. TagID empty is the Misc
// catch-all line.
type Line struct {
	TagID    string
	Expected core.Money
	Actual   core.Money
}

// Comparison is the aggregate view model for one budget.
type Comparison struct {
	Items         []Line
	TotalExpected core.Money
	TotalActual   core.Money
	Percentage    float64
	Status        Status
}

var (
	pctApproaching = decimal.NewFromInt(80)
	pctFull        = decimal.NewFromInt(100)
	paceBand       = decimal.NewFromFloat(0.05)
)

// Compare computes actual spend per budget line from the given transactions.
//
// Transactions outside the budget period, in a different currency, or of
// type INCOME contribute nothing: budgets track expense accumulation only,
// income never offsets spend. A transaction carrying several budgeted tags
// counts toward each of those lines; it lands in Misc only when it carries
// none of them. A budget line whose tag matches no transaction (including a
// tag the user has since deleted) simply keeps a zero actual.
func Compare(b core.Budget, txns []core.Transaction) Comparison {
	budgeted := b.TagIDs()
	actualByTag := make(map[string]core.Money, len(budgeted))
	misc := core.ZeroMoney()

	for _, tx := range txns {
		if tx.Type != core.Expense {
			continue
		}
		if tx.Currency != b.Currency {
			continue
		}
		if !b.Contains(tx.Date) {
			continue
		}
		matched := false
		for _, tag := range tx.Tags {
			if budgeted[tag.ID] {
				actualByTag[tag.ID] = actualByTag[tag.ID].Add(tx.Amount)
				matched = true
			}
		}
		if !matched {
			misc = misc.Add(tx.Amount)
		}
	}

	cmp := Comparison{
		Items:         make([]Line, 0, len(b.Items)),
		TotalExpected: core.ZeroMoney(),
		TotalActual:   core.ZeroMoney(),
	}
	for _, item := range b.Items {
		actual := misc
		if item.TagID != "" {
			actual = actualByTag[item.TagID]
		}
		cmp.Items = append(cmp.Items, Line{
			TagID:    item.TagID,
			Expected: item.Expected,
			Actual:   actual,
		})
		cmp.TotalExpected = cmp.TotalExpected.Add(item.Expected)
		cmp.TotalActual = cmp.TotalActual.Add(actual)
	}

	pct := percentage(cmp.TotalActual, cmp.TotalExpected)
	cmp.Percentage, _ = pct.Float64()
	cmp.Status = statusFor(pct)
	return cmp
}

// percentage is actual/expected*100 as an exact decimal; 0 when expected is
// zero so the result is never NaN or infinite.
func percentage(actual, expected core.Money) decimal.Decimal {
	if expected.IsZero() {
		return decimal.Zero
	}
	return actual.Amount.Div(expected.Amount).Mul(pctFull)
}

// statusFor applies the classification boundaries on the exact decimal
// percentage: 80.0 and 100.0 are both "approaching", 100.01 is over.
func statusFor(pct decimal.Decimal) Status {
	switch {
	case pct.LessThan(pctApproaching):
		return StatusOnTrack
	case pct.LessThanOrEqual(pctFull):
		return StatusApproaching
	default:
		return StatusOverBudget
	}
}

// SpendingPace compares actual spend against the linear expected pace at the
// current point of the period. With no elapsed time, no period length or no
// expected amount there is no meaningful pace, so the answer defaults to
// on-track. A variance within 5% of the expected pace also counts as
// on-track; beyond that, overspending is "faster" and underspending
// "slower".
func SpendingPace(actual, expected core.Money, daysElapsed, totalDays int) Pace {
	if totalDays == 0 || daysElapsed == 0 || expected.IsZero() {
		return PaceOnTrack
	}
	paceAtToday := expected.Amount.
		Mul(decimal.NewFromInt(int64(daysElapsed))).
		Div(decimal.NewFromInt(int64(totalDays)))
	if paceAtToday.IsZero() {
		return PaceOnTrack
	}
	variance := actual.Amount.Sub(paceAtToday).Div(paceAtToday)
	if variance.Abs().LessThan(paceBand) {
		return PaceOnTrack
	}
	if variance.IsPositive() {
		return PaceFaster
	}
	return PaceSlower
}

// DaysRemaining counts whole days from now until the end date, rounding any
// partial day up and never going negative for past end dates.
func DaysRemaining(end, now time.Time) int {
	diff := end.Sub(now)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}
