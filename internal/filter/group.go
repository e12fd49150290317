package filter

import (
	"sort"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

// Group is one display bucket: all transactions sharing a UTC calendar date.
type Group struct {
	Date         string // YYYY-MM-DD
	Header       string
	Transactions []core.Transaction
}

// GroupByDate buckets transactions by UTC calendar date, most recent group
// first. Within a group the order is transaction date descending with a
// precision-aware tie-break: a datetime-precision transaction sorts before a
// day-precision one on the same date regardless of clock time, and two
// day-precision transactions fall back to CreatedAt descending. The input
// slice is not modified. now anchors the "Today"/"Yesterday" headers.
func GroupByDate(txns []core.Transaction, now time.Time) []Group {
	rows := make([]core.Transaction, len(txns))
	copy(rows, txns)

	sort.SliceStable(rows, func(i, j int) bool {
		ki, kj := utcDate(rows[i].Date), utcDate(rows[j].Date)
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		pi, pj := rows[i].Precision(), rows[j].Precision()
		if pi != pj {
			// more precise information wins the tie
			return pi == core.PrecisionDateTime
		}
		if pi == core.PrecisionDateTime && !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	var groups []Group
	for _, tx := range rows {
		key := tx.DateKey()
		if len(groups) == 0 || groups[len(groups)-1].Date != key {
			groups = append(groups, Group{
				Date:   key,
				Header: dateHeader(utcDate(tx.Date), now),
			})
		}
		last := len(groups) - 1
		groups[last].Transactions = append(groups[last].Transactions, tx)
	}
	return groups
}

func dateHeader(date, now time.Time) string {
	switch int(utcDate(now).Sub(date) / (24 * time.Hour)) {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	default:
		return date.Format("Monday, 2 January 2006")
	}
}
