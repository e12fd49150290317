// Package filter implements the serializable transaction filter state, its
// query-string codec and the in-memory predicate, plus date-bucketed
// grouping for display.
//
// A filter is a set of independent facets (date window, price range, tags,
// types, payment methods, currencies, free text). Facets combine with AND;
// the values inside one facet combine with OR, and an empty facet restricts
// nothing. The whole state round-trips losslessly through a flat query
// string, and malformed fragments in a hand-edited URL degrade to unset
// facets rather than errors.
package filter

import (
	"net/url"
	"strings"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

// DatePreset selects how the date window is resolved at evaluation time.
type DatePreset string

const (
	DateAllTime   DatePreset = "all-time"
	DateThisMonth DatePreset = "this-month"
	DateLastMonth DatePreset = "last-month"
	DateCustom    DatePreset = "custom"
)

// State is the full filter selection. The zero value matches every
// transaction.
type State struct {
	Date DatePreset
	// From/To are calendar dates for the custom preset, To inclusive. The
	// relative presets ignore them and recompute their window from "now" on
	// every evaluation.
	From time.Time
	To   time.Time

	MinPrice *core.Money
	MaxPrice *core.Money

	Query          string
	TagIDs         []string
	Types          []core.TransactionType
	PaymentMethods []string
	Currencies     []string
}

const dateLayout = "2006-01-02"

// Serialize renders the state as flat query values. Unset facets are
// omitted, multi-value facets are comma-joined, dates are ISO-8601 and
// amounts canonical decimal strings, so serialize-deserialize-serialize is
// idempotent.
func (s State) Serialize() url.Values {
	q := url.Values{}
	switch s.Date {
	case DateThisMonth, DateLastMonth:
		q.Set("date", string(s.Date))
	case DateCustom:
		q.Set("date", string(DateCustom))
		if !s.From.IsZero() {
			q.Set("from", s.From.UTC().Format(dateLayout))
		}
		if !s.To.IsZero() {
			q.Set("to", s.To.UTC().Format(dateLayout))
		}
	}
	if s.MinPrice != nil {
		q.Set("min", s.MinPrice.String())
	}
	if s.MaxPrice != nil {
		q.Set("max", s.MaxPrice.String())
	}
	if s.Query != "" {
		q.Set("q", s.Query)
	}
	setList(q, "tags", s.TagIDs)
	if len(s.Types) > 0 {
		vals := make([]string, len(s.Types))
		for i, t := range s.Types {
			vals[i] = string(t)
		}
		q.Set("types", strings.Join(vals, ","))
	}
	setList(q, "methods", s.PaymentMethods)
	setList(q, "currencies", s.Currencies)
	return q
}

// Deserialize rebuilds a State from query values. Any value that fails its
// expected shape (unknown preset, non-numeric price, bad date) is treated as
// unset: a corrupted URL yields fewer filters, never an error.
func Deserialize(q url.Values) State {
	s := State{Date: DateAllTime}

	switch DatePreset(q.Get("date")) {
	case DateThisMonth:
		s.Date = DateThisMonth
	case DateLastMonth:
		s.Date = DateLastMonth
	case DateCustom:
		s.Date = DateCustom
		if t, err := time.Parse(dateLayout, q.Get("from")); err == nil {
			s.From = t
		}
		if t, err := time.Parse(dateLayout, q.Get("to")); err == nil {
			s.To = t
		}
	}

	if m, err := core.ParseMoney(q.Get("min")); err == nil && q.Get("min") != "" {
		s.MinPrice = &m
	}
	if m, err := core.ParseMoney(q.Get("max")); err == nil && q.Get("max") != "" {
		s.MaxPrice = &m
	}

	s.Query = q.Get("q")
	s.TagIDs = splitList(q.Get("tags"))
	for _, v := range splitList(q.Get("types")) {
		t := core.TransactionType(strings.ToUpper(v))
		if t.Valid() {
			s.Types = append(s.Types, t)
		}
	}
	s.PaymentMethods = splitList(q.Get("methods"))
	s.Currencies = splitList(q.Get("currencies"))
	return s
}

// Window resolves the date facet against now into a half-open [from, to)
// interval on UTC calendar dates. The relative presets recompute from now,
// so the same serialized state yields different concrete windows a month
// apart. Returns bounded=false for all-time and for a custom preset with
// neither bound set.
func (s State) Window(now time.Time) (from, to time.Time, bounded bool) {
	n := now.UTC()
	switch s.Date {
	case DateThisMonth:
		from = time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	case DateLastMonth:
		to = time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.UTC)
		return to.AddDate(0, -1, 0), to, true
	case DateCustom:
		if s.From.IsZero() && s.To.IsZero() {
			return time.Time{}, time.Time{}, false
		}
		from = utcDate(s.From)
		if s.To.IsZero() {
			// far-future sentinel keeps the interval half-open
			return from, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC), true
		}
		// stored To is an inclusive calendar date
		return from, utcDate(s.To).AddDate(0, 0, 1), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Matches applies every facet to the transaction. now anchors the relative
// date presets.
func (s State) Matches(tx core.Transaction, now time.Time) bool {
	if from, to, bounded := s.Window(now); bounded {
		d := utcDate(tx.Date)
		if d.Before(from) || !d.Before(to) {
			return false
		}
	}

	if s.MinPrice != nil && tx.Amount.Cmp(*s.MinPrice) < 0 {
		return false
	}
	if s.MaxPrice != nil && tx.Amount.Cmp(*s.MaxPrice) > 0 {
		return false
	}

	if len(s.TagIDs) > 0 && !s.matchesAnyTag(tx) {
		return false
	}
	if len(s.Types) > 0 && !containsType(s.Types, tx.Type) {
		return false
	}
	if len(s.PaymentMethods) > 0 && !containsFold(s.PaymentMethods, tx.PaymentMethod) {
		return false
	}
	if len(s.Currencies) > 0 && !containsFold(s.Currencies, tx.Currency) {
		return false
	}

	return s.matchesQuery(tx)
}

// Apply returns the transactions matching the state, preserving input order.
func (s State) Apply(txns []core.Transaction, now time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(txns))
	for _, tx := range txns {
		if s.Matches(tx, now) {
			out = append(out, tx)
		}
	}
	return out
}

func (s State) matchesAnyTag(tx core.Transaction) bool {
	for _, id := range s.TagIDs {
		if tx.HasTag(id) {
			return true
		}
	}
	return false
}

func (s State) matchesQuery(tx core.Transaction) bool {
	if s.Query == "" {
		return true
	}
	q := strings.ToLower(s.Query)
	if strings.Contains(strings.ToLower(tx.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(tx.Description), q) {
		return true
	}
	for _, tag := range tx.Tags {
		if strings.Contains(strings.ToLower(tag.Name), q) {
			return true
		}
	}
	return false
}

func containsType(set []core.TransactionType, t core.TransactionType) bool {
	for _, v := range set {
		if v == t {
			return true
		}
	}
	return false
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func setList(q url.Values, key string, vals []string) {
	if len(vals) > 0 {
		q.Set(key, strings.Join(vals, ","))
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func utcDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
