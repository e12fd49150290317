package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "EXPENSE"
	Income  TransactionType = "INCOME"
)

const (
	// PrecisionDay marks a transaction whose time-of-day carries no
	// information; only the calendar date is authoritative.
	PrecisionDay TimePrecision = "day"
	// PrecisionDateTime marks a transaction with a meaningful timestamp.
	PrecisionDateTime TimePrecision = "datetime"
)

type (
	TransactionType string
	TimePrecision   string

	Tag struct {
		ID           string
		UserID       string
		Name         string
		Color        string
		Description  string
		DisplayOrder int
	}

	Transaction struct {
		ID            string
		UserID        string
		Name          string
		Description   string
		Amount        Money
		Currency      string
		Type          TransactionType
		Date          time.Time // authoritative calendar date (plus time when precision allows)
		TimePrecision TimePrecision
		CreatedAt     time.Time
		PaymentMethod string
		Tags          []Tag
	}

	Budget struct {
		ID        string
		UserID    string
		Name      string
		Currency  string
		StartDate time.Time
		EndDate   time.Time
		Items     []BudgetItem
	}

	// BudgetItem is one budget line. TagID empty means the Misc catch-all:
	// every in-period expense carrying none of the budget's tags.
	BudgetItem struct {
		TagID    string
		Expected Money
	}

	// Message is a user-facing notification, e.g. a budget alert raised by
	// the worker.
	Message struct {
		ID        string
		UserID    string
		Kind      string
		Title     string
		Body      string
		CreatedAt time.Time
		ReadAt    *time.Time
	}

	User struct {
		ID        string
		Email     string
		Name      string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidPeriod   = errors.New("start date must not be after end date")
	ErrEmptyName       = errors.New("empty name")
	ErrDuplicateMisc   = errors.New("budget has more than one misc item")
	ErrZeroDate        = errors.New("date cannot be zero")
)

func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

func (p TimePrecision) Valid() bool {
	return p == PrecisionDay || p == PrecisionDateTime
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > 100 {
		return errors.New("tag name too long (max 100 characters)")
	}
	return nil
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.Name) == "" {
		return ErrEmptyName
	}
	if len(tx.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Currency) == "" {
		return ErrInvalidCurrency
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if tx.Date.IsZero() {
		return ErrZeroDate
	}
	if tx.TimePrecision != "" && !tx.TimePrecision.Valid() {
		return errors.New("invalid time precision")
	}
	return nil
}

// Precision returns the declared time precision, defaulting to day.
func (tx Transaction) Precision() TimePrecision {
	if tx.TimePrecision == PrecisionDateTime {
		return PrecisionDateTime
	}
	return PrecisionDay
}

// HasTag reports whether the transaction carries the given tag id.
func (tx Transaction) HasTag(tagID string) bool {
	for _, t := range tx.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// DateKey returns the UTC calendar date of the transaction as YYYY-MM-DD,
// independent of time-of-day or precision.
func (tx Transaction) DateKey() string {
	return tx.Date.UTC().Format("2006-01-02")
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(b.Currency) == "" {
		return ErrInvalidCurrency
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return ErrZeroDate
	}
	if b.StartDate.After(b.EndDate) {
		return ErrInvalidPeriod
	}
	misc := 0
	for _, item := range b.Items {
		if err := item.Expected.Validate(); err != nil {
			return err
		}
		if item.TagID == "" {
			misc++
		}
	}
	if misc > 1 {
		return ErrDuplicateMisc
	}
	return nil
}

// MiscItem returns the catch-all item and whether the budget has one.
func (b Budget) MiscItem() (BudgetItem, bool) {
	for _, item := range b.Items {
		if item.TagID == "" {
			return item, true
		}
	}
	return BudgetItem{}, false
}

// TagIDs returns the set of explicitly budgeted tag ids, misc excluded.
func (b Budget) TagIDs() map[string]bool {
	ids := make(map[string]bool, len(b.Items))
	for _, item := range b.Items {
		if item.TagID != "" {
			ids[item.TagID] = true
		}
	}
	return ids
}

// Contains reports whether the given calendar date falls inside the budget
// period, both bounds inclusive. Comparison happens on UTC calendar dates so
// a datetime-precision transaction at 23:59 on the end date still counts.
func (b Budget) Contains(date time.Time) bool {
	day := toUTCDate(date)
	return !day.Before(toUTCDate(b.StartDate)) && !day.After(toUTCDate(b.EndDate))
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return ErrEmptyName
	}
	return nil
}

func toUTCDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
