package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/budget"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/filter"
)

const dateOnly = "2006-01-02"

type tagPayload struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

type tagResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

func toTagResponse(t core.Tag) tagResponse {
	return tagResponse{
		ID:           t.ID,
		Name:         t.Name,
		Color:        t.Color,
		Description:  t.Description,
		DisplayOrder: t.DisplayOrder,
	}
}

type transactionPayload struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Amount        string   `json:"amount"`
	Currency      string   `json:"currency"`
	Type          string   `json:"type"`
	Date          string   `json:"date"`
	PaymentMethod string   `json:"payment_method"`
	TagIDs        []string `json:"tag_ids"`
}

// toTransaction converts the payload, deriving the time precision from the
// date format: a bare calendar date is day precision, a full timestamp is
// datetime precision.
func (p transactionPayload) toTransaction(userID string) (core.Transaction, error) {
	amount, err := core.ParseMoney(p.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", p.Amount, err)
	}

	var (
		date      time.Time
		precision core.TimePrecision
	)
	raw := strings.TrimSpace(p.Date)
	if d, derr := time.Parse(dateOnly, raw); derr == nil {
		date = d
		precision = core.PrecisionDay
	} else if d, derr := time.Parse(time.RFC3339, raw); derr == nil {
		date = d
		precision = core.PrecisionDateTime
	} else {
		return core.Transaction{}, fmt.Errorf("date %q: want YYYY-MM-DD or RFC 3339", p.Date)
	}

	tx := core.Transaction{
		UserID:        userID,
		Name:          strings.TrimSpace(p.Name),
		Description:   strings.TrimSpace(p.Description),
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(p.Currency)),
		Type:          core.TransactionType(strings.ToUpper(strings.TrimSpace(p.Type))),
		Date:          date,
		TimePrecision: precision,
		PaymentMethod: strings.TrimSpace(p.PaymentMethod),
	}
	return tx, tx.Validate()
}

type transactionResponse struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Type          string        `json:"type"`
	Date          string        `json:"date"`
	TimePrecision string        `json:"time_precision"`
	CreatedAt     string        `json:"created_at"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	Tags          []tagResponse `json:"tags"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	date := t.Date.UTC().Format(time.RFC3339)
	if t.Precision() == core.PrecisionDay {
		date = t.Date.UTC().Format(dateOnly)
	}
	tags := make([]tagResponse, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, toTagResponse(tag))
	}
	return transactionResponse{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		Amount:        t.Amount.String(),
		Currency:      t.Currency,
		Type:          string(t.Type),
		Date:          date,
		TimePrecision: string(t.Precision()),
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
		PaymentMethod: t.PaymentMethod,
		Tags:          tags,
	}
}

type groupResponse struct {
	Date         string                `json:"date"`
	Header       string                `json:"header"`
	Transactions []transactionResponse `json:"transactions"`
}

func toGroupResponses(groups []filter.Group) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		txns := make([]transactionResponse, 0, len(g.Transactions))
		for _, t := range g.Transactions {
			txns = append(txns, toTransactionResponse(t))
		}
		out = append(out, groupResponse{
			Date:         g.Date,
			Header:       g.Header,
			Transactions: txns,
		})
	}
	return out
}

type budgetItemPayload struct {
	TagID    string `json:"tag_id"`
	Expected string `json:"expected"`
}

type budgetPayload struct {
	Name      string              `json:"name"`
	Currency  string              `json:"currency"`
	StartDate string              `json:"start_date"`
	EndDate   string              `json:"end_date"`
	Items     []budgetItemPayload `json:"items"`
}

func (p budgetPayload) toBudget(userID string) (core.Budget, error) {
	start, err := time.Parse(dateOnly, p.StartDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("start date %q: want YYYY-MM-DD", p.StartDate)
	}
	end, err := time.Parse(dateOnly, p.EndDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("end date %q: want YYYY-MM-DD", p.EndDate)
	}

	items := make([]core.BudgetItem, 0, len(p.Items))
	for _, item := range p.Items {
		expected, err := core.ParseMoney(item.Expected)
		if err != nil {
			return core.Budget{}, fmt.Errorf("expected %q: %w", item.Expected, err)
		}
		items = append(items, core.BudgetItem{TagID: item.TagID, Expected: expected})
	}

	b := core.Budget{
		UserID:    userID,
		Name:      strings.TrimSpace(p.Name),
		Currency:  strings.ToUpper(strings.TrimSpace(p.Currency)),
		StartDate: start,
		EndDate:   end,
		Items:     items,
	}
	return b, b.Validate()
}

type budgetItemResponse struct {
	TagID    string `json:"tag_id,omitempty"`
	Expected string `json:"expected"`
}

type budgetResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Currency  string               `json:"currency"`
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
	Items     []budgetItemResponse `json:"items"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	items := make([]budgetItemResponse, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, budgetItemResponse{
			TagID:    item.TagID,
			Expected: item.Expected.String(),
		})
	}
	return budgetResponse{
		ID:        b.ID,
		Name:      b.Name,
		Currency:  b.Currency,
		StartDate: b.StartDate.Format(dateOnly),
		EndDate:   b.EndDate.Format(dateOnly),
		Items:     items,
	}
}

type comparisonLineResponse struct {
	TagID    string `json:"tag_id,omitempty"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

type comparisonResponse struct {
	BudgetID      string                   `json:"budget_id"`
	Name          string                   `json:"name"`
	Items         []comparisonLineResponse `json:"items"`
	TotalExpected string                   `json:"total_expected"`
	TotalActual   string                   `json:"total_actual"`
	Percentage    float64                  `json:"percentage"`
	Status        string                   `json:"status"`
	Pace          string                   `json:"pace"`
	DaysElapsed   int                      `json:"days_elapsed"`
	TotalDays     int                      `json:"total_days"`
	DaysRemaining int                      `json:"days_remaining"`
}

func toComparisonResponse(e budget.OverviewEntry) comparisonResponse {
	items := make([]comparisonLineResponse, 0, len(e.Comparison.Items))
	for _, line := range e.Comparison.Items {
		items = append(items, comparisonLineResponse{
			TagID:    line.TagID,
			Expected: line.Expected.String(),
			Actual:   line.Actual.String(),
		})
	}
	return comparisonResponse{
		BudgetID:      e.BudgetID,
		Name:          e.Name,
		Items:         items,
		TotalExpected: e.Comparison.TotalExpected.String(),
		TotalActual:   e.Comparison.TotalActual.String(),
		Percentage:    e.Comparison.Percentage,
		Status:        string(e.Comparison.Status),
		Pace:          string(e.Pace),
		DaysElapsed:   e.DaysElapsed,
		TotalDays:     e.TotalDays,
		DaysRemaining: e.DaysRemaining,
	}
}

type messageResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	ReadAt    string `json:"read_at,omitempty"`
}

func toMessageResponse(m core.Message) messageResponse {
	resp := messageResponse{
		ID:        m.ID,
		Kind:      m.Kind,
		Title:     m.Title,
		Body:      m.Body,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.ReadAt != nil {
		resp.ReadAt = m.ReadAt.UTC().Format(time.RFC3339)
	}
	return resp
}
