package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage tells the worker a budget crossed a spending threshold.
// It carries only identifiers and the classification; the worker composes the
// notification text itself.
type BudgetAlertMessage struct {
	BudgetID   string    `json:"budget_id"`
	UserID     string    `json:"user_id"`
	BudgetName string    `json:"budget_name"`
	Status     string    `json:"status"`
	Percentage float64   `json:"percentage"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(budgetID, userID, budgetName, status string, percentage float64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		BudgetID:   budgetID,
		UserID:     userID,
		BudgetName: budgetName,
		Status:     status,
		Percentage: percentage,
		Timestamp:  time.Now(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
