package amqp

import (
	"testing"
	"time"
)

func TestBudgetAlertMessageRoundTrip(t *testing.T) {
	msg := NewBudgetAlertMessage("b1", "u1", "Groceries Q1", "over-budget", 133.33)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := BudgetAlertMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if got.BudgetID != "b1" || got.UserID != "u1" || got.BudgetName != "Groceries Q1" {
		t.Fatalf("identity fields mangled: %+v", got)
	}
	if got.Status != "over-budget" {
		t.Fatalf("status = %q, want over-budget", got.Status)
	}
	if got.Percentage != 133.33 {
		t.Fatalf("percentage = %v, want 133.33", got.Percentage)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp should be set")
	}
}

func TestBudgetAlertMessageFromJSONInvalid(t *testing.T) {
	if _, err := BudgetAlertMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestNewBudgetAlertMessageTimestamp(t *testing.T) {
	before := time.Now()
	msg := NewBudgetAlertMessage("b1", "u1", "n", "approaching-limit", 85)
	after := time.Now()

	if msg.Timestamp.Before(before) || msg.Timestamp.After(after) {
		t.Fatalf("timestamp %v outside [%v, %v]", msg.Timestamp, before, after)
	}
}
