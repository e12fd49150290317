package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/budget"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/storage"
)

type memStore struct {
	users    map[string]core.User
	tags     map[string]core.Tag
	txns     map[string]core.Transaction
	budgets  map[string]core.Budget
	messages map[string]core.Message
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]core.User),
		tags:     make(map[string]core.Tag),
		txns:     make(map[string]core.Transaction),
		budgets:  make(map[string]core.Budget),
		messages: make(map[string]core.Message),
	}
}

func (m *memStore) CreateUser(_ context.Context, u core.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (core.User, error) {
	u, ok := m.users[id]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateTag(_ context.Context, t core.Tag) error {
	m.tags[t.ID] = t
	return nil
}

func (m *memStore) UpdateTag(_ context.Context, t core.Tag) error {
	if _, ok := m.tags[t.ID]; !ok {
		return storage.ErrNotFound
	}
	m.tags[t.ID] = t
	return nil
}

func (m *memStore) DeleteTag(_ context.Context, userID, id string) error {
	t, ok := m.tags[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.tags, id)
	return nil
}

func (m *memStore) GetTag(_ context.Context, userID, id string) (core.Tag, error) {
	t, ok := m.tags[id]
	if !ok || t.UserID != userID {
		return core.Tag{}, storage.ErrNotFound
	}
	return t, nil
}

func (m *memStore) ListTags(_ context.Context, userID string) ([]core.Tag, error) {
	var out []core.Tag
	for _, t := range m.tags {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memStore) ReorderTags(_ context.Context, userID string, orderedIDs []string) error {
	for pos, id := range orderedIDs {
		t, ok := m.tags[id]
		if !ok || t.UserID != userID {
			return storage.ErrNotFound
		}
		t.DisplayOrder = pos
		m.tags[id] = t
	}
	return nil
}

func (m *memStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	m.txns[t.ID] = t
	return nil
}

func (m *memStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if _, ok := m.txns[t.ID]; !ok {
		return storage.ErrNotFound
	}
	m.txns[t.ID] = t
	return nil
}

func (m *memStore) DeleteTransaction(_ context.Context, userID, id string) error {
	t, ok := m.txns[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.txns, id)
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	t, ok := m.txns[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (m *memStore) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range m.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) CreateBudget(_ context.Context, b core.Budget) error {
	m.budgets[b.ID] = b
	return nil
}

func (m *memStore) UpdateBudget(_ context.Context, b core.Budget) error {
	if _, ok := m.budgets[b.ID]; !ok {
		return storage.ErrNotFound
	}
	m.budgets[b.ID] = b
	return nil
}

func (m *memStore) DeleteBudget(_ context.Context, userID, id string) error {
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

func (m *memStore) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, storage.ErrNotFound
	}
	return b, nil
}

func (m *memStore) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListMessages(_ context.Context, userID string, unreadOnly bool) ([]core.Message, error) {
	var out []core.Message
	for _, msg := range m.messages {
		if msg.UserID != userID {
			continue
		}
		if unreadOnly && msg.ReadAt != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (m *memStore) MarkMessageRead(_ context.Context, userID, id string, at time.Time) error {
	msg, ok := m.messages[id]
	if !ok || msg.UserID != userID {
		return storage.ErrNotFound
	}
	msg.ReadAt = &at
	m.messages[id] = msg
	return nil
}

type fakeEvaluator struct {
	overviewCalls int
	entries       []budget.OverviewEntry
}

func (f *fakeEvaluator) Comparison(_ context.Context, _, budgetID string, _ time.Time) (budget.OverviewEntry, error) {
	for _, e := range f.entries {
		if e.BudgetID == budgetID {
			return e, nil
		}
	}
	return budget.OverviewEntry{}, fmt.Errorf("budget %s: %w", budgetID, storage.ErrNotFound)
}

func (f *fakeEvaluator) Overview(_ context.Context, _ string, _ time.Time) ([]budget.OverviewEntry, error) {
	f.overviewCalls++
	return f.entries, nil
}

func newTestServer(t *testing.T, store Store, eval BudgetEvaluator) *Server {
	t.Helper()
	s := NewServer(":0", store, eval, Options{})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	s.now = func() time.Time {
		return time.Date(2026, time.March, 16, 10, 0, 0, 0, time.UTC)
	}
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestMissingUserHeader(t *testing.T) {
	s := newTestServer(t, newMemStore(), &fakeEvaluator{})
	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHealthEndpointsSkipAuth(t *testing.T) {
	s := newTestServer(t, newMemStore(), &fakeEvaluator{})
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestUserRegistrationAndLookup(t *testing.T) {
	s := newTestServer(t, newMemStore(), &fakeEvaluator{})

	// Registration needs no X-User-ID.
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"Sam@Example.com","name":"Sam"}`))
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body)
	}
	var created userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if created.Email != "sam@example.com" || created.ID == "" {
		t.Fatalf("created = %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("X-User-ID", created.ID)
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"not-an-email"}`))
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad email status = %d, want 422", rec.Code)
	}
}

func TestTagLifecycle(t *testing.T) {
	s := newTestServer(t, newMemStore(), &fakeEvaluator{})

	rec := doRequest(s, http.MethodPost, "/tags", `{"name":"Groceries","color":"#00ff00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created tagResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created tag: %v", err)
	}
	if created.ID == "" || created.Name != "Groceries" {
		t.Fatalf("created = %+v", created)
	}

	rec = doRequest(s, http.MethodPut, "/tags/"+created.ID, `{"name":"Food","color":"#00ff00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}

	rec = doRequest(s, http.MethodGet, "/tags", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var tags []tagResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tags); err != nil {
		t.Fatalf("decode tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "Food" {
		t.Fatalf("tags = %+v", tags)
	}

	rec = doRequest(s, http.MethodDelete, "/tags/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(s, http.MethodDelete, "/tags/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestTagReorder(t *testing.T) {
	store := newMemStore()
	s := newTestServer(t, store, &fakeEvaluator{})

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		rec := doRequest(s, http.MethodPost, "/tags", `{"name":"`+name+`"}`)
		var tag tagResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &tag); err != nil {
			t.Fatalf("decode tag: %v", err)
		}
		ids = append(ids, tag.ID)
	}

	body, _ := json.Marshal(map[string][]string{"tag_ids": {ids[2], ids[0], ids[1]}})
	rec := doRequest(s, http.MethodPost, "/tags/reorder", string(body))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reorder status = %d: %s", rec.Code, rec.Body)
	}

	rec = doRequest(s, http.MethodGet, "/tags", "")
	var tags []tagResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tags); err != nil {
		t.Fatalf("decode tags: %v", err)
	}
	if tags[0].Name != "c" || tags[1].Name != "a" || tags[2].Name != "b" {
		t.Fatalf("order = %s, %s, %s", tags[0].Name, tags[1].Name, tags[2].Name)
	}
}

func TestCreateTransactionPrecision(t *testing.T) {
	s := newTestServer(t, newMemStore(), &fakeEvaluator{})

	rec := doRequest(s, http.MethodPost, "/transactions",
		`{"name":"Lunch","amount":"12.50","currency":"EUR","type":"expense","date":"2026-03-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("day-precision create status = %d: %s", rec.Code, rec.Body)
	}
	var tx transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tx.TimePrecision != string(core.PrecisionDay) || tx.Date != "2026-03-10" {
		t.Fatalf("day tx = %+v", tx)
	}

	rec = doRequest(s, http.MethodPost, "/transactions",
		`{"name":"Coffee","amount":"3","currency":"EUR","type":"EXPENSE","date":"2026-03-10T08:30:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("datetime create status = %d: %s", rec.Code, rec.Body)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tx.TimePrecision != string(core.PrecisionDateTime) {
		t.Fatalf("precision = %s, want datetime", tx.TimePrecision)
	}
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	s := newTestServer(t, newMemStore(), &fakeEvaluator{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid JSON", `{not json`, http.StatusBadRequest},
		{"bad amount", `{"name":"x","amount":"abc","currency":"EUR","type":"EXPENSE","date":"2026-03-10"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"name":"x","amount":"-5","currency":"EUR","type":"EXPENSE","date":"2026-03-10"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"name":"x","amount":"5","currency":"EUR","type":"EXPENSE","date":"March 10"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"name":"x","amount":"5","currency":"EUR","type":"TRANSFER","date":"2026-03-10"}`, http.StatusUnprocessableEntity},
		{"unknown tag", `{"name":"x","amount":"5","currency":"EUR","type":"EXPENSE","date":"2026-03-10","tag_ids":["nope"]}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/transactions", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestListTransactionsFilteredAndGrouped(t *testing.T) {
	s := newTestServer(t, newMemStore(), &fakeEvaluator{})

	payloads := []string{
		`{"name":"Lunch today","amount":"12","currency":"EUR","type":"EXPENSE","date":"2026-03-16"}`,
		`{"name":"Dinner yesterday","amount":"30","currency":"EUR","type":"EXPENSE","date":"2026-03-15"}`,
		`{"name":"Salary","amount":"2000","currency":"EUR","type":"INCOME","date":"2026-03-01"}`,
	}
	for _, p := range payloads {
		if rec := doRequest(s, http.MethodPost, "/transactions", p); rec.Code != http.StatusCreated {
			t.Fatalf("seed create status = %d: %s", rec.Code, rec.Body)
		}
	}

	rec := doRequest(s, http.MethodGet, "/transactions?types=EXPENSE", "")
	var list []transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("filtered list has %d entries, want 2", len(list))
	}

	rec = doRequest(s, http.MethodGet, "/transactions?grouped=1", "")
	var groups []groupResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode groups: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if groups[0].Header != "Today" || groups[1].Header != "Yesterday" {
		t.Fatalf("headers = %q, %q", groups[0].Header, groups[1].Header)
	}
	if groups[0].Transactions[0].Name != "Lunch today" {
		t.Fatalf("first group tx = %q", groups[0].Transactions[0].Name)
	}
}

func TestBudgetOverviewCaching(t *testing.T) {
	eval := &fakeEvaluator{entries: []budget.OverviewEntry{{BudgetID: "b1", Name: "X"}}}
	s := newTestServer(t, newMemStore(), eval)

	for range 3 {
		rec := doRequest(s, http.MethodGet, "/budgets/overview", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("overview status = %d", rec.Code)
		}
	}
	if eval.overviewCalls != 1 {
		t.Fatalf("evaluator called %d times, want 1 (cached)", eval.overviewCalls)
	}

	// A write invalidates the cache.
	rec := doRequest(s, http.MethodPost, "/transactions",
		`{"name":"x","amount":"5","currency":"EUR","type":"EXPENSE","date":"2026-03-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodGet, "/budgets/overview", ""); rec.Code != http.StatusOK {
		t.Fatalf("overview status = %d", rec.Code)
	}
	if eval.overviewCalls != 2 {
		t.Fatalf("evaluator called %d times after invalidation, want 2", eval.overviewCalls)
	}
}

func TestBudgetLifecycleAndComparison(t *testing.T) {
	eval := &fakeEvaluator{}
	s := newTestServer(t, newMemStore(), eval)

	body := `{"name":"March","currency":"EUR","start_date":"2026-03-01","end_date":"2026-03-31",
		"items":[{"tag_id":"t1","expected":"100"},{"expected":"50"}]}`
	rec := doRequest(s, http.MethodPost, "/budgets", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created budgetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	if len(created.Items) != 2 {
		t.Fatalf("items = %+v", created.Items)
	}

	eval.entries = []budget.OverviewEntry{{BudgetID: created.ID, Name: "March"}}
	rec = doRequest(s, http.MethodGet, "/budgets/"+created.ID+"/comparison", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("comparison status = %d: %s", rec.Code, rec.Body)
	}

	rec = doRequest(s, http.MethodGet, "/budgets/missing/comparison", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing comparison status = %d, want 404", rec.Code)
	}

	// Inverted period is rejected.
	bad := `{"name":"Bad","currency":"EUR","start_date":"2026-03-31","end_date":"2026-03-01","items":[]}`
	if rec := doRequest(s, http.MethodPost, "/budgets", bad); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("inverted period status = %d, want 422", rec.Code)
	}
}

func TestMessages(t *testing.T) {
	store := newMemStore()
	readAt := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	store.messages["m1"] = core.Message{ID: "m1", UserID: "u1", Kind: "budget_alert", Title: "Over budget", CreatedAt: readAt}
	store.messages["m2"] = core.Message{ID: "m2", UserID: "u1", Kind: "budget_alert", Title: "Read one", CreatedAt: readAt, ReadAt: &readAt}
	store.messages["m3"] = core.Message{ID: "m3", UserID: "other", Kind: "budget_alert", Title: "Not mine", CreatedAt: readAt}
	s := newTestServer(t, store, &fakeEvaluator{})

	rec := doRequest(s, http.MethodGet, "/messages", "")
	var msgs []messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}

	rec = doRequest(s, http.MethodGet, "/messages?unread=1", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("unread = %+v", msgs)
	}

	if rec := doRequest(s, http.MethodPost, "/messages/m1/read", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("mark read status = %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodPost, "/messages/m3/read", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign mark read status = %d, want 404", rec.Code)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	s := newTestServer(t, newMemStore(), &fakeEvaluator{})
	s.rateLimiter.stop()
	s.rateLimiter = newRateLimiter(2)
	t.Cleanup(s.rateLimiter.stop)

	body := `{"name":"x","amount":"5","currency":"EUR","type":"EXPENSE","date":"2026-03-10"}`
	for i := 0; i < 2; i++ {
		if rec := doRequest(s, http.MethodPost, "/transactions", body); rec.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := doRequest(s, http.MethodPost, "/transactions", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	// Reads stay unthrottled.
	if rec := doRequest(s, http.MethodGet, "/transactions", ""); rec.Code != http.StatusOK {
		t.Fatalf("read status = %d, want 200", rec.Code)
	}
}
