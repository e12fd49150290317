package http

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, userID string) {
	budgets, err := s.store.ListBudgets(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "budgets")
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, userID string) {
	b, err := s.store.GetBudget(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, userID string) {
	var payload budgetPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := payload.toBudget(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	b.ID = uuid.NewString()

	if err := s.store.CreateBudget(r.Context(), b); err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	s.invalidateOverview(userID)
	writeJSON(w, http.StatusCreated, toBudgetResponse(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, userID string) {
	var payload budgetPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := payload.toBudget(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	b.ID = r.PathValue("id")

	if err := s.store.UpdateBudget(r.Context(), b); err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	s.invalidateOverview(userID)
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteBudget(r.Context(), userID, r.PathValue("id")); err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	s.invalidateOverview(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetComparison(w http.ResponseWriter, r *http.Request, userID string) {
	entry, err := s.budgets.Comparison(r.Context(), userID, r.PathValue("id"), s.now())
	if err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	writeJSON(w, http.StatusOK, toComparisonResponse(entry))
}

func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request, userID string) {
	key := overviewKey(userID)
	entries, found := s.overviewCache.Get(key)
	if found {
		slog.DebugContext(r.Context(), "Overview cache hit", "user_id", userID)
	} else {
		var err error
		entries, err = s.budgets.Overview(r.Context(), userID, s.now())
		if err != nil {
			writeStoreError(w, r, err, "budgets")
			return
		}
		s.overviewCache.Set(key, entries)
	}

	out := make([]comparisonResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toComparisonResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}
