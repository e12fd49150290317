package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/filter"
)

// handleListTransactions lists the user's transactions with the filter state
// taken from the query string. With grouped=1, results come back bucketed by
// calendar date, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	txns, err := s.store.ListTransactions(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "transactions")
		return
	}

	now := s.now()
	state := filter.Deserialize(r.URL.Query())
	txns = state.Apply(txns, now)

	if r.URL.Query().Get("grouped") == "1" {
		writeJSON(w, http.StatusOK, toGroupResponses(filter.GroupByDate(txns, now)))
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	tx, err := s.store.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "transaction")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := payload.toTransaction(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()

	tags, ok := s.resolveTags(w, r, userID, payload.TagIDs)
	if !ok {
		return
	}
	tx.Tags = tags

	if err := s.store.CreateTransaction(r.Context(), tx); err != nil {
		writeStoreError(w, r, err, "transaction")
		return
	}
	s.invalidateOverview(userID)
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.store.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "transaction")
		return
	}

	tx, err := payload.toTransaction(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.ID = existing.ID
	tx.CreatedAt = existing.CreatedAt

	tags, ok := s.resolveTags(w, r, userID, payload.TagIDs)
	if !ok {
		return
	}
	tx.Tags = tags

	if err := s.store.UpdateTransaction(r.Context(), tx); err != nil {
		writeStoreError(w, r, err, "transaction")
		return
	}
	s.invalidateOverview(userID)
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeStoreError(w, r, err, "transaction")
		return
	}
	s.invalidateOverview(userID)
	w.WriteHeader(http.StatusNoContent)
}

// resolveTags maps tag ids to the user's tag records, writing the error
// response itself when one does not resolve.
func (s *Server) resolveTags(w http.ResponseWriter, r *http.Request, userID string, tagIDs []string) ([]core.Tag, bool) {
	if len(tagIDs) == 0 {
		return nil, true
	}
	all, err := s.store.ListTags(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "tags")
		return nil, false
	}
	byID := make(map[string]core.Tag, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	tags := make([]core.Tag, 0, len(tagIDs))
	for _, id := range tagIDs {
		t, ok := byID[id]
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "unknown tag: "+id)
			return nil, false
		}
		tags = append(tags, t)
	}
	return tags, true
}
