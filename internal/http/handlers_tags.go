package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request, userID string) {
	tags, err := s.store.ListTags(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "tags")
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request, userID string) {
	var payload tagPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tag := core.Tag{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(payload.Name),
		Color:       strings.TrimSpace(payload.Color),
		Description: strings.TrimSpace(payload.Description),
	}
	if err := tag.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// New tags go to the end of the user's ordering.
	existing, err := s.store.ListTags(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "tags")
		return
	}
	tag.DisplayOrder = len(existing)

	if err := s.store.CreateTag(r.Context(), tag); err != nil {
		writeStoreError(w, r, err, "tag")
		return
	}
	writeJSON(w, http.StatusCreated, toTagResponse(tag))
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request, userID string) {
	var payload tagPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tag, err := s.store.GetTag(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "tag")
		return
	}
	tag.Name = strings.TrimSpace(payload.Name)
	tag.Color = strings.TrimSpace(payload.Color)
	tag.Description = strings.TrimSpace(payload.Description)
	if err := tag.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateTag(r.Context(), tag); err != nil {
		writeStoreError(w, r, err, "tag")
		return
	}
	writeJSON(w, http.StatusOK, toTagResponse(tag))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteTag(r.Context(), userID, r.PathValue("id")); err != nil {
		writeStoreError(w, r, err, "tag")
		return
	}
	// Budget lines referencing the tag now read as zero actuals.
	s.invalidateOverview(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderTags(w http.ResponseWriter, r *http.Request, userID string) {
	var payload struct {
		TagIDs []string `json:"tag_ids"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(payload.TagIDs) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "tag_ids must not be empty")
		return
	}

	if err := s.store.ReorderTags(r.Context(), userID, payload.TagIDs); err != nil {
		writeStoreError(w, r, err, "tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
