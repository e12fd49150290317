package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

type userPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleCreateUser registers a user record. It sits outside the user-scoped
// middleware because the caller has no id yet.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload userPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusUnprocessableEntity, "valid email required")
		return
	}

	user := core.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(payload.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		writeStoreError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request, userID string) {
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
