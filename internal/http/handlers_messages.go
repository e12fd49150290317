package http

import (
	"net/http"
	"time"
)

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, userID string) {
	unreadOnly := r.URL.Query().Get("unread") == "1"
	msgs, err := s.store.ListMessages(r.Context(), userID, unreadOnly)
	if err != nil {
		writeStoreError(w, r, err, "messages")
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkMessageRead(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.MarkMessageRead(r.Context(), userID, r.PathValue("id"), time.Now().UTC()); err != nil {
		writeStoreError(w, r, err, "message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
