package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/meucv/internal/notify"
)

// NotificationsResponse represents the response for GET /notifications
type NotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}

// handleGetPreferences returns the interface settings
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.session.Preferences(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

// handlePutPreferences updates the fields present in the body
func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.session.Preferences(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&p); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.session.SetPreferences(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

// handleNotifications returns and clears the recorded toasts
func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, NotificationsResponse{Notifications: s.toasts.Drain()})
}
