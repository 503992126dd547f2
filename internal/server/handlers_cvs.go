package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jonathan/meucv/internal/types"
)

// SaveCVRequest is the body of POST /cvs
type SaveCVRequest struct {
	Name string `json:"name"`
}

// ListCVsResponse represents the response for GET /cvs
type ListCVsResponse struct {
	CVs   []types.SavedCV `json:"cvs"`
	Count int             `json:"count"`
}

// OpenCVResponse represents the response for GET /cvs/{id}
type OpenCVResponse struct {
	CV       types.SavedCV `json:"cv"`
	Document *types.CVData `json:"document"`
}

// handleListCVs lists saved résumés, optionally filtered by ?q=
func (s *Server) handleListCVs(w http.ResponseWriter, r *http.Request) {
	list, err := s.session.SavedCVs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ListCVsResponse{CVs: list, Count: len(list)})
}

// handleSaveCV stores the current document in the library
func (s *Server) handleSaveCV(w http.ResponseWriter, r *http.Request) {
	var req SaveCVRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	saved, err := s.session.SaveToLibrary(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, saved)
}

// handleOpenCV loads a saved résumé into the session
func (s *Server) handleOpenCV(w http.ResponseWriter, r *http.Request) {
	doc, entry, err := s.session.OpenSaved(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, OpenCVResponse{CV: entry, Document: doc})
}

// handleDuplicateCV copies a saved résumé
func (s *Server) handleDuplicateCV(w http.ResponseWriter, r *http.Request) {
	copied, err := s.session.DuplicateSaved(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, copied)
}

// handleDeleteCV removes a saved résumé; unknown ids succeed
func (s *Server) handleDeleteCV(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteSaved(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
