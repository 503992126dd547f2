package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/meucv/internal/autosave"
	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/rendering"
	"github.com/jonathan/meucv/internal/resume"
	"github.com/jonathan/meucv/internal/schemas"
	"github.com/jonathan/meucv/internal/types"
)

// maxBodyBytes bounds request bodies. Photos travel as data URLs inside the document.
const maxBodyBytes = 5 << 20

// ItemResponse is returned when a list item is created
type ItemResponse struct {
	ID       string        `json:"id"`
	Document *types.CVData `json:"document"`
}

// SectionOrderRequest is the body of PUT /resume/section-order
type SectionOrderRequest struct {
	SectionOrder []types.SectionKey `json:"sectionOrder"`
}

// SaveResponse reports the outcome of an explicit save
type SaveResponse struct {
	Error    string         `json:"error,omitempty"`
	Autosave autosave.State `json:"autosave"`
}

// readBody reads a bounded JSON request body.
func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if !json.Valid(data) {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	return data, nil
}

// localeParam returns the ?lang= locale, or "" to use the session language.
func localeParam(r *http.Request) i18n.Locale {
	if v := r.URL.Query().Get("lang"); v != "" {
		return i18n.Parse(v)
	}
	return ""
}

// handleGetResume returns the current document
func (s *Server) handleGetResume(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.Document())
}

// handleReplaceResume imports a whole document after schema validation
func (s *Server) handleReplaceResume(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := schemas.ValidateDocument(data); err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := resume.Decode(data)
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, s.session.Replace(doc))
}

// handleResetResume starts a new empty document
func (s *Server) handleResetResume(w http.ResponseWriter, r *http.Request) {
	doc, err := s.session.NewDocument(r.Context())
	if err != nil {
		log.Printf("[server] clearing editing id: %v", err)
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleUpdateSection merges or replaces one section
func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := s.session.Update(resume.Section(r.PathValue("section")), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleAddItem appends an item to a list section
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, id, err := s.session.AddListItem(resume.Section(r.PathValue("section")), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, ItemResponse{ID: id, Document: doc})
}

// handleUpdateItem merges a patch into one list item
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := s.session.UpdateListItem(resume.Section(r.PathValue("section")), r.PathValue("id"), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleRemoveItem removes one list item; unknown ids succeed
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	doc, err := s.session.RemoveListItem(resume.Section(r.PathValue("section")), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleReorderSections sets the display order of the sections
func (s *Server) handleReorderSections(w http.ResponseWriter, r *http.Request) {
	var req SectionOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	doc, err := s.session.ReorderSections(req.SectionOrder)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleSave writes the current document immediately
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Save(r.Context()); err != nil {
		s.jsonResponse(w, HTTPStatus(err), SaveResponse{
			Error:    err.Error(),
			Autosave: s.session.AutosaveState(),
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, SaveResponse{Autosave: s.session.AutosaveState()})
}

// handleAutosaveState returns the autosave read model
func (s *Server) handleAutosaveState(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.AutosaveState())
}

// handleAutosaveEvents streams autosave state changes as server-sent events
func (s *Server) handleAutosaveEvents(w http.ResponseWriter, r *http.Request) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	states, cancel := s.session.SubscribeAutosave()
	defer cancel()

	ping := time.NewTicker(ssePingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.stopping:
			sse.WriteComplete("shutdown")
			return
		case <-ping.C:
			if err := sse.Ping(); err != nil {
				log.Printf("[server] autosave stream closed: %v", err)
				return
			}
		case st, ok := <-states:
			if !ok {
				sse.WriteComplete(string(autosave.StatusIdle))
				return
			}
			if err := sse.WriteEvent("state", st); err != nil {
				log.Printf("[server] autosave stream closed: %v", err)
				return
			}
		}
	}
}

// handleScore returns the completion report
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	hints := -1
	if v := r.URL.Query().Get("hints"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, &ErrValidation{Field: "hints", Message: "must be a non-negative integer"})
			return
		}
		hints = n
	}
	s.jsonResponse(w, http.StatusOK, s.session.Score(hints, localeParam(r)))
}

// handleProgress returns the step progress
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.Progress(localeParam(r)))
}

// handlePreview renders the current document as text or markdown
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	format := rendering.ParseFormat(r.URL.Query().Get("format"))
	out, err := s.session.Preview(format, localeParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, out); err != nil {
		log.Printf("Error writing preview: %v", err)
	}
}
