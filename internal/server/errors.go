// Package server provides the HTTP REST API over a résumé editing session.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/jonathan/meucv/internal/autosave"
	"github.com/jonathan/meucv/internal/library"
	"github.com/jonathan/meucv/internal/preferences"
	"github.com/jonathan/meucv/internal/resume"
	"github.com/jonathan/meucv/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		requestErr  *ErrValidation
		resumeErr   *resume.ValidationError
		prefsErr    *preferences.ValidationError
		documentErr *schemas.DocumentError
		schemaErr   *schemas.ValidationError
		sectionErr  *resume.SectionError
		notFoundErr *library.NotFoundError
		persistErr  *resume.PersistenceError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &requestErr), errors.As(err, &resumeErr),
		errors.As(err, &prefsErr), errors.As(err, &documentErr):
		return http.StatusBadRequest
	case errors.As(err, &sectionErr), errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &persistErr), errors.Is(err, autosave.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string               `json:"error"`
	Fields []schemas.FieldError `json:"fields,omitempty"`
}

// writeError maps err to a status and writes it as JSON. Internal errors are logged, not echoed.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	body := errorBody{Error: err.Error()}

	var schemaErr *schemas.ValidationError
	if errors.As(err, &schemaErr) {
		body.Error = "document does not match the CV schema"
		body.Fields = schemaErr.Errors
	}
	if status == http.StatusInternalServerError {
		log.Printf("[server] internal error: %v", err)
		body.Error = "internal server error"
	}
	s.jsonResponse(w, status, body)
}
