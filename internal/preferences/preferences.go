// Package preferences persists the user's interface settings: theme, language, onboarding
// state, the last chosen template and the id of the saved résumé being edited.
package preferences

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/storage"
)

// Theme is the colour scheme of the interface.
type Theme string

// Themes
const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Preferences are the per-user interface settings.
type Preferences struct {
	Theme            Theme       `json:"theme" validate:"oneof=dark light"`
	Language         i18n.Locale `json:"language" validate:"oneof=pt en"`
	TourCompleted    bool        `json:"tourCompleted"`
	SelectedTemplate string      `json:"selectedTemplate,omitempty" validate:"max=64"`
	EditingID        string      `json:"editingId,omitempty" validate:"max=64"`
}

// Defaults returns the preferences of a first visit.
func Defaults() Preferences {
	return Preferences{Theme: ThemeDark, Language: i18n.Default}
}

var validate = validator.New()

// Validate checks the enum fields.
func (p Preferences) Validate() error {
	if err := validate.Struct(p); err != nil {
		return &ValidationError{Cause: err}
	}
	return nil
}

// ValidationError reports preferences with an unknown theme or language.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid preferences: %v", e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Store reads and writes preferences, one backend key per field.
type Store struct {
	backend storage.Backend
}

// NewStore creates a preferences store on backend.
func NewStore(backend storage.Backend) *Store {
	return &Store{backend: backend}
}

// Load returns the stored preferences. Missing or invalid values fall back to their defaults.
func (s *Store) Load(ctx context.Context) (Preferences, error) {
	p := Defaults()

	theme, ok, err := s.backend.Get(ctx, storage.KeyTheme)
	if err != nil {
		return p, err
	}
	if ok {
		switch Theme(theme) {
		case ThemeDark, ThemeLight:
			p.Theme = Theme(theme)
		default:
			log.Printf("[preferences] ignoring unknown theme %q", theme)
		}
	}

	lang, ok, err := s.backend.Get(ctx, storage.KeyLanguage)
	if err != nil {
		return p, err
	}
	if ok {
		p.Language = i18n.Parse(lang)
	}

	tour, ok, err := s.backend.Get(ctx, storage.KeyTourCompleted)
	if err != nil {
		return p, err
	}
	if ok {
		p.TourCompleted, _ = strconv.ParseBool(tour)
	}

	if p.SelectedTemplate, _, err = s.backend.Get(ctx, storage.KeySelectedTemplate); err != nil {
		return p, err
	}
	if p.EditingID, _, err = s.backend.Get(ctx, storage.KeyEditingID); err != nil {
		return p, err
	}
	return p, nil
}

// Save validates p and writes every field. Empty optional fields are removed from the backend.
func (s *Store) Save(ctx context.Context, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if err := s.backend.Set(ctx, storage.KeyTheme, string(p.Theme)); err != nil {
		return err
	}
	if err := s.backend.Set(ctx, storage.KeyLanguage, string(p.Language)); err != nil {
		return err
	}
	if err := s.setOrDelete(ctx, storage.KeyTourCompleted, tourValue(p.TourCompleted)); err != nil {
		return err
	}
	if err := s.setOrDelete(ctx, storage.KeySelectedTemplate, p.SelectedTemplate); err != nil {
		return err
	}
	return s.setOrDelete(ctx, storage.KeyEditingID, p.EditingID)
}

func tourValue(done bool) string {
	if done {
		return "true"
	}
	return ""
}

func (s *Store) setOrDelete(ctx context.Context, key, value string) error {
	if value == "" {
		return s.backend.Delete(ctx, key)
	}
	return s.backend.Set(ctx, key, value)
}

// Update loads the preferences, applies fn and saves the result.
func (s *Store) Update(ctx context.Context, fn func(p *Preferences)) (Preferences, error) {
	p, err := s.Load(ctx)
	if err != nil {
		return p, err
	}
	fn(&p)
	if err := s.Save(ctx, p); err != nil {
		return p, err
	}
	return p, nil
}

// ToggleLanguage switches between Portuguese and English.
func (s *Store) ToggleLanguage(ctx context.Context) (Preferences, error) {
	return s.Update(ctx, func(p *Preferences) {
		if p.Language == i18n.PT {
			p.Language = i18n.EN
		} else {
			p.Language = i18n.PT
		}
	})
}

// SetEditingID records which saved résumé is open. An empty id clears it.
func (s *Store) SetEditingID(ctx context.Context, id string) error {
	return s.setOrDelete(ctx, storage.KeyEditingID, id)
}

// CompleteTour marks the onboarding tour as seen.
func (s *Store) CompleteTour(ctx context.Context) error {
	return s.backend.Set(ctx, storage.KeyTourCompleted, "true")
}
