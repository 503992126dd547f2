// Package library manages the collection of saved résumés ("Meus Currículos").
//
// The list of summaries lives under one key; each saved document is stored under its own
// key so listing never decodes full documents.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/meucv/internal/clock"
	"github.com/jonathan/meucv/internal/completion"
	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/resume"
	"github.com/jonathan/meucv/internal/storage"
	"github.com/jonathan/meucv/internal/types"
)

// NotFoundError reports an unknown saved résumé id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("saved CV not found: %s", e.ID)
}

// Library is the saved résumé collection. It is safe for concurrent use.
type Library struct {
	backend storage.Backend
	clock   clock.Clock
	newID   func() string

	// mu serialises read-modify-write cycles of the summary list.
	mu sync.Mutex
}

// Option configures a Library.
type Option func(*Library)

// WithClock sets the time source for timestamps.
func WithClock(c clock.Clock) Option {
	return func(l *Library) { l.clock = c }
}

// WithIDGenerator overrides how saved résumé ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(l *Library) { l.newID = fn }
}

// New creates a library on backend.
func New(backend storage.Backend, opts ...Option) *Library {
	l := &Library{backend: backend, clock: clock.Real{}, newID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns every saved résumé, most recently created first.
// A corrupted list is treated as empty.
func (l *Library) List(ctx context.Context) ([]types.SavedCV, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *Library) load(ctx context.Context) ([]types.SavedCV, error) {
	raw, ok, err := l.backend.Get(ctx, storage.KeySavedCVs)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved CVs: %w", err)
	}
	list := []types.SavedCV{}
	if !ok {
		return list, nil
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Printf("[library] discarding corrupted saved list: %v", err)
		return []types.SavedCV{}, nil
	}
	return list, nil
}

func (l *Library) store(ctx context.Context, list []types.SavedCV) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode saved CVs: %w", err)
	}
	if err := l.backend.Set(ctx, storage.KeySavedCVs, string(data)); err != nil {
		return fmt.Errorf("failed to write saved CVs: %w", err)
	}
	return nil
}

// Search returns the saved résumés whose name or template contains query, ignoring case.
// An empty query matches everything.
func (l *Library) Search(ctx context.Context, query string) ([]types.SavedCV, error) {
	list, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(list, query), nil
}

// Filter keeps the entries whose name or template contains query, ignoring case.
func Filter(list []types.SavedCV, query string) []types.SavedCV {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := []types.SavedCV{}
	for _, cv := range list {
		if strings.Contains(strings.ToLower(cv.Name), q) || strings.Contains(strings.ToLower(cv.Template), q) {
			out = append(out, cv)
		}
	}
	return out
}

// Get returns the summary of a saved résumé.
func (l *Library) Get(ctx context.Context, id string) (types.SavedCV, error) {
	list, err := l.List(ctx)
	if err != nil {
		return types.SavedCV{}, err
	}
	if i := indexOf(list, id); i >= 0 {
		return list[i], nil
	}
	return types.SavedCV{}, &NotFoundError{ID: id}
}

func indexOf(list []types.SavedCV, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// SaveRequest describes a document to store in the library.
type SaveRequest struct {
	// ID of an existing entry to overwrite. Empty creates a new entry.
	ID       string
	Name     string
	Document *types.CVData
	Locale   i18n.Locale
}

// Save stores a document and its summary. A new entry is put at the top of the list;
// an existing one keeps its position and creation time.
func (l *Library) Save(ctx context.Context, req SaveRequest) (types.SavedCV, error) {
	doc := req.Document
	if doc == nil {
		doc = types.DefaultCVData()
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = i18n.T(req.Locale, i18n.Untitled)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.load(ctx)
	if err != nil {
		return types.SavedCV{}, err
	}

	now := l.clock.Now()
	entry := types.SavedCV{
		ID:           req.ID,
		Name:         name,
		Template:     string(doc.Settings.Template),
		LastModified: now,
		CreatedAt:    now,
		IsComplete:   completion.Score(doc, completion.Options{}).Complete(),
	}

	i := -1
	if req.ID != "" {
		i = indexOf(list, req.ID)
		if i < 0 {
			return types.SavedCV{}, &NotFoundError{ID: req.ID}
		}
		entry.CreatedAt = list[i].CreatedAt
	} else {
		entry.ID = l.newID()
	}

	if err := l.writeDocument(ctx, entry.ID, doc); err != nil {
		return types.SavedCV{}, err
	}

	if i >= 0 {
		list[i] = entry
	} else {
		list = append([]types.SavedCV{entry}, list...)
	}
	if err := l.store(ctx, list); err != nil {
		return types.SavedCV{}, err
	}
	return entry, nil
}

func (l *Library) writeDocument(ctx context.Context, id string, doc *types.CVData) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode CV %s: %w", id, err)
	}
	if err := l.backend.Set(ctx, storage.SavedCVKey(id), string(data)); err != nil {
		return fmt.Errorf("failed to write CV %s: %w", id, err)
	}
	return nil
}

// Open returns the stored document of a saved résumé. A missing or corrupted document
// yields an empty one using the entry's template.
func (l *Library) Open(ctx context.Context, id string) (*types.CVData, types.SavedCV, error) {
	entry, err := l.Get(ctx, id)
	if err != nil {
		return nil, types.SavedCV{}, err
	}
	return l.readDocument(ctx, entry), entry, nil
}

func (l *Library) readDocument(ctx context.Context, entry types.SavedCV) *types.CVData {
	empty := func() *types.CVData {
		doc := types.DefaultCVData()
		if t := types.Template(entry.Template); t.Valid() {
			doc.Settings.Template = t
		}
		return doc
	}

	raw, ok, err := l.backend.Get(ctx, storage.SavedCVKey(entry.ID))
	if err != nil {
		log.Printf("[library] failed to read CV %s: %v", entry.ID, err)
		return empty()
	}
	if !ok {
		return empty()
	}
	doc, err := resume.Decode([]byte(raw))
	if err != nil {
		log.Printf("[library] discarding corrupted CV %s: %v", entry.ID, err)
		return empty()
	}
	return doc
}

// Duplicate copies a saved résumé under a new id, suffixing its name, and puts the copy
// at the top of the list.
func (l *Library) Duplicate(ctx context.Context, id string, locale i18n.Locale) (types.SavedCV, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.load(ctx)
	if err != nil {
		return types.SavedCV{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return types.SavedCV{}, &NotFoundError{ID: id}
	}

	now := l.clock.Now()
	copied := list[i]
	copied.ID = l.newID()
	copied.Name = list[i].Name + i18n.T(locale, i18n.CopySuffix)
	copied.CreatedAt = now
	copied.LastModified = now

	raw, ok, err := l.backend.Get(ctx, storage.SavedCVKey(id))
	if err != nil {
		return types.SavedCV{}, fmt.Errorf("failed to read CV %s: %w", id, err)
	}
	if ok {
		if err := l.backend.Set(ctx, storage.SavedCVKey(copied.ID), raw); err != nil {
			return types.SavedCV{}, fmt.Errorf("failed to write CV %s: %w", copied.ID, err)
		}
	}

	list = append([]types.SavedCV{copied}, list...)
	if err := l.store(ctx, list); err != nil {
		return types.SavedCV{}, err
	}
	return copied, nil
}

// Delete removes a saved résumé and its document. Deleting an unknown id is a no-op.
func (l *Library) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.load(ctx)
	if err != nil {
		return err
	}
	if i := indexOf(list, id); i >= 0 {
		list = append(list[:i:i], list[i+1:]...)
		if err := l.store(ctx, list); err != nil {
			return err
		}
	}
	if err := l.backend.Delete(ctx, storage.SavedCVKey(id)); err != nil {
		return fmt.Errorf("failed to delete CV %s: %w", id, err)
	}
	return nil
}
