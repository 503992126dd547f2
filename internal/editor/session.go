// Package editor ties the résumé store, autosave, scoring and the saved library into the
// single editing session the HTTP API and the CLI drive.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonathan/meucv/internal/autosave"
	"github.com/jonathan/meucv/internal/clock"
	"github.com/jonathan/meucv/internal/completion"
	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/library"
	"github.com/jonathan/meucv/internal/notify"
	"github.com/jonathan/meucv/internal/preferences"
	"github.com/jonathan/meucv/internal/rendering"
	"github.com/jonathan/meucv/internal/resume"
	"github.com/jonathan/meucv/internal/storage"
	"github.com/jonathan/meucv/internal/types"
)

// Config holds the collaborators and knobs of a session.
type Config struct {
	Backend storage.Backend
	// Key overrides the document key. Defaults to storage.KeyCurrentCV.
	Key             string
	Delay           time.Duration
	Clock           clock.Clock
	Sink            notify.Sink
	MaxHints        int
	PreviewTemplate string
	// Locale is the language used until the user picks one.
	Locale i18n.Locale
	// IDGenerator overrides uuid ids for list items and saved résumés.
	IDGenerator func() string
}

// Session is one user's editing session. Every mutation goes through the store and then
// schedules an autosave.
type Session struct {
	store    *resume.Store
	autosave *autosave.Policy
	library  *library.Library
	prefs    *preferences.Store
	sink     notify.Sink

	maxHints        int
	previewTemplate string

	mu     sync.RWMutex
	locale i18n.Locale
}

// Open loads the preferences and the last edited document and starts an idle autosave policy.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("editor: backend is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Sink == nil {
		cfg.Sink = notify.LogSink{}
	}

	prefs := preferences.NewStore(cfg.Backend)
	p, err := prefs.Load(ctx)
	if err != nil {
		log.Printf("[editor] using default preferences: %v", err)
		p = preferences.Defaults()
	}
	if cfg.Locale != "" {
		if _, stored, err := cfg.Backend.Get(ctx, storage.KeyLanguage); err == nil && !stored {
			p.Language = cfg.Locale
		}
	}

	var storeOpts []resume.Option
	libOpts := []library.Option{library.WithClock(cfg.Clock)}
	if cfg.Key != "" {
		storeOpts = append(storeOpts, resume.WithKey(cfg.Key))
	}
	if cfg.IDGenerator != nil {
		storeOpts = append(storeOpts, resume.WithIDGenerator(cfg.IDGenerator))
		libOpts = append(libOpts, library.WithIDGenerator(cfg.IDGenerator))
	}

	store := resume.NewStore(cfg.Backend, storeOpts...)
	store.Load(ctx, "")

	s := &Session{
		store:           store,
		library:         library.New(cfg.Backend, libOpts...),
		prefs:           prefs,
		sink:            cfg.Sink,
		maxHints:        cfg.MaxHints,
		previewTemplate: cfg.PreviewTemplate,
		locale:          p.Language,
	}
	s.autosave = autosave.New(store,
		autosave.WithClock(cfg.Clock),
		autosave.WithSink(cfg.Sink),
		autosave.WithDelay(cfg.Delay),
		autosave.WithMessages(i18n.T(p.Language, i18n.SaveSuccess), i18n.T(p.Language, i18n.SaveFailed)),
	)
	return s, nil
}

// Locale returns the interface language of the session.
func (s *Session) Locale() i18n.Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

func (s *Session) setLocale(l i18n.Locale) {
	s.mu.Lock()
	s.locale = l
	s.mu.Unlock()
}

// Document returns the current snapshot.
func (s *Session) Document() *types.CVData {
	return s.store.Current()
}

// DocumentKey returns the storage key the document is saved under.
func (s *Session) DocumentKey() string {
	return s.store.Key()
}

// changed schedules an autosave of doc.
func (s *Session) changed(doc *types.CVData) *types.CVData {
	s.autosave.Notify(doc)
	return doc
}

// Update replaces or merges one section.
func (s *Session) Update(section resume.Section, partial json.RawMessage) (*types.CVData, error) {
	doc, err := s.store.Update(section, partial)
	if err != nil {
		return doc, err
	}
	return s.changed(doc), nil
}

// AddListItem appends an item to a list section and returns its id.
func (s *Session) AddListItem(section resume.Section, item json.RawMessage) (*types.CVData, string, error) {
	doc, id, err := s.store.AddListItem(section, item)
	if err != nil {
		return doc, "", err
	}
	return s.changed(doc), id, nil
}

// UpdateListItem merges patch into the item with id.
func (s *Session) UpdateListItem(section resume.Section, id string, patch json.RawMessage) (*types.CVData, error) {
	doc, err := s.store.UpdateListItem(section, id, patch)
	if err != nil {
		return doc, err
	}
	return s.changed(doc), nil
}

// RemoveListItem removes the item with id, if present.
func (s *Session) RemoveListItem(section resume.Section, id string) (*types.CVData, error) {
	doc, err := s.store.RemoveListItem(section, id)
	if err != nil {
		return doc, err
	}
	return s.changed(doc), nil
}

// ReorderSections sets the display order of the sections.
func (s *Session) ReorderSections(order []types.SectionKey) (*types.CVData, error) {
	doc, err := s.store.ReorderSections(order)
	if err != nil {
		return doc, err
	}
	return s.changed(doc), nil
}

// Replace imports a whole document.
func (s *Session) Replace(doc *types.CVData) *types.CVData {
	return s.changed(s.store.Replace(doc))
}

// NewDocument starts over with an empty document that is not linked to a saved résumé.
func (s *Session) NewDocument(ctx context.Context) (*types.CVData, error) {
	doc := s.changed(s.store.Reset())
	if err := s.prefs.SetEditingID(ctx, ""); err != nil {
		return doc, err
	}
	return doc, nil
}

// Save writes the current document now. The toast is sent by the autosave policy.
func (s *Session) Save(ctx context.Context) error {
	return s.autosave.ForceSaveCurrent(ctx, s.store.Current)
}

// AutosaveState returns the autosave read model.
func (s *Session) AutosaveState() autosave.State {
	return s.autosave.State()
}

// SubscribeAutosave streams autosave state changes until cancel is called.
func (s *Session) SubscribeAutosave() (<-chan autosave.State, func()) {
	return s.autosave.Subscribe()
}

// Score computes the completion report of the current document. A negative maxHints uses
// the session default; zero returns every hint.
func (s *Session) Score(maxHints int, l i18n.Locale) completion.Report {
	if maxHints < 0 {
		maxHints = s.maxHints
	}
	if l == "" {
		l = s.Locale()
	}
	return completion.Score(s.store.Current(), completion.Options{MaxHints: maxHints, Locale: l})
}

// Progress computes the step progress of the current document.
func (s *Session) Progress(l i18n.Locale) completion.ProgressReport {
	if l == "" {
		l = s.Locale()
	}
	return completion.Progress(s.store.Current(), l)
}

// Preview renders the current document.
func (s *Session) Preview(format rendering.Format, l i18n.Locale) (string, error) {
	if l == "" {
		l = s.Locale()
	}
	return rendering.Render(s.store.Current(), rendering.Options{
		Locale:       l,
		Format:       format,
		TemplatePath: s.previewTemplate,
	})
}

// SavedCVs lists the saved résumés matching query, most recent first.
func (s *Session) SavedCVs(ctx context.Context, query string) ([]types.SavedCV, error) {
	return s.library.Search(ctx, query)
}

// SaveToLibrary stores the current document in the library. The résumé being edited is
// overwritten; otherwise a new entry is created and becomes the one being edited.
func (s *Session) SaveToLibrary(ctx context.Context, name string) (types.SavedCV, error) {
	p, err := s.prefs.Load(ctx)
	if err != nil {
		return types.SavedCV{}, err
	}

	req := library.SaveRequest{ID: p.EditingID, Name: name, Document: s.store.Current(), Locale: p.Language}
	saved, err := s.library.Save(ctx, req)
	var nf *library.NotFoundError
	if errors.As(err, &nf) {
		log.Printf("[editor] editing id %s no longer exists, saving as new", p.EditingID)
		req.ID = ""
		saved, err = s.library.Save(ctx, req)
	}
	if err != nil {
		return types.SavedCV{}, err
	}

	if err := s.prefs.SetEditingID(ctx, saved.ID); err != nil {
		return saved, err
	}
	s.sink.Notify(notify.Success, i18n.T(p.Language, i18n.SaveSuccess))
	return saved, nil
}

// OpenSaved makes a saved résumé the current document.
func (s *Session) OpenSaved(ctx context.Context, id string) (*types.CVData, types.SavedCV, error) {
	doc, entry, err := s.library.Open(ctx, id)
	if err != nil {
		return nil, types.SavedCV{}, err
	}
	doc = s.changed(s.store.Replace(doc))
	if err := s.prefs.SetEditingID(ctx, id); err != nil {
		return doc, entry, err
	}
	return doc, entry, nil
}

// DuplicateSaved copies a saved résumé.
func (s *Session) DuplicateSaved(ctx context.Context, id string) (types.SavedCV, error) {
	return s.library.Duplicate(ctx, id, s.Locale())
}

// DeleteSaved removes a saved résumé. Deleting the one being edited unlinks the session from it.
func (s *Session) DeleteSaved(ctx context.Context, id string) error {
	if err := s.library.Delete(ctx, id); err != nil {
		return err
	}
	p, err := s.prefs.Load(ctx)
	if err != nil {
		return err
	}
	if p.EditingID == id {
		return s.prefs.SetEditingID(ctx, "")
	}
	return nil
}

// Preferences returns the stored interface settings.
func (s *Session) Preferences(ctx context.Context) (preferences.Preferences, error) {
	return s.prefs.Load(ctx)
}

// SetPreferences validates and stores p.
func (s *Session) SetPreferences(ctx context.Context, p preferences.Preferences) error {
	if err := s.prefs.Save(ctx, p); err != nil {
		return err
	}
	s.setLocale(p.Language)
	return nil
}

// Close writes any pending edit and stops the autosave policy.
func (s *Session) Close(ctx context.Context) error {
	err := s.autosave.Flush(ctx)
	s.autosave.Close()
	return err
}
