package resume

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/meucv/internal/storage"
	"github.com/jonathan/meucv/internal/types"
)

// Store holds the current document snapshot and persists snapshots to a storage backend.
//
// Snapshots are immutable once published: every mutation clones the current document,
// changes the clone, and swaps it in. Callers may keep old snapshots (undo, diffing)
// but must not modify any snapshot they receive.
type Store struct {
	backend storage.Backend
	key     string
	newID   func() string

	mu  sync.RWMutex
	doc *types.CVData
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the fixed key documents are persisted under.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithIDGenerator overrides how list item ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates a store holding the empty default document.
func NewStore(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     storage.KeyCurrentCV,
		newID:   uuid.NewString,
		doc:     types.DefaultCVData(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the key Persist writes to.
func (s *Store) Key() string {
	return s.key
}

// Current returns the current snapshot.
func (s *Store) Current() *types.CVData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Load reads the document stored under key (the store's own key when empty) and makes it
// current. A missing, unreadable or corrupted value yields the empty default document.
func (s *Store) Load(ctx context.Context, key string) *types.CVData {
	if key == "" {
		key = s.key
	}

	doc := s.read(ctx, key)

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return doc
}

func (s *Store) read(ctx context.Context, key string) *types.CVData {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		log.Printf("[resume] failed to read %s, starting empty: %v", key, err)
		return types.DefaultCVData()
	}
	if !ok {
		return types.DefaultCVData()
	}

	doc, err := Decode([]byte(raw))
	if err != nil {
		log.Printf("[resume] discarding corrupted document %s: %v", key, err)
		return types.DefaultCVData()
	}
	s.sanitize(doc)
	return doc
}

// Decode parses a persisted document. Fields missing from data keep their default values.
func Decode(data []byte) (*types.CVData, error) {
	doc := types.DefaultCVData()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}

// sanitize repairs a document coming from outside the store so the invariants hold.
func (s *Store) sanitize(doc *types.CVData) {
	doc.Normalize()
	for _, ops := range lists {
		ops.sanitize(doc, s.newID)
	}
	if doc.SectionOrder != nil && !types.IsPermutation(doc.SectionOrder) {
		log.Printf("[resume] dropping invalid section order %v", doc.SectionOrder)
		doc.SectionOrder = nil
	}
	if err := doc.Settings.Validate(); err != nil {
		log.Printf("[resume] resetting invalid settings: %v", err)
		doc.Settings = types.DefaultCVData().Settings
	}
}

// Replace makes a copy of doc the current document, repairing ids and invalid settings.
func (s *Store) Replace(doc *types.CVData) *types.CVData {
	next := doc.Clone()
	if next == nil {
		next = types.DefaultCVData()
	}
	s.sanitize(next)

	s.mu.Lock()
	s.doc = next
	s.mu.Unlock()
	return next
}

// Reset replaces the current document with the empty default.
func (s *Store) Reset() *types.CVData {
	return s.Replace(types.DefaultCVData())
}

// mutate applies fn to a clone of the current document and publishes the clone on success.
func (s *Store) mutate(fn func(next *types.CVData) error) (*types.CVData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return s.doc, err
	}
	s.doc = next
	return next, nil
}

// Update replaces one top-level section. Object sections (personalData, professionalProfile,
// settings) are shallow-merged with partial: only the keys present change. List sections
// and photo are replaced by partial.
func (s *Store) Update(section Section, partial json.RawMessage) (*types.CVData, error) {
	doc, err := s.mutate(func(next *types.CVData) error {
		return s.applySection(next, section, partial)
	})
	if err != nil {
		log.Printf("[resume] update %s rejected: %v", section, err)
	}
	return doc, err
}

func (s *Store) applySection(next *types.CVData, section Section, partial json.RawMessage) error {
	malformed := func(err error) error {
		return &ValidationError{Field: string(section), Message: "malformed JSON", Cause: err}
	}

	switch section {
	case PersonalData:
		if err := json.Unmarshal(partial, &next.PersonalData); err != nil {
			return malformed(err)
		}
	case ProfessionalProfile:
		if err := json.Unmarshal(partial, &next.ProfessionalProfile); err != nil {
			return malformed(err)
		}
	case Settings:
		if err := json.Unmarshal(partial, &next.Settings); err != nil {
			return malformed(err)
		}
		if err := next.Settings.Validate(); err != nil {
			return &ValidationError{Field: string(section), Message: "invalid settings", Cause: err}
		}
	case Photo:
		var photo *string
		if err := json.Unmarshal(partial, &photo); err != nil {
			return malformed(err)
		}
		next.Photo = ""
		if photo != nil {
			next.Photo = *photo
		}
	default:
		ops, ok := lists[section]
		if !ok {
			return &SectionError{Section: section, Op: "update"}
		}
		return ops.replace(next, partial, s.newID)
	}
	return nil
}

func listFor(section Section, op string) (listOps, error) {
	ops, ok := lists[section]
	if !ok {
		return nil, &SectionError{Section: section, Op: op}
	}
	return ops, nil
}

// AddListItem appends item to a list section. The item gets a fresh id unless it carries
// one that is not used yet. It returns the new document and the item's id.
func (s *Store) AddListItem(section Section, item json.RawMessage) (*types.CVData, string, error) {
	ops, err := listFor(section, "add")
	if err != nil {
		return s.Current(), "", err
	}

	var id string
	doc, err := s.mutate(func(next *types.CVData) error {
		var addErr error
		id, addErr = ops.add(next, item, s.newID)
		return addErr
	})
	if err != nil {
		log.Printf("[resume] add to %s rejected: %v", section, err)
		return doc, "", err
	}
	return doc, id, nil
}

// UpdateListItem shallow-merges patch into the item with the given id. The id itself
// cannot be changed. An unknown id leaves the document unchanged.
func (s *Store) UpdateListItem(section Section, id string, patch json.RawMessage) (*types.CVData, error) {
	ops, err := listFor(section, "update item")
	if err != nil {
		return s.Current(), err
	}

	doc, err := s.mutate(func(next *types.CVData) error {
		found, err := ops.update(next, id, patch)
		if err == nil && !found {
			// Keep the published snapshot when nothing changed.
			return errNoChange
		}
		return err
	})
	if err == errNoChange {
		log.Printf("[resume] update of unknown %s item %q ignored", section, id)
		return doc, nil
	}
	if err != nil {
		log.Printf("[resume] update of %s item %q rejected: %v", section, id, err)
	}
	return doc, err
}

// RemoveListItem removes the item with the given id. Removing a missing id is a no-op.
func (s *Store) RemoveListItem(section Section, id string) (*types.CVData, error) {
	ops, err := listFor(section, "remove item")
	if err != nil {
		return s.Current(), err
	}

	doc, err := s.mutate(func(next *types.CVData) error {
		if !ops.remove(next, id) {
			return errNoChange
		}
		return nil
	})
	if err == errNoChange {
		return doc, nil
	}
	return doc, err
}

// ReorderSections stores a new display order. It must be a permutation of the six
// section keys; anything else is rejected and the order stays as it was.
func (s *Store) ReorderSections(order []types.SectionKey) (*types.CVData, error) {
	if !types.IsPermutation(order) {
		err := &ValidationError{Field: "sectionOrder", Message: "must be a permutation of the six section keys"}
		log.Printf("[resume] %v: %v", err, order)
		return s.Current(), err
	}

	return s.mutate(func(next *types.CVData) error {
		next.SectionOrder = append([]types.SectionKey(nil), order...)
		return nil
	})
}

// Persist writes doc to the backend under the store's key.
func (s *Store) Persist(ctx context.Context, doc *types.CVData) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return &PersistenceError{Key: s.key, Cause: err}
	}
	if err := s.backend.Set(ctx, s.key, string(data)); err != nil {
		return &PersistenceError{Key: s.key, Cause: err}
	}
	return nil
}
