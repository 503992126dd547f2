package resume

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/meucv/internal/types"
)

// Section names a top-level field of the document, using its JSON name.
type Section string

// Document sections
const (
	PersonalData        Section = "personalData"
	ProfessionalProfile Section = "professionalProfile"
	Experiences         Section = "experiences"
	Education           Section = "education"
	Skills              Section = "skills"
	Languages           Section = "languages"
	Settings            Section = "settings"
	Photo               Section = "photo"
)

// listOps implements the list-scoped operations for one list section.
type listOps interface {
	replace(doc *types.CVData, raw json.RawMessage, newID func() string) error
	add(doc *types.CVData, raw json.RawMessage, newID func() string) (string, error)
	update(doc *types.CVData, id string, raw json.RawMessage) (bool, error)
	remove(doc *types.CVData, id string) bool
	sanitize(doc *types.CVData, newID func() string)
}

// listSection adapts one typed list of the document to listOps.
type listSection[T any] struct {
	name    Section
	get     func(*types.CVData) []T
	set     func(*types.CVData, []T)
	id      func(*T) *string
	prepare func(*T) error
}

var lists = map[Section]listOps{
	Experiences: listSection[types.Experience]{
		name: Experiences,
		get:  func(d *types.CVData) []types.Experience { return d.Experiences },
		set:  func(d *types.CVData, l []types.Experience) { d.Experiences = l },
		id:   func(e *types.Experience) *string { return &e.ID },
	},
	Education: listSection[types.Education]{
		name: Education,
		get:  func(d *types.CVData) []types.Education { return d.Education },
		set:  func(d *types.CVData, l []types.Education) { d.Education = l },
		id:   func(e *types.Education) *string { return &e.ID },
	},
	Skills: listSection[types.Skill]{
		name:    Skills,
		get:     func(d *types.CVData) []types.Skill { return d.Skills },
		set:     func(d *types.CVData, l []types.Skill) { d.Skills = l },
		id:      func(s *types.Skill) *string { return &s.ID },
		prepare: prepareSkill,
	},
	Languages: listSection[types.Language]{
		name:    Languages,
		get:     func(d *types.CVData) []types.Language { return d.Languages },
		set:     func(d *types.CVData, l []types.Language) { d.Languages = l },
		id:      func(l *types.Language) *string { return &l.ID },
		prepare: prepareLanguage,
	},
}

func prepareSkill(s *types.Skill) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return &ValidationError{Field: "skills.name", Message: "name is required"}
	}
	if s.Level == "" {
		s.Level = types.SkillIntermediate
	}
	if err := s.Validate(); err != nil {
		return &ValidationError{Field: "skills.level", Message: "unknown level " + string(s.Level), Cause: err}
	}
	return nil
}

func prepareLanguage(l *types.Language) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return &ValidationError{Field: "languages.name", Message: "name is required"}
	}
	if l.Level == "" {
		l.Level = types.LanguageIntermediate
	}
	if err := l.Validate(); err != nil {
		return &ValidationError{Field: "languages.level", Message: "unknown level " + string(l.Level), Cause: err}
	}
	return nil
}

func (s listSection[T]) decodeError(err error) error {
	return &ValidationError{Field: string(s.name), Message: "malformed JSON", Cause: err}
}

func (s listSection[T]) replace(doc *types.CVData, raw json.RawMessage, newID func() string) error {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return s.decodeError(err)
	}
	if items == nil {
		items = []T{}
	}
	if s.prepare != nil {
		for i := range items {
			if err := s.prepare(&items[i]); err != nil {
				return err
			}
		}
	}
	s.set(doc, items)
	s.sanitize(doc, newID)
	return nil
}

func (s listSection[T]) add(doc *types.CVData, raw json.RawMessage, newID func() string) (string, error) {
	var item T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &item); err != nil {
			return "", s.decodeError(err)
		}
	}
	if s.prepare != nil {
		if err := s.prepare(&item); err != nil {
			return "", err
		}
	}

	current := s.get(doc)
	id := s.id(&item)
	if *id == "" || s.index(current, *id) >= 0 {
		*id = newID()
	}

	next := make([]T, 0, len(current)+1)
	next = append(next, current...)
	s.set(doc, append(next, item))
	return *id, nil
}

func (s listSection[T]) update(doc *types.CVData, id string, raw json.RawMessage) (bool, error) {
	current := s.get(doc)
	i := s.index(current, id)
	if i < 0 {
		return false, nil
	}

	item := current[i]
	if err := json.Unmarshal(raw, &item); err != nil {
		return false, s.decodeError(err)
	}
	*s.id(&item) = id
	if s.prepare != nil {
		if err := s.prepare(&item); err != nil {
			return false, err
		}
	}

	next := append([]T(nil), current...)
	next[i] = item
	s.set(doc, next)
	return true, nil
}

func (s listSection[T]) remove(doc *types.CVData, id string) bool {
	current := s.get(doc)
	i := s.index(current, id)
	if i < 0 {
		return false
	}
	next := make([]T, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	s.set(doc, next)
	return true
}

// sanitize gives every item a unique, non-empty id.
func (s listSection[T]) sanitize(doc *types.CVData, newID func() string) {
	items := s.get(doc)
	seen := make(map[string]bool, len(items))
	for i := range items {
		id := s.id(&items[i])
		if *id == "" || seen[*id] {
			*id = newID()
		}
		seen[*id] = true
	}
}

func (s listSection[T]) index(items []T, id string) int {
	for i := range items {
		if *s.id(&items[i]) == id {
			return i
		}
	}
	return -1
}
