// Package types provides type definitions for structured data used throughout the meucv system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// DefaultAccentColor is the accent colour of a freshly created document.
const DefaultAccentColor = "#544A9F"

// SkillLevel is the self-assessed proficiency for a skill.
type SkillLevel string

// Skill levels
const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

// LanguageLevel is the self-assessed proficiency for a spoken language.
type LanguageLevel string

// Language levels
const (
	LanguageBasic        LanguageLevel = "basic"
	LanguageIntermediate LanguageLevel = "intermediate"
	LanguageAdvanced     LanguageLevel = "advanced"
	LanguageFluent       LanguageLevel = "fluent"
	LanguageNative       LanguageLevel = "native"
)

// Template is the visual layout used for the preview.
type Template string

// Templates
const (
	TemplateModern  Template = "modern"
	TemplateClassic Template = "classic"
	TemplateMinimal Template = "minimal"
)

// Valid reports whether t is a known template.
func (t Template) Valid() bool {
	switch t {
	case TemplateModern, TemplateClassic, TemplateMinimal:
		return true
	}
	return false
}

// FontSize is the base font size used for the preview.
type FontSize string

// Font sizes
const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

// PersonalData holds contact details shown in the document header.
type PersonalData struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// ProfessionalProfile holds the free-text summary.
type ProfessionalProfile struct {
	Summary string `json:"summary"`
}

// Experience is a single professional experience entry.
// EndDate is meaningless when Current is true.
type Experience struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// EffectiveEndDate returns the end date, or "" for an ongoing position.
func (e Experience) EffectiveEndDate() string {
	if e.Current {
		return ""
	}
	return e.EndDate
}

// Education is a single education entry, with the same date contract as Experience.
type Education struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
}

// EffectiveEndDate returns the end date, or "" for an ongoing course.
func (e Education) EffectiveEndDate() string {
	if e.Current {
		return ""
	}
	return e.EndDate
}

// Skill is a named skill with a proficiency level.
type Skill struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Level SkillLevel `json:"level" validate:"oneof=beginner intermediate advanced expert"`
}

// Language is a spoken language with a proficiency level.
type Language struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Level LanguageLevel `json:"level" validate:"oneof=basic intermediate advanced fluent native"`
}

// Settings holds cosmetic options for the preview.
type Settings struct {
	Template    Template `json:"template" validate:"oneof=modern classic minimal"`
	AccentColor string   `json:"accentColor" validate:"hexcolor"`
	FontSize    FontSize `json:"fontSize" validate:"oneof=small medium large"`
}

// CVData is the résumé document edited in a session.
type CVData struct {
	PersonalData        PersonalData        `json:"personalData"`
	ProfessionalProfile ProfessionalProfile `json:"professionalProfile"`
	Experiences         []Experience        `json:"experiences"`
	Education           []Education         `json:"education"`
	Skills              []Skill             `json:"skills"`
	Languages           []Language          `json:"languages"`
	Settings            Settings            `json:"settings"`
	Photo               string              `json:"photo,omitempty"`
	SectionOrder        []SectionKey        `json:"sectionOrder,omitempty"`
}

// DefaultCVData returns a new empty document.
func DefaultCVData() *CVData {
	return &CVData{
		Experiences: []Experience{},
		Education:   []Education{},
		Skills:      []Skill{},
		Languages:   []Language{},
		Settings: Settings{
			Template:    TemplateModern,
			AccentColor: DefaultAccentColor,
			FontSize:    FontMedium,
		},
	}
}

// Clone returns a deep copy of the document.
func (d *CVData) Clone() *CVData {
	if d == nil {
		return nil
	}
	c := *d
	c.Experiences = append(make([]Experience, 0, len(d.Experiences)), d.Experiences...)
	c.Education = append(make([]Education, 0, len(d.Education)), d.Education...)
	c.Skills = append(make([]Skill, 0, len(d.Skills)), d.Skills...)
	c.Languages = append(make([]Language, 0, len(d.Languages)), d.Languages...)
	if d.SectionOrder != nil {
		c.SectionOrder = append(make([]SectionKey, 0, len(d.SectionOrder)), d.SectionOrder...)
	}
	return &c
}

// Normalize replaces nil lists with empty ones so the document always encodes lists as [].
func (d *CVData) Normalize() {
	if d.Experiences == nil {
		d.Experiences = []Experience{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Skills == nil {
		d.Skills = []Skill{}
	}
	if d.Languages == nil {
		d.Languages = []Language{}
	}
}

// Order returns the display order of the document's sections.
func (d *CVData) Order() []SectionKey {
	if IsPermutation(d.SectionOrder) {
		return d.SectionOrder
	}
	return DefaultSectionOrder()
}

var validate = validator.New()

// Validate checks enum membership of settings and list item levels.
func (s Settings) Validate() error {
	return validate.Struct(s)
}

// Validate checks the skill level.
func (s Skill) Validate() error {
	return validate.Struct(s)
}

// Validate checks the language level.
func (l Language) Validate() error {
	return validate.Struct(l)
}
