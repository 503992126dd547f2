// Package i18n holds the user-facing texts of the editor in Portuguese and English.
package i18n

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/meucv/internal/types"
)

// Locale is a supported interface language.
type Locale string

// Supported locales
const (
	PT Locale = "pt"
	EN Locale = "en"

	Default = PT
)

// Parse returns the locale named by s. Region suffixes are ignored ("en-GB" is EN);
// unknown or empty values fall back to Default.
func Parse(s string) Locale {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i >= 0 {
		s = s[:i]
	}
	switch Locale(s) {
	case PT, EN:
		return Locale(s)
	}
	return Default
}

// Valid reports whether l is a supported locale.
func (l Locale) Valid() bool {
	return l == PT || l == EN
}

// Key identifies a message in the catalog.
type Key string

// Completion hints
const (
	HintFullName   Key = "hint.fullName"
	HintEmail      Key = "hint.email"
	HintPhone      Key = "hint.phone"
	HintSummary    Key = "hint.summary"
	HintExperience Key = "hint.experience"
	HintEducation  Key = "hint.education"
	HintSkills     Key = "hint.skills"
	HintLanguages  Key = "hint.languages"
)

// Completion labels and summaries
const (
	LabelExcellent  Key = "label.excellent"
	LabelVeryGood   Key = "label.veryGood"
	LabelGoodStart  Key = "label.goodStart"
	LabelKeepGoing  Key = "label.keepGoing"
	ScoreComplete   Key = "score.complete"
	ScoreSections   Key = "score.sections"
	ScoreTitle      Key = "score.title"
	ProgressTitle   Key = "progress.title"
	ProgressLow     Key = "progress.low"
	ProgressMedium  Key = "progress.medium"
	ProgressHigh    Key = "progress.high"
	ProgressDone    Key = "progress.complete"
	ProgressBuckets Key = "progress.buckets"
)

// Autosave and library texts
const (
	Saving      Key = "save.saving"
	SavedNow    Key = "save.now"
	SavedSecs   Key = "save.seconds"
	SavedMins   Key = "save.minutes"
	SaveSuccess Key = "save.success"
	SaveFailed  Key = "save.failed"
	CopySuffix  Key = "library.copySuffix"
	Untitled    Key = "library.untitled"
)

// Preview texts
const (
	PreviewEmpty      Key = "preview.empty"
	PreviewEmptyHint  Key = "preview.emptyHint"
	PreviewNoName     Key = "preview.noName"
	PreviewPresent    Key = "preview.present"
	PreviewFieldOf    Key = "preview.fieldOf"
	SectionProfile    Key = "section.profile"
	SectionExperience Key = "section.experience"
	SectionEducation  Key = "section.education"
	SectionSkills     Key = "section.skills"
	SectionLanguages  Key = "section.languages"
)

var catalog = map[Locale]map[Key]string{
	PT: {
		HintFullName:   "Adicione seu nome completo",
		HintEmail:      "Adicione um email válido",
		HintPhone:      "Adicione seu telefone",
		HintSummary:    "Descreva seu perfil profissional (mín. 50 caracteres)",
		HintExperience: "Adicione pelo menos uma experiência",
		HintEducation:  "Adicione sua formação acadêmica",
		HintSkills:     "Adicione pelo menos 3 competências",
		HintLanguages:  "Adicione os idiomas que fala",

		LabelExcellent:  "Excelente!",
		LabelVeryGood:   "Muito bom",
		LabelGoodStart:  "Bom começo",
		LabelKeepGoing:  "Continue preenchendo",
		ScoreComplete:   "Parabéns! Seu CV está completo.",
		ScoreSections:   "%d de %d secções completas",
		ScoreTitle:      "Pontuação do CV",
		ProgressTitle:   "Progresso do CV",
		ProgressLow:     "Comece adicionando seus dados pessoais",
		ProgressMedium:  "Bom progresso! Continue preenchendo",
		ProgressHigh:    "Quase lá! Revise os detalhes",
		ProgressDone:    "CV completo! Pronto para exportar",
		ProgressBuckets: "%d de %d etapas",

		Saving:      "A guardar...",
		SavedNow:    "Guardado agora",
		SavedSecs:   "Guardado há %ds",
		SavedMins:   "Guardado há %dmin",
		SaveSuccess: "Currículo guardado com sucesso!",
		SaveFailed:  "Não foi possível guardar o currículo",
		CopySuffix:  " (cópia)",
		Untitled:    "Currículo sem título",

		PreviewEmpty:      "O seu CV aparecerá aqui",
		PreviewEmptyHint:  "Comece preenchendo os campos à esquerda",
		PreviewNoName:     "O seu nome",
		PreviewPresent:    "Presente",
		PreviewFieldOf:    "em",
		SectionProfile:    "Perfil Profissional",
		SectionExperience: "Experiência Profissional",
		SectionEducation:  "Educação",
		SectionSkills:     "Competências",
		SectionLanguages:  "Idiomas",
	},
	EN: {
		HintFullName:   "Add your full name",
		HintEmail:      "Add a valid email",
		HintPhone:      "Add your phone number",
		HintSummary:    "Describe your professional profile (min. 50 characters)",
		HintExperience: "Add at least one experience",
		HintEducation:  "Add your education",
		HintSkills:     "Add at least 3 skills",
		HintLanguages:  "Add the languages you speak",

		LabelExcellent:  "Excellent!",
		LabelVeryGood:   "Very good",
		LabelGoodStart:  "Good start",
		LabelKeepGoing:  "Keep filling in",
		ScoreComplete:   "Congratulations! Your CV is complete.",
		ScoreSections:   "%d of %d sections complete",
		ScoreTitle:      "CV Score",
		ProgressTitle:   "CV Progress",
		ProgressLow:     "Start by adding your personal data",
		ProgressMedium:  "Good progress! Keep filling in",
		ProgressHigh:    "Almost there! Review the details",
		ProgressDone:    "CV complete! Ready to export",
		ProgressBuckets: "%d of %d steps",

		Saving:      "Saving...",
		SavedNow:    "Saved just now",
		SavedSecs:   "Saved %ds ago",
		SavedMins:   "Saved %dmin ago",
		SaveSuccess: "Resume saved successfully!",
		SaveFailed:  "Could not save the resume",
		CopySuffix:  " (copy)",
		Untitled:    "Untitled resume",

		PreviewEmpty:      "Your CV will appear here",
		PreviewEmptyHint:  "Start by filling in the fields on the left",
		PreviewNoName:     "Your name",
		PreviewPresent:    "Present",
		PreviewFieldOf:    "in",
		SectionProfile:    "Professional Profile",
		SectionExperience: "Professional Experience",
		SectionEducation:  "Education",
		SectionSkills:     "Skills",
		SectionLanguages:  "Languages",
	},
}

// T returns the message for key in locale l, formatted with args when given.
// Missing translations fall back to the default locale, then to the key itself.
func T(l Locale, key Key, args ...any) string {
	msg, ok := catalog[l][key]
	if !ok {
		msg, ok = catalog[Default][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

var months = map[Locale][12]string{
	PT: {"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"},
	EN: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// Month returns the abbreviated name of month m (1-12), or "" when out of range.
func Month(l Locale, m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	names, ok := months[l]
	if !ok {
		names = months[Default]
	}
	return names[m-1]
}

var skillLevels = map[Locale]map[types.SkillLevel]string{
	PT: {
		types.SkillBeginner:     "Iniciante",
		types.SkillIntermediate: "Intermediário",
		types.SkillAdvanced:     "Avançado",
		types.SkillExpert:       "Especialista",
	},
	EN: {
		types.SkillBeginner:     "Beginner",
		types.SkillIntermediate: "Intermediate",
		types.SkillAdvanced:     "Advanced",
		types.SkillExpert:       "Expert",
	},
}

var languageLevels = map[Locale]map[types.LanguageLevel]string{
	PT: {
		types.LanguageBasic:        "Básico",
		types.LanguageIntermediate: "Intermediário",
		types.LanguageAdvanced:     "Avançado",
		types.LanguageFluent:       "Fluente",
		types.LanguageNative:       "Nativo",
	},
	EN: {
		types.LanguageBasic:        "Basic",
		types.LanguageIntermediate: "Intermediate",
		types.LanguageAdvanced:     "Advanced",
		types.LanguageFluent:       "Fluent",
		types.LanguageNative:       "Native",
	},
}

// SkillLevel returns the display name of a skill level. Unknown levels are returned as is.
func SkillLevel(l Locale, level types.SkillLevel) string {
	if s, ok := skillLevels[l][level]; ok {
		return s
	}
	if s, ok := skillLevels[Default][level]; ok {
		return s
	}
	return string(level)
}

// LanguageLevel returns the display name of a language level. Unknown levels are returned as is.
func LanguageLevel(l Locale, level types.LanguageLevel) string {
	if s, ok := languageLevels[l][level]; ok {
		return s
	}
	if s, ok := languageLevels[Default][level]; ok {
		return s
	}
	return string(level)
}

// SavedAgo describes how long ago a document was saved, as the save indicator shows it.
func SavedAgo(l Locale, elapsed time.Duration) string {
	secs := int(elapsed / time.Second)
	switch {
	case secs < 5:
		return T(l, SavedNow)
	case secs < 60:
		return T(l, SavedSecs, secs)
	default:
		return T(l, SavedMins, secs/60)
	}
}
