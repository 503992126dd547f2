package rendering

import (
	"embed"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/types"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Format selects the built-in preview template.
type Format string

// Preview formats
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a format name or a media type to a Format. Unknown values give FormatText.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md", "text/markdown":
		return FormatMarkdown
	default:
		return FormatText
	}
}

// ContentType returns the media type of rendered output.
func (f Format) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Options controls preview rendering.
type Options struct {
	Locale i18n.Locale
	Format Format
	// TemplatePath renders with a template file instead of the built-in one.
	TemplatePath string
}

// PreviewData is the data structure passed to preview templates.
type PreviewData struct {
	Empty      bool
	EmptyTitle string
	EmptyHint  string
	Template   types.Template
	Accent     string
	Sections   []SectionView
}

// SectionView is one displayed section, in document order.
type SectionView struct {
	Key      types.SectionKey
	Title    string
	Header   bool
	Contacts []string
	Text     string
	Entries  []EntryView
	Items    []string
}

// EntryView is a dated experience or education entry.
type EntryView struct {
	Title    string
	Subtitle string
	Dates    string
	Body     string
}

// Render renders the preview of doc.
func Render(doc *types.CVData, opts Options) (string, error) {
	tmpl, err := loadTemplate(opts)
	if err != nil {
		return "", err
	}

	data := BuildPreviewData(doc, opts.Locale)

	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", &TemplateError{
			Template: tmpl.Name(),
			Message:  "failed to execute template",
			Cause:    err,
		}
	}
	return result.String(), nil
}

var funcs = template.FuncMap{
	"upper":  strings.ToUpper,
	"join":   strings.Join,
	"indent": indent,
}

func loadTemplate(opts Options) (*template.Template, error) {
	if opts.TemplatePath != "" {
		return parseTemplate(opts.TemplatePath, opts.Format)
	}

	name := "templates/preview.txt.tmpl"
	if opts.Format == FormatMarkdown {
		name = "templates/preview.md.tmpl"
	}
	content, err := templatesFS.ReadFile(name)
	if err != nil {
		return nil, &TemplateError{Template: name, Message: "built-in template missing", Cause: err}
	}
	return newTemplate(name, string(content), opts.Format)
}

// parseTemplate reads and parses a preview template file
func parseTemplate(templatePath string, format Format) (*template.Template, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{Template: templatePath, Message: "template file not found", Cause: err}
		}
		return nil, &TemplateError{Template: templatePath, Message: "failed to read template file", Cause: err}
	}
	return newTemplate(templatePath, string(content), format)
}

func newTemplate(name, content string, format Format) (*template.Template, error) {
	escape := func(s string) string { return s }
	if format == FormatMarkdown {
		escape = EscapeMarkdown
	}

	tmpl, err := template.New(name).Funcs(funcs).Funcs(template.FuncMap{
		"escape": escape,
	}).Parse(content)
	if err != nil {
		return nil, &TemplateError{Template: name, Message: "failed to parse template", Cause: err}
	}
	return tmpl, nil
}

// HasContent reports whether doc has anything worth previewing.
func HasContent(doc *types.CVData) bool {
	return doc.PersonalData.FullName != "" ||
		doc.PersonalData.Email != "" ||
		doc.ProfessionalProfile.Summary != "" ||
		len(doc.Experiences) > 0 ||
		len(doc.Education) > 0 ||
		len(doc.Skills) > 0 ||
		len(doc.Languages) > 0
}

// BuildPreviewData lays doc out in its section order. Empty sections are left out.
func BuildPreviewData(doc *types.CVData, l i18n.Locale) *PreviewData {
	if doc == nil {
		doc = types.DefaultCVData()
	}

	data := &PreviewData{
		Empty:      !HasContent(doc),
		EmptyTitle: i18n.T(l, i18n.PreviewEmpty),
		EmptyHint:  i18n.T(l, i18n.PreviewEmptyHint),
		Template:   doc.Settings.Template,
		Accent:     doc.Settings.AccentColor,
		Sections:   []SectionView{},
	}
	if data.Empty {
		return data
	}

	for _, key := range doc.Order() {
		if s, ok := buildSection(doc, key, l); ok {
			data.Sections = append(data.Sections, s)
		}
	}
	return data
}

func buildSection(doc *types.CVData, key types.SectionKey, l i18n.Locale) (SectionView, bool) {
	s := SectionView{Key: key}

	switch key {
	case types.SectionPersonal:
		p := doc.PersonalData
		if p.FullName == "" && p.Email == "" {
			return s, false
		}
		s.Header = true
		s.Title = p.FullName
		if s.Title == "" {
			s.Title = i18n.T(l, i18n.PreviewNoName)
		}
		for _, c := range []string{p.Email, p.Phone, p.Location, p.LinkedIn, p.Website} {
			if c != "" {
				s.Contacts = append(s.Contacts, c)
			}
		}

	case types.SectionProfile:
		if doc.ProfessionalProfile.Summary == "" {
			return s, false
		}
		s.Title = i18n.T(l, i18n.SectionProfile)
		s.Text = doc.ProfessionalProfile.Summary

	case types.SectionExperience:
		if len(doc.Experiences) == 0 {
			return s, false
		}
		s.Title = i18n.T(l, i18n.SectionExperience)
		for _, e := range doc.Experiences {
			s.Entries = append(s.Entries, EntryView{
				Title:    e.Position,
				Subtitle: e.Company,
				Dates:    DateRange(l, e.StartDate, e.EffectiveEndDate(), e.Current),
				Body:     e.Description,
			})
		}

	case types.SectionEducation:
		if len(doc.Education) == 0 {
			return s, false
		}
		s.Title = i18n.T(l, i18n.SectionEducation)
		for _, e := range doc.Education {
			title := e.Degree
			if e.Field != "" {
				title = strings.TrimSpace(title + " " + i18n.T(l, i18n.PreviewFieldOf) + " " + e.Field)
			}
			s.Entries = append(s.Entries, EntryView{
				Title:    title,
				Subtitle: e.Institution,
				Dates:    DateRange(l, e.StartDate, e.EffectiveEndDate(), e.Current),
			})
		}

	case types.SectionSkills:
		if len(doc.Skills) == 0 {
			return s, false
		}
		s.Title = i18n.T(l, i18n.SectionSkills)
		for _, sk := range doc.Skills {
			s.Items = append(s.Items, sk.Name+" ("+i18n.SkillLevel(l, sk.Level)+")")
		}

	case types.SectionLanguages:
		if len(doc.Languages) == 0 {
			return s, false
		}
		s.Title = i18n.T(l, i18n.SectionLanguages)
		for _, lang := range doc.Languages {
			s.Items = append(s.Items, lang.Name+" - "+i18n.LanguageLevel(l, lang.Level))
		}

	default:
		return s, false
	}
	return s, true
}

// FormatDate turns a "YYYY-MM" month into "Mon YYYY" with localised month names.
// Values that are not in that form are returned unchanged.
func FormatDate(l i18n.Locale, value string) string {
	year, month, ok := strings.Cut(value, "-")
	if !ok {
		return value
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return value
	}
	name := i18n.Month(l, m)
	if name == "" {
		return value
	}
	return name + " " + year
}

// DateRange formats an entry's period. Ongoing entries end with "Presente"/"Present".
func DateRange(l i18n.Locale, start, end string, current bool) string {
	from := FormatDate(l, start)
	to := FormatDate(l, end)
	if current {
		to = i18n.T(l, i18n.PreviewPresent)
	}
	switch {
	case from == "" && to == "":
		return ""
	case from == "":
		return to
	case to == "":
		return from
	default:
		return from + " - " + to
	}
}
