// Package completion scores how complete a résumé is and suggests what to fill in next.
//
// The canonical model is a weighted checklist whose weights add up to 100. Progress is a
// coarser seven-step view over the same kind of checks with equal weights.
package completion

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/types"
)

// DefaultMaxHints is how many missing items the editor shows at once.
const DefaultMaxHints = 3

// Check is one item of a completion checklist.
type Check struct {
	ID     string
	Weight int
	Hint   i18n.Key
	Done   func(doc *types.CVData) bool
}

// Label grades a score.
type Label string

// Score labels
const (
	Excellent Label = "excellent"
	VeryGood  Label = "very_good"
	GoodStart Label = "good_start"
	KeepGoing Label = "keep_going"
)

// Tier is the colour band a score is displayed in.
type Tier string

// Score tiers
const (
	High   Tier = "high"
	Medium Tier = "medium"
	Low    Tier = "low"
)

func runes(s string) int {
	return utf8.RuneCountInString(s)
}

// Checks is the weighted checklist, in the order hints are shown.
var Checks = []Check{
	{ID: "fullName", Weight: 10, Hint: i18n.HintFullName, Done: func(d *types.CVData) bool {
		return runes(d.PersonalData.FullName) > 3
	}},
	{ID: "email", Weight: 10, Hint: i18n.HintEmail, Done: func(d *types.CVData) bool {
		return strings.Contains(d.PersonalData.Email, "@")
	}},
	{ID: "phone", Weight: 10, Hint: i18n.HintPhone, Done: func(d *types.CVData) bool {
		return runes(d.PersonalData.Phone) > 6
	}},
	{ID: "summary", Weight: 20, Hint: i18n.HintSummary, Done: func(d *types.CVData) bool {
		return runes(d.ProfessionalProfile.Summary) > 50
	}},
	{ID: "experience", Weight: 20, Hint: i18n.HintExperience, Done: func(d *types.CVData) bool {
		for _, e := range d.Experiences {
			if e.Company != "" {
				return true
			}
		}
		return false
	}},
	{ID: "education", Weight: 15, Hint: i18n.HintEducation, Done: func(d *types.CVData) bool {
		for _, e := range d.Education {
			if e.Institution != "" {
				return true
			}
		}
		return false
	}},
	{ID: "skills", Weight: 10, Hint: i18n.HintSkills, Done: func(d *types.CVData) bool {
		return len(d.Skills) >= 3
	}},
	{ID: "languages", Weight: 5, Hint: i18n.HintLanguages, Done: func(d *types.CVData) bool {
		return len(d.Languages) >= 1
	}},
}

// Hint is a missing checklist item.
type Hint struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Options controls how a report is presented.
type Options struct {
	// MaxHints caps Missing. Zero returns every missing item.
	MaxHints int
	Locale   i18n.Locale
}

// Report is the result of scoring a document.
type Report struct {
	Score     int    `json:"score"`
	Label     Label  `json:"label"`
	LabelText string `json:"labelText"`
	Tier      Tier   `json:"tier"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Missing   []Hint `json:"missing"`
	Summary   string `json:"summary"`
}

// Complete reports whether every check passed.
func (r Report) Complete() bool {
	return r.Completed == r.Total
}

// Score evaluates doc against the weighted checklist. A nil document scores as empty.
func Score(doc *types.CVData, opts Options) Report {
	if doc == nil {
		doc = types.DefaultCVData()
	}

	r := Report{Total: len(Checks), Missing: []Hint{}}
	for _, c := range Checks {
		if c.Done(doc) {
			r.Score += c.Weight
			r.Completed++
			continue
		}
		if opts.MaxHints == 0 || len(r.Missing) < opts.MaxHints {
			r.Missing = append(r.Missing, Hint{ID: c.ID, Message: i18n.T(opts.Locale, c.Hint)})
		}
	}

	r.Score = clamp(r.Score)
	r.Label = LabelFor(r.Score)
	r.LabelText = LabelText(opts.Locale, r.Label)
	r.Tier = TierFor(r.Score)
	if r.Complete() {
		r.Summary = i18n.T(opts.Locale, i18n.ScoreComplete)
	} else {
		r.Summary = i18n.T(opts.Locale, i18n.ScoreSections, r.Completed, r.Total)
	}
	return r
}

func clamp(score int) int {
	return max(0, min(100, score))
}

// LabelFor grades a score: 90 and up is excellent, 70 very good, 50 a good start.
func LabelFor(score int) Label {
	switch {
	case score >= 90:
		return Excellent
	case score >= 70:
		return VeryGood
	case score >= 50:
		return GoodStart
	default:
		return KeepGoing
	}
}

var labelKeys = map[Label]i18n.Key{
	Excellent: i18n.LabelExcellent,
	VeryGood:  i18n.LabelVeryGood,
	GoodStart: i18n.LabelGoodStart,
	KeepGoing: i18n.LabelKeepGoing,
}

// LabelText returns the display text of a label.
func LabelText(l i18n.Locale, label Label) string {
	if key, ok := labelKeys[label]; ok {
		return i18n.T(l, key)
	}
	return string(label)
}

// TierFor returns the colour band of a score.
func TierFor(score int) Tier {
	switch {
	case score >= 80:
		return High
	case score >= 50:
		return Medium
	default:
		return Low
	}
}

// ProgressChecks are the seven equal steps of the progress bar.
var ProgressChecks = []Check{
	{ID: "personal", Weight: 1, Done: func(d *types.CVData) bool {
		return d.PersonalData.FullName != "" && d.PersonalData.Email != ""
	}},
	{ID: "summary", Weight: 1, Done: func(d *types.CVData) bool {
		return runes(d.ProfessionalProfile.Summary) > 50
	}},
	{ID: "experience", Weight: 1, Done: func(d *types.CVData) bool { return len(d.Experiences) > 0 }},
	{ID: "education", Weight: 1, Done: func(d *types.CVData) bool { return len(d.Education) > 0 }},
	{ID: "skills", Weight: 1, Done: func(d *types.CVData) bool { return len(d.Skills) >= 3 }},
	{ID: "languages", Weight: 1, Done: func(d *types.CVData) bool { return len(d.Languages) > 0 }},
	{ID: "contact", Weight: 1, Done: func(d *types.CVData) bool {
		return d.PersonalData.Phone != "" || d.PersonalData.Location != ""
	}},
}

// Step is the state of one progress step.
type Step struct {
	ID   string `json:"id"`
	Done bool   `json:"done"`
}

// ProgressReport is the coarse progress view of a document.
type ProgressReport struct {
	Percentage int    `json:"percentage"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Steps      []Step `json:"steps"`
	Message    string `json:"message"`
}

// Progress evaluates doc against ProgressChecks.
func Progress(doc *types.CVData, l i18n.Locale) ProgressReport {
	if doc == nil {
		doc = types.DefaultCVData()
	}

	p := ProgressReport{Total: len(ProgressChecks), Steps: make([]Step, 0, len(ProgressChecks))}
	for _, c := range ProgressChecks {
		done := c.Done(doc)
		if done {
			p.Completed++
		}
		p.Steps = append(p.Steps, Step{ID: c.ID, Done: done})
	}

	p.Percentage = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	p.Message = progressMessage(l, p.Percentage)
	return p
}

func progressMessage(l i18n.Locale, pct int) string {
	switch {
	case pct < 30:
		return i18n.T(l, i18n.ProgressLow)
	case pct < 60:
		return i18n.T(l, i18n.ProgressMedium)
	case pct < 90:
		return i18n.T(l, i18n.ProgressHigh)
	default:
		return i18n.T(l, i18n.ProgressDone)
	}
}
