package types

// SectionKey identifies a display section of the document.
type SectionKey string

// Section keys
const (
	SectionPersonal   SectionKey = "personal"
	SectionProfile    SectionKey = "profile"
	SectionExperience SectionKey = "experience"
	SectionEducation  SectionKey = "education"
	SectionSkills     SectionKey = "skills"
	SectionLanguages  SectionKey = "languages"
)

// DefaultSectionOrder returns the six section keys in their default display order.
func DefaultSectionOrder() []SectionKey {
	return []SectionKey{
		SectionPersonal,
		SectionProfile,
		SectionExperience,
		SectionEducation,
		SectionSkills,
		SectionLanguages,
	}
}

// IsSectionKey reports whether k is one of the six known section keys.
func IsSectionKey(k SectionKey) bool {
	switch k {
	case SectionPersonal, SectionProfile, SectionExperience, SectionEducation, SectionSkills, SectionLanguages:
		return true
	}
	return false
}

// IsPermutation reports whether order contains each known section key exactly once.
func IsPermutation(order []SectionKey) bool {
	if len(order) != len(DefaultSectionOrder()) {
		return false
	}
	seen := make(map[SectionKey]bool, len(order))
	for _, k := range order {
		if !IsSectionKey(k) || seen[k] {
			return false
		}
		seen[k] = true
	}
	return true
}
