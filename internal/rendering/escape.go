package rendering

import "strings"

// EscapeMarkdown escapes characters Markdown would interpret as formatting.
// Special characters: \ ` * _ { } [ ] < > # + - ! |
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for _, r := range text {
		switch r {
		case '\\', '`', '*', '_', '{', '}', '[', ']', '<', '>', '#', '+', '-', '!', '|':
			result.WriteByte('\\')
			result.WriteRune(r)
		case '\n', '\r':
			result.WriteByte(' ')
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// indent prefixes every line of text with two spaces.
func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
