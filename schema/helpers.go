package schema

import (
	"strings"
	"unicode"
)

// AuthorKey returns the identity used to group commits by author:
// the lowercased email when present, the trimmed name otherwise.
func AuthorKey(name, email string) string {
	if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
		return e
	}
	return strings.TrimSpace(name)
}

// AbbreviateName formats "Samuel Huang" to "Samuel H" and "jane@example.com" to "jane".
// Bot accounts and single-word names are returned unchanged.
func AbbreviateName(name string) string {
	trimmed := strings.TrimSpace(name)
	if strings.Contains(trimmed, "[bot]") {
		return strings.Join(strings.Fields(trimmed), " ")
	}
	if local, _, ok := strings.Cut(trimmed, "@"); ok && !strings.ContainsAny(trimmed, " \t") {
		return local
	}
	trimmed = strings.Trim(trimmed, "()\"'`")

	var parts []string
	for _, p := range strings.Fields(trimmed) {
		cp := strings.TrimFunc(p, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\'' && r != '.'
		})
		if cp = strings.TrimSuffix(cp, "."); cp != "" {
			parts = append(parts, cp)
		}
	}
	switch len(parts) {
	case 0:
		return trimmed
	case 1:
		return parts[0]
	}
	last := []rune(parts[len(parts)-1])
	return parts[0] + " " + string(last[0])
}

// FormatAuthors formats author keys as "Samuel H, jane".
func FormatAuthors(authors []string) string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		out = append(out, AbbreviateName(a))
	}
	return strings.Join(out, ", ")
}
