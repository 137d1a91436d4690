package grading

import "strings"

// Normalize lowercases, trims and collapses inner whitespace. Course names,
// matching pair values and option labels are always compared in this form.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// fold is the lighter comparison form used for short answers and essay text:
// trim + lowercase, inner whitespace preserved.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// referenceWords extracts the qualifying keywords of an essay reference:
// whitespace-separated tokens longer than 3 characters.
func referenceWords(ref string) []string {
	var out []string
	for _, w := range strings.Fields(ref) {
		if len([]rune(w)) > 3 {
			out = append(out, w)
		}
	}
	return out
}
