// Package answer resolves which program a question is about and answers
// field questions from extracted record fields, falling back to a grounded
// generation for free-form questions.
package answer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds a string for robust matching: NFKC, lowercase, and only
// letters, digits and underscore retained. Titles typed with different
// spacing or width variants compare equal after this.
func Normalize(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
