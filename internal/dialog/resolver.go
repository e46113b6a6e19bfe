package dialog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Resolution classifies what the resolver did with a message.
type Resolution int

const (
	// ResolutionNone means the message carried no reference to resolve.
	ResolutionNone Resolution = iota
	// ResolutionOrdinal means a rank reference ("2번") was substituted.
	ResolutionOrdinal
	// ResolutionAnaphor means a "그건" reference was substituted.
	ResolutionAnaphor
	// ResolutionFailed means a reference was present but had no referent.
	ResolutionFailed
)

// "1번", "1번 활동", "1.", "1:" with an optional tail. A bare number with no
// marker only counts when it is the whole message, so time expressions like
// "3시~5시" never read as rank references.
var (
	ordinalMarkedRe = regexp.MustCompile(`^\s*(\d+)\s*(?:번(?:\s*활동)?|\.|:)\s*(.*)$`)
	ordinalBareRe   = regexp.MustCompile(`^\s*(\d+)\s*$`)
)

// Resolve rewrites rank and anaphoric references against the session. The
// returned query is reference-free and the returned Ref identifies the
// program the reference pointed at; on ResolutionFailed the original query
// comes back unchanged with a zero Ref.
func Resolve(query string, s *Session) (string, Ref, Resolution) {
	trimmed := stripLeadingNoise(query)

	m := ordinalMarkedRe.FindStringSubmatch(trimmed)
	if m == nil {
		if bare := ordinalBareRe.FindStringSubmatch(trimmed); bare != nil {
			m = []string{bare[0], bare[1], ""}
		}
	}
	if m != nil {
		rank, err := strconv.Atoi(m[1])
		if err != nil {
			return query, Ref{}, ResolutionFailed
		}
		ref, ok := s.RefAt(rank)
		if !ok {
			return query, Ref{}, ResolutionFailed
		}
		s.SetLast(ref)
		return joinReference(ref.Title, m[2]), ref, ResolutionOrdinal
	}

	if tail, ok := strings.CutPrefix(trimmed, "그건"); ok {
		ref := s.Last()
		if ref.ID == "" {
			return query, Ref{}, ResolutionFailed
		}
		return joinReference(ref.Title, tail), ref, ResolutionAnaphor
	}

	return query, Ref{}, ResolutionNone
}

func joinReference(title, tail string) string {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return title
	}
	return title + " " + tail
}

// stripLeadingNoise drops leading stray jamo ("ㅇㅇ 1번"), punctuation and
// whitespace so reference patterns anchor correctly.
func stripLeadingNoise(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		if isJamo(r) || r == '_' {
			return true
		}
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isJamo(r rune) bool {
	return (r >= 'ㄱ' && r <= 'ㅎ') || (r >= 'ㅏ' && r <= 'ㅣ')
}
