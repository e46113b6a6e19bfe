package dialog

import (
	"strings"

	"github.com/se-wein/kumrec-go/internal/answer"
	apperrors "github.com/se-wein/kumrec-go/internal/errors"
)

// Intent is the coarse route for a message.
type Intent int

const (
	// IntentRecommend runs the recommendation engine.
	IntentRecommend Intent = iota
	// IntentQuestion asks the answerer about a specific program.
	IntentQuestion
)

// String returns the metric label for the intent.
func (i Intent) String() string {
	if i == IntentQuestion {
		return "question"
	}
	return "recommend"
}

// Words that signal a recommendation request or a topic worth searching.
var recommendTriggers = []string{
	"추천", "어울리", "비교과", "프로그램", "활동",
	"컨설팅", "워크숍", "특강",
	"ai", "인공지능", "데이터",
	"취업", "창업", "캡스톤", "디자인",
}

// Decision is the routing outcome for one message.
type Decision struct {
	Intent Intent
	// Query is the reference-free query to execute. Rank and anaphoric
	// references are already substituted.
	Query string
	// Ref identifies the program a rank or anaphoric reference resolved
	// to; the zero Ref means no reference fired.
	Ref Ref
	// Triggered is true when an explicit recommendation trigger matched
	// rather than the catch-all default.
	Triggered bool
	// Err is ErrUnresolvedReference when the message pointed at a rank or
	// prior program that does not exist.
	Err error
}

// Route classifies a message against the session. Reference and field
// patterns are checked before recommendation triggers: "1번 장소" is a
// question about the first result even though 장소-style queries could also
// read as new searches.
func Route(query string, s *Session) Decision {
	resolved, ref, resolution := Resolve(query, s)

	switch resolution {
	case ResolutionFailed:
		return Decision{Intent: IntentQuestion, Query: query, Err: apperrors.ErrUnresolvedReference}
	case ResolutionOrdinal, ResolutionAnaphor:
		return Decision{Intent: IntentQuestion, Query: resolved, Ref: ref}
	}

	if _, ok := answer.FieldKeyword(query); ok {
		return Decision{Intent: IntentQuestion, Query: query}
	}

	lower := strings.ToLower(query)
	for _, trigger := range recommendTriggers {
		if strings.Contains(lower, trigger) {
			return Decision{Intent: IntentRecommend, Query: query, Triggered: true}
		}
	}
	// Anything else is treated as a search too.
	return Decision{Intent: IntentRecommend, Query: query}
}
