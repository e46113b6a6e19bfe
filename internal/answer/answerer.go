package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/se-wein/kumrec-go/internal/engine"
	apperrors "github.com/se-wein/kumrec-go/internal/errors"
	"github.com/se-wein/kumrec-go/internal/genai"
	"github.com/se-wein/kumrec-go/internal/logger"
	"github.com/se-wein/kumrec-go/internal/record"
)

const (
	// MsgNotInRecord is the canonical reply when the record does not carry
	// the requested information.
	MsgNotInRecord = "자료에 없음"

	// generationSystem frames the model as a terse program guide.
	generationSystem = "간결하고 정확한 비교과 안내 도우미."

	// maxContextRunes bounds the record text passed to the generator.
	maxContextRunes = 1500
)

// Answerer answers questions about a specific program.
type Answerer struct {
	catalog   *record.Catalog
	cache     *engine.EmbedCache
	generator genai.Generator
	threshold float64
	log       *logger.Logger
}

// New creates an answerer. generator may be nil; free-form questions then
// get MsgNotInRecord instead of a generated reply.
func New(catalog *record.Catalog, cache *engine.EmbedCache, generator genai.Generator, threshold float64, log *logger.Logger) *Answerer {
	return &Answerer{
		catalog:   catalog,
		cache:     cache,
		generator: generator,
		threshold: threshold,
		log:       log.WithModule("answer"),
	}
}

// Answer resolves the program the query refers to and answers it. targetID
// names the program a conversational reference already resolved to, lastID
// the conversation's current referent; both may be empty. The resolved
// program is returned so the caller can update the conversation state.
func (a *Answerer) Answer(ctx context.Context, query, targetID, lastID string) (string, *record.Program, error) {
	prog, err := a.resolve(ctx, query, targetID, lastID)
	if err != nil {
		return "", nil, err
	}

	if field, ok := FieldKeyword(query); ok {
		return a.fieldAnswer(prog, field), prog, nil
	}
	return a.generatedAnswer(ctx, prog, query), prog, nil
}

// resolve picks the program the query is about: an already-resolved target
// ID first, then exact title containment, then title-embedding similarity,
// then the conversation's last program when the query still names a field.
func (a *Answerer) resolve(ctx context.Context, query, targetID, lastID string) (*record.Program, error) {
	if targetID != "" {
		if p, ok := a.catalog.Get(targetID); ok {
			return p, nil
		}
	}

	normQuery := Normalize(query)

	// Longest contained title wins; a short title must not shadow a longer
	// one that also appears.
	var byContainment *record.Program
	for _, p := range a.catalog.All() {
		if p.Title == record.NoTitle {
			continue
		}
		normTitle := Normalize(p.Title)
		if normTitle == "" || !strings.Contains(normQuery, normTitle) {
			continue
		}
		if byContainment == nil || len(normTitle) > len(Normalize(byContainment.Title)) {
			byContainment = p
		}
	}
	if byContainment != nil {
		return byContainment, nil
	}

	best, bestSim, err := a.bestByTitleEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	if best != nil && bestSim >= a.threshold {
		return best, nil
	}

	// A vague field question ("장소 어디야?") falls back to the program the
	// conversation was already about.
	if _, hasField := FieldKeyword(query); hasField && lastID != "" {
		if p, ok := a.catalog.Get(lastID); ok {
			return p, nil
		}
	}

	a.log.WithField("best_sim", bestSim).Debug("no program identified for question")
	return nil, apperrors.ErrUnknownProgram
}

func (a *Answerer) bestByTitleEmbedding(ctx context.Context, query string) (*record.Program, float64, error) {
	qvec, err := a.cache.Embed(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: embed question: %v", apperrors.ErrRetrievalFailure, err)
	}

	var best *record.Program
	var bestSim float64
	for _, p := range a.catalog.All() {
		if p.Title == record.NoTitle {
			continue
		}
		tvec, err := a.cache.Embed(ctx, p.Title)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: embed title: %v", apperrors.ErrRetrievalFailure, err)
		}
		if sim := engine.Cosine(qvec, tvec); best == nil || sim > bestSim {
			best, bestSim = p, sim
		}
	}
	return best, bestSim, nil
}

// fieldAnswer renders a short "{field}: {value}" reply from extracted fields.
func (a *Answerer) fieldAnswer(prog *record.Program, field string) string {
	value, ok := prog.Fields[field]
	if !ok || value == "" {
		return fmt.Sprintf("%s: %s", field, MsgNotInRecord)
	}
	return fmt.Sprintf("%s: %s", field, value)
}

// generatedAnswer asks the generator for a short reply grounded in the
// record text only.
func (a *Answerer) generatedAnswer(ctx context.Context, prog *record.Program, query string) string {
	if a.generator == nil {
		return MsgNotInRecord
	}

	prompt := fmt.Sprintf(
		"[활동정보]\n%s\n\n[질문]\n%s\n\n자료에 있는 내용만 근거로 한국어로 1~2문장으로 간단히 답하세요. 자료에 없으면 '자료에 없음'이라고 답하세요.",
		truncateRunes(prog.Text, maxContextRunes), query)

	reply, err := a.generator.Generate(ctx, generationSystem, prompt)
	if err != nil {
		a.log.WithError(err).Warn("grounded generation failed")
		return MsgNotInRecord
	}
	if reply == "" {
		return MsgNotInRecord
	}
	return reply
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
