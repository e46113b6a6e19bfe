package engine

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/se-wein/kumrec-go/internal/config"
	apperrors "github.com/se-wein/kumrec-go/internal/errors"
	"github.com/se-wein/kumrec-go/internal/logger"
	"github.com/se-wein/kumrec-go/internal/metrics"
	"github.com/se-wein/kumrec-go/internal/profile"
	"github.com/se-wein/kumrec-go/internal/record"
	"github.com/se-wein/kumrec-go/internal/timetable"
)

// Options configure the engine's scoring profile and candidate handling.
type Options struct {
	Profile      config.EngineProfile
	ScheduleMode config.ScheduleMode
	TopK         int
	Workers      int
}

// Engine ranks catalog programs against a query and a user profile under
// timetable constraints.
type Engine struct {
	catalog *record.Catalog
	cache   *EmbedCache
	opts    Options
	log     *logger.Logger
	metrics *metrics.Metrics
}

// Scored is one ranked candidate with its similarity breakdown.
type Scored struct {
	Program     *record.Program
	Score       float64
	QuerySim    float64
	InterestSim float64
}

// Result is the outcome of one recommendation call.
type Result struct {
	Items []Scored
	// Fallback is true when no conflict-free candidate survived and the
	// ranking fell back to the unconstrained set.
	Fallback bool
	// Generic is true when the balanced weighting was applied.
	Generic bool
}

// New creates an engine over the given catalog.
func New(catalog *record.Catalog, cache *EmbedCache, opts Options, log *logger.Logger, m *metrics.Metrics) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Engine{
		catalog: catalog,
		cache:   cache,
		opts:    opts,
		log:     log.WithModule("engine"),
		metrics: m,
	}
}

// Initialize warms the embedding cache for every program text and title so
// the first user query does not pay the full embedding cost.
func (e *Engine) Initialize(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for _, p := range e.catalog.All() {
		g.Go(func() error {
			if _, err := e.cache.Embed(ctx, p.Text); err != nil {
				return fmt.Errorf("embed program %s: %w", p.ID, err)
			}
			return nil
		})
		if p.Title != record.NoTitle {
			g.Go(func() error {
				if _, err := e.cache.Embed(ctx, p.Title); err != nil {
					return fmt.Errorf("embed title %s: %w", p.ID, err)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	e.log.WithField("programs", e.catalog.Len()).Info("embedding cache warmed")
	return nil
}

// Cache exposes the shared embedding cache for collaborating components.
func (e *Engine) Cache() *EmbedCache {
	return e.cache
}

// Catalog exposes the underlying program catalog.
func (e *Engine) Catalog() *record.Catalog {
	return e.catalog
}

// Recommend ranks programs for the query and profile. A query may demand an
// exact mileage value and an availability window of its own; both become
// additional constraints.
func (e *Engine) Recommend(ctx context.Context, query string, p *profile.Profile) (*Result, error) {
	wantMileage, hasMileage := MileageFilter(query)

	busy, warnings := profile.Normalize(p.Busy)
	for _, w := range warnings {
		e.log.WithField("user_id", p.UserID).Warn(w.String())
	}
	if iv, ok := TimeConstraint(query); ok {
		busy = append(busy, iv)
	}

	generic := IsGenericQuery(query)
	queryWeight, interestWeight := e.weights(generic)

	qvec, err := e.cache.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", apperrors.ErrRetrievalFailure, err)
	}

	var ivec []float32
	if text := p.InterestText(); text != "" {
		ivec, err = e.cache.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: embed interests: %v", apperrors.ErrRetrievalFailure, err)
		}
	}

	scored, err := e.evaluate(ctx, qvec, ivec, queryWeight, interestWeight, wantMileage, hasMileage)
	if err != nil {
		return nil, err
	}

	// Prefer candidates that fit the timetable. In strict mode a program
	// without a known schedule cannot be promised as conflict-free.
	var preferred []Scored
	for _, s := range scored {
		if s.Program.Schedule == nil {
			if e.opts.ScheduleMode == config.ScheduleModeLenient {
				preferred = append(preferred, s)
			}
			continue
		}
		if !timetable.Conflicts(s.Program.Schedule, busy) {
			preferred = append(preferred, s)
		}
	}

	result := &Result{Generic: generic}
	if len(preferred) > 0 {
		result.Items = preferred
	} else {
		// Nothing fits; show the best matches anyway and say so.
		result.Items = scored
		result.Fallback = len(scored) > 0
	}

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Score > result.Items[j].Score
	})
	if len(result.Items) > e.opts.TopK {
		result.Items = result.Items[:e.opts.TopK]
	}

	if e.metrics != nil {
		path := "preferred"
		if result.Fallback {
			path = "fallback"
		}
		e.metrics.RecommendResults.WithLabelValues(path).Observe(float64(len(result.Items)))
	}
	return result, nil
}

// RankedPrograms scores the full catalog against a query and interest text
// without timetable constraints or cutoffs. Used for offline evaluation.
func (e *Engine) RankedPrograms(ctx context.Context, query, interestText string) ([]Scored, error) {
	qvec, err := e.cache.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", apperrors.ErrRetrievalFailure, err)
	}
	var ivec []float32
	if interestText != "" {
		ivec, err = e.cache.Embed(ctx, interestText)
		if err != nil {
			return nil, fmt.Errorf("%w: embed interests: %v", apperrors.ErrRetrievalFailure, err)
		}
	}

	queryWeight, interestWeight := e.weights(IsGenericQuery(query))

	ranked := make([]Scored, 0, e.catalog.Len())
	for _, p := range e.catalog.All() {
		pvec, err := e.cache.Embed(ctx, p.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: embed program %s: %v", apperrors.ErrRetrievalFailure, p.ID, err)
		}
		qsim := Cosine(qvec, pvec)
		isim := Cosine(ivec, pvec)
		ranked = append(ranked, Scored{
			Program:     p,
			Score:       queryWeight*qsim + interestWeight*isim,
			QuerySim:    qsim,
			InterestSim: isim,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

func (e *Engine) weights(generic bool) (float64, float64) {
	if generic {
		return e.opts.Profile.GenericQueryWeight, e.opts.Profile.GenericInterestWeight
	}
	return e.opts.Profile.QueryWeight, e.opts.Profile.InterestWeight
}

// evaluate scores every catalog program in parallel and applies the
// similarity cutoff and mileage filter. Catalog order is preserved so equal
// scores tie-break deterministically.
func (e *Engine) evaluate(ctx context.Context, qvec, ivec []float32, queryWeight, interestWeight float64, wantMileage int, hasMileage bool) ([]Scored, error) {
	programs := e.catalog.All()
	candidates := make([]*Scored, len(programs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, p := range programs {
		g.Go(func() error {
			if hasMileage && p.Mileage != wantMileage {
				return nil
			}

			pvec, err := e.cache.Embed(ctx, p.Text)
			if err != nil {
				return fmt.Errorf("%w: embed program %s: %v", apperrors.ErrRetrievalFailure, p.ID, err)
			}

			qsim := Cosine(qvec, pvec)
			isim := Cosine(ivec, pvec)

			// Discard only when both signals fall below the cutoff; a value
			// exactly at the cutoff survives.
			if qsim < e.opts.Profile.MinSimilarity && isim < e.opts.Profile.MinSimilarity {
				return nil
			}

			candidates[i] = &Scored{
				Program:     p,
				Score:       queryWeight*qsim + interestWeight*isim,
				QuerySim:    qsim,
				InterestSim: isim,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scored := make([]Scored, 0, len(programs))
	for _, c := range candidates {
		if c != nil {
			scored = append(scored, *c)
		}
	}
	return scored, nil
}
