package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/se-wein/kumrec-go/internal/config"
	"github.com/se-wein/kumrec-go/internal/genai"
	"github.com/se-wein/kumrec-go/internal/logger"
	"github.com/se-wein/kumrec-go/internal/profile"
	"github.com/se-wein/kumrec-go/internal/record"
)

// stubEmbedder returns fixed vectors per text so similarities are exact.
type stubEmbedder struct {
	mu    sync.Mutex
	vecs  map[string][]float32
	def   []float32
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if v, ok := s.vecs[text]; ok {
		return v, nil
	}
	return s.def, nil
}

func (s *stubEmbedder) Model() string          { return "stub" }
func (s *stubEmbedder) Provider() genai.Provider { return genai.Provider("stub") }

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testEngine(t *testing.T, programs []*record.Program, vecs map[string][]float32, opts Options) (*Engine, *stubEmbedder) {
	t.Helper()
	stub := &stubEmbedder{vecs: vecs, def: []float32{0, 0, 1}}
	cache := NewEmbedCache(stub, nil, nil)
	log := logger.New("error")
	if opts.Profile.Name == "" {
		opts.Profile = config.Profiles["standard"]
	}
	if opts.ScheduleMode == "" {
		opts.ScheduleMode = config.ScheduleModeStrict
	}
	return New(record.NewCatalog(programs), cache, opts, log, nil), stub
}

const (
	aiText      = "제목: AI 커리어 특강\n진행기간: 2026.03.02 14:00~2026.03.02 16:00\nKUM마일리지 10점"
	startupText = "제목: 창업 캠프\n진행기간: 2026.03.03 14:00~2026.03.03 16:00\nKUM마일리지 20점"
	farText     = "제목: 무관한 공지\n진행기간: 2026.03.04 14:00~2026.03.04 16:00"
)

func testPrograms() []*record.Program {
	return []*record.Program{
		record.NewProgram("ai", aiText, nil, nil),
		record.NewProgram("startup", startupText, nil, nil),
		record.NewProgram("far", farText, nil, nil),
	}
}

func testVecs(query string) map[string][]float32 {
	return map[string][]float32{
		query:       {1, 0, 0},
		"ai":        {1, 0, 0},
		aiText:      {1, 0, 0},   // qsim 1
		startupText: {0.8, 0.6, 0}, // qsim 0.8
		farText:     {0, 1, 0},   // qsim 0, below cutoff on both signals
	}
}

func TestRecommendRankingAndCutoff(t *testing.T) {
	query := "AI 진로 특강 추천해줘"
	e, _ := testEngine(t, testPrograms(), testVecs(query), Options{})

	p := &profile.Profile{UserID: "u", Interests: []string{"ai"}}
	res, err := e.Recommend(context.Background(), query, p)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Fallback {
		t.Error("unexpected fallback")
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %d, want 2 (below-cutoff program dropped)", len(res.Items))
	}
	if res.Items[0].Program.ID != "ai" || res.Items[1].Program.ID != "startup" {
		t.Errorf("order = %s, %s", res.Items[0].Program.ID, res.Items[1].Program.ID)
	}
	if res.Items[0].QuerySim < 0.99 {
		t.Errorf("top querySim = %v", res.Items[0].QuerySim)
	}
}

func TestRecommendCutoffBoundaryRetained(t *testing.T) {
	// With cutoff 0, a candidate sitting exactly at the cutoff survives:
	// discard requires both signals strictly below.
	query := "질문"
	vecs := testVecs(query)
	opts := Options{Profile: config.EngineProfile{
		Name: "test", QueryWeight: 0.8, InterestWeight: 0.2,
		GenericQueryWeight: 0.5, GenericInterestWeight: 0.5,
		MinSimilarity: 0.0, TitleMatchThreshold: 0.55,
	}}
	e, _ := testEngine(t, testPrograms(), vecs, opts)

	p := &profile.Profile{UserID: "u", Interests: []string{"ai"}}
	res, err := e.Recommend(context.Background(), query, p)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// The orthogonal program has qsim == isim == 0 == cutoff and is kept.
	if len(res.Items) != 3 {
		t.Errorf("items = %d, want all 3 at zero cutoff", len(res.Items))
	}
}

func TestRecommendMileageFilter(t *testing.T) {
	// The stated mileage is an exact demand: only 20-point programs may
	// pass, ranked among themselves by similarity.
	const mentoringText = "제목: 창업 멘토링\n진행기간: 2026.03.05 14:00~2026.03.05 16:00\nKUM마일리지 20점"
	query := "마일리지 20점 AI 활동"
	vecs := testVecs(query)
	vecs[mentoringText] = []float32{0.6, 0.8, 0}

	programs := append(testPrograms(), record.NewProgram("mentoring", mentoringText, nil, nil))
	e, _ := testEngine(t, programs, vecs, Options{})

	p := &profile.Profile{UserID: "u", Interests: []string{"ai"}}
	res, err := e.Recommend(context.Background(), query, p)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, item := range res.Items {
		if item.Program.Mileage != 20 {
			t.Errorf("program %s with mileage %d passed the filter",
				item.Program.ID, item.Program.Mileage)
		}
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %d, want the two 20-point programs", len(res.Items))
	}
	if res.Items[0].Program.ID != "startup" || res.Items[1].Program.ID != "mentoring" {
		t.Errorf("order = %s, %s", res.Items[0].Program.ID, res.Items[1].Program.ID)
	}
}

func TestRecommendTimetableConflict(t *testing.T) {
	// 2026-03-02 is a Monday; busy Monday afternoon knocks out the AI talk.
	query := "AI 특강 추천"
	e, _ := testEngine(t, testPrograms(), testVecs(query), Options{})

	p := &profile.Profile{
		UserID:    "u",
		Interests: []string{"ai"},
		Busy:      []profile.BusyBlock{{Day: "월", StartTime: "13:00", EndTime: "17:00"}},
	}
	res, err := e.Recommend(context.Background(), query, p)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Fallback {
		t.Error("conflict-free candidates exist, no fallback expected")
	}
	for _, item := range res.Items {
		if item.Program.ID == "ai" {
			t.Error("conflicting program included in preferred set")
		}
	}
}

func TestRecommendFallbackWhenAllConflict(t *testing.T) {
	query := "AI 특강 추천"
	e, _ := testEngine(t, testPrograms(), testVecs(query), Options{})

	// Busy every day, all afternoons.
	p := &profile.Profile{
		UserID:    "u",
		Interests: []string{"ai"},
		Busy:      []profile.BusyBlock{{StartTime: "00:00", EndTime: "23:59"}},
	}
	res, err := e.Recommend(context.Background(), query, p)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !res.Fallback {
		t.Error("expected fallback when everything conflicts")
	}
	if len(res.Items) == 0 {
		t.Error("fallback should still rank the best matches")
	}
}

func TestRecommendStrictModeExcludesScheduleless(t *testing.T) {
	query := "AI 특강 추천"
	noSched := record.NewProgram("nosched", "제목: 일정 없는 특강", nil, nil)
	vecs := testVecs(query)
	vecs["제목: 일정 없는 특강"] = []float32{1, 0, 0}

	programs := append(testPrograms(), noSched)
	e, _ := testEngine(t, programs, vecs, Options{})

	p := &profile.Profile{UserID: "u", Interests: []string{"ai"}}
	res, err := e.Recommend(context.Background(), query, p)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, item := range res.Items {
		if item.Program.ID == "nosched" {
			t.Error("strict mode should exclude schedule-less programs from the preferred set")
		}
	}

	// Lenient mode admits it.
	e, _ = testEngine(t, programs, vecs, Options{ScheduleMode: config.ScheduleModeLenient})
	res, err = e.Recommend(context.Background(), query, p)
	if err != nil {
		t.Fatalf("Recommend lenient: %v", err)
	}
	found := false
	for _, item := range res.Items {
		if item.Program.ID == "nosched" {
			found = true
		}
	}
	if !found {
		t.Error("lenient mode should include schedule-less programs")
	}
}

func TestRecommendGenericWeights(t *testing.T) {
	query := "추천해줘"
	vecs := map[string][]float32{
		query:       {1, 0, 0},
		"창업":        {0, 1, 0},
		startupText: {0, 1, 0}, // interest match only
		aiText:      {1, 0, 0}, // query match only
		farText:     {0, 0, 1},
	}
	e, _ := testEngine(t, testPrograms(), vecs, Options{})

	p := &profile.Profile{UserID: "u", Interests: []string{"창업"}}
	res, err := e.Recommend(context.Background(), query, p)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !res.Generic {
		t.Fatal("bare request should be generic")
	}
	// Balanced weights: both programs score 0.5.
	if len(res.Items) < 2 {
		t.Fatalf("items = %d", len(res.Items))
	}
	if res.Items[0].Score != res.Items[1].Score {
		t.Errorf("scores %v vs %v, want equal under 0.5/0.5",
			res.Items[0].Score, res.Items[1].Score)
	}
}

func TestInitializeWarmsCache(t *testing.T) {
	query := "AI 특강 추천"
	e, stub := testEngine(t, testPrograms(), testVecs(query), Options{})

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	warmed := stub.callCount()

	p := &profile.Profile{UserID: "u", Interests: []string{"ai"}}
	if _, err := e.Recommend(context.Background(), query, p); err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	// Only the query and interest text are new embeddings.
	if got := stub.callCount() - warmed; got != 2 {
		t.Errorf("provider calls after warmup = %d, want 2", got)
	}
}

func TestRankedPrograms(t *testing.T) {
	query := "AI 특강"
	e, _ := testEngine(t, testPrograms(), testVecs(query), Options{})

	ranked, err := e.RankedPrograms(context.Background(), query, "ai")
	if err != nil {
		t.Fatalf("RankedPrograms: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("ranked = %d, want full catalog", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Error("ranking not sorted descending")
		}
	}
}
