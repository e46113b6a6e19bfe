package chat

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/se-wein/kumrec-go/internal/answer"
	"github.com/se-wein/kumrec-go/internal/config"
	"github.com/se-wein/kumrec-go/internal/dialog"
	"github.com/se-wein/kumrec-go/internal/engine"
	apperrors "github.com/se-wein/kumrec-go/internal/errors"
	"github.com/se-wein/kumrec-go/internal/genai"
	"github.com/se-wein/kumrec-go/internal/logger"
	"github.com/se-wein/kumrec-go/internal/profile"
	"github.com/se-wein/kumrec-go/internal/record"
)

type stubEmbedder struct {
	mu   sync.Mutex
	vecs map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vecs[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (s *stubEmbedder) Model() string            { return "stub" }
func (s *stubEmbedder) Provider() genai.Provider { return genai.Provider("stub") }

type stubProfiles struct {
	byID map[string]*profile.Profile
}

func (s *stubProfiles) GetProfile(_ context.Context, userID string) (*profile.Profile, error) {
	if p, ok := s.byID[userID]; ok {
		return p, nil
	}
	return nil, apperrors.ErrUserNotFound
}

const talkText = "제목: AI 커리어 특강\n장소: 학술정보관 세미나실\nKUM마일리지 10점\n진행기간: 2026.03.02 14:00~2026.03.02 16:00"
const campText = "제목: 창업 캠프\nKUM마일리지 20점\n진행기간: 2026.03.03 14:00~2026.03.03 16:00"

func testService(t *testing.T, profiles ProfileStore) *Service {
	t.Helper()
	catalog := record.NewCatalog([]*record.Program{
		record.NewProgram("talk", talkText, nil, nil),
		record.NewProgram("camp", campText, nil, nil),
	})
	vecs := map[string][]float32{
		talkText:      {1, 0, 0},
		campText:      {0, 1, 0},
		"AI 특강 추천해줘": {1, 0.5, 0},
	}
	cache := engine.NewEmbedCache(&stubEmbedder{vecs: vecs}, nil, nil)
	log := logger.New("error")

	eng := engine.New(catalog, cache, engine.Options{
		Profile:      config.Profiles["standard"],
		ScheduleMode: config.ScheduleModeLenient,
		TopK:         5,
	}, log, nil)
	ans := answer.New(catalog, cache, nil, 0.55, log)

	return NewService(eng, ans, dialog.NewManager(), profiles, nil, log)
}

func TestHandleTurnRecommend(t *testing.T) {
	s := testService(t, nil)

	turn, err := s.HandleTurn(context.Background(), "s1", "", "AI 특강 추천해줘")
	require.NoError(t, err)
	assert.Equal(t, dialog.IntentRecommend, turn.Intent)

	assert.True(t, strings.HasPrefix(turn.Message, "AI 관련 비교과 추천 결과입니다:"), "lead line: %q", turn.Message)
	assert.Contains(t, turn.Message, "1. AI 커리어 특강 — KUM마일리지: 10점")
	assert.Contains(t, turn.Message, "2. 창업 캠프 — KUM마일리지: 20점")
	assert.Contains(t, turn.Message, "종합 점수:")
	assert.Contains(t, turn.Message, "질문 유사도:")
	assert.True(t, strings.HasSuffix(turn.Message, followUpHint))
	assert.NotContains(t, turn.Message, fallbackNotice)
}

func TestHandleTurnFollowUpRoundTrip(t *testing.T) {
	s := testService(t, nil)

	_, err := s.HandleTurn(context.Background(), "s1", "", "AI 특강 추천해줘")
	require.NoError(t, err)

	turn, err := s.HandleTurn(context.Background(), "s1", "", "1번 장소")
	require.NoError(t, err)
	assert.Equal(t, dialog.IntentQuestion, turn.Intent)
	assert.Equal(t, "장소: 학술정보관 세미나실", turn.Message)
}

func TestHandleTurnFollowUpDuplicateTitles(t *testing.T) {
	// Ranked results keep program identity even when titles collide, so a
	// rank reference reaches the exact record shown.
	firstText := "제목: 진로 특강\n장소: 본관 101호"
	secondText := "제목: 진로 특강\n장소: 별관 202호"
	catalog := record.NewCatalog([]*record.Program{
		record.NewProgram("first", firstText, nil, nil),
		record.NewProgram("second", secondText, nil, nil),
	})
	vecs := map[string][]float32{
		firstText:    {1, 0, 0},
		secondText:   {0.8, 0.6, 0},
		"진로 특강 추천해줘": {1, 0, 0},
	}
	cache := engine.NewEmbedCache(&stubEmbedder{vecs: vecs}, nil, nil)
	log := logger.New("error")
	eng := engine.New(catalog, cache, engine.Options{
		Profile:      config.Profiles["standard"],
		ScheduleMode: config.ScheduleModeLenient,
		TopK:         5,
	}, log, nil)
	ans := answer.New(catalog, cache, nil, 0.55, log)
	s := NewService(eng, ans, dialog.NewManager(), nil, nil, log)

	_, err := s.HandleTurn(context.Background(), "s1", "", "진로 특강 추천해줘")
	require.NoError(t, err)

	turn, err := s.HandleTurn(context.Background(), "s1", "", "2번 장소")
	require.NoError(t, err)
	assert.Equal(t, "장소: 별관 202호", turn.Message)
}

func TestHandleTurnAnaphor(t *testing.T) {
	s := testService(t, nil)

	_, err := s.HandleTurn(context.Background(), "s1", "", "AI 특강 추천해줘")
	require.NoError(t, err)

	// The top result is the current referent.
	turn, err := s.HandleTurn(context.Background(), "s1", "", "그건 마일리지 몇 점이야?")
	require.NoError(t, err)
	assert.Equal(t, "KUM마일리지: 10", turn.Message)
}

func TestHandleTurnUnresolvedReference(t *testing.T) {
	s := testService(t, nil)

	turn, err := s.HandleTurn(context.Background(), "fresh", "", "3번 장소")
	require.NoError(t, err)
	assert.Equal(t, MsgUnresolvedReference, turn.Message)
}

func TestHandleTurnNoMatch(t *testing.T) {
	s := testService(t, nil)

	// The query embeds to the default vector, orthogonal to every program.
	turn, err := s.HandleTurn(context.Background(), "s1", "", "점심 뭐 먹지")
	require.NoError(t, err)
	assert.Equal(t, MsgNoMatch, turn.Message)
}

func TestHandleTurnFallbackNotice(t *testing.T) {
	profiles := &stubProfiles{byID: map[string]*profile.Profile{
		"busy-user": {
			UserID: "busy-user",
			Busy: []profile.BusyBlock{
				{StartTime: "00:00", EndTime: "23:59"},
			},
		},
	}}
	s := testService(t, profiles)

	turn, err := s.HandleTurn(context.Background(), "s1", "busy-user", "AI 특강 추천해줘")
	require.NoError(t, err)
	assert.Contains(t, turn.Message, fallbackNotice)
	assert.Contains(t, turn.Message, "AI 커리어 특강")
}

func TestHandleTurnUnknownUserRunsUnconstrained(t *testing.T) {
	s := testService(t, &stubProfiles{byID: map[string]*profile.Profile{}})

	turn, err := s.HandleTurn(context.Background(), "s1", "nobody", "AI 특강 추천해줘")
	require.NoError(t, err)
	assert.Contains(t, turn.Message, "AI 커리어 특강")
}

func TestSessionsAreIsolated(t *testing.T) {
	s := testService(t, nil)

	_, err := s.HandleTurn(context.Background(), "a", "", "AI 특강 추천해줘")
	require.NoError(t, err)

	// Session "b" never saw a result list.
	turn, err := s.HandleTurn(context.Background(), "b", "", "1번 장소")
	require.NoError(t, err)
	assert.Equal(t, MsgUnresolvedReference, turn.Message)
}

func TestLeadForQuery(t *testing.T) {
	cases := map[string]string{
		"창업 프로그램 알려줘":     "다음은 창업 프로그램 추천 목록입니다:",
		"인공지능 배우고 싶어":     "AI 관련 비교과 추천 결과입니다:",
		"취업 준비 뭐 하지":      "취업·진로 관련 추천 프로그램입니다:",
		"캡스톤 디자인 관련 있어?":  "캡스톤디자인 관련 프로그램을 찾았어요:",
		"나랑 어울리는 거 추천해줘":  "당신과 어울리는 비교과 Top5를 골라봤어요:",
		"뭐 들을 만한 거 있어?":   "다음 프로그램들을 추천드려요:",
	}
	for query, want := range cases {
		assert.Equal(t, want, leadForQuery(query), "query %q", query)
	}
}

func TestFormatItemWithoutMileage(t *testing.T) {
	line := formatItem(1, engine.Scored{
		Program:  record.NewProgram("x", "제목: 독서 모임", nil, nil),
		Score:    0.5,
		QuerySim: 0.5,
	})
	assert.NotContains(t, line, "KUM마일리지")
	assert.Contains(t, line, "1. 독서 모임")
	assert.Contains(t, line, "종합 점수: 0.500")
}
