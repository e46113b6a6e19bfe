package chat

import (
	"fmt"
	"strings"

	"github.com/se-wein/kumrec-go/internal/answer"
	"github.com/se-wein/kumrec-go/internal/engine"
)

// Replies for turns that produce no ranked list.
const (
	MsgNoMatch             = "조건에 맞는 프로그램을 찾지 못했습니다."
	MsgUnresolvedReference = "입력하신 질문에서 어떤 프로그램을 지칭하는지 찾을 수 없습니다."

	fallbackNotice = "시간표와 겹치지 않는 프로그램이 없어 겹침이 있어도 가장 가까운 프로그램을 보여드려요."
	followUpHint   = "원하는 프로그램이 있으시면 번호로 말씀해 주세요. 자세한 정보를 바로 알려드릴게요."
)

// leadForQuery picks the list heading from the query topic.
func leadForQuery(query string) string {
	norm := answer.Normalize(query)
	switch {
	case strings.Contains(query, "창업"):
		return "다음은 창업 프로그램 추천 목록입니다:"
	case strings.Contains(norm, "ai") || strings.Contains(norm, "인공지능") || strings.Contains(norm, "데이터"):
		return "AI 관련 비교과 추천 결과입니다:"
	case strings.Contains(query, "취업") || strings.Contains(query, "진로"):
		return "취업·진로 관련 추천 프로그램입니다:"
	case strings.Contains(norm, "캡스톤"):
		return "캡스톤디자인 관련 프로그램을 찾았어요:"
	case strings.Contains(query, "어울리") || strings.Contains(query, "추천"):
		return "당신과 어울리는 비교과 Top5를 골라봤어요:"
	default:
		return "다음 프로그램들을 추천드려요:"
	}
}

// formatItem renders one ranked entry with its similarity breakdown. The
// mileage suffix is omitted when the record carries none.
func formatItem(rank int, s engine.Scored) string {
	miles := ""
	if s.Program.Mileage >= 0 {
		miles = fmt.Sprintf(" — KUM마일리지: %d점", s.Program.Mileage)
	}
	return fmt.Sprintf("%d. %s%s\n    - 종합 점수: %.3f (질문 유사도: %.3f, 관심사 유사도: %.3f)",
		rank, s.Program.Title, miles, s.Score, s.QuerySim, s.InterestSim)
}

func renderRecommendation(query string, res *engine.Result) string {
	if len(res.Items) == 0 {
		return MsgNoMatch
	}

	var b strings.Builder
	b.WriteString(leadForQuery(query))
	if res.Fallback {
		b.WriteString("\n")
		b.WriteString(fallbackNotice)
	}
	for i, item := range res.Items {
		b.WriteString("\n\n")
		b.WriteString(formatItem(i+1, item))
	}
	b.WriteString("\n\n")
	b.WriteString(followUpHint)
	return b.String()
}
