package record

import "testing"

const sampleText = `제목: AI 커리어 특강
URL: https://example.ac.kr/prog/42
신청기간: 2026.02.20 09:00~2026.02.27 18:00
진행기간: 2026.03.02 14:00~2026.03.02 16:00
장소: 학술정보관 세미나실
대상자: 재학생 전체
수료증: 있음
KUM마일리지 10점 지급
인공지능 직무 트렌드와 포트폴리오 준비 방법을 다룹니다.`

func TestExtractTitle(t *testing.T) {
	if got := ExtractTitle(sampleText); got != "AI 커리어 특강" {
		t.Errorf("ExtractTitle = %q", got)
	}
	if got := ExtractTitle("아무 제목 없는 본문"); got != NoTitle {
		t.Errorf("ExtractTitle on untitled text = %q, want %q", got, NoTitle)
	}
	if got := ExtractTitle("제목:   \n제목: 두번째"); got != "두번째" {
		t.Errorf("empty title line should be skipped, got %q", got)
	}
}

func TestExtractFields(t *testing.T) {
	fields := ExtractFields(sampleText)

	cases := map[string]string{
		FieldTitle:       "AI 커리어 특강",
		FieldURL:         "https://example.ac.kr/prog/42",
		FieldLocation:    "학술정보관 세미나실",
		FieldAudience:    "재학생 전체",
		FieldCertificate: "있음",
		FieldMileage:     "10",
	}
	for key, want := range cases {
		if got := fields[key]; got != want {
			t.Errorf("fields[%s] = %q, want %q", key, got, want)
		}
	}
	if _, ok := fields[FieldApplication]; !ok {
		t.Error("application period missing")
	}
	if _, ok := fields[FieldPeriod]; !ok {
		t.Error("event period missing")
	}
}

func TestExtractFieldsSpellingVariants(t *testing.T) {
	text := "접수 기간: 2026.02.01~2026.02.10\n대상: 3학년\n링크: https://x.kr\n위치: 본관 101호"
	fields := ExtractFields(text)

	if fields[FieldApplication] == "" {
		t.Error("접수 기간 variant not recognized")
	}
	if fields[FieldAudience] != "3학년" {
		t.Errorf("대상 variant = %q", fields[FieldAudience])
	}
	if fields[FieldURL] != "https://x.kr" {
		t.Errorf("링크 variant = %q", fields[FieldURL])
	}
	if fields[FieldLocation] != "본관 101호" {
		t.Errorf("위치 variant = %q", fields[FieldLocation])
	}
}

func TestExtractMileageMaxPolicy(t *testing.T) {
	text := "쿰 마일리지 5점\n상세: KUM마일리지 총 20점 지급\n추가 안내 쿰마일리지 10"
	got, ok := ExtractMileage(text)
	if !ok {
		t.Fatal("mileage not found")
	}
	if got != 20 {
		t.Errorf("mileage = %d, want max 20", got)
	}

	// Re-extraction over the same text never changes the answer.
	again, _ := ExtractMileage(text)
	if again != got {
		t.Errorf("re-extraction changed value: %d != %d", again, got)
	}
}

func TestExtractMileageAbsent(t *testing.T) {
	if _, ok := ExtractMileage("마일리지 제도와 무관한 안내문"); ok {
		t.Error("bare 마일리지 without KUM/쿰 prefix should not match")
	}
}
