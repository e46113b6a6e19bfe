package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/se-wein/kumrec-go/internal/errors"
	"github.com/se-wein/kumrec-go/internal/profile"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSaveAndListPrograms(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	rows := []ProgramRow{
		{ID: "p-1", Text: "제목: 첫번째", EventStart: &start, EventEnd: &end},
		{ID: "p-2", Text: "제목: 두번째"},
	}
	if err := db.SavePrograms(ctx, rows); err != nil {
		t.Fatalf("SavePrograms: %v", err)
	}

	got, err := db.ListPrograms(ctx)
	if err != nil {
		t.Fatalf("ListPrograms: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("programs = %d", len(got))
	}
	if got[0].EventStart == nil || !got[0].EventStart.Equal(start) {
		t.Errorf("event_start round-trip: %v", got[0].EventStart)
	}
	if got[1].EventStart != nil {
		t.Errorf("nil event_start round-trip: %v", got[1].EventStart)
	}

	n, err := db.CountPrograms(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountPrograms = %d, %v", n, err)
	}
}

func TestSaveProgramsUpsert(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.SavePrograms(ctx, []ProgramRow{{ID: "p-1", Text: "old"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.SavePrograms(ctx, []ProgramRow{{ID: "p-1", Text: "new"}}); err != nil {
		t.Fatal(err)
	}

	got, _ := db.ListPrograms(ctx)
	if len(got) != 1 || got[0].Text != "new" {
		t.Errorf("upsert result: %+v", got)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	p := &profile.Profile{
		UserID:    "u-1",
		Interests: []string{"AI", "창업"},
		Busy: []profile.BusyBlock{
			{Day: "월", StartTime: "09:00", EndTime: "12:00"},
		},
	}
	if err := db.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, err := db.GetProfile(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if len(got.Interests) != 2 || got.Interests[1] != "창업" {
		t.Errorf("interests = %v", got.Interests)
	}
	if len(got.Busy) != 1 || got.Busy[0].Day != "월" {
		t.Errorf("busy = %v", got.Busy)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetProfile(context.Background(), "nobody")
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSaveProfileEmptyID(t *testing.T) {
	db := testDB(t)

	err := db.SaveProfile(context.Background(), &profile.Profile{})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEmbeddingCache(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, hit, err := db.GetEmbedding(ctx, "m1", "안녕"); err != nil || hit {
		t.Fatalf("expected miss, hit=%v err=%v", hit, err)
	}

	vec := []float32{0.1, -0.5, 0.25}
	if err := db.PutEmbedding(ctx, "m1", "안녕", vec); err != nil {
		t.Fatalf("PutEmbedding: %v", err)
	}

	got, hit, err := db.GetEmbedding(ctx, "m1", "안녕")
	if err != nil || !hit {
		t.Fatalf("expected hit, err=%v", err)
	}
	if len(got) != 3 || got[2] != 0.25 {
		t.Errorf("vector round-trip: %v", got)
	}

	// Same text under a different model is a distinct key.
	if _, hit, _ := db.GetEmbedding(ctx, "m2", "안녕"); hit {
		t.Error("model should scope the cache key")
	}

	n, err := db.CountEmbeddings(ctx, "m1")
	if err != nil || n != 1 {
		t.Errorf("CountEmbeddings = %d, %v", n, err)
	}
}

func TestCacheKeyStable(t *testing.T) {
	k1 := CacheKey("m", "text")
	k2 := CacheKey("m", "text")
	if k1 != k2 {
		t.Error("cache key not deterministic")
	}
	if k1 == CacheKey("m", "other") {
		t.Error("different text should produce different key")
	}
}
