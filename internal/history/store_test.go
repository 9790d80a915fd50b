package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mileslindheimer/speech-to-chords/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenDisabled(t *testing.T) {
	cfg := config.HistoryConfig{Path: ""}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Append(context.Background(), Record{ID: "x", Transcript: "t"}); err != nil {
		t.Fatalf("append on disabled store: %v", err)
	}
	recs, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list on disabled store: %v", err)
	}
	if recs != nil {
		t.Fatalf("expected no records, got %v", recs)
	}
}

func TestAppendAndList(t *testing.T) {
	cfg := config.HistoryConfig{Path: filepath.Join(t.TempDir(), "transcriptions.db")}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	rec := Record{
		ID:         "rec-1",
		Transcript: "C major and D minor",
		Chords:     []string{"C", "Dm"},
		Chart:      "Chord Chart",
	}
	if err := s.Append(context.Background(), rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Transcript != rec.Transcript {
		t.Fatalf("unexpected transcript %q", records[0].Transcript)
	}
	if !reflect.DeepEqual(records[0].Chords, rec.Chords) {
		t.Fatalf("unexpected chords %v", records[0].Chords)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	cfg := config.HistoryConfig{Path: filepath.Join(t.TempDir(), "transcriptions.db"), MaxRecords: 2}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		s.clock = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		if err := s.Append(context.Background(), Record{ID: id, Transcript: id, Chords: []string{}}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	if err := s.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}
	records, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after prune, got %d", len(records))
	}
	for _, rec := range records {
		if rec.ID == "old" {
			t.Fatal("expected oldest record pruned")
		}
	}
}
