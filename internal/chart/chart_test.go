package chart

import (
	"strings"
	"testing"

	"github.com/mileslindheimer/speech-to-chords/internal/chord"
)

func TestFormatEmptyChords(t *testing.T) {
	for _, transcript := range []string{"", "just regular speech", "a\nmultiline\ntranscript"} {
		got := Format(nil, transcript)
		if got != NoChordsMarker {
			t.Fatalf("transcript %q: expected %q, got %q", transcript, NoChordsMarker, got)
		}
	}
}

func TestFormatWithChords(t *testing.T) {
	chords := chord.Extract([]string{"C", "Am", "F", "G"})
	transcript := "The song uses C, Am, F, and G chords"
	got := Format(chords, transcript)

	if !strings.HasPrefix(got, "Chord Chart\n") {
		t.Fatalf("expected header line, got %q", got)
	}
	if !strings.Contains(got, "Chords: C  Am  F  G") {
		t.Fatalf("expected chord line in %q", got)
	}
	if !strings.Contains(got, "Transcription: "+transcript) {
		t.Fatalf("expected transcript section in %q", got)
	}
}

func TestFormatWithoutTranscript(t *testing.T) {
	chords := chord.Extract([]string{"C", "D"})
	got := Format(chords, "")

	if strings.Contains(got, "Transcription:") {
		t.Fatalf("expected no transcript section, got %q", got)
	}
	if !strings.Contains(got, "Chords: C  D") {
		t.Fatalf("expected chord line in %q", got)
	}
}

func TestFormatDeterministic(t *testing.T) {
	chords := chord.Extract([]string{"G7", "Dm"})
	a := Format(chords, "play it again")
	b := Format(chords, "play it again")
	if a != b {
		t.Fatalf("format is not deterministic:\n%q\n%q", a, b)
	}
}
