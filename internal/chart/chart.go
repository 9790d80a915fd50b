// Package chart renders a canonical chord list plus transcript into a
// human-readable chord chart.
package chart

import (
	"strings"

	"github.com/mileslindheimer/speech-to-chords/internal/chord"
)

// NoChordsMarker is the entire chart text when no chords were detected.
const NoChordsMarker = "No chords detected"

// Format is pure and deterministic: identical inputs always produce the
// identical chart string. An empty chord list yields NoChordsMarker and
// nothing else; otherwise the chart has a header, the space-joined chord
// line in stored order, and a trailing transcript section when a
// transcript is present.
func Format(chords []chord.Symbol, transcript string) string {
	if len(chords) == 0 {
		return NoChordsMarker
	}

	var b strings.Builder
	b.WriteString("Chord Chart\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")
	b.WriteString("Chords: ")
	b.WriteString(strings.Join(chord.Canonical(chords), "  "))
	b.WriteString("\n")

	if strings.TrimSpace(transcript) != "" {
		b.WriteString("\nTranscription: ")
		b.WriteString(transcript)
		b.WriteString("\n")
	}
	return b.String()
}
