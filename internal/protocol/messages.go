package protocol

import "time"

// TranscriptionEvent is broadcast on the bus for every completed
// transcription.
type TranscriptionEvent struct {
	ID         string    `json:"id"`
	Transcript string    `json:"transcript"`
	Chords     []string  `json:"chords"`
	Chart      string    `json:"chart"`
	Timestamp  time.Time `json:"timestamp"`
}
