// Package recognizer abstracts the speech-to-text engine behind the
// transcription server. Backends receive the uploaded audio payload as-is.
package recognizer

import "context"

// Result captures recognizer output.
type Result struct {
	Text       string
	Confidence float64
}

// Recognizer turns an opaque audio payload into text.
type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (Result, error)
}
