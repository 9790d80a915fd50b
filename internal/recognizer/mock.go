package recognizer

import (
	"context"
	"fmt"
)

type mockRecognizer struct{}

// NewMock returns a recognizer that fabricates a transcript. Useful for
// wiring checks without a speech model installed.
func NewMock() Recognizer {
	return &mockRecognizer{}
}

func (m *mockRecognizer) Transcribe(_ context.Context, audio []byte, mimeType string) (Result, error) {
	return Result{
		Text:       fmt.Sprintf("[mock transcript %s length=%d]", mimeType, len(audio)),
		Confidence: 0,
	}, nil
}
