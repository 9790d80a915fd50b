// Package capture abstracts microphone acquisition and chunked audio
// delivery for the recording session.
package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// MIMETypePCM marks raw little-endian 16-bit PCM chunks that still need a
// container before submission.
const MIMETypePCM = "audio/l16"

// Stream is a live capture handle. Chunks delivers buffered audio in order
// and is closed once capture has fully stopped; that close is the
// stop-completion signal. Close releases the underlying device and must be
// called exactly once by the owner.
type Stream interface {
	Chunks() <-chan []byte
	Stop()
	Close() error
	MIMEType() string
}

// Source acquires a capture stream. Acquisition either succeeds with a live
// stream or fails leaving nothing to release.
type Source interface {
	Acquire(ctx context.Context) (Stream, error)
}

// EncodeWAV wraps a raw 16-bit PCM payload in a WAV container. The encoder
// needs a seekable writer to patch up the header, so it goes through a temp
// file.
func EncodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("pcm payload not aligned")
	}

	file, err := os.CreateTemp("", "chords_capture_*.wav")
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buffer := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}

	return os.ReadFile(file.Name())
}
