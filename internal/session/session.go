// Package session owns the recording lifecycle: microphone acquisition,
// chunk buffering, and the single in-flight submission that turns captured
// audio into a chord chart.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mileslindheimer/speech-to-chords/internal/capture"
	"github.com/mileslindheimer/speech-to-chords/internal/transcribe"
)

// State is the session's single tagged state. The zero value is Idle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
	StateProcessing
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateProcessing:
		return "processing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrBusy is returned by Start while a recording or submission is underway.
var ErrBusy = errors.New("a recording is already in progress")

// Submitter resolves one audio payload into a transcription result or a
// classified failure.
type Submitter interface {
	Submit(ctx context.Context, payload []byte, mimeType string) (*transcribe.Result, error)
}

// Snapshot is an immutable view of the session for rendering.
type Snapshot struct {
	State  State
	Result *transcribe.Result
	Err    string
}

// Session is the recording state machine. All transitions happen under one
// mutex; asynchronous completions (capture stop, submission resolution) are
// delivered by the consume goroutine. At most one submission is ever in
// flight because submission only happens on the single Stopping->Processing
// transition.
type Session struct {
	source    capture.Source
	submitter Submitter
	log       *slog.Logger
	onChange  func(Snapshot)

	mu       sync.Mutex
	state    State
	stream   capture.Stream
	released bool
	chunks   [][]byte
	result   *transcribe.Result
	errMsg   string
	wg       sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithOnChange registers a callback invoked after every state transition
// with a fresh snapshot. The callback runs outside the session lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Session) { s.onChange = fn }
}

func New(source capture.Source, submitter Submitter, log *slog.Logger, opts ...Option) *Session {
	s := &Session{
		source:    source,
		submitter: submitter,
		log:       log,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new recording. Allowed from Idle, Succeeded and Failed;
// any previous error and result are cleared before acquisition is
// attempted. If acquisition fails the state stays Idle, nothing is held,
// and the submitter is never invoked.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle, StateSucceeded, StateFailed:
	default:
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = StateIdle
	s.result = nil
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()

	stream, err := s.source.Acquire(ctx)
	if err != nil {
		s.log.Warn("microphone acquisition failed", slog.String("error", err.Error()))
		return fmt.Errorf("microphone access failed: %w", err)
	}

	s.mu.Lock()
	s.stream = stream
	s.released = false
	s.chunks = nil
	s.state = StateRecording
	s.mu.Unlock()
	s.notify()

	s.wg.Add(1)
	go s.consume(ctx, stream)
	return nil
}

// Stop halts capture. A no-op unless the session is Recording; buffered
// chunks are retained and the capture resource stays held until the
// stop-completion signal arrives.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	stream := s.stream
	s.mu.Unlock()
	s.notify()

	stream.Stop()
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Result: s.result, Err: s.errMsg}
}

// Wait blocks until the in-flight recording cycle, if any, has fully
// resolved.
func (s *Session) Wait() {
	s.wg.Wait()
}

// consume buffers chunks while recording. The chunk channel closing is the
// capture's stop-completion signal: it drives Stopping->Processing, where
// the payload is assembled, the device is released exactly once, and the
// single submission is made.
func (s *Session) consume(ctx context.Context, stream capture.Stream) {
	defer s.wg.Done()

	for chunk := range stream.Chunks() {
		s.mu.Lock()
		if s.state == StateRecording || s.state == StateStopping {
			s.chunks = append(s.chunks, chunk)
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	total := 0
	for _, c := range s.chunks {
		total += len(c)
	}
	payload := make([]byte, 0, total)
	for _, c := range s.chunks {
		payload = append(payload, c...)
	}
	s.chunks = nil
	mimeType := stream.MIMEType()
	s.state = StateProcessing
	s.releaseLocked()
	s.mu.Unlock()
	s.notify()

	result, err := s.submitter.Submit(ctx, payload, mimeType)

	s.mu.Lock()
	if err != nil {
		s.state = StateFailed
		s.errMsg = fmt.Sprintf("Error processing audio: %v", err)
		s.log.Warn("submission failed", slog.String("error", err.Error()))
	} else {
		s.state = StateSucceeded
		s.result = result
	}
	s.mu.Unlock()
	s.notify()
}

// releaseLocked closes the capture stream exactly once, on every exit path
// out of Stopping, whether processing later succeeds or fails.
func (s *Session) releaseLocked() {
	if s.released || s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		s.log.Warn("capture release failed", slog.String("error", err.Error()))
	}
	s.released = true
	s.stream = nil
}

func (s *Session) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Snapshot())
}
