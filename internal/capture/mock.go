package capture

import (
	"context"
	"sync"
)

// MockSource is a scriptable capture source for tests and demos.
type MockSource struct {
	// AcquireErr, when set, makes every acquisition fail.
	AcquireErr error
	// Chunks are delivered to the stream as soon as it is acquired.
	Chunks [][]byte
	// MIME reported by acquired streams; defaults to MIMETypePCM.
	MIME string

	mu       sync.Mutex
	acquired int
	streams  []*MockStream
}

func (s *MockSource) Acquire(_ context.Context) (Stream, error) {
	if s.AcquireErr != nil {
		return nil, s.AcquireErr
	}
	mime := s.MIME
	if mime == "" {
		mime = MIMETypePCM
	}
	ms := &MockStream{
		chunks: make(chan []byte, len(s.Chunks)+1),
		mime:   mime,
	}
	for _, c := range s.Chunks {
		ms.chunks <- c
	}

	s.mu.Lock()
	s.acquired++
	s.streams = append(s.streams, ms)
	s.mu.Unlock()
	return ms, nil
}

// AcquireCount reports how many streams were handed out.
func (s *MockSource) AcquireCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}

// LiveStreams reports how many acquired streams have not been closed.
func (s *MockSource) LiveStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := 0
	for _, ms := range s.streams {
		if !ms.Closed() {
			live++
		}
	}
	return live
}

type MockStream struct {
	chunks    chan []byte
	mime      string
	stopOnce  sync.Once
	mu        sync.Mutex
	closed    int
	stopCalls int
}

func (m *MockStream) Chunks() <-chan []byte { return m.chunks }

func (m *MockStream) MIMEType() string { return m.mime }

// Push appends a chunk as if the microphone delivered it.
func (m *MockStream) Push(chunk []byte) { m.chunks <- chunk }

func (m *MockStream) Stop() {
	m.mu.Lock()
	m.stopCalls++
	m.mu.Unlock()
	m.stopOnce.Do(func() { close(m.chunks) })
}

func (m *MockStream) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *MockStream) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed > 0
}

// CloseCount reports how many times Close was invoked; the session contract
// is exactly once.
func (m *MockStream) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockStream) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}
