package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/mileslindheimer/speech-to-chords/internal/config"
)

// DeviceSource acquires the default system microphone through PortAudio.
type DeviceSource struct {
	cfg config.CaptureConfig
	log *slog.Logger
}

func NewDeviceSource(cfg config.CaptureConfig, log *slog.Logger) *DeviceSource {
	return &DeviceSource{cfg: cfg, log: log}
}

// Acquire opens the default input stream and starts delivering PCM chunks.
// On any failure the device is fully released before returning, so a failed
// acquisition never leaves a dangling capture resource.
func (s *DeviceSource) Acquire(ctx context.Context) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}

	frames := make([]int16, s.cfg.FramesPerChunk*s.cfg.Channels)
	paStream, err := portaudio.OpenDefaultStream(s.cfg.Channels, 0, float64(s.cfg.SampleRate), s.cfg.FramesPerChunk, frames)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open input stream failed: %w", err)
	}
	if err := paStream.Start(); err != nil {
		_ = paStream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start input stream failed: %w", err)
	}

	ds := &deviceStream{
		pa:     paStream,
		frames: frames,
		chunks: make(chan []byte, 16),
		stop:   make(chan struct{}),
		log:    s.log,
	}
	go ds.readLoop(ctx)

	s.log.Debug("microphone acquired",
		slog.Int("sample_rate", s.cfg.SampleRate),
		slog.Int("channels", s.cfg.Channels))
	return ds, nil
}

type deviceStream struct {
	pa        *portaudio.Stream
	frames    []int16
	chunks    chan []byte
	stop      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	log       *slog.Logger
}

func (d *deviceStream) Chunks() <-chan []byte { return d.chunks }

func (d *deviceStream) MIMEType() string { return MIMETypePCM }

// Stop halts capture. The chunk channel closes once the read loop drains,
// which is the stop-completion signal. Idempotent.
func (d *deviceStream) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// Close releases the device. The caller guarantees exactly-once.
func (d *deviceStream) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.Stop()
		if stopErr := d.pa.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := d.pa.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if termErr := portaudio.Terminate(); termErr != nil && err == nil {
			err = termErr
		}
	})
	return err
}

func (d *deviceStream) readLoop(ctx context.Context) {
	defer close(d.chunks)
	for {
		select {
		case <-d.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := d.pa.Read(); err != nil {
			d.log.Warn("capture read failed", slog.String("error", err.Error()))
			return
		}
		chunk := make([]byte, len(d.frames)*2)
		for i, v := range d.frames {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(v))
		}

		select {
		case d.chunks <- chunk:
		case <-d.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
