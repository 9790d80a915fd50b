// Command chords records from the default microphone, submits the audio to
// a chordsd daemon, and prints the resulting chord chart.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mileslindheimer/speech-to-chords/internal/capture"
	"github.com/mileslindheimer/speech-to-chords/internal/config"
	"github.com/mileslindheimer/speech-to-chords/internal/controller"
	"github.com/mileslindheimer/speech-to-chords/internal/session"
	"github.com/mileslindheimer/speech-to-chords/internal/transcribe"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file (empty uses built-in defaults)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	source := capture.NewDeviceSource(cfg.Capture, logger)
	client := transcribe.NewClient(
		cfg.Client.Endpoint,
		time.Duration(cfg.Client.RequestTimeout)*time.Millisecond,
		logger,
	)
	submitter := &wavSubmitter{
		client:     client,
		sampleRate: cfg.Capture.SampleRate,
		channels:   cfg.Capture.Channels,
	}

	ctrl := controller.New(
		source,
		submitter,
		os.Stdout,
		controller.SystemClipboard{},
		time.Duration(cfg.Client.CopyResetMS)*time.Millisecond,
		logger,
	)

	fmt.Println("speech-to-chords", version)
	fmt.Println("Press Enter to start/stop recording, c to copy the chart, q to quit.")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "":
			if ctrl.Session().Snapshot().State == session.StateRecording {
				ctrl.StopRecording()
			} else {
				ctrl.StartRecording(ctx)
			}
		case "c":
			ctrl.Copy()
		case "q":
			ctrl.StopRecording()
			ctrl.Session().Wait()
			return
		}
	}
}

// wavSubmitter wraps the HTTP client and converts raw PCM capture payloads
// into WAV containers before submission.
type wavSubmitter struct {
	client     *transcribe.Client
	sampleRate int
	channels   int
}

func (w *wavSubmitter) Submit(ctx context.Context, payload []byte, mimeType string) (*transcribe.Result, error) {
	if mimeType == capture.MIMETypePCM {
		encoded, err := capture.EncodeWAV(payload, w.sampleRate, w.channels)
		if err != nil {
			return nil, fmt.Errorf("encode wav: %w", err)
		}
		payload = encoded
		mimeType = "audio/wav"
	}
	return w.client.Submit(ctx, payload, mimeType)
}
