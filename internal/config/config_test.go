package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Client.Endpoint != "http://localhost:8080/transcribe" {
		t.Fatalf("expected default endpoint, got %q", cfg.Client.Endpoint)
	}
	if cfg.Recognizer.Mode != "mock" {
		t.Fatalf("expected default recognizer mode mock, got %q", cfg.Recognizer.Mode)
	}
	if cfg.Bus.Subject != "chords.transcription" {
		t.Fatalf("expected default bus subject, got %q", cfg.Bus.Subject)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chords.yaml")
	data := []byte("http:\n  port: 9999\ncapture:\n  sample_rate: 44100\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9999 {
		t.Fatalf("expected port 9999, got %d", cfg.HTTP.Port)
	}
	if cfg.Capture.SampleRate != 44100 {
		t.Fatalf("expected sample rate 44100, got %d", cfg.Capture.SampleRate)
	}
	// untouched sections keep defaults
	if cfg.Capture.Channels != 1 {
		t.Fatalf("expected default channels, got %d", cfg.Capture.Channels)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHORDS_HTTP_PORT", "8090")
	t.Setenv("CHORDS_BUS_ENABLED", "true")
	t.Setenv("CHORDS_BUS_EMBEDDED", "false")
	t.Setenv("CHORDS_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("CHORDS_BUS_SUBJECT", "chords.test")
	t.Setenv("CHORDS_HISTORY_PATH", "./tmp.db")
	t.Setenv("CHORDS_RECOGNIZER_MODE", "exec")
	t.Setenv("CHORDS_RECOGNIZER_COMMAND", "whisper-cli --output-json")
	t.Setenv("CHORDS_CLIENT_ENDPOINT", "http://example.test/transcribe")
	t.Setenv("CHORDS_CLIENT_COPY_RESET_MS", "1500")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 8090 {
		t.Fatalf("expected port override, got %d", cfg.HTTP.Port)
	}
	if !cfg.Bus.Enabled || cfg.Bus.Embedded {
		t.Fatalf("expected bus enabled external, got %+v", cfg.Bus)
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Subject != "chords.test" {
		t.Fatalf("expected subject override, got %q", cfg.Bus.Subject)
	}
	if cfg.History.Path != "./tmp.db" {
		t.Fatalf("expected history path override")
	}
	if cfg.Recognizer.Mode != "exec" || cfg.Recognizer.Command == "" {
		t.Fatalf("expected recognizer override, got %+v", cfg.Recognizer)
	}
	if cfg.Client.Endpoint != "http://example.test/transcribe" {
		t.Fatalf("expected endpoint override, got %q", cfg.Client.Endpoint)
	}
	if cfg.Client.CopyResetMS != 1500 {
		t.Fatalf("expected copy reset override, got %d", cfg.Client.CopyResetMS)
	}
}

func TestValidateRejectsExecWithoutCommand(t *testing.T) {
	t.Setenv("CHORDS_RECOGNIZER_MODE", "exec")

	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for exec mode without command")
	}
}

func TestValidateRejectsBadRecognizerMode(t *testing.T) {
	t.Setenv("CHORDS_RECOGNIZER_MODE", "whisper")

	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown recognizer mode")
	}
}
