package transcribe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSubmitSuccess(t *testing.T) {
	var gotField string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("expected audio form field: %v", err)
		} else {
			gotField = "audio"
			file.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcription":"C major and D minor","chords":["C","Dm"],"chord_chart":"Chord Chart"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, newLogger())
	res, err := client.Submit(context.Background(), []byte("audio-bytes"), "audio/wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotField != "audio" {
		t.Fatal("expected the audio field to be submitted")
	}
	if res.Transcript != "C major and D minor" {
		t.Fatalf("unexpected transcript %q", res.Transcript)
	}
	if !reflect.DeepEqual(res.ChordTokens, []string{"C", "Dm"}) {
		t.Fatalf("unexpected chord tokens %v", res.ChordTokens)
	}
}

func TestSubmitEmptyChordsIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcription":"hello world","chords":[],"chord_chart":"No chords detected"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, newLogger())
	res, err := client.Submit(context.Background(), []byte("audio"), "audio/wav")
	if err != nil {
		t.Fatalf("empty chord list must not be classified as a failure: %v", err)
	}
	if len(res.ChordTokens) != 0 {
		t.Fatalf("expected no chords, got %v", res.ChordTokens)
	}
	if res.ChordChart != "No chords detected" {
		t.Fatalf("expected no-chords marker, got %q", res.ChordChart)
	}
}

func TestSubmitServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Server error"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, newLogger())
	_, err := client.Submit(context.Background(), []byte("audio"), "audio/wav")

	var classified *Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if classified.Kind != KindServer {
		t.Fatalf("expected server kind, got %v", classified.Kind)
	}
	if classified.Message != "Server error" {
		t.Fatalf("expected server-supplied message, got %q", classified.Message)
	}
	if classified.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", classified.Status)
	}
}

func TestSubmitMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, newLogger())
	_, err := client.Submit(context.Background(), []byte("audio"), "audio/wav")

	var classified *Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if classified.Kind != KindMalformed {
		t.Fatalf("expected malformed kind, got %v", classified.Kind)
	}
}

func TestSubmitNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL, time.Second, newLogger())
	_, err := client.Submit(context.Background(), []byte("audio"), "audio/wav")

	var classified *Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if classified.Kind != KindNetwork {
		t.Fatalf("expected network kind, got %v", classified.Kind)
	}
}

func TestSubmitMakesExactlyOneRequest(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, newLogger())
	if _, err := client.Submit(context.Background(), []byte("audio"), "audio/wav"); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
}
