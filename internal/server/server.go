// Package server exposes the transcription HTTP surface: audio upload in,
// transcript plus extracted chords and formatted chart out.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mileslindheimer/speech-to-chords/internal/bus"
	"github.com/mileslindheimer/speech-to-chords/internal/chart"
	"github.com/mileslindheimer/speech-to-chords/internal/chord"
	"github.com/mileslindheimer/speech-to-chords/internal/config"
	"github.com/mileslindheimer/speech-to-chords/internal/history"
	"github.com/mileslindheimer/speech-to-chords/internal/protocol"
	"github.com/mileslindheimer/speech-to-chords/internal/recognizer"
)

// maxUploadBytes caps the in-memory portion of a multipart upload.
const maxUploadBytes = 32 << 20

type Server struct {
	cfg        config.Config
	log        *slog.Logger
	recognizer recognizer.Recognizer
	history    *history.Store
	publisher  *bus.Publisher
}

func New(cfg config.Config, log *slog.Logger, rec recognizer.Recognizer, hist *history.Store, pub *bus.Publisher) *Server {
	return &Server{
		cfg:        cfg,
		log:        log,
		recognizer: rec,
		history:    hist,
		publisher:  pub,
	}
}

// Register installs the transcription routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/transcribe", s.handleTranscribe)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/transcriptions", s.handleTranscriptions)
}

type transcribeResponse struct {
	Transcription string   `json:"transcription"`
	Chords        []string `json:"chords"`
	ChordChart    string   `json:"chord_chart"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read audio payload")
		return
	}
	mimeType := header.Header.Get("Content-Type")

	s.log.Debug("transcribe request",
		slog.String("filename", header.Filename),
		slog.String("mime_type", mimeType),
		slog.Int("bytes", len(audio)))

	start := time.Now()
	result, err := s.recognizer.Transcribe(r.Context(), audio, mimeType)
	if err != nil {
		s.log.Error("transcription failed", slog.String("error", err.Error()))
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("transcription failed: %v", err))
		return
	}

	symbols := chord.ExtractText(result.Text)
	chords := chord.Canonical(symbols)
	chartText := chart.Format(symbols, result.Text)

	id := uuid.NewString()
	s.record(r.Context(), id, result.Text, chords, chartText)

	s.log.Info("transcription complete",
		slog.String("id", id),
		slog.Int("chords", len(chords)),
		slog.Duration("elapsed", time.Since(start)))

	// No chords found is still a success; the marker chart says so.
	s.respondJSON(w, http.StatusOK, transcribeResponse{
		Transcription: result.Text,
		Chords:        chords,
		ChordChart:    chartText,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleTranscriptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	records, err := s.history.List(r.Context(), 100)
	if err != nil {
		s.log.Error("history query failed", slog.String("error", err.Error()))
		s.respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"transcriptions": records})
}

func (s *Server) record(ctx context.Context, id, transcript string, chords []string, chartText string) {
	if err := s.history.Append(ctx, history.Record{
		ID:         id,
		Transcript: transcript,
		Chords:     chords,
		Chart:      chartText,
	}); err != nil {
		s.log.Warn("failed to store transcription", slog.String("error", err.Error()))
	}

	if err := s.publisher.PublishTranscription(protocol.TranscriptionEvent{
		ID:         id,
		Transcript: transcript,
		Chords:     chords,
		Chart:      chartText,
	}); err != nil {
		s.log.Warn("failed to publish transcription", slog.String("error", err.Error()))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
