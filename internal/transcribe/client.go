// Package transcribe submits recorded audio to the transcription service
// and classifies failures for display.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Result is the structured outcome of one submission. Immutable once
// received.
type Result struct {
	Transcript  string
	ChordTokens []string
	ChordChart  string
}

type response struct {
	Transcription string   `json:"transcription"`
	Chords        []string `json:"chords"`
	ChordChart    string   `json:"chord_chart"`
	Error         string   `json:"error"`
}

// Client performs transcription uploads. Each Submit call makes exactly one
// request; there is no automatic retry.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(endpoint string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Submit uploads the audio payload as a multipart form with a single binary
// "audio" field and returns the parsed result or a classified *Error.
func (c *Client) Submit(ctx context.Context, payload []byte, mimeType string) (*Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="recording`+extensionFor(mimeType)+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to encode audio payload", Err: err}
	}
	if _, err := part.Write(payload); err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to encode audio payload", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to encode audio payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "invalid submission request", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: fmt.Sprintf("network error: %v", err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to read response", Err: err}
	}
	c.log.Debug("submission complete",
		slog.Int("status", resp.StatusCode),
		slog.Int("payload_bytes", len(payload)),
		slog.Duration("elapsed", time.Since(start)))

	var parsed response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &Error{
			Kind:    KindMalformed,
			Message: "unexpected response from transcription service",
			Status:  resp.StatusCode,
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(parsed.Error)
		if msg == "" {
			msg = fmt.Sprintf("transcription service returned status %d", resp.StatusCode)
		}
		return nil, &Error{Kind: KindServer, Message: msg, Status: resp.StatusCode}
	}
	if parsed.Error != "" {
		return nil, &Error{Kind: KindServer, Message: parsed.Error, Status: resp.StatusCode}
	}

	// An empty chord list is a success outcome, never a failure.
	return &Result{
		Transcript:  parsed.Transcription,
		ChordTokens: parsed.Chords,
		ChordChart:  parsed.ChordChart,
	}, nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "wav"):
		return ".wav"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	default:
		return ".bin"
	}
}
