// Package controller binds the recording session to user actions and
// renders its state as text. Rendering is state-driven: the view is always
// recomputed from the latest snapshot plus the controller's own transient
// copy status, never patched imperatively.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/mileslindheimer/speech-to-chords/internal/capture"
	"github.com/mileslindheimer/speech-to-chords/internal/chord"
	"github.com/mileslindheimer/speech-to-chords/internal/session"
)

// Clipboard is the clipboard-write capability consumed by the copy action.
type Clipboard interface {
	WriteText(text string) error
}

// SystemClipboard writes through the operating system clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}

const (
	copyLabelIdle = "Copy chart"
	copyLabelDone = "Copied!"
)

// Controller drives one session and renders every change to out. Exactly
// one error banner is shown at a time; the most recent wins.
type Controller struct {
	sess      *session.Session
	out       io.Writer
	clip      Clipboard
	log       *slog.Logger
	copyReset time.Duration

	mu        sync.Mutex
	snap      session.Snapshot
	banner    string
	copied    bool
	copyTimer *time.Timer
}

func New(source capture.Source, submitter session.Submitter, out io.Writer, clip Clipboard, copyReset time.Duration, log *slog.Logger) *Controller {
	c := &Controller{
		out:       out,
		clip:      clip,
		log:       log,
		copyReset: copyReset,
	}
	c.sess = session.New(source, submitter, log, session.WithOnChange(c.handleChange))
	return c
}

// Session exposes the underlying state machine, mainly so callers can wait
// for an in-flight cycle to resolve.
func (c *Controller) Session() *session.Session {
	return c.sess
}

// StartRecording begins a new session cycle. Any displayed error is cleared
// before acquisition; an acquisition failure is shown inline and leaves the
// session idle.
func (c *Controller) StartRecording(ctx context.Context) {
	c.mu.Lock()
	c.banner = ""
	c.mu.Unlock()

	if err := c.sess.Start(ctx); err != nil {
		c.mu.Lock()
		if errors.Is(err, session.ErrBusy) {
			c.banner = err.Error()
		} else {
			c.banner = fmt.Sprintf("Error accessing microphone: %v", err)
		}
		c.mu.Unlock()
		c.render()
	}
}

func (c *Controller) StopRecording() {
	c.sess.Stop()
}

// Copy writes the current chart text to the clipboard. Failure surfaces in
// the banner and leaves the session untouched; success flips the transient
// copied indicator, which a timer resets after the configured duration.
func (c *Controller) Copy() {
	c.mu.Lock()
	snap := c.snap
	c.mu.Unlock()

	if snap.Result == nil {
		return
	}

	err := c.clip.WriteText(snap.Result.ChordChart)

	c.mu.Lock()
	if err != nil {
		c.banner = fmt.Sprintf("Failed to copy to clipboard: %v", err)
	} else {
		c.copied = true
		if c.copyTimer != nil {
			c.copyTimer.Stop()
		}
		c.copyTimer = time.AfterFunc(c.copyReset, c.resetCopied)
	}
	c.mu.Unlock()
	c.render()
}

func (c *Controller) resetCopied() {
	c.mu.Lock()
	c.copied = false
	c.mu.Unlock()
	c.render()
}

// CopyLabel returns the current label of the copy affordance.
func (c *Controller) CopyLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.copied {
		return copyLabelDone
	}
	return copyLabelIdle
}

// Banner returns the currently displayed error, if any.
func (c *Controller) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

func (c *Controller) handleChange(snap session.Snapshot) {
	c.mu.Lock()
	c.snap = snap
	// The session error is the most recent; an empty one means a new cycle
	// began and any stale banner goes away.
	c.banner = snap.Err
	if snap.State != session.StateSucceeded {
		c.copied = false
		if c.copyTimer != nil {
			c.copyTimer.Stop()
			c.copyTimer = nil
		}
	}
	c.mu.Unlock()
	c.render()
}

// render recomputes the whole view from current state and writes it out.
func (c *Controller) render() {
	c.mu.Lock()
	var b strings.Builder

	if c.banner != "" {
		fmt.Fprintf(&b, "!! %s\n", c.banner)
	}

	switch c.snap.State {
	case session.StateIdle:
		b.WriteString("Ready. Press Enter to start recording.\n")
	case session.StateRecording:
		b.WriteString("* Recording... press Enter to stop.\n")
	case session.StateStopping:
		b.WriteString("Stopping capture...\n")
	case session.StateProcessing:
		b.WriteString("Processing audio...\n")
	case session.StateFailed:
		b.WriteString("Press Enter to try again.\n")
	case session.StateSucceeded:
		c.renderResult(&b)
	}

	view := b.String()
	c.mu.Unlock()

	if _, err := io.WriteString(c.out, view); err != nil {
		c.log.Warn("render failed", slog.String("error", err.Error()))
	}
}

func (c *Controller) renderResult(b *strings.Builder) {
	res := c.snap.Result
	if res == nil {
		return
	}

	symbols := chord.Extract(res.ChordTokens)
	if len(symbols) == 0 {
		b.WriteString("No chords detected\n")
	} else {
		b.WriteString("Chords:")
		for _, s := range symbols {
			fmt.Fprintf(b, " [%s]", s)
		}
		b.WriteString("\n")
	}

	if res.ChordChart != "" {
		b.WriteString("\n")
		b.WriteString(res.ChordChart)
		if !strings.HasSuffix(res.ChordChart, "\n") {
			b.WriteString("\n")
		}
	}
	if strings.TrimSpace(res.Transcript) != "" {
		fmt.Fprintf(b, "\nTranscript: %s\n", res.Transcript)
	}

	label := copyLabelIdle
	if c.copied {
		label = copyLabelDone
	}
	fmt.Fprintf(b, "\n[c] %s  [Enter] New recording  [q] Quit\n", label)
}
