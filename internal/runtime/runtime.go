// Package runtime assembles the transcription daemon: telemetry, history
// store, optional NATS broadcast, the recognizer backend, and the HTTP
// surface, with ordered shutdown.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mileslindheimer/speech-to-chords/internal/bus"
	"github.com/mileslindheimer/speech-to-chords/internal/config"
	"github.com/mileslindheimer/speech-to-chords/internal/history"
	"github.com/mileslindheimer/speech-to-chords/internal/natsserver"
	"github.com/mileslindheimer/speech-to-chords/internal/recognizer"
	"github.com/mileslindheimer/speech-to-chords/internal/server"
)

type Runtime struct {
	cfg    config.Config
	logger *slog.Logger

	httpServer *http.Server
	telemetry  *telemetry
	store      *history.Store
	embedded   *natsserver.EmbeddedServer
	publisher  *bus.Publisher

	ready atomic.Bool
	wg    sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Start brings up all daemon components and blocks until ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tel, err := startTelemetry(ctx, r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.telemetry = tel

	store, err := history.Open(ctx, r.cfg.History, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	r.store = store

	if err := r.startBus(ctx); err != nil {
		return err
	}

	rec, err := r.newRecognizer()
	if err != nil {
		return fmt.Errorf("failed to initialize recognizer: %w", err)
	}
	r.logger.Info("recognizer ready", slog.String("mode", r.cfg.Recognizer.Mode))

	mux := http.NewServeMux()
	srv := server.New(r.cfg, r.logger, rec, r.store, r.publisher)
	srv.Register(mux)
	mux.HandleFunc("/readyz", r.handleReady)

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.shutdown()
	return nil
}

func (r *Runtime) startBus(ctx context.Context) error {
	if !r.cfg.Bus.Enabled {
		return nil
	}

	busCfg := r.cfg.Bus
	embedded, err := natsserver.Start(busCfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded NATS server: %w", err)
	}
	r.embedded = embedded
	if embedded != nil {
		busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
	}

	publisher, err := bus.Connect(ctx, busCfg, r.logger)
	if err != nil {
		r.embedded.Shutdown()
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	r.publisher = publisher
	return nil
}

func (r *Runtime) newRecognizer() (recognizer.Recognizer, error) {
	switch r.cfg.Recognizer.Mode {
	case "exec":
		return recognizer.NewExec(r.cfg.Recognizer)
	default:
		return recognizer.NewMock(), nil
	}
}

func (r *Runtime) shutdown() {
	r.logger.Info("runtime stopping")
	r.ready.Store(false)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if r.httpServer != nil {
		if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("http shutdown error", slog.String("error", err.Error()))
		}
	}
	r.wg.Wait()

	r.publisher.Close()
	r.embedded.Shutdown()

	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Error("history close error", slog.String("error", err.Error()))
		}
	}

	if err := r.telemetry.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
	}
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
