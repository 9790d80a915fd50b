// Package history persists completed transcriptions in a SQLite timeline.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mileslindheimer/speech-to-chords/internal/config"
)

// Record is one stored transcription outcome.
type Record struct {
	ID         string
	Transcript string
	Chords     []string
	Chart      string
	CreatedAt  time.Time
}

// Store wraps the SQLite-backed transcription history. A store opened with
// an empty path is a no-op: appends and queries succeed and do nothing.
type Store struct {
	db    *sql.DB
	cfg   config.HistoryConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the history store according to config.
func Open(ctx context.Context, cfg config.HistoryConfig, log *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn("history vacuum failed", slog.String("error", err.Error()))
		}
	}
	if err := s.Prune(ctx); err != nil {
		log.Warn("history prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS transcriptions (
    id TEXT PRIMARY KEY,
    transcript TEXT NOT NULL,
    chords TEXT NOT NULL,
    chart TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_created ON transcriptions(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append stores one transcription record.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if s.db == nil {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock().UTC()
	}
	chords, err := json.Marshal(rec.Chords)
	if err != nil {
		return fmt.Errorf("encode chords: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transcriptions(id, transcript, chords, chart, created_at)
		 VALUES(?, ?, ?, ?, ?)`,
		rec.ID, rec.Transcript, string(chords), rec.Chart, rec.CreatedAt)
	return err
}

// List retrieves up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, transcript, chords, chart, created_at
		 FROM transcriptions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var chords string
		var created string
		if err := rows.Scan(&rec.ID, &rec.Transcript, &chords, &rec.Chart, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(chords), &rec.Chords); err != nil {
			return nil, fmt.Errorf("decode chords: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune drops the oldest records beyond the configured maximum.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil || s.cfg.MaxRecords <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM transcriptions WHERE id IN (
		SELECT id FROM transcriptions ORDER BY created_at DESC LIMIT -1 OFFSET ?
	)`, s.cfg.MaxRecords)
	return err
}
