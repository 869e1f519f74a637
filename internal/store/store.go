package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hearsaylabs/hearsay/internal/config"
	"github.com/hearsaylabs/hearsay/internal/voice"
)

// Prefs is the per-chat configuration.
type Prefs struct {
	Voice        string
	CustomPrompt string
	Model        string
}

// SynthesisRecord is one completed (or failed) synthesis flow.
type SynthesisRecord struct {
	ChatID     int64
	Mode       string // monologue or dialogue
	Voices     string
	Model      string
	DurationMS int64
	Outcome    string // ok or the failure kind
	CreatedAt  time.Time
}

// Store keeps per-chat preferences and a synthesis history in SQLite.
type Store struct {
	db    *sql.DB
	cfg   config.StoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the store, creating the schema if needed.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log.With(slog.String("component", "store")), clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS prefs (
    chat_id INTEGER PRIMARY KEY,
    voice TEXT NOT NULL,
    custom_prompt TEXT NOT NULL DEFAULT '',
    model TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS synthesis_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chat_id INTEGER NOT NULL,
    mode TEXT NOT NULL,
    voices TEXT NOT NULL,
    model TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_chat_created ON synthesis_history(chat_id, created_at);
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

func defaultPrefs() Prefs {
	return Prefs{Voice: voice.Default, Model: "pro"}
}

// Prefs returns the chat's preferences, falling back to defaults when the
// chat has never configured anything.
func (s *Store) Prefs(ctx context.Context, chatID int64) (Prefs, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT voice, custom_prompt, model FROM prefs WHERE chat_id = ?`, chatID)
	var p Prefs
	if err := row.Scan(&p.Voice, &p.CustomPrompt, &p.Model); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultPrefs(), nil
		}
		return Prefs{}, fmt.Errorf("query prefs: %w", err)
	}
	return p, nil
}

func (s *Store) upsert(ctx context.Context, chatID int64, p Prefs) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO prefs (chat_id, voice, custom_prompt, model, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(chat_id) DO UPDATE SET
    voice = excluded.voice,
    custom_prompt = excluded.custom_prompt,
    model = excluded.model,
    updated_at = excluded.updated_at`,
		chatID, p.Voice, p.CustomPrompt, p.Model, s.clock().UTC())
	if err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	return nil
}

// SetVoice updates the chat's default voice; the name must be a catalog
// voice.
func (s *Store) SetVoice(ctx context.Context, chatID int64, name string) error {
	if !voice.IsValid(name) {
		return fmt.Errorf("unknown voice %q", name)
	}
	p, err := s.Prefs(ctx, chatID)
	if err != nil {
		return err
	}
	p.Voice = name
	return s.upsert(ctx, chatID, p)
}

// SetPrompt updates the chat's custom style prompt. Length limits are the
// caller's concern.
func (s *Store) SetPrompt(ctx context.Context, chatID int64, prompt string) error {
	p, err := s.Prefs(ctx, chatID)
	if err != nil {
		return err
	}
	p.CustomPrompt = prompt
	return s.upsert(ctx, chatID, p)
}

// SetModel updates the chat's model symbol (flash or pro).
func (s *Store) SetModel(ctx context.Context, chatID int64, model string) error {
	if model != "flash" && model != "pro" {
		return fmt.Errorf("unknown model %q", model)
	}
	p, err := s.Prefs(ctx, chatID)
	if err != nil {
		return err
	}
	p.Model = model
	return s.upsert(ctx, chatID, p)
}

// Reset restores the chat's preferences to defaults.
func (s *Store) Reset(ctx context.Context, chatID int64) error {
	return s.upsert(ctx, chatID, defaultPrefs())
}

// AppendHistory records a synthesis flow outcome.
func (s *Store) AppendHistory(ctx context.Context, rec SynthesisRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO synthesis_history (chat_id, mode, voices, model, duration_ms, outcome, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ChatID, rec.Mode, rec.Voices, rec.Model, rec.DurationMS, rec.Outcome, created)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// RecentHistory lists the chat's latest synthesis records, newest first.
func (s *Store) RecentHistory(ctx context.Context, chatID int64, limit int) ([]SynthesisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT chat_id, mode, voices, model, duration_ms, outcome, created_at
FROM synthesis_history WHERE chat_id = ?
ORDER BY created_at DESC, id DESC LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []SynthesisRecord
	for rows.Next() {
		var rec SynthesisRecord
		if err := rows.Scan(&rec.ChatID, &rec.Mode, &rec.Voices, &rec.Model,
			&rec.DurationMS, &rec.Outcome, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
