package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/hearsaylabs/hearsay/internal/config"
	"github.com/hearsaylabs/hearsay/internal/voice"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(context.Background(), config.StoreConfig{
		Path: filepath.Join(t.TempDir(), "hearsay.db"),
	}, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPrefsDefaults(t *testing.T) {
	s := newTestStore(t)

	p, err := s.Prefs(context.Background(), 1001)
	if err != nil {
		t.Fatalf("Prefs: %v", err)
	}
	if p.Voice != voice.Default || p.Model != "pro" || p.CustomPrompt != "" {
		t.Fatalf("unexpected default prefs: %+v", p)
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const chatID = int64(42)

	if err := s.SetVoice(ctx, chatID, "Puck"); err != nil {
		t.Fatalf("SetVoice: %v", err)
	}
	if err := s.SetPrompt(ctx, chatID, "speak slowly"); err != nil {
		t.Fatalf("SetPrompt: %v", err)
	}
	if err := s.SetModel(ctx, chatID, "flash"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	p, err := s.Prefs(ctx, chatID)
	if err != nil {
		t.Fatalf("Prefs: %v", err)
	}
	if p.Voice != "Puck" || p.CustomPrompt != "speak slowly" || p.Model != "flash" {
		t.Fatalf("prefs did not round-trip: %+v", p)
	}

	// Another chat stays on defaults.
	other, err := s.Prefs(ctx, 43)
	if err != nil {
		t.Fatalf("Prefs: %v", err)
	}
	if other.Voice != voice.Default {
		t.Fatalf("prefs leaked across chats: %+v", other)
	}
}

func TestSetVoiceRejectsUnknown(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetVoice(context.Background(), 1, "NotAVoice"); err == nil {
		t.Fatal("expected error for unknown voice")
	}
}

func TestSetModelRejectsUnknown(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetModel(context.Background(), 1, "turbo"); err == nil {
		t.Fatal("expected error for unknown model symbol")
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const chatID = int64(7)

	if err := s.SetVoice(ctx, chatID, "Zephyr"); err != nil {
		t.Fatalf("SetVoice: %v", err)
	}
	if err := s.SetPrompt(ctx, chatID, "whisper"); err != nil {
		t.Fatalf("SetPrompt: %v", err)
	}
	if err := s.Reset(ctx, chatID); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	p, err := s.Prefs(ctx, chatID)
	if err != nil {
		t.Fatalf("Prefs: %v", err)
	}
	if p.Voice != voice.Default || p.CustomPrompt != "" || p.Model != "pro" {
		t.Fatalf("reset did not restore defaults: %+v", p)
	}
}

func TestHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const chatID = int64(9)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		rec := SynthesisRecord{
			ChatID:     chatID,
			Mode:       "monologue",
			Voices:     "Kore",
			Model:      "pro",
			DurationMS: int64(1000 + i),
			Outcome:    "ok",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendHistory(ctx, rec); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	if err := s.AppendHistory(ctx, SynthesisRecord{
		ChatID: 999, Mode: "dialogue", Voices: "A=Kore,B=Puck", Model: "flash",
		Outcome: "content_blocked", CreatedAt: base,
	}); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	got, err := s.RecentHistory(ctx, chatID, 5)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 records, got %d", len(got))
	}
	// Newest first, other chats excluded.
	if got[0].DurationMS != 1006 || got[4].DurationMS != 1002 {
		t.Fatalf("unexpected ordering: first=%d last=%d", got[0].DurationMS, got[4].DurationMS)
	}
	for _, rec := range got {
		if rec.ChatID != chatID {
			t.Fatalf("record for wrong chat: %+v", rec)
		}
	}
}
