package bot

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/hearsaylabs/hearsay/internal/config"
	"github.com/hearsaylabs/hearsay/internal/store"
	"github.com/hearsaylabs/hearsay/internal/voice"
)

func newPrefsTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := store.Open(context.Background(), config.StoreConfig{
		Path: filepath.Join(t.TempDir(), "hearsay.db"),
	}, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return &Service{
		store:  st,
		ctx:    context.Background(),
		logger: logger,
	}, st
}

func TestPrefsOrDefault(t *testing.T) {
	svc, st := newPrefsTestService(t)
	defer st.Close()

	if err := st.SetVoice(context.Background(), 5, "Puck"); err != nil {
		t.Fatalf("SetVoice: %v", err)
	}
	if p := svc.prefsOrDefault(5); p.Voice != "Puck" {
		t.Fatalf("stored prefs not returned: %+v", p)
	}
	if p := svc.prefsOrDefault(6); p.Voice != voice.Default || p.Model != "pro" {
		t.Fatalf("unexpected defaults for fresh chat: %+v", p)
	}
}

func TestPrefsOrDefaultOnStorageError(t *testing.T) {
	svc, st := newPrefsTestService(t)
	st.Close() // force every query to fail

	p := svc.prefsOrDefault(5)
	if p.Voice != voice.Default || p.Model != "pro" || p.CustomPrompt != "" {
		t.Fatalf("expected defaults on storage error, got %+v", p)
	}
}
