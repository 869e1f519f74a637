package bot

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(5, time.Minute)
	rl.clock = func() time.Time { return now }

	const chatID = int64(1)
	for i := 0; i < 5; i++ {
		if !rl.allow(chatID) {
			t.Fatalf("request %d within limit was denied", i+1)
		}
	}
	if rl.allow(chatID) {
		t.Fatal("sixth request within window should be denied")
	}

	// Denied requests do not consume budget.
	now = now.Add(30 * time.Second)
	if rl.allow(chatID) {
		t.Fatal("window has not elapsed yet")
	}

	now = now.Add(31 * time.Second)
	if !rl.allow(chatID) {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestRateLimiterPerChat(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, time.Minute)
	rl.clock = func() time.Time { return now }

	if !rl.allow(1) {
		t.Fatal("first chat denied")
	}
	if rl.allow(1) {
		t.Fatal("first chat over limit allowed")
	}
	if !rl.allow(2) {
		t.Fatal("limits must be tracked per chat")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"a_b*c`d[e", "a\\_b\\*c\\`d\\[e"},
		{"закрыто]", "закрыто]"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Fatalf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
