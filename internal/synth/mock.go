package synth

import (
	"context"
	"time"

	"github.com/hearsaylabs/hearsay/internal/audio"
	"github.com/hearsaylabs/hearsay/internal/dialogue"
)

type mockSynthesizer struct{}

// NewMockSynthesizer produces silent PCM proportional to the text length
// without touching the network. Used offline and in tests.
func NewMockSynthesizer() Synthesizer { return &mockSynthesizer{} }

func (m *mockSynthesizer) Monologue(ctx context.Context, text, _, _, _ string) (Result, error) {
	return m.render(ctx, text)
}

func (m *mockSynthesizer) Dialogue(ctx context.Context, text string, speakers []dialogue.Assignment, _, _ string) (Result, error) {
	if len(speakers) > 2 {
		return Result{}, &Error{
			Kind:    KindTooManySpeakers,
			Message: "Dialogue synthesis supports at most 2 speakers.",
		}
	}
	return m.render(ctx, text)
}

func (m *mockSynthesizer) render(ctx context.Context, text string) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, &Error{Kind: KindTransport, Message: sanitize(KindTransport, ctx.Err().Error())}
	case <-time.After(20 * time.Millisecond):
	}
	// 50 ms of silence per character, sample-aligned.
	samples := audio.SampleRate / 20 * max(len([]rune(text)), 1)
	return Result{PCM: make([]byte, samples*audio.BytesPerSample)}, nil
}
