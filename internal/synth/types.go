package synth

import (
	"context"

	"github.com/hearsaylabs/hearsay/internal/dialogue"
)

// Result holds decoded audio on success. PCM is 24 kHz, mono, 16-bit
// little-endian samples; that format is a fixed contract with the remote
// API.
type Result struct {
	PCM []byte
}

// Synthesizer is the contract for producing speech audio.
//
// Monologue renders text with one voice. Dialogue renders a two-speaker
// conversation with per-speaker voices; more than two assignments fail
// locally with KindTooManySpeakers before any network activity. The model
// argument is a short symbol ("flash", "pro"); unknown symbols fall back to
// the configured default.
type Synthesizer interface {
	Monologue(ctx context.Context, text, voiceName, customPrompt, model string) (Result, error)
	Dialogue(ctx context.Context, text string, speakers []dialogue.Assignment, customPrompt, model string) (Result, error)
}
