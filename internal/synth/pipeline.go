package synth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hearsaylabs/hearsay/internal/config"
	"github.com/hearsaylabs/hearsay/internal/dialogue"
	"github.com/hearsaylabs/hearsay/internal/gemini"
)

// Pipeline issues speech synthesis requests against the remote API with
// bounded retries. Remote semantic failures (blocked content, empty
// envelopes) and transport failures are both commonly transient for this
// API, so the retry loop treats them uniformly. Stateless after
// construction; safe for concurrent use.
type Pipeline struct {
	client *gemini.Client
	cfg    config.SynthConfig
	log    *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewPipeline(client *gemini.Client, cfg config.SynthConfig, log *slog.Logger) *Pipeline {
	return &Pipeline{
		client: client,
		cfg:    cfg,
		log:    log.With(slog.String("component", "synth-pipeline")),
		sleep:  sleepContext,
	}
}

func (p *Pipeline) Monologue(ctx context.Context, text, voiceName, customPrompt, model string) (Result, error) {
	req := p.buildRequest(text, customPrompt, &gemini.SpeechConfig{
		VoiceConfig: &gemini.VoiceConfig{
			PrebuiltVoiceConfig: &gemini.PrebuiltVoiceConfig{VoiceName: voiceName},
		},
	})
	return p.synthesize(ctx, p.resolveModel(model), req)
}

func (p *Pipeline) Dialogue(ctx context.Context, text string, speakers []dialogue.Assignment, customPrompt, model string) (Result, error) {
	if len(speakers) > 2 {
		return Result{}, &Error{
			Kind:    KindTooManySpeakers,
			Message: "Dialogue synthesis supports at most 2 speakers.",
		}
	}

	configs := make([]gemini.SpeakerVoiceConfig, 0, len(speakers))
	for _, s := range speakers {
		configs = append(configs, gemini.SpeakerVoiceConfig{
			Speaker: s.Speaker,
			VoiceConfig: gemini.VoiceConfig{
				PrebuiltVoiceConfig: &gemini.PrebuiltVoiceConfig{VoiceName: s.Voice},
			},
		})
	}
	req := p.buildRequest(text, customPrompt, &gemini.SpeechConfig{
		MultiSpeakerVoiceConfig: &gemini.MultiSpeakerVoiceConfig{SpeakerVoiceConfigs: configs},
	})
	return p.synthesize(ctx, p.resolveModel(model), req)
}

func (p *Pipeline) buildRequest(text, customPrompt string, speech *gemini.SpeechConfig) gemini.GenerateRequest {
	content := text
	if customPrompt != "" {
		content = fmt.Sprintf("[Instructions: %s]\n\n%s", customPrompt, text)
	}
	temp := p.cfg.Temperature
	return gemini.GenerateRequest{
		Contents: []gemini.Content{{Parts: []gemini.Part{{Text: content}}}},
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:        &temp,
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig:       speech,
		},
	}
}

// resolveModel maps a short model symbol to its full remote identifier.
// Unknown symbols use the configured default.
func (p *Pipeline) resolveModel(symbol string) string {
	switch symbol {
	case "flash":
		return p.cfg.ModelFlash
	case "pro":
		return p.cfg.ModelPro
	}
	if p.cfg.DefaultModel == "flash" {
		return p.cfg.ModelFlash
	}
	return p.cfg.ModelPro
}

func (p *Pipeline) synthesize(ctx context.Context, modelID string, req gemini.GenerateRequest) (Result, error) {
	delay := time.Duration(p.cfg.RetryDelayMS) * time.Millisecond
	var last *Error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		body, err := p.client.GenerateContent(ctx, modelID, req)
		if err != nil {
			last = &Error{Kind: KindTransport, Message: sanitize(KindTransport, err.Error())}
			p.log.Warn("synthesis attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		} else {
			pcm, serr := parseEnvelope(body)
			if serr == nil {
				return Result{PCM: pcm}, nil
			}
			last = serr
			p.log.Warn("synthesis attempt returned no audio",
				slog.Int("attempt", attempt),
				slog.String("kind", string(serr.Kind)))
			p.log.Debug("raw synthesis response", slog.String("body", string(body)))
		}

		if attempt < p.cfg.MaxAttempts {
			if err := p.sleep(ctx, delay); err != nil {
				return Result{}, last
			}
		}
	}
	return Result{}, last
}

// parseEnvelope normalizes the loosely-typed remote envelope. Outcomes, in
// priority order: a non-STOP finish reason, inline audio, a candidate with
// no usable content, an explicit API error object, anything else.
func parseEnvelope(body []byte) ([]byte, *Error) {
	var resp gemini.GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindUnexpectedFormat, Message: sanitize(KindUnexpectedFormat, "")}
	}

	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			return nil, &Error{
				Kind:    KindContentBlocked,
				Message: fmt.Sprintf("Generation stopped: %s.", candidate.FinishReason),
			}
		}
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part.InlineData == nil || !strings.HasPrefix(part.InlineData.MimeType, "audio/") {
					continue
				}
				pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, &Error{Kind: KindUnexpectedFormat, Message: sanitize(KindUnexpectedFormat, "")}
				}
				return pcm, nil
			}
		}
		return nil, &Error{Kind: KindEmptyResponse, Message: "No audio data in response."}
	}

	if resp.Error != nil {
		return nil, &Error{Kind: KindRemoteError, Message: sanitize(KindRemoteError, resp.Error.Message)}
	}
	return nil, &Error{Kind: KindUnexpectedFormat, Message: sanitize(KindUnexpectedFormat, "")}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
