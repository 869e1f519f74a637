package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hearsaylabs/hearsay/internal/audio"
	"github.com/hearsaylabs/hearsay/internal/bus"
	"github.com/hearsaylabs/hearsay/internal/config"
	"github.com/hearsaylabs/hearsay/internal/dialogue"
	"github.com/hearsaylabs/hearsay/internal/protocol"
	"github.com/hearsaylabs/hearsay/internal/store"
	"github.com/hearsaylabs/hearsay/internal/synth"
)

// Service consumes speech requests from the bus, runs dialogue analysis and
// then synthesis, and replies with audio or a sanitized error. One flow per
// inbound message; flows run concurrently and share no mutable state.
type Service struct {
	cfg      config.BusConfig
	bus      *bus.Client
	analyzer *dialogue.Analyzer
	synth    synth.Synthesizer
	store    *store.Store
	sub      *nats.Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *slog.Logger

	requests metric.Int64Counter
}

func NewService(parent context.Context, cfg config.BusConfig, busClient *bus.Client,
	analyzer *dialogue.Analyzer, synthesizer synth.Synthesizer, st *store.Store, log *slog.Logger) (*Service, error) {
	ctx, cancel := context.WithCancel(parent)
	s := &Service{
		cfg:      cfg,
		bus:      busClient,
		analyzer: analyzer,
		synth:    synthesizer,
		store:    st,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.With(slog.String("component", "speech-service")),
	}

	meter := otel.Meter("github.com/hearsaylabs/hearsay/runtime")
	requests, err := meter.Int64Counter("hearsay.speech.requests",
		metric.WithDescription("Speech synthesis flows by mode and outcome"))
	if err != nil {
		cancel()
		return nil, err
	}
	s.requests = requests
	return s, nil
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().QueueSubscribe(protocol.SubjectSpeechRequest, protocol.QueueSpeechWorkers, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SpeechRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode speech request", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, time.Duration(s.cfg.RequestTimeoutMS)*time.Millisecond)
		defer cancel()

		result := s.process(ctx, req)
		data, err := json.Marshal(result)
		if err != nil {
			s.logger.Warn("failed to marshal speech result", slogError(err))
			return
		}
		if err := msg.Respond(data); err != nil {
			s.logger.Warn("failed to respond to speech request", slogError(err))
		}
	}()
}

func (s *Service) process(ctx context.Context, req protocol.SpeechRequest) protocol.SpeechResult {
	result := protocol.SpeechResult{RequestID: req.RequestID, Timestamp: time.Now().UTC()}

	analysis := s.analyzer.Analyze(ctx, req.Text)
	if analysis.Err != "" {
		result.IsDialogue = true
		result.ErrKind = string(synth.KindTooManySpeakers)
		result.ErrMessage = analysis.Err
		s.record(ctx, req, result, "dialogue")
		return result
	}

	var (
		synthRes synth.Result
		err      error
		mode     string
	)
	if analysis.IsDialogue {
		mode = "dialogue"
		result.IsDialogue = true
		for _, a := range analysis.Speakers {
			result.Speakers = append(result.Speakers, protocol.SpeakerVoice{Speaker: a.Speaker, Voice: a.Voice})
		}
		synthRes, err = s.synth.Dialogue(ctx, req.Text, analysis.Speakers, req.CustomPrompt, req.Model)
	} else {
		mode = "monologue"
		result.Speakers = []protocol.SpeakerVoice{{Voice: req.Voice}}
		synthRes, err = s.synth.Monologue(ctx, req.Text, req.Voice, req.CustomPrompt, req.Model)
	}

	if err != nil {
		if serr, ok := synth.AsError(err); ok {
			result.ErrKind = string(serr.Kind)
			result.ErrMessage = serr.Message
		} else {
			result.ErrKind = string(synth.KindTransport)
			result.ErrMessage = "Speech generation failed."
		}
		s.logger.Warn("synthesis flow failed",
			slog.String("request_id", req.RequestID),
			slog.String("kind", result.ErrKind))
	} else {
		result.PCM = synthRes.PCM
		result.DurationMS = audio.Duration(synthRes.PCM).Milliseconds()
	}

	s.record(ctx, req, result, mode)
	return result
}

func (s *Service) record(ctx context.Context, req protocol.SpeechRequest, result protocol.SpeechResult, mode string) {
	outcome := "ok"
	if result.ErrKind != "" {
		outcome = result.ErrKind
	}
	s.requests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("outcome", outcome),
		))

	voices := make([]string, 0, len(result.Speakers))
	for _, sv := range result.Speakers {
		if sv.Speaker != "" {
			voices = append(voices, sv.Speaker+"="+sv.Voice)
		} else {
			voices = append(voices, sv.Voice)
		}
	}
	rec := store.SynthesisRecord{
		ChatID:     req.ChatID,
		Mode:       mode,
		Voices:     strings.Join(voices, ","),
		Model:      req.Model,
		DurationMS: result.DurationMS,
		Outcome:    outcome,
	}
	if err := s.store.AppendHistory(ctx, rec); err != nil {
		s.logger.Warn("failed to append synthesis history", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
