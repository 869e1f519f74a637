package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hearsaylabs/hearsay/internal/audio"
	"github.com/hearsaylabs/hearsay/internal/bot"
	"github.com/hearsaylabs/hearsay/internal/bus"
	"github.com/hearsaylabs/hearsay/internal/config"
	"github.com/hearsaylabs/hearsay/internal/dialogue"
	"github.com/hearsaylabs/hearsay/internal/gemini"
	"github.com/hearsaylabs/hearsay/internal/natsserver"
	"github.com/hearsaylabs/hearsay/internal/speech"
	"github.com/hearsaylabs/hearsay/internal/store"
	"github.com/hearsaylabs/hearsay/internal/synth"
)

// Runtime wires configuration, telemetry, the bus, the speech service, and
// the bot into one process, and owns ordered shutdown.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded bus: %w", err)
	}
	defer embedded.Shutdown()

	busCfg := r.cfg.Bus
	if busCfg.Embedded {
		busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
	}
	busClient, err := bus.Connect(ctx, busCfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer busClient.Close()

	st, err := store.Open(ctx, r.cfg.Store, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	speechSvc, err := r.buildSpeechService(ctx, busClient, st)
	if err != nil {
		return err
	}
	if err := speechSvc.Start(); err != nil {
		return fmt.Errorf("failed to start speech service: %w", err)
	}
	defer speechSvc.Close()

	var botSvc *bot.Service
	if r.cfg.Bot.Enabled {
		transcoder, err := audio.NewTranscoder(r.cfg.Audio)
		if err != nil {
			return fmt.Errorf("failed to build transcoder: %w", err)
		}
		botSvc, err = bot.NewService(ctx, r.cfg.Bot, busCfg, busClient, st, transcoder, r.logger)
		if err != nil {
			return fmt.Errorf("failed to build bot: %w", err)
		}
		if err := botSvc.Start(); err != nil {
			return fmt.Errorf("failed to start bot: %w", err)
		}
		defer botSvc.Close()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

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
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.ready.Store(false)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) buildSpeechService(ctx context.Context, busClient *bus.Client, st *store.Store) (*speech.Service, error) {
	var client *gemini.Client
	if r.cfg.Analyzer.Mode == "gemini" || r.cfg.Synth.Mode == "gemini" {
		client = gemini.NewClient(r.cfg.Gemini, r.logger)
	}

	var classifier dialogue.Classifier
	switch r.cfg.Analyzer.Mode {
	case "gemini":
		classifier = dialogue.NewGeminiClassifier(client, r.cfg.Analyzer)
	default:
		classifier = dialogue.NewStaticClassifier()
	}
	analyzer := dialogue.NewAnalyzer(classifier, r.logger)

	var synthesizer synth.Synthesizer
	switch r.cfg.Synth.Mode {
	case "gemini":
		synthesizer = synth.NewPipeline(client, r.cfg.Synth, r.logger)
	default:
		synthesizer = synth.NewMockSynthesizer()
	}

	svc, err := speech.NewService(ctx, r.cfg.Bus, busClient, analyzer, synthesizer, st, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build speech service: %w", err)
	}
	return svc, nil
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
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
