package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hearsaylabs/hearsay/internal/audio"
	"github.com/hearsaylabs/hearsay/internal/bus"
	"github.com/hearsaylabs/hearsay/internal/config"
	"github.com/hearsaylabs/hearsay/internal/store"
)

var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show welcome message and help"},
	{Command: "voice", Description: "Choose your default voice"},
	{Command: "model", Description: "Switch TTS model (flash/pro)"},
	{Command: "prompt", Description: "Set custom TTS style"},
	{Command: "history", Description: "Show recent syntheses"},
	{Command: "reset", Description: "Reset all settings to default"},
	{Command: "help", Description: "Show help message"},
}

// Service is the Telegram front-end. It owns no synthesis logic; text flows
// are forwarded over the bus to the speech service and the reply is rendered
// back as an audio message.
type Service struct {
	cfg     config.BotConfig
	busCfg  config.BusConfig
	api     *tgbotapi.BotAPI
	bus     *bus.Client
	store   *store.Store
	trans   audio.Transcoder
	limiter *rateLimiter
	allowed map[int64]bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger
}

func NewService(parent context.Context, cfg config.BotConfig, busCfg config.BusConfig,
	busClient *bus.Client, st *store.Store, trans audio.Transcoder, log *slog.Logger) (*Service, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	allowed := make(map[int64]bool, len(cfg.AllowedChatIDs))
	for _, id := range cfg.AllowedChatIDs {
		allowed[id] = true
	}

	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:     cfg,
		busCfg:  busCfg,
		api:     api,
		bus:     busClient,
		store:   st,
		trans:   trans,
		limiter: newRateLimiter(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowMS)*time.Millisecond),
		allowed: allowed,
		ctx:     ctx,
		cancel:  cancel,
		logger:  log.With(slog.String("component", "bot")),
	}, nil
}

func (s *Service) Start() error {
	s.setupCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = s.cfg.PollTimeoutS
	updates := s.api.GetUpdatesChan(u)

	s.logger.Info("bot polling started", slog.String("username", s.api.Self.UserName))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					s.dispatch(update)
				}()
			}
		}
	}()
	return nil
}

func (s *Service) Close() {
	s.cancel()
	s.api.StopReceivingUpdates()
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.api != nil }

// setupCommands publishes the command menu. With an allowlist the default
// scope is cleared so unauthorized chats see nothing, and each allowed chat
// gets its own scoped menu.
func (s *Service) setupCommands() {
	if len(s.allowed) == 0 {
		if _, err := s.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
			s.logger.Warn("failed to set default commands", slogError(err))
		}
		return
	}

	if _, err := s.api.Request(tgbotapi.NewSetMyCommandsWithScope(tgbotapi.NewBotCommandScopeDefault())); err != nil {
		s.logger.Warn("failed to clear default commands", slogError(err))
	}
	for id := range s.allowed {
		scope := tgbotapi.NewBotCommandScopeChat(id)
		if _, err := s.api.Request(tgbotapi.NewSetMyCommandsWithScope(scope, botCommands...)); err != nil {
			s.logger.Warn("failed to set chat commands",
				slog.Int64("chat_id", id), slogError(err))
		}
	}
}

func (s *Service) isAllowed(chatID int64) bool {
	return len(s.allowed) == 0 || s.allowed[chatID]
}

func (s *Service) dispatch(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		s.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		s.handleCommand(update.Message)
	case update.Message != nil && update.Message.Text != "":
		s.handleText(update.Message)
	}
}

func (s *Service) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.api.Send(msg); err != nil {
		s.logger.Warn("failed to send message", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
