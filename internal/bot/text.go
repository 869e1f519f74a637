package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/hearsaylabs/hearsay/internal/protocol"
	"github.com/hearsaylabs/hearsay/internal/store"
)

// handleText runs the full text-to-speech flow for a plain message.
func (s *Service) handleText(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !s.isAllowed(chatID) {
		s.reply(chatID, "Sorry, you are not authorized to use this bot.")
		return
	}
	if !s.limiter.allow(chatID) {
		s.reply(chatID, fmt.Sprintf(
			"Rate limit exceeded. Please wait before sending more requests.\n(Maximum %d requests per minute)",
			s.cfg.RateLimitRequests))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if length := len([]rune(text)); length > s.cfg.MaxTextLength {
		s.reply(chatID, fmt.Sprintf(
			"Text is too long. Maximum length is %d characters.\nYour text has %d characters.",
			s.cfg.MaxTextLength, length))
		return
	}

	prefs, err := s.store.Prefs(s.ctx, chatID)
	if err != nil {
		s.logger.Warn("failed to load prefs", slogError(err))
		s.reply(chatID, "Internal error. Please try again.")
		return
	}

	processing, err := s.api.Send(tgbotapi.NewMessage(chatID, "Analyzing text..."))
	if err != nil {
		s.logger.Warn("failed to send processing message", slogError(err))
		return
	}

	result, err := s.requestSpeech(chatID, text, prefs)
	if err != nil {
		s.logger.Warn("speech request failed", slogError(err))
		s.edit(chatID, processing.MessageID, "Speech service unavailable. Please try again.")
		return
	}
	if result.ErrMessage != "" {
		s.edit(chatID, processing.MessageID, "Error: "+result.ErrMessage)
		return
	}

	s.sendAudio(chatID, processing.MessageID, result, prefs)
}

func (s *Service) requestSpeech(chatID int64, text string, prefs store.Prefs) (protocol.SpeechResult, error) {
	req := protocol.SpeechRequest{
		RequestID:    uuid.NewString(),
		ChatID:       chatID,
		Text:         text,
		Voice:        prefs.Voice,
		CustomPrompt: prefs.CustomPrompt,
		Model:        prefs.Model,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return protocol.SpeechResult{}, err
	}

	ctx, cancel := context.WithTimeout(s.ctx, time.Duration(s.busCfg.RequestTimeoutMS)*time.Millisecond)
	defer cancel()

	reply, err := s.bus.Conn().RequestWithContext(ctx, protocol.SubjectSpeechRequest, data)
	if err != nil {
		return protocol.SpeechResult{}, fmt.Errorf("speech request: %w", err)
	}

	var result protocol.SpeechResult
	if err := json.Unmarshal(reply.Data, &result); err != nil {
		return protocol.SpeechResult{}, fmt.Errorf("decode speech result: %w", err)
	}
	return result, nil
}

func (s *Service) sendAudio(chatID int64, processingID int, result protocol.SpeechResult, prefs store.Prefs) {
	encoded, err := s.trans.Transcode(s.ctx, result.PCM)
	if err != nil {
		s.logger.Warn("transcode failed", slogError(err))
		s.edit(chatID, processingID, "Error converting audio.")
		return
	}

	var caption strings.Builder
	if result.IsDialogue {
		fmt.Fprintf(&caption, "Dialogue TTS | Model: %s\n", prefs.Model)
		for _, sv := range result.Speakers {
			fmt.Fprintf(&caption, "- %s: %s\n", sv.Speaker, sv.Voice)
		}
	} else {
		fmt.Fprintf(&caption, "Voice: %s | Model: %s", prefs.Voice, prefs.Model)
	}

	filename := fmt.Sprintf("hearsay_%s.%s", time.Now().Format("20060102_150405"), s.trans.Extension())
	audioMsg := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{Name: filename, Bytes: encoded})
	audioMsg.Caption = strings.TrimRight(caption.String(), "\n")
	audioMsg.Duration = int(result.DurationMS / 1000)
	audioMsg.Title = filename

	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, processingID)); err != nil {
		s.logger.Debug("failed to delete processing message", slogError(err))
	}
	if _, err := s.api.Send(audioMsg); err != nil {
		s.logger.Warn("failed to send audio", slogError(err))
		s.reply(chatID, "Failed to deliver audio. Please try again.")
	}
}

func (s *Service) edit(chatID int64, messageID int, text string) {
	if _, err := s.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		s.logger.Warn("failed to edit message", slogError(err))
	}
}
