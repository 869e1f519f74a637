package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hearsaylabs/hearsay/internal/store"
	"github.com/hearsaylabs/hearsay/internal/voice"
)

const welcomeText = `Welcome to Hearsay!

Send me any text and I'll convert it to speech.

*Features:*
- *Monologue*: Send plain text for single-voice narration
- *Dialogue*: Send text with speaker names (e.g., "Alice: Hello\nBob: Hi!") for multi-voice conversation

*Commands:*
- /voice - Choose your default voice
- /model - Switch TTS model (flash/pro)
- /prompt - Set custom TTS style (pace, tone, etc.)
- /history - Show recent syntheses
- /reset - Reset all settings to default
- /help - Show this help message

*Current Settings:*
`

func (s *Service) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !s.isAllowed(chatID) {
		s.reply(chatID, "Sorry, you are not authorized to use this bot.")
		return
	}

	switch msg.Command() {
	case "start", "help":
		s.sendWelcome(chatID)
	case "voice":
		s.handleVoice(chatID, msg.CommandArguments())
	case "model":
		s.sendModelMenu(chatID)
	case "prompt":
		s.handlePrompt(chatID, msg.CommandArguments())
	case "history":
		s.sendHistory(chatID)
	case "reset":
		s.handleReset(chatID)
	}
}

// prefsOrDefault loads the chat's preferences, falling back to defaults on
// storage errors so menus still render.
func (s *Service) prefsOrDefault(chatID int64) store.Prefs {
	prefs, err := s.store.Prefs(s.ctx, chatID)
	if err != nil {
		s.logger.Warn("failed to load prefs", slogError(err))
		return store.Prefs{Voice: voice.Default, Model: "pro"}
	}
	return prefs
}

func (s *Service) sendWelcome(chatID int64) {
	prefs := s.prefsOrDefault(chatID)

	var settings strings.Builder
	fmt.Fprintf(&settings, "- Voice: %s\n", prefs.Voice)
	fmt.Fprintf(&settings, "- Model: %s\n", prefs.Model)
	if prefs.CustomPrompt != "" {
		fmt.Fprintf(&settings, "- Custom Prompt: %s\n", escapeMarkdown(prefs.CustomPrompt))
	} else {
		settings.WriteString("- Custom Prompt: (none)\n")
	}

	out := tgbotapi.NewMessage(chatID, welcomeText+settings.String())
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := s.api.Send(out); err != nil {
		s.logger.Warn("failed to send welcome", slogError(err))
	}
}

// handleVoice shows the selection menu, or suggests a voice when the user
// describes a character instead, e.g. "/voice old man".
func (s *Service) handleVoice(chatID int64, args string) {
	trait := strings.TrimSpace(args)
	if trait == "" {
		s.sendVoiceMenu(chatID)
		return
	}
	name := voice.SuggestForTrait(trait)
	s.reply(chatID, fmt.Sprintf("For %q try %s: %s.", trait, name, voice.Description(name)))
	s.previewVoice(chatID, name)
}

func (s *Service) sendVoiceMenu(chatID int64) {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, name := range voice.Featured {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(name, "voice_preview:"+name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("More voices...", "voice_more")))

	prefs := s.prefsOrDefault(chatID)
	out := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Select a voice to preview.\n\nCurrent voice: %s\n\nTap a voice to hear a sample, then confirm to set as default.",
		prefs.Voice))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := s.api.Send(out); err != nil {
		s.logger.Warn("failed to send voice menu", slogError(err))
	}
}

func (s *Service) sendAllVoices(chatID int64) {
	featured := make(map[string]bool, len(voice.Featured))
	for _, name := range voice.Featured {
		featured[name] = true
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, name := range voice.Names() {
		if featured[name] {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(name, "voice_preview:"+name))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	out := tgbotapi.NewMessage(chatID, "All voices:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := s.api.Send(out); err != nil {
		s.logger.Warn("failed to send voice list", slogError(err))
	}
}

func (s *Service) sendModelMenu(chatID int64) {
	prefs := s.prefsOrDefault(chatID)
	out := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Current model: %s\n\nflash is faster, pro sounds better.", prefs.Model))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("flash", "model_set:flash"),
			tgbotapi.NewInlineKeyboardButtonData("pro", "model_set:pro"),
		))
	if _, err := s.api.Send(out); err != nil {
		s.logger.Warn("failed to send model menu", slogError(err))
	}
}

func (s *Service) handlePrompt(chatID int64, args string) {
	prompt := strings.TrimSpace(args)
	if prompt == "" {
		prefs := s.prefsOrDefault(chatID)
		current := prefs.CustomPrompt
		if current == "" {
			current = "(none)"
		}
		s.reply(chatID, fmt.Sprintf(
			"Current prompt: %s\n\nUsage: /prompt <style instructions>, e.g. /prompt speak slowly and warmly.\nSend /prompt alone to view, /reset to clear.",
			current))
		return
	}
	if length := len([]rune(prompt)); length > s.cfg.MaxPromptLength {
		prompt = string([]rune(prompt)[:s.cfg.MaxPromptLength])
	}
	if err := s.store.SetPrompt(s.ctx, chatID, prompt); err != nil {
		s.logger.Warn("failed to set prompt", slogError(err))
		s.reply(chatID, "Failed to save prompt. Please try again.")
		return
	}
	s.reply(chatID, "Custom prompt saved.")
}

func (s *Service) sendHistory(chatID int64) {
	records, err := s.store.RecentHistory(s.ctx, chatID, 5)
	if err != nil {
		s.logger.Warn("failed to load history", slogError(err))
		s.reply(chatID, "Failed to load history.")
		return
	}
	if len(records) == 0 {
		s.reply(chatID, "No syntheses yet. Send me some text!")
		return
	}

	var b strings.Builder
	b.WriteString("Recent syntheses:\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "- %s %s (%s) %.1fs %s\n",
			rec.CreatedAt.Format("Jan 2 15:04"), rec.Mode, rec.Model,
			float64(rec.DurationMS)/1000, rec.Outcome)
	}
	s.reply(chatID, b.String())
}

func (s *Service) handleReset(chatID int64) {
	if err := s.store.Reset(s.ctx, chatID); err != nil {
		s.logger.Warn("failed to reset prefs", slogError(err))
		s.reply(chatID, "Failed to reset settings. Please try again.")
		return
	}
	s.reply(chatID, fmt.Sprintf("Settings reset. Voice: %s, model: pro, no custom prompt.", voice.Default))
}

func (s *Service) handleCallback(query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	if !s.isAllowed(chatID) {
		return
	}

	data := query.Data
	ack := ""
	switch {
	case data == "voice_more":
		s.sendAllVoices(chatID)
	case strings.HasPrefix(data, "voice_preview:"):
		s.previewVoice(chatID, strings.TrimPrefix(data, "voice_preview:"))
	case strings.HasPrefix(data, "voice_set:"):
		name := strings.TrimPrefix(data, "voice_set:")
		if err := s.store.SetVoice(s.ctx, chatID, name); err != nil {
			ack = "Unknown voice"
		} else {
			ack = "Voice set to " + name
			s.reply(chatID, fmt.Sprintf("Default voice set to %s (%s).", name, voice.Description(name)))
		}
	case strings.HasPrefix(data, "model_set:"):
		model := strings.TrimPrefix(data, "model_set:")
		if err := s.store.SetModel(s.ctx, chatID, model); err != nil {
			ack = "Unknown model"
		} else {
			ack = "Model set to " + model
			s.reply(chatID, "TTS model set to "+model+".")
		}
	}

	if _, err := s.api.Request(tgbotapi.NewCallback(query.ID, ack)); err != nil {
		s.logger.Debug("failed to answer callback", slogError(err))
	}
}

// previewVoice synthesizes a short sample with the chosen voice and offers a
// confirm button.
func (s *Service) previewVoice(chatID int64, name string) {
	if !voice.IsValid(name) {
		return
	}

	result, err := s.requestSpeech(chatID, voice.PreviewText, store.Prefs{Voice: name, Model: "flash"})
	if err != nil || result.ErrMessage != "" {
		if err != nil {
			s.logger.Warn("voice preview failed", slogError(err))
		}
		s.reply(chatID, fmt.Sprintf("Preview unavailable for %s right now. %s (%s)",
			name, "You can still set it as your default with /voice.", voice.Description(name)))
		return
	}

	encoded, err := s.trans.Transcode(s.ctx, result.PCM)
	if err != nil {
		s.logger.Warn("preview transcode failed", slogError(err))
		return
	}

	sample := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("%s_sample.%s", name, s.trans.Extension()),
		Bytes: encoded,
	})
	sample.Caption = fmt.Sprintf("%s: %s", name, voice.Description(name))
	sample.Duration = int(result.DurationMS / 1000)
	sample.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Set as default", "voice_set:"+name)))
	if _, err := s.api.Send(sample); err != nil {
		s.logger.Warn("failed to send preview", slogError(err))
	}
}
