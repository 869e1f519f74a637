package protocol

import "time"

// SpeechRequest asks the speech service to turn chat text into audio. The
// per-chat preferences travel with the request so the service stays
// stateless.
type SpeechRequest struct {
	RequestID    string `json:"request_id"`
	ChatID       int64  `json:"chat_id"`
	Text         string `json:"text"`
	Voice        string `json:"voice"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
	Model        string `json:"model,omitempty"`
}

// SpeakerVoice reports one dialogue voice assignment back to the caller.
type SpeakerVoice struct {
	Speaker string `json:"speaker"`
	Voice   string `json:"voice"`
}

// SpeechResult is the reply to a SpeechRequest. Exactly one of PCM or
// ErrMessage is meaningful; ErrKind carries the failure taxonomy for
// metrics and history.
type SpeechResult struct {
	RequestID  string         `json:"request_id"`
	IsDialogue bool           `json:"is_dialogue"`
	Speakers   []SpeakerVoice `json:"speakers,omitempty"`
	PCM        []byte         `json:"pcm,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	ErrKind    string         `json:"err_kind,omitempty"`
	ErrMessage string         `json:"err_message,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

const (
	SubjectSpeechRequest = "speech.request"

	// QueueSpeechWorkers lets multiple runtime instances share the work.
	QueueSpeechWorkers = "speech-workers"
)
