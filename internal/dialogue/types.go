package dialogue

import "context"

// Assignment pairs a speaker label extracted from the text with a catalog
// voice name.
type Assignment struct {
	Speaker string `json:"speaker"`
	Voice   string `json:"voice"`
}

// Analysis is the outcome of inspecting one inbound text.
//
// IsDialogue false means monologue synthesis (zero or one speaker label
// found). Err is set only when more than two speakers were detected; that is
// the one analysis failure the user has to resolve themselves.
type Analysis struct {
	IsDialogue bool
	Speakers   []Assignment
	Err        string
}

// Classifier proposes a voice per speaker for a two-speaker dialogue. Output
// is untrusted: the analyzer drops invented speakers, deduplicates, and
// repairs voice choices before use. A failing classifier is not an error
// path for callers; the analyzer degrades to deterministic defaults.
type Classifier interface {
	Assign(ctx context.Context, text string, speakers []string) ([]Assignment, error)
}
