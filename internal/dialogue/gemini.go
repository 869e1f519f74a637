package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hearsaylabs/hearsay/internal/config"
	"github.com/hearsaylabs/hearsay/internal/gemini"
	"github.com/hearsaylabs/hearsay/internal/voice"
)

type geminiClassifier struct {
	client *gemini.Client
	model  string
	temp   float64
}

// NewGeminiClassifier asks a fast text model to match speakers to catalog
// voices from the dialogue content. Output still passes through the
// analyzer's repair step; this implementation only has to produce a
// plausible proposal.
func NewGeminiClassifier(client *gemini.Client, cfg config.AnalyzerConfig) Classifier {
	return &geminiClassifier{client: client, model: cfg.Model, temp: cfg.Temperature}
}

type assignmentEnvelope struct {
	Assignments []struct {
		Speaker string `json:"speaker"`
		Voice   string `json:"voice"`
		Reason  string `json:"reason"`
	} `json:"assignments"`
}

func (g *geminiClassifier) Assign(ctx context.Context, text string, speakers []string) ([]Assignment, error) {
	req := gemini.GenerateRequest{
		Contents: []gemini.Content{{Parts: []gemini.Part{{Text: buildPrompt(text, speakers)}}}},
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:      &g.temp,
			ResponseMIMEType: "application/json",
		},
	}

	body, err := g.client.GenerateContent(ctx, g.model, req)
	if err != nil {
		return nil, fmt.Errorf("classification call: %w", err)
	}

	var resp gemini.GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode classification response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("classification rejected: %s", resp.Error.Status)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty classification response")
	}

	var envelope assignmentEnvelope
	if err := json.Unmarshal([]byte(resp.Candidates[0].Content.Parts[0].Text), &envelope); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}

	out := make([]Assignment, 0, len(envelope.Assignments))
	for _, item := range envelope.Assignments {
		out = append(out, Assignment{Speaker: item.Speaker, Voice: item.Voice})
	}
	return out, nil
}

func buildPrompt(text string, speakers []string) string {
	var catalog strings.Builder
	for _, v := range voice.Catalog {
		fmt.Fprintf(&catalog, "- %s: %s\n", v.Name, v.Description)
	}

	return fmt.Sprintf(`Analyze the following dialogue and assign appropriate voices to each speaker.

Available voices and their characteristics:
%s
Speakers in the dialogue: %s

Dialogue:
%s

Based on the content and context of the dialogue, assign the most appropriate voice to each speaker.
Consider factors like:
- Gender implied by name or content
- Age (young/old)
- Personality (cheerful, serious, calm, etc.)
- Role (narrator, protagonist, etc.)

Respond ONLY with a JSON object in this exact format:
{"assignments": [{"speaker": "speaker_name", "voice": "voice_name", "reason": "brief reason"}]}

Make sure each speaker gets a DIFFERENT voice.`, catalog.String(), strings.Join(speakers, ", "), text)
}
