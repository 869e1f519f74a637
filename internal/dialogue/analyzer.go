package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hearsaylabs/hearsay/internal/voice"
)

// speakerPattern matches a line-leading speaker label: 1-20 characters, no
// colon, slash, period, or newline, followed by a colon (ASCII or fullwidth)
// and non-whitespace content. The character restrictions keep URLs, file
// paths, and decimal or time tokens from reading as speakers.
var speakerPattern = regexp.MustCompile(`(?m)^([^:：/.\n]{1,20})[：:]\s*\S`)

// Labels matching any of these are never speakers.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+$`),                                     // pure numbers
	regexp.MustCompile(`^\d{1,2}$`),                                 // clock-time hours
	regexp.MustCompile(`\d$`),                                       // enumerations like "Step 1"
	regexp.MustCompile(`^(?i:http|https|ftp|file)$`),                // protocol tokens
	regexp.MustCompile(`^(?i:note|warning|error|info|debug|step)$`), // common labels
}

// defaultVoices are assigned positionally when classification fails outright.
var defaultVoices = []string{"Charon", "Zephyr", "Kore", "Puck"}

// Analyzer decides whether text is a monologue or a two-speaker dialogue and
// assigns voices. Stateless after construction; safe for concurrent use.
type Analyzer struct {
	classifier Classifier
	log        *slog.Logger
}

func NewAnalyzer(classifier Classifier, log *slog.Logger) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		log:        log.With(slog.String("component", "dialogue-analyzer")),
	}
}

// Analyze never fails for classification problems; only the more-than-two
// speakers case sets Analysis.Err, since the backing synthesis API supports
// exactly two voices in multi-speaker mode.
func (a *Analyzer) Analyze(ctx context.Context, text string) Analysis {
	speakers := extractSpeakers(text)

	switch {
	case len(speakers) == 0:
		return Analysis{}
	case len(speakers) == 1:
		a.log.Info("single speaker detected, treating as monologue", slog.String("speaker", speakers[0]))
		return Analysis{}
	case len(speakers) > 2:
		return Analysis{
			IsDialogue: true,
			Err: fmt.Sprintf("detected %d speakers, but at most 2 are supported; please simplify the text and retry",
				len(speakers)),
		}
	}

	raw, err := a.classifier.Assign(ctx, text, speakers)
	if err != nil {
		a.log.Warn("voice classification failed, using default assignment", slog.String("error", err.Error()))
		return Analysis{IsDialogue: true, Speakers: fallbackAssignments(speakers)}
	}
	return Analysis{IsDialogue: true, Speakers: repairAssignments(raw, speakers)}
}

// extractSpeakers returns unique speaker labels in first-occurrence order.
func extractSpeakers(text string) []string {
	matches := speakerPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var speakers []string
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		if excluded(name) {
			continue
		}
		seen[name] = true
		speakers = append(speakers, name)
	}
	return speakers
}

func excluded(name string) bool {
	for _, p := range excludePatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// repairAssignments enforces the assignment invariants on untrusted
// classifier output: entries for speakers outside the original pair are
// dropped, duplicate speakers keep their first entry, unknown voices fall
// back to Charon (Kore when Charon is taken), a voice already used by the
// other speaker is replaced with the first unused catalog voice, and any
// speaker the classifier skipped gets the first unused catalog voice.
func repairAssignments(raw []Assignment, speakers []string) []Assignment {
	known := make(map[string]bool, len(speakers))
	for _, s := range speakers {
		known[s] = true
	}

	names := voice.Names()
	usedVoices := make(map[string]bool)
	assigned := make(map[string]bool)
	var out []Assignment

	for _, item := range raw {
		if !known[item.Speaker] || assigned[item.Speaker] {
			continue
		}
		v := item.Voice
		if !voice.IsValid(v) {
			if !usedVoices["Charon"] {
				v = "Charon"
			} else {
				v = "Kore"
			}
		}
		if usedVoices[v] {
			for _, candidate := range names {
				if !usedVoices[candidate] {
					v = candidate
					break
				}
			}
		}
		usedVoices[v] = true
		assigned[item.Speaker] = true
		out = append(out, Assignment{Speaker: item.Speaker, Voice: v})
	}

	for _, s := range speakers {
		if assigned[s] {
			continue
		}
		for _, candidate := range names {
			if !usedVoices[candidate] {
				out = append(out, Assignment{Speaker: s, Voice: candidate})
				usedVoices[candidate] = true
				assigned[s] = true
				break
			}
		}
	}
	return out
}

// fallbackAssignments is the deterministic path when the classifier cannot
// be reached at all.
func fallbackAssignments(speakers []string) []Assignment {
	out := make([]Assignment, 0, 2)
	for i, s := range speakers {
		if i >= 2 {
			break
		}
		out = append(out, Assignment{Speaker: s, Voice: defaultVoices[i%len(defaultVoices)]})
	}
	return out
}
