package dialogue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeClassifier struct {
	out   []Assignment
	err   error
	calls int
}

func (f *fakeClassifier) Assign(_ context.Context, _ string, _ []string) ([]Assignment, error) {
	f.calls++
	return f.out, f.err
}

func TestExtractSpeakers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain text", "Just a normal sentence without labels.", nil},
		{"two speakers", "Alice: Hello\nBob: Hi there!", []string{"Alice", "Bob"}},
		{"repeated speakers", "Alice: Hello\nBob: Hi\nAlice: How are you?", []string{"Alice", "Bob"}},
		{"clock time", "10:30 meeting in the big room", nil},
		{"enumerated step", "Step 1: go to the store", nil},
		{"url", "https://example.com is down", nil},
		{"common labels", "Note: be careful\nWarning: hot surface", nil},
		{"file path ignored", "/etc/hosts: no such entry", nil},
		{"mixed", "Note: transcript follows\nAlice: Hello\nBob: Hi", []string{"Alice", "Bob"}},
		{"fullwidth colon", "老师：你好\n学生：老师好", []string{"老师", "学生"}},
		// A label with only whitespace after the colon absorbs the next
		// line's leading character, so the second label never matches.
		{"whitespace-only content absorbs next line", "Alice:\t\nBob: hi", []string{"Alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractSpeakers(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("extractSpeakers(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAnalyzeMonologue(t *testing.T) {
	fc := &fakeClassifier{}
	a := NewAnalyzer(fc, newLogger())

	for _, text := range []string{
		"Plain narration without any speakers.",
		"Alice: talking to herself\nAlice: still going",
	} {
		analysis := a.Analyze(context.Background(), text)
		if analysis.IsDialogue || analysis.Err != "" || analysis.Speakers != nil {
			t.Fatalf("expected monologue for %q, got %+v", text, analysis)
		}
	}
	if fc.calls != 0 {
		t.Fatalf("classifier should not run for monologues, ran %d times", fc.calls)
	}
}

func TestAnalyzeTooManySpeakers(t *testing.T) {
	fc := &fakeClassifier{}
	a := NewAnalyzer(fc, newLogger())

	analysis := a.Analyze(context.Background(), "Alice: hi\nBob: hey\nCarol: hello")
	if analysis.Err == "" {
		t.Fatal("expected an analysis error for 3 speakers")
	}
	if len(analysis.Speakers) != 0 {
		t.Fatalf("expected no assignments, got %v", analysis.Speakers)
	}
	if fc.calls != 0 {
		t.Fatalf("classifier must not be called for >2 speakers, ran %d times", fc.calls)
	}
}

func TestAnalyzeDialogueWithClassifier(t *testing.T) {
	fc := &fakeClassifier{out: []Assignment{
		{Speaker: "Alice", Voice: "Leda"},
		{Speaker: "Bob", Voice: "Orus"},
	}}
	a := NewAnalyzer(fc, newLogger())

	analysis := a.Analyze(context.Background(), "Alice: hi\nBob: hey")
	want := []Assignment{{Speaker: "Alice", Voice: "Leda"}, {Speaker: "Bob", Voice: "Orus"}}
	if !analysis.IsDialogue || !reflect.DeepEqual(analysis.Speakers, want) {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
}

func TestAnalyzeFallbackDeterministic(t *testing.T) {
	fc := &fakeClassifier{err: errors.New("remote unavailable")}
	a := NewAnalyzer(fc, newLogger())

	first := a.Analyze(context.Background(), "Alice: hi\nBob: hey")
	second := a.Analyze(context.Background(), "Alice: hi\nBob: hey")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fallback assignment not deterministic: %+v vs %+v", first, second)
	}
	want := []Assignment{{Speaker: "Alice", Voice: "Charon"}, {Speaker: "Bob", Voice: "Zephyr"}}
	if !reflect.DeepEqual(first.Speakers, want) {
		t.Fatalf("unexpected fallback assignment: %v", first.Speakers)
	}
}

func TestRepairAssignments(t *testing.T) {
	speakers := []string{"Alice", "Bob"}

	tests := []struct {
		name string
		raw  []Assignment
		want []Assignment
	}{
		{
			"hallucinated speaker dropped",
			[]Assignment{{"Alice", "Leda"}, {"Eve", "Puck"}, {"Bob", "Orus"}},
			[]Assignment{{"Alice", "Leda"}, {"Bob", "Orus"}},
		},
		{
			"duplicate speaker keeps first",
			[]Assignment{{"Alice", "Leda"}, {"Alice", "Puck"}, {"Bob", "Orus"}},
			[]Assignment{{"Alice", "Leda"}, {"Bob", "Orus"}},
		},
		{
			"unknown voice replaced with Charon",
			[]Assignment{{"Alice", "NotAVoice"}, {"Bob", "Orus"}},
			[]Assignment{{"Alice", "Charon"}, {"Bob", "Orus"}},
		},
		{
			"second unknown voice falls back to Kore",
			[]Assignment{{"Alice", "Charon"}, {"Bob", "NotAVoice"}},
			[]Assignment{{"Alice", "Charon"}, {"Bob", "Kore"}},
		},
		{
			"duplicate voice replaced with first unused",
			[]Assignment{{"Alice", "Kore"}, {"Bob", "Kore"}},
			[]Assignment{{"Alice", "Kore"}, {"Bob", "Puck"}},
		},
		{
			"missing speaker gets first unused voice",
			[]Assignment{{"Alice", "Puck"}},
			[]Assignment{{"Alice", "Puck"}, {"Bob", "Kore"}},
		},
		{
			"empty output fully repaired",
			nil,
			[]Assignment{{"Alice", "Kore"}, {"Bob", "Puck"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairAssignments(tt.raw, speakers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("repairAssignments(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRepairAssignmentsInvariants(t *testing.T) {
	speakers := []string{"Host", "Guest"}
	raw := []Assignment{
		{Speaker: "Narrator", Voice: "Puck"},
		{Speaker: "Host", Voice: "Bogus"},
		{Speaker: "Host", Voice: "Kore"},
		{Speaker: "Guest", Voice: "Charon"},
	}

	got := repairAssignments(raw, speakers)
	if len(got) != 2 {
		t.Fatalf("expected 2 assignments, got %v", got)
	}
	seen := map[string]bool{}
	voices := map[string]bool{}
	for _, a := range got {
		if a.Speaker != "Host" && a.Speaker != "Guest" {
			t.Fatalf("invented speaker survived: %v", a)
		}
		if seen[a.Speaker] {
			t.Fatalf("speaker assigned twice: %v", got)
		}
		if voices[a.Voice] {
			t.Fatalf("voice assigned twice: %v", got)
		}
		seen[a.Speaker] = true
		voices[a.Voice] = true
	}
}
