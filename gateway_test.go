package quizlic

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// fakeGenerator is a scriptable TextGenerator test double.
type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	respond  func(prompt string) (string, error)
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(prompt)
	}
	return f.response, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func TestGenerateQuestionsSuccess(t *testing.T) {
	gen := &fakeGenerator{response: wellFormedResponse}
	gateway := NewGateway(gen)

	questions, err := gateway.GenerateQuestions(context.Background(), []string{"math", "geography"}, 5, DifficultyMedium)
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if gen.callCount() != 1 {
		t.Errorf("generator called %d times, want exactly 1", gen.callCount())
	}

	prompt := gen.prompts[0]
	for _, want := range []string{"math, geography", "5", "medium", "Answer: <a/b/c/d>"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerateFromContentSuccess(t *testing.T) {
	gen := &fakeGenerator{response: wellFormedResponse}
	gateway := NewGateway(gen)

	questions, err := gateway.GenerateFromContent(context.Background(), "extracted study text", 5, DifficultyHard)
	if err != nil {
		t.Fatalf("GenerateFromContent: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if !strings.Contains(gen.prompts[0], "extracted study text") {
		t.Error("prompt does not carry the extracted content")
	}
}

func TestGenerateQuestionsProviderFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	gateway := NewGateway(gen)

	_, err := gateway.GenerateQuestions(context.Background(), []string{"math"}, 5, DifficultyEasy)
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if !strings.Contains(providerErr.Error(), "quota exceeded") {
		t.Errorf("provider error lost the underlying message: %v", providerErr)
	}
}

func TestGenerateQuestionsEmptyResultIsNotAnError(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot produce questions in that format."}
	gateway := NewGateway(gen)

	questions, err := gateway.GenerateQuestions(context.Background(), []string{"math"}, 5, DifficultyEasy)
	if err != nil {
		t.Fatalf("unparseable response surfaced as error: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("got %d questions from unparseable response", len(questions))
	}
}

func TestExplainAnswerShortCircuitsOnCorrect(t *testing.T) {
	gen := &fakeGenerator{response: "should never be requested"}
	gateway := NewGateway(gen)

	q := Question{Text: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4"}
	got := gateway.ExplainAnswer(context.Background(), q, "4")
	if got != CorrectAnswerText {
		t.Errorf("explanation = %q, want the fixed affirmation", got)
	}
	if gen.callCount() != 0 {
		t.Errorf("generator called %d times for a correct answer, want 0", gen.callCount())
	}
}

func TestExplainAnswerWrongAnswer(t *testing.T) {
	gen := &fakeGenerator{response: "  Because 2+2 is 4, not 3.\n"}
	gateway := NewGateway(gen)

	q := Question{Text: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4"}
	got := gateway.ExplainAnswer(context.Background(), q, "3")
	if got != "Because 2+2 is 4, not 3." {
		t.Errorf("explanation = %q", got)
	}
	if gen.callCount() != 1 {
		t.Errorf("generator called %d times, want 1", gen.callCount())
	}
	if !strings.Contains(gen.prompts[0], "Their answer: 3") {
		t.Error("explanation prompt does not carry the user's answer")
	}
}

func TestExplainAnswerProviderFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection reset")}
	gateway := NewGateway(gen)

	q := Question{Text: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4"}
	if got := gateway.ExplainAnswer(context.Background(), q, "3"); got != ExplanationFallback {
		t.Errorf("explanation = %q, want fallback", got)
	}
}

func TestExplainOptions(t *testing.T) {
	q := Question{
		Text:          "2+2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: "4",
	}

	cases := []struct {
		name     string
		response string
		err      error
		check    func(t *testing.T, got map[string]string)
	}{
		{
			name:     "valid json with surrounding prose",
			response: "Sure, here you go:\n{\"3\": \"One short\", \"4\": \"Right\", \"5\": \"One over\", \"6\": \"Two over\"}\nHope that helps!",
			check: func(t *testing.T, got map[string]string) {
				if got["4"] != "Right" {
					t.Errorf("got[4] = %q, want Right", got["4"])
				}
				if got["6"] != "Two over" {
					t.Errorf("got[6] = %q, want Two over", got["6"])
				}
			},
		},
		{
			name:     "missing option key backfilled",
			response: "{\"3\": \"One short\", \"4\": \"Right\"}",
			check: func(t *testing.T, got map[string]string) {
				if got["4"] != "Right" {
					t.Errorf("got[4] = %q, parsed keys lost", got["4"])
				}
				if got["5"] != NoExplanationText || got["6"] != NoExplanationText {
					t.Errorf("missing keys not backfilled: %v", got)
				}
			},
		},
		{
			name:     "no braces at all",
			response: "I'd rather write prose.",
			check:    expectFullFallback,
		},
		{
			name:     "malformed json between braces",
			response: "{this is not json}",
			check:    expectFullFallback,
		},
		{
			name:  "provider failure",
			err:   errors.New("timeout"),
			check: expectFullFallback,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{response: tc.response, err: tc.err}
			gateway := NewGateway(gen)
			got := gateway.ExplainOptions(context.Background(), q)

			// Coverage must be total on every path.
			for _, opt := range q.Options {
				if _, ok := got[opt]; !ok {
					t.Errorf("option %q missing from mapping %v", opt, got)
				}
			}
			tc.check(t, got)
		})
	}
}

func expectFullFallback(t *testing.T, got map[string]string) {
	t.Helper()
	for opt, explanation := range got {
		if explanation != NoExplanationText {
			t.Errorf("got[%q] = %q, want fallback placeholder", opt, explanation)
		}
	}
}
