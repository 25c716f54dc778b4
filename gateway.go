package quizlic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Fixed responses used when the generator is skipped or unavailable.
const (
	// CorrectAnswerText is returned by ExplainAnswer without calling the
	// generator when the user's answer was already correct.
	CorrectAnswerText = "Correct! That is the right answer."

	// ExplanationFallback is returned by ExplainAnswer when the generator
	// fails.
	ExplanationFallback = "Could not generate an explanation right now. Please try again later."

	// NoExplanationText fills option-explanation mappings when the generator
	// fails or returns something unusable.
	NoExplanationText = "No explanation available."
)

// ProviderError wraps a transport, auth or quota failure from the external
// text generator. Raw provider errors never cross this boundary.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("text generation provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Gateway orchestrates all calls to the external text generator: question
// generation plus the two explanation flavors. It performs no retries; a
// failed call yields a ProviderError (generation) or a fallback value
// (explanations), and the caller decides what to do next.
type Gateway struct {
	gen    TextGenerator
	logger *LLMLogger
}

// NewGateway creates a gateway over the given text generator.
func NewGateway(gen TextGenerator) *Gateway {
	return &Gateway{gen: gen}
}

// SetLogger attaches an LLM interaction logger. Pass nil to disable.
func (g *Gateway) SetLogger(logger *LLMLogger) {
	g.logger = logger
}

// GenerateQuestions generates questions about the given topics. The result
// may be empty; an empty result is not an error (see ParseQuestions).
func (g *Gateway) GenerateQuestions(ctx context.Context, topics []string, numQuestions int, difficulty Difficulty) ([]Question, error) {
	descriptor := "the topics: " + strings.Join(topics, ", ")
	return g.generate(ctx, descriptor, numQuestions, difficulty)
}

// GenerateFromContent generates questions from extracted document text.
func (g *Gateway) GenerateFromContent(ctx context.Context, content string, numQuestions int, difficulty Difficulty) ([]Question, error) {
	descriptor := "the following study material:\n" + content
	return g.generate(ctx, descriptor, numQuestions, difficulty)
}

func (g *Gateway) generate(ctx context.Context, descriptor string, numQuestions int, difficulty Difficulty) ([]Question, error) {
	prompt := BuildGenerationPrompt(descriptor, numQuestions, difficulty)
	if g.logger != nil {
		g.logger.LogLLMRequest("generate", prompt)
	}

	raw, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	if g.logger != nil {
		g.logger.LogLLMResponse("generate", raw)
	}

	questions := ParseQuestions(raw)
	VerboseLog("parsed %d of %d requested questions from generator response", len(questions), numQuestions)
	if g.logger != nil {
		g.logger.LogParseResult(len(questions), numQuestions)
	}
	return questions, nil
}

// ExplainAnswer explains why the user's answer to q is right or wrong. A
// correct answer short-circuits to a fixed affirmation without touching the
// generator; a generator failure degrades to ExplanationFallback. It never
// returns an error.
func (g *Gateway) ExplainAnswer(ctx context.Context, q Question, userAnswer string) string {
	if userAnswer == q.CorrectAnswer {
		return CorrectAnswerText
	}

	prompt := BuildAnswerExplanationPrompt(q, userAnswer)
	if g.logger != nil {
		g.logger.LogLLMRequest("explain_answer", prompt)
	}

	raw, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		VerboseLog("answer explanation failed: %v", err)
		return ExplanationFallback
	}
	if g.logger != nil {
		g.logger.LogLLMResponse("explain_answer", raw)
	}
	return strings.TrimSpace(raw)
}

// ExplainOptions returns an explanation for every option of q, keyed by
// option text. The generator is asked for JSON but is not contractually
// obligated to return any; the substring between the first '{' and the last
// '}' is parsed best-effort, and every failure path falls back to
// NoExplanationText. The returned map always has a key for every option.
func (g *Gateway) ExplainOptions(ctx context.Context, q Question) map[string]string {
	prompt := BuildOptionExplanationPrompt(q)
	if g.logger != nil {
		g.logger.LogLLMRequest("explain_options", prompt)
	}

	raw, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		VerboseLog("option explanation failed: %v", err)
		return fallbackOptionExplanations(q)
	}
	if g.logger != nil {
		g.logger.LogLLMResponse("explain_options", raw)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return fallbackOptionExplanations(q)
	}

	var explanations map[string]string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &explanations); err != nil {
		VerboseLog("option explanation JSON rejected: %v", err)
		return fallbackOptionExplanations(q)
	}

	// The model may have dropped or reworded a key; coverage must be total.
	for _, opt := range q.Options {
		if _, ok := explanations[opt]; !ok {
			explanations[opt] = NoExplanationText
		}
	}
	return explanations
}

func fallbackOptionExplanations(q Question) map[string]string {
	explanations := make(map[string]string, len(q.Options))
	for _, opt := range q.Options {
		explanations[opt] = NoExplanationText
	}
	return explanations
}
