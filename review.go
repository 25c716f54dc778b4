package quizlic

import (
	"context"
	"fmt"
	"sync"
)

// NoAnswerText stands in for the user's answer when reviewing a question they
// never reached.
const NoAnswerText = "no answer"

// ReviewResult holds per-question explanations, index-aligned with the
// session's question order.
type ReviewResult struct {
	AnswerExplanations []string            `json:"answer_explanations"`
	OptionExplanations []map[string]string `json:"option_explanations"`
}

// ReviewOrchestrator fans explanation requests out over a session's question
// set. Sub-requests run concurrently; failures degrade per question to the
// gateway's fallback values and never abort the siblings.
type ReviewOrchestrator struct {
	gateway *Gateway
}

// NewReviewOrchestrator creates an orchestrator over the given gateway.
func NewReviewOrchestrator(gateway *Gateway) *ReviewOrchestrator {
	return &ReviewOrchestrator{gateway: gateway}
}

// ReviewAll requests, for every question in the session, one explanation of
// the user's recorded answer and one explanation of every option. All
// requests are issued at once and the call returns only when the whole batch
// has finished. Result order matches question order regardless of completion
// order.
func (r *ReviewOrchestrator) ReviewAll(ctx context.Context, session *QuizSession) ReviewResult {
	n := len(session.Questions)
	result := ReviewResult{
		AnswerExplanations: make([]string, n),
		OptionExplanations: make([]map[string]string, n),
	}

	var wg sync.WaitGroup
	for i, q := range session.Questions {
		answer := NoAnswerText
		if i < len(session.UserAnswers) {
			answer = session.UserAnswers[i]
		}

		wg.Add(2)
		go func(i int, q Question, answer string) {
			defer wg.Done()
			result.AnswerExplanations[i] = r.gateway.ExplainAnswer(ctx, q, answer)
		}(i, q, answer)
		go func(i int, q Question) {
			defer wg.Done()
			result.OptionExplanations[i] = r.gateway.ExplainOptions(ctx, q)
		}(i, q)
	}
	wg.Wait()

	return result
}

// ReviewQuestion reviews a single question by index. The two explanation
// requests run concurrently. An out-of-range index is a caller error.
func (r *ReviewOrchestrator) ReviewQuestion(ctx context.Context, session *QuizSession, index int) (string, map[string]string, error) {
	if index < 0 || index >= len(session.Questions) {
		return "", nil, &InvalidStateError{
			Op:     "review question",
			Detail: fmt.Sprintf("question index %d out of range", index),
		}
	}

	answer := NoAnswerText
	if index < len(session.UserAnswers) {
		answer = session.UserAnswers[index]
	}
	q := session.Questions[index]

	var (
		wg          sync.WaitGroup
		explanation string
		options     map[string]string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		explanation = r.gateway.ExplainAnswer(ctx, q, answer)
	}()
	go func() {
		defer wg.Done()
		options = r.gateway.ExplainOptions(ctx, q)
	}()
	wg.Wait()

	return explanation, options, nil
}
