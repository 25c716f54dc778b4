package quizlic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestReviewAllOrderAndCoverage(t *testing.T) {
	questions := sampleQuestions()

	// Echo the question text back so result ordering is observable, and use
	// JSON answers for the option-explanation prompts.
	gen := &fakeGenerator{
		respond: func(prompt string) (string, error) {
			for i, q := range questions {
				if !strings.Contains(prompt, q.Text) {
					continue
				}
				if strings.Contains(prompt, "JSON") {
					pairs := make([]string, len(q.Options))
					for j, opt := range q.Options {
						pairs[j] = fmt.Sprintf("%q: %q", opt, fmt.Sprintf("explained option %d of question %d", j, i))
					}
					return "{" + strings.Join(pairs, ", ") + "}", nil
				}
				return fmt.Sprintf("explanation for question %d", i), nil
			}
			return "", errors.New("prompt matched no question")
		},
	}
	reviewer := NewReviewOrchestrator(NewGateway(gen))

	session := NewQuizSession()
	session.StartQuiz(questions)
	// Answer the first two wrong so the generator actually gets called; the
	// third question is never reached.
	if _, err := session.SubmitAnswer("3"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if _, err := session.SubmitAnswer("6"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	result := reviewer.ReviewAll(context.Background(), session)

	if len(result.AnswerExplanations) != len(questions) {
		t.Fatalf("got %d answer explanations, want %d", len(result.AnswerExplanations), len(questions))
	}
	if len(result.OptionExplanations) != len(questions) {
		t.Fatalf("got %d option explanation maps, want %d", len(result.OptionExplanations), len(questions))
	}

	for i := range questions {
		want := fmt.Sprintf("explanation for question %d", i)
		if result.AnswerExplanations[i] != want {
			t.Errorf("answer explanation %d = %q, want %q", i, result.AnswerExplanations[i], want)
		}
		for _, opt := range questions[i].Options {
			if _, ok := result.OptionExplanations[i][opt]; !ok {
				t.Errorf("question %d missing explanation for option %q", i, opt)
			}
		}
	}
}

func TestReviewAllUnansweredQuestionUsesNoAnswer(t *testing.T) {
	questions := sampleQuestions()
	gen := &fakeGenerator{
		respond: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Their answer: "+NoAnswerText) {
				return "you never answered this one", nil
			}
			return "regular explanation", nil
		},
	}
	reviewer := NewReviewOrchestrator(NewGateway(gen))

	session := NewQuizSession()
	session.StartQuiz(questions)
	if _, err := session.SubmitAnswer("3"); err != nil { // wrong on purpose
		t.Fatalf("SubmitAnswer: %v", err)
	}

	result := reviewer.ReviewAll(context.Background(), session)
	for i := 1; i < len(questions); i++ {
		if result.AnswerExplanations[i] != "you never answered this one" {
			t.Errorf("unreached question %d explanation = %q, want the no-answer path", i, result.AnswerExplanations[i])
		}
	}
}

func TestReviewAllIsolatesSingleQuestionFailure(t *testing.T) {
	questions := sampleQuestions()
	failing := questions[1]

	gen := &fakeGenerator{
		respond: func(prompt string) (string, error) {
			if strings.Contains(prompt, failing.Text) {
				return "", errors.New("provider blew up")
			}
			if strings.Contains(prompt, "JSON") {
				return `{}`, nil
			}
			return "fine explanation", nil
		},
	}
	reviewer := NewReviewOrchestrator(NewGateway(gen))

	session := NewQuizSession()
	session.StartQuiz(questions)
	for range questions {
		if _, err := session.SubmitAnswer("wrong"); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
	}

	result := reviewer.ReviewAll(context.Background(), session)

	if len(result.AnswerExplanations) != len(questions) {
		t.Fatalf("got %d answer explanations, want %d", len(result.AnswerExplanations), len(questions))
	}

	// The failing question degrades to the documented fallbacks.
	if result.AnswerExplanations[1] != ExplanationFallback {
		t.Errorf("failing question explanation = %q, want fallback", result.AnswerExplanations[1])
	}
	for _, opt := range failing.Options {
		if result.OptionExplanations[1][opt] != NoExplanationText {
			t.Errorf("failing question option %q = %q, want fallback placeholder", opt, result.OptionExplanations[1][opt])
		}
	}

	// The siblings are untouched.
	for _, i := range []int{0, 2} {
		if result.AnswerExplanations[i] != "fine explanation" {
			t.Errorf("sibling question %d explanation = %q, failure leaked", i, result.AnswerExplanations[i])
		}
	}
}

func TestReviewQuestion(t *testing.T) {
	questions := sampleQuestions()
	gen := &fakeGenerator{response: `{"3": "a", "4": "b", "5": "c", "6": "d"}`}
	reviewer := NewReviewOrchestrator(NewGateway(gen))

	session := NewQuizSession()
	session.StartQuiz(questions)
	if _, err := session.SubmitAnswer("3"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	explanation, options, err := reviewer.ReviewQuestion(context.Background(), session, 0)
	if err != nil {
		t.Fatalf("ReviewQuestion: %v", err)
	}
	if explanation == "" {
		t.Error("empty answer explanation")
	}
	for _, opt := range questions[0].Options {
		if _, ok := options[opt]; !ok {
			t.Errorf("option %q missing from mapping", opt)
		}
	}
}

func TestReviewQuestionOutOfRange(t *testing.T) {
	reviewer := NewReviewOrchestrator(NewGateway(&fakeGenerator{}))

	session := NewQuizSession()
	session.StartQuiz(sampleQuestions())

	for _, index := range []int{-1, len(session.Questions)} {
		_, _, err := reviewer.ReviewQuestion(context.Background(), session, index)
		var stateErr *InvalidStateError
		if !errors.As(err, &stateErr) {
			t.Errorf("index %d: error = %v, want InvalidStateError", index, err)
		}
	}
}
