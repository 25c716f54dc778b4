package quizlic

import (
	"fmt"
	"strings"
	"time"
)

// Question is a single multiple choice question. CorrectAnswer holds the
// answer by value, not by index, and is always one of Options.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Difficulty controls prompt phrasing only; the parser and session machinery
// are difficulty-agnostic.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question count limits enforced before any generator call is made.
const (
	MinQuestions = 5
	MaxQuestions = 100
)

// Input types accepted by a generation request.
const (
	InputTypeTopics = "topics"
	InputTypePDF    = "pdf"
	InputTypeImage  = "image"
)

// ValidationError reports caller-supplied input outside the accepted domain.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ParseDifficulty maps user input onto the closed difficulty set.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", &ValidationError{Message: fmt.Sprintf("unknown difficulty %q, expected easy, medium or hard", s)}
}

// ValidateQuestionCount rejects counts outside [MinQuestions, MaxQuestions].
func ValidateQuestionCount(n int) error {
	if n < MinQuestions || n > MaxQuestions {
		return &ValidationError{Message: fmt.Sprintf("number of questions must be between %d and %d", MinQuestions, MaxQuestions)}
	}
	return nil
}

// ValidateTopics rejects an empty topic list.
func ValidateTopics(topics []string) error {
	if len(topics) == 0 {
		return &ValidationError{Message: "at least one topic is required"}
	}
	return nil
}

// SplitTopics turns a comma-separated topic string into a clean topic list,
// dropping blank entries.
func SplitTopics(raw string) []string {
	var topics []string
	for _, topic := range strings.Split(raw, ",") {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

// GenerationRequest describes one quiz-generation request, as recorded in the
// request history.
type GenerationRequest struct {
	InputType    string     `json:"input_type"`
	Topic        string     `json:"topic"`
	NumQuestions int        `json:"num_questions"`
	Difficulty   Difficulty `json:"difficulty"`
}

// AnswerResult is the outcome of a single answer submission.
type AnswerResult struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Score         int    `json:"score"`
	CurrentIndex  int    `json:"current_index"`
}

// QuizRequestRecord is one row of the append-only quiz request history.
type QuizRequestRecord struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	InputType    string    `json:"input_type"`
	Topic        string    `json:"topic"`
	NumQuestions int       `json:"num_questions"`
	Difficulty   string    `json:"difficulty"`
	CreatedAt    time.Time `json:"created_at"`
}
