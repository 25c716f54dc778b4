package quizlic

import "fmt"

// SessionState is the lifecycle state of a QuizSession.
type SessionState int

const (
	StateEmpty SessionState = iota
	StateInProgress
	StateCompleted
)

func (s SessionState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInProgress:
		return "in progress"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// InvalidStateError signals an operation applied to a session that cannot
// accept it, such as answering a finished quiz or reviewing a question that
// does not exist. The session is never mutated when this is returned.
type InvalidStateError struct {
	Op     string
	Detail string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// QuizSession holds one user's quiz: the question set, the linear progression
// index, the score, and the answers given so far. It is a plain value that
// round-trips through SessionCodec between requests; nothing shares it
// concurrently. UserAnswers always has exactly CurrentIndex entries.
type QuizSession struct {
	Questions    []Question `json:"questions"`
	CurrentIndex int        `json:"current_index"`
	Score        int        `json:"score"`
	UserAnswers  []string   `json:"user_answers"`
}

// NewQuizSession returns a session in the empty state.
func NewQuizSession() *QuizSession {
	return &QuizSession{}
}

// State derives the lifecycle state from the session fields.
func (s *QuizSession) State() SessionState {
	switch {
	case len(s.Questions) == 0:
		return StateEmpty
	case s.CurrentIndex < len(s.Questions):
		return StateInProgress
	default:
		return StateCompleted
	}
}

// Reset returns the session to the empty state. All fields clear together.
func (s *QuizSession) Reset() {
	s.Questions = nil
	s.CurrentIndex = 0
	s.Score = 0
	s.UserAnswers = nil
}

// StartQuiz installs a freshly generated question set, replacing every field
// at once so no stale answers or score survive. An empty question set resets
// the session instead.
func (s *QuizSession) StartQuiz(questions []Question) {
	if len(questions) == 0 {
		s.Reset()
		return
	}
	s.Questions = questions
	s.CurrentIndex = 0
	s.Score = 0
	s.UserAnswers = nil
}

// CurrentQuestion returns the next unanswered question. Only legal while the
// session is in progress.
func (s *QuizSession) CurrentQuestion() (Question, error) {
	if state := s.State(); state != StateInProgress {
		return Question{}, &InvalidStateError{
			Op:     "current question",
			Detail: fmt.Sprintf("session is %s", state),
		}
	}
	return s.Questions[s.CurrentIndex], nil
}

// SubmitAnswer records an answer to the current question and advances the
// session one step. Scoring is exact string equality against the stored
// correct answer, with no trimming or case folding. Only legal while the
// session is in progress; otherwise the session is left untouched.
func (s *QuizSession) SubmitAnswer(answer string) (AnswerResult, error) {
	if state := s.State(); state != StateInProgress {
		return AnswerResult{}, &InvalidStateError{
			Op:     "submit answer",
			Detail: fmt.Sprintf("session is %s", state),
		}
	}

	question := s.Questions[s.CurrentIndex]
	isCorrect := answer == question.CorrectAnswer
	if isCorrect {
		s.Score++
	}
	s.UserAnswers = append(s.UserAnswers, answer)
	s.CurrentIndex++

	return AnswerResult{
		IsCorrect:     isCorrect,
		CorrectAnswer: question.CorrectAnswer,
		Score:         s.Score,
		CurrentIndex:  s.CurrentIndex,
	}, nil
}
