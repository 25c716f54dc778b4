package quizlic

import (
	"regexp"
	"strings"
)

// questionMarker delimits question blocks in the generator's response. The
// generation prompt pins the output to this shape.
var questionMarker = regexp.MustCompile(`Q\d+:`)

// answerIndex maps an answer letter onto an option position.
var answerIndex = map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}

// ParseQuestions turns free-form generator output into structured questions.
// Malformed blocks are skipped silently; the result stays dense and keeps the
// input order. An empty result is a valid outcome, not an error -- a response
// with no usable questions simply yields nothing.
func ParseQuestions(raw string) []Question {
	blocks := questionMarker.Split(raw, -1)
	if len(blocks) < 2 {
		return nil
	}

	// Everything before the first marker is preamble.
	questions := make([]Question, 0, len(blocks)-1)
	for _, block := range blocks[1:] {
		if q, ok := parseBlock(block); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

// parseBlock parses one question block: question text, four labeled option
// lines, and an "Answer: <letter>" line. Any shortfall rejects the whole
// block; a question is never partially emitted.
func parseBlock(block string) (Question, bool) {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 6 {
		return Question{}, false
	}

	options := make([]string, 4)
	for i, line := range lines[1:5] {
		// The first two characters are the display label ("a.", "b)", ...).
		// Only the position is trusted, the label itself is not checked.
		if len(line) > 2 {
			options[i] = strings.TrimSpace(line[2:])
		}
	}

	answerLine := ""
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "answer") {
			answerLine = line
			break
		}
	}
	if answerLine == "" {
		return Question{}, false
	}

	letter := strings.ToLower(answerLine[len(answerLine)-1:])
	idx, ok := answerIndex[letter]
	if !ok || idx >= len(options) {
		return Question{}, false
	}

	return Question{
		Text:          lines[0],
		Options:       options,
		CorrectAnswer: options[idx],
	}, true
}
