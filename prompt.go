package quizlic

import (
	"fmt"
	"strings"
)

// Prompt construction. These are pure formatters: parameter validation is the
// caller's job and happens before anything reaches this file.
//
// BuildGenerationPrompt pins the generator to the exact output grammar that
// ParseQuestions understands (Q<n>: markers, four labeled options, an
// "Answer: <letter>" line). Changing this template means changing the parser.

// BuildGenerationPrompt builds the question-generation prompt for the given
// content descriptor, e.g. "the topics: go, networking".
func BuildGenerationPrompt(contentDescriptor string, numQuestions int, difficulty Difficulty) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d multiple choice questions (MCQs) on %s.\n", numQuestions, contentDescriptor))
	sb.WriteString(fmt.Sprintf("Difficulty level: %s.\n", difficulty))
	sb.WriteString("Each question must have 4 options labeled a., b., c., d. and mention the correct answer clearly as 'Answer: <option letter>'.\n")
	sb.WriteString("Format:\n")
	sb.WriteString("Q1: <question>\n")
	sb.WriteString("a. <option1>\n")
	sb.WriteString("b. <option2>\n")
	sb.WriteString("c. <option3>\n")
	sb.WriteString("d. <option4>\n")
	sb.WriteString("Answer: <a/b/c/d>\n")

	return sb.String()
}

// BuildAnswerExplanationPrompt asks for a free-text explanation of why the
// user's answer to a question is wrong and the correct answer is right.
func BuildAnswerExplanationPrompt(q Question, userAnswer string) string {
	var sb strings.Builder

	sb.WriteString("A quiz taker answered the following multiple choice question incorrectly.\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n", q.Text))
	for i, opt := range q.Options {
		sb.WriteString(fmt.Sprintf("%c. %s\n", 'a'+i, opt))
	}
	sb.WriteString(fmt.Sprintf("\nCorrect answer: %s\n", q.CorrectAnswer))
	sb.WriteString(fmt.Sprintf("Their answer: %s\n\n", userAnswer))
	sb.WriteString("In two or three sentences, explain why their answer is wrong and why the correct answer is right.\n")

	return sb.String()
}

// BuildOptionExplanationPrompt asks for a JSON object mapping each option of
// the question to a short explanation of why it is correct or incorrect.
func BuildOptionExplanationPrompt(q Question) string {
	var sb strings.Builder

	sb.WriteString("Explain each option of the following multiple choice question.\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n", q.Text))
	for i, opt := range q.Options {
		sb.WriteString(fmt.Sprintf("%c. %s\n", 'a'+i, opt))
	}
	sb.WriteString(fmt.Sprintf("\nCorrect answer: %s\n\n", q.CorrectAnswer))
	sb.WriteString("Respond with only a JSON object where each key is the exact option text and each value is a one-sentence explanation of why that option is correct or incorrect. No other text.\n")

	return sb.String()
}
