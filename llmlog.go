package quizlic

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger records all generator interactions for one generation request in
// a dedicated log file under log/.
type LLMLogger struct {
	file      *os.File
	mu        sync.Mutex
	requestID string
}

// NewLLMLogger creates a logger for a specific generation request.
func NewLLMLogger(requestID string, req GenerationRequest) (*LLMLogger, error) {
	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join("log", fmt.Sprintf("%s.log", requestID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:      file,
		requestID: requestID,
	}

	logger.Logf("=== Quiz Generation Log ===\n")
	logger.Logf("Request ID: %s\n", requestID)
	logger.Logf("Input Type: %s\n", req.InputType)
	logger.Logf("Topic: %s\n", req.Topic)
	logger.Logf("Number of Questions: %d\n", req.NumQuestions)
	logger.Logf("Difficulty: %s\n", req.Difficulty)
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp.
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.logf(format, args...)
}

func (ll *LLMLogger) logf(format string, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(ll.file, "[%s] %s", timestamp, message)
	ll.file.Sync()
}

// LogLLMRequest logs an outgoing generator prompt.
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", module)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs a raw generator response.
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", module)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogParseResult logs how many questions survived parsing.
func (ll *LLMLogger) LogParseResult(parsed, requested int) {
	ll.Logf("Parse result: %d of %d requested questions well-formed\n", parsed, requested)
}

// Close closes the log file.
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file != nil {
		ll.logf("=== Quiz Generation Complete ===\n")
		ll.logf("Completed: %s\n", time.Now().Format(time.RFC3339))
		ll.logf("=============================\n")
		return ll.file.Close()
	}
	return nil
}
