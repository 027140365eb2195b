package generate

import (
	"context"
)

// MockLLM is a deterministic LLM implementation for testing.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	// If empty, the user message is echoed back.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	// LastSystem and LastUser store the most recent prompt pair.
	LastSystem string
	LastUser   string

	// Calls counts invocations.
	Calls int
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Generate returns the configured response or echoes the user message.
func (m *MockLLM) Generate(ctx context.Context, system, user string) (string, error) {
	m.Calls++
	m.LastSystem = system
	m.LastUser = user

	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return user, nil
}

// MockImageGenerator is a deterministic ImageGenerator for testing.
type MockImageGenerator struct {
	// Data is the fixed byte slice returned by Generate.
	Data []byte

	// Error, if set, is returned instead of image data.
	Error error

	// LastPrompt stores the most recent prompt passed to Generate.
	LastPrompt string
}

// Generate returns the configured bytes or error.
func (m *MockImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	m.LastPrompt = prompt
	if m.Error != nil {
		return nil, m.Error
	}
	if m.Data == nil {
		return []byte("mock-image"), nil
	}
	return m.Data, nil
}
