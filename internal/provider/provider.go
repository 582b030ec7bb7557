// Package provider abstracts the LLM backends the agent can talk to.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Message roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider sends a system prompt plus conversation history to a model and
// returns the assistant's reply text.
type Provider interface {
	Name() string
	Send(ctx context.Context, system string, history []Message) (string, error)
}

// Error wraps a backend failure with enough context to report which provider
// failed and whether the API itself rejected the request.
type Error struct {
	Provider   string
	StatusCode int // 0 when the request never reached the API
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsProviderError checks if the error is or wraps a provider Error.
func IsProviderError(err error) bool {
	if err == nil {
		return false
	}
	var pe *Error
	return errors.As(err, &pe)
}

// defaultMaxTokens matches the reply budget the agent was tuned for.
const defaultMaxTokens = 4000

// newHTTPClient returns the client used by the HTTP-backed providers.
// Model replies routinely take tens of seconds.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}
