package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultOpenRouterBaseURL is the standard OpenRouter endpoint. Any
// OpenAI-compatible gateway works by overriding the base URL.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider talks to an OpenAI-compatible chat completions API.
// The system prompt is prepended to the message list as a system message.
type OpenRouterProvider struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

// NewOpenRouterProvider creates a provider for an OpenAI-compatible API.
// An empty baseURL uses OpenRouter; maxTokens <= 0 uses the default budget.
func NewOpenRouterProvider(apiKey, model, baseURL string, maxTokens int) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenRouterProvider{
		apiKey:    apiKey,
		model:     model,
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxTokens: maxTokens,
		client:    newHTTPClient(),
	}
}

// Name implements Provider.
func (p *OpenRouterProvider) Name() string { return "openrouter" }

type chatRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send implements Provider.
func (p *OpenRouterProvider) Send(ctx context.Context, system string, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, history...)

	body, err := json.Marshal(chatRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", &Error{Provider: p.Name(), Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Provider: p.Name(), Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &Error{Provider: p.Name(), Message: "send request", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: p.Name(), Message: "read response", Err: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &Error{Provider: p.Name(), StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("request failed: %s", data)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", &Error{Provider: p.Name(), StatusCode: resp.StatusCode, Message: msg}
	}

	if len(parsed.Choices) == 0 {
		return "", &Error{Provider: p.Name(), StatusCode: resp.StatusCode, Message: "response contained no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}
