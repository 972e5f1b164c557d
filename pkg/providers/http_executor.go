package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultBaseURL is the Cerebras inference API endpoint.
const DefaultBaseURL = "https://api.cerebras.ai"

// completionsPath is the OpenAI-compatible chat completions endpoint.
const completionsPath = "/v1/chat/completions"

// HTTPExecutor executes completion calls against the Cerebras
// OpenAI-compatible chat completions API using one API key.
//
// The executor owns error classification at the transport boundary:
// HTTP status codes are mapped to this package's typed errors so the
// routing layer never inspects error text for shipped executors.
type HTTPExecutor struct {
	keyID   string
	apiKey  string
	baseURL string
	client  *http.Client
}

// HTTPExecutorConfig configures an HTTPExecutor.
type HTTPExecutorConfig struct {
	// KeyID is the credential identifier used in errors and logs.
	// Never the key material itself.
	KeyID string

	// APIKey is the bearer token for the upstream API.
	APIKey string

	// BaseURL overrides the API endpoint (default: DefaultBaseURL).
	BaseURL string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// MaxIdleConnsPerHost tunes connection pooling (default: 4).
	MaxIdleConnsPerHost int
}

// NewHTTPExecutor creates an executor for one upstream credential.
func NewHTTPExecutor(cfg HTTPExecutorConfig) *HTTPExecutor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 4
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPExecutor{
		keyID:   cfg.KeyID,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// chatMessage is one message in the OpenAI-style request body.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenAI-style chat completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// chatResponse is the subset of the response body this executor consumes.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// apiError is the error envelope returned by the upstream API.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Executor.
func (e *HTTPExecutor) Complete(ctx context.Context, model string, req *Request) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", &ProviderError{KeyID: e.keyID, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{KeyID: e.keyID, Message: "failed to build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", &ProviderError{KeyID: e.keyID, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", &ProviderError{KeyID: e.keyID, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", e.classifyStatus(resp, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &ProviderError{KeyID: e.keyID, StatusCode: resp.StatusCode,
			Message: "malformed response body", Cause: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{KeyID: e.keyID, StatusCode: resp.StatusCode,
			Message: "response contained no choices"}
	}

	return parsed.Choices[0].Message.Content, nil
}

// classifyStatus maps a non-200 response to a typed error.
func (e *HTTPExecutor) classifyStatus(resp *http.Response, body []byte) error {
	message := upstreamMessage(body)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &UpstreamRateLimitError{
			KeyID:      e.keyID,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{KeyID: e.keyID, Message: message}
	default:
		return &ProviderError{
			KeyID:      e.keyID,
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}
}

// upstreamMessage extracts the error message from the API error envelope,
// falling back to the raw body.
func upstreamMessage(body []byte) string {
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if len(body) == 0 {
		return "no response body"
	}
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	return fmt.Sprintf("unexpected response: %s", body)
}

// parseRetryAfter parses a Retry-After header value in seconds.
// HTTP-date values are not produced by this upstream and are ignored.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
