// Package openai is the gateway to OpenAI's chat-completions endpoint.
// TLS verification is always on and every failure, transport-level,
// vendor-reported, or an empty response, normalizes to llmhttp.Error so
// raw vendor payloads never reach the caller.
package openai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	llmhttp "github.com/hercegdoo/aicompose/internal/adapter/llm/http"
	"github.com/hercegdoo/aicompose/internal/domain"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultTimeout = 60 * time.Second

	systemMessage = "You are a helpful personal assistant."
)

// temperatureByCreativity maps the creativity enum to a sampling
// temperature.
var temperatureByCreativity = map[string]float64{
	"low":    0.2,
	"medium": 0.5,
	"high":   0.8,
}

// Client is an HTTP client for the OpenAI Chat Completion API.
type Client struct {
	apiKey    string
	model     string
	endpoint  string
	maxTokens int
	client    *http.Client
	logger    llmhttp.Logger
	metrics   llmhttp.Metrics
}

// NewClient creates a gateway for the given credentials. An empty
// endpoint selects the public completions URL.
func NewClient(apiKey, model, endpoint string, maxTokens int) *Client {
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	return &Client{
		apiKey:    apiKey,
		model:     model,
		endpoint:  endpoint,
		maxTokens: maxTokens,
		client: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				// Certificate verification is mandatory; there is no
				// configuration path that relaxes it.
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
	}
}

// SetTimeout overrides the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// SetLogger wires structured request/response logging.
func (c *Client) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// SetMetrics wires call metrics.
func (c *Client) SetMetrics(metrics llmhttp.Metrics) {
	c.metrics = metrics
}

// Generate sends the rendered prompt as a single chat completion and
// returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt domain.RenderedPrompt, creativity string) (string, error) {
	temperature, ok := temperatureByCreativity[creativity]
	if !ok {
		temperature = temperatureByCreativity["medium"]
	}

	reqBody := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: string(prompt)},
		},
		MaxCompletionTokens: c.maxTokens,
		Temperature:         temperature,
		N:                   1,
		Stream:              false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    providerName,
			Model:       c.model,
			Timestamp:   start,
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordRequest(providerName, c.model)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		callErr := c.transportError(ctx, err)
		c.observeError(ctx, callErr, time.Since(start), 0)
		return "", callErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		callErr := llmhttp.NewTransportError(providerName, "failed to read response body")
		c.observeError(ctx, callErr, time.Since(start), resp.StatusCode)
		return "", callErr
	}

	if resp.StatusCode != http.StatusOK {
		callErr := c.handleErrorResponse(resp.StatusCode, body)
		c.observeError(ctx, callErr, time.Since(start), resp.StatusCode)
		return "", callErr
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		callErr := llmhttp.NewVendorError(providerName, "failed to parse response", resp.StatusCode)
		c.observeError(ctx, callErr, time.Since(start), resp.StatusCode)
		return "", callErr
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		callErr := llmhttp.NewEmptyContentError(providerName)
		c.observeError(ctx, callErr, time.Since(start), resp.StatusCode)
		return "", callErr
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:   providerName,
			Model:      chatResp.Model,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
			TokensIn:   chatResp.Usage.PromptTokens,
			TokensOut:  chatResp.Usage.CompletionTokens,
			StatusCode: resp.StatusCode,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordDuration(providerName, c.model, time.Since(start))
		c.metrics.RecordTokens(providerName, c.model, chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// transportError distinguishes deadline expiry from other dial/TLS
// failures.
func (c *Client) transportError(ctx context.Context, err error) *llmhttp.Error {
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return llmhttp.NewTimeoutError(providerName, "request timed out")
	}
	return llmhttp.NewTransportError(providerName, err.Error())
}

// handleErrorResponse converts HTTP error responses to typed errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) *llmhttp.Error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError(providerName, message)
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError(providerName, message)
	default:
		return llmhttp.NewVendorError(providerName, message, statusCode)
	}
}

func (c *Client) observeError(ctx context.Context, callErr *llmhttp.Error, duration time.Duration, statusCode int) {
	if c.logger != nil {
		c.logger.LogError(ctx, llmhttp.ErrorLog{
			Provider:   providerName,
			Model:      c.model,
			Timestamp:  time.Now(),
			Duration:   duration,
			Error:      callErr,
			ErrorType:  callErr.Type,
			StatusCode: statusCode,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordError(providerName, c.model, callErr.Type)
	}
}
