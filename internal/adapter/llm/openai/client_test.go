package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/hercegdoo/aicompose/internal/adapter/llm/http"
	"github.com/hercegdoo/aicompose/internal/adapter/llm/openai"
	"github.com/hercegdoo/aicompose/internal/domain"
)

func completionResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:    "chatcmpl-test",
		Model: "gpt-4o-mini",
		Choices: []openai.Choice{
			{Message: openai.Message{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
		Usage: openai.Usage{PromptTokens: 42, CompletionTokens: 17, TotalTokens: 59},
	}
}

func TestClient_Generate(t *testing.T) {
	t.Run("sends a single chat completion request", func(t *testing.T) {
		var captured openai.ChatCompletionRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			json.NewEncoder(w).Encode(completionResponse("Dear Ana, hello."))
		}))
		defer server.Close()

		client := openai.NewClient("test-key", "gpt-4o-mini", server.URL, 1000)
		text, err := client.Generate(context.Background(), domain.RenderedPrompt("compose something"), "low")
		require.NoError(t, err)
		assert.Equal(t, "Dear Ana, hello.", text)

		require.Len(t, captured.Messages, 2)
		assert.Equal(t, "system", captured.Messages[0].Role)
		assert.Equal(t, "You are a helpful personal assistant.", captured.Messages[0].Content)
		assert.Equal(t, "user", captured.Messages[1].Role)
		assert.Equal(t, "compose something", captured.Messages[1].Content)
		assert.Equal(t, 1, captured.N)
		assert.False(t, captured.Stream)
		assert.Equal(t, 1000, captured.MaxCompletionTokens)
	})

	t.Run("maps creativity levels to temperatures", func(t *testing.T) {
		cases := map[string]float64{
			"low":     0.2,
			"medium":  0.5,
			"high":    0.8,
			"unknown": 0.5,
		}

		for creativity, want := range cases {
			var captured openai.ChatCompletionRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
				json.NewEncoder(w).Encode(completionResponse("ok"))
			}))

			client := openai.NewClient("k", "m", server.URL, 100)
			_, err := client.Generate(context.Background(), "p", creativity)
			require.NoError(t, err)
			assert.InDelta(t, want, captured.Temperature, 0.001, "creativity %q", creativity)
			server.Close()
		}
	})

	t.Run("maps vendor error payload to typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(openai.ErrorResponse{
				Error: openai.ErrorDetail{Message: "model overloaded", Type: "server_error"},
			})
		}))
		defer server.Close()

		client := openai.NewClient("k", "m", server.URL, 100)
		_, err := client.Generate(context.Background(), "p", "low")
		require.Error(t, err)

		var provErr *llmhttp.Error
		require.True(t, errors.As(err, &provErr))
		assert.Equal(t, llmhttp.ErrTypeVendor, provErr.Type)
		assert.Equal(t, "model overloaded", provErr.Message)
	})

	t.Run("maps 401 to authentication error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := openai.NewClient("bad-key", "m", server.URL, 100)
		_, err := client.Generate(context.Background(), "p", "low")

		var provErr *llmhttp.Error
		require.True(t, errors.As(err, &provErr))
		assert.Equal(t, llmhttp.ErrTypeAuthentication, provErr.Type)
	})

	t.Run("empty content is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(openai.ChatCompletionResponse{Model: "m"})
		}))
		defer server.Close()

		client := openai.NewClient("k", "m", server.URL, 100)
		_, err := client.Generate(context.Background(), "p", "low")

		var provErr *llmhttp.Error
		require.True(t, errors.As(err, &provErr))
		assert.Equal(t, llmhttp.ErrTypeEmptyContent, provErr.Type)
	})

	t.Run("timeout surfaces as typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			json.NewEncoder(w).Encode(completionResponse("too late"))
		}))
		defer server.Close()

		client := openai.NewClient("k", "m", server.URL, 100)
		client.SetTimeout(50 * time.Millisecond)

		_, err := client.Generate(context.Background(), "p", "low")
		require.Error(t, err)

		var provErr *llmhttp.Error
		require.True(t, errors.As(err, &provErr))
		assert.Contains(t, []llmhttp.ErrorType{llmhttp.ErrTypeTimeout, llmhttp.ErrTypeTransport}, provErr.Type)
	})
}
