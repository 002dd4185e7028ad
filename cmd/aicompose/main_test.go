package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/hercegdoo/aicompose/internal/adapter/llm/http"
	"github.com/hercegdoo/aicompose/internal/adapter/llm/openai"
	"github.com/hercegdoo/aicompose/internal/adapter/llm/static"
	"github.com/hercegdoo/aicompose/internal/config"
	"github.com/hercegdoo/aicompose/internal/ratelimit"
)

func TestLimitPolicies(t *testing.T) {
	t.Run("overrides defaults from config", func(t *testing.T) {
		policies := limitPolicies(map[string]config.LimitConfig{
			"generation": {Requests: 3, Window: "30s", BlockFor: "10m"},
		})

		generation := policies[ratelimit.ActionGeneration]
		assert.Equal(t, 3, generation.Requests)
		assert.Equal(t, 30*time.Second, generation.Window)
		assert.Equal(t, 10*time.Minute, generation.BlockFor)

		// Untouched classes keep their defaults
		assert.Equal(t, ratelimit.DefaultPolicies()[ratelimit.ActionGeneral], policies[ratelimit.ActionGeneral])
	})

	t.Run("keeps defaults on malformed durations", func(t *testing.T) {
		policies := limitPolicies(map[string]config.LimitConfig{
			"generation": {Requests: 0, Window: "soon", BlockFor: ""},
		})

		assert.Equal(t, ratelimit.DefaultPolicies()[ratelimit.ActionGeneration], policies[ratelimit.ActionGeneration])
	})
}

func TestLogFormat(t *testing.T) {
	assert.Equal(t, llmhttp.LogFormatJSON, logFormat("json"))
	assert.Equal(t, llmhttp.LogFormatHuman, logFormat("human"))
	// "auto" under a test runner has no TTY on stdout
	assert.Equal(t, llmhttp.LogFormatJSON, logFormat("auto"))
}

func TestBuildProvider(t *testing.T) {
	obs := observabilityComponents{}

	t.Run("falls back to static without an api key", func(t *testing.T) {
		provider := buildProvider(map[string]config.ProviderConfig{
			"openai": {Enabled: true, APIKey: "${OPENAI_API_KEY}"},
		}, obs)

		_, ok := provider.(*static.Provider)
		assert.True(t, ok)
	})

	t.Run("uses openai when configured", func(t *testing.T) {
		provider := buildProvider(map[string]config.ProviderConfig{
			"openai": {Enabled: true, APIKey: "sk-test", Model: "gpt-4o-mini", MaxTokens: 1000},
		}, obs)

		_, ok := provider.(*openai.Client)
		assert.True(t, ok)
	})

	t.Run("static when openai disabled", func(t *testing.T) {
		provider := buildProvider(map[string]config.ProviderConfig{
			"openai": {Enabled: false, APIKey: "sk-test"},
			"static": {Enabled: true},
		}, obs)

		_, ok := provider.(*static.Provider)
		assert.True(t, ok)
	})
}
