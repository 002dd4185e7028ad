// Package static provides a canned provider for tests and keyless
// operation. It performs no I/O and always succeeds.
package static

import (
	"context"

	"github.com/hercegdoo/aicompose/internal/domain"
)

const cannedEmail = `Dear recipient,

This is a generated placeholder email produced without contacting a
language-model provider. Configure an API key to enable real generation.

Kind regards`

// Provider returns a fixed email body for every prompt.
type Provider struct {
	body string
}

// NewProvider creates a static provider. An empty body selects the
// built-in placeholder text.
func NewProvider(body string) *Provider {
	if body == "" {
		body = cannedEmail
	}
	return &Provider{body: body}
}

// Generate implements the compose.Provider interface.
func (p *Provider) Generate(ctx context.Context, prompt domain.RenderedPrompt, creativity string) (string, error) {
	return p.body, nil
}
