// Package compose implements the generation pipeline: rate limiting,
// field validation, injection screening, prompt rendering, and the
// single provider call. Each stage can only reject or narrow its input;
// nothing downstream widens what an earlier stage allowed.
package compose

import (
	"context"
	"fmt"

	llmhttp "github.com/hercegdoo/aicompose/internal/adapter/llm/http"
	"github.com/hercegdoo/aicompose/internal/domain"
	"github.com/hercegdoo/aicompose/internal/injection"
	"github.com/hercegdoo/aicompose/internal/ratelimit"
)

// Provider generates email text from a rendered prompt. Implementations
// must make exactly one upstream call per invocation and never retry.
type Provider interface {
	Generate(ctx context.Context, prompt domain.RenderedPrompt, creativity string) (string, error)
}

// Limiter is the admission decision surface of the rate limiter.
type Limiter interface {
	Allow(identity ratelimit.Identity, action ratelimit.Action) ratelimit.Decision
}

// Deps carries the orchestrator's collaborators. Provider, Limiter,
// Guard, Validator, and Prompts are required; Metrics is optional.
type Deps struct {
	Provider  Provider
	Limiter   Limiter
	Guard     *injection.Guard
	Validator *Validator
	Prompts   *PromptBuilder
	Metrics   llmhttp.Metrics
}

// Result is a successful generation with any non-fatal warnings picked
// up while sanitizing context fields.
type Result struct {
	Email    string
	Warnings []string
}

// Orchestrator runs one generation attempt end to end.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Generate validates, screens, renders, and calls the provider once.
// The attempt is counted against the identity's quota before any field
// is inspected, so invalid and malicious requests burn quota too.
func (o *Orchestrator) Generate(ctx context.Context, identity ratelimit.Identity, raw RawFields) (Result, error) {
	decision := o.deps.Limiter.Allow(identity, ratelimit.ActionGeneration)
	if !decision.Allowed {
		o.reject("rate_limit")
		return Result{}, &ratelimit.LimitError{Decision: decision}
	}

	req, verr := o.deps.Validator.Validate(raw)
	if verr != nil {
		o.reject("validation")
		return Result{}, verr
	}

	screened, warnings, err := o.screen(req)
	if err != nil {
		o.reject("injection")
		return Result{}, err
	}

	prompt, err := o.deps.Prompts.Build(screened)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render prompt: %w", err)
	}

	email, err := o.deps.Provider.Generate(ctx, prompt, screened.Creativity)
	if err != nil {
		return Result{}, err
	}

	return Result{Email: email, Warnings: warnings}, nil
}

// screen applies injection policy per field class. The instruction is
// scanned strictly and any detection aborts the request. Context fields
// carried over from earlier turns are sanitized instead, with warnings
// surfaced to the caller. All free text is escaped against template
// and delimiter smuggling before it reaches the prompt.
func (o *Orchestrator) screen(req domain.ComposeRequest) (domain.ComposeRequest, []string, error) {
	var warnings []string

	if req.Instruction != "" {
		verdict := o.deps.Guard.Scan(req.Instruction, true)
		if verdict.Blocked {
			return domain.ComposeRequest{}, nil, domain.ErrInjectionBlocked
		}
		if !verdict.Valid {
			return domain.ComposeRequest{}, nil, domain.NewValidationError(verdict.Warnings)
		}
		req.Instruction = verdict.Sanitized
		warnings = append(warnings, verdict.Warnings...)
	}

	contextFields := []*string{&req.PreviousConversation, &req.FixText, &req.PreviousGeneratedEmail}
	for _, field := range contextFields {
		if *field == "" {
			continue
		}
		verdict := o.deps.Guard.Scan(*field, false)
		*field = verdict.Sanitized
		warnings = append(warnings, verdict.Warnings...)
	}

	req.SenderName = injection.EscapeForPrompt(req.SenderName)
	req.RecipientName = injection.EscapeForPrompt(req.RecipientName)
	req.Subject = injection.EscapeForPrompt(req.Subject)
	req.Instruction = injection.EscapeForPrompt(req.Instruction)
	req.PreviousConversation = injection.EscapeForPrompt(req.PreviousConversation)
	req.FixText = injection.EscapeForPrompt(req.FixText)
	req.PreviousGeneratedEmail = injection.EscapeForPrompt(req.PreviousGeneratedEmail)

	return req, warnings, nil
}

func (o *Orchestrator) reject(kind string) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordRejection(kind)
	}
}
