// Package httpapi exposes the generation pipeline and instruction
// presets over HTTP. Every string written to a response body passes
// through the encode package, and failures map to a small set of
// generic messages so internals never leak to clients.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	llmhttp "github.com/hercegdoo/aicompose/internal/adapter/llm/http"
	"github.com/hercegdoo/aicompose/internal/domain"
	"github.com/hercegdoo/aicompose/internal/encode"
	"github.com/hercegdoo/aicompose/internal/ratelimit"
	"github.com/hercegdoo/aicompose/internal/usecase/compose"
)

// maxFieldLength bounds any single form value. Longer values are
// truncated at decode time rather than rejected.
const maxFieldLength = 10000

const (
	statusSuccess = "success"
	statusError   = "error"

	msgInjectionBlocked = "input contains potentially malicious content"
	msgRateLimited      = "too many requests, please try again later"
	msgProviderFailure  = "the email generation service is temporarily unavailable"
	msgInternalFailure  = "an unexpected error occurred"
)

// GenerateService runs one generation attempt.
type GenerateService interface {
	Generate(ctx context.Context, identity ratelimit.Identity, raw compose.RawFields) (compose.Result, error)
}

// InstructionService manages saved instruction presets.
type InstructionService interface {
	Save(ctx context.Context, title, text string) (domain.Instruction, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Instruction, error)
}

// Server is the HTTP adapter.
type Server struct {
	generate     GenerateService
	instructions InstructionService
	limiter      compose.Limiter
	metrics      llmhttp.Metrics
	debug        bool
}

// NewServer creates the adapter. instructions may be nil when the
// preset store is disabled; metrics may be nil.
func NewServer(generate GenerateService, instructions InstructionService, limiter compose.Limiter, metrics llmhttp.Metrics, debug bool) *Server {
	return &Server{
		generate:     generate,
		instructions: instructions,
		limiter:      limiter,
		metrics:      metrics,
		debug:        debug,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	if s.instructions != nil {
		mux.HandleFunc("GET /api/instructions", s.handleListInstructions)
		mux.HandleFunc("POST /api/instructions", s.handleSaveInstruction)
		mux.HandleFunc("POST /api/instructions/delete", s.handleDeleteInstruction)
	}
	if s.metrics != nil {
		mux.HandleFunc("GET /metrics", s.handleMetrics)
	}
	return mux
}

type response struct {
	Status   string   `json:"status"`
	Respond  string   `json:"respond,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Debug    string   `json:"debug,omitempty"`
}

type instructionPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type instructionListResponse struct {
	Status       string               `json:"status"`
	Instructions []instructionPayload `json:"instructions"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, response{Status: statusError, Respond: "malformed form data"})
		return
	}

	raw := compose.RawFields{
		SenderName:             s.field(r, "senderName"),
		RecipientName:          s.field(r, "recipientName"),
		Style:                  s.field(r, "style"),
		Length:                 s.field(r, "length"),
		Creativity:             s.field(r, "creativity"),
		Language:               s.field(r, "language"),
		RecipientEmail:         s.field(r, "recipientEmail"),
		SenderEmail:            s.field(r, "senderEmail"),
		Subject:                s.field(r, "subject"),
		Instruction:            s.field(r, "instruction"),
		PreviousConversation:   s.field(r, "previousConversation"),
		FixText:                s.field(r, "fixText"),
		PreviousGeneratedEmail: s.field(r, "previousGeneratedEmail"),
		SignaturePresent:       s.field(r, "signaturePresent") == "true",
		MultipleRecipients:     s.field(r, "multipleRecipients") == "true",
	}

	result, err := s.generate.Generate(r.Context(), identityFor(r), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := response{Status: statusSuccess, Respond: encode.ForTransport(result.Email)}
	for _, warning := range result.Warnings {
		resp.Warnings = append(resp.Warnings, encode.ForTransport(warning))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveInstruction(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, ratelimit.ActionSaveInstruction) {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, response{Status: statusError, Respond: "malformed form data"})
		return
	}

	saved, err := s.instructions.Save(r.Context(), s.field(r, "title"), s.field(r, "text"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response{Status: statusSuccess, Respond: saved.ID})
}

func (s *Server) handleDeleteInstruction(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, ratelimit.ActionGeneral) {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, response{Status: statusError, Respond: "malformed form data"})
		return
	}

	if err := s.instructions.Delete(r.Context(), s.field(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response{Status: statusSuccess})
}

func (s *Server) handleListInstructions(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, ratelimit.ActionGeneral) {
		return
	}

	instructions, err := s.instructions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := instructionListResponse{Status: statusSuccess, Instructions: []instructionPayload{}}
	for _, instruction := range instructions {
		// Stored values are already entity-escaped at save time.
		resp.Instructions = append(resp.Instructions, instructionPayload{
			ID:    instruction.ID,
			Title: instruction.Title,
			Text:  instruction.Text,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.metrics.GetStats())
}

// admit runs the general-purpose rate check for non-generation routes.
// Generation admission lives in the pipeline itself.
func (s *Server) admit(w http.ResponseWriter, r *http.Request, action ratelimit.Action) bool {
	decision := s.limiter.Allow(identityFor(r), action)
	if decision.Allowed {
		return true
	}
	if s.metrics != nil {
		s.metrics.RecordRejection("rate_limit")
	}
	s.writeLimit(w, decision)
	return false
}

// field reads one form value, truncated to the structural cap.
func (s *Server) field(r *http.Request, name string) string {
	value := r.FormValue(name)
	if len(value) > maxFieldLength {
		value = value[:maxFieldLength]
	}
	return value
}

// identityFor derives the rate-limit identity from the nearest proxy
// header, falling back to the socket address.
func identityFor(r *http.Request) ratelimit.Identity {
	addr := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		addr = firstForwarded(forwarded)
	} else if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		addr = realIP
	}
	return ratelimit.IdentityFrom(addr, r.Header.Get("User-Agent"))
}

func firstForwarded(header string) string {
	for i := 0; i < len(header); i++ {
		if header[i] == ',' {
			return header[:i]
		}
	}
	return header
}

// writeError maps pipeline failures to responses. Validation messages
// are the only error detail echoed back; everything else collapses to a
// fixed message, with specifics available only in debug mode.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.writeJSON(w, http.StatusBadRequest, response{Status: statusError, Respond: encode.Messages(verr.Messages)})
		return
	}

	if errors.Is(err, domain.ErrInjectionBlocked) {
		s.writeJSON(w, http.StatusBadRequest, response{Status: statusError, Respond: msgInjectionBlocked})
		return
	}

	var limitErr *ratelimit.LimitError
	if errors.As(err, &limitErr) {
		s.writeLimit(w, limitErr.Decision)
		return
	}

	var provErr *llmhttp.Error
	if errors.As(err, &provErr) {
		resp := response{Status: statusError, Respond: msgProviderFailure}
		if s.debug {
			resp.Debug = encode.ForTransport(provErr.Error())
		}
		s.writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	resp := response{Status: statusError, Respond: msgInternalFailure}
	if s.debug {
		resp.Debug = encode.ForTransport(err.Error())
	}
	s.writeJSON(w, http.StatusInternalServerError, resp)
}

func (s *Server) writeLimit(w http.ResponseWriter, decision ratelimit.Decision) {
	for name, value := range ratelimit.Headers(decision) {
		w.Header().Set(name, value)
	}
	s.writeJSON(w, http.StatusTooManyRequests, response{Status: statusError, Respond: msgRateLimited})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
