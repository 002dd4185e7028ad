package compose

import (
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hercegdoo/aicompose/internal/domain"
)

// RawFields carries the untrusted form values of one generation attempt.
type RawFields struct {
	SenderName             string
	RecipientName          string
	Style                  string
	Length                 string
	Creativity             string
	Language               string
	RecipientEmail         string
	SenderEmail            string
	Subject                string
	Instruction            string
	PreviousConversation   string
	FixText                string
	PreviousGeneratedEmail string
	SignaturePresent       bool
	MultipleRecipients     bool
}

// Options holds the enumerated option sets fields are validated against.
type Options struct {
	Styles       []string
	Lengths      []string
	Creativities []string
	Languages    []string
}

var letterPattern = regexp.MustCompile(`\p{L}`)

// ucfirst capitalizes leading letters without lowering the rest, matching
// how language values are normalized before comparison.
var ucfirst = cases.Title(language.Und, cases.NoLower)

// Validator turns raw fields into a typed ComposeRequest, accumulating
// every field error instead of stopping at the first. It never truncates
// or rewrites content; that is the injection guard's job.
type Validator struct {
	opts Options
}

// NewValidator creates a validator for the given option sets.
func NewValidator(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Validate checks every field independently and merges the error messages.
// A nil error means the returned request satisfies all invariants.
func (v *Validator) Validate(raw RawFields) (domain.ComposeRequest, *domain.ValidationError) {
	var errs []string

	req := domain.ComposeRequest{
		SenderName:             strings.TrimSpace(raw.SenderName),
		RecipientName:          strings.TrimSpace(raw.RecipientName),
		RecipientEmail:         strings.TrimSpace(raw.RecipientEmail),
		SenderEmail:            strings.TrimSpace(raw.SenderEmail),
		Subject:                strings.TrimSpace(raw.Subject),
		Instruction:            strings.TrimSpace(raw.Instruction),
		PreviousConversation:   strings.TrimSpace(raw.PreviousConversation),
		FixText:                strings.TrimSpace(raw.FixText),
		PreviousGeneratedEmail: strings.TrimSpace(raw.PreviousGeneratedEmail),
		SignaturePresent:       raw.SignaturePresent,
		MultipleRecipients:     raw.MultipleRecipients,
	}

	errs = append(errs, v.validateSenderName(req.SenderName)...)

	recipientName, recipientErrs := v.validateRecipientNames(req.RecipientName)
	req.RecipientName = recipientName
	errs = append(errs, recipientErrs...)

	var ok bool
	if req.Style, ok = matchOption(raw.Style, v.opts.Styles); !ok {
		errs = append(errs, "invalid style")
	}
	if req.Length, ok = matchOption(raw.Length, v.opts.Lengths); !ok {
		errs = append(errs, "invalid length")
	}
	if req.Creativity, ok = matchOption(raw.Creativity, v.opts.Creativities); !ok {
		errs = append(errs, "invalid creativity")
	}
	if req.Language, ok = matchOption(ucfirst.String(strings.TrimSpace(raw.Language)), v.opts.Languages); !ok {
		errs = append(errs, "invalid language")
	}

	errs = append(errs, v.validateRecipientEmails(req.RecipientEmail)...)
	if req.SenderEmail != "" && !isValidEmail(req.SenderEmail) {
		errs = append(errs, "invalid sender email address")
	}

	if req.Subject != "" && !hasLetters(req.Subject) {
		errs = append(errs, "subject must contain letters")
	}

	// The instruction drives generation; only a targeted fix may omit it.
	if req.Instruction == "" && req.FixText == "" {
		errs = append(errs, "instruction is required")
	}

	if len(errs) > 0 {
		return domain.ComposeRequest{}, domain.NewValidationError(errs)
	}
	return req, nil
}

func (v *Validator) validateSenderName(name string) []string {
	if name == "" {
		return []string{"sender name is mandatory"}
	}
	return nameErrors(name, "sender")
}

// validateRecipientNames splits on commas and validates each non-empty
// segment independently. An all-empty split collapses to an explicitly
// empty recipient name, which is not an error.
func (v *Validator) validateRecipientNames(name string) (string, []string) {
	segments := splitTrimmed(name)
	if len(segments) == 0 {
		return "", nil
	}

	var errs []string
	for _, segment := range segments {
		errs = append(errs, nameErrors(segment, "recipient")...)
	}
	return strings.Join(segments, ", "), errs
}

func (v *Validator) validateRecipientEmails(emails string) []string {
	var errs []string
	for _, address := range splitTrimmed(emails) {
		if !isValidEmail(address) {
			errs = append(errs, "invalid recipient email address")
		}
	}
	return errs
}

func nameErrors(name, role string) []string {
	var errs []string
	if !hasLetters(name) && len(name) > 1 {
		errs = append(errs, "invalid "+role+" name")
	}
	if len(name) < 3 {
		errs = append(errs, role+" name must be at least 3 characters")
	}
	return errs
}

// matchOption returns the canonical option value on an exact match.
func matchOption(value string, options []string) (string, bool) {
	for _, option := range options {
		if value == option {
			return option, true
		}
	}
	return "", false
}

func splitTrimmed(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func hasLetters(s string) bool {
	return letterPattern.MatchString(s)
}

func isValidEmail(address string) bool {
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}
