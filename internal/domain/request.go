package domain

// ComposeRequest is the validated, typed representation of one email
// generation attempt. It is constructed fresh per request, lives only for
// the duration of the call, and is never persisted.
type ComposeRequest struct {
	SenderName    string
	RecipientName string // may hold multiple comma-separated recipients

	// Enumerated fields. Each value belongs to the option set declared in
	// configuration; the validator guarantees this.
	Style      string
	Length     string
	Creativity string
	Language   string

	RecipientEmail string // comma-separated list allowed
	SenderEmail    string
	Subject        string

	Instruction            string
	PreviousConversation   string
	FixText                string
	PreviousGeneratedEmail string

	SignaturePresent   bool
	MultipleRecipients bool
}

// IsFix reports whether this request refines a previously generated email
// instead of composing a new one.
func (r ComposeRequest) IsFix() bool {
	return r.FixText != ""
}

// RenderedPrompt is the exact instruction text sent to the model. It is
// built once per request and never mutated afterwards.
type RenderedPrompt string
