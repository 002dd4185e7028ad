package compose

import (
	"strings"
	"text/template"

	"github.com/hercegdoo/aicompose/internal/domain"
)

// composeTemplate renders a full composition request. Field values are
// interpolated verbatim; the orchestrator escapes template-breaking
// sequences out of free-text fields before building.
const composeTemplate = `Create a {{.Style}} email with the following specifications:` +
	`{{if .Subject}} Subject: {{.Subject}}{{else}} Without a subject{{end}}` +
	`{{if .RecipientName}} *Recipient: {{.RecipientName}}{{end}}` +
	` *Sender: {{.SenderName}}` +
	` *Language: {{.Language}}` +
	` *Length: {{.Length}}.` +
	`{{if .MultipleRecipients}} Address the recipients in plural form.{{end}}` +
	` Compose a well-structured email based on this instruction: {{.Instruction}}.` +
	` The instruction should be rewritten in the tone and format of a {{.Style}} email to a reader.` +
	` If the instruction contains pronouns (like 'he', 'she', 'they'), assume they refer to the recipient unless specified otherwise.` +
	` The number of words should be around {{.Words}}.` +
	` Do not write the subject, if provided it is only there for your context.` +
	` Only greet the recipient, never the sender.` +
	` The format should be as follows:
Greeting

Content

Closing Greeting
{{if .PreviousConversation}} Previous conversation for context: {{.PreviousConversation}}.{{end}}` +
	`{{if .SignaturePresent}} CRUCIAL: a signature is already present below the email body, never append your own signature or sender name after the closing greeting.{{end}}`

// fixTemplate rewrites one snippet of an earlier generation while
// leaving the rest of the email untouched.
const fixTemplate = `Write an identical email as this: {{.PreviousGeneratedEmail}}, in the same language,` +
	` but change only this text snippet from that same email: {{.FixText}}` +
	`{{if .Instruction}} based on this instruction: {{.Instruction}}{{end}}.` +
	` Keep the rest of the email exactly as it is.` +
	`{{if .PreviousConversation}} Previous conversation for context: {{.PreviousConversation}}.{{end}}`

// defaultLengthWords is used when the configuration carries no mapping
// for a length option.
var defaultLengthWords = map[string]int{
	"short":  50,
	"medium": 150,
	"long":   300,
}

type promptData struct {
	domain.ComposeRequest
	Words int
}

// PromptBuilder deterministically renders a validated request into the
// single prompt sent to the provider. Equal requests always produce
// byte-identical prompts.
type PromptBuilder struct {
	compose     *template.Template
	fix         *template.Template
	lengthWords map[string]int
}

// NewPromptBuilder parses the prompt templates. lengthWords maps each
// length option to a target word count; missing entries fall back to
// built-in defaults.
func NewPromptBuilder(lengthWords map[string]int) *PromptBuilder {
	return &PromptBuilder{
		compose:     template.Must(template.New("compose").Parse(composeTemplate)),
		fix:         template.Must(template.New("fix").Parse(fixTemplate)),
		lengthWords: lengthWords,
	}
}

// Build renders the request. Fix requests select the rewrite template,
// everything else the full composition template.
func (b *PromptBuilder) Build(req domain.ComposeRequest) (domain.RenderedPrompt, error) {
	tmpl := b.compose
	if req.IsFix() {
		tmpl = b.fix
	}

	data := promptData{ComposeRequest: req, Words: b.wordsFor(req.Length)}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return domain.RenderedPrompt(buf.String()), nil
}

func (b *PromptBuilder) wordsFor(length string) int {
	if words, ok := b.lengthWords[length]; ok {
		return words
	}
	if words, ok := defaultLengthWords[length]; ok {
		return words
	}
	return defaultLengthWords["medium"]
}
