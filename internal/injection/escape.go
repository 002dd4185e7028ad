package injection

import "strings"

// promptEscaper neutralizes delimiter sequences that could re-open a new
// instruction context inside the rendered prompt. Applied to any text that
// passed the scan in sanitize mode before it is assembled into a prompt.
var promptEscaper = strings.NewReplacer(
	"{{", `\{\{`,
	"}}", `\}\}`,
	"[[", `\[\[`,
	"]]", `\]\]`,
	"```", "\\`\\`\\`",
)

// EscapeForPrompt escapes prompt-structural delimiter sequences.
func EscapeForPrompt(text string) string {
	return promptEscaper.Replace(text)
}
