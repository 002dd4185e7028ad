// Package encode is the last stage before any string leaves the process.
// Every success and error payload passes through it so that reflected
// content can never execute as script in the caller's browser.
package encode

import "strings"

// htmlEscaper mirrors htmlspecialchars with ENT_QUOTES: the five
// characters that can change meaning inside markup or attribute context.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// ForTransport escapes text for interpolation into HTML or JSON responses.
func ForTransport(text string) string {
	return htmlEscaper.Replace(text)
}

// Messages escapes each message and joins them for a single response field.
func Messages(messages []string) string {
	escaped := make([]string, len(messages))
	for i, m := range messages {
		escaped[i] = ForTransport(m)
	}
	return strings.Join(escaped, ", ")
}
