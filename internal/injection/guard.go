// Package injection scans free-text input for prompt-injection and payload
// patterns before it is allowed anywhere near a model prompt. Detection is
// a data-driven rule table: each rule pairs a behavioral category with a
// matcher and is evaluated independently, so new rules are additive
// configuration rather than code changes.
package injection

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category classifies what a rule detects.
type Category string

const (
	// CategoryOverride covers attempts to make the model ignore, forget,
	// bypass, or disregard its prior instructions.
	CategoryOverride Category = "instruction_override"

	// CategoryRoleSwitch covers persona changes, role markers, and
	// delimiter-based context escapes.
	CategoryRoleSwitch Category = "role_switch"

	// CategoryExtraction covers attempts to extract the system prompt and
	// known jailbreak framings.
	CategoryExtraction Category = "information_extraction"

	// CategoryPayload covers embedded markup, script-executing scheme URIs,
	// and control characters.
	CategoryPayload Category = "payload"
)

// Rule is one entry of the scan table.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
}

// ContentCap is the maximum length of free text subjected to the scan.
// Longer text is truncated, never executed.
const ContentCap = 2000

const (
	filteredToken   = "[FILTERED]"
	truncatedMarker = "... [TRUNCATED]"

	// maxRuneRun is the longest run of a single repeated character
	// tolerated before the text is treated as a denial-of-service payload.
	maxRuneRun = 100

	// maxTokenRepeats bounds how often the same whitespace-delimited token
	// may appear in one text.
	maxTokenRepeats = 200
)

// Verdict is the result of one scan.
type Verdict struct {
	Valid     bool
	Blocked   bool
	Sanitized string
	Warnings  []string
}

// Guard evaluates the rule table against free-text input.
type Guard struct {
	rules    []Rule
	keywords *regexp.Regexp
	charset  *regexp.Regexp
}

// NewGuard creates a guard with the default rule set.
func NewGuard() *Guard {
	return &Guard{
		rules:    defaultRules(),
		keywords: keywordPattern(),
		charset:  charsetPattern(),
	}
}

// Scan inspects text and returns a verdict. In strict mode any detected
// pattern blocks the request outright; otherwise matched spans are replaced
// with a neutral placeholder and processing continues. Text longer than
// ContentCap is truncated with a visible marker in either mode's sanitized
// output.
func (g *Guard) Scan(text string, strict bool) Verdict {
	verdict := Verdict{Valid: true, Sanitized: text}

	if strings.TrimSpace(text) == "" {
		verdict.Valid = false
		verdict.Warnings = append(verdict.Warnings, "input cannot be empty")
		return verdict
	}

	if g.Detect(text) {
		if strict {
			verdict.Valid = false
			verdict.Blocked = true
			verdict.Warnings = append(verdict.Warnings, "input contains potentially malicious content")
			return verdict
		}
		verdict.Sanitized = g.sanitize(text)
		verdict.Warnings = append(verdict.Warnings, "input was sanitized for security reasons")
	}

	if len(text) > ContentCap {
		verdict.Warnings = append(verdict.Warnings, "input is too long and will be truncated")
		verdict.Sanitized = truncate(verdict.Sanitized)
	}

	if !g.charset.MatchString(text) {
		verdict.Warnings = append(verdict.Warnings, "input contains unusual characters")
	}

	return verdict
}

// Detect reports whether any rule, keyword, or repetition check matches.
func (g *Guard) Detect(text string) bool {
	for _, rule := range g.rules {
		if rule.Pattern.MatchString(text) {
			return true
		}
	}
	if g.keywords.MatchString(text) {
		return true
	}
	return hasPathologicalRepetition(text)
}

// Match returns the categories of all rules matching the text, in rule
// order. Useful for logging; the categories are never echoed to callers.
func (g *Guard) Match(text string) []Category {
	var matched []Category
	for _, rule := range g.rules {
		if rule.Pattern.MatchString(text) {
			matched = append(matched, rule.Category)
		}
	}
	return matched
}

// sanitize replaces every matched span with the placeholder token and
// trims the result. Truncation is handled by the caller so the cap applies
// after replacement.
func (g *Guard) sanitize(text string) string {
	result := text
	for _, rule := range g.rules {
		result = rule.Pattern.ReplaceAllString(result, filteredToken)
	}
	result = g.keywords.ReplaceAllString(result, filteredToken)
	return strings.TrimSpace(result)
}

func truncate(text string) string {
	if len(text) <= ContentCap {
		return text
	}
	cut := ContentCap
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncatedMarker
}

// hasPathologicalRepetition detects repetition-based denial-of-service
// payloads: a single character repeated beyond maxRuneRun, or one token
// repeated more than maxTokenRepeats times.
func hasPathologicalRepetition(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= maxRuneRun {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}

	tokens := strings.Fields(text)
	if len(tokens) <= maxTokenRepeats {
		return false
	}
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
		if counts[token] > maxTokenRepeats {
			return true
		}
	}
	return false
}

// defaultRules returns the built-in scan table.
func defaultRules() []Rule {
	entries := []struct {
		category Category
		pattern  string
	}{
		// Attempts to discard or override prior instructions.
		{CategoryOverride, `(?i)ignore\s+(all\s+|previous\s+|prior\s+)*(instructions?|prompts?)`},
		{CategoryOverride, `(?i)forget\s+(everything|all|previous)`},
		{CategoryOverride, `(?i)bypass\s+(your\s+)?(instructions?|rules?|restrictions?)`},
		{CategoryOverride, `(?i)override\s+(your\s+)?(programming|instructions?)`},
		{CategoryOverride, `(?i)disregard\s+(your\s+)?(instructions?|guidelines?)`},
		{CategoryOverride, `(?i)respond\s+(only|just)\s+with`},
		{CategoryOverride, `(?i)output\s+(only|just)\s+the`},
		{CategoryOverride, `(?i)return\s+(only|just)\s+the`},

		// Persona changes and role markers.
		{CategoryRoleSwitch, `(?i)act\s+as\s+(a\s+)?different\s+`},
		{CategoryRoleSwitch, `(?i)you\s+are\s+now\s+`},
		{CategoryRoleSwitch, `(?i)system\s*:`},
		{CategoryRoleSwitch, `(?i)role\s*:`},

		// Delimiter-based context escapes.
		{CategoryRoleSwitch, `\{\{.*?\}\}`},
		{CategoryRoleSwitch, `\[\[.*?\]\]`},
		{CategoryRoleSwitch, `<<.*?>>`},
		{CategoryRoleSwitch, "(?s)```.*?```"},
		{CategoryRoleSwitch, `(?m)^\s*(-{3,}|={3,})\s*$`},

		// Attempts to extract instructions or system internals.
		{CategoryExtraction, `(?i)(what|tell)\s+me\s+(about\s+)?your\s+`},
		{CategoryExtraction, `(?i)reveal\s+(your\s+)?(instructions?|programming|system)`},
		{CategoryExtraction, `(?i)show\s+me\s+(your\s+)?(prompt|instructions?)`},

		// Known jailbreak framings.
		{CategoryExtraction, `(?i)jail\s*break`},
		{CategoryExtraction, `(?i)\bdo\s+anything\s+now\b`},
		{CategoryExtraction, `\bDAN\b`},
		{CategoryExtraction, `(?i)(hypothetical|imagine|pretend)\s+(you\s+)?(are|were)`},

		// Markup, script fragments, and scheme URIs.
		{CategoryPayload, `(?i)</?(script|iframe|object|embed)\b`},
		{CategoryPayload, `(?i)\b(class|function|if|else|for|while)\s*\(`},
		{CategoryPayload, `(?i)<\?(php|=)`},
		{CategoryPayload, `(?i)javascript:`},
		{CategoryPayload, `(?i)vbscript:`},
		{CategoryPayload, `(?i)data:text/html`},

		// Control characters outside printable ranges.
		{CategoryPayload, "[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]"},
	}

	rules := make([]Rule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, Rule{Category: e.category, Pattern: regexp.MustCompile(e.pattern)})
	}
	return rules
}

// keywordPattern matches a fixed list of credential- and system-access
// related terms. Matching is on word boundaries so benign words such as
// "keyboard" or "ecosystem" do not trigger it.
func keywordPattern() *regexp.Regexp {
	words := []string{
		"admin", "administrator", "root", "system", "debug",
		"password", "token", "key", "secret", "api_key",
		"execute", "eval", "shell", "cmd",
		"hack", "exploit", "bypass", "override", "inject",
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}

// charsetPattern accepts letters, digits, whitespace, common punctuation,
// and a fixed symbol set. Text outside this set draws a warning but is not
// blocked by itself.
func charsetPattern() *regexp.Regexp {
	return regexp.MustCompile(`^[\p{L}\p{N}\s.,?!;:\-()\[\]{}"'/@#%&*+=<>~` + "`" + `|\\]*$`)
}
