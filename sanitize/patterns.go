package sanitize

import "regexp"

// Replacement placeholders. Deliberately free of code punctuation and
// code keywords so a second sanitization pass never re-flags them.
const (
	fencedPlaceholder  = "code omitted - the tutor does not provide runnable code"
	inlinePlaceholder  = "code omitted"
	secretPlaceholder  = "REDACTED"
	removedPlaceholder = "content removed - code-like output"
)

var (
	fencedCodeRe = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]+`")
)

// secretPatterns flags credential material that must never reach display or
// storage: provider keys, tokens, private key headers, inline credentials.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`gho_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`),
	regexp.MustCompile(`sk_live_[0-9a-zA-Z]{24}`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_.-]{20,}`),
	regexp.MustCompile(`(?i)(api_key|apikey|api-key|secret_key|access_token|auth_token)\s*[=:]\s*['"]?[A-Za-z0-9_-]{16,}['"]?`),
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),
	regexp.MustCompile(`https?://[^:/\s]+:[^@\s]+@`),
}

// codeLikePatterns feed the code-likeness heuristic alongside the
// punctuation-density check.
var codeLikePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*def\s+\w+\(`),
	regexp.MustCompile(`(?m)^\s*class\s+\w+\s*:`),
	regexp.MustCompile(`(?m)^\s*func\s+\w+\(`),
	regexp.MustCompile(`\bfor\s+\w+\s+in\s+`),
	regexp.MustCompile(`(?i)\breturn\b`),
}

var (
	// linePunctRe marks a line as code-flavored for the density check.
	linePunctRe = regexp.MustCompile(`[{};()<>:=\[\]]`)
	// dropPunctRe and dropKeywordRe decide which lines the filter removes.
	dropPunctRe   = regexp.MustCompile(`[{};()<>=\[\]]`)
	dropKeywordRe = regexp.MustCompile(`(?i)\b(return|yield|import|from|def|class|func)\b`)
)
