// Package sanitize post-processes model output before display or storage.
// It neutralizes code fragments and secret material with fixed placeholders
// and reports every removal as a span over the original input.
//
// Sanitize is pure and deterministic. Two laws hold and are tested:
// identity (an unmodified result echoes its input byte for byte) and
// idempotence (sanitizing cleaned text finds nothing further to remove).
package sanitize

import (
	"sort"
	"strings"
)

// Span marks one removed or replaced region of the original input.
// Offsets are byte positions; Reason tags the pattern family that fired.
type Span struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Reason string `json:"reason"`
}

// Span reason tags.
const (
	ReasonFencedCode   = "fenced-code"
	ReasonInlineCode   = "inline-code"
	ReasonSecret       = "secret"
	ReasonCodeLikeLine = "code-like-line"
)

// Result is the outcome of one sanitization pass.
type Result struct {
	CleanedText  string `json:"cleaned_text"`
	RemovedSpans []Span `json:"removed_spans,omitempty"`
	WasModified  bool   `json:"was_modified"`
}

type replacement struct {
	start, end  int
	reason      string
	placeholder string
}

// Sanitize neutralizes unsafe content in candidateText. Replacements only
// ever shrink or substitute fixed placeholders; the output never introduces
// unsafe content that was not already present.
func Sanitize(candidateText string) Result {
	repls := collectReplacements(candidateText)

	cleaned, spans, toOrig := applyReplacements(candidateText, repls)

	if detectCodeLike(cleaned) {
		cleaned, spans = filterCodeLines(cleaned, spans, toOrig)
	}

	// The placeholder stands in only for content the filter removed; input
	// that was empty to begin with passes through untouched.
	if cleaned == "" && len(spans) > 0 {
		cleaned = removedPlaceholder
	}

	if cleaned == candidateText {
		return Result{CleanedText: candidateText}
	}
	return Result{CleanedText: cleaned, RemovedSpans: spans, WasModified: true}
}

func collectReplacements(text string) []replacement {
	var repls []replacement

	add := func(matches [][]int, reason, placeholder string) {
		for _, m := range matches {
			if overlaps(repls, m[0], m[1]) {
				continue
			}
			repls = append(repls, replacement{m[0], m[1], reason, placeholder})
		}
	}

	add(fencedCodeRe.FindAllStringIndex(text, -1), ReasonFencedCode, fencedPlaceholder)
	add(inlineCodeRe.FindAllStringIndex(text, -1), ReasonInlineCode, inlinePlaceholder)
	for _, re := range secretPatterns {
		add(re.FindAllStringIndex(text, -1), ReasonSecret, secretPlaceholder)
	}

	sort.Slice(repls, func(i, j int) bool { return repls[i].start < repls[j].start })
	return repls
}

func overlaps(repls []replacement, start, end int) bool {
	for _, r := range repls {
		if start < r.end && r.start < end {
			return true
		}
	}
	return false
}

// applyReplacements substitutes placeholders and returns the rewritten text,
// the spans (in original coordinates), and a translator from rewritten-text
// offsets back to original offsets for regions outside any replacement.
func applyReplacements(text string, repls []replacement) (string, []Span, func(int) int) {
	if len(repls) == 0 {
		return text, nil, func(p int) int { return p }
	}

	var b strings.Builder
	spans := make([]Span, 0, len(repls))

	// Each boundary records: rewritten offset where a replacement ends and
	// the original offset it corresponds to.
	type boundary struct{ newEnd, origEnd int }
	bounds := make([]boundary, 0, len(repls))

	prev := 0
	for _, r := range repls {
		b.WriteString(text[prev:r.start])
		b.WriteString(r.placeholder)
		spans = append(spans, Span{Start: r.start, End: r.end, Reason: r.reason})
		bounds = append(bounds, boundary{newEnd: b.Len(), origEnd: r.end})
		prev = r.end
	}
	b.WriteString(text[prev:])

	toOrig := func(p int) int {
		orig := p
		for _, bd := range bounds {
			if p >= bd.newEnd {
				orig = bd.origEnd + (p - bd.newEnd)
			}
		}
		return orig
	}

	return b.String(), spans, toOrig
}

// detectCodeLike applies the code-likeness heuristic: a high share of lines
// carrying code punctuation, or any structural code pattern.
func detectCodeLike(text string) bool {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) == 0 {
		return false
	}

	punct := 0
	for _, ln := range lines {
		if linePunctRe.MatchString(ln) {
			punct++
		}
	}
	if float64(punct)/float64(len(lines)) > 0.35 {
		return true
	}

	for _, re := range codeLikePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// filterCodeLines drops lines that still look like code after placeholder
// substitution: overly long lines, code punctuation, or code keywords.
// Kept lines are left byte-identical so a pass that drops nothing changes
// nothing.
func filterCodeLines(text string, spans []Span, toOrig func(int) int) (string, []Span) {
	var kept []string
	offset := 0
	for _, ln := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(ln)
		drop := trimmed != "" &&
			(len(trimmed) > 300 || dropPunctRe.MatchString(trimmed) || dropKeywordRe.MatchString(trimmed))
		if drop {
			spans = append(spans, Span{
				Start:  toOrig(offset),
				End:    toOrig(offset + len(ln)),
				Reason: ReasonCodeLikeLine,
			})
		} else {
			kept = append(kept, ln)
		}
		offset += len(ln) + 1
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return strings.Join(kept, "\n"), spans
}
