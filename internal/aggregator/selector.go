package aggregator

import (
	"regexp"
	"sort"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// nthIndexPattern matches structural pseudo-classes whose argument is a
// plain integer. Formulas such as 2n+1 or odd are left alone.
var nthIndexPattern = regexp.MustCompile(`:(nth-child|nth-of-type|nth-last-child|nth-last-of-type)\(\s*\d+\s*\)`)

// NormalizeSelector reduces a selector to the form used for cross-page
// identity. Whitespace runs collapse to one space, combinators get exactly
// one space on each side, and integer nth-* arguments become n. Nothing
// else is rewritten: ids, classes and attribute values are kept as-is.
func NormalizeSelector(selector string) string {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return ""
	}

	var b strings.Builder
	depth := 0 // inside [...] or (...)
	var quote rune
	pendingSpace := false

	runes := []rune(selector)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			b.WriteRune(r)
			if r == '\\' && i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			} else if r == quote {
				quote = 0
			}
			continue
		}

		switch {
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			if depth > 0 {
				depth--
			}
		}

		if depth > 0 || quote != 0 || r == ']' || r == ')' {
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
			continue
		}

		if isSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}

		if isCombinator(r) {
			j := i
			for j < len(runes) && isCombinator(runes[j]) {
				j++
			}
			b.WriteByte(' ')
			b.WriteString(string(runes[i:j]))
			b.WriteByte(' ')
			i = j - 1
			// Swallow whitespace that follows the combinator
			for i+1 < len(runes) && isSpace(runes[i+1]) {
				i++
			}
			pendingSpace = false
			continue
		}

		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	return nthIndexPattern.ReplaceAllString(out, ":$1(n)")
}

// SelectorPattern returns the sorted, deduplicated normalized selectors.
// An input with no usable selector yields the placeholder pattern.
func SelectorPattern(selectors []string) []string {
	seen := make(map[string]bool, len(selectors))
	pattern := make([]string, 0, len(selectors))
	for _, s := range selectors {
		n := NormalizeSelector(s)
		if n == "" || n == models.SelectorPlaceholder || seen[n] {
			continue
		}
		seen[n] = true
		pattern = append(pattern, n)
	}
	if len(pattern) == 0 {
		return []string{models.SelectorPlaceholder}
	}
	sort.Strings(pattern)
	return pattern
}

// IsPlaceholderPattern reports whether a pattern carries no concrete selector
func IsPlaceholderPattern(pattern []string) bool {
	return len(pattern) == 1 && pattern[0] == models.SelectorPlaceholder
}

// Fingerprint identifies a finding across routes and across runs
func Fingerprint(ruleID string, selectors []string) string {
	return ruleID + "::" + strings.Join(SelectorPattern(selectors), " | ")
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func isCombinator(r rune) bool {
	return r == '>' || r == '+' || r == '~'
}
