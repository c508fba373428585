// ABOUTME: Text normalisation applied before any provider sees catalog prose.
// ABOUTME: NFKC folding, control character removal, and whitespace collapsing.
package embeddings

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs NFKC normalization, drops control characters other than
// newlines and tabs, and trims whitespace. Text made only of whitespace and control
// characters normalizes to "".
func NormalizeText(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, norm.NFKC.String(text))
	return strings.TrimSpace(stripped)
}

// NormalizeAll normalizes every text into a new slice.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = NormalizeText(t)
	}
	return out
}
