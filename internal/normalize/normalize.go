// Package normalize provides the text normalization used to report a
// canonical form of a business name alongside search results.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and removes combining marks, so "Café"
// and "Cafe" normalize to the same string.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name returns the canonical form of a business name: diacritics
// stripped, lowercased, whitespace runs collapsed to single spaces,
// and trimmed. Total — any input produces some output, empty in gives
// empty out. Idempotent.
func Name(s string) string {
	if s == "" {
		return ""
	}

	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the
		// original bytes rather than failing the caller.
		out = s
	}

	out = strings.ToLower(out)
	out = strings.Join(strings.Fields(out), " ")
	return out
}
