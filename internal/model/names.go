package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName canonicalizes a player name for storage and lookup:
// surrounding whitespace is trimmed, inner runs of whitespace collapse to a
// single space and the result is NFC normalized, so "Micheal Léger" typed
// with a combining accent matches the stored precomposed form.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}
