package table

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds header text for comparison: whitespace runs (newlines and
// non-breaking spaces included) collapsed to one space, trimmed, lowercased
// and put in Unicode NFC. It is only applied to headers, never to extracted values.
func Normalize(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return norm.NFC.String(s)
}
