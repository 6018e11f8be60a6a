package vocab

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Clean applies the token-cleaning policy shared by user input, canonical
// names and aliases:
//
//  1. NFKC normalization
//  2. case folding
//  3. '_' and '-' become spaces, so "skin_rash", "skin-rash" and "skin rash" agree
//  4. any other rune that is not a letter, digit or space is dropped
//  5. whitespace runs collapse to a single space, ends are trimmed
//
// Clean is pure and idempotent: Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
