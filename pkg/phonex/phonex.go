// Package phonex normalizes phone numbers to a canonical E.164-style form
// (+<country><digits>) for storage and credential derivation.
package phonex

import (
	"errors"
	"strings"
)

// ErrInvalid reports an input that yields no usable phone number.
var ErrInvalid = errors.New("phonex: invalid phone number")

// Normalize canonicalizes a user-supplied phone number:
//
//   - strips everything except digits and a leading "+"
//   - rewrites the local trunk prefix "8" on 11-digit numbers to the
//     international "+7" form
//   - prepends "+" when missing
//
// Returns ErrInvalid when nothing usable remains.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}

	s := b.String()
	if Digits(s) == "" {
		return "", ErrInvalid
	}

	// 8XXXXXXXXXX dialed locally is +7XXXXXXXXXX internationally.
	if !strings.HasPrefix(s, "+") && len(s) == 11 && s[0] == '8' {
		s = "+7" + s[1:]
	}

	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}
	return s, nil
}

// Digits returns only the digit characters of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
