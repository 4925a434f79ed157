package captcha

import "strings"

// CodeLength is the length of a fully confident captcha decision.
const CodeLength = 6

// minPartialLength is the shortest read still accepted as a candidate.
const minPartialLength = 4

// Normalize strips characters outside [0-9A-Za-z] from raw and applies the
// length policy. Six or more characters are truncated to six; four or five
// are kept as is; anything shorter is rejected.
//
// Normalize is idempotent.
func Normalize(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if isAlnum(raw[i]) {
			b.WriteByte(raw[i])
		}
	}
	s := b.String()
	switch {
	case len(s) >= CodeLength:
		return s[:CodeLength], true
	case len(s) >= minPartialLength:
		return s, true
	default:
		return "", false
	}
}

// isAlnum checks bytes, not runes: a multi-byte rune never contains an ASCII
// byte, so stripping per byte drops it whole.
func isAlnum(c byte) bool {
	return ('0' <= c && c <= '9') || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}
