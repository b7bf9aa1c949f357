package normalize

import (
	"strings"
	"unicode/utf8"
)

// Sanitize drops NUL, DEL, ASCII controls other than tab and line breaks,
// C1 controls and invalid UTF-8 bytes
// clean input is returned as is without allocating
func Sanitize(s string) string {
	if s == "" || isClean(s) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if dropRune(r) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))
}

func isClean(s string) bool {
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			if dropRune(rune(s[i])) {
				return false
			}
			i++
			continue
		}
		r, sz := utf8.DecodeRuneInString(s[i:])
		if (r == utf8.RuneError && sz == 1) || dropRune(r) {
			return false
		}
		i += sz
	}
	return true
}

func dropRune(r rune) bool {
	switch {
	case r == '\n', r == '\r', r == '\t':
		return false
	case r < 0x20, r == 0x7F:
		return true
	case r >= 0x80 && r <= 0x9F:
		return true
	}
	return false
}
