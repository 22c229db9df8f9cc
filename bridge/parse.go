package bridge

import (
	"strings"
	"unicode"
)

// parseInt reads the leading integer of line. Leading whitespace is skipped,
// an optional sign is accepted and a 0x or 0X prefix selects base 16. The
// longest run of digits is taken and anything after it is ignored. The value
// wraps modulo 2^32 into an int32. ok is false when no digit is found.
func parseInt(line string) (v int32, ok bool) {
	s := strings.TrimLeftFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := uint32(10)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	var acc uint32
	n := 0
	for ; n < len(s); n++ {
		d, isDigit := digitValue(s[n], base)
		if !isDigit {
			break
		}
		acc = acc*base + d
	}
	if n == 0 {
		return 0, false
	}
	if neg {
		acc = -acc
	}
	return int32(acc), true
}

func digitValue(c byte, base uint32) (uint32, bool) {
	var d uint32
	switch {
	case c >= '0' && c <= '9':
		d = uint32(c - '0')
	case c >= 'a' && c <= 'f':
		d = uint32(c-'a') + 10
	case c >= 'A' && c <= 'F':
		d = uint32(c-'A') + 10
	default:
		return 0, false
	}
	return d, d < base
}
