package extract

import (
	"strings"
	"unicode/utf8"
)

const maxHexEscapeDigits = 6

// Unescape decodes the CSS escapes in a class name, so `sm\:flex` becomes `sm:flex` and
// `\31 0` becomes `10`. A hex escape consumes one trailing whitespace character. Escapes of
// zero, surrogates and values past the last code point decode to U+FFFD, as does a
// trailing backslash.
func Unescape(name string) string {
	if !strings.Contains(name, `\`) {
		return name
	}

	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); {
		if name[i] != '\\' {
			sb.WriteByte(name[i])
			i++
			continue
		}
		i++
		if i >= len(name) {
			sb.WriteRune(utf8.RuneError)
			break
		}

		digits := 0
		var value rune
		for digits < maxHexEscapeDigits && i+digits < len(name) && isHex(name[i+digits]) {
			value = value<<4 | hexValue(name[i+digits])
			digits++
		}
		if digits == 0 {
			r, size := utf8.DecodeRuneInString(name[i:])
			sb.WriteRune(r)
			i += size
			continue
		}

		i += digits
		if value == 0 || (value >= 0xD800 && value <= 0xDFFF) || value > utf8.MaxRune {
			value = utf8.RuneError
		}
		sb.WriteRune(value)

		switch {
		case strings.HasPrefix(name[i:], "\r\n"):
			i += 2
		case i < len(name) && isEscapeTerminator(name[i]):
			i++
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) rune {
	switch {
	case c >= 'a':
		return rune(c-'a') + 10
	case c >= 'A':
		return rune(c-'A') + 10
	}
	return rune(c - '0')
}

func isEscapeTerminator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
