package markup

import (
	"fmt"
	"strconv"
	"strings"
)

// HTMLer is implemented by values that can produce their own markup
// rendering. The returned Markup is trusted completely: Escape, New and
// the formatting operations emit it verbatim without re-escaping.
type HTMLer interface {
	HTML() Markup
}

// escapeChars are the characters replaced by escapeString. They are all
// ASCII, so the scan can be byte-wise without breaking multi-byte runes.
const escapeChars = "&><'\""

// Escape converts an arbitrary value to Markup, replacing any
// markup-special characters in its textual form with character
// entities.
//
// Values that already carry the safety tag pass through untouched: a
// Markup argument is returned as-is and an HTMLer argument supplies its
// own rendering. This makes Escape idempotent, so defensive escaping of
// already-safe values never corrupts previously generated entities.
//
// A nil value renders as the escaped literal "<nil>"; use EscapeSilent
// to map nil to an empty string instead.
func Escape(v any) Markup {
	switch t := v.(type) {
	case Markup:
		return t
	case HTMLer:
		return t.HTML()
	case string:
		return Markup(escapeString(t))
	default:
		return Markup(escapeString(fmt.Sprint(v)))
	}
}

// EscapeSilent behaves like Escape, except that a nil value yields an
// empty Markup value.
func EscapeSilent(v any) Markup {
	if v == nil {
		return ""
	}
	return Escape(v)
}

// escapeString substitutes the five special characters in a single
// left-to-right pass. Entities written for one character are never
// rescanned, so the result cannot be double-escaped within one call.
func escapeString(s string) string {
	first := strings.IndexAny(s, escapeChars)
	if first < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4*len(escapeChars))
	last := 0
	for i := first; i < len(s); i++ {
		var ent string
		switch s[i] {
		case '&':
			ent = "&amp;"
		case '>':
			ent = "&gt;"
		case '<':
			ent = "&lt;"
		case '\'':
			ent = "&#39;"
		case '"':
			ent = "&#34;"
		default:
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(ent)
		last = i + 1
	}
	b.WriteString(s[last:])
	return b.String()
}

// maxEntityLen bounds the ';' search in unescapeString. "&quot;" and
// "&#x27;" are the longest references the table accepts.
const maxEntityLen = 6

// unescapeString reverses the escaper's substitutions. Only references
// for the five escaped characters are decoded (named, decimal and hex
// forms); anything else is left alone.
func unescapeString(s string) string {
	first := strings.IndexByte(s, '&')
	if first < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:first])
	for i := first; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		semi := strings.IndexByte(s[i:i+min(len(s)-i, maxEntityLen)], ';')
		if semi < 0 {
			b.WriteByte('&')
			i++
			continue
		}
		if c, ok := entityValue(s[i+1 : i+semi]); ok {
			b.WriteByte(c)
			i += semi + 1
		} else {
			b.WriteByte('&')
			i++
		}
	}
	return b.String()
}

// entityValue decodes the body of a character reference (between '&'
// and ';') if it names one of the escaper's five characters.
func entityValue(body string) (byte, bool) {
	switch body {
	case "amp":
		return '&', true
	case "gt":
		return '>', true
	case "lt":
		return '<', true
	case "quot":
		return '"', true
	case "apos":
		return '\'', true
	}
	if len(body) < 2 || body[0] != '#' {
		return 0, false
	}
	num := body[1:]
	base := 10
	if num[0] == 'x' || num[0] == 'X' {
		num = num[1:]
		base = 16
	}
	n, err := strconv.ParseUint(num, base, 8)
	if err != nil {
		return 0, false
	}
	switch byte(n) {
	case '&', '>', '<', '\'', '"':
		return byte(n), true
	}
	return 0, false
}
