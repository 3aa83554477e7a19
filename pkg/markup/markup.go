package markup

import (
	"fmt"
	"strings"
)

// Markup is a string that is known to be safe for direct inclusion in
// HTML/XML output. The type itself is the safety tag: holding a Markup
// value is a license to emit its content verbatim.
//
// Markup values are constructed from trusted literals via New, from
// untrusted input via Escape, or by composing existing values through
// the methods below. Every composing operation escapes plain operands
// individually and never re-escapes operands that already carry the
// tag.
type Markup string

// New constructs a Markup value from a trusted input. Plain values
// contribute their textual form verbatim (this is the trusted-literal
// path, distinct from Escape), Markup values pass through, and HTMLer
// values supply their own rendering.
func New(v any) Markup {
	switch t := v.(type) {
	case Markup:
		return t
	case HTMLer:
		return t.HTML()
	case string:
		return Markup(t)
	default:
		return Markup(fmt.Sprint(v))
	}
}

// String returns the underlying text.
func (m Markup) String() string {
	return string(m)
}

// HTML returns m itself, making every Markup value an HTMLer.
func (m Markup) HTML() Markup {
	return m
}

// Concat combines any number of values into one Markup value. Parts
// that already carry the safety tag are appended as-is; every plain
// part is escaped individually before being appended.
func Concat(parts ...any) Markup {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(string(Escape(p)))
	}
	return Markup(b.String())
}

// Append returns m followed by the given parts, escaping each plain
// part. It is the method form of Concat.
func (m Markup) Append(parts ...any) Markup {
	var b strings.Builder
	b.WriteString(string(m))
	for _, p := range parts {
		b.WriteString(string(Escape(p)))
	}
	return Markup(b.String())
}

// Join concatenates the parts separated by sep, escaping each plain
// part individually. The separator is trusted markup and contributes
// its characters verbatim.
func Join(sep Markup, parts ...any) Markup {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString(string(sep))
		}
		b.WriteString(string(Escape(p)))
	}
	return Markup(b.String())
}

// Repeat returns m concatenated with itself n times. n = 0 yields an
// empty value; a negative n panics, matching strings.Repeat.
func (m Markup) Repeat(n int) Markup {
	return Markup(strings.Repeat(string(m), n))
}

// Split slices m around each instance of sep, re-tagging every
// fragment. Fragments of a safe string are themselves safe, so no
// re-escaping takes place.
func (m Markup) Split(sep string) []Markup {
	return wrapAll(strings.Split(string(m), sep))
}

// SplitN is Split with the count semantics of strings.SplitN.
func (m Markup) SplitN(sep string, n int) []Markup {
	return wrapAll(strings.SplitN(string(m), sep, n))
}

// Fields splits m around runs of whitespace, re-tagging every
// fragment.
func (m Markup) Fields() []Markup {
	return wrapAll(strings.Fields(string(m)))
}

// SplitLines splits m at line boundaries ("\n", "\r\n" or a bare
// "\r"), re-tagging every line. Line terminators are not included and
// a trailing terminator does not produce a final empty line.
func (m Markup) SplitLines() []Markup {
	s := strings.ReplaceAll(string(m), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return wrapAll(strings.Split(s, "\n"))
}

// Cut slices m around the first instance of sep, re-tagging both
// halves. The found result reports whether sep appeared in m.
func (m Markup) Cut(sep string) (before, after Markup, found bool) {
	b, a, ok := strings.Cut(string(m), sep)
	return Markup(b), Markup(a), ok
}

// ToUpper returns m with all letters mapped to upper case. Case
// mapping only rearranges existing characters, so the tag is kept.
func (m Markup) ToUpper() Markup {
	return Markup(strings.ToUpper(string(m)))
}

// ToLower returns m with all letters mapped to lower case.
func (m Markup) ToLower() Markup {
	return Markup(strings.ToLower(string(m)))
}

// TrimSpace returns m with leading and trailing whitespace removed.
func (m Markup) TrimSpace() Markup {
	return Markup(strings.TrimSpace(string(m)))
}

// TrimPrefix returns m without the provided leading prefix.
func (m Markup) TrimPrefix(prefix string) Markup {
	return Markup(strings.TrimPrefix(string(m), prefix))
}

// TrimSuffix returns m without the provided trailing suffix.
func (m Markup) TrimSuffix(suffix string) Markup {
	return Markup(strings.TrimSuffix(string(m), suffix))
}

// Striptags removes any run of text from a literal '<' through the
// next '>' (an unterminated '<' run is kept as text), collapses the
// remaining whitespace to single spaces, and unescapes the residue.
// The result is plain text: stripping and unescaping may reintroduce
// special characters, so the safety tag is dropped.
func (m Markup) Striptags() string {
	s := string(m)
	var b strings.Builder
	b.Grow(len(s))
	for {
		open := strings.IndexByte(s, '<')
		if open < 0 {
			b.WriteString(s)
			break
		}
		end := strings.IndexByte(s[open:], '>')
		if end < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:open])
		s = s[open+end+1:]
	}
	stripped := strings.Join(strings.Fields(b.String()), " ")
	return unescapeString(stripped)
}

// Unescape replaces the escaper's character references with their
// literal characters. Only the five documented entities are decoded,
// in named, decimal and hex form. The result is plain text, since it
// may contain unescaped special characters again.
func (m Markup) Unescape() string {
	return unescapeString(string(m))
}

func wrapAll(parts []string) []Markup {
	out := make([]Markup, len(parts))
	for i, p := range parts {
		out[i] = Markup(p)
	}
	return out
}
