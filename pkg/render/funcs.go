package render

import (
	"text/template"

	"github.com/CTAG07/marksafe/pkg/markup"
)

func (e *Engine) makeFuncMap() template.FuncMap {
	return template.FuncMap{
		// Escaping and tagging
		"escape":       escape,
		"escapesilent": escapeSilent,
		"safe":         safe,

		// Composition (engine methods: these respect safety limits)
		"join":   e.join,
		"repeat": e.repeat,
		"format": format,
		"attr":   attr,

		// Sequence operations
		"split":  split,
		"fields": fields,
		"lines":  lines,

		// Transformations
		"striptags": striptags,
		"unescape":  unescape,
		"upper":     upper,
		"lower":     lower,
		"trim":      trim,
	}
}

// escape runs any value through markup.Escape. Safe values pass
// through untouched.
func escape(v any) markup.Markup {
	return markup.Escape(v)
}

// escapeSilent is escape, except nil renders as the empty string.
func escapeSilent(v any) markup.Markup {
	return markup.EscapeSilent(v)
}

// safe marks a value as trusted markup without escaping it. This is
// the template-side trusted-literal path; use it only on content the
// template author controls.
func safe(v any) markup.Markup {
	return markup.New(v)
}

// format treats tmpl as a trusted printf-style template and
// interpolates the arguments, escaping each plain one.
func format(tmpl string, args ...any) markup.Markup {
	return markup.Markup(tmpl).Format(args...)
}

// attr renders an escaped name="value" attribute pair.
func attr(name string, value any) markup.Markup {
	return markup.Concat(markup.Escape(name), markup.Markup(`="`), value, markup.Markup(`"`))
}

// join concatenates parts separated by sep, escaping each plain part.
// The separator is trusted markup. The part count is capped by
// MaxJoinParts.
func (e *Engine) join(sep string, parts ...any) markup.Markup {
	if limit := e.config.MaxJoinParts; len(parts) > limit {
		parts = parts[:limit]
	}
	return markup.Join(markup.Markup(sep), parts...)
}

// repeat escapes v and repeats it n times, capped by MaxRepeat.
// Negative counts yield the empty string.
func (e *Engine) repeat(v any, n int) markup.Markup {
	if n < 0 {
		n = 0
	}
	if limit := e.config.MaxRepeat; n > limit {
		n = limit
	}
	return markup.Escape(v).Repeat(n)
}

// split slices an escaped value around sep, keeping every fragment
// safe.
func split(v any, sep string) []markup.Markup {
	return markup.Escape(v).Split(sep)
}

// fields splits an escaped value around whitespace.
func fields(v any) []markup.Markup {
	return markup.Escape(v).Fields()
}

// lines splits an escaped value at line boundaries.
func lines(v any) []markup.Markup {
	return markup.Escape(v).SplitLines()
}

// striptags removes tags from already-safe markup and returns the
// plain residual text.
func striptags(v any) string {
	return markup.New(v).Striptags()
}

// unescape decodes the escaper's entities back to plain text.
func unescape(v any) string {
	return markup.New(v).Unescape()
}

// upper maps an escaped value to upper case.
func upper(v any) markup.Markup {
	return markup.Escape(v).ToUpper()
}

// lower maps an escaped value to lower case.
func lower(v any) markup.Markup {
	return markup.Escape(v).ToLower()
}

// trim removes leading and trailing whitespace from an escaped value.
func trim(v any) markup.Markup {
	return markup.Escape(v).TrimSpace()
}
