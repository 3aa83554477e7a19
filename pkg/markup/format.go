package markup

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

// Format treats m as a printf-style template and interpolates args
// into it, returning a new Markup value. The template contributes its
// characters verbatim; every argument is formatted with the full fmt
// directive semantics (flags, width, precision) first and the
// formatted text is escaped afterwards. Arguments that already carry
// the safety tag, or that implement HTMLer, are inserted without
// re-escaping.
//
// Mismatched directives and arguments surface inline the way fmt
// reports them (%!-prefixed diagnostics); Format itself never fails.
func (m Markup) Format(args ...any) Markup {
	wrapped := make([]any, len(args))
	for i, arg := range args {
		wrapped[i] = formatArg{arg}
	}
	return Markup(fmt.Sprintf(string(m), wrapped...))
}

// FormatMap interpolates named placeholders of the form {name} into m,
// resolving each name against data. A name may be a dotted path
// walking map keys, exported struct fields and slice indices, and may
// carry an fmt verb after a colon ({price:%.2f}) which is applied to
// the resolved value before escaping. "{{" and "}}" produce literal
// braces. Resolved values that carry the safety tag are not
// re-escaped.
//
// A malformed placeholder or a path that does not resolve returns an
// error and no partial result.
func (m Markup) FormatMap(data map[string]any) (Markup, error) {
	s := string(m)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '}':
			return "", fmt.Errorf("markup: unmatched '}' at offset %d", i)
		case c == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("markup: unterminated placeholder at offset %d", i)
			}
			path, verb := s[i+1:i+end], ""
			if j := strings.IndexByte(path, ':'); j >= 0 {
				path, verb = path[:j], path[j+1:]
			}
			v, err := resolvePath(data, path)
			if err != nil {
				return "", err
			}
			if verb == "" {
				b.WriteString(string(Escape(v)))
			} else {
				b.WriteString(string(Markup(verb).Format(v)))
			}
			i += end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return Markup(b.String()), nil
}

// formatArg defers to the fmt package for the directive itself and
// escapes the formatted text on the way out, so width and precision
// always apply to the unescaped representation of the value.
type formatArg struct {
	v any
}

func (a formatArg) Format(f fmt.State, verb rune) {
	d := directive(f, verb)
	switch t := a.v.(type) {
	case Markup:
		_, _ = fmt.Fprintf(f, d, string(t))
	case HTMLer:
		_, _ = fmt.Fprintf(f, d, string(t.HTML()))
	default:
		_, _ = io.WriteString(f, escapeString(fmt.Sprintf(d, a.v)))
	}
}

// directive reconstructs the original format directive from the fmt
// state so the wrapped value can be formatted with it unchanged.
func directive(f fmt.State, verb rune) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, flag := range "+-# 0" {
		if f.Flag(int(flag)) {
			b.WriteRune(flag)
		}
	}
	if w, ok := f.Width(); ok {
		b.WriteString(strconv.Itoa(w))
	}
	if p, ok := f.Precision(); ok {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(p))
	}
	b.WriteRune(verb)
	return b.String()
}

// resolvePath walks a dotted lookup path against data, the way
// text/template resolves field chains: map keys, exported struct
// fields and slice/array indices, dereferencing pointers along the
// way.
func resolvePath(data map[string]any, path string) (any, error) {
	if path == "" {
		return nil, errors.New("markup: empty placeholder")
	}
	segs := strings.Split(path, ".")
	cur, ok := data[segs[0]]
	if !ok {
		return nil, fmt.Errorf("markup: no entry for key %q", segs[0])
	}
	for _, seg := range segs[1:] {
		next, err := lookupSegment(cur, seg)
		if err != nil {
			return nil, fmt.Errorf("markup: resolving %q: %w", path, err)
		}
		cur = next
	}
	return cur, nil
}

func lookupSegment(v any, seg string) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, errors.New("nil value in path")
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map with non-string key type %s", rv.Type().Key())
		}
		mv := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, fmt.Errorf("no map entry %q", seg)
		}
		return mv.Interface(), nil
	case reflect.Struct:
		fv := rv.FieldByName(seg)
		if !fv.IsValid() || !fv.CanInterface() {
			return nil, fmt.Errorf("no exported field %q on %s", seg, rv.Type())
		}
		return fv.Interface(), nil
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return nil, fmt.Errorf("index %q is not a number", seg)
		}
		if idx < 0 || idx >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range (len %d)", idx, rv.Len())
		}
		return rv.Index(idx).Interface(), nil
	default:
		return nil, fmt.Errorf("cannot look up %q in %s value", seg, rv.Kind())
	}
}
