package render

import (
	"bytes"
	"testing"

	"github.com/CTAG07/marksafe/pkg/markup"
)

// TestTemplateFunctions validates the behavior of each category of template functions.
func TestTemplateFunctions(t *testing.T) {
	e := setupTestEngine(t)

	t.Run("EscapingFuncs", func(t *testing.T) {
		if got := escape("<b>"); got != "&lt;b&gt;" {
			t.Errorf("escape = %q", got)
		}
		if got := escape(markup.Markup("<b>")); got != "<b>" {
			t.Errorf("escape re-escaped a safe value: %q", got)
		}
		if got := escapeSilent(nil); got != "" {
			t.Errorf("escapesilent(nil) = %q", got)
		}
		if got := safe("<b>"); got != "<b>" {
			t.Errorf("safe = %q", got)
		}
	})

	t.Run("CompositionFuncs", func(t *testing.T) {
		if got := format("<em>%s</em>", "<bad>"); got != "<em>&lt;bad&gt;</em>" {
			t.Errorf("format = %q", got)
		}
		if got := attr("title", `say "hi"`); got != `title="say &#34;hi&#34;"` {
			t.Errorf("attr = %q", got)
		}
		if got := e.join("<br>", "a & b", "c"); got != "a &amp; b<br>c" {
			t.Errorf("join = %q", got)
		}
		if got := e.repeat("<i>", 3); got != "&lt;i&gt;&lt;i&gt;&lt;i&gt;" {
			t.Errorf("repeat = %q", got)
		}
	})

	t.Run("SafetyLimits", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxRepeat = 2
		cfg.MaxJoinParts = 2
		e.SetConfig(cfg)

		if got := e.repeat("a", 999); got != "aa" {
			t.Errorf("repeat did not respect MaxRepeat: %q", got)
		}
		if got := e.repeat("a", -1); got != "" {
			t.Errorf("repeat with negative count = %q, want empty", got)
		}
		if got := e.join(",", "a", "b", "c", "d"); got != "a,b" {
			t.Errorf("join did not respect MaxJoinParts: %q", got)
		}
	})

	t.Run("SequenceFuncs", func(t *testing.T) {
		if got := split("a,b", ","); len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("split = %v", got)
		}
		if got := fields("a <b"); len(got) != 2 || got[1] != "&lt;b" {
			t.Errorf("fields = %v", got)
		}
		if got := lines("a\nb"); len(got) != 2 || got[0] != "a" {
			t.Errorf("lines = %v", got)
		}
	})

	t.Run("TransformFuncs", func(t *testing.T) {
		if got := striptags("<em>Foo &amp; Bar</em>"); got != "Foo & Bar" {
			t.Errorf("striptags = %q", got)
		}
		if got := unescape("&lt;x&gt;"); got != "<x>" {
			t.Errorf("unescape = %q", got)
		}
		if got := upper("abc"); got != "ABC" {
			t.Errorf("upper = %q", got)
		}
		if got := lower("ABC"); got != "abc" {
			t.Errorf("lower = %q", got)
		}
		if got := trim("  x  "); got != "x" {
			t.Errorf("trim = %q", got)
		}
	})
}

// TestFuncsInTemplates exercises the function map through actual
// template execution, where untrusted data mixes with safe fragments.
func TestFuncsInTemplates(t *testing.T) {
	e := setupTestEngine(t)

	tests := []struct {
		name string
		tmpl string
		data any
		want string
	}{
		{
			"escape untrusted",
			`{{escape .User}}`,
			map[string]any{"User": "<bad user>"},
			"&lt;bad user&gt;",
		},
		{
			"safe trusted",
			`{{safe .Frag}}`,
			map[string]any{"Frag": "<em>ok</em>"},
			"<em>ok</em>",
		},
		{
			"format with mixed safety",
			`{{format "<li>%s:%s</li>" .A .B}}`,
			map[string]any{"A": "<x>", "B": markup.Markup("<y>")},
			"<li>&lt;x&gt;:<y></li>",
		},
		{
			"attr in element",
			`<a {{attr "href" .URL}}>x</a>`,
			map[string]any{"URL": `/q?a=1&b="2"`},
			`<a href="/q?a=1&amp;b=&#34;2&#34;">x</a>`,
		},
		{
			"join over range output",
			`{{join ", " .A .B}}`,
			map[string]any{"A": "a&b", "B": "c"},
			"a&amp;b, c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := e.ExecuteTemplateString(&buf, tt.tmpl, tt.data); err != nil {
				t.Fatalf("execution failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
