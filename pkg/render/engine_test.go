package render

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// setupTestEngine creates an Engine over a temporary template
// directory for a single test's scope.
func setupTestEngine(tb testing.TB) *Engine {
	tb.Helper()

	dir := tb.TempDir()
	page := `{{define "page.tmpl.html"}}<h1>{{escape .Title}}</h1>{{template "footer.part.html" .}}{{end}}`
	if err := os.WriteFile(filepath.Join(dir, "page.tmpl.html"), []byte(page), 0644); err != nil {
		tb.Fatalf("failed to write page template: %v", err)
	}
	footer := `{{define "footer.part.html"}}<footer>{{.Footer}}</footer>{{end}}`
	if err := os.WriteFile(filepath.Join(dir, "footer.part.html"), []byte(footer), 0644); err != nil {
		tb.Fatalf("failed to write footer partial: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := NewEngine(logger, DefaultConfig(), dir)
	if err != nil {
		tb.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestEngineExecute(t *testing.T) {
	e := setupTestEngine(t)

	var buf bytes.Buffer
	data := map[string]any{"Title": "a < b", "Footer": "plain"}
	if err := e.Execute(&buf, "page.tmpl.html", data); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "<h1>a &lt; b</h1><footer>plain</footer>"
	if buf.String() != want {
		t.Errorf("Execute output = %q, want %q", buf.String(), want)
	}
}

func TestEngineExecuteEmptyName(t *testing.T) {
	e := setupTestEngine(t)
	var buf bytes.Buffer
	if err := e.Execute(&buf, "", nil); err != nil {
		t.Errorf("Execute with empty name should be a no-op, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Execute with empty name wrote %q", buf.String())
	}
}

func TestEngineTemplateNames(t *testing.T) {
	e := setupTestEngine(t)
	names := e.TemplateNames()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["page.tmpl.html"] || !found["footer.part.html"] {
		t.Errorf("TemplateNames = %v, want full template and partial", names)
	}
}

func TestEngineRefresh(t *testing.T) {
	e := setupTestEngine(t)

	extra := `{{define "extra.tmpl.html"}}ok{{end}}`
	if err := os.WriteFile(filepath.Join(e.TemplateDir(), "extra.tmpl.html"), []byte(extra), 0644); err != nil {
		t.Fatalf("failed to write extra template: %v", err)
	}
	if err := e.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	var buf bytes.Buffer
	if err := e.Execute(&buf, "extra.tmpl.html", nil); err != nil {
		t.Fatalf("Execute of refreshed template failed: %v", err)
	}
	if buf.String() != "ok" {
		t.Errorf("refreshed template output = %q", buf.String())
	}
}

func TestEngineEmptyDir(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewEngine(logger, DefaultConfig(), t.TempDir()); err != nil {
		t.Fatalf("NewEngine on an empty directory failed: %v", err)
	}
}

func TestExecuteTemplateString(t *testing.T) {
	e := setupTestEngine(t)

	var buf bytes.Buffer
	err := e.ExecuteTemplateString(&buf, `<p>{{escape .V}}</p>`, map[string]any{"V": `"quoted"`})
	if err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "<p>&#34;quoted&#34;</p>" {
		t.Errorf("output = %q", buf.String())
	}

	// String execution can reference loaded partials.
	buf.Reset()
	err = e.ExecuteTemplateString(&buf, `{{template "footer.part.html" .}}`, map[string]any{"Footer": "f"})
	if err != nil {
		t.Fatalf("ExecuteTemplateString with partial failed: %v", err)
	}
	if buf.String() != "<footer>f</footer>" {
		t.Errorf("partial output = %q", buf.String())
	}

	if err = e.ExecuteTemplateString(&buf, `{{escape`, nil); err == nil {
		t.Error("malformed template should fail to parse")
	}
}

func TestOutputLimit(t *testing.T) {
	e := setupTestEngine(t)
	cfg := DefaultConfig()
	cfg.MaxOutputBytes = 16
	e.SetConfig(cfg)

	var buf bytes.Buffer
	err := e.ExecuteTemplateString(&buf, `{{repeat "x" 100}}`, nil)
	if err == nil || !errors.Is(err, ErrOutputLimit) {
		t.Errorf("expected ErrOutputLimit, got %v", err)
	}
}
