package render

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

// ErrOutputLimit is returned by Execute when the rendered output
// exceeds the configured MaxOutputBytes.
var ErrOutputLimit = errors.New("render: output size limit exceeded")

// Engine is the central controller for template rendering. It manages
// the template set, configuration and function map, and is responsible
// for loading, parsing and executing templates. All methods are
// concurrent-safe.
type Engine struct {
	logger      *slog.Logger
	config      *RenderConfig
	templates   *template.Template
	cleanSet    *template.Template
	names       []string
	funcMap     template.FuncMap
	templateDir string
	mu          sync.RWMutex
}

// NewEngine creates, initializes and returns a new Engine. It requires
// a logger, a configuration and the directory holding the template
// files (*.tmpl.html for full templates, *.part.html for partials).
// It performs an initial Refresh to load the template set.
func NewEngine(logger *slog.Logger, config *RenderConfig, templateDir string) (*Engine, error) {
	e := &Engine{
		logger:      logger,
		config:      config,
		templateDir: templateDir,
	}
	e.funcMap = e.makeFuncMap()

	if err := e.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Render engine initialized", "dir", templateDir)
	return e, nil
}

// SetConfig applies a new configuration to the Engine, allowing safety
// limits to be changed without restarting the application.
func (e *Engine) SetConfig(config *RenderConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
}

// Config returns a copy of the current configuration.
// This mainly exists for concurrency-safety reasons.
func (e *Engine) Config() RenderConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return *e.config
}

// Refresh reloads all templates from the filesystem. This allows for
// updates to templates without restarting the application.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	filePattern := filepath.Join(e.templateDir, "*.tmpl.html")
	e.logger.Info("Loading template files...")

	parsed, err := template.New("").Funcs(e.funcMap).ParseGlob(filePattern)
	var names []string
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			e.logger.Error("failed to parse template files", "error", err)
			return err
		}
		// No template files, so we have to create the set without any
		parsed = template.New("").Funcs(e.funcMap)
		names = []string{}
	} else {
		for _, t := range parsed.Templates() {
			// The root template has no name and is never executed directly
			if strings.Contains(t.Name(), ".tmpl.html") {
				names = append(names, t.Name())
			}
		}
	}

	filePattern = filepath.Join(e.templateDir, "*.part.html")
	e.logger.Info("Loading partial files...")

	withPartials, err := parsed.ParseGlob(filePattern)
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			e.logger.Error("failed to parse partial files", "error", err)
			return err
		}
		withPartials = parsed
	}

	if len(names) == 0 {
		e.logger.Warn("No template files found matching pattern", "pattern", filePattern)
	}

	e.templates = withPartials
	e.names = names
	e.logger.Info("Loaded template and partial files", "count", len(withPartials.Templates())-1) // Subtract one for the root template

	// Create a clean clone for string executions after all parsing is complete.
	e.cleanSet, err = e.templates.Clone()
	if err != nil {
		e.logger.Error("failed to create a clean clone of templates", "error", err)
		return err
	}

	return nil
}

// Execute renders a specific template by name, writing the output to
// the provided io.Writer. The data argument is passed to the template
// and can be used to provide context or dynamic values. If the
// configured output limit is exceeded, execution stops with
// ErrOutputLimit.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	if name == "" {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.templates.ExecuteTemplate(e.limitWriter(w), name, data)
}

// ExecuteTemplateString parses and executes a raw template string
// using the engine's function map. This is ideal for testing or
// previewing templates without saving them to disk.
func (e *Engine) ExecuteTemplateString(w io.Writer, content string, data any) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	// Clone the clean, unexecuted template set to avoid race conditions and execution state issues.
	tempSet, err := e.cleanSet.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone clean templates for string execution: %w", err)
	}

	t, err := tempSet.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse string template: %w", err)
	}

	return t.Execute(e.limitWriter(w), data)
}

// TemplateNames returns a slice of the loaded template names,
// including partials. This mainly exists for concurrency-safety
// reasons.
func (e *Engine) TemplateNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var names []string
	for _, t := range e.templates.Templates() {
		if strings.Contains(t.Name(), ".html") {
			names = append(names, t.Name())
		}
	}
	return names
}

// TemplateDir returns the template dir that the Engine loads from.
func (e *Engine) TemplateDir() string {
	return e.templateDir
}

func (e *Engine) limitWriter(w io.Writer) io.Writer {
	if e.config.MaxOutputBytes <= 0 {
		return w
	}
	return &limitedWriter{w: w, remaining: e.config.MaxOutputBytes}
}

// limitedWriter fails the write that would push total output past the
// limit, which aborts template execution mid-render.
type limitedWriter struct {
	w         io.Writer
	remaining int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > lw.remaining {
		return 0, ErrOutputLimit
	}
	lw.remaining -= len(p)
	return lw.w.Write(p)
}
