package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/CTAG07/marksafe/pkg/markup"
	"github.com/google/uuid"
)

// ErrSnippetNotFound is returned when a snippet id or name does not
// exist in the store.
var ErrSnippetNotFound = errors.New("snippet not found")

// Snippet is a named markup fragment. Trusted snippets were authored
// by an operator and render verbatim; untrusted ones carry raw input
// and are escaped when resolved.
type Snippet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Trusted   bool      `json:"trusted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resolve returns the snippet content as Markup. This is the single
// place where stored content crosses the safety boundary: trusted rows
// take the trusted-literal path, everything else goes through Escape.
func (s Snippet) Resolve() markup.Markup {
	if s.Trusted {
		return markup.New(s.Content)
	}
	return markup.Escape(s.Content)
}

// setupSnippetSchema creates the snippet table if it doesn't exist.
func setupSnippetSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS snippets (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		content    TEXT NOT NULL,
		trusted    INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);`)
	return err
}

// SnippetStore persists snippets in a SQLite database.
type SnippetStore struct {
	db *sql.DB
}

// NewSnippetStore creates a SnippetStore over an initialized database.
func NewSnippetStore(db *sql.DB) *SnippetStore {
	return &SnippetStore{db: db}
}

// Insert stores a new snippet and returns it with its generated id.
func (st *SnippetStore) Insert(ctx context.Context, name, content string, trusted bool) (Snippet, error) {
	s := Snippet{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   content,
		Trusted:   trusted,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := st.db.ExecContext(ctx,
		"INSERT INTO snippets (id, name, content, trusted, updated_at) VALUES (?, ?, ?, ?, ?)",
		s.ID, s.Name, s.Content, s.Trusted, s.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return Snippet{}, fmt.Errorf("failed to insert snippet %q: %w", name, err)
	}
	return s, nil
}

// Get retrieves a snippet by id.
func (st *SnippetStore) Get(ctx context.Context, id string) (Snippet, error) {
	row := st.db.QueryRowContext(ctx,
		"SELECT id, name, content, trusted, updated_at FROM snippets WHERE id = ?", id)
	return scanSnippet(row)
}

// GetByName retrieves a snippet by its unique name.
func (st *SnippetStore) GetByName(ctx context.Context, name string) (Snippet, error) {
	row := st.db.QueryRowContext(ctx,
		"SELECT id, name, content, trusted, updated_at FROM snippets WHERE name = ?", name)
	return scanSnippet(row)
}

// List returns all snippets ordered by name.
func (st *SnippetStore) List(ctx context.Context) ([]Snippet, error) {
	rows, err := st.db.QueryContext(ctx,
		"SELECT id, name, content, trusted, updated_at FROM snippets ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var snippets []Snippet
	for rows.Next() {
		var s Snippet
		var updated string
		if err = rows.Scan(&s.ID, &s.Name, &s.Content, &s.Trusted, &updated); err != nil {
			return nil, err
		}
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		snippets = append(snippets, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return snippets, nil
}

// Update replaces the content and trust flag of an existing snippet.
func (st *SnippetStore) Update(ctx context.Context, id, content string, trusted bool) error {
	res, err := st.db.ExecContext(ctx,
		"UPDATE snippets SET content = ?, trusted = ?, updated_at = ? WHERE id = ?",
		content, trusted, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update snippet %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSnippetNotFound
	}
	return nil
}

// Delete removes a snippet by id.
func (st *SnippetStore) Delete(ctx context.Context, id string) error {
	res, err := st.db.ExecContext(ctx, "DELETE FROM snippets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete snippet %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSnippetNotFound
	}
	return nil
}

// ResolveAll returns every snippet resolved to safe markup, keyed by
// name. This is the data set handed to templates.
func (st *SnippetStore) ResolveAll(ctx context.Context) (map[string]markup.Markup, error) {
	snippets, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	resolved := make(map[string]markup.Markup, len(snippets))
	for _, s := range snippets {
		resolved[s.Name] = s.Resolve()
	}
	return resolved, nil
}

func scanSnippet(row *sql.Row) (Snippet, error) {
	var s Snippet
	var updated string
	err := row.Scan(&s.ID, &s.Name, &s.Content, &s.Trusted, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snippet{}, ErrSnippetNotFound
		}
		return Snippet{}, err
	}
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return s, nil
}
