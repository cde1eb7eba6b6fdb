// Package store keeps template sources in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twg/feather/pkg/feather"
)

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	name TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	escape_mode TEXT NOT NULL,
	updated_at INTEGER
);
`

// Store is a named collection of templates. Only the source text and the
// escape mode of a template are stored.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Entry describes one stored template.
type Entry struct {
	Name      string
	Escape    feather.EscapeMode
	Size      int
	UpdatedAt time.Time
}

// Open opens the database at dsn and creates the schema if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening template store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating template schema: %w", err)
	}
	return &Store{db: db, logger: slog.Default().With("component", "store")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores t under name, replacing any previous entry.
func (s *Store) Put(ctx context.Context, name string, t *feather.Template) error {
	if name == "" {
		return fmt.Errorf("%w: empty template name", feather.ErrInvalidArgument)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (name, source, escape_mode, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET source = excluded.source, escape_mode = excluded.escape_mode, updated_at = excluded.updated_at`,
		name, t.Source(), t.Escape().String(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing template %q: %w", name, err)
	}
	s.logger.Debug("template stored", "name", name, "escape", t.Escape(), "size", len(t.Source()))
	return nil
}

// Get returns the template stored under name. A missing name yields
// feather.ErrTemplateNotFound.
func (s *Store) Get(ctx context.Context, name string) (*feather.Template, error) {
	var src, escape string
	err := s.db.QueryRowContext(ctx, "SELECT source, escape_mode FROM templates WHERE name = ?", name).Scan(&src, &escape)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, feather.ErrTemplateNotFound{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("reading template %q: %w", name, err)
	}
	return feather.New(src, feather.WithName(name), feather.WithEscapeName(escape))
}

// Delete removes name. Deleting a missing name yields
// feather.ErrTemplateNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting template %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return feather.ErrTemplateNotFound{Name: name}
	}
	s.logger.Debug("template deleted", "name", name)
	return nil
}

// List returns every stored template ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, escape_mode, length(source), COALESCE(updated_at, 0) FROM templates ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			escape  string
			updated int64
		)
		if err := rows.Scan(&e.Name, &escape, &e.Size, &updated); err != nil {
			return nil, fmt.Errorf("listing templates: %w", err)
		}
		if e.Escape, err = feather.ParseEscapeMode(escape); err != nil {
			return nil, fmt.Errorf("template %q: %w", e.Name, err)
		}
		e.UpdatedAt = time.Unix(updated, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Load implements feather.Loader without a deadline. Use Loader to bind
// lookups to a render's context.
func (s *Store) Load(name string) (any, error) {
	return Loader{Store: s}.Load(name)
}

// Loader serves templates from a Store with every query bound to Context.
type Loader struct {
	Store *Store
	// Context bounds every query; nil means context.Background.
	Context context.Context
}

func (l Loader) Load(name string) (any, error) {
	ctx := l.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return l.Store.Get(ctx, name)
}

var (
	_ feather.Loader = (*Store)(nil)
	_ feather.Loader = Loader{}
)
