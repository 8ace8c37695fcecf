package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// sessionRowID pins the single persisted session row.
const sessionRowID = 1

// Repository persists the signed-in session between runs.
type Repository struct {
	db *sql.DB
}

// Open opens or creates the session database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Each pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			user_id INTEGER NOT NULL DEFAULT 0,
			username TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			expires_at TEXT,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, `ALTER TABLE session ADD COLUMN email TEXT NOT NULL DEFAULT ''`); err != nil && !isDuplicateColumnErr(err) {
		return fmt.Errorf("migrate sqlite add session.email: %w", err)
	}
	return nil
}

// SaveSession replaces the stored session.
func (r *Repository) SaveSession(ctx context.Context, s domain.Session) error {
	if strings.TrimSpace(s.Token) == "" {
		return domain.ErrInvalidToken
	}
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session(id, token, user_id, username, email, expires_at, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			username = excluded.username,
			email = excluded.email,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`, sessionRowID, s.Token, s.User.ID, s.User.Username, s.User.Email, nullableTS(s.ExpiresAt), ts(createdAt))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored session or app.ErrNotFound.
func (r *Repository) LoadSession(ctx context.Context) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, username, email, expires_at, created_at
		FROM session WHERE id = ?
	`, sessionRowID)
	var (
		s          domain.Session
		expiresRaw sql.NullString
		createdRaw string
	)
	if err := row.Scan(&s.Token, &s.User.ID, &s.User.Username, &s.User.Email, &expiresRaw, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, app.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	s.ExpiresAt = parseNullTS(expiresRaw)
	s.CreatedAt = parseTS(createdRaw)
	return s, nil
}

// ClearSession deletes the stored session. Clearing an empty store is not an error.
func (r *Repository) ClearSession(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = ?`, sessionRowID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ts formats a timestamp for storage.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS formats an optional timestamp for storage.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses a stored timestamp.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses an optional stored timestamp.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}

// isDuplicateColumnErr reports whether err is sqlite's duplicate column failure.
func isDuplicateColumnErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
