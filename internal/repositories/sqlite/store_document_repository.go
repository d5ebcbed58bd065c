package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	domain "github.com/lacereza/storefront/internal/domain"
	"github.com/lacereza/storefront/internal/repositories"
)

const defaultDocumentKey = "data"

// StoreDocumentRepository keeps the document in a local SQLite file.
//
// Tables:
//
//	documents(key, data, updated_at)  PRIMARY KEY (key)
type StoreDocumentRepository struct {
	db        *sql.DB
	key       string
	sizeLimit int
}

// Option customises the SQLite repository.
type Option func(*StoreDocumentRepository)

// WithDocumentKey overrides the row key.
func WithDocumentKey(key string) Option {
	return func(r *StoreDocumentRepository) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			r.key = trimmed
		}
	}
}

// WithSizeLimit caps the encoded document size. Zero disables the check.
func WithSizeLimit(limit int) Option {
	return func(r *StoreDocumentRepository) {
		if limit >= 0 {
			r.sizeLimit = limit
		}
	}
}

// Open creates the database file (and its directory) when missing and prepares the schema.
func Open(ctx context.Context, dbPath string, opts ...Option) (*StoreDocumentRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, repositories.NewStoreError("sqlite.open", repositories.StoreErrorMisconfigured, err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, repositories.NewStoreError("sqlite.open", repositories.StoreErrorMisconfigured, err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, classify("sqlite.open", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, classify("sqlite.open", err)
	}

	repo := &StoreDocumentRepository{db: db, key: defaultDocumentKey}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

var _ repositories.StoreDocumentRepository = (*StoreDocumentRepository)(nil)

// Load returns the stored JSON text.
func (r *StoreDocumentRepository) Load(ctx context.Context) ([]byte, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE key = ?", r.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.NewStoreError("sqlite.load", repositories.StoreErrorNotFound, err)
	}
	if err != nil {
		return nil, classify("sqlite.load", err)
	}
	return []byte(raw), nil
}

// Save upserts the document row.
func (r *StoreDocumentRepository) Save(ctx context.Context, doc domain.StoreDocument) error {
	data, err := repositories.EncodeDocument("sqlite.save", doc, r.sizeLimit)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		r.key, string(data),
	)
	if err != nil {
		return classify("sqlite.save", err)
	}
	return nil
}

// Ping checks the database handle.
func (r *StoreDocumentRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return classify("sqlite.ping", err)
	}
	return nil
}

// Close releases the database.
func (r *StoreDocumentRepository) Close() error {
	return r.db.Close()
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return repositories.NewStoreError(op, codeForSQLite(sqliteErr.Code), err)
	}
	return repositories.NewStoreError(op, repositories.StoreErrorUnknown, err)
}

func codeForSQLite(code sqlite3.ErrNo) repositories.StoreErrorCode {
	switch code {
	case sqlite3.ErrFull, sqlite3.ErrTooBig:
		return repositories.StoreErrorQuotaExceeded
	case sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrAuth:
		return repositories.StoreErrorPermissionDenied
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr:
		return repositories.StoreErrorUnavailable
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
		return repositories.StoreErrorMisconfigured
	default:
		return repositories.StoreErrorUnknown
	}
}
