package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	domain "github.com/lacereza/storefront/internal/domain"
	"github.com/lacereza/storefront/internal/repositories"
)

const (
	defaultTable      = "store_data"
	defaultDocumentID = "data"
)

// Open configures a pgx-backed database/sql handle. The URL is parsed here; connections are made on
// first use, so an unreachable server surfaces through Load and Ping rather than at startup.
func Open(_ context.Context, databaseURL string) (*sql.DB, error) {
	if _, err := pgx.ParseConfig(databaseURL); err != nil {
		return nil, repositories.NewStoreError("postgres.open", repositories.StoreErrorMisconfigured, err)
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, repositories.NewStoreError("postgres.open", repositories.StoreErrorMisconfigured, err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(5)
	return db, nil
}

// StoreDocumentRepository keeps the store document in a single row of a JSON column. The json type
// (not jsonb) preserves member order, which carries category order.
type StoreDocumentRepository struct {
	db         *sql.DB
	table      string
	documentID string
	sizeLimit  int

	migrate     bool
	schemaMu    sync.Mutex
	schemaReady bool
}

// Option customises the Postgres repository.
type Option func(*StoreDocumentRepository)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(r *StoreDocumentRepository) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			r.table = trimmed
		}
	}
}

// WithDocumentID overrides the row key.
func WithDocumentID(id string) Option {
	return func(r *StoreDocumentRepository) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			r.documentID = trimmed
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

// WithSchemaMigration creates the table on first use. A failed attempt is retried on the next call.
func WithSchemaMigration() Option {
	return func(r *StoreDocumentRepository) {
		r.migrate = true
	}
}

// NewStoreDocumentRepository wraps an open database handle.
func NewStoreDocumentRepository(db *sql.DB, opts ...Option) (*StoreDocumentRepository, error) {
	if db == nil {
		return nil, errors.New("postgres store repository requires database handle")
	}
	repo := &StoreDocumentRepository{
		db:         db,
		table:      defaultTable,
		documentID: defaultDocumentID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

var _ repositories.StoreDocumentRepository = (*StoreDocumentRepository)(nil)

func (r *StoreDocumentRepository) tableName() string {
	return pgx.Identifier{r.table}.Sanitize()
}

// EnsureSchema creates the document table when missing.
func (r *StoreDocumentRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	document JSON NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, r.tableName())
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return classify("postgres.ensure_schema", err)
	}
	return nil
}

func (r *StoreDocumentRepository) prepare(ctx context.Context) error {
	if !r.migrate {
		return nil
	}
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()
	if r.schemaReady {
		return nil
	}
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	r.schemaReady = true
	return nil
}

// Load returns the stored JSON text.
func (r *StoreDocumentRepository) Load(ctx context.Context) ([]byte, error) {
	if err := r.prepare(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT document::text FROM %s WHERE id = $1`, r.tableName())
	var raw string
	err := r.db.QueryRowContext(ctx, query, r.documentID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.NewStoreError("postgres.load", repositories.StoreErrorNotFound, err)
	}
	if err != nil {
		return nil, classify("postgres.load", err)
	}
	return []byte(raw), nil
}

// Save upserts the document row.
func (r *StoreDocumentRepository) Save(ctx context.Context, doc domain.StoreDocument) error {
	data, err := repositories.EncodeDocument("postgres.save", doc, r.sizeLimit)
	if err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, document, updated_at) VALUES ($1, $2::json, now())
ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`, r.tableName())
	if _, err := r.db.ExecContext(ctx, query, r.documentID, string(data)); err != nil {
		return classify("postgres.save", err)
	}
	return nil
}

// Ping checks the connection.
func (r *StoreDocumentRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return classify("postgres.ping", err)
	}
	return nil
}

// Close releases the database handle.
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

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return repositories.NewStoreError(op, codeForSQLState(pgErr.Code), err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}
	return repositories.NewStoreError(op, repositories.StoreErrorUnknown, err)
}

func codeForSQLState(state string) repositories.StoreErrorCode {
	switch {
	case state == "53100", state == "53200", state == "54000":
		// disk_full, out_of_memory, program_limit_exceeded
		return repositories.StoreErrorQuotaExceeded
	case state == "42501", state == "28000", state == "28P01":
		return repositories.StoreErrorPermissionDenied
	case state == "42P01", state == "3D000", state == "42703":
		return repositories.StoreErrorMisconfigured
	case state == "40001", state == "40P01", state == "23505":
		return repositories.StoreErrorConflict
	case strings.HasPrefix(state, "08"), strings.HasPrefix(state, "57P"):
		return repositories.StoreErrorUnavailable
	default:
		return repositories.StoreErrorUnknown
	}
}
