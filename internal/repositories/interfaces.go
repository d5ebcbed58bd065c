package repositories

import (
	"context"

	domain "github.com/lacereza/storefront/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	StoreDocuments() StoreDocumentRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
	IsPermissionDenied() bool
	IsQuotaExceeded() bool
	IsMisconfigured() bool
}

// StoreDocumentRepository persists the single store document under a fixed key. Load returns the raw
// stored JSON so that callers can reconcile older shapes; a missing document is reported through
// RepositoryError.IsNotFound. Save upserts the document verbatim, last writer wins.
type StoreDocumentRepository interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc domain.StoreDocument) error
	Ping(ctx context.Context) error
}

// HealthRepository reports dependency health for readiness probes.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
