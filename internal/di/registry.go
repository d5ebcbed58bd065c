package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/lacereza/storefront/internal/platform/config"
	pfirestore "github.com/lacereza/storefront/internal/platform/firestore"
	"github.com/lacereza/storefront/internal/repositories"
	firestoreRepo "github.com/lacereza/storefront/internal/repositories/firestore"
	"github.com/lacereza/storefront/internal/repositories/memory"
	"github.com/lacereza/storefront/internal/repositories/postgres"
	redisRepo "github.com/lacereza/storefront/internal/repositories/redis"
	"github.com/lacereza/storefront/internal/repositories/sqlite"
)

type registry struct {
	documents repositories.StoreDocumentRepository
	closers   []func(context.Context) error
}

var _ repositories.Registry = (*registry)(nil)

// NewRegistry wraps an already constructed document repository, mainly for tests.
func NewRegistry(documents repositories.StoreDocumentRepository, closers ...func(context.Context) error) repositories.Registry {
	return &registry{documents: documents, closers: closers}
}

func (r *registry) StoreDocuments() repositories.StoreDocumentRepository {
	return r.documents
}

func (r *registry) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenRegistry builds the document store selected by cfg.Store.Backend. Only configuration errors
// fail here; a store that is down is reported by Load and the readiness checks.
func OpenRegistry(ctx context.Context, cfg config.Config) (repositories.Registry, error) {
	limit := cfg.Media.MaxDocumentBytes

	switch cfg.Store.Backend {
	case config.BackendFirestore:
		provider, err := pfirestore.Open(ctx, cfg.Firestore)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		repo, err := firestoreRepo.NewStoreDocumentRepository(provider,
			firestoreRepo.WithCollection(cfg.Firestore.Collection),
			firestoreRepo.WithDocumentID(cfg.Store.DocumentKey),
			firestoreRepo.WithSizeLimit(limit),
		)
		if err != nil {
			_ = provider.Close(ctx)
			return nil, fmt.Errorf("build firestore store repository: %w", err)
		}
		return NewRegistry(repo, provider.Close), nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo, err := postgres.NewStoreDocumentRepository(db,
			postgres.WithTable(cfg.Postgres.Table),
			postgres.WithDocumentID(cfg.Store.DocumentKey),
			postgres.WithSizeLimit(limit),
			postgres.WithSchemaMigration(),
		)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("build postgres store repository: %w", err)
		}
		return NewRegistry(repo, func(context.Context) error { return repo.Close() }), nil

	case config.BackendRedis:
		repo, err := redisRepo.Open(ctx, cfg.Redis.URL,
			redisRepo.WithKey(cfg.Redis.Key),
			redisRepo.WithSizeLimit(limit),
		)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		return NewRegistry(repo, func(context.Context) error { return repo.Close() }), nil

	case config.BackendSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLite.Path,
			sqlite.WithDocumentKey(cfg.Store.DocumentKey),
			sqlite.WithSizeLimit(limit),
		)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return NewRegistry(repo, func(context.Context) error { return repo.Close() }), nil

	case config.BackendMemory:
		return NewRegistry(memory.NewStoreDocumentRepository(limit)), nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
