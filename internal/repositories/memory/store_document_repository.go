package memory

import (
	"context"
	"sync"

	domain "github.com/lacereza/storefront/internal/domain"
	"github.com/lacereza/storefront/internal/repositories"
)

// StoreDocumentRepository keeps the encoded document in memory. Data is lost on restart.
// Safe for concurrent use.
type StoreDocumentRepository struct {
	mu        sync.RWMutex
	data      []byte
	sizeLimit int
	saves     int
}

// NewStoreDocumentRepository returns an empty repository. A positive sizeLimit rejects larger documents.
func NewStoreDocumentRepository(sizeLimit int) *StoreDocumentRepository {
	return &StoreDocumentRepository{sizeLimit: sizeLimit}
}

// Seed stores raw JSON as if an earlier build had written it.
func (r *StoreDocumentRepository) Seed(raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append([]byte(nil), raw...)
}

var _ repositories.StoreDocumentRepository = (*StoreDocumentRepository)(nil)

// Load returns a copy of the stored JSON.
func (r *StoreDocumentRepository) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.data == nil {
		return nil, repositories.NewStoreError("memory.load", repositories.StoreErrorNotFound, nil)
	}
	return append([]byte(nil), r.data...), nil
}

// Save replaces the stored document.
func (r *StoreDocumentRepository) Save(ctx context.Context, doc domain.StoreDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := repositories.EncodeDocument("memory.save", doc, r.sizeLimit)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	r.saves++
	return nil
}

// Ping always succeeds.
func (r *StoreDocumentRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Saves reports how many times Save succeeded.
func (r *StoreDocumentRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
