package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/lacereza/storefront/internal/domain"
	pfirestore "github.com/lacereza/storefront/internal/platform/firestore"
	"github.com/lacereza/storefront/internal/repositories"
)

const (
	defaultStoreCollection = "store"
	defaultStoreDocumentID = "data"
	// Firestore rejects documents above 1 MiB.
	defaultStoreSizeLimit = 1 << 20
	storeSchemaVersion    = 2
)

// storeRecord is the persisted layout. The document is kept as JSON text so that category order survives
// the round trip; Firestore maps do not preserve key order.
type storeRecord struct {
	Document      string    `firestore:"document"`
	SchemaVersion int       `firestore:"schemaVersion"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

// StoreDocumentRepository implements repositories.StoreDocumentRepository on a single Firestore document.
type StoreDocumentRepository struct {
	provider   *pfirestore.Provider
	slot       *pfirestore.Slot[storeRecord]
	collection string
	documentID string
	sizeLimit  int
	now        func() time.Time
}

// StoreDocumentOption customises the Firestore store repository.
type StoreDocumentOption func(*StoreDocumentRepository)

// WithCollection overrides the collection holding the document.
func WithCollection(name string) StoreDocumentOption {
	return func(r *StoreDocumentRepository) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			r.collection = trimmed
		}
	}
}

// WithDocumentID overrides the fixed document id.
func WithDocumentID(id string) StoreDocumentOption {
	return func(r *StoreDocumentRepository) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			r.documentID = trimmed
		}
	}
}

// WithSizeLimit caps the encoded document size.
func WithSizeLimit(limit int) StoreDocumentOption {
	return func(r *StoreDocumentRepository) {
		if limit > 0 {
			r.sizeLimit = limit
		}
	}
}

// WithClock injects the clock used for updatedAt.
func WithClock(now func() time.Time) StoreDocumentOption {
	return func(r *StoreDocumentRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewStoreDocumentRepository constructs a Firestore-backed store document repository.
func NewStoreDocumentRepository(provider *pfirestore.Provider, opts ...StoreDocumentOption) (*StoreDocumentRepository, error) {
	if provider == nil {
		return nil, errors.New("store document repository requires firestore provider")
	}
	repo := &StoreDocumentRepository{
		provider:   provider,
		collection: defaultStoreCollection,
		documentID: defaultStoreDocumentID,
		sizeLimit:  defaultStoreSizeLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	repo.slot = pfirestore.NewSlot[storeRecord](provider, repo.collection, repo.documentID, decodeStoreRecord)
	return repo, nil
}

var _ repositories.StoreDocumentRepository = (*StoreDocumentRepository)(nil)

// Load returns the stored JSON. Documents written in the native field layout are re-encoded as JSON.
func (r *StoreDocumentRepository) Load(ctx context.Context) ([]byte, error) {
	snap, err := r.slot.Read(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(snap.Data.Document), nil
}

// Save overwrites the document.
func (r *StoreDocumentRepository) Save(ctx context.Context, doc domain.StoreDocument) error {
	data, err := repositories.EncodeDocument(r.op("save"), doc, r.sizeLimit)
	if err != nil {
		return err
	}
	record := storeRecord{
		Document:      string(data),
		SchemaVersion: storeSchemaVersion,
		UpdatedAt:     r.now().UTC(),
	}
	if _, err := r.slot.Write(ctx, record); err != nil {
		return err
	}
	return nil
}

// Ping confirms the database is reachable.
func (r *StoreDocumentRepository) Ping(ctx context.Context) error {
	return r.provider.Ping(ctx, r.collection, r.documentID)
}

func (r *StoreDocumentRepository) op(action string) string {
	return fmt.Sprintf("%s.%s", r.collection, action)
}

func decodeStoreRecord(_ context.Context, snap *firestore.DocumentSnapshot) (storeRecord, error) {
	data := snap.Data()
	if raw, ok := data["document"].(string); ok {
		record := storeRecord{Document: raw}
		if version, ok := data["schemaVersion"].(int64); ok {
			record.SchemaVersion = int(version)
		}
		if updated, ok := data["updatedAt"].(time.Time); ok {
			record.UpdatedAt = updated
		}
		return record, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return storeRecord{}, fmt.Errorf("firestore: encode legacy store document: %w", err)
	}
	return storeRecord{Document: string(encoded), SchemaVersion: 1, UpdatedAt: snap.UpdateTime}, nil
}
