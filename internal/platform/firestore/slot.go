package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
)

// Decoder hydrates a typed value from a snapshot.
type Decoder[T any] func(ctx context.Context, snap *firestore.DocumentSnapshot) (T, error)

// Snapshot is a decoded slot value with its server timestamps.
type Snapshot[T any] struct {
	Data       T
	UpdateTime time.Time
	ReadTime   time.Time
}

// Slot binds a typed value to one fixed document. The storefront keeps its whole state in a single slot,
// so there is no query or list surface here.
type Slot[T any] struct {
	provider   *Provider
	collection string
	id         string
	decode     Decoder[T]
}

// NewSlot constructs a slot at collection/id. A nil decoder uses Firestore's struct decoding.
func NewSlot[T any](provider *Provider, collection, id string, decode Decoder[T]) *Slot[T] {
	if decode == nil {
		decode = func(_ context.Context, snap *firestore.DocumentSnapshot) (T, error) {
			var target T
			err := snap.DataTo(&target)
			return target, err
		}
	}
	return &Slot[T]{
		provider:   provider,
		collection: strings.TrimSpace(collection),
		id:         strings.TrimSpace(id),
		decode:     decode,
	}
}

// Read fetches and decodes the slot. A missing document surfaces as an *Error with IsNotFound.
func (s *Slot[T]) Read(ctx context.Context) (Snapshot[T], error) {
	ref, err := s.ref(ctx)
	if err != nil {
		return Snapshot[T]{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return Snapshot[T]{}, WrapError(s.op("read"), err)
	}
	value, err := s.decode(ctx, snap)
	if err != nil {
		return Snapshot[T]{}, newMisconfiguredError(s.op("decode"), err)
	}
	return Snapshot[T]{Data: value, UpdateTime: snap.UpdateTime, ReadTime: snap.ReadTime}, nil
}

// Write replaces the slot contents.
func (s *Slot[T]) Write(ctx context.Context, value T) (time.Time, error) {
	ref, err := s.ref(ctx)
	if err != nil {
		return time.Time{}, err
	}
	result, err := ref.Set(ctx, value)
	if err != nil {
		return time.Time{}, WrapError(s.op("write"), err)
	}
	return result.UpdateTime, nil
}

func (s *Slot[T]) ref(ctx context.Context) (*firestore.DocumentRef, error) {
	if s == nil || s.provider == nil {
		return nil, newMisconfiguredError("firestore.slot", errors.New("provider is nil"))
	}
	if s.collection == "" || s.id == "" {
		return nil, newMisconfiguredError(s.op("ref"), errors.New("collection and document id are required"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := s.provider.Client()
	if err != nil {
		return nil, err
	}
	return client.Collection(s.collection).Doc(s.id), nil
}

func (s *Slot[T]) op(action string) string {
	return fmt.Sprintf("%s/%s.%s", s.collection, s.id, action)
}
