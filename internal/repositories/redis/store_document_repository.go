package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domain "github.com/lacereza/storefront/internal/domain"
	"github.com/lacereza/storefront/internal/repositories"
)

const (
	defaultKey         = "storefront:document"
	defaultDialTimeout = 5 * time.Second
)

// StoreDocumentRepository keeps the store document as a JSON string under one Redis key.
type StoreDocumentRepository struct {
	client    *goredis.Client
	key       string
	sizeLimit int
}

// Option customises the Redis repository.
type Option func(*StoreDocumentRepository)

// WithKey overrides the Redis key.
func WithKey(key string) Option {
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

// Open parses redisURL and builds a client. The client dials lazily, so an unreachable server is
// reported by Load and Ping instead of failing here.
func Open(_ context.Context, redisURL string, opts ...Option) (*StoreDocumentRepository, error) {
	parsed, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, repositories.NewStoreError("redis.open", repositories.StoreErrorMisconfigured, fmt.Errorf("parse redis url: %w", err))
	}
	if parsed.DialTimeout == 0 {
		parsed.DialTimeout = defaultDialTimeout
	}
	return NewStoreDocumentRepository(goredis.NewClient(parsed), opts...), nil
}

// NewStoreDocumentRepository wraps an existing client. Close releases it.
func NewStoreDocumentRepository(client *goredis.Client, opts ...Option) *StoreDocumentRepository {
	repo := &StoreDocumentRepository{client: client, key: defaultKey}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

var _ repositories.StoreDocumentRepository = (*StoreDocumentRepository)(nil)

// Load returns the stored JSON.
func (r *StoreDocumentRepository) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repositories.NewStoreError("redis.load", repositories.StoreErrorNotFound, err)
	}
	if err != nil {
		return nil, classify("redis.load", err)
	}
	return data, nil
}

// Save overwrites the key without expiry.
func (r *StoreDocumentRepository) Save(ctx context.Context, doc domain.StoreDocument) error {
	data, err := repositories.EncodeDocument("redis.save", doc, r.sizeLimit)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return classify("redis.save", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (r *StoreDocumentRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return classify("redis.ping", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *StoreDocumentRepository) Close() error {
	return r.client.Close()
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "OOM"):
		return repositories.NewStoreError(op, repositories.StoreErrorQuotaExceeded, err)
	case strings.HasPrefix(msg, "NOAUTH"), strings.HasPrefix(msg, "NOPERM"), strings.HasPrefix(msg, "WRONGPASS"):
		return repositories.NewStoreError(op, repositories.StoreErrorPermissionDenied, err)
	case strings.HasPrefix(msg, "WRONGTYPE"):
		return repositories.NewStoreError(op, repositories.StoreErrorMisconfigured, err)
	case strings.HasPrefix(msg, "READONLY"), strings.HasPrefix(msg, "LOADING"), strings.HasPrefix(msg, "MASTERDOWN"):
		return repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}

	var netErr net.Error
	if errors.Is(err, goredis.ErrClosed) || errors.As(err, &netErr) {
		return repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}
	return repositories.NewStoreError(op, repositories.StoreErrorUnknown, err)
}
