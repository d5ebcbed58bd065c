package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/lacereza/storefront/internal/platform/config"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultDialTimeout = 10 * time.Second
	envEmulatorHost    = "FIRESTORE_EMULATOR_HOST"
	envGoogleProjectID = "GOOGLE_CLOUD_PROJECT"
)

// ErrProviderClosed is returned by Client once Close has run.
var ErrProviderClosed = errors.New("firestore: provider is closed")

// Provider owns the Firestore client opened at startup. Handlers never create clients on first use.
type Provider struct {
	dialTimeout time.Duration
	clientOpts  []option.ClientOption

	mu     sync.RWMutex
	client *firestore.Client
}

// ProviderOption customises the Provider behaviour.
type ProviderOption func(*Provider)

// WithDialTimeout overrides the timeout used when creating the client.
func WithDialTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		if timeout > 0 {
			p.dialTimeout = timeout
		}
	}
}

// WithClientOptions appends client options applied when the client is created.
func WithClientOptions(opts ...option.ClientOption) ProviderOption {
	return func(p *Provider) {
		if len(opts) > 0 {
			p.clientOpts = append(p.clientOpts, opts...)
		}
	}
}

// Open creates the Firestore client for cfg. It fails fast when no project can be determined.
func Open(ctx context.Context, cfg config.FirestoreConfig, opts ...ProviderOption) (*Provider, error) {
	if ctx == nil {
		return nil, errors.New("firestore: context is required")
	}
	provider := &Provider{dialTimeout: defaultDialTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}

	client, err := provider.createClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	provider.client = client
	return provider, nil
}

// NewProviderFromClient wraps an existing client. Close releases it.
func NewProviderFromClient(client *firestore.Client) *Provider {
	return &Provider{client: client}
}

// Client returns the client opened at startup.
func (p *Provider) Client() (*firestore.Client, error) {
	if p == nil {
		return nil, ErrProviderClosed
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return nil, ErrProviderClosed
	}
	return p.client, nil
}

// Ping issues a cheap read against the given collection to confirm connectivity. A missing document
// counts as reachable.
func (p *Provider) Ping(ctx context.Context, collection, id string) error {
	client, err := p.Client()
	if err != nil {
		return err
	}
	_, err = client.Collection(collection).Doc(id).Get(ctx)
	if err == nil {
		return nil
	}
	wrapped := WrapError("firestore.ping", err)
	var ferr *Error
	if errors.As(wrapped, &ferr) && ferr.IsNotFound() {
		return nil
	}
	return wrapped
}

func (p *Provider) createClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	ctxWithTimeout := ctx
	var cancel context.CancelFunc
	if p.dialTimeout > 0 {
		ctxWithTimeout, cancel = context.WithTimeout(ctx, p.dialTimeout)
	}
	if cancel != nil {
		defer cancel()
	}

	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		projectID = strings.TrimSpace(os.Getenv(envGoogleProjectID))
	}
	if projectID == "" {
		return nil, newMisconfiguredError("firestore.open", errors.New("firestore: project id is required"))
	}

	host := emulatorHost(cfg)
	opts := append([]option.ClientOption(nil), p.clientOpts...)
	if host != "" {
		if os.Getenv(envEmulatorHost) == "" {
			_ = os.Setenv(envEmulatorHost, host)
		}
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	client, err := firestore.NewClient(ctxWithTimeout, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	return client, nil
}

// Close releases the underlying Firestore client. The Provider cannot be reused afterwards.
func (p *Provider) Close(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()
	if client == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- client.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func emulatorHost(cfg config.FirestoreConfig) string {
	if trimmed := strings.TrimSpace(cfg.EmulatorHost); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(os.Getenv(envEmulatorHost))
}
