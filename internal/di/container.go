package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/lacereza/storefront/internal/media"
	"github.com/lacereza/storefront/internal/platform/config"
	"github.com/lacereza/storefront/internal/platform/jobs"
	"github.com/lacereza/storefront/internal/platform/observability"
	"github.com/lacereza/storefront/internal/platform/storage"
	"github.com/lacereza/storefront/internal/repositories"
	"github.com/lacereza/storefront/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Store    services.StoreService
	Catalog  services.CatalogService
	Checkout services.CheckoutService
	AI       services.AIService
	System   services.SystemService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services

	closers []func(context.Context) error
}

// Option customises container construction, mainly so tests can swap out cloud clients.
type Option func(*containerOptions)

type containerOptions struct {
	registry      repositories.Registry
	logger        *zap.Logger
	build         services.BuildInfo
	pubsubClient  *pubsub.Client
	storageClient *gcs.Client
	generator     services.ContentGenerator
	clock         func() time.Time
}

// WithRegistry supplies a prebuilt repository registry instead of opening the configured backend.
func WithRegistry(reg repositories.Registry) Option {
	return func(o *containerOptions) {
		o.registry = reg
	}
}

// WithLogger sets the fallback logger used by services outside a request.
func WithLogger(logger *zap.Logger) Option {
	return func(o *containerOptions) {
		o.logger = logger
	}
}

// WithBuildInfo records version metadata exposed by health endpoints.
func WithBuildInfo(build services.BuildInfo) Option {
	return func(o *containerOptions) {
		o.build = build
	}
}

// WithPubSubClient reuses an existing Pub/Sub client for save events.
func WithPubSubClient(client *pubsub.Client) Option {
	return func(o *containerOptions) {
		o.pubsubClient = client
	}
}

// WithStorageClient reuses an existing Cloud Storage client for bucket media.
func WithStorageClient(client *gcs.Client) Option {
	return func(o *containerOptions) {
		o.storageClient = client
	}
}

// WithContentGenerator replaces the Gemini client behind the AI helpers.
func WithContentGenerator(generator services.ContentGenerator) Option {
	return func(o *containerOptions) {
		o.generator = generator
	}
}

// WithClock overrides the clock shared by services.
func WithClock(clock func() time.Time) Option {
	return func(o *containerOptions) {
		o.clock = clock
	}
}

// NewContainer constructs the runtime dependencies for cfg.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	options := containerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	if options.clock == nil {
		options.clock = time.Now
	}

	c := &Container{Config: cfg}

	reg := options.registry
	if reg == nil {
		opened, err := OpenRegistry(ctx, cfg)
		if err != nil {
			return nil, err
		}
		reg = opened
	}
	c.Repositories = reg

	if err := c.buildServices(ctx, options); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return c, nil
}

// Close releases clients and repository connections in reverse construction order.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Container) addCloser(fn func(context.Context) error) {
	c.closers = append(c.closers, fn)
}

func (c *Container) buildServices(ctx context.Context, opts containerOptions) error {
	cfg := c.Config
	logger := opts.logger
	documents := c.Repositories.StoreDocuments()
	if documents == nil {
		return errors.New("di: store document repository is required")
	}

	normalizer := media.NewNormalizer(
		media.WithMaxDimension(cfg.Media.MaxDimension),
		media.WithQuality(cfg.Media.JPEGQuality),
		media.WithMaxBytes(cfg.Media.MaxUploadBytes),
		media.WithConcurrency(cfg.Media.Concurrency),
	)

	checks := []repositories.DependencyCheck{{
		Name:     "document_store",
		Critical: true,
		Check:    documents.Ping,
	}}

	sink, bucketCheck, err := c.buildMediaSink(ctx, opts)
	if err != nil {
		return err
	}
	if bucketCheck != nil {
		checks = append(checks, *bucketCheck)
	}

	events, eventsCheck, err := c.buildEvents(ctx, opts)
	if err != nil {
		return err
	}
	if eventsCheck != nil {
		checks = append(checks, *eventsCheck)
	}

	storeDeps := services.StoreServiceDeps{
		Repository: documents,
		Normalizer: normalizer,
		Media:      sink,
		Clock:      opts.clock,
		Logger:     observability.EventLogger(logger, "store"),
	}
	if events != nil {
		storeDeps.Events = events
	}
	store, err := services.NewStoreService(storeDeps)
	if err != nil {
		return fmt.Errorf("build store service: %w", err)
	}

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{Documents: store})
	if err != nil {
		return fmt.Errorf("build catalog service: %w", err)
	}

	var checkout services.CheckoutService
	if strings.TrimSpace(cfg.Checkout.ChatNumber) != "" {
		checkout, err = services.NewCheckoutService(services.CheckoutServiceDeps{
			Documents:      store,
			ChatNumber:     cfg.Checkout.ChatNumber,
			CurrencyLocale: cfg.Checkout.CurrencyLocale,
			Logger:         observability.EventLogger(logger, "checkout"),
		})
		if err != nil {
			return fmt.Errorf("build checkout service: %w", err)
		}
	} else {
		logger.Warn("checkout chat number not configured; checkout links disabled")
	}

	generator := opts.generator
	if generator == nil && cfg.AI.Configured() {
		gemini, err := services.NewGenAIGenerator(ctx, cfg.AI.APIKey)
		if err != nil {
			return fmt.Errorf("build ai generator: %w", err)
		}
		generator = gemini
	}
	ai := services.NewAIService(services.AIServiceDeps{
		Generator:  generator,
		TextModel:  cfg.AI.TextModel,
		ImageModel: cfg.AI.ImageModel,
		Logger:     observability.EventLogger(logger, "ai"),
	})

	health, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return fmt.Errorf("build health repository: %w", err)
	}
	system, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: health,
		Clock:            opts.clock,
		Build:            opts.build,
		Loaded:           store.Loaded,
	})
	if err != nil {
		return fmt.Errorf("build system service: %w", err)
	}

	c.Services = Services{
		Store:    store,
		Catalog:  catalog,
		Checkout: checkout,
		AI:       ai,
		System:   system,
	}
	return nil
}

func (c *Container) buildMediaSink(ctx context.Context, opts containerOptions) (services.MediaSink, *repositories.DependencyCheck, error) {
	cfg := c.Config
	if cfg.Media.Mode != config.MediaModeBucket {
		return services.NewInlineMediaSink(), nil, nil
	}

	client := opts.storageClient
	if client == nil {
		created, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		client = created
		c.addCloser(func(context.Context) error { return created.Close() })
	}

	uploader, err := storage.NewUploader(client, cfg.Storage.MediaBucket, storage.WithPublicBaseURL(cfg.Storage.PublicBaseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("build media uploader: %w", err)
	}
	sink, err := services.NewBucketMediaSink(services.BucketMediaSinkDeps{
		Uploader: uploader,
		Logger:   observability.EventLogger(opts.logger, "media"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build media sink: %w", err)
	}

	bucket := client.Bucket(cfg.Storage.MediaBucket)
	check := &repositories.DependencyCheck{
		Name: "media_bucket",
		Check: func(ctx context.Context) error {
			_, err := bucket.Attrs(ctx)
			return err
		},
	}
	return sink, check, nil
}

func (c *Container) buildEvents(ctx context.Context, opts containerOptions) (*jobs.PubSubDocumentPublisher, *repositories.DependencyCheck, error) {
	cfg := c.Config.Events
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, nil, nil
	}

	client := opts.pubsubClient
	if client == nil {
		if strings.TrimSpace(cfg.ProjectID) == "" {
			return nil, nil, errors.New("di: events project id is required when a topic is configured")
		}
		created, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("create pubsub client: %w", err)
		}
		client = created
		c.addCloser(func(context.Context) error { return created.Close() })
	}

	publisher, err := jobs.NewPubSubDocumentPublisher(client.Topic(cfg.Topic))
	if err != nil {
		return nil, nil, fmt.Errorf("build document publisher: %w", err)
	}
	c.addCloser(func(context.Context) error {
		publisher.Stop()
		return nil
	})

	check := &repositories.DependencyCheck{
		Name:  "events",
		Check: publisher.Ping,
	}
	return publisher, check, nil
}
