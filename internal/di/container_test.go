package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/lacereza/storefront/internal/platform/config"
	"github.com/lacereza/storefront/internal/repositories/memory"
	"github.com/lacereza/storefront/internal/services"
)

func memoryConfig() config.Config {
	return config.Config{
		Store: config.StoreConfig{Backend: config.BackendMemory, DocumentKey: "storeData"},
		Media: config.MediaConfig{
			MaxDimension:     800,
			JPEGQuality:      75,
			MaxUploadBytes:   1 << 20,
			MaxDocumentBytes: 1 << 20,
			Concurrency:      2,
			Mode:             config.MediaModeInline,
		},
		Checkout: config.CheckoutConfig{ChatNumber: "+57 300 123 4567"},
	}
}

func TestNewContainerMemoryBackend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewContainer(ctx, memoryConfig(),
		WithClock(func() time.Time { return now }),
		WithBuildInfo(services.BuildInfo{Version: "test"}),
	)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(ctx) })

	if c.Services.Store == nil || c.Services.Catalog == nil || c.Services.Checkout == nil || c.Services.System == nil {
		t.Fatalf("expected services to be wired: %#v", c.Services)
	}
	if c.Services.AI == nil || c.Services.AI.Enabled() {
		t.Fatalf("expected AI helpers present but disabled without a generator")
	}

	report, err := c.Services.System.HealthReport(ctx)
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Status == "ok" {
		t.Fatalf("expected readiness to fail before the document is loaded")
	}

	if _, err := c.Services.Store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	report, err = c.Services.System.HealthReport(ctx)
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Status != "ok" {
		t.Fatalf("expected ok after load, got %s: %#v", report.Status, report.Checks)
	}

	doc, err := c.Services.Catalog.Store(ctx)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if len(doc.Categories.Keys()) == 0 {
		t.Fatalf("expected seeded categories")
	}
}

func TestNewContainerStartsWhileStoreIsDown(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	cfg := memoryConfig()
	cfg.Store.Backend = config.BackendRedis
	cfg.Redis = config.RedisConfig{URL: "redis://" + addr, Key: "storefront:test"}

	ctx := context.Background()
	c, err := NewContainer(ctx, cfg)
	if err != nil {
		t.Fatalf("expected container while redis is down, got %v", err)
	}
	t.Cleanup(func() { _ = c.Close(ctx) })

	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := c.Services.Store.Load(loadCtx); !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if c.Services.Store.Loaded() {
		t.Fatalf("expected store to stay unloaded")
	}
	report, err := c.Services.System.HealthReport(ctx)
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Status != "error" {
		t.Fatalf("expected readiness error, got %s", report.Status)
	}
}

func TestOpenRegistryRejectsMalformedRedisURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = config.BackendRedis
	cfg.Redis.URL = "mysql://nope"
	if _, err := OpenRegistry(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for malformed redis url")
	}
}

func TestNewContainerWithoutChatNumber(t *testing.T) {
	cfg := memoryConfig()
	cfg.Checkout.ChatNumber = ""
	c, err := NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if c.Services.Checkout != nil {
		t.Fatalf("expected checkout to be disabled")
	}
}

func TestNewContainerUsesSuppliedRegistry(t *testing.T) {
	repo := memory.NewStoreDocumentRepository(0)
	closed := false
	reg := NewRegistry(repo, func(context.Context) error {
		closed = true
		return nil
	})

	cfg := memoryConfig()
	cfg.Store.Backend = "unsupported"
	c, err := NewContainer(context.Background(), cfg, WithRegistry(reg))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if c.Repositories.StoreDocuments() != repo {
		t.Fatalf("expected supplied repository")
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closed {
		t.Fatalf("expected registry closer to run")
	}
}

func TestOpenRegistryRejectsUnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "cassandra"
	if _, err := OpenRegistry(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestRegistryCloseJoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	var order []string
	reg := NewRegistry(memory.NewStoreDocumentRepository(0),
		func(context.Context) error { order = append(order, "a"); return first },
		func(context.Context) error { order = append(order, "b"); return second },
	)
	err := reg.Close(context.Background())
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if len(order) != 2 || order[0] != "b" {
		t.Fatalf("expected reverse close order, got %v", order)
	}
}
