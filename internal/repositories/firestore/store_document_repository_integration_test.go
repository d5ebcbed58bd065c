//go:build integration

package firestore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	domain "github.com/lacereza/storefront/internal/domain"
	pconfig "github.com/lacereza/storefront/internal/platform/config"
	pfirestore "github.com/lacereza/storefront/internal/platform/firestore"
	"github.com/lacereza/storefront/internal/repositories"
)

func TestStoreDocumentRepositoryIntegration(t *testing.T) {
	endpoint := startEmulator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	provider, err := pfirestore.Open(ctx, pconfig.FirestoreConfig{ProjectID: "store-test", EmulatorHost: endpoint})
	if err != nil {
		t.Fatalf("open provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Close(context.Background()) })

	repo, err := NewStoreDocumentRepository(provider, WithCollection("store"), WithDocumentID("data"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	_, err = repo.Load(ctx)
	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
		t.Fatalf("expected not found before first save, got %v", err)
	}

	doc := domain.DefaultStoreDocument()
	doc.Name = "Night Shop"
	doc.Categories.Set("aaa_last", domain.Category{Name: "Zeta", Products: []domain.Product{}})
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, _, err := domain.Reconcile(domain.DefaultStoreDocument(), raw)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	// Documents written field by field by older builds are still readable.
	client, err := provider.Client()
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	legacy := map[string]any{
		"name":   "Legacy",
		"footer": map[string]any{"mainText": "old footer"},
	}
	if _, err := client.Collection("store").Doc("data").Set(ctx, legacy); err != nil {
		t.Fatalf("seed legacy layout: %v", err)
	}
	raw, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("load legacy: %v", err)
	}
	if !strings.Contains(string(raw), `"Legacy"`) {
		t.Fatalf("expected legacy fields in %s", raw)
	}

	small, err := NewStoreDocumentRepository(provider, WithSizeLimit(64))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	err = small.Save(ctx, doc)
	if !errors.As(err, &repoErr) || !repoErr.IsQuotaExceeded() {
		t.Fatalf("expected quota error, got %v", err)
	}
}
