//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	domain "github.com/lacereza/storefront/internal/domain"
	"github.com/lacereza/storefront/internal/repositories"
)

func TestStoreDocumentRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, databaseURL)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	repo, err := NewStoreDocumentRepository(db, WithTable("store_data_test"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS "store_data_test"`); err != nil {
		t.Fatalf("reset table: %v", err)
	}

	_, err = repo.Load(ctx)
	var storeErr *repositories.StoreError
	if !errors.As(err, &storeErr) || !storeErr.IsMisconfigured() {
		t.Fatalf("expected misconfigured before schema exists, got %v", err)
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	_, err = repo.Load(ctx)
	if !errors.As(err, &storeErr) || !storeErr.IsNotFound() {
		t.Fatalf("expected not found on empty table, got %v", err)
	}

	doc := domain.DefaultStoreDocument()
	doc.Categories.Set("b_first", domain.Category{Name: "B", Products: []domain.Product{}})
	doc.Categories.Set("a_second", domain.Category{Name: "A", Products: []domain.Product{}})
	for i := 0; i < 2; i++ {
		if err := repo.Save(ctx, doc); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	raw, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, _, err := domain.Reconcile(domain.DefaultStoreDocument(), raw)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if diff := cmp.Diff(doc.Categories.Keys(), got.Categories.Keys()); diff != "" {
		t.Fatalf("category order changed (-want +got):\n%s", diff)
	}
}
