package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// DocumentSource yields the published document served to shoppers.
type DocumentSource interface {
	Published(ctx context.Context) (StoreDocument, error)
}

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Documents DocumentSource
}

type catalogService struct {
	documents DocumentSource
	fold      cases.Caser
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Documents == nil {
		return nil, errors.New("catalog service: document source is required")
	}
	return &catalogService{documents: deps.Documents, fold: cases.Fold()}, nil
}

func (s *catalogService) Store(ctx context.Context) (StoreDocument, error) {
	return s.documents.Published(ctx)
}

func (s *catalogService) Categories(ctx context.Context) ([]CategorySummary, error) {
	doc, err := s.documents.Published(ctx)
	if err != nil {
		return nil, err
	}
	entries := doc.Categories.Entries()
	summaries := make([]CategorySummary, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, CategorySummary{
			Key:          entry.Key,
			Name:         entry.Category.Name,
			ProductCount: len(entry.Category.Products),
		})
	}
	return summaries, nil
}

// SearchProducts filters a category's products by a case-insensitive substring of name or description.
// An empty term returns every product in document order.
func (s *catalogService) SearchProducts(ctx context.Context, categoryKey string, term string) ([]Product, error) {
	doc, err := s.documents.Published(ctx)
	if err != nil {
		return nil, err
	}
	category, ok := doc.Categories.Get(categoryKey)
	if !ok {
		return nil, ErrCategoryNotFound
	}

	needle := s.fold.String(strings.TrimSpace(term))
	matches := make([]Product, 0, len(category.Products))
	for _, product := range category.Products {
		if needle == "" ||
			strings.Contains(s.fold.String(product.Name), needle) ||
			strings.Contains(s.fold.String(product.Description), needle) {
			matches = append(matches, product.Clone())
		}
	}
	return matches, nil
}

func (s *catalogService) Product(ctx context.Context, productID int64) (ProductResult, error) {
	doc, err := s.documents.Published(ctx)
	if err != nil {
		return ProductResult{}, err
	}
	product, key, ok := doc.FindProduct(productID)
	if !ok {
		return ProductResult{}, ErrProductNotFound
	}
	return ProductResult{CategoryKey: key, Product: product.Clone()}, nil
}
