package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/lacereza/storefront/internal/domain"
	"github.com/lacereza/storefront/internal/media"
	"github.com/lacereza/storefront/internal/repositories"
)

const (
	categoryKeyPrefix   = "category_"
	defaultCategoryName = "New Category"
)

var (
	// ErrStoreNotLoaded indicates no document has been loaded into the session yet.
	ErrStoreNotLoaded = errors.New("store service: document not loaded")
	// ErrStoreUnavailable indicates the document store could not be reached.
	ErrStoreUnavailable = errors.New("store service: document store unavailable")
	// ErrStoreMisconfigured indicates the document store rejected the connection setup or access rules.
	ErrStoreMisconfigured = errors.New("store service: document store misconfigured")
	// ErrStoreDocumentInvalid indicates the stored payload is not a JSON object.
	ErrStoreDocumentInvalid = errors.New("store service: stored document is invalid")
	// ErrStorageQuotaExceeded indicates the document no longer fits the store's size limit.
	ErrStorageQuotaExceeded = errors.New("store service: storage quota exceeded")
	// ErrStoragePermissionDenied indicates the store refused the write.
	ErrStoragePermissionDenied = errors.New("store service: storage permission denied")
	// ErrSaveFailed covers every other save failure.
	ErrSaveFailed = errors.New("store service: save failed")

	// ErrLastCategory indicates an attempt to delete the only remaining category.
	ErrLastCategory = errors.New("store service: at least one category is required")
	// ErrCategoryNotFound indicates the category key does not exist.
	ErrCategoryNotFound = errors.New("store service: category not found")
	// ErrCategoryExists indicates the requested category key is already taken.
	ErrCategoryExists = errors.New("store service: category already exists")
	// ErrProductNotFound indicates the product id does not exist in the category.
	ErrProductNotFound = errors.New("store service: product not found")
	// ErrGalleryIndexOutOfRange indicates a gallery index outside the current gallery.
	ErrGalleryIndexOutOfRange = errors.New("store service: gallery index out of range")
	// ErrInvalidInput indicates the caller supplied invalid input.
	ErrInvalidInput = errors.New("store service: invalid input")

	// ErrImageUnreadable indicates an upload could not be read.
	ErrImageUnreadable = errors.New("store service: image unreadable")
	// ErrImageInvalid indicates an upload is not a decodable image.
	ErrImageInvalid = errors.New("store service: image invalid")
	// ErrImageTooLarge indicates an upload exceeds the configured limits.
	ErrImageTooLarge = errors.New("store service: image too large")
	// ErrImageProcessing indicates the normalised image could not be produced or stored.
	ErrImageProcessing = errors.New("store service: image processing failed")
)

// StoreServiceDeps wires the collaborators of the editing session.
type StoreServiceDeps struct {
	Repository   repositories.StoreDocumentRepository
	Normalizer   ImageNormalizer
	Media        MediaSink
	Events       StoreEventPublisher
	Defaults     func() StoreDocument
	Clock        func() time.Time
	KeyGenerator func() string
	Logger       func(context.Context, string, map[string]any)
}

type storeService struct {
	repo       repositories.StoreDocumentRepository
	normalizer ImageNormalizer
	media      MediaSink
	events     StoreEventPublisher
	defaults   func() StoreDocument
	now        func() time.Time
	newKey     func() string
	sanitize   func(string) string
	logger     func(context.Context, string, map[string]any)

	// saveMu orders saves so revisions reach the store in sequence.
	saveMu sync.Mutex

	mu        sync.RWMutex
	loaded    bool
	working   StoreDocument
	published StoreDocument
	revision  int64
}

var _ StoreService = (*storeService)(nil)

// NewStoreService constructs the editing session. Load must succeed before any other call.
func NewStoreService(deps StoreServiceDeps) (StoreService, error) {
	if deps.Repository == nil {
		return nil, errors.New("store service: repository is required")
	}
	if deps.Normalizer == nil {
		return nil, errors.New("store service: image normalizer is required")
	}

	sink := deps.Media
	if sink == nil {
		sink = NewInlineMediaSink()
	}
	defaults := deps.Defaults
	if defaults == nil {
		defaults = domain.DefaultStoreDocument
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	keyGen := deps.KeyGenerator
	if keyGen == nil {
		keyGen = func() string { return categoryKeyPrefix + strings.ToLower(ulid.Make().String()) }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &storeService{
		repo:       deps.Repository,
		normalizer: deps.Normalizer,
		media:      sink,
		events:     deps.Events,
		defaults:   defaults,
		now:        func() time.Time { return clock().UTC() },
		newKey:     keyGen,
		sanitize:   plainTextSanitizer(),
		logger:     logger,
	}, nil
}

// Load reads the stored document and reconciles it against the defaults. A store with no document is
// seeded with the defaults. Any other failure leaves the session as it was.
func (s *storeService) Load(ctx context.Context) (LoadResult, error) {
	raw, err := s.repo.Load(ctx)
	if err != nil {
		if !isRepoNotFound(err) {
			s.logger(ctx, "store.load.failed", map[string]any{"error": err.Error()})
			return LoadResult{}, translateLoadError(err)
		}
		return s.seed(ctx)
	}

	doc, report, err := domain.Reconcile(s.defaults(), raw)
	if err != nil {
		s.logger(ctx, "store.load.invalid", map[string]any{"error": err.Error()})
		return LoadResult{}, fmt.Errorf("%w: %w", ErrStoreDocumentInvalid, err)
	}
	if len(report.Fallbacks) > 0 || report.LegacyFeaturedKey {
		s.logger(ctx, "store.load.reconciled", map[string]any{
			"fallbacks":     report.Fallbacks,
			"legacyBanner":  report.LegacyFeaturedKey,
			"documentBytes": len(raw),
		})
	}

	s.install(doc)
	result := LoadResult{
		Document:  doc.Clone(),
		Fallbacks: append([]string(nil), report.Fallbacks...),
		Notice:    info("Store loaded"),
	}
	if len(report.Fallbacks) > 0 {
		result.Notice = Notice{Level: NoticeWarning, Message: "Some stored fields were invalid and were replaced with defaults"}
	}
	return result, nil
}

func (s *storeService) seed(ctx context.Context) (LoadResult, error) {
	doc := s.defaults()
	if err := s.repo.Save(ctx, doc); err != nil {
		s.logger(ctx, "store.seed.failed", map[string]any{"error": err.Error()})
		return LoadResult{}, translateLoadError(err)
	}
	s.logger(ctx, "store.seeded", nil)
	s.install(doc)
	return LoadResult{Document: doc.Clone(), Seeded: true, Notice: info("Store initialised with default data")}, nil
}

func (s *storeService) install(doc StoreDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = doc
	s.published = doc.Clone()
	s.loaded = true
}

// Save persists a snapshot of the working document taken at call time.
func (s *storeService) Save(ctx context.Context) (SaveResult, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return SaveResult{}, ErrStoreNotLoaded
	}
	snapshot := s.working.Clone()
	s.mu.RUnlock()

	size, err := snapshot.EncodedSize()
	if err != nil {
		s.logger(ctx, "store.save.encode_failed", map[string]any{"error": err.Error()})
		return SaveResult{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.logger(ctx, "store.save.failed", map[string]any{"error": err.Error()})
		return SaveResult{}, translateSaveError(err)
	}

	savedAt := s.now()
	s.mu.Lock()
	s.revision++
	revision := s.revision
	s.published = snapshot.Clone()
	s.mu.Unlock()

	s.publishSaved(ctx, DocumentSavedEvent{
		Revision:   revision,
		SavedAt:    savedAt,
		Bytes:      size,
		Categories: snapshot.Categories.Len(),
		Products:   countProducts(snapshot),
	})

	return SaveResult{
		Revision: revision,
		Bytes:    size,
		SavedAt:  savedAt,
		Notice:   success("Changes saved successfully"),
	}, nil
}

func (s *storeService) publishSaved(ctx context.Context, event DocumentSavedEvent) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishDocumentSaved(ctx, event); err != nil {
		s.logger(ctx, "store.save.event_failed", map[string]any{"revision": event.Revision, "error": err.Error()})
	}
}

func (s *storeService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *storeService) Document(context.Context) (StoreDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return StoreDocument{}, ErrStoreNotLoaded
	}
	return s.working.Clone(), nil
}

func (s *storeService) Published(context.Context) (StoreDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return StoreDocument{}, ErrStoreNotLoaded
	}
	return s.published.Clone(), nil
}

func (s *storeService) UpdateStore(_ context.Context, cmd UpdateStoreCommand) (StoreResult, error) {
	doc, err := s.mutate(func(doc *StoreDocument) error {
		if cmd.Name != nil {
			doc.Name = s.sanitize(*cmd.Name)
		}
		if cmd.Logo != nil {
			doc.Logo = domain.ParseImageRef(strings.TrimSpace(*cmd.Logo))
		}
		if cmd.BannerTitle != nil {
			doc.FeaturedBanner.Title = s.sanitize(*cmd.BannerTitle)
		}
		if cmd.BannerDescription != nil {
			doc.FeaturedBanner.Description = s.sanitize(*cmd.BannerDescription)
		}
		if cmd.FooterMainText != nil {
			doc.Footer.MainText = s.sanitize(*cmd.FooterMainText)
		}
		if cmd.FooterCopyrightText != nil {
			doc.Footer.CopyrightText = s.sanitize(*cmd.FooterCopyrightText)
		}
		return nil
	})
	if err != nil {
		return StoreResult{}, err
	}
	return StoreResult{Document: doc, Notice: success("Store updated")}, nil
}

func (s *storeService) AddCategory(_ context.Context, cmd AddCategoryCommand) (CategoryResult, error) {
	key := strings.TrimSpace(cmd.Key)
	name := s.sanitize(cmd.Name)
	if strings.TrimSpace(name) == "" {
		name = defaultCategoryName
	}
	category := Category{Name: name, Products: []Product{}}

	_, err := s.mutate(func(doc *StoreDocument) error {
		if key == "" {
			key = s.newKey()
			for doc.Categories.Has(key) {
				key = s.newKey()
			}
		} else if doc.Categories.Has(key) {
			return ErrCategoryExists
		}
		doc.Categories.Set(key, category)
		return nil
	})
	if err != nil {
		return CategoryResult{}, err
	}
	return CategoryResult{Key: key, Category: category, Notice: success("Category added")}, nil
}

func (s *storeService) RenameCategory(_ context.Context, key string, name string) (CategoryResult, error) {
	var updated Category
	_, err := s.mutate(func(doc *StoreDocument) error {
		category, ok := doc.Categories.Get(key)
		if !ok {
			return ErrCategoryNotFound
		}
		category.Name = s.sanitize(name)
		doc.Categories.Set(key, category)
		updated = category.Clone()
		return nil
	})
	if err != nil {
		return CategoryResult{}, err
	}
	return CategoryResult{Key: key, Category: updated, Notice: success("Category renamed")}, nil
}

// DeleteCategory removes a category and its products. The last category is never removed; the
// returned result then carries the unchanged document and a warning.
func (s *storeService) DeleteCategory(_ context.Context, key string) (StoreResult, error) {
	var name string
	doc, err := s.mutate(func(doc *StoreDocument) error {
		if doc.Categories.Len() <= 1 {
			return ErrLastCategory
		}
		category, ok := doc.Categories.Get(key)
		if !ok {
			return ErrCategoryNotFound
		}
		name = category.Name
		doc.Categories.Delete(key)
		return nil
	})
	if errors.Is(err, ErrLastCategory) {
		current, _ := s.Document(context.Background())
		return StoreResult{Document: current, Notice: NoticeForError(err)}, err
	}
	if err != nil {
		return StoreResult{}, err
	}
	return StoreResult{Document: doc, Notice: info("Category %q deleted", name)}, nil
}

func (s *storeService) AddProduct(_ context.Context, categoryKey string) (ProductResult, error) {
	var product Product
	_, err := s.mutate(func(doc *StoreDocument) error {
		category, ok := doc.Categories.Get(categoryKey)
		if !ok {
			return ErrCategoryNotFound
		}
		product = domain.NewProduct(doc.NextProductID())
		category.Products = append(category.Products, product)
		doc.Categories.Set(categoryKey, category)
		return nil
	})
	if err != nil {
		return ProductResult{}, err
	}
	return ProductResult{CategoryKey: categoryKey, Product: product.Clone(), Notice: success("Product added")}, nil
}

func (s *storeService) UpdateProduct(_ context.Context, cmd UpdateProductCommand) (ProductResult, error) {
	var updated Product
	_, err := s.mutateProduct(cmd.CategoryKey, cmd.ProductID, func(product *Product) error {
		if cmd.Name != nil {
			product.Name = s.sanitize(*cmd.Name)
		}
		if cmd.Price != nil {
			product.Price = *cmd.Price
		}
		if cmd.Description != nil {
			product.Description = s.sanitize(*cmd.Description)
		}
		if cmd.Image != nil {
			product.Image = domain.ParseImageRef(strings.TrimSpace(*cmd.Image))
		}
		if cmd.Gallery != nil {
			gallery := make([]ImageRef, 0, len(*cmd.Gallery))
			for _, value := range *cmd.Gallery {
				gallery = append(gallery, domain.ParseImageRef(strings.TrimSpace(value)))
			}
			product.Gallery = gallery
		}
		updated = product.Clone()
		return nil
	})
	if err != nil {
		return ProductResult{}, err
	}
	return ProductResult{CategoryKey: cmd.CategoryKey, Product: updated, Notice: success("Product updated")}, nil
}

func (s *storeService) DeleteProduct(_ context.Context, categoryKey string, productID int64) (StoreResult, error) {
	doc, err := s.mutate(func(doc *StoreDocument) error {
		category, ok := doc.Categories.Get(categoryKey)
		if !ok {
			return ErrCategoryNotFound
		}
		idx := productIndex(category, productID)
		if idx < 0 {
			return ErrProductNotFound
		}
		category.Products = append(category.Products[:idx:idx], category.Products[idx+1:]...)
		doc.Categories.Set(categoryKey, category)
		return nil
	})
	if err != nil {
		return StoreResult{}, err
	}
	return StoreResult{Document: doc, Notice: info("Product deleted")}, nil
}

func (s *storeService) SetLogoImage(ctx context.Context, src media.Source) (StoreResult, error) {
	if err := s.requireLoaded(); err != nil {
		return StoreResult{}, err
	}
	refs, err := s.storeImages(ctx, MediaTarget{Purpose: MediaPurposeLogo}, []media.Source{src})
	if err != nil {
		return StoreResult{}, err
	}
	doc, err := s.mutate(func(doc *StoreDocument) error {
		doc.Logo = refs[0]
		return nil
	})
	if err != nil {
		return StoreResult{}, err
	}
	return StoreResult{Document: doc, Notice: success("Logo updated")}, nil
}

func (s *storeService) SetFeaturedImage(ctx context.Context, src media.Source) (StoreResult, error) {
	if err := s.requireLoaded(); err != nil {
		return StoreResult{}, err
	}
	refs, err := s.storeImages(ctx, MediaTarget{Purpose: MediaPurposeFeaturedImage}, []media.Source{src})
	if err != nil {
		return StoreResult{}, err
	}
	doc, err := s.mutate(func(doc *StoreDocument) error {
		doc.FeaturedBanner.Image = refs[0]
		return nil
	})
	if err != nil {
		return StoreResult{}, err
	}
	return StoreResult{Document: doc, Notice: success("Featured image updated")}, nil
}

// AppendFeaturedGallery normalises every upload before touching the document; one failure adds nothing.
func (s *storeService) AppendFeaturedGallery(ctx context.Context, sources []media.Source) (StoreResult, error) {
	if len(sources) == 0 {
		return StoreResult{}, fmt.Errorf("%w: no images supplied", ErrInvalidInput)
	}
	if err := s.requireLoaded(); err != nil {
		return StoreResult{}, err
	}
	refs, err := s.storeImages(ctx, MediaTarget{Purpose: MediaPurposeFeaturedGallery}, sources)
	if err != nil {
		return StoreResult{}, err
	}
	doc, err := s.mutate(func(doc *StoreDocument) error {
		doc.FeaturedBanner.Gallery = append(doc.FeaturedBanner.Gallery, refs...)
		return nil
	})
	if err != nil {
		return StoreResult{}, err
	}
	return StoreResult{Document: doc, Notice: success("%d image(s) added to featured gallery", len(refs))}, nil
}

func (s *storeService) RemoveFeaturedGalleryImage(_ context.Context, index int) (StoreResult, error) {
	doc, err := s.mutate(func(doc *StoreDocument) error {
		gallery, err := removeAt(doc.FeaturedBanner.Gallery, index)
		if err != nil {
			return err
		}
		doc.FeaturedBanner.Gallery = gallery
		return nil
	})
	if err != nil {
		return StoreResult{}, err
	}
	return StoreResult{Document: doc, Notice: info("Image removed from gallery")}, nil
}

func (s *storeService) SetProductImage(ctx context.Context, categoryKey string, productID int64, src media.Source) (ProductResult, error) {
	if err := s.requireProduct(categoryKey, productID); err != nil {
		return ProductResult{}, err
	}
	refs, err := s.storeImages(ctx, MediaTarget{Purpose: MediaPurposeProductImage, ProductID: productID}, []media.Source{src})
	if err != nil {
		return ProductResult{}, err
	}
	var updated Product
	_, err = s.mutateProduct(categoryKey, productID, func(product *Product) error {
		product.Image = refs[0]
		updated = product.Clone()
		return nil
	})
	if err != nil {
		return ProductResult{}, err
	}
	return ProductResult{CategoryKey: categoryKey, Product: updated, Notice: success("Image updated")}, nil
}

func (s *storeService) AppendProductGallery(ctx context.Context, categoryKey string, productID int64, sources []media.Source) (ProductResult, error) {
	if len(sources) == 0 {
		return ProductResult{}, fmt.Errorf("%w: no images supplied", ErrInvalidInput)
	}
	if err := s.requireProduct(categoryKey, productID); err != nil {
		return ProductResult{}, err
	}
	refs, err := s.storeImages(ctx, MediaTarget{Purpose: MediaPurposeProductGallery, ProductID: productID}, sources)
	if err != nil {
		return ProductResult{}, err
	}
	var updated Product
	_, err = s.mutateProduct(categoryKey, productID, func(product *Product) error {
		product.Gallery = append(product.Gallery, refs...)
		updated = product.Clone()
		return nil
	})
	if err != nil {
		return ProductResult{}, err
	}
	return ProductResult{CategoryKey: categoryKey, Product: updated, Notice: success("%d image(s) added to gallery", len(refs))}, nil
}

func (s *storeService) RemoveProductGalleryImage(_ context.Context, categoryKey string, productID int64, index int) (ProductResult, error) {
	var updated Product
	_, err := s.mutateProduct(categoryKey, productID, func(product *Product) error {
		gallery, err := removeAt(product.Gallery, index)
		if err != nil {
			return err
		}
		product.Gallery = gallery
		updated = product.Clone()
		return nil
	})
	if err != nil {
		return ProductResult{}, err
	}
	return ProductResult{CategoryKey: categoryKey, Product: updated, Notice: info("Image removed from gallery")}, nil
}

// mutate applies fn to the working document under the write lock. fn must leave the document untouched
// when it returns an error.
func (s *storeService) mutate(fn func(doc *StoreDocument) error) (StoreDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return StoreDocument{}, ErrStoreNotLoaded
	}
	if err := fn(&s.working); err != nil {
		return StoreDocument{}, err
	}
	return s.working.Clone(), nil
}

func (s *storeService) mutateProduct(categoryKey string, productID int64, fn func(product *Product) error) (StoreDocument, error) {
	return s.mutate(func(doc *StoreDocument) error {
		category, ok := doc.Categories.Get(categoryKey)
		if !ok {
			return ErrCategoryNotFound
		}
		idx := productIndex(category, productID)
		if idx < 0 {
			return ErrProductNotFound
		}
		product := category.Products[idx].Clone()
		if err := fn(&product); err != nil {
			return err
		}
		category.Products = append([]Product(nil), category.Products...)
		category.Products[idx] = product
		doc.Categories.Set(categoryKey, category)
		return nil
	})
}

func (s *storeService) requireLoaded() error {
	if !s.Loaded() {
		return ErrStoreNotLoaded
	}
	return nil
}

// Product returns a copy of one product from the working document.
func (s *storeService) Product(_ context.Context, categoryKey string, productID int64) (ProductResult, error) {
	product, err := s.lookupProduct(categoryKey, productID)
	if err != nil {
		return ProductResult{}, err
	}
	return ProductResult{CategoryKey: categoryKey, Product: product}, nil
}

func (s *storeService) requireProduct(categoryKey string, productID int64) error {
	_, err := s.lookupProduct(categoryKey, productID)
	return err
}

func (s *storeService) lookupProduct(categoryKey string, productID int64) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return Product{}, ErrStoreNotLoaded
	}
	category, ok := s.working.Categories.Get(categoryKey)
	if !ok {
		return Product{}, ErrCategoryNotFound
	}
	idx := productIndex(category, productID)
	if idx < 0 {
		return Product{}, ErrProductNotFound
	}
	return category.Products[idx].Clone(), nil
}

// storeImages normalises the uploads concurrently and hands each result to the media sink, keeping
// input order. Nothing is returned unless every image succeeds.
func (s *storeService) storeImages(ctx context.Context, target MediaTarget, sources []media.Source) ([]ImageRef, error) {
	images, err := s.normalizer.NormalizeBatch(ctx, sources)
	if err != nil {
		return nil, translateImageError(err)
	}
	refs := make([]ImageRef, len(images))
	for i, img := range images {
		ref, err := s.media.Store(ctx, target, img)
		if err != nil {
			s.logger(ctx, "store.media.failed", map[string]any{"purpose": string(target.Purpose), "error": err.Error()})
			return nil, fmt.Errorf("%w: %w", ErrImageProcessing, err)
		}
		refs[i] = ref
	}
	return refs, nil
}

func productIndex(category Category, productID int64) int {
	for i, product := range category.Products {
		if product.ID == productID {
			return i
		}
	}
	return -1
}

func removeAt(refs []ImageRef, index int) ([]ImageRef, error) {
	if index < 0 || index >= len(refs) {
		return nil, ErrGalleryIndexOutOfRange
	}
	out := make([]ImageRef, 0, len(refs)-1)
	out = append(out, refs[:index]...)
	return append(out, refs[index+1:]...), nil
}

func countProducts(doc StoreDocument) int {
	total := 0
	for _, entry := range doc.Categories.Entries() {
		total += len(entry.Category.Products)
	}
	return total
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

func translateLoadError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsMisconfigured(), repoErr.IsPermissionDenied():
			return fmt.Errorf("%w: %w", ErrStoreMisconfigured, err)
		case repoErr.IsQuotaExceeded():
			return fmt.Errorf("%w: %w", ErrStorageQuotaExceeded, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func translateSaveError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsQuotaExceeded():
			return fmt.Errorf("%w: %w", ErrStorageQuotaExceeded, err)
		case repoErr.IsPermissionDenied():
			return fmt.Errorf("%w: %w", ErrStoragePermissionDenied, err)
		case repoErr.IsMisconfigured():
			return fmt.Errorf("%w: %w", ErrStoreMisconfigured, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrSaveFailed, err)
}

func translateImageError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, media.ErrImageRead):
		return fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	case errors.Is(err, media.ErrImageDecode), errors.Is(err, media.ErrUnsupportedImageType):
		return fmt.Errorf("%w: %w", ErrImageInvalid, err)
	case errors.Is(err, media.ErrImageTooLarge):
		return fmt.Errorf("%w: %w", ErrImageTooLarge, err)
	default:
		return fmt.Errorf("%w: %w", ErrImageProcessing, err)
	}
}
