package services

import (
	"context"
	"time"

	domain "github.com/lacereza/storefront/internal/domain"
	"github.com/lacereza/storefront/internal/media"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	StoreDocument      = domain.StoreDocument
	FeaturedBanner     = domain.FeaturedBanner
	Category           = domain.Category
	Product            = domain.Product
	Footer             = domain.Footer
	ImageRef           = domain.ImageRef
	SystemHealthReport = domain.SystemHealthReport
)

// StoreService owns the editing session: the working document, the published snapshot served to
// shoppers, and every editor mutation.
type StoreService interface {
	Load(ctx context.Context) (LoadResult, error)
	Save(ctx context.Context) (SaveResult, error)
	Loaded() bool
	Document(ctx context.Context) (StoreDocument, error)
	Published(ctx context.Context) (StoreDocument, error)

	UpdateStore(ctx context.Context, cmd UpdateStoreCommand) (StoreResult, error)
	AddCategory(ctx context.Context, cmd AddCategoryCommand) (CategoryResult, error)
	RenameCategory(ctx context.Context, key string, name string) (CategoryResult, error)
	DeleteCategory(ctx context.Context, key string) (StoreResult, error)

	Product(ctx context.Context, categoryKey string, productID int64) (ProductResult, error)
	AddProduct(ctx context.Context, categoryKey string) (ProductResult, error)
	UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (ProductResult, error)
	DeleteProduct(ctx context.Context, categoryKey string, productID int64) (StoreResult, error)

	SetLogoImage(ctx context.Context, src media.Source) (StoreResult, error)
	SetFeaturedImage(ctx context.Context, src media.Source) (StoreResult, error)
	AppendFeaturedGallery(ctx context.Context, sources []media.Source) (StoreResult, error)
	RemoveFeaturedGalleryImage(ctx context.Context, index int) (StoreResult, error)
	SetProductImage(ctx context.Context, categoryKey string, productID int64, src media.Source) (ProductResult, error)
	AppendProductGallery(ctx context.Context, categoryKey string, productID int64, sources []media.Source) (ProductResult, error)
	RemoveProductGalleryImage(ctx context.Context, categoryKey string, productID int64, index int) (ProductResult, error)
}

// CatalogService answers shopper-facing reads from the published document.
type CatalogService interface {
	Store(ctx context.Context) (StoreDocument, error)
	Categories(ctx context.Context) ([]CategorySummary, error)
	SearchProducts(ctx context.Context, categoryKey string, term string) ([]Product, error)
	Product(ctx context.Context, productID int64) (ProductResult, error)
}

// CheckoutService builds chat links for carts and single-product inquiries.
type CheckoutService interface {
	CartLink(ctx context.Context, cmd CartLinkCommand) (CheckoutLink, error)
	InquiryLink(ctx context.Context, productID int64) (CheckoutLink, error)
	ContactLink(ctx context.Context) (CheckoutLink, error)
}

// AIService produces copy and imagery for products through a generative model.
type AIService interface {
	Enabled() bool
	GenerateDescription(ctx context.Context, productName string) (string, error)
	SuggestTitle(ctx context.Context, description string) (string, error)
	GenerateImage(ctx context.Context, productName, description string) (media.Source, error)
}

// SystemService exposes health reports.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// MediaSink turns a normalised image into the reference stored in the document.
type MediaSink interface {
	Store(ctx context.Context, target MediaTarget, img media.Image) (ImageRef, error)
}

// MediaTarget identifies where in the document an image is headed.
type MediaTarget struct {
	Purpose   MediaPurpose
	ProductID int64
}

// MediaPurpose enumerates image slots in the document.
type MediaPurpose string

const (
	MediaPurposeLogo            MediaPurpose = "logo"
	MediaPurposeFeaturedImage   MediaPurpose = "featured-image"
	MediaPurposeFeaturedGallery MediaPurpose = "featured-gallery"
	MediaPurposeProductImage    MediaPurpose = "product-image"
	MediaPurposeProductGallery  MediaPurpose = "product-gallery"
)

// StoreEventPublisher announces successful saves.
type StoreEventPublisher interface {
	PublishDocumentSaved(ctx context.Context, event DocumentSavedEvent) (string, error)
}

// DocumentSavedEvent is the payload published after each successful save.
type DocumentSavedEvent struct {
	Revision   int64     `json:"revision"`
	SavedAt    time.Time `json:"savedAt"`
	Bytes      int       `json:"bytes"`
	Categories int       `json:"categories"`
	Products   int       `json:"products"`
}

// ImageNormalizer is the subset of the media normaliser used by the store service.
type ImageNormalizer interface {
	Normalize(ctx context.Context, src media.Source) (media.Image, error)
	NormalizeBatch(ctx context.Context, sources []media.Source) ([]media.Image, error)
}

// LoadResult describes the outcome of loading the document from the store.
type LoadResult struct {
	Document  StoreDocument
	Seeded    bool
	Fallbacks []string
	Notice    Notice
}

// SaveResult describes a persisted snapshot.
type SaveResult struct {
	Revision int64
	Bytes    int
	SavedAt  time.Time
	Notice   Notice
}

// StoreResult returns the updated working document.
type StoreResult struct {
	Document StoreDocument
	Notice   Notice
}

// CategoryResult returns a single category with its key.
type CategoryResult struct {
	Key      string
	Category Category
	Notice   Notice
}

// ProductResult returns a single product and the category holding it.
type ProductResult struct {
	CategoryKey string
	Product     Product
	Notice      Notice
}

// CategorySummary lists a category without its products.
type CategorySummary struct {
	Key          string
	Name         string
	ProductCount int
}

// UpdateStoreCommand carries partial updates to store-level fields. Nil pointers leave fields untouched.
type UpdateStoreCommand struct {
	Name                *string
	Logo                *string
	BannerTitle         *string
	BannerDescription   *string
	FooterMainText      *string
	FooterCopyrightText *string
}

// AddCategoryCommand creates a category. An empty Key generates one.
type AddCategoryCommand struct {
	Key  string
	Name string
}

// UpdateProductCommand carries partial product updates. Image and Gallery accept legacy string forms
// (glyph, URL or data URL).
type UpdateProductCommand struct {
	CategoryKey string
	ProductID   int64
	Name        *string
	Price       *int64
	Description *string
	Image       *string
	Gallery     *[]string
}

// CartLinkCommand lists product ids in the cart; repeated ids count as separate units.
type CartLinkCommand struct {
	ProductIDs []int64
}

// CheckoutLink is a prefilled chat URL.
type CheckoutLink struct {
	URL     string
	Message string
	Total   int64
	Items   []Product
}
