package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lacereza/storefront/internal/platform/httpx"
	"github.com/lacereza/storefront/internal/platform/observability"
	"github.com/lacereza/storefront/internal/services"
)

const (
	maxEditorRequestBody  = 64 * 1024
	defaultMaxUploadBytes = 10 << 20
	maxGalleryFiles       = 20
)

// EditorHandlers exposes the store editing session: document edits, uploads, save/reload and AI helpers.
type EditorHandlers struct {
	store          services.StoreService
	ai             services.AIService
	maxUploadBytes int64
	aiMiddlewares  []func(http.Handler) http.Handler
}

// EditorOption customises editor handlers.
type EditorOption func(*EditorHandlers)

// WithEditorMaxUploadBytes caps the size of a single uploaded file.
func WithEditorMaxUploadBytes(limit int64) EditorOption {
	return func(h *EditorHandlers) {
		if limit > 0 {
			h.maxUploadBytes = limit
		}
	}
}

// WithEditorAIService wires the generative helpers.
func WithEditorAIService(ai services.AIService) EditorOption {
	return func(h *EditorHandlers) {
		h.ai = ai
	}
}

// WithEditorAIMiddlewares configures middlewares applied to the /ai endpoints only.
func WithEditorAIMiddlewares(mw ...func(http.Handler) http.Handler) EditorOption {
	return func(h *EditorHandlers) {
		h.aiMiddlewares = append(h.aiMiddlewares, mw...)
	}
}

// NewEditorHandlers constructs the editor handlers around the store session.
func NewEditorHandlers(store services.StoreService, opts ...EditorOption) *EditorHandlers {
	h := &EditorHandlers{
		store:          store,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers editor endpoints under the provided router.
func (h *EditorHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/document", h.getDocument)
	r.Patch("/store", h.updateStore)
	r.Post("/save", h.save)
	r.Post("/reload", h.reload)

	r.Put("/logo", h.uploadLogo)
	r.Put("/featured/image", h.uploadFeaturedImage)
	r.Post("/featured/gallery", h.uploadFeaturedGallery)
	r.Delete("/featured/gallery/{index}", h.removeFeaturedGalleryImage)

	r.Post("/categories", h.addCategory)
	r.Patch("/categories/{categoryKey}", h.renameCategory)
	r.Delete("/categories/{categoryKey}", h.deleteCategory)

	r.Post("/categories/{categoryKey}/products", h.addProduct)
	r.Patch("/categories/{categoryKey}/products/{productID}", h.updateProduct)
	r.Delete("/categories/{categoryKey}/products/{productID}", h.deleteProduct)
	r.Put("/categories/{categoryKey}/products/{productID}/image", h.uploadProductImage)
	r.Post("/categories/{categoryKey}/products/{productID}/gallery", h.uploadProductGallery)
	r.Delete("/categories/{categoryKey}/products/{productID}/gallery/{index}", h.removeProductGalleryImage)

	r.Group(func(ai chi.Router) {
		for _, mw := range h.aiMiddlewares {
			if mw != nil {
				ai.Use(mw)
			}
		}
		ai.Post("/ai/description", h.generateDescription)
		ai.Post("/ai/title", h.suggestTitle)
		ai.Post("/ai/image", h.generateImage)
	})
}

type documentResponse struct {
	Document services.StoreDocument `json:"document"`
	Notice   *noticeResponse        `json:"notice,omitempty"`
}

type loadResponse struct {
	Document  services.StoreDocument `json:"document"`
	Seeded    bool                   `json:"seeded"`
	Fallbacks []string               `json:"fallbacks,omitempty"`
	Notice    *noticeResponse        `json:"notice,omitempty"`
}

type saveResponse struct {
	Revision int64           `json:"revision"`
	Bytes    int             `json:"bytes"`
	SavedAt  string          `json:"savedAt"`
	Notice   *noticeResponse `json:"notice,omitempty"`
}

type categoryResponse struct {
	Key      string            `json:"key"`
	Category services.Category `json:"category"`
	Notice   *noticeResponse   `json:"notice,omitempty"`
}

type editorProductResponse struct {
	CategoryKey string           `json:"categoryKey"`
	Product     services.Product `json:"product"`
	Notice      *noticeResponse  `json:"notice,omitempty"`
}

type updateStoreRequest struct {
	Name                *string `json:"name"`
	Logo                *string `json:"logo"`
	BannerTitle         *string `json:"bannerTitle"`
	BannerDescription   *string `json:"bannerDescription"`
	FooterMainText      *string `json:"footerMainText"`
	FooterCopyrightText *string `json:"footerCopyrightText"`
}

type addCategoryRequest struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type renameCategoryRequest struct {
	Name string `json:"name"`
}

type updateProductRequest struct {
	Name        *string   `json:"name"`
	Price       *int64    `json:"price"`
	Description *string   `json:"description"`
	Image       *string   `json:"image"`
	Gallery     *[]string `json:"gallery"`
}

func (h *EditorHandlers) getDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.store.Document(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, documentResponse{Document: doc})
}

func (h *EditorHandlers) updateStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateStoreRequest
	if herr := httpx.DecodeJSON(w, r, maxEditorRequestBody, &req); herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	result, err := h.store.UpdateStore(ctx, services.UpdateStoreCommand{
		Name:                req.Name,
		Logo:                req.Logo,
		BannerTitle:         req.BannerTitle,
		BannerDescription:   req.BannerDescription,
		FooterMainText:      req.FooterMainText,
		FooterCopyrightText: req.FooterCopyrightText,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, documentResponse{Document: result.Document, Notice: toNotice(result.Notice)})
}

func (h *EditorHandlers) save(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartSpan(r.Context(), "store.save")
	result, err := h.store.Save(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int64("store.revision", result.Revision), attribute.Int("store.bytes", result.Bytes))
	}
	observability.EndSpan(span, err)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, saveResponse{
		Revision: result.Revision,
		Bytes:    result.Bytes,
		SavedAt:  result.SavedAt.UTC().Format(time.RFC3339Nano),
		Notice:   toNotice(result.Notice),
	})
}

func (h *EditorHandlers) reload(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartSpan(r.Context(), "store.reload")
	result, err := h.store.Load(ctx)
	observability.EndSpan(span, err)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loadResponse{
		Document:  result.Document,
		Seeded:    result.Seeded,
		Fallbacks: result.Fallbacks,
		Notice:    toNotice(result.Notice),
	})
}

func (h *EditorHandlers) addCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req addCategoryRequest
	if herr := httpx.DecodeJSON(w, r, maxEditorRequestBody, &req); herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	result, err := h.store.AddCategory(ctx, services.AddCategoryCommand{Key: strings.TrimSpace(req.Key), Name: req.Name})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, categoryResponse{Key: result.Key, Category: result.Category, Notice: toNotice(result.Notice)})
}

func (h *EditorHandlers) renameCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req renameCategoryRequest
	if herr := httpx.DecodeJSON(w, r, maxEditorRequestBody, &req); herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	result, err := h.store.RenameCategory(ctx, chi.URLParam(r, "categoryKey"), req.Name)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, categoryResponse{Key: result.Key, Category: result.Category, Notice: toNotice(result.Notice)})
}

func (h *EditorHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.store.DeleteCategory(ctx, chi.URLParam(r, "categoryKey"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, documentResponse{Document: result.Document, Notice: toNotice(result.Notice)})
}

func (h *EditorHandlers) addProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.store.AddProduct(ctx, chi.URLParam(r, "categoryKey"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, editorProductResponse{CategoryKey: result.CategoryKey, Product: result.Product, Notice: toNotice(result.Notice)})
}

func (h *EditorHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := productIDParam(r)
	if !ok {
		writeInvalidID(ctx, w, "productID")
		return
	}
	var req updateProductRequest
	if herr := httpx.DecodeJSON(w, r, maxEditorRequestBody, &req); herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	result, err := h.store.UpdateProduct(ctx, services.UpdateProductCommand{
		CategoryKey: chi.URLParam(r, "categoryKey"),
		ProductID:   id,
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		Gallery:     req.Gallery,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, editorProductResponse{CategoryKey: result.CategoryKey, Product: result.Product, Notice: toNotice(result.Notice)})
}

func (h *EditorHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := productIDParam(r)
	if !ok {
		writeInvalidID(ctx, w, "productID")
		return
	}
	result, err := h.store.DeleteProduct(ctx, chi.URLParam(r, "categoryKey"), id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, documentResponse{Document: result.Document, Notice: toNotice(result.Notice)})
}
