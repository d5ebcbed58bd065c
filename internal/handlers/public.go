package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lacereza/storefront/internal/platform/httpx"
	"github.com/lacereza/storefront/internal/services"
)

const maxCheckoutRequestBody = 8 * 1024

// PublicHandlers exposes the published catalog and checkout links to shoppers.
type PublicHandlers struct {
	catalog  services.CatalogService
	checkout services.CheckoutService
}

// NewPublicHandlers constructs shopper-facing handlers.
func NewPublicHandlers(catalog services.CatalogService, checkout services.CheckoutService) *PublicHandlers {
	return &PublicHandlers{
		catalog:  catalog,
		checkout: checkout,
	}
}

// Routes registers public endpoints under the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/store", h.getStore)
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{categoryKey}/products", h.searchProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/products/{productID}/inquiry-link", h.inquiryLink)
	r.Get("/contact-link", h.contactLink)
	r.Post("/checkout-link", h.checkoutLink)
}

type categorySummaryResponse struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}

type productSearchResponse struct {
	CategoryKey string             `json:"categoryKey"`
	Query       string             `json:"query,omitempty"`
	Products    []services.Product `json:"products"`
}

type productResponse struct {
	CategoryKey string           `json:"categoryKey"`
	Product     services.Product `json:"product"`
}

type checkoutLinkRequest struct {
	ProductIDs []int64 `json:"productIds"`
}

type checkoutLinkResponse struct {
	URL     string             `json:"url"`
	Message string             `json:"message"`
	Total   int64              `json:"total"`
	Items   []services.Product `json:"items,omitempty"`
}

func (h *PublicHandlers) getStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	doc, err := h.catalog.Store(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, doc)
}

func (h *PublicHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	summaries, err := h.catalog.Categories(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	items := make([]categorySummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, categorySummaryResponse{Key: s.Key, Name: s.Name, ProductCount: s.ProductCount})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": items})
}

func (h *PublicHandlers) searchProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	key := strings.TrimSpace(chi.URLParam(r, "categoryKey"))
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	products, err := h.catalog.SearchProducts(ctx, key, query)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if products == nil {
		products = []services.Product{}
	}
	httpx.WriteJSON(w, http.StatusOK, productSearchResponse{CategoryKey: key, Query: query, Products: products})
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	id, ok := productIDParam(r)
	if !ok {
		writeInvalidID(ctx, w, "productID")
		return
	}
	result, err := h.catalog.Product(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productResponse{CategoryKey: result.CategoryKey, Product: result.Product})
}

func (h *PublicHandlers) inquiryLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}
	id, ok := productIDParam(r)
	if !ok {
		writeInvalidID(ctx, w, "productID")
		return
	}
	link, err := h.checkout.InquiryLink(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkoutLinkResponse{URL: link.URL, Message: link.Message, Total: link.Total})
}

func (h *PublicHandlers) contactLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}
	link, err := h.checkout.ContactLink(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkoutLinkResponse{URL: link.URL, Message: link.Message})
}

func (h *PublicHandlers) checkoutLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}
	var req checkoutLinkRequest
	if herr := httpx.DecodeJSON(w, r, maxCheckoutRequestBody, &req); herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}

	link, err := h.checkout.CartLink(ctx, services.CartLinkCommand{ProductIDs: req.ProductIDs})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkoutLinkResponse{
		URL:     link.URL,
		Message: link.Message,
		Total:   link.Total,
		Items:   link.Items,
	})
}
