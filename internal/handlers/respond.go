package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lacereza/storefront/internal/platform/httpx"
	"github.com/lacereza/storefront/internal/services"
)

type noticeResponse struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func toNotice(n services.Notice) *noticeResponse {
	if n.Message == "" {
		return nil
	}
	return &noticeResponse{Level: string(n.Level), Message: n.Message}
}

type serviceErrorMapping struct {
	target error
	code   string
	status int
}

var serviceErrorMappings = []serviceErrorMapping{
	{services.ErrStoreNotLoaded, "store_not_loaded", http.StatusServiceUnavailable},
	{services.ErrStoreUnavailable, "store_unavailable", http.StatusServiceUnavailable},
	{services.ErrStoreMisconfigured, "store_misconfigured", http.StatusInternalServerError},
	{services.ErrStoreDocumentInvalid, "store_document_invalid", http.StatusBadGateway},
	{services.ErrStorageQuotaExceeded, "storage_quota_exceeded", http.StatusInsufficientStorage},
	{services.ErrStoragePermissionDenied, "storage_permission_denied", http.StatusForbidden},
	{services.ErrSaveFailed, "save_failed", http.StatusBadGateway},
	{services.ErrLastCategory, "last_category", http.StatusConflict},
	{services.ErrCategoryExists, "category_exists", http.StatusConflict},
	{services.ErrCategoryNotFound, "category_not_found", http.StatusNotFound},
	{services.ErrProductNotFound, "product_not_found", http.StatusNotFound},
	{services.ErrGalleryIndexOutOfRange, "gallery_index_out_of_range", http.StatusNotFound},
	{services.ErrInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrImageUnreadable, "image_unreadable", http.StatusBadRequest},
	{services.ErrImageInvalid, "image_invalid", http.StatusUnsupportedMediaType},
	{services.ErrImageTooLarge, "image_too_large", http.StatusRequestEntityTooLarge},
	{services.ErrImageProcessing, "image_processing_failed", http.StatusInternalServerError},
	{services.ErrAIUnavailable, "ai_unavailable", http.StatusServiceUnavailable},
	{services.ErrAIFailed, "ai_failed", http.StatusBadGateway},
	{services.ErrCheckoutEmptyCart, "empty_cart", http.StatusBadRequest},
	{services.ErrCheckoutNotConfigured, "checkout_unavailable", http.StatusServiceUnavailable},
}

// writeServiceError maps service sentinels onto the error envelope. The operator notice travels with it.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		httpx.WriteError(ctx, w, httpx.NewError("request_cancelled", "request cancelled", http.StatusServiceUnavailable))
		return
	}

	code, status := "internal_error", http.StatusInternalServerError
	for _, m := range serviceErrorMappings {
		if errors.Is(err, m.target) {
			code, status = m.code, m.status
			break
		}
	}

	e := httpx.NewError(code, err.Error(), status)
	if notice := toNotice(services.NoticeForError(err)); notice != nil {
		e = e.WithDetails(map[string]any{"notice": notice})
	}
	httpx.WriteError(ctx, w, e)
}

func productIDParam(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "productID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func indexParam(r *http.Request) (int, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "index"))
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func writeInvalidID(ctx context.Context, w http.ResponseWriter, name string) {
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", name+" must be a positive integer", http.StatusBadRequest))
}
