package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lacereza/storefront/internal/media"
	"github.com/lacereza/storefront/internal/platform/httpx"
	"github.com/lacereza/storefront/internal/services"
)

const (
	uploadFileField    = "file"
	uploadFilesField   = "files"
	multipartMemory    = 32 << 20
	multipartOverhead  = 1 << 20
	maxAIRequestBody   = 8 * 1024
	aiGeneratedNotice  = "AI suggestion ready"
	aiImageAppliedText = "AI image applied"
)

var errNoFiles = errors.New("no files uploaded")

type uploadError struct {
	code   string
	status int
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

// readUploads parses a multipart body and returns every file under field as an in-memory source.
func (h *EditorHandlers) readUploads(w http.ResponseWriter, r *http.Request, field string, maxFiles int) ([]media.Source, *uploadError) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*int64(maxFiles)+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &uploadError{code: "payload_too_large", status: http.StatusRequestEntityTooLarge, msg: "upload too large"}
		}
		return nil, &uploadError{code: "invalid_request", status: http.StatusBadRequest, msg: "request must be multipart/form-data"}
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, &uploadError{code: "invalid_request", status: http.StatusBadRequest, msg: fmt.Sprintf("%s: %s", field, errNoFiles)}
	}
	if len(headers) > maxFiles {
		return nil, &uploadError{code: "invalid_request", status: http.StatusBadRequest, msg: fmt.Sprintf("at most %d files per upload", maxFiles)}
	}

	sources := make([]media.Source, 0, len(headers))
	for _, header := range headers {
		src, uerr := h.readUpload(header)
		if uerr != nil {
			return nil, uerr
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (h *EditorHandlers) readUpload(header *multipart.FileHeader) (media.Source, *uploadError) {
	if header.Size > h.maxUploadBytes {
		return media.Source{}, &uploadError{code: "image_too_large", status: http.StatusRequestEntityTooLarge, msg: fmt.Sprintf("%s exceeds the upload limit", header.Filename)}
	}
	file, err := header.Open()
	if err != nil {
		return media.Source{}, &uploadError{code: "image_unreadable", status: http.StatusBadRequest, msg: fmt.Sprintf("open %s: %v", header.Filename, err)}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return media.Source{}, &uploadError{code: "image_unreadable", status: http.StatusBadRequest, msg: fmt.Sprintf("read %s: %v", header.Filename, err)}
	}
	if int64(len(data)) > h.maxUploadBytes {
		return media.Source{}, &uploadError{code: "image_too_large", status: http.StatusRequestEntityTooLarge, msg: fmt.Sprintf("%s exceeds the upload limit", header.Filename)}
	}
	return media.BytesSource(header.Filename, header.Header.Get("Content-Type"), data), nil
}

func writeUploadError(w http.ResponseWriter, r *http.Request, uerr *uploadError) {
	httpx.WriteError(r.Context(), w, httpx.NewError(uerr.code, uerr.msg, uerr.status))
}

func (h *EditorHandlers) uploadLogo(w http.ResponseWriter, r *http.Request) {
	sources, uerr := h.readUploads(w, r, uploadFileField, 1)
	if uerr != nil {
		writeUploadError(w, r, uerr)
		return
	}
	result, err := h.store.SetLogoImage(r.Context(), sources[0])
	h.writeStoreResult(w, r, result, err)
}

func (h *EditorHandlers) uploadFeaturedImage(w http.ResponseWriter, r *http.Request) {
	sources, uerr := h.readUploads(w, r, uploadFileField, 1)
	if uerr != nil {
		writeUploadError(w, r, uerr)
		return
	}
	result, err := h.store.SetFeaturedImage(r.Context(), sources[0])
	h.writeStoreResult(w, r, result, err)
}

func (h *EditorHandlers) uploadFeaturedGallery(w http.ResponseWriter, r *http.Request) {
	sources, uerr := h.readUploads(w, r, uploadFilesField, maxGalleryFiles)
	if uerr != nil {
		writeUploadError(w, r, uerr)
		return
	}
	result, err := h.store.AppendFeaturedGallery(r.Context(), sources)
	h.writeStoreResult(w, r, result, err)
}

func (h *EditorHandlers) removeFeaturedGalleryImage(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "index must be a non-negative integer", http.StatusBadRequest))
		return
	}
	result, err := h.store.RemoveFeaturedGalleryImage(r.Context(), idx)
	h.writeStoreResult(w, r, result, err)
}

func (h *EditorHandlers) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r)
	if !ok {
		writeInvalidID(r.Context(), w, "productID")
		return
	}
	sources, uerr := h.readUploads(w, r, uploadFileField, 1)
	if uerr != nil {
		writeUploadError(w, r, uerr)
		return
	}
	result, err := h.store.SetProductImage(r.Context(), chi.URLParam(r, "categoryKey"), id, sources[0])
	h.writeProductResult(w, r, result, err)
}

func (h *EditorHandlers) uploadProductGallery(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r)
	if !ok {
		writeInvalidID(r.Context(), w, "productID")
		return
	}
	sources, uerr := h.readUploads(w, r, uploadFilesField, maxGalleryFiles)
	if uerr != nil {
		writeUploadError(w, r, uerr)
		return
	}
	result, err := h.store.AppendProductGallery(r.Context(), chi.URLParam(r, "categoryKey"), id, sources)
	h.writeProductResult(w, r, result, err)
}

func (h *EditorHandlers) removeProductGalleryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r)
	if !ok {
		writeInvalidID(r.Context(), w, "productID")
		return
	}
	idx, ok := indexParam(r)
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "index must be a non-negative integer", http.StatusBadRequest))
		return
	}
	result, err := h.store.RemoveProductGalleryImage(r.Context(), chi.URLParam(r, "categoryKey"), id, idx)
	h.writeProductResult(w, r, result, err)
}

func (h *EditorHandlers) writeStoreResult(w http.ResponseWriter, r *http.Request, result services.StoreResult, err error) {
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, documentResponse{Document: result.Document, Notice: toNotice(result.Notice)})
}

func (h *EditorHandlers) writeProductResult(w http.ResponseWriter, r *http.Request, result services.ProductResult, err error) {
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, editorProductResponse{CategoryKey: result.CategoryKey, Product: result.Product, Notice: toNotice(result.Notice)})
}

type aiDescriptionRequest struct {
	ProductName string `json:"productName"`
}

type aiTitleRequest struct {
	Description string `json:"description"`
}

type aiImageRequest struct {
	CategoryKey string `json:"categoryKey"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Description string `json:"description"`
}

type aiTextResponse struct {
	Description string          `json:"description,omitempty"`
	Title       string          `json:"title,omitempty"`
	Notice      *noticeResponse `json:"notice,omitempty"`
}

func (h *EditorHandlers) aiEnabled(w http.ResponseWriter, r *http.Request) bool {
	if h.ai == nil || !h.ai.Enabled() {
		writeServiceError(r.Context(), w, services.ErrAIUnavailable)
		return false
	}
	return true
}

func (h *EditorHandlers) generateDescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.aiEnabled(w, r) {
		return
	}
	var req aiDescriptionRequest
	if herr := httpx.DecodeJSON(w, r, maxAIRequestBody, &req); herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "productName is required", http.StatusBadRequest))
		return
	}
	text, err := h.ai.GenerateDescription(ctx, name)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, aiTextResponse{
		Description: text,
		Notice:      &noticeResponse{Level: string(services.NoticeSuccess), Message: aiGeneratedNotice},
	})
}

func (h *EditorHandlers) suggestTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.aiEnabled(w, r) {
		return
	}
	var req aiTitleRequest
	if herr := httpx.DecodeJSON(w, r, maxAIRequestBody, &req); herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "description is required", http.StatusBadRequest))
		return
	}
	title, err := h.ai.SuggestTitle(ctx, description)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, aiTextResponse{
		Title:  title,
		Notice: &noticeResponse{Level: string(services.NoticeSuccess), Message: aiGeneratedNotice},
	})
}

// generateImage asks the model for a product picture and runs it through the normal product image path.
func (h *EditorHandlers) generateImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.aiEnabled(w, r) {
		return
	}
	var req aiImageRequest
	if herr := httpx.DecodeJSON(w, r, maxAIRequestBody, &req); herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	key := strings.TrimSpace(req.CategoryKey)
	if key == "" || req.ProductID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "categoryKey and productId are required", http.StatusBadRequest))
		return
	}

	current, err := h.store.Product(ctx, key, req.ProductID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		name = current.Product.Name
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = current.Product.Description
	}

	src, err := h.ai.GenerateImage(ctx, name, description)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	result, err := h.store.SetProductImage(ctx, key, req.ProductID, src)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, editorProductResponse{
		CategoryKey: result.CategoryKey,
		Product:     result.Product,
		Notice:      &noticeResponse{Level: string(services.NoticeSuccess), Message: aiImageAppliedText},
	})
}
