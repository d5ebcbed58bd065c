package repositories

import (
	"encoding/json"
	"fmt"

	domain "github.com/lacereza/storefront/internal/domain"
)

// StoreErrorCode enumerates failure reasons shared by every document backend.
type StoreErrorCode string

const (
	// StoreErrorUnknown represents an unspecified failure.
	StoreErrorUnknown StoreErrorCode = "store_unknown"
	// StoreErrorNotFound indicates no document has been stored yet.
	StoreErrorNotFound StoreErrorCode = "store_not_found"
	// StoreErrorUnavailable indicates a transient backend outage.
	StoreErrorUnavailable StoreErrorCode = "store_unavailable"
	// StoreErrorPermissionDenied indicates the backend rejected the credentials or access rules.
	StoreErrorPermissionDenied StoreErrorCode = "store_permission_denied"
	// StoreErrorQuotaExceeded indicates the document or the backend storage exceeds a size limit.
	StoreErrorQuotaExceeded StoreErrorCode = "store_quota_exceeded"
	// StoreErrorMisconfigured indicates the backend is reachable but not set up (missing table, bad URL).
	StoreErrorMisconfigured StoreErrorCode = "store_misconfigured"
	// StoreErrorConflict indicates a concurrent modification.
	StoreErrorConflict StoreErrorCode = "store_conflict"
)

// StoreError implements RepositoryError for the document backends that do not carry their own error type.
type StoreError struct {
	Op   string
	Code StoreErrorCode
	Err  error
}

// NewStoreError constructs a typed store error.
func NewStoreError(op string, code StoreErrorCode, err error) *StoreError {
	return &StoreError{Op: op, Code: code, Err: err}
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Code)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap exposes the underlying error, if any.
func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StoreError) IsNotFound() bool         { return e != nil && e.Code == StoreErrorNotFound }
func (e *StoreError) IsConflict() bool         { return e != nil && e.Code == StoreErrorConflict }
func (e *StoreError) IsUnavailable() bool      { return e != nil && e.Code == StoreErrorUnavailable }
func (e *StoreError) IsPermissionDenied() bool { return e != nil && e.Code == StoreErrorPermissionDenied }
func (e *StoreError) IsQuotaExceeded() bool    { return e != nil && e.Code == StoreErrorQuotaExceeded }
func (e *StoreError) IsMisconfigured() bool    { return e != nil && e.Code == StoreErrorMisconfigured }

var _ RepositoryError = (*StoreError)(nil)

// EncodeDocument serialises the document for persistence and enforces the backend size limit.
// A non-positive limit disables the check.
func EncodeDocument(op string, doc domain.StoreDocument, limit int) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, NewStoreError(op, StoreErrorUnknown, fmt.Errorf("encode document: %w", err))
	}
	if limit > 0 && len(data) > limit {
		return nil, NewStoreError(op, StoreErrorQuotaExceeded, fmt.Errorf("document is %d bytes, limit %d", len(data), limit))
	}
	return data, nil
}
