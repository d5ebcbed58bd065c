package services

import (
	"errors"
	"fmt"
)

// NoticeLevel mirrors the banner colours shown to the operator.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeWarning NoticeLevel = "warning"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a short operator-facing message attached to every editor outcome.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

func success(format string, args ...any) Notice {
	return Notice{Level: NoticeSuccess, Message: fmt.Sprintf(format, args...)}
}

func info(format string, args ...any) Notice {
	return Notice{Level: NoticeInfo, Message: fmt.Sprintf(format, args...)}
}

const storageLimitMessage = "Storage limit exceeded. Please remove some images or products."

// NoticeForError converts a service error into the message shown to the operator.
func NoticeForError(err error) Notice {
	switch {
	case err == nil:
		return Notice{}
	case errors.Is(err, ErrLastCategory):
		return Notice{Level: NoticeWarning, Message: "Must have at least one category"}
	case errors.Is(err, ErrStorageQuotaExceeded):
		return Notice{Level: NoticeError, Message: "Error saving changes: " + storageLimitMessage}
	case errors.Is(err, ErrStoragePermissionDenied):
		return Notice{Level: NoticeError, Message: "Error saving changes: the store rejected the write. Check the database access rules."}
	case errors.Is(err, ErrStoreMisconfigured):
		return Notice{Level: NoticeError, Message: "The store database is not configured correctly."}
	case errors.Is(err, ErrStoreUnavailable):
		return Notice{Level: NoticeError, Message: "Could not connect to the database."}
	case errors.Is(err, ErrStoreNotLoaded):
		return Notice{Level: NoticeError, Message: "The store has not been loaded yet."}
	case errors.Is(err, ErrSaveFailed):
		return Notice{Level: NoticeError, Message: "Error saving changes: Failed to save data to cloud."}
	case errors.Is(err, ErrImageUnreadable):
		return Notice{Level: NoticeError, Message: "The image could not be read."}
	case errors.Is(err, ErrImageInvalid):
		return Notice{Level: NoticeError, Message: "The file is not a supported image."}
	case errors.Is(err, ErrImageTooLarge):
		return Notice{Level: NoticeError, Message: "The image is too large."}
	case errors.Is(err, ErrImageProcessing):
		return Notice{Level: NoticeError, Message: "The image could not be processed."}
	case errors.Is(err, ErrAIUnavailable):
		return Notice{Level: NoticeError, Message: "API key is not configured."}
	case errors.Is(err, ErrAIFailed):
		return Notice{Level: NoticeError, Message: "AI Suggestion Failed"}
	default:
		return Notice{Level: NoticeError, Message: "An unknown error occurred."}
	}
}
