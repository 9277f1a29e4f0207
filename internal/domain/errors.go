package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies processing failures so callers can branch on the
// category without matching message strings.
type ErrorKind int

const (
	// KindInitialization - invalid constructor arguments.
	KindInitialization ErrorKind = iota
	// KindLoading - document could not be loaded (missing file, engine failure).
	KindLoading
	// KindContent - document bytes are structurally invalid.
	KindContent
	// KindNotLoaded - content accessed before a successful load.
	KindNotLoaded
	// KindBase64 - base64 payload could not be decoded.
	KindBase64
	// KindImageExtraction - catastrophic failure enumerating document images.
	KindImageExtraction
	// KindScreenshot - page raster rendering or encoding failed.
	KindScreenshot
	// KindTextExtraction - page text extraction failed.
	KindTextExtraction
	// KindPageProcessing - a page failed to assemble; carries the page number.
	KindPageProcessing
	// KindProcessing - top-level wrapper around any pipeline failure.
	KindProcessing
	// KindConfiguration - invalid configuration value.
	KindConfiguration
	// KindCancelled - the operation was cancelled before completion.
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindInitialization:
		return "initialization"
	case KindLoading:
		return "loading"
	case KindContent:
		return "content"
	case KindNotLoaded:
		return "not loaded"
	case KindBase64:
		return "base64 decoding"
	case KindImageExtraction:
		return "image extraction"
	case KindScreenshot:
		return "screenshot generation"
	case KindTextExtraction:
		return "text extraction"
	case KindPageProcessing:
		return "page processing"
	case KindProcessing:
		return "processing"
	case KindConfiguration:
		return "configuration"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Error is the module-wide error type. Page is set only for
// KindPageProcessing (1-indexed).
type Error struct {
	Kind    ErrorKind
	Message string
	Page    int
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Page > 0 && e.Err != nil:
		return fmt.Sprintf("pdf2md: %s error on page %d: %s: %v", e.Kind, e.Page, e.Message, e.Err)
	case e.Page > 0:
		return fmt.Sprintf("pdf2md: %s error on page %d: %s", e.Kind, e.Page, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("pdf2md: %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("pdf2md: %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any error in err's chain is a *Error of the
// given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Kind == kind {
			return true
		}
		err = de.Err
	}
	return false
}

// InitializationError reports invalid constructor arguments.
func InitializationError(msg string, err error) *Error {
	return &Error{Kind: KindInitialization, Message: msg, Err: err}
}

// LoadingError reports a failure to load a document.
func LoadingError(msg string, err error) *Error {
	return &Error{Kind: KindLoading, Message: msg, Err: err}
}

// ContentError reports structurally invalid document bytes.
func ContentError(msg string, err error) *Error {
	return &Error{Kind: KindContent, Message: msg, Err: err}
}

// NotLoadedError reports access to document content before loading.
func NotLoadedError(msg string) *Error {
	return &Error{Kind: KindNotLoaded, Message: msg}
}

// Base64Error reports a base64 decoding failure.
func Base64Error(msg string, err error) *Error {
	return &Error{Kind: KindBase64, Message: msg, Err: err}
}

// ImageExtractionError reports a document-level image enumeration failure.
func ImageExtractionError(msg string, err error) *Error {
	return &Error{Kind: KindImageExtraction, Message: msg, Err: err}
}

// ScreenshotError reports a page raster rendering failure.
func ScreenshotError(msg string, err error) *Error {
	return &Error{Kind: KindScreenshot, Message: msg, Err: err}
}

// TextExtractionError reports a page text extraction failure.
func TextExtractionError(msg string, err error) *Error {
	return &Error{Kind: KindTextExtraction, Message: msg, Err: err}
}

// PageError wraps a failure assembling a single page. pageNumber is 1-indexed.
func PageError(pageNumber int, err error) *Error {
	return &Error{Kind: KindPageProcessing, Message: "failed to process page", Page: pageNumber, Err: err}
}

// ProcessingError is the single top-level wrapper surfaced by the pipeline
// entry points. Callers inspect the cause chain for specifics.
func ProcessingError(msg string, err error) *Error {
	return &Error{Kind: KindProcessing, Message: msg, Err: err}
}

// ConfigError reports an invalid configuration value.
func ConfigError(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Err: err}
}

// CancelledError reports that an operation was cancelled.
func CancelledError(msg string, err error) *Error {
	return &Error{Kind: KindCancelled, Message: msg, Err: err}
}
