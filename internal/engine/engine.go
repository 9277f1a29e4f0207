// Package engine defines the contract with the native PDF engine. The
// extraction pipeline consumes documents only through these interfaces;
// the production adapter lives in engine/fitzpdf and tests substitute an
// in-memory fake.
package engine

import (
	"errors"
	"image"

	"github.com/agenticmd/pdf2md/internal/domain"
)

// ErrBBoxUnavailable is returned by ImageBBox when the engine cannot
// resolve a placement rectangle for an image occurrence. Callers treat it
// as a per-reference skip, not a failure.
var ErrBBoxUnavailable = errors.New("engine: image bounding box unavailable")

// ErrInvalidDocument marks open failures caused by structurally invalid
// document bytes, as opposed to I/O problems reaching them.
var ErrInvalidDocument = errors.New("engine: invalid document")

// ImageObject describes one embedded image resource in a document.
// The same object may be referenced from multiple pages.
type ImageObject struct {
	// Number is the engine's object identifier (PDF xref number).
	Number int
}

// Engine opens PDF documents from a path or raw bytes.
type Engine interface {
	Open(path string) (Document, error)
	OpenBytes(data []byte) (Document, error)
}

// Document is an open PDF. Implementations are not safe for concurrent
// use; the owning RawDocument serializes access.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageText extracts the raw text of a page. pageIndex is 0-based.
	PageText(pageIndex int) (string, error)

	// RenderPage rasterizes a full page at the given DPI scale factor.
	RenderPage(pageIndex int, scale float64) (image.Image, error)

	// PageImages enumerates the embedded image objects referenced by a
	// page, in document order.
	PageImages(pageIndex int) ([]ImageObject, error)

	// DecodeImage decodes an embedded image object to pixel data.
	DecodeImage(obj ImageObject) (image.Image, error)

	// ImageBBox resolves the placement rectangle of an image object on a
	// page, in page-space coordinates.
	ImageBBox(pageIndex int, obj ImageObject) (domain.Rect, error)

	// Close releases the underlying document resources.
	Close() error
}
