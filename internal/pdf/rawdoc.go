// Package pdf owns the raw document lifecycle: source selection (file
// path or base64 payload), load-once semantics, and deterministic release
// of the native handle.
package pdf

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agenticmd/pdf2md/internal/async"
	"github.com/agenticmd/pdf2md/internal/domain"
	"github.com/agenticmd/pdf2md/internal/engine"
)

// RawDocument holds exactly one document source and, once loaded, the
// open native handle. The handle is exclusively owned: Close releases it
// and nothing else may keep a reference past that point.
type RawDocument struct {
	filePath      string
	base64Content string
	eng           engine.Engine
	log           zerolog.Logger

	mu     sync.Mutex
	doc    engine.Document
	loaded bool
}

// NewRawDocument constructs an unloaded document from exactly one of
// filePath or base64Content. Supplying neither, or both, is an
// initialization error.
func NewRawDocument(filePath, base64Content string, eng engine.Engine, log zerolog.Logger) (*RawDocument, error) {
	if filePath == "" && base64Content == "" {
		return nil, domain.InitializationError("either a file path or base64 content must be provided", nil)
	}
	if filePath != "" && base64Content != "" {
		return nil, domain.InitializationError("file path and base64 content are mutually exclusive", nil)
	}
	if eng == nil {
		return nil, domain.InitializationError("a document engine must be provided", nil)
	}
	return &RawDocument{
		filePath:      filePath,
		base64Content: base64Content,
		eng:           eng,
		log:           log,
	}, nil
}

// Source describes the document origin for diagnostics.
func (r *RawDocument) Source() string {
	if r.filePath != "" {
		return fmt.Sprintf("file %s", r.filePath)
	}
	return "base64 content"
}

// IsLoaded reports whether the native handle is open.
func (r *RawDocument) IsLoaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Content returns the open native handle. Accessing it before a
// successful Load is an API misuse reported as a not-loaded error.
func (r *RawDocument) Content() (engine.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil, domain.NotLoadedError("PDF content not loaded; call Load or LoadAsync first")
	}
	return r.doc, nil
}

// Load opens the document inline. Calling Load on an already loaded
// document is a no-op.
func (r *RawDocument) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	doc, err := r.open()
	if err != nil {
		return err
	}
	r.doc = doc
	r.loaded = true
	r.log.Debug().Str("source", r.Source()).Int("pages", doc.PageCount()).Msg("PDF loaded")
	return nil
}

// LoadAsync offloads the decode-and-open work to the executor so the
// caller is never blocked, and returns the operation tracking it.
func (r *RawDocument) LoadAsync(ctx context.Context, exec *async.Executor) *async.Operation[*RawDocument] {
	name := fmt.Sprintf("load %s", r.Source())
	return async.StartOperation(ctx, exec, name, r.log, func(context.Context) (*RawDocument, error) {
		if err := r.Load(); err != nil {
			return nil, err
		}
		return r, nil
	})
}

func (r *RawDocument) open() (engine.Document, error) {
	if r.filePath != "" {
		if err := NewValidator(r.log).ValidatePath(r.filePath); err != nil {
			return nil, err
		}
		doc, err := r.eng.Open(r.filePath)
		if err != nil {
			return nil, classifyOpenErr(err, fmt.Sprintf("failed to load PDF from %s", r.filePath))
		}
		return doc, nil
	}

	data, err := decodeBase64Payload(r.base64Content)
	if err != nil {
		return nil, err
	}
	doc, err := r.eng.OpenBytes(data)
	if err != nil {
		return nil, classifyOpenErr(err, "failed to load PDF from base64 content")
	}
	return doc, nil
}

// decodeBase64Payload strips an optional data-URL header and decodes the
// remainder.
func decodeBase64Payload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.Base64Error("failed to decode base64 content", err)
	}
	return data, nil
}

func classifyOpenErr(err error, msg string) error {
	if errors.Is(err, engine.ErrInvalidDocument) {
		return domain.ContentError("invalid PDF content", err)
	}
	return domain.LoadingError(msg, err)
}

// Close releases the native handle if open. Safe to call repeatedly; the
// document returns to the unloaded state and could be loaded again.
func (r *RawDocument) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil
	}
	err := r.doc.Close()
	r.doc = nil
	r.loaded = false
	if err != nil {
		return domain.LoadingError("failed to close PDF document", err)
	}
	return nil
}
