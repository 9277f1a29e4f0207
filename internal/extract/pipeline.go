// Package extract runs the two-pass extraction algorithm: an image
// deduplication pass over the whole document, then a page assembly pass
// that resolves references against the deduplicated store.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agenticmd/pdf2md/internal/async"
	"github.com/agenticmd/pdf2md/internal/domain"
	"github.com/agenticmd/pdf2md/internal/engine"
	"github.com/agenticmd/pdf2md/internal/pdf"
)

// Pipeline consumes a loaded RawDocument and owns the resulting page
// sequence and content-addressed image store. The document is borrowed:
// the pipeline never closes it.
//
// A pipeline processes at most once. After a successful run the page
// sequence and image store are immutable and safe for unsynchronized
// concurrent reads.
type Pipeline struct {
	raw *pdf.RawDocument
	cfg domain.Config
	log zerolog.Logger

	mu        sync.Mutex
	processed bool
	pages     []domain.PageRecord
	images    map[string][]byte
}

// NewPipeline validates the configuration and builds an unprocessed
// pipeline over raw.
func NewPipeline(raw *pdf.RawDocument, cfg domain.Config, log zerolog.Logger) (*Pipeline, error) {
	if raw == nil {
		return nil, domain.InitializationError("a raw document must be provided", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		raw:    raw,
		cfg:    cfg,
		log:    log,
		images: make(map[string][]byte),
	}, nil
}

// Process runs the two-pass extraction inline. It lazily loads the raw
// document first. Re-invoking on a processed pipeline is a no-op. Any
// failure surfaces as a single processing-kind error carrying the
// original cause.
func (p *Pipeline) Process() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.processed {
		return nil
	}

	if !p.raw.IsLoaded() {
		if err := p.raw.Load(); err != nil {
			return domain.ProcessingError("failed to process PDF", err)
		}
	}
	doc, err := p.raw.Content()
	if err != nil {
		return domain.ProcessingError("failed to process PDF", err)
	}

	if err := p.run(doc); err != nil {
		p.log.Error().Err(err).Msg("PDF processing failed")
		return domain.ProcessingError("failed to process PDF", err)
	}
	p.processed = true
	p.log.Info().
		Int("pages", len(p.pages)).
		Int("images", len(p.images)).
		Msg("PDF processing completed")
	return nil
}

// ProcessAsync offloads the whole two-pass run to the executor and
// returns the operation tracking it. The run itself is atomic: the token
// model in this design cancels scheduling, not a run in flight.
func (p *Pipeline) ProcessAsync(ctx context.Context, exec *async.Executor) *async.Operation[*Pipeline] {
	name := fmt.Sprintf("process %s", p.raw.Source())
	return async.StartOperation(ctx, exec, name, p.log, func(context.Context) (*Pipeline, error) {
		if err := p.Process(); err != nil {
			return nil, err
		}
		return p, nil
	})
}

func (p *Pipeline) run(doc engine.Document) error {
	// A failed run may leave partial state behind; start clean so a
	// retry cannot duplicate pages.
	p.pages = nil
	p.images = make(map[string][]byte)

	total := doc.PageCount()
	p.log.Info().Int("pages", total).Msg("starting PDF processing")

	cache, err := p.extractImages(doc)
	if err != nil {
		return err
	}
	return p.assemblePages(doc, cache)
}

// extractImages is pass 1: visit every page in order, decode each
// distinct image object once, and record the object-to-id mapping for
// pass 2. Individual image or per-page enumeration failures are logged
// and skipped; only a catastrophic failure walking the document itself
// is fatal.
func (p *Pipeline) extractImages(doc engine.Document) (cache map[int]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			cache, err = nil, domain.ImageExtractionError(fmt.Sprintf("failed to extract images: %v", r), nil)
		}
	}()

	cache = make(map[int]string)
	for i := 0; i < doc.PageCount(); i++ {
		objs, pageErr := doc.PageImages(i)
		if pageErr != nil {
			p.log.Warn().Int("page", i+1).Err(pageErr).Msg("failed to get images from page")
			continue
		}
		for _, obj := range objs {
			if _, seen := cache[obj.Number]; seen {
				continue
			}
			id, imgErr := p.extractSingleImage(doc, obj)
			if imgErr != nil {
				p.log.Warn().
					Int("object", obj.Number).
					Int("page", i+1).
					Err(imgErr).
					Msg("failed to extract image")
				continue
			}
			// id is empty for images dropped by the size cap; the
			// mapping is still recorded so pass 2 skips their
			// references instead of retrying the decode.
			cache[obj.Number] = id
		}
	}
	return cache, nil
}

// extractSingleImage decodes, normalizes, encodes and stores one image
// object. It returns the assigned content id, or "" when the encoded
// bytes exceed the configured size cap.
func (p *Pipeline) extractSingleImage(doc engine.Document, obj engine.ImageObject) (string, error) {
	img, err := doc.DecodeImage(obj)
	if err != nil {
		return "", err
	}
	data, err := encodeImage(img, p.cfg.ImageFormat)
	if err != nil {
		return "", err
	}

	if p.cfg.MaxImageSize > 0 && len(data) > p.cfg.MaxImageSize {
		p.log.Warn().
			Int("object", obj.Number).
			Int("size", len(data)).
			Int("max_size", p.cfg.MaxImageSize).
			Msg("image exceeds size limit, dropping")
		return "", nil
	}

	id := contentID(data)
	p.images[id] = data
	return id, nil
}

// assemblePages is pass 2: build one PageRecord per page in document
// order. Text or screenshot failures are fatal and carry the 1-indexed
// page number.
func (p *Pipeline) assemblePages(doc engine.Document, cache map[int]string) error {
	total := doc.PageCount()
	for i := 0; i < total; i++ {
		if p.cfg.LogProgress {
			p.log.Info().Int("page", i+1).Int("total", total).Msg("processing page")
		}
		record, err := p.assemblePage(doc, i, cache)
		if err != nil {
			p.log.Error().Int("page", i+1).Err(err).Msg("failed to process page")
			return domain.PageError(i+1, err)
		}
		p.pages = append(p.pages, *record)
	}
	return nil
}

func (p *Pipeline) assemblePage(doc engine.Document, pageIndex int, cache map[int]string) (*domain.PageRecord, error) {
	text, err := doc.PageText(pageIndex)
	if err != nil {
		return nil, domain.TextExtractionError(fmt.Sprintf("failed to extract text from page %d", pageIndex+1), err)
	}

	screenshot, err := p.renderScreenshot(doc, pageIndex)
	if err != nil {
		return nil, err
	}

	return &domain.PageRecord{
		PageNumber: pageIndex + 1,
		Text:       text,
		Screenshot: screenshot,
		ImageRefs:  p.pageImageRefs(doc, pageIndex, cache),
	}, nil
}

func (p *Pipeline) renderScreenshot(doc engine.Document, pageIndex int) ([]byte, error) {
	img, err := doc.RenderPage(pageIndex, p.cfg.ScreenshotDPI)
	if err != nil {
		return nil, domain.ScreenshotError(fmt.Sprintf("failed to render screenshot for page %d", pageIndex+1), err)
	}
	data, err := encodeImage(img, p.cfg.ScreenshotFormat)
	if err != nil {
		return nil, domain.ScreenshotError(fmt.Sprintf("failed to encode screenshot for page %d", pageIndex+1), err)
	}
	return data, nil
}

// pageImageRefs re-enumerates a page's image objects and resolves each
// against the pass-1 cache. Never fatal: enumeration or bounding-box
// failures degrade to skipped references.
func (p *Pipeline) pageImageRefs(doc engine.Document, pageIndex int, cache map[int]string) []domain.ImageReference {
	objs, err := doc.PageImages(pageIndex)
	if err != nil {
		p.log.Warn().Int("page", pageIndex+1).Err(err).Msg("failed to get image references for page")
		return nil
	}

	var refs []domain.ImageReference
	for _, obj := range objs {
		id, ok := cache[obj.Number]
		if !ok || id == "" {
			continue
		}
		bbox, err := doc.ImageBBox(pageIndex, obj)
		if err != nil {
			if errors.Is(err, engine.ErrBBoxUnavailable) {
				p.log.Debug().Int("object", obj.Number).Int("page", pageIndex+1).Msg("image bounding box unavailable")
			} else {
				p.log.Warn().Int("object", obj.Number).Int("page", pageIndex+1).Err(err).Msg("failed to get image bounding box")
			}
			continue
		}
		refs = append(refs, domain.ImageReference{
			ID:         id,
			BBox:       bbox,
			PageNumber: pageIndex + 1,
		})
	}
	return refs
}

// Processed reports whether the pipeline has completed a run.
func (p *Pipeline) Processed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// GetImage returns stored image bytes by content id.
func (p *Pipeline) GetImage(id string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.images[id]
	return data, ok
}

// GetPage returns the 1-indexed page record, or false for out-of-range
// page numbers.
func (p *Pipeline) GetPage(pageNumber int) (*domain.PageRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pageNumber < 1 || pageNumber > len(p.pages) {
		return nil, false
	}
	return &p.pages[pageNumber-1], true
}

// Pages returns the page records in page order.
func (p *Pipeline) Pages() []domain.PageRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pages
}

// PageCount returns the number of assembled pages.
func (p *Pipeline) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// ImageCount returns the number of unique stored images.
func (p *Pipeline) ImageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.images)
}

// AllPagesLLMInput concatenates every page's serialized form in page
// order, separated by a blank line.
func (p *Pipeline) AllPagesLLMInput() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	parts := make([]string, 0, len(p.pages))
	for i := range p.pages {
		parts = append(parts, p.pages[i].ToLLMInput(p.cfg.IncludeLayoutHints))
	}
	return strings.Join(parts, "\n\n")
}

func (p *Pipeline) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.processed {
		return "Pipeline(not processed)"
	}
	return fmt.Sprintf("Pipeline(processed, pages=%d, images=%d)", len(p.pages), len(p.images))
}
