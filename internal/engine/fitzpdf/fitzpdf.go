// Package fitzpdf is the production engine adapter. Page text and raster
// rendering go through MuPDF (go-fitz); embedded-image enumeration and
// extraction go through pdfcpu over the same source bytes.
package fitzpdf

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/agenticmd/pdf2md/internal/domain"
	"github.com/agenticmd/pdf2md/internal/engine"
)

// baseDPI is MuPDF's native resolution; RenderPage scale 1.0 maps to it.
const baseDPI = 72

// Engine opens PDF documents with go-fitz and pdfcpu.
type Engine struct{}

var _ engine.Engine = Engine{}

func (Engine) Open(path string) (engine.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return open(data)
}

func (Engine) OpenBytes(data []byte) (engine.Document, error) {
	return open(data)
}

func open(data []byte) (engine.Document, error) {
	fdoc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidDocument, err)
	}

	doc := &document{fdoc: fdoc}

	// pdfcpu sees the same bytes for image object access. It is stricter
	// than MuPDF, so a pdfcpu rejection degrades to "no image access"
	// rather than failing the open.
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		doc.pctxErr = err
	} else {
		doc.pctx = pctx
	}

	return doc, nil
}

type document struct {
	fdoc    *fitz.Document
	pctx    *model.Context
	pctxErr error

	// imageData caches extracted image bytes keyed by object number,
	// populated on first DecodeImage call.
	imageData map[int][]byte
}

func (d *document) PageCount() int {
	return d.fdoc.NumPage()
}

func (d *document) PageText(pageIndex int) (string, error) {
	return d.fdoc.Text(pageIndex)
}

func (d *document) RenderPage(pageIndex int, scale float64) (image.Image, error) {
	return d.fdoc.ImageDPI(pageIndex, scale*baseDPI)
}

func (d *document) PageImages(pageIndex int) ([]engine.ImageObject, error) {
	if d.pctx == nil {
		return nil, fmt.Errorf("image enumeration unavailable: %w", d.pctxErr)
	}
	objNrs := pdfcpu.ImageObjNrs(d.pctx, pageIndex+1)
	objs := make([]engine.ImageObject, 0, len(objNrs))
	for _, nr := range objNrs {
		objs = append(objs, engine.ImageObject{Number: nr})
	}
	return objs, nil
}

func (d *document) DecodeImage(obj engine.ImageObject) (image.Image, error) {
	if d.pctx == nil {
		return nil, fmt.Errorf("image extraction unavailable: %w", d.pctxErr)
	}
	if err := d.ensureImages(); err != nil {
		return nil, err
	}
	data, ok := d.imageData[obj.Number]
	if !ok {
		return nil, fmt.Errorf("image object %d not found", obj.Number)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image object %d: %w", obj.Number, err)
	}
	return img, nil
}

// ensureImages extracts every image object once, page by page.
func (d *document) ensureImages() error {
	if d.imageData != nil {
		return nil
	}
	d.imageData = make(map[int][]byte)
	for pageNr := 1; pageNr <= d.pctx.PageCount; pageNr++ {
		images, err := pdfcpu.ExtractPageImages(d.pctx, pageNr, false)
		if err != nil {
			return fmt.Errorf("extract images from page %d: %w", pageNr, err)
		}
		for objNr, img := range images {
			if _, seen := d.imageData[objNr]; seen {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				return fmt.Errorf("read image object %d: %w", objNr, err)
			}
			d.imageData[objNr] = data
		}
	}
	return nil
}

func (d *document) ImageBBox(pageIndex int, obj engine.ImageObject) (domain.Rect, error) {
	// Neither go-fitz nor pdfcpu exposes image placement rectangles, so
	// the pipeline skips position data for documents opened through this
	// adapter.
	return domain.Rect{}, engine.ErrBBoxUnavailable
}

func (d *document) Close() error {
	d.imageData = nil
	d.pctx = nil
	return d.fdoc.Close()
}
