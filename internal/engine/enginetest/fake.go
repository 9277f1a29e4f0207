// Package enginetest provides an in-memory engine implementation for
// tests. Pages, image objects and failure injection are all declared up
// front, so pipeline behavior can be exercised without a real PDF.
package enginetest

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/agenticmd/pdf2md/internal/domain"
	"github.com/agenticmd/pdf2md/internal/engine"
)

// Page declares one fake page.
type Page struct {
	Text    string
	TextErr error

	RenderErr error

	// Images lists embedded image object numbers in encounter order.
	// Numbers may repeat within a page and across pages.
	Images    []int
	ImagesErr error

	// BBoxes maps object numbers to placement rectangles. Objects
	// without an entry report engine.ErrBBoxUnavailable.
	BBoxes map[int]domain.Rect

	// BBoxErrs overrides BBoxes with an error per object number.
	BBoxErrs map[int]error
}

// Document is a fake engine.Document.
type Document struct {
	Pages []Page

	// Objects maps object numbers to decoded pixel data.
	Objects map[int]image.Image

	// DecodeErrs injects per-object decode failures.
	DecodeErrs map[int]error

	Closed bool
}

var _ engine.Document = (*Document)(nil)

func (d *Document) PageCount() int { return len(d.Pages) }

func (d *Document) page(pageIndex int) (*Page, error) {
	if pageIndex < 0 || pageIndex >= len(d.Pages) {
		return nil, fmt.Errorf("page index %d out of range", pageIndex)
	}
	return &d.Pages[pageIndex], nil
}

func (d *Document) PageText(pageIndex int) (string, error) {
	p, err := d.page(pageIndex)
	if err != nil {
		return "", err
	}
	if p.TextErr != nil {
		return "", p.TextErr
	}
	return p.Text, nil
}

func (d *Document) RenderPage(pageIndex int, scale float64) (image.Image, error) {
	p, err := d.page(pageIndex)
	if err != nil {
		return nil, err
	}
	if p.RenderErr != nil {
		return nil, p.RenderErr
	}
	side := int(8 * scale)
	if side < 1 {
		side = 1
	}
	return UniformImage(uint8(pageIndex+1), side), nil
}

func (d *Document) PageImages(pageIndex int) ([]engine.ImageObject, error) {
	p, err := d.page(pageIndex)
	if err != nil {
		return nil, err
	}
	if p.ImagesErr != nil {
		return nil, p.ImagesErr
	}
	objs := make([]engine.ImageObject, 0, len(p.Images))
	for _, nr := range p.Images {
		objs = append(objs, engine.ImageObject{Number: nr})
	}
	return objs, nil
}

func (d *Document) DecodeImage(obj engine.ImageObject) (image.Image, error) {
	if err, ok := d.DecodeErrs[obj.Number]; ok {
		return nil, err
	}
	img, ok := d.Objects[obj.Number]
	if !ok {
		return nil, fmt.Errorf("image object %d not found", obj.Number)
	}
	return img, nil
}

func (d *Document) ImageBBox(pageIndex int, obj engine.ImageObject) (domain.Rect, error) {
	p, err := d.page(pageIndex)
	if err != nil {
		return domain.Rect{}, err
	}
	if bboxErr, ok := p.BBoxErrs[obj.Number]; ok {
		return domain.Rect{}, bboxErr
	}
	bbox, ok := p.BBoxes[obj.Number]
	if !ok {
		return domain.Rect{}, engine.ErrBBoxUnavailable
	}
	return bbox, nil
}

func (d *Document) Close() error {
	d.Closed = true
	return nil
}

// Engine is a fake engine.Engine serving a fixed document.
type Engine struct {
	// Doc is returned by Open and OpenBytes.
	Doc *Document

	// OpenErr fails every open when set.
	OpenErr error

	// LastPath and LastBytes record the most recent open call.
	LastPath  string
	LastBytes []byte
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) Open(path string) (engine.Document, error) {
	e.LastPath = path
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	if e.Doc == nil {
		return nil, errors.New("enginetest: no document configured")
	}
	return e.Doc, nil
}

func (e *Engine) OpenBytes(data []byte) (engine.Document, error) {
	e.LastBytes = data
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	if e.Doc == nil {
		return nil, errors.New("enginetest: no document configured")
	}
	return e.Doc, nil
}

// UniformImage returns a side x side image filled with one gray value.
// Distinct seeds produce distinct encoded bytes, identical seeds produce
// byte-identical encodings, which is what content-addressing tests need.
func UniformImage(seed uint8, side int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	c := color.RGBA{R: seed, G: seed, B: seed, A: 255}
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// CMYKImage returns a side x side CMYK image, exercising the pipeline's
// color-space normalization branch.
func CMYKImage(seed uint8, side int) image.Image {
	img := image.NewCMYK(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.Set(x, y, color.CMYK{C: seed, M: seed, Y: seed, K: 0})
		}
	}
	return img
}
