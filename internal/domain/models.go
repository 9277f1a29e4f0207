package domain

import (
	"fmt"
	"strings"
)

// Rect is an axis-aligned rectangle in page-space coordinates.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", r.X0, r.Y0, r.X1, r.Y1)
}

// Valid reports whether the rectangle has positive extent on both axes.
func (r Rect) Valid() bool {
	return r.X1 > r.X0 && r.Y1 > r.Y0
}

// ImageReference points at a deduplicated image occurrence on a page.
// Many references may share one ID; the bytes live once in the pipeline's
// image store.
type ImageReference struct {
	// ID is a fixed-width hex prefix of the content hash of the encoded
	// image bytes, stable across duplicate occurrences.
	ID string
	// BBox is the placement rectangle on the owning page.
	BBox Rect
	// PageNumber is 1-indexed.
	PageNumber int
}

// PageRecord is one fully assembled page produced by the extraction
// pipeline. Records are immutable once the pipeline reports processed.
type PageRecord struct {
	// PageNumber is 1-indexed and contiguous across a pipeline run.
	PageNumber int
	// Text is the raw extracted page text; may be empty.
	Text string
	// Screenshot holds the encoded full-page raster.
	Screenshot []byte
	// ImageRefs lists embedded image occurrences in encounter order.
	ImageRefs []ImageReference
}

// ToLLMInput renders the page in a token-minimal textual form for language
// model consumption. Empty text omits the content line; an empty image list
// omits the whole images block. Position lines appear only when
// includeLayoutHints is set.
func (p *PageRecord) ToLLMInput(includeLayoutHints bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Page %d]", p.PageNumber)

	if text := strings.TrimSpace(p.Text); text != "" {
		b.WriteByte('\n')
		b.WriteString(text)
	}

	if len(p.ImageRefs) > 0 {
		b.WriteString("\n\n[Images on this page:]")
		for _, ref := range p.ImageRefs {
			fmt.Fprintf(&b, "\n[IMAGE: %s]", ref.ID)
			if includeLayoutHints {
				fmt.Fprintf(&b, "\n  Position: %s", ref.BBox)
			}
		}
	}

	return b.String()
}
