package extract

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

// jpegQuality is used for jpg/jpeg output.
const jpegQuality = 90

// imageIDLen is the hex-prefix width of content-addressed image ids.
const imageIDLen = 16

// encodeImage normalizes and encodes pixel data in the configured format.
// Alpha-less sources with four channels (CMYK) are converted to RGB
// first; everything else encodes directly.
func encodeImage(img image.Image, format string) ([]byte, error) {
	if img.ColorModel() == color.CMYKModel {
		img = toRGBA(img)
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("png encode: %w", err)
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("jpeg encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return buf.Bytes(), nil
}

func toRGBA(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
	return dst
}

// contentID derives the content-addressed image id: a fixed-width hex
// prefix of the hash over the encoded bytes. Byte-identical images
// collapse to one id regardless of which native object referenced them.
func contentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:imageIDLen]
}
