package extract

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenticmd/pdf2md/internal/engine/enginetest"
)

func TestEncodeImagePNG(t *testing.T) {
	data, err := encodeImage(enginetest.UniformImage(42, 4), "png")
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), decoded.Bounds())
}

func TestEncodeImageJPEG(t *testing.T) {
	for _, format := range []string{"jpg", "jpeg"} {
		data, err := encodeImage(enginetest.UniformImage(42, 4), format)
		require.NoError(t, err, format)

		_, err = jpeg.Decode(bytes.NewReader(data))
		assert.NoError(t, err, format)
	}
}

func TestEncodeImageUnsupportedFormat(t *testing.T) {
	_, err := encodeImage(enginetest.UniformImage(42, 4), "bmp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestEncodeImageConvertsCMYK(t *testing.T) {
	data, err := encodeImage(enginetest.CMYKImage(100, 4), "png")
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), decoded.Bounds())
}

func TestContentIDIsDeterministic(t *testing.T) {
	a, err := encodeImage(enginetest.UniformImage(7, 8), "png")
	require.NoError(t, err)
	b, err := encodeImage(enginetest.UniformImage(7, 8), "png")
	require.NoError(t, err)
	c, err := encodeImage(enginetest.UniformImage(8, 8), "png")
	require.NoError(t, err)

	assert.Equal(t, contentID(a), contentID(b))
	assert.NotEqual(t, contentID(a), contentID(c))
}

func TestContentIDShape(t *testing.T) {
	id := contentID([]byte("payload"))
	assert.Len(t, id, imageIDLen)
	assert.Regexp(t, "^[0-9a-f]+$", id)
}
