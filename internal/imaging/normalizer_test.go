package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersnearby/makersnearby-backend/pkg/config"
)

func testMediaConfig() config.MediaConfig {
	return config.MediaConfig{
		ImageMaxWidth:  1920,
		ImageMaxHeight: 1080,
		ImageQuality:   80,
		MinZoom:        1.0,
		MaxZoom:        3.0,
	}
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return cfg.Width, cfg.Height
}

func TestNormalizeCropsToRequestedRect(t *testing.T) {
	n := NewNormalizer(testMediaConfig())
	src := encodePNG(t, 400, 300)

	out, err := n.Normalize(bytes.NewReader(src), CropSpec{
		Rect: image.Rect(50, 50, 250, 200),
		Zoom: 1.0,
	})
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)
}

func TestNormalizeBoundsOversizedOutput(t *testing.T) {
	n := NewNormalizer(testMediaConfig())
	src := encodePNG(t, 2400, 1600)

	out, err := n.Normalize(bytes.NewReader(src), CropSpec{Zoom: 1.0})
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.LessOrEqual(t, w, 1920)
	assert.LessOrEqual(t, h, 1080)
}

func TestNormalizeZoomNarrowsWindow(t *testing.T) {
	n := NewNormalizer(testMediaConfig())
	src := encodePNG(t, 400, 400)

	out, err := n.Normalize(bytes.NewReader(src), CropSpec{
		Rect: image.Rect(0, 0, 400, 400),
		Zoom: 2.0,
	})
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.Equal(t, 200, w)
	assert.Equal(t, 200, h)
}

func TestNormalizeClampsZoomAboveMax(t *testing.T) {
	n := NewNormalizer(testMediaConfig())
	src := encodePNG(t, 300, 300)

	out, err := n.Normalize(bytes.NewReader(src), CropSpec{
		Rect: image.Rect(0, 0, 300, 300),
		Zoom: 10.0,
	})
	require.NoError(t, err)

	// zoom clamps to 3.0 so the window is a third of the rect
	w, h := decodeDims(t, out)
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)
}

func TestNormalizeRejectsRectOutsideBounds(t *testing.T) {
	n := NewNormalizer(testMediaConfig())
	src := encodePNG(t, 100, 100)

	_, err := n.Normalize(bytes.NewReader(src), CropSpec{
		Rect: image.Rect(50, 50, 200, 200),
		Zoom: 1.0,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRenderUnavailable))
}

func TestNormalizeDecodeFailure(t *testing.T) {
	n := NewNormalizer(testMediaConfig())

	_, err := n.Normalize(bytes.NewReader([]byte("not an image")), CropSpec{Zoom: 1.0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecodeFailed))
}

func TestClampZoom(t *testing.T) {
	n := NewNormalizer(testMediaConfig())
	assert.Equal(t, 1.0, n.ClampZoom(0.5))
	assert.Equal(t, 2.0, n.ClampZoom(2.0))
	assert.Equal(t, 3.0, n.ClampZoom(7.0))
}
