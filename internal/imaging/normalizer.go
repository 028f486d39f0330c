package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	disimaging "github.com/disintegration/imaging"

	"github.com/makersnearby/makersnearby-backend/pkg/config"
)

var (
	// ErrDecodeFailed means the source bytes could not be decoded as an image.
	ErrDecodeFailed = errors.New("image decode failed")
	// ErrRenderUnavailable means the crop could not be rendered from the decoded source.
	ErrRenderUnavailable = errors.New("render unavailable")
)

// CropSpec describes the user-adjusted crop over the source image. Rect is in
// source pixel coordinates; Zoom shrinks the visible window around the rect
// center (zoom 2.0 keeps half the width and height).
type CropSpec struct {
	Rect image.Rectangle
	Zoom float64
}

// Normalizer crops and re-encodes a single source image to a bounded JPEG.
// It is stateless and safe for concurrent use.
type Normalizer struct {
	maxWidth  int
	maxHeight int
	quality   int
	minZoom   float64
	maxZoom   float64
}

func NewNormalizer(cfg config.MediaConfig) *Normalizer {
	return &Normalizer{
		maxWidth:  cfg.ImageMaxWidth,
		maxHeight: cfg.ImageMaxHeight,
		quality:   cfg.ImageQuality,
		minZoom:   cfg.MinZoom,
		maxZoom:   cfg.MaxZoom,
	}
}

// Normalize decodes the source, applies the crop window, bounds the result to
// the configured dimensions and returns the encoded JPEG bytes. Failure leaves
// no output; callers keep the current file in place so the user can retry.
func (n *Normalizer) Normalize(src io.Reader, spec CropSpec) ([]byte, error) {
	img, err := disimaging.Decode(src, disimaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	window, err := n.cropWindow(img.Bounds(), spec)
	if err != nil {
		return nil, err
	}

	cropped := disimaging.Crop(img, window)
	if cropped.Bounds().Empty() {
		return nil, fmt.Errorf("%w: crop produced an empty image", ErrRenderUnavailable)
	}

	if b := cropped.Bounds(); b.Dx() > n.maxWidth || b.Dy() > n.maxHeight {
		cropped = disimaging.Fit(cropped, n.maxWidth, n.maxHeight, disimaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := disimaging.Encode(&buf, cropped, disimaging.JPEG, disimaging.JPEGQuality(n.quality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderUnavailable, err)
	}
	return buf.Bytes(), nil
}

// ClampZoom bounds a requested zoom factor to the configured range.
func (n *Normalizer) ClampZoom(zoom float64) float64 {
	if zoom < n.minZoom {
		return n.minZoom
	}
	if zoom > n.maxZoom {
		return n.maxZoom
	}
	return zoom
}

func (n *Normalizer) cropWindow(bounds image.Rectangle, spec CropSpec) (image.Rectangle, error) {
	rect := spec.Rect
	if rect.Empty() {
		rect = bounds
	}
	if !rect.In(bounds) {
		return image.Rectangle{}, fmt.Errorf("%w: crop rect %v outside source bounds %v", ErrRenderUnavailable, rect, bounds)
	}

	zoom := n.ClampZoom(spec.Zoom)
	if zoom <= 1.0 {
		return rect, nil
	}

	// Zoom narrows the window around the rect center.
	w := int(float64(rect.Dx()) / zoom)
	h := int(float64(rect.Dy()) / zoom)
	if w < 1 || h < 1 {
		return image.Rectangle{}, fmt.Errorf("%w: zoom %0.2f collapses crop window", ErrRenderUnavailable, zoom)
	}
	cx := rect.Min.X + rect.Dx()/2
	cy := rect.Min.Y + rect.Dy()/2
	return image.Rect(cx-w/2, cy-h/2, cx-w/2+w, cy-h/2+h), nil
}
