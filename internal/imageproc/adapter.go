// Package imageproc provides operations for images: buffer normalization and thumbnail generation.
package imageproc

import (
	"fmt"
	"image"
	"math"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/disintegration/imaging"
)

const rgbChannels = 3

// MaxPixels - предел W*H, проверяется до умножения, чтобы произведение не переполнилось
const MaxPixels = 1 << 28

// Normalize converts a producer raster into the canonical 8-bit RGB image.
func Normalize(raw model.RawImage) (*model.SourceImage, error) {
	if raw.Width <= 0 || raw.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimensions %dx%d", model.ErrInvalidInput, raw.Width, raw.Height)
	}
	if raw.Channels != rgbChannels {
		return nil, fmt.Errorf("%w: unsupported channel count %d", model.ErrInvalidInput, raw.Channels)
	}

	if raw.Width > MaxPixels/raw.Height {
		return nil, fmt.Errorf("%w: dimensions %dx%d exceed %d pixels", model.ErrInvalidInput, raw.Width, raw.Height, MaxPixels)
	}

	n := raw.Width * raw.Height * rgbChannels
	switch {
	case raw.Float != nil && raw.Bytes != nil:
		return nil, fmt.Errorf("%w: both float and byte samples provided", model.ErrInvalidInput)
	case raw.Float != nil:
		if len(raw.Float) != n {
			return nil, fmt.Errorf("%w: expected %d samples, got %d", model.ErrInvalidInput, n, len(raw.Float))
		}
		pix := make([]uint8, n)
		for i, v := range raw.Float {
			pix[i] = floatToByte(v)
		}
		return &model.SourceImage{Width: raw.Width, Height: raw.Height, Pix: pix}, nil
	case raw.Bytes != nil:
		if len(raw.Bytes) != n {
			return nil, fmt.Errorf("%w: expected %d samples, got %d", model.ErrInvalidInput, n, len(raw.Bytes))
		}
		pix := make([]uint8, n)
		copy(pix, raw.Bytes)
		return &model.SourceImage{Width: raw.Width, Height: raw.Height, Pix: pix}, nil
	default:
		return nil, fmt.Errorf("%w: empty pixel buffer", model.ErrInvalidInput)
	}
}

// умножаем на 255 и отбрасываем дробную часть, как astype(uint8); NaN дает 0
func floatToByte(v float32) uint8 {
	s := v * 255
	switch {
	case math.IsNaN(float64(s)), s <= 0:
		return 0
	case s >= 255:
		return 255
	default:
		return uint8(s)
	}
}

// ToNRGBA builds an opaque image.NRGBA over the normalized samples.
func ToNRGBA(src *model.SourceImage) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, src.Width, src.Height))
	for i, j := 0, 0; i < len(src.Pix); i, j = i+rgbChannels, j+4 {
		img.Pix[j] = src.Pix[i]
		img.Pix[j+1] = src.Pix[i+1]
		img.Pix[j+2] = src.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// FromImage flattens a decoded image into a byte-sample RawImage, dropping alpha.
func FromImage(img image.Image) model.RawImage {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()

	buf := make([]uint8, 0, w*h*rgbChannels)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			buf = append(buf, row[x], row[x+1], row[x+2])
		}
	}

	return model.RawImage{Width: w, Height: h, Channels: rgbChannels, Bytes: buf}
}
