// Package codec provides lossy encoders producing upload-ready artifacts.
package codec

import (
	"bytes"
	"fmt"
	"image"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/disintegration/imaging"
)

// Encoder compresses an image at the given quality. Implementations keep no mutable
// state, so main and thumbnail encodes may run concurrently.
type Encoder interface {
	Encode(img image.Image, quality int) ([]byte, error)
	ContentType() string
	Ext() string
}

// CheckQuality validates the common 1..100 quality scale.
func CheckQuality(quality int) error {
	if quality < model.MinQuality || quality > model.MaxQuality {
		return fmt.Errorf("%w: quality %d out of range", model.ErrEncode, quality)
	}
	return nil
}

// JPEGEncoder is the pure-Go fallback codec.
type JPEGEncoder struct{}

func (JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if err := CheckQuality(quality); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func (JPEGEncoder) ContentType() string { return model.JPEG }

func (JPEGEncoder) Ext() string { return model.GetImageFileExt[model.JPEG] }
