// Package webpcodec provides the lossy WebP encoder (libwebp through cgo).
package webpcodec

import (
	"bytes"
	"fmt"
	"image"

	"github.com/UnendingLoop/WebPUploader/internal/codec"
	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// DefaultMethod - компромисс скорость/размер (0 - быстро, 6 - медленно и компактно)
const DefaultMethod = 4

type Encoder struct {
	Method int
}

func New() Encoder {
	return Encoder{Method: DefaultMethod}
}

func (e Encoder) Encode(img image.Image, quality int) ([]byte, error) {
	if err := codec.CheckQuality(quality); err != nil {
		return nil, err
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
	if err != nil {
		return nil, fmt.Errorf("%w: webp options: %w", model.ErrEncode, err)
	}
	options.Method = e.Method

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func (Encoder) ContentType() string { return model.WEBP }

func (Encoder) Ext() string { return model.GetImageFileExt[model.WEBP] }
