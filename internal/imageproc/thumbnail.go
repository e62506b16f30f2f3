package imageproc

import (
	"image"

	"github.com/disintegration/imaging"
)

// Thumbnailer derives the thumbnail image from the full-resolution source.
type Thumbnailer interface {
	Thumbnail(src image.Image, size int) image.Image
}

const (
	StrategyCrop = "crop"
	StrategyFit  = "fit"
)

// NewThumbnailer returns the configured strategy; unknown names fall back to crop.
func NewThumbnailer(strategy string) Thumbnailer {
	if strategy == StrategyFit {
		return FitThumbnailer{}
	}
	return CropThumbnailer{}
}

// CropThumbnailer cuts the centered min(W,H) square and scales it to size x size with Lanczos.
type CropThumbnailer struct{}

func (CropThumbnailer) Thumbnail(src image.Image, size int) image.Image {
	b := src.Bounds()
	minDim, left, top := CropOffsets(b.Dx(), b.Dy())

	// imaging.CropCenter округляет центр иначе, поэтому режем явным прямоугольником
	rect := image.Rect(left, top, left+minDim, top+minDim).Add(b.Min)
	cropped := imaging.Crop(src, rect)

	return imaging.Resize(cropped, size, size, imaging.Lanczos)
}

// CropOffsets returns the square edge and the floor-centered top-left corner.
func CropOffsets(w, h int) (minDim, left, top int) {
	minDim = min(w, h)
	return minDim, (w - minDim) / 2, (h - minDim) / 2
}
