package imageproc

import (
	"image"

	"github.com/nfnt/resize"
)

// FitThumbnailer keeps the aspect ratio: the long edge becomes size, the short edge is
// scaled and truncated. Output is NOT square, unlike CropThumbnailer.
type FitThumbnailer struct{}

func (FitThumbnailer) Thumbnail(src image.Image, size int) image.Image {
	w, h := FitDimensions(src.Bounds().Dx(), src.Bounds().Dy(), size)
	return resize.Resize(uint(w), uint(h), src, resize.Bilinear)
}

// FitDimensions computes aspect-preserving dimensions with long edge = size.
func FitDimensions(w, h, size int) (int, int) {
	if w >= h {
		return size, max(1, h*size/w)
	}
	return max(1, w*size/h), size
}
