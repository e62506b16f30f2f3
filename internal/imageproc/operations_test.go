package imageproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T, w, h int, fill func(x, y int) color.NRGBA) *image.NRGBA {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fill(x, y))
		}
	}
	return img
}

func solid(c color.NRGBA) func(x, y int) color.NRGBA {
	return func(int, int) color.NRGBA { return c }
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     model.RawImage
		want    []uint8
		wantErr bool
	}{
		{
			name: "float samples",
			raw:  model.RawImage{Width: 2, Height: 1, Channels: 3, Float: []float32{0, 0.5, 1, 0.999, -0.2, 1.7}},
			want: []uint8{0, 127, 255, 254, 0, 255},
		},
		{
			name: "byte samples",
			raw:  model.RawImage{Width: 1, Height: 1, Channels: 3, Bytes: []uint8{10, 20, 30}},
			want: []uint8{10, 20, 30},
		},
		{
			name:    "zero width",
			raw:     model.RawImage{Width: 0, Height: 1, Channels: 3, Bytes: []uint8{}},
			wantErr: true,
		},
		{
			name:    "four channels",
			raw:     model.RawImage{Width: 1, Height: 1, Channels: 4, Bytes: []uint8{1, 2, 3, 4}},
			wantErr: true,
		},
		{
			name:    "short buffer",
			raw:     model.RawImage{Width: 2, Height: 2, Channels: 3, Bytes: []uint8{1, 2, 3}},
			wantErr: true,
		},
		{
			name:    "dimensions overflow",
			raw:     model.RawImage{Width: 1 << 32, Height: 1 << 32, Channels: 3, Float: []float32{}},
			wantErr: true,
		},
		{
			name:    "too many pixels",
			raw:     model.RawImage{Width: MaxPixels/2 + 1, Height: 2, Channels: 3, Bytes: []uint8{}},
			wantErr: true,
		},
		{
			name:    "no samples",
			raw:     model.RawImage{Width: 1, Height: 1, Channels: 3},
			wantErr: true,
		},
		{
			name:    "both sample kinds",
			raw:     model.RawImage{Width: 1, Height: 1, Channels: 3, Bytes: []uint8{1, 2, 3}, Float: []float32{0, 0, 0}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Normalize(tt.raw)

			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrInvalidInput)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.raw.Width, src.Width)
			require.Equal(t, tt.raw.Height, src.Height)
			require.Equal(t, tt.want, src.Pix)
		})
	}
}

func TestNormalize_DoesNotAliasProducerBuffer(t *testing.T) {
	raw := model.RawImage{Width: 1, Height: 1, Channels: 3, Bytes: []uint8{1, 2, 3}}

	src, err := Normalize(raw)
	require.NoError(t, err)

	raw.Bytes[0] = 99
	require.Equal(t, uint8(1), src.Pix[0])
}

func TestToNRGBA_FromImage(t *testing.T) {
	src := &model.SourceImage{Width: 2, Height: 1, Pix: []uint8{1, 2, 3, 4, 5, 6}}

	img := ToNRGBA(src)
	require.Equal(t, 2, img.Bounds().Dx())
	require.Equal(t, color.NRGBA{R: 4, G: 5, B: 6, A: 255}, img.NRGBAAt(1, 0))

	raw := FromImage(img)
	require.Equal(t, 3, raw.Channels)
	require.Equal(t, src.Pix, raw.Bytes)
}

func TestCropOffsets(t *testing.T) {
	for w := 1; w <= 40; w += 3 {
		for h := 1; h <= 40; h += 4 {
			minDim, left, top := CropOffsets(w, h)
			require.Equal(t, min(w, h), minDim)
			require.Equal(t, (w-minDim)/2, left)
			require.Equal(t, (h-minDim)/2, top)
		}
	}
}

func TestCropThumbnailer(t *testing.T) {
	dims := [][2]int{{300, 200}, {200, 300}, {64, 64}, {5, 4}, {1, 900}}

	for _, d := range dims {
		for _, size := range []int{100, 150, 600} {
			img := testImage(t, d[0], d[1], solid(color.NRGBA{R: 100, G: 100, B: 200, A: 255}))

			thumb := CropThumbnailer{}.Thumbnail(img, size)

			require.Equal(t, size, thumb.Bounds().Dx())
			require.Equal(t, size, thumb.Bounds().Dy())
		}
	}
}

func TestCropThumbnailer_TakesCenter(t *testing.T) {
	// три вертикальные полосы: красная, зеленая, синяя; в кроп попадает только зеленая
	img := testImage(t, 300, 100, func(x, _ int) color.NRGBA {
		switch {
		case x < 100:
			return color.NRGBA{R: 255, A: 255}
		case x < 200:
			return color.NRGBA{G: 255, A: 255}
		default:
			return color.NRGBA{B: 255, A: 255}
		}
	})

	thumb := CropThumbnailer{}.Thumbnail(img, 50)

	for _, x := range []int{0, 25, 49} {
		r, g, b, _ := thumb.At(x, 25).RGBA()
		require.Less(t, r>>8, uint32(10))
		require.Greater(t, g>>8, uint32(245))
		require.Less(t, b>>8, uint32(10))
	}
}

func TestFitThumbnailer(t *testing.T) {
	tests := []struct {
		name       string
		w, h, size int
		wantW      int
		wantH      int
	}{
		{"landscape", 300, 200, 150, 150, 100},
		{"portrait", 200, 300, 150, 100, 150},
		{"square", 64, 64, 100, 100, 100},
		{"truncates toward zero", 1000, 333, 100, 100, 33},
		{"tiny short edge", 900, 1, 100, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := testImage(t, tt.w, tt.h, solid(color.NRGBA{R: 10, G: 20, B: 30, A: 255}))

			thumb := FitThumbnailer{}.Thumbnail(img, tt.size)

			require.Equal(t, tt.wantW, thumb.Bounds().Dx())
			require.Equal(t, tt.wantH, thumb.Bounds().Dy())
		})
	}
}

func TestNewThumbnailer(t *testing.T) {
	require.IsType(t, FitThumbnailer{}, NewThumbnailer(StrategyFit))
	require.IsType(t, CropThumbnailer{}, NewThumbnailer(StrategyCrop))
	require.IsType(t, CropThumbnailer{}, NewThumbnailer(""))
}
