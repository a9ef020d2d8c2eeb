package preview

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotate returns img turned clockwise by degrees, which must be a multiple
// of 90. This matches how viewers apply a page's /Rotate entry.
func Rotate(img image.Image, degrees int) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	x0, y0 := float64(b.Min.X), float64(b.Min.Y)

	var dst *image.RGBA
	var s2d f64.Aff3
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		// (x, y) -> (h - y, x)
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		s2d = f64.Aff3{0, -1, h + y0, 1, 0, -x0}
	case 180:
		// (x, y) -> (w - x, h - y)
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		s2d = f64.Aff3{-1, 0, w + x0, 0, -1, h + y0}
	case 270:
		// (x, y) -> (y, w - x)
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		s2d = f64.Aff3{0, 1, -y0, -1, 0, w + x0}
	default:
		return img
	}

	draw.NearestNeighbor.Transform(dst, s2d, img, b, draw.Src, nil)
	return dst
}

// Fit scales img down, keeping its aspect ratio, until it fits in a
// maxWidth x maxHeight box. Images that already fit are returned as is.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || maxHeight <= 0 || (b.Dx() <= maxWidth && b.Dy() <= maxHeight) {
		return img
	}

	scale := math.Min(float64(maxWidth)/float64(b.Dx()), float64(maxHeight)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
