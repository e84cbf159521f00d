// Package eigenface implements face recognition from first principles:
// a PCA "face space" built with a hand-written power-iteration eigensolver
// (via the Gram-matrix trick) and nearest-neighbor matching of projections
// with a rejection threshold. No linear-algebra library is involved.
package eigenface

import (
	"fmt"
	"image"
)

// Vectorizer flattens fixed-size grayscale face images into float vectors.
type Vectorizer struct {
	Width  int
	Height int
}

// Dim returns the length of the vectors this vectorizer produces.
func (v Vectorizer) Dim() int {
	return v.Width * v.Height
}

// Vectorize converts an image of exactly Width x Height pixels into a
// row-major vector of luma values in the 0-255 range.
// Returns ErrDimensionMismatch for any other size.
func (v Vectorizer) Vectorize(img image.Image) ([]float64, error) {
	bounds := img.Bounds()
	if bounds.Dx() != v.Width || bounds.Dy() != v.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrDimensionMismatch, bounds.Dx(), bounds.Dy(), v.Width, v.Height)
	}

	vec := make([]float64, v.Dim())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma formula.
			vec[i] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			i++
		}
	}
	return vec, nil
}
