package eigenface

import (
	"image"
	"image/color"
)

// grayImage builds a grayscale test image from a pixel function.
func grayImage(width, height int, pixel func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: pixel(x, y)})
		}
	}
	return img
}

// patternImage builds a deterministic, non-degenerate face-like pattern.
// The quadratic terms keep different seeds linearly independent, so a set
// of these images spans the expected rank.
func patternImage(width, height, seed int) *image.Gray {
	return grayImage(width, height, func(x, y int) uint8 {
		return uint8((x*x*(seed+1) + y*y*(seed+2) + x*y*(seed+3) + 17*seed) % 251)
	})
}

// testTrainingSet builds count labeled pattern images.
func testTrainingSet(width, height, count int, labels []string) TrainingSet {
	set := make(TrainingSet, count)
	for i := 0; i < count; i++ {
		set[i] = Sample{
			Image: patternImage(width, height, i),
			Label: labels[i%len(labels)],
		}
	}
	return set
}

func testBuilder(width, height int) *Builder {
	return NewBuilder(
		Vectorizer{Width: width, Height: height},
		NewSolver(1e-12, 2000, 42),
	)
}
