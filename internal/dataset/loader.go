// Package dataset assembles training sets from a directory tree laid out
// as <dir>/<person>/<image>, one subdirectory per identity. Images are
// decoded, resized to the configured face dimensions, and labeled with
// the normalized directory name in deterministic (sorted) order.
package dataset

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/kozaktomas/face-id/internal/eigenface"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// Load builds a training set from dir. Person order and image order
// within a person are both sorted by name, so the same tree always
// yields the same training order (which matters for tie-breaks).
func Load(dir string, width, height int) (eigenface.TrainingSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory: %w", err)
	}

	var set eigenface.TrainingSet
	persons := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		persons++
		label := NormalizeLabel(entry.Name())

		personDir := filepath.Join(dir, entry.Name())
		files, err := os.ReadDir(personDir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", personDir, err)
		}
		for _, file := range files {
			if file.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(file.Name()))] {
				continue
			}
			path := filepath.Join(personDir, file.Name())
			img, err := LoadImage(path, width, height)
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", path, err)
			}
			set = append(set, eigenface.Sample{Image: img, Label: label})
		}
	}

	if persons == 0 {
		return nil, fmt.Errorf("no person directories found in %s", dir)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	return set, nil
}

// LoadImage reads one image file and fits it to the face dimensions.
// Query images go through the same path as training images so a
// recognition request never fails on size alone.
func LoadImage(path string, width, height int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return Fit(img, width, height), nil
}

// Fit resizes an image to exactly width x height grayscale. Images that
// already match pass through untouched.
func Fit(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
