package eigenface

import (
	"fmt"
	"image"
	"math"
)

// Sample is one training image with the identity it belongs to.
type Sample struct {
	Image image.Image
	Label string
}

// TrainingSet is an ordered collection of labeled face images. Order
// matters: training projections keep this order, and exact-tie matches
// resolve to the earliest entry.
type TrainingSet []Sample

// ProgressInfo reports training progress to an optional callback.
type ProgressInfo struct {
	Phase   string // "vectorizing", "decomposing", "projecting"
	Current int
	Total   int
	Label   string
}

// Builder trains a face-space Model from a TrainingSet.
type Builder struct {
	Vectorizer Vectorizer
	Solver     *Solver

	// OnProgress, when set, is called as the training phases advance.
	// Correctness never depends on it.
	OnProgress func(ProgressInfo)
}

// NewBuilder creates a builder over the given vectorizer and eigensolver.
func NewBuilder(v Vectorizer, s *Solver) *Builder {
	return &Builder{Vectorizer: v, Solver: s}
}

func (b *Builder) progress(info ProgressInfo) {
	if b.OnProgress != nil {
		b.OnProgress(info)
	}
}

// Train builds a Model from the training set, retaining at most k
// eigenfaces. The effective count can come out lower than k when the
// training data has fewer informative directions (at most one less than
// the number of images); that is a normal outcome and yields a smaller
// model, never an error.
//
// The heavy lifting happens on the Gram matrix X·X' of the centered
// training vectors - number-of-images squared - rather than the full
// pixel-space covariance, whose eigenvectors are then mapped back to
// pixel space via X'·u.
func (b *Builder) Train(set TrainingSet, k int) (*Model, error) {
	count := len(set)
	if count < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientData, count)
	}
	if k <= 0 {
		return nil, fmt.Errorf("eigenface count must be positive, got %d", k)
	}

	// Vectorize every image; any dimension mismatch aborts training.
	vectors := make([][]float64, count)
	for i, sample := range set {
		vec, err := b.Vectorizer.Vectorize(sample.Image)
		if err != nil {
			return nil, fmt.Errorf("training image %d (%s): %w", i, sample.Label, err)
		}
		vectors[i] = vec
		b.progress(ProgressInfo{Phase: "vectorizing", Current: i + 1, Total: count, Label: sample.Label})
	}

	dim := b.Vectorizer.Dim()

	// Mean face and centered matrix X.
	mean := make([]float64, dim)
	for _, vec := range vectors {
		for d, val := range vec {
			mean[d] += val
		}
	}
	for d := range mean {
		mean[d] /= float64(count)
	}

	centered := make([][]float64, count)
	for i, vec := range vectors {
		row := make([]float64, dim)
		for d, val := range vec {
			row[d] = val - mean[d]
		}
		centered[i] = row
	}

	// Gram matrix G = X·X'. Symmetric, so compute the upper triangle
	// and mirror.
	gram := make([][]float64, count)
	for i := range gram {
		gram[i] = make([]float64, count)
	}
	for i := 0; i < count; i++ {
		for j := i; j < count; j++ {
			d := vecDot(centered[i], centered[j])
			gram[i][j] = d
			gram[j][i] = d
		}
	}

	// Centered data has rank at most count-1.
	target := k
	if target > count-1 {
		target = count - 1
	}
	if target > dim {
		target = dim
	}

	b.progress(ProgressInfo{Phase: "decomposing", Current: 0, Total: target})
	pairs, err := b.Solver.TopK(gram, target)
	if err != nil {
		return nil, fmt.Errorf("eigendecomposition: %w", err)
	}

	// Map each small eigenvector back to pixel space: e = X'·u,
	// renormalized. Degenerate directions are dropped.
	var eigenfaces [][]float64
	var eigenvalues []float64
	for idx, pair := range pairs {
		face := make([]float64, dim)
		for i, u := range pair.Vector {
			if u == 0 {
				continue
			}
			row := centered[i]
			for d := range row {
				face[d] += u * row[d]
			}
		}
		norm := vecNorm(face)
		if math.IsNaN(norm) || math.IsInf(norm, 0) {
			return nil, fmt.Errorf("%w: eigenface %d is not finite", ErrNoConvergence, idx)
		}
		if norm < rankEpsilon {
			continue
		}
		for d := range face {
			face[d] /= norm
		}
		eigenfaces = append(eigenfaces, face)
		eigenvalues = append(eigenvalues, pair.Value)
		b.progress(ProgressInfo{Phase: "decomposing", Current: len(eigenfaces), Total: target})
	}

	if len(eigenfaces) == 0 {
		return nil, fmt.Errorf("%w: training images carry no variance", ErrInsufficientData)
	}

	// Project every training image into the retained face space.
	projections := make([][]float64, count)
	labels := make([]string, count)
	for i, row := range centered {
		proj := make([]float64, len(eigenfaces))
		for j, face := range eigenfaces {
			proj[j] = vecDot(row, face)
		}
		projections[i] = proj
		labels[i] = set[i].Label
		b.progress(ProgressInfo{Phase: "projecting", Current: i + 1, Total: count, Label: set[i].Label})
	}

	model := &Model{
		Width:       b.Vectorizer.Width,
		Height:      b.Vectorizer.Height,
		MeanFace:    mean,
		Eigenfaces:  eigenfaces,
		Eigenvalues: eigenvalues,
		Projections: projections,
		Labels:      labels,
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoConvergence, err)
	}
	return model, nil
}
