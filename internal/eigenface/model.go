package eigenface

import (
	"fmt"
	"math"
)

// unitNormTolerance is how far an eigenface norm may drift from 1 before
// the model is considered corrupted (e.g. a lossy persistence round-trip).
const unitNormTolerance = 1e-6

// Model is a trained face space. It is built once by Builder.Train,
// persisted as-is, and consumed read-only by Recognize - it is never
// mutated after construction, so a single Model is safe to share across
// any number of concurrent recognitions.
type Model struct {
	Width  int
	Height int

	// MeanFace is the average training vector, length Width*Height.
	MeanFace []float64
	// Eigenfaces are unit-norm principal directions in pixel space,
	// ranked by descending eigenvalue.
	Eigenfaces [][]float64
	// Eigenvalues pair positionally with Eigenfaces, non-increasing.
	Eigenvalues []float64
	// Projections holds the face-space coordinates of every training
	// image, parallel to Labels and in training order.
	Projections [][]float64
	Labels      []string
}

// K returns the number of retained eigenfaces.
func (m *Model) K() int {
	return len(m.Eigenfaces)
}

// People returns the distinct labels in first-seen training order.
func (m *Model) People() []string {
	seen := make(map[string]bool, len(m.Labels))
	var people []string
	for _, label := range m.Labels {
		if !seen[label] {
			seen[label] = true
			people = append(people, label)
		}
	}
	return people
}

// TotalVariance returns the sum of all eigenvalues, the variance captured
// by the retained face space.
func (m *Model) TotalVariance() float64 {
	var sum float64
	for _, ev := range m.Eigenvalues {
		sum += ev
	}
	return sum
}

// Validate checks the shape invariants that tie the model fields together.
// It runs at construction time and again after every load from storage, so
// a mismatched K or a truncated vector is caught before recognition ever
// sees the model.
func (m *Model) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("invalid face dimensions %dx%d", m.Width, m.Height)
	}
	n := m.Width * m.Height
	if len(m.MeanFace) != n {
		return fmt.Errorf("mean face has %d values, want %d", len(m.MeanFace), n)
	}

	k := len(m.Eigenfaces)
	if len(m.Eigenvalues) != k {
		return fmt.Errorf("%d eigenvalues for %d eigenfaces", len(m.Eigenvalues), k)
	}
	if k == 0 {
		return fmt.Errorf("model has no eigenfaces")
	}
	for i, ef := range m.Eigenfaces {
		if len(ef) != n {
			return fmt.Errorf("eigenface %d has %d values, want %d", i, len(ef), n)
		}
		if norm := vecNorm(ef); math.Abs(norm-1) > unitNormTolerance {
			return fmt.Errorf("eigenface %d has norm %g, want 1", i, norm)
		}
	}
	for i, ev := range m.Eigenvalues {
		if math.IsNaN(ev) || math.IsInf(ev, 0) {
			return fmt.Errorf("eigenvalue %d is not finite", i)
		}
		if ev <= 0 {
			return fmt.Errorf("eigenvalue %d is %g, want positive", i, ev)
		}
		if i > 0 && ev > m.Eigenvalues[i-1] {
			return fmt.Errorf("eigenvalues out of order at %d: %g > %g", i, ev, m.Eigenvalues[i-1])
		}
	}

	if len(m.Projections) == 0 {
		return fmt.Errorf("model has no training projections")
	}
	if len(m.Labels) != len(m.Projections) {
		return fmt.Errorf("%d labels for %d projections", len(m.Labels), len(m.Projections))
	}
	for i, p := range m.Projections {
		if len(p) != k {
			return fmt.Errorf("projection %d has %d coordinates, want %d", i, len(p), k)
		}
	}
	return nil
}
