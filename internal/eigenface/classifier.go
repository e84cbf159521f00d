package eigenface

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// topMatchCount is how many ranked alternatives a Result carries.
const topMatchCount = 3

// Match is one gallery candidate with its face-space distance.
type Match struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Index    int     `json:"index"` // position in training order
}

// Result is the outcome of one recognition. When the nearest gallery
// entry is farther than the threshold, Known is false and Label is empty;
// Distance still reports the nearest distance found.
type Result struct {
	Known    bool    `json:"known"`
	Label    string  `json:"label,omitempty"`
	Distance float64 `json:"distance"`
	Matches  []Match `json:"matches"`
}

// Recognize identifies the query image against the model's gallery.
// The query is vectorized, centered on the model's mean face, projected
// into face space, and matched to the nearest training projection by
// euclidean distance. A nearest distance above threshold rejects the
// query as unknown. Exact ties resolve to the earliest entry in training
// order.
//
// Pure function of its arguments; any number of goroutines may call it
// concurrently on a shared Model.
func Recognize(m *Model, img image.Image, threshold float64) (*Result, error) {
	vectorizer := Vectorizer{Width: m.Width, Height: m.Height}
	vec, err := vectorizer.Vectorize(img)
	if err != nil {
		return nil, fmt.Errorf("query image: %w", err)
	}
	return RecognizeVector(m, vec, threshold)
}

// RecognizeVector is Recognize for an already-flattened query vector.
func RecognizeVector(m *Model, vec []float64, threshold float64) (*Result, error) {
	if len(vec) != len(m.MeanFace) {
		return nil, fmt.Errorf("%w: query vector has %d values, want %d",
			ErrDimensionMismatch, len(vec), len(m.MeanFace))
	}

	query := Project(m, vec)

	best := 0
	bestDist := math.Inf(1)
	distances := make([]float64, len(m.Projections))
	for i, proj := range m.Projections {
		d := euclidean(query, proj)
		distances[i] = d
		// Strict less keeps the first entry in training order on ties.
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	result := &Result{
		Distance: bestDist,
		Matches:  rankMatches(m.Labels, distances),
	}
	if bestDist <= threshold {
		result.Known = true
		result.Label = m.Labels[best]
	}
	return result, nil
}

// Project centers a raw pixel vector on the model's mean face and returns
// its face-space coordinates.
func Project(m *Model, vec []float64) []float64 {
	centered := make([]float64, len(vec))
	for d, val := range vec {
		centered[d] = val - m.MeanFace[d]
	}
	proj := make([]float64, m.K())
	for j, face := range m.Eigenfaces {
		proj[j] = vecDot(centered, face)
	}
	return proj
}

// Reconstruct maps a face-space projection back to pixel space:
// mean face plus the weighted sum of eigenfaces. The reconstruction
// error against the original vector shrinks as K grows.
func Reconstruct(m *Model, projection []float64) []float64 {
	out := make([]float64, len(m.MeanFace))
	copy(out, m.MeanFace)
	for j, weight := range projection {
		if j >= m.K() {
			break
		}
		face := m.Eigenfaces[j]
		for d := range face {
			out[d] += weight * face[d]
		}
	}
	return out
}

// rankMatches returns the closest gallery entries, stable-sorted so ties
// keep training order.
func rankMatches(labels []string, distances []float64) []Match {
	matches := make([]Match, len(distances))
	for i, d := range distances {
		matches[i] = Match{Label: labels[i], Distance: d, Index: i}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Distance < matches[b].Distance
	})
	if len(matches) > topMatchCount {
		matches = matches[:topMatchCount]
	}
	return matches
}

// euclidean is the straight-line distance between two points in face space.
func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
