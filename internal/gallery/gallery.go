// Package gallery provides an in-memory approximate-nearest-neighbor
// index over a model's training projections. It exists as a shortlist
// for browsing large galleries; the exact classifier in the eigenface
// package remains the decision path for recognition.
package gallery

import (
	"errors"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-id/internal/eigenface"
)

// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
// Higher values improve recall but increase memory and build time.
const hnswMaxNeighbors = 16

// Entry is one gallery candidate returned from a search.
type Entry struct {
	Index    int     `json:"index"` // position in training order
	Label    string  `json:"label"`
	Distance float64 `json:"distance"` // exact euclidean distance in face space
}

// Index wraps an HNSW graph over face-space projections. Safe for
// concurrent use.
type Index struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[int]
	model  *eigenface.Model
	floats [][]float32 // float32 copies of the projections, by training index
}

// Build constructs the index from a trained model.
func Build(m *eigenface.Model) (*Index, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	g := hnsw.NewGraph[int]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.EuclideanDistance

	floats := make([][]float32, len(m.Projections))
	for i, proj := range m.Projections {
		vec := toFloat32(proj)
		floats[i] = vec
		g.Add(hnsw.MakeNode(i, vec))
	}

	return &Index{graph: g, model: m, floats: floats}, nil
}

// Size returns the number of indexed projections.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.floats)
}

// Nearest returns up to k gallery entries closest to the query
// projection. Candidates come from the HNSW graph; the reported
// distances are recomputed exactly in float64.
func (idx *Index) Nearest(projection []float64, k int) ([]Entry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil {
		return nil, errors.New("index not initialized")
	}
	if k <= 0 {
		return nil, nil
	}

	neighbors := idx.graph.Search(toFloat32(projection), k)
	entries := make([]Entry, 0, len(neighbors))
	for _, n := range neighbors {
		entries = append(entries, Entry{
			Index:    n.Key,
			Label:    idx.model.Labels[n.Key],
			Distance: exactDistance(projection, idx.model.Projections[n.Key]),
		})
	}
	return entries, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(val)
	}
	return out
}

func exactDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
