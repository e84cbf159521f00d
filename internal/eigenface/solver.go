package eigenface

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	// solverRestarts bounds how many times a deflation step may restart
	// from a fresh random vector before giving up.
	solverRestarts = 3

	// rankEpsilon scales the cutoff below which an eigenvalue is treated
	// as zero, relative to the largest matrix entry.
	rankEpsilon = 1e-10
)

// Eigenpair is one eigenvalue with its unit-norm eigenvector.
type Eigenpair struct {
	Value  float64
	Vector []float64
}

// Solver extracts the leading eigenpairs of a symmetric matrix using
// power iteration with deflation. The starting vector of every iteration
// is drawn from a seeded source, so results are reproducible for a fixed
// Seed.
type Solver struct {
	Tolerance     float64 // convergence tolerance on the eigenvector delta
	MaxIterations int     // iteration budget per deflation step (across restarts)
	Seed          int64
}

// NewSolver creates a solver with the given convergence parameters.
func NewSolver(tolerance float64, maxIterations int, seed int64) *Solver {
	return &Solver{
		Tolerance:     tolerance,
		MaxIterations: maxIterations,
		Seed:          seed,
	}
}

// TopK returns up to k eigenpairs of the symmetric matrix m, ordered by
// descending eigenvalue. It may return fewer than k pairs when the matrix
// runs out of informative directions (eigenvalue at or below numeric
// zero) - that is a normal outcome, not an error. ErrNoConvergence is
// returned only when the iteration budget is exhausted on a single
// deflation step, or when NaN/Inf shows up in the arithmetic.
func (s *Solver) TopK(m [][]float64, k int) ([]Eigenpair, error) {
	n := len(m)
	if n == 0 || k <= 0 {
		return nil, nil
	}
	for i := range m {
		if len(m[i]) != n {
			return nil, fmt.Errorf("matrix is not square: row %d has %d columns, want %d", i, len(m[i]), n)
		}
	}
	if k > n {
		k = n
	}

	// Deflation mutates the matrix, so work on a copy.
	work := make([][]float64, n)
	for i := range m {
		work[i] = make([]float64, n)
		copy(work[i], m[i])
	}

	scale := maxAbs(work)
	if scale == 0 {
		return nil, nil // zero matrix has no informative directions
	}
	zeroCut := scale * rankEpsilon

	rng := rand.New(rand.NewSource(s.Seed))
	pairs := make([]Eigenpair, 0, k)

	for len(pairs) < k {
		// Deflation leaves numerical noise behind once the rank is
		// exhausted; iterating on it would only stall.
		if maxAbs(work) <= zeroCut {
			break
		}

		v, err := s.dominantVector(work, rng)
		if err != nil {
			return nil, err
		}

		lambda := rayleigh(work, v)
		if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
			return nil, fmt.Errorf("%w: eigenvalue is not finite at step %d", ErrNoConvergence, len(pairs))
		}
		if lambda <= zeroCut {
			// Rank exhausted; remaining directions carry no variance.
			break
		}

		pairs = append(pairs, Eigenpair{Value: lambda, Vector: v})

		// Deflate: remove the found component so the next pass
		// converges to the next-ranked eigenvector.
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				work[i][j] -= lambda * v[i] * v[j]
			}
		}
	}

	return pairs, nil
}

// dominantVector runs power iteration on m until the eigenvector settles
// within s.Tolerance. When progress stalls (starting vector near-orthogonal
// to the dominant direction, or the iterate collapses to zero), it restarts
// from a fresh random vector; the total iteration budget is shared across
// restarts.
func (s *Solver) dominantVector(m [][]float64, rng *rand.Rand) ([]float64, error) {
	n := len(m)
	budget := s.MaxIterations
	// A restart is warranted when the delta has not improved for a
	// meaningful slice of the budget.
	stallWindow := s.MaxIterations / (2 * solverRestarts)
	if stallWindow < 10 {
		stallWindow = 10
	}

	for restart := 0; restart < solverRestarts && budget > 0; restart++ {
		v := randomUnitVector(n, rng)
		bestDelta := math.Inf(1)
		sinceBest := 0

		for budget > 0 {
			budget--

			w := matVec(m, v)
			norm := vecNorm(w)
			if math.IsNaN(norm) || math.IsInf(norm, 0) {
				return nil, fmt.Errorf("%w: iterate is not finite", ErrNoConvergence)
			}
			if norm == 0 {
				// Landed exactly in the nullspace; try another start.
				break
			}
			for i := range w {
				w[i] /= norm
			}

			// Sign-invariant change measure: eigenvectors are only
			// defined up to sign, so compare |v . w|.
			delta := 1 - math.Abs(vecDot(v, w))
			v = w

			if delta < s.Tolerance {
				return v, nil
			}
			if delta < bestDelta {
				bestDelta = delta
				sinceBest = 0
			} else {
				sinceBest++
				if sinceBest >= stallWindow {
					break // stagnated, re-randomize
				}
			}
		}
	}

	return nil, fmt.Errorf("%w: no dominant direction after %d restarts within %d iterations",
		ErrNoConvergence, solverRestarts, s.MaxIterations)
}

// randomUnitVector draws a unit-norm vector from the given source.
func randomUnitVector(n int, rng *rand.Rand) []float64 {
	v := make([]float64, n)
	for {
		for i := range v {
			v[i] = rng.NormFloat64()
		}
		norm := vecNorm(v)
		if norm > 0 {
			for i := range v {
				v[i] /= norm
			}
			return v
		}
	}
}

// rayleigh computes the Rayleigh quotient v'Mv for a unit vector v.
func rayleigh(m [][]float64, v []float64) float64 {
	return vecDot(v, matVec(m, v))
}

func matVec(m [][]float64, v []float64) []float64 {
	out := make([]float64, len(m))
	for i := range m {
		var sum float64
		row := m[i]
		for j := range row {
			sum += row[j] * v[j]
		}
		out[i] = sum
	}
	return out
}

func vecDot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func vecNorm(v []float64) float64 {
	return math.Sqrt(vecDot(v, v))
}

func maxAbs(m [][]float64) float64 {
	var max float64
	for i := range m {
		for j := range m[i] {
			if a := math.Abs(m[i][j]); a > max {
				max = a
			}
		}
	}
	return max
}
