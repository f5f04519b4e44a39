package docstore

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrDimension is returned when a vector's length does not match the index.
var ErrDimension = errors.New("vector dimension mismatch")

// FlatIndex is an exact nearest-neighbor index over fixed-dimension vectors,
// kept packed row-major in memory and scanned in full on every search.
// It is sized for corpora in the hundreds-to-thousands of chunks. The zero
// value is not usable; construct with NewFlatIndex.
type FlatIndex struct {
	mu   sync.RWMutex
	dim  int
	data []float32
}

// Hit is a single match: the position of a stored vector and its Euclidean
// distance to the query.
type Hit struct {
	Pos      int
	Distance float64
}

// NewFlatIndex creates an empty index over vectors of the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim < 1 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}

	return &FlatIndex{dim: dim}, nil
}

func (ix *FlatIndex) Dim() int { return ix.dim }

// Count returns the number of stored vectors.
func (ix *FlatIndex) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return len(ix.data) / ix.dim
}

// Add appends a batch of vectors. Positions are assigned in input order,
// continuing from the current count. The batch is rejected whole if any
// vector has the wrong dimension.
func (ix *FlatIndex) Add(vectors [][]float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, index holds %d", ErrDimension, i, len(v), ix.dim)
		}
	}

	for _, v := range vectors {
		ix.data = append(ix.data, v...)
	}

	return nil
}

// Search returns the k stored vectors closest to query, sorted by ascending
// distance (ties broken by position). Fewer than k stored vectors means all
// of them; an empty index yields an empty result.
func (ix *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index holds %d", ErrDimension, len(query), ix.dim)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.data) / ix.dim
	if n == 0 || k <= 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, 0, n)
	for pos := 0; pos < n; pos++ {
		row := ix.data[pos*ix.dim : (pos+1)*ix.dim]

		var sum float64
		for j, q := range query {
			d := float64(q) - float64(row[j])
			sum += d * d
		}

		hits = append(hits, Hit{Pos: pos, Distance: math.Sqrt(sum)})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Distance == hits[b].Distance {
			return hits[a].Pos < hits[b].Pos
		}
		return hits[a].Distance < hits[b].Distance
	})

	if k > n {
		k = n
	}

	return hits[:k], nil
}

// Vectors copies out all stored vectors in position order.
func (ix *FlatIndex) Vectors() [][]float32 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.data) / ix.dim
	out := make([][]float32, n)
	for pos := 0; pos < n; pos++ {
		row := make([]float32, ix.dim)
		copy(row, ix.data[pos*ix.dim:(pos+1)*ix.dim])
		out[pos] = row
	}

	return out
}

// Relevance maps a distance to a score in (0, 1], strictly decreasing, with
// an exact match scoring exactly 1.
func Relevance(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}
