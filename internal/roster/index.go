// Package roster keeps an in-memory view of the enrolled students for fast
// identification previews. The index answers "who does this face look like"
// without touching the attendance tables; the marking pipeline itself always
// scans the roster exhaustively.
package roster

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"

	"smart-attendance/internal/database"
	"smart-attendance/internal/encoding"
)

const maxNeighbors = 16

// IndexEntry is one identify hit: an enrolled student and the Euclidean
// distance of their reference encoding to the probe.
type IndexEntry struct {
	Student  database.Student
	Distance float64
}

// Index is an HNSW graph over the roster's reference encodings. Safe for
// concurrent use; Rebuild swaps the graph atomically under the write lock.
type Index struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[int64]
	students map[int64]database.Student
	dim      int
}

// NewIndex creates an empty identify index for encodings of the given
// dimension.
func NewIndex(dim int) *Index {
	return &Index{
		students: make(map[int64]database.Student),
		dim:      dim,
	}
}

// Rebuild replaces the index contents with the given roster. Students whose
// reference encoding does not parse are left out; they can still be marked
// absent by the reconciler, they just never match a probe.
func (ix *Index) Rebuild(students []database.Student) {
	g := hnsw.NewGraph[int64]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	byID := make(map[int64]database.Student, len(students))
	for _, s := range students {
		enc, err := encoding.ParseStored(s.FaceEncoding, ix.dim)
		if err != nil {
			continue
		}
		g.Add(hnsw.MakeNode(s.ID, []float32(enc)))
		byID[s.ID] = s
	}

	ix.mu.Lock()
	ix.graph = g
	ix.students = byID
	ix.mu.Unlock()
}

// Add inserts or refreshes a single student without a full rebuild.
func (ix *Index) Add(s database.Student) error {
	enc, err := encoding.ParseStored(s.FaceEncoding, ix.dim)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.graph == nil {
		ix.graph = hnsw.NewGraph[int64]()
		ix.graph.M = maxNeighbors
		ix.graph.Ml = 1.0 / float64(maxNeighbors)
		ix.graph.Distance = hnsw.EuclideanDistance
	}
	ix.graph.Add(hnsw.MakeNode(s.ID, []float32(enc)))
	ix.students[s.ID] = s
	return nil
}

// Remove drops a student from the index.
func (ix *Index) Remove(id int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.graph != nil {
		ix.graph.Delete(id)
	}
	delete(ix.students, id)
}

// Len returns the number of indexed students.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.students)
}

// Search returns up to k enrolled students nearest to the probe encoding,
// closest first.
func (ix *Index) Search(probe encoding.FaceEncoding, k int) ([]IndexEntry, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil || len(ix.students) == 0 {
		return nil, errors.New("identify index is empty")
	}

	neighbors := ix.graph.Search([]float32(probe), k)
	entries := make([]IndexEntry, 0, len(neighbors))
	for _, n := range neighbors {
		student, ok := ix.students[n.Key]
		if !ok {
			continue
		}
		entries = append(entries, IndexEntry{
			Student:  student,
			Distance: encoding.EuclideanDistance(probe, encoding.FaceEncoding(n.Value)),
		})
	}
	return entries, nil
}
