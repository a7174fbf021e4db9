package roster

import (
	"sync"

	"github.com/coder/hnsw"
)

const (
	// indexMaxNeighbors is the HNSW M parameter.
	indexMaxNeighbors = 16

	// DefaultDuplicateDistance is the cosine distance floor under which
	// two enrollment embeddings are considered the same person.
	DefaultDuplicateDistance = 0.35
)

// Match is a near-duplicate hit from the enrollment index.
type Match struct {
	StudentID string
	Distance  float64
}

// DuplicateIndex holds enrollment embeddings in an HNSW graph so a new
// enrollment can be checked against every existing one without a full
// scan.
type DuplicateIndex struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[string]
	embeddings map[string][]float32
}

// NewDuplicateIndex creates an empty index.
func NewDuplicateIndex() *DuplicateIndex {
	return &DuplicateIndex{embeddings: make(map[string][]float32)}
}

// Rebuild replaces the index contents with the given embeddings, keyed
// by student id. Entries with empty vectors are skipped.
func (d *DuplicateIndex) Rebuild(embeddings map[string][]float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.embeddings = make(map[string][]float32, len(embeddings))
	if len(embeddings) == 0 {
		d.graph = nil
		return
	}

	g := hnsw.NewGraph[string]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	for id, embedding := range embeddings {
		if len(embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(id, embedding))
		d.embeddings[id] = embedding
	}

	d.graph = g
}

// Add inserts a single enrollment embedding.
func (d *DuplicateIndex) Add(studentID string, embedding []float32) {
	if len(embedding) == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.graph == nil {
		g := hnsw.NewGraph[string]()
		g.M = indexMaxNeighbors
		g.Ml = 1.0 / float64(indexMaxNeighbors)
		g.Distance = hnsw.CosineDistance
		d.graph = g
	}
	d.graph.Add(hnsw.MakeNode(studentID, embedding))
	d.embeddings[studentID] = embedding
}

// Len reports the number of indexed enrollments.
func (d *DuplicateIndex) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.embeddings)
}

// CheckDuplicate searches for an existing enrollment whose embedding is
// within maxDistance of the candidate. The closest match is returned;
// nil means no enrollment is close enough. The check is advisory, the
// caller decides whether to warn or block.
func (d *DuplicateIndex) CheckDuplicate(embedding []float32, maxDistance float64) *Match {
	if len(embedding) == 0 {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.graph == nil {
		return nil
	}

	neighbors := d.graph.Search(embedding, 1)
	if len(neighbors) == 0 {
		return nil
	}

	// Recompute the exact distance from the stored vector; the graph's
	// search ordering is approximate.
	distance := CosineDistance(embedding, neighbors[0].Value)
	if distance > maxDistance {
		return nil
	}
	return &Match{StudentID: neighbors[0].Key, Distance: distance}
}
