// Package index implements the in-memory vector index the retrieval
// layer searches. It is a brute-force cosine index over normalized
// chunk embeddings, rebuilt from Postgres at startup and kept in sync
// by the knowledge use case.
package index

import (
	"math"
	"sort"
	"sync"

	"github.com/quiverai/quiver/internal/entity"
)

type indexEntry struct {
	chunk  entity.Chunk
	vector []float32 // normalized copy of the chunk embedding
	order  int       // insertion order, breaks score ties deterministically
}

// Index is a mutex-guarded in-memory vector index
type Index struct {
	mu      sync.RWMutex
	entries map[string]*indexEntry // chunk ID -> entry
	nextOrd int
}

func New() *Index {
	return &Index{
		entries: make(map[string]*indexEntry),
	}
}

// Add inserts chunks into the index. A chunk with an already known ID
// replaces the previous entry. Chunks with empty or zero embeddings
// are skipped.
func (ix *Index) Add(chunks []entity.Chunk) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, c := range chunks {
		vec, ok := normalize(c.Embedding)
		if !ok {
			continue
		}

		ord := ix.nextOrd
		if prev, exists := ix.entries[c.ID]; exists {
			ord = prev.order
		} else {
			ix.nextOrd++
		}

		ix.entries[c.ID] = &indexEntry{
			chunk:  c,
			vector: vec,
			order:  ord,
		}
	}
}

// RemoveSource removes all chunks belonging to the given source
func (ix *Index) RemoveSource(sourceID string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed := 0
	for id, e := range ix.entries {
		if e.chunk.SourceID == sourceID {
			delete(ix.entries, id)
			removed++
		}
	}
	return removed
}

// Reset drops all entries
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.entries = make(map[string]*indexEntry)
	ix.nextOrd = 0
}

// Len returns the number of indexed chunks
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return len(ix.entries)
}

// Search returns the top-k chunks by cosine similarity to the query
// vector. Entries with a different dimensionality are skipped.
func (ix *Index) Search(query []float32, k int) []entity.ScoredChunk {
	if k < 1 {
		return nil
	}

	qvec, ok := normalize(query)
	if !ok {
		return nil
	}

	type hit struct {
		sc  entity.ScoredChunk
		ord int
	}

	ix.mu.RLock()
	hits := make([]hit, 0, len(ix.entries))
	for _, e := range ix.entries {
		if len(e.vector) != len(qvec) {
			continue
		}
		hits = append(hits, hit{
			sc: entity.ScoredChunk{
				Chunk: e.chunk,
				Score: dot(qvec, e.vector),
			},
			ord: e.order,
		})
	}
	ix.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sc.Score != hits[j].sc.Score {
			return hits[i].sc.Score > hits[j].sc.Score
		}
		return hits[i].ord < hits[j].ord
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	scored := make([]entity.ScoredChunk, len(hits))
	for i, h := range hits {
		scored[i] = h.sc
	}
	return scored
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize returns a unit-length copy of v. Empty and zero vectors
// report ok=false.
func normalize(v []float32) ([]float32, bool) {
	if len(v) == 0 {
		return nil, false
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return nil, false
	}

	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, true
}
