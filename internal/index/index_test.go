package index

import (
	"fmt"
	"testing"

	"github.com/quiverai/quiver/internal/entity"
)

func chunk(id, sourceID string, embedding []float32) entity.Chunk {
	return entity.Chunk{
		ID:       id,
		SourceID: sourceID,
		Text:     "text for " + id,
		Embedding: embedding,
	}
}

func TestIndex_Search(t *testing.T) {
	t.Run("returns nearest chunks first", func(t *testing.T) {
		ix := New()
		ix.Add([]entity.Chunk{
			chunk("a::chunk0", "a", []float32{1, 0, 0}),
			chunk("a::chunk1", "a", []float32{0, 1, 0}),
			chunk("b::chunk0", "b", []float32{0.9, 0.1, 0}),
		})

		got := ix.Search([]float32{1, 0, 0}, 2)
		if len(got) != 2 {
			t.Fatalf("expected 2 results, got %d", len(got))
		}
		if got[0].Chunk.ID != "a::chunk0" {
			t.Errorf("expected a::chunk0 first, got %s", got[0].Chunk.ID)
		}
		if got[1].Chunk.ID != "b::chunk0" {
			t.Errorf("expected b::chunk0 second, got %s", got[1].Chunk.ID)
		}
		if got[0].Score < got[1].Score {
			t.Errorf("scores not descending: %f < %f", got[0].Score, got[1].Score)
		}
	})

	t.Run("k larger than index returns everything", func(t *testing.T) {
		ix := New()
		ix.Add([]entity.Chunk{
			chunk("a::chunk0", "a", []float32{1, 0}),
			chunk("a::chunk1", "a", []float32{0, 1}),
		})

		got := ix.Search([]float32{1, 1}, 10)
		if len(got) != 2 {
			t.Fatalf("expected 2 results, got %d", len(got))
		}
	})

	t.Run("ties resolve by insertion order", func(t *testing.T) {
		ix := New()
		for i := 0; i < 5; i++ {
			ix.Add([]entity.Chunk{chunk(fmt.Sprintf("s::chunk%d", i), "s", []float32{1, 0})})
		}

		got := ix.Search([]float32{1, 0}, 3)
		want := []string{"s::chunk0", "s::chunk1", "s::chunk2"}
		for i, w := range want {
			if got[i].Chunk.ID != w {
				t.Errorf("position %d: expected %s, got %s", i, w, got[i].Chunk.ID)
			}
		}
	})

	t.Run("zero query vector returns nil", func(t *testing.T) {
		ix := New()
		ix.Add([]entity.Chunk{chunk("a::chunk0", "a", []float32{1, 0})})

		if got := ix.Search([]float32{0, 0}, 5); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("dimension mismatch entries are skipped", func(t *testing.T) {
		ix := New()
		ix.Add([]entity.Chunk{
			chunk("a::chunk0", "a", []float32{1, 0}),
			chunk("b::chunk0", "b", []float32{1, 0, 0}),
		})

		got := ix.Search([]float32{1, 0}, 5)
		if len(got) != 1 {
			t.Fatalf("expected 1 result, got %d", len(got))
		}
		if got[0].Chunk.ID != "a::chunk0" {
			t.Errorf("expected a::chunk0, got %s", got[0].Chunk.ID)
		}
	})
}

func TestIndex_Add(t *testing.T) {
	t.Run("re-adding same ID replaces entry", func(t *testing.T) {
		ix := New()
		ix.Add([]entity.Chunk{chunk("a::chunk0", "a", []float32{1, 0})})
		ix.Add([]entity.Chunk{chunk("a::chunk0", "a", []float32{0, 1})})

		if ix.Len() != 1 {
			t.Fatalf("expected 1 entry, got %d", ix.Len())
		}

		got := ix.Search([]float32{0, 1}, 1)
		if len(got) != 1 || got[0].Score < 0.99 {
			t.Errorf("expected replaced vector to match query, got %v", got)
		}
	})

	t.Run("chunks without embeddings are skipped", func(t *testing.T) {
		ix := New()
		ix.Add([]entity.Chunk{
			chunk("a::chunk0", "a", nil),
			chunk("a::chunk1", "a", []float32{0, 0}),
			chunk("a::chunk2", "a", []float32{1, 0}),
		})

		if ix.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", ix.Len())
		}
	})
}

func TestIndex_RemoveSource(t *testing.T) {
	ix := New()
	ix.Add([]entity.Chunk{
		chunk("a::chunk0", "a", []float32{1, 0}),
		chunk("a::chunk1", "a", []float32{0, 1}),
		chunk("b::chunk0", "b", []float32{1, 1}),
	})

	removed := ix.RemoveSource("a")
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if ix.Len() != 1 {
		t.Errorf("expected 1 remaining, got %d", ix.Len())
	}

	got := ix.Search([]float32{1, 0}, 5)
	for _, sc := range got {
		if sc.Chunk.SourceID == "a" {
			t.Errorf("removed source still searchable: %s", sc.Chunk.ID)
		}
	}
}

func TestIndex_Reset(t *testing.T) {
	ix := New()
	ix.Add([]entity.Chunk{chunk("a::chunk0", "a", []float32{1, 0})})
	ix.Reset()

	if ix.Len() != 0 {
		t.Errorf("expected empty index, got %d entries", ix.Len())
	}
}
