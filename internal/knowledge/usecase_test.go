package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/entity"
	"github.com/quiverai/quiver/internal/index"
)

type fakeSourceRepo struct {
	sources map[string]entity.Source
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{sources: make(map[string]entity.Source)}
}

func (r *fakeSourceRepo) Upsert(ctx context.Context, source entity.Source) (*entity.Source, error) {
	r.sources[source.ID] = source
	s := source
	return &s, nil
}

func (r *fakeSourceRepo) Get(ctx context.Context, id string) (*entity.Source, error) {
	s, ok := r.sources[id]
	if !ok {
		return nil, entity.ErrSourceNotFound
	}
	return &s, nil
}

func (r *fakeSourceRepo) List(ctx context.Context) ([]*entity.Source, error) {
	out := make([]*entity.Source, 0, len(r.sources))
	for id := range r.sources {
		s := r.sources[id]
		out = append(out, &s)
	}
	return out, nil
}

func (r *fakeSourceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.sources[id]; !ok {
		return entity.ErrSourceNotFound
	}
	delete(r.sources, id)
	return nil
}

func (r *fakeSourceRepo) DeleteAll(ctx context.Context) error {
	r.sources = make(map[string]entity.Source)
	return nil
}

type fakeChunkRepo struct {
	chunks map[string][]entity.Chunk // source ID -> chunks
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{chunks: make(map[string][]entity.Chunk)}
}

func (r *fakeChunkRepo) ReplaceForSource(ctx context.Context, sourceID string, chunks []entity.Chunk) error {
	r.chunks[sourceID] = append([]entity.Chunk(nil), chunks...)
	return nil
}

func (r *fakeChunkRepo) ListAll(ctx context.Context) ([]entity.Chunk, error) {
	var out []entity.Chunk
	for _, cs := range r.chunks {
		out = append(out, cs...)
	}
	return out, nil
}

func (r *fakeChunkRepo) CountBySource(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for id, cs := range r.chunks {
		counts[id] = len(cs)
	}
	return counts, nil
}

func (r *fakeChunkRepo) DeleteBySource(ctx context.Context, sourceID string) error {
	delete(r.chunks, sourceID)
	return nil
}

func (r *fakeChunkRepo) DeleteAll(ctx context.Context) error {
	r.chunks = make(map[string][]entity.Chunk)
	return nil
}

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{float32(len(text)), 1}, nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, _ := e.Embed(ctx, t)
		out[i] = vec
	}
	return out, nil
}

func newTestUsecase(t *testing.T) (*Usecase, *fakeSourceRepo, *fakeChunkRepo, *index.Index) {
	t.Helper()

	sourceRepo := newFakeSourceRepo()
	chunkRepo := newFakeChunkRepo()
	idx := index.New()

	uc := NewUsecase(
		sourceRepo, chunkRepo, idx,
		&countingEmbedder{},
		NewLoader(),
		NewSplitter(50, 10),
		t.TempDir(),
		zap.NewNop(),
	)
	return uc, sourceRepo, chunkRepo, idx
}

func TestUsecase_AddFile(t *testing.T) {
	t.Run("ingests a text file", func(t *testing.T) {
		uc, sourceRepo, chunkRepo, idx := newTestUsecase(t)

		source, err := uc.AddFile(context.Background(), "notes.txt", []byte("vaults hold documents"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if source.ID != "file://notes.txt" {
			t.Errorf("unexpected source ID %q", source.ID)
		}
		if _, ok := sourceRepo.sources[source.ID]; !ok {
			t.Error("source not persisted")
		}
		if len(chunkRepo.chunks[source.ID]) == 0 {
			t.Error("no chunks persisted")
		}
		if idx.Len() == 0 {
			t.Error("no chunks indexed")
		}

		for i, chunk := range chunkRepo.chunks[source.ID] {
			wantID := fmt.Sprintf("%s::chunk%d", source.ID, i)
			if chunk.ID != wantID {
				t.Errorf("chunk %d: expected ID %q, got %q", i, wantID, chunk.ID)
			}
		}
	})

	t.Run("re-upload replaces previous chunks", func(t *testing.T) {
		uc, _, chunkRepo, idx := newTestUsecase(t)
		ctx := context.Background()

		if _, err := uc.AddFile(ctx, "doc.md", []byte("first version with plenty of text to split across chunks")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		firstCount := idx.Len()

		if _, err := uc.AddFile(ctx, "doc.md", []byte("short")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := len(chunkRepo.chunks["file://doc.md"]); got != 1 {
			t.Errorf("expected 1 chunk after re-upload, got %d", got)
		}
		if idx.Len() >= firstCount {
			t.Errorf("index should shrink after re-upload: %d -> %d", firstCount, idx.Len())
		}
	})

	t.Run("unsupported extension rejected", func(t *testing.T) {
		uc, _, _, _ := newTestUsecase(t)

		_, err := uc.AddFile(context.Background(), "image.png", []byte{1, 2, 3})
		if !errors.Is(err, entity.ErrUnsupportedFileType) {
			t.Errorf("expected ErrUnsupportedFileType, got %v", err)
		}
	})

	t.Run("saves the file under the docs dir", func(t *testing.T) {
		uc, _, _, _ := newTestUsecase(t)

		if _, err := uc.AddFile(context.Background(), "keep.txt", []byte("persist me")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(uc.docsPath, "keep.txt"))
		if err != nil {
			t.Fatalf("saved file unreadable: %v", err)
		}
		if string(data) != "persist me" {
			t.Errorf("saved content mismatch: %q", data)
		}
	})
}

func TestUsecase_Delete(t *testing.T) {
	uc, sourceRepo, chunkRepo, idx := newTestUsecase(t)
	ctx := context.Background()

	source, err := uc.AddFile(ctx, "gone.txt", []byte("temporary knowledge"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := uc.Delete(ctx, source.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := sourceRepo.sources[source.ID]; ok {
		t.Error("source still in store")
	}
	if len(chunkRepo.chunks[source.ID]) != 0 {
		t.Error("chunks still in store")
	}
	if idx.Len() != 0 {
		t.Error("chunks still indexed")
	}

	if err := uc.Delete(ctx, "file://never-existed"); !errors.Is(err, entity.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestUsecase_Bootstrap(t *testing.T) {
	t.Run("loads persisted chunks into the index", func(t *testing.T) {
		uc, _, chunkRepo, idx := newTestUsecase(t)

		chunkRepo.chunks["file://old.txt"] = []entity.Chunk{
			{ID: "file://old.txt::chunk0", SourceID: "file://old.txt", Text: "stored", Embedding: []float32{1, 0}},
		}

		if err := uc.Bootstrap(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx.Len() != 1 {
			t.Errorf("expected 1 indexed chunk, got %d", idx.Len())
		}
	})

	t.Run("empty store rebuilds from docs dir", func(t *testing.T) {
		uc, sourceRepo, _, idx := newTestUsecase(t)

		path := filepath.Join(uc.docsPath, "seed.txt")
		if err := os.WriteFile(path, []byte("pre-seeded document"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := uc.Bootstrap(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if idx.Len() == 0 {
			t.Error("expected rebuilt index")
		}
		if _, ok := sourceRepo.sources["file://seed.txt"]; !ok {
			t.Error("seed document not ingested")
		}
	})
}
