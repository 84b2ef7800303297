package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/entity"
)

// Usecase implements knowledge vault business logic: ingesting
// sources, keeping the chunk store and the vector index in sync, and
// rebuilding everything from the docs directory.
type Usecase struct {
	sourceRepo SourceRepository
	chunkRepo  ChunkRepository
	index      VectorIndex
	embedder   EmbedConnector
	loader     *Loader
	splitter   *Splitter
	docsPath   string
	logger     *zap.Logger
}

func NewUsecase(
	sourceRepo SourceRepository,
	chunkRepo ChunkRepository,
	index VectorIndex,
	embedder EmbedConnector,
	loader *Loader,
	splitter *Splitter,
	docsPath string,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		sourceRepo: sourceRepo,
		chunkRepo:  chunkRepo,
		index:      index,
		embedder:   embedder,
		loader:     loader,
		splitter:   splitter,
		docsPath:   docsPath,
		logger:     logger,
	}
}

// Bootstrap loads persisted chunks into the vector index. When the
// store is empty the vault is rebuilt from the docs directory, so a
// fresh deployment with pre-seeded documents starts searchable.
func (uc *Usecase) Bootstrap(ctx context.Context) error {
	chunks, err := uc.chunkRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}

	if len(chunks) > 0 {
		uc.index.Add(chunks)
		uc.logger.Info("vector index loaded from store",
			zap.Int("chunks", len(chunks)),
		)
		return nil
	}

	uc.logger.Info("chunk store empty, rebuilding from docs directory",
		zap.String("docs_path", uc.docsPath),
	)
	return uc.Rebuild(ctx)
}

// Rebuild wipes the store and the index and re-ingests every
// supported file under the docs directory.
func (uc *Usecase) Rebuild(ctx context.Context) error {
	if err := os.MkdirAll(uc.docsPath, 0o755); err != nil {
		return fmt.Errorf("ensure docs dir: %w", err)
	}

	var paths []string
	err := filepath.WalkDir(uc.docsPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".pdf" || ext == ".txt" || ext == ".md" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk docs dir: %w", err)
	}

	if err := uc.chunkRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("wipe chunks: %w", err)
	}
	if err := uc.sourceRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("wipe sources: %w", err)
	}
	uc.index.Reset()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		source, err := uc.loader.LoadFromFile(path, data)
		if err != nil {
			ctxzap.Warn(ctx, "skipping unreadable document",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}

		if _, err := uc.ingest(ctx, source); err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
	}

	ctxzap.Info(ctx, "knowledge vault rebuilt",
		zap.Int("documents", len(paths)),
		zap.Int("chunks", uc.index.Len()),
	)
	return nil
}

// AddFile stores an uploaded document under the docs directory and
// ingests it. Re-uploading a file with the same name replaces its
// chunks.
func (uc *Usecase) AddFile(ctx context.Context, filename string, data []byte) (*entity.Source, error) {
	source, err := uc.loader.LoadFromFile(filename, data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(uc.docsPath, 0o755); err != nil {
		return nil, fmt.Errorf("ensure docs dir: %w", err)
	}
	savePath := filepath.Join(uc.docsPath, source.Name)
	if err := os.WriteFile(savePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("save %s: %w", savePath, err)
	}

	return uc.ingest(ctx, source)
}

// AddURL fetches a web page and ingests it as a source
func (uc *Usecase) AddURL(ctx context.Context, url string) (*entity.Source, error) {
	source, err := uc.loader.LoadFromURL(ctx, url)
	if err != nil {
		return nil, err
	}

	return uc.ingest(ctx, source)
}

// ingest splits a source, embeds its chunks, persists everything and
// refreshes the index.
func (uc *Usecase) ingest(ctx context.Context, source *entity.Source) (*entity.Source, error) {
	texts := uc.splitter.Split(source.Content)
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmptySource, source.ID)
	}

	ctxzap.Info(ctx, "ingesting source",
		zap.String("source_id", source.ID),
		zap.Int("chunks", len(texts)),
	)

	vectors, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	chunks := make([]entity.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = entity.Chunk{
			ID:         fmt.Sprintf("%s::chunk%d", source.ID, i),
			SourceID:   source.ID,
			SourceName: source.Name,
			SourceType: source.Type,
			Seq:        i,
			Text:       text,
			Embedding:  vectors[i],
		}
	}

	saved, err := uc.sourceRepo.Upsert(ctx, *source)
	if err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}

	if err := uc.chunkRepo.ReplaceForSource(ctx, source.ID, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	uc.index.RemoveSource(source.ID)
	uc.index.Add(chunks)

	ctxzap.Info(ctx, "source ingested",
		zap.String("source_id", source.ID),
		zap.Int("indexed_chunks", uc.index.Len()),
	)
	return saved, nil
}

// Delete removes a source and all its chunks from the store and index
func (uc *Usecase) Delete(ctx context.Context, sourceID string) error {
	if _, err := uc.sourceRepo.Get(ctx, sourceID); err != nil {
		return err
	}

	if err := uc.chunkRepo.DeleteBySource(ctx, sourceID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := uc.sourceRepo.Delete(ctx, sourceID); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}

	removed := uc.index.RemoveSource(sourceID)
	ctxzap.Info(ctx, "source deleted",
		zap.String("source_id", sourceID),
		zap.Int("removed_chunks", removed),
	)
	return nil
}

// List returns all sources with their chunk counts
func (uc *Usecase) List(ctx context.Context) ([]*entity.Source, map[string]int, error) {
	sources, err := uc.sourceRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list sources: %w", err)
	}

	counts, err := uc.chunkRepo.CountBySource(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("count chunks: %w", err)
	}

	return sources, counts, nil
}
