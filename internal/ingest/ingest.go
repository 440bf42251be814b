package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alokm/hr-assistant/internal/logging"
)

// Index is the destination for embedded chunks. Satisfied by
// vectorstore.Store.
type Index interface {
	Upsert(ctx context.Context, chunks []Chunk) error
}

// Ingestor loads policy documents from disk and pushes their chunks into the
// vector index.
type Ingestor struct {
	index   Index
	size    int
	overlap int
	log     *logging.Logger
}

// NewIngestor creates an ingestor with the default splitter geometry.
func NewIngestor(index Index, log *logging.Logger) *Ingestor {
	return &Ingestor{
		index:   index,
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
		log:     log.Sub("ingest"),
	}
}

// IngestDir walks dir for .txt and .md files and indexes each one.
// Returns the total number of chunks stored.
func (g *Ingestor) IngestDir(ctx context.Context, dir string) (int, error) {
	var total int
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}

		n, err := g.ingestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		total += n
		return nil
	})
	if err != nil {
		return total, err
	}

	g.log.Info().Int("chunks", total).Str("dir", dir).Msg("ingestion complete")
	return total, nil
}

func (g *Ingestor) ingestFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read document: %w", err)
	}

	docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	chunks := Split(docID, string(content), g.size, g.overlap)
	if len(chunks) == 0 {
		g.log.Warn().Str("doc", docID).Msg("document produced no chunks")
		return 0, nil
	}

	g.log.Info().Str("doc", docID).Int("chunks", len(chunks)).Msg("embedding document")
	if err := g.index.Upsert(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
