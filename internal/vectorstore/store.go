// Package vectorstore wraps chromem-go as the policy document index.
package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/alokm/hr-assistant/internal/ingest"
)

const collectionName = "hr_policies"

// Result is a single semantic-search hit, similarity-ranked descending.
type Result struct {
	ID      string
	Content string
	Score   float32
}

// Store wraps chromem-go with disk persistence and a single policy
// collection. The vector dimensionality is fixed by the embedding function;
// chromem rejects mismatched vectors at insert time.
type Store struct {
	mu      sync.RWMutex
	db      *chromem.DB
	embedFn chromem.EmbeddingFunc
}

// New creates (or opens) the persistent vector store at dataDir/vectorstore/.
func New(dataDir string, embedFn chromem.EmbeddingFunc) (*Store, error) {
	dir := filepath.Join(dataDir, "vectorstore")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create vectorstore dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vectorstore: %w", err)
	}
	return &Store{db: db, embedFn: embedFn}, nil
}

// NewInMemory creates a non-persistent store, used in tests.
func NewInMemory(embedFn chromem.EmbeddingFunc) *Store {
	return &Store{db: chromem.NewDB(), embedFn: embedFn}
}

func (s *Store) collection() (*chromem.Collection, error) {
	col := s.db.GetCollection(collectionName, s.embedFn)
	if col == nil {
		var err error
		col, err = s.db.CreateCollection(collectionName, nil, s.embedFn)
		if err != nil {
			return nil, fmt.Errorf("failed to create collection: %w", err)
		}
	}
	return col, nil
}

// Upsert indexes (or re-indexes) the given chunks. Document ids are
// "<docID>:<start>" so re-ingesting a document replaces its chunks.
func (s *Store) Upsert(ctx context.Context, chunks []ingest.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection()
	if err != nil {
		return err
	}

	for _, c := range chunks {
		doc := chromem.Document{
			ID:      c.DocID + ":" + strconv.Itoa(c.Start),
			Content: c.Text,
			Metadata: map[string]string{
				"doc":   c.DocID,
				"start": strconv.Itoa(c.Start),
			},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Search returns the top-k chunks most similar to the query, fewer when the
// collection is smaller, and an empty result (never an error) when it is
// empty.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, err := s.collection()
	if err != nil {
		return nil, err
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	// chromem-go can still reject k == Count() under concurrent mutation.
	// Step k down rather than failing the whole search.
	var results []chromem.Result
	for attemptK := k; attemptK > 0; attemptK-- {
		results, err = col.Query(ctx, query, attemptK, nil, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{ID: r.ID, Content: r.Content, Score: r.Similarity})
	}
	return out, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.db.GetCollection(collectionName, s.embedFn)
	if col == nil {
		return 0
	}
	return col.Count()
}
