// Package search provides full-text search over skill records using Bleve.
// It is the fuzzy complement to the exact tag algebra in core/tags: names
// and descriptions are tokenized and ranked, tags stay exact-match.
package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/adalundhe/weft/core/manifest"
)

// DefaultLimit is the result limit applied when callers pass limit <= 0.
const DefaultLimit = 10

// Hit is one ranked search result.
type Hit struct {
	SkillID string
	Score   float64
}

// skillDocument is the document shape indexed in Bleve.
type skillDocument struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

// SkillIndex provides ranked full-text search over skill metadata.
type SkillIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewSkillIndex creates an in-memory index.
func NewSkillIndex() (*SkillIndex, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create skill index: %w", err)
	}
	return &SkillIndex{index: index}, nil
}

// Index adds or updates a record in the index.
func (s *SkillIndex) Index(record *manifest.SkillRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	doc := skillDocument{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		Tags:        strings.Join(record.Tags, " "),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Index(record.ID, doc); err != nil {
		return fmt.Errorf("index skill %s: %w", record.ID, err)
	}
	return nil
}

// IndexAll indexes every record in one batch.
func (s *SkillIndex) IndexAll(records []*manifest.SkillRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, record := range records {
		doc := skillDocument{
			ID:          record.ID,
			Name:        record.Name,
			Description: record.Description,
			Tags:        strings.Join(record.Tags, " "),
		}
		if err := batch.Index(record.ID, doc); err != nil {
			return fmt.Errorf("batch skill %s: %w", record.ID, err)
		}
	}
	return s.index.Batch(batch)
}

// Delete removes a record from the index.
func (s *SkillIndex) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Delete(id)
}

// Search runs a ranked query over names, descriptions, and tags. An empty
// query matches everything.
func (s *SkillIndex) Search(queryStr string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var q query.Query
	if strings.TrimSpace(queryStr) == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		q = bleve.NewMatchQuery(queryStr)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit

	s.mu.RLock()
	defer s.mu.RUnlock()

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{SkillID: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// Close releases the index.
func (s *SkillIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
