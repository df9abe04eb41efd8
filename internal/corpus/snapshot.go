package corpus

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/acretu/smart-librarian/internal/core/domain"
)

// Snapshot is the immutable in-memory corpus: records with embeddings
// plus the exact-match summary catalog. It is built once at startup and
// shared read-only across requests, so no locking is needed.
type Snapshot struct {
	records   []domain.BookRecord
	summaries map[string]string
	titles    []string
}

// BuildSnapshot embeds every book and assembles the snapshot. The cache
// is consulted first so unchanged records are not re-embedded across
// restarts; pass nil to skip caching.
func BuildSnapshot(ctx context.Context, books []Book, embedder queryEmbedder, cache *EmbeddingCache, model string) (*Snapshot, error) {
	records := make([]domain.BookRecord, len(books))
	titles := make([]string, len(books))
	summaries := make(map[string]string, len(books))

	missing := make([]int, 0, len(books))
	missingTexts := make([]string, 0, len(books))

	for i, book := range books {
		records[i] = domain.BookRecord{
			Title:       book.Title,
			Themes:      book.Themes,
			Description: book.Summary,
		}
		titles[i] = book.Title
		summaries[book.Title] = book.Summary

		text := book.EmbeddingText()
		if cache != nil {
			vector, ok, err := cache.Get(ctx, model, ContentHash(text))
			if err != nil {
				return nil, fmt.Errorf("embedding cache lookup for %q: %w", book.Title, err)
			}
			if ok {
				records[i].Embedding = vector
				continue
			}
		}
		missing = append(missing, i)
		missingTexts = append(missingTexts, text)
	}

	if len(missing) > 0 {
		vectors, err := embedder.Embed(ctx, missingTexts)
		if err != nil {
			return nil, fmt.Errorf("embed corpus: %w", err)
		}
		if len(vectors) != len(missing) {
			return nil, fmt.Errorf("embed corpus: got %d vectors for %d texts", len(vectors), len(missing))
		}
		for j, idx := range missing {
			records[idx].Embedding = vectors[j]
			if cache != nil {
				if err := cache.Put(ctx, model, ContentHash(missingTexts[j]), vectors[j]); err != nil {
					return nil, fmt.Errorf("embedding cache store for %q: %w", records[idx].Title, err)
				}
			}
		}
	}

	return &Snapshot{
		records:   records,
		summaries: summaries,
		titles:    titles,
	}, nil
}

// queryEmbedder is the slice of the embedder port the snapshot build
// needs; declared locally to keep corpus free of the ports package.
type queryEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

func (s *Snapshot) Size() int {
	return len(s.records)
}

// Search ranks every record by cosine similarity to the query vector
// and returns the top min(k, size) candidates in descending score
// order. Equal scores keep corpus insertion order, so results are
// deterministic for identical inputs.
func (s *Snapshot) Search(queryVector []float32, k int) []domain.Candidate {
	if k < 1 || len(queryVector) == 0 || len(s.records) == 0 {
		return nil
	}

	candidates := make([]domain.Candidate, len(s.records))
	for i, record := range s.records {
		candidates[i] = domain.Candidate{
			Title: record.Title,
			Score: cosineSimilarity(queryVector, record.Embedding),
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k]
}

// Lookup returns the full synopsis for an exact title. No fuzzy
// matching: a miss is evidence the title is not in the corpus.
func (s *Snapshot) Lookup(title string) (string, bool) {
	summary, ok := s.summaries[title]
	return summary, ok
}

// Titles returns all corpus titles in insertion order.
func (s *Snapshot) Titles() []string {
	out := make([]string, len(s.titles))
	copy(out, s.titles)
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}
	return dot / denominator
}
