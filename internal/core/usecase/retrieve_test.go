package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/acretu/smart-librarian/internal/core/domain"
)

type embedderFake struct {
	queries []string
	vector  []float32
	err     error
}

func (f *embedderFake) Embed(context.Context, []string) ([][]float32, error) { return nil, nil }
func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	if f.vector == nil {
		return []float32{0.1, 0.2}, nil
	}
	return f.vector, nil
}

type indexFake struct {
	size    int
	k       int
	results []domain.Candidate
}

func (f *indexFake) Size() int { return f.size }
func (f *indexFake) Search(_ []float32, k int) []domain.Candidate {
	f.k = k
	if len(f.results) > k {
		return f.results[:k]
	}
	return f.results
}

func TestRetrieverTopKDefault(t *testing.T) {
	index := &indexFake{size: 10, results: []domain.Candidate{
		{Title: "1984", Score: 0.9},
		{Title: "Fahrenheit 451", Score: 0.8},
	}}
	retriever := NewRetriever(&embedderFake{}, index, 0)

	candidates, err := retriever.Retrieve(context.Background(), "dystopia")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if index.k != 5 {
		t.Fatalf("expected default k=5, got %d", index.k)
	}
	if len(candidates) != 2 || candidates[0].Title != "1984" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestRetrieverEmptyQuery(t *testing.T) {
	embedder := &embedderFake{}
	retriever := NewRetriever(embedder, &indexFake{size: 10}, 5)

	candidates, err := retriever.Retrieve(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if candidates != nil {
		t.Fatalf("expected no candidates, got %+v", candidates)
	}
	if len(embedder.queries) != 0 {
		t.Fatalf("empty query must not be embedded")
	}
}

func TestRetrieverEmptyCorpus(t *testing.T) {
	embedder := &embedderFake{}
	retriever := NewRetriever(embedder, &indexFake{size: 0}, 5)

	candidates, err := retriever.Retrieve(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if candidates != nil {
		t.Fatalf("expected no candidates, got %+v", candidates)
	}
	if len(embedder.queries) != 0 {
		t.Fatalf("empty corpus must not trigger an embedding call")
	}
}

func TestRetrieverEmbedError(t *testing.T) {
	retriever := NewRetriever(&embedderFake{err: errors.New("embed fail")}, &indexFake{size: 10}, 5)
	if _, err := retriever.Retrieve(context.Background(), "q"); err == nil {
		t.Fatalf("expected error")
	}
}
