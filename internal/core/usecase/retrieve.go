package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/acretu/smart-librarian/internal/core/domain"
	"github.com/acretu/smart-librarian/internal/core/ports"
)

// Retriever narrows the corpus to the top-k candidates for a query. An
// empty query or empty corpus yields an empty candidate list, which
// downstream components treat as a valid "no match" state.
type Retriever struct {
	embedder ports.Embedder
	index    ports.CorpusIndex
	topK     int
}

func NewRetriever(embedder ports.Embedder, index ports.CorpusIndex, topK int) *Retriever {
	if topK < 1 {
		topK = 5
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" || r.index.Size() == 0 {
		return nil, nil
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.index.Search(queryVector, r.topK), nil
}
