package ports

import (
	"context"

	"github.com/acretu/smart-librarian/internal/core/domain"
)

// Recommender is the inbound contract for the recommendation pipeline:
// moderation gate, retrieval, grounded selection, response assembly.
type Recommender interface {
	Recommend(ctx context.Context, query string) (*domain.RecommendationResponse, error)
}

// MediaProcessor is the inbound contract for asynchronous media
// generation.
type MediaProcessor interface {
	ProcessJob(ctx context.Context, job domain.MediaJob) error
}
