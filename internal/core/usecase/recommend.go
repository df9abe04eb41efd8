package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/acretu/smart-librarian/internal/core/domain"
	"github.com/acretu/smart-librarian/internal/core/ports"
)

// Fixed user-facing texts. They must stay identical regardless of the
// request content so a rejected caller learns nothing about why.
const (
	RefusalAnswer = "Please keep requests respectful. I cannot help with this message."

	ModerationDownAnswer = "I cannot screen requests right now, so I have to decline this one. Please try again later."
)

type PipelineLimits struct {
	ModerationTimeout time.Duration
	RetrievalTimeout  time.Duration
	SelectionTimeout  time.Duration
}

// PipelineObserver receives pipeline outcomes for observability.
// Implementations must be cheap and must not fail the request.
type PipelineObserver interface {
	ObserveModeration(outcome string)
	ObservePipeline(selectionOutcome string, candidates int, usedTool bool, duration time.Duration)
	ObserveGroundingViolation()
}

type noopObserver struct{}

func (noopObserver) ObserveModeration(string)                         {}
func (noopObserver) ObservePipeline(string, int, bool, time.Duration) {}
func (noopObserver) ObserveGroundingViolation()                       {}

// RecommendUseCase runs one request through the pipeline: moderation
// gate, retrieval, grounded selection, response assembly. Steps are
// strictly sequential; nothing shared is mutated, so concurrent
// requests need no locking.
type RecommendUseCase struct {
	moderation ports.ModerationClient
	retriever  *Retriever
	selector   *Selector
	summaries  ports.SummaryCatalog
	limits     PipelineLimits
	observer   PipelineObserver
}

func NewRecommendUseCase(
	moderation ports.ModerationClient,
	retriever *Retriever,
	selector *Selector,
	summaries ports.SummaryCatalog,
	limits PipelineLimits,
	observer PipelineObserver,
) *RecommendUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if limits.ModerationTimeout <= 0 {
		limits.ModerationTimeout = 10 * time.Second
	}
	if limits.RetrievalTimeout <= 0 {
		limits.RetrievalTimeout = 15 * time.Second
	}
	if limits.SelectionTimeout <= 0 {
		limits.SelectionTimeout = 90 * time.Second
	}
	return &RecommendUseCase{
		moderation: moderation,
		retriever:  retriever,
		selector:   selector,
		summaries:  summaries,
		limits:     limits,
		observer:   observer,
	}
}

func (uc *RecommendUseCase) Recommend(ctx context.Context, query string) (*domain.RecommendationResponse, error) {
	start := time.Now()

	// The gate runs on the raw, untrimmed utterance and must complete
	// before any retrieval or model call.
	moderationCtx, cancelModeration := context.WithTimeout(ctx, uc.limits.ModerationTimeout)
	verdict, err := uc.moderation.Check(moderationCtx, query)
	cancelModeration()
	if err != nil {
		// Fail closed: an unreachable gate is a rejection, never a
		// pass-through.
		slog.Warn("moderation_unavailable", "error", err)
		uc.observer.ObserveModeration("unavailable")
		return &domain.RecommendationResponse{Answer: ModerationDownAnswer}, nil
	}
	if !verdict.Allowed {
		slog.Info("moderation_rejected", "categories", verdict.Categories)
		uc.observer.ObserveModeration("rejected")
		return &domain.RecommendationResponse{Answer: RefusalAnswer}, nil
	}
	uc.observer.ObserveModeration("allowed")

	retrievalCtx, cancelRetrieval := context.WithTimeout(ctx, uc.limits.RetrievalTimeout)
	candidates, err := uc.retriever.Retrieve(retrievalCtx, query)
	cancelRetrieval()
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "retrieve candidates", err)
	}

	selectionCtx, cancelSelection := context.WithTimeout(ctx, uc.limits.SelectionTimeout)
	selection, err := uc.selector.Select(selectionCtx, query, candidates)
	cancelSelection()
	if err != nil {
		return nil, err
	}

	if selection.Outcome == domain.SelectionOutcomeGroundingViolation {
		uc.observer.ObserveGroundingViolation()
	}
	uc.observer.ObservePipeline(selection.Outcome, len(candidates), selection.UsedTool, time.Since(start))

	response := uc.Assemble(selection)
	return &response, nil
}

// Assemble is a pure transform of a selection into the external
// response. The outward summary is looked up fresh so it is always
// authoritative even if the selector worked from a cached view.
func (uc *RecommendUseCase) Assemble(selection domain.SelectionResult) domain.RecommendationResponse {
	response := domain.RecommendationResponse{Answer: selection.Rationale}
	if selection.ChosenTitle == "" {
		return response
	}

	summary, ok := uc.summaries.Lookup(selection.ChosenTitle)
	if !ok {
		// Selector validation makes this unreachable; degrade to a
		// no-match response rather than expose an ungrounded title.
		slog.Error("assemble_summary_missing", "chosen_title", selection.ChosenTitle)
		return response
	}

	response.ChosenTitle = selection.ChosenTitle
	response.Summary = summary
	return response
}
