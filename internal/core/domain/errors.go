package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")

	// ErrModerationRejected terminates the pipeline with the fixed
	// user-visible refusal.
	ErrModerationRejected = errors.New("moderation rejected")

	// ErrModerationUnavailable means the moderation service could not be
	// reached. The pipeline fails closed: treated as a rejection.
	ErrModerationUnavailable = errors.New("moderation unavailable")

	// ErrGroundingViolation means the selector proposed a title outside
	// the candidate set or the corpus. It is always recovered locally
	// and never exposed to callers.
	ErrGroundingViolation = errors.New("grounding violation")

	// ErrSelectionFailed means the model call errored after bounded
	// retries.
	ErrSelectionFailed = errors.New("selection failed")

	ErrSummaryNotFound = errors.New("summary not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
