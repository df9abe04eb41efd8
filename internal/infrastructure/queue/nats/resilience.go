package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/acretu/smart-librarian/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrConnectionDraining) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	// Publishes during reconnect windows are worth retrying.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
