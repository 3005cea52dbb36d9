package publishers

import (
	"context"

	"github.com/samvad-hq/saucerest/internal/domain"
)

// Publisher sends job events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt JobEvent) error
}

// Subscriber is implemented by publishers that only want some job actions.
type Subscriber interface {
	Subscribes(action domain.JobAction) bool
}
