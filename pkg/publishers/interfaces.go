package publishers

import "context"

// Publisher sends import-report events to a downstream sink (SQS, SNS,
// Pub/Sub, HTTP, logs).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
