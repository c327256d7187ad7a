package billing

import "context"

// Repository records processed provider events so that redelivered
// webhooks are applied once.
type Repository interface {
	// MarkProcessed records eventID and reports whether it was new.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	// Forget removes a record so a failed event can be redelivered.
	Forget(ctx context.Context, eventID string) error
}
