package ports

import "context"

// Port: publish an event to downstream consumers. Delivery is
// at-least-once at best; callers must tolerate duplicates.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}
