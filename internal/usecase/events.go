package usecase

import "context"

// EventPublisher delivers lifecycle events to external collaborators. *mq.Publisher satisfies it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type nopPublisher struct{}

func (nopPublisher) PublishJSON(context.Context, string, any) error { return nil }

// NopPublisher drops every event. Used when no broker is configured.
func NopPublisher() EventPublisher {
	return nopPublisher{}
}
