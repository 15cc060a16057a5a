package redis

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/internal/events"
	"github.com/andreyxaxa/kitchen-stream/internal/infrastructure"
)

// EventPublisher encodes domain events and appends them to the event log.
type EventPublisher struct {
	log infrastructure.EventLog
}

var _ infrastructure.EventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(log infrastructure.EventLog) *EventPublisher {
	return &EventPublisher{log: log}
}

func (p *EventPublisher) Publish(ctx context.Context, stream string, event entity.Event) (string, error) {
	fields, err := events.Encode(event)
	if err != nil {
		return "", fmt.Errorf("EventPublisher - Publish - events.Encode: %w", err)
	}

	id, err := p.log.Append(ctx, stream, fields)
	if err != nil {
		return "", fmt.Errorf("EventPublisher - Publish - p.log.Append: %w", err)
	}

	return id, nil
}
