package ingress

import (
	"context"

	"teamsbot/internal/adapter"
	"teamsbot/internal/domain"
)

// Handler processes one fully normalized inbound turn. This is the robot's
// receive pipeline boundary.
type Handler func(ctx context.Context, turn *Turn) error

// Turn is one inbound-activity-to-outbound-activities processing cycle. It
// carries the normalized activity and the reply path back into the
// conversation.
type Turn struct {
	Activity   *domain.Activity
	dispatcher *adapter.Dispatcher
}

// Envelope wraps the turn as a live-turn destination descriptor.
func (t *Turn) Envelope() *domain.Envelope {
	return &domain.Envelope{
		User: &domain.User{
			ID:      t.Activity.From.ID,
			Name:    t.Activity.From.Name,
			Message: t.Activity,
		},
	}
}

// Reply sends messages back into the turn's conversation.
func (t *Turn) Reply(ctx context.Context, messages ...string) ([]domain.SendResult, error) {
	return t.dispatcher.Reply(ctx, t.Envelope(), messages...)
}

// Send routes messages through the dispatcher's send path.
func (t *Turn) Send(ctx context.Context, messages ...string) ([]domain.SendResult, error) {
	return t.dispatcher.Send(ctx, t.Envelope(), messages...)
}
