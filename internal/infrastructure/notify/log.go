package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

// LogNotifier writes each transition event to the structured log. It stands
// in for the external notification channel (mail, push) behind the same
// interface.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event *domain.TransitionEvent) error {
	n.log.Info().
		Str("entity_type", string(event.EntityType)).
		Str("entity_id", event.EntityID).
		Str("transition", event.Transition).
		Str("from", event.From).
		Str("to", event.To).
		Str("actor_id", event.ActorID).
		Msg("transition notification")
	return nil
}
