package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"todo-api/internal/events"
	"todo-api/pkg/eventbus"
)

// AuditListener writes one log line per user administration event.
type AuditListener struct {
	logger *zap.Logger
}

func NewAuditListener(logger *zap.Logger) *AuditListener {
	return &AuditListener{logger: logger}
}

func (l *AuditListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.UserAccessChanged, l.Handle)
	bus.Subscribe(events.UserDeleted, l.Handle)
}

func (l *AuditListener) Handle(_ context.Context, event eventbus.Event) error {
	switch e := event.(type) {
	case events.UserAccessChangedEvent:
		l.logger.Info("audit: user access changed",
			zap.Uint64("userID", e.UserID),
			zap.Uint64("actorID", e.ActorID),
			zap.String("change", e.Change),
			zap.String("value", e.Value))
	case events.UserDeletedEvent:
		l.logger.Info("audit: user deleted", zap.Uint64("userID", e.UserID), zap.Uint64("actorID", e.ActorID))
	default:
		return fmt.Errorf("audit listener: unexpected event %q", event.Name())
	}
	return nil
}
