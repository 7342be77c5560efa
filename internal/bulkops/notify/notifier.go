package notify

import (
	"context"
	"log/slog"

	"bulkops/internal/bulkops/model"

	"golang.org/x/sync/errgroup"
)

// Notifier pushes one event to an external consumer.
type Notifier interface {
	Notify(ctx context.Context, event model.NotificationEvent) error
}

// LogNotifier writes events to the structured log. Used when no broker is
// configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event model.NotificationEvent) error {
	n.Logger.InfoContext(ctx, "notification",
		"type", event.Type,
		"operation_id", event.OperationID,
		"operation_type", event.OperationType,
		"tenant_id", event.TenantID,
		"target_id", event.TargetID,
	)
	return nil
}

// Fanout delivers events with at most limit in flight. A failed delivery is
// reported through onErr and does not stop the others.
func Fanout(ctx context.Context, n Notifier, events []model.NotificationEvent, limit int, onErr func(model.NotificationEvent, error)) {
	if n == nil || len(events) == 0 {
		return
	}
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, ev := range events {
		ev := ev
		g.Go(func() error {
			if err := n.Notify(ctx, ev); err != nil && onErr != nil {
				onErr(ev, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
