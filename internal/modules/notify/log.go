package notify

import (
	"context"
	"log/slog"
)

// LogNotifier is the no-broker fallback: events land in the structured log
// instead of a queue. Single-node deployments without AMQP still get a
// visible trail of what would have been sent.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(l *slog.Logger) *LogNotifier {
	if l == nil {
		l = slog.Default()
	}
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	n.logger.InfoContext(ctx, "notification",
		"type", ev.Type,
		"operator_id", ev.OperatorID,
		"booking_id", ev.BookingID,
		"message", ev.Message,
	)
	return nil
}
