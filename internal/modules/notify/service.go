package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service wraps a Notifier with durable attempt logging. Dispatch is
// fire-and-forget from the caller's point of view: it is invoked after the
// primary transaction commits, in its own goroutine, and its errors never
// propagate back.
type Service struct {
	db       *gorm.DB
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
}

func NewService(db *gorm.DB, n Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, notifier: n, logger: logger, timeout: 10 * time.Second}
}

// Dispatch attempts delivery and records the attempt. It takes its own
// context so a finished HTTP request cannot cancel an in-flight send.
func (s *Service) Dispatch(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	entry := NotificationLog{
		ID:         uuid.NewString(),
		OperatorID: ev.OperatorID,
		BookingID:  ev.BookingID,
		Channel:    channelName(s.notifier),
		EventType:  ev.Type,
		Status:     "sent",
		CreatedAt:  time.Now(),
	}

	if err := s.notifier.Notify(ctx, ev); err != nil {
		msg := err.Error()
		if len(msg) > 250 {
			msg = msg[:250]
		}
		entry.Status = "failed"
		entry.Error = &msg
		s.logger.Warn("notification delivery failed",
			"booking_id", ev.BookingID, "type", ev.Type, "err", err)
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Error("notification log write failed",
			"booking_id", ev.BookingID, "type", ev.Type, "err", err)
	}
}

// DispatchAsync runs Dispatch in its own goroutine.
func (s *Service) DispatchAsync(ev Event) {
	go s.Dispatch(ev)
}

type named interface{ Name() string }

func channelName(n Notifier) string {
	if v, ok := n.(named); ok {
		return v.Name()
	}
	return "unknown"
}
