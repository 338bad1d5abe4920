package notify

import (
	"context"
	"errors"

	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventKind string

const (
	EventBooked    EventKind = "booked"
	EventConfirmed EventKind = "confirmed"
	EventCancelled EventKind = "cancelled"
	EventCompleted EventKind = "completed"
	EventFeedback  EventKind = "feedback"
)

// Event - событие жизненного цикла записи
type Event struct {
	Kind        EventKind
	Appointment *model.Appointment
	ActorID     uuid.UUID
}

// Recipients возвращает участников записи, кроме инициатора
func (e Event) Recipients() []uuid.UUID {
	var ids []uuid.UUID
	for _, id := range []uuid.UUID{e.Appointment.MentorID, e.Appointment.MenteeID} {
		if id != uuid.Nil && id != e.ActorID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Notifier доставляет уведомления участникам. Ошибки доставки не влияют на операцию.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier пишет события в лог
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info("Appointment event",
		zap.String("event", string(event.Kind)),
		zap.String("appointment_id", event.Appointment.ID.String()),
		zap.String("actor_id", event.ActorID.String()),
		zap.Int("recipients", len(event.Recipients())),
	)
	return nil
}

// Multi рассылает событие всем вложенным notifier'ам
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop ничего не делает
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
