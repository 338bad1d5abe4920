package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/google/uuid"
)

// SlotStore хранит слоты доступности менторов.
// Reserve и Release вызываются только координатором бронирований.
type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	List(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	// Reserve атомарно переводит слот из свободного в занятый; false - слот уже занят или не найден
	Reserve(ctx context.Context, id uuid.UUID) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
	// ReleaseOrphaned освобождает занятые слоты без живых записей, не менявшиеся с olderThan
	ReleaseOrphaned(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error)
}

// AppointmentStore хранит записи и отзывы. SetStatus сам проверяет ребро автомата статусов.
type AppointmentStore interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	ListForMentor(ctx context.Context, mentorID uuid.UUID, status *model.AppointmentStatus) ([]*model.Appointment, error)
	ListForMentee(ctx context.Context, menteeID uuid.UUID, status *model.AppointmentStatus) ([]*model.Appointment, error)
	ListAll(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, transition model.Transition) (*model.Appointment, error)
	AttachFeedback(ctx context.Context, feedback *model.Feedback) error
	ListFeedback(ctx context.Context, appointmentID uuid.UUID) ([]*model.Feedback, error)
}
