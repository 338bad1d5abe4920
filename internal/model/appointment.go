package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"   // Ожидает подтверждения ментора
	AppointmentStatusConfirmed AppointmentStatus = "confirmed" // Подтверждено
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // Отменено
	AppointmentStatusCompleted AppointmentStatus = "completed" // Проведено
)

// transitions - разрешённые рёбра автомата статусов
var transitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Terminal - из этого статуса переходов нет
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// Live - запись удерживает слот
func (s AppointmentStatus) Live() bool {
	return s != AppointmentStatusCancelled
}

// CanTransition проверяет ребро from -> to
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesOf возвращает статусы, из которых разрешён переход в to
func SourcesOf(to AppointmentStatus) []AppointmentStatus {
	var sources []AppointmentStatus
	for _, from := range []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed} {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

type Appointment struct {
	ID        uuid.UUID         `json:"id"`
	SlotID    uuid.UUID         `json:"slot_id"`
	MentorID  uuid.UUID         `json:"mentor_id"`
	MenteeID  uuid.UUID         `json:"mentee_id"`
	Topic     string            `json:"topic"`
	Message   *string           `json:"message"`
	Status    AppointmentStatus `json:"status"`
	Feedback  *string           `json:"feedback"`
	Rating    json.RawMessage   `json:"rating,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Заполняется при выборках списком (не хранится в записи)
	Slot *Slot `json:"slot,omitempty"`
}

// Transition - запрос на смену статуса с необязательными итогами встречи
type Transition struct {
	To       AppointmentStatus
	Feedback *string
	Rating   json.RawMessage
}

type AppointmentFilter struct {
	Status   *AppointmentStatus
	MentorID *uuid.UUID
	MenteeID *uuid.UUID
}

func (f AppointmentFilter) Matches(a *Appointment) bool {
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.MentorID != nil && a.MentorID != *f.MentorID {
		return false
	}
	if f.MenteeID != nil && a.MenteeID != *f.MenteeID {
		return false
	}
	return true
}

// AppointmentLess - порядок листинга: дата слота, начало, время создания
func AppointmentLess(a, b *Appointment) bool {
	if a.Slot != nil && b.Slot != nil {
		if a.Slot.Date != b.Slot.Date {
			return a.Slot.Date < b.Slot.Date
		}
		if a.Slot.StartTime != b.Slot.StartTime {
			return a.Slot.StartTime < b.Slot.StartTime
		}
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
