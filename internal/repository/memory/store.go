// Package memory - хранилище слотов и записей в памяти процесса.
// Все условные обновления выполняются под одним мьютексом, поэтому
// Reserve и AttachFeedback линеаризуемы так же, как их SQL-версии.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/mentorship_scheduler/internal/apperrors"
	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/google/uuid"
)

type feedbackKey struct {
	appointmentID uuid.UUID
	submitterID   uuid.UUID
}

type Store struct {
	mu           sync.Mutex
	slots        map[uuid.UUID]*model.Slot
	withdrawn    map[uuid.UUID]*model.Slot // снятые с публикации, видны только в истории записей
	appointments map[uuid.UUID]*model.Appointment
	feedback     map[feedbackKey]*model.Feedback
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		slots:        make(map[uuid.UUID]*model.Slot),
		withdrawn:    make(map[uuid.UUID]*model.Slot),
		appointments: make(map[uuid.UUID]*model.Appointment),
		feedback:     make(map[feedbackKey]*model.Feedback),
		now:          time.Now,
	}
}

// SetClock подменяет время, которым помечаются изменения
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Slots() *SlotStore {
	return &SlotStore{store: s}
}

func (s *Store) Appointments() *AppointmentStore {
	return &AppointmentStore{store: s}
}

func copySlot(slot *model.Slot) *model.Slot {
	c := *slot
	return &c
}

func (s *Store) copyAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	if a.Message != nil {
		msg := *a.Message
		c.Message = &msg
	}
	if a.Feedback != nil {
		fb := *a.Feedback
		c.Feedback = &fb
	}
	c.Rating = slices.Clone(a.Rating)
	if slot, ok := s.slots[a.SlotID]; ok {
		c.Slot = copySlot(slot)
	} else if slot, ok := s.withdrawn[a.SlotID]; ok {
		c.Slot = copySlot(slot)
	} else {
		c.Slot = nil
	}
	return &c
}

// SlotStore - вид на Store с операциями над слотами
type SlotStore struct {
	store *Store
}

func (r *SlotStore) Create(_ context.Context, slot *model.Slot) error {
	if slot.StartTime >= slot.EndTime {
		return apperrors.Validation("start time must be before end time")
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.slots {
		if existing.MentorID == slot.MentorID && existing.Date == slot.Date &&
			existing.StartTime == slot.StartTime && existing.EndTime == slot.EndTime {
			return apperrors.Validation("slot with the same date and time already exists")
		}
	}

	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.IsBooked = false
	slot.CreatedAt = s.now()
	slot.UpdatedAt = slot.CreatedAt
	s.slots[slot.ID] = copySlot(slot)
	return nil
}

func (r *SlotStore) GetByID(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("slot", id.String())
	}
	return copySlot(slot), nil
}

func (r *SlotStore) List(_ context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var slots []*model.Slot
	for _, slot := range s.slots {
		if filter.Matches(slot) {
			slots = append(slots, copySlot(slot))
		}
	}
	slices.SortFunc(slots, func(a, b *model.Slot) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return slots, nil
}

func (r *SlotStore) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	switch {
	case !ok:
		return apperrors.NotFoundWithID("slot", id.String())
	case slot.MentorID != ownerID:
		return apperrors.Permission("only the owning mentor can delete this slot")
	case slot.IsBooked:
		return apperrors.Conflict("booked slots cannot be deleted")
	}

	slot.UpdatedAt = s.now()
	s.withdrawn[id] = slot
	delete(s.slots, id)
	return nil
}

func (r *SlotStore) Reserve(_ context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok || slot.IsBooked {
		return false, nil
	}
	slot.IsBooked = true
	slot.UpdatedAt = s.now()
	return true, nil
}

func (r *SlotStore) Release(_ context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return apperrors.NotFoundWithID("slot", id.String())
	}
	slot.IsBooked = false
	slot.UpdatedAt = s.now()
	return nil
}

func (r *SlotStore) ReleaseOrphaned(_ context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	held := make(map[uuid.UUID]bool)
	for _, a := range s.appointments {
		if a.Status.Live() {
			held[a.SlotID] = true
		}
	}

	var released []uuid.UUID
	for id, slot := range s.slots {
		if slot.IsBooked && !held[id] && slot.UpdatedAt.Before(olderThan) {
			slot.IsBooked = false
			slot.UpdatedAt = s.now()
			released = append(released, id)
		}
	}
	return released, nil
}

// AppointmentStore - вид на Store с операциями над записями и отзывами
type AppointmentStore struct {
	store *Store
}

func (r *AppointmentStore) Create(_ context.Context, appointment *model.Appointment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[appointment.SlotID]; !ok {
		return apperrors.NotFoundWithID("slot", appointment.SlotID.String())
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	if _, exists := s.appointments[appointment.ID]; exists {
		return apperrors.Conflict("appointment already exists")
	}
	for _, a := range s.appointments {
		if a.SlotID == appointment.SlotID && a.Status.Live() {
			return apperrors.Conflict("slot already has an active appointment")
		}
	}

	appointment.Status = model.AppointmentStatusPending
	appointment.CreatedAt = s.now()
	appointment.UpdatedAt = appointment.CreatedAt
	s.appointments[appointment.ID] = s.copyAppointment(appointment)
	return nil
}

func (r *AppointmentStore) GetByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("appointment", id.String())
	}
	return s.copyAppointment(a), nil
}

func (r *AppointmentStore) ListForMentor(ctx context.Context, mentorID uuid.UUID, status *model.AppointmentStatus) ([]*model.Appointment, error) {
	return r.ListAll(ctx, model.AppointmentFilter{Status: status, MentorID: &mentorID})
}

func (r *AppointmentStore) ListForMentee(ctx context.Context, menteeID uuid.UUID, status *model.AppointmentStatus) ([]*model.Appointment, error) {
	return r.ListAll(ctx, model.AppointmentFilter{Status: status, MenteeID: &menteeID})
}

func (r *AppointmentStore) ListAll(_ context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*model.Appointment
	for _, a := range s.appointments {
		if filter.Matches(a) {
			result = append(result, s.copyAppointment(a))
		}
	}
	slices.SortFunc(result, func(a, b *model.Appointment) int {
		switch {
		case model.AppointmentLess(a, b):
			return -1
		case model.AppointmentLess(b, a):
			return 1
		}
		return 0
	})
	return result, nil
}

func (r *AppointmentStore) SetStatus(_ context.Context, id uuid.UUID, transition model.Transition) (*model.Appointment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("appointment", id.String())
	}
	if !model.CanTransition(a.Status, transition.To) {
		return nil, apperrors.InvalidTransition(string(a.Status), string(transition.To))
	}

	a.Status = transition.To
	if transition.Feedback != nil {
		fb := *transition.Feedback
		a.Feedback = &fb
	}
	if len(transition.Rating) > 0 {
		a.Rating = slices.Clone(transition.Rating)
	}
	a.UpdatedAt = s.now()
	return s.copyAppointment(a), nil
}

func (r *AppointmentStore) AttachFeedback(_ context.Context, feedback *model.Feedback) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[feedback.AppointmentID]
	if !ok {
		return apperrors.NotFoundWithID("appointment", feedback.AppointmentID.String())
	}
	if a.Status != model.AppointmentStatusCompleted {
		return apperrors.New(apperrors.KindInvalidTransition, "feedback can only be submitted for completed appointments")
	}

	key := feedbackKey{appointmentID: feedback.AppointmentID, submitterID: feedback.SubmitterID}
	if _, exists := s.feedback[key]; exists {
		return apperrors.Conflict("feedback already submitted for this appointment")
	}

	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	feedback.CreatedAt = s.now()
	stored := *feedback
	s.feedback[key] = &stored
	return nil
}

func (r *AppointmentStore) ListFeedback(_ context.Context, appointmentID uuid.UUID) ([]*model.Feedback, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*model.Feedback
	for key, fb := range s.feedback {
		if key.appointmentID == appointmentID {
			c := *fb
			result = append(result, &c)
		}
	}
	slices.SortFunc(result, func(a, b *model.Feedback) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}
