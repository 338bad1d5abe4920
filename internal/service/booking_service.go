package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/mentorship_scheduler/internal/access"
	"github.com/Freeeeeet/mentorship_scheduler/internal/apperrors"
	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/Freeeeeet/mentorship_scheduler/internal/notify"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService координирует слоты и записи: единственный, кто меняет
// флаг занятости слота и статус записи.
type BookingService struct {
	slots        SlotStore
	appointments AppointmentStore
	notifier     notify.Notifier
	validate     *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
	location     *time.Location
}

type Option func(*BookingService)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) { s.now = now }
}

// WithLocation задаёт часовой пояс, в котором интерпретируются дата и время слотов
func WithLocation(loc *time.Location) Option {
	return func(s *BookingService) { s.location = loc }
}

func NewBookingService(
	slots SlotStore,
	appointments AppointmentStore,
	notifier notify.Notifier,
	logger *zap.Logger,
	opts ...Option,
) *BookingService {
	s := &BookingService{
		slots:        slots,
		appointments: appointments,
		notifier:     notifier,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger,
		now:          time.Now,
		location:     time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	return s
}

// ---------------------------------------------------------------------------
// Слоты
// ---------------------------------------------------------------------------

type CreateSlotInput struct {
	MentorID  uuid.UUID
	Date      string `validate:"required,datetime=2006-01-02"`
	StartTime string `validate:"required,datetime=15:04"`
	EndTime   string `validate:"required,datetime=15:04"`
}

// ListSlots возвращает слоты ментора, упорядоченные по дате и началу
func (s *BookingService) ListSlots(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	if filter.MentorID == uuid.Nil {
		return nil, apperrors.Validation("mentor_id is required")
	}
	if filter.Date != nil {
		if _, err := time.Parse(model.DateLayout, *filter.Date); err != nil {
			return nil, apperrors.Validation("date must be in YYYY-MM-DD format")
		}
	}
	return s.slots.List(ctx, filter)
}

// CreateSlot публикует новое окно доступности ментора
func (s *BookingService) CreateSlot(ctx context.Context, caller model.Caller, input CreateSlotInput) (*model.Slot, error) {
	input.Date = strings.TrimSpace(input.Date)
	input.StartTime = strings.TrimSpace(input.StartTime)
	input.EndTime = strings.TrimSpace(input.EndTime)

	if input.MentorID == uuid.Nil {
		input.MentorID = caller.ID
	}
	if err := access.Authorize(caller, access.ActionCreateSlot, access.Target{MentorID: input.MentorID}); err != nil {
		return nil, err
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	// 9:00 -> 09:00, чтобы строки сортировались как время
	start, _ := time.Parse(model.TimeLayout, input.StartTime)
	end, _ := time.Parse(model.TimeLayout, input.EndTime)
	if !start.Before(end) {
		return nil, apperrors.Validation("start time must be before end time")
	}
	input.StartTime = start.Format(model.TimeLayout)
	input.EndTime = end.Format(model.TimeLayout)

	slot := &model.Slot{
		ID:        uuid.New(),
		MentorID:  input.MentorID,
		Date:      input.Date,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}

	startsAt, err := slot.StartsAt(s.location)
	if err != nil {
		return nil, apperrors.Validation("invalid slot date or time")
	}
	if !startsAt.After(s.now()) {
		return nil, apperrors.Validation("slot must start in the future")
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("mentor_id", slot.MentorID.String()),
		zap.String("date", slot.Date),
		zap.String("start", slot.StartTime),
		zap.String("end", slot.EndTime),
	)

	return slot, nil
}

// DeleteSlot удаляет свободный слот (владелец или администратор)
func (s *BookingService) DeleteSlot(ctx context.Context, caller model.Caller, slotID uuid.UUID) error {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return err
	}

	if err := access.Authorize(caller, access.ActionDeleteSlot, access.SlotTarget(slot)); err != nil {
		return err
	}

	if err := s.slots.Delete(ctx, slotID, slot.MentorID); err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.String("slot_id", slotID.String()),
		zap.String("deleted_by", caller.ID.String()),
	)

	return nil
}

// ---------------------------------------------------------------------------
// Бронирование
// ---------------------------------------------------------------------------

type BookInput struct {
	SlotID  uuid.UUID
	Topic   string  `validate:"required,max=200"`
	Message *string `validate:"omitempty,max=2000"`
}

// Book бронирует слот: атомарный захват слота, затем создание записи.
// Если запись создать не удалось, слот освобождается.
func (s *BookingService) Book(ctx context.Context, caller model.Caller, input BookInput) (*model.Appointment, error) {
	input.Topic = strings.TrimSpace(input.Topic)
	if input.Message != nil {
		msg := strings.TrimSpace(*input.Message)
		input.Message = &msg
		if msg == "" {
			input.Message = nil
		}
	}
	if input.SlotID == uuid.Nil {
		return nil, apperrors.Validation("slot_id is required")
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	slot, err := s.slots.GetByID(ctx, input.SlotID)
	if err != nil {
		return nil, err
	}

	if err := access.Authorize(caller, access.ActionBook, access.SlotTarget(slot)); err != nil {
		return nil, err
	}

	reserved, err := s.slots.Reserve(ctx, slot.ID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		s.logger.Warn("Slot reservation lost",
			zap.String("slot_id", slot.ID.String()),
			zap.String("mentee_id", caller.ID.String()),
		)
		return nil, apperrors.Conflict("slot is no longer available").
			WithDetails(map[string]any{"slot_id": slot.ID.String()})
	}

	appointment := &model.Appointment{
		ID:       uuid.New(),
		SlotID:   slot.ID,
		MentorID: slot.MentorID,
		MenteeID: caller.ID,
		Topic:    input.Topic,
		Message:  input.Message,
		Status:   model.AppointmentStatusPending,
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		// Запрос мог быть прерван: компенсация не должна зависеть от его контекста
		if releaseErr := s.slots.Release(context.WithoutCancel(ctx), slot.ID); releaseErr != nil {
			s.logger.Error("Slot left reserved after failed booking",
				zap.String("slot_id", slot.ID.String()),
				zap.Error(err),
				zap.NamedError("release_error", releaseErr),
			)
			return nil, apperrors.Reconciliation("slot reserved without appointment", err, releaseErr).
				WithDetails(map[string]any{"slot_id": slot.ID.String()})
		}
		return nil, err
	}

	slot.IsBooked = true
	appointment.Slot = slot

	s.logger.Info("Appointment booked",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("slot_id", slot.ID.String()),
		zap.String("mentor_id", slot.MentorID.String()),
		zap.String("mentee_id", caller.ID.String()),
	)
	s.emit(ctx, notify.EventBooked, appointment, caller.ID)

	return appointment, nil
}

// ---------------------------------------------------------------------------
// Просмотр записей
// ---------------------------------------------------------------------------

type Scope string

const (
	ScopeMentor Scope = "mentor"
	ScopeMentee Scope = "mentee"
	ScopeAdmin  Scope = "admin"
)

type AppointmentQuery struct {
	Scope    Scope
	Status   *model.AppointmentStatus
	MentorID *uuid.UUID // только для ScopeAdmin
	MenteeID *uuid.UUID // только для ScopeAdmin
}

// GetAppointment возвращает запись участнику или администратору
func (s *BookingService) GetAppointment(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, access.ActionView, access.AppointmentTarget(appointment)); err != nil {
		return nil, err
	}
	return appointment, nil
}

// ListAppointments возвращает записи в рамках роли инициатора
func (s *BookingService) ListAppointments(ctx context.Context, caller model.Caller, query AppointmentQuery) ([]*model.Appointment, error) {
	if caller.ID == uuid.Nil {
		return nil, apperrors.Permission("caller is not authenticated")
	}
	if query.Status != nil && !query.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", *query.Status))
	}

	switch query.Scope {
	case ScopeMentor:
		if !caller.HasRole(model.RoleMentor) {
			return nil, apperrors.Permission("user is not a mentor")
		}
		return s.appointments.ListForMentor(ctx, caller.ID, query.Status)
	case ScopeMentee:
		return s.appointments.ListForMentee(ctx, caller.ID, query.Status)
	case ScopeAdmin:
		if !caller.IsAdmin() {
			return nil, apperrors.Permission("administrator role required")
		}
		return s.appointments.ListAll(ctx, model.AppointmentFilter{
			Status:   query.Status,
			MentorID: query.MentorID,
			MenteeID: query.MenteeID,
		})
	}

	return nil, apperrors.Validation(fmt.Sprintf("unknown scope %q", query.Scope))
}

// ---------------------------------------------------------------------------
// Смена статуса
// ---------------------------------------------------------------------------

type ChangeStatusInput struct {
	To       model.AppointmentStatus
	Feedback *string `validate:"omitempty,max=5000"`
	Rating   json.RawMessage
}

// ChangeStatus переводит запись в целевой статус
func (s *BookingService) ChangeStatus(ctx context.Context, caller model.Caller, id uuid.UUID, input ChangeStatusInput) (*model.Appointment, error) {
	switch input.To {
	case model.AppointmentStatusConfirmed:
		return s.Confirm(ctx, caller, id)
	case model.AppointmentStatusCancelled:
		return s.Cancel(ctx, caller, id)
	case model.AppointmentStatusCompleted:
		return s.Complete(ctx, caller, id, input)
	}
	return nil, apperrors.Validation("status must be one of: confirmed, cancelled, completed")
}

// Confirm: pending -> confirmed. Слот остаётся занятым.
func (s *BookingService) Confirm(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, caller, id, access.ActionConfirm, model.Transition{To: model.AppointmentStatusConfirmed})
}

// Complete: confirmed -> completed. Слот занят навсегда.
func (s *BookingService) Complete(ctx context.Context, caller model.Caller, id uuid.UUID, input ChangeStatusInput) (*model.Appointment, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	if len(input.Rating) > 0 && !json.Valid(input.Rating) {
		return nil, apperrors.Validation("rating must be a valid JSON document")
	}

	return s.transition(ctx, caller, id, access.ActionComplete, model.Transition{
		To:       model.AppointmentStatusCompleted,
		Feedback: input.Feedback,
		Rating:   input.Rating,
	})
}

// Cancel: pending|confirmed -> cancelled, затем освобождение слота.
// Сбой освобождения после отмены возвращается как RECONCILIATION_NEEDED.
func (s *BookingService) Cancel(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.transition(ctx, caller, id, access.ActionCancel, model.Transition{To: model.AppointmentStatusCancelled})
	if err != nil {
		return nil, err
	}

	if err := s.slots.Release(context.WithoutCancel(ctx), appointment.SlotID); err != nil {
		s.logger.Error("Slot not released after cancellation",
			zap.String("appointment_id", appointment.ID.String()),
			zap.String("slot_id", appointment.SlotID.String()),
			zap.Error(err),
		)
		return nil, apperrors.Reconciliation("appointment cancelled but slot is still reserved", nil, err).
			WithDetails(map[string]any{
				"appointment_id": appointment.ID.String(),
				"slot_id":        appointment.SlotID.String(),
			})
	}

	return appointment, nil
}

func (s *BookingService) transition(
	ctx context.Context,
	caller model.Caller,
	id uuid.UUID,
	action access.Action,
	transition model.Transition,
) (*model.Appointment, error) {
	current, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.Authorize(caller, action, access.AppointmentTarget(current)); err != nil {
		return nil, err
	}

	updated, err := s.appointments.SetStatus(ctx, id, transition)
	if err != nil {
		if apperrors.Is(err, apperrors.KindInvalidTransition) {
			s.logger.Warn("Rejected appointment transition",
				zap.String("appointment_id", id.String()),
				zap.String("to", string(transition.To)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("Appointment status changed",
		zap.String("appointment_id", id.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", caller.ID.String()),
	)
	s.emit(ctx, notify.EventKind(updated.Status), updated, caller.ID)

	return updated, nil
}

// ---------------------------------------------------------------------------
// Отзывы
// ---------------------------------------------------------------------------

type FeedbackInput struct {
	OverallRating      int    `validate:"min=1,max=5"`
	QualityRating      int    `validate:"min=1,max=5"`
	PreparationRating  int    `validate:"min=1,max=5"`
	WentWell           string `validate:"max=5000"`
	CouldImprove       string `validate:"max=5000"`
	InterestedInFuture bool
}

// SubmitFeedback сохраняет отзыв участника о проведённой встрече (один на участника)
func (s *BookingService) SubmitFeedback(ctx context.Context, caller model.Caller, id uuid.UUID, input FeedbackInput) (*model.Feedback, error) {
	input.WentWell = strings.TrimSpace(input.WentWell)
	input.CouldImprove = strings.TrimSpace(input.CouldImprove)
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target := access.AppointmentTarget(appointment)
	if err := access.Authorize(caller, access.ActionSubmitFeedback, target); err != nil {
		return nil, err
	}
	role, _ := access.PartyRole(caller, target)

	feedback := &model.Feedback{
		ID:                 uuid.New(),
		AppointmentID:      appointment.ID,
		SubmitterID:        caller.ID,
		SubmitterRole:      role,
		OverallRating:      input.OverallRating,
		QualityRating:      input.QualityRating,
		PreparationRating:  input.PreparationRating,
		WentWell:           input.WentWell,
		CouldImprove:       input.CouldImprove,
		InterestedInFuture: input.InterestedInFuture,
	}

	if err := s.appointments.AttachFeedback(ctx, feedback); err != nil {
		return nil, err
	}

	s.logger.Info("Feedback submitted",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("submitter_id", caller.ID.String()),
		zap.String("role", string(role)),
		zap.Int("overall_rating", feedback.OverallRating),
	)
	s.emit(ctx, notify.EventFeedback, appointment, caller.ID)

	return feedback, nil
}

// ListFeedback возвращает отзывы по записи участнику или администратору
func (s *BookingService) ListFeedback(ctx context.Context, caller model.Caller, id uuid.UUID) ([]*model.Feedback, error) {
	if _, err := s.GetAppointment(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.appointments.ListFeedback(ctx, id)
}

// ---------------------------------------------------------------------------
// Сверка
// ---------------------------------------------------------------------------

// ReconcileReservations освобождает слоты, занятые дольше grace без живой записи
func (s *BookingService) ReconcileReservations(ctx context.Context, grace time.Duration) ([]uuid.UUID, error) {
	released, err := s.slots.ReleaseOrphaned(ctx, s.now().Add(-grace))
	if err != nil {
		return nil, fmt.Errorf("release orphaned slots: %w", err)
	}

	for _, id := range released {
		s.logger.Warn("Released orphaned reservation", zap.String("slot_id", id.String()))
	}

	return released, nil
}

func (s *BookingService) emit(ctx context.Context, kind notify.EventKind, appointment *model.Appointment, actorID uuid.UUID) {
	err := s.notifier.Notify(ctx, notify.Event{Kind: kind, Appointment: appointment, ActorID: actorID})
	if err != nil {
		s.logger.Warn("Failed to deliver notification",
			zap.String("event", string(kind)),
			zap.String("appointment_id", appointment.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) validateInput(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	details := map[string]any{}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return apperrors.Wrap(err, apperrors.KindValidation, "invalid input").WithDetails(details)
}
