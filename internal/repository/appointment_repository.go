package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_scheduler/internal/apperrors"
	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/Freeeeeet/mentorship_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `
	a.id, a.slot_id, a.mentor_id, a.mentee_id, a.topic, a.message, a.status,
	a.feedback, a.rating, a.created_at, a.updated_at`

const appointmentWithSlotColumns = appointmentColumns + `,
	s.id, s.mentor_id,
	to_char(s.date, 'YYYY-MM-DD'), to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI'),
	s.is_booked, s.created_at, s.updated_at`

const feedbackColumns = `
	id, appointment_id, submitter_id, submitter_role,
	overall_rating, quality_rating, preparation_rating,
	went_well, could_improve, interested_in_future, created_at`

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(pool)}
}

func appointmentDest(a *model.Appointment, rating *[]byte) []any {
	return []any{
		&a.ID,
		&a.SlotID,
		&a.MentorID,
		&a.MenteeID,
		&a.Topic,
		&a.Message,
		&a.Status,
		&a.Feedback,
		rating,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	var rating []byte
	if err := row.Scan(appointmentDest(&a, &rating)...); err != nil {
		return nil, err
	}
	a.Rating = rating
	return &a, nil
}

func scanAppointmentWithSlot(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	var slot model.Slot
	var rating []byte

	dest := append(appointmentDest(&a, &rating),
		&slot.ID,
		&slot.MentorID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsBooked,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.Rating = rating
	a.Slot = &slot
	return &a, nil
}

// Create создаёт запись в статусе pending
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO mentorship_appointments (id, slot_id, mentor_id, mentee_id, topic, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Status = model.AppointmentStatusPending

	err := r.QueryRow(
		ctx, query,
		a.ID,
		a.SlotID,
		a.MentorID,
		a.MenteeID,
		a.Topic,
		a.Message,
		string(a.Status),
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		switch {
		case base.IsUniqueViolation(err):
			return apperrors.Conflict("slot already has an active appointment")
		case base.IsForeignKeyViolation(err):
			return apperrors.NotFoundWithID("slot", a.SlotID.String())
		case base.IsCheckViolation(err):
			return apperrors.Validation("appointment violates data constraints")
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID получает запись вместе со слотом
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentWithSlotColumns + `
		FROM mentorship_appointments a
		JOIN mentor_slots s ON s.id = a.slot_id
		WHERE a.id = $1
	`

	a, err := scanAppointmentWithSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, apperrors.NotFoundWithID("appointment", id.String())
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return a, nil
}

// ListForMentor получает записи на слоты ментора
func (r *AppointmentRepository) ListForMentor(ctx context.Context, mentorID uuid.UUID, status *model.AppointmentStatus) ([]*model.Appointment, error) {
	return r.ListAll(ctx, model.AppointmentFilter{Status: status, MentorID: &mentorID})
}

// ListForMentee получает записи менти
func (r *AppointmentRepository) ListForMentee(ctx context.Context, menteeID uuid.UUID, status *model.AppointmentStatus) ([]*model.Appointment, error) {
	return r.ListAll(ctx, model.AppointmentFilter{Status: status, MenteeID: &menteeID})
}

// ListAll получает записи по фильтру, по дате слота
func (r *AppointmentRepository) ListAll(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentWithSlotColumns + `
		FROM mentorship_appointments a
		JOIN mentor_slots s ON s.id = a.slot_id
		WHERE ($1::uuid IS NULL OR a.mentor_id = $1)
		  AND ($2::uuid IS NULL OR a.mentee_id = $2)
		  AND ($3::text IS NULL OR a.status = $3)
		ORDER BY s.date ASC, s.start_time ASC, a.created_at ASC
	`

	var status *string
	if filter.Status != nil {
		st := string(*filter.Status)
		status = &st
	}

	rows, err := r.Query(ctx, query, filter.MentorID, filter.MenteeID, status)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		a, err := scanAppointmentWithSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	return appointments, nil
}

// SetStatus переводит запись в новый статус, если ребро разрешено.
// Проверка и запись выполняются одним условным UPDATE.
func (r *AppointmentRepository) SetStatus(ctx context.Context, id uuid.UUID, transition model.Transition) (*model.Appointment, error) {
	query := `
		UPDATE mentorship_appointments a
		SET status = $2,
		    feedback = COALESCE($3, a.feedback),
		    rating = COALESCE($4::jsonb, a.rating),
		    updated_at = NOW()
		WHERE a.id = $1 AND a.status = ANY($5::text[])
		RETURNING ` + appointmentColumns

	sources := make([]string, 0, 2)
	for _, st := range model.SourcesOf(transition.To) {
		sources = append(sources, string(st))
	}

	var rating []byte
	if len(transition.Rating) > 0 {
		rating = transition.Rating
	}

	a, err := scanAppointment(r.QueryRow(
		ctx, query,
		id,
		string(transition.To),
		transition.Feedback,
		rating,
		sources,
	))
	if err == nil {
		return a, nil
	}
	if !base.IsNotFound(err) {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	// Строка не обновлена: записи нет или ребро не разрешено
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.InvalidTransition(string(current.Status), string(transition.To))
}

// AttachFeedback сохраняет отзыв, только если запись завершена и отзыва от этого участника ещё нет
func (r *AppointmentRepository) AttachFeedback(ctx context.Context, fb *model.Feedback) error {
	query := `
		INSERT INTO mentorship_feedback (
			id, appointment_id, submitter_id, submitter_role,
			overall_rating, quality_rating, preparation_rating,
			went_well, could_improve, interested_in_future
		)
		SELECT $1::uuid, a.id, $3::uuid, $4::text, $5::smallint, $6::smallint, $7::smallint, $8::text, $9::text, $10::boolean
		FROM mentorship_appointments a
		WHERE a.id = $2::uuid AND a.status = 'completed'
		ON CONFLICT (appointment_id, submitter_id) DO NOTHING
		RETURNING created_at
	`

	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}

	err := r.QueryRow(
		ctx, query,
		fb.ID,
		fb.AppointmentID,
		fb.SubmitterID,
		string(fb.SubmitterRole),
		fb.OverallRating,
		fb.QualityRating,
		fb.PreparationRating,
		fb.WentWell,
		fb.CouldImprove,
		fb.InterestedInFuture,
	).Scan(&fb.CreatedAt)
	if err == nil {
		return nil
	}
	if !base.IsNotFound(err) {
		if base.IsCheckViolation(err) {
			return apperrors.Validation("feedback violates data constraints")
		}
		return fmt.Errorf("attach feedback: %w", err)
	}

	current, getErr := r.GetByID(ctx, fb.AppointmentID)
	if getErr != nil {
		return getErr
	}
	if current.Status != model.AppointmentStatusCompleted {
		return apperrors.New(apperrors.KindInvalidTransition, "feedback can only be submitted for completed appointments")
	}
	return apperrors.Conflict("feedback already submitted for this appointment")
}

// ListFeedback получает отзывы по записи
func (r *AppointmentRepository) ListFeedback(ctx context.Context, appointmentID uuid.UUID) ([]*model.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM mentorship_feedback
		WHERE appointment_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var result []*model.Feedback
	for rows.Next() {
		var fb model.Feedback
		err := rows.Scan(
			&fb.ID,
			&fb.AppointmentID,
			&fb.SubmitterID,
			&fb.SubmitterRole,
			&fb.OverallRating,
			&fb.QualityRating,
			&fb.PreparationRating,
			&fb.WentWell,
			&fb.CouldImprove,
			&fb.InterestedInFuture,
			&fb.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		result = append(result, &fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	return result, nil
}
