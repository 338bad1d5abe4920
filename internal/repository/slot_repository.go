package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentorship_scheduler/internal/apperrors"
	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/Freeeeeet/mentorship_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotColumns = `
	id, mentor_id,
	to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	is_booked, created_at, updated_at`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.MentorID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsBooked,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create создаёт новый свободный слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO mentor_slots (id, mentor_id, date, start_time, end_time, is_booked)
		VALUES ($1, $2, $3::date, $4::time, $5::time, FALSE)
		RETURNING created_at, updated_at
	`

	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}

	err := r.QueryRow(
		ctx, query,
		slot.ID,
		slot.MentorID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		switch {
		case base.IsUniqueViolation(err):
			return apperrors.Validation("slot with the same date and time already exists")
		case base.IsCheckViolation(err):
			return apperrors.Validation("start time must be before end time")
		}
		return fmt.Errorf("create slot: %w", err)
	}

	slot.IsBooked = false
	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM mentor_slots WHERE id = $1 AND deleted_at IS NULL`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, apperrors.NotFoundWithID("slot", id.String())
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// List получает слоты ментора по фильтру, по дате и времени начала
func (r *SlotRepository) List(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM mentor_slots
		WHERE mentor_id = $1
		  AND deleted_at IS NULL
		  AND ($2::date IS NULL OR date = $2::date)
		  AND ($3::boolean IS NULL OR is_booked = $3)
		ORDER BY date, start_time, end_time
	`

	rows, err := r.Query(ctx, query, filter.MentorID, filter.Date, filter.IsBooked)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	return slots, nil
}

// Delete снимает свободный слот владельца с публикации.
// Строка остаётся, чтобы на неё могли ссылаться отменённые записи.
func (r *SlotRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `
		UPDATE mentor_slots
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND mentor_id = $2 AND NOT is_booked AND deleted_at IS NULL
	`

	affected, err := r.ExecAffected(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Ничего не сняли - выясняем почему
	slot, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if slot.MentorID != ownerID {
		return apperrors.Permission("only the owning mentor can delete this slot")
	}
	return apperrors.Conflict("booked slots cannot be deleted")
}

// Reserve бронирует слот, если он свободен
func (r *SlotRepository) Reserve(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE mentor_slots
		SET is_booked = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_booked AND deleted_at IS NULL
	`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}

	return affected == 1, nil
}

// Release освобождает слот
func (r *SlotRepository) Release(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE mentor_slots
		SET is_booked = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundWithID("slot", id.String())
	}

	return nil
}

// ReleaseOrphaned освобождает занятые слоты без живой записи, не менявшиеся с olderThan
func (r *SlotRepository) ReleaseOrphaned(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE mentor_slots s
		SET is_booked = FALSE, updated_at = NOW()
		WHERE s.is_booked
		  AND s.updated_at < $1
		  AND NOT EXISTS (
			SELECT 1 FROM mentorship_appointments a
			WHERE a.slot_id = s.id AND a.status <> 'cancelled'
		  )
		RETURNING s.id
	`

	rows, err := r.Query(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("release orphaned slots: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect released slots: %w", err)
	}

	return ids, nil
}
