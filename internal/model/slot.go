package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Slot - окно доступности ментора
type Slot struct {
	ID        uuid.UUID `json:"id"`
	MentorID  uuid.UUID `json:"mentor_id"`
	Date      string    `json:"date"`       // YYYY-MM-DD
	StartTime string    `json:"start_time"` // HH:MM
	EndTime   string    `json:"end_time"`   // HH:MM
	IsBooked  bool      `json:"is_booked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StartsAt возвращает момент начала слота в заданной зоне
func (s *Slot) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.StartTime, loc)
}

// Less задаёт порядок листинга: дата, затем время начала
func (s *Slot) Less(other *Slot) bool {
	if s.Date != other.Date {
		return s.Date < other.Date
	}
	if s.StartTime != other.StartTime {
		return s.StartTime < other.StartTime
	}
	return s.EndTime < other.EndTime
}

type SlotFilter struct {
	MentorID uuid.UUID
	Date     *string
	IsBooked *bool
}

// Matches проверяет слот на соответствие фильтру
func (f SlotFilter) Matches(s *Slot) bool {
	if s.MentorID != f.MentorID {
		return false
	}
	if f.Date != nil && s.Date != *f.Date {
		return false
	}
	if f.IsBooked != nil && s.IsBooked != *f.IsBooked {
		return false
	}
	return true
}
