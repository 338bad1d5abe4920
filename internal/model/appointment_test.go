package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		allowed  bool
	}{
		{AppointmentStatusPending, AppointmentStatusConfirmed, true},
		{AppointmentStatusPending, AppointmentStatusCancelled, true},
		{AppointmentStatusPending, AppointmentStatusCompleted, false},
		{AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{AppointmentStatusConfirmed, AppointmentStatusConfirmed, false},
		{AppointmentStatusCancelled, AppointmentStatusConfirmed, false},
		{AppointmentStatusCancelled, AppointmentStatusPending, false},
		{AppointmentStatusCompleted, AppointmentStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestSourcesOf(t *testing.T) {
	assert.Equal(t, []AppointmentStatus{AppointmentStatusPending}, SourcesOf(AppointmentStatusConfirmed))
	assert.Equal(t, []AppointmentStatus{AppointmentStatusConfirmed}, SourcesOf(AppointmentStatusCompleted))
	assert.Equal(t,
		[]AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed},
		SourcesOf(AppointmentStatusCancelled))
	assert.Empty(t, SourcesOf(AppointmentStatusPending))
}

func TestTerminalAndLive(t *testing.T) {
	assert.True(t, AppointmentStatusCancelled.Terminal())
	assert.True(t, AppointmentStatusCompleted.Terminal())
	assert.False(t, AppointmentStatusConfirmed.Terminal())

	assert.False(t, AppointmentStatusCancelled.Live())
	assert.True(t, AppointmentStatusCompleted.Live())
	assert.False(t, AppointmentStatus("archived").Valid())
}

func TestAppointmentLess_OrdersBySlotThenCreation(t *testing.T) {
	now := time.Now()
	early := &Appointment{Slot: &Slot{Date: "2025-06-01", StartTime: "09:00"}, CreatedAt: now}
	late := &Appointment{Slot: &Slot{Date: "2025-06-01", StartTime: "11:00"}, CreatedAt: now.Add(-time.Hour)}
	nextDay := &Appointment{Slot: &Slot{Date: "2025-06-02", StartTime: "08:00"}, CreatedAt: now}

	assert.True(t, AppointmentLess(early, late))
	assert.True(t, AppointmentLess(late, nextDay))
	assert.False(t, AppointmentLess(nextDay, early))
}

func TestSlotFilter_Matches(t *testing.T) {
	mentor := uuid.New()
	date := "2025-06-01"
	booked := true
	slot := &Slot{MentorID: mentor, Date: date, IsBooked: true}

	assert.True(t, SlotFilter{MentorID: mentor}.Matches(slot))
	assert.True(t, SlotFilter{MentorID: mentor, Date: &date, IsBooked: &booked}.Matches(slot))
	assert.False(t, SlotFilter{MentorID: uuid.New()}.Matches(slot))

	free := false
	assert.False(t, SlotFilter{MentorID: mentor, IsBooked: &free}.Matches(slot))
}
