package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{ID: len(f.sent)}, nil
}

type fakeChats struct {
	chats map[uuid.UUID]int64
	err   error
}

func (f fakeChats) ChatIDs(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[uuid.UUID]int64)
	for _, id := range userIDs {
		if chat, ok := f.chats[id]; ok {
			result[id] = chat
		}
	}
	return result, nil
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, Event) error {
	c.calls++
	return c.err
}

func testAppointment() *model.Appointment {
	return &model.Appointment{
		ID:       uuid.New(),
		MentorID: uuid.New(),
		MenteeID: uuid.New(),
		Topic:    "Career advice",
		Status:   model.AppointmentStatusPending,
		Slot:     &model.Slot{Date: "2025-06-01", StartTime: "09:00", EndTime: "10:00"},
	}
}

func TestEvent_Recipients(t *testing.T) {
	a := testAppointment()

	booked := Event{Kind: EventBooked, Appointment: a, ActorID: a.MenteeID}
	assert.Equal(t, []uuid.UUID{a.MentorID}, booked.Recipients())

	confirmed := Event{Kind: EventConfirmed, Appointment: a, ActorID: a.MentorID}
	assert.Equal(t, []uuid.UUID{a.MenteeID}, confirmed.Recipients())

	byAdmin := Event{Kind: EventCancelled, Appointment: a, ActorID: uuid.New()}
	assert.Equal(t, []uuid.UUID{a.MentorID, a.MenteeID}, byAdmin.Recipients())
}

func TestTelegramNotifier_SendsToLinkedChats(t *testing.T) {
	a := testAppointment()
	sender := &fakeSender{}
	chats := fakeChats{chats: map[uuid.UUID]int64{a.MentorID: 1001}}
	n := NewTelegramNotifier(sender, chats, zap.NewNop())

	err := n.Notify(context.Background(), Event{Kind: EventCancelled, Appointment: a, ActorID: uuid.New()})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1, "mentee has no linked chat")
	assert.Equal(t, int64(1001), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Session cancelled")
	assert.Contains(t, sender.sent[0].Text, "2025-06-01 09:00–10:00")
}

func TestTelegramNotifier_Errors(t *testing.T) {
	a := testAppointment()
	event := Event{Kind: EventBooked, Appointment: a, ActorID: a.MenteeID}

	lookupErr := errors.New("db down")
	n := NewTelegramNotifier(&fakeSender{}, fakeChats{err: lookupErr}, zap.NewNop())
	assert.ErrorIs(t, n.Notify(context.Background(), event), lookupErr)

	sendErr := errors.New("bot blocked by user")
	chats := fakeChats{chats: map[uuid.UUID]int64{a.MentorID: 1001}}
	n = NewTelegramNotifier(&fakeSender{err: sendErr}, chats, zap.NewNop())
	assert.ErrorIs(t, n.Notify(context.Background(), event), sendErr)
}

func TestMulti_DeliversToAll(t *testing.T) {
	failing := &countingNotifier{err: errors.New("unavailable")}
	ok := &countingNotifier{}
	m := Multi{failing, NewLogNotifier(zap.NewNop()), ok}

	err := m.Notify(context.Background(), Event{Kind: EventBooked, Appointment: testAppointment()})
	assert.ErrorIs(t, err, failing.err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)

	assert.NoError(t, Nop{}.Notify(context.Background(), Event{}))
}

func TestFormatEvent(t *testing.T) {
	a := testAppointment()

	tests := []struct {
		kind EventKind
		want string
	}{
		{EventBooked, "New mentorship request"},
		{EventConfirmed, "Session confirmed"},
		{EventCancelled, "Session cancelled"},
		{EventCompleted, "You can now leave feedback"},
		{EventFeedback, "New feedback"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			text := FormatEvent(Event{Kind: tt.kind, Appointment: a})
			assert.Contains(t, text, tt.want)
			assert.Contains(t, text, "Career advice")
		})
	}

	a.Slot = nil
	assert.NotContains(t, FormatEvent(Event{Kind: EventConfirmed, Appointment: a}), "📅")
}
