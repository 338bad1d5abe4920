package access

import (
	"testing"

	"github.com/Freeeeeet/mentorship_scheduler/internal/apperrors"
	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	mentorID := uuid.New()
	menteeID := uuid.New()

	mentor := model.Caller{ID: mentorID, Roles: []model.Role{model.RoleMentor}}
	mentee := model.Caller{ID: menteeID}
	admin := model.Caller{ID: uuid.New(), Roles: []model.Role{model.RoleAdministrator}}
	stranger := model.Caller{ID: uuid.New()}
	anonymous := model.Caller{}

	appt := Target{MentorID: mentorID, MenteeID: menteeID}
	slot := Target{MentorID: mentorID}

	tests := []struct {
		name   string
		caller model.Caller
		action Action
		target Target
		want   apperrors.Kind
	}{
		{"mentee books", mentee, ActionBook, slot, ""},
		{"stranger books", stranger, ActionBook, slot, ""},
		{"mentor books own slot", mentor, ActionBook, slot, apperrors.KindSelfBooking},
		{"anonymous books", anonymous, ActionBook, slot, apperrors.KindPermission},

		{"mentor confirms", mentor, ActionConfirm, appt, ""},
		{"admin confirms", admin, ActionConfirm, appt, ""},
		{"mentee confirms", mentee, ActionConfirm, appt, apperrors.KindPermission},
		{"stranger confirms", stranger, ActionConfirm, appt, apperrors.KindPermission},

		{"mentor completes", mentor, ActionComplete, appt, ""},
		{"mentee completes", mentee, ActionComplete, appt, apperrors.KindPermission},

		{"mentee cancels", mentee, ActionCancel, appt, ""},
		{"mentor cancels", mentor, ActionCancel, appt, ""},
		{"admin cancels", admin, ActionCancel, appt, ""},
		{"stranger cancels", stranger, ActionCancel, appt, apperrors.KindPermission},

		{"mentee feedback", mentee, ActionSubmitFeedback, appt, ""},
		{"mentor feedback", mentor, ActionSubmitFeedback, appt, ""},
		{"admin feedback", admin, ActionSubmitFeedback, appt, apperrors.KindPermission},

		{"mentor creates own slot", mentor, ActionCreateSlot, slot, ""},
		{"mentee creates slot for mentor", mentee, ActionCreateSlot, slot, apperrors.KindPermission},
		{"admin creates slot for mentor", admin, ActionCreateSlot, slot, apperrors.KindPermission},
		{
			"user without mentor grant creates own slot",
			model.Caller{ID: mentorID}, ActionCreateSlot, slot, apperrors.KindPermission,
		},

		{"mentor deletes own slot", mentor, ActionDeleteSlot, slot, ""},
		{"admin deletes slot", admin, ActionDeleteSlot, slot, ""},
		{"stranger deletes slot", stranger, ActionDeleteSlot, slot, apperrors.KindPermission},

		{"mentee views", mentee, ActionView, appt, ""},
		{"stranger views", stranger, ActionView, appt, apperrors.KindPermission},
		{"unknown action", admin, Action("archive"), appt, apperrors.KindPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.caller, tt.action, tt.target)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, apperrors.KindOf(err))
		})
	}
}

func TestPartyRole(t *testing.T) {
	mentorID, menteeID := uuid.New(), uuid.New()
	target := Target{MentorID: mentorID, MenteeID: menteeID}

	role, ok := PartyRole(model.Caller{ID: mentorID}, target)
	assert.True(t, ok)
	assert.Equal(t, model.PartyMentor, role)

	role, ok = PartyRole(model.Caller{ID: menteeID}, target)
	assert.True(t, ok)
	assert.Equal(t, model.PartyMentee, role)

	_, ok = PartyRole(model.Caller{ID: uuid.New()}, target)
	assert.False(t, ok)

	_, ok = PartyRole(model.Caller{}, Target{})
	assert.False(t, ok)
}
