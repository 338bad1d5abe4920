// Package access решает, может ли инициатор выполнить действие над слотом или записью.
// Все функции чистые: роли приходят в model.Caller, участники - в Target.
package access

import (
	"github.com/Freeeeeet/mentorship_scheduler/internal/apperrors"
	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/google/uuid"
)

type Action string

const (
	ActionBook           Action = "book"
	ActionConfirm        Action = "confirm"
	ActionCancel         Action = "cancel"
	ActionComplete       Action = "complete"
	ActionSubmitFeedback Action = "submitFeedback"
	ActionCreateSlot     Action = "createSlot"
	ActionDeleteSlot     Action = "deleteSlot"
	ActionView           Action = "view"
)

// Target - участники записи или слота. MenteeID пуст для слота без записи.
type Target struct {
	MentorID uuid.UUID
	MenteeID uuid.UUID
}

// SlotTarget строит цель для операций над слотом
func SlotTarget(slot *model.Slot) Target {
	return Target{MentorID: slot.MentorID}
}

// AppointmentTarget строит цель для операций над записью
func AppointmentTarget(a *model.Appointment) Target {
	return Target{MentorID: a.MentorID, MenteeID: a.MenteeID}
}

// PartyRole возвращает роль инициатора в записи
func PartyRole(caller model.Caller, target Target) (model.PartyRole, bool) {
	switch caller.ID {
	case uuid.Nil:
		return "", false
	case target.MentorID:
		return model.PartyMentor, true
	case target.MenteeID:
		return model.PartyMentee, true
	}
	return "", false
}

// Authorize возвращает nil, если действие разрешено
func Authorize(caller model.Caller, action Action, target Target) error {
	if caller.ID == uuid.Nil {
		return apperrors.Permission("caller is not authenticated")
	}

	role, isParty := PartyRole(caller, target)
	isMentor := isParty && role == model.PartyMentor
	isMentee := isParty && role == model.PartyMentee

	switch action {
	case ActionBook:
		if caller.ID == target.MentorID {
			return apperrors.SelfBooking()
		}
		return nil

	case ActionConfirm, ActionComplete:
		if isMentor || caller.IsAdmin() {
			return nil
		}
		if isMentee {
			return apperrors.Permission("only the mentor can " + string(action) + " this appointment")
		}

	case ActionCancel, ActionView:
		if isParty || caller.IsAdmin() {
			return nil
		}

	case ActionSubmitFeedback:
		if isParty {
			return nil
		}
		return apperrors.Permission("only participants of the appointment can submit feedback")

	case ActionCreateSlot:
		if caller.ID == target.MentorID && caller.HasRole(model.RoleMentor) {
			return nil
		}
		return apperrors.Permission("availability can only be published by the mentor themselves")

	case ActionDeleteSlot:
		if isMentor || caller.IsAdmin() {
			return nil
		}
		return apperrors.Permission("only the owning mentor can delete this slot")

	default:
		return apperrors.Permission("unknown action " + string(action))
	}

	return apperrors.Permission("caller is not a participant of this appointment")
}
