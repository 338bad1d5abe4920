package model

import (
	"slices"

	"github.com/google/uuid"
)

// Role - выданная пользователю роль
type Role string

const (
	RoleMentor        Role = "mentor"
	RoleAdministrator Role = "administrator"
)

// PartyRole - роль участника в конкретной записи
type PartyRole string

const (
	PartyMentor PartyRole = "mentor"
	PartyMentee PartyRole = "mentee"
)

// Caller - аутентифицированный инициатор запроса
type Caller struct {
	ID    uuid.UUID `json:"id"`
	Roles []Role    `json:"roles"`
}

func (c Caller) HasRole(role Role) bool {
	return slices.Contains(c.Roles, role)
}

func (c Caller) IsAdmin() bool {
	return c.HasRole(RoleAdministrator)
}
