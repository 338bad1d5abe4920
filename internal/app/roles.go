package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleStore выдаёт роли и собирает по ним model.Caller
type RoleStore interface {
	Grant(ctx context.Context, userID uuid.UUID, role model.Role) error
	Resolve(ctx context.Context, userID uuid.UUID) (model.Caller, error)
}

// BootstrapAdmins выдаёт роль administrator пользователям из конфигурации
// и проверяет, что она действительно видна при разрешении инициатора
func BootstrapAdmins(ctx context.Context, roles RoleStore, userIDs []uuid.UUID, logger *zap.Logger) error {
	for _, id := range userIDs {
		if err := roles.Grant(ctx, id, model.RoleAdministrator); err != nil {
			return fmt.Errorf("grant administrator to %s: %w", id, err)
		}

		caller, err := roles.Resolve(ctx, id)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", id, err)
		}
		if !caller.IsAdmin() {
			return fmt.Errorf("administrator role not visible for %s", id)
		}

		logger.Info("Administrator bootstrapped",
			zap.String("user_id", id.String()),
			zap.Int("roles", len(caller.Roles)),
		)
	}
	return nil
}
