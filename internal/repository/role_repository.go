package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_scheduler/internal/model"
	"github.com/Freeeeeet/mentorship_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleRepository хранит выданные пользователям роли
type RoleRepository struct {
	*base.Repository
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{Repository: base.NewRepository(pool)}
}

// Resolve собирает Caller для аутентифицированного пользователя
func (r *RoleRepository) Resolve(ctx context.Context, userID uuid.UUID) (model.Caller, error) {
	query := `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return model.Caller{}, fmt.Errorf("get user roles: %w", err)
	}

	roles, err := pgx.CollectRows(rows, pgx.RowTo[model.Role])
	if err != nil {
		return model.Caller{}, fmt.Errorf("scan user roles: %w", err)
	}

	return model.Caller{ID: userID, Roles: roles}, nil
}

// Grant выдаёт роль (повторная выдача игнорируется)
func (r *RoleRepository) Grant(ctx context.Context, userID uuid.UUID, role model.Role) error {
	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`

	if _, err := r.ExecAffected(ctx, query, userID, string(role)); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

// Revoke отзывает роль
func (r *RoleRepository) Revoke(ctx context.Context, userID uuid.UUID, role model.Role) error {
	query := `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`

	if _, err := r.ExecAffected(ctx, query, userID, string(role)); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}
