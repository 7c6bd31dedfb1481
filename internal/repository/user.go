package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"security_monitor/internal/domain"
	pkgerrors "security_monitor/pkg/errors"
	"security_monitor/pkg/logger"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// Suspend marks the account suspended with an automatic suspension
	// type. Returns true only for the call that actually flipped the flag,
	// so racing responders suspend at most once.
	Suspend(ctx context.Context, id uuid.UUID, reason string) (bool, error)
}

type userRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewUserRepository(db *pgxpool.Pool, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRow(ctx, `
		SELECT id, email, role, suspended, suspension_reason, suspension_type, suspended_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.Role, &user.Suspended,
		&user.SuspensionReason, &user.SuspensionType, &user.SuspendedAt,
		&user.CreatedAt, &user.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		r.log.Error("Failed to get user", "error", err, "user_id", id)
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Suspend(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET suspended = TRUE,
		    suspension_reason = $2,
		    suspension_type = $3,
		    suspended_at = now(),
		    updated_at = now()
		WHERE id = $1 AND NOT suspended
	`, id, reason, domain.SuspensionTypeAutomatic)

	if err != nil {
		r.log.Error("Failed to suspend user", "error", err, "user_id", id)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
