package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/repository"
)

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindActiveUser retrieves an active user by id, matched case-insensitively.
func (r *UserRepository) FindActiveUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"name",
			"is_active",
			"unsuccessful_login_count",
			"last_login_dtimes",
			"last_login_method",
			"user_lock_till_dtimes",
			"version",
		).
		From("reg.user_detail").
		Where(squirrel.Expr("LOWER(id) = LOWER(?)", id)).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		profile     domain.UserProfile
		name        sql.NullString
		lastMethod  sql.NullString
		lastLogin   *time.Time
		lockedUntil *time.Time
	)

	if err := row.Scan(
		&profile.ID,
		&name,
		&profile.IsActive,
		&profile.UnsuccessfulLoginCount,
		&lastLogin,
		&lastMethod,
		&lockedUntil,
		&profile.Version,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if name.Valid {
		profile.Name = name.String
	}
	if lastMethod.Valid {
		profile.LastLoginMethod = lastMethod.String
	}
	profile.LastLoginAt = lastLogin
	profile.LockedUntil = lockedUntil

	return &profile, nil
}

// PersistProfile writes lockout counters back, conditional on the version the
// profile was read at. A lost race surfaces as repository.ErrConflict so the
// caller can re-read and retry.
func (r *UserRepository) PersistProfile(ctx context.Context, profile domain.UserProfile) error {
	var lastMethod any
	if profile.LastLoginMethod != "" {
		lastMethod = profile.LastLoginMethod
	}

	stmt, args, err := r.builder.Update("reg.user_detail").
		Set("unsuccessful_login_count", profile.UnsuccessfulLoginCount).
		Set("last_login_dtimes", profile.LastLoginAt).
		Set("last_login_method", lastMethod).
		Set("user_lock_till_dtimes", profile.LockedUntil).
		Set("version", profile.Version+1).
		Where(squirrel.Eq{"id": profile.ID}).
		Where(squirrel.Eq{"version": profile.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return r.classifyMissedWrite(ctx, profile.ID)
	}

	return nil
}

// classifyMissedWrite distinguishes a version race from a vanished row.
func (r *UserRepository) classifyMissedWrite(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Select("1").
		From("reg.user_detail").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select user existence sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return repository.ErrNotFound
		}
		return fmt.Errorf("check user existence: %w", err)
	}

	return repository.ErrConflict
}

var _ port.UserRepository = (*UserRepository)(nil)
