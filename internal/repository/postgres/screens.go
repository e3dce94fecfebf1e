package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
)

// ScreenAuthRepository implements port.ScreenAuthRepository using PostgreSQL.
type ScreenAuthRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewScreenAuthRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewScreenAuthRepository(exec pgExecutor) *ScreenAuthRepository {
	return &ScreenAuthRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindActiveEntries returns screen authorizations for the given roles where
// both the permitted and active flags are set.
func (r *ScreenAuthRepository) FindActiveEntries(ctx context.Context, roleCodes []string) ([]domain.ScreenAuthorization, error) {
	if len(roleCodes) == 0 {
		return []domain.ScreenAuthorization{}, nil
	}

	stmt, args, err := r.builder.
		Select("role_code", "screen_id", "is_permitted", "is_active").
		From("reg.screen_authorization").
		Where(squirrel.Eq{"role_code": roleCodes}).
		Where(squirrel.Eq{"is_permitted": true}).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("screen_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select screen authorizations sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query screen authorizations: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ScreenAuthorization, 0)
	for rows.Next() {
		var entry domain.ScreenAuthorization
		if err := rows.Scan(
			&entry.RoleCode,
			&entry.ScreenID,
			&entry.IsPermitted,
			&entry.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan screen authorization: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screen authorizations: %w", err)
	}

	return entries, nil
}

var _ port.ScreenAuthRepository = (*ScreenAuthRepository)(nil)
