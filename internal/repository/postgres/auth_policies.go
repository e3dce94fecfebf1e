package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
)

// AuthPolicyRepository implements port.AuthPolicyRepository using PostgreSQL.
type AuthPolicyRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuthPolicyRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAuthPolicyRepository(exec pgExecutor) *AuthPolicyRepository {
	return &AuthPolicyRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindActiveEntries returns active policy entries for the process and roles,
// ordered by sequence rank with role code as the deterministic tie-breaker.
func (r *AuthPolicyRepository) FindActiveEntries(ctx context.Context, processID string, roleCodes []string) ([]domain.AuthMethodPolicyEntry, error) {
	if len(roleCodes) == 0 {
		return []domain.AuthMethodPolicyEntry{}, nil
	}

	stmt, args, err := r.builder.
		Select("process_id", "role_code", "auth_method_code", "method_seq", "is_active").
		From("reg.app_authentication_method").
		Where(squirrel.Eq{"process_id": processID}).
		Where(squirrel.Eq{"role_code": roleCodes}).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("method_seq ASC", "role_code ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select auth policies sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query auth policies: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuthMethodPolicyEntry, 0)
	for rows.Next() {
		var entry domain.AuthMethodPolicyEntry
		if err := rows.Scan(
			&entry.ProcessID,
			&entry.RoleCode,
			&entry.MethodCode,
			&entry.Sequence,
			&entry.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan auth policy: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate auth policies: %w", err)
	}

	return entries, nil
}

var _ port.AuthPolicyRepository = (*AuthPolicyRepository)(nil)
