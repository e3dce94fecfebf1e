package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/repository"
)

// CenterRepository implements port.CenterRepository using PostgreSQL.
type CenterRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCenterRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewCenterRepository(exec pgExecutor) *CenterRepository {
	return &CenterRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindActiveCenter resolves an active registration center by id and language code.
func (r *CenterRepository) FindActiveCenter(ctx context.Context, centerID, langCode string) (*domain.RegistrationCenter, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"lang_code",
			"name",
			"addr_line1",
			"addr_line2",
			"addr_line3",
			"contact_phone",
			"center_start_time",
			"center_end_time",
			"lunch_start_time",
			"lunch_end_time",
			"is_active",
		).
		From("reg.registration_center").
		Where(squirrel.Eq{"id": centerID}).
		Where(squirrel.Eq{"lang_code": langCode}).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select center sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		center       domain.RegistrationCenter
		addr2        sql.NullString
		addr3        sql.NullString
		contactPhone sql.NullString
	)

	if err := row.Scan(
		&center.ID,
		&center.LangCode,
		&center.Name,
		&center.AddressLine1,
		&addr2,
		&addr3,
		&contactPhone,
		&center.CenterStartTime,
		&center.CenterEndTime,
		&center.LunchStartTime,
		&center.LunchEndTime,
		&center.IsActive,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan center: %w", err)
	}

	if addr2.Valid {
		center.AddressLine2 = addr2.String
	}
	if addr3.Valid {
		center.AddressLine3 = addr3.String
	}
	if contactPhone.Valid {
		val := contactPhone.String
		center.ContactPhone = &val
	}

	return &center, nil
}

var _ port.CenterRepository = (*CenterRepository)(nil)
