package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/repository"
)

func TestCenterRepository_FindActiveCenter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCenterRepository(mock)

	phone := "0471-000000"
	rows := pgxmock.NewRows([]string{
		"id", "lang_code", "name", "addr_line1", "addr_line2", "addr_line3", "contact_phone",
		"center_start_time", "center_end_time", "lunch_start_time", "lunch_end_time", "is_active",
	}).AddRow(
		"10011", "eng", "Central Registration Center", "Main Street 1", "Block B", nil, &phone,
		"09:00:00", "17:00:00", "13:00:00", "14:00:00", true,
	)

	mock.ExpectQuery(`SELECT .* FROM reg\.registration_center`).
		WithArgs("10011", "eng", true).
		WillReturnRows(rows)

	center, err := repo.FindActiveCenter(context.Background(), "10011", "eng")
	if err != nil {
		t.Fatalf("FindActiveCenter returned error: %v", err)
	}
	if center.Name != "Central Registration Center" {
		t.Fatalf("unexpected center name %q", center.Name)
	}
	if center.AddressLine3 != "" {
		t.Fatalf("expected empty third address line")
	}
	if center.ContactPhone == nil || *center.ContactPhone != phone {
		t.Fatalf("expected contact phone populated")
	}
	if center.CenterStartTime != "09:00:00" || center.CenterEndTime != "17:00:00" {
		t.Fatalf("unexpected working hours %s-%s", center.CenterStartTime, center.CenterEndTime)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCenterRepository_FindActiveCenterNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCenterRepository(mock)

	mock.ExpectQuery(`SELECT .* FROM reg\.registration_center`).
		WithArgs("10011", "fra", true).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.FindActiveCenter(context.Background(), "10011", "fra")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
