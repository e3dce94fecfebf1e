package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"
)

func TestAuthPolicyRepository_FindActiveEntries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAuthPolicyRepository(mock)

	rows := pgxmock.NewRows([]string{
		"process_id", "role_code", "auth_method_code", "method_seq", "is_active",
	}).
		AddRow("LOGIN", "OFFICER", "PWD", 1, true).
		AddRow("LOGIN", "OFFICER", "OTP", 2, true)

	mock.ExpectQuery(`SELECT .* FROM reg\.app_authentication_method`).
		WithArgs("LOGIN", "OFFICER", true, true).
		WillReturnRows(rows)

	entries, err := repo.FindActiveEntries(context.Background(), "LOGIN", []string{"OFFICER"})
	if err != nil {
		t.Fatalf("FindActiveEntries returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].MethodCode != "PWD" || entries[1].MethodCode != "OTP" {
		t.Fatalf("expected [PWD OTP], got [%s %s]", entries[0].MethodCode, entries[1].MethodCode)
	}
	if entries[0].Sequence != 1 || entries[1].Sequence != 2 {
		t.Fatalf("expected ascending sequence ranks")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthPolicyRepository_EmptyRoleSetSkipsQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAuthPolicyRepository(mock)

	entries, err := repo.FindActiveEntries(context.Background(), "LOGIN", nil)
	if err != nil {
		t.Fatalf("FindActiveEntries returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty result for empty role set, got %d entries", len(entries))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected store access: %v", err)
	}
}
