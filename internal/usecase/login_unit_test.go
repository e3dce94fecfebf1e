package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/repository"
)

type userRepoMock struct {
	profile      *domain.UserProfile
	findErr      error
	persistErr   error
	conflicts    int
	persistCalls int
	lastPersist  domain.UserProfile
}

func (m *userRepoMock) FindActiveUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.profile == nil || !m.profile.IsActive || !strings.EqualFold(m.profile.ID, id) {
		return nil, repository.ErrNotFound
	}
	copy := *m.profile
	return &copy, nil
}

func (m *userRepoMock) PersistProfile(ctx context.Context, profile domain.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.persistErr != nil {
		return m.persistErr
	}
	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrConflict
	}
	m.persistCalls++
	m.lastPersist = profile
	stored := profile
	stored.Version++
	m.profile = &stored
	return nil
}

type policyRepoMock struct {
	entries []domain.AuthMethodPolicyEntry
	err     error
	calls   int
}

func (m *policyRepoMock) FindActiveEntries(_ context.Context, _ string, _ []string) ([]domain.AuthMethodPolicyEntry, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

type centerRepoMock struct {
	center *domain.RegistrationCenter
}

func (m *centerRepoMock) FindActiveCenter(_ context.Context, centerID, langCode string) (*domain.RegistrationCenter, error) {
	if m.center == nil || m.center.ID != centerID || m.center.LangCode != langCode {
		return nil, repository.ErrNotFound
	}
	copy := *m.center
	return &copy, nil
}

type screenRepoMock struct {
	entries []domain.ScreenAuthorization
	calls   int
}

func (m *screenRepoMock) FindActiveEntries(_ context.Context, _ []string) ([]domain.ScreenAuthorization, error) {
	m.calls++
	return m.entries, nil
}

type auditStub struct {
	events []domain.AuditEvent
	err    error
}

func (a *auditStub) PublishAuditEvent(_ context.Context, event domain.AuditEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, event)
	return nil
}

func newTestLoginService(users *userRepoMock, policies *policyRepoMock, centers *centerRepoMock, screens *screenRepoMock, audit *auditStub) *LoginService {
	recorder := NewOutcomeRecorder(users, nil, audit, zap.NewNop(), 3, 15*time.Minute)
	return NewLoginService(users, policies, centers, screens, recorder, audit, zap.NewNop())
}

func TestGetModesOfLoginOrderedAndDeduplicated(t *testing.T) {
	policies := &policyRepoMock{entries: []domain.AuthMethodPolicyEntry{
		{ProcessID: "LOGIN", RoleCode: "OFFICER", MethodCode: "PWD", Sequence: 1, IsActive: true},
		{ProcessID: "LOGIN", RoleCode: "OFFICER", MethodCode: "OTP", Sequence: 2, IsActive: true},
		{ProcessID: "LOGIN", RoleCode: "SUPERVISOR", MethodCode: "PWD", Sequence: 3, IsActive: true},
	}}

	service := newTestLoginService(&userRepoMock{}, policies, &centerRepoMock{}, &screenRepoMock{}, &auditStub{})

	modes, err := service.GetModesOfLogin(context.Background(), "LOGIN", []string{"SUPERVISOR", "OFFICER"})
	if err != nil {
		t.Fatalf("GetModesOfLogin returned error: %v", err)
	}

	if len(modes) != 2 || modes[0] != "PWD" || modes[1] != "OTP" {
		t.Fatalf("expected [PWD OTP], got %v", modes)
	}
}

func TestGetModesOfLoginEmptyRoleSet(t *testing.T) {
	policies := &policyRepoMock{}
	service := newTestLoginService(&userRepoMock{}, policies, &centerRepoMock{}, &screenRepoMock{}, &auditStub{})

	modes, err := service.GetModesOfLogin(context.Background(), "LOGIN", nil)
	if err != nil {
		t.Fatalf("GetModesOfLogin returned error: %v", err)
	}
	if len(modes) != 0 {
		t.Fatalf("expected empty modes, got %v", modes)
	}
	if policies.calls != 0 {
		t.Fatalf("expected policy store not to be queried for empty role set")
	}
}

func TestGetModesOfLoginMissingProcess(t *testing.T) {
	service := newTestLoginService(&userRepoMock{}, &policyRepoMock{}, &centerRepoMock{}, &screenRepoMock{}, &auditStub{})

	if _, err := service.GetModesOfLogin(context.Background(), "  ", []string{"OFFICER"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetModesOfLoginNoMatchesIsNotAnError(t *testing.T) {
	service := newTestLoginService(&userRepoMock{}, &policyRepoMock{}, &centerRepoMock{}, &screenRepoMock{}, &auditStub{})

	modes, err := service.GetModesOfLogin(context.Background(), "LOGIN", []string{"DEFAULT"})
	if err != nil {
		t.Fatalf("GetModesOfLogin returned error: %v", err)
	}
	if len(modes) != 0 {
		t.Fatalf("expected empty modes, got %v", modes)
	}
}

func TestGetUserDetail(t *testing.T) {
	users := &userRepoMock{profile: &domain.UserProfile{
		ID:       "mosip",
		Name:     "Registration Officer",
		IsActive: true,
		Version:  1,
	}}
	audit := &auditStub{}
	service := newTestLoginService(users, &policyRepoMock{}, &centerRepoMock{}, &screenRepoMock{}, audit)

	dto, err := service.GetUserDetail(context.Background(), "MOSIP")
	if err != nil {
		t.Fatalf("GetUserDetail returned error: %v", err)
	}
	if dto.ID != "mosip" {
		t.Fatalf("expected id mosip, got %s", dto.ID)
	}
	if len(audit.events) != 1 || audit.events[0].Kind != domain.AuditUserDetailFetch {
		t.Fatalf("expected one user detail fetch audit event")
	}
}

func TestGetUserDetailNotFound(t *testing.T) {
	service := newTestLoginService(&userRepoMock{}, &policyRepoMock{}, &centerRepoMock{}, &screenRepoMock{}, &auditStub{})

	if _, err := service.GetUserDetail(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetRegistrationCenterDetails(t *testing.T) {
	phone := "0471-000000"
	centers := &centerRepoMock{center: &domain.RegistrationCenter{
		ID:              "10011",
		LangCode:        "eng",
		Name:            "Central Registration Center",
		AddressLine1:    "Main Street 1",
		ContactPhone:    &phone,
		CenterStartTime: "09:00:00",
		CenterEndTime:   "17:00:00",
		IsActive:        true,
	}}
	service := newTestLoginService(&userRepoMock{}, &policyRepoMock{}, centers, &screenRepoMock{}, &auditStub{})

	dto, err := service.GetRegistrationCenterDetails(context.Background(), "10011", "eng")
	if err != nil {
		t.Fatalf("GetRegistrationCenterDetails returned error: %v", err)
	}
	if dto.Name != "Central Registration Center" || dto.ContactPhone != phone {
		t.Fatalf("unexpected center dto %+v", dto)
	}

	if _, err := service.GetRegistrationCenterDetails(context.Background(), "10011", "fra"); !errors.Is(err, ErrCenterNotFound) {
		t.Fatalf("expected ErrCenterNotFound for missing language, got %v", err)
	}
}

func TestGetScreenAuthorizationDetailsUnion(t *testing.T) {
	screens := &screenRepoMock{entries: []domain.ScreenAuthorization{
		{RoleCode: "OFFICER", ScreenID: "registration", IsPermitted: true, IsActive: true},
		{RoleCode: "SUPERVISOR", ScreenID: "approval", IsPermitted: true, IsActive: true},
		{RoleCode: "SUPERVISOR", ScreenID: "registration", IsPermitted: true, IsActive: true},
	}}
	service := newTestLoginService(&userRepoMock{}, &policyRepoMock{}, &centerRepoMock{}, screens, &auditStub{})

	dto, err := service.GetScreenAuthorizationDetails(context.Background(), []string{"OFFICER", "SUPERVISOR"})
	if err != nil {
		t.Fatalf("GetScreenAuthorizationDetails returned error: %v", err)
	}
	if len(dto.PermittedScreens) != 2 {
		t.Fatalf("expected union of 2 screens, got %v", dto.PermittedScreens)
	}
	if dto.PermittedScreens[0] != "approval" || dto.PermittedScreens[1] != "registration" {
		t.Fatalf("expected sorted screen ids, got %v", dto.PermittedScreens)
	}
}

func TestGetScreenAuthorizationDetailsEmptyRoles(t *testing.T) {
	screens := &screenRepoMock{}
	service := newTestLoginService(&userRepoMock{}, &policyRepoMock{}, &centerRepoMock{}, screens, &auditStub{})

	dto, err := service.GetScreenAuthorizationDetails(context.Background(), []string{})
	if err != nil {
		t.Fatalf("expected empty role set to be a normal empty result, got %v", err)
	}
	if len(dto.PermittedScreens) != 0 {
		t.Fatalf("expected no implicit grant, got %v", dto.PermittedScreens)
	}
	if screens.calls != 0 {
		t.Fatalf("expected screen store not to be queried for empty role set")
	}
}

func TestUpdateLoginParamsSuccessOutcome(t *testing.T) {
	users := &userRepoMock{profile: &domain.UserProfile{
		ID:                     "mosip",
		IsActive:               true,
		UnsuccessfulLoginCount: 2,
		Version:                1,
	}}
	service := newTestLoginService(users, &policyRepoMock{}, &centerRepoMock{}, &screenRepoMock{}, &auditStub{})

	now := time.Now().UTC()
	err := service.UpdateLoginParams(context.Background(), UserDTO{
		ID:                     "mosip",
		UnsuccessfulLoginCount: 0,
		LastLoginMethod:        "PWD",
		LastLoginAt:            &now,
	})
	if err != nil {
		t.Fatalf("UpdateLoginParams returned error: %v", err)
	}

	if users.lastPersist.UnsuccessfulLoginCount != 0 {
		t.Fatalf("expected counter reset, got %d", users.lastPersist.UnsuccessfulLoginCount)
	}
	if users.lastPersist.LastLoginMethod != "PWD" {
		t.Fatalf("expected last login method PWD, got %s", users.lastPersist.LastLoginMethod)
	}
	if users.lastPersist.LockedUntil != nil {
		t.Fatalf("expected lockout expiry cleared")
	}
}

func TestUpdateLoginParamsFailureOutcome(t *testing.T) {
	users := &userRepoMock{profile: &domain.UserProfile{
		ID:       "mosip",
		IsActive: true,
		Version:  1,
	}}
	service := newTestLoginService(users, &policyRepoMock{}, &centerRepoMock{}, &screenRepoMock{}, &auditStub{})

	err := service.UpdateLoginParams(context.Background(), UserDTO{
		ID:                     "mosip",
		UnsuccessfulLoginCount: 1,
		LastLoginMethod:        "PWD",
	})
	if err != nil {
		t.Fatalf("UpdateLoginParams returned error: %v", err)
	}

	if users.lastPersist.UnsuccessfulLoginCount != 1 {
		t.Fatalf("expected counter 1, got %d", users.lastPersist.UnsuccessfulLoginCount)
	}
	if users.lastPersist.LockedUntil != nil {
		t.Fatalf("expected no lockout below threshold")
	}
}

func TestAuditFailureDoesNotAlterResult(t *testing.T) {
	policies := &policyRepoMock{entries: []domain.AuthMethodPolicyEntry{
		{ProcessID: "LOGIN", RoleCode: "OFFICER", MethodCode: "PWD", Sequence: 1, IsActive: true},
	}}
	audit := &auditStub{err: errors.New("broker unavailable")}
	service := newTestLoginService(&userRepoMock{}, policies, &centerRepoMock{}, &screenRepoMock{}, audit)

	modes, err := service.GetModesOfLogin(context.Background(), "LOGIN", []string{"OFFICER"})
	if err != nil {
		t.Fatalf("expected audit failure to be swallowed, got %v", err)
	}
	if len(modes) != 1 || modes[0] != "PWD" {
		t.Fatalf("expected [PWD], got %v", modes)
	}
}
