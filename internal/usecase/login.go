package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/repository"
)

var (
	// ErrInvalidInput indicates a malformed or empty required parameter.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound is returned when no active user matches the supplied id.
	ErrUserNotFound = errors.New("user not found")
	// ErrCenterNotFound is returned when no active center matches the supplied keys.
	ErrCenterNotFound = errors.New("registration center not found")
)

// UserDTO is the flat, serialization-agnostic view of a user profile exposed
// to callers. It is the single canonical value type for the entity; mapping
// to and from domain.UserProfile happens only at this boundary.
type UserDTO struct {
	ID                     string
	Name                   string
	UnsuccessfulLoginCount int
	LastLoginAt            *time.Time
	LastLoginMethod        string
	LockedUntil            *time.Time
}

// RegistrationCenterDTO carries center descriptive details for one language.
type RegistrationCenterDTO struct {
	ID              string
	LangCode        string
	Name            string
	AddressLine1    string
	AddressLine2    string
	AddressLine3    string
	ContactPhone    string
	CenterStartTime string
	CenterEndTime   string
	LunchStartTime  string
	LunchEndTime    string
}

// AuthorizationDTO is the derived permission view for a set of roles.
type AuthorizationDTO struct {
	RoleCodes        []string
	PermittedScreens []string
}

// LoginService composes the directory, policy, center, and screen resolvers
// with the outcome recorder into the operations external callers invoke. It
// performs parameter validation and error translation only, and never caches
// resolver results between calls.
type LoginService struct {
	users    port.UserRepository
	policies port.AuthPolicyRepository
	centers  port.CenterRepository
	screens  port.ScreenAuthRepository
	recorder *OutcomeRecorder
	audit    port.AuditPublisher
	logger   *zap.Logger
}

// NewLoginService constructs a LoginService with explicit dependencies.
func NewLoginService(
	users port.UserRepository,
	policies port.AuthPolicyRepository,
	centers port.CenterRepository,
	screens port.ScreenAuthRepository,
	recorder *OutcomeRecorder,
	audit port.AuditPublisher,
	logger *zap.Logger,
) *LoginService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginService{
		users:    users,
		policies: policies,
		centers:  centers,
		screens:  screens,
		recorder: recorder,
		audit:    audit,
		logger:   logger,
	}
}

// GetModesOfLogin resolves the ordered list of permitted authentication
// method codes for a process and role set. Duplicate method codes across
// roles are removed, first occurrence wins. An empty result signals "no
// method available" and is rendered by callers as access denial, not as an
// error.
func (s *LoginService) GetModesOfLogin(ctx context.Context, processID string, roleCodes []string) ([]string, error) {
	processID = strings.TrimSpace(processID)
	if processID == "" {
		return nil, fmt.Errorf("%w: process id is required", ErrInvalidInput)
	}

	roles := normalizeRoles(roleCodes)
	if len(roles) == 0 {
		return []string{}, nil
	}

	entries, err := s.policies.FindActiveEntries(ctx, processID, roles)
	if err != nil {
		return nil, fmt.Errorf("resolve login methods: %w", err)
	}

	modes := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.MethodCode]; ok {
			continue
		}
		seen[entry.MethodCode] = struct{}{}
		modes = append(modes, entry.MethodCode)
	}

	s.auditEvent(ctx, domain.AuditLoginModesFetch, strings.Join(roles, ","),
		fmt.Sprintf("resolved %d login modes for process %s", len(modes), processID))

	return modes, nil
}

// GetUserDetail resolves an active user profile by id.
func (s *LoginService) GetUserDetail(ctx context.Context, userID string) (UserDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserDTO{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	profile, err := s.users.FindActiveUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return UserDTO{}, ErrUserNotFound
		}
		return UserDTO{}, fmt.Errorf("resolve user: %w", err)
	}

	s.auditEvent(ctx, domain.AuditUserDetailFetch, profile.ID, "fetched user detail")

	return toUserDTO(*profile), nil
}

// GetRegistrationCenterDetails resolves an active center by id and language.
func (s *LoginService) GetRegistrationCenterDetails(ctx context.Context, centerID, langCode string) (RegistrationCenterDTO, error) {
	centerID = strings.TrimSpace(centerID)
	langCode = strings.TrimSpace(langCode)
	if centerID == "" || langCode == "" {
		return RegistrationCenterDTO{}, fmt.Errorf("%w: center id and language code are required", ErrInvalidInput)
	}

	center, err := s.centers.FindActiveCenter(ctx, centerID, langCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RegistrationCenterDTO{}, ErrCenterNotFound
		}
		return RegistrationCenterDTO{}, fmt.Errorf("resolve center: %w", err)
	}

	s.auditEvent(ctx, domain.AuditCenterDetailFetch, centerID, "fetched registration center details")

	return toCenterDTO(*center), nil
}

// GetScreenAuthorizationDetails resolves the union of screens the supplied
// roles may access. An empty or unmatched role set yields an empty grant,
// never an error.
func (s *LoginService) GetScreenAuthorizationDetails(ctx context.Context, roleCodes []string) (AuthorizationDTO, error) {
	roles := normalizeRoles(roleCodes)
	if len(roles) == 0 {
		return AuthorizationDTO{RoleCodes: []string{}, PermittedScreens: []string{}}, nil
	}

	entries, err := s.screens.FindActiveEntries(ctx, roles)
	if err != nil {
		return AuthorizationDTO{}, fmt.Errorf("resolve screen authorizations: %w", err)
	}

	screens := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if !entry.IsPermitted || !entry.IsActive {
			continue
		}
		if _, ok := seen[entry.ScreenID]; ok {
			continue
		}
		seen[entry.ScreenID] = struct{}{}
		screens = append(screens, entry.ScreenID)
	}
	sort.Strings(screens)

	s.auditEvent(ctx, domain.AuditScreenAuthFetch, strings.Join(roles, ","),
		fmt.Sprintf("resolved %d permitted screens", len(screens)))

	return AuthorizationDTO{RoleCodes: roles, PermittedScreens: screens}, nil
}

// RecordLoginOutcome applies a login attempt's outcome to the user's lockout
// counters through the recorder and returns the updated profile view.
func (s *LoginService) RecordLoginOutcome(ctx context.Context, outcome domain.LoginAttemptOutcome) (UserDTO, error) {
	if s.recorder == nil {
		return UserDTO{}, errors.New("outcome recorder is not configured")
	}

	profile, err := s.recorder.RecordOutcome(ctx, outcome)
	if err != nil {
		return UserDTO{}, err
	}

	return toUserDTO(*profile), nil
}

// UpdateLoginParams is the compatibility entry point taking a UserDTO. The
// attempt is treated as successful when the supplied counter is zero, which
// matches how existing clients report outcomes: zero on success, incremented
// on failure. The actual state transition always runs through the recorder.
func (s *LoginService) UpdateLoginParams(ctx context.Context, dto UserDTO) error {
	id := strings.TrimSpace(dto.ID)
	if id == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	outcome := domain.LoginAttemptOutcome{
		UserID:     id,
		Succeeded:  dto.UnsuccessfulLoginCount == 0,
		MethodCode: dto.LastLoginMethod,
	}
	if dto.LastLoginAt != nil {
		outcome.At = *dto.LastLoginAt
	}

	if _, err := s.RecordLoginOutcome(ctx, outcome); err != nil {
		return err
	}

	return nil
}

// auditEvent emits a best-effort audit notification. Failures are logged and
// never alter the primary result.
func (s *LoginService) auditEvent(ctx context.Context, kind domain.AuditEventKind, actorID, detail string) {
	if s.audit == nil {
		return
	}

	event := domain.AuditEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Component: domain.ComponentLoginService,
		ActorID:   actorID,
		Detail:    detail,
		At:        time.Now().UTC(),
	}

	if err := s.audit.PublishAuditEvent(ctx, event); err != nil {
		s.logger.Warn("audit publish failed",
			zap.String("event_kind", string(kind)),
			zap.Error(err),
		)
	}
}

// normalizeRoles trims, deduplicates, and sorts role codes so resolution
// order is deterministic regardless of the collection the caller passes.
func normalizeRoles(roleCodes []string) []string {
	roles := make([]string, 0, len(roleCodes))
	seen := make(map[string]struct{}, len(roleCodes))
	for _, role := range roleCodes {
		trimmed := strings.TrimSpace(role)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		roles = append(roles, trimmed)
	}
	sort.Strings(roles)
	return roles
}

func toUserDTO(profile domain.UserProfile) UserDTO {
	return UserDTO{
		ID:                     profile.ID,
		Name:                   profile.Name,
		UnsuccessfulLoginCount: profile.UnsuccessfulLoginCount,
		LastLoginAt:            profile.LastLoginAt,
		LastLoginMethod:        profile.LastLoginMethod,
		LockedUntil:            profile.LockedUntil,
	}
}

func toCenterDTO(center domain.RegistrationCenter) RegistrationCenterDTO {
	dto := RegistrationCenterDTO{
		ID:              center.ID,
		LangCode:        center.LangCode,
		Name:            center.Name,
		AddressLine1:    center.AddressLine1,
		AddressLine2:    center.AddressLine2,
		AddressLine3:    center.AddressLine3,
		CenterStartTime: center.CenterStartTime,
		CenterEndTime:   center.CenterEndTime,
		LunchStartTime:  center.LunchStartTime,
		LunchEndTime:    center.LunchEndTime,
	}
	if center.ContactPhone != nil {
		dto.ContactPhone = *center.ContactPhone
	}
	return dto
}
