package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/telemetry"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/repository"
)

// maxConflictRetries bounds how often a lost optimistic-concurrency race is
// retried before the conflict surfaces to the caller.
const maxConflictRetries = 3

// ErrConcurrentUpdate is returned when outcome recording keeps losing the
// version race after the internal retry budget is exhausted.
var ErrConcurrentUpdate = errors.New("concurrent update detected")

// OutcomeRecorder applies login attempt outcomes to a user's lockout
// counters. The read-modify-write for one user is serialized through the
// locker and guarded by the repository's version check; recordings for
// different users are fully independent.
type OutcomeRecorder struct {
	users        port.UserRepository
	locks        port.UserLocker
	audit        port.AuditPublisher
	metrics      *telemetry.Provider
	logger       *zap.Logger
	maxFailures  int
	lockDuration time.Duration
	now          func() time.Time
}

// NewOutcomeRecorder constructs an OutcomeRecorder. maxFailures is the
// failure count at which the account locks; lockDuration is how long the
// lock lasts.
func NewOutcomeRecorder(
	users port.UserRepository,
	locks port.UserLocker,
	audit port.AuditPublisher,
	logger *zap.Logger,
	maxFailures int,
	lockDuration time.Duration,
) *OutcomeRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutcomeRecorder{
		users:        users,
		locks:        locks,
		audit:        audit,
		logger:       logger,
		maxFailures:  maxFailures,
		lockDuration: lockDuration,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithMetrics attaches outcome counters to the recorder.
func (r *OutcomeRecorder) WithMetrics(metrics *telemetry.Provider) *OutcomeRecorder {
	r.metrics = metrics
	return r
}

// WithClock overrides the recorder's time source.
func (r *OutcomeRecorder) WithClock(now func() time.Time) *OutcomeRecorder {
	if now != nil {
		r.now = now
	}
	return r
}

// RecordOutcome applies the outcome to the user's profile and persists it.
// On success the counter resets and any lock clears; on failure the counter
// increments and the account locks once it reaches the configured threshold.
// The write is all-or-nothing: a cancelled context leaves the profile
// unchanged.
func (r *OutcomeRecorder) RecordOutcome(ctx context.Context, outcome domain.LoginAttemptOutcome) (*domain.UserProfile, error) {
	if outcome.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	at := outcome.At
	if at.IsZero() {
		at = r.now()
	}

	if r.locks != nil {
		release, err := r.locks.Acquire(ctx, outcome.UserID)
		if err != nil {
			return nil, fmt.Errorf("acquire user lock: %w", err)
		}
		defer release()
	}

	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		profile, err := r.users.FindActiveUser(ctx, outcome.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("resolve user: %w", err)
		}

		wasLocked := profile.IsLocked(at)
		if outcome.Succeeded {
			profile.ApplySuccess(outcome.MethodCode, at)
		} else {
			profile.ApplyFailure(at, r.maxFailures, r.lockDuration)
		}

		if err := r.users.PersistProfile(ctx, *profile); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				r.logger.Debug("outcome recording lost version race, retrying",
					zap.String("user_id", profile.ID),
					zap.Int("attempt", attempt+1),
				)
				continue
			}
			return nil, fmt.Errorf("persist profile: %w", err)
		}

		profile.Version++
		r.finish(ctx, *profile, outcome, wasLocked, at)
		return profile, nil
	}

	return nil, fmt.Errorf("record outcome for user %s: %w", outcome.UserID, ErrConcurrentUpdate)
}

func (r *OutcomeRecorder) finish(ctx context.Context, profile domain.UserProfile, outcome domain.LoginAttemptOutcome, wasLocked bool, at time.Time) {
	result := "failure"
	if outcome.Succeeded {
		result = "success"
	}

	lockedNow := profile.IsLocked(at)
	if lockedNow && !wasLocked {
		result = "lockout"
		r.auditEvent(ctx, domain.AuditUserLockout, profile.ID,
			fmt.Sprintf("account locked until %s after %d unsuccessful attempts",
				profile.LockedUntil.Format(time.RFC3339), profile.UnsuccessfulLoginCount))
	}

	r.metrics.IncLoginOutcome(result)
	r.auditEvent(ctx, domain.AuditLoginParamsUpdate, profile.ID,
		fmt.Sprintf("login outcome %s recorded via %s", result, outcome.MethodCode))
}

func (r *OutcomeRecorder) auditEvent(ctx context.Context, kind domain.AuditEventKind, actorID, detail string) {
	if r.audit == nil {
		return
	}

	event := domain.AuditEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Component: domain.ComponentLoginService,
		ActorID:   actorID,
		Detail:    detail,
		At:        r.now(),
	}

	if err := r.audit.PublishAuditEvent(ctx, event); err != nil {
		r.logger.Warn("audit publish failed",
			zap.String("event_kind", string(kind)),
			zap.Error(err),
		)
	}
}
