package domain

import "time"

// UserProfile mirrors the persisted representation in the user_detail table.
// Lockout counters are mutated exclusively through the outcome recorder; the
// Version column backs optimistic concurrency on that read-modify-write.
type UserProfile struct {
	ID                     string
	Name                   string
	IsActive               bool
	UnsuccessfulLoginCount int
	LastLoginAt            *time.Time
	LastLoginMethod        string
	LockedUntil            *time.Time
	Version                int64
}

// IsLocked reports whether the profile is locked out at the supplied instant.
// An absent or elapsed lockout expiry means the account is unlocked.
func (u UserProfile) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// ApplySuccess resets the lockout counters after a successful authentication.
// The reset applies regardless of prior state, so a locked-but-expired account
// that authenticates comes out fully clean.
func (u *UserProfile) ApplySuccess(method string, at time.Time) {
	u.UnsuccessfulLoginCount = 0
	u.LastLoginMethod = method
	at = at.UTC()
	u.LastLoginAt = &at
	u.LockedUntil = nil
}

// ApplyFailure increments the failure counter and, when the counter reaches
// maxFailures, sets the lockout expiry to at + lockDuration. Further failures
// while a lock is already in force do not extend the expiry.
func (u *UserProfile) ApplyFailure(at time.Time, maxFailures int, lockDuration time.Duration) {
	u.UnsuccessfulLoginCount++
	if u.IsLocked(at) {
		return
	}
	if maxFailures > 0 && u.UnsuccessfulLoginCount >= maxFailures {
		until := at.UTC().Add(lockDuration)
		u.LockedUntil = &until
	}
}
