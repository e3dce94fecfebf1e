package domain

import "time"

// LoginAttemptOutcome is the ephemeral input driving a profile mutation.
// It is never persisted as its own entity.
type LoginAttemptOutcome struct {
	UserID     string
	Succeeded  bool
	MethodCode string
	At         time.Time
}
