package port

import (
	"context"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
)

// UserRepository exposes persistence behavior for user profiles.
type UserRepository interface {
	// FindActiveUser resolves an active user by id, matched case-insensitively.
	// Returns repository.ErrNotFound when no active record matches.
	FindActiveUser(ctx context.Context, id string) (*domain.UserProfile, error)

	// PersistProfile writes the profile's lockout counters back to the store.
	// The write is conditional on profile.Version matching the stored row;
	// repository.ErrConflict signals a concurrent update won the race.
	PersistProfile(ctx context.Context, profile domain.UserProfile) error
}
