package port

import (
	"context"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
)

// ScreenAuthRepository reads screen authorization entries.
type ScreenAuthRepository interface {
	// FindActiveEntries returns entries for the given roles where both the
	// permitted and active flags are true. An empty or unmatched role set
	// yields an empty slice, never an error.
	FindActiveEntries(ctx context.Context, roleCodes []string) ([]domain.ScreenAuthorization, error)
}
