package port

import (
	"context"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
)

// AuthPolicyRepository reads authentication method policy entries from the
// external policy store.
type AuthPolicyRepository interface {
	// FindActiveEntries returns all active entries for the process whose role
	// code is a member of roleCodes, ordered by ascending sequence rank with
	// role code as the secondary sort key. An empty result is not an error.
	FindActiveEntries(ctx context.Context, processID string, roleCodes []string) ([]domain.AuthMethodPolicyEntry, error)
}
