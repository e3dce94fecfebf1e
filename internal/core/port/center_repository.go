package port

import (
	"context"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
)

// CenterRepository reads registration center reference data.
type CenterRepository interface {
	// FindActiveCenter resolves an active center by id and language code,
	// both matched by strict equality. Returns repository.ErrNotFound
	// when absent.
	FindActiveCenter(ctx context.Context, centerID, langCode string) (*domain.RegistrationCenter, error)
}
