package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users        *UserRepository
	AuthPolicies *AuthPolicyRepository
	Centers      *CenterRepository
	ScreenAuth   *ScreenAuthRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:        NewUserRepository(pool),
		AuthPolicies: NewAuthPolicyRepository(pool),
		Centers:      NewCenterRepository(pool),
		ScreenAuth:   NewScreenAuthRepository(pool),
	}
}
