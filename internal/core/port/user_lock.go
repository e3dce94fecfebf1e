package port

import "context"

// UserLocker serializes outcome recordings for a single user id across
// service instances. Locks for different users never contend. Acquire blocks
// until the lease is granted or ctx is done; the returned release function
// must be called when the read-modify-write completes.
type UserLocker interface {
	Acquire(ctx context.Context, userID string) (release func(), err error)
}
