package domain

// AuthMethodPolicyEntry maps a (process id, role code) pair to a single
// authentication method code with its resolution rank. Policy entries are
// owned by an external policy store and read-only to this service.
type AuthMethodPolicyEntry struct {
	ProcessID  string
	RoleCode   string
	MethodCode string
	Sequence   int
	IsActive   bool
}
