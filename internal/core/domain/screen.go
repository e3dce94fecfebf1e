package domain

// ScreenAuthorization grants a role access to a named UI screen or action.
// Only entries with both IsPermitted and IsActive participate in resolution.
type ScreenAuthorization struct {
	RoleCode    string
	ScreenID    string
	IsPermitted bool
	IsActive    bool
}

// AuthorizationDecision is the derived view over a set of screen
// authorizations: the union of screens any of the caller's roles grants.
type AuthorizationDecision struct {
	RoleCodes        []string
	PermittedScreens []string
}

// Permits reports whether the decision grants access to the given screen.
func (d AuthorizationDecision) Permits(screenID string) bool {
	for _, id := range d.PermittedScreens {
		if id == screenID {
			return true
		}
	}
	return false
}
