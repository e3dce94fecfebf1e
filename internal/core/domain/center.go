package domain

// RegistrationCenter describes a registration center in one language.
// A (center id, language code) pair resolves to at most one active row.
type RegistrationCenter struct {
	ID              string
	LangCode        string
	Name            string
	AddressLine1    string
	AddressLine2    string
	AddressLine3    string
	ContactPhone    *string
	CenterStartTime string
	CenterEndTime   string
	LunchStartTime  string
	LunchEndTime    string
	IsActive        bool
}
