package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/usecase"
)

// ErrorResponse represents a generic error payload with request ID for debugging.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response with the request ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	requestID, _ := c.Get("request_id")
	requestIDStr, _ := requestID.(string)

	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestIDStr,
	}
}

// LoginModesResponse lists the permitted authentication method codes in
// resolution order.
type LoginModesResponse struct {
	ProcessID string   `json:"process_id"`
	Modes     []string `json:"modes"`
}

// UserDetailResponse describes the lockout-relevant view of a user.
type UserDetailResponse struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	UnsuccessfulLoginCount int        `json:"unsuccessful_login_count"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`
	LastLoginMethod        string     `json:"last_login_method,omitempty"`
	LockedUntil            *time.Time `json:"locked_until,omitempty"`
}

// CenterResponse carries registration center details for one language.
type CenterResponse struct {
	ID              string `json:"id"`
	LangCode        string `json:"lang_code"`
	Name            string `json:"name"`
	AddressLine1    string `json:"address_line1,omitempty"`
	AddressLine2    string `json:"address_line2,omitempty"`
	AddressLine3    string `json:"address_line3,omitempty"`
	ContactPhone    string `json:"contact_phone,omitempty"`
	CenterStartTime string `json:"center_start_time,omitempty"`
	CenterEndTime   string `json:"center_end_time,omitempty"`
	LunchStartTime  string `json:"lunch_start_time,omitempty"`
	LunchEndTime    string `json:"lunch_end_time,omitempty"`
}

// ScreenAuthorizationResponse is the union of screens granted to a role set.
type ScreenAuthorizationResponse struct {
	RoleCodes        []string `json:"role_codes"`
	PermittedScreens []string `json:"permitted_screens"`
}

// LoginParamsRequest reports a login attempt's outcome for a user. A zero
// unsuccessful count marks the attempt successful; a non-zero count marks it
// failed.
type LoginParamsRequest struct {
	UnsuccessfulLoginCount int        `json:"unsuccessful_login_count"`
	LastLoginMethod        string     `json:"last_login_method"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`
}

// PacketUploadResponse is the receipt returned for a stored packet.
type PacketUploadResponse struct {
	FileName string    `json:"file_name"`
	Size     int64     `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newUserDetailResponse(dto usecase.UserDTO) UserDetailResponse {
	return UserDetailResponse{
		ID:                     dto.ID,
		Name:                   dto.Name,
		UnsuccessfulLoginCount: dto.UnsuccessfulLoginCount,
		LastLoginAt:            dto.LastLoginAt,
		LastLoginMethod:        dto.LastLoginMethod,
		LockedUntil:            dto.LockedUntil,
	}
}

func newCenterResponse(dto usecase.RegistrationCenterDTO) CenterResponse {
	return CenterResponse{
		ID:              dto.ID,
		LangCode:        dto.LangCode,
		Name:            dto.Name,
		AddressLine1:    dto.AddressLine1,
		AddressLine2:    dto.AddressLine2,
		AddressLine3:    dto.AddressLine3,
		ContactPhone:    dto.ContactPhone,
		CenterStartTime: dto.CenterStartTime,
		CenterEndTime:   dto.CenterEndTime,
		LunchStartTime:  dto.LunchStartTime,
		LunchEndTime:    dto.LunchEndTime,
	}
}
