package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/usecase"
)

// LoginHandler exposes the login resolution and lockout endpoints.
type LoginHandler struct {
	login *usecase.LoginService
}

// NewLoginHandler constructs LoginHandler.
func NewLoginHandler(login *usecase.LoginService) *LoginHandler {
	return &LoginHandler{login: login}
}

// RegisterRoutes binds the login service routes.
func (h *LoginHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/login-modes", h.loginModes)
	r.GET("/users/:id", h.userDetail)
	r.PUT("/users/:id/login-params", h.updateLoginParams)
	r.GET("/centers/:id", h.centerDetail)
	r.GET("/screens", h.screenAuthorizations)
}

func (h *LoginHandler) loginModes(c *gin.Context) {
	processID := strings.TrimSpace(c.Query("process_id"))
	roles := splitRoles(c.Query("roles"))

	modes, err := h.login.GetModesOfLogin(c.Request.Context(), processID, roles)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "process_id is required"},
		}, http.StatusInternalServerError, "failed to resolve login modes")
		return
	}

	c.JSON(http.StatusOK, LoginModesResponse{ProcessID: processID, Modes: modes})
}

func (h *LoginHandler) userDetail(c *gin.Context) {
	dto, err := h.login.GetUserDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "user id is required"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to resolve user")
		return
	}

	c.JSON(http.StatusOK, newUserDetailResponse(dto))
}

func (h *LoginHandler) updateLoginParams(c *gin.Context) {
	var req LoginParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login params payload"))
		return
	}

	dto := usecase.UserDTO{
		ID:                     c.Param("id"),
		UnsuccessfulLoginCount: req.UnsuccessfulLoginCount,
		LastLoginMethod:        strings.TrimSpace(req.LastLoginMethod),
		LastLoginAt:            req.LastLoginAt,
	}

	if err := h.login.UpdateLoginParams(c.Request.Context(), dto); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "user id is required"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrConcurrentUpdate, Status: http.StatusConflict, Message: "login params update conflicted, retry"},
		}, http.StatusInternalServerError, "failed to update login params")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *LoginHandler) centerDetail(c *gin.Context) {
	dto, err := h.login.GetRegistrationCenterDetails(c.Request.Context(), c.Param("id"), c.Query("lang"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "center id and lang are required"},
			{Err: usecase.ErrCenterNotFound, Status: http.StatusNotFound, Message: "registration center not found"},
		}, http.StatusInternalServerError, "failed to resolve registration center")
		return
	}

	c.JSON(http.StatusOK, newCenterResponse(dto))
}

func (h *LoginHandler) screenAuthorizations(c *gin.Context) {
	roles := splitRoles(c.Query("roles"))

	dto, err := h.login.GetScreenAuthorizationDetails(c.Request.Context(), roles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to resolve screen authorizations"))
		return
	}

	c.JSON(http.StatusOK, ScreenAuthorizationResponse{
		RoleCodes:        dto.RoleCodes,
		PermittedScreens: dto.PermittedScreens,
	})
}

// splitRoles parses a comma-separated role list from a query parameter.
func splitRoles(raw string) []string {
	parts := strings.Split(raw, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}
