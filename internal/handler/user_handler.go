package handler

import (
	"gamelibrary/internal/access"
	"gamelibrary/internal/middleware"
	"gamelibrary/internal/model"
	"gamelibrary/internal/service"
	"gamelibrary/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService  service.UserService
	authService  service.AuthService
	auditService service.AuditService
	guard        *middleware.Guard
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(
	userService service.UserService,
	authService service.AuthService,
	auditService service.AuditService,
	guard *middleware.Guard,
) *UserHandler {
	return &UserHandler{userService: userService, authService: authService, auditService: auditService, guard: guard}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/api/users")
	{
		users.GET("", h.guard.Require(access.PermissionRequired(service.PermManageUsers)), h.ListUsers)
		users.GET("/me", h.guard.Require(access.Authenticated()), h.GetMe)
		users.PUT("/me/password",
			h.guard.Require(access.Authenticated()),
			middleware.LogActivity(model.ActionChangePassword, h.auditService),
			h.ChangePassword,
		)
		users.DELETE("/:id",
			h.guard.Require(access.RoleRequired(model.RoleAdmin)),
			middleware.LogActivity(model.ActionDeleteUser, h.auditService),
			h.DeleteUser,
		)
	}
}

// ListUsers returns one page of users
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Page[service.UserResponse]}
// @Failure      403    {object}  response.Response
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := pagination.Parse(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pagination.NewPage(users, total, params))
}

// GetMe returns the authenticated user with the permissions of its role
// @Summary      Get current user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.MeResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	me, err := h.userService.Me(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, me)
}

// ChangePassword replaces the caller's password
// @Summary      Change password
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ChangePasswordRequest  true  "Passwords"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/users/me/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	if err := h.authService.ChangePassword(c.Request.Context(), caller, req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "password updated"})
}

// DeleteUser removes a user with its library and reviews
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	if err := h.userService.DeleteUser(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "user deleted"})
}
