package handler

import (
	"gamelibrary/internal/access"
	"gamelibrary/internal/middleware"
	"gamelibrary/internal/model"
	"gamelibrary/internal/service"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService  service.RoleService
	auditService service.AuditService
	guard        *middleware.Guard
}

func NewRoleHandler(roleService service.RoleService, auditService service.AuditService, guard *middleware.Guard) *RoleHandler {
	return &RoleHandler{roleService: roleService, auditService: auditService, guard: guard}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	viewRoles := middleware.Authorize(access.AnyPermissionRequired(
		service.PermManageRoles, service.PermCreateRole, service.PermEditRole, service.PermDeleteRole,
	))
	manageRoles := middleware.Authorize(access.PermissionRequired(service.PermManageRoles))
	ownerOrAdmin := middleware.Authorize(access.OwnerOrAdmin(access.Param("userId")))

	roles := router.Group("/api/roles")
	roles.Use(h.guard.Authenticate())
	{
		roles.GET("", viewRoles, h.ListRoles)
		roles.POST("",
			middleware.Authorize(access.PermissionRequired(service.PermCreateRole)),
			middleware.LogActivity(model.ActionCreateRole, h.auditService),
			h.CreateRole,
		)

		roles.GET("/permissions", manageRoles, h.ListPermissions)
		roles.POST("/permissions",
			manageRoles,
			middleware.LogActivity(model.ActionCreatePermission, h.auditService),
			h.CreatePermission,
		)

		roles.GET("/user/:userId/permissions", ownerOrAdmin, h.GetUserPermissions)
		roles.GET("/user/:userId/permission/:name", ownerOrAdmin, h.UserHasPermission)
		roles.PUT("/user/:userId/role",
			middleware.Authorize(access.RoleRequired(model.RoleAdmin)),
			middleware.LogActivity(model.ActionUpdateUserRole, h.auditService),
			h.UpdateUserRole,
		)

		roles.GET("/:id", viewRoles, h.GetRole)
		roles.PUT("/:id",
			middleware.Authorize(access.PermissionRequired(service.PermEditRole)),
			middleware.LogActivity(model.ActionUpdateRole, h.auditService),
			h.UpdateRole,
		)
		roles.DELETE("/:id",
			middleware.Authorize(access.PermissionRequired(service.PermDeleteRole)),
			middleware.LogActivity(model.ActionDeleteRole, h.auditService),
			h.DeleteRole,
		)
		roles.GET("/:id/with-permissions", manageRoles, h.GetRoleWithPermissions)
		roles.GET("/:id/permissions", manageRoles, h.GetPermissionsByRole)
		roles.POST("/:id/permissions",
			manageRoles,
			middleware.LogActivity(model.ActionAssignPermissions, h.auditService),
			h.AssignPermissions,
		)
	}
}

// ListRoles returns all roles ordered by name
// @Summary      List roles
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Failure      403  {object}  response.Response
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, roles)
}

// GetRole returns a single role by ID
// @Summary      Get role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

// GetRoleWithPermissions returns a role with its permission set
// @Summary      Get role with permissions
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id}/with-permissions [get]
func (h *RoleHandler) GetRoleWithPermissions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	role, err := h.roleService.GetRoleWithPermissions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

// CreateRole creates a role, optionally with permissions
// @Summary      Create role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRoleRequest  true  "Role"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, role)
}

// UpdateRole renames a role or changes its description
// @Summary      Update role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Role"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

// DeleteRole deletes a role that no user holds
// @Summary      Delete role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "role deleted"})
}

// ListPermissions returns every permission ordered by name
// @Summary      List permissions
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /api/roles/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, perms)
}

// CreatePermission adds a permission name
// @Summary      Create permission
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePermissionRequest  true  "Permission"
// @Success      201      {object}  response.Response{data=service.PermissionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/roles/permissions [post]
func (h *RoleHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}

	perm, err := h.roleService.CreatePermission(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, perm)
}

// GetPermissionsByRole lists the permissions a role holds
// @Summary      Role permissions
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /api/roles/{id}/permissions [get]
func (h *RoleHandler) GetPermissionsByRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	perms, err := h.roleService.GetPermissionsByRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, perms)
}

// AssignPermissions replaces the permission set of a role
// @Summary      Assign permissions
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                               true  "Role ID"
// @Param        payload  body      service.AssignPermissionsRequest  true  "Permission IDs"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/roles/{id}/permissions [post]
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.AssignPermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.AssignPermissions(c.Request.Context(), id, req.PermissionIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

// GetUserPermissions lists the permissions granted to a user through the role
// @Summary      User permissions
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        userId  path      int  true  "User ID"
// @Success      200     {object}  response.Response{data=[]service.PermissionResponse}
// @Failure      403     {object}  response.Response
// @Router       /api/roles/user/{userId}/permissions [get]
func (h *RoleHandler) GetUserPermissions(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	perms, err := h.roleService.GetUserPermissions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, perms)
}

// UserHasPermission reports whether a user holds one permission
// @Summary      Check user permission
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        userId  path      int     true  "User ID"
// @Param        name    path      string  true  "Permission name"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/roles/user/{userId}/permission/{name} [get]
func (h *RoleHandler) UserHasPermission(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	name := c.Param("name")

	has, err := h.roleService.UserHasPermission(c.Request.Context(), userID, name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"permission": name, "has_permission": has})
}

// UpdateUserRole moves a user to another role
// @Summary      Change user role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        userId   path      int                            true  "User ID"
// @Param        payload  body      service.UpdateUserRoleRequest  true  "Role"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/roles/user/{userId}/role [put]
func (h *RoleHandler) UpdateUserRole(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req service.UpdateUserRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.roleService.UpdateUserRole(c.Request.Context(), userID, req.RoleID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "user role updated"})
}
