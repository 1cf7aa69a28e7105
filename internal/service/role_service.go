package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gamelibrary/internal/apperror"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"

	"gorm.io/gorm"
)

// Permission names checked by route requirements.
const (
	PermCreateReview  = "create_review"
	PermEditReview    = "edit_review"
	PermDeleteReview  = "delete_review"
	PermManageLibrary = "manage_library"
	PermCreateRole    = "create_role"
	PermEditRole      = "edit_role"
	PermDeleteRole    = "delete_role"
	PermManageRoles   = "manage_roles"
	PermManageUsers   = "manage_users"
	PermViewAuditLog  = "view_audit_log"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name          string `json:"name" binding:"required,max=50"`
	Description   string `json:"description"`
	PermissionIDs []uint `json:"permission_ids"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description"`
}

type CreatePermissionRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

type AssignPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids"`
}

type UpdateUserRoleRequest struct {
	RoleID uint `json:"role_id" binding:"required"`
}

type RoleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions,omitempty"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id uint) (*RoleResponse, error)
	GetRoleWithPermissions(ctx context.Context, id uint) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id uint) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	AssignPermissions(ctx context.Context, roleID uint, permissionIDs []uint) (*RoleResponse, error)
	GetPermissionsByRole(ctx context.Context, roleID uint) ([]PermissionResponse, error)
	UserHasPermission(ctx context.Context, userID uint, name string) (bool, error)
	GetUserPermissions(ctx context.Context, userID uint) ([]PermissionResponse, error)
	UpdateUserRole(ctx context.Context, userID, roleID uint) error
	SeedDefaults(ctx context.Context) error
}

type roleService struct {
	roles     repository.RoleRepository
	users     repository.UserRepository
	txManager repository.TransactionManager
}

func NewRoleService(roles repository.RoleRepository, users repository.UserRepository, txManager repository.TransactionManager) RoleService {
	return &roleService{roles: roles, users: users, txManager: txManager}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, apperror.Internalf("failed to fetch roles", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*RoleResponse, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "role not found", "failed to fetch role")
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) GetRoleWithPermissions(ctx context.Context, id uint) (*RoleResponse, error) {
	role, err := s.roles.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "role not found", "failed to fetch role")
	}

	resp := toRoleResponse(*role)
	if resp.Permissions == nil {
		resp.Permissions = []PermissionResponse{}
	}
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.New(apperror.Validation, "role name is required")
	}

	role := model.Role{Name: name, Description: req.Description}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.roles.ExistsByName(txCtx, name, 0)
		if err != nil {
			return apperror.Internalf("failed to check role name", err)
		}
		if exists {
			return roleNameTaken(name)
		}

		if err := s.roles.Create(txCtx, &role); err != nil {
			if isDuplicate(err) {
				return roleNameTaken(name)
			}
			return apperror.Internalf("failed to create role", err)
		}

		if len(req.PermissionIDs) > 0 {
			ids, err := s.resolvePermissionIDs(txCtx, req.PermissionIDs)
			if err != nil {
				return err
			}
			if err := s.roles.ReplacePermissions(txCtx, role.ID, ids); err != nil {
				return apperror.Internalf("failed to assign permissions", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRoleWithPermissions(ctx, role.ID)
}

func (s *roleService) UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.New(apperror.Validation, "role name is required")
	}

	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "role not found", "failed to fetch role")
	}

	if role.IsSystem && role.Name != name {
		return nil, apperror.New(apperror.Forbidden, fmt.Sprintf("system role '%s' cannot be renamed", role.Name))
	}

	exists, err := s.roles.ExistsByName(ctx, name, id)
	if err != nil {
		return nil, apperror.Internalf("failed to check role name", err)
	}
	if exists {
		return nil, roleNameTaken(name)
	}

	role.Name = name
	role.Description = req.Description
	if err := s.roles.Update(ctx, role); err != nil {
		if isDuplicate(err) {
			return nil, roleNameTaken(name)
		}
		return nil, apperror.Internalf("failed to update role", err)
	}

	return s.GetRole(ctx, id)
}

// DeleteRole refuses system roles and roles still assigned to users.
func (s *roleService) DeleteRole(ctx context.Context, id uint) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.roles.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "role not found", "failed to fetch role")
		}

		if role.IsSystem {
			return apperror.New(apperror.Forbidden, fmt.Sprintf("cannot delete system role '%s'", role.Name))
		}

		inUse, err := s.users.CountByRole(txCtx, id)
		if err != nil {
			return apperror.Internalf("failed to count role members", err)
		}
		if inUse > 0 {
			return apperror.New(apperror.Conflict, fmt.Sprintf("role '%s' is assigned to %d user(s)", role.Name, inUse))
		}

		affected, err := s.roles.Delete(txCtx, id)
		if err != nil {
			return apperror.Internalf("failed to delete role", err)
		}
		if affected == 0 {
			return apperror.New(apperror.NotFound, "role not found")
		}
		return nil
	})
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, apperror.Internalf("failed to fetch permissions", err)
	}
	return toPermissionResponses(perms), nil
}

func (s *roleService) CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.New(apperror.Validation, "permission name is required")
	}

	exists, err := s.roles.PermissionExistsByName(ctx, name)
	if err != nil {
		return nil, apperror.Internalf("failed to check permission name", err)
	}
	if exists {
		return nil, permissionNameTaken(name)
	}

	perm := model.Permission{Name: name, Description: req.Description}
	if err := s.roles.CreatePermission(ctx, &perm); err != nil {
		if isDuplicate(err) {
			return nil, permissionNameTaken(name)
		}
		return nil, apperror.Internalf("failed to create permission", err)
	}

	resp := toPermissionResponse(perm)
	return &resp, nil
}

// AssignPermissions replaces the role's permission set atomically.
func (s *roleService) AssignPermissions(ctx context.Context, roleID uint, permissionIDs []uint) (*RoleResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.roles.FindByID(txCtx, roleID); err != nil {
			return notFoundOr(err, "role not found", "failed to fetch role")
		}

		ids, err := s.resolvePermissionIDs(txCtx, permissionIDs)
		if err != nil {
			return err
		}

		if err := s.roles.ReplacePermissions(txCtx, roleID, ids); err != nil {
			return apperror.Internalf("failed to update permissions", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRoleWithPermissions(ctx, roleID)
}

func (s *roleService) GetPermissionsByRole(ctx context.Context, roleID uint) ([]PermissionResponse, error) {
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return nil, notFoundOr(err, "role not found", "failed to fetch role")
	}

	perms, err := s.roles.PermissionsByRoleID(ctx, roleID)
	if err != nil {
		return nil, apperror.Internalf("failed to fetch role permissions", err)
	}
	return toPermissionResponses(perms), nil
}

func (s *roleService) UserHasPermission(ctx context.Context, userID uint, name string) (bool, error) {
	ok, err := s.roles.UserHasPermission(ctx, userID, name)
	if err != nil {
		return false, apperror.Internalf("failed to check permission", err)
	}
	return ok, nil
}

func (s *roleService) GetUserPermissions(ctx context.Context, userID uint) ([]PermissionResponse, error) {
	perms, err := s.roles.PermissionsByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internalf("failed to fetch user permissions", err)
	}
	return toPermissionResponses(perms), nil
}

func (s *roleService) UpdateUserRole(ctx context.Context, userID, roleID uint) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.GetByID(txCtx, userID); err != nil {
			return notFoundOr(err, "user not found", "failed to fetch user")
		}

		if _, err := s.roles.FindByID(txCtx, roleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.New(apperror.Validation, fmt.Sprintf("role %d does not exist", roleID))
			}
			return apperror.Internalf("failed to fetch role", err)
		}

		affected, err := s.users.UpdateRole(txCtx, userID, roleID)
		if err != nil {
			return apperror.Internalf("failed to update user role", err)
		}
		if affected == 0 {
			return apperror.New(apperror.NotFound, "user not found")
		}
		return nil
	})
}

type seedRole struct {
	name        string
	description string
	permissions []string
}

var defaultPermissions = []model.Permission{
	{Name: PermCreateReview, Description: "Write reviews for games in the own library"},
	{Name: PermEditReview, Description: "Edit own reviews"},
	{Name: PermDeleteReview, Description: "Delete own reviews"},
	{Name: PermManageLibrary, Description: "Manage the own game library"},
	{Name: PermCreateRole, Description: "Create roles"},
	{Name: PermEditRole, Description: "Edit roles"},
	{Name: PermDeleteRole, Description: "Delete roles"},
	{Name: PermManageRoles, Description: "Manage permissions and role assignments"},
	{Name: PermManageUsers, Description: "List and manage users"},
	{Name: PermViewAuditLog, Description: "Read the activity log"},
}

var defaultRoles = []seedRole{
	{
		name:        model.RoleAdmin,
		description: "Administrator with every permission",
	},
	{
		name:        model.RoleUser,
		description: "Regular player",
		permissions: []string{PermCreateReview, PermEditReview, PermDeleteReview, PermManageLibrary},
	},
}

// SeedDefaults creates the default permissions and roles. Running it again only adds what is missing.
func (s *roleService) SeedDefaults(ctx context.Context) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		byName := make(map[string]uint, len(defaultPermissions))
		all := make([]uint, 0, len(defaultPermissions))
		for _, p := range defaultPermissions {
			perm := p
			if err := s.roles.FindOrCreatePermission(txCtx, &perm); err != nil {
				return apperror.Internalf(fmt.Sprintf("failed to seed permission '%s'", p.Name), err)
			}
			byName[perm.Name] = perm.ID
			all = append(all, perm.ID)
		}

		for _, def := range defaultRoles {
			role, err := s.roles.FindByName(txCtx, def.name)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				role = &model.Role{Name: def.name, Description: def.description, IsSystem: true}
				if err := s.roles.Create(txCtx, role); err != nil {
					return apperror.Internalf(fmt.Sprintf("failed to seed role '%s'", def.name), err)
				}
			case err != nil:
				return apperror.Internalf(fmt.Sprintf("failed to fetch role '%s'", def.name), err)
			}

			ids := all
			if def.name != model.RoleAdmin {
				ids = make([]uint, 0, len(def.permissions))
				for _, name := range def.permissions {
					ids = append(ids, byName[name])
				}
			}
			if err := s.roles.AddPermissions(txCtx, role.ID, ids); err != nil {
				return apperror.Internalf(fmt.Sprintf("failed to assign permissions to role '%s'", def.name), err)
			}
		}
		return nil
	})
}

// --- Helpers ---

// resolvePermissionIDs de-duplicates ids and rejects any that do not exist.
func (s *roleService) resolvePermissionIDs(ctx context.Context, ids []uint) ([]uint, error) {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	perms, err := s.roles.FindPermissionsByIDs(ctx, unique)
	if err != nil {
		return nil, apperror.Internalf("failed to fetch permissions", err)
	}
	if len(perms) != len(unique) {
		return nil, apperror.New(apperror.Validation, "one or more permission ids do not exist")
	}
	return unique, nil
}

func roleNameTaken(name string) error {
	return apperror.New(apperror.Conflict, fmt.Sprintf("role '%s' already exists", name))
}

func permissionNameTaken(name string) error {
	return apperror.New(apperror.Conflict, fmt.Sprintf("permission '%s' already exists", name))
}

func toRoleResponse(r model.Role) RoleResponse {
	var perms []PermissionResponse
	if r.Permissions != nil {
		perms = toPermissionResponses(r.Permissions)
	}

	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
	}
}

func toPermissionResponses(perms []model.Permission) []PermissionResponse {
	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res
}
