package repository

import (
	"context"

	"gamelibrary/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uint) (int64, error)
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByIDWithPermissions(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error)
	ListAll(ctx context.Context) ([]model.Role, error)

	CreatePermission(ctx context.Context, perm *model.Permission) error
	FindOrCreatePermission(ctx context.Context, perm *model.Permission) error
	PermissionExistsByName(ctx context.Context, name string) (bool, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissionsByIDs(ctx context.Context, ids []uint) ([]model.Permission, error)
	PermissionsByRoleID(ctx context.Context, roleID uint) ([]model.Permission, error)
	ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error
	AddPermissions(ctx context.Context, roleID uint, permissionIDs []uint) error

	PermissionsByUserID(ctx context.Context, userID uint) ([]model.Permission, error)
	UserHasPermission(ctx context.Context, userID uint, name string) (bool, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Omit("Permissions").Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Model(role).
		Updates(map[string]interface{}{"name": role.Name, "description": role.Description}).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uint) (int64, error) {
	db := GetDB(ctx, r.db)
	if err := db.Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("id = ?", id).Delete(&model.Role{})
	return res.RowsAffected, res.Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByIDWithPermissions(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	err := GetDB(ctx, r.db).
		Preload("Permissions", func(db *gorm.DB) *gorm.DB { return db.Order("permissions.name asc") }).
		First(&role, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// ExistsByName ignores the role with excludeID so a rename to the same name passes.
func (r *roleRepository) ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Role{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Order("name asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *roleRepository) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).
		Where("name = ?", perm.Name).
		FirstOrCreate(perm).Error
}

func (r *roleRepository) PermissionExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Permission{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) FindPermissionsByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	var perms []model.Permission
	if len(ids) == 0 {
		return perms, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Order("name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) PermissionsByRoleID(ctx context.Context, roleID uint) ([]model.Permission, error) {
	var perms []model.Permission
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id = ?", roleID).
		Order("permissions.name asc").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// ReplacePermissions deletes the role's join rows and inserts the new set.
// Callers run it inside a transaction so readers never see a partial set.
func (r *roleRepository) ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("role_id = ?", roleID).Delete(&model.RolePermission{}).Error; err != nil {
		return err
	}
	return r.insertJoinRows(db, roleID, permissionIDs)
}

// AddPermissions appends to the role's set, skipping rows that already exist.
func (r *roleRepository) AddPermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	return r.insertJoinRows(GetDB(ctx, r.db), roleID, permissionIDs)
}

func (r *roleRepository) insertJoinRows(db *gorm.DB, roleID uint, permissionIDs []uint) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([]model.RolePermission, 0, len(permissionIDs))
	for _, pid := range permissionIDs {
		rows = append(rows, model.RolePermission{RoleID: roleID, PermissionID: pid})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *roleRepository) PermissionsByUserID(ctx context.Context, userID uint) ([]model.Permission, error) {
	var perms []model.Permission
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Joins("INNER JOIN users u ON u.role_id = rp.role_id").
		Where("u.id = ?", userID).
		Order("permissions.name asc").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) UserHasPermission(ctx context.Context, userID uint, name string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Table("users u").
		Joins("INNER JOIN role_permissions rp ON rp.role_id = u.role_id").
		Joins("INNER JOIN permissions p ON p.id = rp.permission_id").
		Where("u.id = ? AND p.name = ?", userID, name).
		Count(&count).Error
	return count > 0, err
}
