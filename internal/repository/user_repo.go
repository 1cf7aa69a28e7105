package repository

import (
	"context"

	"gamelibrary/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	UpdateRole(ctx context.Context, id, roleID uint) (int64, error)
	CountByRole(ctx context.Context, roleID uint) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Role").First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Role").Order("id asc").Offset(offset(page, limit)).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Update("password", hash).Error
}

// UpdateRole returns the number of user rows changed.
func (r *userRepository) UpdateRole(ctx context.Context, id, roleID uint) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Update("role_id", roleID)
	return res.RowsAffected, res.Error
}

func (r *userRepository) CountByRole(ctx context.Context, roleID uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

// Delete removes the user together with the reviews and library entries it owns.
// Audit rows keep their history with the user reference cleared.
func (r *userRepository) Delete(ctx context.Context, id uint) (int64, error) {
	db := GetDB(ctx, r.db)
	if err := db.Where("user_id = ?", id).Delete(&model.Review{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("user_id = ?", id).Delete(&model.LibraryEntry{}).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&model.AuditLog{}).Where("user_id = ?", id).Update("user_id", nil).Error; err != nil {
		return 0, err
	}
	res := db.Where("id = ?", id).Delete(&model.User{})
	return res.RowsAffected, res.Error
}
