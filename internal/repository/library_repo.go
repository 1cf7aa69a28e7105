package repository

import (
	"context"

	"gamelibrary/internal/model"

	"gorm.io/gorm"
)

// LibraryRepository stores user library entries.
type LibraryRepository interface {
	Create(ctx context.Context, entry *model.LibraryEntry) error
	FindByID(ctx context.Context, id uint) (*model.LibraryEntry, error)
	Exists(ctx context.Context, userID, gameID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]model.LibraryEntry, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

type libraryRepository struct {
	db *gorm.DB
}

func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

func (r *libraryRepository) Create(ctx context.Context, entry *model.LibraryEntry) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *libraryRepository) FindByID(ctx context.Context, id uint) (*model.LibraryEntry, error) {
	var entry model.LibraryEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *libraryRepository) Exists(ctx context.Context, userID, gameID uint) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.LibraryEntry{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&count).Error
	return count > 0, err
}

func (r *libraryRepository) ListByUser(ctx context.Context, userID uint) ([]model.LibraryEntry, error) {
	entries := []model.LibraryEntry{}
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("added_at desc, id desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Update writes only the supplied columns and returns the rows changed.
func (r *libraryRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.LibraryEntry{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *libraryRepository) Delete(ctx context.Context, id uint) (int64, error) {
	db := GetDB(ctx, r.db)
	if err := db.Where("library_entry_id = ?", id).Delete(&model.Review{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("id = ?", id).Delete(&model.LibraryEntry{})
	return res.RowsAffected, res.Error
}
