package repository

import (
	"context"

	"gamelibrary/internal/model"

	"gorm.io/gorm"
)

// ReviewRepository stores reviews of library entries.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	Exists(ctx context.Context, userID, entryID uint) (bool, error)
	ListByGame(ctx context.Context, gameID uint) ([]model.ReviewDetail, error)
	ListByUser(ctx context.Context, userID uint) ([]model.ReviewDetail, error)
	Update(ctx context.Context, id uint, rating int, comment string) error
	Delete(ctx context.Context, id uint) (int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewDetailColumns = `reviews.id, reviews.user_id, reviews.library_entry_id, reviews.rating,
	reviews.comment, reviews.created_at, reviews.updated_at,
	users.name AS user_name, user_library.game_id, user_library.title AS game_title,
	user_library.image_url AS image_url`

func (r *reviewRepository) details(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).
		Table("reviews").
		Select(reviewDetailColumns).
		Joins("INNER JOIN users ON users.id = reviews.user_id").
		Joins("INNER JOIN user_library ON user_library.id = reviews.library_entry_id")
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return GetDB(ctx, r.db).Omit("User", "LibraryEntry").Create(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	if err := GetDB(ctx, r.db).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) Exists(ctx context.Context, userID, entryID uint) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Review{}).
		Where("user_id = ? AND library_entry_id = ?", userID, entryID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepository) ListByGame(ctx context.Context, gameID uint) ([]model.ReviewDetail, error) {
	out := []model.ReviewDetail{}
	err := r.details(ctx).
		Where("user_library.game_id = ?", gameID).
		Order("reviews.created_at desc, reviews.id desc").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID uint) ([]model.ReviewDetail, error) {
	out := []model.ReviewDetail{}
	err := r.details(ctx).
		Where("reviews.user_id = ?", userID).
		Order("reviews.created_at desc, reviews.id desc").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepository) Update(ctx context.Context, id uint, rating int, comment string) error {
	return GetDB(ctx, r.db).Model(&model.Review{}).Where("id = ?", id).
		Updates(map[string]interface{}{"rating": rating, "comment": comment}).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Review{})
	return res.RowsAffected, res.Error
}
