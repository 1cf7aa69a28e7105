package repository

import (
	"context"
	"strings"

	"gamelibrary/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameRepository stores the local copy of the catalog.
type GameRepository interface {
	Upsert(ctx context.Context, game *model.Game) error
	UpsertBatch(ctx context.Context, games []model.Game) (int64, error)
	FindByID(ctx context.Context, id uint) (*model.Game, error)
	Search(ctx context.Context, query string, page, limit int) ([]model.Game, int64, error)
	Count(ctx context.Context) (int64, error)
}

type gameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

// Upsert inserts the game unless a row with the same id already exists.
func (r *gameRepository) Upsert(ctx context.Context, game *model.Game) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(game).Error
}

// UpsertBatch returns the number of rows actually inserted.
func (r *gameRepository) UpsertBatch(ctx context.Context, games []model.Game) (int64, error) {
	if len(games) == 0 {
		return 0, nil
	}
	res := GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(games, 100)
	return res.RowsAffected, res.Error
}

func (r *gameRepository) FindByID(ctx context.Context, id uint) (*model.Game, error) {
	var game model.Game
	if err := GetDB(ctx, r.db).First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) Search(ctx context.Context, query string, page, limit int) ([]model.Game, int64, error) {
	var games []model.Game
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Game{})
	if q := strings.TrimSpace(query); q != "" {
		db = db.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("title asc").Offset(offset(page, limit)).Limit(limit).Find(&games).Error; err != nil {
		return nil, 0, err
	}

	return games, total, nil
}

func (r *gameRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Game{}).Count(&total).Error
	return total, err
}
