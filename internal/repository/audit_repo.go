package repository

import (
	"context"

	"gamelibrary/internal/model"

	"gorm.io/gorm"
)

// AuditFilter narrows an audit listing. Zero fields match every row.
type AuditFilter struct {
	UserID *uint
	Action string
}

func (f AuditFilter) apply(db *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		db = db.Where("action = ?", f.Action)
	}
	return db
}

// AuditRepository appends and pages through audit records.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditLog) error
	Find(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Append never writes through the User association.
func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

// Find returns one page, newest first. Ties on created_at fall back to insertion order.
func (r *auditRepository) Find(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	var (
		rows  []model.AuditLog
		total int64
	)

	scoped := func() *gorm.DB {
		return filter.apply(GetDB(ctx, r.db).Model(&model.AuditLog{}))
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.AuditLog{}, 0, nil
	}

	err := scoped().
		Preload("User").
		Order("created_at desc, id desc").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
