package repository

import (
	"context"
	"errors"

	"kpr-backend/internal/model"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LevelRepository interface {
	Create(ctx context.Context, level *model.ApprovalLevel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalLevel, error)
	// FindActive returns active levels ordered by level_order ascending —
	// the resolver walks them in this order and the first covering bucket wins.
	FindActive(ctx context.Context) ([]model.ApprovalLevel, error)
}

type levelRepository struct {
	db *gorm.DB
}

func NewLevelRepository(db *gorm.DB) LevelRepository {
	return &levelRepository{db: db}
}

func (r *levelRepository) Create(ctx context.Context, level *model.ApprovalLevel) error {
	return GetDB(ctx, r.db).Create(level).Error
}

func (r *levelRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalLevel, error) {
	var level model.ApprovalLevel
	if err := GetDB(ctx, r.db).First(&level, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

func (r *levelRepository) FindActive(ctx context.Context) ([]model.ApprovalLevel, error) {
	var levels []model.ApprovalLevel
	err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Order("level_order ASC").
		Find(&levels).Error
	if err != nil {
		return nil, err
	}
	return levels, nil
}
