package repository

import (
	"context"
	"errors"

	"kpr-backend/internal/model"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var property model.Property
	if err := GetDB(ctx, r.db).First(&property, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &property, nil
}

// UpdateStatus flips a property's status only when it is still in the
// expected state. Returns false when the guard did not match.
func (r *propertyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Property{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
