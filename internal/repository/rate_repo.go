package repository

import (
	"context"
	"errors"
	"time"

	"kpr-backend/internal/model"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RateRepository interface {
	Create(ctx context.Context, plan *model.RatePlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RatePlan, error)
	// FindActive returns active plans whose effective/expiry window contains
	// asOf, coarse-filtered by property type (exact match or ALL), ordered
	// deterministically: effective_rate ASC, effective_date ASC,
	// is_promotional DESC, id ASC. Fine-grained eligibility (segment,
	// income, age, amount, term) is applied in the service layer.
	FindActive(ctx context.Context, propertyType string, asOf time.Time) ([]model.RatePlan, error)
	ListActive(ctx context.Context, asOf time.Time) ([]model.RatePlan, error)
}

type rateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) Create(ctx context.Context, plan *model.RatePlan) error {
	return GetDB(ctx, r.db).Create(plan).Error
}

func (r *rateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RatePlan, error) {
	var plan model.RatePlan
	if err := GetDB(ctx, r.db).First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *rateRepository) FindActive(ctx context.Context, propertyType string, asOf time.Time) ([]model.RatePlan, error) {
	var plans []model.RatePlan
	err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Where("property_type_filter = ? OR property_type_filter = ?", propertyType, model.PropertyTypeAll).
		Where("effective_date <= ?", asOf).
		Where("expiry_date IS NULL OR expiry_date >= ?", asOf).
		Order("effective_rate ASC, effective_date ASC, is_promotional DESC, id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *rateRepository) ListActive(ctx context.Context, asOf time.Time) ([]model.RatePlan, error) {
	var plans []model.RatePlan
	err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Where("effective_date <= ?", asOf).
		Where("expiry_date IS NULL OR expiry_date >= ?", asOf).
		Order("effective_rate ASC, id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}
