package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kpr-backend/internal/model"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.LoanApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.LoanApplication, error)
	List(ctx context.Context, status string, page, limit int) ([]model.LoanApplication, int64, error)
	ExistsPending(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	// NextSequence returns the next per-year application-number sequence.
	// Must be called inside a transaction: it takes a pg advisory xact lock
	// on the year prefix so concurrent submissions serialize here.
	NextSequence(ctx context.Context, yearPrefix string) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *model.LoanApplication) error {
	return GetDB(ctx, r.db).Create(app).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error) {
	var app model.LoanApplication
	if err := GetDB(ctx, r.db).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error) {
	var app model.LoanApplication
	err := GetDB(ctx, r.db).
		Preload("User").
		Preload("User.Profile").
		Preload("Property").
		Preload("RatePlan").
		Preload("CurrentApprovalLevel").
		First(&app, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.LoanApplication, error) {
	var apps []model.LoanApplication
	err := GetDB(ctx, r.db).
		Preload("Property").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) List(ctx context.Context, status string, page, limit int) ([]model.LoanApplication, int64, error) {
	var total int64
	db := GetDB(ctx, r.db)

	query := db.Model(&model.LoanApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	var apps []model.LoanApplication
	fetchQuery := db.Preload("User").Preload("Property")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepository) ExistsPending(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.LoanApplication{}).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Where("status IN ?", model.NonTerminalAppStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *applicationRepository) NextSequence(ctx context.Context, yearPrefix string) (int64, error) {
	db := GetDB(ctx, r.db)

	// Serialize number generation per year. The lock is released when the
	// surrounding transaction commits or rolls back.
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", yearPrefix).Error; err != nil {
		return 0, err
	}

	var seq int64
	err := db.Raw(
		"SELECT COALESCE(MAX(CAST(RIGHT(application_number, 6) AS integer)), 0) + 1 "+
			"FROM loan_applications WHERE application_number LIKE ?",
		yearPrefix+"%",
	).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute next application sequence: %w", err)
	}
	return seq, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return GetDB(ctx, r.db).Model(&model.LoanApplication{}).
		Where("id = ?", id).
		Updates(fields).Error
}
