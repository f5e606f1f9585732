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

// WorkflowCounts groups open/closed totals for a status breakdown.
type WorkflowCounts map[string]int64

type WorkflowRepository interface {
	Create(ctx context.Context, w *model.ApprovalWorkflow) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalWorkflow, error)
	FindByIDWithLevel(ctx context.Context, id uuid.UUID) (*model.ApprovalWorkflow, error)
	// UpdateOpen persists a transition with a status guard: the UPDATE only
	// matches while the row is still open. Zero rows affected means another
	// actor closed the row first — reported as ErrConflict, last writer loses.
	UpdateOpen(ctx context.Context, w *model.ApprovalWorkflow) error
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.ApprovalWorkflow, error)
	ListByAssignee(ctx context.Context, userID uuid.UUID, statuses []string) ([]model.ApprovalWorkflow, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.ApprovalWorkflow, int64, error)
	ListOverdue(ctx context.Context, now time.Time) ([]model.ApprovalWorkflow, error)
	ListNeedingEscalation(ctx context.Context, deadline time.Time) ([]model.ApprovalWorkflow, error)
	CountByStatus(ctx context.Context) (WorkflowCounts, error)
	CountByAssignee(ctx context.Context, userID uuid.UUID) (WorkflowCounts, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error)
}

type workflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) Create(ctx context.Context, w *model.ApprovalWorkflow) error {
	return GetDB(ctx, r.db).Create(w).Error
}

func (r *workflowRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalWorkflow, error) {
	var w model.ApprovalWorkflow
	if err := GetDB(ctx, r.db).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *workflowRepository) FindByIDWithLevel(ctx context.Context, id uuid.UUID) (*model.ApprovalWorkflow, error) {
	var w model.ApprovalWorkflow
	err := GetDB(ctx, r.db).
		Preload("ApprovalLevel").
		Preload("Application").
		First(&w, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *workflowRepository) UpdateOpen(ctx context.Context, w *model.ApprovalWorkflow) error {
	res := GetDB(ctx, r.db).Model(&model.ApprovalWorkflow{}).
		Where("id = ? AND status IN ?", w.ID, model.OpenWorkflowStatuses).
		Updates(map[string]interface{}{
			"status":          w.Status,
			"assigned_to":     w.AssignedTo,
			"escalated_to":    w.EscalatedTo,
			"escalated_at":    w.EscalatedAt,
			"started_at":      w.StartedAt,
			"completed_at":    w.CompletedAt,
			"comments":        w.Comments,
			"decision_reason": w.DecisionReason,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

func (r *workflowRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.ApprovalWorkflow, error) {
	var workflows []model.ApprovalWorkflow
	err := GetDB(ctx, r.db).
		Preload("Assignee").
		Preload("ApprovalLevel").
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&workflows).Error
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *workflowRepository) ListByAssignee(ctx context.Context, userID uuid.UUID, statuses []string) ([]model.ApprovalWorkflow, error) {
	var workflows []model.ApprovalWorkflow
	query := GetDB(ctx, r.db).
		Preload("Application").
		Where("assigned_to = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Order("due_date ASC").Find(&workflows).Error; err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *workflowRepository) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.ApprovalWorkflow, int64, error) {
	var total int64
	db := GetDB(ctx, r.db)

	query := db.Model(&model.ApprovalWorkflow{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	var workflows []model.ApprovalWorkflow
	fetchQuery := db.Preload("Application").Preload("Assignee")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&workflows).Error; err != nil {
		return nil, 0, err
	}

	return workflows, total, nil
}

func (r *workflowRepository) ListOverdue(ctx context.Context, now time.Time) ([]model.ApprovalWorkflow, error) {
	var workflows []model.ApprovalWorkflow
	err := GetDB(ctx, r.db).
		Preload("Application").
		Where("status IN ?", []string{model.WorkflowPending, model.WorkflowInProgress}).
		Where("due_date < ?", now).
		Order("due_date ASC").
		Find(&workflows).Error
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

// ListNeedingEscalation returns open, never-escalated rows whose due date
// passed before the deadline (now minus the configured grace window).
func (r *workflowRepository) ListNeedingEscalation(ctx context.Context, deadline time.Time) ([]model.ApprovalWorkflow, error) {
	var workflows []model.ApprovalWorkflow
	err := GetDB(ctx, r.db).
		Preload("Application").
		Where("status IN ?", []string{model.WorkflowPending, model.WorkflowInProgress}).
		Where("due_date < ?", deadline).
		Where("escalated_to IS NULL").
		Order("due_date ASC").
		Find(&workflows).Error
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *workflowRepository) CountByStatus(ctx context.Context) (WorkflowCounts, error) {
	return r.countGrouped(ctx, GetDB(ctx, r.db).Model(&model.ApprovalWorkflow{}))
}

func (r *workflowRepository) CountByAssignee(ctx context.Context, userID uuid.UUID) (WorkflowCounts, error) {
	query := GetDB(ctx, r.db).Model(&model.ApprovalWorkflow{}).Where("assigned_to = ?", userID)
	return r.countGrouped(ctx, query)
}

func (r *workflowRepository) countGrouped(_ context.Context, query *gorm.DB) (WorkflowCounts, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(WorkflowCounts, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *workflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Delete(&model.ApprovalWorkflow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *workflowRepository) DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Delete(&model.ApprovalWorkflow{}, "application_id = ?", applicationID)
	return res.RowsAffected, res.Error
}
