package service

import (
	"context"
	"fmt"
	"time"

	"kpr-backend/internal/model"
	"kpr-backend/internal/repository"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
)

// WorkflowStats is the status breakdown returned by the dashboard endpoints.
type WorkflowStats struct {
	Total    int64                     `json:"total"`
	ByStatus repository.WorkflowCounts `json:"by_status"`
}

type WorkflowService interface {
	Start(ctx context.Context, workflowID, actorID uuid.UUID) (*model.ApprovalWorkflow, error)
	// Approve closes the stage and advances the application: the next
	// stage gets a fresh row, or — after FINAL_APPROVAL — the application
	// goes APPROVED. Concurrent decisions on the same row surface as
	// ErrConflict; the first decision stands.
	Approve(ctx context.Context, workflowID, actorID uuid.UUID, notes string) (*model.ApprovalWorkflow, error)
	Reject(ctx context.Context, workflowID, actorID uuid.UUID, reason string) (*model.ApprovalWorkflow, error)
	Escalate(ctx context.Context, workflowID, actorID, toUserID uuid.UUID, reason string) (*model.ApprovalWorkflow, error)
	// Skip closes the stage as SKIPPED and advances, allowed only when the
	// stage's approval level is configured as skippable.
	Skip(ctx context.Context, workflowID, actorID uuid.UUID) (*model.ApprovalWorkflow, error)
	Assign(ctx context.Context, workflowID, actorID, assigneeID uuid.UUID) (*model.ApprovalWorkflow, error)
	Cancel(ctx context.Context, workflowID, actorID uuid.UUID, reason string) (*model.ApprovalWorkflow, error)
	Delete(ctx context.Context, workflowID, actorID uuid.UUID) error
	DeleteByApplication(ctx context.Context, applicationID, actorID uuid.UUID) (int64, error)

	GetByID(ctx context.Context, workflowID uuid.UUID) (*model.ApprovalWorkflow, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.ApprovalWorkflow, error)
	ListByAssignee(ctx context.Context, userID uuid.UUID, statuses []string) ([]model.ApprovalWorkflow, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.ApprovalWorkflow, int64, error)
	ListOverdue(ctx context.Context) ([]model.ApprovalWorkflow, error)
	// ListNeedingEscalation returns open rows overdue past the configured
	// grace window that have not been escalated yet.
	ListNeedingEscalation(ctx context.Context) ([]model.ApprovalWorkflow, error)
	Stats(ctx context.Context) (*WorkflowStats, error)
	AssigneeStats(ctx context.Context, userID uuid.UUID) (*WorkflowStats, error)
}

type workflowService struct {
	txManager       repository.TransactionManager
	workflowRepo    repository.WorkflowRepository
	appRepo         repository.ApplicationRepository
	propertyRepo    repository.PropertyRepository
	auditRepo       repository.AuditRepository
	notifService    NotificationService
	escalationGrace time.Duration
}

func NewWorkflowService(
	txManager repository.TransactionManager,
	workflowRepo repository.WorkflowRepository,
	appRepo repository.ApplicationRepository,
	propertyRepo repository.PropertyRepository,
	auditRepo repository.AuditRepository,
	notifService NotificationService,
	escalationGrace time.Duration,
) WorkflowService {
	return &workflowService{
		txManager:       txManager,
		workflowRepo:    workflowRepo,
		appRepo:         appRepo,
		propertyRepo:    propertyRepo,
		auditRepo:       auditRepo,
		notifService:    notifService,
		escalationGrace: escalationGrace,
	}
}

func (s *workflowService) Start(ctx context.Context, workflowID, actorID uuid.UUID) (*model.ApprovalWorkflow, error) {
	var workflow *model.ApprovalWorkflow
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workflowRepo.FindByID(txCtx, workflowID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := w.Start(now); err != nil {
			return err
		}
		if w.AssignedTo == nil {
			w.AssignedTo = &actorID
		}
		if err := s.workflowRepo.UpdateOpen(txCtx, w); err != nil {
			return err
		}
		workflow = w
		return s.audit(txCtx, actorID, model.ActionStartWorkflow, w, "")
	})
	if err != nil {
		return nil, err
	}
	return workflow, nil
}

func (s *workflowService) Approve(ctx context.Context, workflowID, actorID uuid.UUID, notes string) (*model.ApprovalWorkflow, error) {
	return s.closeAndAdvance(ctx, workflowID, actorID, model.ActionApproveWorkflow,
		func(w *model.ApprovalWorkflow, now time.Time) error {
			return w.Approve(notes, now)
		})
}

func (s *workflowService) Skip(ctx context.Context, workflowID, actorID uuid.UUID) (*model.ApprovalWorkflow, error) {
	return s.closeAndAdvance(ctx, workflowID, actorID, model.ActionSkipWorkflow,
		func(w *model.ApprovalWorkflow, now time.Time) error {
			if w.ApprovalLevel == nil || !w.ApprovalLevel.CanSkip {
				return apperr.ErrSkipNotAllowed
			}
			return w.Skip(now)
		})
}

// closeAndAdvance is the shared approve/skip path: close the current row,
// then either open the next stage or finish the application as APPROVED.
func (s *workflowService) closeAndAdvance(
	ctx context.Context,
	workflowID, actorID uuid.UUID,
	action string,
	decide func(w *model.ApprovalWorkflow, now time.Time) error,
) (*model.ApprovalWorkflow, error) {
	var (
		workflow *model.ApprovalWorkflow
		app      *model.LoanApplication
		approved bool
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workflowRepo.FindByIDWithLevel(txCtx, workflowID)
		if err != nil {
			return err
		}
		a, err := s.appRepo.FindByID(txCtx, w.ApplicationID)
		if err != nil {
			return err
		}
		if a.IsTerminal() {
			return apperr.ErrAlreadyCompleted
		}

		now := time.Now()
		if err := decide(w, now); err != nil {
			return err
		}
		if err := s.workflowRepo.UpdateOpen(txCtx, w); err != nil {
			return err
		}

		next := model.NextStage(w.Stage)
		if next == "" {
			approved = true
			if err := s.appRepo.UpdateStatus(txCtx, a.ID, map[string]interface{}{
				"status":      model.AppStatusApproved,
				"approved_at": now,
			}); err != nil {
				return fmt.Errorf("failed to approve application: %w", err)
			}
		} else {
			timeout := defaultStageTimeoutHours
			if w.ApprovalLevel != nil && w.ApprovalLevel.TimeoutHours > 0 {
				timeout = w.ApprovalLevel.TimeoutHours
			}
			nextRow := &model.ApprovalWorkflow{
				ApplicationID:   a.ID,
				ApprovalLevelID: w.ApprovalLevelID,
				Stage:           next,
				Status:          model.WorkflowPending,
				Priority:        w.Priority,
				DueDate:         now.Add(time.Duration(timeout) * time.Hour),
			}
			if err := s.workflowRepo.Create(txCtx, nextRow); err != nil {
				return fmt.Errorf("failed to open next workflow stage: %w", err)
			}
			if err := s.appRepo.UpdateStatus(txCtx, a.ID, map[string]interface{}{
				"status": model.StageAppStatus(next),
			}); err != nil {
				return fmt.Errorf("failed to advance application status: %w", err)
			}
		}

		workflow, app = w, a
		return s.audit(txCtx, actorID, action, w, w.Comments)
	})
	if err != nil {
		return nil, err
	}

	if approved {
		s.notifService.Notify(ctx, app.UserID, model.NotifApplicationUpdate,
			"Application approved",
			fmt.Sprintf("Congratulations! Your KPR application %s has been approved.", app.ApplicationNumber))
	} else {
		s.notifService.Notify(ctx, app.UserID, model.NotifApplicationUpdate,
			"Application progressed",
			fmt.Sprintf("Your KPR application %s moved to the %s stage.", app.ApplicationNumber, model.NextStage(workflow.Stage)))
	}
	return workflow, nil
}

func (s *workflowService) Reject(ctx context.Context, workflowID, actorID uuid.UUID, reason string) (*model.ApprovalWorkflow, error) {
	var (
		workflow *model.ApprovalWorkflow
		app      *model.LoanApplication
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workflowRepo.FindByID(txCtx, workflowID)
		if err != nil {
			return err
		}
		a, err := s.appRepo.FindByID(txCtx, w.ApplicationID)
		if err != nil {
			return err
		}
		if a.IsTerminal() {
			return apperr.ErrAlreadyCompleted
		}

		now := time.Now()
		if err := w.Reject(reason, now); err != nil {
			return err
		}
		if err := s.workflowRepo.UpdateOpen(txCtx, w); err != nil {
			return err
		}

		if err := s.appRepo.UpdateStatus(txCtx, a.ID, map[string]interface{}{
			"status":           model.AppStatusRejected,
			"rejected_at":      now,
			"rejection_reason": reason,
		}); err != nil {
			return fmt.Errorf("failed to reject application: %w", err)
		}

		// A rejection frees the property for other buyers.
		released, err := s.propertyRepo.UpdateStatus(txCtx, a.PropertyID,
			model.PropertyStatusReserved, model.PropertyStatusAvailable)
		if err != nil {
			return err
		}
		if released {
			if err := s.auditRepo.Create(txCtx, &model.AuditLog{
				Action:     model.ActionReleaseProperty,
				EntityID:   a.PropertyID.String(),
				EntityName: a.ApplicationNumber,
				Details:    `{"from":"RESERVED","to":"AVAILABLE"}`,
			}); err != nil {
				return err
			}
		}

		workflow, app = w, a
		return s.audit(txCtx, actorID, model.ActionRejectWorkflow, w, reason)
	})
	if err != nil {
		return nil, err
	}

	s.notifService.Notify(ctx, app.UserID, model.NotifApplicationUpdate,
		"Application rejected",
		fmt.Sprintf("Your KPR application %s was rejected: %s", app.ApplicationNumber, reason))
	return workflow, nil
}

func (s *workflowService) Escalate(ctx context.Context, workflowID, actorID, toUserID uuid.UUID, reason string) (*model.ApprovalWorkflow, error) {
	var workflow *model.ApprovalWorkflow
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workflowRepo.FindByID(txCtx, workflowID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := w.Escalate(toUserID, now); err != nil {
			return err
		}
		if reason != "" {
			w.Comments = reason
		}
		if err := s.workflowRepo.UpdateOpen(txCtx, w); err != nil {
			return err
		}
		workflow = w
		return s.audit(txCtx, actorID, model.ActionEscalateWorkflow, w, reason)
	})
	if err != nil {
		return nil, err
	}

	s.notifService.Notify(ctx, toUserID, model.NotifWorkflowAssigned,
		"Workflow escalated to you",
		fmt.Sprintf("An overdue %s stage has been escalated to you.", workflow.Stage))
	return workflow, nil
}

func (s *workflowService) Assign(ctx context.Context, workflowID, actorID, assigneeID uuid.UUID) (*model.ApprovalWorkflow, error) {
	var workflow *model.ApprovalWorkflow
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workflowRepo.FindByID(txCtx, workflowID)
		if err != nil {
			return err
		}
		if w.IsTerminal() {
			return apperr.ErrAlreadyCompleted
		}
		w.AssignedTo = &assigneeID
		if err := s.workflowRepo.UpdateOpen(txCtx, w); err != nil {
			return err
		}
		workflow = w
		return s.audit(txCtx, actorID, model.ActionAssignWorkflow, w, assigneeID.String())
	})
	if err != nil {
		return nil, err
	}

	s.notifService.Notify(ctx, assigneeID, model.NotifWorkflowAssigned,
		"Workflow assigned",
		fmt.Sprintf("A %s stage has been assigned to you.", workflow.Stage))
	return workflow, nil
}

func (s *workflowService) Cancel(ctx context.Context, workflowID, actorID uuid.UUID, reason string) (*model.ApprovalWorkflow, error) {
	var workflow *model.ApprovalWorkflow
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workflowRepo.FindByID(txCtx, workflowID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := w.Cancel(now); err != nil {
			return err
		}
		w.DecisionReason = reason
		if err := s.workflowRepo.UpdateOpen(txCtx, w); err != nil {
			return err
		}
		workflow = w
		return s.audit(txCtx, actorID, model.ActionCancelWorkflow, w, reason)
	})
	if err != nil {
		return nil, err
	}
	return workflow, nil
}

func (s *workflowService) Delete(ctx context.Context, workflowID, actorID uuid.UUID) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workflowRepo.FindByID(txCtx, workflowID)
		if err != nil {
			return err
		}
		if err := s.workflowRepo.Delete(txCtx, workflowID); err != nil {
			return err
		}
		return s.audit(txCtx, actorID, model.ActionDeleteWorkflow, w, "")
	})
}

func (s *workflowService) DeleteByApplication(ctx context.Context, applicationID, actorID uuid.UUID) (int64, error) {
	var deleted int64
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		n, err := s.workflowRepo.DeleteByApplication(txCtx, applicationID)
		if err != nil {
			return err
		}
		deleted = n
		return s.auditRepo.Create(txCtx, &model.AuditLog{
			UserID:   &actorID,
			Action:   model.ActionDeleteWorkflow,
			EntityID: applicationID.String(),
			Details:  fmt.Sprintf(`{"deleted_rows":%d}`, n),
		})
	})
	return deleted, err
}

func (s *workflowService) GetByID(ctx context.Context, workflowID uuid.UUID) (*model.ApprovalWorkflow, error) {
	return s.workflowRepo.FindByIDWithLevel(ctx, workflowID)
}

func (s *workflowService) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.ApprovalWorkflow, error) {
	return s.workflowRepo.ListByApplication(ctx, applicationID)
}

func (s *workflowService) ListByAssignee(ctx context.Context, userID uuid.UUID, statuses []string) ([]model.ApprovalWorkflow, error) {
	return s.workflowRepo.ListByAssignee(ctx, userID, statuses)
}

func (s *workflowService) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.ApprovalWorkflow, int64, error) {
	return s.workflowRepo.ListByStatus(ctx, status, page, limit)
}

func (s *workflowService) ListOverdue(ctx context.Context) ([]model.ApprovalWorkflow, error) {
	return s.workflowRepo.ListOverdue(ctx, time.Now())
}

func (s *workflowService) ListNeedingEscalation(ctx context.Context) ([]model.ApprovalWorkflow, error) {
	deadline := time.Now().Add(-s.escalationGrace)
	return s.workflowRepo.ListNeedingEscalation(ctx, deadline)
}

func (s *workflowService) Stats(ctx context.Context) (*WorkflowStats, error) {
	counts, err := s.workflowRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return statsFrom(counts), nil
}

func (s *workflowService) AssigneeStats(ctx context.Context, userID uuid.UUID) (*WorkflowStats, error) {
	counts, err := s.workflowRepo.CountByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	return statsFrom(counts), nil
}

func statsFrom(counts repository.WorkflowCounts) *WorkflowStats {
	stats := &WorkflowStats{ByStatus: counts}
	for _, n := range counts {
		stats.Total += n
	}
	return stats
}

func (s *workflowService) audit(ctx context.Context, actorID uuid.UUID, action string, w *model.ApprovalWorkflow, detail string) error {
	return s.auditRepo.Create(ctx, &model.AuditLog{
		UserID:     &actorID,
		Action:     action,
		EntityID:   w.ID.String(),
		EntityName: w.Stage,
		Details:    fmt.Sprintf(`{"application_id":"%s","stage":"%s","detail":%q}`, w.ApplicationID, w.Stage, detail),
	})
}
