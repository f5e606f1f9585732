package model

import (
	"time"

	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
)

// WorkflowStage enum constants, in processing order.
const (
	StageDocumentVerification = "DOCUMENT_VERIFICATION"
	StagePropertyAppraisal    = "PROPERTY_APPRAISAL"
	StageCreditAnalysis       = "CREDIT_ANALYSIS"
	StageManagerApproval      = "MANAGER_APPROVAL"
	StageFinalApproval        = "FINAL_APPROVAL"
)

// WorkflowStatus enum constants. APPROVED, REJECTED, SKIPPED and CANCELLED
// are terminal for a stage row; ESCALATED stays open under a new assignee.
const (
	WorkflowPending    = "PENDING"
	WorkflowInProgress = "IN_PROGRESS"
	WorkflowApproved   = "APPROVED"
	WorkflowRejected   = "REJECTED"
	WorkflowEscalated  = "ESCALATED"
	WorkflowSkipped    = "SKIPPED"
	WorkflowCancelled  = "CANCELLED"
)

// Priority enum constants
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// StageOrder lists workflow stages in processing order. Approving or
// skipping a stage creates a fresh row for the next entry; the old row is
// kept as audit history.
var StageOrder = []string{
	StageDocumentVerification,
	StagePropertyAppraisal,
	StageCreditAnalysis,
	StageManagerApproval,
	StageFinalApproval,
}

// NextStage returns the stage after the given one, or "" at the end.
func NextStage(stage string) string {
	for i, s := range StageOrder {
		if s == stage && i+1 < len(StageOrder) {
			return StageOrder[i+1]
		}
	}
	return ""
}

// StageAppStatus maps a workflow stage to the application status the
// application enters while that stage is open.
func StageAppStatus(stage string) string {
	switch stage {
	case StageDocumentVerification:
		return AppStatusDocumentVerification
	case StagePropertyAppraisal:
		return AppStatusPropertyAppraisal
	case StageCreditAnalysis:
		return AppStatusCreditAnalysis
	case StageManagerApproval:
		return AppStatusManagerApproval
	case StageFinalApproval:
		return AppStatusFinalApproval
	}
	return ""
}

// OpenWorkflowStatuses are the statuses a row can still be acted on in.
var OpenWorkflowStatuses = []string{WorkflowPending, WorkflowInProgress, WorkflowEscalated}

// ApprovalWorkflow is one stage instance on an application. Every state
// mutation goes through the guarded methods below so terminal rows can
// never be reopened, and is persisted with a status-guarded UPDATE.
type ApprovalWorkflow struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"application_id"`
	Application     *LoanApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	ApprovalLevelID *uuid.UUID       `gorm:"type:uuid" json:"approval_level_id"`
	ApprovalLevel   *ApprovalLevel   `gorm:"foreignKey:ApprovalLevelID" json:"approval_level,omitempty"`
	Stage           string           `gorm:"type:varchar(30);not null;index" json:"stage"`
	Status          string           `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Priority        string           `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"priority"`
	AssignedTo      *uuid.UUID       `gorm:"type:uuid;index" json:"assigned_to"`
	Assignee        *User            `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	EscalatedTo     *uuid.UUID       `gorm:"type:uuid" json:"escalated_to"`
	EscalatedAt     *time.Time       `json:"escalated_at"`
	DueDate         time.Time        `gorm:"not null;index" json:"due_date"`
	StartedAt       *time.Time       `json:"started_at"`
	CompletedAt     *time.Time       `json:"completed_at"`
	Comments        string           `gorm:"type:text" json:"comments,omitempty"`
	DecisionReason  string           `gorm:"type:text" json:"decision_reason,omitempty"`
	CreatedAt       time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the stage row can no longer change state.
func (w *ApprovalWorkflow) IsTerminal() bool {
	switch w.Status {
	case WorkflowApproved, WorkflowRejected, WorkflowSkipped, WorkflowCancelled:
		return true
	}
	return false
}

// Start moves PENDING → IN_PROGRESS and stamps StartedAt.
func (w *ApprovalWorkflow) Start(now time.Time) error {
	if w.IsTerminal() {
		return apperr.ErrAlreadyCompleted
	}
	w.Status = WorkflowInProgress
	if w.StartedAt == nil {
		w.StartedAt = &now
	}
	return nil
}

// Approve closes the row as APPROVED with the reviewer's notes.
func (w *ApprovalWorkflow) Approve(notes string, now time.Time) error {
	if w.IsTerminal() {
		return apperr.ErrAlreadyCompleted
	}
	w.Status = WorkflowApproved
	w.CompletedAt = &now
	w.Comments = notes
	return nil
}

// Reject closes the row as REJECTED with the decision reason.
func (w *ApprovalWorkflow) Reject(reason string, now time.Time) error {
	if w.IsTerminal() {
		return apperr.ErrAlreadyCompleted
	}
	w.Status = WorkflowRejected
	w.CompletedAt = &now
	w.DecisionReason = reason
	return nil
}

// Escalate reassigns the row to another approver. The row stays open and
// still needs an eventual approve or reject.
func (w *ApprovalWorkflow) Escalate(toUserID uuid.UUID, now time.Time) error {
	if w.IsTerminal() {
		return apperr.ErrAlreadyCompleted
	}
	w.Status = WorkflowEscalated
	w.EscalatedTo = &toUserID
	w.EscalatedAt = &now
	w.AssignedTo = &toUserID
	return nil
}

// Skip closes the row as SKIPPED. The caller must have verified the
// associated approval level allows skipping.
func (w *ApprovalWorkflow) Skip(now time.Time) error {
	if w.IsTerminal() {
		return apperr.ErrAlreadyCompleted
	}
	w.Status = WorkflowSkipped
	w.CompletedAt = &now
	return nil
}

// Cancel closes the row as CANCELLED (administrative stop).
func (w *ApprovalWorkflow) Cancel(now time.Time) error {
	if w.IsTerminal() {
		return apperr.ErrAlreadyCompleted
	}
	w.Status = WorkflowCancelled
	w.CompletedAt = &now
	return nil
}

// IsOverdue reports whether an open row has passed its due date.
func (w *ApprovalWorkflow) IsOverdue(now time.Time) bool {
	if w.Status != WorkflowPending && w.Status != WorkflowInProgress {
		return false
	}
	return now.After(w.DueDate)
}

// NeedsEscalation reports whether the row is overdue past the grace window
// and has not been escalated yet.
func (w *ApprovalWorkflow) NeedsEscalation(now time.Time, grace time.Duration) bool {
	if w.EscalatedTo != nil {
		return false
	}
	if w.Status != WorkflowPending && w.Status != WorkflowInProgress {
		return false
	}
	return now.After(w.DueDate.Add(grace))
}
