package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitApplication  = "SUBMIT_APPLICATION"
	ActionStartWorkflow      = "START_WORKFLOW"
	ActionApproveWorkflow    = "APPROVE_WORKFLOW"
	ActionRejectWorkflow     = "REJECT_WORKFLOW"
	ActionEscalateWorkflow   = "ESCALATE_WORKFLOW"
	ActionSkipWorkflow       = "SKIP_WORKFLOW"
	ActionCancelWorkflow     = "CANCEL_WORKFLOW"
	ActionDeleteWorkflow     = "DELETE_WORKFLOW"
	ActionAssignWorkflow     = "ASSIGN_WORKFLOW"
	ActionCreateRatePlan     = "CREATE_RATE_PLAN"
	ActionCreateApprovalTier = "CREATE_APPROVAL_LEVEL"
	ActionReleaseProperty    = "RELEASE_PROPERTY"
)

// AuditLog tracks Who, What, and When for every loan-state mutation.
// Financial compliance requirement: written in the same transaction as the
// mutation it records.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nullable for system-initiated actions
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
