package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationStatus enum constants. The ladder mirrors the workflow stages;
// APPROVED, REJECTED, CANCELLED and DISBURSED are terminal.
const (
	AppStatusSubmitted            = "SUBMITTED"
	AppStatusDocumentVerification = "DOCUMENT_VERIFICATION"
	AppStatusPropertyAppraisal    = "PROPERTY_APPRAISAL"
	AppStatusCreditAnalysis       = "CREDIT_ANALYSIS"
	AppStatusManagerApproval      = "MANAGER_APPROVAL"
	AppStatusFinalApproval        = "FINAL_APPROVAL"
	AppStatusApprovalPending      = "APPROVAL_PENDING"
	AppStatusApproved             = "APPROVED"
	AppStatusRejected             = "REJECTED"
	AppStatusCancelled            = "CANCELLED"
	AppStatusDisbursed            = "DISBURSED"
)

// ApplicationPurpose enum constants
const (
	PurposePrimaryResidence = "PRIMARY_RESIDENCE"
	PurposeInvestment       = "INVESTMENT"
	PurposeBusiness         = "BUSINESS"
)

// NonTerminalAppStatuses lists statuses that count as "pending" for the
// duplicate-application guard and the partial unique index backing it.
var NonTerminalAppStatuses = []string{
	AppStatusSubmitted,
	AppStatusDocumentVerification,
	AppStatusPropertyAppraisal,
	AppStatusCreditAnalysis,
	AppStatusManagerApproval,
	AppStatusFinalApproval,
	AppStatusApprovalPending,
}

// LoanApplication is one KPR submission. The financial fields are a
// snapshot taken at submission time and never re-derived from the rate
// catalog: rate plans change, approved terms do not. Only the workflow
// engine mutates Status, CurrentApprovalLevelID and the decision fields.
type LoanApplication struct {
	ID                     uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationNumber      string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"application_number"` // KPR-YYYY-NNNNNN
	UserID                 uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User                   *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PropertyID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"property_id"`
	Property               *Property       `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	RatePlanID             uuid.UUID       `gorm:"type:uuid;not null" json:"rate_plan_id"`
	RatePlan               *RatePlan       `gorm:"foreignKey:RatePlanID" json:"rate_plan,omitempty"`
	PropertyType           string          `gorm:"type:varchar(20);not null" json:"property_type"`
	PropertyValue          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"property_value"`
	LoanAmount             decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"loan_amount"`
	DownPayment            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"down_payment"`
	LoanTermYears          int             `gorm:"not null" json:"loan_term_years"`
	InterestRate           decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"interest_rate"`
	MonthlyInstallment     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"monthly_installment"`
	LtvRatio               decimal.Decimal `gorm:"type:decimal(5,4)" json:"ltv_ratio"`
	Purpose                string          `gorm:"type:varchar(30);not null;default:'PRIMARY_RESIDENCE'" json:"purpose"`
	Status                 string          `gorm:"type:varchar(30);not null;default:'SUBMITTED';index" json:"status"`
	CurrentApprovalLevelID *uuid.UUID      `gorm:"type:uuid" json:"current_approval_level_id"`
	CurrentApprovalLevel   *ApprovalLevel  `gorm:"foreignKey:CurrentApprovalLevelID" json:"current_approval_level,omitempty"`
	SubmittedAt            time.Time       `gorm:"not null" json:"submitted_at"`
	ApprovedAt             *time.Time      `json:"approved_at"`
	RejectedAt             *time.Time      `json:"rejected_at"`
	RejectionReason        string          `gorm:"type:text" json:"rejection_reason,omitempty"`
	CancelledAt            *time.Time      `json:"cancelled_at"`
	CancellationReason     string          `gorm:"type:text" json:"cancellation_reason,omitempty"`
	Notes                  string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the application reached a final status.
func (a *LoanApplication) IsTerminal() bool {
	switch a.Status {
	case AppStatusApproved, AppStatusRejected, AppStatusCancelled, AppStatusDisbursed:
		return true
	}
	return false
}
