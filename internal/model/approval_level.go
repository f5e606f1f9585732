package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalLevel is one tier of the configurable approval hierarchy. The
// loan amount selects the level; the level fixes the required role, the
// stage deadline and whether the stage may be skipped. Nil bounds are open.
type ApprovalLevel struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LevelName     string           `gorm:"type:varchar(100);not null" json:"level_name"`
	LevelOrder    int              `gorm:"not null;index" json:"level_order"`
	RoleRequired  string           `gorm:"type:varchar(100);not null" json:"role_required"`
	MinLoanAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"min_loan_amount"`
	MaxLoanAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"max_loan_amount"`
	IsRequired    bool             `gorm:"not null;default:true" json:"is_required"`
	CanSkip       bool             `gorm:"not null;default:false" json:"can_skip"`
	TimeoutHours  int              `gorm:"not null;default:72" json:"timeout_hours"`
	Description   string           `gorm:"type:text" json:"description,omitempty"`
	IsActive      bool             `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// Covers reports whether loanAmount falls inside this level's bucket.
func (l *ApprovalLevel) Covers(loanAmount decimal.Decimal) bool {
	if l.MinLoanAmount != nil && loanAmount.LessThan(*l.MinLoanAmount) {
		return false
	}
	if l.MaxLoanAmount != nil && loanAmount.GreaterThan(*l.MaxLoanAmount) {
		return false
	}
	return true
}
