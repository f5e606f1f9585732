package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserStatus enum constants
const (
	UserStatusActive              = "ACTIVE"
	UserStatusPendingVerification = "PENDING_VERIFICATION"
	UserStatusSuspended           = "SUSPENDED"
	UserStatusInactive            = "INACTIVE"
)

// Role constants used by the auth middleware and workflow assignment
const (
	RoleAdmin     = "admin"
	RoleApprover  = "approver"
	RoleVerifier  = "verifier"
	RoleDeveloper = "developer"
	RoleCustomer  = "customer"
)

// User is the thin user-directory entity the loan engine consumes.
// Full identity management lives in a separate service; the engine only
// needs status, role and the profile fields that drive rate eligibility.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20);not null" json:"phone"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Role      string         `gorm:"type:varchar(50);not null" json:"role"`
	Status    string         `gorm:"type:varchar(30);not null;default:'PENDING_VERIFICATION';index" json:"status"`
	Profile   *UserProfile   `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserProfile carries the applicant data used for customer-segment and
// age/income eligibility checks at rate selection time.
type UserProfile struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FullName      string          `gorm:"type:varchar(255)" json:"full_name"`
	Occupation    string          `gorm:"type:varchar(100)" json:"occupation"`
	CompanyName   string          `gorm:"type:varchar(255)" json:"company_name"`
	MonthlyIncome decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"monthly_income"`
	BirthDate     *time.Time      `gorm:"type:date" json:"birth_date"`
	Address       string          `gorm:"type:text" json:"address"`
	City          string          `gorm:"type:varchar(100)" json:"city"`
	Province      string          `gorm:"type:varchar(100)" json:"province"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// AgeAt returns whole years between the birth date and ref, 0 when unknown.
func (p *UserProfile) AgeAt(ref time.Time) int {
	if p == nil || p.BirthDate == nil {
		return 0
	}
	age := ref.Year() - p.BirthDate.Year()
	if ref.YearDay() < p.BirthDate.YearDay() {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
