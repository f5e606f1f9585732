package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyType enum constants
const (
	PropertyTypeRumah     = "RUMAH"
	PropertyTypeApartemen = "APARTEMEN"
	PropertyTypeRuko      = "RUKO"
	PropertyTypeTanah     = "TANAH"
)

// PropertyStatus enum constants
const (
	PropertyStatusAvailable = "AVAILABLE"
	PropertyStatusReserved  = "RESERVED"
	PropertyStatusSold      = "SOLD"
	PropertyStatusInactive  = "INACTIVE"
)

// CertificateType enum constants
const (
	CertificateSHM = "SHM"
	CertificateHGB = "HGB"
	CertificateHGU = "HGU"
	CertificateHP  = "HP"
)

// Property is the catalog record a loan application is made against.
// Catalog CRUD is owned by the listing service; the engine reads the
// financing constraints (price, min DP, max term) and mutates status only
// when releasing a reserved property after a rejection.
type Property struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PropertyCode          string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"property_code"`
	Title                 string          `gorm:"type:varchar(255);not null" json:"title"`
	Address               string          `gorm:"type:text;not null" json:"address"`
	City                  string          `gorm:"type:varchar(100)" json:"city"`
	Province              string          `gorm:"type:varchar(100)" json:"province"`
	PropertyType          string          `gorm:"type:varchar(20);not null;index" json:"property_type"`
	CertificateType       string          `gorm:"type:varchar(10);not null" json:"certificate_type"`
	Price                 decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	Status                string          `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	IsKprEligible         bool            `gorm:"not null;default:true" json:"is_kpr_eligible"`
	MinDownPaymentPercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"min_down_payment_percent"`
	MaxLoanTermYears      int             `gorm:"not null" json:"max_loan_term_years"`
	DeveloperName         string          `gorm:"type:varchar(255)" json:"developer_name"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// MinDownPayment returns price * minDownPaymentPercent / 100, rounded to
// 2 decimal places half-up. Monetary comparison point for DP validation.
func (p *Property) MinDownPayment() decimal.Decimal {
	return p.Price.Mul(p.MinDownPaymentPercent).DivRound(decimal.NewFromInt(100), 2)
}
