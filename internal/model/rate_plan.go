package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateType enum constants
const (
	RateTypeFixed    = "FIXED"
	RateTypeFloating = "FLOATING"
	RateTypeMixed    = "MIXED"
)

// CustomerSegment enum constants. SegmentAll on a plan means the plan is
// open to every segment; SegmentAll as a request value means the applicant
// could not be classified.
const (
	SegmentEmployee     = "EMPLOYEE"
	SegmentProfessional = "PROFESSIONAL"
	SegmentEntrepreneur = "ENTREPRENEUR"
	SegmentPensioner    = "PENSIONER"
	SegmentAll          = "ALL"
)

// PropertyTypeAll is the wildcard value for RatePlan.PropertyTypeFilter.
const PropertyTypeAll = "ALL"

// RatePlan is a configured interest-rate product with its eligibility
// predicates and fees. Maintained by back office, read-only to the engine.
// Invariant: EffectiveRate == BaseRate + Margin, all 4dp decimals.
type RatePlan struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RateName           string          `gorm:"type:varchar(100);not null" json:"rate_name"`
	RateType           string          `gorm:"type:varchar(20);not null" json:"rate_type"`
	PropertyTypeFilter string          `gorm:"type:varchar(20);not null;default:'ALL';index" json:"property_type_filter"`
	CustomerSegment    string          `gorm:"type:varchar(20);not null;default:'ALL';index" json:"customer_segment"`
	BaseRate           decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"base_rate"`
	Margin             decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"margin"`
	EffectiveRate      decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"effective_rate"`
	MinLoanAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"min_loan_amount"`
	MaxLoanAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"max_loan_amount"`
	MinTermYears       int             `gorm:"not null" json:"min_term_years"`
	MaxTermYears       int             `gorm:"not null" json:"max_term_years"`
	MaxLtvRatio        decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"max_ltv_ratio"`
	MinIncome          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"min_income"`
	MaxAge             int             `gorm:"not null;default:65" json:"max_age"`
	MinDownPaymentPct  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"min_down_payment_percent"`
	AdminFee           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"admin_fee"`
	AppraisalFee       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"appraisal_fee"`
	InsuranceRate      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"insurance_rate"`
	NotaryFeePercent   decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"notary_fee_percent"`
	IsPromotional      bool            `gorm:"not null;default:false" json:"is_promotional"`
	PromoDescription   string          `gorm:"type:text" json:"promo_description,omitempty"`
	PromoStartDate     *time.Time      `gorm:"type:date" json:"promo_start_date,omitempty"`
	PromoEndDate       *time.Time      `gorm:"type:date" json:"promo_end_date,omitempty"`
	IsActive           bool            `gorm:"not null;default:true;index" json:"is_active"`
	EffectiveDate      time.Time       `gorm:"type:date;not null" json:"effective_date"`
	ExpiryDate         *time.Time      `gorm:"type:date" json:"expiry_date,omitempty"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// InWindow reports whether the plan's effective/expiry window contains asOf.
// The expiry date may be open-ended. Must stay equivalent to the predicate
// rateRepository.FindActive evaluates in SQL:
// effective_date <= asOf AND (expiry_date IS NULL OR expiry_date >= asOf).
func (r *RatePlan) InWindow(asOf time.Time) bool {
	if r.EffectiveDate.After(asOf) {
		return false
	}
	if r.ExpiryDate != nil && r.ExpiryDate.Before(asOf) {
		return false
	}
	return true
}

// MatchesPropertyType reports whether the plan covers the given property type.
func (r *RatePlan) MatchesPropertyType(propertyType string) bool {
	return r.PropertyTypeFilter == PropertyTypeAll || r.PropertyTypeFilter == propertyType
}

// CoversAmount reports whether loanAmount falls in [min, max].
func (r *RatePlan) CoversAmount(loanAmount decimal.Decimal) bool {
	return loanAmount.GreaterThanOrEqual(r.MinLoanAmount) && loanAmount.LessThanOrEqual(r.MaxLoanAmount)
}

// CoversTerm reports whether termYears falls in [min, max].
func (r *RatePlan) CoversTerm(termYears int) bool {
	return termYears >= r.MinTermYears && termYears <= r.MaxTermYears
}
