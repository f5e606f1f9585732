package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kpr-backend/internal/model"
	"kpr-backend/internal/repository"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateCriteria is everything rate selection looks at. Segment, income and
// age are soft: when the applicant profile is incomplete (or no plan
// matches them) selection falls back to the plans they would relax into.
type RateCriteria struct {
	PropertyType  string
	LoanAmount    decimal.Decimal
	TermYears     int
	LtvRatio      decimal.Decimal
	Segment       string
	MonthlyIncome decimal.Decimal
	Age           int
}

type CreateRatePlanInput struct {
	RateName           string           `json:"rate_name" binding:"required"`
	RateType           string           `json:"rate_type" binding:"required"`
	PropertyTypeFilter string           `json:"property_type_filter"`
	CustomerSegment    string           `json:"customer_segment"`
	BaseRate           decimal.Decimal  `json:"base_rate" binding:"required"`
	Margin             decimal.Decimal  `json:"margin"`
	MinLoanAmount      decimal.Decimal  `json:"min_loan_amount" binding:"required"`
	MaxLoanAmount      decimal.Decimal  `json:"max_loan_amount" binding:"required"`
	MinTermYears       int              `json:"min_term_years" binding:"required"`
	MaxTermYears       int              `json:"max_term_years" binding:"required"`
	MaxLtvRatio        decimal.Decimal  `json:"max_ltv_ratio" binding:"required"`
	MinIncome          decimal.Decimal  `json:"min_income"`
	MaxAge             int              `json:"max_age"`
	MinDownPaymentPct  decimal.Decimal  `json:"min_down_payment_percent"`
	AdminFee           decimal.Decimal  `json:"admin_fee"`
	AppraisalFee       decimal.Decimal  `json:"appraisal_fee"`
	InsuranceRate      decimal.Decimal  `json:"insurance_rate"`
	NotaryFeePercent   decimal.Decimal  `json:"notary_fee_percent"`
	IsPromotional      bool             `json:"is_promotional"`
	PromoDescription   string           `json:"promo_description"`
	EffectiveDate      time.Time        `json:"effective_date" binding:"required"`
	ExpiryDate         *time.Time       `json:"expiry_date"`
}

type RateService interface {
	CreateRatePlan(ctx context.Context, input CreateRatePlanInput) (*model.RatePlan, error)
	GetRatePlan(ctx context.Context, id uuid.UUID) (*model.RatePlan, error)
	ListActivePlans(ctx context.Context) ([]model.RatePlan, error)
	// SelectBestRate returns the lowest-effective-rate plan matching the
	// criteria, or ErrNoEligibleRate when no plan covers them at all.
	SelectBestRate(ctx context.Context, criteria RateCriteria) (*model.RatePlan, error)
}

type rateService struct {
	rateRepo  repository.RateRepository
	auditRepo repository.AuditRepository
}

func NewRateService(rateRepo repository.RateRepository, auditRepo repository.AuditRepository) RateService {
	return &rateService{rateRepo: rateRepo, auditRepo: auditRepo}
}

func (s *rateService) CreateRatePlan(ctx context.Context, input CreateRatePlanInput) (*model.RatePlan, error) {
	if input.MaxLoanAmount.LessThan(input.MinLoanAmount) || input.MaxTermYears < input.MinTermYears {
		return nil, apperr.ErrInvalidParameters
	}
	if input.PropertyTypeFilter == "" {
		input.PropertyTypeFilter = model.PropertyTypeAll
	}
	if input.CustomerSegment == "" {
		input.CustomerSegment = model.SegmentAll
	}
	if input.MaxAge == 0 {
		input.MaxAge = 65
	}

	plan := &model.RatePlan{
		RateName:           input.RateName,
		RateType:           input.RateType,
		PropertyTypeFilter: input.PropertyTypeFilter,
		CustomerSegment:    input.CustomerSegment,
		BaseRate:           input.BaseRate,
		Margin:             input.Margin,
		EffectiveRate:      input.BaseRate.Add(input.Margin),
		MinLoanAmount:      input.MinLoanAmount,
		MaxLoanAmount:      input.MaxLoanAmount,
		MinTermYears:       input.MinTermYears,
		MaxTermYears:       input.MaxTermYears,
		MaxLtvRatio:        input.MaxLtvRatio,
		MinIncome:          input.MinIncome,
		MaxAge:             input.MaxAge,
		MinDownPaymentPct:  input.MinDownPaymentPct,
		AdminFee:           input.AdminFee,
		AppraisalFee:       input.AppraisalFee,
		InsuranceRate:      input.InsuranceRate,
		NotaryFeePercent:   input.NotaryFeePercent,
		IsPromotional:      input.IsPromotional,
		PromoDescription:   input.PromoDescription,
		IsActive:           true,
		EffectiveDate:      input.EffectiveDate,
		ExpiryDate:         input.ExpiryDate,
	}
	if err := s.rateRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create rate plan: %w", err)
	}

	_ = s.auditRepo.Create(ctx, &model.AuditLog{
		Action:     model.ActionCreateRatePlan,
		EntityID:   plan.ID.String(),
		EntityName: plan.RateName,
		Details:    fmt.Sprintf(`{"effective_rate":"%s","segment":"%s"}`, plan.EffectiveRate, plan.CustomerSegment),
	})
	return plan, nil
}

func (s *rateService) GetRatePlan(ctx context.Context, id uuid.UUID) (*model.RatePlan, error) {
	return s.rateRepo.FindByID(ctx, id)
}

func (s *rateService) ListActivePlans(ctx context.Context) ([]model.RatePlan, error) {
	return s.rateRepo.ListActive(ctx, time.Now())
}

func (s *rateService) SelectBestRate(ctx context.Context, criteria RateCriteria) (*model.RatePlan, error) {
	if criteria.LoanAmount.LessThanOrEqual(decimal.Zero) || criteria.TermYears <= 0 {
		return nil, apperr.ErrInvalidParameters
	}

	plans, err := s.rateRepo.FindActive(ctx, criteria.PropertyType, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to load active rate plans: %w", err)
	}

	if best := pickBestRate(plans, criteria); best != nil {
		return best, nil
	}
	return nil, apperr.ErrNoEligibleRate
}

// pickBestRate runs two passes over plans, which must already be sorted by
// the repository's deterministic order (effective_rate, effective_date,
// is_promotional, id). The first pass honors the applicant-specific
// predicates; the second relaxes segment, income and age so an applicant
// with a thin profile still gets a standard plan. Amount, term and LTV
// bounds hold in both passes.
func pickBestRate(plans []model.RatePlan, criteria RateCriteria) *model.RatePlan {
	for _, strict := range []bool{true, false} {
		for i := range plans {
			plan := &plans[i]
			if !plan.CoversAmount(criteria.LoanAmount) || !plan.CoversTerm(criteria.TermYears) {
				continue
			}
			if !criteria.LtvRatio.IsZero() && criteria.LtvRatio.GreaterThan(plan.MaxLtvRatio) {
				continue
			}
			if strict && !matchesApplicant(plan, criteria) {
				continue
			}
			return plan
		}
	}
	return nil
}

func matchesApplicant(plan *model.RatePlan, criteria RateCriteria) bool {
	if plan.CustomerSegment != model.SegmentAll && plan.CustomerSegment != criteria.Segment {
		return false
	}
	if !criteria.MonthlyIncome.IsZero() && criteria.MonthlyIncome.LessThan(plan.MinIncome) {
		return false
	}
	if criteria.Age > 0 && criteria.Age > plan.MaxAge {
		return false
	}
	return true
}

// DeriveSegment classifies an applicant by occupation keywords. Unknown or
// empty occupations map to ALL, which only matches open plans.
func DeriveSegment(occupation string) string {
	occ := strings.ToLower(occupation)
	switch {
	case occ == "":
		return model.SegmentAll
	case containsAny(occ, "pegawai", "karyawan", "employee", "staff"):
		return model.SegmentEmployee
	case containsAny(occ, "dokter", "doctor", "lawyer", "pengacara", "professional", "profesional"):
		return model.SegmentProfessional
	case containsAny(occ, "wiraswasta", "wirausaha", "entrepreneur", "bisnis", "pengusaha"):
		return model.SegmentEntrepreneur
	case containsAny(occ, "pensiun", "pensioner", "retired"):
		return model.SegmentPensioner
	}
	return model.SegmentAll
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
