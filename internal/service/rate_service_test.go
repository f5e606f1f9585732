package service

import (
	"testing"
	"time"

	"kpr-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plans below are listed in repository order: effective_rate ascending.
func catalogPlans() []model.RatePlan {
	return []model.RatePlan{
		{
			ID:                 uuid.New(),
			RateName:           "Employee Promo",
			CustomerSegment:    model.SegmentEmployee,
			PropertyTypeFilter: model.PropertyTypeAll,
			EffectiveRate:      decimal.RequireFromString("7.5000"),
			MinLoanAmount:      decimal.NewFromInt(100_000_000),
			MaxLoanAmount:      decimal.NewFromInt(1_000_000_000),
			MinTermYears:       5,
			MaxTermYears:       20,
			MaxLtvRatio:        decimal.RequireFromString("0.8000"),
			MinIncome:          decimal.NewFromInt(10_000_000),
			MaxAge:             55,
		},
		{
			ID:                 uuid.New(),
			RateName:           "Standard Fixed",
			CustomerSegment:    model.SegmentAll,
			PropertyTypeFilter: model.PropertyTypeAll,
			EffectiveRate:      decimal.RequireFromString("9.5000"),
			MinLoanAmount:      decimal.NewFromInt(100_000_000),
			MaxLoanAmount:      decimal.NewFromInt(1_000_000_000),
			MinTermYears:       1,
			MaxTermYears:       25,
			MaxLtvRatio:        decimal.RequireFromString("0.9000"),
			MaxAge:             65,
		},
		{
			ID:                 uuid.New(),
			RateName:           "Jumbo",
			CustomerSegment:    model.SegmentAll,
			PropertyTypeFilter: model.PropertyTypeAll,
			EffectiveRate:      decimal.RequireFromString("10.2500"),
			MinLoanAmount:      decimal.NewFromInt(1_000_000_000),
			MaxLoanAmount:      decimal.NewFromInt(10_000_000_000),
			MinTermYears:       5,
			MaxTermYears:       25,
			MaxLtvRatio:        decimal.RequireFromString("0.8500"),
			MaxAge:             65,
		},
	}
}

func TestPickBestRatePrefersLowestEligibleRate(t *testing.T) {
	criteria := RateCriteria{
		PropertyType:  model.PropertyTypeRumah,
		LoanAmount:    decimal.NewFromInt(500_000_000),
		TermYears:     15,
		LtvRatio:      decimal.RequireFromString("0.7500"),
		Segment:       model.SegmentEmployee,
		MonthlyIncome: decimal.NewFromInt(25_000_000),
		Age:           35,
	}

	best := pickBestRate(catalogPlans(), criteria)
	require.NotNil(t, best)
	assert.Equal(t, "Employee Promo", best.RateName)
}

func TestPickBestRateFallsBackWhenApplicantDoesNotQualify(t *testing.T) {
	// Income below the promo minimum: first pass skips it, the fallback
	// pass still lands on the cheapest amount/term-compatible plan.
	criteria := RateCriteria{
		PropertyType:  model.PropertyTypeRumah,
		LoanAmount:    decimal.NewFromInt(500_000_000),
		TermYears:     15,
		LtvRatio:      decimal.RequireFromString("0.7500"),
		Segment:       model.SegmentEmployee,
		MonthlyIncome: decimal.NewFromInt(5_000_000),
		Age:           35,
	}

	best := pickBestRate(catalogPlans(), criteria)
	require.NotNil(t, best)
	assert.Equal(t, "Employee Promo", best.RateName) // fallback relaxes income
}

func TestPickBestRateSegmentMismatchUsesOpenPlan(t *testing.T) {
	criteria := RateCriteria{
		PropertyType:  model.PropertyTypeRumah,
		LoanAmount:    decimal.NewFromInt(500_000_000),
		TermYears:     15,
		LtvRatio:      decimal.RequireFromString("0.7500"),
		Segment:       model.SegmentEntrepreneur,
		MonthlyIncome: decimal.NewFromInt(50_000_000),
		Age:           40,
	}

	best := pickBestRate(catalogPlans(), criteria)
	require.NotNil(t, best)
	assert.Equal(t, "Standard Fixed", best.RateName)
}

func TestPickBestRateAmountBounds(t *testing.T) {
	base := RateCriteria{
		PropertyType: model.PropertyTypeRumah,
		TermYears:    15,
		Segment:      model.SegmentAll,
	}

	t.Run("mid-range amount selects the 100M-1000M plan", func(t *testing.T) {
		c := base
		c.LoanAmount = decimal.NewFromInt(500_000_000)
		best := pickBestRate(catalogPlans(), c)
		require.NotNil(t, best)
		assert.Equal(t, "Standard Fixed", best.RateName)
	})

	t.Run("jumbo amount selects the jumbo plan", func(t *testing.T) {
		c := base
		c.LoanAmount = decimal.NewFromInt(2_000_000_000)
		best := pickBestRate(catalogPlans(), c)
		require.NotNil(t, best)
		assert.Equal(t, "Jumbo", best.RateName)
	})

	t.Run("amount below every plan matches nothing", func(t *testing.T) {
		c := base
		c.LoanAmount = decimal.NewFromInt(50_000_000)
		assert.Nil(t, pickBestRate(catalogPlans(), c))
	})

	t.Run("amount above every plan matches nothing", func(t *testing.T) {
		c := base
		c.LoanAmount = decimal.NewFromInt(20_000_000_000)
		assert.Nil(t, pickBestRate(catalogPlans(), c))
	})
}

func TestPickBestRateLtvBoundHolds(t *testing.T) {
	// LTV above the promo cap but within the standard plan's.
	criteria := RateCriteria{
		PropertyType:  model.PropertyTypeRumah,
		LoanAmount:    decimal.NewFromInt(500_000_000),
		TermYears:     15,
		LtvRatio:      decimal.RequireFromString("0.8500"),
		Segment:       model.SegmentEmployee,
		MonthlyIncome: decimal.NewFromInt(25_000_000),
		Age:           35,
	}

	best := pickBestRate(catalogPlans(), criteria)
	require.NotNil(t, best)
	assert.Equal(t, "Standard Fixed", best.RateName)
}

func TestPickBestRateTermBounds(t *testing.T) {
	criteria := RateCriteria{
		PropertyType: model.PropertyTypeRumah,
		LoanAmount:   decimal.NewFromInt(500_000_000),
		TermYears:    25, // past the promo's 20y max
		Segment:      model.SegmentEmployee,
	}

	best := pickBestRate(catalogPlans(), criteria)
	require.NotNil(t, best)
	assert.Equal(t, "Standard Fixed", best.RateName)
}

func TestRatePlanWindow(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	plan := model.RatePlan{EffectiveDate: yesterday}
	assert.True(t, plan.InWindow(now))

	plan.EffectiveDate = tomorrow
	assert.False(t, plan.InWindow(now))

	lastWeek := now.Add(-7 * 24 * time.Hour)
	plan = model.RatePlan{EffectiveDate: lastWeek, ExpiryDate: &yesterday}
	assert.False(t, plan.InWindow(now))

	// Expiry is inclusive, matching the repository's expiry_date >= ? filter
	plan.ExpiryDate = &now
	assert.True(t, plan.InWindow(now))

	plan.ExpiryDate = &tomorrow
	assert.True(t, plan.InWindow(now))
}

func TestDeriveSegment(t *testing.T) {
	tests := []struct {
		occupation string
		want       string
	}{
		{"Pegawai Negeri Sipil", model.SegmentEmployee},
		{"karyawan swasta", model.SegmentEmployee},
		{"Software Employee", model.SegmentEmployee},
		{"Dokter Gigi", model.SegmentProfessional},
		{"lawyer", model.SegmentProfessional},
		{"Wiraswasta", model.SegmentEntrepreneur},
		{"pemilik bisnis", model.SegmentEntrepreneur},
		{"Pensiunan TNI", model.SegmentPensioner},
		{"", model.SegmentAll},
		{"seniman", model.SegmentAll},
	}
	for _, tt := range tests {
		t.Run(tt.occupation, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveSegment(tt.occupation))
		})
	}
}
