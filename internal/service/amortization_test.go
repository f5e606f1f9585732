package service

import (
	"testing"

	"kpr-backend/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyInstallment(t *testing.T) {
	tests := []struct {
		name      string
		principal int64
		rate      string
		years     int
		want      string
	}{
		{"standard 15y", 500_000_000, "9.5", 15, "5221123.43"},
		{"long 20y", 480_000_000, "8.75", 20, "4241811.42"},
		{"short 5y high rate", 100_000_000, "12", 5, "2224444.77"},
		{"mid ticket", 450_000_000, "9.25", 15, "4631365.29"},
		{"large ticket", 1_000_000_000, "10.5", 10, "13493499.68"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MonthlyInstallment(
				decimal.NewFromInt(tt.principal),
				decimal.RequireFromString(tt.rate),
				tt.years,
			)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestMonthlyInstallmentRejectsInvalidInputs(t *testing.T) {
	tests := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		years     int
	}{
		{"zero principal", decimal.Zero, decimal.NewFromFloat(9.5), 15},
		{"negative principal", decimal.NewFromInt(-1), decimal.NewFromFloat(9.5), 15},
		{"zero rate", decimal.NewFromInt(500_000_000), decimal.Zero, 15},
		{"negative rate", decimal.NewFromInt(500_000_000), decimal.NewFromFloat(-0.1), 15},
		{"zero term", decimal.NewFromInt(500_000_000), decimal.NewFromFloat(9.5), 0},
		{"negative term", decimal.NewFromInt(500_000_000), decimal.NewFromFloat(9.5), -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MonthlyInstallment(tt.principal, tt.rate, tt.years)
			assert.ErrorIs(t, err, apperr.ErrInvalidParameters)
		})
	}
}

func TestTotalInterest(t *testing.T) {
	principal := decimal.NewFromInt(120_000_000)
	installment := decimal.RequireFromString("1000000.00")

	// At zero interest the schedule pays back exactly the principal.
	assert.True(t, TotalInterest(principal, installment, 10).IsZero())

	installment = decimal.RequireFromString("1100000.00")
	assert.Equal(t, "12000000.00", TotalInterest(principal, installment, 10).StringFixed(2))
}
