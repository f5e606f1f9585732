package service

import (
	"kpr-backend/pkg/apperr"

	"github.com/shopspring/decimal"
)

// rateScale is the precision the monthly rate is carried at before the
// final rounding of the installment to whole cents.
const rateScale = 10

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// MonthlyInstallment computes the fixed annuity payment for a loan of
// principal rupiah at annualRatePercent (e.g. 9.5 for 9.5% p.a.) over
// termYears. The monthly rate is annualRatePercent/12/100 rounded half-up
// to 10 decimal places; the result is rounded half-up to 2 places.
//
//	installment = P * r * (1+r)^n / ((1+r)^n - 1)
func MonthlyInstallment(principal, annualRatePercent decimal.Decimal, termYears int) (decimal.Decimal, error) {
	if principal.LessThanOrEqual(decimal.Zero) || annualRatePercent.LessThanOrEqual(decimal.Zero) || termYears <= 0 {
		return decimal.Zero, apperr.ErrInvalidParameters
	}

	months := decimal.NewFromInt(int64(termYears) * 12)
	monthlyRate := annualRatePercent.DivRound(twelve.Mul(hundred), rateScale)
	factor := one.Add(monthlyRate).Pow(months)

	numerator := principal.Mul(monthlyRate).Mul(factor)
	denominator := factor.Sub(one)
	return numerator.DivRound(denominator, 2), nil
}

// TotalInterest returns installment*n - principal, the lifetime interest
// cost implied by the annuity schedule.
func TotalInterest(principal, installment decimal.Decimal, termYears int) decimal.Decimal {
	months := decimal.NewFromInt(int64(termYears) * 12)
	return installment.Mul(months).Sub(principal)
}
