package slip

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Net is the payable amount: net_payable, falling back to total_amount.
func (s Slip) Net() float64 {
	if s.Breakdown.NetPayable != nil {
		return *s.Breakdown.NetPayable
	}
	if s.TotalAmount != nil {
		return *s.TotalAmount
	}
	return 0
}

// PercentageDeductions prefers the breakdown figure over the slip column.
func (s Slip) PercentageDeductions() float64 {
	if s.Breakdown.TotalPercentageDeductions != nil {
		return *s.Breakdown.TotalPercentageDeductions
	}
	if s.Deduction != nil {
		return *s.Deduction
	}
	return 0
}

// Deductions is the displayed deduction total: percentage deductions plus
// the work deduction.
func (s Slip) Deductions() float64 {
	return decimal.NewFromFloat(s.PercentageDeductions()).
		Add(decimal.NewFromFloat(s.Breakdown.WorkDeduction)).
		InexactFloat64()
}

func (s Slip) Bonus() float64 {
	return s.Breakdown.ManualBonus
}

// Advances is the expense-claims total taken out of the slip.
func (s Slip) Advances() float64 {
	return s.Breakdown.ExpenseClaimsTotal
}

// ExpectedNet recomputes net from the breakdown parts.
func (s Slip) ExpectedNet() float64 {
	b := s.Breakdown
	return decimal.NewFromFloat(b.GrossSalary).
		Add(decimal.NewFromFloat(b.ManualBonus)).
		Sub(decimal.NewFromFloat(s.PercentageDeductions())).
		Sub(decimal.NewFromFloat(b.WorkDeduction)).
		Sub(decimal.NewFromFloat(b.ExpenseClaimsTotal)).
		InexactFloat64()
}

// Reconciles reports whether the stored net matches the breakdown within
// tolerance.
func (s Slip) Reconciles(tolerance float64) bool {
	return math.Abs(s.Net()-s.ExpectedNet()) <= tolerance
}

// PeriodFrom is the period start: breakdown period first, then From_date.
func (s Slip) PeriodFrom() string {
	if s.Breakdown.Period != nil && strings.TrimSpace(s.Breakdown.Period.From) != "" {
		return s.Breakdown.Period.From
	}
	return s.FromDate
}

func (s Slip) PeriodTo() string {
	if s.Breakdown.Period != nil && strings.TrimSpace(s.Breakdown.Period.To) != "" {
		return s.Breakdown.Period.To
	}
	return s.ToDate
}

// Month is the YYYY-MM of the period start, empty when unknown.
func (s Slip) Month() string {
	from := strings.TrimSpace(s.PeriodFrom())
	if len(from) < 7 {
		return ""
	}
	return from[:7]
}

func (s Slip) EmployeeName() string {
	return s.Breakdown.EmployeeName
}

func (s Slip) IsPaid() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), StatusPaid)
}

func (s Slip) CurrencyOrDefault() string {
	if c := strings.TrimSpace(s.Currency); c != "" {
		return strings.ToUpper(c)
	}
	return DefaultCurrency
}
