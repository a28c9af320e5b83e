package salary

import (
	"github.com/shopspring/decimal"

	"unifiedpro/internal/domain/catalog"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

type DeductionLine struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

type Totals struct {
	Gross           float64         `json:"gross"`
	Deductions      []DeductionLine `json:"deductions"`
	TotalDeductions float64         `json:"totalDeductions"`
	Net             float64         `json:"net"`
	TakeHomePercent int64           `json:"takeHomePercent"`
}

// Compute reduces the selected components and deductions into totals.
// Every deduction is a flat share of the same gross; they never compound.
func Compute(components []SelectedComponent, deductions []catalog.Deduction) Totals {
	gross := grossOf(components)

	lines := make([]DeductionLine, 0, len(deductions))
	total := decimal.Zero
	for _, d := range deductions {
		amount := deductionOf(gross, d.Percentage)
		total = total.Add(amount)
		lines = append(lines, DeductionLine{ID: d.ID, Name: d.Name, Percentage: d.Percentage, Amount: amount.InexactFloat64()})
	}
	net := gross.Sub(total)

	return Totals{
		Gross:           gross.InexactFloat64(),
		Deductions:      lines,
		TotalDeductions: total.InexactFloat64(),
		Net:             net.InexactFloat64(),
		TakeHomePercent: takeHome(net, gross),
	}
}

func Gross(components []SelectedComponent) float64 {
	return grossOf(components).InexactFloat64()
}

func DeductionAmount(gross float64, d catalog.Deduction) float64 {
	return deductionOf(decimal.NewFromFloat(gross), d.Percentage).InexactFloat64()
}

func TotalDeductions(gross float64, deductions []catalog.Deduction) float64 {
	g := decimal.NewFromFloat(gross)
	total := decimal.Zero
	for _, d := range deductions {
		total = total.Add(deductionOf(g, d.Percentage))
	}
	return total.InexactFloat64()
}

// TakeHomePercent is net as a whole percentage of gross, 0 when gross is not positive.
func TakeHomePercent(net, gross float64) int64 {
	return takeHome(decimal.NewFromFloat(net), decimal.NewFromFloat(gross))
}

func grossOf(components []SelectedComponent) decimal.Decimal {
	gross := decimal.Zero
	for _, c := range components {
		gross = gross.Add(decimal.NewFromFloat(c.Amount))
	}
	return gross
}

func deductionOf(gross decimal.Decimal, percentage float64) decimal.Decimal {
	return gross.Mul(decimal.NewFromFloat(percentage)).Div(hundred)
}

// takeHome rounds half up, so -2.5 becomes -2.
func takeHome(net, gross decimal.Decimal) int64 {
	if !gross.IsPositive() {
		return 0
	}
	return net.Mul(hundred).Div(gross).Add(half).Floor().IntPart()
}
