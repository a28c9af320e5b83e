package slip

import (
	"github.com/shopspring/decimal"

	"unifiedpro/internal/domain/salary"
)

// Build turns a salary structure into a draft slip for period. Percentage
// deductions apply to gross and never compound; the adjustment's work
// deduction and advances come off net and its bonus is added.
func Build(st salary.Structure, period Period, adj Adjustment) Slip {
	totals := salary.Compute(st.Selected(), st.Deductions)

	lines := make([]ComponentLine, 0, len(st.Components))
	for _, c := range st.Components {
		lines = append(lines, ComponentLine{Component: c.Name, Amount: c.Amount})
	}

	gross := decimal.NewFromFloat(totals.Gross)
	bonus := decimal.NewFromFloat(adj.ManualBonus)
	percentage := decimal.NewFromFloat(totals.TotalDeductions)
	work := decimal.NewFromFloat(adj.WorkDeduction)
	advances := decimal.NewFromFloat(adj.Advances)

	net := gross.Add(bonus).Sub(percentage).Sub(work).Sub(advances).InexactFloat64()
	percentageValue := percentage.InexactFloat64()

	p := period
	return Slip{
		BasicProfile: st.ProfileID,
		FromDate:     period.From,
		ToDate:       period.To,
		TotalAmount:  &net,
		Deduction:    &percentageValue,
		Status:       StatusDraft,
		Remarks:      adj.Remarks,
		Currency:     st.Currency,
		Breakdown: Breakdown{
			EmployeeID:                st.EmployeeID,
			EmployeeName:              st.EmployeeName,
			Period:                    &p,
			Components:                lines,
			TotalEarnings:             gross.Add(bonus).InexactFloat64(),
			GrossSalary:               totals.Gross,
			TotalPercentageDeductions: &percentageValue,
			WorkDeduction:             adj.WorkDeduction,
			ExpenseClaimsTotal:        adj.Advances,
			ManualBonus:               adj.ManualBonus,
			NetPayable:                &net,
		},
	}
}
