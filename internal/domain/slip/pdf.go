package slip

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"unifiedpro/internal/platform/money"
)

// PDF renders one slip as an A4 document.
func PDF(sl Slip) ([]byte, error) {
	currency := sl.CurrencyOrDefault()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Salary Slip", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Salary Slip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", sl.EmployeeName()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", sl.PeriodFrom(), sl.PeriodTo()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", sl.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Component", "B", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range sl.Breakdown.Components {
		pdf.CellFormat(120, 7, line.Component, "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, money.FormatWhole(line.Amount, currency), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	rows := []struct {
		label  string
		amount float64
	}{
		{"Gross salary", sl.Breakdown.GrossSalary},
		{"Bonus", sl.Bonus()},
		{"Deductions", sl.Deductions()},
		{"Advances", sl.Advances()},
	}
	for _, row := range rows {
		pdf.CellFormat(120, 7, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, money.FormatWhole(row.amount, currency), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Net payable", "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, money.FormatWhole(sl.Net(), currency), "T", 1, "R", false, 0, "")

	if sl.Remarks != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "Remarks: "+sl.Remarks, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
