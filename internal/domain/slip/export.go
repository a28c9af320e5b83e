package slip

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const registerSheet = "Salary Slips"

var registerHeaders = []string{"Employee", "From", "To", "Gross", "Deductions", "Bonus", "Advances", "Net", "Currency", "Status"}

// Register writes slips as an XLSX workbook, one row per slip.
func Register(slips []Slip) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, err
	}

	for i, name := range registerHeaders {
		if err := f.SetCellValue(registerSheet, cellName(i+1, 1), name); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(registerSheet, "A1", cellName(len(registerHeaders), 1), headerStyle); err != nil {
		return nil, err
	}

	for i, sl := range slips {
		row := i + 2
		values := []any{
			sl.EmployeeName(),
			sl.PeriodFrom(),
			sl.PeriodTo(),
			sl.Breakdown.GrossSalary,
			sl.Deductions(),
			sl.Bonus(),
			sl.Advances(),
			sl.Net(),
			sl.CurrencyOrDefault(),
			sl.Status,
		}
		for col, v := range values {
			if err := f.SetCellValue(registerSheet, cellName(col+1, row), v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
