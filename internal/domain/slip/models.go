package slip

import "time"

type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ComponentLine struct {
	Component string  `json:"component"`
	Amount    float64 `json:"amount"`
}

// Breakdown is the stored computation behind one slip. Nullable figures
// stay nil when the producer did not supply them.
type Breakdown struct {
	EmployeeID                string          `json:"employee_id"`
	EmployeeName              string          `json:"employee_name"`
	Period                    *Period         `json:"period"`
	Components                []ComponentLine `json:"components"`
	TotalEarnings             float64         `json:"total_earnings"`
	GrossSalary               float64         `json:"gross_salary"`
	TotalPercentageDeductions *float64        `json:"total_percentage_deductions"`
	WorkDeduction             float64         `json:"work_deduction"`
	ExpenseClaimsTotal        float64         `json:"expense_claims_total"`
	ManualBonus               float64         `json:"manual_bonus"`
	NetPayable                *float64        `json:"net_payable"`
}

type Slip struct {
	ID           string    `json:"id"`
	BasicProfile string    `json:"basic_profile"`
	FromDate     string    `json:"From_date"`
	ToDate       string    `json:"To_date"`
	TotalAmount  *float64  `json:"total_amount"`
	Deduction    *float64  `json:"deduction"`
	Status       string    `json:"status"`
	Remarks      string    `json:"remarks"`
	Currency     string    `json:"currency"`
	UpdatedAt    time.Time `json:"updated_at"`
	Breakdown    Breakdown `json:"breakdown"`
}

// Adjustment carries the per-profile figures a structure does not know.
type Adjustment struct {
	ProfileID     string  `json:"basicProfileId" validate:"required"`
	WorkDeduction float64 `json:"workDeduction" validate:"gte=0"`
	ManualBonus   float64 `json:"manualBonus" validate:"gte=0"`
	Advances      float64 `json:"advances" validate:"gte=0"`
	Remarks       string  `json:"remarks" validate:"max=500"`
}

type GenerateRequest struct {
	From        string       `json:"from" validate:"required,datetime=2006-01-02"`
	To          string       `json:"to" validate:"required,datetime=2006-01-02"`
	Adjustments []Adjustment `json:"adjustments" validate:"dive"`
	Async       bool         `json:"async"`
}

type GenerateResult struct {
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Queued    bool   `json:"queued"`
	From      string `json:"from"`
	To        string `json:"to"`
}

type Summary struct {
	TotalSlips  int     `json:"totalSlips"`
	PaidSlips   int     `json:"paidSlips"`
	TotalPayout float64 `json:"totalPayout"`
	AvgSalary   float64 `json:"avgSalary"`
	Advances    float64 `json:"advances"`
}
