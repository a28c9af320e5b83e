package salary

import (
	"time"

	"unifiedpro/internal/domain/catalog"
)

type SelectedComponent struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Configuration is the in-progress state of one structure-building session.
type Configuration struct {
	SelectedComponents []SelectedComponent   `json:"selectedComponents"`
	Amounts            map[string]float64    `json:"amounts"`
	PayGrade           *catalog.PayGrade     `json:"payGrade"`
	PayFrequency       *catalog.PayFrequency `json:"payFreq"`
	Deductions         []catalog.Deduction   `json:"deductions"`
	BaseSalary         float64               `json:"baseSalary"`
	EstimatedTotal     float64               `json:"estimatedTotal"`
	Currency           string                `json:"currency"`
}

type ComponentAmount struct {
	ID     string  `json:"id" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// SubmitRequest is the wire payload for creating or replacing a structure.
// ProfileID travels as employeeId: it names the basic profile.
type SubmitRequest struct {
	ProfileID      string            `json:"employeeId"`
	Components     []ComponentAmount `json:"components" validate:"dive"`
	PayGrade       string            `json:"payGrade"`
	PayFrequency   string            `json:"payFrequency"`
	Deductions     []string          `json:"deductions" validate:"dive,required"`
	Currency       string            `json:"currency" validate:"omitempty,iso4217"`
	CatalogVersion int64             `json:"catalogVersion" validate:"gte=0"`
}

type SubmitResult struct {
	ProfileID      string `json:"basicProfileId"`
	CatalogVersion int64  `json:"catalogVersion"`
	Stale          bool   `json:"stale"`
	Totals         Totals `json:"totals"`
	Message        string `json:"message"`
}

type StructureLine struct {
	ComponentID string  `json:"componentId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
}

// Structure is the persisted salary structure of one basic profile.
type Structure struct {
	ProfileID        string              `json:"basicProfileId"`
	EmployeeID       string              `json:"employeeId"`
	EmployeeName     string              `json:"employeeName"`
	Components       []StructureLine     `json:"components"`
	PayGradeID       string              `json:"payGradeId"`
	PayGradeName     string              `json:"payGradeName"`
	PayFrequencyID   string              `json:"payFrequencyId"`
	PayFrequencyName string              `json:"payFrequencyName"`
	Deductions       []catalog.Deduction `json:"deductions"`
	Currency         string              `json:"currency"`
	CatalogVersion   int64               `json:"catalogVersion"`
	Totals           Totals              `json:"totals"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

func (s Structure) Selected() []SelectedComponent {
	out := make([]SelectedComponent, 0, len(s.Components))
	for _, line := range s.Components {
		out = append(out, SelectedComponent{ID: line.ComponentID, Name: line.Name, Category: line.Category, Amount: line.Amount})
	}
	return out
}

// StructureRecord is what the store persists for one submission.
type StructureRecord struct {
	ProfileID      string
	Components     []ComponentAmount
	PayGradeID     string
	PayFrequencyID string
	DeductionIDs   []string
	Currency       string
	CatalogVersion int64
}
