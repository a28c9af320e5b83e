package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Amount is an optional money value that keeps the difference between a
// field that was never sent and one that was sent as null.
type Amount struct {
	Present bool
	Value   *float64
}

func AmountOf(v float64) Amount {
	return Amount{Present: true, Value: &v}
}

func (a Amount) IsZero() bool {
	return !a.Present
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*a.Value)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		a.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	a.Value = &v
	return nil
}

type PayGrade struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Range         string    `json:"range"`
	MinimumSalary float64   `json:"minimum_salary"`
	MaximumSalary float64   `json:"maximum_salary"`
	CreatedAt     time.Time `json:"created_at"`
}

type Component struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	MinimumSalary float64   `json:"minimum_salary"`
	MaximumSalary float64   `json:"maximum_salary"`
	Current       Amount    `json:"current,omitzero"`
	CreatedAt     time.Time `json:"created_at"`
}

type PayFrequency struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Deduction struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Type       string  `json:"type"`
}

type JobType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileSummary is the catalog view of a basic profile: the employee,
// department and job type a salary structure attaches to.
type ProfileSummary struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department"`
	JobType      string `json:"job_type"`
	HasStructure bool   `json:"has_structure"`
}

// Catalog is an immutable, versioned snapshot of everything a structure
// builder chooses from. Holders never refresh it in place; a newer
// Version means a newer snapshot must be fetched.
type Catalog struct {
	Version        int64            `json:"version"`
	FetchedAt      time.Time        `json:"fetched_at"`
	PayGrades      []PayGrade       `json:"paygrades"`
	Components     []Component      `json:"components"`
	PayFrequencies []PayFrequency   `json:"pay_frequency"`
	Deductions     []Deduction      `json:"deductions"`
	Currency       string           `json:"currency"`
	BasicProfiles  []ProfileSummary `json:"basic_profiles"`
}

func (c Catalog) Component(id string) (Component, bool) {
	for _, item := range c.Components {
		if item.ID == id {
			return item, true
		}
	}
	return Component{}, false
}

func (c Catalog) PayGrade(id string) (PayGrade, bool) {
	for _, item := range c.PayGrades {
		if item.ID == id {
			return item, true
		}
	}
	return PayGrade{}, false
}

func (c Catalog) PayFrequency(id string) (PayFrequency, bool) {
	for _, item := range c.PayFrequencies {
		if item.ID == id {
			return item, true
		}
	}
	return PayFrequency{}, false
}

func (c Catalog) Deduction(id string) (Deduction, bool) {
	for _, item := range c.Deductions {
		if item.ID == id {
			return item, true
		}
	}
	return Deduction{}, false
}

func (c Catalog) Profile(id string) (ProfileSummary, bool) {
	for _, item := range c.BasicProfiles {
		if item.ID == id {
			return item, true
		}
	}
	return ProfileSummary{}, false
}

// WithCurrent returns a copy whose components carry the given current
// amounts. Components missing from current keep no current field.
func (c Catalog) WithCurrent(current map[string]float64) Catalog {
	out := c
	out.Components = make([]Component, len(c.Components))
	for i, item := range c.Components {
		if amount, ok := current[item.ID]; ok {
			item.Current = AmountOf(amount)
		} else {
			item.Current = Amount{}
		}
		out.Components[i] = item
	}
	return out
}

func FormatRange(minimum, maximum float64) string {
	return fmt.Sprintf("%.0f - %.0f", minimum, maximum)
}

type PayGradeInput struct {
	Name          string  `json:"name" yaml:"name" validate:"required,max=120"`
	Description   *string `json:"description" yaml:"description" validate:"omitempty,max=500"`
	MinimumSalary float64 `json:"minimum_salary" yaml:"minimum_salary" validate:"gte=0"`
	MaximumSalary float64 `json:"maximum_salary" yaml:"maximum_salary" validate:"gtefield=MinimumSalary"`
}

func (p PayGrade) EntityID() string {
	return p.ID
}

func (p PayGrade) Input() PayGradeInput {
	return PayGradeInput{Name: p.Name, Description: p.Description, MinimumSalary: p.MinimumSalary, MaximumSalary: p.MaximumSalary}
}

type ComponentInput struct {
	Name          string  `json:"name" yaml:"name" validate:"required,max=120"`
	Category      string  `json:"category" yaml:"category" validate:"required,max=64"`
	MinimumSalary float64 `json:"minimum_salary" yaml:"minimum_salary" validate:"gte=0"`
	MaximumSalary float64 `json:"maximum_salary" yaml:"maximum_salary" validate:"gtefield=MinimumSalary"`
}

func (c Component) EntityID() string {
	return c.ID
}

func (c Component) Input() ComponentInput {
	return ComponentInput{Name: c.Name, Category: c.Category, MinimumSalary: c.MinimumSalary, MaximumSalary: c.MaximumSalary}
}

type PayFrequencyInput struct {
	Name string `json:"name" yaml:"name" validate:"required,max=64"`
}

func (p PayFrequency) EntityID() string {
	return p.ID
}

func (p PayFrequency) Input() PayFrequencyInput {
	return PayFrequencyInput{Name: p.Name}
}

type DeductionInput struct {
	Name       string  `json:"name" yaml:"name" validate:"required,max=120"`
	Percentage float64 `json:"percentage" yaml:"percentage" validate:"gte=0,lte=100"`
	Type       string  `json:"type" yaml:"type" validate:"omitempty,max=64"`
}

func (d Deduction) EntityID() string {
	return d.ID
}

func (d Deduction) Input() DeductionInput {
	return DeductionInput{Name: d.Name, Percentage: d.Percentage, Type: d.Type}
}

type JobTypeInput struct {
	Name        string `json:"name" yaml:"name" validate:"required,max=120"`
	Description string `json:"description" yaml:"description" validate:"max=500"`
}

func (j JobType) EntityID() string {
	return j.ID
}

func (j JobType) Input() JobTypeInput {
	return JobTypeInput{Name: j.Name, Description: j.Description}
}

type DepartmentInput struct {
	Name string `json:"name" yaml:"name" validate:"required,max=120"`
}

func (d Department) EntityID() string {
	return d.ID
}

func (d Department) Input() DepartmentInput {
	return DepartmentInput{Name: d.Name}
}
