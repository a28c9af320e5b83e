package profile

import (
	"strings"
	"time"

	"unifiedpro/internal/domain/catalog"
)

type Employee struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

type EmployeeInput struct {
	FirstName string `json:"first_name" validate:"required,max=120"`
	LastName  string `json:"last_name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Status    string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (e Employee) Input() EmployeeInput {
	return EmployeeInput{FirstName: e.FirstName, LastName: e.LastName, Email: e.Email, Status: e.Status}
}

type BasicProfile struct {
	ID             string    `json:"id"`
	EmployeeID     string    `json:"employee_id"`
	EmployeeName   string    `json:"employee_name"`
	DepartmentID   string    `json:"department_id"`
	DepartmentName string    `json:"department_name"`
	JobTypeID      string    `json:"job_type_id"`
	JobTypeName    string    `json:"job_type_name"`
	HasStructure   bool      `json:"has_structure"`
	CreatedAt      time.Time `json:"created_at"`
}

type BasicProfileInput struct {
	EmployeeID   string `json:"employee_id" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	JobTypeID    string `json:"job_type_id" validate:"required"`
}

// StructureLine is one component row of an existing salary structure.
type StructureLine struct {
	SalaryComponent catalog.Component     `json:"salary_component"`
	PayAmount       float64               `json:"pay_amount"`
	PayGrade        *catalog.PayGrade     `json:"pay_grade"`
	PayFrequency    *catalog.PayFrequency `json:"pay_frequency"`
}

// DetailedProfile is a basic profile with its current salary structure,
// the source used to reopen a structure for editing.
type DetailedProfile struct {
	ID               string              `json:"id"`
	Employee         Employee            `json:"employee"`
	Department       catalog.Department  `json:"department"`
	JobType          catalog.JobType     `json:"job_type"`
	SalaryStructures []StructureLine     `json:"salary_structures"`
	Deductions       []catalog.Deduction `json:"deductions"`
	Currency         string              `json:"currency"`
}

func (d DetailedProfile) Summary() catalog.ProfileSummary {
	return catalog.ProfileSummary{
		ID:           d.ID,
		EmployeeID:   d.Employee.ID,
		EmployeeName: d.Employee.FullName(),
		Department:   d.Department.Name,
		JobType:      d.JobType.Name,
		HasStructure: len(d.SalaryStructures) > 0,
	}
}
