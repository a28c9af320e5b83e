package catalog

import "context"

type StoreAPI interface {
	Version(ctx context.Context, tenantID string) (int64, error)
	BumpVersion(ctx context.Context, tenantID string) (int64, error)
	Currency(ctx context.Context, tenantID string) (string, error)
	ProfileSummaries(ctx context.Context, tenantID string) ([]ProfileSummary, error)

	ListPayGrades(ctx context.Context, tenantID string) ([]PayGrade, error)
	GetPayGrade(ctx context.Context, tenantID, id string) (PayGrade, error)
	CreatePayGrade(ctx context.Context, tenantID string, in PayGradeInput) (PayGrade, error)
	UpdatePayGrade(ctx context.Context, tenantID, id string, in PayGradeInput) (PayGrade, error)
	DeletePayGrade(ctx context.Context, tenantID, id string) error

	ListComponents(ctx context.Context, tenantID string) ([]Component, error)
	GetComponent(ctx context.Context, tenantID, id string) (Component, error)
	CreateComponent(ctx context.Context, tenantID string, in ComponentInput) (Component, error)
	UpdateComponent(ctx context.Context, tenantID, id string, in ComponentInput) (Component, error)
	DeleteComponent(ctx context.Context, tenantID, id string) error

	ListPayFrequencies(ctx context.Context, tenantID string) ([]PayFrequency, error)
	GetPayFrequency(ctx context.Context, tenantID, id string) (PayFrequency, error)
	CreatePayFrequency(ctx context.Context, tenantID string, in PayFrequencyInput) (PayFrequency, error)
	UpdatePayFrequency(ctx context.Context, tenantID, id string, in PayFrequencyInput) (PayFrequency, error)
	DeletePayFrequency(ctx context.Context, tenantID, id string) error

	ListDeductions(ctx context.Context, tenantID string) ([]Deduction, error)
	GetDeduction(ctx context.Context, tenantID, id string) (Deduction, error)
	CreateDeduction(ctx context.Context, tenantID string, in DeductionInput) (Deduction, error)
	UpdateDeduction(ctx context.Context, tenantID, id string, in DeductionInput) (Deduction, error)
	DeleteDeduction(ctx context.Context, tenantID, id string) error

	ListJobTypes(ctx context.Context, tenantID string) ([]JobType, error)
	GetJobType(ctx context.Context, tenantID, id string) (JobType, error)
	CreateJobType(ctx context.Context, tenantID string, in JobTypeInput) (JobType, error)
	UpdateJobType(ctx context.Context, tenantID, id string, in JobTypeInput) (JobType, error)
	DeleteJobType(ctx context.Context, tenantID, id string) error

	ListDepartments(ctx context.Context, tenantID string) ([]Department, error)
	GetDepartment(ctx context.Context, tenantID, id string) (Department, error)
	CreateDepartment(ctx context.Context, tenantID string, in DepartmentInput) (Department, error)
	UpdateDepartment(ctx context.Context, tenantID, id string, in DepartmentInput) (Department, error)
	DeleteDepartment(ctx context.Context, tenantID, id string) error
}
