package profile

import "context"

type StoreAPI interface {
	ListEmployees(ctx context.Context, tenantID string) ([]Employee, error)
	GetEmployee(ctx context.Context, tenantID, id string) (Employee, error)
	CreateEmployee(ctx context.Context, tenantID string, in EmployeeInput) (Employee, error)
	UpdateEmployee(ctx context.Context, tenantID, id string, in EmployeeInput) (Employee, error)

	ListBasicProfiles(ctx context.Context, tenantID string) ([]BasicProfile, error)
	GetBasicProfile(ctx context.Context, tenantID, id string) (BasicProfile, error)
	CreateBasicProfile(ctx context.Context, tenantID string, in BasicProfileInput) (BasicProfile, error)
	DeleteBasicProfile(ctx context.Context, tenantID, id string) error

	Detailed(ctx context.Context, tenantID, id string) (DetailedProfile, error)
}
