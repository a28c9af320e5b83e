package profile

import (
	"context"

	"go.uber.org/zap"

	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/platform/validation"
)

// CatalogBumper advances the catalog version after changes to data that
// catalog snapshots include.
type CatalogBumper interface {
	Bump(ctx context.Context, tenantID string) (int64, error)
}

type Service struct {
	store   StoreAPI
	catalog CatalogBumper
	log     *zap.Logger
}

func NewService(store StoreAPI, bumper CatalogBumper, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, catalog: bumper, log: logger}
}

func (s *Service) bump(ctx context.Context, tenantID string) {
	if s.catalog == nil {
		return
	}
	if _, err := s.catalog.Bump(ctx, tenantID); err != nil {
		s.log.Warn("catalog version bump failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

func (s *Service) ListEmployees(ctx context.Context, tenantID string) ([]Employee, error) {
	return s.store.ListEmployees(ctx, tenantID)
}

func (s *Service) GetEmployee(ctx context.Context, tenantID, id string) (Employee, error) {
	return s.store.GetEmployee(ctx, tenantID, id)
}

func (s *Service) CreateEmployee(ctx context.Context, tenantID string, in EmployeeInput) (Employee, error) {
	if err := validation.Struct(in); err != nil {
		return Employee{}, err
	}
	return s.store.CreateEmployee(ctx, tenantID, in)
}

// UpdateEmployee bumps the catalog because snapshots carry employee names.
func (s *Service) UpdateEmployee(ctx context.Context, tenantID, id string, in EmployeeInput) (Employee, error) {
	if err := validation.Struct(in); err != nil {
		return Employee{}, err
	}
	e, err := s.store.UpdateEmployee(ctx, tenantID, id, in)
	if err != nil {
		return Employee{}, err
	}
	s.bump(ctx, tenantID)
	return e, nil
}

func (s *Service) ListBasicProfiles(ctx context.Context, tenantID string) ([]BasicProfile, error) {
	return s.store.ListBasicProfiles(ctx, tenantID)
}

func (s *Service) CreateBasicProfile(ctx context.Context, tenantID string, in BasicProfileInput) (BasicProfile, error) {
	if err := validation.Struct(in); err != nil {
		return BasicProfile{}, err
	}
	b, err := s.store.CreateBasicProfile(ctx, tenantID, in)
	if err != nil {
		return BasicProfile{}, err
	}
	s.bump(ctx, tenantID)
	return b, nil
}

func (s *Service) DeleteBasicProfile(ctx context.Context, tenantID, id string) error {
	if err := s.store.DeleteBasicProfile(ctx, tenantID, id); err != nil {
		return err
	}
	s.bump(ctx, tenantID)
	return nil
}

// Detailed returns the profile with its current structure. Lists are never
// nil so an unstructured profile serialises as empty arrays.
func (s *Service) Detailed(ctx context.Context, tenantID, id string) (DetailedProfile, error) {
	d, err := s.store.Detailed(ctx, tenantID, id)
	if err != nil {
		return DetailedProfile{}, err
	}
	if d.SalaryStructures == nil {
		d.SalaryStructures = []StructureLine{}
	}
	if d.Deductions == nil {
		d.Deductions = []catalog.Deduction{}
	}
	return d, nil
}
