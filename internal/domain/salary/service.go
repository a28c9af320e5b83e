package salary

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/platform/validation"
)

// CatalogSource hands out catalog snapshots and drops cached ones.
type CatalogSource interface {
	Snapshot(ctx context.Context, tenantID string) (catalog.Catalog, error)
	Invalidate(ctx context.Context, tenantID string) error
}

type Service struct {
	store   StoreAPI
	catalog CatalogSource
	log     *zap.Logger
}

func NewService(store StoreAPI, source CatalogSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, catalog: source, log: logger}
}

type resolved struct {
	snapshot   catalog.Catalog
	components []SelectedComponent
	deductions []catalog.Deduction
	currency   string
}

func (s *Service) Create(ctx context.Context, tenantID string, req SubmitRequest) (SubmitResult, error) {
	return s.save(ctx, tenantID, req, false)
}

// UpdateBulk replaces every component line and deduction of the profile.
func (s *Service) UpdateBulk(ctx context.Context, tenantID string, req SubmitRequest) (SubmitResult, error) {
	return s.save(ctx, tenantID, req, true)
}

func (s *Service) save(ctx context.Context, tenantID string, req SubmitRequest, replace bool) (SubmitResult, error) {
	if err := CheckRequest(req); err != nil {
		return SubmitResult{}, err
	}
	res, err := s.resolve(ctx, tenantID, req, true)
	if err != nil {
		return SubmitResult{}, err
	}

	rec := StructureRecord{
		ProfileID:      req.ProfileID,
		PayGradeID:     req.PayGrade,
		PayFrequencyID: req.PayFrequency,
		Currency:       res.currency,
		CatalogVersion: res.snapshot.Version,
	}
	for _, c := range res.components {
		rec.Components = append(rec.Components, ComponentAmount{ID: c.ID, Amount: c.Amount})
	}
	for _, d := range res.deductions {
		rec.DeductionIDs = append(rec.DeductionIDs, d.ID)
	}

	if replace {
		err = s.store.ReplaceStructure(ctx, tenantID, rec)
	} else {
		err = s.store.CreateStructure(ctx, tenantID, rec)
	}
	if err != nil {
		return SubmitResult{}, err
	}
	if err := s.catalog.Invalidate(ctx, tenantID); err != nil {
		s.log.Warn("catalog cache invalidate failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}

	result := SubmitResult{
		ProfileID:      req.ProfileID,
		CatalogVersion: res.snapshot.Version,
		Stale:          req.CatalogVersion > 0 && req.CatalogVersion < res.snapshot.Version,
		Totals:         Compute(res.components, res.deductions),
		Message:        successMessage(replace),
	}
	if result.Stale {
		s.log.Info("structure saved from stale catalog",
			zap.String("tenant_id", tenantID),
			zap.String("basic_profile_id", req.ProfileID),
			zap.Int64("submitted_version", req.CatalogVersion),
			zap.Int64("current_version", res.snapshot.Version),
		)
	}
	return result, nil
}

// Preview computes totals for a payload without the step gate and without
// saving anything.
func (s *Service) Preview(ctx context.Context, tenantID string, req SubmitRequest) (Totals, error) {
	res, err := s.resolve(ctx, tenantID, req, false)
	if err != nil {
		return Totals{}, err
	}
	return Compute(res.components, res.deductions), nil
}

func (s *Service) resolve(ctx context.Context, tenantID string, req SubmitRequest, full bool) (resolved, error) {
	if err := validation.Struct(req); err != nil {
		return resolved{}, err
	}
	snapshot, err := s.catalog.Snapshot(ctx, tenantID)
	if err != nil {
		return resolved{}, fmt.Errorf("load catalog: %w", err)
	}
	out := resolved{snapshot: snapshot, currency: currencyOr(req.Currency, snapshot.Currency)}

	if full {
		if _, ok := snapshot.Profile(req.ProfileID); !ok {
			return resolved{}, &FieldError{Field: "employeeId", Reason: "unknown basic profile", Err: ErrUnknownEmployee}
		}
		if _, ok := snapshot.PayGrade(req.PayGrade); !ok {
			return resolved{}, &FieldError{Field: "payGrade", Reason: "unknown pay grade", Err: ErrUnknownPayGrade}
		}
		if _, ok := snapshot.PayFrequency(req.PayFrequency); !ok {
			return resolved{}, &FieldError{Field: "payFrequency", Reason: "unknown pay frequency", Err: ErrUnknownPayFrequency}
		}
	}

	seen := map[string]bool{}
	for i, c := range req.Components {
		field := fmt.Sprintf("components[%d].id", i)
		item, ok := snapshot.Component(c.ID)
		if !ok {
			return resolved{}, &FieldError{Field: field, Reason: "unknown salary component", Err: ErrUnknownComponent}
		}
		if seen[c.ID] {
			return resolved{}, &FieldError{Field: field, Reason: "duplicate salary component", Err: ErrUnknownComponent}
		}
		seen[c.ID] = true
		out.components = append(out.components, SelectedComponent{ID: item.ID, Name: item.Name, Category: item.Category, Amount: c.Amount})
	}

	seen = map[string]bool{}
	for i, id := range req.Deductions {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		d, ok := snapshot.Deduction(id)
		if !ok {
			return resolved{}, &FieldError{Field: fmt.Sprintf("deductions[%d]", i), Reason: "unknown deduction", Err: ErrUnknownDeduction}
		}
		seen[id] = true
		out.deductions = append(out.deductions, d)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, tenantID, profileID string) (Structure, error) {
	st, err := s.store.GetStructure(ctx, tenantID, profileID)
	if err != nil {
		return Structure{}, err
	}
	st.Totals = Compute(st.Selected(), st.Deductions)
	return st, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Structure, error) {
	items, err := s.store.ListStructures(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Totals = Compute(items[i].Selected(), items[i].Deductions)
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, profileID string) error {
	if err := s.store.DeleteStructure(ctx, tenantID, profileID); err != nil {
		return err
	}
	if err := s.catalog.Invalidate(ctx, tenantID); err != nil {
		s.log.Warn("catalog cache invalidate failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
	return nil
}
