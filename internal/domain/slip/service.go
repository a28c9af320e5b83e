package slip

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"unifiedpro/internal/domain/salary"
	"unifiedpro/internal/platform/jobs"
	"unifiedpro/internal/platform/validation"
)

// StructureSource lists the salary structures slips are generated from.
type StructureSource interface {
	List(ctx context.Context, tenantID string) ([]salary.Structure, error)
}

// JobRunner runs work and records it as a job run.
type JobRunner interface {
	RunNow(ctx context.Context, jobType, tenantID string, run jobs.RunFunc) (any, error)
	Enqueue(jobType, tenantID string, run jobs.RunFunc) bool
}

type Service struct {
	store      StoreAPI
	structures StructureSource
	jobs       JobRunner
	log        *zap.Logger
}

func NewService(store StoreAPI, structures StructureSource, runner JobRunner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, structures: structures, jobs: runner, log: logger}
}

// Generate builds draft slips for every structured profile in the period.
// With req.Async the work is queued and the result only reports that.
func (s *Service) Generate(ctx context.Context, tenantID string, req GenerateRequest) (GenerateResult, error) {
	if err := validation.Struct(req); err != nil {
		return GenerateResult{}, err
	}
	from, _ := time.Parse(time.DateOnly, req.From)
	to, _ := time.Parse(time.DateOnly, req.To)
	if to.Before(from) {
		return GenerateResult{}, fmt.Errorf("period ends before it starts: %w", ErrInvalidPeriod)
	}

	run := func(ctx context.Context) (any, error) {
		return s.generate(ctx, tenantID, req)
	}
	if req.Async {
		if !s.jobs.Enqueue(jobs.JobSlipGeneration, tenantID, run) {
			return GenerateResult{}, ErrQueueFull
		}
		return GenerateResult{Queued: true, From: req.From, To: req.To}, nil
	}

	out, err := s.jobs.RunNow(ctx, jobs.JobSlipGeneration, tenantID, run)
	if err != nil {
		return GenerateResult{}, err
	}
	return out.(GenerateResult), nil
}

func (s *Service) generate(ctx context.Context, tenantID string, req GenerateRequest) (GenerateResult, error) {
	structures, err := s.structures.List(ctx, tenantID)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("list structures: %w", err)
	}
	if len(structures) == 0 {
		return GenerateResult{}, ErrNoStructures
	}

	adjustments := make(map[string]Adjustment, len(req.Adjustments))
	for _, adj := range req.Adjustments {
		adjustments[adj.ProfileID] = adj
	}

	period := Period{From: req.From, To: req.To}
	slips := make([]Slip, 0, len(structures))
	for _, st := range structures {
		slips = append(slips, Build(st, period, adjustments[st.ProfileID]))
	}

	written, err := s.store.Upsert(ctx, tenantID, slips)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("store slips: %w", err)
	}
	s.log.Info("salary slips generated",
		zap.String("tenant_id", tenantID),
		zap.String("from", req.From),
		zap.Int("generated", written),
		zap.Int("skipped", len(slips)-written),
	)
	return GenerateResult{Generated: written, Skipped: len(slips) - written, From: req.From, To: req.To}, nil
}

// List returns the slips matching f, the summary of the unfiltered set and
// the months available for filtering.
func (s *Service) List(ctx context.Context, tenantID string, f Filter) ([]Slip, Summary, []string, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, Summary{}, nil, err
	}
	all, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, Summary{}, nil, err
	}
	return Apply(all, f), Summarize(all), Months(all), nil
}

func (s *Service) Summary(ctx context.Context, tenantID string) (Summary, error) {
	all, err := s.store.List(ctx, tenantID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all), nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Slip, error) {
	sl, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return Slip{}, err
	}
	if !sl.Reconciles(ReconcileTolerance) {
		s.log.Warn("salary slip does not reconcile",
			zap.String("tenant_id", tenantID),
			zap.String("slip_id", id),
			zap.Float64("net", sl.Net()),
			zap.Float64("expected_net", sl.ExpectedNet()),
		)
	}
	return sl, nil
}

func (s *Service) MarkPaid(ctx context.Context, tenantID, id string) (Slip, error) {
	return s.store.MarkPaid(ctx, tenantID, id)
}
