package jobs

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	JobSlipGeneration = "salary_slip_generation"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	DefaultQueueSize = 128
)

// RunRecorder persists one row per job run.
type RunRecorder interface {
	Begin(ctx context.Context, tenantID, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details []byte) error
}

type RunFunc func(context.Context) (any, error)

type Service struct {
	recorder RunRecorder
	log      *zap.Logger
	queue    chan job
	wg       sync.WaitGroup
}

type job struct {
	Type     string
	TenantID string
	Run      RunFunc
}

func New(recorder RunRecorder, queueSize int, logger *zap.Logger) *Service {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		recorder: recorder,
		log:      logger,
		queue:    make(chan job, queueSize),
	}
}

// Start runs the queue worker until ctx is done.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

// Wait blocks until the worker started by Start has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue schedules a run and reports whether the queue had room.
func (s *Service) Enqueue(jobType, tenantID string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		s.log.Warn("job queue full", zap.String("job_type", jobType), zap.String("tenant_id", tenantID))
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.log.Warn("job run failed", zap.String("job_type", j.Type), zap.String("tenant_id", j.TenantID), zap.Error(err))
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.recorder != nil {
		id, err := s.recorder.Begin(ctx, j.TenantID, j.Type)
		if err != nil {
			s.log.Warn("job run insert failed", zap.String("job_type", j.Type), zap.Error(err))
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	recorded := details
	if err != nil {
		status = StatusFailed
		recorded = map[string]any{"error": err.Error(), "details": details}
	}
	detailsJSON, marshalErr := json.Marshal(recorded)
	if marshalErr != nil {
		s.log.Warn("job details marshal failed", zap.Error(marshalErr))
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.recorder.Finish(ctx, runID, status, detailsJSON); updErr != nil {
			s.log.Warn("job run update failed", zap.String("run_id", runID), zap.Error(updErr))
		}
	}
	return details, err
}
