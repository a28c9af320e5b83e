package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"unifiedpro/internal/platform/validation"
)

const (
	SnapshotKeyPrefix = "catalog:snapshot:"
	DefaultCacheTTL   = time.Hour

	snapshotLoadTimeout = 15 * time.Second
)

func SnapshotKey(tenantID string) string {
	return SnapshotKeyPrefix + tenantID
}

// Service hands out catalog snapshots and owns every catalog mutation.
// Redis is optional; without it snapshots are read straight through.
type Service struct {
	store StoreAPI
	rdb   *redis.Client
	sf    singleflight.Group
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time

	PayGrades      *Resource[PayGrade, PayGradeInput]
	Components     *Resource[Component, ComponentInput]
	PayFrequencies *Resource[PayFrequency, PayFrequencyInput]
	Deductions     *Resource[Deduction, DeductionInput]
	JobTypes       *Resource[JobType, JobTypeInput]
	Departments    *Resource[Department, DepartmentInput]
}

func NewService(store StoreAPI, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: store, rdb: rdb, ttl: ttl, log: logger, now: time.Now}
	s.PayGrades = &Resource[PayGrade, PayGradeInput]{svc: s, list: store.ListPayGrades, get: store.GetPayGrade, create: store.CreatePayGrade, update: store.UpdatePayGrade, remove: store.DeletePayGrade}
	s.Components = &Resource[Component, ComponentInput]{svc: s, list: store.ListComponents, get: store.GetComponent, create: store.CreateComponent, update: store.UpdateComponent, remove: store.DeleteComponent}
	s.PayFrequencies = &Resource[PayFrequency, PayFrequencyInput]{svc: s, list: store.ListPayFrequencies, get: store.GetPayFrequency, create: store.CreatePayFrequency, update: store.UpdatePayFrequency, remove: store.DeletePayFrequency}
	s.Deductions = &Resource[Deduction, DeductionInput]{svc: s, list: store.ListDeductions, get: store.GetDeduction, create: store.CreateDeduction, update: store.UpdateDeduction, remove: store.DeleteDeduction}
	s.JobTypes = &Resource[JobType, JobTypeInput]{svc: s, list: store.ListJobTypes, get: store.GetJobType, create: store.CreateJobType, update: store.UpdateJobType, remove: store.DeleteJobType}
	s.Departments = &Resource[Department, DepartmentInput]{svc: s, list: store.ListDepartments, get: store.GetDepartment, create: store.CreateDepartment, update: store.UpdateDepartment, remove: store.DeleteDepartment}
	return s
}

// Snapshot returns the tenant's catalog, from cache when possible.
// Concurrent misses for the same tenant share one load.
func (s *Service) Snapshot(ctx context.Context, tenantID string) (Catalog, error) {
	key := SnapshotKey(tenantID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var snapshot Catalog
			if err := json.Unmarshal(cached, &snapshot); err == nil {
				return snapshot, nil
			}
			s.log.Warn("catalog cache entry unreadable", zap.String("key", key))
		case !errors.Is(err, redis.Nil):
			s.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	ch := s.sf.DoChan(key, func() (any, error) {
		// The shared load outlives any single caller.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotLoadTimeout)
		defer cancel()
		snapshot, err := s.load(lctx, tenantID)
		if err != nil {
			return Catalog{}, err
		}
		s.writeBack(lctx, key, tenantID, snapshot)
		return snapshot, nil
	})
	select {
	case <-ctx.Done():
		return Catalog{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Catalog{}, res.Err
		}
		return res.Val.(Catalog), nil
	}
}

// writeBack caches snapshot unless the catalog version moved while it was
// being loaded.
func (s *Service) writeBack(ctx context.Context, key, tenantID string, snapshot Catalog) {
	if s.rdb == nil {
		return
	}
	current, err := s.store.Version(ctx, tenantID)
	if err != nil {
		s.log.Warn("catalog version recheck failed", zap.String("key", key), zap.Error(err))
		return
	}
	if current != snapshot.Version {
		s.log.Debug("catalog changed during load, not caching",
			zap.String("key", key), zap.Int64("loaded", snapshot.Version), zap.Int64("current", current))
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) load(ctx context.Context, tenantID string) (Catalog, error) {
	out := Catalog{FetchedAt: s.now().UTC()}
	// The version is read before the rows so a concurrent bump is always
	// visible to writeBack.
	version, err := s.store.Version(ctx, tenantID)
	if err != nil {
		return Catalog{}, err
	}
	out.Version = version

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Currency, err = s.store.Currency(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.PayGrades, err = s.store.ListPayGrades(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.Components, err = s.store.ListComponents(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.PayFrequencies, err = s.store.ListPayFrequencies(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.Deductions, err = s.store.ListDeductions(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.BasicProfiles, err = s.store.ProfileSummaries(gctx, tenantID)
		return err
	})

	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}
	return out, nil
}

// Invalidate drops the cached snapshot without changing the version.
func (s *Service) Invalidate(ctx context.Context, tenantID string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, SnapshotKey(tenantID)).Err()
}

// Bump advances the catalog version and drops the cached snapshot. It is
// used by mutations outside this package that change what a snapshot
// contains, such as basic profile changes.
func (s *Service) Bump(ctx context.Context, tenantID string) (int64, error) {
	version, err := s.store.BumpVersion(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, tenantID)
	return version, nil
}

func (s *Service) Version(ctx context.Context, tenantID string) (int64, error) {
	return s.store.Version(ctx, tenantID)
}

func (s *Service) invalidate(ctx context.Context, tenantID string) {
	if err := s.Invalidate(ctx, tenantID); err != nil {
		s.log.Warn("catalog cache invalidate failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

// Resource is the CRUD surface of one catalog entity. Writes validate their
// input and drop the cached snapshot; the store bumps the version.
type Resource[T, In any] struct {
	svc    *Service
	list   func(ctx context.Context, tenantID string) ([]T, error)
	get    func(ctx context.Context, tenantID, id string) (T, error)
	create func(ctx context.Context, tenantID string, in In) (T, error)
	update func(ctx context.Context, tenantID, id string, in In) (T, error)
	remove func(ctx context.Context, tenantID, id string) error
}

func (r *Resource[T, In]) List(ctx context.Context, tenantID string) ([]T, error) {
	return r.list(ctx, tenantID)
}

func (r *Resource[T, In]) Get(ctx context.Context, tenantID, id string) (T, error) {
	return r.get(ctx, tenantID, id)
}

func (r *Resource[T, In]) Create(ctx context.Context, tenantID string, in In) (T, error) {
	var zero T
	if err := validation.Struct(in); err != nil {
		return zero, err
	}
	item, err := r.create(ctx, tenantID, in)
	if err != nil {
		return zero, err
	}
	r.svc.invalidate(ctx, tenantID)
	return item, nil
}

func (r *Resource[T, In]) Update(ctx context.Context, tenantID, id string, in In) (T, error) {
	var zero T
	if err := validation.Struct(in); err != nil {
		return zero, err
	}
	item, err := r.update(ctx, tenantID, id, in)
	if err != nil {
		return zero, err
	}
	r.svc.invalidate(ctx, tenantID)
	return item, nil
}

func (r *Resource[T, In]) Delete(ctx context.Context, tenantID, id string) error {
	if err := r.remove(ctx, tenantID, id); err != nil {
		return err
	}
	r.svc.invalidate(ctx, tenantID)
	return nil
}
