package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bonuspooldomain "github.com/solventlabs/solvent/internal/bonuspool/domain"
	"github.com/solventlabs/solvent/internal/clock"
	"github.com/solventlabs/solvent/internal/locking"
	"github.com/solventlabs/solvent/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const settleLockKey = "scheduler:settle_cycles"

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	PoolSvc bonuspooldomain.Service
	Locker  *locking.Locker  `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
	Config  Config           `optional:"true"`
}

type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	genID   *snowflake.Node
	clock   clock.Clock
	poolSvc bonuspooldomain.Service
	locker  *locking.Locker
	metrics *metrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.PoolSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:     p.Config.withDefaults(),
		genID:   p.GenID,
		clock:   p.Clock,
		poolSvc: p.PoolSvc,
		locker:  p.Locker,
		metrics: p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(run)
	}
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(run)
	}
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"ensure_open_cycle", func(ctx context.Context) error {
			return s.runJob(ctx, "ensure_open_cycle", s.cfg.JobTimeout, s.EnsureOpenCycleJob)
		}},
		{"settle_cycles", func(ctx context.Context) error {
			return s.runJob(ctx, "settle_cycles", s.cfg.JobTimeout, s.SettleCyclesJob)
		}},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs means all jobs run (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) EnsureOpenCycleJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "ensure_open_cycle")
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}

	if _, err := s.poolSvc.EnsureOpenCycle(ctx); err != nil {
		s.logJobError(run, "ensure_open_cycle", err)
		return err
	}
	run.AddProcessed(1)
	return nil
}

func (s *Scheduler) SettleCyclesJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "settle_cycles")
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}

	token, acquired, err := s.locker.TryLock(ctx, settleLockKey, s.cfg.LockTTL)
	if err != nil {
		// The conditional status update still guards the settlement itself.
		s.log.Warn("settle lock unavailable, proceeding without it", zap.Error(err))
	} else if !acquired {
		s.log.Info("settle lock held elsewhere, skipping run")
		return nil
	} else {
		defer func() {
			if rerr := s.locker.Release(ctx, settleLockKey, token); rerr != nil {
				s.log.Warn("settle lock release failed", zap.Error(rerr))
			}
		}()
	}

	var jobErr error
	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		result, err := s.poolSvc.SettleDue(ctx)
		if err == bonuspooldomain.ErrAlreadySettled {
			// Lost the claim to a concurrent settler; nothing left to do.
			break
		}
		if err != nil {
			s.logJobError(run, "settle_cycles", err)
			jobErr = errors.Join(jobErr, err)
			break
		}
		if result == nil {
			break
		}

		run.AddProcessed(1)
		s.log.Info("cycle settled by scheduler",
			zap.Int64("sequence", result.Cycle.Sequence),
			zap.Int("payouts", len(result.Payouts)),
			zap.Int64("dust", result.Dust),
		)
	}

	return jobErr
}
