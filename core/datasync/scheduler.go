package datasync

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/YounesFetouaki/edu-path/core"
)

// Scheduler runs the sync periodically on a cron schedule (standard 5 fields, or descriptors like "@every 1h").
type Scheduler struct {
	cron    *cron.Cron
	svc     *Service
	logger  core.Logger
	timeout time.Duration
}

func NewScheduler(svc *Service, logger core.Logger, schedule string, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		svc:     svc,
		logger:  logger,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, errors.Wrapf(err, "invalid sync schedule %q", schedule)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(fmt.Sprintf("datasync: scheduler started (%s)", s.svc.AdaptorName()))
}

// Stop stops the scheduler and waits for a running sync to finish, or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	run, err := s.svc.Run(ctx)
	switch {
	case err == ErrRunInProgress:
		s.logger.Info("datasync: scheduled run skipped, a sync is already running")
	case err != nil:
		s.logger.Error(fmt.Sprintf("datasync: scheduled run: %v", err), err)
	default:
		s.logger.Info(fmt.Sprintf("datasync: scheduled run done: %d record(s) in %s", run.Records, run.Duration()))
	}
}
