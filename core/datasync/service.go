package datasync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/YounesFetouaki/edu-path/core"
)

const (
	defaultRunsLimit = 20
	recordTimeout    = 5 * time.Second
)

var (
	ErrRunInProgress = core.NewConflictError("a sync is already running")

	NowFunc = time.Now // mockable
)

type Service struct {
	adaptor  Adaptor
	recorder Recorder
	logger   core.Logger
	running  atomic.Bool
}

func NewService(adaptor Adaptor, recorder Recorder, logger core.Logger) *Service {
	return &Service{
		adaptor:  adaptor,
		recorder: recorder,
		logger:   logger,
	}
}

func (svc *Service) AdaptorName() string {
	return svc.adaptor.Name()
}

// Run connects to the adaptor, prepares and fetches its data. Only one run may be in progress at a time.
// A connection failure is reported as a *core.UnavailableError; other adaptor errors are returned wrapped.
// Failed runs are recorded too.
func (svc *Service) Run(ctx context.Context) (Run, error) {
	if !svc.running.CompareAndSwap(false, true) {
		return Run{}, ErrRunInProgress
	}
	defer svc.running.Store(false)

	run := Run{
		Adaptor:   svc.adaptor.Name(),
		StartedAt: NowFunc().UTC(),
	}

	res, err := svc.execute(ctx)
	run.FinishedAt = NowFunc().UTC()
	if err != nil {
		run.Status = StatusFailed
		run.Message = err.Error()
		return svc.record(ctx, run), err
	}

	run.Status = StatusSuccess
	run.Records = res.Records
	run.Message = res.Message
	if len(res.Payload) > 0 {
		run.Payload = null.JSONFrom(res.Payload)
	}
	return svc.record(ctx, run), nil
}

func (svc *Service) execute(ctx context.Context) (Result, error) {
	name := svc.adaptor.Name()
	if err := svc.adaptor.Connect(ctx); err != nil {
		return Result{}, core.NewUnavailableError(name, err)
	}
	if err := svc.adaptor.Prepare(ctx); err != nil {
		return Result{}, errors.Wrapf(err, "%s: preparing data", name)
	}
	res, err := svc.adaptor.Fetch(ctx)
	if err != nil {
		return Result{}, errors.Wrapf(err, "%s: fetching data", name)
	}
	return res, nil
}

// record saves the run; a recording failure is logged, not returned: the sync itself happened.
// The run is saved even when ctx is already done.
func (svc *Service) record(ctx context.Context, run Run) Run {
	if svc.recorder == nil {
		return run
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	saved, err := svc.recorder.RecordRun(ctx, run)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("datasync: recording %s run: %v", run.Adaptor, err), err)
		return run
	}
	return saved
}

func (svc *Service) LatestRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	if svc.recorder == nil {
		return []Run{}, nil
	}
	return svc.recorder.QueryRuns(ctx, limit)
}
