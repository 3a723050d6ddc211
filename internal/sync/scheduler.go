package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// State is the state of the scheduled job.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Status describes the last scheduled run.
type Status struct {
	State      State
	LastRun    time.Time
	LastResult Result
	Err        error
}

// Job is one scheduled sync pass.
type Job func(ctx context.Context) (Result, error)

// Scheduler runs a Job on a cron schedule. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     cron.Job
	run     Job
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time

	mu     gosync.Mutex
	base   context.Context
	status Status
}

// NewScheduler parses spec (standard five-field cron or a descriptor such
// as "@every 5m") and prepares job. timeout bounds each run; zero means
// no bound.
func NewScheduler(spec string, timeout time.Duration, job Job, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	clog := cronLogger{log: log.Sugar()}
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(clog)),
		run:     job,
		timeout: timeout,
		log:     log,
		now:     time.Now,
		base:    context.Background(),
	}
	s.job = cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).
		Then(cron.FuncJob(s.runOnce))

	if _, err := s.cron.AddJob(spec, s.job); err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running the job on schedule in the background. Every
// run, including RunNow, derives its context from ctx, so cancelling ctx
// cancels an in-flight sync.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()
	s.cron.Start()
}

// Stop halts the schedule. The returned context is done once a running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunNow runs the job immediately on the calling goroutine, unless a run
// is already in progress.
func (s *Scheduler) RunNow() {
	s.job.Run()
}

// Status returns a copy of the current status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) runOnce() {
	s.setStatus(func(st *Status) { st.State = StateRunning })

	s.mu.Lock()
	ctx := s.base
	s.mu.Unlock()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := s.now()
	res, err := s.run(ctx)

	s.setStatus(func(st *Status) {
		st.LastRun = started
		st.LastResult = res
		st.Err = err
		st.State = StateIdle
		if err != nil {
			st.State = StateError
		}
	})

	if err != nil {
		s.log.Error("scheduled sync failed", zap.Error(err))
		return
	}
	s.log.Info("scheduled sync finished",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Duration("elapsed", s.now().Sub(started)))
}

func (s *Scheduler) setStatus(update func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.status)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
