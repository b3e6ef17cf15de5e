package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/infrastructure"
)

// Job is one scheduled unit of work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron specs with seconds precision. A job
// never overlaps with itself; a tick that arrives while the previous run is
// still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
	jobs    map[string]cron.Job
}

// New creates a scheduler. metrics may be nil.
func New(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "scheduler"))
	cronLogger := slogCronLogger{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:  logger,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
		jobs:    make(map[string]cron.Job),
	}
}

// Register adds job under name. Names are unique.
func (s *Scheduler) Register(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return apperrors.NewSchedulerError(fmt.Sprintf("job %q already registered", name), nil)
	}

	wrapped := cron.FuncJob(func() { s.execute(name, job) })
	id, err := s.cron.AddJob(spec, wrapped)
	if err != nil {
		return apperrors.NewSchedulerError(fmt.Sprintf("register job %q", name), err).
			WithContext("spec", spec)
	}

	s.entries[name] = id
	// the entry's WrappedJob carries the skip-if-running chain
	s.jobs[name] = s.cron.Entry(id).WrappedJob

	s.logger.Info("job registered",
		slog.String("job", name),
		slog.String("spec", spec))
	return nil
}

// RunNow triggers name immediately through the same chain as a cron tick,
// so it is skipped if a run is already in progress. It blocks until done.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return apperrors.NewSchedulerError(fmt.Sprintf("job %q not registered", name), nil)
	}
	job.Run()
	return nil
}

// Next returns the next scheduled time of name, or zero before Start.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return apperrors.NewSchedulerError("stop scheduler", ctx.Err())
	}
}

func (s *Scheduler) execute(name string, job Job) {
	runID := uuid.New().String()
	ctx := infrastructure.WithTraceID(s.ctx, runID)
	logger := infrastructure.WithFields(s.logger, map[string]interface{}{
		"job":    name,
		"run_id": runID,
	})

	start := time.Now()
	logger.InfoContext(ctx, "scheduled run started")

	err := job(ctx)
	infrastructure.RecordScheduledRun(context.WithoutCancel(ctx), s.metrics, name, err)

	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "scheduled run failed",
			slog.Duration("duration", time.Since(start)))
		return
	}
	logger.InfoContext(ctx, "scheduled run completed", slog.Duration("duration", time.Since(start)))
}

// slogCronLogger adapts slog to cron.Logger
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
