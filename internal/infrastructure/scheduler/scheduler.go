// Package scheduler runs the JobQuest background jobs: follow-up reminders
// and the day-start mission reset.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jobquest/jobquest/pkg/timeutil"
)

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrNilSchedule             = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrJobPanicked             = errors.New("job panicked")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// Job is one unit of background work.
type Job interface {
	Name() string
	Description() string

	// Run does the work. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error
}

// Schedule decides when a job runs next.
type Schedule interface {
	// Next returns the first activation strictly after t.
	Next(t time.Time) time.Time
	String() string
}

// JobResult describes one run.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
	Manual      bool
}

// JobInfo is a read-only view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Enabled     bool
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
	RunCount    int64
	FailCount   int64
	LastResult  *JobResult
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// SchedulerConfig configures NewScheduler. Zero values get defaults.
type SchedulerConfig struct {
	Logger *slog.Logger

	// Timezone is where schedules are evaluated (default UTC).
	Timezone *time.Location

	// Clock decides when jobs are due (default wall clock). Tests pin it.
	Clock timeutil.Clock

	// TickInterval is how often due jobs are looked for (default 1s).
	TickInterval time.Duration

	MaxHistorySize int
	EnableMetrics  bool
}

type entry struct {
	job       Job
	schedule  Schedule
	enabled   bool
	inFlight  bool
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	failCount int64
	last      *JobResult
}

// Scheduler starts registered jobs when their schedule comes due. A job
// never overlaps with itself: a tick that finds it still running skips it.
type Scheduler struct {
	cfg     SchedulerConfig
	logger  *slog.Logger
	metrics *SchedulerMetrics

	mu        sync.RWMutex
	entries   map[string]*entry
	history   []JobResult
	onDone    func(JobResult)
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time
	wg        sync.WaitGroup
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.SystemClock{Location: cfg.Timezone}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.MaxHistorySize <= 0 {
		cfg.MaxHistorySize = 100
	}
	s := &Scheduler{
		cfg:     cfg,
		logger:  cfg.Logger,
		entries: make(map[string]*entry),
	}
	if cfg.EnableMetrics {
		s.metrics = NewSchedulerMetrics()
	}
	return s
}

func (s *Scheduler) now() time.Time {
	return s.cfg.Clock.Now().In(s.cfg.Timezone)
}

// Register adds job. Its first run is the schedule's next activation after now.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	e := &entry{job: job, schedule: schedule, enabled: true, nextRun: schedule.Next(s.now())}
	s.entries[name] = e

	s.logger.Info("job registered", "job", name, "schedule", schedule.String(), "next_run", e.nextRun.Format(time.RFC3339))
	return nil
}

// SetEnabled pauses or resumes a job. Resuming recomputes the next run from now.
func (s *Scheduler) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if enabled && !e.enabled {
		e.nextRun = e.schedule.Next(s.now())
	}
	e.enabled = enabled
	s.logger.Info("job toggled", "job", name, "enabled", enabled)
	return nil
}

// OnJobComplete sets a callback run after every job, scheduled or manual.
func (s *Scheduler) OnJobComplete(fn func(JobResult)) {
	s.mu.Lock()
	s.onDone = fn
	s.mu.Unlock()
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start launches the tick loop. Jobs run under a child of ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.startedAt = time.Now()

	s.wg.Add(1)
	go s.loop()
	s.logger.Info("scheduler started", "jobs_count", len(s.entries), "tick", s.cfg.TickInterval.String())
	return nil
}

// Stop cancels running jobs' context and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped", "uptime", time.Since(s.startedAt).Round(time.Second).String())
	return nil
}

// IsRunning reports whether the tick loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.startDue()
		}
	}
}

// startDue claims every enabled, idle job whose next run has passed and
// runs each on its own goroutine.
func (s *Scheduler) startDue() {
	now := s.now()

	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !e.enabled || e.inFlight || e.nextRun.IsZero() || now.Before(e.nextRun) {
			continue
		}
		e.inFlight = true
		e.lastRun = now
		e.nextRun = e.schedule.Next(now)
		e.runCount++
		due = append(due, e)
	}
	ctx := s.ctx
	s.wg.Add(len(due))
	s.mu.Unlock()

	for _, e := range due {
		go func(e *entry) {
			defer s.wg.Done()
			s.execute(ctx, e, false)
		}(e)
	}
}

// RunNow runs a job immediately on the caller's goroutine, ignoring its
// schedule. The job's error, if any, is returned alongside the result.
func (s *Scheduler) RunNow(ctx context.Context, name string) (*JobResult, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	res := s.execute(ctx, e, true)
	return &res, res.Error
}

func (s *Scheduler) execute(ctx context.Context, e *entry, manual bool) JobResult {
	name := e.job.Name()
	s.logger.Info("job started", "job", name, "manual", manual)

	res := JobResult{JobName: name, StartedAt: time.Now(), Manual: manual}
	res.Error = runRecovered(ctx, e.job)
	res.CompletedAt = time.Now()
	res.Duration = res.CompletedAt.Sub(res.StartedAt)
	res.Success = res.Error == nil

	if s.metrics != nil {
		s.metrics.RecordExecution(res.Duration, res.Success)
	}

	s.mu.Lock()
	if !manual {
		e.inFlight = false
	}
	if !res.Success {
		e.failCount++
	}
	e.last = &res
	s.history = append(s.history, res)
	if over := len(s.history) - s.cfg.MaxHistorySize; over > 0 {
		s.history = s.history[over:]
	}
	hook := s.onDone
	s.mu.Unlock()

	if res.Success {
		s.logger.Info("job completed", "job", name, "duration", res.Duration.String())
	} else {
		s.logger.Error("job failed", "job", name, "duration", res.Duration.String(), "error", res.Error)
	}
	if hook != nil {
		hook(res)
	}
	return res
}

func runRecovered(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return job.Run(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// INSPECTION
// ══════════════════════════════════════════════════════════════════════════════

// ListJobs returns every registered job, sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, e.info(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Job returns one job's view.
func (s *Scheduler) Job(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return e.info(name), nil
}

func (e *entry) info(name string) JobInfo {
	return JobInfo{
		Name:        name,
		Description: e.job.Description(),
		Enabled:     e.enabled,
		Schedule:    e.schedule.String(),
		LastRun:     e.lastRun,
		NextRun:     e.nextRun,
		RunCount:    e.runCount,
		FailCount:   e.failCount,
		LastResult:  e.last,
	}
}

// History returns up to limit recent results, oldest first. limit <= 0 means all.
func (s *Scheduler) History(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	return append([]JobResult(nil), s.history[len(s.history)-limit:]...)
}

// GetMetrics returns the counters, nil when disabled.
func (s *Scheduler) GetMetrics() *SchedulerMetrics {
	return s.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// SchedulerMetrics counts job runs.
type SchedulerMetrics struct {
	mu       sync.RWMutex
	runs     int64
	failures int64
	busy     time.Duration
}

// NewSchedulerMetrics returns zeroed counters.
func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{}
}

// RecordExecution counts one run.
func (m *SchedulerMetrics) RecordExecution(d time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.busy += d
	if !ok {
		m.failures++
	}
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	TotalExecutions int64
	TotalSuccesses  int64
	TotalFailures   int64
	SuccessRate     float64
	AverageDuration time.Duration
}

// Snapshot copies the counters.
func (m *SchedulerMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		TotalExecutions: m.runs,
		TotalSuccesses:  m.runs - m.failures,
		TotalFailures:   m.failures,
	}
	if m.runs > 0 {
		snap.SuccessRate = float64(snap.TotalSuccesses) / float64(m.runs)
		snap.AverageDuration = m.busy / time.Duration(m.runs)
	}
	return snap
}
