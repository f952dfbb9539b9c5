package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/jobquest/jobquest/internal/infrastructure/scheduler"
	"github.com/jobquest/jobquest/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains status server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8081".
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns settings suitable for a local worker.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// JobLister is the part of the scheduler the status server reads.
type JobLister interface {
	ListJobs() []scheduler.JobInfo
	GetMetrics() *scheduler.SchedulerMetrics
	IsRunning() bool
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server exposes /healthz and /jobs.
type Server struct {
	config  Config
	health  *HealthChecker
	jobs    JobLister
	logger  *logger.Logger
	server  *http.Server
	running atomic.Bool
}

// NewServer wires the routes. jobs may be nil when the scheduler is disabled.
func NewServer(config Config, health *HealthChecker, jobs JobLister, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	s := &Server{
		config: config,
		health: health,
		jobs:   jobs,
		logger: log.With(logger.Component("status-http")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /jobs", s.handleJobs)

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      s.observe(mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// StartAsync starts listening in a goroutine. The channel receives the
// listener error, if any, and is closed when the server stops.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	s.running.Store(true)
	s.logger.Info("status server listening", logger.String("addr", s.config.Addr))
	go func() {
		defer close(errCh)
		defer s.running.Store(false)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("status server shutting down")
	return s.server.Shutdown(ctx)
}

// IsRunning reports whether the listener is up.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// JobView is one scheduled job as reported by /jobs.
type JobView struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	Enabled   bool      `json:"enabled"`
	NextRun   time.Time `json:"next_run"`
	LastRun   time.Time `json:"last_run,omitzero"`
	RunCount  int64     `json:"run_count"`
	FailCount int64     `json:"fail_count"`
	LastError string    `json:"last_error,omitempty"`
}

// JobsReport is the /jobs response body.
type JobsReport struct {
	Running     bool      `json:"running"`
	Jobs        []JobView `json:"jobs"`
	Executions  int64     `json:"executions"`
	Failures    int64     `json:"failures"`
	SuccessRate float64   `json:"success_rate"`
}

func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	if s.jobs == nil {
		writeJSON(w, http.StatusOK, JobsReport{Jobs: []JobView{}})
		return
	}

	list := s.jobs.ListJobs()
	report := JobsReport{Running: s.jobs.IsRunning(), Jobs: make([]JobView, 0, len(list))}
	for _, j := range list {
		v := JobView{
			Name:      j.Name,
			Schedule:  j.Schedule,
			Enabled:   j.Enabled,
			NextRun:   j.NextRun,
			LastRun:   j.LastRun,
			RunCount:  j.RunCount,
			FailCount: j.FailCount,
		}
		if j.LastResult != nil && j.LastResult.Error != nil {
			v.LastError = j.LastResult.Error.Error()
		}
		report.Jobs = append(report.Jobs, v)
	}
	if m := s.jobs.GetMetrics(); m != nil {
		snap := m.Snapshot()
		report.Executions = snap.TotalExecutions
		report.Failures = snap.TotalFailures
		report.SuccessRate = snap.SuccessRate
	}
	writeJSON(w, http.StatusOK, report)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe logs each request at debug level and turns a handler panic into
// a 500.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("panic recovered", logger.Any("panic", p), logger.String("path", r.URL.Path), logger.String("stack", string(debug.Stack())))
				writeJSON(rec, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
			s.logger.Debug("http request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", rec.status),
				logger.Latency(time.Since(start)),
			)
		}()
		next.ServeHTTP(rec, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
