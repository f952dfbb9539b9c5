package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/infrastructure/persistence/memory"
	"github.com/jobquest/jobquest/internal/infrastructure/scheduler"
	"github.com/jobquest/jobquest/pkg/logger"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

type stubJob struct {
	name string
	err  error
}

func (j stubJob) Name() string              { return j.name }
func (j stubJob) Description() string       { return "stub" }
func (j stubJob) Run(context.Context) error { return j.err }

func quietLogger() *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Output = &bytes.Buffer{}
	return logger.New(opts)
}

func get(t *testing.T, h http.Handler, path string, into any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
	return rec.Code
}

func TestHealthChecker_AllPass(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.AddCheck("storage", PingCheck(memory.New()))

	st := hc.Check(context.Background())
	assert.True(t, st.Healthy)
	assert.Equal(t, "All checks passed", st.Message)
	assert.Equal(t, "OK", st.Checks["storage"].Message)
}

func TestHealthChecker_FailuresAreListed(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Close())

	hc := NewHealthChecker("test")
	hc.AddCheck("storage", PingCheck(store))
	hc.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	hc.AddCheck("ok", func(context.Context) error { return nil })

	st := hc.Check(context.Background())
	assert.False(t, st.Healthy)
	assert.Equal(t, "Some checks failed: redis, storage", st.Message)
	assert.Equal(t, "connection refused", st.Checks["redis"].Message)
	assert.True(t, st.Checks["ok"].Healthy)

	hc.RemoveCheck("redis")
	hc.RemoveCheck("storage")
	assert.True(t, hc.Check(context.Background()).Healthy)
}

func TestHealthChecker_Timeout(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.SetTimeout(10 * time.Millisecond)
	hc.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	st := hc.Check(context.Background())
	assert.False(t, st.Healthy)
	assert.Contains(t, st.Checks["slow"].Message, "deadline exceeded")
}

func TestHealthChecker_NoChecks(t *testing.T) {
	st := NewHealthChecker("test").Check(context.Background())
	assert.True(t, st.Healthy)
	assert.Equal(t, "No health checks registered", st.Message)
}

func TestServer_Healthz(t *testing.T) {
	hc := NewHealthChecker("1.0")
	down := errors.New("down")
	var fail error
	hc.AddCheck("storage", func(context.Context) error { return fail })

	srv := NewServer(DefaultConfig(":0"), hc, nil, quietLogger())

	var st HealthStatus
	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/healthz", &st))
	assert.True(t, st.Healthy)
	assert.Equal(t, "1.0", st.Version)

	fail = down
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.Handler(), "/healthz", &st))
	assert.False(t, st.Healthy)
}

func TestServer_Jobs(t *testing.T) {
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:         &timeutil.FixedClock{T: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)},
		EnableMetrics: true,
	})
	daily, err := scheduler.ParseCron("0 9 * * *", time.UTC)
	require.NoError(t, err)
	require.NoError(t, sched.Register(stubJob{name: "reminders"}, daily))
	require.NoError(t, sched.Register(stubJob{name: "broken", err: errors.New("boom")}, daily))

	_, err = sched.RunNow(context.Background(), "broken")
	require.Error(t, err)
	_, err = sched.RunNow(context.Background(), "reminders")
	require.NoError(t, err)

	srv := NewServer(DefaultConfig(":0"), NewHealthChecker("1.0"), sched, quietLogger())

	var report JobsReport
	require.Equal(t, http.StatusOK, get(t, srv.Handler(), "/jobs", &report))
	require.Len(t, report.Jobs, 2)
	assert.Equal(t, "broken", report.Jobs[0].Name)
	assert.Equal(t, "boom", report.Jobs[0].LastError)
	assert.Equal(t, int64(1), report.Jobs[0].FailCount)
	assert.Equal(t, "reminders", report.Jobs[1].Name)
	assert.Empty(t, report.Jobs[1].LastError)
	assert.Equal(t, int64(2), report.Executions)
	assert.Equal(t, int64(1), report.Failures)
	assert.False(t, report.Running)
}

func TestServer_JobsWithoutScheduler(t *testing.T) {
	srv := NewServer(DefaultConfig(":0"), NewHealthChecker("1.0"), nil, quietLogger())

	var report JobsReport
	require.Equal(t, http.StatusOK, get(t, srv.Handler(), "/jobs", &report))
	assert.Empty(t, report.Jobs)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv := NewServer(DefaultConfig(":0"), NewHealthChecker("1.0"), nil, quietLogger())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
