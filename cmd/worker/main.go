// Package main is the JobQuest worker. It runs the background schedule:
// morning follow-up reminders and the day-start mission board reset.
//
// With the redis storage driver the worker shares the event channel with
// every running CLI, so reminders show up as toasts there.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jobquest/jobquest/config"
	"github.com/jobquest/jobquest/internal/app"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/internal/infrastructure/messaging"
	"github.com/jobquest/jobquest/internal/infrastructure/scheduler"
	"github.com/jobquest/jobquest/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/jobquest/jobquest/internal/interface/http"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. CONTAINER (logging, storage, event bus, dispatcher)
	// ─────────────────────────────────────────────────────────────────────────
	c, err := app.New(ctx, cfg, app.Options{LogOutput: os.Stdout})
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		c.Slog.Info("closing storage and event bus...")
		if err := c.Close(); err != nil {
			c.Slog.Error("close failed", "error", err)
		}
	}()
	log := c.Slog
	slog.SetDefault(log)

	log.Info("starting JobQuest worker",
		"env", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
		"timezone", cfg.App.Location.String(),
	)

	if err := c.Bus.SubscribeAll(messaging.Chain(func(ev shared.Event) error {
		log.Info("scheduled event", "type", ev.EventType(), "profile_id", ev.AggregateID(), "payload", ev.Payload())
		return nil
	}, messaging.FilterMiddleware(shared.EventFollowUpDue, shared.EventMissionsReset))); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled; nothing to do")
		return nil
	}
	sched, err := buildScheduler(c)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. STATUS SERVER
	// ─────────────────────────────────────────────────────────────────────────
	var (
		status   *httpapi.Server
		statusCh <-chan error
	)
	if cfg.Scheduler.HealthAddr != "" {
		status = buildStatusServer(c, sched)
		statusCh = status.StartAsync()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-statusCh:
		if err != nil {
			log.Error("status server failed", "error", err)
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if status != nil {
		if err := status.Shutdown(shutdownCtx); err != nil {
			log.Error("status server shutdown failed", "error", err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- sched.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error("scheduler stop failed", "error", err)
		}
	case <-shutdownCtx.Done():
		log.Warn("shutdown timed out waiting for running jobs")
	}

	m := sched.GetMetrics().Snapshot()
	log.Info("shutdown completed successfully", "executions", m.TotalExecutions, "failures", m.TotalFailures)
	return nil
}

// buildScheduler registers the worker's jobs on their configured cron specs.
func buildScheduler(c *app.Container) (*scheduler.Scheduler, error) {
	cfg := c.Config
	loc := cfg.App.Location

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:         c.Slog,
		Timezone:       loc,
		Clock:          c.Clock,
		TickInterval:   cfg.Scheduler.TickInterval,
		MaxHistorySize: 100,
		EnableMetrics:  true,
	})

	reminders, err := scheduler.ParseCron(cfg.Scheduler.RemindersCron, loc)
	if err != nil {
		return nil, err
	}
	missionReset, err := scheduler.ParseCron(cfg.Scheduler.MissionResetCron, loc)
	if err != nil {
		return nil, err
	}

	if err := sched.Register(
		jobs.NewFollowUpRemindersJob(c.Profiles, c.Dispatcher, c.Bus, c.Clock, c.Slog),
		reminders,
	); err != nil {
		return nil, err
	}
	if err := sched.Register(
		jobs.NewMissionResetJob(c.Profiles, c.Dispatcher, c.Slog),
		missionReset,
	); err != nil {
		return nil, err
	}

	sched.OnJobComplete(func(r scheduler.JobResult) {
		if !r.Success {
			c.Slog.Warn("job failed", "job", r.JobName, "error", r.Error)
		}
	})
	return sched, nil
}

// buildStatusServer serves storage health and the job table.
func buildStatusServer(c *app.Container, sched *scheduler.Scheduler) *httpapi.Server {
	health := httpapi.NewHealthChecker(c.Config.App.Name)
	health.AddCheck("storage", httpapi.PingCheck(c.Store))
	return httpapi.NewServer(httpapi.DefaultConfig(c.Config.Scheduler.HealthAddr), health, sched, c.Logger)
}
