// Package main is the JobQuest command line: check in, log applications,
// tick off missions and watch the numbers go up.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobquest/jobquest/config"
	"github.com/jobquest/jobquest/internal/app"
	"github.com/jobquest/jobquest/internal/application/command"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/internal/interface/cli/presenter"
	"github.com/jobquest/jobquest/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "jobquest",
	Short:             "Gamified job search tracker",
	Long:              "JobQuest turns the job hunt into a game: daily check-ins build streaks, submissions earn XP and levels, follow-ups and missions keep momentum.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	envFile     string
	profileFlag string
	quiet       bool

	container *app.Container
	out       *presenter.Presenter
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "Profile to act on (default: the active profile)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not print event notifications")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if container != nil {
		if cerr := container.Close(); cerr != nil {
			container.Logger.Warn("shutdown", logger.Err(cerr))
		}
	}
	if err != nil {
		if out != nil {
			out.Error(err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	c, err := app.New(cmd.Context(), cfg, app.Options{})
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	container = c
	out = presenter.New(cmd.OutOrStdout(), cfg.App.Location)

	if !quiet {
		if err := c.Bus.SubscribeAll(out.Toast); err != nil {
			return err
		}
	}
	return nil
}

// profile returns the profile the command acts on.
func profile(cmd *cobra.Command) (shared.ProfileID, error) {
	return container.ActiveProfile(cmd.Context(), profileFlag)
}

// execute dispatches c against the selected profile. Warnings were already
// shown as toasts, so they do not fail the command.
func execute(cmd *cobra.Command, c command.Command) (*command.Result, error) {
	id, err := profile(cmd)
	if err != nil {
		return nil, err
	}
	res, err := container.Dispatcher.Execute(cmd.Context(), id, c)
	if err != nil && shared.IsWarning(err) {
		if quiet {
			out.Error(err)
		}
		return res, nil
	}
	return res, err
}
