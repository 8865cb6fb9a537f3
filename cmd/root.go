/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nakachan-ing/dtl-cli/internal/api"
	"github.com/nakachan-ing/dtl-cli/internal/logging"
	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/store"
	"github.com/nakachan-ing/dtl-cli/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	offline bool

	loadedConfig      *model.Config
	configErr         error
	telemetryShutdown func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:           "dtl",
	Short:         "Daily task submission client",
	Long:          "dtl records daily tasks, stages attachments, submits finished days and follows review and carry-forward results.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		store.LoadEnv()
		loadedConfig, configErr = store.LoadConfig()

		telemetryConfig := model.TelemetryConfig{}
		if loadedConfig != nil {
			telemetryConfig = loadedConfig.Telemetry
		}
		logging.Setup(logging.Options{Telemetry: telemetryConfig.Enable, Verbose: verbose})

		shutdown, err := telemetry.Setup(cmd.Context(), telemetryConfig)
		if err != nil {
			slog.Warn("telemetry disabled", "error", err)
		}
		telemetryShutdown = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown != nil {
			if err := telemetryShutdown(context.Background()); err != nil {
				slog.Warn("failed to flush telemetry", "error", err)
			}
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print diagnostic logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Read from the local cache instead of the backend")
}

func requireConfig() (*model.Config, error) {
	if configErr != nil {
		return nil, fmt.Errorf("%w (run `dtl init` first)", configErr)
	}
	return loadedConfig, nil
}

// session bundles what backend-facing commands need.
type session struct {
	config *model.Config
	client *api.Client
	cache  *store.Cache
	userID string
}

func openSession() (*session, error) {
	config, err := requireConfig()
	if err != nil {
		return nil, err
	}
	userID, err := store.RequireUser(*config)
	if err != nil {
		return nil, err
	}
	cache, err := store.NewCache(*config)
	if err != nil {
		return nil, err
	}
	s := &session{config: config, cache: cache, userID: userID}
	if offline {
		return s, nil
	}
	s.client, err = api.New(config.API)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// fetch loads the user's buckets from the backend and refreshes the
// cache, or reads the cache when offline.
func (s *session) fetch(ctx context.Context) (api.FetchResult, error) {
	if s.client == nil {
		buckets, err := s.cache.LoadBuckets()
		if err != nil {
			return api.FetchResult{}, err
		}
		return api.FetchResult{Buckets: buckets}, nil
	}

	res, err := s.client.FetchDailyTasks(ctx, s.userID)
	if err != nil {
		return api.FetchResult{}, fmt.Errorf("failed to fetch daily tasks: %w", err)
	}
	if err := s.cache.SaveBuckets(res.Buckets); err != nil {
		slog.Warn("failed to update cache", "error", err)
	}
	return res, nil
}

func (s *session) requireOnline() error {
	if s.client == nil {
		return errors.New("this command needs the backend; drop --offline")
	}
	return nil
}

func (s *session) taskTypes(ctx context.Context) ([]model.TaskType, error) {
	if s.client == nil {
		return s.cache.LoadTaskTypes()
	}
	types, err := s.client.ListTaskTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task types: %w", err)
	}
	if err := s.cache.SaveTaskTypes(types); err != nil {
		slog.Warn("failed to update cache", "error", err)
	}
	return types, nil
}
