package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ChintuIdrive/host-health-watchdog/actions"
	"ChintuIdrive/host-health-watchdog/api"
	"ChintuIdrive/host-health-watchdog/collector"
	"ChintuIdrive/host-health-watchdog/conf"
	"ChintuIdrive/host-health-watchdog/logger"
	"ChintuIdrive/host-health-watchdog/monitor"
)

// loggedError marks a failure that has already been written through the
// logger, so Execute does not print it a second time.
type loggedError struct {
	error
}

func (e loggedError) Unwrap() error { return e.error }

// reportable tells whether err still needs printing to stderr.
func reportable(err error) bool {
	var logged loggedError
	return !errors.As(err, &logged)
}

type rootOptions struct {
	configFile string
	once       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "host-health-watchdog",
		Short: "Watch host CPU, memory and disk usage and alert on threshold breaches",
		Long: `host-health-watchdog samples CPU, memory, disk and the busiest processes
on a fixed interval and sends an email and/or webhook alert when a
configured threshold is met or exceeded.

Configuration comes from environment variables, optionally overlaid on a
config file (--config) or a .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, json, toml or .env)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "run a single poll cycle and exit")
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if reportable(err) {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *rootOptions) error {
	config, err := conf.LoadConfig(opts.configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New(config.Log)
	defer func() { _ = log.Sync() }()

	if err := serve(ctx, config, log, opts.once); err != nil {
		log.Error("Unhandled error in monitor", zap.Error(err), zap.Stack("stack"))
		return loggedError{err}
	}
	return nil
}

func serve(ctx context.Context, config *conf.Config, log *zap.Logger, once bool) error {
	recorder := api.NewRecorder()
	builder := collector.NewSnapshotBuilder(collector.NewSystemStatsCollector(), config.Thresholds)
	dispatcher := actions.NewDispatcher(
		actions.NewAlertFormatter(config.Hostname),
		actions.NewChannels(config.Notification),
		log.Named("notifier"),
	)
	ssm := monitor.NewSystemStatsMonitor(builder, dispatcher, config.Thresholds, log.Named("monitor")).
		WithRecorder(recorder)

	if once {
		return ssm.RunOnce(ctx)
	}
	if config.MetricsAddr == "" {
		return ssm.Run(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.NewStatusServer(config.MetricsAddr, recorder, log.Named("api")).Run(ctx)
	})
	g.Go(func() error {
		return ssm.Run(ctx)
	})
	return g.Wait()
}
