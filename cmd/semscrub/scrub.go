package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/spf13/cobra"

	"github.com/c360studio/semscrub/config"
	"github.com/c360studio/semscrub/graph"
	"github.com/c360studio/semscrub/pipeline"
)

func scrubCmd() *cobra.Command {
	var (
		watch  bool
		policy string
	)

	cmd := &cobra.Command{
		Use:   "scrub",
		Short: "Repair, audit, and prune the candidate corpus",
		Long: `Scrub runs the full pipeline over the candidate corpus: repair
recoverable statements, delete empty files, audit term usage against the
trusted vocabulary, then prune (or stub-define) the missing terms and
write the missing-terms report.

With --watch the pipeline re-runs whenever candidate files change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			applyCorpusFlags(cmd, cfg)
			if cmd.Flags().Changed("policy") {
				cfg.Scrub.Policy = policy
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return runScrub(cfg, logger, watch)
		},
	}

	corpusFlags(cmd)
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-scrub on file changes")
	cmd.Flags().StringVar(&policy, "policy", "", "Missing-term policy: prune or stub (overrides config)")

	return cmd
}

func runScrub(cfg *config.Config, logger *slog.Logger, watch bool) error {
	runner, err := pipeline.NewRunner(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := connectNATS(ctx, cfg, logger)
	if err != nil {
		// The scrub is still worth running without provenance.
		logger.Warn("NATS unavailable, provenance publishing disabled", "error", err)
	}
	if nc != nil {
		defer nc.Close(ctx)
	}

	finish := func(summary *pipeline.Summary) {
		summary.Log(logger)
		if err := graph.PublishRun(ctx, nc, summary, cfg.DataDir); err != nil {
			logger.Warn("Provenance publish failed", "run_id", summary.RunID, "error", err)
		}
	}

	if watch {
		watcher, err := pipeline.NewWatcher(cfg.Watch, cfg.DataDir, logger)
		if err != nil {
			return err
		}
		return pipeline.WatchAndRun(ctx, runner, watcher, logger, finish)
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	finish(summary)

	if summary.FilesErrored > 0 {
		return fmt.Errorf("%d file(s) had errors", summary.FilesErrored)
	}
	return nil
}

// connectNATS connects the provenance publisher. An empty URL disables
// publishing and returns a nil client.
func connectNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	url := cfg.NATS.URL
	if envURL := os.Getenv("SEMSCRUB_NATS_URL"); envURL != "" {
		url = envURL
	}
	if url == "" {
		return nil, nil
	}

	client, err := natsclient.NewClient(url,
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}
