package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/semscrub/pipeline"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report missing terms without touching any file",
		Long: `Audit counts vocabulary usage across the candidate corpus and writes
the missing-terms report, but performs no repairs, deletions, or rewrites.
Missing terms are also printed to stdout, one per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			applyCorpusFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			runner, err := pipeline.NewRunner(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := runner.Audit(ctx)
			if err != nil {
				return err
			}
			summary.Log(logger)

			for _, name := range summary.MissingTerms {
				fmt.Println(name)
			}

			if summary.FilesErrored > 0 {
				return fmt.Errorf("%d file(s) had errors", summary.FilesErrored)
			}
			return nil
		},
	}

	corpusFlags(cmd)
	return cmd
}
