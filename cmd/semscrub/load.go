package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/semscrub/loader"
)

func loadCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load canonical files into a SPARQL triple store",
		Long: `Load posts every candidate file to the configured triple store over
the SPARQL Graph Store protocol, one named graph per file. The dataset is
created first when create_dataset is set. Run scrub before load so the
store only ever sees canonical files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dir") {
				cfg.DataDir = dir
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.ValidateLoader(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := loader.NewClient(cfg.Loader, cfg.Prefixes, logger)
			result, err := client.LoadDirectory(ctx, cfg.DataDir)
			if err != nil {
				return err
			}

			logger.Info("Load complete",
				"dir", cfg.DataDir,
				"dataset", cfg.Loader.Dataset,
				"loaded", result.Loaded,
				"failed", result.Failed)

			if result.Failed > 0 {
				return fmt.Errorf("%d file(s) failed to load", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to load (overrides data_dir)")
	return cmd
}
