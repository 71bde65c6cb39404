// Package main provides the semscrub binary entry point.
// Semscrub recovers malformed Turtle candidate files, audits them against
// a trusted vocabulary, and prunes or stubs the terms the vocabulary does
// not define.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register scrub run predicates via init()
	_ "github.com/c360studio/semscrub/vocabulary/scrub"

	"github.com/c360studio/semscrub/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semscrub"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "semscrub",
		Short: "Recovery and pruning for malformed Turtle corpora",
		Long: `Semscrub takes the raw Turtle files an extraction stage leaves behind,
repairs the recoverable statements, deletes the empty husks, and prunes
every reference to terms the trusted vocabulary does not define.

It provides:
- scrub: the full pipeline (repair, audit, prune or stub, report)
- audit: a read-only audit that reports missing terms
- load:  bulk-loading of canonical files into a SPARQL triple store
- serve: a dereferenceable read API over the loaded store`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(scrubCmd())
	cmd.AddCommand(auditCmd())
	cmd.AddCommand(loadCmd())
	cmd.AddCommand(serveCmd())

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// setup reads the shared flags, installs the default logger, and resolves
// the layered configuration. Flag overrides and validation happen in the
// subcommands, after this.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	logLevel, _ := cmd.Flags().GetString("log-level")
	configPath, _ := cmd.Flags().GetString("config")

	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger, nil
}

// loadConfig reads one explicit file when --config is given, otherwise the
// layered defaults <- user file <- project file chain.
func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		if password := os.Getenv(config.StorePasswordEnv); password != "" {
			cfg.Loader.Password = password
		}
		return cfg, nil
	}
	return config.NewLoader(logger).Load()
}

// corpusFlags registers the flags shared by scrub and audit.
func corpusFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "", "Candidate corpus directory (overrides config)")
	cmd.Flags().String("vocab-dir", "", "Trusted vocabulary directory (overrides config)")
	cmd.Flags().String("report", "", "Missing-terms report path (overrides config)")
	cmd.Flags().Int("min-usage", 0, "Usage threshold for the missing-term report (overrides config)")
}

// applyCorpusFlags overrides the loaded config with any corpus flag the
// user actually set.
func applyCorpusFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("vocab-dir") {
		cfg.VocabDir, _ = cmd.Flags().GetString("vocab-dir")
	}
	if cmd.Flags().Changed("report") {
		cfg.Report, _ = cmd.Flags().GetString("report")
	}
	if cmd.Flags().Changed("min-usage") {
		cfg.Scrub.MinUsage, _ = cmd.Flags().GetInt("min-usage")
	}
}
