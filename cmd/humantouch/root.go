package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/humantouch/internal/config"
	htlog "github.com/nao1215/humantouch/internal/log"
	"github.com/spf13/cobra"
)

// errRunFailed marks a run that completed but must exit nonzero.
var errRunFailed = errors.New("run failed")

// NewRootCmd creates the root command for humantouch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "humantouch",
		Short: "Normalize AI typography in HTML files",
		Long: `humantouch rewrites curly quotes, long dashes, ellipses, non-breaking
spaces and invisible characters in HTML files into plain ASCII, leaving
script, style, pre and code blocks untouched.

It also reports hazards: invisible or bidirectional control characters,
curly quotes inside attribute values and runs of &nbsp; entities.
Use --fail-on-hazards to block bidi characters in CI.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("config", "",
		"Configuration file path (default: .humantouch in current or home directory)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewTextCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", htlog.Escape(err.Error()))
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the escaping logger writing to the command's stderr.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return htlog.NewSafeLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
}

// commandContext returns the command context, or a background context
// when the command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig builds a Config from defaults and the configuration file.
// A file given with --config must exist; otherwise a missing file is fine.
func loadConfig(cmd *cobra.Command, logger *slog.Logger) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var configPath string
	if f := cmd.Flags().Lookup("config"); f != nil {
		configPath = f.Value.String()
	}
	cfg.ConfigFilePath = configPath

	path, err := config.Load(cfg, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if path != "" {
		logger.Debug("configuration file loaded", "path", path)
	}
	return cfg, nil
}
