package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/japaniel/dictkit/pkg/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFile    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dictkit",
	Short: "Tools for building and publishing the dictionary data set",
	Long: `dictkit ranks dictionary entries by word frequency, publishes entries to
the site content API or Cloudflare KV, builds the autocomplete trie and
serves a local lookup API.

Settings come from dictkit.yaml, DICTKIT_* environment variables and flags.
Credentials are read from the environment (or a .env file) only.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c

		zc := zap.NewProductionConfig()
		// Per-entry upload lines must never be sampled away.
		zc.Sampling = nil
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file with credentials")

	rootCmd.AddCommand(rankCmd, uploadCmd, kvUploadCmd, freqCmd, trieCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// pick returns flag when set, else the configured value.
func pick(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}
