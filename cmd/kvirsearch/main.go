// Command kvirsearch decodes a CLP key-value IR stream and evaluates
// a structured search query against it (spec.md §1). It is the thin
// shell around internal/deserializer, internal/eval, and
// internal/resolver: cmd/kvirsearch itself never decodes a byte of
// IR or evaluates a filter directly.
//
// Logging follows the teacher's convention: one base *slog.Logger
// built here with a ComponentFilterHandler for dynamic per-component
// verbosity, passed down by parameter, never set as the slog global
// default.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kvirsearch/internal/config"
	"kvirsearch/internal/logging"
)

var version = "dev"

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:     "kvirsearch",
		Short:   "Search and inspect CLP key-value IR streams",
		Version: version,
	}

	rootCmd.PersistentFlags().String("config", defaultConfigPath(), "path to the kvirsearch config file")
	rootCmd.PersistentFlags().String("output", "table", "output format: table or json")
	rootCmd.PersistentFlags().Bool("case-sensitive", false, "case-sensitive string/glob comparison (overrides config default)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		store := config.NewStore(configPath)
		cfg, err := store.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		for component, level := range cfg.ComponentLevels {
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(level)); err != nil {
				logger.Warn("ignoring invalid component level", "component", component, "level", level)
				continue
			}
			filterHandler.SetLevel(component, lvl)
		}
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(
		newSearchCmd(logger),
		newTailCmd(logger),
		newSchemaCmd(logger),
		newProjectionsCmd(logger),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "kvirsearch.json"
	}
	return filepath.Join(dir, "kvirsearch", "config.json")
}

// instanceLogger scopes logger with a fresh per-Deserializer
// correlation id, matching the teacher's use of uuid for
// chunk/session correlation (SPEC_FULL.md §4).
func instanceLogger(logger *slog.Logger, component string) (*slog.Logger, uuid.UUID) {
	id := uuid.New()
	return logger.With("component", component, "instance", id.String()), id
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromCmd(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Config)
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return format
}
