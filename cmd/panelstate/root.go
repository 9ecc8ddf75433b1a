package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/panelstate/internal/config"
	"github.com/aretw0/panelstate/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "panelstate",
		Short: "panelstate keeps the persisted state of UI panels",
		Long: `panelstate stores per-panel state trees, merges partial updates into them,
and sends saved states to their host. It also ships the tree algebra
(merge, diff, flatten, resolve) as standalone commands.`,
		SilenceUsage: true,
	}

	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("store", "", "Snapshot store: none, memory, file, redis")
	flags.String("store-path", "", "Directory of the file store")
	flags.String("addr", "", "Address to listen on")

	rootCmd.AddCommand(
		newServeCmd(),
		newMCPCmd(),
		newMergeCmd(),
		newDiffCmd(),
		newPatchCmd(),
		newFlattenCmd(),
		newResolveCmd(),
		newStateCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config and applies the persistent flags that were set
// on top of it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	override := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	override("log-level", &cfg.Log.Level)
	override("store", &cfg.Store.Kind)
	override("store-path", &cfg.Store.Path)
	override("addr", &cfg.HTTP.Addr)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the logger described by cfg. Logs always go to stderr so
// stdout stays free for command output and the MCP stdio transport.
func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "json" {
		return logging.NewJSON(os.Stderr, level), nil
	}
	return logging.New(level), nil
}
