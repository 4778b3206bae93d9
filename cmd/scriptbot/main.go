package main

import (
	"fmt"
	"os"

	"scriptbot/internal/config"
	"scriptbot/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose   bool
	workspace string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scriptbot",
	Short: "scriptbot - remote-loadable chat bot script host",
	Long: `scriptbot hosts chat bot scripts fetched from remote URLs.

Scripts are plain Go source interpreted in-process. All scripts share one
interpreter namespace and register commands, event listeners, and interval
jobs against the same bot instance.

Run without arguments to start the bot on a console transport.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws, err := resolveWorkspace()
		if err != nil {
			return err
		}

		if err := logging.Initialize(ws); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd, args)
	},
}

// resolveWorkspace returns the workspace root, preferring the --workspace
// flag over marker-based discovery, over the current directory.
func resolveWorkspace() (string, error) {
	if workspace != "" {
		return workspace, nil
	}
	if ws, err := config.FindWorkspaceRoot(); err == nil {
		workspace = ws
		return ws, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace: %w", err)
	}
	workspace = wd
	return wd, nil
}

// loadConfig loads the workspace config, falling back to defaults when no
// config file exists yet.
func loadConfig(ws string) (*config.Config, error) {
	cfg, err := config.Load(config.DefaultPath(ws))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (default: auto-detect)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(scriptsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
