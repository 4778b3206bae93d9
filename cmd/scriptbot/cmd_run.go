package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"scriptbot/internal/config"
	"scriptbot/internal/host"
	"scriptbot/internal/logging"
	"scriptbot/internal/script"
	"scriptbot/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runNoWatch bool

// runCmd starts the bot on the console transport.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot with all enabled scripts loaded",
	Long: `Loads every enabled script from the scripts directory, starts the
file watcher for hot reload, and reads messages from stdin.

Lines starting with the command prefix invoke commands; everything else
is delivered to message listeners. Ctrl-D or SIGINT stops the bot.`,
	RunE: runBot,
}

// consoleTransport prints outbound messages to stdout.
type consoleTransport struct{}

func (consoleTransport) Send(channel, text string) error {
	_, err := fmt.Printf("[%s] %s\n", channel, text)
	return err
}

func runBot(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := config.OpenData(ws)
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}

	db, err := store.Open(filepath.Join(ws, ".scriptbot"))
	if err != nil {
		return err
	}
	defer db.Close()

	scriptsDir := cfg.GetScriptsDir(ws)

	bot := host.New(host.Options{
		Prefix:    cfg.GetPrefix(),
		Transport: consoleTransport{},
		Data:      data,
		Storage:   host.NewStorage(scriptsDir),
		OnDisable: func(name string, reason error) {
			if err := db.RecordFailure(name, reason); err != nil {
				logging.StoreError("Failed to persist disable for %s: %v", name, err)
			}
		},
	})
	defer bot.Shutdown()

	exec, err := script.NewExecutor(bot)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	loader := script.NewLoader(bot, exec)

	loaded, err := loader.LoadDir(ctx, scriptsDir)
	if err != nil {
		return err
	}

	// Scripts disabled in the store stay registered but inert.
	if err := applyDisabledFlags(db, bot); err != nil {
		return err
	}

	logger.Info("bot started",
		zap.String("workspace", ws),
		zap.String("prefix", cfg.GetPrefix()),
		zap.Int("scripts", loaded))
	logging.Boot("Bot started: %d scripts from %s", loaded, scriptsDir)

	var watcher *script.Watcher
	if !runNoWatch {
		watcher, err = script.NewWatcher(scriptsDir, loader)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	fmt.Printf("scriptbot ready (%d scripts, prefix %q). Type messages, Ctrl-D to quit.\n",
		loaded, cfg.GetPrefix())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nshutting down")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			bot.Dispatch(ctx, host.Message{
				Author:  "local",
				Channel: "console",
				Content: line,
			})
		}
	}
}

// applyDisabledFlags mirrors the store's enabled flags onto the runtime.
func applyDisabledFlags(db *store.Store, bot *host.Bot) error {
	records, err := db.List(false)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if !rec.Enabled {
			bot.SetScriptDisabled(rec.Name, true)
			logging.Boot("Script %s is disabled (errors=%d)", rec.Name, rec.ErrorCount)
		}
	}
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&runNoWatch, "no-watch", false, "Disable the scripts directory watcher")
}
