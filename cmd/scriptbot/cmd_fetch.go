package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"scriptbot/internal/fetch"
	"scriptbot/internal/host"
	"scriptbot/internal/logging"
	"scriptbot/internal/script"
	"scriptbot/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fetchPin  string
	fetchName string
	fetchExec bool
)

// fetchCmd installs a script from a remote URL.
var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Fetch a script from a URL and install it",
	Long: `Downloads script source from a raw URL, validates it, and installs it
into the scripts directory. The next bot run (or the running watcher)
picks it up.

With --pin, the first line of the response must be a version marker
matching exactly, e.g. "// version: 1.2.0". With --exec, the script is
additionally loaded into a throwaway interpreter so load errors surface
immediately.

Example:
  scriptbot fetch https://example.com/raw/greeter.go --pin 1.2.0`,
	Args: cobra.ExactArgs(1),
	RunE: fetchScript,
}

func fetchScript(cmd *cobra.Command, args []string) error {
	url := args[0]

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

	client := fetch.NewClient(cfg.GetFetch())
	res, err := client.FetchScript(ctx, url, fetchPin)
	if err != nil {
		return err
	}

	name := fetchName
	meta := script.ParseHeader(nameFromURL(url), res.Body)
	if name == "" {
		name = meta.Name
	}

	if fetchExec {
		if err := execCheck(ctx, name, res.Body); err != nil {
			return fmt.Errorf("script failed to load: %w", err)
		}
	}

	path, err := installScript(ws, cfg.GetScriptsDir(ws), name, url, meta, res.Body)
	if err != nil {
		return err
	}

	logger.Info("script installed",
		zap.String("name", name),
		zap.String("url", url),
		zap.String("version", meta.Version),
		zap.Int("bytes", len(res.Body)))
	fmt.Printf("Installed %s", name)
	if meta.Version != "" {
		fmt.Printf(" v%s", meta.Version)
	}
	fmt.Printf(" -> %s\n", path)
	return nil
}

// execCheck loads the script into a throwaway interpreter against a
// throwaway bot, surfacing evaluation and Setup errors before install.
func execCheck(ctx context.Context, name, src string) error {
	bot := host.New(host.Options{})
	defer bot.Shutdown()

	exec, err := script.NewExecutor(bot)
	if err != nil {
		return err
	}
	return exec.LoadDetached(ctx, name, src)
}

// installScript writes source to the scripts directory and records the
// install in the script database.
func installScript(ws, scriptsDir, name, url string, meta host.Meta, body string) (string, error) {
	if err := os.MkdirAll(scriptsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scripts directory: %w", err)
	}

	filename := name + script.ScriptExt
	path := filepath.Join(scriptsDir, filename)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to write script file: %w", err)
	}

	db, err := store.Open(filepath.Join(ws, ".scriptbot"))
	if err != nil {
		return "", err
	}
	defer db.Close()

	rec := &store.Record{
		Name:      name,
		Filename:  filename,
		Version:   meta.Version,
		Author:    meta.Author,
		SourceURL: url,
		SHA256:    store.Checksum([]byte(body)),
	}
	if err := db.Upsert(rec); err != nil {
		return "", err
	}

	logging.Fetch("Installed script %s from %s", name, url)
	return path, nil
}

// nameFromURL derives a script name from the last URL path segment.
func nameFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "script"
	}
	return trimmed
}

func init() {
	fetchCmd.Flags().StringVar(&fetchPin, "pin", "", "Require this exact first-line version marker")
	fetchCmd.Flags().StringVar(&fetchName, "name", "", "Install under this script name (default: from header or URL)")
	fetchCmd.Flags().BoolVar(&fetchExec, "exec", false, "Load the script in a throwaway interpreter before installing")
}
