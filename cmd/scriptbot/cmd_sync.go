package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"scriptbot/internal/fetch"
	"scriptbot/internal/script"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sourcesAddPin string

// syncCmd fetches every script in the sources manifest.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch and install every script in the sources manifest",
	Long: `Reads .scriptbot/sources.yaml and fetches every listed source with
bounded concurrency. Sources that fail are reported individually; the
rest still install.`,
	RunE: syncSources,
}

// sourcesCmd manages the sources manifest.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage the remote script sources manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSources()
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List manifest sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSources()
	},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add [name] [url]",
	Short: "Add a source to the manifest",
	Args:  cobra.ExactArgs(2),
	RunE:  addSource,
}

func syncSources(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		return err
	}

	manifest, err := fetch.LoadManifest(fetch.ManifestPath(ws))
	if err != nil {
		return err
	}
	if len(manifest.Sources) == 0 {
		fmt.Println("No sources configured. Add one with: scriptbot sources add [name] [url]")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(cfg.GetFetch())
	results := client.SyncAll(ctx, manifest, cfg.GetSync().Concurrency)

	scriptsDir := cfg.GetScriptsDir(ws)
	installed, failed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("  FAIL %s: %v\n", r.Source.Name, r.Err)
			continue
		}

		meta := script.ParseHeader(r.Source.Name+script.ScriptExt, r.Body)
		if _, err := installScript(ws, scriptsDir, r.Source.Name, r.Source.URL, meta, r.Body); err != nil {
			failed++
			fmt.Printf("  FAIL %s: %v\n", r.Source.Name, err)
			continue
		}
		installed++
		fmt.Printf("  ok   %s", r.Source.Name)
		if meta.Version != "" {
			fmt.Printf(" v%s", meta.Version)
		}
		fmt.Println()
	}

	logger.Info("sync complete",
		zap.Int("installed", installed),
		zap.Int("failed", failed))
	fmt.Printf("Synced %d of %d sources\n", installed, len(results))

	if failed > 0 {
		return fmt.Errorf("%d source(s) failed to sync", failed)
	}
	return nil
}

func listSources() error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	manifest, err := fetch.LoadManifest(fetch.ManifestPath(ws))
	if err != nil {
		return err
	}
	if len(manifest.Sources) == 0 {
		fmt.Println("No sources configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tURL")
	for _, src := range manifest.Sources {
		version := src.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", src.Name, version, src.URL)
	}
	return w.Flush()
}

func addSource(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	path := fetch.ManifestPath(ws)
	manifest, err := fetch.LoadManifest(path)
	if err != nil {
		return err
	}

	src := fetch.Source{Name: args[0], URL: args[1], Version: sourcesAddPin}
	if err := manifest.Add(src); err != nil {
		return err
	}
	if err := manifest.Save(path); err != nil {
		return err
	}

	fmt.Printf("Added source %s (%s)\n", src.Name, src.URL)
	return nil
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourcesAddPin, "pin", "", "Require this exact version marker when syncing")
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
}
