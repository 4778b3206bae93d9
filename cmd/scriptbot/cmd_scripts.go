package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"scriptbot/internal/store"

	"github.com/spf13/cobra"
)

// scriptsCmd manages installed scripts.
var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "List and manage installed scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listScripts()
	},
}

var scriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listScripts()
	},
}

var scriptsEnableCmd = &cobra.Command{
	Use:   "enable [name]",
	Short: "Enable a script (clears its error state)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setScriptEnabled(args[0], true)
	},
}

var scriptsDisableCmd = &cobra.Command{
	Use:   "disable [name]",
	Short: "Disable a script without removing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setScriptEnabled(args[0], false)
	},
}

var scriptsRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a script file and its record",
	Args:  cobra.ExactArgs(1),
	RunE:  removeScript,
}

func openScriptDB() (*store.Store, string, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, "", err
	}
	db, err := store.Open(filepath.Join(ws, ".scriptbot"))
	if err != nil {
		return nil, "", err
	}
	return db, ws, nil
}

func listScripts() error {
	db, _, err := openScriptDB()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.List(false)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No scripts installed. Install one with: scriptbot fetch [url]")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tAUTHOR\tSTATE\tERRORS\tFETCHED")
	for _, rec := range records {
		state := "enabled"
		if !rec.Enabled {
			state = "disabled"
		}
		version := rec.Version
		if version == "" {
			version = "-"
		}
		author := rec.Author
		if author == "" {
			author = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			rec.Name, version, author, state, rec.ErrorCount,
			rec.FetchedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

func setScriptEnabled(name string, enabled bool) error {
	db, _, err := openScriptDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetEnabled(name, enabled); err != nil {
		return err
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("Script %s %s\n", name, state)
	return nil
}

func removeScript(cmd *cobra.Command, args []string) error {
	name := args[0]

	db, ws, err := openScriptDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := db.Get(name)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}

	cfg, err := loadConfig(ws)
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.GetScriptsDir(ws), rec.Filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove script file: %w", err)
	}

	if err := db.Remove(name); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", name)
	return nil
}

func init() {
	scriptsCmd.AddCommand(scriptsListCmd)
	scriptsCmd.AddCommand(scriptsEnableCmd)
	scriptsCmd.AddCommand(scriptsDisableCmd)
	scriptsCmd.AddCommand(scriptsRemoveCmd)
}
