package main

import (
	"encoding/json"
	"fmt"

	"scriptbot/internal/config"

	"github.com/spf13/cobra"
)

// configCmd reads and writes the dynamic config data shared with scripts.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write dynamic config data",
	Long: `Reads and writes the key/value data store scripts see through the
host API. Values set here are visible to running scripts after their
next read.

Examples:
  scriptbot config get afk_message
  scriptbot config set afk_message "be right back"
  scriptbot config keys`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := openData()
		if err != nil {
			return err
		}
		v := data.Get(args[0])
		if v == nil {
			return fmt.Errorf("key not set: %s", args[0])
		}
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Long: `Sets a config value. The value is stored as JSON when it parses as
JSON (numbers, booleans, objects), otherwise as a plain string.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := openData()
		if err != nil {
			return err
		}

		var value any
		if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
			value = args[1]
		}
		if err := data.Set(args[0], value); err != nil {
			return err
		}
		fmt.Printf("Set %s\n", args[0])
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete [key]",
	Short: "Delete a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := openData()
		if err != nil {
			return err
		}
		if err := data.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List config keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := openData()
		if err != nil {
			return err
		}
		for _, key := range data.Keys() {
			fmt.Println(key)
		}
		return nil
	},
}

func openData() (*config.Data, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, err
	}
	return config.OpenData(ws)
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configKeysCmd)
}
