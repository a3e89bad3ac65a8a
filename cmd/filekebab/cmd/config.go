package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"filekebab/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change vault settings",
	Long: `Show and change the settings stored in the vault's settings file.

Keys: ` + strings.Join(config.Keys(), ", "),
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		settings := store.Snapshot()
		data, err := json.MarshalIndent(&settings, "", "  ")
		if err != nil {
			return err
		}
		out.Info("%s", data)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		value, err := store.Snapshot().Get(args[0])
		if err != nil {
			return err
		}
		out.Info("%s", value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting and save the settings file. List values take a
comma-separated string. A running watcher picks the change up.

Examples:
  filekebab config set useFirstHeading true
  filekebab config set exclusionPrefix "~"
  filekebab config set watch.ignorePatterns "*.tmp,*.swp"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Set(args[0], args[1]); err != nil {
			return err
		}
		out.Verbose("Saved %s", store.Path())
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		defaults := config.Defaults()
		if err := config.Save(&defaults, configPath); err != nil {
			return err
		}
		out.Info("Wrote %s", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the settings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadOrCreate(configPath)
		if err != nil {
			return err
		}
		result := config.ValidateSettings(settings)
		for _, w := range result.Warnings {
			out.Info("%s", w.String())
		}
		for _, e := range result.Errors {
			out.Error("%s", e.String())
		}
		if err := result.Err(); err != nil {
			return err
		}
		out.Info("Settings are valid.")
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing settings file")

	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configInitCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
