package cmd

import (
	"github.com/spf13/cobra"

	"filekebab/internal/dispatch"
	"filekebab/internal/orchestrator"
	"filekebab/internal/rename"
	"filekebab/internal/vault"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the renames a sweep would make",
	Long: `List the entries whose names are not canonical, grouped by directory,
without touching the vault. Targets that are already taken are marked;
a sweep would give them a numeric suffix.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		v, err := vault.NewFS(vaultPath)
		if err != nil {
			return err
		}

		o := orchestrator.New(v, store, dispatch.New(store, rename.New(v)), orchestrator.WithLogger(logger))
		result, err := o.Status()
		if err != nil {
			return err
		}
		out.Status(result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
