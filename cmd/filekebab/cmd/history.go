package cmd

import (
	"github.com/spf13/cobra"

	"filekebab/internal/journal"
)

var (
	historyCount int
	historyRun   string
	historyAll   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent renames from the journal",
	Long: `Print the most recent renames and failures recorded in the vault's
journal, oldest first.

Examples:
  filekebab history            # Last 20 renames
  filekebab history -n 100     # Last 100 renames
  filekebab history --run <id> # Every record of one run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		reader := journal.NewReader(store.Snapshot().JournalDir(vaultPath))

		var records []journal.Record
		switch {
		case historyRun != "":
			records, err = reader.Run(journal.RunID(historyRun))
		case historyAll:
			records, err = reader.Tail(historyCount,
				journal.EventRunStart, journal.EventRunEnd, journal.EventRename, journal.EventRenameFailed)
		default:
			records, err = reader.Tail(historyCount)
		}
		if err != nil {
			return err
		}
		out.Records(records)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyCount, "count", "n", 20, "number of records to show")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show the records of one run")
	historyCmd.Flags().BoolVarP(&historyAll, "all", "a", false, "include run start and end records")
	rootCmd.AddCommand(historyCmd)
}
