package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"filekebab/internal/config"
	"filekebab/internal/journal"
	"filekebab/internal/logging"
	"filekebab/internal/output"
)

// VaultEnv names the environment variable holding the default vault path.
const VaultEnv = "FILEKEBAB_VAULT"

var (
	vaultPath  string
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool

	logger *slog.Logger
	out    *output.Output
)

var rootCmd = &cobra.Command{
	Use:   "filekebab",
	Short: "Keep note and folder names in kebab-case",
	Long: `filekebab renames the notes, attachments and folders of a vault to
lowercase kebab-case, keeping extensions and resolving collisions with
numeric suffixes.

Run "filekebab watch" to rename entries as they are created, renamed or
edited, or "filekebab run" to sweep the whole vault once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return err
		}
		logger = logging.New(logging.Config{Level: logLevel, Format: logFormat})

		cfg := output.DefaultConfig()
		cfg.Verbose = verbose
		out = output.New(cfg)

		abs, err := filepath.Abs(vaultPath)
		if err != nil {
			return fmt.Errorf("invalid vault path: %w", err)
		}
		vaultPath = abs
		if configPath == "" {
			configPath = config.DefaultPath(vaultPath)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultVault := os.Getenv(VaultEnv)
	if defaultVault == "" {
		defaultVault = "."
	}
	rootCmd.PersistentFlags().StringVarP(&vaultPath, "vault", "V", defaultVault, "path to the vault (env "+VaultEnv+")")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (default <vault>/"+config.DirName+"/"+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every entry, not only renames")
}

// openStore loads the vault settings, falling back to defaults when the
// settings file does not exist yet.
func openStore() (*config.Store, error) {
	store, err := config.OpenStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	settings := store.Snapshot()
	result := config.ValidateSettings(&settings)
	for _, w := range result.Warnings {
		logger.Warn("settings warning", "field", w.Field, "message", w.Message)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return store, nil
}

// openJournal opens the rename journal, or returns nil when journaling is
// disabled.
func openJournal(settings config.Settings) (*journal.Writer, error) {
	if !settings.Journal.Enabled {
		return nil, nil
	}
	w, err := journal.NewWriter(journal.Config{
		Directory:    settings.JournalDir(vaultPath),
		RotationSize: journal.DefaultRotationSize,
		Retention: journal.RetentionPolicy{
			MaxSegments: settings.Journal.MaxSegments,
			MaxAge:      settings.Journal.MaxAge(),
		},
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}
