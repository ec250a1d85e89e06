package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"neuronwatch/internal/logfields"
	"neuronwatch/internal/storage"
	"neuronwatch/internal/ui/preferences"
)

const appName = "NeuronWatch"

// ErrPreferencesBackend is returned when the settings point the GUI at fyne
// preferences, which neuronlog cannot open.
var ErrPreferencesBackend = errors.New("store is fyne preferences; neuronlog only reads the bolt backend")

type rootOptions struct {
	dbPath  string
	verbose bool
}

// NewRootCommand builds the neuronlog command tree.
func NewRootCommand() *cobra.Command {
	options := &rootOptions{}

	root := &cobra.Command{
		Use:   "neuronlog",
		Short: "Inspect NeuronWatch timers and history",
		Long: `neuronlog reads the NeuronWatch bolt store. It lists timers, prints,
exports and imports the history log, and clears it.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if options.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(&options.dbPath, "db", "", "bolt store path (default: from settings)")
	root.PersistentFlags().BoolVarP(&options.verbose, "verbose", "v", false, "log debug details")

	root.AddCommand(newTimersCommand(options))
	root.AddCommand(newHistoryCommand(options))
	return root
}

// withAdapter opens the store for the duration of run. Without --db the path
// comes from the settings file, and a preferences backend is refused.
func withAdapter(options *rootOptions, run func(adapter *storage.Adapter) error) error {
	path := options.dbPath
	if path == "" {
		settings, err := storage.LoadSettings(appName)
		if err != nil {
			slog.Warn("load settings, using defaults", logfields.Error(err))
		}
		if settings.StorageBackend == preferences.BackendPreferences {
			return fmt.Errorf("%w (set storage_backend: %s or pass --db)", ErrPreferencesBackend, preferences.BackendBolt)
		}
		path, err = storage.DatabasePath(appName, settings)
		if err != nil {
			return err
		}
	}

	store, err := storage.OpenBolt(path)
	if err != nil {
		return fmt.Errorf("%w (is NeuronWatch running?)", err)
	}
	defer func() {
		_ = store.Close()
	}()

	return run(storage.NewAdapter(store, slog.Default()))
}
