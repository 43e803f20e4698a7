package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mike-meow/zestify/pkg/config"
	"github.com/mike-meow/zestify/pkg/logging"
	"github.com/mike-meow/zestify/pkg/memory"
	"github.com/mike-meow/zestify/pkg/store"
	"github.com/mike-meow/zestify/pkg/view"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	configPath string
	dataDir    string

	log     *logging.Logger
	store   *store.FileStore
	manager *memory.Manager
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "zestify-memory",
		Short: "Inspect and maintain stored coaching memory",
		Long: `zestify-memory works directly on the per-user record directories.

Available commands:
  migrate - fold legacy workouts.json files into workout_memory
  patch   - apply a JSON patch or merge patch to one user
  view    - render a user's history as the coach sees it
  compact - print the compact record handed to the model`,
		Version:            version,
		SilenceUsage:       true,
		PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return a.init() },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return a.log.Close() },
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file (JSON or YAML)")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Override storage.data_dir")

	cmd.AddCommand(
		a.migrateCmd(),
		a.patchCmd(),
		a.viewCmd(),
		a.compactCmd(),
	)
	return cmd
}

func (a *app) init() error {
	if err := config.Initialize(a.configPath); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	dataDir, logDir := config.GetStorage().Dirs()
	if a.dataDir != "" {
		dataDir = a.dataDir
	}

	logging.SetLogDirectory(logDir)
	log, err := logging.NewLogger("cli")
	if err != nil {
		log.Warnf("Failed to initialize cli logger, using stderr fallback: %v", err)
	}
	a.log = log

	st, err := store.NewFileStore(dataDir, store.WithLogger(log))
	if err != nil {
		return err
	}
	a.store = st

	a.manager, err = memory.NewManager(st,
		memory.WithLogger(log),
		memory.WithGenerator(view.New(config.GetView().Horizons())),
		memory.WithCompactWindow(time.Duration(config.GetView().YearDays)*24*time.Hour),
	)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
