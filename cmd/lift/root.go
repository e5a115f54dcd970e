// ABOUTME: Root Cobra command for lift CLI.
// ABOUTME: Loads config, opens the store and wires services via PersistentPre/PostRunE.
package main

import (
	"fmt"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	verbose bool

	cfg   *config.Config
	store *storage.DB
	svc   *catalog.Service
	log   *logrus.Entry
	owner string
)

// noStore lists commands that run without opening the database.
var noStore = map[string]bool{
	"help":          true,
	"version":       true,
	"completion":    true,
	"install-skill": true,
	"setup":         true,
}

var rootCmd = &cobra.Command{
	Use:   "lift",
	Short: "Offline-first strength training log",
	Long: `Lift is a CLI for planning and logging strength training.

Everything is written to a local SQLite database first. Each change is also
queued in an outbox that 'lift sync' pushes to a remote when one is set up.

PLANNING:

  $ lift exercise seed                          # Load the built-in exercise catalog
  $ lift program create PPL --activate          # Create and activate a program
  $ lift template create <program> Push         # Add a workout day
  $ lift template add-exercise <template> <exercise> --sets 3 --reps 8-12

TRAINING:

  $ lift session start <template>               # Begin a workout
  $ lift session complete 1 1 --weight 100 --reps 10
  $ lift session rest                           # Count down the rest period
  $ lift session finish                         # Record the completed sets

  The active session survives restarts; every command picks it up again.

PROGRESS:

  $ lift stats                                  # Weekly totals, volume, recovery
  $ lift body add 81.5                          # Log body weight
  $ lift feel add --sleep 4 --energy 3          # Log how you feel

SYNC:

  $ lift sync setup --backend charm             # or --backend http --server URL --token T
  $ lift sync status
  $ lift sync push

MCP INTEGRATION:

  Run 'lift mcp' to start the Model Context Protocol server over stdio.

  {
    "mcpServers": {
      "lift": { "command": "lift", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  The database lives at ~/.local/share/lift/lift.db unless data_dir or --db
  says otherwise. Config is read from ~/.config/lift/config.json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noStore[cmd.Name()] {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		params := cfg.LogParams(false)
		params.Level = level
		log = logging.New(params)

		store, err = cfg.OpenStore(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		owner, _ = cfg.CurrentUser()
		svc = catalog.New(store, log)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdown()
	},
}

// shutdown releases the session engine and the store. It is safe to call
// more than once; main calls it again for commands that failed.
func shutdown() error {
	closeSession()
	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: <data_dir>/lift.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
