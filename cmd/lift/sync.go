// ABOUTME: CLI commands for pushing the outbox to a sync backend.
// ABOUTME: Supports setup, status, push, run, and link subcommands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/charm"
	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/sync"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	syncBackend     string
	syncServer      string
	syncToken       string
	syncInterval    int
	syncMetricsAddr string
	syncShowRemote  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push local changes to a sync backend",
	Long: `Every change lift makes is written locally and queued in an outbox.
Sync pushes queued changes, oldest first, to a remote backend.

BACKENDS:

  charm   Charm Cloud KV, E2E encrypted with your SSH key
  http    Any server accepting POST <server>/v1/mutations with a bearer token

GETTING STARTED:

  lift sync setup --backend charm
  lift sync link                  # charm only, links this device
  lift sync status
  lift sync push

  lift sync run                   # keep pushing in the foreground

A change that fails to push stays queued, and later changes to the same
record wait behind it.`,
}

// newRemote opens the configured backend. The returned close func is never nil.
func newRemote(sc sync.Config) (sync.Remote, func() error, error) {
	noop := func() error { return nil }
	if !sc.IsConfigured() {
		return nil, noop, sync.ErrNotConfigured
	}
	switch sc.Backend {
	case sync.BackendCharm:
		r, err := charm.Open(sc.Server, charm.WithLogger(log))
		if err != nil {
			return nil, noop, err
		}
		if r.IsReadOnly() {
			color.Yellow("⚠ Charm database is locked by another process; changes stay queued")
		}
		return r, r.Close, nil
	case sync.BackendHTTP:
		r, err := sync.NewHTTPRemote(sc)
		if err != nil {
			return nil, noop, err
		}
		return r, noop, nil
	}
	return nil, noop, sync.ErrNotConfigured
}

// pendingByTable groups the outbox for display.
func pendingByTable(pending []models.PendingMutation) ([]string, map[string]int) {
	counts := make(map[string]int)
	for _, m := range pending {
		counts[m.Table]++
	}
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables, counts
}

var syncSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose and configure a sync backend",
	Long: `Write the sync settings to the config file.

Examples:
  lift sync setup --backend charm
  lift sync setup --backend http --server https://sync.example.com --token T
  lift sync setup --backend none`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		flags := cmd.Flags()
		if flags.Changed("backend") {
			c.Sync.Backend = sync.Backend(syncBackend)
		}
		if flags.Changed("server") {
			c.Sync.Server = syncServer
		}
		if flags.Changed("token") {
			c.Sync.Token = syncToken
		}
		if flags.Changed("interval") {
			c.Sync.IntervalSeconds = syncInterval
		}
		if flags.Changed("metrics-addr") {
			c.Sync.MetricsAddr = syncMetricsAddr
		}
		c.Sync.EnsureDeviceID()
		if err := c.Validate(); err != nil {
			return err
		}
		if err := c.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		color.Green("✓ Sync configured")
		fmt.Printf("  Backend: %s\n", c.Sync.Backend)
		fmt.Printf("  Device: %s\n", c.Sync.DeviceID)
		if !c.Sync.IsConfigured() {
			color.Yellow("  Sync is disabled until a backend with credentials is set")
		}
		fmt.Printf("  Config: %s\n", config.GetConfigPath())
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync settings and queued changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cfg.Sync
		backend := sc.Backend
		if backend == "" {
			backend = sync.BackendNone
		}
		fmt.Printf("Backend: %s\n", backend)
		if sc.Server != "" {
			fmt.Printf("Server: %s\n", sc.Server)
		}
		if sc.DeviceID != "" {
			fmt.Printf("Device: %s\n", sc.DeviceID)
		}
		if sc.IsConfigured() {
			color.Green("✓ Configured")
		} else {
			color.Yellow("Not configured (run 'lift sync setup')")
		}

		pending, err := store.ListPendingMutations(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read outbox: %w", err)
		}
		fmt.Printf("\nQueued changes: %d\n", len(pending))
		tables, counts := pendingByTable(pending)
		for _, t := range tables {
			fmt.Printf("  %s %d\n", padRight(t, 22), counts[t])
		}
		if len(pending) > 0 {
			fmt.Printf("Oldest: %s\n", pending[0].CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		if syncShowRemote {
			return printRemoteCounts(sc)
		}
		return nil
	},
}

// printRemoteCounts lists what the charm backend already holds per table.
func printRemoteCounts(sc sync.Config) error {
	if sc.Backend != sync.BackendCharm {
		return fmt.Errorf("--remote needs the charm backend (have %q)", sc.Backend)
	}
	r, err := charm.Open(sc.Server, charm.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	if id, err := r.ID(); err == nil {
		fmt.Printf("\nCharm user: %s\n", id)
	}
	counts, err := r.Counts()
	if err != nil {
		return fmt.Errorf("failed to count remote records: %w", err)
	}
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	fmt.Println("Remote records:")
	for _, t := range tables {
		fmt.Printf("  %s %d\n", padRight(t, 22), counts[t])
	}
	return nil
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push queued changes once",
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, closeRemote, err := newRemote(cfg.Sync)
		if err != nil {
			return err
		}
		defer closeRemote()

		res, err := sync.NewDrainer(store, remote, sync.WithLogger(log)).Drain(cmd.Context())
		fmt.Printf("Pushed %d, failed %d, held %d, remaining %d\n", res.Pushed, res.Failed, res.Held, res.Remaining)
		if err != nil {
			return fmt.Errorf("push incomplete: %w", err)
		}
		if res.Remaining == 0 {
			color.Green("✓ Outbox empty")
		}
		return nil
	},
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep pushing queued changes until interrupted",
	Long: `Drain the outbox now and then on every interval until Ctrl-C.

When metrics_addr is set, Prometheus metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, closeRemote, err := newRemote(cfg.Sync)
		if err != nil {
			return err
		}
		defer closeRemote()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		drainer := sync.NewDrainer(store, remote,
			sync.WithInterval(cfg.Sync.Interval()),
			sync.WithLogger(log))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return drainer.Run(ctx) })
		if addr := cfg.Sync.MetricsAddr; addr != "" {
			g.Go(func() error { return sync.ServeMetrics(ctx, addr) })
			fmt.Printf("Metrics on http://%s/metrics\n", addr)
		}
		fmt.Printf("Syncing every %s (Ctrl-C to stop)\n", cfg.Sync.Interval())

		err = g.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		color.Green("✓ Stopped")
		return nil
	},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	Long: `Link this device to your Charm account with the charm CLI.

If you don't have a Charm account, one will be created using your SSH key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.CommandContext(cmd.Context(), "charm", "link")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr
		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}
		color.Green("\n✓ Device linked to Charm")
		return nil
	},
}

func init() {
	syncSetupCmd.Flags().StringVar(&syncBackend, "backend", "", "charm, http, or none")
	syncSetupCmd.Flags().StringVar(&syncServer, "server", "", "server URL (http) or charm host")
	syncSetupCmd.Flags().StringVar(&syncToken, "token", "", "bearer token (http)")
	syncSetupCmd.Flags().IntVar(&syncInterval, "interval", 0, "seconds between pushes for 'sync run'")
	syncSetupCmd.Flags().StringVar(&syncMetricsAddr, "metrics-addr", "", "address for Prometheus metrics, e.g. localhost:9464")

	syncStatusCmd.Flags().BoolVar(&syncShowRemote, "remote", false, "also count records held by the charm backend")

	syncCmd.AddCommand(syncSetupCmd, syncStatusCmd, syncPushCmd, syncRunCmd, syncLinkCmd)
	rootCmd.AddCommand(syncCmd)
}
