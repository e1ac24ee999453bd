// Package main is the entry point for ha-stats-fixer. Without a subcommand it
// runs the terminal UI; preview, diagnose and apply run one operation and
// print its transcript.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/ha-stats-fixer/internal/app"
	"github.com/j-veylop/ha-stats-fixer/internal/config"
	"github.com/j-veylop/ha-stats-fixer/internal/logger"
	"github.com/j-veylop/ha-stats-fixer/internal/services"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/tabs/chart"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/tabs/correct"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/tabs/info"
	"github.com/j-veylop/ha-stats-fixer/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds what the commands share once the root has loaded the configuration.
type cli struct {
	cfg       *config.Config
	logCloser io.Closer
	flags     requestFlags
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "hsf",
		Short: "Correct Home Assistant long-term statistics",
		Long: `hsf adds a constant offset to the state and/or sum columns of one entity's
Home Assistant statistics inside a local time window, after taking a backup of
the recorder database.

Without a subcommand it starts the terminal UI. Stop Home Assistant before
applying a correction.

Configuration is read from .env in the working directory or
~/.config/ha-stats-fixer/.env, then from the environment:
  DATABASE_PATH, TIMEZONE, COLUMNS, INCLUDE_SHORT_TERM,
  LOG_PATH, LOG_LEVEL, DESKTOP_NOTIFICATIONS, WATCH_DATABASE`,
		Version:            version.GetVersion(),
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
		RunE:               c.runTUI,
	}
	root.SetVersionTemplate(version.Info() + "\n")

	root.AddCommand(
		c.newPreviewCmd(),
		c.newDiagnoseCmd(),
		c.newApplyCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and routes logging to the log file.
func (c *cli) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	closer, err := logger.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	c.cfg = cfg
	c.logCloser = closer
	logger.Info("starting", "version", version.GetVersion(), "database", cfg.DatabasePath)
	return nil
}

func (c *cli) teardown(_ *cobra.Command, _ []string) error {
	if c.logCloser == nil {
		return nil
	}
	return c.logCloser.Close()
}

// runTUI runs the Bubble Tea program until the user quits.
func (c *cli) runTUI(_ *cobra.Command, _ []string) error {
	svcManager := services.NewManager(c.cfg)
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		correct.New(state, c.cfg), // Correct: form and transcript
		chart.New(state),          // Chart: rows of the last preview
		info.New(state, c.cfg),    // Info: configuration and database file
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Printing the version needs neither configuration nor a log file.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
