package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	// RootCmd is the root command for aptscope
	RootCmd = &cobra.Command{
		Use:   "aptscope",
		Short: "Query the Debian/Ubuntu package database",
		Long: `aptscope answers questions about installed and available packages on
Debian-based systems: what is in a section, who depends on a package, which
files it owns, which automatic packages are no longer needed, and what was
installed when.

Most queries read a local index built from the dpkg status file and the apt
cache. Build it first:

  aptscope index --available

Examples:
  # Show everything known about a package
  aptscope info htop

  # List installed packages in a section
  aptscope group utils

  # Who needs libssl3?
  aptscope rdepends libssl3 --installed

  # Automatic packages nothing manual requires
  aptscope orphans --full

  # What was installed on a given day
  aptscope history --date 2024-03-02`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "aptscope: Debian/Ubuntu package database queries")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'aptscope index' to build the local index.")
			fmt.Fprintln(out, "Run 'aptscope --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "index database path (default: ~/.aptscope/index.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/aptscope/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	RootCmd.SuggestionsMinimumDistance = 2

	for _, cmd := range commands {
		RootCmd.AddCommand(cmd)
	}
}

// commands is the closed set of operations aptscope supports.
var commands = []*cobra.Command{
	infoCmd,
	groupCmd,
	groupsCmd,
	searchCmd,
	fuzzyCmd,
	filesCmd,
	rdependsCmd,
	orphansCmd,
	historyCmd,
	indexCmd,
	doctorCmd,
}

// setupLogging attaches a logger to the command context. Warnings and
// debug output go to stderr; reports go to stdout.
func setupLogging(cmd *cobra.Command, args []string) error {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}

	logger := newLogger(cmd.ErrOrStderr(), level)
	cmd.SetContext(withLogger(cmd.Context(), logger))
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return RootCmd.ExecuteContext(ctx)
}
