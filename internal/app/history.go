package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/history"
	"github.com/blackwell-systems/aptscope/internal/output"
)

var (
	historyCount   int
	historyDate    string
	historyAll     bool
	historyActions []string

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recently installed packages",
		Long: `Show package installations recorded in apt's history log, including
rotated and compressed logs.

By default the 10 most recent manual installations are listed, newest
first. Use --date to list a single day instead (oldest first), --all to
include automatically installed dependencies, and --action to report
upgrades, removals or purges.`,
		Example: `  aptscope history --count 20
  aptscope history --date 2024-03-02 --all
  aptscope history --action upgrade,remove`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

var historyActionNames = []string{
	history.ActionInstall,
	history.ActionUpgrade,
	history.ActionDowngrade,
	history.ActionReinstall,
	history.ActionRemove,
	history.ActionPurge,
}

func init() {
	historyCmd.Flags().IntVarP(&historyCount, "count", "n", 10, "number of entries to show")
	historyCmd.Flags().StringVar(&historyDate, "date", "", "show a single day (YYYY-MM-DD)")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "include automatically installed packages")
	historyCmd.Flags().StringSliceVar(&historyActions, "action", nil, "actions to report: "+strings.Join(historyActionNames, ", "))
	historyCmd.MarkFlagsMutuallyExclusive("count", "date")
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(commandContext(cmd))

	filter := history.Filter{Automatic: historyAll}
	for _, a := range historyActions {
		if !validAction(a) {
			return fmt.Errorf("unknown action %q: expected one of %s", a, strings.Join(historyActionNames, ", "))
		}
		filter.Actions = append(filter.Actions, a)
	}

	if historyCount <= 0 {
		return fmt.Errorf("--count must be positive, got %d", historyCount)
	}

	// Validate arguments before touching the logs.
	var selected func([]history.Event) []history.Event
	if historyDate != "" {
		day, err := history.ParseDay(historyDate)
		if err != nil {
			return err
		}
		selected = func(events []history.Event) []history.Event {
			return history.OnDate(events, day, filter)
		}
	} else {
		selected = func(events []history.Event) []history.Event {
			return history.Latest(events, historyCount, filter)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	events, err := history.Load(cfg.HistoryDir)
	if err != nil {
		return err
	}
	logger.Debug("loaded history", "dir", cfg.HistoryDir, "events", len(events))

	fmt.Fprint(cmd.OutOrStdout(), output.RenderHistory(selected(events)))
	return nil
}

func validAction(a string) bool {
	for _, name := range historyActionNames {
		if a == name {
			return true
		}
	}
	return false
}
