package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
	"github.com/blackwell-systems/aptscope/internal/output"
	"github.com/blackwell-systems/aptscope/internal/store"
	"github.com/blackwell-systems/aptscope/internal/watcher"
)

var (
	indexAvailable bool
	indexWatch     bool
	indexQuiet     bool

	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Build the local package index",
		Long: `Read the dpkg status file and apt's extended states and store every
installed package, with its relationships, in the local index.

With --available, every package known to the apt cache is indexed as well
(via apt-cache dumpavail), so that info, group, search and rdepends also
cover packages that are not installed.

With --watch, aptscope keeps running and rebuilds the index whenever dpkg
rewrites its status file. Stop it with Ctrl-C.`,
		Example: `  # Installed packages only
  aptscope index

  # Installed and available packages
  aptscope index --available

  # Keep the index current
  aptscope index --available --watch`,
		Args: cobra.NoArgs,
		RunE: runIndex,
	}
)

func init() {
	indexCmd.Flags().BoolVar(&indexAvailable, "available", false, "also index packages from the apt cache")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "re-index when the status file changes")
	indexCmd.Flags().BoolVar(&indexQuiet, "quiet", false, "suppress progress output")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	return withStore(func(cfg *config.Config, st *store.Store) error {
		if err := buildIndex(ctx, out, cfg, st); err != nil {
			return err
		}
		if !indexWatch {
			return nil
		}

		logger := loggerFromContext(ctx)
		w, err := watcher.New(cfg.StatusFile, func(ctx context.Context) error {
			return buildIndex(ctx, out, cfg, st)
		}, logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Watching %s for changes (Ctrl-C to stop)...\n", cfg.StatusFile)
		return w.Run(ctx)
	})
}

// buildIndex rebuilds the whole index in one transaction.
func buildIndex(ctx context.Context, out io.Writer, cfg *config.Config, st *store.Store) error {
	logger := loggerFromContext(ctx)

	var spinner *output.Spinner
	step := func(msg string) {}
	if !indexQuiet {
		spinner = output.NewSpinner("Reading package database")
		spinner.Start()
		step = spinner.Update
	}
	fail := func(err error) error {
		if spinner != nil {
			spinner.Stop()
		}
		return err
	}

	db, err := dpkg.LoadDatabase(dpkgPaths(cfg))
	if err != nil {
		return fail(fmt.Errorf("failed to read package database: %w", err))
	}
	logger.Debug("read status file", "path", cfg.StatusFile, "installed", db.Len())

	var available []*dpkg.Package
	if indexAvailable {
		step("Reading apt cache")
		available, err = listAvailable(ctx)
		if err != nil {
			return fail(err)
		}
		logger.Debug("read apt cache", "packages", len(available))
	}

	step("Writing index")
	if err := st.CreateSchema(); err != nil {
		return fail(err)
	}
	if err := st.ReplaceAll(db.Packages(), available); err != nil {
		return fail(err)
	}

	info, err := st.Info()
	if err != nil {
		return fail(err)
	}

	if spinner != nil {
		spinner.Stop()
	}
	fmt.Fprint(out, output.RenderIndexInfo(info))
	return nil
}
