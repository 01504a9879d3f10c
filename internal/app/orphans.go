package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
	"github.com/blackwell-systems/aptscope/internal/orphan"
)

var (
	orphansFull bool

	orphansCmd = &cobra.Command{
		Use:   "orphans",
		Short: "Find automatically installed packages nothing needs",
		Long: `Find automatically installed packages that no manually installed package
requires.

By default deborphan is used when it is installed. Without deborphan the
removal candidates of "apt-get autoremove" are listed instead; that list is
less accurate.

With --full, aptscope reads the dpkg status file and apt's extended states
directly, follows Pre-Depends, Depends, Recommends and Suggests from every
manual package, and reports each unreachable automatic package. Core system
packages (kernels, libc, init, apt itself, ...) are never reported. Held
packages are marked [hold]. Orphans sharing a base name with another
installed package of a different version are listed as possible stale
versions.

Nothing is removed.`,
		Example: `  aptscope orphans
  aptscope orphans --full`,
		Args: cobra.NoArgs,
		RunE: runOrphans,
	}
)

func init() {
	orphansCmd.Flags().BoolVar(&orphansFull, "full", false, "full reachability analysis of the package database")
}

func runOrphans(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if orphansFull {
		return fullOrphanScan(ctx, out, cfg)
	}
	return lightOrphanScan(ctx, out)
}

func lightOrphanScan(ctx context.Context, out io.Writer) error {
	if !hasTool("deborphan") {
		fmt.Fprintln(out, "deborphan is not installed; listing apt-get autoremove candidates (less accurate).")
		return listAutoremove(ctx, out)
	}

	names, err := deborphan(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "No orphaned packages found.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

func fullOrphanScan(ctx context.Context, out io.Writer, cfg *config.Config) error {
	logger := loggerFromContext(ctx)

	core, err := orphan.CompilePatterns(orphan.DefaultCorePatterns(), cfg.Orphans.ExtraCorePatterns)
	if err != nil {
		return fmt.Errorf("invalid orphans.extra_core_patterns: %w", err)
	}

	db, err := dpkg.LoadDatabase(dpkgPaths(cfg))
	if err != nil {
		logger.Warn("cannot read package database", "err", err)
		fmt.Fprintln(out, "Cannot read the package database; full scan cannot proceed.")
		fmt.Fprintln(out, "Listing apt-get autoremove candidates instead (less accurate).")
		return listAutoremove(ctx, out)
	}
	logger.Debug("loaded package database", "installed", db.Len())

	report := orphan.Detect(orphanInputs(db, core))
	return report.Render(out)
}

// orphanInputs freezes the database into detector inputs.
func orphanInputs(db *dpkg.Database, core orphan.CorePatterns) orphan.Inputs {
	return orphan.Inputs{
		Manual:    db.Manual(),
		Automatic: db.Automatic(),
		Edges:     orphan.EdgesFrom(db.Dependencies()),
		Providers: db.Providers(),
		Versions:  db.Versions(),
		Holds:     db.Holds(),
		Core:      core,
	}
}

func listAutoremove(ctx context.Context, out io.Writer) error {
	candidates, err := autoremoveCandidates(ctx)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Fprintln(out, "No packages would be removed by autoremove.")
		return nil
	}
	for _, c := range candidates {
		if c.Version != "" {
			fmt.Fprintf(out, "%s (%s)\n", c.Name, c.Version)
		} else {
			fmt.Fprintln(out, c.Name)
		}
	}
	return nil
}
