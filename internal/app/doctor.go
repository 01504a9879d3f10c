package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
	"github.com/blackwell-systems/aptscope/internal/history"
	"github.com/blackwell-systems/aptscope/internal/orphan"
	"github.com/blackwell-systems/aptscope/internal/output"
	"github.com/blackwell-systems/aptscope/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that aptscope can read what it needs",
	Long: `Runs diagnostic checks on the aptscope setup.

Checks:
  • Config file parses and extra core patterns compile
  • dpkg status file and apt extended states are readable
  • Local index exists and is populated
  • apt history logs are present
  • Optional tools (deborphan, apt-file) are installed

Missing optional tools and history are warnings. An unreadable status file
or config is a failure.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

type diagnosis struct {
	out      io.Writer
	critical int
	warnings int
}

func (d *diagnosis) ok(format string, a ...any) {
	fmt.Fprintf(d.out, "✓ "+format+"\n", a...)
}

func (d *diagnosis) warn(action, format string, a ...any) {
	d.warnings++
	fmt.Fprintf(d.out, "⚠ "+format+"\n", a...)
	if action != "" {
		fmt.Fprintf(d.out, "  Action: %s\n", action)
	}
}

func (d *diagnosis) fail(action, format string, a ...any) {
	d.critical++
	fmt.Fprintf(d.out, "✗ "+format+"\n", a...)
	if action != "" {
		fmt.Fprintf(d.out, "  Action: %s\n", action)
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	d := &diagnosis{out: cmd.OutOrStdout()}

	fmt.Fprintln(d.out, output.Header("Running aptscope diagnostics..."))
	fmt.Fprintln(d.out)

	cfg, err := loadConfig()
	if err != nil {
		d.fail("Fix or remove the config file", "Config: %v", err)
		return d.finish()
	}
	d.ok("Config loaded")

	if _, err := orphan.CompilePatterns(nil, cfg.Orphans.ExtraCorePatterns); err != nil {
		d.fail("Fix orphans.extra_core_patterns in the config file", "Extra core patterns: %v", err)
	}

	db := checkStatusFile(d, cfg)
	checkIndex(d, cfg, db)
	checkHistory(d, cfg)

	for _, tool := range []struct {
		name string
		why  string
	}{
		{"deborphan", "'aptscope orphans' falls back to apt-get autoremove"},
		{"apt-file", "'aptscope files' falls back to a remote lookup for uninstalled packages"},
	} {
		if hasTool(tool.name) {
			d.ok("%s installed", tool.name)
		} else {
			d.warn("apt install "+tool.name, "%s not installed: %s", tool.name, tool.why)
		}
	}

	return d.finish()
}

func checkStatusFile(d *diagnosis, cfg *config.Config) *dpkg.Database {
	db, err := dpkg.LoadDatabase(dpkgPaths(cfg))
	if err != nil {
		d.fail("Set status_file in the config file", "Package database: %v", err)
		return nil
	}
	d.ok("%d installed packages (%d manual, %d automatic)", db.Len(), len(db.Manual()), len(db.Automatic()))

	if _, err := os.Stat(cfg.ExtendedStates); err != nil {
		d.warn("Set extended_states in the config file",
			"Extended states %s not readable: every package counts as manual", cfg.ExtendedStates)
	}
	return db
}

// checkIndex reports the index state. When db is non-nil, installed
// packages missing from the index are reported as drift.
func checkIndex(d *diagnosis, cfg *config.Config, db *dpkg.Database) {
	if _, err := os.Stat(cfg.DB); err != nil {
		d.warn("Run 'aptscope index'", "Index not found at %s", cfg.DB)
		return
	}

	st, err := store.New(cfg.DB)
	if err != nil {
		d.fail("Delete the index and run 'aptscope index'", "Cannot open index: %v", err)
		return
	}
	defer st.Close()

	info, err := st.Info()
	switch {
	case errors.Is(err, store.ErrNotInitialized):
		d.warn("Run 'aptscope index'", "Index is empty")
	case err != nil:
		d.fail("Delete the index and run 'aptscope index'", "Cannot read index: %v", err)
	default:
		d.ok("%s", strings.TrimSuffix(output.RenderIndexInfo(info), "\n"))
	}
	if err != nil || db == nil {
		return
	}

	names, err := st.Names(true)
	if err != nil {
		d.fail("Delete the index and run 'aptscope index'", "Cannot read index: %v", err)
		return
	}
	if n := db.Unindexed(names); n > 0 {
		d.warn("Run 'aptscope index'", "%d installed %s not in the index", n, plural(n, "package is", "packages are"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func checkHistory(d *diagnosis, cfg *config.Config) {
	events, err := history.Load(cfg.HistoryDir)
	switch {
	case err != nil:
		d.warn("Set history_dir in the config file", "History logs: %v", err)
	case len(events) == 0:
		d.warn("", "No apt history found in %s", cfg.HistoryDir)
	default:
		d.ok("%d history entries", len(events))
	}
}

func (d *diagnosis) finish() error {
	fmt.Fprintln(d.out)
	switch {
	case d.critical > 0:
		fmt.Fprintf(d.out, "Found %d critical issue(s) and %d warning(s).\n", d.critical, d.warnings)
		return fmt.Errorf("diagnostics failed")
	case d.warnings > 0:
		fmt.Fprintf(d.out, "Found %d warning(s). aptscope is functional.\n", d.warnings)
	default:
		fmt.Fprintln(d.out, "✓ All checks passed!")
	}
	return nil
}
