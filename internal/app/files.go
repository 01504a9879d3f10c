package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
	"github.com/blackwell-systems/aptscope/internal/remote"
)

// fetchRemoteFiles is replaced in tests.
var fetchRemoteFiles = func(ctx context.Context, cfg *config.Config, name string) ([]string, error) {
	c := remote.NewClient(cfg.Remote.URL, cfg.Remote.Suite, cfg.Remote.Arch, cfg.Remote.Timeout)
	return c.FileList(ctx, name)
}

var filesCmd = &cobra.Command{
	Use:   "files <package>",
	Short: "List the files a package ships",
	Long: `List the files owned by a package.

Installed packages are answered from dpkg's file lists. For packages that
are not installed, apt-file is used when available; otherwise the file list
is fetched once from the configured package archive website. A failed
remote lookup prints a warning and is not an error.`,
	Example: `  aptscope files coreutils
  aptscope files cowsay`,
	Args: cobra.ExactArgs(1),
	RunE: runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := commandContext(cmd)
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := dpkg.ListFiles(cfg.InfoDir, name)
	switch {
	case err == nil:
		logger.Debug("file list from dpkg", "package", name)
	case errors.Is(err, dpkg.ErrNotInstalled):
		files, err = lookupUninstalledFiles(ctx, cfg, name)
		if err != nil {
			logger.Warn("remote file lookup failed", "package", name, "err", err)
			fmt.Fprintf(out, "Warning: could not retrieve the file list for %s: %v\n", name, err)
			return nil
		}
	default:
		return err
	}

	if len(files) == 0 {
		fmt.Fprintf(out, "No files found for %s.\n", name)
		return nil
	}
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	return nil
}

func lookupUninstalledFiles(ctx context.Context, cfg *config.Config, name string) ([]string, error) {
	logger := loggerFromContext(ctx)

	if hasTool("apt-file") {
		files, err := aptFileList(ctx, name)
		if err == nil && len(files) > 0 {
			logger.Debug("file list from apt-file", "package", name)
			return files, nil
		}
		logger.Debug("apt-file had no answer", "package", name, "err", err)
	}

	logger.Debug("fetching remote file list", "package", name)
	return fetchRemoteFiles(ctx, cfg, name)
}
