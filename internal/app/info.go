package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/output"
	"github.com/blackwell-systems/aptscope/internal/store"
)

var infoCmd = &cobra.Command{
	Use:   "info <package>",
	Short: "Show details for a package",
	Long: `Show every indexed field of a package along with its declared
relationships (Pre-Depends, Depends, Recommends, Suggests).`,
	Example: `  aptscope info htop`,
	Args:    cobra.ExactArgs(1),
	RunE:    runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	name := args[0]

	return withStore(func(cfg *config.Config, st *store.Store) error {
		pkg, err := st.GetPackage(name)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("package %s not found in index", name)
		}
		if err != nil {
			return err
		}

		deps, err := st.GetDependencies(name)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), output.RenderPackageInfo(pkg, deps))
		return nil
	})
}
