package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
	"github.com/blackwell-systems/aptscope/internal/output"
	"github.com/blackwell-systems/aptscope/internal/store"
)

var (
	groupNames     bool
	groupInstalled bool

	groupCmd = &cobra.Command{
		Use:   "group <section>",
		Short: "List the packages in a section",
		Long: `List the packages in an archive section such as "utils" or "games".
The archive area prefix is ignored, so "contrib/games" and "games" are the
same section.`,
		Example: `  # Table of installed editors
  aptscope group editors --installed

  # Bare names, one per line
  aptscope group games --names`,
		Args: cobra.ExactArgs(1),
		RunE: runGroup,
	}

	groupsCmd = &cobra.Command{
		Use:     "groups",
		Short:   "List all sections with package counts",
		Example: `  aptscope groups`,
		Args:    cobra.NoArgs,
		RunE:    runGroups,
	}
)

func init() {
	groupCmd.Flags().BoolVar(&groupNames, "names", false, "print package names only")
	groupCmd.Flags().BoolVar(&groupInstalled, "installed", false, "only installed packages")
}

func runGroup(cmd *cobra.Command, args []string) error {
	section := dpkg.SectionCategory(args[0])

	return withStore(func(cfg *config.Config, st *store.Store) error {
		pkgs, err := st.ListByCategory(section, groupInstalled)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if groupNames {
			fmt.Fprint(out, output.RenderNames(pkgs))
			return nil
		}
		if len(pkgs) == 0 {
			fmt.Fprintf(out, "No packages found in section %s.\n", section)
			return nil
		}
		fmt.Fprint(out, output.RenderPackageTable(pkgs))
		return nil
	})
}

func runGroups(cmd *cobra.Command, args []string) error {
	return withStore(func(cfg *config.Config, st *store.Store) error {
		categories, err := st.ListCategories()
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), output.RenderCategoryTable(categories))
		return nil
	})
}
