package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/output"
	"github.com/blackwell-systems/aptscope/internal/store"
)

var (
	rdependsInstalled bool
	rdependsDOT       string
	rdependsSVG       string

	rdependsCmd = &cobra.Command{
		Use:   "rdepends <package>",
		Short: "List packages that depend on a package",
		Long: `List the packages that declare a Pre-Depends, Depends, Recommends or
Suggests relationship on a package. Every alternative of an "a | b" group
counts.

The reverse-dependency graph can also be written as Graphviz DOT or
rendered to SVG.`,
		Example: `  aptscope rdepends libssl3 --installed
  aptscope rdepends python3 --svg python3.svg`,
		Args: cobra.ExactArgs(1),
		RunE: runRdepends,
	}
)

func init() {
	rdependsCmd.Flags().BoolVar(&rdependsInstalled, "installed", false, "only installed dependents")
	rdependsCmd.Flags().StringVar(&rdependsDOT, "dot", "", "write the graph in DOT format to `FILE`")
	rdependsCmd.Flags().StringVar(&rdependsSVG, "svg", "", "render the graph as SVG to `FILE`")
}

func runRdepends(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := commandContext(cmd)
	logger := loggerFromContext(ctx)

	return withStore(func(cfg *config.Config, st *store.Store) error {
		deps, err := st.GetDependents(name, rdependsInstalled)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), output.RenderDependents(name, deps))

		if rdependsDOT == "" && rdependsSVG == "" {
			return nil
		}

		dot := output.ToDOT(name, deps)
		if rdependsDOT != "" {
			if err := os.WriteFile(rdependsDOT, []byte(dot), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", rdependsDOT, err)
			}
			logger.Info("wrote DOT graph", "path", rdependsDOT)
		}
		if rdependsSVG != "" {
			svg, err := output.RenderSVG(ctx, dot)
			if err != nil {
				return err
			}
			if err := os.WriteFile(rdependsSVG, svg, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", rdependsSVG, err)
			}
			logger.Info("wrote SVG graph", "path", rdependsSVG)
		}
		return nil
	})
}
