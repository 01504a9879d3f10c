package app

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
	"github.com/blackwell-systems/aptscope/internal/output"
	"github.com/blackwell-systems/aptscope/internal/store"
)

var (
	searchInstalled bool

	searchCmd = &cobra.Command{
		Use:   "search <substring>",
		Short: "Find packages whose name contains a substring",
		Example: `  aptscope search python3
  aptscope search ssl --installed`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	fuzzyLimit     int
	fuzzyInstalled bool

	fuzzyCmd = &cobra.Command{
		Use:   "fuzzy <term>",
		Short: "Fuzzy-match package names",
		Long: `Match package names that contain the characters of term in order,
ranked by edit distance (closest first). Matching is case-insensitive.`,
		Example: `  aptscope fuzzy pyth3req`,
		Args:    cobra.ExactArgs(1),
		RunE:    runFuzzy,
	}
)

func init() {
	searchCmd.Flags().BoolVar(&searchInstalled, "installed", false, "only installed packages")

	fuzzyCmd.Flags().IntVar(&fuzzyLimit, "limit", 20, "maximum number of results")
	fuzzyCmd.Flags().BoolVar(&fuzzyInstalled, "installed", false, "only installed packages")
}

func runSearch(cmd *cobra.Command, args []string) error {
	return withStore(func(cfg *config.Config, st *store.Store) error {
		pkgs, err := st.SearchNames(args[0], searchInstalled)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), output.RenderPackageTable(pkgs))
		return nil
	})
}

func runFuzzy(cmd *cobra.Command, args []string) error {
	if fuzzyLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", fuzzyLimit)
	}

	return withStore(func(cfg *config.Config, st *store.Store) error {
		pkgs, err := st.ListPackages(fuzzyInstalled)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), output.RenderPackageTable(rankFuzzy(args[0], pkgs, fuzzyLimit)))
		return nil
	})
}

// rankFuzzy returns at most limit packages matching term, closest first.
// Ties are broken by name.
func rankFuzzy(term string, pkgs []*dpkg.Package, limit int) []*dpkg.Package {
	byName := make(map[string]*dpkg.Package, len(pkgs))
	names := make([]string, 0, len(pkgs))
	for _, pkg := range pkgs {
		byName[pkg.Name] = pkg
		names = append(names, pkg.Name)
	}

	ranks := fuzzy.RankFindFold(term, names)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})

	if len(ranks) > limit {
		ranks = ranks[:limit]
	}

	out := make([]*dpkg.Package, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, byName[r.Target])
	}
	return out
}
