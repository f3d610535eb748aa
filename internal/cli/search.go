package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	deepdiff "github.com/qri-io/deepdiff-mcp"
	"github.com/qri-io/deepdiff-mcp/internal/config"
	"github.com/qri-io/deepdiff-mcp/internal/loader"
)

func init() {
	Register("hash", Hash)
	Register("search", Search)
	Register("extract", Extract)
}

// Hash prints the content hash of a data file
func Hash(ctx context.Context, st *State) *cobra.Command {
	var opts config.DiffOptions
	cmd := &cobra.Command{
		Use:     "hash FILE",
		Short:   "Print the content hash of a data file",
		Example: `deepdiff-mcp hash data.json --exclude-path "root['updated']"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.ReadFlags(cmd.Flags()); err != nil {
				return err
			}
			dd, err := st.differ(opts)
			if err != nil {
				return err
			}
			v, err := loader.Load(ctx, args[0])
			if err != nil {
				return err
			}
			h, err := dd.Hash(ctx, v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h)
			return err
		},
	}
	opts.RegisterFlags(cmd.Flags())
	return cmd
}

// Search prints the paths where an item occurs within a data file
func Search(ctx context.Context, st *State) *cobra.Command {
	var (
		cfg       deepdiff.SearchConfig
		useRegexp bool
	)
	cmd := &cobra.Command{
		Use:   "search FILE ITEM",
		Short: "Find where ITEM occurs in a data file",
		Long: `Find where ITEM occurs in a data file. ITEM is read as JSON when it's valid
JSON (a number, a list, an object...), and as a string otherwise.`,
		Example: `deepdiff-mcp search data.json "found me"
  deepdiff-mcp search data.json '^id-[0-9]+$' --regexp`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loader.Load(ctx, args[0])
			if err != nil {
				return err
			}
			cfg.MaxDepth = st.Config.Limits.MaxDepth

			var res *deepdiff.SearchResult
			if useRegexp {
				cfg.UseRegexp = true
				res, err = deepdiff.Grep(ctx, v, args[1], &cfg)
			} else {
				res, err = deepdiff.Search(ctx, v, parseItem(args[1]), &cfg)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&cfg.CaseSensitive, "case-sensitive", false, "match string case exactly")
	cmd.Flags().BoolVar(&cfg.ExactMatch, "exact", false, "require whole values to match instead of substrings")
	cmd.Flags().BoolVar(&useRegexp, "regexp", false, "treat ITEM as a regular expression")
	return cmd
}

// Extract prints the value at a path within a data file
func Extract(ctx context.Context, st *State) *cobra.Command {
	return &cobra.Command{
		Use:     "extract FILE PATH",
		Short:   "Print the value at PATH within a data file",
		Example: `deepdiff-mcp extract data.json "root['a']['b'][3]"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loader.Load(ctx, args[0])
			if err != nil {
				return err
			}
			found, err := deepdiff.Extract(v, args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), found)
		},
	}
}
