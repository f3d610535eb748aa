package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	deepdiff "github.com/qri-io/deepdiff-mcp"
	"github.com/qri-io/deepdiff-mcp/internal/config"
	"github.com/qri-io/deepdiff-mcp/internal/loader"
)

func init() {
	Register("compare", Compare)
	Register("delta", Delta)
	Register("apply", Apply)
}

// Compare prints the differences between two data files
func Compare(ctx context.Context, st *State) *cobra.Command {
	var (
		opts                     config.DiffOptions
		asJSON, showStats, plain bool
	)
	cmd := &cobra.Command{
		Use:   "compare FILE1 FILE2",
		Short: "Compare two data files (csv, tsv, xlsx, json, yaml)",
		Example: `deepdiff-mcp compare before.json after.json
  deepdiff-mcp compare a.csv b.csv --ignore-order --exclude-path "root[0]['updated']"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.ReadFlags(cmd.Flags()); err != nil {
				return err
			}
			stats := &deepdiff.Stats{}
			dd, err := st.differ(opts, deepdiff.OptionSetStats(stats))
			if err != nil {
				return err
			}

			t1, t2, err := loader.LoadPair(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			r, err := dd.Diff(ctx, t1, t2)
			if err != nil {
				return fmt.Errorf("comparing %s & %s: %w", args[0], args[1], err)
			}
			st.Logger.Debug("compared files", zap.Int("changes", r.Len()), zap.Float64("distance", stats.Distance()))

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, r)
			}
			colorTTY := !plain && !color.NoColor
			if showStats {
				fmt.Fprint(out, deepdiff.FormatPrettyStatsString(stats, colorTTY))
			}
			return deepdiff.FormatPretty(out, r, colorTTY)
		},
	}

	opts.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print a summary line before the changes")
	cmd.Flags().BoolVar(&plain, "no-color", false, "disable colored output")
	return cmd
}

// Delta prints the edit script that turns one data file into another
func Delta(ctx context.Context, st *State) *cobra.Command {
	var (
		opts   config.DiffOptions
		format string
	)
	cmd := &cobra.Command{
		Use:     "delta FILE1 FILE2",
		Short:   "Print the changes that turn FILE1 into FILE2",
		Example: `deepdiff-mcp delta before.json after.json --format json_patch`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "delta" && format != "json_patch" {
				return fmt.Errorf("unknown delta format %q, expected delta or json_patch", format)
			}
			if err := opts.ReadFlags(cmd.Flags()); err != nil {
				return err
			}
			dd, err := st.differ(opts)
			if err != nil {
				return err
			}

			t1, t2, err := loader.LoadPair(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			ds, err := dd.Delta(ctx, t1, t2)
			if err != nil {
				return err
			}
			if ds == nil {
				ds = deepdiff.Deltas{}
			}
			if format == "json_patch" {
				patch, err := ds.JSONPatch()
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), patch)
			}
			return writeJSON(cmd.OutOrStdout(), ds)
		},
	}

	opts.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "delta", "output format: delta or json_patch")
	return cmd
}

// Apply patches a data file with a delta document written by the delta command
func Apply(ctx context.Context, st *State) *cobra.Command {
	return &cobra.Command{
		Use:     "apply FILE DELTA",
		Short:   "Apply a delta document to a data file & print the result as JSON",
		Example: `deepdiff-mcp delta a.json b.json > changes.json && deepdiff-mcp apply a.json changes.json`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loader.Load(ctx, args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			var ds deepdiff.Deltas
			if err := dec.Decode(&ds); err != nil {
				return fmt.Errorf("parsing %s: %w", args[1], err)
			}

			patched, err := deepdiff.Patch(v, ds)
			if err != nil {
				return err
			}
			st.Logger.Debug("applied delta", zap.Int("operations", len(ds)))
			return writeJSON(cmd.OutOrStdout(), patched)
		},
	}
}
