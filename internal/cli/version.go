package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	Register("version", Version)
}

// Version prints the build version
func Version(_ context.Context, st *State) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deepdiff-mcp version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deepdiff-mcp %s\n", st.Version)
			return err
		},
	}
}
