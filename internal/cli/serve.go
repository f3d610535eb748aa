package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qri-io/deepdiff-mcp/internal/config"
	"github.com/qri-io/deepdiff-mcp/internal/log"
	"github.com/qri-io/deepdiff-mcp/internal/server"
)

func init() {
	Register("serve", Serve)
}

// Serve runs the MCP server
func Serve(ctx context.Context, st *State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the deepdiff MCP server",
		Example: `deepdiff-mcp serve --transport http --host 0.0.0.0 --port 8000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := server.New(st.Config, st.Logger, st.Version)
			if err := srv.Run(ctx); err != nil {
				log.LogError(st.Logger, err, "server stopped", zap.String("transport", st.Config.Server.Transport))
				return err
			}
			st.Logger.Info("server stopped")
			return nil
		},
	}

	def := config.Default().Server
	f := cmd.Flags()
	f.String("name", def.Name, "server name reported to clients")
	f.String("transport", def.Transport, "transport protocol: stdio or http")
	f.String("host", def.Host, "host to bind to, for the http transport")
	f.Int("port", def.Port, "port to bind to, for the http transport")
	f.String("path", def.Path, "path to serve on, for the http transport")
	f.Bool("allow-file-access", def.AllowFileAccess, "register the compare_files tool, which reads the server's filesystem")
	bindFlags(st.Viper, f, map[string]string{
		"server.name":              "name",
		"server.transport":         "transport",
		"server.host":              "host",
		"server.port":              "port",
		"server.path":              "path",
		"server.allow_file_access": "allow-file-access",
	})
	return cmd
}
