package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/qri-io/deepdiff-mcp/internal/config"
	"github.com/qri-io/deepdiff-mcp/internal/log"
)

var rootExamples = `
  Serve over stdio:
	deepdiff-mcp serve

  Serve over http:
	deepdiff-mcp serve --transport http --port 8000 --path /mcp

  Compare two files:
	deepdiff-mcp compare before.json after.json --ignore-order
`

// Root builds the deepdiff-mcp command tree. configuration comes from flags,
// DEEPDIFF_* environment variables & an optional YAML file, bound through v
func Root(ctx context.Context, v *viper.Viper, version string) *cobra.Command {
	st := &State{Viper: v, Version: version, Logger: zap.NewNop()}
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "deepdiff-mcp",
		Short:        "Structural comparison of JSON-like data, as a CLI & MCP server",
		Example:      rootExamples,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			logger, err := log.New(cfg.Log)
			if err != nil {
				return err
			}
			st.Config, st.Logger = cfg, logger
			logger.Debug("initialized with configuration", zap.Any("config", cfg))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = st.Logger.Sync()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(`{{with .Version}}{{printf "deepdiff-mcp %s" .}}{{end}}{{"\n"}}`)

	def := config.Default().Log
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a YAML config file")
	pf.String("log-level", def.Level, "log level: debug, info, warn or error")
	pf.String("log-format", def.Format, "log format: console or json")
	pf.String("log-file", def.File, "also write JSON logs to this file, rotated by size")
	bindFlags(v, pf, map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
		"log.file":   "log-file",
	})

	names := make([]string, 0, len(Registered))
	for name := range Registered {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rootCmd.AddCommand(Registered[name](ctx, st))
	}
	return rootCmd
}
