package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deepdiff "github.com/qri-io/deepdiff-mcp"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepdiff.yaml")
	data := []byte(`
server:
  transport: http
  port: 9000
  allow_file_access: true
log:
  level: debug
limits:
  max_pairs: 50
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("DEEPDIFF_SERVER_PORT", "9100")
	t.Setenv("DEEPDIFF_LOG_FORMAT", "json")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, 9100, cfg.Server.Port, "environment overrides the file")
	assert.True(t, cfg.Server.AllowFileAccess)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 50, cfg.Limits.MaxPairs)
	assert.Equal(t, Default().Limits.MaxDepth, cfg.Limits.MaxDepth)
}

func TestLoadFlagsWin(t *testing.T) {
	t.Setenv("DEEPDIFF_SERVER_TRANSPORT", "stdio")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("transport", "stdio", "")
	require.NoError(t, fs.Parse([]string{"--transport", "http"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("server.transport", fs.Lookup("transport")))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Server.Transport)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(c *Config)
	}{
		{"transport", func(c *Config) { c.Server.Transport = "sse" }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"path", func(c *Config) { c.Server.Path = "mcp" }},
		{"http host", func(c *Config) { c.Server.Transport = "http"; c.Server.Host = "" }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"depth", func(c *Config) { c.Limits.MaxDepth = 0 }},
		{"cutoff", func(c *Config) { c.Limits.CutoffDistanceForPairs = 1.5 }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDiffOptionsFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts := &DiffOptions{}
	opts.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--ignore-order",
		"--exclude-path", "root['a']",
		"--exclude-path", "root['b']",
		"--significant-digits", "2",
	}))
	require.NoError(t, opts.ReadFlags(fs))

	assert.True(t, opts.IgnoreOrder)
	assert.Equal(t, []string{"root['a']", "root['b']"}, opts.ExcludePaths)
	require.NotNil(t, opts.SignificantDigits)
	assert.Equal(t, 2, *opts.SignificantDigits)
}

func TestDiffOptions(t *testing.T) {
	ctx := context.Background()
	digits := 1
	opts := DiffOptions{
		IgnoreOrder:       true,
		ExcludePaths:      []string{"root['skip']"},
		SignificantDigits: &digits,
	}

	dd := deepdiff.New(opts.Options(Default().Limits)...)
	require.NoError(t, dd.Validate())

	t1 := map[string]interface{}{"l": []interface{}{1.01, "a"}, "skip": 1}
	t2 := map[string]interface{}{"l": []interface{}{"a", 1.04}, "skip": 2}
	r, err := dd.Diff(ctx, t1, t2)
	require.NoError(t, err)
	assert.True(t, r.Empty())

	bad := DiffOptions{ExcludeRegexPaths: []string{"("}}
	assert.Error(t, deepdiff.New(bad.Options(Default().Limits)...).Validate())
}
