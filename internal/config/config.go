// Package config provides configuration structures for the server & CLI.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable that overrides config, eg:
// DEEPDIFF_SERVER_PORT
const EnvPrefix = "DEEPDIFF"

// Config is the complete configuration, read from a yaml file, DEEPDIFF_*
// environment variables & command line flags
type Config struct {
	Server Server `json:"server" yaml:"server" mapstructure:"server"`
	Log    Log    `json:"log" yaml:"log" mapstructure:"log"`
	Limits Limits `json:"limits" yaml:"limits" mapstructure:"limits"`
}

// Server configures the MCP server & its transport
type Server struct {
	Name            string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Transport       string `json:"transport" yaml:"transport" mapstructure:"transport" validate:"oneof=stdio http"`
	Host            string `json:"host" yaml:"host" mapstructure:"host" validate:"required_if=Transport http"`
	Port            int    `json:"port" yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	Path            string `json:"path" yaml:"path" mapstructure:"path" validate:"startswith=/"`
	AllowFileAccess bool   `json:"allowFileAccess" yaml:"allow_file_access" mapstructure:"allow_file_access"`
}

// Log configures logging. File, when set, also writes rotated logs there
type Log struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=console json"`
	File       string `json:"file" yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `json:"maxSizeMB" yaml:"max_size_mb" mapstructure:"max_size_mb" validate:"min=0"`
	MaxBackups int    `json:"maxBackups" yaml:"max_backups" mapstructure:"max_backups" validate:"min=0"`
}

// Limits bound the work a single comparison may do
type Limits struct {
	MaxDepth               int     `json:"maxDepth" yaml:"max_depth" mapstructure:"max_depth" validate:"min=1"`
	MaxCollectionSize      int     `json:"maxCollectionSize" yaml:"max_collection_size" mapstructure:"max_collection_size" validate:"min=1"`
	MaxPairs               int     `json:"maxPairs" yaml:"max_pairs" mapstructure:"max_pairs" validate:"min=1"`
	CutoffDistanceForPairs float64 `json:"cutoffDistanceForPairs" yaml:"cutoff_distance_for_pairs" mapstructure:"cutoff_distance_for_pairs" validate:"min=0,max=1"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: Server{
			Name:      "deepdiff",
			Transport: "stdio",
			Host:      "127.0.0.1",
			Port:      8000,
			Path:      "/mcp",
		},
		Log: Log{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
		Limits: Limits{
			MaxDepth:               1000,
			MaxCollectionSize:      100000,
			MaxPairs:               1000000,
			CutoffDistanceForPairs: 0.3,
		},
	}
}

// SetDefaults registers every key of the default config with v, so
// environment variables & flags can override any of them
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.name", d.Server.Name)
	v.SetDefault("server.transport", d.Server.Transport)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.path", d.Server.Path)
	v.SetDefault("server.allow_file_access", d.Server.AllowFileAccess)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)

	v.SetDefault("limits.max_depth", d.Limits.MaxDepth)
	v.SetDefault("limits.max_collection_size", d.Limits.MaxCollectionSize)
	v.SetDefault("limits.max_pairs", d.Limits.MaxPairs)
	v.SetDefault("limits.cutoff_distance_for_pairs", d.Limits.CutoffDistanceForPairs)
}

// Load reads configuration from, in priority order, flags already bound to v,
// DEEPDIFF_* environment variables, the YAML file at path (if any) & defaults
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints, reporting every invalid field at once
func (c *Config) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
