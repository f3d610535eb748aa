// Package cli defines the deepdiff-mcp command line
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	deepdiff "github.com/qri-io/deepdiff-mcp"
	"github.com/qri-io/deepdiff-mcp/internal/config"
)

// HookFunc builds a subcommand
type HookFunc func(ctx context.Context, st *State) *cobra.Command

// Registered holds the registered command hooks
var Registered map[string]HookFunc

// Register adds a subcommand to every root command
func Register(name string, f HookFunc) {
	if Registered == nil {
		Registered = make(map[string]HookFunc)
	}
	Registered[name] = f
}

// State is shared by all commands. Config & Logger are set by the root
// command before any subcommand runs
type State struct {
	Viper   *viper.Viper
	Config  *config.Config
	Logger  *zap.Logger
	Version string
}

// differ builds a differ from command line options, warning about unknown
// exclude types
func (st *State) differ(opts config.DiffOptions, extra ...deepdiff.DiffOption) (*deepdiff.DeepDiff, error) {
	dd := deepdiff.New(append(opts.Options(st.Config.Limits), extra...)...)
	err := dd.Validate()
	var te *deepdiff.TypeExclusionError
	if errors.As(err, &te) {
		st.Logger.Warn("ignoring unknown exclude types", zap.Strings("types", te.Tags))
		return dd, nil
	}
	return dd, err
}

// bindFlags binds config keys to the named flags of fs
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, fs.Lookup(name))
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseItem reads a search item as JSON when it is valid JSON, and as a
// plain string otherwise
func parseItem(s string) interface{} {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	return v
}
