package config

import (
	"github.com/spf13/pflag"

	deepdiff "github.com/qri-io/deepdiff-mcp"
)

// DiffOptions are the per-comparison settings a caller chooses, as they
// arrive in tool arguments & command line flags
type DiffOptions struct {
	IgnoreOrder              bool     `json:"ignore_order"`
	ReportRepetition         bool     `json:"report_repetition"`
	ExcludePaths             []string `json:"exclude_paths"`
	ExcludeRegexPaths        []string `json:"exclude_regex_paths"`
	ExcludeTypes             []string `json:"exclude_types"`
	IgnoreStringTypeChanges  bool     `json:"ignore_string_type_changes"`
	IgnoreNumericTypeChanges bool     `json:"ignore_numeric_type_changes"`
	IgnoreStringCase         bool     `json:"ignore_string_case"`
	// nil leaves numbers unrounded
	SignificantDigits *int `json:"significant_digits"`
}

// RegisterFlags adds a flag for every option to fs
func (o *DiffOptions) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.IgnoreOrder, "ignore-order", false, "compare lists as multisets, ignoring element order")
	fs.BoolVar(&o.ReportRepetition, "report-repetition", false, "with --ignore-order, report elements repeated a different number of times")
	fs.StringSliceVar(&o.ExcludePaths, "exclude-path", nil, "path to skip, eg: \"root['meta']\" (repeatable)")
	fs.StringSliceVar(&o.ExcludeRegexPaths, "exclude-regex-path", nil, "regular expression matching paths to skip (repeatable)")
	fs.StringSliceVar(&o.ExcludeTypes, "exclude-type", nil, "type name to skip, eg: str, int, NoneType (repeatable)")
	fs.BoolVar(&o.IgnoreStringTypeChanges, "ignore-string-type-changes", false, "treat strings & bytes as the same type")
	fs.BoolVar(&o.IgnoreNumericTypeChanges, "ignore-numeric-type-changes", false, "treat ints & floats as the same type")
	fs.BoolVar(&o.IgnoreStringCase, "ignore-string-case", false, "compare strings case-insensitively")
	fs.Int("significant-digits", -1, "round numbers to this many decimal places before comparing, -1 to disable")
}

// ReadFlags picks up flags RegisterFlags can't bind directly
func (o *DiffOptions) ReadFlags(fs *pflag.FlagSet) error {
	if !fs.Changed("significant-digits") {
		return nil
	}
	n, err := fs.GetInt("significant-digits")
	if err != nil {
		return err
	}
	if n >= 0 {
		o.SignificantDigits = &n
	}
	return nil
}

// Options converts o into differ options, bounded by limits
func (o DiffOptions) Options(limits Limits) []deepdiff.DiffOption {
	opts := []deepdiff.DiffOption{
		deepdiff.OptionIgnoreOrder(o.IgnoreOrder),
		deepdiff.OptionReportRepetition(o.ReportRepetition),
		deepdiff.OptionIgnoreStringTypeChanges(o.IgnoreStringTypeChanges),
		deepdiff.OptionIgnoreNumericTypeChanges(o.IgnoreNumericTypeChanges),
		deepdiff.OptionIgnoreStringCase(o.IgnoreStringCase),
		deepdiff.OptionMaxDepth(limits.MaxDepth),
		deepdiff.OptionMaxCollectionSize(limits.MaxCollectionSize),
		deepdiff.OptionMaxPairs(limits.MaxPairs),
		deepdiff.OptionCutoffDistanceForPairs(limits.CutoffDistanceForPairs),
	}
	if len(o.ExcludePaths) > 0 {
		opts = append(opts, deepdiff.OptionExcludePaths(o.ExcludePaths...))
	}
	if len(o.ExcludeRegexPaths) > 0 {
		opts = append(opts, deepdiff.OptionExcludeRegexPaths(o.ExcludeRegexPaths...))
	}
	if len(o.ExcludeTypes) > 0 {
		opts = append(opts, deepdiff.OptionExcludeTypes(o.ExcludeTypes...))
	}
	if o.SignificantDigits != nil {
		opts = append(opts, deepdiff.OptionSignificantDigits(*o.SignificantDigits))
	}
	return opts
}
