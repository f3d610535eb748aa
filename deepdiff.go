package deepdiff

import (
	"context"
	"fmt"
	"regexp"
	"sort"
)

// DiffConfig are any possible configuration parameters for calculating diffs
type DiffConfig struct {
	// compare sequences as multisets, ignoring element order
	IgnoreOrder bool
	// with IgnoreOrder, report elements that occur a different number of times
	ReportRepetition bool
	// paths to skip, in any syntax ParsePath accepts
	ExcludePaths []string
	// regular expressions matched against canonical path strings
	ExcludeRegexPaths []string
	// type tags to skip, eg: "str", "dict", "NoneType"
	ExcludeTypes []string
	// treat strings & bytes as the same type
	IgnoreStringTypeChanges bool
	// treat ints & floats as the same type
	IgnoreNumericTypeChanges bool
	// compare strings case-insensitively
	IgnoreStringCase bool
	// round numbers to this many digits after the decimal point before
	// comparing. negative values disable rounding
	SignificantDigits int
	// maximum nesting depth before aborting with a ResourceLimitError
	MaxDepth int
	// maximum length of a sequence compared with IgnoreOrder
	MaxCollectionSize int
	// maximum number of element pairs considered while matching unordered
	// sequences
	MaxPairs int
	// unmatched unordered elements further apart than this are reported as an
	// addition & removal instead of being diffed
	CutoffDistanceForPairs float64
	// Provide a non-nil stats pointer & diff will populate it with data from
	// the diff process
	Stats *Stats
}

// DefaultDiffConfig returns the configuration used when no options are given
func DefaultDiffConfig() *DiffConfig {
	return &DiffConfig{
		SignificantDigits:      -1,
		MaxDepth:               1000,
		MaxCollectionSize:      100000,
		MaxPairs:               1000000,
		CutoffDistanceForPairs: 0.3,
	}
}

// DiffOption is a function that adjust a config, zero or more DiffOptions
// can be passed to the New function
type DiffOption func(cfg *DiffConfig)

// OptionIgnoreOrder compares sequences without regard to element order
func OptionIgnoreOrder(ignore bool) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.IgnoreOrder = ignore
	}
}

// OptionReportRepetition reports changes in the number of times an element
// occurs. only has an effect with IgnoreOrder
func OptionReportRepetition(report bool) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.ReportRepetition = report
	}
}

// OptionExcludePaths skips the given paths & everything beneath them
func OptionExcludePaths(paths ...string) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.ExcludePaths = append(cfg.ExcludePaths, paths...)
	}
}

// OptionExcludeRegexPaths skips paths that match any of the given expressions
func OptionExcludeRegexPaths(patterns ...string) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.ExcludeRegexPaths = append(cfg.ExcludeRegexPaths, patterns...)
	}
}

// OptionExcludeTypes skips values with any of the given type tags
func OptionExcludeTypes(tags ...string) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.ExcludeTypes = append(cfg.ExcludeTypes, tags...)
	}
}

// OptionIgnoreStringTypeChanges treats strings & bytes as one type
func OptionIgnoreStringTypeChanges(ignore bool) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.IgnoreStringTypeChanges = ignore
	}
}

// OptionIgnoreNumericTypeChanges treats ints & floats as one type
func OptionIgnoreNumericTypeChanges(ignore bool) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.IgnoreNumericTypeChanges = ignore
	}
}

// OptionIgnoreStringCase compares strings with unicode case folding
func OptionIgnoreStringCase(ignore bool) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.IgnoreStringCase = ignore
	}
}

// OptionSignificantDigits rounds numbers to n digits after the decimal point
// before comparing
func OptionSignificantDigits(n int) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.SignificantDigits = n
	}
}

// OptionMaxDepth sets the nesting limit
func OptionMaxDepth(n int) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.MaxDepth = n
	}
}

// OptionMaxCollectionSize sets the largest sequence compared without order
func OptionMaxCollectionSize(n int) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.MaxCollectionSize = n
	}
}

// OptionMaxPairs sets the pair comparison budget for unordered sequences
func OptionMaxPairs(n int) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.MaxPairs = n
	}
}

// OptionCutoffDistanceForPairs sets the distance beyond which unmatched
// unordered elements aren't paired
func OptionCutoffDistanceForPairs(d float64) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.CutoffDistanceForPairs = d
	}
}

// OptionSetStats will set the passed-in stats pointer when Diff is called
func OptionSetStats(st *Stats) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.Stats = st
	}
}

// typeAliases maps type names from other ecosystems onto our kinds
var typeAliases = map[string]string{
	"tuple":     KindSequence.String(),
	"frozenset": KindSet.String(),
	"bytearray": KindBytes.String(),
	"None":      KindNull.String(),
	"null":      KindNull.String(),
	"string":    KindString.String(),
	"list":      KindSequence.String(),
	"dict":      KindMapping.String(),
	"set":       KindSet.String(),
	"int":       KindInt.String(),
	"float":     KindFloat.String(),
	"bool":      KindBool.String(),
	"str":       KindString.String(),
	"bytes":     KindBytes.String(),
	"NoneType":  KindNull.String(),
}

// compiled is a validated, immutable form of DiffConfig
type compiled struct {
	ignoreOrder        bool
	reportRepetition   bool
	ignoreStringTypes  bool
	ignoreNumericTypes bool
	ignoreStringCase   bool
	significantDigits  int
	maxDepth           int
	maxCollectionSize  int
	maxPairs           int
	cutoff             float64

	paths   map[string]struct{}
	regexes []*regexp.Regexp
	types   map[string]struct{}
	// exclude types that name no known kind
	unknownTypes []string
}

func compile(cfg *DiffConfig) (*compiled, error) {
	c := &compiled{
		ignoreOrder:        cfg.IgnoreOrder,
		reportRepetition:   cfg.IgnoreOrder && cfg.ReportRepetition,
		ignoreStringTypes:  cfg.IgnoreStringTypeChanges,
		ignoreNumericTypes: cfg.IgnoreNumericTypeChanges,
		ignoreStringCase:   cfg.IgnoreStringCase,
		significantDigits:  cfg.SignificantDigits,
		maxDepth:           cfg.MaxDepth,
		maxCollectionSize:  cfg.MaxCollectionSize,
		maxPairs:           cfg.MaxPairs,
		cutoff:             cfg.CutoffDistanceForPairs,
	}
	if c.significantDigits < 0 {
		c.significantDigits = -1
	}
	if c.maxDepth <= 0 {
		return nil, fmt.Errorf("max depth must be positive, got %d", c.maxDepth)
	}
	if c.maxCollectionSize <= 0 {
		return nil, fmt.Errorf("max collection size must be positive, got %d", c.maxCollectionSize)
	}
	if c.maxPairs <= 0 {
		return nil, fmt.Errorf("max pairs must be positive, got %d", c.maxPairs)
	}
	if c.cutoff < 0 || c.cutoff > 1 {
		return nil, fmt.Errorf("cutoff distance for pairs must be between 0 and 1, got %f", c.cutoff)
	}

	if len(cfg.ExcludePaths) > 0 {
		c.paths = map[string]struct{}{}
		for _, s := range cfg.ExcludePaths {
			p, err := ParsePath(s)
			if err != nil {
				return nil, err
			}
			c.paths[p.String()] = struct{}{}
		}
	}

	for _, s := range cfg.ExcludeRegexPaths {
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, &PathError{Path: s, Reason: fmt.Sprintf("invalid exclude regex: %s", err)}
		}
		c.regexes = append(c.regexes, re)
	}

	if len(cfg.ExcludeTypes) > 0 {
		c.types = map[string]struct{}{}
		for _, t := range cfg.ExcludeTypes {
			if tag, ok := typeAliases[t]; ok {
				c.types[tag] = struct{}{}
				continue
			}
			c.types[t] = struct{}{}
			c.unknownTypes = append(c.unknownTypes, t)
		}
		sort.Strings(c.unknownTypes)
	}

	return c, nil
}

var plainConfig = func() *compiled {
	c, err := compile(DefaultDiffConfig())
	if err != nil {
		panic(err)
	}
	return c
}()

// excluded reports whether the node at p should be skipped
func (c *compiled) excluded(p Path, v interface{}) bool {
	if len(c.types) > 0 {
		if _, ok := c.types[TypeName(v)]; ok {
			return true
		}
	}
	if len(p) == 0 || (c.paths == nil && c.regexes == nil) {
		return false
	}
	s := p.String()
	if _, ok := c.paths[s]; ok {
		return true
	}
	for _, re := range c.regexes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// DeepDiff is a configured differ. DeepDiff holds only immutable
// configuration & is safe for concurrent use, with the exception of a Stats
// pointer set with OptionSetStats, which every call writes to
type DeepDiff struct {
	cfg *DiffConfig
	c   *compiled
	err error
}

// New creates a differ from a set of options. configuration errors (bad
// regular expressions, malformed exclude paths, invalid limits) are returned
// by every method of the differ, and by Validate
func New(opts ...DiffOption) *DeepDiff {
	cfg := DefaultDiffConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	c, err := compile(cfg)
	return &DeepDiff{cfg: cfg, c: c, err: err}
}

// Validate returns any configuration error. unrecognized exclude types aren't
// fatal & come back as a *TypeExclusionError when there's no other problem
func (dd *DeepDiff) Validate() error {
	if dd.err != nil {
		return dd.err
	}
	if len(dd.c.unknownTypes) > 0 {
		return &TypeExclusionError{Tags: dd.c.unknownTypes}
	}
	return nil
}

// Diff computes a categorized report of the differences between two values
func (dd *DeepDiff) Diff(ctx context.Context, t1, t2 interface{}) (*Report, error) {
	if dd.err != nil {
		return nil, dd.err
	}

	d := newDiffer(ctx, dd.c)
	if err := d.diff(nil, t1, t2); err != nil {
		return nil, err
	}

	if dd.cfg.Stats != nil {
		*dd.cfg.Stats = *calcStats(d.report, t1, t2)
	}
	return d.report, nil
}

// Stat diffs two values, returning only statistics about the difference
func (dd *DeepDiff) Stat(ctx context.Context, t1, t2 interface{}) (*Stats, error) {
	if dd.err != nil {
		return nil, dd.err
	}
	d := newDiffer(ctx, dd.c)
	if err := d.diff(nil, t1, t2); err != nil {
		return nil, err
	}
	return calcStats(d.report, t1, t2), nil
}

// Distance estimates how different two values are, from 0 (equal) to 1
// (nothing in common)
func (dd *DeepDiff) Distance(ctx context.Context, t1, t2 interface{}) (float64, error) {
	st, err := dd.Stat(ctx, t1, t2)
	if err != nil {
		return 0, err
	}
	return st.Distance(), nil
}

// Delta computes the edit script that turns t1 into t2. when ignoring order,
// repetitions are always counted so the script reproduces every copy of a
// repeated element
func (dd *DeepDiff) Delta(ctx context.Context, t1, t2 interface{}) (Deltas, error) {
	if dd.err != nil {
		return nil, dd.err
	}
	c := dd.c
	if c.ignoreOrder && !c.reportRepetition {
		cp := *c
		cp.reportRepetition = true
		c = &cp
	}

	d := newDiffer(ctx, c)
	if err := d.diff(nil, t1, t2); err != nil {
		return nil, err
	}
	return NewDeltas(d.report), nil
}
