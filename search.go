package deepdiff

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"golang.org/x/text/cases"
)

// SearchConfig configures Search & Grep
type SearchConfig struct {
	// match strings with exact case. default is case-insensitive
	CaseSensitive bool
	// require whole values to match instead of substrings
	ExactMatch bool
	// Grep only: treat the item as a regular expression
	UseRegexp bool
	// nesting limit, defaults to 1000
	MaxDepth int
}

// SearchResult lists the paths where a search item was found. each list is
// sorted & free of duplicates
type SearchResult struct {
	// containers equal to a non-scalar item
	MatchedPaths *treeset.Set
	// scalar leaves matching the item
	MatchedValues *treeset.Set
	// mapping keys matching the item
	MatchedKeys *treeset.Set
}

func newSearchResult() *SearchResult {
	return &SearchResult{
		MatchedPaths:  treeset.NewWithStringComparator(),
		MatchedValues: treeset.NewWithStringComparator(),
		MatchedKeys:   treeset.NewWithStringComparator(),
	}
}

// Len counts all matches
func (r *SearchResult) Len() int {
	return r.MatchedPaths.Size() + r.MatchedValues.Size() + r.MatchedKeys.Size()
}

// Paths lists matched container paths
func (r *SearchResult) Paths() []string { return setStrings(r.MatchedPaths) }

// Values lists matched leaf paths
func (r *SearchResult) Values() []string { return setStrings(r.MatchedValues) }

// Keys lists matched key paths
func (r *SearchResult) Keys() []string { return setStrings(r.MatchedKeys) }

func setStrings(s *treeset.Set) []string {
	vals := s.Values()
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = v.(string)
	}
	return strs
}

// MarshalJSON encodes non-empty match lists keyed by category
func (r *SearchResult) MarshalJSON() ([]byte, error) {
	out := map[string][]string{}
	if r.MatchedPaths.Size() > 0 {
		out["matched_paths"] = r.Paths()
	}
	if r.MatchedValues.Size() > 0 {
		out["matched_values"] = r.Values()
	}
	if r.MatchedKeys.Size() > 0 {
		out["matched_keys"] = r.Keys()
	}
	return json.Marshal(out)
}

// searcher matches nodes against an item
type searcher struct {
	cfg      *SearchConfig
	item     interface{}
	itemKind Kind
	itemText string
	digest   string
	re       *regexp.Regexp
	fold     cases.Caser
	grep     bool
}

func newSearcher(item interface{}, cfg *SearchConfig, grep bool) (*searcher, error) {
	if cfg == nil {
		cfg = &SearchConfig{}
	}
	k := KindOf(item)
	if k == KindInvalid {
		return nil, &UnsupportedValueError{Path: "item", Type: fmt.Sprintf("%T", item)}
	}

	s := &searcher{
		cfg:      cfg,
		item:     item,
		itemKind: k,
		fold:     cases.Fold(),
		grep:     grep,
	}
	if text, ok := scalarText(item); ok {
		s.itemText = text
	}
	if !k.IsContainer() {
		s.itemText = s.normalize(s.itemText)
	} else if !grep {
		s.digest = plainDigest(item)
	}

	if grep && cfg.UseRegexp {
		pattern := s.itemText
		if !cfg.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid search pattern: %w", err)
		}
		s.re = re
	}
	return s, nil
}

func (s *searcher) normalize(text string) string {
	if s.cfg.CaseSensitive || (s.grep && s.cfg.UseRegexp) {
		return text
	}
	return s.fold.String(text)
}

// scalarText renders a scalar the way grep sees it. null & containers have
// no text
func scalarText(v interface{}) (string, bool) {
	switch k := KindOf(v); k {
	case KindString:
		return v.(string), true
	case KindBytes:
		return string(v.([]byte)), true
	case KindBool:
		if v.(bool) {
			return "true", true
		}
		return "false", true
	case KindInt:
		return intString(v), true
	case KindFloat:
		f, _ := toFloat(v)
		return formatFloat(f, -1), true
	case KindOpaque:
		return fmt.Sprint(v), true
	}
	return "", false
}

// matchText compares rendered text with the item text
func (s *searcher) matchText(text string) bool {
	if s.re != nil {
		return s.re.MatchString(text)
	}
	text = s.normalize(text)
	if s.cfg.ExactMatch {
		return text == s.itemText
	}
	return strings.Contains(text, s.itemText)
}

// matchValue decides whether a scalar leaf matches a search item. a null
// item has no text & only matches null leaves
func (s *searcher) matchValue(v interface{}) bool {
	if s.itemKind == KindNull {
		return KindOf(v) == KindNull
	}
	if s.grep {
		text, ok := scalarText(v)
		return ok && s.matchText(text)
	}

	k := KindOf(v)
	switch {
	case s.itemKind.IsContainer():
		return false
	case s.itemKind.IsNumeric() && k.IsNumeric():
		fa, _ := toFloat(s.item)
		fb, _ := toFloat(v)
		return fa == fb
	case isStringish(s.itemKind) && isStringish(k):
		text, _ := scalarText(v)
		return s.matchText(text)
	case isStringish(s.itemKind) && (k.IsNumeric() || k == KindBool):
		if s.cfg.ExactMatch {
			return false
		}
		text, _ := scalarText(v)
		return s.normalize(text) == s.itemText
	case s.itemKind == k:
		return plainDigest(v) == plainDigest(s.item)
	}
	return false
}

// matchKey decides whether a mapping key matches a search item
func (s *searcher) matchKey(key string) bool {
	if s.itemKind == KindNull {
		return false
	}
	if s.grep || isStringish(s.itemKind) {
		return s.matchText(key)
	}
	if s.itemKind.IsNumeric() || s.itemKind == KindBool {
		return key == s.itemText
	}
	return false
}

func (s *searcher) search(ctx context.Context, obj interface{}) (*SearchResult, error) {
	maxDepth := s.cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = plainConfig.maxDepth
	}

	res := newSearchResult()
	w := newWalker(ctx, maxDepth)
	err := w.walk(nil, obj, func(p Path, v interface{}) (bool, error) {
		k := KindOf(v)
		if !k.IsContainer() {
			if s.matchValue(v) {
				res.MatchedValues.Add(p.String())
			}
			return false, nil
		}

		if s.digest != "" && plainDigest(v) == s.digest {
			res.MatchedPaths.Add(p.String())
		}
		if m, ok := v.(map[string]interface{}); ok {
			for key := range m {
				if s.matchKey(key) {
					res.MatchedKeys.Add(p.Append(StringAddr(key)).String())
				}
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Search finds every place item occurs within obj. strings match as
// substrings unless cfg.ExactMatch is set, numbers match by value regardless
// of int/float representation, & non-scalar items match equal containers
func Search(ctx context.Context, obj, item interface{}, cfg *SearchConfig) (*SearchResult, error) {
	s, err := newSearcher(item, cfg, false)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, obj)
}

// Grep renders every leaf & key in obj as text & matches it against the text
// of item, optionally as a regular expression
func Grep(ctx context.Context, obj, item interface{}, cfg *SearchConfig) (*SearchResult, error) {
	if KindOf(item).IsContainer() {
		return nil, fmt.Errorf("grep item must be a scalar, got %s", TypeName(item))
	}
	s, err := newSearcher(item, cfg, true)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, obj)
}
