package deepdiff

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"facette.io/natsort"
)

// Kind defines all of the atoms in our universe, or the types of data we
// will encounter while generating a diff
type Kind uint8

const (
	// KindInvalid is returned for values that can't be compared at all, like
	// channels or funcs
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	// KindOpaque is any other go value, treated as an atomic scalar
	KindOpaque
	KindSequence
	KindMapping
	KindSet
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindNull:     "NoneType",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "str",
	KindBytes:    "bytes",
	KindOpaque:   "opaque",
	KindSequence: "list",
	KindMapping:  "dict",
	KindSet:      "set",
}

// String returns the type tag for a kind. Tags are the names accepted by
// exclude_types and reported in type_changes
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsContainer is true for kinds that hold child values
func (k Kind) IsContainer() bool {
	return k == KindSequence || k == KindMapping || k == KindSet
}

// IsNumeric is true for ints & floats
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Set is an unordered collection of values. Order of members carries no
// meaning, and membership is decided by content hash
type Set []interface{}

// KindOf classifies a value into exactly one Kind
func KindOf(v interface{}) Kind {
	switch x := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return KindInt
		}
		return KindFloat
	case string:
		return KindString
	case []byte:
		return KindBytes
	case []interface{}:
		return KindSequence
	case map[string]interface{}:
		return KindMapping
	case Set:
		return KindSet
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return KindInvalid
	}
	return KindOpaque
}

// TypeName gives the type tag of a value. opaque values are tagged with their
// go type name
func TypeName(v interface{}) string {
	if k := KindOf(v); k != KindOpaque {
		return k.String()
	}
	return fmt.Sprintf("%T", v)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// intString formats an integer exactly, without a float round trip
func intString(v interface{}) string {
	switch x := v.(type) {
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
	}
	f, _ := toFloat(v)
	return formatFloat(f, -1)
}

// formatFloat renders f with prec digits after the decimal point, or in the
// shortest exact form when prec < 0. negative zero renders as zero
func formatFloat(f float64, prec int) string {
	var s string
	if prec < 0 {
		s = strconv.FormatFloat(f, 'g', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'f', prec, 64)
	}
	if len(s) > 1 && s[0] == '-' {
		if z, err := strconv.ParseFloat(s, 64); err == nil && z == 0 {
			return s[1:]
		}
	}
	return s
}

func numericDistance(a, b interface{}) float64 {
	fa, _ := toFloat(a)
	fb, _ := toFloat(b)
	max := math.Max(math.Abs(fa), math.Abs(fb))
	if max == 0 {
		return 0
	}
	d := math.Abs(fa-fb) / max
	if d > 1 {
		return 1
	}
	return d
}

// sortedKeys lists mapping keys in natural order so "a2" sorts before "a10".
// this ordering is what makes every traversal deterministic
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	natsort.Sort(keys)
	return keys
}

// identity distinguishes container instances, used to detect cycles
type identity struct {
	kind Kind
	ptr  uintptr
	n    int
}

func identityOf(v interface{}) (identity, bool) {
	switch x := v.(type) {
	case map[string]interface{}:
		if x == nil {
			return identity{}, false
		}
		return identity{kind: KindMapping, ptr: reflect.ValueOf(x).Pointer()}, true
	case []interface{}:
		if len(x) == 0 {
			return identity{}, false
		}
		return identity{kind: KindSequence, ptr: reflect.ValueOf(x).Pointer(), n: len(x)}, true
	case Set:
		if len(x) == 0 {
			return identity{}, false
		}
		return identity{kind: KindSet, ptr: reflect.ValueOf(x).Pointer(), n: len(x)}, true
	}
	return identity{}, false
}

// visited holds the container identities open on the active recursion path
type visited map[identity]struct{}

// enter marks v as open. ok is false if v is already open, meaning we've hit a
// cycle. callers must call the returned leave func when done with v
func (vs visited) enter(v interface{}) (leave func(), ok bool) {
	id, has := identityOf(v)
	if !has {
		return func() {}, true
	}
	if _, open := vs[id]; open {
		return nil, false
	}
	vs[id] = struct{}{}
	return func() { delete(vs, id) }, true
}

// walkFunc is called for every node in a walk. returning false skips the
// node's children
type walkFunc func(p Path, v interface{}) (bool, error)

// walker traverses a single value in top-down (prefix) order, sorting mapping
// keys before recursing. cycles are cut at the point they loop back
type walker struct {
	ctx      context.Context
	maxDepth int
	open     visited
}

func newWalker(ctx context.Context, maxDepth int) *walker {
	return &walker{ctx: ctx, maxDepth: maxDepth, open: visited{}}
}

func (w *walker) walk(p Path, v interface{}, fn walkFunc) error {
	if w.maxDepth > 0 && len(p) > w.maxDepth {
		return &ResourceLimitError{Path: p.String(), Limit: "max depth", Value: w.maxDepth}
	}
	k := KindOf(v)
	if k == KindInvalid {
		return &UnsupportedValueError{Path: p.String(), Type: fmt.Sprintf("%T", v)}
	}

	leave, ok := w.open.enter(v)
	if !ok {
		return nil
	}
	defer leave()

	kontinue, err := fn(p, v)
	if err != nil || !kontinue || !k.IsContainer() {
		return err
	}
	if err := w.ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}

	switch x := v.(type) {
	case map[string]interface{}:
		for _, key := range sortedKeys(x) {
			if err := w.walk(p.Append(StringAddr(key)), x[key], fn); err != nil {
				return err
			}
		}
	case []interface{}:
		for i, ch := range x {
			if err := w.walk(p.Append(IndexAddr(i)), ch, fn); err != nil {
				return err
			}
		}
	case Set:
		for _, ch := range x {
			if err := w.walk(p.Append(SetAddr(memberDigest(ch, w.open))), ch, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// countNodes gives the number of nodes (containers and leaves) in a value
func countNodes(v interface{}) int {
	n := 0
	w := newWalker(context.Background(), 0)
	w.walk(nil, v, func(Path, interface{}) (bool, error) {
		n++
		return true, nil
	})
	return n
}

// deepCopy duplicates every container in v. shared sub-structures are copied
// independently, while cycles are reproduced in the copy
func deepCopy(v interface{}) interface{} {
	return copyValue(v, map[identity]interface{}{})
}

func copyValue(v interface{}, open map[identity]interface{}) interface{} {
	id, isContainer := identityOf(v)
	if isContainer {
		if cp, ok := open[id]; ok {
			return cp
		}
		defer delete(open, id)
	}

	switch x := v.(type) {
	case map[string]interface{}:
		if x == nil {
			return x
		}
		cp := make(map[string]interface{}, len(x))
		open[id] = cp
		for k, ch := range x {
			cp[k] = copyValue(ch, open)
		}
		return cp
	case []interface{}:
		if x == nil {
			return x
		}
		cp := make([]interface{}, len(x))
		if isContainer {
			open[id] = cp
		}
		for i, ch := range x {
			cp[i] = copyValue(ch, open)
		}
		return cp
	case Set:
		if x == nil {
			return x
		}
		cp := make(Set, len(x))
		if isContainer {
			open[id] = cp
		}
		for i, ch := range x {
			cp[i] = copyValue(ch, open)
		}
		return cp
	case []byte:
		if x == nil {
			return x
		}
		cp := make([]byte, len(x))
		copy(cp, x)
		return cp
	}
	return v
}
