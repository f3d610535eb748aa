package deepdiff

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/fnv"
	"sort"

	"golang.org/x/text/cases"
)

// NewHash returns a new hash interface, wrapped in a function for easy
// hash algorithm switching, package consumers can override NewHash
// with their own desired hash.Hash implementation if the value space is
// particularly large. default is 128-bit FNV 1a for fast, cheap,
// (non-cryptographic) hashing
var NewHash = func() hash.Hash {
	return fnv.New128a()
}

// hashString converts a hash sum to a string using hex encoding
// localized here for easy ecnsoding swapping
func hashStr(sum []byte) string {
	return hex.EncodeToString(sum)
}

var cycleMarker = []byte("<cycle>")

// normalizer reduces scalars to a (type tag, representation) pair according
// to the configured insensitivities. two scalars are equal iff their pairs
// are. normalizers hold a case folder & must not be shared between goroutines
type normalizer struct {
	c    *compiled
	fold cases.Caser
}

func newNormalizer(c *compiled) *normalizer {
	return &normalizer{c: c, fold: cases.Fold()}
}

func (n *normalizer) str(s string) string {
	if n.c.ignoreStringCase {
		return n.fold.String(s)
	}
	return s
}

// tag returns the comparable type tag of a scalar
func (n *normalizer) tag(v interface{}, k Kind) string {
	switch k {
	case KindInt, KindFloat:
		if n.c.ignoreNumericTypes {
			return "number"
		}
	case KindBytes:
		if n.c.ignoreStringTypes {
			return KindString.String()
		}
	case KindOpaque:
		return TypeName(v)
	}
	return k.String()
}

// repr returns the normalized text of a scalar. opaque values render with %#v
func (n *normalizer) repr(v interface{}, k Kind) string {
	switch k {
	case KindNull:
		return ""
	case KindBool:
		if v.(bool) {
			return "true"
		}
		return "false"
	case KindInt:
		if n.c.ignoreNumericTypes || n.c.significantDigits >= 0 {
			f, _ := toFloat(v)
			return formatFloat(f, n.c.significantDigits)
		}
		return intString(v)
	case KindFloat:
		f, _ := toFloat(v)
		return formatFloat(f, n.c.significantDigits)
	case KindString:
		return n.str(v.(string))
	case KindBytes:
		return n.str(string(v.([]byte)))
	}
	return fmt.Sprintf("%#v", v)
}

// hasher computes content digests. children are hashed before their parents.
// mapping & set digests don't depend on child order, sequence digests do
// unless unordered is set
type hasher struct {
	ctx  context.Context
	c    *compiled
	norm *normalizer
	open visited
	// hash sequences without regard to element order
	unordered bool
	// with unordered, collapse repeated elements into one
	dedupe bool
	// if non-nil, records the digest of every hashed node by path
	index map[string]string
}

func newHasher(ctx context.Context, c *compiled, norm *normalizer) *hasher {
	return &hasher{ctx: ctx, c: c, norm: norm, open: visited{}}
}

// hash returns the digest of v. ok is false when v is excluded from
// comparison & contributes nothing to its parent
func (h *hasher) hash(p Path, v interface{}) (sum []byte, ok bool, err error) {
	if h.c.excluded(p, v) {
		return nil, false, nil
	}
	if len(p) > h.c.maxDepth {
		return nil, false, &ResourceLimitError{Path: p.String(), Limit: "max depth", Value: h.c.maxDepth}
	}

	k := KindOf(v)
	hsh := NewHash()
	switch k {
	case KindInvalid:
		return nil, false, &UnsupportedValueError{Path: p.String(), Type: fmt.Sprintf("%T", v)}
	case KindMapping, KindSequence, KindSet:
		if err := h.ctx.Err(); err != nil {
			return nil, false, fmt.Errorf("%s: %w", p, err)
		}
		leave, open := h.open.enter(v)
		if !open {
			hsh.Write(cycleMarker)
			return hsh.Sum(nil), true, nil
		}
		defer leave()

		children, err := h.children(p, v)
		if err != nil {
			return nil, false, err
		}
		hsh.Write([]byte(k.String()))
		for _, ch := range children {
			hsh.Write(ch)
		}
	default:
		hsh.Write([]byte(h.norm.tag(v, k)))
		hsh.Write([]byte{0})
		hsh.Write([]byte(h.norm.repr(v, k)))
	}

	sum = hsh.Sum(nil)
	if h.index != nil {
		h.index[p.String()] = hashStr(sum)
	}
	return sum, true, nil
}

func (h *hasher) children(p Path, v interface{}) ([][]byte, error) {
	var (
		sums    [][]byte
		ordered bool
		unique  bool
	)

	switch x := v.(type) {
	case map[string]interface{}:
		for _, key := range sortedKeys(x) {
			sum, ok, err := h.hash(p.Append(StringAddr(key)), x[key])
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			eh := NewHash()
			fmt.Fprintf(eh, "%d:%s", len(key), key)
			eh.Write(sum)
			sums = append(sums, eh.Sum(nil))
		}
	case []interface{}:
		ordered = !h.unordered
		unique = h.unordered && h.dedupe
		for i, ch := range x {
			sum, ok, err := h.hash(p.Append(IndexAddr(i)), ch)
			if err != nil {
				return nil, err
			}
			if ok {
				sums = append(sums, sum)
			}
		}
	case Set:
		unique = true
		for _, ch := range x {
			sum, ok, err := h.hash(p.Append(SetAddr(memberDigest(ch, h.open))), ch)
			if err != nil {
				return nil, err
			}
			if ok {
				sums = append(sums, sum)
			}
		}
	}

	if !ordered {
		sort.Slice(sums, func(i, j int) bool { return bytes.Compare(sums[i], sums[j]) < 0 })
	}
	if unique {
		sums = uniqueSorted(sums)
	}
	return sums, nil
}

func uniqueSorted(sums [][]byte) [][]byte {
	if len(sums) < 2 {
		return sums
	}
	out := sums[:1]
	for _, s := range sums[1:] {
		if !bytes.Equal(s, out[len(out)-1]) {
			out = append(out, s)
		}
	}
	return out
}

// digest hashes v to a string, returning "" if v is excluded
func (h *hasher) digest(p Path, v interface{}) (string, error) {
	sum, ok, err := h.hash(p, v)
	if err != nil || !ok {
		return "", err
	}
	return hashStr(sum), nil
}

// plainDigest is the digest of a value under default settings, used to
// address set members
func plainDigest(v interface{}) string {
	return memberDigest(v, nil)
}

// memberDigest is plainDigest within a traversal that already has open
// containers, so a set that contains itself still terminates
func memberDigest(v interface{}, open visited) string {
	h := newHasher(context.Background(), plainConfig, newNormalizer(plainConfig))
	if open != nil {
		h.open = open
	}
	sum, _, err := h.hash(nil, v)
	if err != nil {
		return ""
	}
	return hashStr(sum)
}

// Hash computes the content digest of v. Equal values under the configured
// insensitivities & exclusions always have equal hashes
func (dd *DeepDiff) Hash(ctx context.Context, v interface{}) (string, error) {
	if dd.err != nil {
		return "", dd.err
	}
	h := newHasher(ctx, dd.c, newNormalizer(dd.c))
	h.unordered = dd.c.ignoreOrder
	h.dedupe = dd.c.ignoreOrder && !dd.c.reportRepetition
	sum, ok, err := h.hash(nil, v)
	if err != nil {
		return "", err
	}
	if !ok {
		sum = NewHash().Sum(nil)
	}
	return hashStr(sum), nil
}

// HashIndex computes the digest of every node in v, keyed by path string
func (dd *DeepDiff) HashIndex(ctx context.Context, v interface{}) (map[string]string, error) {
	if dd.err != nil {
		return nil, dd.err
	}
	h := newHasher(ctx, dd.c, newNormalizer(dd.c))
	h.unordered = dd.c.ignoreOrder
	h.dedupe = dd.c.ignoreOrder && !dd.c.reportRepetition
	h.index = map[string]string{}
	if _, _, err := h.hash(nil, v); err != nil {
		return nil, err
	}
	return h.index, nil
}
