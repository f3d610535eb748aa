package deepdiff

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// differ is the state of a single comparison. differs are not safe for
// concurrent use
type differ struct {
	ctx    context.Context
	c      *compiled
	norm   *normalizer
	report *Report
	// containers open on the current recursion path of each tree
	open1, open2 visited
	// pair comparisons spent matching unordered sequences, shared with
	// scratch differs
	pairs *int
}

func newDiffer(ctx context.Context, c *compiled) *differ {
	return &differ{
		ctx:    ctx,
		c:      c,
		norm:   newNormalizer(c),
		report: newReport(),
		open1:  visited{},
		open2:  visited{},
		pairs:  new(int),
	}
}

// scratch returns a differ that shares all traversal state with d but writes
// to a fresh report
func (d *differ) scratch() *differ {
	cp := *d
	cp.report = newReport()
	return &cp
}

// diff compares a & b at path p, adding any differences to the report
func (d *differ) diff(p Path, a, b interface{}) error {
	if len(p) > d.c.maxDepth {
		return &ResourceLimitError{Path: p.String(), Limit: "max depth", Value: d.c.maxDepth}
	}
	if d.c.excluded(p, a) || d.c.excluded(p, b) {
		return nil
	}

	ka, kb := KindOf(a), KindOf(b)
	if ka == KindInvalid {
		return &UnsupportedValueError{Path: p.String(), Type: fmt.Sprintf("%T", a)}
	}
	if kb == KindInvalid {
		return &UnsupportedValueError{Path: p.String(), Type: fmt.Sprintf("%T", b)}
	}

	if !ka.IsContainer() && !kb.IsContainer() {
		d.compareScalars(p, a, b, ka, kb)
		return nil
	}
	if ka != kb {
		d.typeChange(p, a, b)
		return nil
	}

	if err := d.ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	if sameInstance(a, b) {
		return nil
	}

	leave1, ok1 := d.open1.enter(a)
	if !ok1 {
		d.report.addCycle(p)
		return nil
	}
	defer leave1()
	leave2, ok2 := d.open2.enter(b)
	if !ok2 {
		d.report.addCycle(p)
		return nil
	}
	defer leave2()

	switch ka {
	case KindMapping:
		return d.diffMapping(p, a.(map[string]interface{}), b.(map[string]interface{}))
	case KindSequence:
		if d.c.ignoreOrder {
			return d.diffUnordered(p, a.([]interface{}), b.([]interface{}))
		}
		return d.diffSequence(p, a.([]interface{}), b.([]interface{}))
	case KindSet:
		return d.diffSet(p, a.(Set), b.(Set))
	}
	return nil
}

func sameInstance(a, b interface{}) bool {
	ia, oka := identityOf(a)
	ib, okb := identityOf(b)
	return oka && okb && ia == ib
}

func (d *differ) compareScalars(p Path, a, b interface{}, ka, kb Kind) {
	if d.norm.tag(a, ka) != d.norm.tag(b, kb) {
		d.typeChange(p, a, b)
		return
	}

	var equal bool
	if ka == KindOpaque && kb == KindOpaque {
		equal = reflect.DeepEqual(a, b)
	} else {
		equal = d.norm.repr(a, ka) == d.norm.repr(b, kb)
	}
	if equal {
		return
	}

	ch := &Change{Category: ValuesChanged, Path: p, OldValue: a, NewValue: b}
	if ka == KindString && kb == KindString {
		ch.Diff = lineDiff(a.(string), b.(string))
	}
	d.report.add(ch)
}

func (d *differ) typeChange(p Path, a, b interface{}) {
	d.report.add(&Change{
		Category: TypeChanges,
		Path:     p,
		OldType:  TypeName(a),
		NewType:  TypeName(b),
		OldValue: a,
		NewValue: b,
	})
}

func (d *differ) diffMapping(p Path, m1, m2 map[string]interface{}) error {
	for _, key := range sortedKeys(m1) {
		cp := p.Append(StringAddr(key))
		v1 := m1[key]
		v2, ok := m2[key]
		if !ok {
			if !d.c.excluded(cp, v1) {
				d.report.add(&Change{Category: DictItemRemoved, Path: cp, Value: v1})
			}
			continue
		}
		if err := d.diff(cp, v1, v2); err != nil {
			return err
		}
	}

	for _, key := range sortedKeys(m2) {
		if _, ok := m1[key]; ok {
			continue
		}
		cp := p.Append(StringAddr(key))
		if v2 := m2[key]; !d.c.excluded(cp, v2) {
			d.report.add(&Change{Category: DictItemAdded, Path: cp, Value: v2})
		}
	}
	return nil
}

// diffSequence compares sequences position by position, reporting trailing
// elements of the longer sequence as added or removed
func (d *differ) diffSequence(p Path, s1, s2 []interface{}) error {
	n := len(s1)
	if len(s2) < n {
		n = len(s2)
	}
	for i := 0; i < n; i++ {
		if err := d.diff(p.Append(IndexAddr(i)), s1[i], s2[i]); err != nil {
			return err
		}
	}
	for i := n; i < len(s1); i++ {
		if cp := p.Append(IndexAddr(i)); !d.c.excluded(cp, s1[i]) {
			d.report.add(&Change{Category: IterableItemRemoved, Path: cp, Value: s1[i]})
		}
	}
	for i := n; i < len(s2); i++ {
		if cp := p.Append(IndexAddr(i)); !d.c.excluded(cp, s2[i]) {
			d.report.add(&Change{Category: IterableItemAdded, Path: cp, Value: s2[i]})
		}
	}
	return nil
}

// diffSet reports the symmetric difference of two sets by content digest
func (d *differ) diffSet(p Path, s1, s2 Set) error {
	h1, err := d.memberDigests(p, s1, d.open1)
	if err != nil {
		return err
	}
	h2, err := d.memberDigests(p, s2, d.open2)
	if err != nil {
		return err
	}

	for _, m := range h1.members {
		if _, ok := h2.index[m.digest]; !ok {
			d.report.add(&Change{Category: SetItemRemoved, Path: m.path, Value: m.value})
		}
	}
	for _, m := range h2.members {
		if _, ok := h1.index[m.digest]; !ok {
			d.report.add(&Change{Category: SetItemAdded, Path: m.path, Value: m.value})
		}
	}
	return nil
}

type setMember struct {
	path   Path
	digest string
	value  interface{}
}

type setDigests struct {
	members []setMember
	index   map[string]struct{}
}

// memberDigests hashes each member of a set under the diff's comparison
// settings, skipping excluded members & repeats
func (d *differ) memberDigests(p Path, s Set, open visited) (*setDigests, error) {
	h := newHasher(d.ctx, d.c, d.norm)
	h.open = open
	h.unordered = d.c.ignoreOrder
	h.dedupe = d.c.ignoreOrder && !d.c.reportRepetition

	sd := &setDigests{index: map[string]struct{}{}}
	for _, v := range s {
		mp := p.Append(SetAddr(memberDigest(v, open)))
		digest, err := h.digest(mp, v)
		if err != nil {
			return nil, err
		}
		if digest == "" {
			continue
		}
		if _, dup := sd.index[digest]; dup {
			continue
		}
		sd.index[digest] = struct{}{}
		sd.members = append(sd.members, setMember{path: mp, digest: digest, value: v})
	}
	return sd, nil
}

// lineDiff renders a unified-style line diff when both strings span more than
// one line
func lineDiff(a, b string) string {
	if !strings.Contains(a, "\n") || !strings.Contains(b, "\n") {
		return ""
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	buf := &strings.Builder{}
	for _, df := range diffs {
		prefix := "  "
		switch df.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(df.Text, "\n") {
			if line == "" {
				continue
			}
			buf.WriteString(prefix)
			buf.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				buf.WriteByte('\n')
			}
		}
	}
	return buf.String()
}
