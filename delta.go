package deepdiff

import (
	"fmt"
	"sort"

	"github.com/wI2L/jsondiff"
)

// Operation defines the operation of a Delta item
type Operation string

const (
	// DTUpdate replaces a scalar value
	DTUpdate = Operation("set_value")
	// DTTypeChange replaces a value with one of a different type
	DTTypeChange = Operation("change_type")
	// DTAddKey adds a key to a mapping
	DTAddKey = Operation("add_key")
	// DTRemoveKey removes a key from a mapping
	DTRemoveKey = Operation("remove_key")
	// DTInsert adds an element to a sequence or a member to a set
	DTInsert = Operation("add_element")
	// DTDelete removes an element from a sequence or a member from a set
	DTDelete = Operation("remove_element")
)

// Inverse returns the operation that undoes op
func (op Operation) Inverse() Operation {
	switch op {
	case DTAddKey:
		return DTRemoveKey
	case DTRemoveKey:
		return DTAddKey
	case DTInsert:
		return DTDelete
	case DTDelete:
		return DTInsert
	}
	return op
}

// Delta represents a change between a source & destination document
// a delta is a single "edit" that describes changes to the destination document
type Delta struct {
	// the type of change
	Type Operation `json:"action"`
	// Path is the location of the change in the source document. the final
	// index of a sequence insertion addresses the destination document
	Path Path `json:"path"`
	// The value in the destination document, absent for removals
	Value interface{} `json:"value,omitempty"`
	// To make delta's revesible, original values are included. absent for
	// additions
	SourceValue interface{} `json:"old_value,omitempty"`
}

// Deltas is a sequence of Delta operations, which make up a delta document
type Deltas []*Delta

// NewDeltas converts a report into an edit script, one delta per change.
// repetition changes expand to one insert or delete per surplus copy
func NewDeltas(r *Report) Deltas {
	var ds Deltas
	for _, cat := range Categories {
		for _, c := range r.Changes(cat) {
			switch cat {
			case ValuesChanged:
				ds = append(ds, &Delta{Type: DTUpdate, Path: c.Path, Value: c.NewValue, SourceValue: c.OldValue})
			case TypeChanges:
				ds = append(ds, &Delta{Type: DTTypeChange, Path: c.Path, Value: c.NewValue, SourceValue: c.OldValue})
			case DictItemAdded:
				ds = append(ds, &Delta{Type: DTAddKey, Path: c.Path, Value: c.Value})
			case DictItemRemoved:
				ds = append(ds, &Delta{Type: DTRemoveKey, Path: c.Path, SourceValue: c.Value})
			case IterableItemAdded, SetItemAdded:
				ds = append(ds, &Delta{Type: DTInsert, Path: c.Path, Value: c.Value})
			case IterableItemRemoved, SetItemRemoved:
				ds = append(ds, &Delta{Type: DTDelete, Path: c.Path, SourceValue: c.Value})
			case RepetitionChange:
				ds = append(ds, repetitionDeltas(c)...)
			}
		}
	}
	return ds
}

func repetitionDeltas(c *Change) Deltas {
	parent := c.Path[:len(c.Path)-1]
	var ds Deltas
	for i := c.OldRepeat; i < c.NewRepeat; i++ {
		ds = append(ds, &Delta{Type: DTInsert, Path: parent.Append(IndexAddr(c.NewIndexes[i])), Value: c.Value})
	}
	for i := c.NewRepeat; i < c.OldRepeat; i++ {
		ds = append(ds, &Delta{Type: DTDelete, Path: parent.Append(IndexAddr(c.OldIndexes[i])), SourceValue: c.Value})
	}
	return ds
}

// Invert returns the delta document that undoes ds, applied to the result of
// patching with ds. sequence indexes leading to nested changes are moved to
// where Patch leaves each element
func (ds Deltas) Invert() Deltas {
	shifts := sequenceMoves(ds)
	inv := make(Deltas, len(ds))
	for i, d := range ds {
		inv[len(ds)-1-i] = &Delta{
			Type:        d.Type.Inverse(),
			Path:        shifts.remap(d),
			Value:       d.SourceValue,
			SourceValue: d.Value,
		}
	}
	return inv
}

// seqEdits lists the removals & insertions a delta document makes to one
// sequence, in ascending index order
type seqEdits struct {
	removed, inserted []int
}

// index gives the position source element i ends up at
func (e *seqEdits) index(i int) int {
	n := i
	for _, r := range e.removed {
		if r < i {
			n--
		}
	}
	for _, ins := range e.inserted {
		if ins <= n {
			n++
		}
	}
	return n
}

// moves maps the source path of a sequence to the edits made to it
type moves map[string]*seqEdits

func sequenceMoves(ds Deltas) moves {
	m := moves{}
	for _, d := range ds {
		if !d.isSequenceOp() {
			continue
		}
		key := d.Path[:len(d.Path)-1].String()
		e, ok := m[key]
		if !ok {
			e = &seqEdits{}
			m[key] = e
		}
		i := int(d.Path.Last().(IndexAddr))
		if d.Type == DTDelete {
			e.removed = append(e.removed, i)
		} else {
			e.inserted = append(e.inserted, i)
		}
	}
	for _, e := range m {
		sort.Ints(e.removed)
		sort.Ints(e.inserted)
	}
	return m
}

// remap rewrites the path of d from source to patched positions. the final
// index of a sequence insert or removal already addresses the right document
func (m moves) remap(d *Delta) Path {
	steps := len(d.Path)
	if d.isSequenceOp() {
		steps--
	}
	var p Path
	for i := 0; i < steps; i++ {
		idx, ok := d.Path[i].(IndexAddr)
		if !ok {
			continue
		}
		e, ok := m[d.Path[:i].String()]
		if !ok {
			continue
		}
		if to := e.index(int(idx)); to != int(idx) {
			if p == nil {
				p = make(Path, len(d.Path))
				copy(p, d.Path)
			}
			p[i] = IndexAddr(to)
		}
	}
	if p == nil {
		return d.Path
	}
	return p
}

// isSequenceOp reports whether d inserts or removes a sequence element
func (d *Delta) isSequenceOp() bool {
	_, isIndex := d.Path.Last().(IndexAddr)
	return isIndex && (d.Type == DTInsert || d.Type == DTDelete)
}

// applyOrder sorts deltas into the order Patch applies them:
//  1. value, type, key & set member operations in document order
//  2. sequence removals & insertions, deepest paths first. at each depth
//     removals go highest index first, then insertions lowest index first
//
// every path addresses the source document except the final index of an
// insertion, which addresses the destination. changes nested in a sequence
// element apply before that sequence shifts, so no delta moves an index
// another delta depends on
func (ds Deltas) applyOrder() Deltas {
	var edits, seq Deltas
	for _, d := range ds {
		if d.isSequenceOp() {
			seq = append(seq, d)
		} else {
			edits = append(edits, d)
		}
	}
	sort.SliceStable(seq, func(i, j int) bool {
		a, b := seq[i], seq[j]
		if len(a.Path) != len(b.Path) {
			return len(a.Path) > len(b.Path)
		}
		if a.Type != b.Type {
			return a.Type == DTDelete
		}
		if a.Type == DTDelete {
			return comparePaths(a.Path, b.Path) > 0
		}
		return comparePaths(a.Path, b.Path) < 0
	})

	ordered := make(Deltas, 0, len(ds))
	ordered = append(ordered, edits...)
	return append(ordered, seq...)
}

// comparePaths orders paths step by step. indexes compare numerically, keys
// lexically, and a prefix sorts before any longer path
func comparePaths(a, b Path) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareAddrs(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareAddrs(a, b Addr) int {
	ai, aok := a.(IndexAddr)
	bi, bok := b.(IndexAddr)
	switch {
	case aok && bok:
		return int(ai) - int(bi)
	case aok:
		return -1
	case bok:
		return 1
	}
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// JSONPatch converts ds into RFC 6902 operations, in application order.
// set member operations have no JSON Patch equivalent & produce an error
func (ds Deltas) JSONPatch() (jsondiff.Patch, error) {
	var patch jsondiff.Patch
	for _, d := range ds.applyOrder() {
		for _, a := range d.Path {
			if _, ok := a.(SetAddr); ok {
				return nil, &PathError{Path: d.Path.String(), Reason: "set members can't be addressed by JSON Pointer"}
			}
		}

		op := jsondiff.Operation{Path: d.Path.Pointer()}
		switch d.Type {
		case DTUpdate, DTTypeChange:
			op.Type = jsondiff.OperationReplace
			op.OldValue = d.SourceValue
			op.Value = d.Value
		case DTAddKey, DTInsert:
			op.Type = jsondiff.OperationAdd
			op.Value = d.Value
		case DTRemoveKey, DTDelete:
			op.Type = jsondiff.OperationRemove
			op.OldValue = d.SourceValue
		default:
			return nil, fmt.Errorf("unknown delta type %q", d.Type)
		}
		patch = append(patch, op)
	}
	return patch, nil
}
