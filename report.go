package deepdiff

import (
	"encoding/json"
)

// Category names a class of difference in a Report
type Category string

const (
	// TypeChanges lists nodes whose type tag differs between trees
	TypeChanges = Category("type_changes")
	// ValuesChanged lists scalars with the same type & a different value
	ValuesChanged = Category("values_changed")
	// DictItemAdded lists mapping keys present only in the second tree
	DictItemAdded = Category("dictionary_item_added")
	// DictItemRemoved lists mapping keys present only in the first tree
	DictItemRemoved = Category("dictionary_item_removed")
	// IterableItemAdded lists sequence elements present only in the second tree
	IterableItemAdded = Category("iterable_item_added")
	// IterableItemRemoved lists sequence elements present only in the first tree
	IterableItemRemoved = Category("iterable_item_removed")
	// SetItemAdded lists set members present only in the second tree
	SetItemAdded = Category("set_item_added")
	// SetItemRemoved lists set members present only in the first tree
	SetItemRemoved = Category("set_item_removed")
	// RepetitionChange lists elements that occur a different number of times,
	// only reported when ignoring order with repetition reporting on
	RepetitionChange = Category("repetition_change")
)

// Categories lists every category in the order they're reported
var Categories = []Category{
	TypeChanges,
	ValuesChanged,
	DictItemAdded,
	DictItemRemoved,
	IterableItemAdded,
	IterableItemRemoved,
	SetItemAdded,
	SetItemRemoved,
	RepetitionChange,
}

// Change is a single entry in a Report. which fields are populated depends on
// the category
type Change struct {
	Category Category
	Path     Path

	// values_changed & type_changes
	OldValue interface{}
	NewValue interface{}
	OldType  string
	NewType  string
	// line diff of multi-line strings in values_changed
	Diff string

	// added, removed & repetition_change
	Value interface{}

	// repetition_change
	OldRepeat  int
	NewRepeat  int
	OldIndexes []int
	NewIndexes []int
}

// detail is the JSON body of a change, keyed by its path in a Report
func (c *Change) detail() map[string]interface{} {
	switch c.Category {
	case ValuesChanged:
		d := map[string]interface{}{"old_value": c.OldValue, "new_value": c.NewValue}
		if c.Diff != "" {
			d["diff"] = c.Diff
		}
		return d
	case TypeChanges:
		return map[string]interface{}{
			"old_type":  c.OldType,
			"new_type":  c.NewType,
			"old_value": c.OldValue,
			"new_value": c.NewValue,
		}
	case RepetitionChange:
		return map[string]interface{}{
			"old_repeat":  c.OldRepeat,
			"new_repeat":  c.NewRepeat,
			"old_indexes": c.OldIndexes,
			"new_indexes": c.NewIndexes,
			"value":       c.Value,
		}
	}
	return map[string]interface{}{"value": c.Value}
}

// Report is the categorized result of a diff. Reports are never modified once
// returned from Diff
type Report struct {
	changes map[Category][]*Change
	index   map[Category]map[string]*Change
	cycles  []Path
}

func newReport() *Report {
	return &Report{
		changes: map[Category][]*Change{},
		index:   map[Category]map[string]*Change{},
	}
}

func (r *Report) add(c *Change) {
	key := c.Path.String()
	idx, ok := r.index[c.Category]
	if !ok {
		idx = map[string]*Change{}
		r.index[c.Category] = idx
	}
	if _, dup := idx[key]; dup {
		return
	}
	idx[key] = c
	r.changes[c.Category] = append(r.changes[c.Category], c)
}

// merge appends all changes & cycles of b to r
func (r *Report) merge(b *Report) {
	for _, cat := range Categories {
		for _, c := range b.changes[cat] {
			r.add(c)
		}
	}
	r.cycles = append(r.cycles, b.cycles...)
}

func (r *Report) addCycle(p Path) {
	r.cycles = append(r.cycles, p)
}

// Changes returns the changes of a category in the order they were found
func (r *Report) Changes(cat Category) []*Change {
	return r.changes[cat]
}

// Get looks up the change in a category at a path string
func (r *Report) Get(cat Category, path string) (*Change, bool) {
	c, ok := r.index[cat][path]
	return c, ok
}

// All returns every change, grouped by category in report order
func (r *Report) All() []*Change {
	var all []*Change
	for _, cat := range Categories {
		all = append(all, r.changes[cat]...)
	}
	return all
}

// Len counts the changes in a report
func (r *Report) Len() int {
	n := 0
	for _, cs := range r.changes {
		n += len(cs)
	}
	return n
}

// Empty is true when the compared values had no differences
func (r *Report) Empty() bool {
	return r.Len() == 0
}

// Cycles lists the paths where traversal stopped because a container
// referenced one of its own ancestors. cycles are never differences
func (r *Report) Cycles() []Path {
	return r.cycles
}

// MarshalJSON encodes a report as {category: {path: detail}}, omitting empty
// categories
func (r *Report) MarshalJSON() ([]byte, error) {
	out := map[string]map[string]interface{}{}
	for _, cat := range Categories {
		cs := r.changes[cat]
		if len(cs) == 0 {
			continue
		}
		m := make(map[string]interface{}, len(cs))
		for _, c := range cs {
			m[c.Path.String()] = c.detail()
		}
		out[string(cat)] = m
	}
	return json.Marshal(out)
}
