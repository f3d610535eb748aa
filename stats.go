package deepdiff

// Stats holds statistical metadata about a diff
type Stats struct {
	// count of nodes in the left tree. a container root isn't counted, only
	// what it holds
	Left  int `json:"leftNodes"`
	Right int `json:"rightNodes"` // count of nodes in the right tree, as Left

	Weight int `json:"weight"` // weighted count of changed nodes

	Inserts     int `json:"inserts,omitempty"`     // number of nodes inserted
	Updates     int `json:"updates,omitempty"`     // number of values changed
	Deletes     int `json:"deletes,omitempty"`     // number of nodes deleted
	TypeChanges int `json:"typeChanges,omitempty"` // number of nodes that changed type
	Repetitions int `json:"repetitions,omitempty"` // number of repetition changes
}

// NodeChange returns a count of the shift between left & right trees
func (s Stats) NodeChange() int {
	return s.Right - s.Left
}

// Distance returns a value from 0.0 (no differences) to 1.0 (nothing in
// common): the weighted change count relative to the combined size of both
// trees
func (s Stats) Distance() float64 {
	surface := s.Left + s.Right
	if surface == 0 {
		// two empty containers
		if s.Weight > 0 {
			return 1
		}
		return 0
	}
	d := float64(s.Weight) / float64(surface)
	if d > 1 {
		return 1
	}
	return d
}

// calcStats derives stats from a finished report
func calcStats(r *Report, t1, t2 interface{}) *Stats {
	st := &Stats{
		Left:  countBelowRoot(t1),
		Right: countBelowRoot(t2),
	}

	for _, cat := range Categories {
		for _, c := range r.Changes(cat) {
			switch cat {
			case ValuesChanged:
				st.Updates++
				st.Weight += 2
			case TypeChanges:
				st.TypeChanges++
				st.Weight += countNodes(c.OldValue) + countNodes(c.NewValue)
			case DictItemAdded, IterableItemAdded, SetItemAdded:
				n := countNodes(c.Value)
				st.Inserts += n
				st.Weight += n
			case DictItemRemoved, IterableItemRemoved, SetItemRemoved:
				n := countNodes(c.Value)
				st.Deletes += n
				st.Weight += n
			case RepetitionChange:
				st.Repetitions++
				delta := c.NewRepeat - c.OldRepeat
				if delta < 0 {
					delta = -delta
				}
				st.Weight += delta * countNodes(c.Value)
			}
		}
	}
	return st
}

// countBelowRoot counts the nodes a container holds. a scalar counts as one
func countBelowRoot(v interface{}) int {
	n := countNodes(v)
	if KindOf(v).IsContainer() {
		n--
	}
	return n
}
