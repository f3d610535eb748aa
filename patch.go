package deepdiff

import (
	"fmt"
)

// Patch applies a change script (patch) to a copy of a value, returning the
// patched copy. v is never modified
func Patch(v interface{}, patch Deltas) (interface{}, error) {
	tree := deepCopy(v)
	for _, dlt := range patch.applyOrder() {
		var err error
		if tree, err = applyDelta(tree, dlt); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func applyDelta(tree interface{}, dlt *Delta) (interface{}, error) {
	fail := func(err error) (interface{}, error) {
		return nil, &DeltaApplicationError{Path: dlt.Path.String(), Op: dlt.Type, Err: err}
	}

	if len(dlt.Path) == 0 {
		switch dlt.Type {
		case DTUpdate, DTTypeChange:
			return deepCopy(dlt.Value), nil
		default:
			return fail(fmt.Errorf("root can only be replaced"))
		}
	}

	tree, err := applyAt(tree, dlt, 0)
	if err != nil {
		return fail(err)
	}
	return tree, nil
}

// applyAt descends through the path of dlt from step i, returning the
// (possibly new) container at that step
func applyAt(v interface{}, dlt *Delta, i int) (interface{}, error) {
	addr := dlt.Path[i]
	if i == len(dlt.Path)-1 {
		return applyLast(v, addr, dlt)
	}

	switch a := addr.(type) {
	case StringAddr:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, wrongContainer(dlt.Path[:i], "dict", v)
		}
		ch, ok := m[string(a)]
		if !ok {
			return nil, fmt.Errorf("%s: %w", dlt.Path[:i+1], ErrNotFound)
		}
		nch, err := applyAt(ch, dlt, i+1)
		if err != nil {
			return nil, err
		}
		m[string(a)] = nch
		return m, nil
	case IndexAddr:
		s, ok := v.([]interface{})
		if !ok {
			return nil, wrongContainer(dlt.Path[:i], "list", v)
		}
		if int(a) >= len(s) {
			return nil, fmt.Errorf("%s: %w", dlt.Path[:i+1], ErrNotFound)
		}
		nch, err := applyAt(s[a], dlt, i+1)
		if err != nil {
			return nil, err
		}
		s[a] = nch
		return s, nil
	case SetAddr:
		s, ok := v.(Set)
		if !ok {
			return nil, wrongContainer(dlt.Path[:i], "set", v)
		}
		idx := setMemberIndex(s, string(a))
		if idx < 0 {
			return nil, fmt.Errorf("%s: %w", dlt.Path[:i+1], ErrNotFound)
		}
		nch, err := applyAt(s[idx], dlt, i+1)
		if err != nil {
			return nil, err
		}
		s[idx] = nch
		return s, nil
	}
	return nil, fmt.Errorf("unknown address type %T", addr)
}

func wrongContainer(p Path, want string, got interface{}) error {
	return fmt.Errorf("%s: expected %s, found %s", p, want, TypeName(got))
}

func applyLast(v interface{}, addr Addr, dlt *Delta) (interface{}, error) {
	parent := dlt.Path[:len(dlt.Path)-1]

	switch a := addr.(type) {
	case StringAddr:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, wrongContainer(parent, "dict", v)
		}
		return m, updateMapping(m, string(a), dlt)
	case IndexAddr:
		s, ok := v.([]interface{})
		if !ok {
			return nil, wrongContainer(parent, "list", v)
		}
		return updateSequence(s, int(a), dlt)
	case SetAddr:
		s, ok := v.(Set)
		if !ok {
			return nil, wrongContainer(parent, "set", v)
		}
		return updateSet(s, string(a), dlt)
	}
	return nil, fmt.Errorf("unknown address type %T", addr)
}

func updateMapping(m map[string]interface{}, key string, dlt *Delta) error {
	_, exists := m[key]
	switch dlt.Type {
	case DTUpdate, DTTypeChange:
		if !exists {
			return ErrNotFound
		}
		m[key] = deepCopy(dlt.Value)
	case DTAddKey:
		if exists {
			return ErrConflict
		}
		m[key] = deepCopy(dlt.Value)
	case DTRemoveKey:
		if !exists {
			return ErrNotFound
		}
		delete(m, key)
	default:
		return fmt.Errorf("%s is not valid for a dict key", dlt.Type)
	}
	return nil
}

func updateSequence(s []interface{}, i int, dlt *Delta) ([]interface{}, error) {
	switch dlt.Type {
	case DTUpdate, DTTypeChange:
		if i >= len(s) {
			return nil, fmt.Errorf("index %d out of range (length %d): %w", i, len(s), ErrNotFound)
		}
		s[i] = deepCopy(dlt.Value)
		return s, nil
	case DTInsert:
		if i > len(s) {
			return nil, fmt.Errorf("index %d out of range (length %d): %w", i, len(s), ErrNotFound)
		}
		s = append(s, nil)
		copy(s[i+1:], s[i:])
		s[i] = deepCopy(dlt.Value)
		return s, nil
	case DTDelete:
		if i >= len(s) {
			return nil, fmt.Errorf("index %d out of range (length %d): %w", i, len(s), ErrNotFound)
		}
		return append(s[:i], s[i+1:]...), nil
	}
	return nil, fmt.Errorf("%s is not valid for a list element", dlt.Type)
}

func updateSet(s Set, digest string, dlt *Delta) (Set, error) {
	idx := setMemberIndex(s, digest)
	switch dlt.Type {
	case DTInsert:
		if idx >= 0 {
			return nil, ErrConflict
		}
		return append(s, deepCopy(dlt.Value)), nil
	case DTDelete:
		if idx < 0 {
			return nil, ErrNotFound
		}
		return append(s[:idx], s[idx+1:]...), nil
	case DTUpdate, DTTypeChange:
		if idx < 0 {
			return nil, ErrNotFound
		}
		s[idx] = deepCopy(dlt.Value)
		return s, nil
	}
	return nil, fmt.Errorf("%s is not valid for a set member", dlt.Type)
}
