package deepdiff

import (
	"fmt"
	"strconv"
	"strings"
)

// Addr is a single step in a path, identifying a child within its parent.
// an Addr is one of StringAddr, IndexAddr or SetAddr
type Addr interface {
	// Value returns the underlying key: a string, int, or set member digest
	Value() interface{}
	// String renders the step in canonical path syntax
	String() string
	// Eq reports whether two addresses are the same
	Eq(b Addr) bool
}

// StringAddr is a mapping key
type StringAddr string

// Value implements the Addr interface
func (p StringAddr) Value() interface{} { return string(p) }

// String implements the Addr interface
func (p StringAddr) String() string { return "['" + quoteKey(string(p)) + "']" }

// Eq implements the Addr interface
func (p StringAddr) Eq(b Addr) bool {
	s, ok := b.(StringAddr)
	return ok && s == p
}

// IndexAddr is the position of an element in a sequence
type IndexAddr int

// Value implements the Addr interface
func (p IndexAddr) Value() interface{} { return int(p) }

// String implements the Addr interface
func (p IndexAddr) String() string { return "[" + strconv.Itoa(int(p)) + "]" }

// Eq implements the Addr interface
func (p IndexAddr) Eq(b Addr) bool {
	i, ok := b.(IndexAddr)
	return ok && i == p
}

// SetAddr identifies a set member by its content digest
type SetAddr string

// Value implements the Addr interface
func (p SetAddr) Value() interface{} { return string(p) }

// String implements the Addr interface
func (p SetAddr) String() string { return "{" + string(p) + "}" }

// Eq implements the Addr interface
func (p SetAddr) Eq(b Addr) bool {
	s, ok := b.(SetAddr)
	return ok && s == p
}

func quoteKey(s string) string {
	if !strings.ContainsAny(s, `\'`) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return r.Replace(s)
}

// Path is a sequence of addresses from the root of a value to a node
type Path []Addr

// String renders the canonical text form of a path, eg: root['a'][0]
func (p Path) String() string {
	b := &strings.Builder{}
	b.WriteString("root")
	for _, a := range p {
		b.WriteString(a.String())
	}
	return b.String()
}

// Append returns a new path with a added to the end. the receiver is never
// modified
func (p Path) Append(a Addr) Path {
	np := make(Path, len(p)+1)
	copy(np, p)
	np[len(p)] = a
	return np
}

// Last returns the final address in the path, nil for the root path
func (p Path) Last() Addr {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Eq reports whether two paths address the same node
func (p Path) Eq(b Path) bool {
	if len(p) != len(b) {
		return false
	}
	for i, a := range p {
		if !a.Eq(b[i]) {
			return false
		}
	}
	return true
}

// Pointer renders the path as an RFC 6901 JSON Pointer. set addresses have no
// pointer equivalent and render as their digest
func (p Path) Pointer() string {
	if len(p) == 0 {
		return ""
	}
	esc := strings.NewReplacer("~", "~0", "/", "~1")
	b := &strings.Builder{}
	for _, a := range p {
		b.WriteByte('/')
		switch x := a.(type) {
		case StringAddr:
			b.WriteString(esc.Replace(string(x)))
		case IndexAddr:
			b.WriteString(strconv.Itoa(int(x)))
		case SetAddr:
			b.WriteString(string(x))
		}
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler, paths encode as their
// canonical string
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePath reads a path from its text form. In addition to the canonical
// form it accepts identifier keys (root.key) & double-quoted keys
// (root["key"])
func ParsePath(s string) (Path, error) {
	if !strings.HasPrefix(s, "root") {
		return nil, &PathError{Path: s, Reason: "must begin with root"}
	}
	p := Path{}
	i := len("root")
	for i < len(s) {
		switch s[i] {
		case '[':
			if i+1 >= len(s) {
				return nil, &PathError{Path: s, Reason: "unterminated '['"}
			}
			if q := s[i+1]; q == '\'' || q == '"' {
				key, n, err := readQuoted(s, i+1, q)
				if err != nil {
					return nil, err
				}
				i = n
				if i >= len(s) || s[i] != ']' {
					return nil, &PathError{Path: s, Reason: fmt.Sprintf("expected ']' at offset %d", i)}
				}
				p = append(p, StringAddr(key))
				i++
				continue
			}
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, &PathError{Path: s, Reason: "unterminated '['"}
			}
			idx, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || idx < 0 {
				return nil, &PathError{Path: s, Reason: fmt.Sprintf("invalid index %q", s[i+1:i+end])}
			}
			p = append(p, IndexAddr(idx))
			i += end + 1
		case '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return nil, &PathError{Path: s, Reason: "unterminated '{'"}
			}
			digest := s[i+1 : i+end]
			if digest == "" {
				return nil, &PathError{Path: s, Reason: "empty set member digest"}
			}
			p = append(p, SetAddr(digest))
			i += end + 1
		case '.':
			start := i + 1
			i = start
			for i < len(s) && isIdentByte(s[i]) {
				i++
			}
			if i == start {
				return nil, &PathError{Path: s, Reason: fmt.Sprintf("expected key name at offset %d", start)}
			}
			p = append(p, StringAddr(s[start:i]))
		default:
			return nil, &PathError{Path: s, Reason: fmt.Sprintf("unexpected character %q at offset %d", s[i], i)}
		}
	}
	return p, nil
}

// readQuoted reads a quoted key starting at the opening quote s[start],
// returning the unescaped key & the offset just past the closing quote
func readQuoted(s string, start int, quote byte) (string, int, error) {
	b := &strings.Builder{}
	for i := start + 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			i++
			if i >= len(s) {
				return "", 0, &PathError{Path: s, Reason: "dangling escape"}
			}
			b.WriteByte(s[i])
		case quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, &PathError{Path: s, Reason: "unterminated quoted key"}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Resolve walks the path against v, returning the addressed node
func (p Path) Resolve(v interface{}) (interface{}, error) {
	for i, a := range p {
		child, err := childAt(v, a)
		if err != nil {
			return nil, &PathError{Path: p[:i+1].String(), Reason: err.Error()}
		}
		v = child
	}
	return v, nil
}

func childAt(v interface{}, a Addr) (interface{}, error) {
	switch x := a.(type) {
	case StringAddr:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("expected dict, found %s", TypeName(v))
		}
		ch, ok := m[string(x)]
		if !ok {
			return nil, fmt.Errorf("key not found")
		}
		return ch, nil
	case IndexAddr:
		s, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected list, found %s", TypeName(v))
		}
		if int(x) >= len(s) {
			return nil, fmt.Errorf("index out of range (length %d)", len(s))
		}
		return s[x], nil
	case SetAddr:
		s, ok := v.(Set)
		if !ok {
			return nil, fmt.Errorf("expected set, found %s", TypeName(v))
		}
		i := setMemberIndex(s, string(x))
		if i < 0 {
			return nil, fmt.Errorf("set member not found")
		}
		return s[i], nil
	}
	return nil, fmt.Errorf("unknown address type %T", a)
}

func setMemberIndex(s Set, digest string) int {
	for i, m := range s {
		if plainDigest(m) == digest {
			return i
		}
	}
	return -1
}

// Extract returns the value at path within obj
func Extract(obj interface{}, path string) (interface{}, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return p.Resolve(obj)
}
