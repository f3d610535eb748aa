package deepdiff

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPathString(t *testing.T) {
	cases := []struct {
		path   Path
		expect string
	}{
		{nil, "root"},
		{Path{StringAddr("a")}, "root['a']"},
		{Path{StringAddr("a"), IndexAddr(3), StringAddr("c")}, "root['a'][3]['c']"},
		{Path{StringAddr("it's")}, `root['it\'s']`},
		{Path{StringAddr(`back\slash`)}, `root['back\\slash']`},
		{Path{StringAddr("s"), SetAddr("9f86d0")}, "root['s']{9f86d0}"},
	}

	for i, c := range cases {
		if got := c.path.String(); got != c.expect {
			t.Errorf("case %d: want: %s. got: %s", i, c.expect, got)
		}
	}
}

func TestPathRoundTrip(t *testing.T) {
	paths := []Path{
		{},
		{StringAddr("a")},
		{StringAddr(""), IndexAddr(0)},
		{StringAddr("a b"), StringAddr("]['"), IndexAddr(10)},
		{StringAddr(`\'`), SetAddr("abc123")},
		{IndexAddr(0), IndexAddr(1), StringAddr("日本")},
	}

	for _, p := range paths {
		got, err := ParsePath(p.String())
		if err != nil {
			t.Errorf("%s: %s", p, err)
			continue
		}
		if !got.Eq(p) {
			t.Errorf("round trip mismatch. want: %s. got: %s", p, got)
		}
	}
}

func TestParsePathSyntaxes(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{"root", "root"},
		{"root.a.b", "root['a']['b']"},
		{`root["a"][0]`, "root['a'][0]"},
		{`root["say \"hi\""]`, `root['say "hi"']`},
		{"root.a[2].b_c", "root['a'][2]['b_c']"},
	}

	for _, c := range cases {
		p, err := ParsePath(c.in)
		if err != nil {
			t.Errorf("%s: %s", c.in, err)
			continue
		}
		if got := p.String(); got != c.expect {
			t.Errorf("%s: want: %s. got: %s", c.in, c.expect, got)
		}
	}
}

func TestParsePathErrors(t *testing.T) {
	bad := []string{
		"",
		"a['b']",
		"root[",
		"root['a'",
		"root['a'x]",
		"root[-1]",
		"root[x]",
		"root.",
		"root{}",
		"root?",
	}

	for _, s := range bad {
		_, err := ParsePath(s)
		var perr *PathError
		if !errors.As(err, &perr) {
			t.Errorf("%q: expected a PathError, got: %v", s, err)
		}
	}
}

func TestPathPointer(t *testing.T) {
	p := Path{StringAddr("a/b"), IndexAddr(2), StringAddr("c~d")}
	if got, want := p.Pointer(), "/a~1b/2/c~0d"; got != want {
		t.Errorf("want: %s. got: %s", want, got)
	}
	if got := (Path{}).Pointer(); got != "" {
		t.Errorf("expected empty pointer for the root, got: %q", got)
	}
}

func TestPathJSON(t *testing.T) {
	in := struct {
		P Path `json:"p"`
	}{P: Path{StringAddr("a"), IndexAddr(1)}}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"p":"root['a'][1]"}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var out struct {
		P Path `json:"p"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out.P.Eq(in.P) {
		t.Errorf("decode mismatch. want: %s. got: %s", in.P, out.P)
	}
}

func TestExtract(t *testing.T) {
	var obj interface{}
	if err := json.Unmarshal([]byte(`{"a":{"b":[1,2,3,{"c":"value"}]}}`), &obj); err != nil {
		t.Fatal(err)
	}

	got, err := Extract(obj, "root['a']['b'][3]['c']")
	if err != nil {
		t.Fatal(err)
	}
	if got != "value" {
		t.Errorf("want: value. got: %v", got)
	}

	got, err = Extract(obj, "root.a.b")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{float64(1), float64(2), float64(3), map[string]interface{}{"c": "value"}}, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"root['a']['x']", "root['a']['b'][4]", "root['a'][0]", "root['a']['b'][0]['c']"} {
		_, err := Extract(obj, bad)
		var perr *PathError
		if !errors.As(err, &perr) {
			t.Errorf("%s: expected a PathError, got: %v", bad, err)
		}
	}
}

func TestExtractSetMember(t *testing.T) {
	obj := map[string]interface{}{"s": Set{"x", map[string]interface{}{"y": true}}}
	member := map[string]interface{}{"y": true}

	p := Path{StringAddr("s"), SetAddr(plainDigest(member))}
	got, err := Extract(obj, p.String())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(member, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}
