package deepdiff

import (
	"context"
	"encoding/json"
	"fmt"
)

func ExampleFormatPretty() {
	// we'll use the background as our execution context
	ctx := context.Background()

	// start with two slightly different json documents
	aJSON := []byte(`{
		"a": 100,
		"foo": [1,2,3],
		"bar": false,
		"baz": {
			"a": {
				"b": 4,
				"c": false,
				"d": "apples-and-oranges"
			},
			"e": null,
			"g": "apples-and-oranges"
		}
	}`)

	bJSON := []byte(`{
		"a": 99,
		"foo": [1,2,3],
		"bar": false,
		"baz": {
			"a": {
				"b": 5,
				"c": false,
				"d": "apples-and-oranges"
			},
			"e": "thirty-thousand-something-dogecoin",
			"f": false
		}
	}`)

	// unmarshal the data into generic interfaces
	var a, b interface{}
	if err := json.Unmarshal(aJSON, &a); err != nil {
		panic(err)
	}
	if err := json.Unmarshal(bJSON, &b); err != nil {
		panic(err)
	}

	report, err := New().Diff(ctx, a, b)
	if err != nil {
		panic(err)
	}

	// Format the changes for terminal output
	change, err := FormatPrettyString(report, false)
	if err != nil {
		panic(err)
	}

	fmt.Print(change)
	// Output: ! root['baz']['e']: NoneType null -> str "thirty-thousand-something-dogecoin"
	// ~ root['a']: 100 -> 99
	// ~ root['baz']['a']['b']: 4 -> 5
	// + root['baz']['f']: false
	// - root['baz']['g']: "apples-and-oranges"
}

func ExampleSearch() {
	var obj interface{}
	if err := json.Unmarshal([]byte(`{"a":{"b":[1,2,3,{"c":"found me"}]}}`), &obj); err != nil {
		panic(err)
	}

	res, err := Search(context.Background(), obj, "found me", nil)
	if err != nil {
		panic(err)
	}

	fmt.Println(res.Values())
	// Output: [root['a']['b'][3]['c']]
}

func ExampleExtract() {
	var obj interface{}
	if err := json.Unmarshal([]byte(`{"a":{"b":[1,2,3,{"c":"value"}]}}`), &obj); err != nil {
		panic(err)
	}

	v, err := Extract(obj, "root['a']['b'][3]['c']")
	if err != nil {
		panic(err)
	}

	fmt.Println(v)
	// Output: value
}

func ExamplePatch() {
	ctx := context.Background()

	var a, b interface{}
	if err := json.Unmarshal([]byte(`{"name":"deepdiff","tags":["go","diff"]}`), &a); err != nil {
		panic(err)
	}
	if err := json.Unmarshal([]byte(`{"name":"deepdiff","tags":["go"],"stars":3}`), &b); err != nil {
		panic(err)
	}

	// Delta produces an edit script that Patch can apply to a copy of a
	deltas, err := New().Delta(ctx, a, b)
	if err != nil {
		panic(err)
	}

	patched, err := Patch(a, deltas)
	if err != nil {
		panic(err)
	}

	data, err := json.Marshal(patched)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(data))
	// Output: {"name":"deepdiff","stars":3,"tags":["go"]}
}

func ExampleDeepDiff_Distance() {
	ctx := context.Background()

	var a, b interface{}
	if err := json.Unmarshal([]byte(`{"a":1,"b":2,"c":3}`), &a); err != nil {
		panic(err)
	}
	if err := json.Unmarshal([]byte(`{"a":1,"b":2,"c":4}`), &b); err != nil {
		panic(err)
	}

	d, err := New().Distance(ctx, a, b)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%.2f\n", d)
	// Output: 0.33
}
