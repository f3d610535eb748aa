package deepdiff

import (
	"context"
	"encoding/json"
	"testing"
)

// map iteration order is random, so each check runs enough times to catch
// output that depends on it
func TestDeterministicReports(t *testing.T) {
	left := `{
		"body": [["Avatar ",178],["Spectre ",148],["John Carter ",132],["Tangled ",100],["Tangled ",100]],
		"commit": {"message": "created dataset", "title": "created dataset", "timestamp": "2001-01-01T01:01:01Z"},
		"meta": {"title": "example movie data", "keywords": ["movies", "film", "data"]},
		"structure": {"format": "csv", "entries": 5, "schema": {"type": "array", "items": {"type": "array"}}},
		"k1": 1, "k2": 2, "k3": 3, "k10": 10, "k20": 20
	}`
	rite := `{
		"body": [["Tangled ",100],["Spectre ",149],["Avatar ",178],["Spider-Man 3 ",156]],
		"commit": {"title": "", "timestamp": "0001-01-01T00:00:00Z"},
		"meta": {"title": "different title", "keywords": ["data", "movies", "cinema"]},
		"structure": {"format": "json", "entries": 4, "schema": {"type": "array", "items": {"type": "object"}}},
		"name": "test_ds",
		"k1": "1", "k2": 2, "k3": 4, "k10": 10, "k20": null
	}`

	leftData := mustDecode(t, left)
	riteData := mustDecode(t, rite)

	ctx := context.Background()
	differs := map[string]*DeepDiff{
		"ordered":           New(),
		"ignore order":      New(OptionIgnoreOrder(true)),
		"report repetition": New(OptionIgnoreOrder(true), OptionReportRepetition(true)),
	}

	for name, dd := range differs {
		t.Run(name, func(t *testing.T) {
			var (
				firstReport string
				firstPretty string
				firstDeltas string
			)

			for k := 0; k < 200; k++ {
				r, err := dd.Diff(ctx, leftData, riteData)
				if err != nil {
					t.Fatal(err)
				}
				data, err := json.Marshal(r)
				if err != nil {
					t.Fatal(err)
				}
				pretty, err := FormatPrettyString(r, false)
				if err != nil {
					t.Fatal(err)
				}
				dts, err := dd.Delta(ctx, leftData, riteData)
				if err != nil {
					t.Fatal(err)
				}
				deltaData, err := json.Marshal(dts)
				if err != nil {
					t.Fatal(err)
				}

				if k == 0 {
					firstReport, firstPretty, firstDeltas = string(data), pretty, string(deltaData)
					continue
				}
				if string(data) != firstReport {
					t.Fatalf("run %d: report changed between runs.\nfirst: %s\ngot:   %s", k, firstReport, data)
				}
				if pretty != firstPretty {
					t.Fatalf("run %d: pretty output changed between runs.\nfirst:\n%s\ngot:\n%s", k, firstPretty, pretty)
				}
				if string(deltaData) != firstDeltas {
					t.Fatalf("run %d: deltas changed between runs.\nfirst: %s\ngot:   %s", k, firstDeltas, deltaData)
				}
			}
		})
	}
}

func TestDeterministicHashes(t *testing.T) {
	ctx := context.Background()
	obj := mustDecode(t, `{"b":{"x":1,"y":[1,2,{"z":null}]},"a":[3,2,1],"c":"d","e":{"f":{"g":{}}}}`)
	dd := New(OptionIgnoreOrder(true))

	first, err := dd.Hash(ctx, obj)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 200; k++ {
		h, err := dd.Hash(ctx, obj)
		if err != nil {
			t.Fatal(err)
		}
		if h != first {
			t.Fatalf("run %d: hash changed between runs. first: %s. got: %s", k, first, h)
		}
	}
}
