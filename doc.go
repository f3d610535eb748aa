// Package deepdiff is a structural comparison engine for nested data. Given
// two values it produces a categorized, path-addressed report of their
// differences. It can also estimate a normalized distance between two values,
// search a value for occurrences of a target, compute content hashes, and
// create & apply reversible edit scripts ("deltas") that turn one value into
// another
//
// deepdiff operates on the go types created by unmarshaling from JSON, three
// container types:
//   map[string]interface{}
//   []interface{}
//   deepdiff.Set
// and the scalar types:
//   string, []byte, int (all widths), float64, json.Number, bool, nil
// any other go value is treated as an opaque scalar & compared with
// reflect.DeepEqual. by operating on native go types deepdiff can compare
// documents encoded in different formats, for example decoded CSV or YAML
//
// Differences are addressed by paths like root['a']['b'][3]['c'], which
// ParsePath reads & Extract resolves against a value. Reports group changes
// into categories (values_changed, type_changes, dictionary_item_added...).
// sequences are compared position by position by default, or as multisets
// with OptionIgnoreOrder, in which case unmatched elements are paired with
// their nearest counterpart before being reported as added or removed
//
// Comparisons never modify their inputs, and terminate on cyclic values:
// a container that contains itself is recorded as a cycle, never a difference
//
// deepdiff also includes a tool for applying patches, see Patch for details
package deepdiff
