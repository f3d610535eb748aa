package deepdiff

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// diffUnordered compares two sequences as multisets:
//
//  1. bucket the elements of both sequences by content digest. a digest present
//     on both sides is a match. with repetition reporting on, a match whose
//     count differs is reported as a repetition change
//  2. elements left over on both sides are paired greedily: in order of their
//     index in s1, each is paired with the closest remaining element of s2,
//     ties going to the lowest index. pairs closer than the cutoff distance
//     are diffed at the s1 index
//  3. anything still unpaired is reported as removed (s1 index) or added
//     (s2 index)
func (d *differ) diffUnordered(p Path, s1, s2 []interface{}) error {
	if len(s1) > d.c.maxCollectionSize {
		return &ResourceLimitError{Path: p.String(), Limit: "max collection size", Value: d.c.maxCollectionSize}
	}
	if len(s2) > d.c.maxCollectionSize {
		return &ResourceLimitError{Path: p.String(), Limit: "max collection size", Value: d.c.maxCollectionSize}
	}

	b1, err := d.buckets(p, s1, d.open1)
	if err != nil {
		return err
	}
	b2, err := d.buckets(p, s2, d.open2)
	if err != nil {
		return err
	}

	var u1, u2 []int
	for _, digest := range b1.order {
		i1 := b1.indexes[digest]
		i2, ok := b2.indexes[digest]
		if !ok {
			u1 = append(u1, d.unmatched(i1)...)
			continue
		}
		if d.c.reportRepetition && len(i1) != len(i2) {
			d.report.add(&Change{
				Category:   RepetitionChange,
				Path:       p.Append(IndexAddr(i1[0])),
				Value:      s1[i1[0]],
				OldRepeat:  len(i1),
				NewRepeat:  len(i2),
				OldIndexes: i1,
				NewIndexes: i2,
			})
		}
	}
	for _, digest := range b2.order {
		if _, ok := b1.indexes[digest]; !ok {
			u2 = append(u2, d.unmatched(b2.indexes[digest])...)
		}
	}

	sort.Ints(u1)
	sort.Ints(u2)
	return d.pairUp(p, s1, s2, u1, u2)
}

// unmatched returns the indexes of an unmatched digest to report. without
// repetition reporting, repeats of the same element collapse into the first
func (d *differ) unmatched(idxs []int) []int {
	if d.c.reportRepetition {
		return idxs
	}
	return idxs[:1]
}

type buckets struct {
	// digests in order of first appearance
	order []string
	// digest to ascending element indexes
	indexes map[string][]int
}

func (d *differ) buckets(p Path, s []interface{}, open visited) (*buckets, error) {
	h := newHasher(d.ctx, d.c, d.norm)
	h.open = open
	h.unordered = true
	h.dedupe = !d.c.reportRepetition

	b := &buckets{indexes: map[string][]int{}}
	for i, v := range s {
		digest, err := h.digest(p.Append(IndexAddr(i)), v)
		if err != nil {
			return nil, err
		}
		if digest == "" {
			continue
		}
		if _, ok := b.indexes[digest]; !ok {
			b.order = append(b.order, digest)
		}
		b.indexes[digest] = append(b.indexes[digest], i)
	}
	return b, nil
}

func (d *differ) pairUp(p Path, s1, s2 []interface{}, u1, u2 []int) error {
	used := make([]bool, len(u2))

	if len(u1) > 0 && len(u2) > 0 {
		for _, i1 := range u1 {
			best, bestDist := -1, math.Inf(1)
			var bestReport *Report

			for j, i2 := range u2 {
				if used[j] {
					continue
				}
				*d.pairs++
				if *d.pairs > d.c.maxPairs {
					return &ResourceLimitError{Path: p.String(), Limit: "max pairs", Value: d.c.maxPairs}
				}
				dist, r, err := d.pairDistance(p.Append(IndexAddr(i1)), s1[i1], s2[i2])
				if err != nil {
					return err
				}
				if dist < bestDist {
					best, bestDist, bestReport = j, dist, r
				}
			}

			if bestReport != nil && bestDist <= d.c.cutoff {
				used[best] = true
				d.report.merge(bestReport)
				continue
			}
			d.report.add(&Change{Category: IterableItemRemoved, Path: p.Append(IndexAddr(i1)), Value: s1[i1]})
		}
	} else {
		for _, i1 := range u1 {
			d.report.add(&Change{Category: IterableItemRemoved, Path: p.Append(IndexAddr(i1)), Value: s1[i1]})
		}
	}

	for j, i2 := range u2 {
		if !used[j] {
			d.report.add(&Change{Category: IterableItemAdded, Path: p.Append(IndexAddr(i2)), Value: s2[i2]})
		}
	}
	return nil
}

// pairDistance estimates how far apart two unmatched elements are, returning
// the report of their differences at path p for use if they're paired
func (d *differ) pairDistance(p Path, a, b interface{}) (float64, *Report, error) {
	ka, kb := KindOf(a), KindOf(b)
	alike := ka == kb ||
		(ka.IsNumeric() && kb.IsNumeric()) ||
		(d.c.ignoreStringTypes && isStringish(ka) && isStringish(kb))
	if !alike {
		return 1, nil, nil
	}

	sd := d.scratch()
	if err := sd.diff(p, a, b); err != nil {
		return 0, nil, err
	}

	switch {
	case ka.IsNumeric():
		return numericDistance(a, b), sd.report, nil
	case isStringish(ka):
		return stringDistance(sd.norm.repr(a, ka), sd.norm.repr(b, kb)), sd.report, nil
	case ka.IsContainer():
		return calcStats(sd.report, a, b).Distance(), sd.report, nil
	}
	if sd.report.Empty() {
		return 0, sd.report, nil
	}
	return 1, sd.report, nil
}

func isStringish(k Kind) bool {
	return k == KindString || k == KindBytes
}

// stringDistance is the levenshtein distance between two strings, normalized
// by the length of the longer one
func stringDistance(a, b string) float64 {
	max := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > max {
		max = n
	}
	if max == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(max)
}
