// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fdmodel

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ClosedInterval stores the closed interval `[start,end]`. If the `Start` is greater
// than the `End`, the interval is considered empty.
type ClosedInterval struct {
	Start int64
	End   int64
}

// checkOverflowAndAdd first checks if adding `delta` to `i` will cause an integer overflow.
// It will return the value of the summation if there is no overflow. Otherwise, it will
// return MaxInt64 or MinInt64 depending on the direction of the overflow.
func checkOverflowAndAdd(i, delta int64) int64 {
	if i == math.MinInt64 || i == math.MaxInt64 {
		return i
	}

	s := i + delta
	if delta < 0 && s > i {
		return math.MinInt64
	}
	if delta > 0 && s < i {
		return math.MaxInt64
	}

	return s
}

// Offset adds an offset to both the `Start` and `End` of the ClosedInterval `c`. If the `Start`
// is equal to MinInt or if `End` is equal to MaxInt, the offset does not get added since those
// values represent an unbounded domain. Both `Start` and `End` are clamped at math.MinInt64 and
// Math.MaxInt64.
func (c ClosedInterval) Offset(delta int64) ClosedInterval {
	return ClosedInterval{checkOverflowAndAdd(c.Start, delta), checkOverflowAndAdd(c.End, delta)}
}

// Domain stores an ordered list of ClosedIntervals. This represents any subset
// of `[MinInt64,MaxInt64]`. This type can be used to represent such a set efficiently
// as a sorted and non-adjacent list of intervals. This is efficient as long as the
// size of such a list stays reasonable.
type Domain struct {
	intervals []ClosedInterval
}

// joinIntervals sorts the intervals in domain and combines two consecutive intervals
// if they overlap or the start of the second is exactly one more than the end of the first.
// If an interval's `start` is greater than its `end`, then the interval is considered empty.
func (d *Domain) joinIntervals() {
	var itvs []ClosedInterval
	for _, v := range d.intervals {
		if v.Start <= v.End {
			itvs = append(itvs, v)
		}
	}
	d.intervals = itvs
	if len(d.intervals) == 0 {
		return
	}
	sort.Slice(d.intervals, func(i, j int) bool {
		if d.intervals[i].Start != d.intervals[j].Start {
			return d.intervals[i].Start < d.intervals[j].Start
		}
		return d.intervals[i].End < d.intervals[j].End
	})
	newIntervals := []ClosedInterval{d.intervals[0]}
	for i := 1; i < len(d.intervals); i++ {
		lastInt := &newIntervals[len(newIntervals)-1]
		if lastInt.End+1 >= d.intervals[i].Start {
			if lastInt.End < d.intervals[i].End {
				lastInt.End = d.intervals[i].End
			}
		} else {
			newIntervals = append(newIntervals, d.intervals[i])
		}
	}
	d.intervals = newIntervals
}

// NewEmptyDomain creates an empty Domain.
func NewEmptyDomain() Domain {
	return Domain{}
}

// NewSingleDomain creates a new singleton domain `[val]`.
func NewSingleDomain(val int64) Domain {
	return Domain{[]ClosedInterval{{val, val}}}
}

// NewDomain creates a new domain of a single interval `[left,right]`.
// If `left > right`, an empty domain is returned.
func NewDomain(left, right int64) Domain {
	if left > right {
		return NewEmptyDomain()
	}
	return Domain{[]ClosedInterval{{left, right}}}
}

// FromValues creates a new domain from `values`. `values` need not be
// sorted and can repeat.
func FromValues(values []int64) Domain {
	var d Domain
	for _, v := range values {
		d.intervals = append(d.intervals, ClosedInterval{v, v})
	}
	d.joinIntervals()
	return d
}

// FromIntervals creates a domain from the union of the set of unordered `intervals`.
// If an interval's `start` is greater than its `end`, the interval is considered empty.
func FromIntervals(intervals []ClosedInterval) Domain {
	itvs := make([]ClosedInterval, len(intervals))
	copy(itvs, intervals)
	domain := Domain{itvs}
	domain.joinIntervals()
	return domain
}

// FromFlatIntervals creates a new domain from a flattened list of intervals. If there is an
// interval where the start is greater than the end, the interval is considered empty. Returns
// an error if the length of `values` is not even.
func FromFlatIntervals(values []int64) (Domain, error) {
	if len(values) == 0 {
		return NewEmptyDomain(), nil
	}
	if len(values)%2 != 0 {
		return NewEmptyDomain(), fmt.Errorf("len(values)=%v must be a multiple of 2", len(values))
	}
	var intervals []ClosedInterval
	for i := 1; i < len(values); i += 2 {
		intervals = append(intervals, ClosedInterval{values[i-1], values[i]})
	}
	d := Domain{intervals}
	d.joinIntervals()
	return d, nil
}

// FlattenedIntervals returns the flattened list of interval bounds of the domain.
// For example, if Domain d is equal to `[0,2][5,5][9,10]` will return `[0,2,5,5,9,10]`.
func (d Domain) FlattenedIntervals() []int64 {
	var result []int64
	for _, i := range d.intervals {
		result = append(result, i.Start, i.End)
	}
	return result
}

// Min returns the minimum value of the domain, and returns false if no minimum exists,
// i.e. if the domain is empty.
func (d Domain) Min() (int64, bool) {
	if len(d.intervals) == 0 {
		return 0, false
	}
	return d.intervals[0].Start, true
}

// Max returns the maximum value of the domain, and returns false if no maximum exists,
// i.e. if the domain is empty.
func (d Domain) Max() (int64, bool) {
	if len(d.intervals) == 0 {
		return 0, false
	}
	return d.intervals[len(d.intervals)-1].End, true
}

// IsEmpty returns true if the domain contains no value.
func (d Domain) IsEmpty() bool {
	return len(d.intervals) == 0
}

// IsFixed returns true if the domain contains exactly one value.
func (d Domain) IsFixed() bool {
	return len(d.intervals) == 1 && d.intervals[0].Start == d.intervals[0].End
}

// FixedValue returns the single value of the domain, and returns false if the
// domain is not fixed.
func (d Domain) FixedValue() (int64, bool) {
	if !d.IsFixed() {
		return 0, false
	}
	return d.intervals[0].Start, true
}

// Contains returns true if `v` belongs to the domain.
func (d Domain) Contains(v int64) bool {
	n := len(d.intervals)
	i := sort.Search(n, func(k int) bool { return d.intervals[k].End >= v })
	return i < n && d.intervals[i].Start <= v
}

// Size returns the number of values in the domain, saturated at MaxInt64.
func (d Domain) Size() int64 {
	var size uint64
	for _, i := range d.intervals {
		length := uint64(i.End) - uint64(i.Start)
		if length >= math.MaxInt64 {
			return math.MaxInt64
		}
		size += length + 1
		if size > math.MaxInt64 {
			return math.MaxInt64
		}
	}
	return int64(size)
}

// Values returns all values of the domain in increasing order. This is only
// reasonable to call on small domains.
func (d Domain) Values() []int64 {
	var values []int64
	for _, itv := range d.intervals {
		for v := itv.Start; ; v++ {
			values = append(values, v)
			if v == itv.End {
				break
			}
		}
	}
	return values
}

// Equal returns true if the two domains contain the same values.
func (d Domain) Equal(other Domain) bool {
	if len(d.intervals) != len(other.intervals) {
		return false
	}
	for i, itv := range d.intervals {
		if itv != other.intervals[i] {
			return false
		}
	}
	return true
}

// IntersectionWith returns the set intersection of the two domains.
func (d Domain) IntersectionWith(other Domain) Domain {
	var result []ClosedInterval
	i, j := 0, 0
	for i < len(d.intervals) && j < len(other.intervals) {
		a, b := d.intervals[i], other.intervals[j]
		start := max(a.Start, b.Start)
		end := min(a.End, b.End)
		if start <= end {
			result = append(result, ClosedInterval{start, end})
		}
		if a.End < b.End {
			i++
		} else {
			j++
		}
	}
	return Domain{result}
}

// UnionWith returns the set union of the two domains.
func (d Domain) UnionWith(other Domain) Domain {
	itvs := make([]ClosedInterval, 0, len(d.intervals)+len(other.intervals))
	itvs = append(itvs, d.intervals...)
	itvs = append(itvs, other.intervals...)
	result := Domain{itvs}
	result.joinIntervals()
	return result
}

// Complement returns the set `[MinInt64,MaxInt64]` minus the domain.
func (d Domain) Complement() Domain {
	var result []ClosedInterval
	next := int64(math.MinInt64)
	for _, itv := range d.intervals {
		if itv.Start > next {
			result = append(result, ClosedInterval{next, itv.Start - 1})
		}
		if itv.End == math.MaxInt64 {
			return Domain{result}
		}
		next = itv.End + 1
	}
	result = append(result, ClosedInterval{next, math.MaxInt64})
	return Domain{result}
}

// String returns a compact representation of the domain, e.g. `[0,2][5][9,10]`.
func (d Domain) String() string {
	if len(d.intervals) == 0 {
		return "[]"
	}
	var sb strings.Builder
	for _, itv := range d.intervals {
		if itv.Start == itv.End {
			fmt.Fprintf(&sb, "[%d]", itv.Start)
		} else {
			fmt.Fprintf(&sb, "[%d,%d]", itv.Start, itv.End)
		}
	}
	return sb.String()
}
