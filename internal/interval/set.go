// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package interval provides an ordered set of disjoint integer intervals.
package interval

import (
	"fmt"
	"iter"

	"github.com/tidwall/btree"
	"golang.org/x/exp/constraints" //nolint:exptostd // Tries to replace w/ cmp.
)

// Endpoint is a type that may be used as an interval endpoint.
type Endpoint = constraints.Integer

// Entry is an interval in a [Set] along with its associated value.
type Entry[K Endpoint, V any] struct {
	Start, End K // The interval range, inclusive.
	Value      V
}

// Contains returns whether an entry contains a given point.
func (e Entry[K, V]) Contains(point K) bool {
	return e.Start <= point && point <= e.End
}

// Set is a collection of pairwise disjoint intervals, each carrying a value.
//
// A zero value is ready to use.
type Set[K Endpoint, V any] struct {
	// Keys in this map are the ends of intervals in the set. Because the
	// intervals are disjoint, ordering by end also orders by start.
	tree btree.Map[K, *Entry[K, V]]
}

// Len returns the number of intervals in the set.
func (s *Set[K, V]) Len() int {
	return s.tree.Len()
}

// Get returns the interval containing point, if there is one.
func (s *Set[K, V]) Get(point K) (Entry[K, V], bool) {
	return s.Overlap(point, point)
}

// Overlap returns the first interval in the set that intersects
// [start, end], if there is one.
func (s *Set[K, V]) Overlap(start, end K) (Entry[K, V], bool) {
	iter := s.tree.Iter()
	// The first interval ending at or after start is the only candidate:
	// everything after it starts after its end.
	if !iter.Seek(start) || iter.Value().Start > end {
		return Entry[K, V]{}, false
	}
	return *iter.Value(), true
}

// Insert adds [start, end] with the given value. Both endpoints are
// inclusive.
//
// If the interval intersects one already in the set, nothing is inserted
// and the first intersecting interval is returned along with false.
func (s *Set[K, V]) Insert(start, end K, value V) (Entry[K, V], bool) {
	if start > end {
		panic(fmt.Sprintf("interval: start (%#v) > end (%#v)", start, end))
	}
	if existing, overlaps := s.Overlap(start, end); overlaps {
		return existing, false
	}
	entry := &Entry[K, V]{Start: start, End: end, Value: value}
	s.tree.Set(end, entry)
	return *entry, true
}

// Entries returns an iterator over the intervals in ascending order.
func (s *Set[K, V]) Entries() iter.Seq[Entry[K, V]] {
	return func(yield func(Entry[K, V]) bool) {
		iter := s.tree.Iter()
		for more := iter.First(); more; more = iter.Next() {
			if !yield(*iter.Value()) {
				return
			}
		}
	}
}

// Format implements [fmt.Formatter].
func (s *Set[K, V]) Format(state fmt.State, v rune) {
	fmt.Fprint(state, "{")
	first := true
	s.tree.Scan(func(end K, entry *Entry[K, V]) bool {
		if !first {
			fmt.Fprint(state, ", ")
		}
		first = false

		if entry.Start == end {
			fmt.Fprintf(state, "%#v: ", entry.Start)
		} else {
			fmt.Fprintf(state, "[%#v, %#v]: ", entry.Start, end)
		}
		fmt.Fprintf(state, fmt.FormatString(state, v), entry.Value)
		return true
	})
	fmt.Fprint(state, "}")
}
