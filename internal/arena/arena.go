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

// Package arena stores the nodes of a schema tree.
//
// A document allocates every node of one kind in a single [Arena] and links
// nodes to each other with [Pointer] values instead of Go pointers. A parent
// link is then just a number, which keeps the tree free of owning cycles.
package arena

import (
	"fmt"
	"iter"
	"strings"
)

// pageSize is the number of values in each page of an arena.
const pageSize = 32

// Untyped is an arena pointer whose element type has been erased. It is one
// plus the number of values allocated before the one it points to, so the
// zero value is nil.
type Untyped uint32

// Nil returns whether this pointer is nil.
func (p Untyped) Nil() bool {
	return p == 0
}

// Pointer is a compressed pointer into an Arena[T]. The zero value is nil.
type Pointer[T any] Untyped

// Nil returns whether this pointer is nil.
func (p Pointer[T]) Nil() bool {
	return p == 0
}

// Untyped erases the type of this pointer.
func (p Pointer[T]) Untyped() Untyped {
	return Untyped(p)
}

// Arena holds values of type T at stable addresses. Values are stored in
// fixed-size pages that are never moved or freed, so a *T handed out by
// the arena stays valid for the arena's lifetime.
//
// A zero Arena[T] is empty and ready to use.
type Arena[T any] struct {
	pages []*[pageSize]T
	n     int
}

// New allocates a new value on the arena.
func (a *Arena[T]) New(value T) Pointer[T] {
	if a.n == len(a.pages)*pageSize {
		a.pages = append(a.pages, new([pageSize]T))
	}
	a.pages[a.n/pageSize][a.n%pageSize] = value
	a.n++
	return Pointer[T](a.n)
}

// At dereferences an untyped pointer. It panics if p is nil or was not
// allocated by this arena.
func (a *Arena[T]) At(p Untyped) *T {
	if p.Nil() {
		panic("arena: dereference of nil pointer")
	}
	i := int(p) - 1
	if i >= a.n {
		panic(fmt.Sprintf("arena: pointer %d out of range [1, %d]", p, a.n))
	}
	return &a.pages[i/pageSize][i%pageSize]
}

// Deref dereferences a typed pointer, as if by [Arena.At].
func (a *Arena[T]) Deref(p Pointer[T]) *T {
	return a.At(Untyped(p))
}

// Len returns the number of values allocated in this arena.
func (a *Arena[T]) Len() int {
	return a.n
}

// All returns an iterator over every value in allocation order.
func (a *Arena[T]) All() iter.Seq2[Pointer[T], *T] {
	return func(yield func(Pointer[T], *T) bool) {
		for i := range a.n {
			if !yield(Pointer[T](i+1), &a.pages[i/pageSize][i%pageSize]) {
				return
			}
		}
	}
}

// String implements [fmt.Stringer]. Page boundaries are shown with '|'.
func (a *Arena[T]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for p, v := range a.All() {
		switch {
		case p == 1:
		case int(p-1)%pageSize == 0:
			b.WriteByte('|')
		default:
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, *v)
	}
	b.WriteByte(']')
	return b.String()
}
