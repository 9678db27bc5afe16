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

package protoschema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bufbuild/protoschema/ast"
)

// Cache holds attributed documents keyed by resolved path. It may be shared
// by several compilers and by concurrent Compile calls; each path is parsed
// and attributed at most once. Failed builds are remembered too, except
// those where the path was not found or the context was cancelled.
//
// A zero Cache is empty and ready to use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	path  string
	ready chan struct{}
	doc   *ast.Document
	err   error

	// waitingOn is the entry whose completion the builder of this entry is
	// currently blocked on. Guarded by Cache.mu.
	waitingOn *cacheEntry
}

// errCycle is returned by get when waiting for path would never finish.
// chain lists the paths of the cycle, starting and ending with the same one.
type errCycle struct {
	chain []string
}

func (e *errCycle) Error() string {
	quoted := make([]string, len(e.chain))
	for i, p := range e.chain {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return strings.Join(quoted, " -> ")
}

// Get returns the document attributed for path, if one has been
// successfully built.
func (c *Cache) Get(path string) (*ast.Document, bool) {
	c.mu.Lock()
	e := c.entries[path]
	c.mu.Unlock()
	if e == nil {
		return nil, false
	}
	select {
	case <-e.ready:
		return e.doc, e.err == nil
	default:
		return nil, false
	}
}

// Len returns the number of paths the cache holds, including failed and
// in-progress ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// get returns the document for path, calling build to produce it if no
// other caller has started to. from is the entry whose builder is asking,
// or nil for a top-level request.
//
// If some builder is already producing path, get waits for it. A wait that
// would close a cycle of builders waiting on one another fails with
// *errCycle instead. hit reports whether build was not called.
func (c *Cache) get(
	ctx context.Context,
	path string,
	from *cacheEntry,
	build func(*cacheEntry) (*ast.Document, error),
) (doc *ast.Document, hit bool, err error) {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = map[string]*cacheEntry{}
	}
	e := c.entries[path]
	if e == nil {
		e = &cacheEntry{path: path, ready: make(chan struct{})}
		c.entries[path] = e
		if from != nil {
			from.waitingOn = e
		}
		c.mu.Unlock()

		doc, err := build(e)
		c.finish(e, from, doc, err)
		return doc, false, err
	}

	select {
	case <-e.ready:
		c.mu.Unlock()
		return e.doc, true, e.err
	default:
	}
	if from != nil {
		if chain := waitChain(e, from); chain != nil {
			c.mu.Unlock()
			return nil, true, &errCycle{chain: chain}
		}
		from.waitingOn = e
	}
	c.mu.Unlock()

	select {
	case <-e.ready:
	case <-ctx.Done():
	}
	if from != nil {
		c.mu.Lock()
		from.waitingOn = nil
		c.mu.Unlock()
	}
	select {
	case <-e.ready:
		return e.doc, true, e.err
	default:
		return nil, true, ctx.Err()
	}
}

func (c *Cache) finish(e, from *cacheEntry, doc *ast.Document, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if from != nil {
		from.waitingOn = nil
	}
	e.doc, e.err = doc, err
	_, notFound := asNotFound(err)
	if notFound || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		delete(c.entries, e.path)
	}
	close(e.ready)
}

// waitChain follows the wait links from target. If they lead back to from,
// letting from wait on target would deadlock, and the paths along the way
// are returned. Must be called with c.mu held.
func waitChain(target, from *cacheEntry) []string {
	var chain []string
	for e := target; e != nil; e = e.waitingOn {
		chain = append(chain, e.path)
		if e == from {
			return append(chain, target.path)
		}
	}
	return nil
}
