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
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/bufbuild/protoschema/ast"
)

// Resolver is used by the compiler to locate schema files by path.
type Resolver interface {
	// FindFileByPath searches for the file with the given path. If no such
	// file exists, the returned error should satisfy
	// errors.Is(err, fs.ErrNotExist) or be [protoregistry.NotFound], so the
	// compiler can keep looking elsewhere.
	FindFileByPath(path string) (SearchResult, error)
}

// SearchResult represents information about a schema file that a Resolver
// was able to find. Exactly one of the fields should be set.
type SearchResult struct {
	// Source is the schema text. If it implements io.Closer, the compiler
	// closes it once it has been read.
	Source io.Reader
	// Document is a tree that has already been parsed. If it is already
	// attributed it is used as is; otherwise the compiler links it.
	Document *ast.Document
}

// ResolverFunc is a simple function type that implements Resolver.
type ResolverFunc func(string) (SearchResult, error)

var _ Resolver = ResolverFunc(nil)

// FindFileByPath implements [Resolver].
func (f ResolverFunc) FindFileByPath(path string) (SearchResult, error) {
	return f(path)
}

// CompositeResolver is a slice of resolvers consulted in order. The first
// one that finds the path wins. If none do, the first error is returned.
type CompositeResolver []Resolver

var _ Resolver = CompositeResolver(nil)

// FindFileByPath implements [Resolver].
func (f CompositeResolver) FindFileByPath(path string) (SearchResult, error) {
	if len(f) == 0 {
		return SearchResult{}, protoregistry.NotFound
	}
	var firstErr error
	for _, res := range f {
		r, err := res.FindFileByPath(path)
		if err == nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return SearchResult{}, firstErr
}

// SourceResolver loads schema files from a file system. Each path is tried
// under every entry of ImportPaths in turn; with no import paths it is
// opened as given.
type SourceResolver struct {
	ImportPaths []string
	// Accessor opens a file. If nil, os.Open is used.
	Accessor func(path string) (io.ReadCloser, error)
}

var _ Resolver = (*SourceResolver)(nil)

// FindFileByPath implements [Resolver].
func (r *SourceResolver) FindFileByPath(path string) (SearchResult, error) {
	if len(r.ImportPaths) == 0 {
		reader, err := r.open(path)
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Source: reader}, nil
	}

	var e error
	for _, importPath := range r.ImportPaths {
		reader, err := r.open(filepath.Join(importPath, path))
		if err != nil {
			if isNotFound(err) {
				e = err
				continue
			}
			return SearchResult{}, err
		}
		return SearchResult{Source: reader}, nil
	}
	return SearchResult{}, e
}

func (r *SourceResolver) open(path string) (io.ReadCloser, error) {
	if r.Accessor == nil {
		return os.Open(path)
	}
	return r.Accessor(path)
}

// SourceAccessorFromMap returns an Accessor for SourceResolver that serves
// the given in-memory files, keyed by path.
func SourceAccessorFromMap(srcs map[string]string) func(string) (io.ReadCloser, error) {
	return func(path string) (io.ReadCloser, error) {
		src, ok := srcs[path]
		if !ok {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
		}
		return io.NopCloser(strings.NewReader(src)), nil
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, protoregistry.NotFound)
}
