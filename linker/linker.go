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

package linker

import (
	"context"
	"errors"
	"fmt"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/options"
	"github.com/bufbuild/protoschema/reporter"
)

// ErrImportCycle is wrapped by the error reported when a document imports
// itself, directly or through other documents.
var ErrImportCycle = errors.New("import cycle")

// ImportResolver supplies the attributed documents that a document imports.
type ImportResolver interface {
	// ResolveImport returns the attributed document named by imp, which
	// appears in importer.
	ResolveImport(ctx context.Context, importer *ast.Document, imp *ast.Import) (*ast.Document, error)
}

// ImportResolverFunc is a function that implements [ImportResolver].
type ImportResolverFunc func(ctx context.Context, importer *ast.Document, imp *ast.Import) (*ast.Document, error)

var _ ImportResolver = ImportResolverFunc(nil)

// ResolveImport implements [ImportResolver].
func (f ImportResolverFunc) ResolveImport(ctx context.Context, importer *ast.Document, imp *ast.Import) (*ast.Document, error) {
	return f(ctx, importer, imp)
}

// Options configures linking.
type Options struct {
	// Known is the table options are checked against. If nil, the table of
	// descriptor.proto options is used.
	Known *options.Table
}

// Link attributes doc in place. Imports that are not yet bound are requested
// from imports, which may be nil if doc has none.
//
// If linking fails, the returned error describes the first problem found and
// doc must not be used.
func Link(ctx context.Context, doc *ast.Document, imports ImportResolver, opts Options) error {
	known := opts.Known
	if known == nil {
		known = options.Default()
	}
	l := &linker{doc: doc, known: known}
	if err := l.resolveImports(ctx, imports); err != nil {
		return err
	}
	if err := bindNames(doc); err != nil {
		return err
	}
	syms, err := newSymbols(doc)
	if err != nil {
		return err
	}
	l.symbols = syms
	if err := l.resolveTypes(); err != nil {
		return err
	}
	return l.validate()
}

type linker struct {
	doc     *ast.Document
	known   *options.Table
	symbols *Symbols
}

func (l *linker) resolveImports(ctx context.Context, imports ImportResolver) error {
	for _, imp := range l.doc.Imports() {
		if imp.Doc != nil {
			continue
		}
		if imports == nil {
			return reporter.Errorf(reporter.Semantic, imp.Position, "could not resolve import %q", imp.Path)
		}
		dep, err := imports.ResolveImport(ctx, l.doc, imp)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			var errWithPos reporter.ErrorWithPos
			if errors.As(err, &errWithPos) {
				return err
			}
			return reporter.Error(reporter.Semantic, imp.Position, fmt.Errorf("could not resolve import %q: %w", imp.Path, err))
		}
		if dep == l.doc {
			return reporter.Error(reporter.Semantic, imp.Position, fmt.Errorf("%w: %q imports itself", ErrImportCycle, imp.Path))
		}
		imp.Doc = dep
	}
	return nil
}

// visibleImports returns the documents whose declarations doc can refer to:
// its direct imports and, transitively, the public imports of those. Each
// document is paired with the position of the direct import it came through.
func visibleImports(doc *ast.Document) ([]*ast.Document, []ast.SourcePos) {
	seen := map[*ast.Document]bool{doc: true}
	var docs []*ast.Document
	var positions []ast.SourcePos
	var add func(dep *ast.Document, pos ast.SourcePos)
	add = func(dep *ast.Document, pos ast.SourcePos) {
		if dep == nil || seen[dep] {
			return
		}
		seen[dep] = true
		docs = append(docs, dep)
		positions = append(positions, pos)
		for _, imp := range dep.Imports() {
			if imp.Public {
				add(imp.Doc, pos)
			}
		}
	}
	for _, imp := range doc.Imports() {
		add(imp.Doc, imp.Position)
	}
	return docs, positions
}
