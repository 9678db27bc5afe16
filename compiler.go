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
	"io"
	"log/slog"
	"path"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/linker"
	"github.com/bufbuild/protoschema/options"
	"github.com/bufbuild/protoschema/parser"
	"github.com/bufbuild/protoschema/reporter"
)

// Compiler turns schema files into attributed documents.
//
// Compiling a file involves three steps:
//  1. Locating it with the Resolver.
//  2. Parsing it into an unattributed tree.
//  3. Linking the tree against its imports, which are compiled the same way.
type Compiler struct {
	// Resolves paths into schema source or parsed documents. This is how the
	// compiler loads the files to be compiled as well as all of their
	// imports. This field is the only required field.
	Resolver Resolver
	// The maximum number of top-level files compiled at once. If unspecified
	// or set to a non-positive value, then min(runtime.NumCPU(),
	// runtime.GOMAXPROCS(-1)) will be used.
	MaxParallelism int
	// A custom error and warning reporter. If unspecified a default reporter
	// is used. A default reporter fails the compilation after encountering any
	// errors and ignores all warnings.
	Reporter reporter.Reporter
	// Logger receives debug events as files are parsed, linked and found in
	// the cache. If nil, nothing is logged.
	Logger *slog.Logger
	// ParserOptions are passed to the parser for every file.
	ParserOptions parser.Options
	// Options is the table of known options that option statements are
	// checked against. If nil, [options.Default] is used.
	Options *options.Table
	// Cache holds documents across Compile calls. If nil, every call uses a
	// fresh cache of its own.
	Cache *Cache
}

// Compile compiles the given files into attributed documents, returned in
// the same order. Imports are located with the compiler's resolver, first
// relative to the importing file's directory and then as written.
//
// Compile returns the first error that aborts compilation. If the reporter
// chose to continue past every error, [reporter.ErrInvalidSource] is
// returned instead.
func (c *Compiler) Compile(ctx context.Context, files ...string) ([]*ast.Document, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if c.Resolver == nil {
		return nil, errors.New("protoschema: compiler has no resolver")
	}

	par := c.MaxParallelism
	if par <= 0 {
		par = min(runtime.GOMAXPROCS(-1), runtime.NumCPU())
	}

	t := c.newTask()
	results := make([]*ast.Document, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(par)
	for i, file := range files {
		g.Go(func() error {
			doc, err := t.compileFile(ctx, file)
			if errors.Is(err, reporter.ErrInvalidSource) {
				// Already reported; keep compiling the other files.
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := t.h.Error(); err != nil {
		return nil, err
	}
	return results, nil
}

// task holds the state of a single Compile call.
type task struct {
	c     *Compiler
	h     *reporter.Handler
	cache *Cache
	known *options.Table
	log   *slog.Logger

	mu       sync.Mutex
	reported map[string]bool
}

func (c *Compiler) newTask() *task {
	t := &task{
		c:        c,
		h:        reporter.NewHandler(c.Reporter),
		cache:    c.Cache,
		known:    c.Options,
		log:      c.Logger,
		reported: map[string]bool{},
	}
	if t.cache == nil {
		t.cache = new(Cache)
	}
	if t.known == nil {
		t.known = options.Default()
	}
	if t.log == nil {
		t.log = slog.New(slog.DiscardHandler)
	}
	return t
}

// notFoundError marks a failure of the resolver to find a path, as opposed
// to a failure to compile what it found.
type notFoundError struct {
	err error
}

func (e *notFoundError) Error() string { return e.err.Error() }
func (e *notFoundError) Unwrap() error { return e.err }

// fileError is the failure of the file at path. Files importing it fail
// with the same fileError, so it is reported once, as the failure of path.
type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string { return e.err.Error() }
func (e *fileError) Unwrap() error { return e.err }

func (t *task) compileFile(ctx context.Context, file string) (*ast.Document, error) {
	doc, err := t.load(ctx, file, nil)
	if err != nil {
		var fe *fileError
		if errors.As(err, &fe) {
			return nil, t.report(fe)
		}
		if nf, ok := asNotFound(err); ok {
			return nil, nf.err
		}
		return nil, err
	}
	return doc, nil
}

// report passes a file's failure to the handler, at most once per file. The
// failure may have been cached by an earlier Compile call, so each task
// reports it to its own handler.
func (t *task) report(fe *fileError) error {
	t.mu.Lock()
	seen := t.reported[fe.path]
	t.reported[fe.path] = true
	t.mu.Unlock()

	var err error
	if seen {
		err = t.h.ReporterError()
	} else {
		err = t.h.HandleError(fe.err)
	}
	if err != nil {
		return err
	}
	return reporter.ErrInvalidSource
}

// load returns the attributed document at p, building it unless the cache
// already has it. from is the entry of the document importing p, if any.
func (t *task) load(ctx context.Context, p string, from *cacheEntry) (*ast.Document, error) {
	doc, hit, err := t.cache.get(ctx, p, from, func(e *cacheEntry) (*ast.Document, error) {
		return t.build(ctx, e)
	})
	switch {
	case err == nil:
		if hit {
			t.log.DebugContext(ctx, "cache hit", slog.String("path", p))
		}
		return doc, nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case errors.As(err, new(*fileError)), errors.As(err, new(*errCycle)):
		return nil, err
	}
	if _, ok := asNotFound(err); ok {
		return nil, err
	}
	return nil, &fileError{path: p, err: err}
}

// build compiles the file of e. Its errors are returned as found, without
// going through the handler, so the cache keeps the original failure.
func (t *task) build(ctx context.Context, e *cacheEntry) (*ast.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := t.c.Resolver.FindFileByPath(e.path)
	if err != nil {
		if isNotFound(err) {
			return nil, &notFoundError{err: err}
		}
		return nil, err
	}

	doc := res.Document
	switch {
	case doc != nil && doc.Attributed():
		return doc, nil
	case doc == nil && res.Source == nil:
		return nil, fmt.Errorf("resolver returned an empty result for %q", e.path)
	case doc == nil:
		doc, err = t.parse(e.path, res.Source)
		if err != nil {
			return nil, err
		}
	}

	imports := linker.ImportResolverFunc(func(ctx context.Context, importer *ast.Document, imp *ast.Import) (*ast.Document, error) {
		return t.resolveImport(ctx, e, importer, imp)
	})
	if err := linker.Link(ctx, doc, imports, linker.Options{Known: t.known}); err != nil {
		return nil, err
	}
	t.log.DebugContext(ctx, "linked file",
		slog.String("path", e.path),
		slog.Int("imports", len(doc.Imports())),
	)
	return doc, nil
}

func (t *task) parse(p string, src io.Reader) (*ast.Document, error) {
	if closer, ok := src.(io.Closer); ok {
		defer closer.Close()
	}
	// Errors come back as is; warnings go to the task's handler.
	h := reporter.NewHandler(reporter.NewReporter(nil, func(w reporter.ErrorWithPos) {
		t.h.HandleWarning(w.Category(), w.GetPosition(), w.Unwrap())
	}))
	doc, err := parser.Parse(p, src, h, t.c.ParserOptions)
	if err != nil {
		return nil, err
	}
	t.log.Debug("parsed file",
		slog.String("path", p),
		slog.String("syntax", doc.Syntax.Effective().String()),
	)
	return doc, nil
}

func (t *task) resolveImport(ctx context.Context, from *cacheEntry, importer *ast.Document, imp *ast.Import) (*ast.Document, error) {
	var err error
	for _, p := range importCandidates(importer.Location(), imp.Path) {
		var doc *ast.Document
		doc, err = t.load(ctx, p, from)
		if err == nil {
			return doc, nil
		}
		if _, ok := asNotFound(err); !ok {
			break
		}
	}

	if nf, ok := asNotFound(err); ok {
		return nil, nf.err
	}
	var cycle *errCycle
	if errors.As(err, &cycle) {
		t.log.DebugContext(ctx, "import cycle",
			slog.String("path", from.path),
			slog.String("cycle", cycle.Error()),
		)
		return nil, reporter.Error(reporter.Semantic, imp.Position, fmt.Errorf("%w: %v", linker.ErrImportCycle, cycle))
	}
	return nil, err
}

// importCandidates returns the paths an import is looked up at: relative to
// the importing file's directory, then as written.
func importCandidates(importer, imported string) []string {
	dir := path.Dir(importer)
	if dir == "." || path.IsAbs(imported) {
		return []string{imported}
	}
	return []string{path.Join(dir, imported), imported}
}

// asNotFound reports whether err is the resolver failing to find the
// requested path itself. A not-found error wrapped inside a failure of some
// other file does not count.
func asNotFound(err error) (*notFoundError, bool) {
	nf, ok := err.(*notFoundError) //nolint:errorlint // A wrapped one came from another file.
	return nf, ok
}
