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

// Package reporter contains the types used for reporting errors from
// parsing and linking schema files.
//
// Errors carry a [Category] and a source position. A [Reporter] decides
// whether an error aborts the operation; a [Handler] funnels errors from
// possibly concurrent compilations into one reporter and remembers the first.
package reporter

import (
	"sync"

	"github.com/bufbuild/protoschema/ast"
)

// ErrorReporter is responsible for reporting the given error. If the reporter
// returns a non-nil error, compilation will abort with that error. If the
// reporter returns nil, compilation of other files continues; the file that
// produced the error is never attributed.
type ErrorReporter func(err ErrorWithPos) error

// WarningReporter is responsible for reporting the given warning. This is used
// for indicating non-error messages to the calling program for things that do
// not cause the parse to fail but are considered bad practice. Though they are
// just warnings, the details are supplied to the reporter via an error type.
type WarningReporter func(ErrorWithPos)

// Reporter receives the errors and warnings found while compiling.
type Reporter interface {
	Error(ErrorWithPos) error
	Warning(ErrorWithPos)
}

// NewReporter builds a Reporter from two functions. A nil errs returns every
// error as is; a nil warnings drops warnings.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(err ErrorWithPos) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

func (r reporterFuncs) Warning(err ErrorWithPos) {
	if r.warnings != nil {
		r.warnings(err)
	}
}

// Handler is used by the compiler to report errors and warnings. It is safe
// for concurrent use. Once an error aborts compilation, later errors return
// that first error.
type Handler struct {
	reporter Reporter

	mu           sync.Mutex
	errsReported bool
	err          error
}

// NewHandler returns a Handler that reports to rep, or to a default reporter
// that aborts on the first error if rep is nil.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// HandleErrorf reports a formatted error.
func (h *Handler) HandleErrorf(cat Category, pos ast.SourcePos, format string, args ...any) error {
	return h.HandleError(Errorf(cat, pos, format, args...))
}

// HandleError reports err. Errors without a position bypass the reporter and
// abort immediately.
func (h *Handler) HandleError(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	if ewp, ok := err.(ErrorWithPos); ok {
		h.errsReported = true
		err = h.reporter.Error(ewp)
	}
	h.err = err
	return err
}

// HandleWarning reports a warning.
func (h *Handler) HandleWarning(cat Category, pos ast.SourcePos, err error) {
	// no need for lock; warnings don't interact with mutable fields
	h.reporter.Warning(errorWithSourcePos{cat: cat, pos: pos, underlying: err})
}

// Error returns the error that aborted compilation, or [ErrInvalidSource]
// if errors were reported but none aborted.
func (h *Handler) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errsReported && h.err == nil {
		return ErrInvalidSource
	}
	return h.err
}

// ReporterError returns the error returned by the reporter, if any.
func (h *Handler) ReporterError() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}
