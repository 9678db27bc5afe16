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

package reporter

import (
	"errors"
	"fmt"

	"github.com/bufbuild/protoschema/ast"
)

// Category classifies a diagnostic. Every error produced while compiling a
// schema belongs to exactly one category.
type Category int

const (
	// Lexical errors come from turning source text into tokens: bad
	// characters, malformed numbers, unterminated strings or comments.
	Lexical Category = iota + 1
	// Syntax errors are token sequences the grammar does not allow.
	Syntax
	// Semantic errors are well-formed declarations that break a structural
	// rule, such as duplicate names or indices, reserved collisions and
	// import cycles.
	Semantic
	// Type errors are references or values of the wrong type: unknown types,
	// invalid map keys, and option values of the wrong kind.
	Type
)

func (c Category) String() string {
	switch c {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	case Type:
		return "type"
	default:
		return "unknown"
	}
}

// ErrInvalidSource is returned by a [Handler] when errors were reported but
// the reporter chose to continue, so that there is no single error to return.
var ErrInvalidSource = errors.New("schema contained errors")

// ErrorWithPos is an error about a schema file that includes information
// about the location in the file that caused the error.
//
// The value of Error() will contain both the SourcePos and Underlying error.
// The value of Unwrap() will only be the Underlying error.
type ErrorWithPos interface {
	error
	GetPosition() ast.SourcePos
	Category() Category
	Unwrap() error
}

// Error wraps err with a category and position.
func Error(cat Category, pos ast.SourcePos, err error) ErrorWithPos {
	return errorWithSourcePos{cat: cat, pos: pos, underlying: err}
}

// Errorf formats a new error with a category and position.
func Errorf(cat Category, pos ast.SourcePos, format string, args ...any) ErrorWithPos {
	return errorWithSourcePos{cat: cat, pos: pos, underlying: fmt.Errorf(format, args...)}
}

// CategoryOf returns the category of the first [ErrorWithPos] in err's
// chain, or 0 if there is none.
func CategoryOf(err error) Category {
	var ewp ErrorWithPos
	if errors.As(err, &ewp) {
		return ewp.Category()
	}
	return 0
}

// errorWithSourcePos is the implementation of ErrorWithPos. Calling code
// should look for the interface rather than this type.
type errorWithSourcePos struct {
	underlying error
	pos        ast.SourcePos
	cat        Category
}

func (e errorWithSourcePos) Error() string {
	return fmt.Sprintf("%s: %v", e.pos, e.underlying)
}

// GetPosition implements the ErrorWithPos interface, supplying a location in
// the source that caused the error.
func (e errorWithSourcePos) GetPosition() ast.SourcePos {
	return e.pos
}

func (e errorWithSourcePos) Category() Category {
	return e.cat
}

// Unwrap implements the ErrorWithPos interface, supplying the underlying
// error. This error will not include location information.
func (e errorWithSourcePos) Unwrap() error {
	return e.underlying
}

var _ ErrorWithPos = errorWithSourcePos{}
