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

package ast

import (
	"iter"

	"github.com/bufbuild/protoschema/internal/arena"
)

// Syntax is the language level a document declares.
type Syntax byte

const (
	// SyntaxNone means the document has no syntax statement. It behaves as
	// [SyntaxProto2].
	SyntaxNone Syntax = iota
	SyntaxProto2
	SyntaxProto3
)

// Effective returns the syntax rules that apply to a document.
func (s Syntax) Effective() Syntax {
	if s == SyntaxNone {
		return SyntaxProto2
	}
	return s
}

func (s Syntax) String() string {
	switch s {
	case SyntaxProto2:
		return "proto2"
	case SyntaxProto3:
		return "proto3"
	default:
		return ""
	}
}

// Import is an import statement. Doc is set by the linker to the attributed
// document the path resolved to.
type Import struct {
	Path     string
	Public   bool
	Weak     bool
	Position SourcePos
	Doc      *Document
}

// Document is the root of a schema file's tree. It owns the storage for every
// node in the file and must not be copied after [NewDocument] returns.
type Document struct {
	location string

	Syntax    Syntax
	SyntaxPos SourcePos

	Package    string
	PackagePos SourcePos

	imports []*Import

	bodies    arena.Arena[Body]
	fields    arena.Arena[Field]
	constants arena.Arena[EnumConstant]
	options   arena.Arena[Option]
	ranges    arena.Arena[RangeDecl]

	root arena.Pointer[Body]
}

// NewDocument returns an empty document for the file at location.
func NewDocument(location string) *Document {
	d := &Document{location: location}
	d.root = d.bodies.New(Body{
		Kind:     KindDocument,
		Position: SourcePos{Filename: location, Line: 1, Col: 1},
		doc:      d,
	})
	d.Root().self = d.root
	return d
}

// Location is the path the document was loaded from. It names the file in
// diagnostics and keys the import cache.
func (d *Document) Location() string {
	return d.location
}

// Root is the document-level body holding top-level declarations and file
// options.
func (d *Document) Root() *Body {
	return d.bodies.Deref(d.root)
}

// Options is the file-level option map.
func (d *Document) Options() *OptionMap {
	return &d.Root().Options
}

// QualifiedName is the identity of the document: its package name.
func (d *Document) QualifiedName() string {
	return d.Package
}

// Same reports whether two documents have the same identity, wherever they
// were loaded from.
func (d *Document) Same(other *Document) bool {
	return other != nil && d.QualifiedName() == other.QualifiedName()
}

// AddImport records an import. Imports form an ordered set keyed by path;
// if the path was already imported, the existing import is returned along
// with false.
func (d *Document) AddImport(imp Import) (*Import, bool) {
	for _, existing := range d.imports {
		if existing.Path == imp.Path {
			return existing, false
		}
	}
	ptr := &imp
	d.imports = append(d.imports, ptr)
	return ptr, true
}

// Imports returns the imports in declaration order.
func (d *Document) Imports() []*Import {
	return d.imports
}

// Bodies returns every body in the document in creation order, starting with
// the root.
func (d *Document) Bodies() iter.Seq[*Body] {
	return func(yield func(*Body) bool) {
		for _, b := range d.bodies.All() {
			if !yield(b) {
				return
			}
		}
	}
}

// Attributed reports whether the linker has finished with the document:
// every import is bound and every body is attributed.
func (d *Document) Attributed() bool {
	for _, imp := range d.imports {
		if imp.Doc == nil {
			return false
		}
	}
	return d.Root().Attributed()
}
