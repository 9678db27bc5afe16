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

// BodyKind is the kind of declaration a [Body] belongs to.
type BodyKind byte

const (
	KindDocument BodyKind = iota
	KindMessage
	KindEnum
	KindOneof
	KindGroup
)

func (k BodyKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindMessage:
		return "message"
	case KindEnum:
		return "enum"
	case KindOneof:
		return "oneof"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// IsMessageLike reports whether bodies of this kind declare fields in their
// own index space: messages and groups.
func (k BodyKind) IsMessageLike() bool {
	return k == KindMessage || k == KindGroup
}

// StmtKind is the kind of node a [Stmt] refers to.
type StmtKind byte

const (
	StmtInvalid StmtKind = iota
	StmtField
	StmtConstant
	StmtBody
	StmtOption
	StmtRanges
)

// Stmt is one entry in a body's statement list. It is a tagged index into
// the owning document's storage; use the accessors on [Body] to reach the
// node.
type Stmt struct {
	kind StmtKind
	id   arena.Untyped
}

// Kind returns the kind of node this statement refers to.
func (s Stmt) Kind() StmtKind {
	return s.kind
}

// Body is the shared shape of every declaration that contains statements:
// the document itself, messages, enums, oneofs and groups.
type Body struct {
	Kind     BodyKind
	Name     string
	Position SourcePos
	// Options holds the options declared directly in this body.
	Options OptionMap

	doc          *Document
	self, parent arena.Pointer[Body]
	stmts        []Stmt
	names        map[string]Stmt

	qualifiedName, fullName string
	bound                   bool
}

// Document returns the document that owns this body.
func (b *Body) Document() *Document {
	return b.doc
}

// Parent returns the enclosing body, or nil for the document root.
func (b *Body) Parent() *Body {
	if b.parent.Nil() {
		return nil
	}
	return b.doc.bodies.Deref(b.parent)
}

// IsRoot reports whether this is the document-level body.
func (b *Body) IsRoot() bool {
	return b.Kind == KindDocument
}

// Stmts returns the statements in source order.
func (b *Body) Stmts() []Stmt {
	return b.stmts
}

// Lookup finds the first statement that declares name directly in this body.
func (b *Body) Lookup(name string) (Stmt, bool) {
	s, ok := b.names[name]
	return s, ok
}

// QualifiedName returns the name computed by the linker, joining package
// components with '.' and nested declarations with '$'. It is empty until
// the body is bound.
func (b *Body) QualifiedName() string {
	return b.qualifiedName
}

// FullName returns the dot-separated name of the declaration as it is
// written in type references, without a leading dot.
func (b *Body) FullName() string {
	return b.fullName
}

// Bind records the names the linker computed for this body.
func (b *Body) Bind(qualified, full string) {
	b.qualifiedName, b.fullName, b.bound = qualified, full, true
}

// Bound reports whether [Body.Bind] has been called.
func (b *Body) Bound() bool {
	return b.bound
}

// Attributed reports whether this body has its name and every child is
// attributed.
func (b *Body) Attributed() bool {
	if !b.IsRoot() && (b.Name == "" || !b.bound) {
		return false
	}
	for _, s := range b.stmts {
		switch s.kind {
		case StmtField:
			if !b.Field(s).Attributed() {
				return false
			}
		case StmtConstant:
			if !b.Constant(s).Attributed() {
				return false
			}
		case StmtBody:
			if !b.Nested(s).Attributed() {
				return false
			}
		}
	}
	return true
}

// Field returns the field a statement refers to, or nil if it refers to
// something else.
func (b *Body) Field(s Stmt) *Field {
	if s.kind != StmtField {
		return nil
	}
	return b.doc.fields.At(s.id)
}

// Constant returns the enum constant a statement refers to, or nil.
func (b *Body) Constant(s Stmt) *EnumConstant {
	if s.kind != StmtConstant {
		return nil
	}
	return b.doc.constants.At(s.id)
}

// Nested returns the body a statement refers to, or nil.
func (b *Body) Nested(s Stmt) *Body {
	if s.kind != StmtBody {
		return nil
	}
	return b.doc.bodies.At(s.id)
}

// Option returns the option a statement refers to, or nil.
func (b *Body) Option(s Stmt) *Option {
	if s.kind != StmtOption {
		return nil
	}
	return b.doc.options.At(s.id)
}

// Ranges returns the reserved or extensions declaration a statement refers
// to, or nil.
func (b *Body) Ranges(s Stmt) *RangeDecl {
	if s.kind != StmtRanges {
		return nil
	}
	return b.doc.ranges.At(s.id)
}

// Fields iterates the fields declared directly in this body.
func (b *Body) Fields() iter.Seq[*Field] {
	return stmtsOf(b, b.Field)
}

// Constants iterates the enum constants declared in this body.
func (b *Body) Constants() iter.Seq[*EnumConstant] {
	return stmtsOf(b, b.Constant)
}

// Children iterates the bodies declared directly in this body.
func (b *Body) Children() iter.Seq[*Body] {
	return stmtsOf(b, b.Nested)
}

// OptionStmts iterates the option statements of this body in source order,
// including options that a later statement overrides.
func (b *Body) OptionStmts() iter.Seq[*Option] {
	return stmtsOf(b, b.Option)
}

// RangeDecls iterates the reserved and extensions declarations.
func (b *Body) RangeDecls() iter.Seq[*RangeDecl] {
	return stmtsOf(b, b.Ranges)
}

func stmtsOf[T any](b *Body, get func(Stmt) *T) iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, s := range b.stmts {
			if v := get(s); v != nil && !yield(v) {
				return
			}
		}
	}
}

// AddBody declares a nested body.
func (b *Body) AddBody(kind BodyKind, name string, pos SourcePos) *Body {
	ptr := b.doc.bodies.New(Body{
		Kind:     kind,
		Name:     name,
		Position: pos,
		doc:      b.doc,
		parent:   b.self,
	})
	child := b.doc.bodies.Deref(ptr)
	child.self = ptr
	b.add(Stmt{StmtBody, ptr.Untyped()}, name)
	return child
}

// AddField declares a field.
func (b *Body) AddField(f Field) *Field {
	ptr := b.doc.fields.New(f)
	b.add(Stmt{StmtField, ptr.Untyped()}, f.Name)
	return b.doc.fields.Deref(ptr)
}

// AddConstant declares an enum constant.
func (b *Body) AddConstant(c EnumConstant) *EnumConstant {
	ptr := b.doc.constants.New(c)
	b.add(Stmt{StmtConstant, ptr.Untyped()}, c.Name)
	return b.doc.constants.Deref(ptr)
}

// AddOption records an option statement and makes it the current value for
// its name in [Body.Options].
func (b *Body) AddOption(o Option) *Option {
	ptr := b.doc.options.New(o)
	b.add(Stmt{StmtOption, ptr.Untyped()}, "")
	opt := b.doc.options.Deref(ptr)
	b.Options.Set(opt)
	return opt
}

// AddRanges records a reserved or extensions declaration.
func (b *Body) AddRanges(r RangeDecl) *RangeDecl {
	ptr := b.doc.ranges.New(r)
	b.add(Stmt{StmtRanges, ptr.Untyped()}, "")
	return b.doc.ranges.Deref(ptr)
}

func (b *Body) add(s Stmt, name string) {
	b.stmts = append(b.stmts, s)
	if name == "" {
		return
	}
	if b.names == nil {
		b.names = make(map[string]Stmt)
	}
	if _, exists := b.names[name]; !exists {
		b.names[name] = s
	}
}
