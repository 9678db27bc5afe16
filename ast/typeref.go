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

// TypeRef is the type of a field. The set of implementations is closed:
// [Primitive], [MessageRef], [EnumRef], [GroupRef], [MapRef] and
// [Unresolved].
type TypeRef interface {
	// Attributed reports whether the reference is fully resolved.
	Attributed() bool
	// String renders the type the way it is written in a field declaration,
	// using the full name for declarations.
	String() string

	isTypeRef()
}

// ObjectRef is a [TypeRef] that points at a declaration: a message, enum or
// group.
type ObjectRef interface {
	TypeRef
	Decl() *Body
}

// Primitive is one of the built-in scalar types.
type Primitive struct {
	Scalar ScalarKind
}

// MessageRef refers to a message declaration.
type MessageRef struct {
	Target *Body
}

// EnumRef refers to an enum declaration.
type EnumRef struct {
	Target *Body
}

// GroupRef refers to the body of a group field.
type GroupRef struct {
	Target *Body
}

// MapRef is map<Key, Value>.
type MapRef struct {
	Key, Value TypeRef
}

// Unresolved is a type name that has not been bound to a declaration. Name
// is the dotted name as written, including any leading dot.
type Unresolved struct {
	Name string
}

func (Primitive) Attributed() bool  { return true }
func (MessageRef) Attributed() bool { return true }
func (EnumRef) Attributed() bool    { return true }
func (GroupRef) Attributed() bool   { return true }
func (Unresolved) Attributed() bool { return false }

func (m MapRef) Attributed() bool {
	return m.Key != nil && m.Value != nil && m.Key.Attributed() && m.Value.Attributed()
}

func (p Primitive) String() string   { return p.Scalar.String() }
func (r MessageRef) String() string  { return "." + r.Target.FullName() }
func (r EnumRef) String() string     { return "." + r.Target.FullName() }
func (r GroupRef) String() string    { return r.Target.Name }
func (u Unresolved) String() string  { return u.Name }
func (m MapRef) String() string      { return "map<" + m.Key.String() + ", " + m.Value.String() + ">" }
func (r MessageRef) Decl() *Body     { return r.Target }
func (r EnumRef) Decl() *Body        { return r.Target }
func (r GroupRef) Decl() *Body       { return r.Target }
func (Primitive) isTypeRef()         {}
func (MessageRef) isTypeRef()        {}
func (EnumRef) isTypeRef()           {}
func (GroupRef) isTypeRef()          {}
func (MapRef) isTypeRef()            {}
func (Unresolved) isTypeRef()        {}

var _ ObjectRef = MessageRef{}
var _ ObjectRef = EnumRef{}
var _ ObjectRef = GroupRef{}
