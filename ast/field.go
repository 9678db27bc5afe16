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

import "github.com/bufbuild/protoschema/internal/arena"

// Modifier is the label written before a field's type.
type Modifier byte

const (
	ModifierNone Modifier = iota
	ModifierRequired
	ModifierOptional
	ModifierRepeated
)

// LookupModifier returns the modifier spelled by word, or [ModifierNone].
func LookupModifier(word string) Modifier {
	switch word {
	case "required":
		return ModifierRequired
	case "optional":
		return ModifierOptional
	case "repeated":
		return ModifierRepeated
	default:
		return ModifierNone
	}
}

func (m Modifier) String() string {
	switch m {
	case ModifierRequired:
		return "required"
	case ModifierOptional:
		return "optional"
	case ModifierRepeated:
		return "repeated"
	default:
		return ""
	}
}

// IsPresence reports whether m is required or optional.
func (m Modifier) IsPresence() bool {
	return m == ModifierRequired || m == ModifierOptional
}

// Field is a field declaration in a message, oneof or group.
type Field struct {
	Name     string
	Modifier Modifier
	Type     TypeRef
	// Index is the number as written. Number holds its value once the
	// linker has checked it.
	Index  *IntLiteral
	Number int32
	// Options are the bracketed options following the index.
	Options OptionMap
	// Packed is set by the linker from the packed option.
	Packed bool

	Position SourcePos
	TypePos  SourcePos

	group arena.Pointer[Body]
}

// SetGroup links a group field to the body holding its declarations.
func (f *Field) SetGroup(body *Body) {
	f.group = body.self
}

// Group returns the group body of a group field, looking it up in doc, or
// nil if f is not a group field.
func (f *Field) Group(doc *Document) *Body {
	if f.group.Nil() {
		return nil
	}
	return doc.bodies.Deref(f.group)
}

// IsGroup reports whether f was declared with the group syntax.
func (f *Field) IsGroup() bool {
	return !f.group.Nil()
}

// IsMap reports whether the field has a map type.
func (f *Field) IsMap() bool {
	_, ok := f.Type.(MapRef)
	return ok
}

// Attributed reports whether the field has a name, an index, and a resolved
// type.
func (f *Field) Attributed() bool {
	return f.Name != "" && f.Index != nil && f.Type != nil && f.Type.Attributed()
}

// EnumConstant is a value declared in an enum.
type EnumConstant struct {
	Name     string
	Value    *IntLiteral
	Number   int32
	Options  OptionMap
	Position SourcePos
}

// Attributed reports whether the constant has a name and a value.
func (c *EnumConstant) Attributed() bool {
	return c.Name != "" && c.Value != nil
}

// ReservedName is a name in a reserved statement.
type ReservedName struct {
	Name     string
	Position SourcePos
}

// RangeDecl is a reserved or extensions statement.
type RangeDecl struct {
	// Extensions distinguishes "extensions" statements from "reserved".
	Extensions bool
	Ranges     []*Range
	// Names is only populated for reserved statements.
	Names    []ReservedName
	Options  OptionMap
	Position SourcePos
}

// OptionMap maps option names to the last option declared with that name.
// Names are kept in the order they were first seen.
type OptionMap struct {
	order  []string
	byName map[string]*Option
}

// Set makes opt the current option for its name.
func (m *OptionMap) Set(opt *Option) {
	key := opt.Name.String()
	if m.byName == nil {
		m.byName = make(map[string]*Option)
	}
	if _, exists := m.byName[key]; !exists {
		m.order = append(m.order, key)
	}
	m.byName[key] = opt
}

// Get returns the current option named name, written as in
// [OptionName.String].
func (m *OptionMap) Get(name string) (*Option, bool) {
	opt, ok := m.byName[name]
	return opt, ok
}

// Len returns the number of distinct option names.
func (m *OptionMap) Len() int {
	return len(m.order)
}

// All returns the current options in first-seen order.
func (m *OptionMap) All() []*Option {
	opts := make([]*Option, len(m.order))
	for i, name := range m.order {
		opts[i] = m.byName[name]
	}
	return opts
}
