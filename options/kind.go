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

package options

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bufbuild/protoschema/ast"
)

// Kind is the kind of value an option takes.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	// KindEnum values are identifiers naming one of an option's allowed
	// values.
	KindEnum
	KindMessage
	// KindTypeDependent options take a value whose kind depends on the
	// declaration they appear on, such as a field's default value.
	KindTypeDependent
)

var kindNames = map[Kind]string{
	KindBool:          "bool",
	KindInt:           "int",
	KindFloat:         "float",
	KindString:        "string",
	KindEnum:          "enum",
	KindMessage:       "message",
	KindTypeDependent: "type-dependent",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Accepts reports whether an expression of the given kind is a valid value
// for an option of kind k. Integers are accepted where floats are.
func (k Kind) Accepts(e ast.ExprKind) bool {
	switch k {
	case KindBool:
		return e == ast.ExprBool
	case KindInt:
		return e == ast.ExprInt
	case KindFloat:
		return e == ast.ExprFloat || e == ast.ExprInt
	case KindString:
		return e == ast.ExprString
	case KindEnum:
		return e == ast.ExprIdent
	case KindMessage:
		return e == ast.ExprMessage
	case KindTypeDependent:
		return true
	default:
		return false
	}
}

func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	for kind, kindName := range kindNames {
		if kindName == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown option kind %q", value.Line, name)
}

// Scope is a set of declaration kinds an option may appear on.
type Scope uint16

const (
	ScopeFile Scope = 1 << iota
	ScopeMessage
	ScopeField
	ScopeEnum
	ScopeEnumValue
	ScopeOneof
	ScopeExtensionRange
)

var scopeNames = []struct {
	scope Scope
	name  string
}{
	{ScopeFile, "file"},
	{ScopeMessage, "message"},
	{ScopeField, "field"},
	{ScopeEnum, "enum"},
	{ScopeEnumValue, "enum_value"},
	{ScopeOneof, "oneof"},
	{ScopeExtensionRange, "extension_range"},
}

// Has reports whether s includes every scope in other.
func (s Scope) Has(other Scope) bool {
	return s&other == other && other != 0
}

func (s Scope) names() []string {
	var names []string
	for _, sn := range scopeNames {
		if s&sn.scope != 0 {
			names = append(names, sn.name)
		}
	}
	return names
}

func (s Scope) String() string {
	return strings.Join(s.names(), "|")
}

func (s Scope) MarshalYAML() (any, error) {
	return s.names(), nil
}

func (s *Scope) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	*s = 0
outer:
	for _, name := range names {
		for _, sn := range scopeNames {
			if sn.name == name {
				*s |= sn.scope
				continue outer
			}
		}
		return fmt.Errorf("line %d: unknown option scope %q", value.Line, name)
	}
	return nil
}
