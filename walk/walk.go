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

// Package walk provides helper functions for traversing the declarations of
// a schema tree.
package walk

import (
	"errors"

	"github.com/bufbuild/protoschema/ast"
)

// SkipChildren may be returned by an enter function to skip the children of
// the body it was called with. The exit function is still called.
var SkipChildren = errors.New("skip children")

// Bodies calls fn for every declaration body in doc, depth-first and in
// declaration order. The document root itself is not visited.
func Bodies(doc *ast.Document, fn func(*ast.Body) error) error {
	return BodiesEnterAndExit(doc, fn, nil)
}

// BodiesEnterAndExit is like [Bodies] but also calls exit, if non-nil, after
// a body's children have been visited.
func BodiesEnterAndExit(doc *ast.Document, enter, exit func(*ast.Body) error) error {
	for child := range doc.Root().Children() {
		if err := body(child, enter, exit); err != nil {
			return err
		}
	}
	return nil
}

func body(b *ast.Body, enter, exit func(*ast.Body) error) error {
	err := enter(b)
	switch {
	case errors.Is(err, SkipChildren):
	case err != nil:
		return err
	default:
		for child := range b.Children() {
			if err := body(child, enter, exit); err != nil {
				return err
			}
		}
	}
	if exit != nil {
		return exit(b)
	}
	return nil
}

// Fields calls fn for every field of a message or group, including the
// members of its oneofs, in declaration order. The second argument is the
// oneof the field belongs to, or nil. Fields of nested messages and groups
// are not visited.
func Fields(msg *ast.Body, fn func(*ast.Field, *ast.Body) error) error {
	for _, s := range msg.Stmts() {
		if f := msg.Field(s); f != nil {
			if err := fn(f, nil); err != nil {
				return err
			}
			continue
		}
		oneof := msg.Nested(s)
		if oneof == nil || oneof.Kind != ast.KindOneof {
			continue
		}
		for f := range oneof.Fields() {
			if err := fn(f, oneof); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scope returns the body that names declared in b are scoped to: b itself,
// unless b is a oneof, whose declarations belong to the enclosing message.
func Scope(b *ast.Body) *ast.Body {
	for b != nil && b.Kind == ast.KindOneof {
		b = b.Parent()
	}
	return b
}
