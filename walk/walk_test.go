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

package walk_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/parser"
	"github.com/bufbuild/protoschema/walk"
)

const source = `
syntax = "proto2";
message A {
	optional int32 a1 = 1;
	oneof choice {
		int32 c1 = 2;
		group G = 3 { optional int32 g1 = 1; }
	}
	message B { enum E { X = 0; } }
	optional int32 a2 = 4;
}
enum F { Y = 0; }
`

func parse(t *testing.T) *ast.Document {
	t.Helper()
	doc, err := parser.Parse("walk.proto", strings.NewReader(source), nil, parser.Options{})
	require.NoError(t, err)
	return doc
}

func TestBodies(t *testing.T) {
	t.Parallel()

	doc := parse(t)
	var events []string
	err := walk.BodiesEnterAndExit(doc, func(b *ast.Body) error {
		events = append(events, "enter "+b.Name)
		return nil
	}, func(b *ast.Body) error {
		events = append(events, "exit "+b.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"enter A",
		"enter choice", "enter G", "exit G", "exit choice",
		"enter B", "enter E", "exit E", "exit B",
		"exit A",
		"enter F", "exit F",
	}, events)

	var names []string
	err = walk.Bodies(doc, func(b *ast.Body) error {
		names = append(names, b.Name)
		if b.Name == "A" {
			return walk.SkipChildren
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "F"}, names)

	stop := errors.New("stop")
	names = nil
	err = walk.Bodies(doc, func(b *ast.Body) error {
		names = append(names, b.Name)
		if b.Name == "G" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"A", "choice", "G"}, names)
}

func TestFields(t *testing.T) {
	t.Parallel()

	doc := parse(t)
	var a *ast.Body
	for b := range doc.Root().Children() {
		if b.Name == "A" {
			a = b
		}
	}
	require.NotNil(t, a)

	var names, oneofs []string
	err := walk.Fields(a, func(f *ast.Field, oneof *ast.Body) error {
		names = append(names, f.Name)
		if oneof != nil {
			oneofs = append(oneofs, oneof.Name)
		} else {
			oneofs = append(oneofs, "")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "c1", "g", "a2"}, names)
	assert.Equal(t, []string{"", "choice", "choice", ""}, oneofs)
}

func TestScope(t *testing.T) {
	t.Parallel()

	doc := parse(t)
	for b := range doc.Bodies() {
		switch b.Name {
		case "G":
			assert.Equal(t, "A", walk.Scope(b.Parent()).Name)
		case "choice":
			assert.Equal(t, "A", walk.Scope(b).Name)
		case "A":
			assert.Same(t, b, walk.Scope(b))
		}
	}
}
