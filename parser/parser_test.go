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

package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/reporter"
)

func parseString(t *testing.T, source string, opts Options) (*ast.Document, error) {
	t.Helper()
	return Parse("test.proto", strings.NewReader(source), nil, opts)
}

func TestParseSimpleMessage(t *testing.T) {
	t.Parallel()

	doc, err := parseString(t, `message Foo { required int32 x = 1; }`, Options{})
	require.NoError(t, err)
	assert.Equal(t, ast.SyntaxNone, doc.Syntax)

	var msgs []*ast.Body
	for b := range doc.Root().Children() {
		msgs = append(msgs, b)
	}
	require.Len(t, msgs, 1)
	assert.Equal(t, "Foo", msgs[0].Name)
	assert.Equal(t, ast.KindMessage, msgs[0].Kind)

	var fields []*ast.Field
	for f := range msgs[0].Fields() {
		fields = append(fields, f)
	}
	require.Len(t, fields, 1)
	assert.Equal(t, "x", fields[0].Name)
	assert.Equal(t, ast.ModifierRequired, fields[0].Modifier)
	assert.Equal(t, ast.Primitive{Scalar: ast.ScalarInt32}, fields[0].Type)
	assert.Equal(t, "1", fields[0].Index.String())
	assert.Equal(t, ast.SourcePos{Filename: "test.proto", Line: 1, Col: 15}, fields[0].Position)
}

func TestParseNoSyntaxWarning(t *testing.T) {
	t.Parallel()

	var warnings []reporter.ErrorWithPos
	h := reporter.NewHandler(reporter.NewReporter(nil, func(err reporter.ErrorWithPos) {
		warnings = append(warnings, err)
	}))
	_, err := Parse("test.proto", strings.NewReader(`message Foo {}`), h, Options{})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], ErrNoSyntax)

	warnings = nil
	_, err = Parse("test.proto", strings.NewReader(`syntax = "proto3"; import "a.proto"; import "a.proto";`), h, Options{})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], ErrDuplicateImport)
}

func TestParseFullFile(t *testing.T) {
	t.Parallel()

	doc, err := parseString(t, `
		syntax = "proto2";
		package foo.bar;
		import "a.proto";
		import public "b.proto";
		import weak "c.proto";
		option java_package = "com." "foo";
		option (my.ext).field = { a: 1, b { c: "x" } d: x.y; [z.w]: -inf };

		message Outer {
			option deprecated = true;
			optional .foo.bar.Outer.Inner inner = 1 [deprecated = false, (x) = 0x10];
			repeated int32 nums = 2 [packed = true];
			map<string, Inner> by_name = 3;
			optional group Result = 4 {
				required string url = 5;
			}
			oneof choice {
				string s = 6;
				Inner i = 7;
			}
			reserved 8, 10 to 12, 20 to max;
			reserved "old", other;
			extensions 100 to 199 [verification = UNVERIFIED];
			message Inner {}
			enum Kind {
				option allow_alias = true;
				UNKNOWN = 0;
				NEG = -1 [deprecated = true];
				reserved 5 to 6;
				reserved "GONE";
			}
			;
		}
	`, Options{})
	require.NoError(t, err)

	assert.Equal(t, ast.SyntaxProto2, doc.Syntax)
	assert.Equal(t, "foo.bar", doc.Package)
	imports := doc.Imports()
	require.Len(t, imports, 3)
	assert.Equal(t, "a.proto", imports[0].Path)
	assert.True(t, imports[1].Public)
	assert.True(t, imports[2].Weak)

	opt, ok := doc.Options().Get("java_package")
	require.True(t, ok)
	assert.Equal(t, "com.foo", opt.Value.(*ast.StringLiteral).Value)
	opt, ok = doc.Options().Get("(my.ext).field")
	require.True(t, ok)
	assert.Equal(t, `{ a: 1, b { c: "x" }, d: x.y, [z.w]: -inf }`, opt.Value.String())

	s, ok := doc.Root().Lookup("Outer")
	require.True(t, ok)
	outer := doc.Root().Nested(s)
	require.NotNil(t, outer)

	fields := map[string]*ast.Field{}
	for f := range outer.Fields() {
		fields[f.Name] = f
	}
	assert.Equal(t, ast.Unresolved{Name: ".foo.bar.Outer.Inner"}, fields["inner"].Type)
	assert.Equal(t, 2, fields["inner"].Options.Len())
	assert.Equal(t, ast.ModifierRepeated, fields["nums"].Modifier)
	assert.Equal(t, ast.MapRef{
		Key:   ast.Primitive{Scalar: ast.ScalarString},
		Value: ast.Unresolved{Name: "Inner"},
	}, fields["by_name"].Type)

	group := fields["result"]
	require.NotNil(t, group)
	require.True(t, group.IsGroup())
	groupBody := group.Group(doc)
	assert.Equal(t, "Result", groupBody.Name)
	assert.Equal(t, ast.KindGroup, groupBody.Kind)
	s, ok = groupBody.Lookup("url")
	require.True(t, ok)
	assert.Equal(t, ast.StmtField, s.Kind())

	s, ok = outer.Lookup("choice")
	require.True(t, ok)
	oneof := outer.Nested(s)
	assert.Equal(t, ast.KindOneof, oneof.Kind)
	var oneofFields []string
	for f := range oneof.Fields() {
		oneofFields = append(oneofFields, f.Name)
		assert.Equal(t, ast.ModifierNone, f.Modifier)
	}
	assert.Equal(t, []string{"s", "i"}, oneofFields)

	var decls []*ast.RangeDecl
	for r := range outer.RangeDecls() {
		decls = append(decls, r)
	}
	require.Len(t, decls, 3)
	require.Len(t, decls[0].Ranges, 3)
	assert.True(t, decls[0].Ranges[0].Single)
	assert.Equal(t, "10 to 12", decls[0].Ranges[1].String())
	assert.True(t, decls[0].Ranges[2].ToMax)
	assert.Equal(t, []string{"old", "other"}, []string{decls[1].Names[0].Name, decls[1].Names[1].Name})
	assert.True(t, decls[2].Extensions)
	assert.Equal(t, 1, decls[2].Options.Len())

	s, ok = outer.Lookup("Kind")
	require.True(t, ok)
	enum := outer.Nested(s)
	var values []string
	for c := range enum.Constants() {
		values = append(values, c.Name+"="+c.Value.String())
	}
	assert.Equal(t, []string{"UNKNOWN=0", "NEG=-1"}, values)
}

func TestParseKeywordsAsNames(t *testing.T) {
	t.Parallel()

	doc, err := parseString(t, `
		syntax = "proto3";
		message message {
			message message = 1;
			repeated optional x = 2;
			map map = 3;
		}
		enum E { option = 0; reserved = 1; }
	`, Options{})
	require.NoError(t, err)
	s, _ := doc.Root().Lookup("message")
	msg := doc.Root().Nested(s)
	var types []string
	for f := range msg.Fields() {
		types = append(types, f.Type.String())
	}
	assert.Equal(t, []string{"message", "optional", "map"}, types)
}

func TestParseSkipStatements(t *testing.T) {
	t.Parallel()

	source := `
		syntax = "proto2";
		service Foo {
			rpc Bar(A) returns (B) { option x = { a: 1 }; }
		}
		extend Foo { optional int32 x = 100; }
		message A { extend B { optional int32 y = 1; } }
	`
	_, err := parseString(t, source, Options{})
	require.Error(t, err)
	assert.Equal(t, `test.proto:3:3: syntax error: unexpected identifier "service"`, err.Error())

	doc, err := parseString(t, source, Options{SkipStatements: []string{"service", "extend"}})
	require.NoError(t, err)
	var names []string
	for b := range doc.Root().Children() {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"A"}, names)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		input    string
		errMsg   string
		category reporter.Category
	}{
		"syntax-not-first": {
			input:  `package foo; syntax = "proto2";`,
			errMsg: `test.proto:1:14: syntax error: syntax statement must be the first statement in the file`,
		},
		"bad-syntax": {
			input:  `syntax = "proto4";`,
			errMsg: `test.proto:1:10: syntax error: syntax value must be "proto2" or "proto3"`,
		},
		"two-packages": {
			input:  "package a;\npackage b;",
			errMsg: `test.proto:2:1: syntax error: multiple package declarations`,
		},
		"missing-modifier": {
			input:  `syntax = "proto2"; message Foo { int32 x = 1; }`,
			errMsg: `test.proto:1:34: syntax error: field "x" must have a modifier (required, optional or repeated) in proto2`,
		},
		"missing-modifier-default-syntax": {
			input:  `message Foo { int32 x = 1; }`,
			errMsg: `test.proto:1:15: syntax error: field "x" must have a modifier (required, optional or repeated) in proto2`,
		},
		"required-in-proto3": {
			input:  `syntax = "proto3"; message Foo { required int32 x = 1; }`,
			errMsg: `test.proto:1:34: syntax error: field "x": "required" modifier is not allowed in proto3`,
		},
		"optional-in-proto3": {
			input:  `syntax = "proto3"; message Foo { optional int32 x = 1; }`,
			errMsg: `test.proto:1:34: syntax error: field "x": "optional" modifier is not allowed in proto3`,
		},
		"map-with-modifier": {
			input:  `syntax = "proto3"; message Foo { repeated map<string, string> x = 1; }`,
			errMsg: `test.proto:1:34: syntax error: map fields cannot have a "repeated" modifier`,
		},
		"group-in-proto3": {
			input:  `syntax = "proto3"; message Foo { group Bar = 1 {} }`,
			errMsg: `test.proto:1:34: syntax error: groups are not allowed in proto3`,
		},
		"range-in-option": {
			input:  `option foo = 1 to 5;`,
			errMsg: `test.proto:1:16: syntax error: ranges are only allowed in reserved and extensions statements`,
		},
		"mixed-reserved": {
			input:  `message Foo { reserved 1, "foo"; }`,
			errMsg: `test.proto:1:27: syntax error: reserved statement cannot mix names and ranges`,
		},
		"missing-semicolon": {
			input:  "syntax = \"proto2\";\nmessage Foo {\n  optional int32 x = 1\n}",
			errMsg: `test.proto:4:1: syntax error: unexpected '}', expecting ';'`,
		},
		"unclosed-message": {
			input:  `message Foo {`,
			errMsg: `test.proto:1:14: syntax error: unexpected end of file, expecting '}'`,
		},
		"bad-index": {
			input:  `message Foo { optional int32 x = y; }`,
			errMsg: `test.proto:1:34: syntax error: unexpected identifier "y", expecting int literal`,
		},
		"float-index": {
			input:  `message Foo { optional int32 x = 1.5; }`,
			errMsg: `test.proto:1:34: syntax error: unexpected float literal 1.5, expecting int literal`,
		},
		"lexical": {
			input:    `message Foo { optional int32 x = 1e; }`,
			errMsg:   `test.proto:1:34: missing exponent digits in float value: 1e`,
			category: reporter.Lexical,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := parseString(t, tc.input, Options{})
			require.Error(t, err)
			assert.Equal(t, tc.errMsg, err.Error())
			want := tc.category
			if want == 0 {
				want = reporter.Syntax
			}
			assert.Equal(t, want, reporter.CategoryOf(err))
		})
	}
}

func TestParseReporterContinues(t *testing.T) {
	t.Parallel()

	var reported []error
	h := reporter.NewHandler(reporter.NewReporter(func(err reporter.ErrorWithPos) error {
		reported = append(reported, err)
		return nil
	}, nil))
	doc, err := Parse("test.proto", strings.NewReader(`message {`), h, Options{})
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, reporter.ErrInvalidSource))
	assert.Len(t, reported, 1)
}
