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

package options_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/options"
)

func option(name string, value ast.Expr) *ast.Option {
	return &ast.Option{Name: ast.OptionName{{Name: name}}, Value: value}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	table := options.Default()
	opt, ok := table.Lookup("optimize_for")
	require.True(t, ok)
	assert.Equal(t, options.KindEnum, opt.Kind)
	assert.Equal(t, []string{"SPEED", "CODE_SIZE", "LITE_RUNTIME"}, opt.Values)
	assert.Equal(t, options.ScopeFile, opt.Scopes)

	opt, ok = table.Lookup("deprecated")
	require.True(t, ok)
	assert.True(t, opt.Scopes.Has(options.ScopeField))
	assert.True(t, opt.Scopes.Has(options.ScopeEnumValue))
	assert.False(t, opt.Scopes.Has(options.ScopeOneof))

	_, ok = table.Lookup("(my.ext)")
	assert.False(t, ok)

	// Callers get their own copy.
	table.Add(options.Option{Name: "(my.ext)", Kind: options.KindInt, Scopes: options.ScopeFile})
	_, ok = options.Default().Lookup("(my.ext)")
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	t.Parallel()

	table := options.Default()
	tests := []struct {
		name  string
		scope options.Scope
		opt   *ast.Option
		err   string
	}{
		{
			name:  "string",
			scope: options.ScopeFile,
			opt:   option("java_package", &ast.StringLiteral{Value: "com.example"}),
		},
		{
			name:  "enum",
			scope: options.ScopeFile,
			opt:   option("optimize_for", &ast.Identifier{Name: "SPEED"}),
		},
		{
			name:  "int for float",
			scope: options.ScopeField,
			opt:   option("default", ast.NewInt(1, ast.SourcePos{})),
		},
		{
			name:  "unknown",
			scope: options.ScopeFile,
			opt:   option("no_such_option", &ast.BoolLiteral{Value: true}),
			err:   `unknown option "no_such_option"`,
		},
		{
			name:  "wrong scope",
			scope: options.ScopeMessage,
			opt:   option("packed", &ast.BoolLiteral{Value: true}),
			err:   `option "packed" is not allowed on a message declaration`,
		},
		{
			name:  "wrong kind",
			scope: options.ScopeFile,
			opt:   option("java_multiple_files", &ast.StringLiteral{Value: "yes"}),
			err:   `option "java_multiple_files" requires a bool value, found string "yes"`,
		},
		{
			name:  "bad enum value",
			scope: options.ScopeFile,
			opt:   option("optimize_for", &ast.Identifier{Name: "FAST"}),
			err:   `option "optimize_for": invalid value FAST, expecting one of SPEED, CODE_SIZE, LITE_RUNTIME`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			known, err := table.Check(test.scope, test.opt)
			if test.err != "" {
				require.EqualError(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.opt.Name.String(), known.Name)
		})
	}
}

func TestLoadAndMerge(t *testing.T) {
	t.Parallel()

	extra, err := options.Load(strings.NewReader(`
options:
  - name: (acme.owner)
    kind: string
    scopes: [message, field]
  - name: java_package
    kind: int
    scopes: [file]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"(acme.owner)", "java_package"}, extra.Names())

	table := options.Default()
	table.Merge(extra)
	opt, ok := table.Lookup("(acme.owner)")
	require.True(t, ok)
	assert.Equal(t, options.ScopeMessage|options.ScopeField, opt.Scopes)
	opt, ok = table.Lookup("java_package")
	require.True(t, ok)
	assert.Equal(t, options.KindInt, opt.Kind)

	ext := &ast.Option{
		Name:  ast.OptionName{{Name: "acme.owner", Extension: true}},
		Value: &ast.StringLiteral{Value: "team"},
	}
	_, err = table.Check(options.ScopeField, ext)
	require.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, input, err string
	}{
		{"bad kind", "options: [{name: a, kind: decimal, scopes: [file]}]", `unknown option kind "decimal"`},
		{"bad scope", "options: [{name: a, kind: int, scopes: [service]}]", `unknown option scope "service"`},
		{"no name", "options: [{kind: int, scopes: [file]}]", "option without a name"},
		{"no kind", "options: [{name: a, scopes: [file]}]", `option "a" has no kind`},
		{"no scopes", "options: [{name: a, kind: int}]", `option "a" has no scopes`},
		{"unknown key", "options: [{name: a, kind: int, scopes: [file], extra: 1}]", "field extra not found"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := options.Load(strings.NewReader(test.input))
			require.ErrorContains(t, err, test.err)
		})
	}

	table, err := options.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, table.Names())
}

func TestScopeYAML(t *testing.T) {
	t.Parallel()

	out, err := yaml.Marshal(options.Option{
		Name:   "x",
		Kind:   options.KindEnum,
		Values: []string{"A"},
		Scopes: options.ScopeEnum | options.ScopeOneof,
	})
	require.NoError(t, err)
	assert.Equal(t, "name: x\nkind: enum\nvalues:\n    - A\nscopes:\n    - enum\n    - oneof\n", string(out))
	assert.Equal(t, "enum|oneof", (options.ScopeEnum | options.ScopeOneof).String())
}
