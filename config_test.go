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

package protoschema

import (
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoschema/options"
	"github.com/bufbuild/protoschema/reporter"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(strings.NewReader(`
import_paths: [proto, vendor]
max_parallelism: 3
standard_imports: true
skip_statements: [service]
files: ["proto/**/*.proto"]
options:
  - name: (acme.owner)
    kind: string
    scopes: [message, field]
`))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		ImportPaths:     []string{"proto", "vendor"},
		MaxParallelism:  3,
		StandardImports: true,
		SkipStatements:  []string{"service"},
		Files:           []string{"proto/**/*.proto"},
		Options: []options.Option{{
			Name:   "(acme.owner)",
			Kind:   options.KindString,
			Scopes: options.ScopeMessage | options.ScopeField,
		}},
	}, cfg)

	c, err := cfg.NewCompiler(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c.MaxParallelism)
	assert.Equal(t, []string{"service"}, c.ParserOptions.SkipStatements)
	assert.NotNil(t, c.Cache)
	owner, ok := c.Options.Lookup("(acme.owner)")
	require.True(t, ok)
	assert.Equal(t, options.KindString, owner.Kind)
	_, ok = c.Options.Lookup("java_package")
	assert.True(t, ok)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name, yaml, err string
	}{
		{"unknown key", "import_path: [x]", "field import_path not found"},
		{"negative parallelism", "max_parallelism: -1", "max_parallelism must not be negative, got -1"},
		{"bad pattern", `files: ["[a"]`, `invalid file pattern "[a"`},
		{"option without kind", "options: [{name: x, scopes: [file]}]", `option "x" has no kind`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(strings.NewReader(tc.yaml))
			assert.ErrorContains(t, err, tc.err)
		})
	}

	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestConfigCompile(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"proto/acme/user.proto": {Data: []byte(`syntax = "proto3";
			package acme;
			import "acme/id.proto";
			import "google/protobuf/timestamp.proto";
			service Users { rpc Get(Id) returns (User); }
			message User {
				option (acme.owner) = "identity";
				Id id = 1;
				google.protobuf.Timestamp created = 2;
			}`)},
		"proto/acme/id.proto": {Data: []byte(`syntax = "proto3"; package acme; message Id { string value = 1; }`)},
		"proto/README.md":     {Data: []byte("not a schema")},
	}
	cfg := &Config{
		ImportPaths:     []string{"proto"},
		StandardImports: true,
		SkipStatements:  []string{"service"},
		Files:           []string{"proto/**/*.proto", "proto/acme/*.proto"},
		Options: []options.Option{{
			Name:   "(acme.owner)",
			Kind:   options.KindString,
			Scopes: options.ScopeMessage,
		}},
	}

	files, err := cfg.MatchFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"proto/acme/id.proto", "proto/acme/user.proto"}, files)

	c, err := cfg.NewCompiler(nil)
	require.NoError(t, err)
	c.Resolver = WithStandardImports(&SourceResolver{
		ImportPaths: cfg.ImportPaths,
		Accessor: func(path string) (io.ReadCloser, error) {
			return fsys.Open(path)
		},
	})
	docs, err := c.Compile(t.Context(), "acme/user.proto", "acme/id.proto")
	require.NoError(t, err)
	assert.Same(t, docs[1], docs[0].Imports()[0].Doc)
	assert.Equal(t, "acme.User", message(t, docs[0], "acme.User").FullName())
}

func TestConfigRekindedPacked(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(strings.NewReader("options:\n  - {name: packed, kind: int, scopes: [field]}\n"))
	require.NoError(t, err)
	c, err := cfg.NewCompiler(nil)
	require.NoError(t, err)
	c.Resolver = &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{
		"packed.proto": "syntax = \"proto2\";\nmessage M { repeated int32 a = 1 [packed = 1]; }\n",
	})}

	_, err = c.Compile(t.Context(), "packed.proto")
	require.Error(t, err)
	assert.Equal(t, reporter.Type, reporter.CategoryOf(err))
	assert.EqualError(t, err, `packed.proto:2:44: field "a": packed option must be true or false`)
}
