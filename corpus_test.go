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
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/internal/corpora"
	"github.com/bufbuild/protoschema/reporter"
	"github.com/bufbuild/protoschema/walk"
)

func TestCorpus(t *testing.T) {
	t.Parallel()

	corpora.Corpus{
		Root:      "testdata/corpus",
		Refresh:   "PROTOSCHEMA_REFRESH",
		Extension: "proto",
		Outputs: []corpora.Output{
			{Extension: "stderr"},
			{Extension: "yaml", Compare: corpora.YAMLCompare},
		},
		Test: func(t *testing.T, path, _ string) []string {
			var mu sync.Mutex
			var stderr strings.Builder
			c := Compiler{
				Resolver: WithStandardImports(&SourceResolver{ImportPaths: []string{"testdata/corpus"}}),
				Reporter: reporter.NewReporter(nil, func(w reporter.ErrorWithPos) {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(&stderr, "warning: %v: %v\n", w.Category(), w)
				}),
			}
			docs, err := c.Compile(context.Background(), path)
			if err != nil {
				fmt.Fprintf(&stderr, "%v: %v\n", reporter.CategoryOf(err), err)
				return []string{stderr.String(), ""}
			}
			return []string{stderr.String(), dumpTree(t, docs[0])}
		},
	}.Run(t)
}

type treeDump struct {
	Syntax  string     `yaml:"syntax,omitempty"`
	Package string     `yaml:"package,omitempty"`
	Imports []string   `yaml:"imports,omitempty,flow"`
	Decls   []declDump `yaml:"decls,omitempty"`
}

type declDump struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind"`
	Fields []fieldDump `yaml:"fields,omitempty"`
	Values []valueDump `yaml:"values,omitempty"`
}

type fieldDump struct {
	Name     string `yaml:"name"`
	Number   int32  `yaml:"number"`
	Type     string `yaml:"type"`
	Modifier string `yaml:"modifier,omitempty"`
	Oneof    string `yaml:"oneof,omitempty"`
}

type valueDump struct {
	Name   string `yaml:"name"`
	Number int32  `yaml:"number"`
}

// dumpTree renders the declarations of an attributed document as YAML.
func dumpTree(t *testing.T, doc *ast.Document) string {
	t.Helper()
	dump := treeDump{
		Syntax:  doc.Syntax.String(),
		Package: doc.Package,
	}
	for _, imp := range doc.Imports() {
		dump.Imports = append(dump.Imports, imp.Path)
	}
	for b := range doc.Bodies() {
		if b.IsRoot() || b.Kind == ast.KindOneof {
			continue
		}
		decl := declDump{Name: b.FullName(), Kind: b.Kind.String()}
		if b.Kind.IsMessageLike() {
			_ = walk.Fields(b, func(f *ast.Field, oneof *ast.Body) error {
				fd := fieldDump{
					Name:     f.Name,
					Number:   f.Number,
					Type:     f.Type.String(),
					Modifier: f.Modifier.String(),
				}
				if oneof != nil {
					fd.Oneof = oneof.Name
				}
				decl.Fields = append(decl.Fields, fd)
				return nil
			})
		}
		for c := range b.Constants() {
			decl.Values = append(decl.Values, valueDump{Name: c.Name, Number: c.Number})
		}
		dump.Decls = append(dump.Decls, decl)
	}
	out, err := yaml.Marshal(dump)
	if err != nil {
		t.Fatalf("marshal tree: %v", err)
	}
	return string(out)
}
