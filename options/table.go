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
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/bufbuild/protoschema/ast"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrUnknownOption is wrapped by the error [Table.Check] returns for a name
// the table does not know.
var ErrUnknownOption = errors.New("unknown option")

// Option describes one known option.
type Option struct {
	// Name is the option name as written in source, such as "java_package"
	// or "(my.ext).field".
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	// Values lists the identifiers an enum-kind option accepts.
	Values []string `yaml:"values,omitempty"`
	Scopes Scope    `yaml:"scopes"`
}

// Table maps option names to their descriptions. The zero value is an empty
// table.
type Table struct {
	byName map[string]*Option
}

type tableFile struct {
	Options []Option `yaml:"options"`
}

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return Load(strings.NewReader(string(defaultsYAML)))
})

// Default returns a copy of the table of descriptor.proto options.
func Default() *Table {
	t, err := defaultTable()
	if err != nil {
		panic(fmt.Sprintf("options: invalid embedded defaults: %v", err))
	}
	return t.Clone()
}

// Load reads a table from YAML of the form:
//
//	options:
//	  - name: java_package
//	    kind: string
//	    scopes: [file]
//	  - name: optimize_for
//	    kind: enum
//	    values: [SPEED, CODE_SIZE, LITE_RUNTIME]
//	    scopes: [file]
func Load(r io.Reader) (*Table, error) {
	var file tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("options: %w", err)
	}
	return NewTable(file.Options...)
}

// NewTable returns a table holding opts. Every option must have a name, a
// kind and at least one scope.
func NewTable(opts ...Option) (*Table, error) {
	t := &Table{}
	for _, opt := range opts {
		if opt.Name == "" {
			return nil, errors.New("options: option without a name")
		}
		if opt.Kind == KindInvalid {
			return nil, fmt.Errorf("options: option %q has no kind", opt.Name)
		}
		if opt.Scopes == 0 {
			return nil, fmt.Errorf("options: option %q has no scopes", opt.Name)
		}
		t.Add(opt)
	}
	return t, nil
}

// Add adds or replaces an option.
func (t *Table) Add(opt Option) {
	if t.byName == nil {
		t.byName = make(map[string]*Option)
	}
	t.byName[opt.Name] = &opt
}

// Merge adds every option of other to t, replacing options with the same
// name.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	for _, opt := range other.byName {
		t.Add(*opt)
	}
}

// Clone returns a copy of t.
func (t *Table) Clone() *Table {
	clone := &Table{}
	clone.Merge(t)
	return clone
}

// Lookup returns the description of the option with the given name.
func (t *Table) Lookup(name string) (*Option, bool) {
	opt, ok := t.byName[name]
	return opt, ok
}

// Names returns the known option names in sorted order.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.byName))
}

// Check validates an option appearing on a declaration of the given scope.
// It reports unknown names, options used on the wrong kind of declaration,
// and values of the wrong kind. For [KindTypeDependent] options only the
// name and scope are checked; the caller knows the type to check against.
func (t *Table) Check(scope Scope, opt *ast.Option) (*Option, error) {
	name := opt.Name.String()
	known, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownOption, name)
	}
	if !known.Scopes.Has(scope) {
		return nil, fmt.Errorf("option %q is not allowed on a %s declaration", name, scope)
	}
	valueKind := opt.Value.Kind()
	if !known.Kind.Accepts(valueKind) {
		return nil, fmt.Errorf("option %q requires a %s value, found %s %s", name, known.Kind, valueKind, opt.Value)
	}
	if known.Kind == KindEnum && len(known.Values) > 0 {
		ident := opt.Value.(*ast.Identifier).Name
		if !slices.Contains(known.Values, ident) {
			return nil, fmt.Errorf("option %q: invalid value %s, expecting one of %s", name, ident, strings.Join(known.Values, ", "))
		}
	}
	return known, nil
}
