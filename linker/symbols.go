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

package linker

import (
	"strings"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/reporter"
	"github.com/bufbuild/protoschema/walk"
)

// Symbols maps the qualified names of the messages, enums and groups a
// document can see to their declarations.
type Symbols struct {
	byName map[string]symbolEntry
}

type symbolEntry struct {
	body *ast.Body
	// pos is where the symbol entered the table: the declaration for local
	// symbols, the import statement for imported ones.
	pos ast.SourcePos
}

// NewSymbols builds the symbol table for an attributed document.
func NewSymbols(doc *ast.Document) (*Symbols, error) {
	return newSymbols(doc)
}

func newSymbols(doc *ast.Document) (*Symbols, error) {
	s := &Symbols{byName: make(map[string]symbolEntry)}
	for b := range doc.Bodies() {
		if err := s.add(b, b.Position, false); err != nil {
			return nil, err
		}
	}
	docs, positions := visibleImports(doc)
	for i, dep := range docs {
		for b := range dep.Bodies() {
			if err := s.add(b, positions[i], true); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *Symbols) add(b *ast.Body, pos ast.SourcePos, imported bool) error {
	if b.IsRoot() || b.Kind == ast.KindOneof {
		return nil
	}
	name := b.QualifiedName()
	existing, ok := s.byName[name]
	if !ok {
		s.byName[name] = symbolEntry{body: b, pos: pos}
		return nil
	}
	if imported {
		return reporter.Errorf(reporter.Semantic, pos, "symbol %q imported from %q is already defined at %v",
			b.FullName(), b.Document().Location(), existing.body.Position)
	}
	return reporter.Errorf(reporter.Semantic, pos, "symbol %q already defined at %v", b.FullName(), existing.pos)
}

// Lookup returns the declaration with the given qualified name, or nil.
func (s *Symbols) Lookup(qualified string) *ast.Body {
	return s.byName[qualified].body
}

// Len returns the number of symbols in the table.
func (s *Symbols) Len() int {
	return len(s.byName)
}

// Resolve resolves a type name as written in a declaration inside from.
//
// A name with a leading dot is fully qualified. Otherwise the first
// component is searched for in from and each enclosing declaration in turn,
// and then in the package and each of its parent packages. As in C++, the
// first scope where the first component is found is the only one searched
// for the rest of the name.
func (s *Symbols) Resolve(name string, from *ast.Body) *ast.Body {
	if full, ok := strings.CutPrefix(name, "."); ok {
		return s.resolveAbsolute(full)
	}
	parts := strings.Split(name, ".")
	for b := walk.Scope(from); b != nil && !b.IsRoot(); b = walk.Scope(b.Parent()) {
		prefix := b.QualifiedName() + "$"
		if s.Lookup(prefix+parts[0]) != nil {
			return s.Lookup(prefix + strings.Join(parts, "$"))
		}
	}
	pkg := from.Document().Package
	for {
		candidate := name
		if pkg != "" {
			candidate = pkg + "." + name
		}
		if b := s.resolveAbsolute(candidate); b != nil {
			return b
		}
		if pkg == "" {
			return nil
		}
		if i := strings.LastIndexByte(pkg, '.'); i >= 0 {
			pkg = pkg[:i]
		} else {
			pkg = ""
		}
	}
}

// resolveAbsolute finds a declaration by its dotted full name. The longest
// prefix of the name that is a package wins.
func (s *Symbols) resolveAbsolute(full string) *ast.Body {
	parts := strings.Split(full, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		qualified := strings.Join(parts[i:], "$")
		if i > 0 {
			qualified = strings.Join(parts[:i], ".") + "." + qualified
		}
		if b := s.Lookup(qualified); b != nil {
			return b
		}
	}
	return nil
}

// bindNames computes the qualified and full name of every body. Oneofs are
// transparent: declarations inside them are named as if they were declared
// in the enclosing message.
func bindNames(doc *ast.Document) error {
	pkg := doc.Package
	return walk.Bodies(doc, func(b *ast.Body) error {
		parent := walk.Scope(b.Parent())
		switch {
		case !parent.IsRoot():
			b.Bind(parent.QualifiedName()+"$"+b.Name, parent.FullName()+"."+b.Name)
		case pkg != "":
			b.Bind(pkg+"."+b.Name, pkg+"."+b.Name)
		default:
			b.Bind(b.Name, b.Name)
		}
		return nil
	})
}

// resolveTypes replaces the unresolved type references of every field with
// references to the declarations they name. Names that cannot be resolved
// are left unresolved for validation to report.
func (l *linker) resolveTypes() error {
	for b := range l.doc.Bodies() {
		if !b.Kind.IsMessageLike() {
			continue
		}
		err := walk.Fields(b, func(f *ast.Field, _ *ast.Body) error {
			if group := f.Group(l.doc); group != nil {
				f.Type = ast.GroupRef{Target: group}
				return nil
			}
			f.Type = l.resolveType(f.Type, b)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *linker) resolveType(ref ast.TypeRef, from *ast.Body) ast.TypeRef {
	switch ref := ref.(type) {
	case ast.Unresolved:
		target := l.symbols.Resolve(ref.Name, from)
		switch {
		case target == nil:
			return ref
		case target.Kind == ast.KindEnum:
			return ast.EnumRef{Target: target}
		default:
			return ast.MessageRef{Target: target}
		}
	case ast.MapRef:
		return ast.MapRef{Key: l.resolveType(ref.Key, from), Value: l.resolveType(ref.Value, from)}
	default:
		return ref
	}
}
