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

// Package printer renders schema trees back to source text.
//
// The output is canonical rather than faithful: comments and original
// whitespace are not kept, and type references that the linker resolved are
// written fully qualified. Parsing and linking the output yields a tree with
// the same declarations, names, numbers and types as the input.
package printer

import (
	"io"
	"strconv"
	"strings"

	"github.com/bufbuild/protoschema/ast"
)

// Options controls the layout of printed text.
type Options struct {
	// Indent is the string used for each level of indentation.
	// Defaults to two spaces if empty.
	Indent string
}

// withDefaults returns a copy of opts with default values applied.
func (opts Options) withDefaults() Options {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	return opts
}

// Print renders doc with the default options.
func Print(doc *ast.Document) string {
	return Options{}.Print(doc)
}

// Print renders doc to schema source text.
func (opts Options) Print(doc *ast.Document) string {
	p := &printer{options: opts.withDefaults(), doc: doc}
	p.printDocument()
	return p.out.String()
}

// Fprint writes the rendering of doc to w.
func (opts Options) Fprint(w io.Writer, doc *ast.Document) error {
	_, err := io.WriteString(w, opts.Print(doc))
	return err
}

type printer struct {
	options Options
	doc     *ast.Document
	out     strings.Builder
	depth   int
}

// line writes one indented line.
func (p *printer) line(parts ...string) {
	for range p.depth {
		p.out.WriteString(p.options.Indent)
	}
	for _, part := range parts {
		p.out.WriteString(part)
	}
	p.out.WriteByte('\n')
}

func (p *printer) printDocument() {
	doc := p.doc
	header := false
	if doc.Syntax != ast.SyntaxNone {
		p.line("syntax = ", strconv.Quote(doc.Syntax.String()), ";")
		header = true
	}
	if doc.Package != "" {
		p.line("package ", doc.Package, ";")
		header = true
	}
	for _, imp := range doc.Imports() {
		modifier := ""
		switch {
		case imp.Public:
			modifier = "public "
		case imp.Weak:
			modifier = "weak "
		}
		p.line("import ", modifier, strconv.Quote(imp.Path), ";")
		header = true
	}
	if header && len(doc.Root().Stmts()) > 0 {
		p.out.WriteByte('\n')
	}
	p.printStmts(doc.Root())
}

func (p *printer) printStmts(b *ast.Body) {
	for _, s := range b.Stmts() {
		switch s.Kind() {
		case ast.StmtOption:
			opt := b.Option(s)
			p.line("option ", opt.Name.String(), " = ", opt.Value.String(), ";")
		case ast.StmtField:
			p.printField(b.Field(s))
		case ast.StmtConstant:
			c := b.Constant(s)
			p.line(c.Name, " = ", c.Value.String(), optionList(&c.Options), ";")
		case ast.StmtRanges:
			p.printRanges(b.Ranges(s))
		case ast.StmtBody:
			nested := b.Nested(s)
			if nested.Kind == ast.KindGroup {
				// Printed along with its field.
				continue
			}
			p.line(nested.Kind.String(), " ", nested.Name, " {")
			p.printBlock(nested)
		}
	}
}

func (p *printer) printBlock(b *ast.Body) {
	p.depth++
	p.printStmts(b)
	p.depth--
	p.line("}")
}

func (p *printer) printField(f *ast.Field) {
	modifier := ""
	if f.Modifier != ast.ModifierNone {
		modifier = f.Modifier.String() + " "
	}
	if group := f.Group(p.doc); group != nil {
		p.line(modifier, "group ", group.Name, " = ", f.Index.String(), optionList(&f.Options), " {")
		p.printBlock(group)
		return
	}
	p.line(modifier, typeName(f.Type), " ", f.Name, " = ", f.Index.String(), optionList(&f.Options), ";")
}

func typeName(ref ast.TypeRef) string {
	switch ref := ref.(type) {
	case ast.MapRef:
		return "map<" + typeName(ref.Key) + ", " + typeName(ref.Value) + ">"
	case ast.GroupRef:
		return "." + ref.Target.FullName()
	default:
		return ref.String()
	}
}

func (p *printer) printRanges(decl *ast.RangeDecl) {
	keyword := "reserved "
	if decl.Extensions {
		keyword = "extensions "
	}
	items := make([]string, 0, len(decl.Ranges)+len(decl.Names))
	for _, r := range decl.Ranges {
		items = append(items, r.String())
	}
	for _, name := range decl.Names {
		items = append(items, strconv.Quote(name.Name))
	}
	p.line(keyword, strings.Join(items, ", "), optionList(&decl.Options), ";")
}

// optionList renders a bracketed option list, with a leading space, or
// nothing if there are no options.
func optionList(m *ast.OptionMap) string {
	if m.Len() == 0 {
		return ""
	}
	opts := m.All()
	items := make([]string, len(opts))
	for i, opt := range opts {
		items[i] = opt.String()
	}
	return " [" + strings.Join(items, ", ") + "]"
}
