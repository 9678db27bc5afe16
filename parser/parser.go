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
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/reporter"
)

// Options configures the parser.
type Options struct {
	// SkipStatements lists keywords whose statements the parser accepts and
	// drops: everything up to the next ';' or through a balanced '{ }' block.
	// This lets legacy files with declarations this module does not model,
	// such as "service" or "extend", still be read.
	SkipStatements []string
}

// Parse reads the schema in r and returns its unattributed tree. filename
// names the file in positions and becomes the document's location.
//
// The first error stops parsing. It is passed to handler, and the handler's
// verdict is returned; no partial document is returned.
func Parse(filename string, r io.Reader, handler *reporter.Handler, opts Options) (*ast.Document, error) {
	if handler == nil {
		handler = reporter.NewHandler(nil)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{
		lex:     NewLexer(filename, data),
		doc:     ast.NewDocument(filename),
		handler: handler,
		opts:    opts,
	}
	if err := p.parseDocument(); err != nil {
		if err := handler.HandleError(err); err != nil {
			return nil, err
		}
		return nil, reporter.ErrInvalidSource
	}
	return p.doc, nil
}

type parser struct {
	lex     *Lexer
	tok     Token
	doc     *ast.Document
	handler *reporter.Handler
	opts    Options
}

// next advances to the next token.
func (p *parser) next() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// peek returns the token after the current one without consuming it.
func (p *parser) peek() (Token, error) {
	mark := p.lex.Mark()
	defer p.lex.Reset(mark)
	return p.lex.Next()
}

// peek2 returns the two tokens after the current one without consuming them.
func (p *parser) peek2() (Token, Token, error) {
	mark := p.lex.Mark()
	defer p.lex.Reset(mark)
	first, err := p.lex.Next()
	if err != nil {
		return Token{}, Token{}, err
	}
	second, err := p.lex.Next()
	return first, second, err
}

func (p *parser) errorf(pos ast.SourcePos, format string, args ...any) error {
	return reporter.Errorf(reporter.Syntax, pos, format, args...)
}

func (p *parser) unexpected(expecting string) error {
	if expecting == "" {
		return p.errorf(p.tok.Pos, "syntax error: unexpected %s", p.tok.describe())
	}
	return p.errorf(p.tok.Pos, "syntax error: unexpected %s, expecting %s", p.tok.describe(), expecting)
}

func (p *parser) expectPunct(punct string) error {
	if !p.tok.IsPunct(punct) {
		return p.unexpected("'" + punct + "'")
	}
	return p.next()
}

// identifier accepts an identifier token, including inf and nan, which the
// lexer reports as floats.
func (p *parser) identifier() (string, ast.SourcePos, error) {
	tok := p.tok
	isName := tok.Kind == Ident ||
		(tok.Kind == Float && (tok.Text == "inf" || tok.Text == "nan"))
	if !isName {
		return "", tok.Pos, p.unexpected("identifier")
	}
	return tok.Text, tok.Pos, p.next()
}

// dottedName parses ident ('.' ident)*, with an optional leading dot when
// leadingDot is set.
func (p *parser) dottedName(leadingDot bool) (string, ast.SourcePos, error) {
	var b strings.Builder
	pos := p.tok.Pos
	if leadingDot && p.tok.IsPunct(".") {
		b.WriteByte('.')
		if err := p.next(); err != nil {
			return "", pos, err
		}
	}
	for {
		name, _, err := p.identifier()
		if err != nil {
			return "", pos, err
		}
		b.WriteString(name)
		if !p.tok.IsPunct(".") {
			return b.String(), pos, nil
		}
		b.WriteByte('.')
		if err := p.next(); err != nil {
			return "", pos, err
		}
	}
}

// stringLiteral parses one or more adjacent string literals.
func (p *parser) stringLiteral() (*ast.StringLiteral, error) {
	if p.tok.Kind != String {
		return nil, p.unexpected("string literal")
	}
	lit := &ast.StringLiteral{Value: p.tok.Str.Value, Position: p.tok.Pos}
	for {
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.tok.Kind != String {
			return lit, nil
		}
		lit.Value += p.tok.Str.Value
	}
}

func (p *parser) intLiteral() (*ast.IntLiteral, error) {
	if p.tok.Kind != Int {
		return nil, p.unexpected("int literal")
	}
	lit := p.tok.Int
	return lit, p.next()
}

func (p *parser) isSkipped() bool {
	return p.tok.Kind == Ident && slices.Contains(p.opts.SkipStatements, p.tok.Text)
}

// skipStatement drops a statement introduced by one of the
// [Options.SkipStatements] keywords.
func (p *parser) skipStatement() error {
	start, keyword := p.tok.Pos, p.tok.Text
	depth := 0
	for {
		if err := p.next(); err != nil {
			return err
		}
		switch {
		case p.tok.Kind == EOF:
			return p.errorf(start, "syntax error: unexpected end of file in %q statement", keyword)
		case p.tok.IsPunct("{"):
			depth++
		case p.tok.IsPunct("}"):
			if depth == 0 {
				return p.unexpected("")
			}
			depth--
			if depth == 0 {
				return p.next()
			}
		case p.tok.IsPunct(";") && depth == 0:
			return p.next()
		}
	}
}

// endStatement consumes the ';' that ends a statement.
func (p *parser) endStatement() error {
	return p.expectPunct(";")
}

func (p *parser) parseDocument() error {
	if err := p.next(); err != nil {
		return err
	}
	root := p.doc.Root()
	first := true
	sawPackage := false
	for {
		tok := p.tok
		var err error
		switch {
		case tok.Kind == EOF:
			if p.doc.Syntax == ast.SyntaxNone {
				p.handler.HandleWarning(reporter.Syntax, ast.UnknownPos(p.doc.Location()), ErrNoSyntax)
			}
			return nil
		case tok.IsPunct(";"):
			// Empty statements do not count as the first statement.
			if err := p.next(); err != nil {
				return err
			}
			continue
		case tok.IsKeyword("syntax"):
			if !first {
				return p.errorf(tok.Pos, "syntax error: syntax statement must be the first statement in the file")
			}
			err = p.parseSyntax()
		case tok.IsKeyword("package"):
			if sawPackage {
				return p.errorf(tok.Pos, "syntax error: multiple package declarations")
			}
			sawPackage = true
			err = p.parsePackage()
		case tok.IsKeyword("import"):
			err = p.parseImport()
		case tok.IsKeyword("option"):
			err = p.parseOptionStmt(root)
		case tok.IsKeyword("message"):
			err = p.parseMessage(root)
		case tok.IsKeyword("enum"):
			err = p.parseEnum(root)
		case p.isSkipped():
			err = p.skipStatement()
		default:
			err = p.unexpected("")
		}
		if err != nil {
			return err
		}
		first = false
	}
}

func (p *parser) parseSyntax() error {
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	lit, err := p.stringLiteral()
	if err != nil {
		return err
	}
	switch lit.Value {
	case "proto2":
		p.doc.Syntax = ast.SyntaxProto2
	case "proto3":
		p.doc.Syntax = ast.SyntaxProto3
	default:
		return p.errorf(lit.Position, "syntax error: syntax value must be %q or %q", "proto2", "proto3")
	}
	p.doc.SyntaxPos = lit.Position
	return p.endStatement()
}

func (p *parser) parsePackage() error {
	if err := p.next(); err != nil {
		return err
	}
	name, pos, err := p.dottedName(false)
	if err != nil {
		return err
	}
	p.doc.Package, p.doc.PackagePos = name, pos
	return p.endStatement()
}

func (p *parser) parseImport() error {
	pos := p.tok.Pos
	if err := p.next(); err != nil {
		return err
	}
	imp := ast.Import{Position: pos}
	switch {
	case p.tok.IsKeyword("public"):
		imp.Public = true
	case p.tok.IsKeyword("weak"):
		imp.Weak = true
	}
	if imp.Public || imp.Weak {
		if err := p.next(); err != nil {
			return err
		}
	}
	path, err := p.stringLiteral()
	if err != nil {
		return err
	}
	imp.Path = path.Value
	if _, added := p.doc.AddImport(imp); !added {
		p.handler.HandleWarning(reporter.Semantic, pos, fmt.Errorf("%w: %q", ErrDuplicateImport, imp.Path))
	}
	return p.endStatement()
}

// declStart reports whether the current keyword token begins a declaration
// ("message Foo {"), as opposed to a field whose type happens to be spelled
// like the keyword.
func (p *parser) declStart() (bool, error) {
	name, after, err := p.peek2()
	if err != nil {
		return false, err
	}
	return name.Kind == Ident && after.IsPunct("{"), nil
}

func (p *parser) parseMessage(parent *ast.Body) error {
	pos := p.tok.Pos
	if err := p.next(); err != nil {
		return err
	}
	name, _, err := p.identifier()
	if err != nil {
		return err
	}
	body := parent.AddBody(ast.KindMessage, name, pos)
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	return p.parseMessageBody(body)
}

// parseMessageBody parses the statements of a message or group after the
// opening brace, through the closing brace.
func (p *parser) parseMessageBody(body *ast.Body) error {
	for {
		tok := p.tok
		var err error
		switch {
		case tok.Kind == EOF:
			return p.unexpected("'}'")
		case tok.IsPunct("}"):
			return p.next()
		case tok.IsPunct(";"):
			err = p.next()
		case tok.IsKeyword("message") || tok.IsKeyword("enum") || tok.IsKeyword("oneof"):
			var decl bool
			if decl, err = p.declStart(); err != nil {
				return err
			}
			switch {
			case !decl:
				err = p.parseField(body, false)
			case tok.Text == "message":
				err = p.parseMessage(body)
			case tok.Text == "enum":
				err = p.parseEnum(body)
			default:
				err = p.parseOneof(body)
			}
		case tok.IsKeyword("reserved"):
			err = p.parseRanges(body, false)
		case tok.IsKeyword("extensions"):
			err = p.parseRanges(body, true)
		case tok.IsKeyword("option"):
			err = p.parseOptionStmt(body)
		case p.isSkipped():
			err = p.skipStatement()
		case tok.Kind == Ident || tok.IsPunct("."):
			err = p.parseField(body, false)
		default:
			err = p.unexpected("")
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) parseOneof(parent *ast.Body) error {
	pos := p.tok.Pos
	if err := p.next(); err != nil {
		return err
	}
	name, _, err := p.identifier()
	if err != nil {
		return err
	}
	body := parent.AddBody(ast.KindOneof, name, pos)
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for {
		tok := p.tok
		var err error
		switch {
		case tok.Kind == EOF:
			return p.unexpected("'}'")
		case tok.IsPunct("}"):
			return p.next()
		case tok.IsPunct(";"):
			err = p.next()
		case tok.IsKeyword("option"):
			err = p.parseOptionStmt(body)
		case p.isSkipped():
			err = p.skipStatement()
		case tok.Kind == Ident || tok.IsPunct("."):
			err = p.parseField(body, true)
		default:
			err = p.unexpected("")
		}
		if err != nil {
			return err
		}
	}
}

// parseField parses a field or group declaration into body.
func (p *parser) parseField(body *ast.Body, inOneof bool) error {
	start := p.tok.Pos
	field := ast.Field{Position: start}

	if mod := ast.LookupModifier(p.tok.Text); mod != ast.ModifierNone && p.tok.Kind == Ident {
		// A field whose type is named like a modifier is followed by its
		// name, not by another type.
		next, after, err := p.peek2()
		if err != nil {
			return err
		}
		if !(next.Kind == Ident && after.IsPunct("=")) || isTypeStart(next) {
			field.Modifier = mod
			if err := p.next(); err != nil {
				return err
			}
		}
	}

	if p.tok.IsKeyword("group") {
		isGroup, err := p.groupStart()
		if err != nil {
			return err
		}
		if isGroup {
			return p.parseGroup(body, field, inOneof)
		}
	}

	field.TypePos = p.tok.Pos
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	field.Type = typ
	if field.Name, _, err = p.identifier(); err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if field.Index, err = p.intLiteral(); err != nil {
		return err
	}
	if err := p.checkModifier(&field, inOneof); err != nil {
		return err
	}
	if p.tok.IsPunct("[") {
		if err := p.parseOptionList(&field.Options); err != nil {
			return err
		}
	}
	body.AddField(field)
	return p.endStatement()
}

func isTypeStart(tok Token) bool {
	return tok.IsKeyword("map") || tok.IsKeyword("group")
}

// groupStart reports whether the "group" keyword starts a group declaration
// ("group Name ="), rather than naming a message type called group.
func (p *parser) groupStart() (bool, error) {
	name, after, err := p.peek2()
	if err != nil {
		return false, err
	}
	return name.Kind == Ident && after.IsPunct("="), nil
}

// checkModifier applies the syntax-level modifier rules.
func (p *parser) checkModifier(field *ast.Field, inOneof bool) error {
	if field.IsMap() {
		if field.Modifier != ast.ModifierNone {
			return p.errorf(field.Position, "syntax error: map fields cannot have a %q modifier", field.Modifier)
		}
		return nil
	}
	if inOneof {
		// Reported by the linker with the rest of the oneof rules.
		return nil
	}
	switch p.doc.Syntax.Effective() {
	case ast.SyntaxProto2:
		if field.Modifier == ast.ModifierNone {
			return p.errorf(field.Position, "syntax error: field %q must have a modifier (required, optional or repeated) in proto2", field.Name)
		}
	case ast.SyntaxProto3:
		if field.Modifier.IsPresence() {
			return p.errorf(field.Position, "syntax error: field %q: %q modifier is not allowed in proto3", field.Name, field.Modifier)
		}
	}
	return nil
}

func (p *parser) parseGroup(body *ast.Body, field ast.Field, inOneof bool) error {
	groupPos := p.tok.Pos
	if p.doc.Syntax.Effective() == ast.SyntaxProto3 {
		return p.errorf(groupPos, "syntax error: groups are not allowed in proto3")
	}
	if err := p.next(); err != nil {
		return err
	}
	name, _, err := p.identifier()
	if err != nil {
		return err
	}
	field.Name = strings.ToLower(name)
	field.TypePos = groupPos
	field.Type = ast.Unresolved{Name: name}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if field.Index, err = p.intLiteral(); err != nil {
		return err
	}
	if err := p.checkModifier(&field, inOneof); err != nil {
		return err
	}
	if p.tok.IsPunct("[") {
		if err := p.parseOptionList(&field.Options); err != nil {
			return err
		}
	}
	f := body.AddField(field)
	group := body.AddBody(ast.KindGroup, name, groupPos)
	f.SetGroup(group)
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	return p.parseMessageBody(group)
}

// parseType parses a scalar keyword, a map type or a (possibly qualified)
// type name.
func (p *parser) parseType() (ast.TypeRef, error) {
	if p.tok.IsKeyword("map") {
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.IsPunct("<") {
			return p.parseMapType()
		}
	}
	if p.tok.Kind != Ident && !p.tok.IsPunct(".") {
		return nil, p.unexpected("type name")
	}
	name, _, err := p.dottedName(true)
	if err != nil {
		return nil, err
	}
	if scalar := ast.LookupScalar(name); scalar != ast.ScalarUnknown {
		return ast.Primitive{Scalar: scalar}, nil
	}
	return ast.Unresolved{Name: name}, nil
}

func (p *parser) parseMapType() (ast.TypeRef, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("<"); err != nil {
		return nil, err
	}
	key, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	value, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(">"); err != nil {
		return nil, err
	}
	return ast.MapRef{Key: key, Value: value}, nil
}

func (p *parser) parseEnum(parent *ast.Body) error {
	pos := p.tok.Pos
	if err := p.next(); err != nil {
		return err
	}
	name, _, err := p.identifier()
	if err != nil {
		return err
	}
	body := parent.AddBody(ast.KindEnum, name, pos)
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for {
		tok := p.tok
		var err error
		switch {
		case tok.Kind == EOF:
			return p.unexpected("'}'")
		case tok.IsPunct("}"):
			return p.next()
		case tok.IsPunct(";"):
			err = p.next()
		case tok.IsKeyword("option") || tok.IsKeyword("reserved") || p.isSkipped():
			var next Token
			if next, err = p.peek(); err != nil {
				return err
			}
			switch {
			case next.IsPunct("="):
				err = p.parseConstant(body)
			case tok.Text == "option":
				err = p.parseOptionStmt(body)
			case tok.Text == "reserved":
				err = p.parseRanges(body, false)
			default:
				err = p.skipStatement()
			}
		case tok.Kind == Ident || tok.Kind == Float:
			err = p.parseConstant(body)
		default:
			err = p.unexpected("")
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) parseConstant(body *ast.Body) error {
	constant := ast.EnumConstant{Position: p.tok.Pos}
	var err error
	if constant.Name, _, err = p.identifier(); err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if constant.Value, err = p.intLiteral(); err != nil {
		return err
	}
	if p.tok.IsPunct("[") {
		if err := p.parseOptionList(&constant.Options); err != nil {
			return err
		}
	}
	body.AddConstant(constant)
	return p.endStatement()
}

// parseRanges parses a reserved or extensions statement.
func (p *parser) parseRanges(body *ast.Body, extensions bool) error {
	decl := ast.RangeDecl{Extensions: extensions, Position: p.tok.Pos}
	keyword := p.tok.Text
	if err := p.next(); err != nil {
		return err
	}
	for {
		switch {
		case p.tok.Kind == String && !extensions:
			if len(decl.Ranges) > 0 {
				return p.errorf(p.tok.Pos, "syntax error: reserved statement cannot mix names and ranges")
			}
			pos := p.tok.Pos
			lit, err := p.stringLiteral()
			if err != nil {
				return err
			}
			decl.Names = append(decl.Names, ast.ReservedName{Name: lit.Value, Position: pos})
		case p.tok.Kind == Ident && !p.tok.IsKeyword("to") && !extensions:
			if len(decl.Ranges) > 0 {
				return p.errorf(p.tok.Pos, "syntax error: reserved statement cannot mix names and ranges")
			}
			decl.Names = append(decl.Names, ast.ReservedName{Name: p.tok.Text, Position: p.tok.Pos})
			if err := p.next(); err != nil {
				return err
			}
		case p.tok.Kind == Int || p.tok.IsKeyword("to"):
			if len(decl.Names) > 0 {
				return p.errorf(p.tok.Pos, "syntax error: reserved statement cannot mix names and ranges")
			}
			r, err := p.parseRange()
			if err != nil {
				return err
			}
			decl.Ranges = append(decl.Ranges, r)
		default:
			return p.unexpected(fmt.Sprintf("range in %s statement", keyword))
		}
		if !p.tok.IsPunct(",") {
			break
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	if extensions && p.tok.IsPunct("[") {
		if err := p.parseOptionList(&decl.Options); err != nil {
			return err
		}
	}
	body.AddRanges(decl)
	return p.endStatement()
}

// parseRange parses "n", "n to m", "n to max", and the malformed "to m" and
// "n to", which are kept for the linker to report.
func (p *parser) parseRange() (*ast.Range, error) {
	r := &ast.Range{Position: p.tok.Pos}
	if p.tok.Kind == Int {
		r.Min = p.tok.Int
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if !p.tok.IsKeyword("to") {
		r.Max, r.Single = r.Min, true
		return r, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	switch {
	case p.tok.IsKeyword("max"):
		r.ToMax = true
		return r, p.next()
	case p.tok.Kind == Int:
		r.Max = p.tok.Int
		return r, p.next()
	default:
		return r, nil
	}
}
