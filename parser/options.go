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

import "github.com/bufbuild/protoschema/ast"

func (p *parser) parseOptionStmt(body *ast.Body) error {
	pos := p.tok.Pos
	if err := p.next(); err != nil {
		return err
	}
	opt, err := p.parseOption(pos)
	if err != nil {
		return err
	}
	body.AddOption(*opt)
	return p.endStatement()
}

// parseOptionList parses "[ name = value, ... ]" into m.
func (p *parser) parseOptionList(m *ast.OptionMap) error {
	if err := p.expectPunct("["); err != nil {
		return err
	}
	for {
		opt, err := p.parseOption(p.tok.Pos)
		if err != nil {
			return err
		}
		m.Set(opt)
		if !p.tok.IsPunct(",") {
			return p.expectPunct("]")
		}
		if err := p.next(); err != nil {
			return err
		}
	}
}

func (p *parser) parseOption(pos ast.SourcePos) (*ast.Option, error) {
	name, err := p.parseOptionName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &ast.Option{Name: name, Value: value, Position: pos}, nil
}

// parseOptionName parses names like "deprecated", "(foo.bar)" and
// "(foo).bar.baz".
func (p *parser) parseOptionName() (ast.OptionName, error) {
	var name ast.OptionName
	for {
		if p.tok.IsPunct("(") {
			if err := p.next(); err != nil {
				return nil, err
			}
			ext, _, err := p.dottedName(true)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			name = append(name, ast.OptionNamePart{Name: ext, Extension: true})
		} else {
			part, _, err := p.identifier()
			if err != nil {
				return nil, err
			}
			name = append(name, ast.OptionNamePart{Name: part})
		}
		if !p.tok.IsPunct(".") {
			return name, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
}

// parseValue parses the value of an option or of a message literal entry.
func (p *parser) parseValue() (ast.Expr, error) {
	tok := p.tok
	switch {
	case tok.Kind == String:
		return p.stringLiteral()
	case tok.Kind == Int:
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.tok.IsKeyword("to") {
			next, err := p.peek()
			if err != nil {
				return nil, err
			}
			if !next.IsPunct(":") && !next.IsPunct("{") {
				return nil, p.errorf(p.tok.Pos, "syntax error: ranges are only allowed in reserved and extensions statements")
			}
		}
		return tok.Int, nil
	case tok.Kind == Float:
		return tok.Float, p.next()
	case tok.IsKeyword("true") || tok.IsKeyword("false"):
		return &ast.BoolLiteral{Value: tok.Text == "true", Position: tok.Pos}, p.next()
	case tok.Kind == Ident:
		name, pos, err := p.dottedName(false)
		if err != nil {
			return nil, err
		}
		return &ast.Identifier{Name: name, Position: pos}, nil
	case tok.IsPunct("{"):
		return p.parseMessageLiteral()
	default:
		return nil, p.unexpected("option value")
	}
}

func (p *parser) parseMessageLiteral() (*ast.MessageLiteral, error) {
	lit := &ast.MessageLiteral{Position: p.tok.Pos}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for {
		if p.tok.IsPunct("}") {
			return lit, p.next()
		}
		entry := ast.MessageEntry{Position: p.tok.Pos}
		if p.tok.IsPunct("[") {
			if err := p.next(); err != nil {
				return nil, err
			}
			name, _, err := p.dottedName(true)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			entry.Key, entry.Extension = name, true
		} else {
			name, _, err := p.identifier()
			if err != nil {
				if p.tok.Kind == EOF {
					return nil, p.unexpected("'}'")
				}
				return nil, err
			}
			entry.Key = name
		}

		switch {
		case p.tok.IsPunct(":"):
			if err := p.next(); err != nil {
				return nil, err
			}
		case !p.tok.IsPunct("{"):
			return nil, p.unexpected("':'")
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		entry.Value = value
		lit.Entries = append(lit.Entries, entry)

		if p.tok.IsPunct(",") || p.tok.IsPunct(";") {
			if err := p.next(); err != nil {
				return nil, err
			}
		}
	}
}
