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
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/reporter"
)

// TokenKind is the lexical class of a [Token].
type TokenKind int

const (
	EOF TokenKind = iota
	Ident
	Int
	Float
	String
	Punct
)

// Token is a single lexical element.
type Token struct {
	Kind TokenKind
	// Text is the token as it appears in the source.
	Text string
	Pos  ast.SourcePos

	// Exactly one of these is set, for String, Int and Float tokens
	// respectively.
	Str   *ast.StringLiteral
	Int   *ast.IntLiteral
	Float *ast.FloatLiteral
}

// IsPunct reports whether t is the given punctuation character.
func (t Token) IsPunct(p string) bool {
	return t.Kind == Punct && t.Text == p
}

// IsKeyword reports whether t is an identifier spelled word. Keywords are
// not reserved, so every keyword is also an identifier.
func (t Token) IsKeyword(word string) bool {
	return t.Kind == Ident && t.Text == word
}

// describe renders the token for "unexpected ..." diagnostics.
func (t Token) describe() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case Ident:
		return fmt.Sprintf("identifier %q", t.Text)
	case Int:
		return "int literal " + t.Text
	case Float:
		return "float literal " + t.Text
	case String:
		return "string literal " + t.Text
	default:
		return "'" + t.Text + "'"
	}
}

// Mark is a saved lexer position. See [Lexer.Mark].
type Mark struct {
	offset int
}

const floatPrec = 256

const punctuation = "{}()[];,=<>.:"

var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

var errInvalidUTF8 = errors.New("invalid UTF-8 encoding")

type runeReader struct {
	data []byte
	pos  int
	mark int
}

func (rr *runeReader) readRune() (r rune, size int, err error) {
	if rr.pos == len(rr.data) {
		return 0, 0, io.EOF
	}
	r, sz := utf8.DecodeRune(rr.data[rr.pos:])
	if r == utf8.RuneError && sz <= 1 {
		return 0, 0, errInvalidUTF8
	}
	rr.pos += sz
	return r, sz, nil
}

func (rr *runeReader) unreadRune(sz int) {
	newPos := rr.pos - sz
	if newPos < rr.mark {
		panic("unread past mark")
	}
	rr.pos = newPos
}

func (rr *runeReader) setMark() {
	rr.mark = rr.pos
}

func (rr *runeReader) getMark() string {
	return string(rr.data[rr.mark:rr.pos])
}

// Lexer splits schema source into tokens. Tokens are produced lazily by
// [Lexer.Next].
type Lexer struct {
	filename string
	input    runeReader
	// lineStarts holds the offset of the first byte of each line.
	lineStarts []int
}

// NewLexer returns a lexer over data, which is the content of filename. A
// leading UTF-8 byte order mark is skipped.
func NewLexer(filename string, data []byte) *Lexer {
	data = bytes.TrimPrefix(data, utf8Bom)
	lineStarts := []int{0}
	for i, b := range data {
		if b == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	return &Lexer{
		filename:   filename,
		input:      runeReader{data: data},
		lineStarts: lineStarts,
	}
}

// Mark returns the current position, to be passed to [Lexer.Reset].
func (l *Lexer) Mark() Mark {
	return Mark{offset: l.input.pos}
}

// Reset rewinds (or advances) the lexer to a position returned by Mark.
func (l *Lexer) Reset(m Mark) {
	l.input.pos = m.offset
	l.input.mark = m.offset
}

// Source returns the text being lexed.
func (l *Lexer) Source() []byte {
	return l.input.data
}

func (l *Lexer) position(offset int) ast.SourcePos {
	line, found := slices.BinarySearch(l.lineStarts, offset)
	if !found {
		line--
	}
	col := utf8.RuneCount(l.input.data[l.lineStarts[line]:offset]) + 1
	return ast.SourcePos{Filename: l.filename, Line: line + 1, Col: col}
}

func (l *Lexer) errorf(offset int, format string, args ...any) error {
	return reporter.Errorf(reporter.Lexical, l.position(offset), format, args...)
}

// Next returns the next token. At the end of input it returns a token of
// kind [EOF], as many times as it is called. Errors are [reporter.Lexical].
func (l *Lexer) Next() (Token, error) {
	for {
		l.input.setMark()
		start := l.input.pos
		c, _, err := l.input.readRune()
		if err == io.EOF {
			return Token{Kind: EOF, Pos: l.position(start)}, nil
		} else if err != nil {
			return Token{}, l.errorf(start, "%v", err)
		}

		switch {
		case strings.ContainsRune("\n\r\t\f\v ", c):
			continue

		case c == '/':
			cn, _, err := l.input.readRune()
			if err == nil && cn == '/' {
				l.skipToEndOfLineComment()
				continue
			}
			if err == nil && cn == '*' {
				switch err := l.skipToEndOfBlockComment(); {
				case err == io.EOF:
					return Token{}, l.errorf(start, "block comment never terminates, unexpected EOF")
				case err != nil:
					return Token{}, l.errorf(l.input.pos, "%v", err)
				}
				continue
			}
			return Token{}, l.errorf(start, "invalid character '/'")

		case c == '.':
			// decimal literals could start with a dot
			cn, szn, err := l.input.readRune()
			if err == nil {
				l.input.unreadRune(szn)
				if cn >= '0' && cn <= '9' {
					l.readNumber()
					return l.number(start)
				}
			}
			return l.token(Punct, start), nil

		case isIdentStart(c):
			l.readIdentifier()
			tok := l.token(Ident, start)
			switch tok.Text {
			case "inf":
				tok.Kind = Float
				tok.Float = &ast.FloatLiteral{Special: ast.PosInf, Position: tok.Pos}
			case "nan":
				tok.Kind = Float
				tok.Float = &ast.FloatLiteral{Special: ast.NaN, Position: tok.Pos}
			}
			return tok, nil

		case c >= '0' && c <= '9':
			l.readNumber()
			return l.number(start)

		case c == '-':
			cn, szn, err := l.input.readRune()
			if err == nil {
				switch {
				case cn >= '0' && cn <= '9' || cn == '.':
					l.readNumber()
					return l.number(start)
				case isIdentStart(cn):
					l.readIdentifier()
					if l.input.getMark() == "-inf" {
						tok := l.token(Float, start)
						tok.Float = &ast.FloatLiteral{Special: ast.NegInf, Position: tok.Pos}
						return tok, nil
					}
				default:
					l.input.unreadRune(szn)
				}
			}
			return Token{}, l.errorf(start, "invalid character '-'")

		case c == '\'' || c == '"':
			str, err := l.readStringLiteral(c)
			if err != nil {
				return Token{}, l.errorf(start, "%v", err)
			}
			tok := l.token(String, start)
			tok.Str = &ast.StringLiteral{Value: str, Position: tok.Pos}
			return tok, nil

		case strings.ContainsRune(punctuation, c):
			return l.token(Punct, start), nil

		default:
			return Token{}, l.errorf(start, "invalid character %q", c)
		}
	}
}

func (l *Lexer) token(kind TokenKind, start int) Token {
	return Token{Kind: kind, Text: l.input.getMark(), Pos: l.position(start)}
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigits(s string, valid func(byte) bool) int {
	for i := range len(s) {
		if !valid(s[i]) {
			return i
		}
	}
	return -1
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }
func isOctal(c byte) bool   { return c >= '0' && c <= '7' }
func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// number classifies and converts the numeric token that was just read.
func (l *Lexer) number(start int) (Token, error) {
	tok := l.token(Int, start)
	text := tok.Text
	digits := strings.TrimPrefix(text, "-")
	neg := len(digits) != len(text)

	value := new(big.Int)
	base := ast.Decimal
	switch {
	case strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X"):
		hex := digits[2:]
		if hex == "" {
			return Token{}, l.errorf(start, "invalid syntax in hexadecimal integer value: %s", text)
		}
		if i := isDigits(hex, isHex); i >= 0 {
			return Token{}, l.errorf(start, "invalid character %q in hexadecimal integer value: %s", hex[i], text)
		}
		value.SetString(hex, 16)
		base = ast.Hex

	case strings.ContainsAny(digits, ".eE"):
		f, err := parseFloat(digits)
		if err != nil {
			return Token{}, l.errorf(start, "%v: %s", err, text)
		}
		lit := &ast.FloatLiteral{Value: f, Position: tok.Pos}
		if neg {
			lit.Value.Neg(lit.Value)
		}
		tok.Kind, tok.Float = Float, lit
		return tok, nil

	case len(digits) > 1 && digits[0] == '0':
		if i := isDigits(digits, isOctal); i >= 0 {
			if isDecimal(digits[i]) {
				return Token{}, l.errorf(start, "invalid digit %q in octal integer value: %s", digits[i], text)
			}
			return Token{}, l.errorf(start, "invalid character %q in octal integer value: %s", digits[i], text)
		}
		value.SetString(digits[1:], 8)
		base = ast.Octal

	default:
		if i := isDigits(digits, isDecimal); i >= 0 {
			return Token{}, l.errorf(start, "invalid character %q in integer value: %s", digits[i], text)
		}
		value.SetString(digits, 10)
	}
	if neg {
		value.Neg(value)
	}
	tok.Int = &ast.IntLiteral{Value: value, Base: base, Position: tok.Pos}
	return tok, nil
}

func parseFloat(digits string) (*big.Float, error) {
	mantissa, exp, hasExp := strings.Cut(strings.ToLower(digits), "e")
	if hasExp {
		if strings.Contains(exp, "e") {
			return nil, errors.New("multiple exponents in float value")
		}
		exp = strings.TrimLeft(exp, "+-")
		if exp == "" {
			return nil, errors.New("missing exponent digits in float value")
		}
		if i := isDigits(exp, isDecimal); i >= 0 {
			return nil, fmt.Errorf("invalid character %q in float value", exp[i])
		}
	}
	if strings.Count(mantissa, ".") > 1 {
		return nil, errors.New("multiple decimal points in float value")
	}
	if i := isDigits(strings.Replace(mantissa, ".", "", 1), isDecimal); i >= 0 {
		return nil, fmt.Errorf("invalid character in float value")
	}
	if strings.Trim(mantissa, ".") == "" {
		return nil, errors.New("missing digits in float value")
	}
	f, ok := new(big.Float).SetPrec(floatPrec).SetString(digits)
	if !ok {
		return nil, errors.New("invalid syntax in float value")
	}
	return f, nil
}

// readNumber consumes the rest of a numeric token, including any letters
// glued to it so that they can be reported as part of the number.
func (l *Lexer) readNumber() {
	allowExpSign := false
	for {
		c, sz, err := l.input.readRune()
		if err != nil {
			break
		}
		if (c == '-' || c == '+') && !allowExpSign {
			l.input.unreadRune(sz)
			break
		}
		allowExpSign = false
		if c != '.' && c != '_' && (c < '0' || c > '9') &&
			(c < 'a' || c > 'z') && (c < 'A' || c > 'Z') &&
			c != '-' && c != '+' {
			// no more chars in the number token
			l.input.unreadRune(sz)
			break
		}
		if c == 'e' || c == 'E' {
			// scientific notation char can be followed by
			// an exponent sign
			allowExpSign = true
		}
	}
}

func (l *Lexer) readIdentifier() {
	for {
		c, sz, err := l.input.readRune()
		if err != nil {
			break
		}
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			l.input.unreadRune(sz)
			break
		}
	}
}

func (l *Lexer) readStringLiteral(quote rune) (string, error) {
	var buf bytes.Buffer
	for {
		c, _, err := l.input.readRune()
		if err != nil {
			if err == io.EOF {
				return "", errors.New("unterminated string literal, unexpected EOF")
			}
			return "", err
		}
		if c == '\n' {
			return "", errors.New("encountered end-of-line before end of string literal")
		}
		if c == quote {
			break
		}
		if c == 0 {
			return "", errors.New("null character ('\\0') not allowed in string literal")
		}
		if c != '\\' {
			buf.WriteRune(c)
			continue
		}

		// escape sequence
		c, _, err = l.input.readRune()
		if err != nil {
			if err == io.EOF {
				return "", errors.New("unterminated string literal, unexpected EOF")
			}
			return "", err
		}
		switch {
		case c == 'x' || c == 'X':
			hex, err := l.readEscapeDigits(2, isHex)
			if err != nil {
				return "", err
			}
			if hex == "" {
				return "", errors.New("invalid hex escape: missing digits")
			}
			i, _ := strconv.ParseUint(hex, 16, 8)
			buf.WriteByte(byte(i))

		case c >= '0' && c <= '7':
			l.input.unreadRune(1)
			octal, err := l.readEscapeDigits(3, isOctal)
			if err != nil {
				return "", err
			}
			i, _ := strconv.ParseUint(octal, 8, 16)
			if i > 0xff {
				return "", fmt.Errorf("octal escape is out range, must be between 0 and 377: \\%s", octal)
			}
			buf.WriteByte(byte(i))

		case c == 'u' || c == 'U':
			n := 4
			if c == 'U' {
				n = 8
			}
			u, err := l.readEscapeDigits(n, isHex)
			if err != nil {
				return "", err
			}
			if len(u) != n {
				return "", fmt.Errorf("invalid unicode escape: \\%c%s", c, u)
			}
			i, _ := strconv.ParseUint(u, 16, 32)
			if i > utf8.MaxRune || (i >= 0xD800 && i <= 0xDFFF) {
				return "", fmt.Errorf("unicode escape is out of range: \\%c%s", c, u)
			}
			buf.WriteRune(rune(i))

		default:
			simple, ok := simpleEscapes[c]
			if !ok {
				return "", fmt.Errorf("invalid escape sequence: %q", "\\"+string(c))
			}
			buf.WriteByte(simple)
		}
	}
	return buf.String(), nil
}

var simpleEscapes = map[rune]byte{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'?':  '?',
}

// readEscapeDigits reads up to max ASCII digits accepted by valid.
func (l *Lexer) readEscapeDigits(maxDigits int, valid func(byte) bool) (string, error) {
	start := l.input.pos
	for range maxDigits {
		c, sz, err := l.input.readRune()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		}
		if c >= utf8.RuneSelf || !valid(byte(c)) {
			l.input.unreadRune(sz)
			break
		}
	}
	return string(l.input.data[start:l.input.pos]), nil
}

func (l *Lexer) skipToEndOfLineComment() {
	for {
		c, _, err := l.input.readRune()
		if err != nil || c == '\n' {
			return
		}
	}
}

func (l *Lexer) skipToEndOfBlockComment() error {
	for {
		c, _, err := l.input.readRune()
		if err != nil {
			return err
		}
		if c == '*' {
			c, sz, err := l.input.readRune()
			if err != nil {
				return err
			}
			if c == '/' {
				return nil
			}
			l.input.unreadRune(sz)
		}
	}
}
