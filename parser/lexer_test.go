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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/reporter"
)

func TestLexer(t *testing.T) {
	t.Parallel()

	l := NewLexer("test.proto", []byte("\xEF\xBB\xBF"+`// comment
	/* block
	 * comment */ int32 foo.bar
	"a\x41\101\né" 'b\'' "\?"
	12 -12 0x1F -0xff 017 0 1.5 -.5 1e3 2E-2 inf -inf nan
	{ } ( ) [ ] ; , = < > . :
`))

	type want struct {
		kind      TokenKind
		text      string
		line, col int
	}
	expected := []want{
		{Ident, "int32", 3, 16},
		{Ident, "foo", 3, 22},
		{Punct, ".", 3, 25},
		{Ident, "bar", 3, 26},
		{String, `"a\x41\101\né"`, 4, 2},
		{String, `'b\''`, 4, 17},
		{String, `"\?"`, 4, 23},
		{Int, "12", 5, 2},
		{Int, "-12", 5, 5},
		{Int, "0x1F", 5, 9},
		{Int, "-0xff", 5, 14},
		{Int, "017", 5, 20},
		{Int, "0", 5, 24},
		{Float, "1.5", 5, 26},
		{Float, "-.5", 5, 30},
		{Float, "1e3", 5, 34},
		{Float, "2E-2", 5, 38},
		{Float, "inf", 5, 43},
		{Float, "-inf", 5, 47},
		{Float, "nan", 5, 52},
	}
	for _, p := range []string{"{", "}", "(", ")", "[", "]", ";", ",", "=", "<", ">", ".", ":"} {
		expected = append(expected, want{kind: Punct, text: p, line: 6})
	}

	var toks []Token
	for i, exp := range expected {
		tok, err := l.Next()
		require.NoError(t, err, "token %d", i)
		assert.Equal(t, exp.kind, tok.Kind, "token %d", i)
		assert.Equal(t, exp.text, tok.Text, "token %d", i)
		assert.Equal(t, exp.line, tok.Pos.Line, "token %d", i)
		if exp.col != 0 {
			assert.Equal(t, exp.col, tok.Pos.Col, "token %d", i)
		}
		toks = append(toks, tok)
	}
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, EOF, tok.Kind)
	tok, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, EOF, tok.Kind)

	assert.Equal(t, "aAA\né", toks[4].Str.Value)
	assert.Equal(t, "b'", toks[5].Str.Value)
	assert.Equal(t, "?", toks[6].Str.Value)
	assert.Equal(t, big.NewInt(-12), toks[8].Int.Value)
	assert.Equal(t, big.NewInt(31), toks[9].Int.Value)
	assert.Equal(t, ast.Hex, toks[9].Int.Base)
	assert.Equal(t, big.NewInt(-255), toks[10].Int.Value)
	assert.Equal(t, big.NewInt(15), toks[11].Int.Value)
	assert.Equal(t, ast.Octal, toks[11].Int.Base)
	assert.Equal(t, ast.Decimal, toks[12].Int.Base)
	assert.InDelta(t, 1.5, toks[13].Float.Float64(), 0)
	assert.InDelta(t, -0.5, toks[14].Float.Float64(), 0)
	assert.InDelta(t, 1000.0, toks[15].Float.Float64(), 0)
	assert.InDelta(t, 0.02, toks[16].Float.Float64(), 1e-12)
	assert.Equal(t, ast.PosInf, toks[17].Float.Special)
	assert.Equal(t, ast.NegInf, toks[18].Float.Special)
	assert.Equal(t, ast.NaN, toks[19].Float.Special)
}

func TestLexerBigInt(t *testing.T) {
	t.Parallel()

	l := NewLexer("test.proto", []byte("123456789012345678901234567890"))
	tok, err := l.Next()
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.Equal(t, 0, want.Cmp(tok.Int.Value))
}

func TestLexerMarkReset(t *testing.T) {
	t.Parallel()

	l := NewLexer("test.proto", []byte("a b\nc"))
	_, err := l.Next()
	require.NoError(t, err)
	mark := l.Mark()
	b, err := l.Next()
	require.NoError(t, err)
	c, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, "c", c.Text)
	assert.Equal(t, 2, c.Pos.Line)

	l.Reset(mark)
	again, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestLexerErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		input  string
		errMsg string
	}{
		"unterminated-string":  {"\n\"abc", `test.proto:2:1: unterminated string literal, unexpected EOF`},
		"newline-in-string":    {"'abc\n'", `test.proto:1:1: encountered end-of-line before end of string literal`},
		"unterminated-comment": {"a /* abc", `test.proto:1:3: block comment never terminates, unexpected EOF`},
		"invalid-escape":       {`"\z"`, `test.proto:1:1: invalid escape sequence: "\\z"`},
		"missing-hex-escape":   {`"\xg"`, `test.proto:1:1: invalid hex escape: missing digits`},
		"octal-escape-range":   {`"\477"`, `test.proto:1:1: octal escape is out range, must be between 0 and 377: \477`},
		"short-unicode":        {`"\u12"`, `test.proto:1:1: invalid unicode escape: \u12`},
		"multiple-exponents":   {"1e5e6", `test.proto:1:1: multiple exponents in float value: 1e5e6`},
		"missing-exponent":     {"  1e+", `test.proto:1:3: missing exponent digits in float value: 1e+`},
		"bad-octal":            {"019", `test.proto:1:1: invalid digit '9' in octal integer value: 019`},
		"bad-hex":              {"0x1g", `test.proto:1:1: invalid character 'g' in hexadecimal integer value: 0x1g`},
		"empty-hex":            {"0x", `test.proto:1:1: invalid syntax in hexadecimal integer value: 0x`},
		"trailing-letters":     {"123abc", `test.proto:1:1: invalid character 'a' in integer value: 123abc`},
		"unexpected-char":      {"a\n  $", `test.proto:2:3: invalid character '$'`},
		"lone-minus":           {"- 1", `test.proto:1:1: invalid character '-'`},
		"invalid-utf8":         {"a \xff", `test.proto:1:3: invalid UTF-8 encoding`},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			l := NewLexer("test.proto", []byte(tc.input))
			var err error
			for err == nil {
				var tok Token
				tok, err = l.Next()
				if err == nil && tok.Kind == EOF {
					break
				}
			}
			require.Error(t, err)
			assert.Equal(t, tc.errMsg, err.Error())
			assert.Equal(t, reporter.Lexical, reporter.CategoryOf(err))
		})
	}
}
