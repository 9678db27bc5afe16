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

package ast

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ExprKind identifies the variant of an [Expr].
type ExprKind byte

const (
	ExprInvalid ExprKind = iota
	ExprBool
	ExprInt
	ExprFloat
	ExprString
	ExprIdent
	ExprMessage
	ExprRange
	ExprOption
)

var exprKindNames = [...]string{
	ExprInvalid: "invalid",
	ExprBool:    "bool",
	ExprInt:     "int",
	ExprFloat:   "float",
	ExprString:  "string",
	ExprIdent:   "identifier",
	ExprMessage: "message",
	ExprRange:   "range",
	ExprOption:  "option",
}

func (k ExprKind) String() string {
	if int(k) >= len(exprKindNames) {
		return exprKindNames[ExprInvalid]
	}
	return exprKindNames[k]
}

// Expr is a value in a schema file: an option value, a range operand, or an
// option itself. The set of implementations is closed.
type Expr interface {
	Kind() ExprKind
	Pos() SourcePos
	// String renders the expression the way it would be written in a schema
	// file.
	String() string

	isExpr()
}

// BoolLiteral is true or false.
type BoolLiteral struct {
	Value    bool
	Position SourcePos
}

// IntBase records how an integer literal was written.
type IntBase byte

const (
	Decimal IntBase = iota
	Hex
	Octal
)

// IntLiteral is an arbitrary-precision integer literal. Value is never nil
// and carries the sign.
type IntLiteral struct {
	Value    *big.Int
	Base     IntBase
	Position SourcePos
}

// NewInt returns a decimal literal holding v.
func NewInt(v int64, pos SourcePos) *IntLiteral {
	return &IntLiteral{Value: big.NewInt(v), Position: pos}
}

// Int64 returns the value if it fits in an int64.
func (i *IntLiteral) Int64() (int64, bool) {
	if !i.Value.IsInt64() {
		return 0, false
	}
	return i.Value.Int64(), true
}

// Int32 returns the value if it fits in an int32.
func (i *IntLiteral) Int32() (int32, bool) {
	v, ok := i.Int64()
	if !ok || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int32(v), true
}

// FloatSpecial distinguishes finite float literals from the named
// non-finite ones.
type FloatSpecial byte

const (
	Finite FloatSpecial = iota
	PosInf
	NegInf
	NaN
)

// FloatLiteral is a floating-point literal. Value holds the finite value and
// is nil when Special is not [Finite].
type FloatLiteral struct {
	Value    *big.Float
	Special  FloatSpecial
	Position SourcePos
}

// Float64 returns the nearest float64.
func (f *FloatLiteral) Float64() float64 {
	switch f.Special {
	case PosInf:
		return math.Inf(1)
	case NegInf:
		return math.Inf(-1)
	case NaN:
		return math.NaN()
	}
	v, _ := f.Value.Float64()
	return v
}

// StringLiteral is a string literal after escape processing. Adjacent
// literals in the source have already been joined.
type StringLiteral struct {
	Value    string
	Position SourcePos
}

// Identifier is a bare, possibly dotted, name used as a value. In option
// values it names an enum constant.
type Identifier struct {
	Name     string
	Position SourcePos
}

// MessageEntry is one key: value pair of a [MessageLiteral]. Extension keys
// are written in brackets.
type MessageEntry struct {
	Key       string
	Extension bool
	Value     Expr
	Position  SourcePos
}

// MessageLiteral is a braced list of entries, kept in source order.
type MessageLiteral struct {
	Entries  []MessageEntry
	Position SourcePos
}

// Get returns the value of the last entry named key.
func (m *MessageLiteral) Get(key string) (Expr, bool) {
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].Key == key {
			return m.Entries[i].Value, true
		}
	}
	return nil, false
}

// Range is an operand of a reserved or extensions statement.
//
// A single value n is a Range with Min and Max both set and Single true.
// "n to max" has ToMax set and a nil Max. The parser also produces ranges
// with a nil Min, or a nil Max without ToMax, so that the linker can report
// them.
type Range struct {
	Min, Max *IntLiteral
	ToMax    bool
	Single   bool
	Position SourcePos
}

// Option is a name and value pair, as written in an option statement or a
// bracketed option list.
type Option struct {
	Name     OptionName
	Value    Expr
	Position SourcePos
}

// OptionNamePart is one dot-separated component of an option name.
// Extension parts are written in parentheses and may contain dots.
type OptionNamePart struct {
	Name      string
	Extension bool
}

// OptionName is the name of an option, such as "deprecated" or "(a.b).c".
type OptionName []OptionNamePart

// Simple returns the name of a one-part, non-extension option name, or ""
// if the name is anything else.
func (n OptionName) Simple() string {
	if len(n) != 1 || n[0].Extension {
		return ""
	}
	return n[0].Name
}

func (n OptionName) String() string {
	var b strings.Builder
	for i, part := range n {
		if i > 0 {
			b.WriteByte('.')
		}
		if part.Extension {
			b.WriteByte('(')
			b.WriteString(part.Name)
			b.WriteByte(')')
		} else {
			b.WriteString(part.Name)
		}
	}
	return b.String()
}

func (*BoolLiteral) Kind() ExprKind    { return ExprBool }
func (*IntLiteral) Kind() ExprKind     { return ExprInt }
func (*FloatLiteral) Kind() ExprKind   { return ExprFloat }
func (*StringLiteral) Kind() ExprKind  { return ExprString }
func (*Identifier) Kind() ExprKind     { return ExprIdent }
func (*MessageLiteral) Kind() ExprKind { return ExprMessage }
func (*Range) Kind() ExprKind          { return ExprRange }
func (*Option) Kind() ExprKind         { return ExprOption }

func (e *BoolLiteral) Pos() SourcePos    { return e.Position }
func (e *IntLiteral) Pos() SourcePos     { return e.Position }
func (e *FloatLiteral) Pos() SourcePos   { return e.Position }
func (e *StringLiteral) Pos() SourcePos  { return e.Position }
func (e *Identifier) Pos() SourcePos     { return e.Position }
func (e *MessageLiteral) Pos() SourcePos { return e.Position }
func (e *Range) Pos() SourcePos          { return e.Position }
func (e *Option) Pos() SourcePos         { return e.Position }

func (e *BoolLiteral) String() string {
	return strconv.FormatBool(e.Value)
}

func (e *IntLiteral) String() string {
	v := e.Value
	sign := ""
	if v.Sign() < 0 {
		sign = "-"
		v = new(big.Int).Neg(v)
	}
	switch e.Base {
	case Hex:
		return sign + "0x" + v.Text(16)
	case Octal:
		if v.Sign() == 0 {
			return "0"
		}
		return sign + "0" + v.Text(8)
	default:
		return sign + v.Text(10)
	}
}

func (e *FloatLiteral) String() string {
	switch e.Special {
	case PosInf:
		return "inf"
	case NegInf:
		return "-inf"
	case NaN:
		return "nan"
	}
	s := e.Value.Text('g', -1)
	if !strings.ContainsAny(s, ".eE") {
		// Keep the literal a float when it is read back.
		s += ".0"
	}
	return s
}

func (e *StringLiteral) String() string {
	return strconv.Quote(e.Value)
}

func (e *Identifier) String() string {
	return e.Name
}

func (e *MessageLiteral) String() string {
	if len(e.Entries) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{ ")
	for i, entry := range e.Entries {
		if i > 0 {
			b.WriteString(", ")
		}
		if entry.Extension {
			b.WriteString("[" + entry.Key + "]")
		} else {
			b.WriteString(entry.Key)
		}
		if entry.Value.Kind() == ExprMessage {
			b.WriteByte(' ')
		} else {
			b.WriteString(": ")
		}
		b.WriteString(entry.Value.String())
	}
	b.WriteString(" }")
	return b.String()
}

func (e *Range) String() string {
	if e.Single && e.Min != nil {
		return e.Min.String()
	}
	var b strings.Builder
	if e.Min != nil {
		b.WriteString(e.Min.String())
		b.WriteByte(' ')
	}
	b.WriteString("to")
	switch {
	case e.ToMax:
		b.WriteString(" max")
	case e.Max != nil:
		b.WriteString(" " + e.Max.String())
	}
	return b.String()
}

func (e *Option) String() string {
	return e.Name.String() + " = " + e.Value.String()
}

func (*BoolLiteral) isExpr()    {}
func (*IntLiteral) isExpr()     {}
func (*FloatLiteral) isExpr()   {}
func (*StringLiteral) isExpr()  {}
func (*Identifier) isExpr()     {}
func (*MessageLiteral) isExpr() {}
func (*Range) isExpr()          {}
func (*Option) isExpr()         {}
