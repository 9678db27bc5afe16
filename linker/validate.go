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
	"errors"
	"fmt"
	"math"
	"math/big"
	"unicode"
	"unicode/utf8"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/internal/interval"
	"github.com/bufbuild/protoschema/options"
	"github.com/bufbuild/protoschema/reporter"
	"github.com/bufbuild/protoschema/walk"
)

const (
	// MinFieldNumber and MaxFieldNumber bound the numbers a field may use.
	MinFieldNumber = 1
	MaxFieldNumber = 536870911

	// FirstReservedNumber and LastReservedNumber bound the field numbers
	// reserved for the protobuf implementation.
	FirstReservedNumber = 19000
	LastReservedNumber  = 19999
)

func (l *linker) proto3() bool {
	return l.doc.Syntax.Effective() == ast.SyntaxProto3
}

func (l *linker) validate() error {
	for b := range l.doc.Bodies() {
		var err error
		switch b.Kind {
		case ast.KindDocument:
			err = l.checkOptions(b, options.ScopeFile)
		case ast.KindMessage, ast.KindGroup:
			err = l.validateMessage(b)
		case ast.KindEnum:
			err = l.validateEnum(b)
		case ast.KindOneof:
			err = l.validateOneof(b)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// checkOptions checks the option statements of b, including options that a
// later statement overrides.
func (l *linker) checkOptions(b *ast.Body, scope options.Scope) error {
	for opt := range b.OptionStmts() {
		if _, err := l.known.Check(scope, opt); err != nil {
			return reporter.Error(reporter.Type, opt.Position, err)
		}
	}
	return nil
}

// ranges holds the reserved and extension ranges of a message or enum.
type ranges struct {
	reserved   interval.Set[int64, *ast.Range]
	extensions interval.Set[int64, *ast.Range]
	names      map[string]ast.SourcePos
}

func (l *linker) collectRanges(b *ast.Body, lo, hi int64) (*ranges, error) {
	rs := &ranges{names: make(map[string]ast.SourcePos)}
	for decl := range b.RangeDecls() {
		if decl.Extensions {
			if l.proto3() {
				return nil, reporter.Errorf(reporter.Semantic, decl.Position, "extension ranges are not allowed in proto3")
			}
			for _, opt := range decl.Options.All() {
				if _, err := l.known.Check(options.ScopeExtensionRange, opt); err != nil {
					return nil, reporter.Error(reporter.Type, opt.Position, err)
				}
			}
		}
		for _, name := range decl.Names {
			if prev, ok := rs.names[name.Name]; ok {
				return nil, reporter.Errorf(reporter.Semantic, name.Position, "name %q is already reserved at %v", name.Name, prev)
			}
			rs.names[name.Name] = name.Position
		}
		for _, r := range decl.Ranges {
			if err := rs.add(r, decl.Extensions, lo, hi); err != nil {
				return nil, err
			}
		}
	}
	return rs, nil
}

func (rs *ranges) add(r *ast.Range, extension bool, lo, hi int64) error {
	what, set, other, otherWhat := "reserved", &rs.reserved, &rs.extensions, "extension"
	if extension {
		what, set, other, otherWhat = "extension", &rs.extensions, &rs.reserved, "reserved"
	}
	start, end, err := rangeBounds(r, what, lo, hi)
	if err != nil {
		return err
	}
	if existing, ok := set.Insert(start, end, r); !ok {
		return reporter.Errorf(reporter.Semantic, r.Position, "%s range %v overlaps with %s range %v", what, r, what, existing.Value)
	}
	if existing, ok := other.Overlap(start, end); ok {
		return reporter.Errorf(reporter.Semantic, r.Position, "%s range %v overlaps with %s range %v", what, r, otherWhat, existing.Value)
	}
	return nil
}

func rangeBounds(r *ast.Range, what string, lo, hi int64) (int64, int64, error) {
	if r.Min == nil {
		return 0, 0, reporter.Errorf(reporter.Semantic, r.Position, "%s range %v is missing its start", what, r)
	}
	if !r.Single && !r.ToMax && r.Max == nil {
		return 0, 0, reporter.Errorf(reporter.Semantic, r.Position, "%s range %v is missing its end", what, r)
	}
	bound := func(lit *ast.IntLiteral) (int64, error) {
		v, ok := lit.Int64()
		if !ok || v < lo || v > hi {
			return 0, reporter.Errorf(reporter.Semantic, lit.Position, "%s range bound %v is out of range (%d to %d)", what, lit, lo, hi)
		}
		return v, nil
	}
	start, err := bound(r.Min)
	if err != nil {
		return 0, 0, err
	}
	end := hi
	if !r.ToMax {
		if end, err = bound(r.Max); err != nil {
			return 0, 0, err
		}
	}
	if start > end {
		return 0, 0, reporter.Errorf(reporter.Semantic, r.Position, "%s range %v has a start greater than its end", what, r)
	}
	return start, end, nil
}

// checkNames reports declarations in b that share a name. The members of a
// oneof share the name space of the enclosing message. Group bodies are
// skipped since their fields carry their names.
func checkNames(b *ast.Body) error {
	seen := make(map[string]ast.SourcePos)
	check := func(name string, pos ast.SourcePos) error {
		if prev, ok := seen[name]; ok {
			return reporter.Errorf(reporter.Semantic, pos, "name %q is already defined in %s %q at %v", name, b.Kind, b.FullName(), prev)
		}
		seen[name] = pos
		return nil
	}
	for _, s := range b.Stmts() {
		var err error
		switch s.Kind() {
		case ast.StmtField:
			f := b.Field(s)
			err = check(f.Name, f.Position)
		case ast.StmtConstant:
			c := b.Constant(s)
			err = check(c.Name, c.Position)
		case ast.StmtBody:
			nested := b.Nested(s)
			switch nested.Kind {
			case ast.KindGroup:
				// Named by its field; the symbol table catches clashes
				// with other nested types.
			case ast.KindOneof:
				err = check(nested.Name, nested.Position)
				for f := range nested.Fields() {
					if err != nil {
						break
					}
					err = check(f.Name, f.Position)
				}
			default:
				err = check(nested.Name, nested.Position)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *linker) validateMessage(b *ast.Body) error {
	if err := l.checkOptions(b, options.ScopeMessage); err != nil {
		return err
	}
	if b.Kind == ast.KindGroup {
		if r, _ := utf8.DecodeRuneInString(b.Name); !unicode.IsUpper(r) {
			return reporter.Errorf(reporter.Syntax, b.Position, "group name %q must start with a capital letter", b.Name)
		}
	}
	if err := checkNames(b); err != nil {
		return err
	}
	rs, err := l.collectRanges(b, MinFieldNumber, MaxFieldNumber)
	if err != nil {
		return err
	}
	numbers := make(map[int32]*ast.Field)
	return walk.Fields(b, func(f *ast.Field, oneof *ast.Body) error {
		if err := l.validateField(f, oneof); err != nil {
			return err
		}
		if other, ok := numbers[f.Number]; ok {
			return reporter.Errorf(reporter.Semantic, f.Index.Position, "field %q: number %d is already used by field %q", f.Name, f.Number, other.Name)
		}
		numbers[f.Number] = f
		if _, ok := rs.reserved.Get(int64(f.Number)); ok {
			return reporter.Errorf(reporter.Semantic, f.Index.Position, "field %q: number %d is reserved", f.Name, f.Number)
		}
		if _, ok := rs.names[f.Name]; ok {
			return reporter.Errorf(reporter.Semantic, f.Position, "field %q: name is reserved", f.Name)
		}
		if ext, ok := rs.extensions.Get(int64(f.Number)); ok {
			return reporter.Errorf(reporter.Semantic, f.Index.Position, "field %q: number %d is inside extension range %v", f.Name, f.Number, ext.Value)
		}
		return nil
	})
}

func (l *linker) validateField(f *ast.Field, oneof *ast.Body) error {
	if name, ok := unresolvedName(f.Type); ok {
		return reporter.Errorf(reporter.Type, f.TypePos, "field %q: unknown type %s", f.Name, name)
	}
	n, ok := f.Index.Int32()
	if !ok || n < MinFieldNumber || n > MaxFieldNumber {
		return reporter.Errorf(reporter.Semantic, f.Index.Position, "field %q: number %v is out of range (%d to %d)", f.Name, f.Index, MinFieldNumber, MaxFieldNumber)
	}
	if n >= FirstReservedNumber && n <= LastReservedNumber {
		return reporter.Errorf(reporter.Semantic, f.Index.Position, "field %q: number %d is in the range reserved for the protobuf implementation (%d to %d)", f.Name, n, FirstReservedNumber, LastReservedNumber)
	}
	f.Number = n

	if m, ok := f.Type.(ast.MapRef); ok {
		if key, ok := m.Key.(ast.Primitive); !ok || !key.Scalar.IsValidMapKey() {
			return reporter.Errorf(reporter.Type, f.TypePos, "field %q: invalid map key type %v: must be an integral, bool or string type", f.Name, m.Key)
		}
		if _, ok := m.Value.(ast.MapRef); ok {
			return reporter.Errorf(reporter.Type, f.TypePos, "field %q: map value type cannot be a map", f.Name)
		}
	}
	if oneof != nil {
		switch {
		case f.Modifier == ast.ModifierRepeated:
			return reporter.Errorf(reporter.Semantic, f.Position, "oneof field %q cannot be repeated", f.Name)
		case f.Modifier.IsPresence():
			return reporter.Errorf(reporter.Semantic, f.Position, "oneof field %q cannot have the %q modifier", f.Name, f.Modifier)
		case f.IsMap():
			return reporter.Errorf(reporter.Semantic, f.TypePos, "oneof field %q cannot be a map", f.Name)
		}
	}
	return l.checkFieldOptions(f)
}

func unresolvedName(ref ast.TypeRef) (string, bool) {
	switch ref := ref.(type) {
	case ast.Unresolved:
		return ref.Name, true
	case ast.MapRef:
		if name, ok := unresolvedName(ref.Key); ok {
			return name, true
		}
		return unresolvedName(ref.Value)
	}
	return "", false
}

func (l *linker) checkFieldOptions(f *ast.Field) error {
	for _, opt := range f.Options.All() {
		if _, err := l.known.Check(options.ScopeField, opt); err != nil {
			return reporter.Error(reporter.Type, opt.Position, fmt.Errorf("field %q: %w", f.Name, err))
		}
		var err error
		switch opt.Name.String() {
		case "default":
			err = l.checkDefault(f, opt)
		case "packed":
			err = checkPacked(f, opt)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkPacked(f *ast.Field, opt *ast.Option) error {
	p, ok := f.Type.(ast.Primitive)
	if f.Modifier != ast.ModifierRepeated || !ok || !p.Scalar.IsPackable() {
		return reporter.Errorf(reporter.Type, opt.Position, "field %q: packed option is only allowed on repeated fields of scalar numeric type", f.Name)
	}
	lit, ok := opt.Value.(*ast.BoolLiteral)
	if !ok {
		return reporter.Errorf(reporter.Type, opt.Value.Pos(), "field %q: packed option must be true or false", f.Name)
	}
	f.Packed = lit.Value
	return nil
}

func (l *linker) checkDefault(f *ast.Field, opt *ast.Option) error {
	if l.proto3() {
		return reporter.Errorf(reporter.Semantic, opt.Position, "field %q: default values are not allowed in proto3", f.Name)
	}
	if f.Modifier == ast.ModifierRepeated {
		return reporter.Errorf(reporter.Type, opt.Position, "field %q: default value cannot be set on a repeated field", f.Name)
	}
	var err error
	switch t := f.Type.(type) {
	case ast.Primitive:
		err = checkScalarValue(t.Scalar, opt.Value)
	case ast.EnumRef:
		err = checkEnumValue(t.Target, opt.Value)
	default:
		err = errors.New("default value cannot be set on a message field")
	}
	if err != nil {
		return reporter.Error(reporter.Type, opt.Value.Pos(), fmt.Errorf("field %q: %w", f.Name, err))
	}
	return nil
}

var (
	minInt64  = big.NewInt(math.MinInt64)
	maxInt64  = big.NewInt(math.MaxInt64)
	maxUint64 = new(big.Int).SetUint64(math.MaxUint64)
	minInt32  = big.NewInt(math.MinInt32)
	maxInt32  = big.NewInt(math.MaxInt32)
	maxUint32 = big.NewInt(math.MaxUint32)
	zero      = new(big.Int)
)

// checkScalarValue reports whether value is a valid value of the given
// scalar kind.
func checkScalarValue(kind ast.ScalarKind, value ast.Expr) error {
	invalid := fmt.Errorf("invalid default value %v for type %v", value, kind)
	switch {
	case kind.IsInt():
		lit, ok := value.(*ast.IntLiteral)
		if !ok {
			return invalid
		}
		lo, hi := minInt32, maxInt32
		switch {
		case kind.IsUnsigned() && kind.Is64Bit():
			lo, hi = zero, maxUint64
		case kind.IsUnsigned():
			lo, hi = zero, maxUint32
		case kind.Is64Bit():
			lo, hi = minInt64, maxInt64
		}
		if lit.Value.Cmp(lo) < 0 || lit.Value.Cmp(hi) > 0 {
			return fmt.Errorf("default value %v is out of range for type %v", value, kind)
		}
	case kind.IsFloat():
		if k := value.Kind(); k != ast.ExprInt && k != ast.ExprFloat {
			return invalid
		}
	case kind == ast.ScalarBool:
		if value.Kind() != ast.ExprBool {
			return invalid
		}
	case kind == ast.ScalarString:
		lit, ok := value.(*ast.StringLiteral)
		if !ok {
			return invalid
		}
		if !utf8.ValidString(lit.Value) {
			return errors.New("default value for type string is not valid UTF-8")
		}
	case kind == ast.ScalarBytes:
		if value.Kind() != ast.ExprString {
			return invalid
		}
	}
	return nil
}

func checkEnumValue(enum *ast.Body, value ast.Expr) error {
	ident, ok := value.(*ast.Identifier)
	if !ok {
		return fmt.Errorf("invalid default value %v for enum %s", value, enum.FullName())
	}
	if s, ok := enum.Lookup(ident.Name); !ok || s.Kind() != ast.StmtConstant {
		return fmt.Errorf("enum %s has no value named %s", enum.FullName(), ident.Name)
	}
	return nil
}

func (l *linker) validateEnum(b *ast.Body) error {
	if err := l.checkOptions(b, options.ScopeEnum); err != nil {
		return err
	}
	if err := checkNames(b); err != nil {
		return err
	}
	rs, err := l.collectRanges(b, math.MinInt32, math.MaxInt32)
	if err != nil {
		return err
	}
	allowAlias := false
	if opt, ok := b.Options.Get("allow_alias"); ok {
		if lit, ok := opt.Value.(*ast.BoolLiteral); ok {
			allowAlias = lit.Value
		}
	}

	numbers := make(map[int32]*ast.EnumConstant)
	aliased := false
	count := 0
	for c := range b.Constants() {
		n, ok := c.Value.Int32()
		if !ok {
			return reporter.Errorf(reporter.Semantic, c.Value.Position, "enum value %q: %v is out of range for int32", c.Name, c.Value)
		}
		c.Number = n
		if count == 0 && n != 0 && l.proto3() {
			return reporter.Errorf(reporter.Semantic, c.Value.Position, "enum %q: the first value must be zero in proto3", b.FullName())
		}
		count++
		if other, ok := numbers[n]; ok {
			if !allowAlias {
				return reporter.Errorf(reporter.Semantic, c.Value.Position, "enum value %q: number %d is already used by %q; set option allow_alias = true to allow aliases", c.Name, n, other.Name)
			}
			aliased = true
		} else {
			numbers[n] = c
		}
		if _, ok := rs.reserved.Get(int64(n)); ok {
			return reporter.Errorf(reporter.Semantic, c.Value.Position, "enum value %q: number %d is reserved", c.Name, n)
		}
		if _, ok := rs.names[c.Name]; ok {
			return reporter.Errorf(reporter.Semantic, c.Position, "enum value %q: name is reserved", c.Name)
		}
		for _, opt := range c.Options.All() {
			if _, err := l.known.Check(options.ScopeEnumValue, opt); err != nil {
				return reporter.Error(reporter.Type, opt.Position, fmt.Errorf("enum value %q: %w", c.Name, err))
			}
		}
	}
	if count == 0 {
		return reporter.Errorf(reporter.Semantic, b.Position, "enum %q must declare at least one value", b.FullName())
	}
	if allowAlias && !aliased {
		opt, _ := b.Options.Get("allow_alias")
		return reporter.Errorf(reporter.Semantic, opt.Position, "enum %q: allow_alias is true but no values are aliases", b.FullName())
	}
	return nil
}

func (l *linker) validateOneof(b *ast.Body) error {
	if err := l.checkOptions(b, options.ScopeOneof); err != nil {
		return err
	}
	for range b.Fields() {
		return nil
	}
	return reporter.Errorf(reporter.Semantic, b.Position, "oneof %q must contain at least one field", b.Name)
}
