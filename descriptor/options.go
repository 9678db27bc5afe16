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

package descriptor

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protoschema/ast"
)

// setOptions stores opts in an options message. Options naming a field of
// the message are set on it; all others become uninterpreted options.
func setOptions(msg proto.Message, opts []*ast.Option) error {
	m := msg.ProtoReflect()
	fields := m.Descriptor().Fields()
	for _, opt := range opts {
		fd := fields.ByName(protoreflect.Name(opt.Name.Simple()))
		if fd == nil || fd.Cardinality() == protoreflect.Repeated || fd.Kind() == protoreflect.MessageKind {
			appendUninterpreted(m, opt)
			continue
		}
		v, err := fieldValue(fd, opt.Value)
		if err != nil {
			return fmt.Errorf("descriptor: option %s: %w", opt.Name, err)
		}
		m.Set(fd, v)
	}
	return nil
}

func fieldValue(fd protoreflect.FieldDescriptor, value ast.Expr) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		if lit, ok := value.(*ast.BoolLiteral); ok {
			return protoreflect.ValueOfBool(lit.Value), nil
		}
	case protoreflect.StringKind:
		if lit, ok := value.(*ast.StringLiteral); ok {
			return protoreflect.ValueOfString(lit.Value), nil
		}
	case protoreflect.BytesKind:
		if lit, ok := value.(*ast.StringLiteral); ok {
			return protoreflect.ValueOfBytes([]byte(lit.Value)), nil
		}
	case protoreflect.EnumKind:
		if ident, ok := value.(*ast.Identifier); ok {
			if ev := fd.Enum().Values().ByName(protoreflect.Name(ident.Name)); ev != nil {
				return protoreflect.ValueOfEnum(ev.Number()), nil
			}
		}
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		if lit, ok := value.(*ast.IntLiteral); ok {
			if v, ok := lit.Int32(); ok {
				return protoreflect.ValueOfInt32(v), nil
			}
		}
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		if lit, ok := value.(*ast.IntLiteral); ok {
			if v, ok := lit.Int64(); ok {
				return protoreflect.ValueOfInt64(v), nil
			}
		}
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		if lit, ok := value.(*ast.IntLiteral); ok && lit.Value.IsUint64() && lit.Value.Uint64() <= math.MaxUint32 {
			return protoreflect.ValueOfUint32(uint32(lit.Value.Uint64())), nil
		}
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		if lit, ok := value.(*ast.IntLiteral); ok && lit.Value.IsUint64() {
			return protoreflect.ValueOfUint64(lit.Value.Uint64()), nil
		}
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		var f float64
		switch lit := value.(type) {
		case *ast.FloatLiteral:
			f = lit.Float64()
		case *ast.IntLiteral:
			f, _ = new(big.Float).SetInt(lit.Value).Float64()
		default:
			return protoreflect.Value{}, fmt.Errorf("cannot use %s value %v for %v field", value.Kind(), value, fd.Kind())
		}
		if fd.Kind() == protoreflect.FloatKind {
			return protoreflect.ValueOfFloat32(float32(f)), nil
		}
		return protoreflect.ValueOfFloat64(f), nil
	}
	return protoreflect.Value{}, fmt.Errorf("cannot use %s value %v for %v field", value.Kind(), value, fd.Kind())
}

func appendUninterpreted(m protoreflect.Message, opt *ast.Option) {
	u := &descriptorpb.UninterpretedOption{}
	for _, part := range opt.Name {
		u.Name = append(u.Name, &descriptorpb.UninterpretedOption_NamePart{
			NamePart:    proto.String(part.Name),
			IsExtension: proto.Bool(part.Extension),
		})
	}
	switch v := opt.Value.(type) {
	case *ast.IntLiteral:
		switch {
		case v.Value.Sign() < 0 && v.Value.IsInt64():
			u.NegativeIntValue = proto.Int64(v.Value.Int64())
		case v.Value.IsUint64():
			u.PositiveIntValue = proto.Uint64(v.Value.Uint64())
		default:
			f, _ := new(big.Float).SetInt(v.Value).Float64()
			u.DoubleValue = proto.Float64(f)
		}
	case *ast.FloatLiteral:
		u.DoubleValue = proto.Float64(v.Float64())
	case *ast.StringLiteral:
		u.StringValue = []byte(v.Value)
	case *ast.Identifier:
		u.IdentifierValue = proto.String(v.Name)
	case *ast.BoolLiteral:
		u.IdentifierValue = proto.String(v.String())
	case *ast.MessageLiteral:
		agg := v.String()
		agg = strings.TrimSuffix(strings.TrimPrefix(agg, "{"), "}")
		u.AggregateValue = proto.String(strings.TrimSpace(agg))
	}
	fd := m.Descriptor().Fields().ByName("uninterpreted_option")
	list := m.Mutable(fd).List()
	list.Append(protoreflect.ValueOfMessage(u.ProtoReflect()))
}
