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

// Package descriptor converts attributed schema trees into descriptor
// protos, the form protobuf code generators and runtimes consume.
//
// Map fields get synthesized entry messages, groups become nested messages
// referenced with the group type, and reserved and extension ranges use the
// exclusive end bounds of descriptor.proto. Options known to descriptor.proto
// are set on the typed options messages; extension options, which have no
// field to land in, are kept as uninterpreted options.
package descriptor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/internal/cases"
	"github.com/bufbuild/protoschema/linker"
	"github.com/bufbuild/protoschema/walk"
)

// ErrNotAttributed is returned when converting a document that has not been
// linked.
var ErrNotAttributed = errors.New("document is not attributed")

var scalarTypes = map[ast.ScalarKind]descriptorpb.FieldDescriptorProto_Type{
	ast.ScalarInt32:    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	ast.ScalarInt64:    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	ast.ScalarUInt32:   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	ast.ScalarUInt64:   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	ast.ScalarSInt32:   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	ast.ScalarSInt64:   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
	ast.ScalarFixed32:  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	ast.ScalarFixed64:  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	ast.ScalarSFixed32: descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	ast.ScalarSFixed64: descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	ast.ScalarFloat:    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	ast.ScalarDouble:   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	ast.ScalarBool:     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	ast.ScalarString:   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	ast.ScalarBytes:    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
}

// ToFileDescriptorProto converts an attributed document.
func ToFileDescriptorProto(doc *ast.Document) (*descriptorpb.FileDescriptorProto, error) {
	if !doc.Attributed() {
		return nil, fmt.Errorf("descriptor: %s: %w", doc.Location(), ErrNotAttributed)
	}
	fd := &descriptorpb.FileDescriptorProto{Name: proto.String(doc.Location())}
	if doc.Package != "" {
		fd.Package = proto.String(doc.Package)
	}
	if doc.Syntax != ast.SyntaxNone {
		fd.Syntax = proto.String(doc.Syntax.String())
	}
	for i, imp := range doc.Imports() {
		fd.Dependency = append(fd.Dependency, imp.Path)
		if imp.Public {
			fd.PublicDependency = append(fd.PublicDependency, int32(i))
		}
		if imp.Weak {
			fd.WeakDependency = append(fd.WeakDependency, int32(i))
		}
	}
	root := doc.Root()
	if root.Options.Len() > 0 {
		fd.Options = &descriptorpb.FileOptions{}
		if err := setOptions(fd.Options, root.Options.All()); err != nil {
			return nil, err
		}
	}
	for b := range root.Children() {
		switch b.Kind {
		case ast.KindMessage:
			msg, err := convertMessage(b)
			if err != nil {
				return nil, err
			}
			fd.MessageType = append(fd.MessageType, msg)
		case ast.KindEnum:
			enum, err := convertEnum(b)
			if err != nil {
				return nil, err
			}
			fd.EnumType = append(fd.EnumType, enum)
		}
	}
	return fd, nil
}

func convertMessage(b *ast.Body) (*descriptorpb.DescriptorProto, error) {
	msg := &descriptorpb.DescriptorProto{Name: proto.String(b.Name)}
	if b.Options.Len() > 0 {
		msg.Options = &descriptorpb.MessageOptions{}
		if err := setOptions(msg.Options, b.Options.All()); err != nil {
			return nil, err
		}
	}

	oneofIndex := make(map[*ast.Body]int32)
	var nested []*ast.Body
	for _, s := range b.Stmts() {
		child := b.Nested(s)
		if child == nil {
			continue
		}
		switch child.Kind {
		case ast.KindOneof:
			oneofIndex[child] = int32(len(msg.OneofDecl))
			oneof := &descriptorpb.OneofDescriptorProto{Name: proto.String(child.Name)}
			if child.Options.Len() > 0 {
				oneof.Options = &descriptorpb.OneofOptions{}
				if err := setOptions(oneof.Options, child.Options.All()); err != nil {
					return nil, err
				}
			}
			msg.OneofDecl = append(msg.OneofDecl, oneof)
			for group := range child.Children() {
				nested = append(nested, group)
			}
		default:
			nested = append(nested, child)
		}
	}

	err := walk.Fields(b, func(f *ast.Field, oneof *ast.Body) error {
		fld, err := convertField(b, f)
		if err != nil {
			return err
		}
		if oneof != nil {
			fld.OneofIndex = proto.Int32(oneofIndex[oneof])
		}
		msg.Field = append(msg.Field, fld)
		if m, ok := f.Type.(ast.MapRef); ok {
			entry, err := mapEntry(b, f, m)
			if err != nil {
				return err
			}
			msg.NestedType = append(msg.NestedType, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, child := range nested {
		switch child.Kind {
		case ast.KindMessage, ast.KindGroup:
			m, err := convertMessage(child)
			if err != nil {
				return nil, err
			}
			msg.NestedType = append(msg.NestedType, m)
		case ast.KindEnum:
			e, err := convertEnum(child)
			if err != nil {
				return nil, err
			}
			msg.EnumType = append(msg.EnumType, e)
		}
	}

	for decl := range b.RangeDecls() {
		msg.ReservedName = append(msg.ReservedName, reservedNames(decl)...)
		for _, r := range decl.Ranges {
			start, end := bounds(r, linker.MaxFieldNumber)
			if !decl.Extensions {
				msg.ReservedRange = append(msg.ReservedRange, &descriptorpb.DescriptorProto_ReservedRange{
					Start: proto.Int32(start),
					End:   proto.Int32(end + 1),
				})
				continue
			}
			rng := &descriptorpb.DescriptorProto_ExtensionRange{
				Start: proto.Int32(start),
				End:   proto.Int32(end + 1),
			}
			if decl.Options.Len() > 0 {
				rng.Options = &descriptorpb.ExtensionRangeOptions{}
				if err := setOptions(rng.Options, decl.Options.All()); err != nil {
					return nil, err
				}
			}
			msg.ExtensionRange = append(msg.ExtensionRange, rng)
		}
	}
	return msg, nil
}

func reservedNames(decl *ast.RangeDecl) []string {
	names := make([]string, len(decl.Names))
	for i, name := range decl.Names {
		names[i] = name.Name
	}
	return names
}

// bounds returns the inclusive bounds of a range the linker has checked.
func bounds(r *ast.Range, maxValue int32) (int32, int32) {
	start, _ := r.Min.Int32()
	if r.ToMax {
		return start, maxValue
	}
	end, _ := r.Max.Int32()
	return start, end
}

func convertField(msg *ast.Body, f *ast.Field) (*descriptorpb.FieldDescriptorProto, error) {
	fld := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(f.Name),
		Number:   proto.Int32(f.Number),
		JsonName: proto.String(cases.JSONName(f.Name)),
	}
	switch f.Modifier {
	case ast.ModifierRequired:
		fld.Label = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED.Enum()
	case ast.ModifierRepeated:
		fld.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	default:
		fld.Label = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	}
	switch t := f.Type.(type) {
	case ast.Primitive:
		fld.Type = scalarTypes[t.Scalar].Enum()
	case ast.EnumRef:
		fld.Type = descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum()
		fld.TypeName = proto.String(t.String())
	case ast.MessageRef:
		fld.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		fld.TypeName = proto.String(t.String())
	case ast.GroupRef:
		fld.Type = descriptorpb.FieldDescriptorProto_TYPE_GROUP.Enum()
		fld.TypeName = proto.String("." + t.Target.FullName())
	case ast.MapRef:
		fld.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		fld.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		fld.TypeName = proto.String("." + msg.FullName() + "." + cases.MapEntryName(f.Name))
	default:
		return nil, fmt.Errorf("descriptor: field %q has unresolved type %v", f.Name, f.Type)
	}

	var opts []*ast.Option
	for _, opt := range f.Options.All() {
		switch opt.Name.String() {
		case "default":
			fld.DefaultValue = proto.String(defaultValue(opt.Value, f.Type))
		case "json_name":
			if lit, ok := opt.Value.(*ast.StringLiteral); ok {
				fld.JsonName = proto.String(lit.Value)
			}
		default:
			opts = append(opts, opt)
		}
	}
	if len(opts) > 0 {
		fld.Options = &descriptorpb.FieldOptions{}
		if err := setOptions(fld.Options, opts); err != nil {
			return nil, err
		}
	}
	return fld, nil
}

func mapEntry(msg *ast.Body, f *ast.Field, m ast.MapRef) (*descriptorpb.DescriptorProto, error) {
	entry := &descriptorpb.DescriptorProto{
		Name:    proto.String(cases.MapEntryName(f.Name)),
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}
	for i, part := range []struct {
		name string
		ref  ast.TypeRef
	}{{"key", m.Key}, {"value", m.Value}} {
		fld, err := convertField(msg, &ast.Field{Name: part.name, Number: int32(i + 1), Type: part.ref})
		if err != nil {
			return nil, err
		}
		entry.Field = append(entry.Field, fld)
	}
	return entry, nil
}

func convertEnum(b *ast.Body) (*descriptorpb.EnumDescriptorProto, error) {
	enum := &descriptorpb.EnumDescriptorProto{Name: proto.String(b.Name)}
	if b.Options.Len() > 0 {
		enum.Options = &descriptorpb.EnumOptions{}
		if err := setOptions(enum.Options, b.Options.All()); err != nil {
			return nil, err
		}
	}
	for c := range b.Constants() {
		value := &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(c.Name),
			Number: proto.Int32(c.Number),
		}
		if c.Options.Len() > 0 {
			value.Options = &descriptorpb.EnumValueOptions{}
			if err := setOptions(value.Options, c.Options.All()); err != nil {
				return nil, err
			}
		}
		enum.Value = append(enum.Value, value)
	}
	for decl := range b.RangeDecls() {
		enum.ReservedName = append(enum.ReservedName, reservedNames(decl)...)
		for _, r := range decl.Ranges {
			start, end := bounds(r, math.MaxInt32)
			// Enum reserved ranges are inclusive.
			enum.ReservedRange = append(enum.ReservedRange, &descriptorpb.EnumDescriptorProto_EnumReservedRange{
				Start: proto.Int32(start),
				End:   proto.Int32(end),
			})
		}
	}
	return enum, nil
}

// defaultValue renders a default the way descriptor.proto stores it.
func defaultValue(value ast.Expr, typ ast.TypeRef) string {
	switch v := value.(type) {
	case *ast.StringLiteral:
		if p, ok := typ.(ast.Primitive); ok && p.Scalar == ast.ScalarBytes {
			return cEscape(v.Value)
		}
		return v.Value
	case *ast.Identifier:
		return v.Name
	case *ast.BoolLiteral:
		return strconv.FormatBool(v.Value)
	case *ast.IntLiteral:
		return v.Value.String()
	case *ast.FloatLiteral:
		switch v.Special {
		case ast.PosInf:
			return "inf"
		case ast.NegInf:
			return "-inf"
		case ast.NaN:
			return "nan"
		}
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	default:
		return value.String()
	}
}

// cEscape escapes bytes the way protoc writes bytes defaults.
func cEscape(s string) string {
	var b strings.Builder
	for i := range len(s) {
		c := s[i]
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '"':
			b.WriteString(`\"`)
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		default:
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				fmt.Fprintf(&b, `\%03o`, c)
			}
		}
	}
	return b.String()
}
