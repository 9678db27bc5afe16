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

package descriptor_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/descriptor"
	"github.com/bufbuild/protoschema/linker"
	"github.com/bufbuild/protoschema/options"
	"github.com/bufbuild/protoschema/parser"
)

const source = `
syntax = "proto2";
package shop.v1;

option go_package = "example.com/shop/v1";
option optimize_for = SPEED;
option (shop.annotation) = { tag: "a" };

message Cart {
  option deprecated = true;
  required string cart_id = 1;
  map<string, Line> lines = 2;
  repeated sint64 deltas = 3 [packed = true];
  optional Currency currency = 4 [default = USD];
  optional double discount = 5 [default = -inf];
  optional bytes token = 6 [default = "\x01\n"];
  optional string note = 7 [json_name = "memo", default = "none"];
  oneof owner {
    string user = 8;
    group Guest = 9 {
      optional string email = 1;
    }
  }
  message Line {
    optional uint32 quantity = 1 [deprecated = true];
  }
  reserved 10 to 12, 20;
  reserved "old";
  extensions 100 to max;
}

enum Currency {
  USD = 0;
  EUR = 1;
  reserved 5 to 7;
}
`

func compile(t *testing.T) *descriptorpb.FileDescriptorProto {
	t.Helper()
	doc, err := parser.Parse("shop.proto", strings.NewReader(source), nil, parser.Options{})
	require.NoError(t, err)
	known := options.Default()
	known.Add(options.Option{Name: "(shop.annotation)", Kind: options.KindMessage, Scopes: options.ScopeFile})
	require.NoError(t, linker.Link(context.Background(), doc, nil, linker.Options{Known: known}))
	fd, err := descriptor.ToFileDescriptorProto(doc)
	require.NoError(t, err)
	return fd
}

func TestToFileDescriptorProto(t *testing.T) {
	t.Parallel()

	fd := compile(t)
	assert.Equal(t, "shop.proto", fd.GetName())
	assert.Equal(t, "shop.v1", fd.GetPackage())
	assert.Equal(t, "proto2", fd.GetSyntax())
	assert.Equal(t, "example.com/shop/v1", fd.GetOptions().GetGoPackage())
	assert.Equal(t, descriptorpb.FileOptions_SPEED, fd.GetOptions().GetOptimizeFor())
	require.Len(t, fd.GetOptions().GetUninterpretedOption(), 1)
	annotation := fd.GetOptions().GetUninterpretedOption()[0]
	assert.Equal(t, "shop.annotation", annotation.GetName()[0].GetNamePart())
	assert.True(t, annotation.GetName()[0].GetIsExtension())
	assert.Equal(t, `tag: "a"`, annotation.GetAggregateValue())

	require.Len(t, fd.GetMessageType(), 1)
	cart := fd.GetMessageType()[0]
	assert.True(t, cart.GetOptions().GetDeprecated())

	fields := make(map[string]*descriptorpb.FieldDescriptorProto)
	for _, f := range cart.GetField() {
		fields[f.GetName()] = f
	}
	assert.Equal(t, "cartId", fields["cart_id"].GetJsonName())
	assert.Equal(t, descriptorpb.FieldDescriptorProto_LABEL_REQUIRED, fields["cart_id"].GetLabel())

	lines := fields["lines"]
	assert.Equal(t, descriptorpb.FieldDescriptorProto_LABEL_REPEATED, lines.GetLabel())
	assert.Equal(t, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, lines.GetType())
	assert.Equal(t, ".shop.v1.Cart.LinesEntry", lines.GetTypeName())

	assert.Equal(t, descriptorpb.FieldDescriptorProto_TYPE_SINT64, fields["deltas"].GetType())
	assert.True(t, fields["deltas"].GetOptions().GetPacked())
	assert.Equal(t, "USD", fields["currency"].GetDefaultValue())
	assert.Equal(t, ".shop.v1.Currency", fields["currency"].GetTypeName())
	assert.Equal(t, "-inf", fields["discount"].GetDefaultValue())
	assert.Equal(t, `\001\n`, fields["token"].GetDefaultValue())
	assert.Equal(t, "memo", fields["note"].GetJsonName())
	assert.Equal(t, "none", fields["note"].GetDefaultValue())
	assert.Nil(t, fields["note"].GetOptions())

	assert.Equal(t, int32(0), fields["user"].GetOneofIndex())
	guest := fields["guest"]
	assert.Equal(t, descriptorpb.FieldDescriptorProto_TYPE_GROUP, guest.GetType())
	assert.Equal(t, ".shop.v1.Cart.Guest", guest.GetTypeName())
	assert.Equal(t, int32(0), guest.GetOneofIndex())
	require.Len(t, cart.GetOneofDecl(), 1)
	assert.Equal(t, "owner", cart.GetOneofDecl()[0].GetName())

	var nested []string
	for _, m := range cart.GetNestedType() {
		nested = append(nested, m.GetName())
	}
	assert.Equal(t, []string{"LinesEntry", "Guest", "Line"}, nested)
	entry := cart.GetNestedType()[0]
	assert.True(t, entry.GetOptions().GetMapEntry())
	assert.Equal(t, ".shop.v1.Cart.Line", entry.GetField()[1].GetTypeName())

	assert.Equal(t, []string{"old"}, cart.GetReservedName())
	require.Len(t, cart.GetReservedRange(), 2)
	assert.Equal(t, int32(10), cart.GetReservedRange()[0].GetStart())
	assert.Equal(t, int32(13), cart.GetReservedRange()[0].GetEnd())
	require.Len(t, cart.GetExtensionRange(), 1)
	assert.Equal(t, int32(536870912), cart.GetExtensionRange()[0].GetEnd())

	require.Len(t, fd.GetEnumType(), 1)
	currency := fd.GetEnumType()[0]
	require.Len(t, currency.GetReservedRange(), 1)
	assert.Equal(t, int32(7), currency.GetReservedRange()[0].GetEnd())
}

func TestDescriptorIsValid(t *testing.T) {
	t.Parallel()

	fd := compile(t)
	// The custom option is not declared anywhere protodesc can see.
	fd.Options.UninterpretedOption = nil
	file, err := protodesc.NewFile(fd, new(protoregistry.Files))
	require.NoError(t, err, prototext.Format(fd))

	cart := file.Messages().ByName("Cart")
	require.NotNil(t, cart)
	lines := cart.Fields().ByName("lines")
	assert.True(t, lines.IsMap())
	assert.Equal(t, protoreflect.StringKind, lines.MapKey().Kind())
	assert.Equal(t, protoreflect.FullName("shop.v1.Cart.Line"), lines.MapValue().Message().FullName())
	assert.Equal(t, protoreflect.GroupKind, cart.Fields().ByName("guest").Kind())
	assert.Equal(t, []byte("\x01\n"), cart.Fields().ByName("token").Default().Bytes())
	assert.Equal(t, protoreflect.FullName("shop.v1.Cart.owner"), cart.Fields().ByName("guest").ContainingOneof().FullName())
	assert.Equal(t, "memo", cart.Fields().ByName("note").JSONName())
}

func TestNotAttributed(t *testing.T) {
	t.Parallel()

	doc, err := parser.Parse("x.proto", strings.NewReader(`message A { optional B b = 1; }`), nil, parser.Options{})
	require.NoError(t, err)
	_, err = descriptor.ToFileDescriptorProto(doc)
	require.ErrorIs(t, err, descriptor.ErrNotAttributed)

	_, err = descriptor.ToFileDescriptorProto(ast.NewDocument("empty.proto"))
	require.NoError(t, err)
}

func TestScalarTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scalar string
		want   descriptorpb.FieldDescriptorProto_Type
	}{
		{"int32", descriptorpb.FieldDescriptorProto_TYPE_INT32},
		{"int64", descriptorpb.FieldDescriptorProto_TYPE_INT64},
		{"uint32", descriptorpb.FieldDescriptorProto_TYPE_UINT32},
		{"uint64", descriptorpb.FieldDescriptorProto_TYPE_UINT64},
		{"sint32", descriptorpb.FieldDescriptorProto_TYPE_SINT32},
		{"sint64", descriptorpb.FieldDescriptorProto_TYPE_SINT64},
		{"fixed32", descriptorpb.FieldDescriptorProto_TYPE_FIXED32},
		{"fixed64", descriptorpb.FieldDescriptorProto_TYPE_FIXED64},
		{"sfixed32", descriptorpb.FieldDescriptorProto_TYPE_SFIXED32},
		{"sfixed64", descriptorpb.FieldDescriptorProto_TYPE_SFIXED64},
		{"float", descriptorpb.FieldDescriptorProto_TYPE_FLOAT},
		{"double", descriptorpb.FieldDescriptorProto_TYPE_DOUBLE},
		{"bool", descriptorpb.FieldDescriptorProto_TYPE_BOOL},
		{"string", descriptorpb.FieldDescriptorProto_TYPE_STRING},
		{"bytes", descriptorpb.FieldDescriptorProto_TYPE_BYTES},
	}
	for _, tt := range tests {
		t.Run(tt.scalar, func(t *testing.T) {
			t.Parallel()

			src := "syntax = \"proto3\";\nmessage M { " + tt.scalar + " v = 1; }\n"
			doc, err := parser.Parse("scalar.proto", strings.NewReader(src), nil, parser.Options{})
			require.NoError(t, err)
			require.NoError(t, linker.Link(context.Background(), doc, nil, linker.Options{Known: options.Default()}))
			fd, err := descriptor.ToFileDescriptorProto(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fd.GetMessageType()[0].GetField()[0].GetType())
		})
	}
}
