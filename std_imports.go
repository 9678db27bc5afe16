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

package protoschema

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protoschema/linker"

	// link in packages that include the standard protos included with protoc.
	_ "google.golang.org/protobuf/types/known/anypb"
	_ "google.golang.org/protobuf/types/known/apipb"
	_ "google.golang.org/protobuf/types/known/durationpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/fieldmaskpb"
	_ "google.golang.org/protobuf/types/known/sourcecontextpb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
	_ "google.golang.org/protobuf/types/known/typepb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
	_ "google.golang.org/protobuf/types/pluginpb"
)

// standardFilenames are the files included with protoc. They are served by
// [WithStandardImports] so that clients do not need to supply copies of them.
var standardFilenames = []string{
	"google/protobuf/any.proto",
	"google/protobuf/api.proto",
	"google/protobuf/compiler/plugin.proto",
	"google/protobuf/descriptor.proto",
	"google/protobuf/duration.proto",
	"google/protobuf/empty.proto",
	"google/protobuf/field_mask.proto",
	"google/protobuf/source_context.proto",
	"google/protobuf/struct.proto",
	"google/protobuf/timestamp.proto",
	"google/protobuf/type.proto",
	"google/protobuf/wrappers.proto",
}

// standardImports renders each standard file from the descriptors linked
// into the Go protobuf runtime. Only declarations are rendered; options,
// services and extensions are left out.
var standardImports = sync.OnceValue(func() map[string]string {
	srcs := make(map[string]string, len(standardFilenames))
	for _, fn := range standardFilenames {
		fd, err := protoregistry.GlobalFiles.FindFileByPath(fn)
		if err != nil {
			panic(err.Error())
		}
		srcs[fn] = renderStandardFile(protodesc.ToFileDescriptorProto(fd))
	}
	return srcs
})

// WithStandardImports returns a new resolver that knows about the same
// standard imports that are included with protoc. Files are looked up with
// r first; the standard version of a file is only used if r fails.
func WithStandardImports(r Resolver) Resolver {
	return ResolverFunc(func(path string) (SearchResult, error) {
		var res SearchResult
		var err error
		if r != nil {
			res, err = r.FindFileByPath(path)
			if err == nil {
				return res, nil
			}
		}
		if src, ok := standardImports()[path]; ok {
			return SearchResult{Source: strings.NewReader(src)}, nil
		}
		if err == nil {
			err = protoregistry.NotFound
		}
		return res, err
	})
}

type stdRenderer struct {
	b      strings.Builder
	proto3 bool
	depth  int
}

func renderStandardFile(fd *descriptorpb.FileDescriptorProto) string {
	r := &stdRenderer{proto3: fd.GetSyntax() == "proto3"}
	syntax := fd.GetSyntax()
	if syntax == "" {
		syntax = "proto2"
	}
	r.line("syntax = %q;", syntax)
	if fd.Package != nil {
		r.line("package %s;", fd.GetPackage())
	}
	public := map[int32]bool{}
	for _, i := range fd.GetPublicDependency() {
		public[i] = true
	}
	weak := map[int32]bool{}
	for _, i := range fd.GetWeakDependency() {
		weak[i] = true
	}
	for i, dep := range fd.GetDependency() {
		switch {
		case public[int32(i)]:
			r.line("import public %q;", dep)
		case weak[int32(i)]:
			r.line("import weak %q;", dep)
		default:
			r.line("import %q;", dep)
		}
	}
	for _, msg := range fd.GetMessageType() {
		r.message("message "+msg.GetName(), msg)
	}
	for _, enum := range fd.GetEnumType() {
		r.enum(enum)
	}
	return r.b.String()
}

func (r *stdRenderer) line(format string, args ...any) {
	r.b.WriteString(strings.Repeat("  ", r.depth))
	fmt.Fprintf(&r.b, format, args...)
	r.b.WriteByte('\n')
}

// message renders msg as a block introduced by header, which is either a
// message declaration or a group field.
func (r *stdRenderer) message(header string, msg *descriptorpb.DescriptorProto) {
	r.line("%s {", header)
	r.depth++

	inline := map[string]*descriptorpb.DescriptorProto{}
	for _, nested := range msg.GetNestedType() {
		inline[nested.GetName()] = nested
	}
	doneOneofs := map[int32]bool{}
	for _, fld := range msg.GetField() {
		if fld.OneofIndex != nil && !fld.GetProto3Optional() {
			idx := fld.GetOneofIndex()
			if doneOneofs[idx] {
				continue
			}
			doneOneofs[idx] = true
			r.line("oneof %s {", msg.GetOneofDecl()[idx].GetName())
			r.depth++
			for _, member := range msg.GetField() {
				if member.OneofIndex != nil && member.GetOneofIndex() == idx {
					r.field(member, inline, false)
				}
			}
			r.depth--
			r.line("}")
			continue
		}
		r.field(fld, inline, true)
	}

	for _, nested := range msg.GetNestedType() {
		if nested.GetOptions().GetMapEntry() || inline[nested.GetName()] == nil {
			continue
		}
		r.message("message "+nested.GetName(), nested)
	}
	for _, enum := range msg.GetEnumType() {
		r.enum(enum)
	}
	for _, rng := range msg.GetExtensionRange() {
		r.line("extensions %s;", fieldRange(rng.GetStart(), rng.GetEnd()))
	}
	for _, rng := range msg.GetReservedRange() {
		r.line("reserved %s;", fieldRange(rng.GetStart(), rng.GetEnd()))
	}
	for _, name := range msg.GetReservedName() {
		r.line("reserved %q;", name)
	}

	r.depth--
	r.line("}")
}

// field renders fld. Nested types consumed by the field, map entries and
// group bodies, are removed from inline.
func (r *stdRenderer) field(fld *descriptorpb.FieldDescriptorProto, inline map[string]*descriptorpb.DescriptorProto, labeled bool) {
	label := ""
	if labeled {
		label = r.label(fld)
	}
	simple := fld.GetTypeName()[strings.LastIndexByte(fld.GetTypeName(), '.')+1:]
	switch fld.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		body := inline[simple]
		delete(inline, simple)
		r.message(fmt.Sprintf("%sgroup %s = %d", label, simple, fld.GetNumber()), body)
		return
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		if entry := inline[simple]; entry != nil && entry.GetOptions().GetMapEntry() && len(entry.GetField()) == 2 {
			delete(inline, simple)
			key, value := entry.GetField()[0], entry.GetField()[1]
			r.line("map<%s, %s> %s = %d;", fieldType(key), fieldType(value), fld.GetName(), fld.GetNumber())
			return
		}
	}
	r.line("%s%s %s = %d;", label, fieldType(fld), fld.GetName(), fld.GetNumber())
}

func (r *stdRenderer) label(fld *descriptorpb.FieldDescriptorProto) string {
	switch fld.GetLabel() {
	case descriptorpb.FieldDescriptorProto_LABEL_REPEATED:
		return "repeated "
	case descriptorpb.FieldDescriptorProto_LABEL_REQUIRED:
		return "required "
	}
	if r.proto3 && !fld.GetProto3Optional() {
		return ""
	}
	return "optional "
}

func (r *stdRenderer) enum(enum *descriptorpb.EnumDescriptorProto) {
	r.line("enum %s {", enum.GetName())
	r.depth++
	for _, val := range enum.GetValue() {
		r.line("%s = %d;", val.GetName(), val.GetNumber())
	}
	for _, rng := range enum.GetReservedRange() {
		if rng.GetStart() == rng.GetEnd() {
			r.line("reserved %d;", rng.GetStart())
		} else {
			r.line("reserved %d to %d;", rng.GetStart(), rng.GetEnd())
		}
	}
	for _, name := range enum.GetReservedName() {
		r.line("reserved %q;", name)
	}
	r.depth--
	r.line("}")
}

func fieldType(fld *descriptorpb.FieldDescriptorProto) string {
	switch fld.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		return fld.GetTypeName()
	}
	return strings.ToLower(strings.TrimPrefix(fld.GetType().String(), "TYPE_"))
}

// fieldRange renders a descriptor range, whose end is exclusive.
func fieldRange(start, end int32) string {
	last := end - 1
	switch {
	case end == linker.MaxFieldNumber+1:
		return strconv.Itoa(int(start)) + " to max"
	case start == last:
		return strconv.Itoa(int(start))
	}
	return fmt.Sprintf("%d to %d", start, last)
}
