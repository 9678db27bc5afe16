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

// ScalarKind is one of the built-in scalar field types.
type ScalarKind byte

const (
	ScalarUnknown ScalarKind = iota

	// Varint types: 32/64-bit signed, unsigned, and zig-zag.
	ScalarInt32
	ScalarInt64
	ScalarUInt32
	ScalarUInt64
	ScalarSInt32
	ScalarSInt64

	// Fixed-width integer types: 32/64-bit unsigned and signed.
	ScalarFixed32
	ScalarFixed64
	ScalarSFixed32
	ScalarSFixed64

	ScalarFloat
	ScalarDouble

	ScalarBool
	ScalarString
	ScalarBytes
)

// Encoding is the wire representation a scalar kind is tied to. Codecs and
// generators use it to tell zig-zag integers apart from the plain and
// fixed-width signed kinds.
type Encoding byte

const (
	EncodingVarint Encoding = iota
	EncodingZigZag
	EncodingFixed32
	EncodingFixed64
	EncodingBytes
)

var scalarNames = [...]string{
	ScalarUnknown:  "<unknown>",
	ScalarInt32:    "int32",
	ScalarInt64:    "int64",
	ScalarUInt32:   "uint32",
	ScalarUInt64:   "uint64",
	ScalarSInt32:   "sint32",
	ScalarSInt64:   "sint64",
	ScalarFixed32:  "fixed32",
	ScalarFixed64:  "fixed64",
	ScalarSFixed32: "sfixed32",
	ScalarSFixed64: "sfixed64",
	ScalarFloat:    "float",
	ScalarDouble:   "double",
	ScalarBool:     "bool",
	ScalarString:   "string",
	ScalarBytes:    "bytes",
}

var scalarsByName = func() map[string]ScalarKind {
	m := make(map[string]ScalarKind, len(scalarNames)-1)
	for k, name := range scalarNames {
		if k != int(ScalarUnknown) {
			m[name] = ScalarKind(k)
		}
	}
	return m
}()

// LookupScalar returns the scalar kind spelled by name, or [ScalarUnknown].
func LookupScalar(name string) ScalarKind {
	return scalarsByName[name]
}

// String returns the keyword that spells this kind.
func (k ScalarKind) String() string {
	if int(k) >= len(scalarNames) {
		return scalarNames[ScalarUnknown]
	}
	return scalarNames[k]
}

// IsValid returns whether k is one of the defined scalar kinds.
func (k ScalarKind) IsValid() bool {
	return k > ScalarUnknown && k <= ScalarBytes
}

// IsInt returns whether this is an integer type.
func (k ScalarKind) IsInt() bool {
	return k >= ScalarInt32 && k <= ScalarSFixed64
}

// IsUnsigned returns whether this is an unsigned integer type.
func (k ScalarKind) IsUnsigned() bool {
	switch k {
	case ScalarUInt32, ScalarUInt64, ScalarFixed32, ScalarFixed64:
		return true
	default:
		return false
	}
}

// Is64Bit returns whether this is a 64-bit integer type.
func (k ScalarKind) Is64Bit() bool {
	switch k {
	case ScalarInt64, ScalarUInt64, ScalarSInt64, ScalarFixed64, ScalarSFixed64:
		return true
	default:
		return false
	}
}

// IsFloat returns whether this is a floating-point type.
func (k ScalarKind) IsFloat() bool {
	return k == ScalarFloat || k == ScalarDouble
}

// IsNumeric returns whether values of this kind are numbers.
func (k ScalarKind) IsNumeric() bool {
	return k.IsInt() || k.IsFloat()
}

// IsPackable returns whether repeated fields of this kind may use the packed
// encoding.
func (k ScalarKind) IsPackable() bool {
	return k.IsNumeric() || k == ScalarBool
}

// IsValidMapKey returns whether this kind may be the key of a map field.
func (k ScalarKind) IsValidMapKey() bool {
	return k.IsInt() || k == ScalarBool || k == ScalarString
}

// Encoding returns the wire encoding of this kind.
func (k ScalarKind) Encoding() Encoding {
	switch k {
	case ScalarSInt32, ScalarSInt64:
		return EncodingZigZag
	case ScalarFixed32, ScalarSFixed32, ScalarFloat:
		return EncodingFixed32
	case ScalarFixed64, ScalarSFixed64, ScalarDouble:
		return EncodingFixed64
	case ScalarString, ScalarBytes:
		return EncodingBytes
	default:
		return EncodingVarint
	}
}
