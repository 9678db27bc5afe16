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

// Package protoschema is the entry point for compiling schema files into
// attributed trees. There are several steps involved:
//  1. Lex and parse the source into a tree.
//     Also see: parser.Parse
//  2. Bind names, resolve imports and type references, and validate.
//     Also see: linker.Link
//
// The attributed tree can then be printed back to schema text with the
// printer package or converted to descriptor protos with the descriptor
// package.
//
// # Resolvers
//
// A Resolver is how the compiler locates the files it compiles, including
// every file they import. A Resolver can answer a query with either:
//   - Source: the compiler parses and links it.
//   - A document: if it is already attributed it is used as-is, otherwise
//     the compiler links it.
//
// [WithStandardImports] wraps a resolver so that the well-known files under
// "google/protobuf/" are always available.
//
// # Compiler
//
// A Compiler accepts a list of file names and produces the list of
// attributed documents. Only the Resolver field is required. A minimal
// Compiler, that loads files from the file system relative to the current
// working directory, can be had with the following simple snippet:
//
//	compiler := protoschema.Compiler{
//		Resolver: &protoschema.SourceResolver{},
//	}
//
// Files listed in one call are compiled in parallel. A [Cache] set on the
// compiler keeps attributed documents across calls and guarantees that each
// path is attributed once, even when several goroutines ask for it at the
// same time.
//
// A Compiler can also be built from a YAML file with [LoadConfig].
package protoschema
