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

// Package linker attributes parsed schema documents. Linking binds every
// declaration to its qualified name, resolves type references against the
// document and its visible imports, and validates the constraints that the
// grammar alone cannot express.
//
// # Symbols
//
// Declarations are entered into a [Symbols] table keyed by qualified name.
// A document sees its own declarations, those of the documents it imports
// directly, and those of documents that any of these import publicly.
//
// # Errors
//
// Linking stops at the first problem. The error it returns is a
// [reporter.ErrorWithPos] whose category is Semantic for scoping and
// numbering problems, Type for unknown types, bad map keys and bad option
// values, and Syntax for badly named groups.
package linker
