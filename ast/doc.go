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

// Package ast defines the tree produced by the parser and attributed by the
// linker.
//
// A [Document] owns every node of a schema file. Nodes of each kind live in
// an arena inside the Document and refer to each other by arena index, so
// the link from a nested declaration back to its enclosing [Body] is a plain
// number rather than a Go pointer. Children are reached through a body's
// ordered statement list; see [Stmt].
//
// Two closed families of values hang off the tree. [TypeRef] describes the
// type of a field: a [Primitive], a reference to a message, enum or group
// declaration, a [MapRef], or an [Unresolved] name that the linker has not
// bound yet. [Expr] describes the right-hand side of an option and the
// operands of reserved and extension ranges.
//
// The parser only builds the tree. It never resolves names. The linker
// fills in qualified names, field numbers and resolved types in place, after
// which the tree is read-only.
package ast
