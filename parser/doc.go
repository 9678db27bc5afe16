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

// Package parser turns schema source text into an unattributed
// [ast.Document].
//
// The lexer produces tokens on demand and can be rewound to a mark, which the
// recursive-descent parser uses for the few places where the grammar needs
// more than one token of lookahead. The parser never resolves names; that is
// the linker's job.
package parser
