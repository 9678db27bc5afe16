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

import "fmt"

// SourcePos identifies a location in a schema file. Line and Col are
// 1-based; a zero Line means the position is unknown beyond the file name.
type SourcePos struct {
	Filename  string
	Line, Col int
}

// UnknownPos is a placeholder position when only the file name is known.
func UnknownPos(filename string) SourcePos {
	return SourcePos{Filename: filename}
}

// IsValid reports whether the position carries a line number.
func (pos SourcePos) IsValid() bool {
	return pos.Line > 0
}

func (pos SourcePos) String() string {
	switch {
	case pos.Line <= 0:
		return pos.Filename
	case pos.Col <= 0:
		return fmt.Sprintf("%s:%d", pos.Filename, pos.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", pos.Filename, pos.Line, pos.Col)
	}
}
