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

// Package cases derives the names protoc gives to generated elements from
// field names.
package cases

import "strings"

// JSONName returns the default JSON name of a field: underscores are
// dropped and the letter after each one is capitalized.
func JSONName(field string) string {
	return camel(field, false)
}

// MapEntryName returns the name of the synthesized message holding the
// entries of a map field: the field name in PascalCase, plus "Entry".
func MapEntryName(field string) string {
	return camel(field, true) + "Entry"
}

// camel removes underscores from s and capitalizes the ASCII letter that
// follows each one, and the first letter if upperFirst is set. Other
// characters are left alone.
func camel(s string, upperFirst bool) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := upperFirst
	for i := range len(s) {
		c := s[i]
		switch {
		case c == '_':
			upper = true
			continue
		case upper && 'a' <= c && c <= 'z':
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	return b.String()
}
