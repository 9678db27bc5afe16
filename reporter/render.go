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

package reporter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// TabstopWidth is the size tabs are rendered as in source excerpts.
const TabstopWidth = 4

// Render writes err to w in a human-readable form. If err carries a position
// and src holds the text of the file it points into, the offending line is
// quoted below the message with a caret under the column.
//
//	test.proto:3:9: syntax error: unexpected '='
//	   |
//	 3 | message = {
//	   |         ^
func Render(w io.Writer, err error, src []byte) error {
	var ewp ErrorWithPos
	if !errors.As(err, &ewp) {
		_, werr := fmt.Fprintln(w, err)
		return werr
	}
	pos := ewp.GetPosition()
	if _, werr := fmt.Fprintf(w, "%s: %s error: %v\n", pos, ewp.Category(), ewp.Unwrap()); werr != nil {
		return werr
	}
	line, ok := sourceLine(src, pos.Line)
	if !ok {
		return nil
	}

	text, caret := expandLine(line, pos.Col)
	number := strconv.Itoa(pos.Line)
	gutter := strings.Repeat(" ", len(number)+1)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s|\n", gutter)
	fmt.Fprintf(&buf, " %s | %s\n", number, text)
	if caret >= 0 {
		fmt.Fprintf(&buf, "%s| %s^\n", gutter, strings.Repeat(" ", caret))
	}
	_, werr := w.Write(buf.Bytes())
	return werr
}

func sourceLine(src []byte, n int) (string, bool) {
	if n <= 0 || src == nil {
		return "", false
	}
	for i := 1; i < n; i++ {
		nl := bytes.IndexByte(src, '\n')
		if nl < 0 {
			return "", false
		}
		src = src[nl+1:]
	}
	if nl := bytes.IndexByte(src, '\n'); nl >= 0 {
		src = src[:nl]
	}
	return strings.TrimSuffix(string(src), "\r"), true
}

// expandLine replaces tabs with spaces up to the next tabstop and returns
// the display column of the given 1-based rune column, or -1 if col is not
// known.
func expandLine(line string, col int) (string, int) {
	var out strings.Builder
	caret := -1
	width, runes := 0, 0
	gs := uniseg.NewGraphemes(line)
	for gs.Next() {
		cluster := gs.Str()
		if runes == col-1 {
			caret = width
		}
		runes += utf8.RuneCountInString(cluster)
		if cluster == "\t" {
			tab := TabstopWidth - width%TabstopWidth
			out.WriteString(strings.Repeat(" ", tab))
			width += tab
			continue
		}
		out.WriteString(cluster)
		width += uniseg.StringWidth(cluster)
	}
	if caret < 0 && col > 0 && runes == col-1 {
		// Position just past the end of the line, as for EOF.
		caret = width
	}
	return out.String(), caret
}
