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

package reporter_test

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoschema/ast"
	"github.com/bufbuild/protoschema/reporter"
)

func TestErrorWithPos(t *testing.T) {
	t.Parallel()

	pos := ast.SourcePos{Filename: "a.proto", Line: 4, Col: 2}
	err := reporter.Errorf(reporter.Semantic, pos, "duplicate name %q", "Foo")
	assert.Equal(t, `a.proto:4:2: duplicate name "Foo"`, err.Error())
	assert.Equal(t, pos, err.GetPosition())
	assert.Equal(t, reporter.Semantic, err.Category())
	assert.Equal(t, reporter.Semantic, reporter.CategoryOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, reporter.Category(0), reporter.CategoryOf(errors.New("plain")))

	wrapped := reporter.Error(reporter.Semantic, pos, fs.ErrNotExist)
	assert.ErrorIs(t, wrapped, fs.ErrNotExist)
}

func TestHandlerFirstErrorWins(t *testing.T) {
	t.Parallel()

	h := reporter.NewHandler(nil)
	first := h.HandleErrorf(reporter.Syntax, ast.UnknownPos("a.proto"), "first")
	second := h.HandleErrorf(reporter.Type, ast.UnknownPos("b.proto"), "second")
	assert.Equal(t, first, second)
	assert.Equal(t, first, h.Error())
}

func TestHandlerContinue(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var errs []string
	var warnings []string
	rep := reporter.NewReporter(
		func(err reporter.ErrorWithPos) error {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err.Error())
			return nil
		},
		func(err reporter.ErrorWithPos) {
			warnings = append(warnings, err.Category().String()+": "+err.Error())
		},
	)
	h := reporter.NewHandler(rep)

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.HandleErrorf(reporter.Type, ast.UnknownPos("a.proto"), "err %d", i))
		}()
	}
	wg.Wait()
	h.HandleWarning(reporter.Syntax, ast.UnknownPos("a.proto"), errors.New("no syntax"))

	assert.Len(t, errs, 4)
	assert.Equal(t, []string{"syntax: a.proto: no syntax"}, warnings)
	assert.ErrorIs(t, h.Error(), reporter.ErrInvalidSource)
	assert.NoError(t, h.ReporterError())
}

func TestRender(t *testing.T) {
	t.Parallel()

	src := []byte("syntax = \"proto2\";\n\tmessage = {\n}\n")
	err := reporter.Errorf(reporter.Syntax, ast.SourcePos{Filename: "a.proto", Line: 2, Col: 10}, "unexpected '='")

	var out strings.Builder
	require.NoError(t, reporter.Render(&out, err, src))
	assert.Equal(t,
		"a.proto:2:10: syntax error: unexpected '='\n"+
			"  |\n"+
			" 2 |     message = {\n"+
			"  |             ^\n",
		out.String())

	out.Reset()
	require.NoError(t, reporter.Render(&out, errors.New("boom"), src))
	assert.Equal(t, "boom\n", out.String())
}
