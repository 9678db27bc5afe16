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

// Package corpora runs golden-file tests over a directory of schema files.
//
// Each file with the corpus extension is a test case. Its expected outputs
// sit next to it, named after the case plus an output extension, so the
// expected diagnostics for "foo.proto" live in "foo.proto.stderr". A missing
// output file means the output is expected to be empty.
package corpora

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// A Corpus describes a directory of test cases.
type Corpus struct {
	// The root of the test data directory, relative to the file that calls
	// [Corpus.Run].
	Root string

	// An environment variable holding a glob of test cases whose outputs
	// should be rewritten instead of checked, e.g. "**/*.proto".
	Refresh string

	// The file extension (without a dot) of files which define a test case.
	Extension string
	// The outputs each test case produces, in the order Test returns them.
	Outputs []Output

	// Test runs one test case. path is relative to Root. It returns one
	// string per element of Outputs.
	Test func(t *testing.T, path, text string) []string
}

// Output represents one output of a test case.
type Output struct {
	// The extension of the output file, appended to the test case's name.
	Extension string

	// The comparison function for this output. If nil, outputs are compared
	// byte-for-byte.
	Compare Compare
}

// Compare compares an output with its expected value. It returns the empty
// string if they match and a description of the mismatch otherwise.
type Compare func(got, want string) string

// Run executes every test case in the corpus as a subtest of t.
func (c Corpus) Run(t *testing.T) {
	t.Helper()
	root := filepath.Join(callerDir(0), c.Root)

	tests, err := doublestar.Glob(os.DirFS(root), "**/*."+c.Extension, doublestar.WithFilesOnly())
	if err != nil {
		t.Fatalf("corpora: listing %q: %v", root, err)
	}
	if len(tests) == 0 {
		t.Fatalf("corpora: no *.%s files in %q", c.Extension, root)
	}

	var refresh string
	if c.Refresh != "" {
		refresh = os.Getenv(c.Refresh)
		if !doublestar.ValidatePattern(refresh) {
			t.Fatalf("corpora: invalid glob in %s: %q", c.Refresh, refresh)
		}
	}
	if refresh != "" {
		t.Logf("corpora: refreshing test data because %s=%s", c.Refresh, refresh)
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(root, filepath.FromSlash(name))
			input, err := os.ReadFile(file)
			if err != nil {
				t.Fatalf("corpora: loading %q: %v", file, err)
			}
			results := c.Test(t, name, string(input))
			if len(results) != len(c.Outputs) {
				t.Fatalf("corpora: test returned %d outputs, expected %d", len(results), len(c.Outputs))
			}

			rewrite, _ := doublestar.Match(refresh, name)
			for i, output := range c.Outputs {
				outFile := file + "." + output.Extension
				if rewrite {
					if err := writeOutput(outFile, results[i]); err != nil {
						t.Errorf("corpora: %v", err)
					}
					continue
				}

				want, err := os.ReadFile(outFile)
				if err != nil && !errors.Is(err, os.ErrNotExist) {
					t.Errorf("corpora: loading %q: %v", outFile, err)
					continue
				}
				compare := output.Compare
				if compare == nil {
					compare = ExactCompare
				}
				if diff := compare(results[i], string(want)); diff != "" {
					t.Errorf("output mismatch for %q:\n%s", outFile, diff)
				}
			}
		})
	}
}

func writeOutput(path, content string) error {
	if content == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("deleting %q: %w", path, err)
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

// ExactCompare compares outputs byte-for-byte and describes a mismatch as a
// unified diff.
func ExactCompare(got, want string) string {
	if got == want {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}

	// Colorize the diff so it's easier to read.
	lines := strings.Split(diff, "\n")
	for i, s := range lines {
		switch {
		case strings.HasPrefix(s, "+"):
			lines[i] = "\033[1;92m" + s + "\033[0m"
		case strings.HasPrefix(s, "-"):
			lines[i] = "\033[1;91m" + s + "\033[0m"
		}
	}
	return strings.Join(lines, "\n")
}

// YAMLCompare compares two YAML documents by value, ignoring layout, key
// order and comments.
func YAMLCompare(got, want string) string {
	var gotValue, wantValue any
	if err := yaml.Unmarshal([]byte(got), &gotValue); err != nil {
		return fmt.Sprintf("output is not YAML: %v", err)
	}
	if err := yaml.Unmarshal([]byte(want), &wantValue); err != nil {
		return fmt.Sprintf("expected output is not YAML: %v", err)
	}
	return cmp.Diff(wantValue, gotValue)
}

func callerDir(skip int) string {
	_, file, _, ok := runtime.Caller(skip + 2)
	if !ok {
		panic("corpora: could not determine test file's directory")
	}
	return filepath.Dir(file)
}
