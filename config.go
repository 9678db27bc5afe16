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

package protoschema

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/protoschema/options"
	"github.com/bufbuild/protoschema/parser"
)

// Config describes a compiler in YAML:
//
//	import_paths: [proto, third_party]
//	max_parallelism: 4
//	standard_imports: true
//	skip_statements: [service, extend]
//	files: ["proto/**/*.proto"]
//	options:
//	  - name: (acme.owner)
//	    kind: string
//	    scopes: [message, field]
type Config struct {
	ImportPaths     []string `yaml:"import_paths"`
	MaxParallelism  int      `yaml:"max_parallelism"`
	StandardImports bool     `yaml:"standard_imports"`
	// SkipStatements lists the keywords of statements the parser should
	// accept and drop. See [parser.Options].
	SkipStatements []string `yaml:"skip_statements"`
	// Files holds doublestar glob patterns naming the files to compile.
	Files []string `yaml:"files"`
	// Options are known options in addition to those of descriptor.proto.
	Options []options.Option `yaml:"options"`
}

// LoadConfig reads a Config from YAML. Unknown keys are rejected.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.MaxParallelism < 0 {
		return nil, fmt.Errorf("config: max_parallelism must not be negative, got %d", cfg.MaxParallelism)
	}
	for _, pattern := range cfg.Files {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("config: invalid file pattern %q", pattern)
		}
	}
	if _, err := options.NewTable(cfg.Options...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// NewCompiler returns a compiler configured by cfg, with a cache of its own.
// logger may be nil.
func (cfg *Config) NewCompiler(logger *slog.Logger) (*Compiler, error) {
	extra, err := options.NewTable(cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	known := options.Default()
	known.Merge(extra)

	var resolver Resolver = &SourceResolver{ImportPaths: cfg.ImportPaths}
	if cfg.StandardImports {
		resolver = WithStandardImports(resolver)
	}
	return &Compiler{
		Resolver:       resolver,
		MaxParallelism: cfg.MaxParallelism,
		Logger:         logger,
		ParserOptions:  parser.Options{SkipStatements: cfg.SkipStatements},
		Options:        known,
		Cache:          new(Cache),
	}, nil
}

// MatchFiles expands the file patterns against fsys. The result is sorted
// and has no duplicates.
func (cfg *Config) MatchFiles(fsys fs.FS) ([]string, error) {
	var files []string
	for _, pattern := range cfg.Files {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("config: matching %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}
