// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

// Package compiler turns parsed schema files into a resolved, validated,
// and dependency-ordered schema.Directory.
package compiler

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"go.icd-lang.org/icd"
	"go.icd-lang.org/icd/schema"
	"go.icd-lang.org/icd/syntax"
)

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	log       zerolog.Logger
	extension string
}

// WithLogger sets the logger that receives per-stage debug events. The
// default logger discards everything.
func WithLogger(log zerolog.Logger) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.log = log
	})
}

// WithExtension sets the file extension that marks schema files when
// compiling a directory.
func WithExtension(extension string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.extension = extension
	})
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{
		log:       zerolog.Nop(),
		extension: icd.Extension,
	}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

type CompileResult struct {
	Directory *schema.Directory

	// Order lists every declaration after the declarations it depends on.
	// It is nil unless compilation succeeded.
	Order []schema.Decl

	Errors   []*Error
	Warnings []*Warning
}

func (r *CompileResult) OK() bool {
	return len(r.Errors) == 0
}

func Compile(sources []*syntax.Source, opts ...CompileOption) CompileResult {
	return NewCompileOptions(opts...).Compile(sources)
}

func CompileDir(fsys fs.FS, dir string, opts ...CompileOption) (CompileResult, error) {
	return NewCompileOptions(opts...).CompileDir(fsys, dir)
}

// CompileDir compiles every schema file directly inside dir. Files are
// loaded in lexical order.
func (opts *CompileOptions) CompileDir(fsys fs.FS, dir string) (CompileResult, error) {
	sources, err := opts.loadDir(fsys, dir)
	if err != nil {
		return CompileResult{}, err
	}
	return opts.Compile(sources), nil
}

func (opts *CompileOptions) loadDir(fsys fs.FS, dir string) ([]*syntax.Source, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading schema directory %q: %w", dir, err)
	}
	var sources []*syntax.Source
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasSuffix(name, opts.extension) || name == opts.extension {
			continue
		}
		filePath := path.Join(dir, name)
		src, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("reading schema file %q: %w", filePath, err)
		}
		sources = append(sources, syntax.NewSource(filePath, src))
	}
	opts.log.Debug().
		Str("dir", dir).
		Int("files", len(sources)).
		Msg("schema directory scanned")
	return sources, nil
}

func (opts *CompileOptions) Compile(sources []*syntax.Source) CompileResult {
	c := &compiler{
		opts:     opts,
		log:      opts.log,
		dir:      schema.NewDirectory(),
		literals: make(map[schema.NodeID]*schema.Literal),
		partial:  make(map[*syntax.Source]bool),
	}
	order := c.compile(sources)
	c.diags.Sort()
	if c.diags.HasErrors() {
		order = nil
	}
	return CompileResult{
		Directory: c.dir,
		Order:     order,
		Errors:    c.diags.Errors,
		Warnings:  c.diags.Warnings,
	}
}

type compiler struct {
	opts  *CompileOptions
	log   zerolog.Logger
	dir   *schema.Directory
	diags Diagnostics

	// Set by parseSources(), for files with syntax errors
	partial map[*syntax.Source]bool

	// Set by registerModules()
	modules []*moduleCtx

	// Set by validate()
	literals map[schema.NodeID]*schema.Literal
}

func (c *compiler) err(err error) {
	c.diags.err(err)
}

func (c *compiler) warn(warning *Warning) {
	c.diags.warn(warning)
}

func (c *compiler) compile(sources []*syntax.Source) []schema.Decl {
	files := c.parseSources(sources)
	c.registerModules(sources, files)
	c.registerDecls()
	c.lowerDecls()
	c.dir.SortModules()
	c.resolve()
	c.validate()
	if c.diags.HasErrors() {
		return nil
	}
	return c.sortDecls()
}

func (c *compiler) parseSources(sources []*syntax.Source) []*syntax.File {
	files := make([]*syntax.File, len(sources))
	for ii, src := range sources {
		file, errs := syntax.Parse(src.Bytes())
		for _, err := range errs {
			c.err(errSyntax(err, src))
		}
		if len(errs) > 0 {
			c.partial[src] = true
		}
		files[ii] = file
		c.log.Debug().
			Str("path", src.Path()).
			Int("errors", len(errs)).
			Msg("schema file parsed")
	}
	return files
}

// isPartial reports whether a module's declarations were only partly
// parsed. Its references are left unresolved.
func (c *compiler) isPartial(mod *schema.Module) bool {
	return c.partial[mod.Source()]
}

func posOf(src *syntax.Source, node syntax.Node) schema.Pos {
	return schema.Pos{Source: src, Span: node.Span()}
}
