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

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.icd-lang.org/icd/codegen"
	"go.icd-lang.org/icd/compiler"
	"go.icd-lang.org/icd/encoding/icdjson"
)

// inputDir returns the schema directory named on the command line, or the
// configured input_dir, or the working directory.
func (e *env) inputDir(argv []string) (string, error) {
	switch len(argv) {
	case 0:
		return firstNonEmpty(e.config.InputDir, "."), nil
	case 1:
		return argv[0], nil
	default:
		return "", fmt.Errorf("Expected at most one schema directory, got %d arguments", len(argv))
	}
}

// compile compiles every schema file in dir. Diagnostics are printed to
// stderr; the model is nil when any error was reported.
func (e *env) compile(dir, extension string) *codegen.Model {
	opts := compiler.NewCompileOptions(
		compiler.WithLogger(e.log),
		compiler.WithExtension(firstNonEmpty(extension, e.config.Extension)),
	)
	result, err := opts.CompileDir(os.DirFS(dir), ".")
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return nil
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(e.stderr, warning.Report())
	}
	for _, err := range result.Errors {
		fmt.Fprintln(e.stderr, err.Report())
	}
	if !result.OK() {
		e.log.Error().
			Str("dir", dir).
			Int("errors", len(result.Errors)).
			Int("warnings", len(result.Warnings)).
			Msg("compilation failed")
		return nil
	}
	e.log.Info().
		Str("dir", dir).
		Int("modules", len(result.Directory.Modules())).
		Int("entities", len(result.Order)).
		Int("warnings", len(result.Warnings)).
		Msg("schema compiled")
	return codegen.New(result.Directory, result.Order)
}

func writeFile(path string, content []byte) error {
	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(path, openFlags, 0o666)
	if err != nil {
		return err
	}
	_, writeErr := fp.Write(content)
	closeErr := fp.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// outPath validates the path of a generated file and joins it under dir.
func outPath(dir string, file icdjson.OutputFile) (string, error) {
	parts := file.Path
	if len(parts) == 0 {
		return "", fmt.Errorf("Invalid output path %#v: empty", parts)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("Invalid output path %#v: bad path component %q", parts, part)
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", fmt.Errorf("Invalid output path %#v: absolute path component %q", parts, part)
		}
		if strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("Invalid output path %#v: component %q contains a path separator", parts, part)
		}
	}
	return filepath.Join(append([]string{dir}, parts...)...), nil
}

// writeOutputs writes every generated file under outDir, or none of them.
// Files are staged in a temporary directory inside outDir and renamed
// into place once all of them were written. If installing fails partway,
// the files already installed are removed and the files they replaced
// are restored.
func writeOutputs(outDir string, files []icdjson.OutputFile) error {
	return installOutputs(outDir, files, os.Rename)
}

func installOutputs(outDir string, files []icdjson.OutputFile, rename func(oldPath, newPath string) error) error {
	if len(files) == 0 {
		return fmt.Errorf("Plugin did not generate any output files")
	}
	seen := make(map[string]bool, len(files))
	targets := make([]string, len(files))
	for ii, file := range files {
		target, err := outPath(outDir, file)
		if err != nil {
			return err
		}
		if seen[target] {
			return fmt.Errorf("Plugin generated output file %q more than once", target)
		}
		seen[target] = true
		targets[ii] = target
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(outDir, ".icdc-staging-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)
	backups, err := os.MkdirTemp(outDir, ".icdc-backup-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(backups)

	staged := make([]string, len(files))
	for ii, file := range files {
		staged[ii] = filepath.Join(append([]string{staging}, file.Path...)...)
		if err := os.MkdirAll(filepath.Dir(staged[ii]), 0o755); err != nil {
			return err
		}
		if err := writeFile(staged[ii], []byte(file.Content)); err != nil {
			return err
		}
	}

	var undo []func()
	rollback := func(err error) error {
		for ii := len(undo) - 1; ii >= 0; ii-- {
			undo[ii]()
		}
		return err
	}
	for ii, target := range targets {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return rollback(err)
		}
		if _, err := os.Lstat(target); err == nil {
			backup := filepath.Join(backups, strconv.Itoa(ii))
			if err := rename(target, backup); err != nil {
				return rollback(fmt.Errorf("install %s: %w", target, err))
			}
			undo = append(undo, func() { _ = os.Rename(backup, target) })
		} else if !errors.Is(err, fs.ErrNotExist) {
			return rollback(err)
		}
		if err := rename(staged[ii], target); err != nil {
			return rollback(fmt.Errorf("install %s: %w", target, err))
		}
		undo = append(undo, func() { _ = os.Remove(target) })
	}
	return nil
}
