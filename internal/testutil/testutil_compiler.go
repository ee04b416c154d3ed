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

package testutil

import (
	"testing"
	"testing/fstest"

	"go.icd-lang.org/icd/codegen"
	"go.icd-lang.org/icd/compiler"
)

// CompileModel compiles in-memory schema files, keyed by file name, and
// fails the test on any compile error.
func CompileModel(t *testing.T, files map[string]string) *codegen.Model {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	result, err := compiler.CompileDir(fsys, ".")
	AssertNoError(t, err)
	for _, err := range result.Errors {
		t.Error(err.Report())
	}
	if len(result.Errors) > 0 {
		t.FailNow()
	}
	return codegen.New(result.Directory, result.Order)
}
