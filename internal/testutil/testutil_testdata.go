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
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"testing"

	"github.com/goccy/go-json"
)

// TestdataFS returns the icd/testdata directory.
func TestdataFS() (fs.FS, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("testutil: cannot locate source directory")
	}
	dir := filepath.Join(filepath.Dir(thisFile), "..", "..", "icd", "testdata")
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	return os.DirFS(dir), nil
}

// Diagnostic is one entry of a diagnostics catalog, which names every
// error or warning code the toolchain can report.
type Diagnostic struct {
	Key     string
	Code    uint32
	Message string
	Pattern *regexp.Regexp
}

// LoadCatalog reads "diagnostics/<name>.json". Keys starting with '_'
// reserve a code without describing it.
func LoadCatalog(testdata fs.FS, name string) (map[string]*Diagnostic, error) {
	type raw struct {
		Code    uint32 `json:"code"`
		Message string `json:"message"`
		Pattern string `json:"message_pattern"`
	}

	jsonData, err := fs.ReadFile(testdata, "diagnostics/"+name+".json")
	if err != nil {
		return nil, err
	}

	var rawEntries map[string]raw
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&rawEntries); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out := make(map[string]*Diagnostic, len(rawEntries))
	codes := make(map[uint32]struct{}, len(rawEntries))
	for key, raw := range rawEntries {
		if raw.Code != 0 {
			if _, conflict := codes[raw.Code]; conflict {
				return nil, fmt.Errorf("%s: duplicate code %d", name, raw.Code)
			}
			codes[raw.Code] = struct{}{}
		}
		if key[0] == '_' {
			continue
		}
		if raw.Code == 0 {
			return nil, fmt.Errorf("%s: %q has no code", name, key)
		}

		var pattern *regexp.Regexp
		if raw.Pattern != "" {
			pattern, err = regexp.Compile(raw.Pattern)
			if err != nil {
				return nil, err
			}
		}
		out[key] = &Diagnostic{
			Key:     key,
			Code:    raw.Code,
			Message: raw.Message,
			Pattern: pattern,
		}
	}
	return out, nil
}

// ExpectDiagnostic checks a reported code and message against a catalog
// entry.
func ExpectDiagnostic(t *testing.T, want *Diagnostic, code uint32, message string) {
	t.Helper()
	ExpectEq(t, want.Code, code)
	if want.Pattern != nil {
		ExpectMatch(t, want.Pattern, message)
	} else if want.Message != "" {
		ExpectEq(t, want.Message, message)
	}
}

// Lookup returns the named catalog entry or fails the test.
func Lookup(t *testing.T, catalog map[string]*Diagnostic, key string) *Diagnostic {
	t.Helper()
	entry, ok := catalog[key]
	if !ok {
		t.Fatalf("unknown diagnostic name %q", key)
	}
	return entry
}

// ExpectedDiagnostic is one entry of an expect_err.json or
// expect_warn.json file: a catalog entry and where it is reported.
type ExpectedDiagnostic struct {
	*Diagnostic
	File   string
	Line   int
	Column int
}

// LoadExpected reads a list of expected diagnostics. Each entry names a
// catalog key with "error" or "warning", and may override the catalog
// message with an exact "message".
func LoadExpected(
	t *testing.T,
	catalog map[string]*Diagnostic,
	testdata fs.FS,
	path string,
) []*ExpectedDiagnostic {
	t.Helper()

	type raw struct {
		Error   string `json:"error"`
		Warning string `json:"warning"`
		Message string `json:"message"`
		File    string `json:"file"`
		Line    int    `json:"line"`
		Column  int    `json:"column"`
	}

	jsonData, err := fs.ReadFile(testdata, path)
	AssertNoError(t, err)

	var rawEntries []raw
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&rawEntries); err != nil {
		t.Fatalf("%s: %v", path, err)
	}

	out := make([]*ExpectedDiagnostic, 0, len(rawEntries))
	for _, raw := range rawEntries {
		key := raw.Error
		if key == "" {
			key = raw.Warning
		}
		entry := *Lookup(t, catalog, key)
		if raw.Message != "" {
			entry.Message = raw.Message
			entry.Pattern = nil
		}
		out = append(out, &ExpectedDiagnostic{
			Diagnostic: &entry,
			File:       raw.File,
			Line:       raw.Line,
			Column:     raw.Column,
		})
	}
	return out
}

// MergeCatalogs combines catalogs whose codes do not overlap.
func MergeCatalogs(catalogs ...map[string]*Diagnostic) map[string]*Diagnostic {
	out := make(map[string]*Diagnostic)
	for _, catalog := range catalogs {
		for key, entry := range catalog {
			out[key] = entry
		}
	}
	return out
}
