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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"go.icd-lang.org/icd/encoding/icdjson"
	"go.icd-lang.org/internal/testutil"
)

var pairSchema = map[string]string{
	"pair.icd": "CONSTANT N u8 = 2\nMESSAGEDEF pair {\n\tv u16[N] -Doc \"values\"\n}\n",
}

func runIcdc(t *testing.T, getenv func(string) string, args ...string) (int, string, string) {
	t.Helper()
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	var stdout, stderr bytes.Buffer
	e := &env{
		stdout: &stdout,
		stderr: &stderr,
		getenv: getenv,
	}
	code := execute(context.Background(), e, args)
	return code, stdout.String(), stderr.String()
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		testutil.AssertNoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		testutil.AssertNoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestCompileText(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, pairSchema)
	code, stdout, stderr := runIcdc(t, nil, "--log-level=error", "compile", dir)
	testutil.ExpectEq(t, 0, code)
	testutil.ExpectEq(t, "", stderr)
	testutil.ExpectNoDiff(t, strings.Join([]string{
		"constant PAIR.N u8 = 2",
		"message PAIR.pair (4 bytes) {",
		"\tv u16[PAIR.N (2)]",
		"\t\t-Doc \"values\"",
		"}",
		"",
	}, "\n"), stdout)
}

func TestCompileJSONFile(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, pairSchema)
	outFile := filepath.Join(t.TempDir(), "model.json")
	code, stdout, _ := runIcdc(t, nil, "--log-level=error", "compile", "--format=json", "-o", outFile, dir)
	testutil.AssertEq(t, 0, code)
	testutil.ExpectEq(t, "", stdout)

	data, err := os.ReadFile(outFile)
	testutil.AssertNoError(t, err)
	var doc icdjson.Document
	testutil.AssertNoError(t, json.Unmarshal(data, &doc))
	testutil.AssertEq(t, 2, len(doc.Entities))
	testutil.ExpectEq(t, "N", doc.Entities[0].Name)
	testutil.ExpectEq(t, 4, doc.MaxMessageSize)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"bad.icd": "MESSAGEDEF m {\n\tx u8[MISSING]\n}\n",
	})
	outFile := filepath.Join(t.TempDir(), "model.txt")
	code, stdout, stderr := runIcdc(t, nil, "--log-level=error", "compile", "-o", outFile, dir)
	testutil.ExpectEq(t, 1, code)
	testutil.ExpectEq(t, "", stdout)
	testutil.ExpectTrue(t, strings.Contains(stderr, "bad.icd:2:7: E3011: "))
	testutil.ExpectTrue(t, strings.Contains(stderr, "\t\tx u8[MISSING]\n"))

	_, err := os.Stat(outFile)
	testutil.ExpectTrue(t, os.IsNotExist(err))
}

func TestCompileUsageErrors(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, pairSchema)
	tests := []struct {
		name string
		args []string
	}{
		{"bad_format", []string{"compile", "--format=yaml", dir}},
		{"extra_args", []string{"compile", dir, dir}},
		{"unknown_flag", []string{"compile", "--no-such-flag", dir}},
		{"missing_dir", []string{"compile", filepath.Join(dir, "missing")}},
		{"bad_log_level", []string{"--log-level=loud", "compile", dir}},
		{"no_command", nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			code, _, stderr := runIcdc(t, nil, test.args...)
			testutil.ExpectEq(t, 1, code)
			testutil.ExpectTrue(t, stderr != "")
		})
	}
}

func TestCompileFromConfig(t *testing.T) {
	t.Parallel()

	schemaDir := writeFiles(t, map[string]string{
		"pair.schema": pairSchema["pair.icd"],
	})
	configDir := writeFiles(t, map[string]string{
		"icdc.toml": strings.Join([]string{
			"input_dir = " + quoteTOML(schemaDir),
			`extension = ".schema"`,
			"[log]",
			`level = "error"`,
			"",
		}, "\n"),
	})
	code, stdout, stderr := runIcdc(t, nil, "--config", filepath.Join(configDir, "icdc.toml"), "compile")
	testutil.ExpectEq(t, 0, code)
	testutil.ExpectEq(t, "", stderr)
	testutil.ExpectTrue(t, strings.HasPrefix(stdout, "constant PAIR.N u8 = 2\n"))
}

func quoteTOML(s string) string {
	return "'" + s + "'"
}

func TestLogFormatJSON(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, pairSchema)
	code, _, stderr := runIcdc(t, nil, "--log-format=json", "compile", dir)
	testutil.AssertEq(t, 0, code)

	var event struct {
		Level    string `json:"level"`
		App      string `json:"app"`
		Message  string `json:"message"`
		Entities int    `json:"entities"`
	}
	line, _, _ := strings.Cut(stderr, "\n")
	testutil.AssertNoError(t, json.Unmarshal([]byte(line), &event))
	testutil.ExpectEq(t, "info", event.Level)
	testutil.ExpectEq(t, "icdc", event.App)
	testutil.ExpectEq(t, "schema compiled", event.Message)
	testutil.ExpectEq(t, 2, event.Entities)
}

func TestTokens(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"a.icd": "CONSTANT A u8 = 1\n",
	})
	code, stdout, _ := runIcdc(t, nil, "tokens", filepath.Join(dir, "a.icd"))
	testutil.ExpectEq(t, 0, code)
	testutil.ExpectNoDiff(t, strings.Join([]string{
		`1:1 KW_CONSTANT "CONSTANT"`,
		`1:9 SPACE " "`,
		`1:10 IDENT "A"`,
		`1:11 SPACE " "`,
		`1:12 TYPE "u8"`,
		`1:14 SPACE " "`,
		`1:15 EQ "="`,
		`1:16 SPACE " "`,
		`1:17 NUMBER_LIT "1"`,
		`1:18 NEWLINE "\n"`,
		"",
	}, "\n"), stdout)
}

func TestTokensLexicalError(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"a.icd": "A $ B\n",
	})
	code, stdout, stderr := runIcdc(t, nil, "tokens", filepath.Join(dir, "a.icd"))
	testutil.ExpectEq(t, 1, code)
	testutil.ExpectTrue(t, strings.Contains(stdout, `1:5 IDENT "B"`))
	testutil.ExpectTrue(t, strings.Contains(stderr, ":1:3: E1002: "))
}
