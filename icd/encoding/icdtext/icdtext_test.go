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

package icdtext_test

import (
	"errors"
	"strings"
	"testing"

	"go.icd-lang.org/icd/encoding/icdtext"
	"go.icd-lang.org/internal/testutil"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	model := testutil.CompileModel(t, map[string]string{
		"doc.icd": strings.Join([]string{
			"CONSTANT LIMIT f64 = -2.5",
			"STATE phase -Doc \"Motor phase\" {",
			"\tA -Doc \"first\"",
			"\tB = 7",
			"}",
			"MESSAGEDEF motor {",
			"\tphases phase[3] = B",
			"\tflags bitfield[2] = 1 -Doc \"two bits\" -PW motor_flags",
			"\tlimit f64 = LIMIT",
			"}",
			"",
		}, "\n"),
	})

	testutil.ExpectNoDiff(t, strings.Join([]string{
		"constant DOC.LIMIT f64 = -2.5",
		"state DOC.phase {",
		"\t-Doc \"Motor phase\"",
		"\tA = 0",
		"\t\t-Doc \"first\"",
		"\tB = 7",
		"}",
		"message DOC.motor (21 bytes) {",
		"\tphases DOC.phase[3] = DOC.phase.B (7)",
		"\tbitword motor_flags u8 {",
		"\t\tflags bitfield[2] = 1",
		"\t\t\t-Doc \"two bits\"",
		"\t\t__motor_pad_0 bitfield[6] padding",
		"\t}",
		"\tlimit f64 = DOC.LIMIT (-2.5)",
		"}",
		"",
	}, "\n"), icdtext.Encode(model))
}

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWrite
}

func TestEncodeToError(t *testing.T) {
	t.Parallel()

	model := testutil.CompileModel(t, map[string]string{
		"a.icd": "CONSTANT A u8 = 1\nCONSTANT B u8 = 2\n",
	})
	err := icdtext.EncodeTo(model, failingWriter{})
	testutil.ExpectTrue(t, errors.Is(err, errWrite))
}
