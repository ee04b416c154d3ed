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

package syntax_test

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"go.icd-lang.org/icd/syntax"
	"go.icd-lang.org/internal/testutil"
)

var (
	testdata     fs.FS
	syntaxErrors map[string]*testutil.Diagnostic
)

func init() {
	var err error
	testdata, err = testutil.TestdataFS()
	if err != nil {
		panic(err)
	}
	syntaxErrors, err = testutil.LoadCatalog(testdata, "syntax_errors")
	if err != nil {
		panic(err)
	}
}

type strToken struct {
	kind    string
	content string
}

type tokenTests struct {
	ExpectOK []struct {
		Source string      `json:"source"`
		Tokens [][2]string `json:"tokens"`
	} `json:"expect_ok"`
	ExpectErr []struct {
		Source string `json:"source"`
		Error  string `json:"error"`
		Span   struct {
			Start uint32 `json:"start"`
			Len   uint32 `json:"len"`
		} `json:"error_span"`
	} `json:"expect_err"`
}

func tokensTest(t *testing.T, testName string) {
	t.Parallel()

	testsPath := fmt.Sprintf("tokens/%s.json", testName)
	t.Logf("reading test cases from %q", "icd/testdata/"+testsPath)

	testsJSON, err := fs.ReadFile(testdata, testsPath)
	testutil.AssertNoError(t, err)

	var tests tokenTests
	decoder := json.NewDecoder(bytes.NewReader(testsJSON))
	decoder.DisallowUnknownFields()
	testutil.AssertNoError(t, decoder.Decode(&tests))

	for ii, test := range tests.ExpectOK {
		want := make([]strToken, 0, len(test.Tokens))
		for _, token := range test.Tokens {
			want = append(want, strToken{kind: token[0], content: token[1]})
		}
		t.Run(fmt.Sprintf("expect_ok/%d", ii), func(t *testing.T) {
			testTokensOK(t, test.Source, want)
		})
	}

	for ii, test := range tests.ExpectErr {
		t.Run(fmt.Sprintf("expect_err/%d", ii), func(t *testing.T) {
			expectErr := testutil.Lookup(t, syntaxErrors, test.Error)
			span := syntax.NewSpan(test.Span.Start, test.Span.Len)
			testTokensErr(t, test.Source, expectErr, span)
		})
	}
}

func testTokensOK(t *testing.T, src string, want []strToken) {
	t.Logf("source: %q", src)

	tokens, err := syntax.NewTokens([]byte(src))
	testutil.AssertNoError(t, err)

	var got []strToken
	for {
		var token syntax.Token
		testutil.AssertNoError(t, tokens.Next(&token))
		if token.Kind == syntax.T_EOF {
			break
		}
		got = append(got, strToken{
			kind:    token.Kind.String(),
			content: src[:token.Len],
		})
		src = src[token.Len:]
	}

	testutil.ExpectSliceEq(t, want, got)
}

func testTokensErr(
	t *testing.T,
	src string,
	expectErr *testutil.Diagnostic,
	expectSpan syntax.Span,
) {
	t.Logf("source: %q", src)

	tokens, err := syntax.NewTokens([]byte(src))
	testutil.AssertNoError(t, err)

	for {
		var token syntax.Token
		err = tokens.Next(&token)
		if err != nil || token.Kind == syntax.T_EOF {
			break
		}
	}
	testutil.AssertError(t, err)

	lexErr := err.(*syntax.Error)
	testutil.ExpectTrue(t, lexErr.IsLexical())
	testutil.ExpectDiagnostic(t, expectErr, lexErr.Code(), lexErr.Message())
	testutil.ExpectEq(t, expectSpan, lexErr.Span())
}

func TestSigils(t *testing.T) {
	tokensTest(t, "sigils")
}

func TestIdents(t *testing.T) {
	tokensTest(t, "idents")
}

func TestNumbers(t *testing.T) {
	tokensTest(t, "numbers")
}

func TestMarkers(t *testing.T) {
	tokensTest(t, "markers")
}

func TestTextLiterals(t *testing.T) {
	tokensTest(t, "text_literals")
}

func TestWhitespace(t *testing.T) {
	tokensTest(t, "whitespace")
}

func TestNumberFlags(t *testing.T) {
	t.Parallel()

	tokens, err := syntax.NewTokens([]byte("3.5 3"))
	testutil.AssertNoError(t, err)

	var token syntax.Token
	testutil.AssertNoError(t, tokens.Next(&token))
	testutil.ExpectTrue(t, token.IsFloat())
	testutil.AssertNoError(t, tokens.Next(&token))
	testutil.AssertNoError(t, tokens.Next(&token))
	testutil.ExpectFalse(t, token.IsFloat())
}

func TestSkipAfterError(t *testing.T) {
	t.Parallel()

	tokens, err := syntax.NewTokens([]byte("a$b"))
	testutil.AssertNoError(t, err)

	var token syntax.Token
	testutil.AssertNoError(t, tokens.Next(&token))
	err = tokens.Next(&token)
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, uint32(1), tokens.Offset())

	tokens.Skip(1)
	testutil.AssertNoError(t, tokens.Next(&token))
	testutil.ExpectEq(t, syntax.T_IDENT, token.Kind)
	testutil.ExpectEq(t, uint32(3), tokens.Offset())
}

func TestSourceErrors(t *testing.T) {
	t.Parallel()

	_, err := syntax.NewTokens([]byte("ok \xff"))
	testutil.AssertError(t, err)
	srcErr := err.(*syntax.Error)
	testutil.ExpectDiagnostic(
		t,
		testutil.Lookup(t, syntaxErrors, "invalid_utf8"),
		srcErr.Code(),
		srcErr.Message(),
	)
	testutil.ExpectEq(t, syntax.NewSpan(3, 1), srcErr.Span())

	long := "x" + strings.Repeat("y", 70000)
	tokens, err := syntax.NewTokens([]byte(long))
	testutil.AssertNoError(t, err)
	var token syntax.Token
	err = tokens.Next(&token)
	testutil.AssertError(t, err)
	tooLong := err.(*syntax.Error)
	testutil.ExpectDiagnostic(
		t,
		testutil.Lookup(t, syntaxErrors, "token_too_long"),
		tooLong.Code(),
		tooLong.Message(),
	)
}

func TestTokenKindStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind syntax.TokenKind
		want string
	}{
		{syntax.T_EOF, "EOF"},
		{syntax.T_SPACE, "SPACE"},
		{syntax.T_NEWLINE, "NEWLINE"},
		{syntax.T_COMMENT, "COMMENT"},
		{syntax.T_EQ, "EQ"},
		{syntax.T_OPEN_CURL, "OPEN_CURL"},
		{syntax.T_CLOSE_CURL, "CLOSE_CURL"},
		{syntax.T_OPEN_SQUARE, "OPEN_SQUARE"},
		{syntax.T_CLOSE_SQUARE, "CLOSE_SQUARE"},
		{syntax.T_NUMBER_LIT, "NUMBER_LIT"},
		{syntax.T_TEXT_LIT, "TEXT_LIT"},
		{syntax.T_DOC_MARKER, "DOC_MARKER"},
		{syntax.T_BITWORD_MARKER, "BITWORD_MARKER"},
		{syntax.T_IDENT, "IDENT"},
		{syntax.T_TYPE, "TYPE"},
		{syntax.T_KW_MESSAGEDEF, "KW_MESSAGEDEF"},
		{syntax.T_KW_CONSTANT, "KW_CONSTANT"},
		{syntax.T_KW_STATE, "KW_STATE"},
		{syntax.TokenKind(255), "TokenKind(255)"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			testutil.ExpectEq(t, test.want, test.kind.String())
		})
	}
}
