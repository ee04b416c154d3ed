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

package syntax

import (
	"fmt"
	"math"
	"unicode/utf8"
)

type Error struct {
	code    uint32
	message string
	span    Span

	// Number of source bytes a lexical error recovers past. Zero for
	// syntax errors, which recover at the next line break.
	skip uint32
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() Span {
	return err.span
}

// SkipLen returns the number of bytes a tokenizer must skip to resume
// after a lexical error.
func (err *Error) SkipLen() uint32 {
	return err.skip
}

// IsLexical reports whether the error was raised by the tokenizer.
func (err *Error) IsLexical() bool {
	return err.code >= 1000 && err.code < 2000
}

func errSourceTooLong(srcLen int) error {
	lenUint32 := uint32(math.MaxUint32)
	if uint64(srcLen) < math.MaxUint32 {
		lenUint32 = uint32(srcLen)
	}
	return &Error{
		code: 1000,
		message: fmt.Sprintf(
			"Source file size (%d bytes) exceeds maximum (%d bytes)",
			srcLen, maxSrcLen,
		),
		span: Span{0, lenUint32},
	}
}

func errInvalidUtf8(src []byte) error {
	var off uint32
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError {
			break
		}
		off += uint32(size)
		src = src[size:]
	}
	return &Error{
		code:    1001,
		message: "Source file contains invalid UTF-8",
		span:    Span{off, 1},
	}
}

func errUnexpectedCharacter(start uint32, r rune) error {
	runeLen := uint32(utf8.RuneLen(r))
	return &Error{
		code:    1002,
		message: fmt.Sprintf("Illegal character '%s' (U+%04X)", string(r), r),
		span:    Span{start, runeLen},
		skip:    runeLen,
	}
}

func errForbiddenControlCharacter(start uint32, c byte) error {
	return &Error{
		code:    1003,
		message: fmt.Sprintf("Forbidden control character U+%04X", c),
		span:    Span{start, 1},
		skip:    1,
	}
}

func errTokenTooLong(start uint32, tokenLen int) error {
	lenUint32 := uint32(math.MaxUint32)
	if uint64(tokenLen) < math.MaxUint32 {
		lenUint32 = uint32(tokenLen)
	}
	return &Error{
		code: 1004,
		message: fmt.Sprintf(
			"Token size (%d bytes) exceeds maximum (%d bytes)",
			tokenLen, maxTokenLen,
		),
		span: Span{start, lenUint32},
		skip: lenUint32,
	}
}

func errTextLitUnterminated(start, tokenLen uint32) error {
	return &Error{
		code:    1005,
		message: "Unterminated text literal",
		span:    Span{start, tokenLen},
		skip:    1,
	}
}

func sigilString(kind TokenKind) (uint32, string) {
	switch kind {
	case T_EQ:
		return 2000, "="
	case T_OPEN_CURL:
		return 2001, "{"
	case T_CLOSE_CURL:
		return 2002, "}"
	case T_OPEN_SQUARE:
		return 2003, "["
	case T_CLOSE_SQUARE:
		return 2004, "]"
	default:
		panic("unreachable")
	}
}

func errExpectedSigil(
	wantKind TokenKind,
	gotKind TokenKind,
	gotToken string,
	span Span,
) error {
	code, want := sigilString(wantKind)
	return &Error{
		code:    code,
		message: fmt.Sprintf("Expected sigil '%s', got (%s %q)", want, gotKind, gotToken),
		span:    span,
	}
}

func errExpectedTextLit(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2006,
		message: fmt.Sprintf("Expected text literal, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedIdent(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2007,
		message: fmt.Sprintf("Expected identifier, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedTypeName(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2008,
		message: fmt.Sprintf("Expected type name, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errDuplicateOption(marker string, span Span) error {
	return &Error{
		code:    2009,
		message: fmt.Sprintf("Option '%s' given more than once", marker),
		span:    span,
	}
}

func errExpectedDeclaration(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code: 2010,
		message: fmt.Sprintf(
			"Expected declaration keyword (MESSAGEDEF, CONSTANT, STATE), got (%s %q)",
			gotKind, gotToken,
		),
		span: span,
	}
}

func errExpectedValue(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2011,
		message: fmt.Sprintf("Expected number or identifier, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedBuiltinType(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2012,
		message: fmt.Sprintf("Expected builtin type, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedNewline(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2013,
		message: fmt.Sprintf("Expected end of line, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errUnterminatedBody(decl string, span Span) error {
	return &Error{
		code:    2014,
		message: fmt.Sprintf("Unexpected end of file in body of %s, expected '}'", decl),
		span:    span,
	}
}
