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

	"go.icd-lang.org/icd"
)

const (
	maxSrcLen   = 0x7FFFFFFF // (2**31)-1
	maxTokenLen = int(math.MaxUint16)

	tokenFlagNumberIsFloat uint8 = 0x01
)

type Token struct {
	Len   uint16
	Kind  TokenKind
	flags uint8
}

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_NEWLINE
	T_COMMENT

	T_EQ
	T_OPEN_CURL
	T_CLOSE_CURL
	T_OPEN_SQUARE
	T_CLOSE_SQUARE

	T_NUMBER_LIT
	T_TEXT_LIT

	T_DOC_MARKER
	T_BITWORD_MARKER

	T_IDENT
	T_TYPE

	T_KW_MESSAGEDEF
	T_KW_CONSTANT
	T_KW_STATE
)

var keywords = map[string]TokenKind{
	"MESSAGEDEF": T_KW_MESSAGEDEF,
	"CONSTANT":   T_KW_CONSTANT,
	"STATE":      T_KW_STATE,
}

func (k TokenKind) String() string {
	switch k {
	case T_EOF:
		return "EOF"
	case T_SPACE:
		return "SPACE"
	case T_NEWLINE:
		return "NEWLINE"
	case T_COMMENT:
		return "COMMENT"
	case T_EQ:
		return "EQ"
	case T_OPEN_CURL:
		return "OPEN_CURL"
	case T_CLOSE_CURL:
		return "CLOSE_CURL"
	case T_OPEN_SQUARE:
		return "OPEN_SQUARE"
	case T_CLOSE_SQUARE:
		return "CLOSE_SQUARE"
	case T_NUMBER_LIT:
		return "NUMBER_LIT"
	case T_TEXT_LIT:
		return "TEXT_LIT"
	case T_DOC_MARKER:
		return "DOC_MARKER"
	case T_BITWORD_MARKER:
		return "BITWORD_MARKER"
	case T_IDENT:
		return "IDENT"
	case T_TYPE:
		return "TYPE"
	case T_KW_MESSAGEDEF:
		return "KW_MESSAGEDEF"
	case T_KW_CONSTANT:
		return "KW_CONSTANT"
	case T_KW_STATE:
		return "KW_STATE"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// IsFloat reports whether a NUMBER_LIT token has a fractional part.
func (t Token) IsFloat() bool {
	return t.flags&tokenFlagNumberIsFloat != 0
}

// Tokens splits schema source into tokens. Lexical errors leave the
// tokenizer positioned at the offending input; callers recover by calling
// Skip with the error's span length.
type Tokens struct {
	src    []byte
	offset uint32
}

func NewTokens(src []byte) (*Tokens, error) {
	if len(src) > maxSrcLen {
		return nil, errSourceTooLong(len(src))
	}
	if !utf8.Valid(src) {
		return nil, errInvalidUtf8(src)
	}
	return &Tokens{
		src: src,
	}, nil
}

func (t *Tokens) Offset() uint32 {
	return t.offset
}

// Skip discards n bytes of input.
func (t *Tokens) Skip(n uint32) {
	if int(n) > len(t.src) {
		n = uint32(len(t.src))
	}
	t.offset += n
	t.src = t.src[n:]
}

func (t *Tokens) Next(token *Token) error {
	if len(t.src) == 0 {
		*token = Token{
			Kind: T_EOF,
		}
		return nil
	}

	c := t.src[0]
	var kind TokenKind
	switch c {
	case '\t', ' ':
		return t.nextSpace(token)
	case '\n':
		kind = T_NEWLINE
		goto len1
	case '=':
		kind = T_EQ
		goto len1
	case '{':
		kind = T_OPEN_CURL
		goto len1
	case '}':
		kind = T_CLOSE_CURL
		goto len1
	case '[':
		kind = T_OPEN_SQUARE
		goto len1
	case ']':
		kind = T_CLOSE_SQUARE
		goto len1
	case '#':
		return t.nextComment(token)
	case '"':
		return t.nextTextLit(token)
	case '-':
		return t.nextDash(token)
	case '\r':
		if len(t.src) < 2 || t.src[1] != '\n' {
			return errForbiddenControlCharacter(t.offset, c)
		}
		*token = Token{
			Kind: T_NEWLINE,
			Len:  2,
		}
		t.offset += 2
		t.src = t.src[2:]
		return nil
	default:
		goto big
	}

len1:
	*token = Token{
		Kind: kind,
		Len:  1,
	}
	t.offset += 1
	t.src = t.src[1:]
	return nil

big:
	if c >= '0' && c <= '9' {
		return t.nextNumLit(token, 0)
	}

	if isIdentStart(c) {
		return t.nextIdent(token)
	}

	r, _ := utf8.DecodeRune(t.src)
	if r < 0x20 || r == 0x7F {
		return errForbiddenControlCharacter(t.offset, c)
	}
	return errUnexpectedCharacter(t.offset, r)
}

func isIdentStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (t *Tokens) nextSpace(token *Token) error {
	src := t.src
	for len(src) > 0 && (src[0] == ' ' || src[0] == '\t') {
		src = src[1:]
	}
	tokenLen, err := t.checkTokenLen(len(t.src) - len(src))
	if err != nil {
		return err
	}
	*token = Token{
		Kind: T_SPACE,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = src
	return nil
}

func (t *Tokens) nextComment(token *Token) error {
	src := t.src
	for ii, c := range src {
		if c == '\n' || c == '\r' {
			src = src[:ii]
			break
		}
	}

	tokenLen := len(src)
	if tokenLen, err := t.checkTokenLen(tokenLen); err != nil {
		return err
	} else {
		*token = Token{
			Kind: T_COMMENT,
			Len:  tokenLen,
		}
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

// nextDash handles the three tokens that start with '-': negative numbers,
// "-Doc", and "-PW".
func (t *Tokens) nextDash(token *Token) error {
	rest := t.src[1:]
	if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		return t.nextNumLit(token, 1)
	}
	if t.hasMarker(rest, "Doc") {
		return t.marker(token, T_DOC_MARKER, 4)
	}
	if t.hasMarker(rest, "PW") {
		return t.marker(token, T_BITWORD_MARKER, 3)
	}
	return errUnexpectedCharacter(t.offset, '-')
}

func (t *Tokens) hasMarker(rest []byte, name string) bool {
	if len(rest) < len(name) || string(rest[:len(name)]) != name {
		return false
	}
	return len(rest) == len(name) || !isIdentContinue(rest[len(name)])
}

func (t *Tokens) marker(token *Token, kind TokenKind, tokenLen uint16) error {
	*token = Token{
		Kind: kind,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) nextNumLit(token *Token, tokenLen int) error {
	src := t.src
	for tokenLen < len(src) && src[tokenLen] >= '0' && src[tokenLen] <= '9' {
		tokenLen += 1
	}

	var flags uint8
	if tokenLen+1 < len(src) && src[tokenLen] == '.' {
		if c := src[tokenLen+1]; c >= '0' && c <= '9' {
			flags |= tokenFlagNumberIsFloat
			tokenLen += 1
			for tokenLen < len(src) && src[tokenLen] >= '0' && src[tokenLen] <= '9' {
				tokenLen += 1
			}
		}
	}

	if tokenLen, err := t.checkTokenLen(tokenLen); err != nil {
		return err
	} else {
		*token = Token{
			Kind:  T_NUMBER_LIT,
			Len:   tokenLen,
			flags: flags,
		}
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) nextTextLit(token *Token) error {
	tokenLen := 0
	for ii, c := range t.src {
		if ii == 0 {
			continue
		}
		if c == '"' {
			tokenLen = ii + 1
			break
		}
		if c == '\n' || c == '\r' {
			break
		}
	}
	if tokenLen == 0 {
		lineLen := len(t.src)
		for ii, c := range t.src {
			if c == '\n' || c == '\r' {
				lineLen = ii
				break
			}
		}
		return errTextLitUnterminated(t.offset, uint32(lineLen))
	}

	if tokenLen, err := t.checkTokenLen(tokenLen); err != nil {
		return err
	} else {
		*token = Token{
			Kind: T_TEXT_LIT,
			Len:  tokenLen,
		}
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) nextIdent(token *Token) error {
	src := t.src
	for ii, c := range src {
		if !isIdentContinue(c) {
			src = src[:ii]
			break
		}
	}

	kind := T_IDENT
	if kw, ok := keywords[string(src)]; ok {
		kind = kw
	} else if _, ok := icd.LookupType(string(src)); ok {
		kind = T_TYPE
	}

	tokenLen := len(src)
	if tokenLen, err := t.checkTokenLen(tokenLen); err != nil {
		return err
	} else {
		*token = Token{
			Kind: kind,
			Len:  tokenLen,
		}
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) checkTokenLen(len int) (uint16, error) {
	if len > maxTokenLen {
		return 0, errTokenTooLong(t.offset, len)
	}
	return uint16(len), nil
}
