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

package compiler

import (
	"fmt"
	"strings"

	"go.icd-lang.org/icd"
	"go.icd-lang.org/icd/schema"
	"go.icd-lang.org/icd/syntax"
)

type Error struct {
	code    uint32
	message string
	pos     schema.Pos
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

func (err *Error) Pos() schema.Pos {
	return err.pos
}

// Report renders the error with its file position and an excerpt of the
// offending source line.
func (err *Error) Report() string {
	return report(err.pos, err.Error())
}

func report(pos schema.Pos, text string) string {
	if pos.Source == nil {
		return text
	}
	return pos.String() + ": " + text + "\n" + pos.Source.Excerpt(pos.Span.Start())
}

func errSyntax(err *syntax.Error, src *syntax.Source) error {
	return &Error{
		code:    err.Code(),
		message: err.Message(),
		pos:     schema.Pos{Source: src, Span: err.Span()},
	}
}

func errInvalidModuleName(name string, pos schema.Pos) error {
	return &Error{
		code:    3001,
		message: fmt.Sprintf("Module name '%s' (from file %q) is not a valid identifier", name, pos.Path()),
		pos:     pos,
	}
}

func errDuplicateModule(name string, prev, pos schema.Pos) error {
	return &Error{
		code: 3002,
		message: fmt.Sprintf(
			"Module '%s' is defined by both %q and %q",
			name, prev.Path(), pos.Path(),
		),
		pos: pos,
	}
}

func errDuplicateName(name string, kind, prevKind schema.Kind, prev, pos schema.Pos) error {
	return &Error{
		code: 3003,
		message: fmt.Sprintf(
			"Name '%s' of %s on line %d conflicts with %s on line %d",
			name, kind, pos.Line(), prevKind, prev.Line(),
		),
		pos: pos,
	}
}

func errDuplicateField(msg, name string, prev, pos schema.Pos) error {
	return &Error{
		code: 3004,
		message: fmt.Sprintf(
			"Field '%s' in message '%s' is defined on line %d and line %d",
			name, msg, prev.Line(), pos.Line(),
		),
		pos: pos,
	}
}

func errFieldNameIsBitword(msg, name string, pos schema.Pos) error {
	return &Error{
		code: 3005,
		message: fmt.Sprintf(
			"Field '%s' in message '%s' has the same name as a bit word",
			name, msg,
		),
		pos: pos,
	}
}

func errBitwordReused(msg, name string, prev, pos schema.Pos) error {
	return &Error{
		code: 3006,
		message: fmt.Sprintf(
			"Bit word '%s' in message '%s' already names the group on line %d",
			name, msg, prev.Line(),
		),
		pos: pos,
	}
}

func errBitfieldWidthNotLiteral(field, width string, pos schema.Pos) error {
	return &Error{
		code: 3010,
		message: fmt.Sprintf(
			"Width of bitfield '%s' must be an integer literal, got '%s'",
			field, width,
		),
		pos: pos,
	}
}

func errUnknownName(name string, pos schema.Pos) error {
	return &Error{
		code:    3011,
		message: fmt.Sprintf("Identifier '%s' is not a known symbol", name),
		pos:     pos,
	}
}

func errNotAType(name string, kind schema.Kind, pos schema.Pos) error {
	return &Error{
		code:    3012,
		message: fmt.Sprintf("'%s' is a %s, not a type", name, kind),
		pos:     pos,
	}
}

func errAmbiguousName(name string, modules []string, pos schema.Pos) error {
	return &Error{
		code: 3013,
		message: fmt.Sprintf(
			"Identifier '%s' is ambiguous: declared in modules %s",
			name, strings.Join(modules, ", "),
		),
		pos: pos,
	}
}

func errCountNotConstant(name string, kind schema.Kind, pos schema.Pos) error {
	return &Error{
		code:    3014,
		message: fmt.Sprintf("Array length '%s' is a %s, not a constant", name, kind),
		pos:     pos,
	}
}

func errDefaultNotValue(name string, kind schema.Kind, pos schema.Pos) error {
	return &Error{
		code: 3015,
		message: fmt.Sprintf(
			"Default value '%s' is a %s, not a constant or state field",
			name, kind,
		),
		pos: pos,
	}
}

func errMessageDefault(field, msgType string, pos schema.Pos) error {
	return &Error{
		code: 3016,
		message: fmt.Sprintf(
			"Field '%s' of message type '%s' cannot have a default value",
			field, msgType,
		),
		pos: pos,
	}
}

func errNotStateMember(value, state string, pos schema.Pos) error {
	return &Error{
		code:    3017,
		message: fmt.Sprintf("Default value '%s' is not a field of state '%s'", value, state),
		pos:     pos,
	}
}

func errFloatForInteger(value string, type_ icd.Type, pos schema.Pos) error {
	return &Error{
		code:    3020,
		message: fmt.Sprintf("Value %s is not an integer, expected %s", value, type_),
		pos:     pos,
	}
}

func errOutOfRange(value string, type_ icd.Type, pos schema.Pos) error {
	return &Error{
		code:    3021,
		message: fmt.Sprintf("Value %s is out of range for %s", value, type_),
		pos:     pos,
	}
}

func errBitfieldOutOfRange(value string, width uint32, pos schema.Pos) error {
	return &Error{
		code: 3021,
		message: fmt.Sprintf(
			"Value %s is out of range for bitfield[%d] (max %d)",
			value, width, icd.BitfieldMax(width),
		),
		pos: pos,
	}
}

func errConstantType(name string, type_ icd.Type, pos schema.Pos) error {
	return &Error{
		code:    3022,
		message: fmt.Sprintf("Constant '%s' has non-numeric type %s", name, type_),
		pos:     pos,
	}
}

func errCircularConstant(name string, chain []string, pos schema.Pos) error {
	return &Error{
		code: 3023,
		message: fmt.Sprintf(
			"Circular reference detected in constant identifier '%s' (%s)",
			name, strings.Join(chain, " -> "),
		),
		pos: pos,
	}
}

func errInvalidCount(value string, pos schema.Pos) error {
	return &Error{
		code: 3024,
		message: fmt.Sprintf(
			"Array length %s must be an integer between 1 and %d",
			value, maxCount,
		),
		pos: pos,
	}
}

func errCircularDependency(name string, cycle []string, pos schema.Pos) error {
	return &Error{
		code: 3030,
		message: fmt.Sprintf(
			"Circular dependency detected in %s (%s)",
			name, strings.Join(cycle, " -> "),
		),
		pos: pos,
	}
}
