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

	"go.icd-lang.org/icd/schema"
)

type Warning struct {
	code    uint32
	message string
	pos     schema.Pos
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 {
	return w.code
}

func (w *Warning) Message() string {
	return w.message
}

func (w *Warning) Pos() schema.Pos {
	return w.pos
}

func (w *Warning) Report() string {
	return report(w.pos, w.String())
}

func warnReservedWord(name string, pos schema.Pos) *Warning {
	return &Warning{
		code:    4000,
		message: fmt.Sprintf("'%s' is a reserved keyword. It will be ignored.", name),
		pos:     pos,
	}
}

func warnZeroLength(field string, pos schema.Pos) *Warning {
	return &Warning{
		code:    4001,
		message: fmt.Sprintf("Field '%s' has array length 0. It will be ignored.", field),
		pos:     pos,
	}
}

func warnBitfieldWidth(field, width string, pos schema.Pos) *Warning {
	return &Warning{
		code: 4002,
		message: fmt.Sprintf(
			"Bitfield '%s' has width %s, expected 1 to 64. It will be ignored.",
			field, width,
		),
		pos: pos,
	}
}

func warnBitwordIgnored(what string, pos schema.Pos) *Warning {
	return &Warning{
		code:    4003,
		message: fmt.Sprintf("Option -PW has no effect on %s", what),
		pos:     pos,
	}
}

func warnDuplicateOrdinal(state, field, prev string, ordinal int64, pos schema.Pos) *Warning {
	return &Warning{
		code: 4004,
		message: fmt.Sprintf(
			"State '%s' field '%s' has the same value (%d) as field '%s'",
			state, field, ordinal, prev,
		),
		pos: pos,
	}
}
