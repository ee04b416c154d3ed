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
	"cmp"
	"slices"

	"go.icd-lang.org/icd/schema"
)

// Diagnostics accumulates the errors and warnings of every compilation
// stage. A run fails if any error was recorded.
type Diagnostics struct {
	Errors   []*Error
	Warnings []*Warning
}

func (d *Diagnostics) err(err error) {
	d.Errors = append(d.Errors, err.(*Error))
}

func (d *Diagnostics) warn(warning *Warning) {
	d.Warnings = append(d.Warnings, warning)
}

func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

func (d *Diagnostics) Merge(other *Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// Sort orders diagnostics by file and then by position within the file.
// Diagnostics at the same position keep the order they were reported in.
func (d *Diagnostics) Sort() {
	slices.SortStableFunc(d.Errors, func(a, b *Error) int {
		return comparePos(a.pos, b.pos)
	})
	slices.SortStableFunc(d.Warnings, func(a, b *Warning) int {
		return comparePos(a.pos, b.pos)
	})
}

func comparePos(a, b schema.Pos) int {
	if c := cmp.Compare(a.Path(), b.Path()); c != 0 {
		return c
	}
	return cmp.Compare(a.Span.Start(), b.Span.Start())
}
