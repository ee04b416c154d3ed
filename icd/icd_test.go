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

package icd_test

import (
	"math"
	"testing"

	"go.icd-lang.org/icd"
	"go.icd-lang.org/internal/testutil"
)

func TestLookupType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want icd.Type
		bits uint32
	}{
		{"u8", icd.Type_U8, 8},
		{"u16", icd.Type_U16, 16},
		{"u32", icd.Type_U32, 32},
		{"u64", icd.Type_U64, 64},
		{"i8", icd.Type_I8, 8},
		{"i16", icd.Type_I16, 16},
		{"i32", icd.Type_I32, 32},
		{"i64", icd.Type_I64, 64},
		{"f32", icd.Type_F32, 32},
		{"f64", icd.Type_F64, 64},
		{"bitfield", icd.Type_BITFIELD, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, ok := icd.LookupType(test.name)
			testutil.ExpectTrue(t, ok)
			testutil.ExpectEq(t, test.want, got)
			testutil.ExpectEq(t, test.bits, got.Bits())
			testutil.ExpectEq(t, test.name, got.String())
		})
	}

	_, ok := icd.LookupType("u128")
	testutil.ExpectFalse(t, ok)
	_, ok = icd.LookupType("U8")
	testutil.ExpectFalse(t, ok)
}

func TestIntRange(t *testing.T) {
	t.Parallel()

	lo, hi := icd.Type_U8.IntRange()
	testutil.ExpectEq(t, int64(0), lo)
	testutil.ExpectEq(t, uint64(255), hi)

	lo, hi = icd.Type_I16.IntRange()
	testutil.ExpectEq(t, int64(math.MinInt16), lo)
	testutil.ExpectEq(t, uint64(math.MaxInt16), hi)

	lo, hi = icd.Type_U64.IntRange()
	testutil.ExpectEq(t, int64(0), lo)
	testutil.ExpectEq(t, uint64(math.MaxUint64), hi)
}

func TestBitfieldMax(t *testing.T) {
	t.Parallel()

	testutil.ExpectEq(t, uint64(1), icd.BitfieldMax(1))
	testutil.ExpectEq(t, uint64(7), icd.BitfieldMax(3))
	testutil.ExpectEq(t, uint64(math.MaxUint32), icd.BitfieldMax(32))
	testutil.ExpectEq(t, uint64(math.MaxUint64), icd.BitfieldMax(64))
}

func TestStorage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bits  uint32
		want  icd.Type
		count uint32
	}{
		{8, icd.Type_U8, 1},
		{16, icd.Type_U16, 1},
		{24, icd.Type_U32, 1},
		{40, icd.Type_U64, 1},
		{64, icd.Type_U64, 1},
		{72, icd.Type_U8, 9},
	}
	for _, test := range tests {
		got, count := icd.Storage(test.bits)
		testutil.ExpectEq(t, test.want, got)
		testutil.ExpectEq(t, test.count, count)
	}
}

func TestIsReservedWord(t *testing.T) {
	t.Parallel()

	testutil.ExpectTrue(t, icd.IsReservedWord("class"))
	testutil.ExpectTrue(t, icd.IsReservedWord("lambda"))
	testutil.ExpectTrue(t, icd.IsReservedWord("None"))
	testutil.ExpectFalse(t, icd.IsReservedWord("status"))
}
