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

package icd

import (
	"fmt"
	"math"
)

// Extension is the default file extension of schema files.
const Extension = ".icd"

type Type uint8

const (
	Type_UNKNOWN Type = iota
	Type_U8
	Type_U16
	Type_U32
	Type_U64
	Type_I8
	Type_I16
	Type_I32
	Type_I64
	Type_F32
	Type_F64
	Type_BITFIELD
)

// StateType is the wire type of a field whose type is a state.
const StateType = Type_I32

var typesByName = map[string]Type{
	"u8":       Type_U8,
	"u16":      Type_U16,
	"u32":      Type_U32,
	"u64":      Type_U64,
	"i8":       Type_I8,
	"i16":      Type_I16,
	"i32":      Type_I32,
	"i64":      Type_I64,
	"f32":      Type_F32,
	"f64":      Type_F64,
	"bitfield": Type_BITFIELD,
}

func LookupType(name string) (Type, bool) {
	t, ok := typesByName[name]
	return t, ok
}

func (t Type) String() string {
	switch t {
	case Type_U8:
		return "u8"
	case Type_U16:
		return "u16"
	case Type_U32:
		return "u32"
	case Type_U64:
		return "u64"
	case Type_I8:
		return "i8"
	case Type_I16:
		return "i16"
	case Type_I32:
		return "i32"
	case Type_I64:
		return "i64"
	case Type_F32:
		return "f32"
	case Type_F64:
		return "f64"
	case Type_BITFIELD:
		return "bitfield"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Bits returns the wire width of a numeric type. Bitfields have no fixed
// width and return 0.
func (t Type) Bits() uint32 {
	switch t {
	case Type_U8, Type_I8:
		return 8
	case Type_U16, Type_I16:
		return 16
	case Type_U32, Type_I32, Type_F32:
		return 32
	case Type_U64, Type_I64, Type_F64:
		return 64
	default:
		return 0
	}
}

func (t Type) Size() uint32 {
	return t.Bits() / 8
}

func (t Type) IsNumeric() bool {
	return t != Type_UNKNOWN && t != Type_BITFIELD
}

func (t Type) IsInteger() bool {
	switch t {
	case Type_U8, Type_U16, Type_U32, Type_U64:
		return true
	case Type_I8, Type_I16, Type_I32, Type_I64:
		return true
	}
	return false
}

func (t Type) IsSigned() bool {
	switch t {
	case Type_I8, Type_I16, Type_I32, Type_I64, Type_F32, Type_F64:
		return true
	}
	return false
}

func (t Type) IsFloat() bool {
	return t == Type_F32 || t == Type_F64
}

// IntRange returns the inclusive bounds of an integer type. The minimum is
// zero for unsigned types and the maximum is non-negative for all types.
func (t Type) IntRange() (int64, uint64) {
	switch t {
	case Type_U8:
		return 0, math.MaxUint8
	case Type_U16:
		return 0, math.MaxUint16
	case Type_U32:
		return 0, math.MaxUint32
	case Type_U64:
		return 0, math.MaxUint64
	case Type_I8:
		return math.MinInt8, math.MaxInt8
	case Type_I16:
		return math.MinInt16, math.MaxInt16
	case Type_I32:
		return math.MinInt32, math.MaxInt32
	case Type_I64:
		return math.MinInt64, math.MaxInt64
	default:
		panic("unreachable")
	}
}

func (t Type) FloatMax() float64 {
	switch t {
	case Type_F32:
		return math.MaxFloat32
	case Type_F64:
		return math.MaxFloat64
	default:
		panic("unreachable")
	}
}

// BitfieldMax returns the largest value a bitfield of the given width can
// hold.
func BitfieldMax(width uint32) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << width) - 1
}

// Storage returns the unsigned type that holds a packed group of the given
// width. Groups wider than 64 bits are stored as a byte array, and the
// returned count is the number of array elements.
func Storage(bits uint32) (Type, uint32) {
	for _, t := range []Type{Type_U8, Type_U16, Type_U32, Type_U64} {
		if bits <= t.Bits() {
			return t, 1
		}
	}
	return Type_U8, (bits + 7) / 8
}
