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

package schema_test

import (
	"testing"

	"go.icd-lang.org/icd/schema"
	"go.icd-lang.org/icd/syntax"
	"go.icd-lang.org/internal/testutil"
)

func TestQualifiedName(t *testing.T) {
	t.Parallel()

	dir := schema.NewDirectory()
	src := syntax.NewSource("pump.icd", []byte("STATE mode {\n\tIDLE\n}\n"))
	mod := dir.AddModule("PUMP", src)

	state := dir.AddState(mod, "mode", schema.Pos{Source: src})
	idle := dir.AddStateField(state, "IDLE", schema.Pos{Source: src, Span: syntax.NewSpan(14, 4)})
	msg := dir.AddMessage(mod, "status", schema.Pos{Source: src})
	group := dir.AddBitFieldGroup(msg, "reserved_0", schema.Pos{Source: src})
	member := dir.AddBitField(group, "running", schema.Pos{Source: src})

	testutil.ExpectEq(t, "PUMP.mode", dir.QualifiedName(state).String())
	testutil.ExpectEq(t, "PUMP::mode::IDLE", dir.QualifiedName(idle).Join("::"))
	testutil.ExpectEq(t, "PUMP.status.running", dir.QualifiedName(member).String())

	testutil.ExpectTrue(t, dir.ModuleOf(member) == mod)
	testutil.ExpectTrue(t, dir.Node(idle.ID()) == schema.Node(idle))
	testutil.ExpectEq(t, state.ID(), idle.Parent())
	testutil.ExpectTrue(t, state.Field("IDLE") == idle)
	testutil.ExpectTrue(t, state.Field("BUSY") == nil)

	testutil.ExpectEq(t, "pump.icd:2:2", idle.Pos().String())
	testutil.ExpectEq(t, 2, idle.Pos().Line())
	testutil.ExpectEq(t, "<unknown>", schema.Pos{}.String())
}

func TestDeclare(t *testing.T) {
	t.Parallel()

	dir := schema.NewDirectory()
	mod := dir.AddModule("A", syntax.NewSource("a.icd", nil))
	first := dir.AddConstant(mod, "X", schema.Pos{})
	second := dir.AddMessage(mod, "X", schema.Pos{})

	_, ok := mod.Declare("X", first.ID())
	testutil.ExpectTrue(t, ok)

	prev, ok := mod.Declare("X", second.ID())
	testutil.ExpectFalse(t, ok)
	testutil.ExpectEq(t, first.ID(), prev)

	id, ok := mod.Lookup("X")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, first.ID(), id)

	_, ok = mod.Lookup("Y")
	testutil.ExpectFalse(t, ok)

	testutil.ExpectEq(t, 1, len(mod.Constants()))
	testutil.ExpectEq(t, 1, len(mod.Messages()))
	testutil.ExpectEq(t, 0, len(mod.States()))
	testutil.ExpectEq(t, 2, len(mod.Decls()))
}

func TestSortModules(t *testing.T) {
	t.Parallel()

	dir := schema.NewDirectory()
	for _, name := range []string{"ZETA", "ALPHA", "MID"} {
		dir.AddModule(name, syntax.NewSource(name, nil))
	}
	dir.SortModules()

	var names []string
	for _, mod := range dir.Modules() {
		names = append(names, mod.Name())
	}
	testutil.ExpectSliceEq(t, []string{"ALPHA", "MID", "ZETA"}, names)
	testutil.ExpectTrue(t, dir.Module("MID") != nil)
	testutil.ExpectTrue(t, dir.Module("mid") == nil)
}

func TestBitFieldGroup(t *testing.T) {
	t.Parallel()

	dir := schema.NewDirectory()
	mod := dir.AddModule("M", syntax.NewSource("m.icd", nil))
	msg := dir.AddMessage(mod, "msg", schema.Pos{})
	dir.AddBuiltinField(msg, "head", schema.Pos{})
	group := dir.AddBitFieldGroup(msg, "word", schema.Pos{})

	testutil.ExpectTrue(t, group.Padding() == nil)
	testutil.ExpectEq(t, 0, group.Size())

	a := dir.AddBitField(group, "a", schema.Pos{})
	a.Width = 3
	b := dir.AddBitField(group, "b", schema.Pos{})
	b.Width = 7
	testutil.ExpectEq(t, 10, group.Bits())
	testutil.ExpectEq(t, 2, group.Size())
	testutil.ExpectTrue(t, group.Padding() == nil)

	pad := dir.AddBitField(group, "__msg_pad_0", schema.Pos{})
	pad.Width = 6
	pad.IsPadding = true
	testutil.ExpectEq(t, 16, group.Bits())
	testutil.ExpectEq(t, 2, group.Size())
	testutil.ExpectTrue(t, group.Padding() == pad)

	var flat []string
	for _, node := range msg.FlatFields() {
		flat = append(flat, node.Name())
	}
	testutil.ExpectSliceEq(t, []string{"head", "a", "b", "__msg_pad_0"}, flat)
}

func TestKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind schema.Kind
		want string
	}{
		{schema.Kind_MODULE, "module"},
		{schema.Kind_CONSTANT, "constant"},
		{schema.Kind_STATE_FIELD, "state field"},
		{schema.Kind_BITFIELD_GROUP, "bit word"},
		{schema.Kind_BIT_FIELD, "field"},
		{schema.Kind_USER_DEFINED_FIELD, "field"},
		{schema.Kind(200), "Kind(200)"},
	}
	for _, test := range tests {
		testutil.ExpectEq(t, test.want, test.kind.String())
	}
}

func TestNewValue(t *testing.T) {
	t.Parallel()

	file, errs := syntax.Parse([]byte("CONSTANT A f32 = 1.5\nCONSTANT B u8 = A\n"))
	testutil.AssertEq(t, 0, len(errs))

	var values []*schema.Value
	for decl := range file.Decls() {
		values = append(values, schema.NewValue(decl.(*syntax.Const).Value(), schema.Pos{}))
	}
	testutil.AssertEq(t, 2, len(values))
	testutil.ExpectTrue(t, values[0].IsFloat)
	testutil.ExpectFalse(t, values[0].IsName)
	testutil.ExpectEq(t, "1.5", values[0].String())
	testutil.ExpectTrue(t, values[1].IsName)
	testutil.ExpectEq(t, "A", values[1].Text)
	testutil.ExpectTrue(t, schema.NewValue(nil, schema.Pos{}) == nil)
}
