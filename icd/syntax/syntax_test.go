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
	"strings"
	"testing"

	"go.icd-lang.org/icd"
	"go.icd-lang.org/icd/syntax"
	"go.icd-lang.org/internal/testutil"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		tree   string
		errors []string
	}{
		{
			name: "declarations",
			src: `# LED module
CONSTANT LED_COUNT u8 = 4 -Doc "number of LEDs"

STATE states -Doc "power"
{
    ON
    OFF = 3 # explicit
}

MESSAGEDEF ledStatus {
    count u8[LED_COUNT]

    test states = ON -Doc "current state"
    flags bitfield[3] -PW word
}
`,
			tree: `const LED_COUNT u8 = 4 -Doc "number of LEDs"
state states -Doc "power"
  item ON
  item OFF = 3
message ledStatus
  field count u8[LED_COUNT]
  field test states = ON -Doc "current state"
  field flags bitfield[3] -PW word
`,
		},
		{
			name: "options_any_order",
			src: "MESSAGEDEF m -PW w -Doc \"d\" {\r\n" +
				"\tf bitfield -PW w -Doc \"x\"\r\n" +
				"}\r\n",
			tree: `message m -Doc "d" -PW w
  field f bitfield -Doc "x" -PW w
`,
		},
		{
			name: "no_trailing_newline",
			src:  "CONSTANT PI f64 = 3.14159",
			tree: "const PI f64 = 3.14159\n",
		},
		{
			name: "field_error_resumes_next_line",
			src: `MESSAGEDEF m {
    a u8
    b = 5
    c u16
}
CONSTANT X u8 = 1
`,
			tree: `message m
  field a u8
  error E2008
  field c u16
const X u8 = 1
`,
			errors: []string{"expected_type_name"},
		},
		{
			name: "header_error_skips_body",
			src: `MESSAGEDEF 5bad {
    a u8
}
STATE s {
    A
}
`,
			tree: `error E2007
state s
  item A
`,
			errors: []string{"expected_ident"},
		},
		{
			name: "header_error_before_brace_line",
			src: `MESSAGEDEF m -PW
{
    a u8
}
CONSTANT C u8 = 2
`,
			tree: `error E2007
const C u8 = 2
`,
			errors: []string{"expected_ident"},
		},
		{
			name:   "duplicate_option",
			src:    "CONSTANT A u8 = 1 -Doc \"a\" -Doc \"b\"\nCONSTANT B u8 = 2\n",
			tree:   "error E2009\nconst B u8 = 2\n",
			errors: []string{"duplicate_option"},
		},
		{
			name:   "unterminated_body",
			src:    "CONSTANT A u8 = 1\nMESSAGEDEF m {\n    a u8\n",
			tree:   "const A u8 = 1\nerror E2014\n",
			errors: []string{"unterminated_body"},
		},
		{
			name:   "expected_declaration",
			src:    "foo bar\nCONSTANT B i8 = -1\n",
			tree:   "error E2010\nconst B i8 = -1\n",
			errors: []string{"expected_declaration"},
		},
		{
			name:   "lexical_error_keeps_field",
			src:    "MESSAGEDEF m {\n    a u8 = 1 $\n}\n",
			tree:   "message m\n  field a u8 = 1\n",
			errors: []string{"unexpected_character"},
		},
		{
			name: "errors_in_several_declarations",
			src: `STATE s {
    A = u8
    B
}
CONSTANT C bitfield = x y
MESSAGEDEF m {
    a u8[4
}
`,
			tree: `state s
  error E2011
  item B
error E2013
message m
  error E2004
`,
			errors: []string{"expected_value", "expected_newline", "expected_close_square"},
		},
		{
			name:   "constant_needs_builtin_type",
			src:    "CONSTANT A states = 1\n",
			tree:   "error E2012\n",
			errors: []string{"expected_builtin_type"},
		},
		{
			name:   "two_items_on_one_line",
			src:    "STATE s { ON OFF }\n",
			tree:   "state s\n  error E2013\n",
			errors: []string{"expected_newline"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			file, errs := syntax.Parse([]byte(test.src))
			if file == nil {
				t.Fatalf("Parse returned nil file, errors: %v", errs)
			}
			testutil.ExpectEq(t, test.src, syntax.Unparse(file))
			testutil.ExpectNoDiff(t, test.tree, testutil.DumpTree(file))

			if len(errs) != len(test.errors) {
				t.Fatalf("Expected %d errors, got: %v", len(test.errors), errs)
			}
			for ii, name := range test.errors {
				want := testutil.Lookup(t, syntaxErrors, name)
				testutil.ExpectDiagnostic(t, want, errs[ii].Code(), errs[ii].Message())
			}
		})
	}
}

func TestParseSourceErrors(t *testing.T) {
	t.Parallel()

	file, errs := syntax.Parse([]byte("CONSTANT A u8 = 1 \xfe\n"))
	testutil.ExpectTrue(t, file == nil)
	testutil.AssertEq(t, 1, len(errs))
	testutil.ExpectEq(t, uint32(1001), errs[0].Code())
}

func TestParseSkipTrivia(t *testing.T) {
	t.Parallel()

	src := "# header\nCONSTANT A u8 = 1 # one\n"
	file, errs := syntax.Parse([]byte(src), syntax.SkipTrivia())
	testutil.AssertEq(t, 0, len(errs))
	testutil.ExpectEq(t, "CONSTANTAu8=1", syntax.Unparse(file))
}

func TestNodeAccessors(t *testing.T) {
	t.Parallel()

	src := `CONSTANT NEG i8 = -5
CONSTANT BIG u64 = 18446744073709551615
CONSTANT RATIO f32 = 0.25
MESSAGEDEF m -Doc "msg" {
    a u16[2] = 7
    b other -Doc "x"
}
`
	file, errs := syntax.Parse([]byte(src))
	testutil.AssertEq(t, 0, len(errs))

	var decls []syntax.Decl
	for decl := range file.Decls() {
		decls = append(decls, decl)
	}
	testutil.AssertEq(t, 4, len(decls))

	neg := decls[0].(*syntax.Const)
	testutil.ExpectEq(t, "NEG", neg.Name().Get())
	testutil.ExpectEq(t, icd.Type_I8, neg.TypeName().Get())
	negValue := neg.Value().(*syntax.NumberLit)
	testutil.ExpectTrue(t, negValue.IsNegative())
	negInt, ok := negValue.GetInt64()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, int64(-5), negInt)
	_, ok = negValue.GetUint64()
	testutil.ExpectFalse(t, ok)

	big := decls[1].(*syntax.Const).Value().(*syntax.NumberLit)
	_, ok = big.GetInt64()
	testutil.ExpectFalse(t, ok)
	bigValue, ok := big.GetUint64()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint64(18446744073709551615), bigValue)

	ratio := decls[2].(*syntax.Const).Value().(*syntax.NumberLit)
	testutil.ExpectTrue(t, ratio.IsFloat())
	ratioValue, _ := ratio.GetFloat64()
	testutil.ExpectEq(t, 0.25, ratioValue)

	msg := decls[3].(*syntax.Message)
	testutil.ExpectEq(t, "msg", msg.Options().DocText())
	testutil.ExpectTrue(t, msg.Options().Bitword() == nil)
	testutil.AssertEq(t, 2, len(msg.Fields()))

	a := msg.Fields()[0]
	testutil.ExpectEq(t, icd.Type_U16, a.FieldType().(*syntax.BuiltinType).Get())
	testutil.ExpectEq(t, "2", syntax.ValueText(a.ArrayLen().Value()))
	testutil.ExpectEq(t, "7", syntax.ValueText(a.Value()))

	b := msg.Fields()[1]
	testutil.ExpectEq(t, "other", b.FieldType().(*syntax.Ident).Get())
	testutil.ExpectTrue(t, b.ArrayLen() == nil)
	testutil.ExpectTrue(t, b.Value() == nil)
	testutil.ExpectEq(t, "x", b.Options().DocText())

	span := b.Name().Span()
	testutil.ExpectEq(t, "b", src[span.Start():span.End()])
}

func TestWalk(t *testing.T) {
	t.Parallel()

	file, _ := syntax.Parse([]byte("STATE s {\n    A\n    B = 2\n}\n"))
	var idents []string
	syntax.Walk(file, func(node syntax.Node) bool {
		if ident, ok := node.(*syntax.Ident); ok {
			idents = append(idents, ident.Get())
		}
		return true
	})
	testutil.ExpectSliceEq(t, []string{"s", "A", "B"}, idents)
}

func TestSourcePosition(t *testing.T) {
	t.Parallel()

	src := syntax.NewSource("led.icd", []byte("ab\n\tcé d\r\nlast"))
	testutil.ExpectEq(t, "led.icd", src.Path())

	tests := []struct {
		offset uint32
		line   int
		column int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{4, 2, 2},
		// 'é' is two bytes wide but one column.
		{8, 2, 5},
		{12, 3, 2},
		{14, 3, 4},
	}
	for _, test := range tests {
		line, column := src.Position(test.offset)
		testutil.ExpectEq(t, test.line, line)
		testutil.ExpectEq(t, test.column, column)
	}

	testutil.ExpectEq(t, "\tcé d", src.Line(2))
	testutil.ExpectEq(t, "", src.Line(4))
	testutil.ExpectEq(t, "\t\tcé d\n\t\t  ^", src.Excerpt(7))

	excerpt := src.Excerpt(13)
	testutil.ExpectTrue(t, strings.HasSuffix(excerpt, "\n\t  ^"))
}
