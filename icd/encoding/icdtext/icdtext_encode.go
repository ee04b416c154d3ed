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

// Package icdtext renders a compiled model as indented text, one line per
// declaration or field, in emission order.
package icdtext

import (
	"fmt"
	"io"
	"strings"

	"go.icd-lang.org/icd/codegen"
	"go.icd-lang.org/icd/schema"
)

func Encode(model *codegen.Model) string {
	var buf strings.Builder
	EncodeTo(model, &buf)
	return buf.String()
}

func EncodeTo(model *codegen.Model, w io.Writer) error {
	e := encoder{w: w, model: model}
	for _, decl := range model.Entities() {
		if e.err != nil {
			break
		}
		e.visitDecl(decl)
	}
	return e.err
}

type encoder struct {
	w      io.Writer
	model  *codegen.Model
	indent int
	err    error
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s+"\n"); err != nil {
		e.err = err
	}
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *encoder) doc(node schema.Node) {
	if doc := node.Doc(); doc != "" {
		e.indent += 1
		e.linef("-Doc %s", quote(doc))
		e.indent -= 1
	}
}

func (e *encoder) visitDecl(decl schema.Decl) {
	name := e.model.QualifiedName(decl)
	switch decl := decl.(type) {
	case *schema.Constant:
		e.linef("constant %s %s = %s", name, decl.Type, e.value(decl.Value))
		e.doc(decl)
	case *schema.State:
		e.linef("state %s {", name)
		e.doc(decl)
		e.indent += 1
		for _, field := range decl.Fields {
			e.linef("%s = %d", field.Name(), field.Ordinal)
			e.doc(field)
		}
		e.indent -= 1
		e.line("}")
	case *schema.Message:
		e.linef("message %s (%d bytes) {", name, e.model.Size(decl))
		e.doc(decl)
		e.indent += 1
		for _, field := range decl.Fields {
			e.visitField(field)
		}
		e.indent -= 1
		e.line("}")
	default:
		panic("unreachable")
	}
}

func (e *encoder) visitField(field schema.Field) {
	switch field := field.(type) {
	case *schema.BuiltinField:
		e.linef("%s %s%s%s", field.Name(), field.Type, e.count(field.Count), e.defaultValue(field.Default))
		e.doc(field)
	case *schema.UserDefinedField:
		target := e.model.QualifiedName(e.model.Target(field))
		e.linef("%s %s%s%s", field.Name(), target, e.count(field.Count), e.defaultValue(field.Default))
		e.doc(field)
	case *schema.BitFieldGroup:
		storage, count := e.model.Storage(field)
		if count > 1 {
			e.linef("bitword %s %s[%d] {", field.Name(), storage, count)
		} else {
			e.linef("bitword %s %s {", field.Name(), storage)
		}
		e.indent += 1
		for _, member := range field.Members {
			if member.IsPadding {
				e.linef("%s bitfield[%d] padding", member.Name(), member.Width)
				continue
			}
			e.linef("%s bitfield[%d]%s", member.Name(), member.Width, e.defaultValue(member.Default))
			e.doc(member)
		}
		e.indent -= 1
		e.line("}")
	default:
		panic("unreachable")
	}
}

// value renders a literal as written, and a reference as the qualified
// name of its target followed by the number it evaluates to.
func (e *encoder) value(value *schema.Value) string {
	ref := e.model.Ref(value)
	if ref == nil {
		return value.Text
	}
	return fmt.Sprintf("%s (%s)", e.model.QualifiedName(ref), e.model.Literal(value).Text)
}

func (e *encoder) count(count *schema.Value) string {
	if count == nil {
		return ""
	}
	return "[" + e.value(count) + "]"
}

func (e *encoder) defaultValue(value *schema.Value) string {
	if value == nil {
		return ""
	}
	return " = " + e.value(value)
}

func quote(text string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range text {
		switch {
		case c == '\\' || c == '"':
			buf.WriteByte('\\')
			buf.WriteRune(c)
		case c == '\t':
			buf.WriteString("\\t")
		case c < 0x20 || c == 0x7F:
			fmt.Fprintf(&buf, "\\x%02X", c)
		default:
			buf.WriteRune(c)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}
