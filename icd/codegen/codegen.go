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

// Package codegen is the model that target-language emitters walk: the
// compiled declarations in emission order, plus the queries an emitter
// needs to print them.
package codegen

import (
	"strconv"

	"go.icd-lang.org/icd"
	"go.icd-lang.org/icd/schema"
)

type FieldKind uint8

const (
	FieldKind_UNKNOWN FieldKind = iota
	FieldKind_BUILTIN
	FieldKind_BITFIELD
	FieldKind_STATE
	FieldKind_MESSAGE
)

func (k FieldKind) String() string {
	switch k {
	case FieldKind_BUILTIN:
		return "builtin"
	case FieldKind_BITFIELD:
		return "bitfield"
	case FieldKind_STATE:
		return "state"
	case FieldKind_MESSAGE:
		return "message"
	}
	return "unknown"
}

type Model struct {
	dir      *schema.Directory
	entities []schema.Decl
	messages []*schema.Message
	sizes    map[schema.NodeID]uint64
}

// New builds a model from a compiled directory and its emission order.
// Every message must appear in order after the messages it contains.
func New(dir *schema.Directory, order []schema.Decl) *Model {
	m := &Model{
		dir:      dir,
		entities: order,
		sizes:    make(map[schema.NodeID]uint64),
	}
	for _, decl := range order {
		if msg, ok := decl.(*schema.Message); ok {
			m.messages = append(m.messages, msg)
			m.sizes[msg.ID()] = m.messageSize(msg)
		}
	}
	return m
}

func (m *Model) Directory() *schema.Directory {
	return m.dir
}

// Entities returns every constant, state, and message in emission order.
func (m *Model) Entities() []schema.Decl {
	return m.entities
}

// Messages returns the messages in emission order.
func (m *Model) Messages() []*schema.Message {
	return m.messages
}

func (m *Model) Node(id schema.NodeID) schema.Node {
	return m.dir.Node(id)
}

func (m *Model) QualifiedName(node schema.Node) schema.QualifiedName {
	return m.dir.QualifiedName(node)
}

// ModuleName returns the name of the module that declares node.
func (m *Model) ModuleName(node schema.Node) string {
	if mod := m.dir.ModuleOf(node); mod != nil {
		return mod.Name()
	}
	return ""
}

func (m *Model) FieldKind(field schema.Field) FieldKind {
	switch field := field.(type) {
	case *schema.BuiltinField:
		return FieldKind_BUILTIN
	case *schema.BitFieldGroup:
		return FieldKind_BITFIELD
	case *schema.UserDefinedField:
		switch m.dir.Node(field.Target).(type) {
		case *schema.State:
			return FieldKind_STATE
		case *schema.Message:
			return FieldKind_MESSAGE
		}
	}
	panic("unreachable")
}

func (m *Model) IsBuiltin(field schema.Field) bool {
	return m.FieldKind(field) == FieldKind_BUILTIN
}

func (m *Model) IsBitfield(field schema.Field) bool {
	return m.FieldKind(field) == FieldKind_BITFIELD
}

func (m *Model) IsUserDefined(field schema.Field) bool {
	kind := m.FieldKind(field)
	return kind == FieldKind_STATE || kind == FieldKind_MESSAGE
}

// WireType returns the builtin type a field is encoded as. Bitfield groups
// use their storage type, and fields of message type have none.
func (m *Model) WireType(field schema.Field) icd.Type {
	switch field := field.(type) {
	case *schema.BuiltinField:
		return field.Type
	case *schema.BitFieldGroup:
		type_, _ := m.Storage(field)
		return type_
	}
	if m.FieldKind(field) == FieldKind_STATE {
		return icd.StateType
	}
	return icd.Type_UNKNOWN
}

// Storage returns the builtin type holding a packed group, and the number
// of elements when the group is wider than 64 bits.
func (m *Model) Storage(group *schema.BitFieldGroup) (icd.Type, uint32) {
	return icd.Storage(group.Bits())
}

// Target returns the state or message a user-defined field refers to.
func (m *Model) Target(field *schema.UserDefinedField) schema.Node {
	return m.dir.Node(field.Target)
}

// Ref returns the constant or state field a value names, or nil for a
// literal.
func (m *Model) Ref(value *schema.Value) schema.Node {
	if value == nil || value.Target == 0 {
		return nil
	}
	return m.dir.Node(value.Target)
}

// Literal returns the number a value evaluates to.
func (m *Model) Literal(value *schema.Value) schema.Literal {
	switch ref := m.Ref(value).(type) {
	case nil:
		return schema.Literal{Text: value.Text, IsFloat: value.IsFloat}
	case *schema.Constant:
		return *ref.Literal
	case *schema.StateField:
		return schema.Literal{Text: strconv.FormatInt(ref.Ordinal, 10)}
	}
	panic("unreachable")
}

// Count returns the number of elements of a field. Scalars have a count
// of 1.
func (m *Model) Count(count *schema.Value) uint64 {
	if count == nil {
		return 1
	}
	n, err := strconv.ParseUint(m.Literal(count).Text, 10, 64)
	if err != nil {
		panic("unreachable")
	}
	return n
}

// Size returns the encoded size of a message in bytes.
func (m *Model) Size(msg *schema.Message) uint64 {
	size, ok := m.sizes[msg.ID()]
	if !ok {
		panic("codegen: message " + msg.Name() + " is not in the model")
	}
	return size
}

// MaxMessageSize returns the size of the largest message.
func (m *Model) MaxMessageSize() uint64 {
	var maxSize uint64
	for _, msg := range m.messages {
		maxSize = max(maxSize, m.sizes[msg.ID()])
	}
	return maxSize
}

func (m *Model) FieldSize(field schema.Field) uint64 {
	switch field := field.(type) {
	case *schema.BuiltinField:
		return uint64(field.Type.Size()) * m.Count(field.Count)
	case *schema.BitFieldGroup:
		return uint64(field.Size())
	case *schema.UserDefinedField:
		var elemSize uint64
		switch target := m.dir.Node(field.Target).(type) {
		case *schema.State:
			elemSize = uint64(icd.StateType.Size())
		case *schema.Message:
			elemSize = m.Size(target)
		}
		return elemSize * m.Count(field.Count)
	}
	panic("unreachable")
}

func (m *Model) messageSize(msg *schema.Message) uint64 {
	var size uint64
	for _, field := range msg.Fields {
		size += m.FieldSize(field)
	}
	return size
}
