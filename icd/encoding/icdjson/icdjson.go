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

// Package icdjson encodes a compiled model as JSON, and defines the
// request and response messages exchanged with codegen plugins.
package icdjson

import (
	"github.com/goccy/go-json"

	"go.icd-lang.org/icd/codegen"
	"go.icd-lang.org/icd/schema"
)

type Document struct {
	Modules        []Module `json:"modules"`
	Entities       []Entity `json:"entities"`
	MaxMessageSize uint64   `json:"max_message_size"`
}

type Module struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Entity is a constant, state, or message. Only the fields of its kind are
// set.
type Entity struct {
	Kind          string   `json:"kind"`
	Name          string   `json:"name"`
	QualifiedName []string `json:"qualified_name"`
	Module        string   `json:"module"`
	Doc           string   `json:"doc,omitempty"`

	Type  string `json:"type,omitempty"`
	Value *Value `json:"value,omitempty"`

	StateFields []StateField `json:"state_fields,omitempty"`

	Size   *uint64 `json:"size,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Value is a count or default. Ref is the qualified name of the constant
// or state field it was written as, if any.
type Value struct {
	Literal string   `json:"literal"`
	IsFloat bool     `json:"is_float,omitempty"`
	Ref     []string `json:"ref,omitempty"`
}

type StateField struct {
	Name    string `json:"name"`
	Ordinal int64  `json:"ordinal"`
	Doc     string `json:"doc,omitempty"`
}

type Field struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Doc  string `json:"doc,omitempty"`

	// The wire type: a builtin type name, or the storage type of a bit
	// word. Empty for fields of message type.
	Type    string   `json:"type,omitempty"`
	TypeRef []string `json:"type_ref,omitempty"`

	Count   *Value `json:"count,omitempty"`
	Default *Value `json:"default,omitempty"`
	Size    uint64 `json:"size"`

	Explicit bool       `json:"explicit,omitempty"`
	Members  []BitField `json:"members,omitempty"`
}

type BitField struct {
	Name    string `json:"name"`
	Width   uint32 `json:"width"`
	Default *Value `json:"default,omitempty"`
	Padding bool   `json:"padding,omitempty"`
	Doc     string `json:"doc,omitempty"`
}

func Encode(model *codegen.Model) ([]byte, error) {
	return json.MarshalIndent(NewDocument(model), "", "\t")
}

func NewDocument(model *codegen.Model) *Document {
	doc := &Document{
		Modules:        []Module{},
		Entities:       []Entity{},
		MaxMessageSize: model.MaxMessageSize(),
	}
	for _, mod := range model.Directory().Modules() {
		doc.Modules = append(doc.Modules, Module{
			Name: mod.Name(),
			Path: mod.Source().Path(),
		})
	}
	for _, decl := range model.Entities() {
		doc.Entities = append(doc.Entities, newEntity(model, decl))
	}
	return doc
}

func newEntity(model *codegen.Model, decl schema.Decl) Entity {
	entity := Entity{
		Kind:          decl.Kind().String(),
		Name:          decl.Name(),
		QualifiedName: model.QualifiedName(decl),
		Module:        model.ModuleName(decl),
		Doc:           decl.Doc(),
	}
	switch decl := decl.(type) {
	case *schema.Constant:
		entity.Type = decl.Type.String()
		entity.Value = newValue(model, decl.Value)
	case *schema.State:
		entity.StateFields = []StateField{}
		for _, field := range decl.Fields {
			entity.StateFields = append(entity.StateFields, StateField{
				Name:    field.Name(),
				Ordinal: field.Ordinal,
				Doc:     field.Doc(),
			})
		}
	case *schema.Message:
		size := model.Size(decl)
		entity.Size = &size
		entity.Fields = []Field{}
		for _, field := range decl.Fields {
			entity.Fields = append(entity.Fields, newField(model, field))
		}
	default:
		panic("unreachable")
	}
	return entity
}

func newField(model *codegen.Model, field schema.Field) Field {
	out := Field{
		Name: field.Name(),
		Kind: model.FieldKind(field).String(),
		Doc:  field.Doc(),
		Size: model.FieldSize(field),
	}
	if wireType := model.WireType(field); wireType.IsNumeric() {
		out.Type = wireType.String()
	}
	switch field := field.(type) {
	case *schema.BuiltinField:
		out.Count = newValue(model, field.Count)
		out.Default = newValue(model, field.Default)
	case *schema.UserDefinedField:
		out.TypeRef = model.QualifiedName(model.Target(field))
		out.Count = newValue(model, field.Count)
		out.Default = newValue(model, field.Default)
	case *schema.BitFieldGroup:
		out.Explicit = field.Explicit
		for _, member := range field.Members {
			out.Members = append(out.Members, BitField{
				Name:    member.Name(),
				Width:   member.Width,
				Default: newValue(model, member.Default),
				Padding: member.IsPadding,
				Doc:     member.Doc(),
			})
		}
	}
	return out
}

func newValue(model *codegen.Model, value *schema.Value) *Value {
	if value == nil {
		return nil
	}
	lit := model.Literal(value)
	out := &Value{
		Literal: lit.Text,
		IsFloat: lit.IsFloat,
	}
	if ref := model.Ref(value); ref != nil {
		out.Ref = model.QualifiedName(ref)
	}
	return out
}
