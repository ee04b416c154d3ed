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

// Package schema holds the compiled form of a directory of schema files.
//
// Ownership runs strictly downward (Directory, Module, declarations,
// fields). Upward links and resolved references are NodeIDs into the
// directory's node table, so the tree stays acyclic.
package schema

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.icd-lang.org/icd"
	"go.icd-lang.org/icd/syntax"
)

// NodeID indexes the directory's node table. The zero NodeID refers to no
// node.
type NodeID uint32

type Kind uint8

const (
	Kind_UNKNOWN Kind = iota
	Kind_DIRECTORY
	Kind_MODULE
	Kind_CONSTANT
	Kind_STATE
	Kind_STATE_FIELD
	Kind_MESSAGE
	Kind_BUILTIN_FIELD
	Kind_BITFIELD_GROUP
	Kind_BIT_FIELD
	Kind_USER_DEFINED_FIELD
)

func (k Kind) String() string {
	switch k {
	case Kind_DIRECTORY:
		return "directory"
	case Kind_MODULE:
		return "module"
	case Kind_CONSTANT:
		return "constant"
	case Kind_STATE:
		return "state"
	case Kind_STATE_FIELD:
		return "state field"
	case Kind_MESSAGE:
		return "message"
	case Kind_BUILTIN_FIELD, Kind_USER_DEFINED_FIELD, Kind_BIT_FIELD:
		return "field"
	case Kind_BITFIELD_GROUP:
		return "bit word"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Pos locates a node in its source file.
type Pos struct {
	Source *syntax.Source
	Span   syntax.Span
}

func (p Pos) Path() string {
	if p.Source == nil {
		return ""
	}
	return p.Source.Path()
}

func (p Pos) Line() int {
	if p.Source == nil {
		return 0
	}
	line, _ := p.Source.Position(p.Span.Start())
	return line
}

func (p Pos) Column() int {
	if p.Source == nil {
		return 0
	}
	_, column := p.Source.Position(p.Span.Start())
	return column
}

func (p Pos) String() string {
	if p.Source == nil {
		return "<unknown>"
	}
	line, column := p.Source.Position(p.Span.Start())
	return fmt.Sprintf("%s:%d:%d", p.Source.Path(), line, column)
}

type Node interface {
	ID() NodeID
	Kind() Kind
	Name() string
	Parent() NodeID
	Pos() Pos
	Doc() string

	base() *nodeBase
}

type nodeBase struct {
	id     NodeID
	kind   Kind
	parent NodeID
	name   string
	pos    Pos
	doc    string
}

func (n *nodeBase) ID() NodeID { return n.id }

func (n *nodeBase) Kind() Kind { return n.kind }

func (n *nodeBase) Name() string { return n.name }

func (n *nodeBase) Parent() NodeID { return n.parent }

func (n *nodeBase) Pos() Pos { return n.pos }

func (n *nodeBase) Doc() string { return n.doc }

func (n *nodeBase) SetDoc(doc string) { n.doc = doc }

func (n *nodeBase) base() *nodeBase { return n }

// Value is the content of a count or default slot: either a numeric
// literal or a name. After resolution, a name's Target is the constant or
// state field it refers to.
type Value struct {
	Text    string
	IsName  bool
	IsFloat bool
	Pos     Pos
	Target  NodeID
}

func NewValue(node syntax.Node, pos Pos) *Value {
	switch node := node.(type) {
	case *syntax.NumberLit:
		return &Value{
			Text:    node.Text(),
			IsFloat: node.IsFloat(),
			Pos:     pos,
		}
	case *syntax.Ident:
		return &Value{
			Text:   node.Get(),
			IsName: true,
			Pos:    pos,
		}
	}
	return nil
}

func (v *Value) String() string {
	return v.Text
}

// Literal is a numeric value after following constant references.
type Literal struct {
	Text    string
	IsFloat bool
}

type Directory struct {
	nodeBase
	nodes   []Node
	modules []*Module
}

func NewDirectory() *Directory {
	dir := &Directory{}
	// NodeID 0 is reserved.
	dir.nodes = []Node{nil}
	dir.register(dir, Kind_DIRECTORY, 0, "", Pos{})
	return dir
}

func (d *Directory) register(node Node, kind Kind, parent NodeID, name string, pos Pos) {
	b := node.base()
	b.id = NodeID(len(d.nodes))
	b.kind = kind
	b.parent = parent
	b.name = name
	b.pos = pos
	d.nodes = append(d.nodes, node)
}

// Node returns the node with the given ID, or nil for the zero ID.
func (d *Directory) Node(id NodeID) Node {
	if int(id) >= len(d.nodes) {
		panic(fmt.Sprintf("schema: NodeID %d out of range", id))
	}
	return d.nodes[id]
}

func (d *Directory) Modules() []*Module {
	return d.modules
}

func (d *Directory) Module(name string) *Module {
	for _, mod := range d.modules {
		if mod.name == name {
			return mod
		}
	}
	return nil
}

// ModuleOf returns the module containing a node.
func (d *Directory) ModuleOf(node Node) *Module {
	for node != nil {
		if mod, ok := node.(*Module); ok {
			return mod
		}
		node = d.Node(node.Parent())
	}
	return nil
}

// SortModules orders modules by name.
func (d *Directory) SortModules() {
	slices.SortStableFunc(d.modules, func(a, b *Module) int {
		return cmp.Compare(a.name, b.name)
	})
}

func (d *Directory) AddModule(name string, src *syntax.Source) *Module {
	mod := &Module{
		source: src,
		names:  make(map[string]NodeID),
	}
	d.register(mod, Kind_MODULE, d.id, name, Pos{Source: src})
	d.modules = append(d.modules, mod)
	return mod
}

// Decl is a top-level declaration: *Constant, *State, or *Message.
type Decl interface {
	Node
	isDecl()
}

type Module struct {
	nodeBase
	source *syntax.Source
	decls  []Decl
	names  map[string]NodeID
}

func (m *Module) Source() *syntax.Source {
	return m.source
}

// Decls returns the module's declarations in source order.
func (m *Module) Decls() []Decl {
	return m.decls
}

func (m *Module) Constants() []*Constant {
	return declsOf[*Constant](m.decls)
}

func (m *Module) States() []*State {
	return declsOf[*State](m.decls)
}

func (m *Module) Messages() []*Message {
	return declsOf[*Message](m.decls)
}

func declsOf[T Decl](decls []Decl) []T {
	var out []T
	for _, decl := range decls {
		if d, ok := decl.(T); ok {
			out = append(out, d)
		}
	}
	return out
}

// Lookup finds a constant, state, state field, or message declared in the
// module.
func (m *Module) Lookup(name string) (NodeID, bool) {
	id, ok := m.names[name]
	return id, ok
}

// Declare claims a name in the module namespace. When the name is taken,
// the earlier owner is returned and the namespace is unchanged.
func (m *Module) Declare(name string, id NodeID) (NodeID, bool) {
	if prev, taken := m.names[name]; taken {
		return prev, false
	}
	m.names[name] = id
	return 0, true
}

type Constant struct {
	nodeBase
	Type  icd.Type
	Value *Value

	// Set by validation: the literal at the end of the reference chain.
	Literal *Literal
}

func (*Constant) isDecl() {}

func (d *Directory) AddConstant(mod *Module, name string, pos Pos) *Constant {
	node := &Constant{}
	d.register(node, Kind_CONSTANT, mod.id, name, pos)
	mod.decls = append(mod.decls, node)
	return node
}

type State struct {
	nodeBase
	Fields []*StateField
}

func (*State) isDecl() {}

func (d *Directory) AddState(mod *Module, name string, pos Pos) *State {
	node := &State{}
	d.register(node, Kind_STATE, mod.id, name, pos)
	mod.decls = append(mod.decls, node)
	return node
}

// Field returns the state field with the given name.
func (s *State) Field(name string) *StateField {
	for _, field := range s.Fields {
		if field.name == name {
			return field
		}
	}
	return nil
}

type StateField struct {
	nodeBase

	// Nil when the field takes its position as its ordinal.
	Value *Value

	// Set by validation.
	Ordinal int64
}

func (d *Directory) AddStateField(state *State, name string, pos Pos) *StateField {
	node := &StateField{}
	d.register(node, Kind_STATE_FIELD, state.id, name, pos)
	state.Fields = append(state.Fields, node)
	return node
}

type Message struct {
	nodeBase
	Fields []Field
}

func (*Message) isDecl() {}

func (d *Directory) AddMessage(mod *Module, name string, pos Pos) *Message {
	node := &Message{}
	d.register(node, Kind_MESSAGE, mod.id, name, pos)
	mod.decls = append(mod.decls, node)
	return node
}

// Field is a message field: *BuiltinField, *BitFieldGroup, or
// *UserDefinedField.
type Field interface {
	Node
	isField()
}

type BuiltinField struct {
	nodeBase
	Type icd.Type

	// Nil for scalar fields.
	Count   *Value
	Default *Value
}

func (*BuiltinField) isField() {}

func (d *Directory) AddBuiltinField(msg *Message, name string, pos Pos) *BuiltinField {
	node := &BuiltinField{}
	d.register(node, Kind_BUILTIN_FIELD, msg.id, name, pos)
	msg.Fields = append(msg.Fields, node)
	return node
}

type UserDefinedField struct {
	nodeBase
	TypeName string
	TypePos  Pos

	// Set by resolution: a *State or *Message.
	Target NodeID

	Count   *Value
	Default *Value
}

func (*UserDefinedField) isField() {}

func (d *Directory) AddUserDefinedField(msg *Message, name string, pos Pos) *UserDefinedField {
	node := &UserDefinedField{}
	d.register(node, Kind_USER_DEFINED_FIELD, msg.id, name, pos)
	msg.Fields = append(msg.Fields, node)
	return node
}

// BitFieldGroup is a run of adjacent bitfields packed into one bit word.
// Its name is the bit word name.
type BitFieldGroup struct {
	nodeBase
	Members []*BitField

	// Explicit is set when the bit word was named with -PW.
	Explicit bool
}

func (*BitFieldGroup) isField() {}

func (d *Directory) AddBitFieldGroup(msg *Message, name string, pos Pos) *BitFieldGroup {
	node := &BitFieldGroup{}
	d.register(node, Kind_BITFIELD_GROUP, msg.id, name, pos)
	msg.Fields = append(msg.Fields, node)
	return node
}

// Bits returns the width of the group including padding.
func (g *BitFieldGroup) Bits() uint32 {
	var bits uint32
	for _, member := range g.Members {
		bits += member.Width
	}
	return bits
}

// Padding returns the trailing padding member, if any.
func (g *BitFieldGroup) Padding() *BitField {
	if len(g.Members) == 0 {
		return nil
	}
	if last := g.Members[len(g.Members)-1]; last.IsPadding {
		return last
	}
	return nil
}

// Size returns the packed size of the group in bytes.
func (g *BitFieldGroup) Size() uint32 {
	return (g.Bits() + 7) / 8
}

type BitField struct {
	nodeBase
	Width     uint32
	Default   *Value
	IsPadding bool
}

func (d *Directory) AddBitField(group *BitFieldGroup, name string, pos Pos) *BitField {
	node := &BitField{}
	d.register(node, Kind_BIT_FIELD, group.id, name, pos)
	group.Members = append(group.Members, node)
	return node
}

// FlatFields returns every named field of a message, flattening
// bitfield groups into their members.
func (m *Message) FlatFields() []Node {
	var out []Node
	for _, field := range m.Fields {
		if group, ok := field.(*BitFieldGroup); ok {
			for _, member := range group.Members {
				out = append(out, member)
			}
			continue
		}
		out = append(out, field)
	}
	return out
}

// QualifiedName returns the scope path of a node: its module, the state or
// message containing it (if any), and its own name. Bitfield members are
// scoped to their message, not their bit word.
func (d *Directory) QualifiedName(node Node) QualifiedName {
	parts := []string{node.Name()}
	for id := node.Parent(); id != 0; {
		parent := d.Node(id)
		if kind := parent.Kind(); kind != Kind_DIRECTORY && kind != Kind_BITFIELD_GROUP {
			parts = append(parts, parent.Name())
		}
		id = parent.Parent()
	}
	slices.Reverse(parts)
	return parts
}

type QualifiedName []string

func (q QualifiedName) Join(sep string) string {
	return strings.Join(q, sep)
}

func (q QualifiedName) String() string {
	return q.Join(".")
}
