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

package syntax

import (
	"bytes"
	"iter"
	"strconv"
	"strings"

	"go.icd-lang.org/icd"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s *Span) Start() uint32 {
	return s.start
}

func (s *Span) End() uint32 {
	return s.start + s.len
}

func (s *Span) Len() uint32 {
	return s.len
}

type Node interface {
	Span() Span

	ChildNodes() iter.Seq[Node]

	privChildren() []Node

	UnparseTo(buf *bytes.Buffer)
}

func Unparse(node Node) string {
	var buf bytes.Buffer
	node.UnparseTo(&buf)
	return buf.String()
}

func Walk(node Node, walkFn func(Node) bool) {
	if node == nil || !walkFn(node) {
		return
	}
	for _, child := range node.privChildren() {
		Walk(child, walkFn)
	}
	walkFn(nil)
}

func iterChildren(childNodes []Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, child := range childNodes {
			if !yield(child) {
				return
			}
		}
	}
}

type leafNode struct{}

func (*leafNode) ChildNodes() iter.Seq[Node] {
	return func(_yield func(Node) bool) {}
}

func (*leafNode) privChildren() []Node {
	return nil
}

type branchNode struct {
	span       Span
	childNodes []Node
}

func (n *branchNode) Span() Span {
	return n.span
}

func (n *branchNode) ChildNodes() iter.Seq[Node] {
	return iterChildren(n.childNodes)
}

func (n *branchNode) privChildren() []Node {
	return n.childNodes
}

func (n *branchNode) UnparseTo(buf *bytes.Buffer) {
	for _, childNode := range n.childNodes {
		childNode.UnparseTo(buf)
	}
}

// ParseError holds source text skipped while recovering from an error.
type ParseError struct {
	leafNode
	raw   string
	start uint32
	err   *Error
}

var _ Node = (*ParseError)(nil)

func (e *ParseError) Span() Span {
	return Span{
		start: e.start,
		len:   uint32(len(e.raw)),
	}
}

func (e *ParseError) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(e.raw)
}

func (e *ParseError) Get() *Error {
	return e.err
}

type Space struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Space)(nil)

func (n *Space) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Space) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

type Newline struct {
	leafNode
	start uint32
	crlf  bool
}

var _ Node = (*Newline)(nil)

func (n *Newline) Span() Span {
	var len uint32
	if n.crlf {
		len = 2
	} else {
		len = 1
	}
	return Span{
		start: n.start,
		len:   len,
	}
}

func (n *Newline) UnparseTo(buf *bytes.Buffer) {
	if n.crlf {
		buf.WriteString("\r\n")
	} else {
		buf.WriteByte('\n')
	}
}

type Comment struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Comment)(nil)

func (n *Comment) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Comment) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *Comment) Text() string {
	return n.raw
}

type Sigil struct {
	leafNode
	raw   byte
	start uint32
}

var _ Node = (*Sigil)(nil)

func (n *Sigil) Span() Span {
	return Span{
		start: n.start,
		len:   1,
	}
}

func (n *Sigil) UnparseTo(buf *bytes.Buffer) {
	buf.WriteByte(n.raw)
}

// Keyword is a declaration keyword or an option marker ("-Doc", "-PW").
type Keyword struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Keyword)(nil)

func (n *Keyword) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Keyword) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *Keyword) Get() string {
	return n.raw
}

type Ident struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*Ident)(nil)

func (n *Ident) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *Ident) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *Ident) Get() string {
	return n.raw
}

// BuiltinType is a builtin type keyword in a type position.
type BuiltinType struct {
	leafNode
	raw   string
	type_ icd.Type
	start uint32
}

var _ Node = (*BuiltinType)(nil)

func (n *BuiltinType) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *BuiltinType) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *BuiltinType) Get() icd.Type {
	return n.type_
}

func (n *BuiltinType) Text() string {
	return n.raw
}

type NumberLit struct {
	leafNode
	raw     string
	isFloat bool
	start   uint32
}

var _ Node = (*NumberLit)(nil)

func (n *NumberLit) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *NumberLit) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

func (n *NumberLit) Text() string {
	return n.raw
}

func (n *NumberLit) IsFloat() bool {
	return n.isFloat
}

func (n *NumberLit) IsNegative() bool {
	return n.raw[0] == '-'
}

// GetUint64 returns the value of a non-negative integer literal. It fails
// for negative numbers, fractional numbers, and values above 2**64-1.
func (n *NumberLit) GetUint64() (uint64, bool) {
	if n.isFloat || n.IsNegative() {
		return 0, false
	}
	v, err := strconv.ParseUint(n.raw, 10, 64)
	return v, err == nil
}

func (n *NumberLit) GetInt64() (int64, bool) {
	if n.isFloat {
		return 0, false
	}
	v, err := strconv.ParseInt(n.raw, 10, 64)
	return v, err == nil
}

func (n *NumberLit) GetFloat64() (float64, bool) {
	v, err := strconv.ParseFloat(n.raw, 64)
	return v, err == nil
}

type TextLit struct {
	leafNode
	raw   string
	start uint32
}

var _ Node = (*TextLit)(nil)

func (n *TextLit) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *TextLit) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

// Get returns the literal's content without the surrounding quotes.
func (n *TextLit) Get() string {
	return n.raw[1 : len(n.raw)-1]
}

// ValueText returns the source text of a value node (*NumberLit or *Ident).
func ValueText(node Node) string {
	switch node := node.(type) {
	case *NumberLit:
		return node.raw
	case *Ident:
		return node.raw
	case nil:
		return ""
	default:
		return strings.TrimSpace(Unparse(node))
	}
}

type File struct {
	branchNode
}

var _ Node = (*File)(nil)

// Decls returns the declarations that parsed without error, in source
// order.
func (n *File) Decls() iter.Seq[Decl] {
	return func(yield func(Decl) bool) {
		for _, child := range n.childNodes {
			if decl, ok := child.(Decl); ok {
				if !yield(decl) {
					return
				}
			}
		}
	}
}

// Decl is a top-level declaration: *Const, *State, or *Message.
type Decl interface {
	Node
	Name() *Ident
	Options() *Options
}

// Options holds the "-Doc" and "-PW" clauses attached to a declaration,
// field, or state item. Either may be absent.
type Options struct {
	doc     *DocOption
	bitword *BitwordOption
}

func (o *Options) Doc() *DocOption {
	if o == nil {
		return nil
	}
	return o.doc
}

func (o *Options) Bitword() *BitwordOption {
	if o == nil {
		return nil
	}
	return o.bitword
}

// DocText returns the documentation string, or "" when absent.
func (o *Options) DocText() string {
	if doc := o.Doc(); doc != nil && doc.text != nil {
		return doc.text.Get()
	}
	return ""
}

type DocOption struct {
	branchNode
	text *TextLit
}

var _ Node = (*DocOption)(nil)

func (n *DocOption) Text() *TextLit {
	return n.text
}

type BitwordOption struct {
	branchNode
	name *Ident
}

var _ Node = (*BitwordOption)(nil)

func (n *BitwordOption) Name() *Ident {
	return n.name
}

type Const struct {
	branchNode
	name     *Ident
	typeName *BuiltinType
	value    Node
	options  Options
}

var _ Decl = (*Const)(nil)

func (n *Const) Name() *Ident {
	return n.name
}

func (n *Const) TypeName() *BuiltinType {
	return n.typeName
}

// Value returns a *NumberLit or an *Ident.
func (n *Const) Value() Node {
	return n.value
}

func (n *Const) Options() *Options {
	return &n.options
}

type State struct {
	branchNode
	name    *Ident
	options Options
	items   []*StateItem
}

var _ Decl = (*State)(nil)

func (n *State) Name() *Ident {
	return n.name
}

func (n *State) Options() *Options {
	return &n.options
}

func (n *State) Items() []*StateItem {
	return n.items
}

type StateItem struct {
	branchNode
	name    *Ident
	value   Node
	options Options
}

var _ Node = (*StateItem)(nil)

func (n *StateItem) Name() *Ident {
	return n.name
}

// Value returns a *NumberLit, an *Ident, or nil when the item takes the
// next ordinal.
func (n *StateItem) Value() Node {
	return n.value
}

func (n *StateItem) Options() *Options {
	return &n.options
}

type Message struct {
	branchNode
	name    *Ident
	options Options
	fields  []*MessageField
}

var _ Decl = (*Message)(nil)

func (n *Message) Name() *Ident {
	return n.name
}

func (n *Message) Options() *Options {
	return &n.options
}

func (n *Message) Fields() []*MessageField {
	return n.fields
}

type MessageField struct {
	branchNode
	name      *Ident
	fieldType Node
	arrayLen  *ArrayLen
	value     Node
	options   Options
}

var _ Node = (*MessageField)(nil)

func (n *MessageField) Name() *Ident {
	return n.name
}

// FieldType returns a *BuiltinType or an *Ident naming a user type.
func (n *MessageField) FieldType() Node {
	return n.fieldType
}

// ArrayLen returns the bracketed length, or nil. For bitfields the
// bracketed value is the bit width.
func (n *MessageField) ArrayLen() *ArrayLen {
	return n.arrayLen
}

// Value returns the default value (*NumberLit or *Ident), or nil.
func (n *MessageField) Value() Node {
	return n.value
}

func (n *MessageField) Options() *Options {
	return &n.options
}

type ArrayLen struct {
	branchNode
	value Node
}

var _ Node = (*ArrayLen)(nil)

// Value returns a *NumberLit or an *Ident.
func (n *ArrayLen) Value() Node {
	return n.value
}
