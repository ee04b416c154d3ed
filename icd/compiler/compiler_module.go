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
	"math"
	"path"
	"strings"

	"go.icd-lang.org/icd"
	"go.icd-lang.org/icd/schema"
	"go.icd-lang.org/icd/syntax"
)

const maxCount = math.MaxUint32

type moduleCtx struct {
	mod   *schema.Module
	src   *syntax.Source
	file  *syntax.File
	decls []declCtx
}

type declCtx struct {
	decl schema.Decl
	node syntax.Decl
}

func (mc *moduleCtx) pos(node syntax.Node) schema.Pos {
	return posOf(mc.src, node)
}

// ModuleName returns the module name of a schema file: its base name
// without extension, upper-cased.
func ModuleName(filePath string) string {
	base := path.Base(filePath)
	return strings.ToUpper(strings.TrimSuffix(base, path.Ext(base)))
}

func isIdent(name string) bool {
	if name == "" {
		return false
	}
	for ii, c := range []byte(name) {
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9' && ii > 0:
		default:
			return false
		}
	}
	return true
}

func (c *compiler) registerModules(sources []*syntax.Source, files []*syntax.File) {
	byName := make(map[string]*syntax.Source)
	for ii, src := range sources {
		file := files[ii]
		if file == nil {
			continue
		}
		name := ModuleName(src.Path())
		pos := schema.Pos{Source: src}
		if !isIdent(name) {
			c.err(errInvalidModuleName(name, pos))
			continue
		}
		if prev, dup := byName[name]; dup {
			c.err(errDuplicateModule(name, schema.Pos{Source: prev}, pos))
			continue
		}
		byName[name] = src
		c.modules = append(c.modules, &moduleCtx{
			mod:  c.dir.AddModule(name, src),
			src:  src,
			file: file,
		})
	}
	c.log.Debug().Int("modules", len(c.modules)).Msg("modules registered")
}

func (c *compiler) registerDecls() {
	for _, mc := range c.modules {
		for node := range mc.file.Decls() {
			c.registerDecl(mc, node)
		}
		c.log.Debug().
			Str("module", mc.mod.Name()).
			Int("decls", len(mc.decls)).
			Msg("declarations registered")
	}
}

// claim reports an error and returns false when name is already declared
// in the module.
func (c *compiler) claim(mc *moduleCtx, name string, kind schema.Kind, pos schema.Pos) bool {
	prevID, taken := mc.mod.Lookup(name)
	if !taken {
		return true
	}
	prev := c.dir.Node(prevID)
	c.err(errDuplicateName(name, kind, prev.Kind(), prev.Pos(), pos))
	return false
}

func (c *compiler) registerDecl(mc *moduleCtx, node syntax.Decl) {
	name := node.Name().Get()
	pos := mc.pos(node.Name())

	var decl schema.Decl
	switch node := node.(type) {
	case *syntax.Const:
		if !c.claim(mc, name, schema.Kind_CONSTANT, pos) {
			return
		}
		decl = c.dir.AddConstant(mc.mod, name, pos)
		mc.mod.Declare(name, decl.ID())
	case *syntax.State:
		if !c.claim(mc, name, schema.Kind_STATE, pos) {
			return
		}
		state := c.dir.AddState(mc.mod, name, pos)
		mc.mod.Declare(name, state.ID())
		c.registerStateFields(mc, state, node)
		decl = state
	case *syntax.Message:
		if !c.claim(mc, name, schema.Kind_MESSAGE, pos) {
			return
		}
		decl = c.dir.AddMessage(mc.mod, name, pos)
		mc.mod.Declare(name, decl.ID())
	default:
		panic("unreachable")
	}
	mc.decls = append(mc.decls, declCtx{decl: decl, node: node})
}

// State fields share the module namespace, since generated enums are
// not scoped by their type name.
func (c *compiler) registerStateFields(mc *moduleCtx, state *schema.State, node *syntax.State) {
	for _, item := range node.Items() {
		name := item.Name().Get()
		pos := mc.pos(item.Name())
		if icd.IsReservedWord(name) {
			c.warn(warnReservedWord(name, pos))
			continue
		}
		if !c.claim(mc, name, schema.Kind_STATE_FIELD, pos) {
			continue
		}
		field := c.dir.AddStateField(state, name, pos)
		mc.mod.Declare(name, field.ID())
		field.SetDoc(item.Options().DocText())
		if value := item.Value(); value != nil {
			field.Value = schema.NewValue(value, mc.pos(value))
		}
		if bitword := item.Options().Bitword(); bitword != nil {
			c.warn(warnBitwordIgnored("state field '"+name+"'", mc.pos(bitword)))
		}
	}
}

func (c *compiler) lowerDecls() {
	for _, mc := range c.modules {
		for _, dc := range mc.decls {
			switch decl := dc.decl.(type) {
			case *schema.Constant:
				c.lowerConst(mc, decl, dc.node.(*syntax.Const))
			case *schema.State:
				decl.SetDoc(dc.node.Options().DocText())
				if bitword := dc.node.Options().Bitword(); bitword != nil {
					c.warn(warnBitwordIgnored("state '"+decl.Name()+"'", mc.pos(bitword)))
				}
			case *schema.Message:
				c.lowerMessage(mc, decl, dc.node.(*syntax.Message))
			}
		}
	}
}

func (c *compiler) lowerConst(mc *moduleCtx, decl *schema.Constant, node *syntax.Const) {
	decl.SetDoc(node.Options().DocText())
	decl.Type = node.TypeName().Get()
	if !decl.Type.IsNumeric() {
		c.err(errConstantType(decl.Name(), decl.Type, mc.pos(node.TypeName())))
	}
	decl.Value = schema.NewValue(node.Value(), mc.pos(node.Value()))
	if bitword := node.Options().Bitword(); bitword != nil {
		c.warn(warnBitwordIgnored("constant '"+decl.Name()+"'", mc.pos(bitword)))
	}
}

func (c *compiler) lowerMessage(mc *moduleCtx, msg *schema.Message, node *syntax.Message) {
	msg.SetDoc(node.Options().DocText())
	if bitword := node.Options().Bitword(); bitword != nil {
		c.warn(warnBitwordIgnored("message '"+msg.Name()+"'", mc.pos(bitword)))
	}

	packer := newBitPacker(c, msg, node)
	seen := make(map[string]schema.Pos)
	for _, field := range node.Fields() {
		name := field.Name().Get()
		pos := mc.pos(field.Name())
		if icd.IsReservedWord(name) {
			c.warn(warnReservedWord(name, pos))
			continue
		}
		if prev, dup := seen[name]; dup {
			c.err(errDuplicateField(msg.Name(), name, prev, pos))
			continue
		}
		seen[name] = pos

		if builtin, ok := field.FieldType().(*syntax.BuiltinType); ok && builtin.Get() == icd.Type_BITFIELD {
			width, ok := c.bitfieldWidth(mc, name, field.ArrayLen())
			if !ok {
				continue
			}
			packer.add(mc, field, width)
			continue
		}

		packer.close()
		if bitword := field.Options().Bitword(); bitword != nil {
			c.warn(warnBitwordIgnored("non-bitfield field '"+name+"'", mc.pos(bitword)))
		}
		count, ok := c.fieldCount(mc, name, field.ArrayLen())
		if !ok {
			continue
		}
		var def *schema.Value
		if value := field.Value(); value != nil {
			def = schema.NewValue(value, mc.pos(value))
		}

		switch fieldType := field.FieldType().(type) {
		case *syntax.BuiltinType:
			f := c.dir.AddBuiltinField(msg, name, pos)
			f.SetDoc(field.Options().DocText())
			f.Type = fieldType.Get()
			f.Count = count
			f.Default = def
		case *syntax.Ident:
			f := c.dir.AddUserDefinedField(msg, name, pos)
			f.SetDoc(field.Options().DocText())
			f.TypeName = fieldType.Get()
			f.TypePos = mc.pos(fieldType)
			f.Count = count
			f.Default = def
		default:
			panic("unreachable")
		}
	}
	packer.close()
	packer.checkFieldNames()
}

// fieldCount lowers the array length of a non-bitfield field. The field is
// dropped when ok is false.
func (c *compiler) fieldCount(mc *moduleCtx, field string, arrayLen *syntax.ArrayLen) (*schema.Value, bool) {
	if arrayLen == nil {
		return nil, true
	}
	node := arrayLen.Value()
	pos := mc.pos(node)
	if lit, isLit := node.(*syntax.NumberLit); isLit {
		count, ok := lit.GetUint64()
		if !ok || count > maxCount {
			c.err(errInvalidCount(lit.Text(), pos))
			return nil, false
		}
		if count == 0 {
			c.warn(warnZeroLength(field, pos))
			return nil, false
		}
	}
	return schema.NewValue(node, pos), true
}

// bitfieldWidth lowers the bracketed width of a bitfield, which defaults
// to one bit.
func (c *compiler) bitfieldWidth(mc *moduleCtx, field string, arrayLen *syntax.ArrayLen) (uint32, bool) {
	if arrayLen == nil {
		return 1, true
	}
	node := arrayLen.Value()
	pos := mc.pos(node)
	lit, isLit := node.(*syntax.NumberLit)
	if !isLit || lit.IsFloat() {
		c.err(errBitfieldWidthNotLiteral(field, syntax.ValueText(node), pos))
		return 0, false
	}
	width, ok := lit.GetInt64()
	if !ok || width < 1 || width > 64 {
		c.warn(warnBitfieldWidth(field, lit.Text(), pos))
		return 0, false
	}
	return uint32(width), true
}
