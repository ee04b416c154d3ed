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
	"go.icd-lang.org/icd/schema"
)

type slotKind uint8

const (
	slotCount slotKind = iota
	slotDefault
)

type resolver struct {
	c        *compiler
	mod      *schema.Module
	resolved int
}

func (c *compiler) resolve() {
	var total int
	for _, mod := range c.dir.Modules() {
		if c.isPartial(mod) {
			c.log.Debug().Str("module", mod.Name()).Msg("syntax errors found, skipping resolution")
			continue
		}
		r := &resolver{c: c, mod: mod}
		for _, decl := range mod.Decls() {
			r.resolveDecl(decl)
		}
		total += r.resolved
	}
	c.log.Debug().Int("references", total).Msg("references resolved")
}

func (r *resolver) resolveDecl(decl schema.Decl) {
	switch decl := decl.(type) {
	case *schema.Constant:
		r.resolveValue(decl.Value, slotDefault)
	case *schema.State:
		for _, field := range decl.Fields {
			r.resolveValue(field.Value, slotDefault)
		}
	case *schema.Message:
		for _, field := range decl.Fields {
			r.resolveField(field)
		}
	default:
		panic("unreachable")
	}
}

func (r *resolver) resolveField(field schema.Field) {
	switch field := field.(type) {
	case *schema.BuiltinField:
		r.resolveValue(field.Count, slotCount)
		r.resolveValue(field.Default, slotDefault)
	case *schema.BitFieldGroup:
		for _, member := range field.Members {
			r.resolveValue(member.Default, slotDefault)
		}
	case *schema.UserDefinedField:
		r.resolveValue(field.Count, slotCount)
		r.resolveUserType(field)
	default:
		panic("unreachable")
	}
}

func (r *resolver) resolveUserType(field *schema.UserDefinedField) {
	node := r.lookup(nil, field.TypeName, field.TypePos)
	if node == nil {
		return
	}
	r.resolved++
	switch target := node.(type) {
	case *schema.State:
		field.Target = target.ID()
		if field.Default == nil || !field.Default.IsName {
			return
		}
		value := r.lookup(target, field.Default.Text, field.Default.Pos)
		if value == nil {
			return
		}
		if value.Kind() != schema.Kind_STATE_FIELD || value.Parent() != target.ID() {
			r.c.err(errNotStateMember(field.Default.Text, target.Name(), field.Default.Pos))
			return
		}
		r.resolved++
		field.Default.Target = value.ID()
	case *schema.Message:
		field.Target = target.ID()
		if field.Default != nil {
			r.c.err(errMessageDefault(field.Name(), target.Name(), field.Default.Pos))
		}
	default:
		r.c.err(errNotAType(field.TypeName, node.Kind(), field.TypePos))
	}
}

func (r *resolver) resolveValue(value *schema.Value, slot slotKind) {
	if value == nil || !value.IsName {
		return
	}
	node := r.lookup(nil, value.Text, value.Pos)
	if node == nil {
		return
	}
	kind := node.Kind()
	switch slot {
	case slotCount:
		if kind != schema.Kind_CONSTANT {
			r.c.err(errCountNotConstant(value.Text, kind, value.Pos))
			return
		}
	case slotDefault:
		if kind != schema.Kind_CONSTANT && kind != schema.Kind_STATE_FIELD {
			r.c.err(errDefaultNotValue(value.Text, kind, value.Pos))
			return
		}
	}
	r.resolved++
	value.Target = node.ID()
}

// lookup finds a name in the fields of scope (if any), then in the current
// module, then in every other module. A name declared by more than one
// other module is ambiguous. Unknown names are not reported while any
// file has syntax errors, since the name may be in a dropped declaration.
func (r *resolver) lookup(scope *schema.State, name string, pos schema.Pos) schema.Node {
	if scope != nil {
		if field := scope.Field(name); field != nil {
			return field
		}
	}
	if id, ok := r.mod.Lookup(name); ok {
		return r.c.dir.Node(id)
	}
	var found schema.Node
	var modules []string
	for _, mod := range r.c.dir.Modules() {
		if mod == r.mod {
			continue
		}
		if id, ok := mod.Lookup(name); ok {
			found = r.c.dir.Node(id)
			modules = append(modules, mod.Name())
		}
	}
	switch len(modules) {
	case 0:
		if len(r.c.partial) == 0 {
			r.c.err(errUnknownName(name, pos))
		}
		return nil
	case 1:
		return found
	default:
		r.c.err(errAmbiguousName(name, modules, pos))
		return nil
	}
}
