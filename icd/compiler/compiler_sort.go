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

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

type sortFrame struct {
	decl schema.Decl
	deps []schema.Decl
	next int
}

// sortDecls orders declarations so that each one follows everything it
// depends on. The walk is a depth-first post-order starting from each
// module (by name) and each declaration (in source order), so unrelated
// declarations keep their relative order.
func (c *compiler) sortDecls() []schema.Decl {
	state := make(map[schema.NodeID]visitState)
	var order []schema.Decl
	for _, mod := range c.dir.Modules() {
		for _, root := range mod.Decls() {
			if state[root.ID()] != unvisited {
				continue
			}
			state[root.ID()] = visiting
			stack := []*sortFrame{{decl: root, deps: c.declDeps(root)}}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.next == len(top.deps) {
					state[top.decl.ID()] = visited
					order = append(order, top.decl)
					stack = stack[:len(stack)-1]
					continue
				}
				dep := top.deps[top.next]
				top.next++
				switch state[dep.ID()] {
				case unvisited:
					state[dep.ID()] = visiting
					stack = append(stack, &sortFrame{decl: dep, deps: c.declDeps(dep)})
				case visiting:
					c.reportCycle(stack, dep)
				}
			}
		}
	}
	c.log.Debug().Int("decls", len(order)).Msg("declarations ordered")
	return order
}

func (c *compiler) reportCycle(stack []*sortFrame, dep schema.Decl) {
	start := 0
	for ii, frame := range stack {
		if frame.decl == dep {
			start = ii
			break
		}
	}
	var names []string
	for _, frame := range stack[start:] {
		names = append(names, c.dir.QualifiedName(frame.decl).String())
	}
	names = append(names, names[0])
	c.err(errCircularDependency(names[0], names, dep.Pos()))
}

// declDeps returns the declarations that decl refers to, in the order the
// references appear. A state's references to its own fields are not
// dependencies.
func (c *compiler) declDeps(decl schema.Decl) []schema.Decl {
	var deps []schema.Decl
	seen := make(map[schema.NodeID]bool)
	add := func(target schema.NodeID) {
		if target == 0 {
			return
		}
		dep := c.declOf(c.dir.Node(target))
		if seen[dep.ID()] {
			return
		}
		if _, isState := decl.(*schema.State); isState && dep == decl {
			return
		}
		seen[dep.ID()] = true
		deps = append(deps, dep)
	}
	addValue := func(value *schema.Value) {
		if value != nil {
			add(value.Target)
		}
	}

	switch decl := decl.(type) {
	case *schema.Constant:
		addValue(decl.Value)
	case *schema.State:
		for _, field := range decl.Fields {
			addValue(field.Value)
		}
	case *schema.Message:
		for _, field := range decl.Fields {
			switch field := field.(type) {
			case *schema.BuiltinField:
				addValue(field.Count)
				addValue(field.Default)
			case *schema.BitFieldGroup:
				for _, member := range field.Members {
					addValue(member.Default)
				}
			case *schema.UserDefinedField:
				add(field.Target)
				addValue(field.Count)
				addValue(field.Default)
			}
		}
	}
	return deps
}

// declOf returns the declaration a reference target belongs to.
func (c *compiler) declOf(node schema.Node) schema.Decl {
	switch node := node.(type) {
	case schema.Decl:
		return node
	case *schema.StateField:
		return c.dir.Node(node.Parent()).(schema.Decl)
	}
	panic("unreachable")
}
