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
	"strconv"
	"strings"

	"go.icd-lang.org/icd"
	"go.icd-lang.org/icd/schema"
)

func (c *compiler) validate() {
	for _, mod := range c.dir.Modules() {
		if c.isPartial(mod) {
			continue
		}
		for _, decl := range mod.Decls() {
			switch decl := decl.(type) {
			case *schema.Constant:
				c.validateConst(decl)
			case *schema.State:
				c.validateState(decl)
			case *schema.Message:
				c.validateMessage(decl)
			default:
				panic("unreachable")
			}
		}
	}
	c.log.Debug().Int("values", len(c.literals)).Msg("values validated")
}

// literalOf follows the value of a constant or state field through any
// chain of references and returns the literal it ends in. It returns nil
// if the chain is broken or circular. The walk is iterative, and every
// node on the chain memoizes the result.
func (c *compiler) literalOf(start schema.Node) *schema.Literal {
	var chain []schema.Node
	onChain := make(map[schema.NodeID]int)
	var lit *schema.Literal

	node := start
	for {
		if memo, done := c.literals[node.ID()]; done {
			lit = memo
			break
		}
		if idx, circular := onChain[node.ID()]; circular {
			c.reportCircular(chain[idx:])
			break
		}
		onChain[node.ID()] = len(chain)
		chain = append(chain, node)

		var value *schema.Value
		switch node := node.(type) {
		case *schema.Constant:
			value = node.Value
		case *schema.StateField:
			value = node.Value
			if value == nil {
				lit = c.positionOf(node)
			}
		default:
			panic("unreachable")
		}
		if value == nil || !value.IsName {
			if value != nil {
				lit = &schema.Literal{Text: value.Text, IsFloat: value.IsFloat}
			}
			break
		}
		if value.Target == 0 {
			break
		}
		node = c.dir.Node(value.Target)
	}

	for _, node := range chain {
		c.literals[node.ID()] = lit
	}
	return lit
}

// A state field without a value takes its position in the state as its
// ordinal. Explicit values elsewhere in the state do not shift it.
func (c *compiler) positionOf(field *schema.StateField) *schema.Literal {
	state := c.dir.Node(field.Parent()).(*schema.State)
	for ii, sibling := range state.Fields {
		if sibling == field {
			return &schema.Literal{Text: strconv.Itoa(ii)}
		}
	}
	panic("unreachable")
}

func (c *compiler) reportCircular(cycle []schema.Node) {
	names := make([]string, 0, len(cycle)+1)
	for _, node := range cycle {
		names = append(names, node.Name())
	}
	names = append(names, cycle[0].Name())
	c.err(errCircularConstant(cycle[0].Name(), names, cycle[0].Pos()))
}

// valueLiteral returns the literal a count or default slot evaluates to.
func (c *compiler) valueLiteral(value *schema.Value) *schema.Literal {
	if value == nil {
		return nil
	}
	if !value.IsName {
		return &schema.Literal{Text: value.Text, IsFloat: value.IsFloat}
	}
	if value.Target == 0 {
		return nil
	}
	return c.literalOf(c.dir.Node(value.Target))
}

func (c *compiler) validateConst(decl *schema.Constant) {
	decl.Literal = c.literalOf(decl)
	if decl.Literal == nil || !decl.Type.IsNumeric() {
		return
	}
	if err := checkLiteral(decl.Literal, decl.Type, decl.Value.Pos); err != nil {
		c.err(err)
	}
}

func (c *compiler) validateState(decl *schema.State) {
	seen := make(map[int64]*schema.StateField)
	for _, field := range decl.Fields {
		lit := c.literalOf(field)
		if lit == nil {
			continue
		}
		pos := field.Pos()
		if field.Value != nil {
			pos = field.Value.Pos
		}
		if err := checkLiteral(lit, icd.StateType, pos); err != nil {
			c.err(err)
			continue
		}
		ordinal, _ := strconv.ParseInt(lit.Text, 10, 64)
		field.Ordinal = ordinal
		if prev, dup := seen[ordinal]; dup {
			c.warn(warnDuplicateOrdinal(decl.Name(), field.Name(), prev.Name(), ordinal, field.Pos()))
			continue
		}
		seen[ordinal] = field
	}
}

func (c *compiler) validateMessage(decl *schema.Message) {
	for _, field := range decl.Fields {
		switch field := field.(type) {
		case *schema.BuiltinField:
			c.validateCount(field.Count)
			c.validateDefault(field.Default, field.Type)
		case *schema.BitFieldGroup:
			for _, member := range field.Members {
				c.validateBitfieldDefault(member)
			}
		case *schema.UserDefinedField:
			c.validateCount(field.Count)
			if field.Target != 0 && c.dir.Node(field.Target).Kind() == schema.Kind_STATE {
				c.validateDefault(field.Default, icd.StateType)
			}
		default:
			panic("unreachable")
		}
	}
}

// Literal counts were checked when the field was lowered.
func (c *compiler) validateCount(count *schema.Value) {
	if count == nil || !count.IsName {
		return
	}
	lit := c.valueLiteral(count)
	if lit == nil {
		return
	}
	n, err := strconv.ParseUint(lit.Text, 10, 64)
	if lit.IsFloat || err != nil || n < 1 || n > maxCount {
		c.err(errInvalidCount(lit.Text, count.Pos))
	}
}

func (c *compiler) validateDefault(value *schema.Value, type_ icd.Type) {
	lit := c.valueLiteral(value)
	if lit == nil {
		return
	}
	if err := checkLiteral(lit, type_, value.Pos); err != nil {
		c.err(err)
	}
}

func (c *compiler) validateBitfieldDefault(member *schema.BitField) {
	lit := c.valueLiteral(member.Default)
	if lit == nil {
		return
	}
	pos := member.Default.Pos
	if lit.IsFloat {
		c.err(errFloatForInteger(lit.Text, icd.Type_BITFIELD, pos))
		return
	}
	v, err := strconv.ParseUint(lit.Text, 10, 64)
	if err != nil || v > icd.BitfieldMax(member.Width) {
		c.err(errBitfieldOutOfRange(lit.Text, member.Width, pos))
	}
}

// checkLiteral reports whether a literal is representable in a numeric
// type. Integer bounds are exact; floats must be finite and within the
// type's largest magnitude.
func checkLiteral(lit *schema.Literal, type_ icd.Type, pos schema.Pos) error {
	if type_.IsFloat() {
		v, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil || math.IsInf(v, 0) || math.Abs(v) > type_.FloatMax() {
			return errOutOfRange(lit.Text, type_, pos)
		}
		return nil
	}
	if lit.IsFloat {
		return errFloatForInteger(lit.Text, type_, pos)
	}
	lo, hi := type_.IntRange()
	if strings.HasPrefix(lit.Text, "-") {
		v, err := strconv.ParseInt(lit.Text, 10, 64)
		if err != nil || v < lo {
			return errOutOfRange(lit.Text, type_, pos)
		}
		return nil
	}
	v, err := strconv.ParseUint(lit.Text, 10, 64)
	if err != nil || v > hi {
		return errOutOfRange(lit.Text, type_, pos)
	}
	return nil
}
