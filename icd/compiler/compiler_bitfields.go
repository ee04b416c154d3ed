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
	"fmt"

	"go.icd-lang.org/icd/schema"
	"go.icd-lang.org/icd/syntax"
)

// bitPacker collects adjacent bitfields of a message into bit words.
//
// A bitfield with a -PW name joins the open group when the names match
// and otherwise starts a new group. A bitfield without one joins whatever
// group is open, or starts a group with a generated name. Any other field
// closes the open group. Closing a group pads it to a whole byte.
type bitPacker struct {
	c   *compiler
	msg *schema.Message

	// Names a generated bit word must avoid.
	taken map[string]struct{}

	// Groups named with -PW.
	words map[string]*schema.BitFieldGroup

	open    *schema.BitFieldGroup
	nextGen int
	nextPad int
}

func newBitPacker(c *compiler, msg *schema.Message, node *syntax.Message) *bitPacker {
	p := &bitPacker{
		c:     c,
		msg:   msg,
		taken: make(map[string]struct{}),
		words: make(map[string]*schema.BitFieldGroup),
	}
	for _, field := range node.Fields() {
		p.taken[field.Name().Get()] = struct{}{}
		if bitword := field.Options().Bitword(); bitword != nil {
			p.taken[bitword.Name().Get()] = struct{}{}
		}
	}
	return p
}

func (p *bitPacker) generatedName() string {
	for {
		name := fmt.Sprintf("reserved_%d", p.nextGen)
		p.nextGen++
		if _, taken := p.taken[name]; !taken {
			return name
		}
	}
}

func (p *bitPacker) add(mc *moduleCtx, field *syntax.MessageField, width uint32) {
	name := field.Name().Get()
	pos := mc.pos(field.Name())

	var word string
	var wordPos schema.Pos
	if bitword := field.Options().Bitword(); bitword != nil {
		word = bitword.Name().Get()
		wordPos = mc.pos(bitword.Name())
	}
	if p.open != nil && word != "" && word != p.open.Name() {
		p.close()
	}
	if p.open == nil {
		explicit := word != ""
		if !explicit {
			word = p.generatedName()
		} else if prev, used := p.words[word]; used {
			p.c.err(errBitwordReused(p.msg.Name(), word, prev.Pos(), wordPos))
		}
		p.open = p.c.dir.AddBitFieldGroup(p.msg, word, pos)
		p.open.Explicit = explicit
		if explicit {
			p.words[word] = p.open
		}
	}

	member := p.c.dir.AddBitField(p.open, name, pos)
	member.SetDoc(field.Options().DocText())
	member.Width = width
	if value := field.Value(); value != nil {
		member.Default = schema.NewValue(value, mc.pos(value))
	}
}

func (p *bitPacker) close() {
	group := p.open
	if group == nil {
		return
	}
	p.open = nil
	if rem := group.Bits() % 8; rem != 0 {
		name := fmt.Sprintf("__%s_pad_%d", p.msg.Name(), p.nextPad)
		p.nextPad++
		pad := p.c.dir.AddBitField(group, name, group.Pos())
		pad.Width = 8 - rem
		pad.IsPadding = true
	}
	p.c.log.Debug().
		Str("message", p.msg.Name()).
		Str("bitword", group.Name()).
		Uint32("bits", group.Bits()).
		Msg("bitfield group packed")
}

// checkFieldNames rejects fields named like one of the message's bit
// words. Generated names never collide, so only -PW names are checked.
func (p *bitPacker) checkFieldNames() {
	check := func(field schema.Node) {
		if _, isWord := p.words[field.Name()]; isWord {
			p.c.err(errFieldNameIsBitword(p.msg.Name(), field.Name(), field.Pos()))
		}
	}
	for _, field := range p.msg.Fields {
		group, ok := field.(*schema.BitFieldGroup)
		if !ok {
			check(field)
			continue
		}
		for _, member := range group.Members {
			if !member.IsPadding {
				check(member)
			}
		}
	}
}
