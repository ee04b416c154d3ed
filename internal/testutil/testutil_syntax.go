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

package testutil

import (
	"fmt"
	"strings"

	"go.icd-lang.org/icd/syntax"
)

// DumpTree renders the declarations of a parsed file one node per line,
// omitting trivia. Skipped input appears as "error E<code>".
func DumpTree(file *syntax.File) string {
	var buf strings.Builder
	for child := range file.ChildNodes() {
		dumpNode(&buf, child, 0)
	}
	return buf.String()
}

func dumpNode(buf *strings.Builder, node syntax.Node, depth int) {
	line := func(format string, args ...any) {
		buf.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(buf, format, args...)
		buf.WriteString(dumpOptions(node))
		buf.WriteByte('\n')
	}

	switch node := node.(type) {
	case *syntax.Const:
		line("const %s %s = %s",
			node.Name().Get(),
			node.TypeName().Text(),
			syntax.ValueText(node.Value()))
	case *syntax.State:
		line("state %s", node.Name().Get())
		for child := range node.ChildNodes() {
			dumpNode(buf, child, depth+1)
		}
	case *syntax.StateItem:
		if value := node.Value(); value != nil {
			line("item %s = %s", node.Name().Get(), syntax.ValueText(value))
		} else {
			line("item %s", node.Name().Get())
		}
	case *syntax.Message:
		line("message %s", node.Name().Get())
		for child := range node.ChildNodes() {
			dumpNode(buf, child, depth+1)
		}
	case *syntax.MessageField:
		var desc strings.Builder
		fmt.Fprintf(&desc, "field %s %s",
			node.Name().Get(),
			strings.TrimSpace(syntax.Unparse(node.FieldType())))
		if arrayLen := node.ArrayLen(); arrayLen != nil {
			fmt.Fprintf(&desc, "[%s]", syntax.ValueText(arrayLen.Value()))
		}
		if value := node.Value(); value != nil {
			fmt.Fprintf(&desc, " = %s", syntax.ValueText(value))
		}
		line("%s", desc.String())
	case *syntax.ParseError:
		buf.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(buf, "error E%d\n", node.Get().Code())
	}
}

func dumpOptions(node syntax.Node) string {
	decl, ok := node.(interface{ Options() *syntax.Options })
	if !ok {
		return ""
	}
	var out strings.Builder
	options := decl.Options()
	if options.Doc() != nil {
		fmt.Fprintf(&out, " -Doc %q", options.DocText())
	}
	if bitword := options.Bitword(); bitword != nil {
		fmt.Fprintf(&out, " -PW %s", bitword.Name().Get())
	}
	return out.String()
}
