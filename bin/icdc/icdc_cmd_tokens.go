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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"go.icd-lang.org/icd/syntax"
)

type cmdTokens struct {
	env *env
}

func (*cmdTokens) help() *commandHelp {
	return &commandHelp{
		usage:   "tokens FILE",
		summary: "Print the token stream of a schema file",
	}
}

func (*cmdTokens) flags(flags *pflag.FlagSet) {}

// run prints one token per line as "LINE:COLUMN KIND "TEXT"". Lexical
// errors are reported inline and tokenizing continues past them.
func (cmd *cmdTokens) run(ctx context.Context, argv []string) int {
	e := cmd.env
	if len(argv) != 1 {
		fmt.Fprintln(e.stderr, "usage: icdc tokens FILE")
		return 1
	}
	srcPath := argv[0]
	src, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}
	source := syntax.NewSource(srcPath, src)

	tokens, err := syntax.NewTokens(src)
	if err != nil {
		fmt.Fprintf(e.stderr, "%s: %v\n", srcPath, err)
		return 1
	}

	exitCode := 0
	var token syntax.Token
	for {
		start := tokens.Offset()
		if err := tokens.Next(&token); err != nil {
			exitCode = 1
			lexErr, ok := err.(*syntax.Error)
			if !ok || lexErr.SkipLen() == 0 {
				fmt.Fprintln(e.stderr, err)
				return 1
			}
			line, column := source.Position(start)
			fmt.Fprintf(e.stderr, "%s:%d:%d: %v\n%s\n", srcPath, line, column, err, source.Excerpt(start))
			tokens.Skip(lexErr.SkipLen())
			continue
		}
		if token.Kind == syntax.T_EOF {
			break
		}
		line, column := source.Position(start)
		text := src[start:tokens.Offset()]
		fmt.Fprintf(e.stdout, "%d:%d %s %q\n", line, column, token.Kind, text)
	}
	return exitCode
}
