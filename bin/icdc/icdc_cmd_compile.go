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

	"github.com/spf13/pflag"

	"go.icd-lang.org/icd/encoding/icdjson"
	"go.icd-lang.org/icd/encoding/icdtext"
)

type cmdCompile struct {
	env       *env
	outPath   string
	format    string
	extension string
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile [DIR]",
		summary: "Compile a schema directory and print the ordered model",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outPath, "output", "o", "", "Write the model to FILE instead of stdout")
	flags.StringVarP(&cmd.format, "format", "f", "text", "Output format: text or json")
	flags.StringVar(&cmd.extension, "extension", "", "Schema file extension (default .icd)")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	e := cmd.env
	dir, err := e.inputDir(argv)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}

	switch cmd.format {
	case "text", "icdtext", "json":
	default:
		fmt.Fprintf(e.stderr, "Unsupported output format %q (choose 'text' or 'json')\n", cmd.format)
		return 1
	}

	model := e.compile(dir, cmd.extension)
	if model == nil {
		return 1
	}

	var output []byte
	if cmd.format == "json" {
		output, err = icdjson.Encode(model)
		if err != nil {
			fmt.Fprintln(e.stderr, err)
			return 1
		}
		output = append(output, '\n')
	} else {
		output = []byte(icdtext.Encode(model))
	}

	if cmd.outPath == "" {
		if _, err := e.stdout.Write(output); err != nil {
			fmt.Fprintln(e.stderr, err)
			return 1
		}
		return 0
	}
	if err := writeFile(cmd.outPath, output); err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}
	return 0
}
