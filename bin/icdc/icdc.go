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
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type command interface {
	help() *commandHelp
	flags(flags *pflag.FlagSet)
	run(ctx context.Context, argv []string) int
}

type commandHelp struct {
	usage   string
	summary string
}

// env is the process state shared by every subcommand. It is filled in
// from the global flags before a subcommand runs.
type env struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	log    zerolog.Logger
	config *config
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	ctx := context.Background()
	e := &env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	}
	os.Exit(execute(ctx, e, os.Args[1:]))
}

func execute(ctx context.Context, e *env, args []string) int {
	e.log = zerolog.Nop()
	e.config = defaultConfig()

	var global globalFlags
	exitCode := 0

	icdcCmd := &cobra.Command{
		Use:           "icdc [options] COMMAND",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	icdcCmd.SetArgs(args)
	icdcCmd.SetOut(e.stdout)
	icdcCmd.SetErr(e.stderr)
	icdcCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(e.stderr, icdcCmd.UsageString())
		exitCode = 1
		return nil
	}
	icdcCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return e.setup(&global)
	}

	globalFlagSet := icdcCmd.PersistentFlags()
	globalFlagSet.StringVar(&global.configPath, "config", "",
		"Project config file (.toml, .yaml); defaults to ./icdc.toml if present")
	globalFlagSet.StringVar(&global.logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	globalFlagSet.StringVar(&global.logFormat, "log-format", "",
		"Log format: console or json")

	commands := []command{
		&cmdCompile{env: e},
		&cmdCodegen{env: e},
		&cmdTokens{env: e},
	}
	for _, cmd := range commands {
		help := cmd.help()
		cobraCmd := &cobra.Command{
			Use:   help.usage,
			Short: help.summary,
			RunE: func(_ *cobra.Command, args []string) error {
				exitCode = cmd.run(ctx, args)
				return nil
			},
		}
		icdcCmd.AddCommand(cobraCmd)
		cmd.flags(cobraCmd.Flags())
	}

	if err := icdcCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}
	return exitCode
}

func (e *env) setup(global *globalFlags) error {
	cfg, err := loadConfig(global.configPath)
	if err != nil {
		return err
	}
	level := firstNonEmpty(global.logLevel, cfg.Log.Level, "info")
	format := firstNonEmpty(global.logFormat, cfg.Log.Format, "console")
	log, err := newLogger(e.stderr, level, format)
	if err != nil {
		return err
	}
	e.config = cfg
	e.log = log
	if cfg.path != "" {
		log.Debug().Str("path", cfg.path).Msg("config loaded")
	}
	return nil
}
