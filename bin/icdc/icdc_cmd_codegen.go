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
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	wasm "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"go.icd-lang.org/icd/encoding/icdjson"
)

type cmdCodegen struct {
	env        *env
	outDir     string
	language   string
	outputName string
	extension  string
	pluginPath string
	options    map[string]string
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen [DIR]",
		summary: "Compile a schema directory and generate code with a language plugin",
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outDir, "output", "o", "", "Directory to write generated files to")
	flags.StringVarP(&cmd.language, "language", "L", "", "Target language; selects plugin icdc-codegen-LANG.wasm")
	flags.StringVarP(&cmd.outputName, "name", "n", "", "Base name of the generated files (default: schema directory name)")
	flags.StringVar(&cmd.extension, "extension", "", "Schema file extension (default .icd)")
	flags.StringVar(&cmd.pluginPath, "plugin-path", "", "Colon-separated plugin search path (default $ICDC_PLUGIN_PATH)")
	flags.StringToStringVar(&cmd.options, "option", nil, "Plugin option KEY=VALUE (repeatable)")
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	e := cmd.env
	dir, err := e.inputDir(argv)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}

	outDir := firstNonEmpty(cmd.outDir, e.config.OutputDir)
	if outDir == "" {
		fmt.Fprintln(e.stderr, "No output directory specified (set --output=)")
		return 1
	}
	language := firstNonEmpty(cmd.language, e.config.Language)
	if language == "" {
		fmt.Fprintln(e.stderr, "No target language specified (set --language=)")
		return 1
	}
	outputName := firstNonEmpty(cmd.outputName, e.config.OutputName)
	if outputName == "" {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			fmt.Fprintln(e.stderr, err)
			return 1
		}
		outputName = filepath.Base(absDir)
	}

	pluginPath, err := locatePlugin(e.pluginPath(cmd.pluginPath), language)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}

	model := e.compile(dir, cmd.extension)
	if model == nil {
		return 1
	}

	options := make(map[string]string)
	for key, value := range e.config.PluginOptions {
		options[key] = value
	}
	for key, value := range cmd.options {
		options[key] = value
	}
	request, err := icdjson.EncodeFrame(&icdjson.CodegenRequest{
		Language:   language,
		OutputName: outputName,
		Options:    options,
		Model:      icdjson.NewDocument(model),
	})
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}

	pluginBin, err := os.ReadFile(pluginPath)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}
	plugin := &codegenPlugin{
		bin:      pluginBin,
		language: language,
		log:      e.log.With().Str("plugin", pluginPath).Logger(),
		stderr:   e.stderr,
	}
	response, err := plugin.generate(ctx, request)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}
	if response.Error != "" {
		fmt.Fprintln(e.stderr, strings.TrimRight(response.Error, "\n"))
		return 1
	}

	if err := writeOutputs(outDir, response.OutputFiles); err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}
	e.log.Info().
		Str("language", language).
		Str("output", outDir).
		Int("files", len(response.OutputFiles)).
		Msg("code generated")
	return 0
}

func locatePlugin(searchPath []string, language string) (string, error) {
	if len(searchPath) == 0 {
		return "", fmt.Errorf("No plugin path set, use --plugin-path= or $ICDC_PLUGIN_PATH")
	}
	basename := fmt.Sprintf("icdc-codegen-%s.wasm", language)
	for _, dir := range searchPath {
		if dir == "" {
			continue
		}
		pluginPath := filepath.Join(dir, basename)
		if info, err := os.Stat(pluginPath); err == nil && info.Mode().IsRegular() {
			return pluginPath, nil
		}
	}
	return "", fmt.Errorf("Codegen plugin %s not found in plugin path", basename)
}

// codegenPlugin runs a WebAssembly codegen plugin. A plugin exports its
// linear memory along with:
//
//	icd_codegen_allocate(len u32) -> ptr u32
//	icd_codegen_generate/<language>(request_ptr u32, response_ptr_ptr u32) -> rc u32
//
// Requests and responses are length-prefixed JSON frames. A non-zero rc
// means the response carries an error.
type codegenPlugin struct {
	bin      []byte
	language string
	log      zerolog.Logger
	stderr   io.Writer
}

func (p *codegenPlugin) generate(ctx context.Context, request []byte) (*icdjson.CodegenResponse, error) {
	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(16384)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	pluginExe, err := runtime.CompileModule(ctx, p.bin)
	if err != nil {
		return nil, fmt.Errorf("compile plugin: %w", err)
	}
	moduleConfig := wasm.NewModuleConfig().
		WithStderr(p.stderr).
		WithStartFunctions("_initialize")
	plugin, err := runtime.InstantiateModule(ctx, pluginExe, moduleConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate plugin: %w", err)
	}
	mem := plugin.Memory()
	if mem == nil {
		return nil, fmt.Errorf("Plugin does not export its memory")
	}

	allocName := "icd_codegen_allocate"
	generateName := "icd_codegen_generate/" + p.language
	wasmAlloc := plugin.ExportedFunction(allocName)
	if wasmAlloc == nil {
		return nil, fmt.Errorf("Plugin does not export function %q", allocName)
	}
	wasmGenerate := plugin.ExportedFunction(generateName)
	if wasmGenerate == nil {
		return nil, fmt.Errorf("Plugin does not export function %q", generateName)
	}

	results, err := wasmAlloc.Call(ctx, uint64(len(request)))
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("Plugin function %q returned %d results, expected 1", allocName, len(results))
	}
	requestPtr := uint32(results[0])
	if !mem.Write(requestPtr, request) {
		return nil, fmt.Errorf("Failed to write request message")
	}

	results, err = wasmAlloc.Call(ctx, 4)
	if err != nil {
		return nil, err
	}
	responsePtrPtr := uint32(results[0])

	p.log.Debug().Int("request_bytes", len(request)).Msg("calling plugin")
	results, err = wasmGenerate.Call(ctx, uint64(requestPtr), uint64(responsePtrPtr))
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("Plugin function %q returned %d results, expected 1", generateName, len(results))
	}
	rc := uint32(results[0])

	responsePtr, ok := mem.ReadUint32Le(responsePtrPtr)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message pointer")
	}
	responseLen, ok := mem.ReadUint32Le(responsePtr)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message length")
	}
	responseBuf, ok := mem.Read(responsePtr, responseLen)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message")
	}

	response, err := icdjson.DecodeResponse(responseBuf)
	if err != nil {
		return nil, fmt.Errorf("decode plugin response: %w", err)
	}
	p.log.Debug().
		Uint32("rc", rc).
		Int("output_files", len(response.OutputFiles)).
		Msg("plugin returned")
	if rc != 0 && response.Error == "" {
		response.Error = fmt.Sprintf("Plugin failed with status %d", rc)
	}
	return response, nil
}
