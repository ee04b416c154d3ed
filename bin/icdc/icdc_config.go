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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"go.icd-lang.org/icd"
)

// Config files looked for in the working directory when --config is not
// given.
var defaultConfigPaths = []string{"icdc.toml", "icdc.yaml", "icdc.yml"}

type config struct {
	InputDir      string            `toml:"input_dir" yaml:"input_dir"`
	OutputDir     string            `toml:"output_dir" yaml:"output_dir"`
	OutputName    string            `toml:"output_name" yaml:"output_name"`
	Language      string            `toml:"language" yaml:"language"`
	Extension     string            `toml:"extension" yaml:"extension"`
	PluginPath    []string          `toml:"plugin_path" yaml:"plugin_path"`
	PluginOptions map[string]string `toml:"plugin_options" yaml:"plugin_options"`
	Log           logConfig         `toml:"log" yaml:"log"`

	path string
}

type logConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

func defaultConfig() *config {
	return &config{
		Extension: icd.Extension,
	}
}

func loadConfig(path string) (*config, error) {
	if path == "" {
		for _, candidate := range defaultConfigPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return defaultConfig(), nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := parseConfig(path, data)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// parseConfig decodes a config file, choosing the format by extension.
// Keys the config does not define are rejected.
func parseConfig(path string, data []byte) (*config, error) {
	cfg := defaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("parse config %s: unsupported format %q (want .toml or .yaml)", path, ext)
	}
	if cfg.Extension == "" {
		cfg.Extension = icd.Extension
	}
	return cfg, nil
}

// pluginPath returns the plugin search path: the flag value, then the
// config file, then $ICDC_PLUGIN_PATH.
func (e *env) pluginPath(flagValue string) []string {
	if flagValue != "" {
		return filepath.SplitList(flagValue)
	}
	if len(e.config.PluginPath) > 0 {
		return e.config.PluginPath
	}
	if envValue := e.getenv("ICDC_PLUGIN_PATH"); envValue != "" {
		return filepath.SplitList(envValue)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	var out io.Writer
	switch format {
	case "json":
		out = w
	case "console":
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (want console or json)", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("app", "icdc").Logger(), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
