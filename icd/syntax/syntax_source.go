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

package syntax

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Source is the content of one schema file along with its path, used to
// turn byte offsets into line and column positions.
type Source struct {
	path       string
	src        []byte
	lineStarts []uint32
}

func NewSource(path string, src []byte) *Source {
	lineStarts := []uint32{0}
	for ii, c := range src {
		if c == '\n' {
			lineStarts = append(lineStarts, uint32(ii+1))
		}
	}
	return &Source{
		path:       path,
		src:        src,
		lineStarts: lineStarts,
	}
}

func (s *Source) Path() string {
	return s.path
}

func (s *Source) Bytes() []byte {
	return s.src
}

// Position returns the 1-based line and column of a byte offset. Columns
// count characters, not bytes.
func (s *Source) Position(offset uint32) (line, column int) {
	idx := sort.Search(len(s.lineStarts), func(ii int) bool {
		return s.lineStarts[ii] > offset
	}) - 1
	lineStart := s.lineStarts[idx]
	if int(offset) > len(s.src) {
		offset = uint32(len(s.src))
	}
	return idx + 1, utf8.RuneCount(s.src[lineStart:offset]) + 1
}

// Line returns the text of a 1-based line without its line break.
func (s *Source) Line(line int) string {
	if line < 1 || line > len(s.lineStarts) {
		return ""
	}
	start := s.lineStarts[line-1]
	end := uint32(len(s.src))
	if line < len(s.lineStarts) {
		end = s.lineStarts[line]
	}
	text := string(s.src[start:end])
	text = strings.TrimSuffix(text, "\n")
	return strings.TrimSuffix(text, "\r")
}

// Excerpt renders the line containing offset with a caret under the
// offending column.
func (s *Source) Excerpt(offset uint32) string {
	line, column := s.Position(offset)
	text := s.Line(line)
	var caret strings.Builder
	for ii, r := range []rune(text) {
		if ii >= column-1 {
			break
		}
		if r == '\t' {
			caret.WriteByte('\t')
		} else {
			caret.WriteByte(' ')
		}
	}
	caret.WriteByte('^')
	return "\t" + text + "\n\t" + caret.String()
}
