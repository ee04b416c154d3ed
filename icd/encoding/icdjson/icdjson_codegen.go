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

package icdjson

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed codegen_response.schema.json
var responseSchemaJSON string

var responseSchema = jsonschema.MustCompileString("codegen_response.schema.json", responseSchemaJSON)

// CodegenRequest is sent to a codegen plugin.
type CodegenRequest struct {
	Language   string            `json:"language"`
	OutputName string            `json:"output_name"`
	Options    map[string]string `json:"options,omitempty"`
	Model      *Document         `json:"model"`
}

// CodegenResponse is returned by a codegen plugin. A non-empty Error means
// generation failed.
type CodegenResponse struct {
	Error       string       `json:"error,omitempty"`
	OutputFiles []OutputFile `json:"output_files"`
}

// OutputFile is one generated file. Path components are joined under the
// output directory.
type OutputFile struct {
	Path    []string `json:"path"`
	Content string   `json:"content"`
}

// frameHeaderLen is the size of the little-endian length that starts each
// frame. The length counts the header itself.
const frameHeaderLen = 4

func EncodeFrame(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if uint64(len(body)) > math.MaxUint32-frameHeaderLen {
		return nil, fmt.Errorf("icdjson: frame body too large (%d bytes)", len(body))
	}
	frame := make([]byte, frameHeaderLen, frameHeaderLen+len(body))
	binary.LittleEndian.PutUint32(frame, uint32(frameHeaderLen+len(body)))
	return append(frame, body...), nil
}

// FrameLen returns the total length of the frame that starts buf.
func FrameLen(buf []byte) (uint32, error) {
	if len(buf) < frameHeaderLen {
		return 0, errors.New("icdjson: truncated frame header")
	}
	frameLen := binary.LittleEndian.Uint32(buf)
	if frameLen < frameHeaderLen {
		return 0, fmt.Errorf("icdjson: invalid frame length %d", frameLen)
	}
	return frameLen, nil
}

func DecodeFrame(buf []byte, v any) error {
	frameLen, err := FrameLen(buf)
	if err != nil {
		return err
	}
	if uint64(frameLen) != uint64(len(buf)) {
		return fmt.Errorf("icdjson: frame length %d does not match buffer length %d", frameLen, len(buf))
	}
	return json.Unmarshal(buf[frameHeaderLen:], v)
}

// DecodeResponse decodes a plugin response frame. The body is checked
// against the response schema first, so a malformed response is reported
// by field rather than as a decode failure.
func DecodeResponse(frame []byte) (*CodegenResponse, error) {
	var raw any
	if err := DecodeFrame(frame, &raw); err != nil {
		return nil, err
	}
	if err := responseSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("icdjson: invalid codegen response: %w", err)
	}
	var response CodegenResponse
	if err := json.Unmarshal(frame[frameHeaderLen:], &response); err != nil {
		return nil, err
	}
	return &response, nil
}
