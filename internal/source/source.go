// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package source turns one input file into a lazy stream of parsed JSON
// documents, reporting for every document the number of raw source bytes it
// consumed. Files ending in .gz are decompressed transparently.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/sirseerhq/json2variant/internal/errors"
	"github.com/sirseerhq/json2variant/internal/jsonval"
)

// Format selects how a file's content is interpreted.
type Format int

const (
	// FormatAuto resolves per file: line-delimited for .jsonl/.ndjson
	// style extensions, single-document otherwise.
	FormatAuto Format = iota
	// FormatNDJSON treats every file as newline-delimited JSON.
	FormatNDJSON
	// FormatSingle treats every file as one JSON document.
	FormatSingle
)

func (f Format) String() string {
	switch f {
	case FormatNDJSON:
		return "ndjson"
	case FormatSingle:
		return "single"
	default:
		return "auto"
	}
}

// ParseFormat parses the --format flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "single":
		return FormatSingle, nil
	}
	return FormatAuto, fmt.Errorf("invalid format %q (want auto, ndjson or single)", s)
}

// ndjsonExtensions mark a file as line-delimited under FormatAuto.
var ndjsonExtensions = []string{".jsonl", ".ndjson", ".jsonlines"}

// ResolveFormat returns the effective format for one file: the requested
// format when forced, otherwise a decision based on the file extension
// (ignoring a trailing .gz).
func ResolveFormat(path string, requested Format) Format {
	if requested != FormatAuto {
		return requested
	}
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	for _, ext := range ndjsonExtensions {
		if strings.HasSuffix(name, ext) {
			return FormatNDJSON
		}
	}
	return FormatSingle
}

// Document is one parsed value plus the raw source bytes that produced it.
// Line is the 1-based source line for line-delimited input, 0 otherwise.
type Document struct {
	Value       jsonval.Value
	SourceBytes int64
	Line        int
}

// Source streams documents from one file.
type Source struct {
	path   string
	format Format

	file   *os.File
	gz     *gzip.Reader
	reader *bufio.Reader

	line int
	done bool
}

// Open opens path for reading with the given requested format. The caller
// must Close the source when finished.
func Open(path string, requested Format) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrInputNotFound, path, err)
	}

	s := &Source{
		path:   path,
		format: ResolveFormat(path, requested),
		file:   f,
	}

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w: not a gzip stream: %v", path, apperrors.ErrMalformedInput, err)
		}
		s.gz = gz
		r = gz
	}
	s.reader = bufio.NewReader(r)
	return s, nil
}

// Path returns the file path this source reads from.
func (s *Source) Path() string { return s.path }

// Format returns the effective (resolved) format.
func (s *Source) Format() Format { return s.format }

// Next returns the next document. The boolean is false once the file is
// exhausted. A zero-document file (empty, or all-blank ndjson) is not an
// error; the stream simply ends immediately.
func (s *Source) Next() (Document, bool, error) {
	if s.done {
		return Document{}, false, nil
	}
	if s.format == FormatSingle {
		return s.nextSingle()
	}
	return s.nextLine()
}

func (s *Source) nextSingle() (Document, bool, error) {
	s.done = true

	data, err := io.ReadAll(s.reader)
	if err != nil {
		return Document{}, false, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, false, nil
	}

	v, err := jsonval.ParseBytes(data)
	if err != nil {
		return Document{}, false, s.parseError(0, err)
	}
	return Document{Value: v, SourceBytes: int64(len(data))}, true, nil
}

func (s *Source) nextLine() (Document, bool, error) {
	for {
		// ReadBytes rather than a Scanner: one document per line, and a
		// line may be far larger than any fixed token limit.
		line, err := s.reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Document{}, false, fmt.Errorf("reading %s: %w", s.path, err)
		}
		eof := errors.Is(err, io.EOF)
		if eof {
			s.done = true
		}
		if len(line) == 0 {
			if eof {
				return Document{}, false, nil
			}
			continue
		}
		s.line++

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			if eof {
				return Document{}, false, nil
			}
			continue
		}

		v, perr := jsonval.ParseBytes(trimmed)
		if perr != nil {
			return Document{}, false, s.parseError(s.line, perr)
		}
		// The line terminator counts toward the document's source bytes.
		return Document{Value: v, SourceBytes: int64(len(line)), Line: s.line}, true, nil
	}
}

// parseError attaches the file path (and line, when non-zero) to a parse
// failure. Depth violations keep their own sentinel; everything else is
// classified as malformed input.
func (s *Source) parseError(line int, err error) error {
	at := s.path
	if line > 0 {
		at = fmt.Sprintf("%s:%d", s.path, line)
	}
	if errors.Is(err, apperrors.ErrDepthExceeded) {
		return fmt.Errorf("%s: %w", at, err)
	}
	return fmt.Errorf("%s: %w: %v", at, apperrors.ErrMalformedInput, err)
}

// Close releases the underlying file handles.
func (s *Source) Close() error {
	var firstErr error
	if s.gz != nil {
		firstErr = s.gz.Close()
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
