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

package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/sirseerhq/json2variant/internal/errors"
	"github.com/sirseerhq/json2variant/internal/jsonval"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func writeGzip(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	return path
}

func drain(t *testing.T, s *Source) []Document {
	t.Helper()
	var docs []Document
	for {
		doc, ok, err := s.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			return docs
		}
		docs = append(docs, doc)
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		path      string
		requested Format
		want      Format
	}{
		{"data.json", FormatAuto, FormatSingle},
		{"data.jsonl", FormatAuto, FormatNDJSON},
		{"data.ndjson", FormatAuto, FormatNDJSON},
		{"data.jsonlines", FormatAuto, FormatNDJSON},
		{"DATA.NDJSON", FormatAuto, FormatNDJSON},
		{"data.ndjson.gz", FormatAuto, FormatNDJSON},
		{"data.json.gz", FormatAuto, FormatSingle},
		{"data.txt", FormatAuto, FormatSingle},
		{"data.json", FormatNDJSON, FormatNDJSON},
		{"data.ndjson", FormatSingle, FormatSingle},
	}
	for _, tt := range tests {
		if got := ResolveFormat(tt.path, tt.requested); got != tt.want {
			t.Errorf("ResolveFormat(%s, %s) = %s, want %s", tt.path, tt.requested, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"auto", "ndjson", "single", "NDJSON", " single "} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("ParseFormat(csv) succeeded, want error")
	}
}

func TestSingleDocument(t *testing.T) {
	path := writeFile(t, "doc.json", `{"a": 1}`)
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	docs := drain(t, s)
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if docs[0].SourceBytes != 8 {
		t.Errorf("SourceBytes = %d, want 8", docs[0].SourceBytes)
	}
	a, ok := docs[0].Value.Field("a")
	if !ok || a.Int64Val() != 1 {
		t.Errorf("parsed document missing a=1")
	}
}

func TestSingleDocumentTrailingData(t *testing.T) {
	path := writeFile(t, "doc.json", "{\"a\": 1}\n{\"b\": 2}")
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	_, _, err = s.Next()
	if err == nil {
		t.Fatal("trailing data accepted in single mode")
	}
	if !errors.Is(err, apperrors.ErrMalformedInput) {
		t.Errorf("error = %v, want ErrMalformedInput", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestEmptyFileYieldsNoDocuments(t *testing.T) {
	for _, name := range []string{"empty.json", "empty.ndjson"} {
		path := writeFile(t, name, "")
		s, err := Open(path, FormatAuto)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		docs := drain(t, s)
		s.Close()
		if len(docs) != 0 {
			t.Errorf("%s: got %d documents, want 0", name, len(docs))
		}
	}
}

func TestWhitespaceOnlySingle(t *testing.T) {
	path := writeFile(t, "blank.json", "  \n\t\n")
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
	if docs := drain(t, s); len(docs) != 0 {
		t.Errorf("whitespace-only file produced %d documents", len(docs))
	}
}

func TestNDJSONStream(t *testing.T) {
	content := "{\"a\": 1}\n{\"a\": 2, \"b\": \"x\"}\n"
	path := writeFile(t, "rows.ndjson", content)
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	docs := drain(t, s)
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}

	// Source bytes include the line terminator.
	if docs[0].SourceBytes != 9 {
		t.Errorf("doc 0 SourceBytes = %d, want 9", docs[0].SourceBytes)
	}
	if docs[1].SourceBytes != 19 {
		t.Errorf("doc 1 SourceBytes = %d, want 19", docs[1].SourceBytes)
	}
	if docs[0].Line != 1 || docs[1].Line != 2 {
		t.Errorf("lines = %d, %d, want 1, 2", docs[0].Line, docs[1].Line)
	}

	var total int64
	for _, d := range docs {
		total += d.SourceBytes
	}
	if total != int64(len(content)) {
		t.Errorf("byte total = %d, want %d", total, len(content))
	}
}

func TestNDJSONBlankLinesSkipped(t *testing.T) {
	path := writeFile(t, "rows.ndjson", "{\"a\": 1}\n\n   \n{\"a\": 2}\n")
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	docs := drain(t, s)
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	// Blank lines still count toward physical line numbers.
	if docs[1].Line != 4 {
		t.Errorf("second document line = %d, want 4", docs[1].Line)
	}
}

func TestNDJSONNoTrailingNewline(t *testing.T) {
	path := writeFile(t, "rows.ndjson", "{\"a\": 1}\n{\"a\": 2}")
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	docs := drain(t, s)
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[1].SourceBytes != 8 {
		t.Errorf("last doc SourceBytes = %d, want 8 (no terminator)", docs[1].SourceBytes)
	}
}

func TestNDJSONErrorNamesLine(t *testing.T) {
	path := writeFile(t, "rows.ndjson", "{\"a\": 1}\nnot json\n{\"a\": 3}\n")
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if _, _, err := s.Next(); err != nil {
		t.Fatalf("first line failed: %v", err)
	}
	_, _, err = s.Next()
	if err == nil {
		t.Fatal("malformed line accepted")
	}
	if !errors.Is(err, apperrors.ErrMalformedInput) {
		t.Errorf("error = %v, want ErrMalformedInput", err)
	}
	if !strings.Contains(err.Error(), path+":2") {
		t.Errorf("error %q does not name file:line", err)
	}

	// The stream resumes at the next line after a parse failure.
	doc, ok, err := s.Next()
	if err != nil || !ok {
		t.Fatalf("stream did not resume after error: ok=%v err=%v", ok, err)
	}
	a, _ := doc.Value.Field("a")
	if a.Int64Val() != 3 {
		t.Errorf("resumed at wrong document: a = %d", a.Int64Val())
	}
}

func TestGzipNDJSON(t *testing.T) {
	path := writeGzip(t, "rows.ndjson.gz", "{\"a\": 1}\n{\"a\": 2}\n")
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.Format() != FormatNDJSON {
		t.Errorf("format = %s, want ndjson", s.Format())
	}
	docs := drain(t, s)
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	// Byte counts refer to the decompressed text.
	if docs[0].SourceBytes != 9 {
		t.Errorf("SourceBytes = %d, want 9 (decompressed)", docs[0].SourceBytes)
	}
}

func TestGzipBadStream(t *testing.T) {
	path := writeFile(t, "fake.json.gz", "this is not gzip")
	_, err := Open(path, FormatAuto)
	if err == nil {
		t.Fatal("Open accepted a non-gzip .gz file")
	}
	if !errors.Is(err, apperrors.ErrMalformedInput) {
		t.Errorf("error = %v, want ErrMalformedInput", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.json"), FormatAuto)
	if err == nil {
		t.Fatal("Open succeeded on missing file")
	}
	if !errors.Is(err, apperrors.ErrInputNotFound) {
		t.Errorf("error = %v, want ErrInputNotFound", err)
	}
}

func TestDepthErrorKeepsSentinel(t *testing.T) {
	deep := strings.Repeat("[", jsonval.MaxDepth+1) + strings.Repeat("]", jsonval.MaxDepth+1)
	path := writeFile(t, "deep.json", deep)
	s, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	_, _, err = s.Next()
	if !errors.Is(err, apperrors.ErrDepthExceeded) {
		t.Errorf("error = %v, want ErrDepthExceeded", err)
	}
	if errors.Is(err, apperrors.ErrMalformedInput) {
		t.Errorf("depth error must not be classified as malformed input")
	}
}
