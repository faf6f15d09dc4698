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

// Package output appends batches of Variant-encoded rows to a parquet file
// under a fixed single-column schema: one field named "data" annotated as
// VARIANT, storing the metadata and value buffers as the two required
// binary members of the unshredded variant group.
//
// The file is written to a temporary path and renamed into place on
// Finalize, so an aborted run never leaves behind something that looks like
// valid output.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/extensions"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	apperrors "github.com/sirseerhq/json2variant/internal/errors"
	"github.com/sirseerhq/json2variant/internal/variant"
)

// ColumnName is the single output column.
const ColumnName = "data"

// Options configure the output file.
type Options struct {
	// Compression names the parquet codec: snappy (default), zstd, gzip,
	// brotli or none.
	Compression string
}

// Writer appends batches as row groups to one parquet file. It implements
// batch.Sink. Writer is not safe for concurrent use; the pipeline funnels
// all batches through a single goroutine.
type Writer struct {
	path    string
	tmpPath string

	variantType *extensions.VariantType
	storageType *arrow.StructType
	metaIdx     int
	valIdx      int

	schema *arrow.Schema
	writer *pqarrow.FileWriter

	rows   int64
	groups int
	closed bool
}

// NewWriter creates the temporary output file and the parquet writer over
// it. The destination path itself is not touched until Finalize.
func NewWriter(path string, opts Options) (*Writer, error) {
	codec, err := codecFor(opts.Compression)
	if err != nil {
		return nil, err
	}

	vt := extensions.NewDefaultVariantType()
	storage := vt.StorageType().(*arrow.StructType)
	metaIdx, ok := storage.FieldIdx("metadata")
	if !ok {
		return nil, fmt.Errorf("variant storage type has no metadata field")
	}
	valIdx, ok := storage.FieldIdx("value")
	if !ok {
		return nil, fmt.Errorf("variant storage type has no value field")
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: ColumnName, Type: vt, Nullable: true},
	}, nil)

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", apperrors.ErrWriteFailed, tmpPath, err)
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(codec))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	// The pqarrow writer takes ownership of the file handle and closes it
	// together with its own Close.
	fw, err := pqarrow.NewFileWriter(schema, f, props, arrowProps)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: initializing parquet writer: %v", apperrors.ErrWriteFailed, err)
	}

	return &Writer{
		path:        path,
		tmpPath:     tmpPath,
		variantType: vt,
		storageType: storage,
		metaIdx:     metaIdx,
		valIdx:      valIdx,
		schema:      schema,
		writer:      fw,
	}, nil
}

// WriteBatch appends one batch as one row group.
func (w *Writer) WriteBatch(rows []variant.Variant) error {
	if len(rows) == 0 {
		return nil
	}
	if w.closed {
		return fmt.Errorf("%w: writer already finalized", apperrors.ErrWriteFailed)
	}

	sb := array.NewStructBuilder(memory.DefaultAllocator, w.storageType)
	defer sb.Release()
	metaBldr := sb.FieldBuilder(w.metaIdx).(*array.BinaryBuilder)
	valBldr := sb.FieldBuilder(w.valIdx).(*array.BinaryBuilder)

	for _, r := range rows {
		sb.Append(true)
		metaBldr.Append(r.Metadata)
		valBldr.Append(r.Value)
	}

	storageArr := sb.NewArray()
	defer storageArr.Release()
	col := array.NewExtensionArrayWithStorage(w.variantType, storageArr)
	defer col.Release()

	rec := array.NewRecord(w.schema, []arrow.Array{col}, int64(len(rows)))
	defer rec.Release()

	// Each Write call lands in its own row group.
	if err := w.writer.Write(rec); err != nil {
		return fmt.Errorf("%w: appending row group: %v", apperrors.ErrWriteFailed, err)
	}
	w.rows += int64(len(rows))
	w.groups++
	return nil
}

// RowCount reports the rows written so far.
func (w *Writer) RowCount() int64 { return w.rows }

// RowGroups reports the row groups written so far.
func (w *Writer) RowGroups() int { return w.groups }

// Finalize writes the parquet footer and moves the file to its destination.
// It must be called exactly once; only after it returns is the output a
// complete, readable file.
func (w *Writer) Finalize() (int64, error) {
	if w.closed {
		return w.rows, fmt.Errorf("%w: writer already finalized", apperrors.ErrWriteFailed)
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		os.Remove(w.tmpPath)
		return 0, fmt.Errorf("%w: finalizing %s: %v", apperrors.ErrWriteFailed, w.path, err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return 0, fmt.Errorf("%w: renaming %s: %v", apperrors.ErrWriteFailed, w.tmpPath, err)
	}
	return w.rows, nil
}

// Abort discards the temporary file. Safe to call after Finalize, where it
// does nothing.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	w.writer.Close()
	os.Remove(w.tmpPath)
}

func codecFor(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	}
	return compress.Codecs.Snappy, fmt.Errorf("unknown compression codec: %q", name)
}
