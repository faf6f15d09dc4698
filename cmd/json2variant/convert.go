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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/json2variant/internal/batch"
	"github.com/sirseerhq/json2variant/internal/config"
	"github.com/sirseerhq/json2variant/internal/discover"
	apperrors "github.com/sirseerhq/json2variant/internal/errors"
	"github.com/sirseerhq/json2variant/internal/output"
	"github.com/sirseerhq/json2variant/internal/pipeline"
	"github.com/sirseerhq/json2variant/internal/source"
)

// convertOptions are the fully resolved settings for one run, after flag,
// environment and config-file precedence has been applied.
type convertOptions struct {
	format      source.Format
	recursive   bool
	batchBytes  int64
	skipInvalid bool
	workers     int
	compression string
}

// convertCmd represents the convert command
func newConvertCommand() *cobra.Command {
	var (
		formatFlag  string
		recursive   bool
		batchBytes  int64
		skipInvalid bool
		workers     int
		configPath  string
	)

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a JSON file or directory into a parquet Variant file",
		Long: `Convert JSON input into a parquet file with a single Variant column
named "data".

INPUT is a JSON file or a directory holding JSON files. Files with a
.jsonl/.ndjson style extension are treated as newline-delimited JSON (one
document per non-blank line); other files are parsed as one document each.
Files ending in .gz are decompressed on the fly.

OUTPUT is the parquet file to produce. It is written atomically: a failed
run leaves no output behind.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Flags take precedence over environment and file settings.
			if cmd.Flags().Changed("format") {
				cfg.Defaults.Format = formatFlag
			}
			if cmd.Flags().Changed("batch-bytes") {
				cfg.Defaults.BatchBytes = batchBytes
			}
			if cmd.Flags().Changed("skip-invalid") {
				cfg.Defaults.SkipInvalid = skipInvalid
			}
			if cmd.Flags().Changed("workers") {
				cfg.Defaults.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			format, err := source.ParseFormat(cfg.Defaults.Format)
			if err != nil {
				return err
			}

			opts := convertOptions{
				format:      format,
				recursive:   recursive,
				batchBytes:  cfg.Defaults.BatchBytes,
				skipInvalid: cfg.Defaults.SkipInvalid,
				workers:     cfg.Defaults.Workers,
				compression: cfg.Output.Compression,
			}
			return runConvert(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "auto", "Input format: auto, ndjson or single")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Descend into subdirectories when INPUT is a directory")
	cmd.Flags().Int64Var(&batchBytes, "batch-bytes", batch.DefaultThresholdBytes, "Flush threshold in bytes of accumulated source JSON text")
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Skip malformed documents with a warning instead of aborting")
	cmd.Flags().IntVar(&workers, "workers", 1, "Number of concurrent encode workers")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: standard locations)")

	return cmd
}

// runConvert executes the convert command
func runConvert(ctx context.Context, input, outputPath string, opts convertOptions) error {
	files, err := discover.Discover(input, opts.recursive, opts.format != source.FormatAuto)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no JSON files found under %s (use --recursive if needed)",
			apperrors.ErrInputNotFound, input)
	}

	writer, err := output.NewWriter(outputPath, output.Options{Compression: opts.compression})
	if err != nil {
		return err
	}

	acc := batch.NewAccumulator(writer, opts.batchBytes)
	stream := &docStream{files: files, format: opts.format, skipInvalid: opts.skipInvalid}
	defer stream.Close()

	err = pipeline.Run(ctx, opts.workers, stream.next, func(row pipeline.Row) error {
		return acc.Offer(row.Variant, row.SourceBytes)
	})
	if err == nil {
		err = acc.Finish()
	}
	if err != nil {
		writer.Abort()
		return err
	}

	if writer.RowCount() == 0 {
		writer.Abort()
		return fmt.Errorf("%w: no JSON records were found in %s", apperrors.ErrInputNotFound, input)
	}

	rows, err := writer.Finalize()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", rows, outputPath)
	return nil
}

// docStream walks the discovered files in order, yielding one parsed
// document at a time. At most one file is open at any moment.
type docStream struct {
	files       []string
	format      source.Format
	skipInvalid bool

	idx int
	cur *source.Source
}

func (d *docStream) next() (pipeline.Doc, bool, error) {
	for {
		if d.cur == nil {
			if d.idx >= len(d.files) {
				return pipeline.Doc{}, false, nil
			}
			s, err := source.Open(d.files[d.idx], d.format)
			d.idx++
			if err != nil {
				if d.skipInvalid && errors.Is(err, apperrors.ErrMalformedInput) {
					fmt.Fprintf(os.Stderr, "Warning: skipping unreadable input: %v\n", err)
					continue
				}
				return pipeline.Doc{}, false, err
			}
			d.cur = s
		}

		doc, ok, err := d.cur.Next()
		if err != nil {
			if d.skipInvalid && errors.Is(err, apperrors.ErrMalformedInput) {
				// The source resumes at the next line; a single-mode
				// source is simply exhausted.
				fmt.Fprintf(os.Stderr, "Warning: skipping malformed document: %v\n", err)
				continue
			}
			d.cur.Close()
			d.cur = nil
			return pipeline.Doc{}, false, err
		}
		if !ok {
			d.cur.Close()
			d.cur = nil
			continue
		}
		return pipeline.Doc{Value: doc.Value, SourceBytes: doc.SourceBytes}, true, nil
	}
}

func (d *docStream) Close() {
	if d.cur != nil {
		d.cur.Close()
		d.cur = nil
	}
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, apperrors.ErrInputNotFound):
		return 2
	case errors.Is(err, apperrors.ErrMalformedInput):
		return 3
	case errors.Is(err, apperrors.ErrUnsupportedValue), errors.Is(err, apperrors.ErrDepthExceeded):
		return 4
	case errors.Is(err, apperrors.ErrWriteFailed):
		return 5
	}
	return 1 // General error
}
