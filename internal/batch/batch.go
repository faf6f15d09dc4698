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

// Package batch implements the memory-bounding flush controller between the
// encoder and the columnar writer. It is deliberately free of any I/O so the
// flush policy can be tested in isolation.
package batch

import (
	"fmt"

	"github.com/sirseerhq/json2variant/internal/variant"
)

// DefaultThresholdBytes is the default amount of accumulated source JSON
// text that triggers a flush.
const DefaultThresholdBytes = 100_000_000

// Sink receives completed batches. Each call corresponds to exactly one unit
// of output (one row group).
type Sink interface {
	WriteBatch(rows []variant.Variant) error
}

// Accumulator collects encoded rows and the cumulative source-text byte
// count behind them, handing the batch to its sink whenever the byte
// threshold is reached. The threshold is only evaluated between whole
// documents: a single document larger than the threshold is appended in
// full and flushed afterwards, never split.
type Accumulator struct {
	sink      Sink
	threshold int64

	rows    []variant.Variant
	pending int64
	flushes int
}

// NewAccumulator returns an empty accumulator flushing to sink. A
// non-positive threshold is clamped to 1 so every document flushes
// immediately.
func NewAccumulator(sink Sink, thresholdBytes int64) *Accumulator {
	if thresholdBytes < 1 {
		thresholdBytes = 1
	}
	return &Accumulator{sink: sink, threshold: thresholdBytes}
}

// Offer appends one encoded document along with the number of source bytes
// it consumed, flushing if the running count has reached the threshold.
func (a *Accumulator) Offer(row variant.Variant, sourceBytes int64) error {
	a.rows = append(a.rows, row)
	a.pending += sourceBytes
	if a.pending >= a.threshold {
		return a.flush()
	}
	return nil
}

// Finish flushes whatever remains. It is safe to call on an empty
// accumulator.
func (a *Accumulator) Finish() error {
	if len(a.rows) == 0 {
		return nil
	}
	return a.flush()
}

// Flushes reports how many batches have been handed to the sink so far.
func (a *Accumulator) Flushes() int { return a.flushes }

// PendingRows reports how many rows are buffered and not yet flushed.
func (a *Accumulator) PendingRows() int { return len(a.rows) }

// PendingBytes reports the source bytes accumulated since the last flush.
func (a *Accumulator) PendingBytes() int64 { return a.pending }

func (a *Accumulator) flush() error {
	rows := a.rows
	a.rows = nil
	a.pending = 0
	if err := a.sink.WriteBatch(rows); err != nil {
		return fmt.Errorf("flushing batch of %d rows: %w", len(rows), err)
	}
	a.flushes++
	return nil
}
