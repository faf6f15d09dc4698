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

// Package pipeline runs the encode stage. The default is strictly
// sequential; with more than one worker, documents are encoded concurrently
// while results are still delivered in input order, since output row order
// is part of the output contract. Rows carry no shared state (each has a
// private field dictionary), so workers need no coordination beyond the
// queues.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sirseerhq/json2variant/internal/jsonval"
	"github.com/sirseerhq/json2variant/internal/variant"
)

// Doc is one parsed document entering the encode stage.
type Doc struct {
	Value       jsonval.Value
	SourceBytes int64
}

// Row is one encoded document leaving the encode stage.
type Row struct {
	Variant     variant.Variant
	SourceBytes int64
}

// NextFunc pulls the next document from the input. It returns false when
// the input is exhausted. Errors abort the pipeline.
type NextFunc func() (Doc, bool, error)

// EmitFunc receives encoded rows strictly in input order. An error aborts
// the pipeline.
type EmitFunc func(Row) error

// Run drains next through the encoder into emit. workers <= 1 runs the
// whole stage on the calling goroutine. Any error (from next, encoding, or
// emit) cancels everything in flight and is returned; no further documents
// are pulled after a failure.
func Run(ctx context.Context, workers int, next NextFunc, emit EmitFunc) error {
	if workers <= 1 {
		return runSequential(ctx, next, emit)
	}
	return runParallel(ctx, workers, next, emit)
}

func runSequential(ctx context.Context, next NextFunc, emit EmitFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, ok, err := next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		v, err := variant.Encode(doc.Value)
		if err != nil {
			return err
		}
		if err := emit(Row{Variant: v, SourceBytes: doc.SourceBytes}); err != nil {
			return err
		}
	}
}

type job struct {
	doc Doc
	res chan result
}

type result struct {
	row Row
	err error
}

func runParallel(ctx context.Context, workers int, next NextFunc, emit EmitFunc) error {
	g, ctx := errgroup.WithContext(ctx)

	// Bounded queues tie buffered memory to the worker count: a producer
	// that outruns the writer blocks here instead of buffering the input.
	jobs := make(chan *job, workers*2)
	inOrder := make(chan *job, workers*2)

	// Producer: pulls documents and hands each job to the workers and,
	// in parallel, to the ordered consumer queue.
	g.Go(func() error {
		defer close(jobs)
		defer close(inOrder)
		for {
			doc, ok, err := next()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			j := &job{doc: doc, res: make(chan result, 1)}
			select {
			case jobs <- j:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case inOrder <- j:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				v, err := variant.Encode(j.doc.Value)
				// The result channel has capacity 1, so this send
				// never blocks.
				j.res <- result{
					row: Row{Variant: v, SourceBytes: j.doc.SourceBytes},
					err: err,
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	// Consumer: single goroutine draining results in submission order and
	// feeding the accumulator, preserving the single-writer invariant.
	g.Go(func() error {
		for j := range inOrder {
			var res result
			select {
			case res = <-j.res:
			case <-ctx.Done():
				return ctx.Err()
			}
			if res.err != nil {
				return res.err
			}
			if err := emit(res.row); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}
