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

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/sirseerhq/json2variant/internal/jsonval"
	"github.com/sirseerhq/json2variant/internal/variant"
)

// sliceSource yields a fixed set of documents.
func sliceSource(docs []Doc) NextFunc {
	i := 0
	return func() (Doc, bool, error) {
		if i >= len(docs) {
			return Doc{}, false, nil
		}
		d := docs[i]
		i++
		return d, true, nil
	}
}

func numberedDocs(n int) []Doc {
	docs := make([]Doc, n)
	for i := range docs {
		docs[i] = Doc{Value: jsonval.Int64(int64(i)), SourceBytes: int64(i)}
	}
	return docs
}

func TestSequentialDrainsInOrder(t *testing.T) {
	var got []Row
	err := Run(context.Background(), 1, sliceSource(numberedDocs(50)), func(r Row) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("got %d rows, want 50", len(got))
	}
	for i, r := range got {
		if r.SourceBytes != int64(i) {
			t.Fatalf("row %d has SourceBytes %d, order not preserved", i, r.SourceBytes)
		}
	}
}

func TestParallelPreservesOrder(t *testing.T) {
	// Input order must survive concurrent encoding; the source byte
	// counter doubles as a sequence number.
	for _, workers := range []int{2, 4, 8} {
		var got []Row
		err := Run(context.Background(), workers, sliceSource(numberedDocs(500)), func(r Row) error {
			got = append(got, r)
			return nil
		})
		if err != nil {
			t.Fatalf("Run with %d workers failed: %v", workers, err)
		}
		if len(got) != 500 {
			t.Fatalf("workers=%d: got %d rows, want 500", workers, len(got))
		}
		for i, r := range got {
			if r.SourceBytes != int64(i) {
				t.Fatalf("workers=%d: row %d out of order (seq %d)", workers, i, r.SourceBytes)
			}
		}
	}
}

func TestParallelRowsDecodeCorrectly(t *testing.T) {
	docs := numberedDocs(100)
	var got []Row
	err := Run(context.Background(), 4, sliceSource(docs), func(r Row) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, r := range got {
		v, err := variant.Decode(r.Variant)
		if err != nil {
			t.Fatalf("row %d does not decode: %v", i, err)
		}
		if v.Int64Val() != int64(i) {
			t.Errorf("row %d decodes to %d", i, v.Int64Val())
		}
	}
}

func TestSourceErrorAborts(t *testing.T) {
	srcErr := errors.New("read failed")
	calls := 0
	next := func() (Doc, bool, error) {
		calls++
		if calls > 3 {
			return Doc{}, false, srcErr
		}
		return Doc{Value: jsonval.Null()}, true, nil
	}

	for _, workers := range []int{1, 4} {
		calls = 0
		err := Run(context.Background(), workers, next, func(Row) error { return nil })
		if !errors.Is(err, srcErr) {
			t.Errorf("workers=%d: error = %v, want source error", workers, err)
		}
	}
}

func TestEmitErrorAborts(t *testing.T) {
	emitErr := errors.New("sink failed")
	for _, workers := range []int{1, 4} {
		emitted := 0
		err := Run(context.Background(), workers, sliceSource(numberedDocs(1000)), func(Row) error {
			emitted++
			if emitted == 5 {
				return emitErr
			}
			return nil
		})
		if !errors.Is(err, emitErr) {
			t.Errorf("workers=%d: error = %v, want emit error", workers, err)
		}
		if emitted > 6 {
			t.Errorf("workers=%d: emit kept being called after failure (%d calls)", workers, emitted)
		}
	}
}

func TestEncodeErrorAborts(t *testing.T) {
	// A value nested past the depth bound fails inside the encoder.
	deep := jsonval.Int64(1)
	for i := 0; i < jsonval.MaxDepth+1; i++ {
		deep = jsonval.Array(deep)
	}
	docs := []Doc{
		{Value: jsonval.Int64(0)},
		{Value: deep},
		{Value: jsonval.Int64(2)},
	}

	for _, workers := range []int{1, 4} {
		err := Run(context.Background(), workers, sliceSource(docs), func(Row) error { return nil })
		if err == nil {
			t.Errorf("workers=%d: encode failure not surfaced", workers)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	endless := func() (Doc, bool, error) {
		return Doc{Value: jsonval.Null()}, true, nil
	}
	for _, workers := range []int{1, 4} {
		err := Run(ctx, workers, endless, func(Row) error { return nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: error = %v, want context.Canceled", workers, err)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	for _, workers := range []int{1, 4} {
		emitted := 0
		err := Run(context.Background(), workers, sliceSource(nil), func(Row) error {
			emitted++
			return nil
		})
		if err != nil {
			t.Fatalf("workers=%d: Run on empty input failed: %v", workers, err)
		}
		if emitted != 0 {
			t.Errorf("workers=%d: emitted %d rows from empty input", workers, emitted)
		}
	}
}
