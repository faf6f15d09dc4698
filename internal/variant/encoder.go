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

package variant

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	apperrors "github.com/sirseerhq/json2variant/internal/errors"
	"github.com/sirseerhq/json2variant/internal/jsonval"
)

// Encode converts one parsed JSON value into its Variant form. Encoding is
// pure and deterministic: the same value always yields the same bytes.
//
// The field-name dictionary is built in a pre-pass over the whole value so
// it can be written sorted (with the sorted bit set). Because object fields
// are also encoded in sorted key order, field ids within every field table
// ascend, which lets readers binary-search fields by name.
func Encode(v jsonval.Value) (Variant, error) {
	keys := make(map[string]struct{})
	if err := collectKeys(v, keys, 1); err != nil {
		return Variant{}, err
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	dict := make(map[string]int, len(sorted))
	for i, k := range sorted {
		dict[k] = i
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, v, dict, 1); err != nil {
		return Variant{}, err
	}
	return Variant{Metadata: buildMetadata(sorted), Value: buf.Bytes()}, nil
}

func collectKeys(v jsonval.Value, keys map[string]struct{}, depth int) error {
	if depth > jsonval.MaxDepth {
		return fmt.Errorf("%w (max %d)", apperrors.ErrDepthExceeded, jsonval.MaxDepth)
	}
	switch v.Kind() {
	case jsonval.KindArray:
		for _, e := range v.Elems() {
			if err := collectKeys(e, keys, depth+1); err != nil {
				return err
			}
		}
	case jsonval.KindObject:
		for _, m := range v.Members() {
			keys[m.Key] = struct{}{}
			if err := collectKeys(m.Value, keys, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildMetadata serializes the sorted dictionary: header, entry count, n+1
// offsets into the key region, then the concatenated UTF-8 keys. The offset
// width is the minimal width covering both the entry count and the total
// key bytes.
func buildMetadata(keys []string) []byte {
	total := 0
	for _, k := range keys {
		total += len(k)
	}
	width := minWidth(total)
	if w := minWidth(len(keys)); w > width {
		width = w
	}

	buf := bytes.NewBuffer(make([]byte, 0, 1+width*(len(keys)+2)+total))
	buf.WriteByte(byte(metadataVersion | metadataSortedBit | (width-1)<<6))
	appendUint(buf, uint64(len(keys)), width)

	off := 0
	for _, k := range keys {
		appendUint(buf, uint64(off), width)
		off += len(k)
	}
	appendUint(buf, uint64(off), width)
	for _, k := range keys {
		buf.WriteString(k)
	}
	return buf.Bytes()
}

func encodeValue(buf *bytes.Buffer, v jsonval.Value, dict map[string]int, depth int) error {
	if depth > jsonval.MaxDepth {
		return fmt.Errorf("%w (max %d)", apperrors.ErrDepthExceeded, jsonval.MaxDepth)
	}

	switch v.Kind() {
	case jsonval.KindNull:
		buf.WriteByte(primitiveHeader(primitiveNull))
	case jsonval.KindBool:
		if v.BoolVal() {
			buf.WriteByte(primitiveHeader(primitiveTrue))
		} else {
			buf.WriteByte(primitiveHeader(primitiveFalse))
		}
	case jsonval.KindInt64:
		encodeInt(buf, v.Int64Val())
	case jsonval.KindFloat64:
		buf.WriteByte(primitiveHeader(primitiveDouble))
		appendUint(buf, math.Float64bits(v.Float64Val()), 8)
	case jsonval.KindString:
		encodeString(buf, v.StringVal())
	case jsonval.KindArray:
		return encodeArray(buf, v.Elems(), dict, depth)
	case jsonval.KindObject:
		return encodeObject(buf, v.Members(), dict, depth)
	default:
		return fmt.Errorf("%w: kind %s", apperrors.ErrUnsupportedValue, v.Kind())
	}
	return nil
}

// encodeInt writes an integer at the smallest of the four fixed widths that
// represents it.
func encodeInt(buf *bytes.Buffer, val int64) {
	switch {
	case val >= math.MinInt8 && val <= math.MaxInt8:
		buf.WriteByte(primitiveHeader(primitiveInt8))
		appendUint(buf, uint64(val), 1)
	case val >= math.MinInt16 && val <= math.MaxInt16:
		buf.WriteByte(primitiveHeader(primitiveInt16))
		appendUint(buf, uint64(val), 2)
	case val >= math.MinInt32 && val <= math.MaxInt32:
		buf.WriteByte(primitiveHeader(primitiveInt32))
		appendUint(buf, uint64(val), 4)
	default:
		buf.WriteByte(primitiveHeader(primitiveInt64))
		appendUint(buf, uint64(val), 8)
	}
}

func encodeString(buf *bytes.Buffer, s string) {
	if len(s) < shortStringMax {
		buf.WriteByte(byte(len(s))<<2 | byte(basicShortString))
		buf.WriteString(s)
		return
	}
	buf.WriteByte(primitiveHeader(primitiveString))
	appendUint(buf, uint64(len(s)), 4)
	buf.WriteString(s)
}

func encodeArray(buf *bytes.Buffer, elems []jsonval.Value, dict map[string]int, depth int) error {
	var data bytes.Buffer
	offsets := make([]int, 0, len(elems)+1)
	for _, e := range elems {
		offsets = append(offsets, data.Len())
		if err := encodeValue(&data, e, dict, depth+1); err != nil {
			return err
		}
	}
	offsets = append(offsets, data.Len())

	offWidth := minWidth(data.Len())
	large := len(elems) > 0xFF
	countWidth := 1
	if large {
		countWidth = 4
	}

	// Header bits above the basic type: offset width minus one, then the
	// is-large flag.
	hdr := byte(offWidth - 1)
	if large {
		hdr |= 1 << 2
	}
	buf.WriteByte(hdr<<2 | byte(basicArray))
	appendUint(buf, uint64(len(elems)), countWidth)
	for _, o := range offsets {
		appendUint(buf, uint64(o), offWidth)
	}
	buf.Write(data.Bytes())
	return nil
}

func encodeObject(buf *bytes.Buffer, members []jsonval.Member, dict map[string]int, depth int) error {
	// Sorted key order is the canonical field order on disk; the incoming
	// parse order is irrelevant to the encoding.
	fields := make([]jsonval.Member, len(members))
	copy(fields, members)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })

	var data bytes.Buffer
	offsets := make([]int, 0, len(fields)+1)
	maxID := 0
	ids := make([]int, len(fields))
	for i, f := range fields {
		id, ok := dict[f.Key]
		if !ok {
			return fmt.Errorf("%w: field %q missing from dictionary", apperrors.ErrUnsupportedValue, f.Key)
		}
		ids[i] = id
		if id > maxID {
			maxID = id
		}
		offsets = append(offsets, data.Len())
		if err := encodeValue(&data, f.Value, dict, depth+1); err != nil {
			return err
		}
	}
	offsets = append(offsets, data.Len())

	offWidth := minWidth(data.Len())
	idWidth := minWidth(maxID)
	large := len(fields) > 0xFF
	countWidth := 1
	if large {
		countWidth = 4
	}

	// Header bits above the basic type: offset width minus one, field id
	// width minus one, then the is-large flag.
	hdr := byte(offWidth - 1)
	hdr |= byte(idWidth-1) << 2
	if large {
		hdr |= 1 << 4
	}
	buf.WriteByte(hdr<<2 | byte(basicObject))
	appendUint(buf, uint64(len(fields)), countWidth)
	for _, id := range ids {
		appendUint(buf, uint64(id), idWidth)
	}
	for _, o := range offsets {
		appendUint(buf, uint64(o), offWidth)
	}
	buf.Write(data.Bytes())
	return nil
}

// appendUint writes val little-endian at the given byte width.
func appendUint(buf *bytes.Buffer, val uint64, width int) {
	for i := 0; i < width; i++ {
		buf.WriteByte(byte(val))
		val >>= 8
	}
}
