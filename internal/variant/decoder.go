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
	"fmt"
	"math"

	"github.com/sirseerhq/json2variant/internal/jsonval"
)

// Decode reconstructs the JSON value held by one encoded row. Every read is
// bounds-checked so corrupt input fails with an error instead of panicking.
// Object members come back in the on-disk (sorted) field order.
func Decode(v Variant) (jsonval.Value, error) {
	keys, err := decodeDictionary(v.Metadata)
	if err != nil {
		return jsonval.Value{}, err
	}
	return decodeValue(v.Value, 0, keys)
}

func decodeDictionary(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("metadata buffer is empty")
	}
	if ver := raw[0] & metadataVersionMax; ver != metadataVersion {
		return nil, fmt.Errorf("unsupported metadata version %d", ver)
	}
	width := int(raw[0]>>6) + 1

	count, err := readUint(raw, 1, width)
	if err != nil {
		return nil, err
	}
	offsetIdx := 1 + width
	dataIdx := offsetIdx + (int(count)+1)*width

	keys := make([]string, int(count))
	for i := range keys {
		lo, err := readUint(raw, offsetIdx+i*width, width)
		if err != nil {
			return nil, err
		}
		hi, err := readUint(raw, offsetIdx+(i+1)*width, width)
		if err != nil {
			return nil, err
		}
		if lo > hi || dataIdx+int(hi) > len(raw) {
			return nil, fmt.Errorf("dictionary entry %d is out of bounds", i)
		}
		keys[i] = string(raw[dataIdx+int(lo) : dataIdx+int(hi)])
	}
	return keys, nil
}

func decodeValue(raw []byte, pos int, keys []string) (jsonval.Value, error) {
	if pos >= len(raw) {
		return jsonval.Value{}, fmt.Errorf("value offset %d is out of bounds", pos)
	}
	hdr := raw[pos]
	switch basicType(hdr & 0x3) {
	case basicPrimitive:
		return decodePrimitive(raw, pos)
	case basicShortString:
		n := int(hdr >> 2)
		if pos+1+n > len(raw) {
			return jsonval.Value{}, fmt.Errorf("short string at %d is out of bounds", pos)
		}
		return jsonval.String(string(raw[pos+1 : pos+1+n])), nil
	case basicObject:
		return decodeObject(raw, pos, keys)
	default:
		return decodeArray(raw, pos, keys)
	}
}

func decodePrimitive(raw []byte, pos int) (jsonval.Value, error) {
	switch p := primitiveType(raw[pos] >> 2); p {
	case primitiveNull:
		return jsonval.Null(), nil
	case primitiveTrue:
		return jsonval.Bool(true), nil
	case primitiveFalse:
		return jsonval.Bool(false), nil
	case primitiveInt8, primitiveInt16, primitiveInt32, primitiveInt64:
		width := 1 << (p - primitiveInt8)
		u, err := readUint(raw, pos+1, width)
		if err != nil {
			return jsonval.Value{}, err
		}
		// Shift through the top bit to sign-extend the minimal width.
		shift := 64 - 8*width
		return jsonval.Int64(int64(u<<shift) >> shift), nil
	case primitiveDouble:
		u, err := readUint(raw, pos+1, 8)
		if err != nil {
			return jsonval.Value{}, err
		}
		return jsonval.Float64(math.Float64frombits(u)), nil
	case primitiveString:
		n, err := readUint(raw, pos+1, 4)
		if err != nil {
			return jsonval.Value{}, err
		}
		start := pos + 5
		if start+int(n) > len(raw) {
			return jsonval.Value{}, fmt.Errorf("string at %d is out of bounds", pos)
		}
		return jsonval.String(string(raw[start : start+int(n)])), nil
	default:
		return jsonval.Value{}, fmt.Errorf("unknown primitive type %d", p)
	}
}

func decodeObject(raw []byte, pos int, keys []string) (jsonval.Value, error) {
	up := raw[pos] >> 2
	offWidth := int(up&0x3) + 1
	idWidth := int((up>>2)&0x3) + 1
	countWidth := 1
	if up&0x10 != 0 {
		countWidth = 4
	}

	count, err := readUint(raw, pos+1, countWidth)
	if err != nil {
		return jsonval.Value{}, err
	}
	idIdx := pos + 1 + countWidth
	offIdx := idIdx + int(count)*idWidth
	dataIdx := offIdx + (int(count)+1)*offWidth

	members := make([]jsonval.Member, 0, int(count))
	for i := 0; i < int(count); i++ {
		id, err := readUint(raw, idIdx+i*idWidth, idWidth)
		if err != nil {
			return jsonval.Value{}, err
		}
		if int(id) >= len(keys) {
			return jsonval.Value{}, fmt.Errorf("field id %d not in dictionary of %d keys", id, len(keys))
		}
		off, err := readUint(raw, offIdx+i*offWidth, offWidth)
		if err != nil {
			return jsonval.Value{}, err
		}
		val, err := decodeValue(raw, dataIdx+int(off), keys)
		if err != nil {
			return jsonval.Value{}, err
		}
		members = append(members, jsonval.Member{Key: keys[id], Value: val})
	}
	return jsonval.Object(members...), nil
}

func decodeArray(raw []byte, pos int, keys []string) (jsonval.Value, error) {
	up := raw[pos] >> 2
	offWidth := int(up&0x3) + 1
	countWidth := 1
	if up&0x4 != 0 {
		countWidth = 4
	}

	count, err := readUint(raw, pos+1, countWidth)
	if err != nil {
		return jsonval.Value{}, err
	}
	offIdx := pos + 1 + countWidth
	dataIdx := offIdx + (int(count)+1)*offWidth

	elems := make([]jsonval.Value, 0, int(count))
	for i := 0; i < int(count); i++ {
		off, err := readUint(raw, offIdx+i*offWidth, offWidth)
		if err != nil {
			return jsonval.Value{}, err
		}
		elem, err := decodeValue(raw, dataIdx+int(off), keys)
		if err != nil {
			return jsonval.Value{}, err
		}
		elems = append(elems, elem)
	}
	return jsonval.Array(elems...), nil
}

// readUint reads a little-endian unsigned integer of the given width,
// checking bounds.
func readUint(raw []byte, pos, width int) (uint64, error) {
	if pos < 0 || pos+width > len(raw) {
		return 0, fmt.Errorf("read of %d bytes at %d exceeds buffer of %d", width, pos, len(raw))
	}
	var u uint64
	for i := 0; i < width; i++ {
		u |= uint64(raw[pos+i]) << (8 * i)
	}
	return u, nil
}
