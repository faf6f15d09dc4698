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

// Package variant implements the self-describing binary Variant encoding:
// each encoded row is a metadata buffer carrying a sorted, deduplicated
// field-name dictionary, and a value buffer of type-tagged payloads that
// reference dictionary ids. Rows are fully self-contained; no state is
// shared between them.
package variant

// Variant is one encoded row: the metadata buffer and the value buffer.
type Variant struct {
	Metadata []byte
	Value    []byte
}

// SourceSize returns the combined size of both buffers in bytes.
func (v Variant) SourceSize() int { return len(v.Metadata) + len(v.Value) }

// Basic types, stored in the low two bits of every value header byte.
type basicType byte

const (
	basicPrimitive   basicType = 0
	basicShortString basicType = 1
	basicObject      basicType = 2
	basicArray       basicType = 3
)

// Primitive type ids, stored in the upper six bits of a primitive header.
// Only the ids producible from JSON input are listed.
type primitiveType byte

const (
	primitiveNull   primitiveType = 0
	primitiveTrue   primitiveType = 1
	primitiveFalse  primitiveType = 2
	primitiveInt8   primitiveType = 3
	primitiveInt16  primitiveType = 4
	primitiveInt32  primitiveType = 5
	primitiveInt64  primitiveType = 6
	primitiveDouble primitiveType = 7
	primitiveString primitiveType = 16
)

const (
	// Metadata header layout: low four bits are the format version, bit 4
	// flags a sorted dictionary, the top two bits carry offsetSize-1.
	metadataVersion    = 0x01
	metadataSortedBit  = 0x10
	metadataVersionMax = 0x0F

	// Strings shorter than this are inlined with their length in the
	// header byte; longer strings carry a 4-byte length prefix.
	shortStringMax = 64
)

func primitiveHeader(p primitiveType) byte {
	return byte(p)<<2 | byte(basicPrimitive)
}

// minWidth returns the smallest byte width (1..4) able to represent n.
func minWidth(n int) int {
	switch {
	case n < 1<<8:
		return 1
	case n < 1<<16:
		return 2
	case n < 1<<24:
		return 3
	default:
		return 4
	}
}
