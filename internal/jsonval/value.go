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

// Package jsonval models a parsed JSON document as a closed tagged union and
// provides the streaming parser that builds it. Object member order is
// preserved as parsed; consumers that need canonical ordering (such as the
// Variant encoder) sort on their side.
package jsonval

import "math"

// Kind identifies which member of the union a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "invalid"
}

// Member is one key/value pair of an object. Keys are unique within a single
// object; the parser resolves duplicates before a Value is handed out.
type Member struct {
	Key   string
	Value Value
}

// Value is one node of a parsed JSON document. The zero value is JSON null.
// Values are immutable once built.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  []Member
}

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int64 returns an integer value.
func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

// Float64 returns a double-precision value.
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array value holding elems in order.
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

// Object returns an object value holding members in the given order.
// Callers must not pass duplicate keys.
func Object(members ...Member) Value { return Value{kind: KindObject, obj: members} }

// Kind reports which union member this value holds.
func (v Value) Kind() Kind { return v.kind }

// BoolVal returns the boolean payload. Valid only for KindBool.
func (v Value) BoolVal() bool { return v.b }

// Int64Val returns the integer payload. Valid only for KindInt64.
func (v Value) Int64Val() int64 { return v.i }

// Float64Val returns the double payload. Valid only for KindFloat64.
func (v Value) Float64Val() float64 { return v.f }

// StringVal returns the string payload. Valid only for KindString.
func (v Value) StringVal() string { return v.s }

// Elems returns the elements of an array value. Valid only for KindArray.
func (v Value) Elems() []Value { return v.arr }

// Members returns the members of an object value in parse order. Valid only
// for KindObject.
func (v Value) Members() []Member { return v.obj }

// Field returns the value of the named object member, if present.
func (v Value) Field(key string) (Value, bool) {
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Equal reports deep semantic equality. Floats compare bit-for-bit, so NaN
// equals NaN and -0 differs from 0. Object member order is ignored; the
// key/value sets must match.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt64:
		return v.i == other.i
	case KindFloat64:
		return math.Float64bits(v.f) == math.Float64bits(other.f)
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for _, m := range v.obj {
			ov, ok := other.Field(m.Key)
			if !ok || !m.Value.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}
