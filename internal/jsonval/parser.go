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

package jsonval

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	apperrors "github.com/sirseerhq/json2variant/internal/errors"
)

// MaxDepth is the nesting bound for parsed documents. Input nesting deeper
// than this is rejected instead of risking stack exhaustion during the
// recursive encode that follows.
const MaxDepth = 256

// Parse reads exactly one JSON value from r. Anything other than whitespace
// after the value is an error.
func Parse(r io.Reader) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Value{}, err
	}
	return ParseBytes(data)
}

// ParseBytes parses exactly one JSON value from b.
func ParseBytes(b []byte) (Value, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return Value{}, fmt.Errorf("empty input")
	}

	// Token is lenient about truncated keyword literals (nul, tru, fals),
	// so the document is validated strictly before the token walk.
	if !json.Valid(b) {
		return Value{}, fmt.Errorf("invalid JSON document")
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Value{}, fmt.Errorf("empty input")
		}
		return Value{}, err
	}

	v, err := parseValue(dec, tok, 1)
	if err != nil {
		return Value{}, err
	}

	// The document must contain a single value. A second token of any kind
	// means trailing content.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder, tok json.Token, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, fmt.Errorf("%w (max %d)", apperrors.ErrDepthExceeded, MaxDepth)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec, depth)
		case '[':
			return parseArray(dec, depth)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t.String())
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return classifyNumber(t)
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder, depth int) (Value, error) {
	var (
		members []Member
		seen    map[string]int
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		val, err := parseValue(dec, valTok, depth+1)
		if err != nil {
			return Value{}, err
		}

		// Duplicate keys within one object: the last occurrence wins,
		// matching encoding/json unmarshal semantics.
		if seen == nil {
			seen = make(map[string]int)
		}
		if idx, dup := seen[key]; dup {
			members[idx].Value = val
			continue
		}
		seen[key] = len(members)
		members = append(members, Member{Key: key, Value: val})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Object(members...), nil
}

func parseArray(dec *json.Decoder, depth int) (Value, error) {
	var elems []Value
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		elem, err := parseValue(dec, tok, depth+1)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, elem)
	}

	// Consume the closing bracket.
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Array(elems...), nil
}

// classifyNumber applies the Int64-vs-Float64 rule: a literal with a
// fractional part or exponent is a double; any other literal is an int64
// when it fits, and falls back to a double when it does not.
func classifyNumber(num json.Number) (Value, error) {
	s := num.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int64(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number literal %q: %w", s, err)
	}
	return Float64(f), nil
}
