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

// Package errors defines sentinel errors for consistent error handling across
// the application. These errors map to specific exit codes in the CLI for
// proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrInputNotFound indicates the input path does not exist or cannot
	// be read during discovery. Maps to exit code 2.
	ErrInputNotFound = errors.New("input path not found")

	// ErrMalformedInput indicates a document could not be parsed as JSON.
	// Wrapping errors carry the file path and, for line-delimited input,
	// the 1-based line number. Maps to exit code 3.
	ErrMalformedInput = errors.New("malformed JSON input")

	// ErrUnsupportedValue indicates a parsed value cannot be represented
	// in the Variant encoding. Maps to exit code 4.
	ErrUnsupportedValue = errors.New("value not representable as Variant")

	// ErrDepthExceeded indicates a document nests deeper than the safety
	// bound. Maps to exit code 4.
	ErrDepthExceeded = errors.New("nesting depth exceeds safety limit")

	// ErrWriteFailed indicates an I/O failure while writing or finalizing
	// the output file. Maps to exit code 5.
	ErrWriteFailed = errors.New("output write failed")
)
