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

// Package main implements the json2variant command-line interface.
// This tool converts JSON documents into the binary Variant encoding and
// writes them as a single-column parquet file suitable for columnar query
// engines.
//
// The CLI supports:
//   - Single-document and newline-delimited JSON input, auto-detected
//     by extension or forced with --format
//   - Directory inputs, optionally recursive, with deterministic file order
//   - Transparent gzip decompression of .gz inputs
//   - Bounded memory through byte-threshold batching (--batch-bytes)
//   - Concurrent encoding with preserved row order (--workers)
//   - Skipping malformed documents instead of aborting (--skip-invalid)
//
// Usage:
//
//	json2variant convert <input> <output> [flags]
//
// Example:
//
//	json2variant convert events.ndjson events.parquet --workers 4
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Input not found / no records
//   - 3: Malformed input
//   - 4: Unsupported or too-deep value
//   - 5: Output write failure
package main
