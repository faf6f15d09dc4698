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

// Package discover enumerates candidate input files in a deterministic
// order so repeated runs over unchanged input produce identical output row
// order.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/sirseerhq/json2variant/internal/errors"
)

// jsonExtensions are the file suffixes recognized as JSON input when the
// format is not forced. Each may additionally carry a .gz suffix.
var jsonExtensions = []string{".json", ".jsonl", ".ndjson", ".jsons", ".jsonlines"}

// Discover returns the ordered list of input files under root. A file root
// is returned as-is regardless of extension. A directory root is scanned
// (recursively when recursive is set) for recognized extensions, unless
// formatForced is set, in which case every regular file is a candidate.
// Entries are visited in lexicographic order.
func Discover(root string, recursive, formatForced bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrInputNotFound, root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !d.IsDir() && (formatForced || recognized(path)) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrInputNotFound, root, err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrInputNotFound, root, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(root, e.Name())
			if formatForced || recognized(path) {
				files = append(files, path)
			}
		}
	}

	// WalkDir already visits lexically; sorting keeps the non-recursive
	// branch consistent and makes the guarantee explicit.
	sort.Strings(files)
	return files, nil
}

func recognized(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	for _, ext := range jsonExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
