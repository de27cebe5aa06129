/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package orderwal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// walFileName formats the segment name for the file whose lowest contained
// sequence number is seq: "<prefix>_<16-hex-digit-zero-padded-sequence>.wal".
// Zero-padded hex keeps lexicographic order equal to sequence order.
func walFileName(prefix string, seq uint64) string {
	return fmt.Sprintf("%s_%016x.wal", prefix, seq)
}

// parseWalFileName extracts the sequence number from a segment name matching
// prefix, returning ok=false for anything that doesn't fit the pattern.
func parseWalFileName(name, prefix string) (seq uint64, ok bool) {
	trimmed := strings.TrimSuffix(name, ".wal")
	if trimmed == name {
		return 0, false
	}
	want := prefix + "_"
	if !strings.HasPrefix(trimmed, want) {
		return 0, false
	}
	hexPart := trimmed[len(want):]
	if len(hexPart) != 16 {
		return 0, false
	}
	v, err := strconv.ParseUint(hexPart, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// listSegments returns every segment file for prefix in directory, sorted
// ascending by sequence (equivalently, lexicographically by name).
func listSegments(directory, prefix string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := parseWalFileName(e.Name(), prefix); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func segmentPath(directory, name string) string {
	return filepath.Join(directory, name)
}
