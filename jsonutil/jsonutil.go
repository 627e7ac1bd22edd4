// Package jsonutil provides helpers for working with large or deeply nested
// JSON documents: splitting an oversized JSON array file into chunk files,
// and enumerating the nested key paths of an object.
package jsonutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mvrheden/go-syncutil/traceback"
)

// SplitArrayFile splits the JSON array in the file at path into multiple
// files of at most splitSize elements each. For an input `dir/name.ext`, the
// chunks are written as `.dir/name/0.ext`, `.dir/name/1.ext`, and so on (a
// dot-prefixed sibling tree, so repeated runs never clobber the input).
//
// The whole document is held in memory, so this is only suitable for files
// that fit comfortably in RAM.
//
// Providing a splitSize < 1 will cause a panic.
func SplitArrayFile(path string, splitSize int) error {
	if splitSize < 1 {
		panic(`jsonutil: split size must be positive`)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return traceback.New(`failed to read JSON file`).
			WithExtraData(map[string]any{`path`: path, `error`: err.Error()})
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return traceback.New(`failed to parse JSON file`).
			WithExtraData(map[string]any{`path`: path, `error`: err.Error()})
	}
	arr, ok := parsed.([]any)
	if !ok {
		return traceback.New(`failed to parse JSON file: not an array`).
			WithExtraData(map[string]any{`path`: path})
	}

	ext := filepath.Ext(path) // includes the dot, may be empty
	outDir := `.` + strings.TrimSuffix(path, ext)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return traceback.New(`failed to create output directory`).
			WithExtraData(map[string]any{`dir`: outDir, `error`: err.Error()})
	}

	for i := 0; len(arr) > 0; i++ {
		chunk := arr
		if len(chunk) > splitSize {
			chunk = chunk[:splitSize]
		}
		arr = arr[len(chunk):]

		encoded, err := json.Marshal(chunk)
		if err != nil {
			return traceback.New(`failed to encode JSON chunk`).
				WithExtraData(map[string]any{`chunk`: i, `error`: err.Error()})
		}
		chunkPath := filepath.Join(outDir, strconv.Itoa(i)+ext)
		if err := os.WriteFile(chunkPath, encoded, 0o644); err != nil {
			return traceback.New(`failed to write JSON chunk`).
				WithExtraData(map[string]any{`path`: chunkPath, `error`: err.Error()})
		}
	}
	return nil
}

// DetectNested returns the dotted key paths of every non-object value in
// obj, descending recursively into nested objects. Keys whose value is an
// empty object produce no path. The result is sorted, for deterministic
// output.
func DetectNested(obj map[string]any) []string {
	keys := detectNested(obj)
	sort.Strings(keys)
	return keys
}

func detectNested(obj map[string]any) []string {
	var keys []string
	for key, value := range obj {
		if nested, ok := value.(map[string]any); ok {
			for _, nestedKey := range detectNested(nested) {
				keys = append(keys, key+`.`+nestedKey)
			}
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
