// Package csvjson converts between CSV documents and JSON arrays of flat,
// string-valued objects.
//
// The first CSV row is treated as the header row, and every field is
// represented as a JSON string. Unlike a naive map-based conversion, ToJSON
// preserves the CSV column order in the generated objects. FromJSON sorts
// the headers alphabetically, so the two are only exact inverses of each
// other for alphabetically ordered columns.
package csvjson

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/joeycumines/go-utilpkg/jsonenc"
	"github.com/mvrheden/go-syncutil/traceback"
)

// ToJSON reads a CSV document and returns it as a JSON array of objects,
// one per record, keyed by the header row, preserving column order. All
// values are JSON strings.
func ToJSON(r io.Reader) ([]byte, error) {
	cr := csv.NewReader(r)

	headers, err := cr.Read()
	if err != nil {
		return nil, traceback.New(`failed to read CSV headers`).
			WithExtraData(map[string]any{`error`: err.Error()})
	}

	// headers are encoded once, records reuse them
	keys := make([][]byte, len(headers))
	for i, h := range headers {
		keys[i] = jsonenc.AppendString(nil, h)
	}

	buf := []byte{'['}
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, traceback.New(`failed to read CSV record`).
				WithExtraData(map[string]any{`error`: err.Error()})
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = append(buf, '{')
		for i, field := range record {
			if i != 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, keys[i]...)
			buf = append(buf, ':')
			buf = jsonenc.AppendString(buf, field)
		}
		buf = append(buf, '}')
	}
	return append(buf, ']'), nil
}

// FromJSON converts a JSON array of flat objects with string values into a
// CSV document. The header row is the alphabetically sorted key set of the
// first object; every object must carry a string value for every header.
func FromJSON(data []byte) (string, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ``, traceback.New(`failed to parse JSON`).
			WithExtraData(map[string]any{`error`: err.Error()})
	}

	arr, ok := parsed.([]any)
	if !ok {
		return ``, traceback.New(`failed to get JSON as array`).
			WithExtraData(map[string]any{`json`: string(data)})
	}
	if len(arr) == 0 {
		return ``, traceback.New(`failed to get zeroth element of JSON array`).
			WithExtraData(map[string]any{`json`: string(data)})
	}
	zeroth, ok := arr[0].(map[string]any)
	if !ok {
		return ``, traceback.New(`failed to get zeroth element of JSON array as object`).
			WithExtraData(map[string]any{`json`: string(data)})
	}

	headers := make([]string, 0, len(zeroth))
	for k := range zeroth {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(headers); err != nil {
		return ``, traceback.New(`failed to write CSV headers`).
			WithExtraData(map[string]any{`error`: err.Error()})
	}

	row := make([]string, len(headers))
	for _, record := range arr {
		obj, ok := record.(map[string]any)
		if !ok {
			return ``, traceback.New(`failed to get JSON record as object`).
				WithExtraData(map[string]any{`json`: string(data)})
		}
		for i, header := range headers {
			value, ok := obj[header]
			if !ok {
				return ``, traceback.New(`failed to get value from JSON record`).
					WithExtraData(map[string]any{`json`: string(data), `key`: header})
			}
			s, ok := value.(string)
			if !ok {
				return ``, traceback.New(`failed to get value from JSON record as string`).
					WithExtraData(map[string]any{`json`: string(data), `key`: header})
			}
			row[i] = s
		}
		if err := w.Write(row); err != nil {
			return ``, traceback.New(`failed to write CSV record`).
				WithExtraData(map[string]any{`error`: err.Error()})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return ``, traceback.New(`failed to flush CSV writer`).
			WithExtraData(map[string]any{`error`: err.Error()})
	}
	return b.String(), nil
}
