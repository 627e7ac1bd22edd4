// Package geojson parses GeoJSON-style polygon coordinate arrays, i.e. the
// three-level nesting
//
//	[ [ [x, y], [x, y], ... ], ... ]
//
// as produced by decoding a GeoJSON geometry's "coordinates" member with
// encoding/json.
package geojson

import (
	"github.com/mvrheden/go-syncutil/traceback"
)

// CoordsToVec converts a decoded coordinate array (rings of positions) into
// float64 slices. Every level must be a JSON array; positions' members that
// are not numbers are coerced to 0.
func CoordsToVec(coordinates []any) ([][][]float64, error) {
	out := make([][][]float64, 0, len(coordinates))
	for _, c := range coordinates {
		ring, err := ringToVec(c)
		if err != nil {
			return nil, err
		}
		out = append(out, ring)
	}
	return out, nil
}

func ringToVec(c any) ([][]float64, error) {
	arr, ok := c.([]any)
	if !ok {
		return nil, traceback.New(`expected an array as a parameter`).
			WithExtraData(map[string]any{`c`: c})
	}
	ring := make([][]float64, 0, len(arr))
	for _, p := range arr {
		position, err := positionToVec(p)
		if err != nil {
			return nil, err
		}
		ring = append(ring, position)
	}
	return ring, nil
}

func positionToVec(c any) ([]float64, error) {
	arr, ok := c.([]any)
	if !ok {
		return nil, traceback.New(`expected an array as a parameter`).
			WithExtraData(map[string]any{`c`: c})
	}
	position := make([]float64, len(arr))
	for i, v := range arr {
		f, _ := v.(float64)
		position[i] = f
	}
	return position, nil
}
