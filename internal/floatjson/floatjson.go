// Package floatjson encodes float32 values as JSON without failing on
// NaN or infinities, which encoding/json rejects.
package floatjson

import (
	"math"
	"strconv"
)

// Float32 marshals finite values as shortest-form JSON numbers and
// non-finite values as the strings "NaN", "+Inf" and "-Inf".
type Float32 float32

func (f Float32) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

func (f *Float32) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"NaN"`:
		*f = Float32(math.NaN())
		return nil
	case `"+Inf"`:
		*f = Float32(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = Float32(math.Inf(-1))
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 32)
	if err != nil {
		return err
	}
	*f = Float32(v)
	return nil
}

// Slice converts vals for encoding.
func Slice(vals []float32) []Float32 {
	out := make([]Float32, len(vals))
	for i, v := range vals {
		out[i] = Float32(v)
	}
	return out
}
