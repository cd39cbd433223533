package wazero

import (
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
)

func isNumeric(t api.ValueType) bool {
	switch t {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		return true
	}
	return false
}

// encode converts a number into the raw stack value of type t. Integer
// types only accept whole numbers within range.
func encode(t api.ValueType, v float64) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %v as i32", ErrValueOutOfRange, v)
		}
		return api.EncodeI32(int32(v)), nil
	case api.ValueTypeI64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v as i64", ErrValueOutOfRange, v)
		}
		return api.EncodeI64(int64(v)), nil
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v)), nil
	case api.ValueTypeF64:
		return api.EncodeF64(v), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrValueOutOfRange, api.ValueTypeName(t))
}

func decode(t api.ValueType, raw uint64) float64 {
	switch t {
	case api.ValueTypeI32:
		return float64(api.DecodeI32(raw))
	case api.ValueTypeI64:
		return float64(int64(raw))
	case api.ValueTypeF32:
		return float64(api.DecodeF32(raw))
	default:
		return api.DecodeF64(raw)
	}
}
