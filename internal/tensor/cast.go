package tensor

import (
	"fmt"
	"math"
)

// Word returns the 32-bit storage word for a value of any storage type.
// Bool values map to 0 or 1.
func Word[T StorageType](v T) uint32 {
	switch x := any(v).(type) {
	case float32:
		return math.Float32bits(x)
	case uint32:
		return x
	case int32:
		return uint32(x) //nolint:gosec // two's complement reinterpretation is intended
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("word: unsupported type %T", v))
	}
}

// CastWord converts a single storage word from one data type to another.
//
// Float to integer conversions truncate toward zero and saturate at the
// bounds of the target type, with NaN mapping to 0, as WGSL u32() and i32()
// do. Integer conversions reinterpret the word. Numeric to bool is
// "non-zero", and bool to numeric maps false and true to 0 and 1.
func CastWord(w uint32, from, to DataType) uint32 {
	if from == to {
		return w
	}
	switch from {
	case Float32:
		f := math.Float32frombits(w)
		switch to {
		case Uint32:
			return SaturateUint32(float64(f))
		case Int32:
			return uint32(SaturateInt32(float64(f))) //nolint:gosec // reinterpretation
		case Bool:
			return boolWord(f != 0)
		}
	case Uint32:
		switch to {
		case Float32:
			return math.Float32bits(float32(w))
		case Int32:
			return w
		case Bool:
			return boolWord(w != 0)
		}
	case Int32:
		i := int32(w) //nolint:gosec // reinterpretation
		switch to {
		case Float32:
			return math.Float32bits(float32(i))
		case Uint32:
			return w
		case Bool:
			return boolWord(i != 0)
		}
	case Bool:
		switch to {
		case Float32:
			if w != 0 {
				return math.Float32bits(1)
			}
			return math.Float32bits(0)
		case Uint32, Int32:
			return boolWord(w != 0)
		}
	}
	panic(fmt.Sprintf("cast: unsupported conversion %s -> %s", from, to))
}

// SaturateUint32 converts f to uint32, truncating toward zero and clamping
// to [0, MaxUint32]. NaN converts to 0.
func SaturateUint32(f float64) uint32 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(f)
	}
}

// SaturateInt32 converts f to int32, truncating toward zero and clamping to
// [MinInt32, MaxInt32]. NaN converts to 0.
func SaturateInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f <= math.MinInt32:
		return math.MinInt32
	case f >= math.MaxInt32:
		return math.MaxInt32
	default:
		return int32(f)
	}
}

// FromFloat converts a float64 to T with the same rules as CastWord.
func FromFloat[T IOType](f float64) T {
	var zero T
	switch any(zero).(type) {
	case uint32:
		return T(SaturateUint32(f))
	case int32:
		return T(SaturateInt32(f))
	default:
		return T(f)
	}
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Value decodes a storage word into the Go value of the data type: float32,
// uint32, int32 or bool.
func Value(w uint32, dt DataType) any {
	switch dt {
	case Float32:
		return math.Float32frombits(w)
	case Uint32:
		return w
	case Int32:
		return int32(w) //nolint:gosec // reinterpretation
	case Bool:
		return w != 0
	default:
		panic(fmt.Sprintf("value: unknown data type %d", dt))
	}
}
