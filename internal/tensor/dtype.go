// Package tensor provides the element types, shapes and host buffer helpers
// shared by the Tengu graph and its backends.
package tensor

// IOType is a constraint for element types that can be moved between host
// memory and a backend.
type IOType interface {
	~float32 | ~uint32 | ~int32
}

// StorageType is a constraint for element types a backend can store.
// Booleans are storable but reach the host as uint32 words.
type StorageType interface {
	IOType | ~bool
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Uint32
	Int32
	Bool
)

// Size returns the byte size of one element of the data type.
// Every supported type occupies a 32-bit word, including Bool.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Uint32, Int32, Bool:
		return 4
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// WGSL returns the shader type name used in storage declarations and casts.
func (dt DataType) WGSL() string {
	switch dt {
	case Float32:
		return "f32"
	case Uint32:
		return "u32"
	case Int32:
		return "i32"
	case Bool:
		return "bool"
	default:
		panic("unknown data type")
	}
}

// Host returns the data type used when the value crosses into host memory.
func (dt DataType) Host() DataType {
	if dt == Bool {
		return Uint32
	}
	return dt
}

// IsFloat reports whether the data type is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32
}

// Of returns the DataType corresponding to the type parameter T.
func Of[T StorageType]() DataType {
	var zero T
	return inferDataType(zero)
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T StorageType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case uint32:
		return Uint32
	case int32:
		return Int32
	case bool:
		return Bool
	default:
		panic("unsupported type")
	}
}
