// Package dtypes defines the scalar element types of shaped values, including the target-sized `index` type.
package dtypes

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// DType is a scalar element type.
//
// It implements shapes.Type, so a DType can be used anywhere a type is expected.
type DType int

//go:generate go tool enumer -type=DType -output=dtype_enum.go dtypes.go

const (
	// InvalidDType is the zero value and represents "no type".
	InvalidDType DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float16
	BFloat16
	Float32
	Float64
	Complex64
	Complex128

	// Index is the target-sized integer used for dimensions, offsets and loop induction variables.
	Index
)

// Ok returns whether the dtype is valid.
func (dtype DType) Ok() bool {
	return dtype != InvalidDType && dtype.IsADType()
}

// IsInt returns whether dtype is a signed or unsigned integer. Index is not included.
func (dtype DType) IsInt() bool {
	switch dtype {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	default:
		return false
	}
}

// IsUnsigned returns whether dtype is an unsigned integer.
func (dtype DType) IsUnsigned() bool {
	switch dtype {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	default:
		return false
	}
}

// IsFloat returns whether dtype is a floating point type (not complex).
func (dtype DType) IsFloat() bool {
	switch dtype {
	case Float16, BFloat16, Float32, Float64:
		return true
	default:
		return false
	}
}

// IsComplex returns whether dtype is a complex type.
func (dtype DType) IsComplex() bool {
	return dtype == Complex64 || dtype == Complex128
}

// IsIndex returns whether dtype is the index type.
func (dtype DType) IsIndex() bool {
	return dtype == Index
}

// IsNumeric returns whether dtype holds numbers: integers, floats, complex or index.
func (dtype DType) IsNumeric() bool {
	return dtype.IsInt() || dtype.IsFloat() || dtype.IsComplex() || dtype.IsIndex()
}

// Bits returns the number of bits used by one element. Index is assumed to be 64 bits wide.
func (dtype DType) Bits() int {
	switch dtype {
	case Bool:
		return 1
	case Int8, Uint8:
		return 8
	case Int16, Uint16, Float16, BFloat16:
		return 16
	case Int32, Uint32, Float32:
		return 32
	case Int64, Uint64, Float64, Complex64, Index:
		return 64
	case Complex128:
		return 128
	default:
		return 0
	}
}

// Memory returns the number of bytes used to store one element. Bool uses one byte.
func (dtype DType) Memory() uintptr {
	if dtype == Bool {
		return 1
	}
	return uintptr(dtype.Bits() / 8)
}

var goTypeToDType = map[reflect.Type]DType{
	reflect.TypeOf(false):              Bool,
	reflect.TypeOf(int8(0)):            Int8,
	reflect.TypeOf(int16(0)):           Int16,
	reflect.TypeOf(int32(0)):           Int32,
	reflect.TypeOf(int64(0)):           Int64,
	reflect.TypeOf(uint8(0)):           Uint8,
	reflect.TypeOf(uint16(0)):          Uint16,
	reflect.TypeOf(uint32(0)):          Uint32,
	reflect.TypeOf(uint64(0)):          Uint64,
	reflect.TypeOf(float16.Float16(0)): Float16,
	reflect.TypeOf(float32(0)):         Float32,
	reflect.TypeOf(float64(0)):         Float64,
	reflect.TypeOf(complex64(0)):       Complex64,
	reflect.TypeOf(complex128(0)):      Complex128,
	reflect.TypeOf(int(0)):             Index,
}

// FromAny returns the DType of the given Go scalar value.
// A Go `int` maps to Index, and float16.Float16 maps to Float16.
func FromAny(value any) (DType, error) {
	if value == nil {
		return InvalidDType, errors.New("dtypes.FromAny(nil): no dtype for nil value")
	}
	dtype, found := goTypeToDType[reflect.TypeOf(value)]
	if !found {
		return InvalidDType, errors.Errorf("dtypes.FromAny(%T): Go type has no corresponding dtype", value)
	}
	return dtype, nil
}
