package dtypes

import (
	"fmt"

	"github.com/pkg/errors"
)

// ToMLIR returns the textual IR name of the DType.
func (dtype DType) ToMLIR() string {
	switch dtype {
	case Float64:
		return "f64"
	case Float32:
		return "f32"
	case Float16:
		return "f16"
	case BFloat16:
		return "bf16"
	case Int64:
		return "i64"
	case Int32:
		return "i32"
	case Int16:
		return "i16"
	case Int8:
		return "i8"
	case Uint64:
		return "ui64"
	case Uint32:
		return "ui32"
	case Uint16:
		return "ui16"
	case Uint8:
		return "ui8"
	case Bool:
		return "i1"
	case Complex64:
		return "complex<f32>"
	case Complex128:
		return "complex<f64>"
	case Index:
		return "index"
	default:
		return fmt.Sprintf("unknown_dtype<%s>", dtype.String())
	}
}

var mlirNameToDType map[string]DType

func init() {
	mlirNameToDType = make(map[string]DType, len(DTypeValues()))
	for _, dtype := range DTypeValues() {
		if dtype == InvalidDType {
			continue
		}
		mlirNameToDType[dtype.ToMLIR()] = dtype
	}
}

// FromMLIR parses the textual IR name of a DType (e.g.: "f32", "index", "ui8").
func FromMLIR(name string) (DType, error) {
	dtype, found := mlirNameToDType[name]
	if !found {
		return InvalidDType, errors.Errorf("unknown dtype name %q", name)
	}
	return dtype, nil
}
