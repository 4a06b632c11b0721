package shapes

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
)

// VectorType is a fixed-size shaped type of scalars, e.g.: `vector<4x[8]xf32>`.
//
// All dimensions are static and positive. The trailing NumScalableDims dimensions are scalable: their
// runtime size is a multiple of the given one.
type VectorType struct {
	rankedShape
	elementType     dtypes.DType
	numScalableDims int
}

var _ ShapedType = (*VectorType)(nil)

// NewVector creates a vector type. The element type must be an integer, float or index scalar.
func NewVector(elementType Type, shape []int64, numScalableDims int) (*VectorType, error) {
	dtype, ok := elementType.(dtypes.DType)
	if !ok || !(dtype.IsInt() || dtype.IsFloat() || dtype.IsIndex()) {
		return nil, irerrors.Constructionf("invalid vector element type %s: it must be an integer, float or index",
			Describe(elementType))
	}
	if len(shape) == 0 {
		return nil, irerrors.Constructionf("vector types must have at least one dimension")
	}
	for axis, dim := range shape {
		if dim <= 0 {
			return nil, irerrors.Constructionf("vector dimensions must be static and positive, got %s for axis %d",
				FormatDims([]int64{dim}), axis)
		}
	}
	if numScalableDims < 0 || numScalableDims > len(shape) {
		return nil, irerrors.Constructionf("invalid number of scalable dims %d for vector of rank %d", numScalableDims, len(shape))
	}
	return &VectorType{
		rankedShape:     rankedShape{dims: slices.Clone(shape)},
		elementType:     dtype,
		numScalableDims: numScalableDims,
	}, nil
}

// Vector returns a vector type with no scalable dimensions.
// It panics on invalid arguments, see NewVector for a version that returns an error.
func Vector(elementType Type, dims ...int64) *VectorType {
	v, err := NewVector(elementType, dims, 0)
	if err != nil {
		exceptions.Panicf("shapes.Vector(%s, %v): %+v", Describe(elementType), FormatDims(dims), err)
	}
	return v
}

// ElementType implements ShapedType.
func (v *VectorType) ElementType() Type { return v.elementType }

// NumScalableDims returns the number of trailing scalable dimensions.
func (v *VectorType) NumScalableDims() int { return v.numScalableDims }

// IsScalable returns whether the vector has any scalable dimension.
func (v *VectorType) IsScalable() bool { return v.numScalableDims > 0 }

// CloneWith implements ShapedType. The number of scalable dimensions is preserved.
func (v *VectorType) CloneWith(shape []int64, elementType Type) (ShapedType, error) {
	if shape == nil {
		shape = v.dims
	}
	if elementType == nil {
		elementType = v.elementType
	}
	return NewVector(elementType, shape, v.numScalableDims)
}

// EqualType implements ShapedType.
func (v *VectorType) EqualType(other Type) bool {
	o, ok := other.(*VectorType)
	if !ok {
		return false
	}
	return v.elementType == o.elementType && v.numScalableDims == o.numScalableDims && slices.Equal(v.dims, o.dims)
}

// ToMLIR implements Type.
func (v *VectorType) ToMLIR() string { return toMLIR(v) }

// String implements fmt.Stringer.
func (v *VectorType) String() string { return v.ToMLIR() }

func (v *VectorType) isShapedType() {}
