package shapes

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
)

// RankedTensorType is a value-semantics shaped type with a known rank, e.g.: `tensor<4x?xf32>`.
// It may carry an encoding attribute (e.g. a sparse layout description).
type RankedTensorType struct {
	rankedShape
	elementType Type
	encoding    Attribute
}

var _ ShapedType = (*RankedTensorType)(nil)

// NewRankedTensor creates a ranked tensor type. The encoding is optional (nil).
// It returns a construction error for an invalid element type or invalid dimensions.
func NewRankedTensor(elementType Type, shape []int64, encoding Attribute) (*RankedTensorType, error) {
	if err := validateElementType(elementType, false); err != nil {
		return nil, err
	}
	rs, err := newRankedShape(shape)
	if err != nil {
		return nil, err
	}
	return &RankedTensorType{rankedShape: rs, elementType: elementType, encoding: encoding}, nil
}

// Tensor returns a ranked tensor type with the given dimensions (DimDynamic for dynamic ones).
// It panics on invalid arguments, see NewRankedTensor for a version that returns an error.
func Tensor(elementType Type, dims ...int64) *RankedTensorType {
	t, err := NewRankedTensor(elementType, dims, nil)
	if err != nil {
		exceptions.Panicf("shapes.Tensor(%s, %v): %+v", Describe(elementType), FormatDims(dims), err)
	}
	return t
}

// ElementType implements ShapedType.
func (t *RankedTensorType) ElementType() Type { return t.elementType }

// Encoding returns the optional encoding attribute, or nil.
func (t *RankedTensorType) Encoding() Attribute { return t.encoding }

// CloneWith implements ShapedType.
func (t *RankedTensorType) CloneWith(shape []int64, elementType Type) (ShapedType, error) {
	if shape == nil {
		shape = t.dims
	}
	if elementType == nil {
		elementType = t.elementType
	}
	return NewRankedTensor(elementType, shape, t.encoding)
}

// EqualType implements ShapedType.
func (t *RankedTensorType) EqualType(other Type) bool {
	o, ok := other.(*RankedTensorType)
	if !ok {
		return false
	}
	if t == o {
		return true
	}
	return slices.Equal(t.dims, o.dims) && TypesEqual(t.elementType, o.elementType) &&
		AttributesEqual(t.encoding, o.encoding)
}

// ToMLIR implements Type.
func (t *RankedTensorType) ToMLIR() string { return toMLIR(t) }

// String implements fmt.Stringer.
func (t *RankedTensorType) String() string { return t.ToMLIR() }

func (t *RankedTensorType) isShapedType() {}

// UnrankedTensorType is a tensor type of unknown rank, e.g.: `tensor<*xf32>`.
type UnrankedTensorType struct {
	elementType Type
}

var _ ShapedType = (*UnrankedTensorType)(nil)

// NewUnrankedTensor creates an unranked tensor type.
func NewUnrankedTensor(elementType Type) (*UnrankedTensorType, error) {
	if err := validateElementType(elementType, false); err != nil {
		return nil, err
	}
	return &UnrankedTensorType{elementType: elementType}, nil
}

// ElementType implements ShapedType.
func (t *UnrankedTensorType) ElementType() Type { return t.elementType }

// HasRank implements ShapedType.
func (t *UnrankedTensorType) HasRank() bool { return false }

// Rank implements ShapedType. It is always -1.
func (t *UnrankedTensorType) Rank() int { return -1 }

// Shape implements ShapedType. It is always nil.
func (t *UnrankedTensorType) Shape() []int64 { return nil }

// IsDynamicDim implements ShapedType. It is always true.
func (t *UnrankedTensorType) IsDynamicDim(int) bool { return true }

// NumDynamicDims implements ShapedType. It is always 0.
func (t *UnrankedTensorType) NumDynamicDims() int { return 0 }

// HasStaticShape implements ShapedType. It is always false.
func (t *UnrankedTensorType) HasStaticShape() bool { return false }

// DynamicDimIndex implements ShapedType. It always returns a precondition error.
func (t *UnrankedTensorType) DynamicDimIndex(axis int) (int, error) {
	return 0, irerrors.Preconditionf("DynamicDimIndex(%d) on unranked type %s", axis, t.ToMLIR())
}

// CloneWith implements ShapedType. With a non-nil shape it returns a *RankedTensorType.
func (t *UnrankedTensorType) CloneWith(shape []int64, elementType Type) (ShapedType, error) {
	if elementType == nil {
		elementType = t.elementType
	}
	if shape != nil {
		return NewRankedTensor(elementType, shape, nil)
	}
	return NewUnrankedTensor(elementType)
}

// EqualType implements ShapedType.
func (t *UnrankedTensorType) EqualType(other Type) bool {
	o, ok := other.(*UnrankedTensorType)
	return ok && TypesEqual(t.elementType, o.elementType)
}

// ToMLIR implements Type.
func (t *UnrankedTensorType) ToMLIR() string { return toMLIR(t) }

// String implements fmt.Stringer.
func (t *UnrankedTensorType) String() string { return t.ToMLIR() }

func (t *UnrankedTensorType) isShapedType() {}
