package shapes

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
)

// MemRefType is a buffer type of known rank, e.g.: `memref<4x?xf32, affine_map<(d0, d1) -> (d1, d0)>, 1>`.
//
// The layout is optional, and an identity layout is normalized away: a memref with an explicit identity
// layout is the same type as one without layout. The same holds for the default memory space (integer 0).
type MemRefType struct {
	rankedShape
	elementType Type
	layout      Layout
	memorySpace Attribute
}

var _ ShapedType = (*MemRefType)(nil)

// NewMemRef creates a memref type. Both layout and memorySpace are optional (nil).
//
// It returns a construction error for an invalid element type, invalid dimensions, or if the layout
// domain rank doesn't match the rank of the shape.
func NewMemRef(elementType Type, shape []int64, layout Layout, memorySpace Attribute) (*MemRefType, error) {
	if err := validateElementType(elementType, true); err != nil {
		return nil, err
	}
	rs, err := newRankedShape(shape)
	if err != nil {
		return nil, err
	}
	if layout != nil {
		if layout.NumDims() != len(shape) {
			return nil, irerrors.Constructionf("memref layout %s takes %d dims, but memref has rank %d",
				layout.ToMLIR(), layout.NumDims(), len(shape))
		}
		if layout.IsIdentity() {
			layout = nil
		}
	}
	return &MemRefType{
		rankedShape: rs,
		elementType: elementType,
		layout:      layout,
		memorySpace: normalizeMemorySpace(memorySpace),
	}, nil
}

// MemRef returns a memref type with identity layout and default memory space.
// It panics on invalid arguments, see NewMemRef for a version that returns an error.
func MemRef(elementType Type, dims ...int64) *MemRefType {
	m, err := NewMemRef(elementType, dims, nil, nil)
	if err != nil {
		exceptions.Panicf("shapes.MemRef(%s, %v): %+v", Describe(elementType), FormatDims(dims), err)
	}
	return m
}

// ElementType implements ShapedType.
func (m *MemRefType) ElementType() Type { return m.elementType }

// Layout returns the layout, or nil for the identity layout.
func (m *MemRefType) Layout() Layout { return m.layout }

// MemorySpace returns the memory space, or nil for the default one.
func (m *MemRefType) MemorySpace() Attribute { return m.memorySpace }

// CloneWith implements ShapedType. The layout and memory space are preserved, so the new shape must have
// the rank of the layout, if there is one.
func (m *MemRefType) CloneWith(shape []int64, elementType Type) (ShapedType, error) {
	if shape == nil {
		shape = m.dims
	}
	if elementType == nil {
		elementType = m.elementType
	}
	return NewMemRef(elementType, shape, m.layout, m.memorySpace)
}

// EqualType implements ShapedType.
func (m *MemRefType) EqualType(other Type) bool {
	o, ok := other.(*MemRefType)
	if !ok {
		return false
	}
	if m == o {
		return true
	}
	return slices.Equal(m.dims, o.dims) && TypesEqual(m.elementType, o.elementType) &&
		LayoutsEqual(m.layout, o.layout) && AttributesEqual(m.memorySpace, o.memorySpace)
}

// ToMLIR implements Type.
func (m *MemRefType) ToMLIR() string { return toMLIR(m) }

// String implements fmt.Stringer.
func (m *MemRefType) String() string { return m.ToMLIR() }

func (m *MemRefType) isShapedType() {}

// UnrankedMemRefType is a buffer type of unknown rank, e.g.: `memref<*xf32, 2>`.
type UnrankedMemRefType struct {
	elementType Type
	memorySpace Attribute
}

var _ ShapedType = (*UnrankedMemRefType)(nil)

// NewUnrankedMemRef creates an unranked memref type. memorySpace is optional (nil).
func NewUnrankedMemRef(elementType Type, memorySpace Attribute) (*UnrankedMemRefType, error) {
	if err := validateElementType(elementType, true); err != nil {
		return nil, err
	}
	return &UnrankedMemRefType{elementType: elementType, memorySpace: normalizeMemorySpace(memorySpace)}, nil
}

// ElementType implements ShapedType.
func (m *UnrankedMemRefType) ElementType() Type { return m.elementType }

// MemorySpace returns the memory space, or nil for the default one.
func (m *UnrankedMemRefType) MemorySpace() Attribute { return m.memorySpace }

// HasRank implements ShapedType.
func (m *UnrankedMemRefType) HasRank() bool { return false }

// Rank implements ShapedType. It is always -1.
func (m *UnrankedMemRefType) Rank() int { return -1 }

// Shape implements ShapedType. It is always nil.
func (m *UnrankedMemRefType) Shape() []int64 { return nil }

// IsDynamicDim implements ShapedType. It is always true.
func (m *UnrankedMemRefType) IsDynamicDim(int) bool { return true }

// NumDynamicDims implements ShapedType. It is always 0.
func (m *UnrankedMemRefType) NumDynamicDims() int { return 0 }

// HasStaticShape implements ShapedType. It is always false.
func (m *UnrankedMemRefType) HasStaticShape() bool { return false }

// DynamicDimIndex implements ShapedType. It always returns a precondition error.
func (m *UnrankedMemRefType) DynamicDimIndex(axis int) (int, error) {
	return 0, irerrors.Preconditionf("DynamicDimIndex(%d) on unranked type %s", axis, m.ToMLIR())
}

// CloneWith implements ShapedType. With a non-nil shape it returns a *MemRefType in the same memory space.
func (m *UnrankedMemRefType) CloneWith(shape []int64, elementType Type) (ShapedType, error) {
	if elementType == nil {
		elementType = m.elementType
	}
	if shape != nil {
		return NewMemRef(elementType, shape, nil, m.memorySpace)
	}
	return NewUnrankedMemRef(elementType, m.memorySpace)
}

// EqualType implements ShapedType.
func (m *UnrankedMemRefType) EqualType(other Type) bool {
	o, ok := other.(*UnrankedMemRefType)
	return ok && TypesEqual(m.elementType, o.elementType) && AttributesEqual(m.memorySpace, o.memorySpace)
}

// ToMLIR implements Type.
func (m *UnrankedMemRefType) ToMLIR() string { return toMLIR(m) }

// String implements fmt.Stringer.
func (m *UnrankedMemRefType) String() string { return m.ToMLIR() }

func (m *UnrankedMemRefType) isShapedType() {}

// IsBuffer returns whether t is a memref (ranked or not), as opposed to a value-semantics type.
func IsBuffer(t Type) bool {
	switch t.(type) {
	case *MemRefType, *UnrankedMemRefType:
		return true
	default:
		return false
	}
}

// IsTensor returns whether t is a tensor (ranked or not).
func IsTensor(t Type) bool {
	switch t.(type) {
	case *RankedTensorType, *UnrankedTensorType:
		return true
	default:
		return false
	}
}
