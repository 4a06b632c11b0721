// Package shapes defines the types of shaped values: ranked and unranked tensors, ranked and unranked
// memrefs (buffers) and vectors.
//
// All of them implement the closed ShapedType interface, that answers the shared shape queries: rank,
// dimensions, element type and whether a dimension is dynamic.
//
// A shape is a sequence of dimensions, one per axis. Each dimension is either a known non-negative
// integer or DimDynamic, meaning the size is only known at run time, where it is carried by a runtime
// value (see package mixed). A dimension of 0 is legal and static.
//
// Types are immutable values: constructors copy their inputs, accessors return copies, and
// "modified" types are new instances created with ShapedType.CloneWith. Equality is by value, never
// by identity -- use TypesEqual.
//
// ## Glossary
//
//   - Rank: number of axes of a ranked shaped type. Unranked types report rank -1.
//   - Axis: the index of a dimension.
//   - Dimension: the size of a shaped type along one axis, or DimDynamic.
//   - Element type: the type of each element, usually a dtypes.DType.
package shapes

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/pkg/errors"
)

// DimDynamic marks a dimension (or any other static/dynamic parameter) whose value is only known at run time.
const DimDynamic int64 = math.MinInt64

// IsDynamic returns whether dim is the DimDynamic marker.
func IsDynamic(dim int64) bool {
	return dim == DimDynamic
}

// Type is any type of the IR: a dtypes.DType, a shaped type, or a custom element type.
type Type interface {
	// ToMLIR returns the textual representation of the type.
	ToMLIR() string
}

// typeEqualer is implemented by types that are not comparable with "==".
type typeEqualer interface {
	EqualType(other Type) bool
}

// TypesEqual returns whether a and b are the same type.
// It compares values, so two separately constructed types with the same fields are equal.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(typeEqualer); ok {
		return eq.EqualType(b)
	}
	if eq, ok := b.(typeEqualer); ok {
		return eq.EqualType(a)
	}
	if dtypeA, ok := a.(dtypes.DType); ok {
		dtypeB, ok := b.(dtypes.DType)
		return ok && dtypeA == dtypeB
	}
	return a.ToMLIR() == b.ToMLIR()
}

// ElementTypeCapable is a marker for custom types that can be used as element types of tensors and memrefs.
type ElementTypeCapable interface {
	Type
	IsElementTypeCapable()
}

// ShapedType is implemented by the closed set of shaped types:
// *RankedTensorType, *UnrankedTensorType, *MemRefType, *UnrankedMemRefType and *VectorType.
type ShapedType interface {
	Type

	// ElementType of the shaped value.
	ElementType() Type

	// HasRank returns false for the unranked variants.
	HasRank() bool

	// Rank returns the number of axes, or -1 if unranked.
	Rank() int

	// Shape returns a copy of the dimensions, or nil if unranked.
	Shape() []int64

	// IsDynamicDim returns whether the dimension of the given axis is DimDynamic.
	// It is always true for unranked types.
	IsDynamicDim(axis int) bool

	// NumDynamicDims returns the number of dynamic dimensions. It is 0 for unranked types.
	NumDynamicDims() int

	// HasStaticShape returns whether the type is ranked and has no dynamic dimensions.
	HasStaticShape() bool

	// DynamicDimIndex returns the number of dynamic dimensions before axis, that is, the position
	// of the runtime value that carries the size of axis.
	// It returns a precondition error if axis is static, out-of-range, or the type is unranked.
	DynamicDimIndex(axis int) (int, error)

	// CloneWith returns a new type with the shape and/or element type replaced, and every other field preserved.
	// A nil shape or nil elementType keeps the current one.
	// Cloning an unranked type with a shape returns the corresponding ranked type.
	CloneWith(shape []int64, elementType Type) (ShapedType, error)

	// EqualType returns whether other is the same type.
	EqualType(other Type) bool

	isShapedType()
}

// rankedShape implements the shape queries shared by all ranked types.
type rankedShape struct {
	dims []int64
}

func newRankedShape(dims []int64) (rankedShape, error) {
	for axis, dim := range dims {
		if dim < 0 && dim != DimDynamic {
			return rankedShape{}, irerrors.Constructionf("invalid dimension %d for axis %d in shape %s: dimensions must be >= 0 or dynamic",
				dim, axis, FormatDims(dims))
		}
	}
	return rankedShape{dims: slices.Clone(dims)}, nil
}

// HasRank implements ShapedType.
func (s rankedShape) HasRank() bool { return true }

// Rank implements ShapedType.
func (s rankedShape) Rank() int { return len(s.dims) }

// Shape implements ShapedType.
func (s rankedShape) Shape() []int64 {
	if s.dims == nil {
		return []int64{}
	}
	return slices.Clone(s.dims)
}

// Dim returns the dimension of axis, which may be DimDynamic.
// axis can be negative, in which case it counts from the end.
// It returns a precondition error for an out-of-range axis.
func (s rankedShape) Dim(axis int) (int64, error) {
	adjusted := axis
	if adjusted < 0 {
		adjusted += len(s.dims)
	}
	if adjusted < 0 || adjusted >= len(s.dims) {
		return 0, irerrors.Preconditionf("axis %d out-of-range for shape %s", axis, FormatDims(s.dims))
	}
	return s.dims[adjusted], nil
}

// IsDynamicDim implements ShapedType.
func (s rankedShape) IsDynamicDim(axis int) bool {
	if axis < 0 || axis >= len(s.dims) {
		return false
	}
	return s.dims[axis] == DimDynamic
}

// NumDynamicDims implements ShapedType.
func (s rankedShape) NumDynamicDims() int {
	count := 0
	for _, dim := range s.dims {
		if dim == DimDynamic {
			count++
		}
	}
	return count
}

// HasStaticShape implements ShapedType.
func (s rankedShape) HasStaticShape() bool {
	return s.NumDynamicDims() == 0
}

// DynamicDimIndex implements ShapedType.
func (s rankedShape) DynamicDimIndex(axis int) (int, error) {
	if axis < 0 || axis >= len(s.dims) {
		return 0, irerrors.Preconditionf("axis %d out-of-range for shape %s", axis, FormatDims(s.dims))
	}
	if s.dims[axis] != DimDynamic {
		return 0, irerrors.Preconditionf("axis %d of shape %s is static (%d), it has no dynamic size value",
			axis, FormatDims(s.dims), s.dims[axis])
	}
	count := 0
	for _, dim := range s.dims[:axis] {
		if dim == DimDynamic {
			count++
		}
	}
	return count, nil
}

// NumElements returns the number of elements of a static shape. It returns false if any dimension is dynamic.
func (s rankedShape) NumElements() (int64, bool) {
	size := int64(1)
	for _, dim := range s.dims {
		if dim == DimDynamic {
			return 0, false
		}
		size *= dim
	}
	return size, true
}

// validateElementType checks elem can be used as the element type of a tensor (forMemRef=false) or of a memref.
func validateElementType(elem Type, forMemRef bool) error {
	switch e := elem.(type) {
	case nil:
		return irerrors.Constructionf("missing element type")
	case dtypes.DType:
		if !e.Ok() {
			return irerrors.Constructionf("invalid element dtype %s", e)
		}
		return nil
	case *VectorType:
		return nil
	case *MemRefType, *UnrankedMemRefType:
		if forMemRef {
			return nil
		}
	case ElementTypeCapable:
		return nil
	}
	kind := "tensor"
	if forMemRef {
		kind = "memref"
	}
	return irerrors.Constructionf("invalid %s element type %s", kind, elem.ToMLIR())
}

// FormatDims returns the dimensions in the textual "1x?x3" format. A scalar shape is an empty string.
func FormatDims(dims []int64) string {
	parts := make([]string, len(dims))
	for i, dim := range dims {
		if dim == DimDynamic {
			parts[i] = "?"
		} else {
			parts[i] = strconv.FormatInt(dim, 10)
		}
	}
	return strings.Join(parts, "x")
}

// ParseDims parses dimensions in the "1x?x3" format, where "?" stands for DimDynamic.
// An empty string is parsed as a scalar (no dimensions).
func ParseDims(text string) ([]int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []int64{}, nil
	}
	parts := strings.Split(text, "x")
	dims := make([]int64, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "?" {
			dims[i] = DimDynamic
			continue
		}
		dim, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse dimension #%d (%q) of %q", i, part, text)
		}
		if dim < 0 {
			return nil, errors.Errorf("negative dimension %d in %q", dim, text)
		}
		dims[i] = dim
	}
	return dims, nil
}

// Describe returns the textual form of t for error messages; it handles nil types.
func Describe(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.ToMLIR()
}
