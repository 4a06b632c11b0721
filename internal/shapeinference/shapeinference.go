// Package shapeinference calculates the types resulting from structured operations and validates their inputs.
//
// The functions are pure: they take types and static attributes, and never look at runtime values, which are
// represented only by the shapes.DimDynamic markers in the static lists.
package shapeinference

import (
	"math"

	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/internal/utils"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
)

var (
	// RegionIndexedOperations are the operations whose region bodies can query the iteration index
	// with a linalg.index operation.
	RegionIndexedOperations = utils.SetWith(
		optypes.PadTensor,
		optypes.TiledLoop,
	)

	// YieldingOperations are the operations whose region bodies are terminated by a linalg.yield.
	YieldingOperations = utils.SetWith(
		optypes.PadTensor,
		optypes.TiledLoop,
	)
)

func countDynamic(static []int64) int {
	count := 0
	for _, dim := range static {
		if dim == shapes.DimDynamic {
			count++
		}
	}
	return count
}

// InitTensor returns the type of a materialized tensor with the given static sizes, where shapes.DimDynamic
// marks the sizes given by one of the numDynamic runtime operands.
func InitTensor(staticSizes []int64, numDynamic int, elem shapes.Type) (*shapes.RankedTensorType, error) {
	if got := countDynamic(staticSizes); got != numDynamic {
		return nil, irerrors.Constructionf("InitTensor: sizes %s have %d dynamic entries, but %d runtime sizes were given",
			shapes.FormatDims(staticSizes), got, numDynamic)
	}
	for axis, dim := range staticSizes {
		if dim < 0 && dim != shapes.DimDynamic {
			return nil, irerrors.Constructionf("InitTensor: invalid negative size %d for axis %d", dim, axis)
		}
	}
	output, err := shapes.NewRankedTensor(elem, staticSizes, nil)
	if err != nil {
		return nil, irerrors.Constructionf("InitTensor: %v", err)
	}
	return output, nil
}

// Alloc validates the number of runtime sizes given to allocate a buffer of the given type.
func Alloc(memref shapes.ShapedType, numDynamic int) error {
	buffer, ok := memref.(*shapes.MemRefType)
	if !ok {
		return irerrors.Constructionf("Alloc: can only allocate ranked memrefs, got %s", shapes.Describe(memref))
	}
	if buffer.NumDynamicDims() != numDynamic {
		return irerrors.Constructionf("Alloc: %s has %d dynamic dimensions, but %d runtime sizes were given",
			shapes.Describe(buffer), buffer.NumDynamicDims(), numDynamic)
	}
	return nil
}

// Pad returns the type of padding the source with the static low/high amounts, where shapes.DimDynamic
// marks the amounts given by runtime operands.
//
// For each axis, if the source dimension and both amounts are static, the result dimension is their sum.
// Otherwise, the result dimension is dynamic, unless hint (if not nil) gives a static value for it.
// The hint is never consulted for dimensions that can be resolved locally.
//
// Any dimension touched by a runtime amount is dynamic: no symbolic reasoning is attempted, even if the
// same runtime value appears on both sides.
func Pad(source shapes.ShapedType, staticLow, staticHigh []int64, hint []int64) (*shapes.RankedTensorType, error) {
	tensor, ok := source.(*shapes.RankedTensorType)
	if !ok {
		return nil, irerrors.Constructionf("Pad: source must be a ranked tensor, got %s", shapes.Describe(source))
	}
	rank := tensor.Rank()
	if len(staticLow) != rank || len(staticHigh) != rank {
		return nil, irerrors.Constructionf("Pad: number of low (%d) and high (%d) padding values must match source rank %d",
			len(staticLow), len(staticHigh), rank)
	}
	if hint != nil && len(hint) != rank {
		return nil, irerrors.Constructionf("Pad: result shape hint %s must have the source rank %d",
			shapes.FormatDims(hint), rank)
	}
	for axis := range rank {
		if (staticLow[axis] < 0 && staticLow[axis] != shapes.DimDynamic) ||
			(staticHigh[axis] < 0 && staticHigh[axis] != shapes.DimDynamic) {
			return nil, irerrors.Constructionf("Pad: padding must be non-negative, got low=%d, high=%d for axis %d",
				staticLow[axis], staticHigh[axis], axis)
		}
	}

	sourceDims := tensor.Shape()
	outputDims := make([]int64, rank)
	for axis := range rank {
		low, high, dim := staticLow[axis], staticHigh[axis], sourceDims[axis]
		if low == shapes.DimDynamic || high == shapes.DimDynamic || dim == shapes.DimDynamic {
			outputDims[axis] = shapes.DimDynamic
			if hint != nil {
				outputDims[axis] = hint[axis]
			}
			continue
		}
		if low > math.MaxInt64-dim || high > math.MaxInt64-dim-low {
			return nil, irerrors.Constructionf("Pad: dimension of axis %d overflows: %d+%d+%d", axis, low, dim, high)
		}
		outputDims[axis] = low + dim + high
	}
	output, err := shapes.NewRankedTensor(tensor.ElementType(), outputDims, nil)
	if err != nil {
		return nil, irerrors.Constructionf("Pad: %v", err)
	}
	return output, nil
}

// DimsCompatible returns whether two lists of dimensions could describe the same shape: they have the same
// length and each pair of dimensions is either equal or at least one of them is dynamic.
func DimsCompatible(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == shapes.DimDynamic || b[i] == shapes.DimDynamic {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TiledLoop validates the operand types of a tiled loop, and returns the types of its results: one per
// tensor output, in order. Buffer (memref) outputs produce no result.
func TiledLoop(lowerBounds, upperBounds, steps []shapes.Type, outputs []shapes.Type) ([]shapes.Type, error) {
	numLoops := len(lowerBounds)
	if len(upperBounds) != numLoops || len(steps) != numLoops {
		return nil, irerrors.Constructionf("TiledLoop: number of lower bounds (%d), upper bounds (%d) and steps (%d) must match",
			numLoops, len(upperBounds), len(steps))
	}
	for _, group := range []struct {
		name  string
		types []shapes.Type
	}{{"lower bound", lowerBounds}, {"upper bound", upperBounds}, {"step", steps}} {
		for i, t := range group.types {
			if !shapes.TypesEqual(t, dtypes.Index) {
				return nil, irerrors.Constructionf("TiledLoop: %s #%d must be of type index, got %s", group.name, i, shapes.Describe(t))
			}
		}
	}
	var results []shapes.Type
	for i, t := range outputs {
		switch {
		case shapes.IsTensor(t):
			results = append(results, t)
		case shapes.IsBuffer(t):
		default:
			return nil, irerrors.Constructionf("TiledLoop: output #%d must be a tensor or a memref, got %s", i, shapes.Describe(t))
		}
	}
	return results, nil
}

// Dim returns the type of querying the size of an axis of a shaped value: it is always index.
// It fails if the operand is not shaped, or if the axis is out-of-range for a ranked operand.
func Dim(operand shapes.Type, axis int64) (shapes.Type, error) {
	shaped, ok := operand.(shapes.ShapedType)
	if !ok || !(shapes.IsTensor(operand) || shapes.IsBuffer(operand)) {
		return nil, irerrors.Constructionf("Dim: operand must be a tensor or a memref, got %s", shapes.Describe(operand))
	}
	if axis < 0 || (shaped.HasRank() && axis >= int64(shaped.Rank())) {
		return nil, irerrors.Constructionf("Dim: axis %d out-of-range for %s", axis, shapes.Describe(operand))
	}
	return dtypes.Index, nil
}
