package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
)

// Quantization is the `!quant.uniform` element type: values stored as integers of StorageType that represent
// ExpressedType values through a scale and a zero-point.
//
// It implements ElementTypeCapable, so it can be the element type of tensors and memrefs.
type Quantization struct {
	// StorageType is the integer type used in memory (e.g., dtypes.Int8, dtypes.Uint8).
	StorageType dtypes.DType

	// ExpressedType is the original floating-point type being represented (e.g., dtypes.Float32).
	ExpressedType dtypes.DType

	// Scales are the step sizes.
	// - Per-tensor: 1 value.
	// - Per-axis: N values (matching the dimension size).
	// - Blockwise: M values (matching the number of blocks).
	Scales []float64

	// ZeroPoints are the integer values representing the real 0.0.
	// Must have the same length as Scales.
	ZeroPoints []int64

	// QuantizedAxes defines which axes have specific quantization parameters.
	// - Per-tensor: Empty.
	// - Per-axis: Exactly 1 axis index.
	// - Blockwise: Multiple axis indices.
	QuantizedAxes []int

	// BlockSizes defines the size of blocks along the QuantizedAxes.
	// If empty but QuantizedAxes is not, it implies standard per-axis (block size = 1).
	BlockSizes []int64
}

var _ ElementTypeCapable = (*Quantization)(nil)

// UniformQuantization returns a per-tensor quantized element type: a single scale and zero-point are
// applied to all elements.
func UniformQuantization(storageType, expressedType dtypes.DType, scale float64, zeroPoint int64) *Quantization {
	return &Quantization{
		StorageType:   storageType,
		ExpressedType: expressedType,
		Scales:        []float64{scale},
		ZeroPoints:    []int64{zeroPoint},
	}
}

// IsElementTypeCapable implements ElementTypeCapable.
func (q *Quantization) IsElementTypeCapable() {}

// ToMLIR renders the quantized type.
// The format is: !quant.uniform<StorageType:ExpressedType[:AxisInfo], {Params}>
func (q *Quantization) ToMLIR() string {
	if q == nil {
		return "<nil>"
	}
	var sb strings.Builder
	w := func(format string, args ...any) {
		_, _ = fmt.Fprintf(&sb, format, args...) // Writing to a strings.Builder doesn't fail.
	}
	w("!quant.uniform<%s:%s", q.StorageType.ToMLIR(), q.ExpressedType.ToMLIR())

	if len(q.QuantizedAxes) > 0 {
		w(":")
		if len(q.BlockSizes) > 0 {
			// Blockwise: {axis:blockSize, ...}
			w("{")
			for i, axis := range q.QuantizedAxes {
				if i > 0 {
					w(", ")
				}
				blockSize := int64(1)
				if i < len(q.BlockSizes) {
					blockSize = q.BlockSizes[i]
				}
				w("%d:%d", axis, blockSize)
			}
			w("}")
		} else {
			// Per-axis: only the axis index (e.g., ":0").
			w("%d", q.QuantizedAxes[0])
		}
	}
	w(", ")

	if len(q.QuantizedAxes) > 0 {
		w("{")
		for i := range q.Scales {
			if i > 0 {
				w(", ")
			}
			w("%g:%d", q.Scales[i], q.ZeroPoints[i])
		}
		w("}")
	} else if len(q.Scales) == 1 {
		w("%g:%d", q.Scales[0], q.ZeroPoints[0])
	}
	w(">")
	return sb.String()
}

// EqualType compares all the quantization parameters.
func (q *Quantization) EqualType(other Type) bool {
	o, ok := other.(*Quantization)
	if !ok || q == nil || o == nil {
		return ok && q == o
	}
	return q.StorageType == o.StorageType && q.ExpressedType == o.ExpressedType &&
		slices.Equal(q.Scales, o.Scales) && slices.Equal(q.ZeroPoints, o.ZeroPoints) &&
		slices.Equal(q.QuantizedAxes, o.QuantizedAxes) && slices.Equal(q.BlockSizes, o.BlockSizes)
}

// Clone returns a new deep copy of the Quantization.
func (q *Quantization) Clone() *Quantization {
	if q == nil {
		return nil
	}
	return &Quantization{
		StorageType:   q.StorageType,
		ExpressedType: q.ExpressedType,
		Scales:        slices.Clone(q.Scales),
		ZeroPoints:    slices.Clone(q.ZeroPoints),
		QuantizedAxes: slices.Clone(q.QuantizedAxes),
		BlockSizes:    slices.Clone(q.BlockSizes),
	}
}

// String implements fmt.Stringer.
func (q *Quantization) String() string {
	return q.ToMLIR()
}
