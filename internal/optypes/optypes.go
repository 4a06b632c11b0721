// Package optypes defines the kinds of operations supported by the IR builder, and their textual names.
package optypes

//go:generate go tool enumer -type=OpType -output=gen_optype_enum.go optypes.go

// OpType is an enum of all supported operations.
type OpType int

const (
	Invalid OpType = iota

	// Materialization.
	InitTensor
	Alloc

	// Structured ops.
	PadTensor
	TiledLoop

	// Terminators and region queries.
	Yield
	Index
	Return

	// Supporting ops.
	Constant
	TensorDim
	MemRefDim

	// Last should always be kept the last, it is used as a counter/marker for OpType.
	Last
)

var mlirNames = map[OpType]string{
	InitTensor: "linalg.init_tensor",
	Alloc:      "memref.alloc",
	PadTensor:  "linalg.pad_tensor",
	TiledLoop:  "linalg.tiled_loop",
	Yield:      "linalg.yield",
	Index:      "linalg.index",
	Return:     "func.return",
	Constant:   "arith.constant",
	TensorDim:  "tensor.dim",
	MemRefDim:  "memref.dim",
}

// ToMLIR returns the textual name of the operation, e.g. "linalg.pad_tensor".
func (op OpType) ToMLIR() string {
	if name, ok := mlirNames[op]; ok {
		return name
	}
	return "unknown." + op.String()
}

// IsTerminator returns whether the operation terminates a function or region body.
func (op OpType) IsTerminator() bool {
	return op == Yield || op == Return
}

// HasRegions returns whether the operation owns region bodies.
func (op OpType) HasRegions() bool {
	return op == PadTensor || op == TiledLoop
}
