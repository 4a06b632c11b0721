package ir

import (
	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/internal/shapeinference"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
)

// Constant creates a scalar constant from a Go value. The type of the result is given by the Go type:
// bool, signed and unsigned integers, float16.Float16, float32 and float64.
// A Go int creates a constant of type index, see also ConstantIndex.
func (fn *Function) Constant(value any) (*Value, error) {
	op := optypes.Constant
	if err := fn.checkOperands(op); err != nil {
		return nil, err
	}
	dtype, err := dtypes.FromAny(value)
	if err != nil {
		return nil, irerrors.Constructionf("%s: %v", op.ToMLIR(), err)
	}
	if dtype.IsComplex() {
		return nil, irerrors.Constructionf("%s: complex constants (%s) are not supported", op.ToMLIR(), dtype)
	}
	stmt := fn.addOp(op, []shapes.Type{dtype})
	stmt.Attributes[AttrValue] = value
	return stmt.Outputs[0], nil
}

// ConstantIndex creates a constant of type index.
func (fn *Function) ConstantIndex(value int) (*Value, error) {
	return fn.Constant(value)
}

// constantIndexValue returns the value of v, if it is the result of an index constant.
func constantIndexValue(v *Value) (int64, bool) {
	if v == nil || v.stmt == nil || v.stmt.OpType != optypes.Constant {
		return 0, false
	}
	value, ok := v.stmt.Attributes[AttrValue].(int)
	return int64(value), ok
}

// Dim returns the runtime size of the given axis of a tensor or memref, as a value of type index.
//
// The axis is materialized as an index constant in the function of the operand.
func Dim(operand *Value, axis int) (*Value, error) {
	if operand == nil {
		return nil, irerrors.Constructionf("Dim: nil operand")
	}
	op := optypes.TensorDim
	if shapes.IsBuffer(operand.typ) {
		op = optypes.MemRefDim
	}
	fn := operand.fn
	if err := fn.checkOperands(op, operand); err != nil {
		return nil, err
	}
	outputType, err := shapeinference.Dim(operand.typ, int64(axis))
	if err != nil {
		return nil, err
	}
	axisValue, err := fn.ConstantIndex(axis)
	if err != nil {
		return nil, err
	}
	return fn.addOp(op, []shapes.Type{outputType}, operand, axisValue).Outputs[0], nil
}
