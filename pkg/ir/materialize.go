package ir

import (
	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/internal/shapeinference"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/pkg/errors"
)

// checkIndexValues returns an error if any of the values is not of type index.
func checkIndexValues(op optypes.OpType, what string, values []*Value) error {
	for i, v := range values {
		if !shapes.TypesEqual(v.typ, dtypes.Index) {
			return irerrors.Constructionf("%s: %s #%d (%s) must be of type index, got %s",
				op.ToMLIR(), what, i, v, shapes.Describe(v.typ))
		}
	}
	return nil
}

// InitTensor materializes a new tensor of the given sizes and element type, with unspecified contents.
//
// The dynamic entries of sizes are runtime values of type index, and become the operands of the operation.
// The result is a ranked tensor whose static dimensions are the static entries of sizes, and whose dynamic
// dimensions are given by the runtime values, in order.
func InitTensor(fn *Function, sizes mixed.List[*Value], elementType shapes.Type) (*InitTensorOp, error) {
	op := optypes.InitTensor
	if err := sizes.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "%s sizes", op.ToMLIR())
	}
	dynamicSizes := sizes.DynamicValues()
	if err := fn.checkOperands(op, dynamicSizes...); err != nil {
		return nil, err
	}
	if err := checkIndexValues(op, "dynamic size", dynamicSizes); err != nil {
		return nil, err
	}
	staticSizes := sizes.StaticValues()
	outputType, err := shapeinference.InitTensor(staticSizes, len(dynamicSizes), elementType)
	if err != nil {
		return nil, err
	}
	stmt := fn.addOp(op, []shapes.Type{outputType}, dynamicSizes...)
	stmt.Attributes[AttrStaticSizes] = staticSizes
	return &InitTensorOp{stmt: stmt}, nil
}

// InitTensorOp is a view of a linalg.init_tensor statement.
type InitTensorOp struct {
	stmt *Statement
}

// Statement returns the underlying statement.
func (op *InitTensorOp) Statement() *Statement { return op.stmt }

// Result returns the materialized tensor.
func (op *InitTensorOp) Result() *Value { return op.stmt.Outputs[0] }

// Sizes returns the mixed static/dynamic sizes of the tensor.
// It returns a verification error if the statement attributes and operands are inconsistent.
func (op *InitTensorOp) Sizes() (mixed.List[*Value], error) {
	static := op.stmt.int64sAttr(AttrStaticSizes)
	sizes, err := mixed.New(static, op.stmt.Inputs)
	if err != nil {
		return mixed.List[*Value]{}, irerrors.Verificationf("%s: %s=%s doesn't match its %d operands",
			op.stmt.Name(), AttrStaticSizes, mixed.FormatStatic(static), len(op.stmt.Inputs))
	}
	return sizes, nil
}

// IsStatic returns whether all sizes are static, in which case the tensor could be replaced by any
// pre-existing tensor of the same type.
func (op *InitTensorOp) IsStatic() bool {
	return len(op.stmt.Inputs) == 0
}

// Alloc allocates a new buffer of the given memref type.
// The dynamicSizes (of type index) give the sizes of the dynamic dimensions of the memref, in order.
func Alloc(fn *Function, memref *shapes.MemRefType, dynamicSizes ...*Value) (*Value, error) {
	op := optypes.Alloc
	if err := fn.checkOperands(op, dynamicSizes...); err != nil {
		return nil, err
	}
	if memref == nil {
		return nil, irerrors.Constructionf("%s: nil memref type", op.ToMLIR())
	}
	if err := checkIndexValues(op, "dynamic size", dynamicSizes); err != nil {
		return nil, err
	}
	if err := shapeinference.Alloc(memref, len(dynamicSizes)); err != nil {
		return nil, err
	}
	return fn.addOp(op, []shapes.Type{memref}, dynamicSizes...).Outputs[0], nil
}
