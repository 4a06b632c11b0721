package ir

import (
	"slices"

	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/internal/shapeinference"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Groups of operands of linalg.pad_tensor.
const (
	padSourceGroup = iota
	padLowGroup
	padHighGroup
	padNumGroups
)

// PadBuilder is a builder for Pad operations. See Pad for more details.
type PadBuilder struct {
	source    *Value
	low, high mixed.List[*Value]
	noFold    bool
	hint      []int64
	body      *Function
	err       error
}

// Pad creates a tensor larger than source, with low[i] elements added before and high[i] elements added
// after each axis i. The low and high amounts can be static or runtime values (of type index), and both
// must have one entry per axis of source, which must be a ranked tensor.
//
// The padded elements are given by the body of the operation, a closure with one index input per axis,
// that yields the value of the element (of the source element type). See PadWithValue for the common case
// of a constant padding value.
//
// The result dimension of an axis is low[i]+source[i]+high[i] if all three are static. Otherwise, it is
// dynamic, unless a result shape hint is given (see PadBuilder.ResultShapeHint).
//
// Because there are optional parameters, this function returns a PadBuilder that can be further
// configured. Call PadBuilder.Done to get the final PadOp.
//
// Example:
//
//	body := fn.Closure()
//	for range 2 {
//		_, _ = body.Input(dtypes.Index)
//	}
//	_ = body.Yield(zero)
//	pad, err := Pad(x, low, high).Body(body).Done()
func Pad(source *Value, low, high mixed.List[*Value]) *PadBuilder {
	return &PadBuilder{
		source: source,
		low:    low,
		high:   high,
	}
}

// PadWithValue creates a Pad whose body yields the given value (of the element type of source) for every
// padded element.
//
// It returns a PadBuilder that can be further configured. Call PadBuilder.Done to get the final PadOp.
func PadWithValue(source *Value, low, high mixed.List[*Value], padValue *Value) *PadBuilder {
	b := Pad(source, low, high)
	values := append([]*Value{source, padValue}, low.DynamicValues()...)
	values = append(values, high.DynamicValues()...)
	fn, err := innerMostFunction(values...)
	if err != nil {
		b.err = err
		return b
	}
	rank := 0
	if st, ok := source.ShapedType(); ok && st.HasRank() {
		rank = st.Rank()
	}
	body := fn.Closure()
	for range rank {
		if _, err = body.Input(dtypes.Index); err != nil {
			b.err = err
			return b
		}
	}
	if err = body.Yield(padValue); err != nil {
		b.err = err
		return b
	}
	b.body = body
	return b
}

// NoFold marks the padding to always materialize a new tensor, even if the amounts are all zero.
// This can be used to force a copy, e.g. to move the data to a faster memory.
func (b *PadBuilder) NoFold() *PadBuilder {
	b.noFold = true
	return b
}

// ResultShapeHint gives the result dimensions to use for axes whose dimension can't be inferred statically.
// Use shapes.DimDynamic for axes without a hint. It must have one entry per axis of the source.
//
// The hint is never consulted for axes whose dimension can be inferred.
func (b *PadBuilder) ResultShapeHint(dims ...int64) *PadBuilder {
	b.hint = slices.Clone(dims)
	if b.hint == nil {
		b.hint = []int64{}
	}
	return b
}

// Body sets the closure that yields the padding values. It must be a closure of the function of the padding
// operation, with one index input per axis of the source.
func (b *PadBuilder) Body(body *Function) *PadBuilder {
	b.body = body
	return b
}

// Done creates the padding operation and returns it.
func (b *PadBuilder) Done() (*PadOp, error) {
	op := optypes.PadTensor
	if b.err != nil {
		return nil, b.err
	}
	if b.source == nil {
		return nil, irerrors.Constructionf("%s: nil source", op.ToMLIR())
	}
	if err := b.low.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "%s low padding", op.ToMLIR())
	}
	if err := b.high.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "%s high padding", op.ToMLIR())
	}
	dynamicLow, dynamicHigh := b.low.DynamicValues(), b.high.DynamicValues()
	operands := append([]*Value{b.source}, dynamicLow...)
	operands = append(operands, dynamicHigh...)
	fn, err := innerMostFunction(operands...)
	if err != nil {
		return nil, err
	}
	if err := fn.checkOperands(op, operands...); err != nil {
		return nil, err
	}
	if err := checkIndexValues(op, "dynamic low padding", dynamicLow); err != nil {
		return nil, err
	}
	if err := checkIndexValues(op, "dynamic high padding", dynamicHigh); err != nil {
		return nil, err
	}
	source, ok := b.source.ShapedType()
	if !ok {
		return nil, irerrors.Constructionf("%s: source %s must be a ranked tensor, got %s",
			op.ToMLIR(), b.source, shapes.Describe(b.source.typ))
	}
	outputType, err := shapeinference.Pad(source, b.low.StaticValues(), b.high.StaticValues(), b.hint)
	if err != nil {
		return nil, err
	}

	// Region body.
	body := b.body
	if body == nil {
		return nil, irerrors.Constructionf("%s: missing body, use PadBuilder.Body or PadWithValue", op.ToMLIR())
	}
	if body.Parent != fn {
		return nil, irerrors.Constructionf("%s: body must be a closure of %s", op.ToMLIR(), fn.describe())
	}
	if body.Owner != nil {
		return nil, irerrors.Constructionf("%s: body is already the region of a %s", op.ToMLIR(), body.Owner.Name())
	}
	if len(body.Inputs) != source.Rank() {
		return nil, irerrors.Constructionf("%s: body has %d inputs, but it must have one index input per axis of the source (rank %d)",
			op.ToMLIR(), len(body.Inputs), source.Rank())
	}
	if err := checkIndexValues(op, "body input", body.Inputs); err != nil {
		return nil, err
	}

	stmt := fn.addOp(op, []shapes.Type{outputType}, operands...)
	stmt.Attributes[AttrStaticLow] = b.low.StaticValues()
	stmt.Attributes[AttrStaticHigh] = b.high.StaticValues()
	stmt.Attributes[AttrOperandSegmentSizes] = []int64{1, int64(len(dynamicLow)), int64(len(dynamicHigh))}
	if b.noFold {
		stmt.Attributes[AttrNoFold] = true
	}
	stmt.addRegion(body)
	return &PadOp{stmt: stmt}, nil
}

// PadOp is a view of a linalg.pad_tensor statement.
type PadOp struct {
	stmt *Statement
}

// AsPad returns the PadOp view of a padding statement.
func AsPad(stmt *Statement) (*PadOp, error) {
	if stmt == nil || stmt.OpType != optypes.PadTensor {
		return nil, irerrors.Preconditionf("statement is not a %s", optypes.PadTensor.ToMLIR())
	}
	return &PadOp{stmt: stmt}, nil
}

// Statement returns the underlying statement.
func (op *PadOp) Statement() *Statement { return op.stmt }

// Result returns the padded tensor.
func (op *PadOp) Result() *Value { return op.stmt.Outputs[0] }

// Source returns the tensor being padded.
func (op *PadOp) Source() *Value { return op.stmt.Inputs[0] }

// Body returns the region that yields the padding values.
func (op *PadOp) Body() *Function { return op.stmt.Regions[0] }

// NoFold returns whether the padding must always materialize a new tensor.
func (op *PadOp) NoFold() bool {
	noFold, _ := op.stmt.Attributes[AttrNoFold].(bool)
	return noFold
}

func (op *PadOp) amounts(key string, group int) (mixed.List[*Value], error) {
	static := op.stmt.int64sAttr(key)
	dynamic := operandSegments{op.stmt}.group(group)
	amounts, err := mixed.New(static, dynamic)
	if err != nil {
		return mixed.List[*Value]{}, irerrors.Verificationf("%s: %s=%s doesn't match its %d dynamic operands",
			op.stmt.Name(), key, mixed.FormatStatic(static), len(dynamic))
	}
	return amounts, nil
}

// Low returns the padding amounts added before each axis.
// It returns a verification error if the statement attributes and operands are inconsistent.
func (op *PadOp) Low() (mixed.List[*Value], error) { return op.amounts(AttrStaticLow, padLowGroup) }

// High returns the padding amounts added after each axis.
// It returns a verification error if the statement attributes and operands are inconsistent.
func (op *PadOp) High() (mixed.List[*Value], error) { return op.amounts(AttrStaticHigh, padHighGroup) }

// HasZeroLowPad returns whether every low amount is the static value 0.
// A runtime amount is never considered zero, whatever its value at run time, and neither are
// inconsistent amounts.
func (op *PadOp) HasZeroLowPad() bool {
	low, err := op.Low()
	return err == nil && low.Len() == op.rank() && low.AllStaticEqual(0)
}

// HasZeroHighPad returns whether every high amount is the static value 0. See HasZeroLowPad.
func (op *PadOp) HasZeroHighPad() bool {
	high, err := op.High()
	return err == nil && high.Len() == op.rank() && high.AllStaticEqual(0)
}

// rank of the source, or -1 if it is not ranked.
func (op *PadOp) rank() int {
	if st, ok := op.Source().ShapedType(); ok {
		return st.Rank()
	}
	return -1
}

// IsIdentity returns whether the padding doesn't change the source: all amounts are the static value 0,
// and the padding is not marked as NoFold.
func (op *PadOp) IsIdentity() bool {
	return !op.NoFold() && op.HasZeroLowPad() && op.HasZeroHighPad()
}

// Fold returns the source, and true, if the padding is an identity whose result type is the same as the
// source type. Otherwise, it returns nil and false.
//
// It doesn't change the program: replacing the uses of the result is up to the caller.
func (op *PadOp) Fold() (*Value, bool) {
	if !op.IsIdentity() || !shapes.TypesEqual(op.Source().typ, op.Result().typ) {
		return nil, false
	}
	klog.V(1).Infof("%s %s folds to its source %s", op.stmt.Name(), op.Result(), op.Source())
	return op.Source(), true
}
