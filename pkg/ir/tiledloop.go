package ir

import (
	"slices"

	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/internal/shapeinference"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"k8s.io/klog/v2"
)

// Groups of operands of linalg.tiled_loop.
const (
	loopLowerBoundsGroup = iota
	loopUpperBoundsGroup
	loopStepsGroup
	loopInputsGroup
	loopOutputsGroup
	loopNumGroups
)

// TiledLoopBuilder is a builder for TiledLoop operations. See TiledLoop for more details.
type TiledLoopBuilder struct {
	lowerBounds, upperBounds, steps []*Value
	inputs, outputs                 []*Value
	iterators                       []types.IteratorType
	distribution                    []types.DistributionType
}

// TiledLoop creates a loop over an N-dimensional iteration space, one dimension per triple of lower bound,
// upper bound and step (all runtime values of type index).
//
// The inputs are read-only values of any type made available to the body. The outputs are tensors or
// memrefs: each tensor output produces one result of the loop, in order, and memref outputs (updated in
// place) produce none.
//
// The body is created with the operation: its inputs are, in order, the N induction variables (index),
// one argument per input and one argument per output, with the same types. It must be terminated with a
// Yield of one value per tensor output.
//
// Because there are optional parameters, this function returns a TiledLoopBuilder that can be further
// configured. Call TiledLoopBuilder.Done to get the final TiledLoopOp.
func TiledLoop(lowerBounds, upperBounds, steps, inputs, outputs []*Value) *TiledLoopBuilder {
	return &TiledLoopBuilder{
		lowerBounds: slices.Clone(lowerBounds),
		upperBounds: slices.Clone(upperBounds),
		steps:       slices.Clone(steps),
		inputs:      slices.Clone(inputs),
		outputs:     slices.Clone(outputs),
	}
}

// Iterators sets the kind of iteration of each loop dimension. The default is all parallel.
// There must be one per loop dimension, which is checked by Verify.
func (b *TiledLoopBuilder) Iterators(kinds ...types.IteratorType) *TiledLoopBuilder {
	b.iterators = slices.Clone(kinds)
	if b.iterators == nil {
		b.iterators = []types.IteratorType{}
	}
	return b
}

// Distribution sets how each loop dimension is distributed over processors. The default is no distribution
// attribute. If set, there must be one per loop dimension, which is checked by Verify.
func (b *TiledLoopBuilder) Distribution(kinds ...types.DistributionType) *TiledLoopBuilder {
	b.distribution = slices.Clone(kinds)
	if b.distribution == nil {
		b.distribution = []types.DistributionType{}
	}
	return b
}

// Done creates the tiled loop operation, with an empty body, and returns it.
func (b *TiledLoopBuilder) Done() (*TiledLoopOp, error) {
	op := optypes.TiledLoop
	var operands []*Value
	for _, group := range [][]*Value{b.lowerBounds, b.upperBounds, b.steps, b.inputs, b.outputs} {
		operands = append(operands, group...)
	}
	if len(b.lowerBounds) == 0 {
		return nil, irerrors.Constructionf("%s: requires at least one loop dimension", op.ToMLIR())
	}
	fn, err := innerMostFunction(operands...)
	if err != nil {
		return nil, err
	}
	if err := fn.checkOperands(op, operands...); err != nil {
		return nil, err
	}
	resultTypes, err := shapeinference.TiledLoop(valuesTypes(b.lowerBounds), valuesTypes(b.upperBounds),
		valuesTypes(b.steps), valuesTypes(b.outputs))
	if err != nil {
		return nil, err
	}

	numLoops := len(b.lowerBounds)
	stmt := fn.addOp(op, resultTypes, operands...)
	stmt.Attributes[AttrOperandSegmentSizes] = []int64{
		int64(numLoops), int64(numLoops), int64(numLoops), int64(len(b.inputs)), int64(len(b.outputs))}
	iterators := b.iterators
	if iterators == nil {
		iterators = slices.Repeat([]types.IteratorType{types.IteratorParallel}, numLoops)
	}
	stmt.Attributes[AttrIteratorTypes] = enumStrings(iterators)
	if b.distribution != nil {
		stmt.Attributes[AttrDistributionTypes] = enumStrings(b.distribution)
	}

	body := fn.Closure()
	args := make([]*Value, 0, numLoops+len(b.inputs)+len(b.outputs))
	for range numLoops {
		args = append(args, body.newArgument("", dtypes.Index))
	}
	for _, v := range b.inputs {
		args = append(args, body.newArgument("", v.typ))
	}
	for _, v := range b.outputs {
		args = append(args, body.newArgument("", v.typ))
	}
	body.insertInputs(0, args...)
	stmt.addRegion(body)
	return &TiledLoopOp{stmt: stmt}, nil
}

func enumStrings[E interface{ String() string }](values []E) []string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.String()
	}
	return names
}

// TiledLoopOp is a view of a linalg.tiled_loop statement.
//
// The operands of the statement are, in order: lower bounds, upper bounds, steps (one per loop each),
// inputs and outputs. The inputs of the body are, in order: induction variables, one argument per input
// and one argument per output. So operands and body arguments are tied by index arithmetic.
//
// Inputs and outputs can be appended or erased with the methods of TiledLoopOp, which keep operands,
// body arguments, results and the operand_segment_sizes attribute consistent.
type TiledLoopOp struct {
	stmt *Statement
}

// AsTiledLoop returns the TiledLoopOp view of a tiled loop statement.
func AsTiledLoop(stmt *Statement) (*TiledLoopOp, error) {
	if stmt == nil || stmt.OpType != optypes.TiledLoop {
		return nil, irerrors.Preconditionf("statement is not a %s", optypes.TiledLoop.ToMLIR())
	}
	return &TiledLoopOp{stmt: stmt}, nil
}

// Statement returns the underlying statement.
func (op *TiledLoopOp) Statement() *Statement { return op.stmt }

// Body of the loop.
func (op *TiledLoopOp) Body() *Function { return op.stmt.Regions[0] }

// Results of the loop, one per tensor output.
func (op *TiledLoopOp) Results() []*Value { return slices.Clone(op.stmt.Outputs) }

func (op *TiledLoopOp) segments() operandSegments { return operandSegments{op.stmt} }

// NumLoops returns the number of dimensions of the iteration space.
func (op *TiledLoopOp) NumLoops() int { return int(op.segments().sizes()[loopLowerBoundsGroup]) }

// NumInputs returns the number of inputs.
func (op *TiledLoopOp) NumInputs() int { return int(op.segments().sizes()[loopInputsGroup]) }

// NumOutputs returns the number of outputs.
func (op *TiledLoopOp) NumOutputs() int { return int(op.segments().sizes()[loopOutputsGroup]) }

// NumControlOperands returns the number of bounds and steps operands, that come before inputs and outputs.
func (op *TiledLoopOp) NumControlOperands() int { return 3 * op.NumLoops() }

// LowerBounds of each loop.
func (op *TiledLoopOp) LowerBounds() []*Value { return op.segments().group(loopLowerBoundsGroup) }

// UpperBounds of each loop.
func (op *TiledLoopOp) UpperBounds() []*Value { return op.segments().group(loopUpperBoundsGroup) }

// Steps of each loop.
func (op *TiledLoopOp) Steps() []*Value { return op.segments().group(loopStepsGroup) }

// Inputs returns the input operands.
func (op *TiledLoopOp) Inputs() []*Value { return op.segments().group(loopInputsGroup) }

// Outputs returns the output operands.
func (op *TiledLoopOp) Outputs() []*Value { return op.segments().group(loopOutputsGroup) }

// IteratorTypes returns the kind of iteration of each loop.
func (op *TiledLoopOp) IteratorTypes() ([]types.IteratorType, error) {
	return types.ParseIteratorTypes(op.stmt.stringsAttr(AttrIteratorTypes)...)
}

// DistributionTypes returns the distribution of each loop, or nil if not set.
func (op *TiledLoopOp) DistributionTypes() ([]types.DistributionType, error) {
	names, found := op.stmt.Attributes[AttrDistributionTypes].([]string)
	if !found {
		return nil, nil
	}
	return types.ParseDistributionTypes(names...)
}

// InductionVars returns the body arguments with the current index of each loop.
func (op *TiledLoopOp) InductionVars() []*Value {
	return slices.Clone(op.Body().Inputs[:op.NumLoops()])
}

// RegionInputArgs returns the body arguments tied to the inputs.
func (op *TiledLoopOp) RegionInputArgs() []*Value {
	start := op.NumLoops()
	return slices.Clone(op.Body().Inputs[start : start+op.NumInputs()])
}

// RegionOutputArgs returns the body arguments tied to the outputs.
func (op *TiledLoopOp) RegionOutputArgs() []*Value {
	start := op.NumLoops() + op.NumInputs()
	return slices.Clone(op.Body().Inputs[start : start+op.NumOutputs()])
}

// checkTiedOperand returns an error if operandIndex is not an input or output operand.
func (op *TiledLoopOp) checkTiedOperand(operandIndex int) error {
	if operandIndex < op.NumControlOperands() || operandIndex >= len(op.stmt.Inputs) {
		return irerrors.Preconditionf("%s: operand #%d is not an input or output (operands %d to %d)",
			op.stmt.Name(), operandIndex, op.NumControlOperands(), len(op.stmt.Inputs)-1)
	}
	return nil
}

// TiedBlockArgument returns the body argument tied to the input or output operand at operandIndex.
// It returns a precondition error for bounds and steps operands.
func (op *TiledLoopOp) TiedBlockArgument(operandIndex int) (*Value, error) {
	if err := op.checkTiedOperand(operandIndex); err != nil {
		return nil, err
	}
	return op.Body().Inputs[operandIndex-2*op.NumLoops()], nil
}

// TiedOperandIndex returns the index of the operand tied to the body argument arg.
// It returns a precondition error if arg is not an input or output argument of the body.
func (op *TiledLoopOp) TiedOperandIndex(arg *Value) (int, error) {
	body := op.Body()
	if arg == nil || arg.fn != body || !arg.IsBlockArgument() || arg.index < 0 || arg.index >= len(body.Inputs) || body.Inputs[arg.index] != arg {
		return 0, irerrors.Preconditionf("%s: %s is not an argument of the loop body", op.stmt.Name(), arg)
	}
	if arg.index < op.NumLoops() {
		return 0, irerrors.Preconditionf("%s: %s is an induction variable, it is not tied to an operand", op.stmt.Name(), arg)
	}
	return arg.index + 2*op.NumLoops(), nil
}

// TiedResult returns the loop result tied to the output operand at operandIndex: the result number is
// the number of tensor outputs before it. It returns nil for memref outputs, which have no result.
// It returns a precondition error if operandIndex is not an output operand.
func (op *TiledLoopOp) TiedResult(operandIndex int) (*Value, error) {
	start, end := op.segments().groupRange(loopOutputsGroup)
	if operandIndex < start || operandIndex >= end {
		return nil, irerrors.Preconditionf("%s: operand #%d is not an output (operands %d to %d)",
			op.stmt.Name(), operandIndex, start, end-1)
	}
	if !shapes.IsTensor(op.stmt.Inputs[operandIndex].typ) {
		return nil, nil
	}
	resultIdx := 0
	for _, output := range op.stmt.Inputs[start:operandIndex] {
		if shapes.IsTensor(output.typ) {
			resultIdx++
		}
	}
	return op.stmt.Outputs[resultIdx], nil
}

// checkNewOperand returns an error if v can't be added as an operand of the loop.
func (op *TiledLoopOp) checkNewOperand(v *Value) error {
	fn := op.stmt.Function
	if v == nil {
		return irerrors.Constructionf("%s: cannot append a nil operand", op.stmt.Name())
	}
	if !fn.isAncestorOrSelf(v.fn) {
		return irerrors.Constructionf("%s: operand %s is defined in %s, out of the scope of %s",
			op.stmt.Name(), v, v.fn.describe(), fn.describe())
	}
	return nil
}

// AppendInput adds v as the last input of the loop, and returns the new body argument tied to it.
func (op *TiledLoopOp) AppendInput(v *Value) (*Value, error) {
	if err := op.checkNewOperand(v); err != nil {
		return nil, err
	}
	segments := op.segments()
	operands, sizes, operandIndex := segments.withAppended(loopInputsGroup, v)
	argPos := op.NumLoops() + op.NumInputs()

	// Commit: nothing below fails.
	body := op.Body()
	arg := body.newArgument("", v.typ)
	segments.commit(operands, sizes)
	body.insertInputs(argPos, arg)
	klog.V(1).Infof("%s: appended input %s as operand #%d, tied to %s", op.stmt.Name(), v, operandIndex, arg)
	return arg, nil
}

// AppendOutput adds v (a tensor or a memref) as the last output of the loop, and returns the new body
// argument tied to it. If v is a tensor, a new result is added at the end of the loop results.
func (op *TiledLoopOp) AppendOutput(v *Value) (*Value, error) {
	if err := op.checkNewOperand(v); err != nil {
		return nil, err
	}
	isTensor := shapes.IsTensor(v.typ)
	if !isTensor && !shapes.IsBuffer(v.typ) {
		return nil, irerrors.Constructionf("%s: output %s must be a tensor or a memref, got %s",
			op.stmt.Name(), v, shapes.Describe(v.typ))
	}
	segments := op.segments()
	operands, sizes, operandIndex := segments.withAppended(loopOutputsGroup, v)
	argPos := op.NumLoops() + op.NumInputs() + op.NumOutputs()

	// Commit: nothing below fails.
	body := op.Body()
	arg := body.newArgument("", v.typ)
	segments.commit(operands, sizes)
	body.insertInputs(argPos, arg)
	if isTensor {
		op.stmt.Outputs = append(slices.Clone(op.stmt.Outputs), op.stmt.newResult(len(op.stmt.Outputs), v.typ))
	}
	klog.V(1).Infof("%s: appended output %s as operand #%d, tied to %s", op.stmt.Name(), v, operandIndex, arg)
	return arg, nil
}

// EraseOperand removes the input or output operand at operandIndex, its tied body argument and, for tensor
// outputs, its tied result.
//
// It returns a precondition error, and changes nothing, if operandIndex is a bounds or steps operand, if the
// tied body argument is used in the body, or if the tied result is used.
func (op *TiledLoopOp) EraseOperand(operandIndex int) error {
	if err := op.checkTiedOperand(operandIndex); err != nil {
		return err
	}
	body := op.Body()
	arg, _ := op.TiedBlockArgument(operandIndex)
	if body.usesValue(arg) {
		return irerrors.Preconditionf("%s: cannot erase operand #%d, its body argument %s is still in use",
			op.stmt.Name(), operandIndex, arg)
	}
	var result *Value
	if start, _ := op.segments().groupRange(loopOutputsGroup); operandIndex >= start {
		result, _ = op.TiedResult(operandIndex)
	}
	if result != nil && op.stmt.Function.usesValue(result) {
		return irerrors.Preconditionf("%s: cannot erase output operand #%d, its result %s is still in use",
			op.stmt.Name(), operandIndex, result)
	}
	segments := op.segments()
	operands, sizes, err := segments.withErased(operandIndex)
	if err != nil {
		return err
	}
	erased := op.stmt.Inputs[operandIndex]

	// Commit: nothing below fails.
	segments.commit(operands, sizes)
	body.eraseInput(arg.index)
	if result != nil {
		op.stmt.Outputs = slices.Delete(slices.Clone(op.stmt.Outputs), result.index, result.index+1)
		op.stmt.renumberOutputs()
	}
	klog.V(1).Infof("%s: erased operand #%d (%s) and its body argument %s", op.stmt.Name(), operandIndex, erased, arg)
	return nil
}

// EraseInput removes the i-th input. See EraseOperand.
func (op *TiledLoopOp) EraseInput(i int) error {
	if i < 0 || i >= op.NumInputs() {
		return irerrors.Preconditionf("%s: input #%d out-of-range, loop has %d inputs", op.stmt.Name(), i, op.NumInputs())
	}
	return op.EraseOperand(op.NumControlOperands() + i)
}

// EraseOutput removes the i-th output. See EraseOperand.
func (op *TiledLoopOp) EraseOutput(i int) error {
	if i < 0 || i >= op.NumOutputs() {
		return irerrors.Preconditionf("%s: output #%d out-of-range, loop has %d outputs", op.stmt.Name(), i, op.NumOutputs())
	}
	return op.EraseOperand(op.NumControlOperands() + op.NumInputs() + i)
}
