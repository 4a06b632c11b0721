package ir

import (
	"slices"

	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/internal/shapeinference"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Verify checks the structural invariants of the function: it must be terminated, and every statement
// (including the ones in region bodies) must verify.
func (fn *Function) Verify() error {
	if !fn.Returned || len(fn.Statements) == 0 {
		return irerrors.Verificationf("%s is not terminated", fn.describe())
	}
	last := len(fn.Statements) - 1
	for i, stmt := range fn.Statements {
		if stmt.OpType.IsTerminator() != (i == last) {
			return irerrors.Verificationf("%s: terminator %s must be the last statement", fn.describe(), stmt.Name())
		}
		if err := stmt.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks the structural invariants of the statement, and recursively of its region bodies.
// It returns a verification error naming the operation and the violated invariant.
func (stmt *Statement) Verify() error {
	klog.V(2).Infof("verifying %s in %s", stmt.Name(), stmt.Function.describe())
	for i, operand := range stmt.Inputs {
		if operand == nil || !stmt.Function.isAncestorOrSelf(operand.fn) {
			return irerrors.Verificationf("%s in %s: operand #%d is not in scope", stmt.Name(), stmt.Function.describe(), i)
		}
	}
	var err error
	switch stmt.OpType {
	case optypes.InitTensor:
		err = stmt.verifyInitTensor()
	case optypes.Alloc:
		err = stmt.verifyAlloc()
	case optypes.PadTensor:
		err = stmt.verifyPad()
	case optypes.TiledLoop:
		err = stmt.verifyTiledLoop()
	case optypes.Yield:
		err = stmt.verifyYield()
	case optypes.Return:
		if stmt.Function.IsClosure() {
			err = irerrors.Verificationf("%s can only terminate top-level functions", stmt.Name())
		}
	case optypes.Index:
		err = stmt.verifyIndex()
	case optypes.Constant:
		err = stmt.verifyConstant()
	case optypes.TensorDim, optypes.MemRefDim:
		err = stmt.verifyDim()
	default:
		err = irerrors.Verificationf("unknown operation %s", stmt.OpType)
	}
	if err != nil {
		return errors.WithMessagef(err, "in %s", stmt.Function.describe())
	}
	for _, region := range stmt.Regions {
		if region.Owner != stmt || region.Parent != stmt.Function {
			return irerrors.Verificationf("%s in %s: region is not owned by the operation", stmt.Name(), stmt.Function.describe())
		}
		if err := region.Verify(); err != nil {
			return err
		}
	}
	return nil
}

func (stmt *Statement) checkNumRegions(n int) error {
	if len(stmt.Regions) != n {
		return irerrors.Verificationf("%s: expected %d regions, got %d", stmt.Name(), n, len(stmt.Regions))
	}
	return nil
}

func (stmt *Statement) checkNumOutputs(n int) error {
	if len(stmt.Outputs) != n {
		return irerrors.Verificationf("%s: expected %d results, got %d", stmt.Name(), n, len(stmt.Outputs))
	}
	return nil
}

func (stmt *Statement) verifyIndexOperands(what string, values []*Value) error {
	for i, v := range values {
		if !shapes.TypesEqual(v.typ, dtypes.Index) {
			return irerrors.Verificationf("%s: %s #%d (%s) must be of type index, got %s",
				stmt.Name(), what, i, v, shapes.Describe(v.typ))
		}
	}
	return nil
}

func (stmt *Statement) verifyInitTensor() error {
	if err := stmt.checkNumOutputs(1); err != nil {
		return err
	}
	sizes, err := mixed.New(stmt.int64sAttr(AttrStaticSizes), stmt.Inputs)
	if err != nil {
		return irerrors.Verificationf("%s: %s=%s doesn't match its %d operands",
			stmt.Name(), AttrStaticSizes, mixed.FormatStatic(stmt.int64sAttr(AttrStaticSizes)), len(stmt.Inputs))
	}
	if err := stmt.verifyIndexOperands("dynamic size", stmt.Inputs); err != nil {
		return err
	}
	result, ok := stmt.Outputs[0].typ.(*shapes.RankedTensorType)
	if !ok || !slices.Equal(result.Shape(), sizes.StaticValues()) {
		return irerrors.Verificationf("%s: result type %s doesn't match sizes %s",
			stmt.Name(), shapes.Describe(stmt.Outputs[0].typ), sizes)
	}
	return nil
}

func (stmt *Statement) verifyAlloc() error {
	if err := stmt.checkNumOutputs(1); err != nil {
		return err
	}
	if err := stmt.verifyIndexOperands("dynamic size", stmt.Inputs); err != nil {
		return err
	}
	result, _ := stmt.Outputs[0].typ.(shapes.ShapedType)
	if result == nil || shapeinference.Alloc(result, len(stmt.Inputs)) != nil {
		return irerrors.Verificationf("%s: result type %s doesn't match its %d dynamic sizes",
			stmt.Name(), shapes.Describe(stmt.Outputs[0].typ), len(stmt.Inputs))
	}
	return nil
}

// verifyYieldedTypes checks that body is terminated by a yield of values of the given types.
func (stmt *Statement) verifyYieldedTypes(body *Function, want []shapes.Type) error {
	if !body.Returned || len(body.Statements) == 0 || body.Statements[len(body.Statements)-1].OpType != optypes.Yield {
		return irerrors.Verificationf("%s: body must be terminated by %s", stmt.Name(), optypes.Yield.ToMLIR())
	}
	if len(body.Outputs) != len(want) {
		return irerrors.Verificationf("%s: body must yield %d values, got %d", stmt.Name(), len(want), len(body.Outputs))
	}
	for i, v := range body.Outputs {
		if !shapes.TypesEqual(v.typ, want[i]) {
			return irerrors.Verificationf("%s: yielded value #%d (%s) must be of type %s, got %s",
				stmt.Name(), i, v, shapes.Describe(want[i]), shapes.Describe(v.typ))
		}
	}
	return nil
}

func (stmt *Statement) verifyPad() error {
	if err := stmt.checkNumOutputs(1); err != nil {
		return err
	}
	if err := stmt.checkNumRegions(1); err != nil {
		return err
	}
	segments := operandSegments{stmt}
	if err := segments.check(padNumGroups); err != nil {
		return err
	}
	if segments.sizes()[padSourceGroup] != 1 {
		return irerrors.Verificationf("%s: expected exactly one source operand", stmt.Name())
	}
	op := &PadOp{stmt: stmt}
	source, ok := op.Source().typ.(*shapes.RankedTensorType)
	if !ok {
		return irerrors.Verificationf("%s: source must be a ranked tensor, got %s", stmt.Name(), shapes.Describe(op.Source().typ))
	}
	rank := source.Rank()
	for _, amounts := range []struct {
		key   string
		group int
	}{{AttrStaticLow, padLowGroup}, {AttrStaticHigh, padHighGroup}} {
		static := stmt.int64sAttr(amounts.key)
		if len(static) != rank {
			return irerrors.Verificationf("%s: %s=%s must have one entry per axis of the source (rank %d)",
				stmt.Name(), amounts.key, mixed.FormatStatic(static), rank)
		}
		dynamic := segments.group(amounts.group)
		if _, err := mixed.New(static, dynamic); err != nil {
			return irerrors.Verificationf("%s: %s=%s doesn't match its %d dynamic operands",
				stmt.Name(), amounts.key, mixed.FormatStatic(static), len(dynamic))
		}
		if err := stmt.verifyIndexOperands(amounts.key+" operand", dynamic); err != nil {
			return err
		}
	}

	// The result must agree with every dimension that can be inferred.
	inferred, err := shapeinference.Pad(source, stmt.int64sAttr(AttrStaticLow), stmt.int64sAttr(AttrStaticHigh), nil)
	if err != nil {
		return irerrors.Verificationf("%s: %v", stmt.Name(), err)
	}
	result, ok := op.Result().typ.(*shapes.RankedTensorType)
	if !ok || !shapes.TypesEqual(result.ElementType(), source.ElementType()) || result.Rank() != rank {
		return irerrors.Verificationf("%s: result type %s is not compatible with %s",
			stmt.Name(), shapes.Describe(op.Result().typ), inferred)
	}
	resultDims := result.Shape()
	for axis, dim := range inferred.Shape() {
		if dim != shapes.DimDynamic && resultDims[axis] != dim {
			return irerrors.Verificationf("%s: result type %s is not compatible with %s",
				stmt.Name(), result, inferred)
		}
	}

	body := op.Body()
	if len(body.Inputs) != rank {
		return irerrors.Verificationf("%s: body has %d arguments, it must have one per axis of the source (rank %d)",
			stmt.Name(), len(body.Inputs), rank)
	}
	if err := stmt.verifyIndexOperands("body argument", body.Inputs); err != nil {
		return err
	}
	return stmt.verifyYieldedTypes(body, []shapes.Type{source.ElementType()})
}

func (stmt *Statement) verifyTiledLoop() error {
	if err := stmt.checkNumRegions(1); err != nil {
		return err
	}
	segments := operandSegments{stmt}
	if err := segments.check(loopNumGroups); err != nil {
		return err
	}
	op := &TiledLoopOp{stmt: stmt}
	sizes := segments.sizes()
	numLoops := op.NumLoops()
	if sizes[loopUpperBoundsGroup] != int64(numLoops) || sizes[loopStepsGroup] != int64(numLoops) {
		return irerrors.Verificationf("%s: number of lower bounds, upper bounds and steps must match, got %s",
			stmt.Name(), mixed.FormatStatic(sizes[:loopInputsGroup]))
	}
	if err := stmt.verifyIndexOperands("bounds or step", stmt.Inputs[:op.NumControlOperands()]); err != nil {
		return err
	}

	iterators := stmt.stringsAttr(AttrIteratorTypes)
	if len(iterators) != numLoops {
		return irerrors.Verificationf("%s: expected %d %s (one per loop), got %d",
			stmt.Name(), numLoops, AttrIteratorTypes, len(iterators))
	}
	if _, err := types.ParseIteratorTypes(iterators...); err != nil {
		return irerrors.Verificationf("%s: invalid %s: %v", stmt.Name(), AttrIteratorTypes, err)
	}
	if distribution, found := stmt.Attributes[AttrDistributionTypes].([]string); found {
		if len(distribution) != numLoops {
			return irerrors.Verificationf("%s: expected %d %s (one per loop), got %d",
				stmt.Name(), numLoops, AttrDistributionTypes, len(distribution))
		}
		if _, err := types.ParseDistributionTypes(distribution...); err != nil {
			return irerrors.Verificationf("%s: invalid %s: %v", stmt.Name(), AttrDistributionTypes, err)
		}
	}

	// Body arguments: induction variables, then tied to inputs and outputs.
	body := op.Body()
	numTied := op.NumInputs() + op.NumOutputs()
	if len(body.Inputs) != numLoops+numTied {
		return irerrors.Verificationf("%s: body must have %d arguments (%d loops + %d inputs + %d outputs), got %d",
			stmt.Name(), numLoops+numTied, numLoops, op.NumInputs(), op.NumOutputs(), len(body.Inputs))
	}
	if err := stmt.verifyIndexOperands("induction variable", body.Inputs[:numLoops]); err != nil {
		return err
	}
	for i, operand := range stmt.Inputs[op.NumControlOperands():] {
		arg := body.Inputs[numLoops+i]
		if !shapes.TypesEqual(arg.typ, operand.typ) {
			return irerrors.Verificationf("%s: body argument %s (%s) must have the type of its tied operand %s (%s)",
				stmt.Name(), arg, shapes.Describe(arg.typ), operand, shapes.Describe(operand.typ))
		}
	}

	// Results: one per tensor output.
	var tensorTypes []shapes.Type
	for i, output := range op.Outputs() {
		switch {
		case shapes.IsTensor(output.typ):
			tensorTypes = append(tensorTypes, output.typ)
		case shapes.IsBuffer(output.typ):
		default:
			return irerrors.Verificationf("%s: output #%d (%s) must be a tensor or a memref, got %s",
				stmt.Name(), i, output, shapes.Describe(output.typ))
		}
	}
	if err := stmt.checkNumOutputs(len(tensorTypes)); err != nil {
		return err
	}
	for i, result := range stmt.Outputs {
		if !shapes.TypesEqual(result.typ, tensorTypes[i]) {
			return irerrors.Verificationf("%s: result #%d must have the type of its tied output %s, got %s",
				stmt.Name(), i, shapes.Describe(tensorTypes[i]), shapes.Describe(result.typ))
		}
	}
	return stmt.verifyYieldedTypes(body, tensorTypes)
}

func (stmt *Statement) verifyYield() error {
	owner := stmt.Function.Owner
	if owner == nil || !shapeinference.YieldingOperations.Has(owner.OpType) {
		return irerrors.Verificationf("%s must terminate the region of a %s or a %s",
			stmt.Name(), optypes.PadTensor.ToMLIR(), optypes.TiledLoop.ToMLIR())
	}
	return nil
}

func (stmt *Statement) verifyIndex() error {
	if err := stmt.checkNumOutputs(1); err != nil {
		return err
	}
	dim, ok := stmt.Attributes[AttrDim].(int64)
	if !ok || dim < 0 {
		return irerrors.Verificationf("%s: %s attribute must be a non-negative integer, got %v", stmt.Name(), AttrDim, stmt.Attributes[AttrDim])
	}
	for fn := stmt.Function; fn != nil; fn = fn.Parent {
		owner := fn.Owner
		if owner == nil || !shapeinference.RegionIndexedOperations.Has(owner.OpType) {
			continue
		}
		var rank int
		if owner.OpType == optypes.PadTensor {
			if source, ok := owner.Inputs[0].ShapedType(); ok {
				rank = source.Rank()
			}
		} else {
			rank = (&TiledLoopOp{stmt: owner}).NumLoops()
		}
		if dim >= int64(rank) {
			return irerrors.Verificationf("%s: dimension %d out-of-range for the enclosing %s of rank %d",
				stmt.Name(), dim, owner.Name(), rank)
		}
		return nil
	}
	return irerrors.Verificationf("%s must be used in the region of a %s or a %s",
		stmt.Name(), optypes.PadTensor.ToMLIR(), optypes.TiledLoop.ToMLIR())
}

func (stmt *Statement) verifyConstant() error {
	if err := stmt.checkNumOutputs(1); err != nil {
		return err
	}
	value, found := stmt.Attributes[AttrValue]
	if !found {
		return irerrors.Verificationf("%s: missing %s attribute", stmt.Name(), AttrValue)
	}
	dtype, err := dtypes.FromAny(value)
	if err != nil || !shapes.TypesEqual(dtype, stmt.Outputs[0].typ) {
		return irerrors.Verificationf("%s: value %v doesn't match the result type %s",
			stmt.Name(), value, shapes.Describe(stmt.Outputs[0].typ))
	}
	return nil
}

func (stmt *Statement) verifyDim() error {
	if err := stmt.checkNumOutputs(1); err != nil {
		return err
	}
	if len(stmt.Inputs) != 2 {
		return irerrors.Verificationf("%s: expected 2 operands, got %d", stmt.Name(), len(stmt.Inputs))
	}
	if err := stmt.verifyIndexOperands("axis", stmt.Inputs[1:]); err != nil {
		return err
	}
	if axis, ok := constantIndexValue(stmt.Inputs[1]); ok {
		if _, err := shapeinference.Dim(stmt.Inputs[0].typ, axis); err != nil {
			return irerrors.Verificationf("%s: %v", stmt.Name(), err)
		}
	}
	return nil
}
