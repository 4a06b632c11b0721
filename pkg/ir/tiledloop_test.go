package ir

import (
	"slices"
	"testing"

	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/stretchr/testify/require"
)

type loopFixture struct {
	b                         *Builder
	fn                        *Function
	lb, ub, step              *Value
	buffer                    *Value
	tensorA, tensorB, tensorC *Value
	input                     *Value
	loop                      *TiledLoopOp
}

func mixedStatic(values ...int64) mixed.List[*Value] {
	return mixed.FromStatic[*Value](values...)
}

// newLoopFixture creates a 1-dimensional loop with one input and outputs [buffer, tensorA, buffer, tensorB].
func newLoopFixture(t *testing.T) *loopFixture {
	f := &loopFixture{b: New(t.Name())}
	f.fn = f.b.Main()
	f.buffer = must1(f.fn.Input(shapes.MemRef(dtypes.Float32, 8)))
	f.tensorA = must1(f.fn.Input(shapes.Tensor(dtypes.Float32, 8)))
	f.tensorB = must1(f.fn.Input(shapes.Tensor(dtypes.Int32, dyn)))
	f.tensorC = must1(f.fn.Input(shapes.Tensor(dtypes.Float64, 4, 4)))
	f.input = must1(f.fn.Input(dtypes.Float32))
	f.lb = must1(f.fn.ConstantIndex(0))
	f.ub = must1(f.fn.ConstantIndex(8))
	f.step = must1(f.fn.ConstantIndex(2))
	f.loop = must1(TiledLoop(
		[]*Value{f.lb}, []*Value{f.ub}, []*Value{f.step},
		[]*Value{f.input},
		[]*Value{f.buffer, f.tensorA, f.buffer, f.tensorB}).Done())
	return f
}

// terminate yields the body arguments tied to tensor outputs, returns the loop results and verifies.
func (f *loopFixture) terminate(t *testing.T) {
	var yielded []*Value
	for _, arg := range f.loop.RegionOutputArgs() {
		if shapes.IsTensor(arg.Type()) {
			yielded = append(yielded, arg)
		}
	}
	must(f.loop.Body().Yield(yielded...))
	must(f.fn.Return(f.loop.Results()...))
	require.NoError(t, f.b.Verify())
}

func TestTiledLoopResults(t *testing.T) {
	f := newLoopFixture(t)
	loop := f.loop
	require.Equal(t, 1, loop.NumLoops())
	require.Equal(t, 1, loop.NumInputs())
	require.Equal(t, 4, loop.NumOutputs())
	require.Equal(t, 3, loop.NumControlOperands())
	require.Equal(t, []int64{1, 1, 1, 1, 4}, loop.Statement().int64sAttr(AttrOperandSegmentSizes))

	// Only tensor outputs produce results.
	results := loop.Results()
	require.Len(t, results, 2)
	require.Equal(t, "tensor<8xf32>", results[0].Type().ToMLIR())
	require.Equal(t, "tensor<?xi32>", results[1].Type().ToMLIR())

	// Operands: lb, ub, step, input, buffer, tensorA, buffer, tensorB.
	for operandIndex, want := range map[int]*Value{4: nil, 5: results[0], 6: nil, 7: results[1]} {
		got, err := loop.TiedResult(operandIndex)
		require.NoError(t, err)
		require.Same(t, want, got, "operand #%d", operandIndex)
	}
	_, err := loop.TiedResult(3)
	require.True(t, irerrors.IsPrecondition(err), "input has no tied result: %v", err)

	// Body arguments: iv, input, buffer, tensorA, buffer, tensorB.
	body := loop.Body()
	require.Len(t, body.Inputs, 6)
	require.Equal(t, []*Value{body.Inputs[0]}, loop.InductionVars())
	require.Equal(t, []*Value{body.Inputs[1]}, loop.RegionInputArgs())
	require.Equal(t, body.Inputs[2:], loop.RegionOutputArgs())
	require.True(t, shapes.TypesEqual(dtypes.Index, body.Inputs[0].Type()))
	for operandIndex := 3; operandIndex < 8; operandIndex++ {
		arg := must1(loop.TiedBlockArgument(operandIndex))
		require.True(t, shapes.TypesEqual(loop.Statement().Inputs[operandIndex].Type(), arg.Type()))
		require.Equal(t, operandIndex, must1(loop.TiedOperandIndex(arg)))
	}
	_, err = loop.TiedBlockArgument(1)
	require.True(t, irerrors.IsPrecondition(err), "bounds have no tied argument: %v", err)
	_, err = loop.TiedOperandIndex(body.Inputs[0])
	require.True(t, irerrors.IsPrecondition(err), "induction variables are not tied: %v", err)

	iterators := must1(loop.IteratorTypes())
	require.Equal(t, []types.IteratorType{types.IteratorParallel}, iterators)
	distribution := must1(loop.DistributionTypes())
	require.Nil(t, distribution)

	f.terminate(t)
}

func TestTiledLoopAppend(t *testing.T) {
	f := newLoopFixture(t)
	loop := f.loop
	tiedBefore := make(map[int]*Value)
	for operandIndex := 3; operandIndex < 8; operandIndex++ {
		tiedBefore[operandIndex] = must1(loop.TiedBlockArgument(operandIndex))
	}
	ivs := loop.InductionVars()

	// Appending an input inserts the body argument right after the existing input arguments.
	extra := must1(f.fn.Constant(int32(7)))
	arg := must1(loop.AppendInput(extra))
	require.Equal(t, 2, loop.NumInputs())
	require.Same(t, arg, loop.Body().Inputs[loop.NumLoops()+1])
	require.Equal(t, loop.NumLoops()+1, arg.ArgNumber())
	require.Same(t, extra, loop.Statement().Inputs[4])
	require.Equal(t, 4, must1(loop.TiedOperandIndex(arg)))
	require.Equal(t, []int64{1, 1, 1, 2, 4}, loop.Statement().int64sAttr(AttrOperandSegmentSizes))
	require.Equal(t, ivs, loop.InductionVars())
	require.Len(t, loop.Results(), 2)

	// Previous ties are preserved, with outputs shifted by one operand.
	require.Same(t, tiedBefore[3], must1(loop.TiedBlockArgument(3)))
	for operandIndex := 4; operandIndex < 8; operandIndex++ {
		require.Same(t, tiedBefore[operandIndex], must1(loop.TiedBlockArgument(operandIndex+1)))
	}

	// Appending a tensor output adds a result, appending a buffer doesn't.
	outArg := must1(loop.AppendOutput(f.tensorC))
	require.Len(t, loop.Results(), 3)
	require.Same(t, loop.Results()[2], must1(loop.TiedResult(9)))
	require.Same(t, outArg, loop.Body().Inputs[len(loop.Body().Inputs)-1])
	require.Equal(t, "tensor<4x4xf64>", loop.Results()[2].Type().ToMLIR())

	_ = must1(loop.AppendOutput(f.buffer))
	require.Len(t, loop.Results(), 3)
	require.Equal(t, 6, loop.NumOutputs())
	require.Nil(t, must1(loop.TiedResult(10)))

	// Scalars can't be outputs.
	_, err := loop.AppendOutput(f.input)
	require.True(t, irerrors.IsConstruction(err), "got %v", err)
	require.Equal(t, 6, loop.NumOutputs())

	f.terminate(t)
}

func TestTiledLoopErase(t *testing.T) {
	f := newLoopFixture(t)
	loop := f.loop

	// Bounds and steps can't be erased.
	for operandIndex := range 3 {
		err := loop.EraseOperand(operandIndex)
		require.True(t, irerrors.IsPrecondition(err), "operand #%d: %v", operandIndex, err)
	}
	require.Len(t, loop.Statement().Inputs, 8)

	// Unused input.
	inputArg := loop.RegionInputArgs()[0]
	err := loop.EraseInput(0)
	require.NoError(t, err)
	require.Equal(t, 0, loop.NumInputs())
	require.Len(t, loop.Body().Inputs, 5)
	_, err = loop.TiedOperandIndex(inputArg)
	require.Error(t, err)

	// Erasing the first buffer output: results are kept.
	results := loop.Results()
	require.NoError(t, loop.EraseOutput(0))
	require.Equal(t, 3, loop.NumOutputs())
	require.Equal(t, results, loop.Results())
	require.Equal(t, []int64{1, 1, 1, 0, 3}, loop.Statement().int64sAttr(AttrOperandSegmentSizes))
	require.Equal(t, []*Value{f.tensorA, f.buffer, f.tensorB}, loop.Outputs())

	// Erasing tensorA also removes its result, and renumbers the remaining one.
	require.NoError(t, loop.EraseOutput(0))
	require.Equal(t, []*Value{results[1]}, loop.Results())
	require.Equal(t, 0, results[1].ResultNumber())
	require.Same(t, results[1], must1(loop.TiedResult(loop.NumControlOperands()+1)))

	// tensorB's body argument is used by the yield, and its result by the return: it can't be erased.
	tensorBArg := must1(loop.TiedBlockArgument(loop.NumControlOperands() + 1))
	must(loop.Body().Yield(tensorBArg))
	must(f.fn.Return(results[1]))
	err = loop.EraseOutput(1)
	require.True(t, irerrors.IsPrecondition(err), "got %v", err)
	require.Equal(t, 2, loop.NumOutputs())
	require.Len(t, loop.Results(), 1)

	require.Len(t, loop.Body().Inputs, 3)
	require.NoError(t, f.b.Verify())

	// Out-of-range.
	err = loop.EraseOutput(2)
	require.True(t, irerrors.IsPrecondition(err), "got %v", err)
	err = loop.EraseOperand(100)
	require.True(t, irerrors.IsPrecondition(err), "got %v", err)
}

func TestTiledLoopEraseArgumentInUse(t *testing.T) {
	f := newLoopFixture(t)
	loop := f.loop
	inputArg := loop.RegionInputArgs()[0]

	// Use the input argument inside a nested region of the body.
	_ = must1(PadWithValue(loop.RegionOutputArgs()[1], mixedStatic(1), mixedStatic(1), inputArg).Done())
	before := slices.Clone(loop.Statement().Inputs)
	err := loop.EraseInput(0)
	require.True(t, irerrors.IsPrecondition(err), "got %v", err)
	require.Equal(t, before, loop.Statement().Inputs)
	require.Equal(t, 1, loop.NumInputs())
	require.Len(t, loop.Body().Inputs, 6)
	require.Same(t, inputArg, loop.RegionInputArgs()[0])
}

func TestTiledLoopAttributes(t *testing.T) {
	b := New(t.Name())
	fn := b.Main()
	n := must1(fn.Input(dtypes.Index))
	out := must1(fn.Input(shapes.Tensor(dtypes.Float32, dyn, dyn)))
	zero := must1(fn.ConstantIndex(0))
	one := must1(fn.ConstantIndex(1))

	newLoop := func() *TiledLoopBuilder {
		return TiledLoop([]*Value{zero, zero}, []*Value{n, n}, []*Value{one, one}, nil, []*Value{out})
	}

	t.Run("valid", func(t *testing.T) {
		loop := must1(newLoop().
			Iterators(types.IteratorParallel, types.IteratorReduction).
			Distribution(types.DistributionBlockX, types.DistributionBlockY).
			Done())
		require.Equal(t, []string{"parallel", "reduction"}, loop.Statement().stringsAttr(AttrIteratorTypes))
		require.Equal(t, []types.DistributionType{types.DistributionBlockX, types.DistributionBlockY},
			must1(loop.DistributionTypes()))
		_ = must1(loop.Body().Index(1))
		must(loop.Body().Yield(loop.RegionOutputArgs()...))
		require.NoError(t, loop.Statement().Verify())
	})

	t.Run("iterators count mismatch", func(t *testing.T) {
		loop := must1(newLoop().Iterators(types.IteratorParallel).Done())
		must(loop.Body().Yield(loop.RegionOutputArgs()...))
		err := loop.Statement().Verify()
		require.True(t, irerrors.IsVerification(err), "got %v", err)
	})

	t.Run("distribution count mismatch", func(t *testing.T) {
		loop := must1(newLoop().Distribution(types.DistributionThreadX).Done())
		must(loop.Body().Yield(loop.RegionOutputArgs()...))
		err := loop.Statement().Verify()
		require.True(t, irerrors.IsVerification(err), "got %v", err)
	})

	t.Run("index out-of-range", func(t *testing.T) {
		loop := must1(newLoop().Done())
		_ = must1(loop.Body().Index(2))
		must(loop.Body().Yield(loop.RegionOutputArgs()...))
		err := loop.Statement().Verify()
		require.True(t, irerrors.IsVerification(err), "got %v", err)
	})

	t.Run("yield mismatch", func(t *testing.T) {
		loop := must1(newLoop().Done())
		must(loop.Body().Yield())
		err := loop.Statement().Verify()
		require.True(t, irerrors.IsVerification(err), "got %v", err)
	})

	t.Run("no loops", func(t *testing.T) {
		_, err := TiledLoop(nil, nil, nil, nil, []*Value{out}).Done()
		require.True(t, irerrors.IsConstruction(err), "got %v", err)
	})

	t.Run("bounds count mismatch", func(t *testing.T) {
		_, err := TiledLoop([]*Value{zero}, []*Value{n, n}, []*Value{one}, nil, []*Value{out}).Done()
		require.True(t, irerrors.IsConstruction(err), "got %v", err)
	})

	t.Run("non-index bound", func(t *testing.T) {
		f32 := must1(fn.Constant(float32(1)))
		_, err := TiledLoop([]*Value{f32}, []*Value{n}, []*Value{one}, nil, []*Value{out}).Done()
		require.True(t, irerrors.IsConstruction(err), "got %v", err)
	})
}
