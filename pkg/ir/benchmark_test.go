package ir

import (
	"flag"
	"testing"

	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/janpfeifer/go-benchmarks"
)

var flagBenchDuration = flag.Duration("bench_duration", 0, "Benchmark duration, typically use 10 seconds. If left as 0, benchmark tests are disabled")

// TestBenchTiledLoopEdits measures appending and erasing operands of a loop with many inputs.
func TestBenchTiledLoopEdits(t *testing.T) {
	if testing.Short() || *flagBenchDuration == 0 {
		t.Skip("Benchmarks disabled: set --bench_duration to enable them.")
	}
	b := New(t.Name())
	fn := b.Main()
	x := must1(fn.Input(shapes.Tensor(dtypes.Float32, 16, dyn)))
	zero := must1(fn.ConstantIndex(0))
	one := must1(fn.ConstantIndex(1))
	inputs := make([]*Value, 32)
	for i := range inputs {
		inputs[i] = x
	}
	loop := must1(TiledLoop([]*Value{zero}, []*Value{one}, []*Value{one}, inputs, []*Value{x}).Done())
	f32Zero := must1(fn.Constant(float32(0)))
	low := mixed.FromStatic[*Value](1, 1)

	benchFns := []benchmarks.NamedFunction{
		{Name: "TiledLoop/AppendInput+EraseInput", Func: func() {
			_ = must1(loop.AppendInput(x))
			must(loop.EraseInput(loop.NumInputs() - 1))
		}},
		{Name: "TiledLoop/TiedResult", Func: func() { _, _ = loop.TiedResult(loop.NumControlOperands() + loop.NumInputs()) }},
		{Name: "PadWithValue", Func: func() { _ = must1(PadWithValue(x, low, low, f32Zero).Done()) }},
	}
	for ii, benchFn := range benchFns {
		benchmarks.New(benchFn).
			WithWarmUps(100).
			WithDuration(*flagBenchDuration).
			WithHeader(ii == 0).
			Done()
	}
}
