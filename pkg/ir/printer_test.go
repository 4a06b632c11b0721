package ir

import (
	"strings"
	"testing"

	"github.com/gomlx/go-shapedir/pkg/types"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
}

func buildPadProgram(t *testing.T) *Builder {
	b := New("pad")
	fn := b.Main()
	x := must1(fn.NamedInput("x", shapes.Tensor(dtypes.Float32, 1, 2, 2, dyn)))
	a := must1(fn.NamedInput("a", dtypes.Index))
	zero := must1(fn.Constant(float32(0)))
	low := must1(mixed.New([]int64{2, dyn, 3, 3}, []*Value{a}))
	high := must1(mixed.New([]int64{3, 3, dyn, 2}, []*Value{a}))
	pad := must1(PadWithValue(x, low, high, zero).Done())
	must(fn.Return(pad.Result()))
	return b
}

func buildTiledLoopProgram(t *testing.T) *Builder {
	b := New("tiled_loop")
	fn := b.Main()
	n := must1(fn.NamedInput("n", dtypes.Index))
	in := must1(fn.NamedInput("in", shapes.Tensor(dtypes.Float32, dyn, 8)))
	buf := must1(fn.NamedInput("buf", shapes.MemRef(dtypes.Float32, dyn, 8)))
	init := must1(InitTensor(fn, must1(mixed.New([]int64{dyn, 8}, []*Value{n})), dtypes.Float32))
	c0 := must1(fn.ConstantIndex(0))
	c4 := must1(fn.ConstantIndex(4))
	c8 := must1(fn.ConstantIndex(8))
	loop := must1(TiledLoop([]*Value{c0, c0}, []*Value{n, c8}, []*Value{c4, c4},
		[]*Value{in}, []*Value{buf, init.Result()}).
		Iterators(types.IteratorParallel, types.IteratorReduction).
		Distribution(types.DistributionBlockX, types.DistributionBlockY).
		Done())
	body := loop.Body()
	_ = must1(body.Index(0))
	must(body.Yield(loop.RegionOutputArgs()[1]))
	must(fn.Return(loop.Results()...))
	return b
}

func buildAllocDimProgram(t *testing.T) *Builder {
	b := New("alloc_dim")
	fn := b.Main()
	x := must1(fn.NamedInput("t", shapes.Tensor(dtypes.Float16, 4, dyn)))
	size := must1(Dim(x, 1))
	buffer := must1(Alloc(fn, shapes.MemRef(dtypes.Float16, dyn), size))
	value := must1(fn.Constant(float16.Fromfloat32(1.5)))
	pad := must1(PadWithValue(x, mixed.FromStatic[*Value](0, 0), mixed.FromStatic[*Value](0, 0), value).NoFold().Done())
	must(fn.Return(buffer, pad.Result()))

	helper := b.NewFunction("helper")
	must(helper.Return())
	return b
}

func TestPrinterGolden(t *testing.T) {
	g := newGoldie(t)
	for _, tc := range []struct {
		name    string
		build   func(t *testing.T) *Builder
		options []PrintOption
	}{
		{"pad", buildPadProgram, nil},
		{"tiled_loop", buildTiledLoopProgram, nil},
		{"tiled_loop_attributes", buildTiledLoopProgram, []PrintOption{WithAttributes()}},
		{"alloc_dim", buildAllocDimProgram, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			program, err := tc.build(t).Build(tc.options...)
			require.NoError(t, err)
			g.Assert(t, tc.name, program)
		})
	}
}

func TestPrinterOpNameStyle(t *testing.T) {
	b := buildPadProgram(t)
	program := must1(b.Build(WithOpNameStyle(strings.ToUpper)))
	text := string(program)
	require.Contains(t, text, "%1 = LINALG.PAD_TENSOR %x low[2, %a, 3, 3]")
	require.Contains(t, text, "    LINALG.YIELD %0 : f32\n")
	require.Contains(t, text, "  FUNC.RETURN %1 : tensor<6x?x?x?xf32>\n")

	// Function.String doesn't use options.
	require.Contains(t, b.Main().String(), "linalg.pad_tensor")
	require.Equal(t, "%x", b.Main().Inputs[0].String())
}

func TestFormatScalar(t *testing.T) {
	for _, tc := range []struct {
		value any
		want  string
	}{
		{float32(0), "0.0"},
		{float32(1.5), "1.5"},
		{1e20, "1.0e+20"},
		{float16.Fromfloat32(-2), "-2.0"},
		{int32(-7), "-7"},
		{7, "7"},
		{true, "true"},
	} {
		require.Equal(t, tc.want, formatScalar(tc.value), "%v (%T)", tc.value, tc.value)
	}
}
