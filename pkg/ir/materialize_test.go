package ir

import (
	"bytes"
	"testing"

	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTensor(t *testing.T) {
	b := New(t.Name())
	fn := b.Main()
	n := must1(fn.Input(dtypes.Index))
	m := must1(fn.Input(dtypes.Index))
	i32 := must1(fn.Input(dtypes.Int32))

	sizes := mixed.FromEntries([]mixed.Entry[*Value]{
		mixed.Static[*Value](4), mixed.Dynamic(n), mixed.Static[*Value](8), mixed.Dynamic(m)})
	op := must1(InitTensor(fn, sizes, dtypes.Float32))
	assert.Equal(t, "tensor<4x?x8x?xf32>", op.Result().Type().ToMLIR())
	assert.Equal(t, []*Value{n, m}, op.Statement().Inputs)
	assert.Equal(t, []int64{4, dyn, 8, dyn}, op.Statement().int64sAttr(AttrStaticSizes))
	assert.Equal(t, sizes.StaticValues(), must1(op.Sizes()).StaticValues())
	assert.Equal(t, sizes.DynamicValues(), must1(op.Sizes()).DynamicValues())
	assert.False(t, op.IsStatic())
	assert.Equal(t, 0, op.Result().ResultNumber())

	static := must1(InitTensor(fn, mixed.FromStatic[*Value](2, 3), dtypes.Int8))
	assert.Equal(t, "tensor<2x3xi8>", static.Result().Type().ToMLIR())
	assert.True(t, static.IsStatic())
	assert.Empty(t, static.Statement().Inputs)

	// Scalar tensor.
	scalar := must1(InitTensor(fn, mixed.List[*Value]{}, dtypes.Float64))
	assert.Equal(t, "tensor<f64>", scalar.Result().Type().ToMLIR())
	assert.Equal(t, []int64{}, scalar.Statement().int64sAttr(AttrStaticSizes))

	_, err := InitTensor(fn, mixed.FromDynamic(i32), dtypes.Float32)
	assert.True(t, irerrors.IsConstruction(err), "non-index size: %v", err)
	_, err = InitTensor(fn, mixed.FromStatic[*Value](-2), dtypes.Float32)
	assert.True(t, irerrors.IsConstruction(err), "negative size: %v", err)

	must(fn.Return(op.Result(), static.Result(), scalar.Result()))
	require.NoError(t, b.Verify())

	// Breaking the static sizes attribute is reported by Verify.
	op.Statement().Attributes[AttrStaticSizes] = []int64{4, dyn, 8}
	err = b.Verify()
	require.True(t, irerrors.IsVerification(err), "got %v", err)
	_, err = op.Sizes()
	assert.True(t, irerrors.IsVerification(err), "inconsistent sizes: %v", err)
	_, err = b.Build()
	assert.Error(t, err)
	var buf bytes.Buffer
	err = b.Write(&buf)
	assert.True(t, irerrors.IsVerification(err), "printing inconsistent sizes: %v", err)
}

func TestAlloc(t *testing.T) {
	b := New(t.Name())
	fn := b.Main()
	n := must1(fn.Input(dtypes.Index))

	buffer := must1(Alloc(fn, shapes.MemRef(dtypes.Float32, 4, dyn), n))
	assert.Equal(t, "memref<4x?xf32>", buffer.Type().ToMLIR())
	assert.Equal(t, []*Value{n}, buffer.Statement().Inputs)
	assert.True(t, shapes.IsBuffer(buffer.Type()))

	static := must1(Alloc(fn, shapes.MemRef(dtypes.Int64, 16)))
	assert.Equal(t, "memref<16xi64>", static.Type().ToMLIR())

	_, err := Alloc(fn, shapes.MemRef(dtypes.Float32, 4, dyn))
	assert.True(t, irerrors.IsConstruction(err), "missing dynamic size: %v", err)
	_, err = Alloc(fn, shapes.MemRef(dtypes.Float32, 4), n)
	assert.True(t, irerrors.IsConstruction(err), "extra dynamic size: %v", err)
	_, err = Alloc(fn, nil)
	assert.True(t, irerrors.IsConstruction(err), "nil type: %v", err)

	must(fn.Return(buffer, static))
	require.NoError(t, b.Verify())
}
