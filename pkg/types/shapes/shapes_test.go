package shapes

import (
	"testing"

	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/stretchr/testify/require"
)

const dyn = DimDynamic

func TestRankedTensor(t *testing.T) {
	tensor, err := NewRankedTensor(dtypes.Float32, []int64{1, dyn, 0}, nil)
	require.NoError(t, err)
	require.True(t, tensor.HasRank())
	require.Equal(t, 3, tensor.Rank())
	require.Equal(t, []int64{1, dyn, 0}, tensor.Shape())
	require.Equal(t, dtypes.Float32, tensor.ElementType())
	require.False(t, tensor.IsDynamicDim(0))
	require.True(t, tensor.IsDynamicDim(1))
	require.False(t, tensor.IsDynamicDim(2), "zero is a static dimension")
	require.Equal(t, 1, tensor.NumDynamicDims())
	require.False(t, tensor.HasStaticShape())
	require.Equal(t, "tensor<1x?x0xf32>", tensor.ToMLIR())

	// Shape returns a copy.
	shape := tensor.Shape()
	shape[0] = 7
	require.Equal(t, []int64{1, dyn, 0}, tensor.Shape())

	scalar := Tensor(dtypes.Int32)
	require.Equal(t, "tensor<i32>", scalar.ToMLIR())
	require.NotNil(t, scalar.Shape())
	require.Equal(t, 0, scalar.Rank())

	_, err = NewRankedTensor(dtypes.Float32, []int64{-2}, nil)
	require.True(t, irerrors.IsConstruction(err))
	_, err = NewRankedTensor(dtypes.InvalidDType, []int64{2}, nil)
	require.True(t, irerrors.IsConstruction(err))
	_, err = NewRankedTensor(MemRef(dtypes.Float32, 2), []int64{2}, nil)
	require.True(t, irerrors.IsConstruction(err), "tensors of memrefs are not allowed")
	require.Panics(t, func() { _ = Tensor(dtypes.Float32, -3) })

	encoded, err := NewRankedTensor(dtypes.Float32, []int64{4}, StringAttr("sparse"))
	require.NoError(t, err)
	require.Equal(t, `tensor<4xf32, "sparse">`, encoded.ToMLIR())
	require.False(t, TypesEqual(encoded, Tensor(dtypes.Float32, 4)))
}

func TestRoundTrip(t *testing.T) {
	for _, shape := range [][]int64{{}, {3}, {dyn, 2}, {0, dyn, dyn}} {
		tensor, err := NewRankedTensor(dtypes.Float16, shape, nil)
		require.NoError(t, err)
		require.Equal(t, dtypes.Float16, tensor.ElementType())
		require.Equal(t, shape, tensor.Shape())

		memref, err := NewMemRef(dtypes.Int64, shape, nil, nil)
		require.NoError(t, err)
		require.Equal(t, dtypes.Int64, memref.ElementType())
		require.Equal(t, shape, memref.Shape())
	}
}

func TestDynamicDimIndex(t *testing.T) {
	tensor := Tensor(dtypes.Float32, dyn, 3, dyn, dyn)
	idx, err := tensor.DynamicDimIndex(0)
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	idx, err = tensor.DynamicDimIndex(3)
	require.NoError(t, err)
	require.Equal(t, 2, idx)

	_, err = tensor.DynamicDimIndex(1)
	require.True(t, irerrors.IsPrecondition(err))
	_, err = tensor.DynamicDimIndex(4)
	require.True(t, irerrors.IsPrecondition(err))

	unranked, err := NewUnrankedTensor(dtypes.Float32)
	require.NoError(t, err)
	_, err = unranked.DynamicDimIndex(0)
	require.True(t, irerrors.IsPrecondition(err))
}

func TestMemRefLayout(t *testing.T) {
	plain := MemRef(dtypes.Float32, 4, dyn)
	withIdentity, err := NewMemRef(dtypes.Float32, []int64{4, dyn}, IdentityMap(2), IntegerAttr(0))
	require.NoError(t, err)
	require.True(t, TypesEqual(plain, withIdentity), "identity layout and default memory space are normalized away")
	require.Nil(t, withIdentity.Layout())
	require.Nil(t, withIdentity.MemorySpace())
	require.Equal(t, "memref<4x?xf32>", withIdentity.ToMLIR())

	transposed, err := PermutationMap(1, 0)
	require.NoError(t, err)
	mt, err := NewMemRef(dtypes.Float32, []int64{4, dyn}, transposed, IntegerAttr(1))
	require.NoError(t, err)
	require.False(t, TypesEqual(plain, mt))
	require.Equal(t, "memref<4x?xf32, affine_map<(d0, d1) -> (d1, d0)>, 1>", mt.ToMLIR())

	strided := StridedMap(2, 8, 1)
	ms, err := NewMemRef(dtypes.Float32, []int64{4, 8}, strided, StringAttr("shared"))
	require.NoError(t, err)
	require.Equal(t, `memref<4x8xf32, affine_map<(d0, d1) -> (d0 * 8 + d1 + 2)>, "shared">`, ms.ToMLIR())

	_, err = NewMemRef(dtypes.Float32, []int64{4}, transposed, nil)
	require.True(t, irerrors.IsConstruction(err), "layout rank must match memref rank")

	_, err = PermutationMap(0, 0)
	require.True(t, irerrors.IsConstruction(err))

	_, err = NewAffineMap(1, 0, AffineDim(1))
	require.True(t, irerrors.IsConstruction(err))
	m, err := NewAffineMap(2, 1, AffineMul(AffineAdd(AffineDim(0), AffineSymbol(0)), AffineConstant(4)), AffineDim(1))
	require.NoError(t, err)
	require.Equal(t, "affine_map<(d0, d1)[s0] -> ((d0 + s0) * 4, d1)>", m.ToMLIR())
	require.False(t, m.IsIdentity())

	// Nested memrefs are valid memref elements.
	nested, err := NewMemRef(plain, []int64{2}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "memref<2xmemref<4x?xf32>>", nested.ToMLIR())
}

func TestUnranked(t *testing.T) {
	ut, err := NewUnrankedTensor(dtypes.Float32)
	require.NoError(t, err)
	require.False(t, ut.HasRank())
	require.Equal(t, -1, ut.Rank())
	require.Nil(t, ut.Shape())
	require.True(t, ut.IsDynamicDim(0))
	require.Equal(t, "tensor<*xf32>", ut.ToMLIR())

	um, err := NewUnrankedMemRef(dtypes.Int8, IntegerAttr(2))
	require.NoError(t, err)
	require.Equal(t, "memref<*xi8, 2>", um.ToMLIR())

	// Cloning with a shape returns the ranked variant.
	ranked, err := ut.CloneWith([]int64{2, dyn}, nil)
	require.NoError(t, err)
	require.True(t, TypesEqual(ranked, Tensor(dtypes.Float32, 2, dyn)))
	rankedMemRef, err := um.CloneWith([]int64{3}, nil)
	require.NoError(t, err)
	require.Equal(t, "memref<3xi8, 2>", rankedMemRef.ToMLIR())

	require.False(t, TypesEqual(ut, Tensor(dtypes.Float32)))
}

func TestVector(t *testing.T) {
	v := Vector(dtypes.Float32, 4, 8)
	require.Equal(t, "vector<4x8xf32>", v.ToMLIR())
	scalable, err := NewVector(dtypes.Float32, []int64{4, 8}, 1)
	require.NoError(t, err)
	require.Equal(t, "vector<4x[8]xf32>", scalable.ToMLIR())
	require.True(t, scalable.IsScalable())
	require.False(t, TypesEqual(v, scalable))

	_, err = NewVector(dtypes.Float32, []int64{dyn}, 0)
	require.True(t, irerrors.IsConstruction(err))
	_, err = NewVector(dtypes.Float32, []int64{0}, 0)
	require.True(t, irerrors.IsConstruction(err))
	_, err = NewVector(dtypes.Float32, nil, 0)
	require.True(t, irerrors.IsConstruction(err))
	_, err = NewVector(dtypes.Bool, []int64{4}, 0)
	require.True(t, irerrors.IsConstruction(err))
	_, err = NewVector(dtypes.Float32, []int64{4}, 2)
	require.True(t, irerrors.IsConstruction(err))

	// Vectors are valid tensor and memref elements.
	tensorOfVectors := Tensor(v, dyn)
	require.Equal(t, "tensor<?xvector<4x8xf32>>", tensorOfVectors.ToMLIR())
	require.Equal(t, "memref<2xvector<4x8xf32>>", MemRef(v, 2).ToMLIR())

	_, err = scalable.CloneWith([]int64{3}, nil)
	require.NoError(t, err)
}

func TestCloneWith(t *testing.T) {
	transposed, err := PermutationMap(1, 0)
	require.NoError(t, err)
	memref, err := NewMemRef(dtypes.Float32, []int64{4, dyn}, transposed, IntegerAttr(3))
	require.NoError(t, err)
	encoded, err := NewRankedTensor(dtypes.Int32, []int64{dyn}, StringAttr("enc"))
	require.NoError(t, err)
	unrankedMemRef, err := NewUnrankedMemRef(dtypes.Float64, IntegerAttr(1))
	require.NoError(t, err)
	scalable, err := NewVector(dtypes.Index, []int64{2, 4}, 1)
	require.NoError(t, err)

	// Idempotence: cloning with the current shape and element type yields an equal type.
	for _, st := range []ShapedType{memref, encoded, unrankedMemRef, scalable, Tensor(dtypes.Bool, 0, 3)} {
		clone, err := st.CloneWith(st.Shape(), st.ElementType())
		require.NoError(t, err)
		require.True(t, TypesEqual(st, clone), "clone of %s: got %s", st, clone)

		clone, err = st.CloneWith(nil, nil)
		require.NoError(t, err)
		require.True(t, TypesEqual(st, clone), "clone of %s: got %s", st, clone)
	}

	// Other fields are preserved.
	clone, err := memref.CloneWith([]int64{8, 8}, dtypes.Float16)
	require.NoError(t, err)
	require.Equal(t, "memref<8x8xf16, affine_map<(d0, d1) -> (d1, d0)>, 3>", clone.ToMLIR())
	clone, err = encoded.CloneWith(nil, dtypes.Uint8)
	require.NoError(t, err)
	require.Equal(t, `tensor<?xui8, "enc">`, clone.ToMLIR())

	// Changing the rank of a memref with a layout is not possible.
	_, err = memref.CloneWith([]int64{8}, nil)
	require.True(t, irerrors.IsConstruction(err))
}

func TestParseDims(t *testing.T) {
	dims, err := ParseDims("1x2x2x?")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 2, dyn}, dims)
	require.Equal(t, "1x2x2x?", FormatDims(dims))

	dims, err = ParseDims("")
	require.NoError(t, err)
	require.Empty(t, dims)

	_, err = ParseDims("1xfoo")
	require.Error(t, err)
	_, err = ParseDims("-1")
	require.Error(t, err)
}

func TestNumElements(t *testing.T) {
	n, ok := Tensor(dtypes.Float32, 2, 3, 4).NumElements()
	require.True(t, ok)
	require.Equal(t, int64(24), n)
	_, ok = MemRef(dtypes.Float32, 2, dyn).NumElements()
	require.False(t, ok)
}
