package shapeinference

import (
	"math"
	"testing"

	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
)

const dyn = shapes.DimDynamic

// TestPad verifies the result shape rule of padding with static and dynamic amounts.
func TestPad(t *testing.T) {
	tests := []struct {
		name        string
		source      shapes.ShapedType
		low, high   []int64
		hint        []int64
		want        string
		shouldError bool
	}{
		{
			name:   "all static",
			source: shapes.Tensor(dtypes.Float32, 2, 3),
			low:    []int64{1, 0},
			high:   []int64{2, 4},
			want:   "tensor<5x7xf32>",
		},
		{
			name:   "dynamic source dimension",
			source: shapes.Tensor(dtypes.Float32, dyn, 3),
			low:    []int64{1, 0},
			high:   []int64{2, 1},
			want:   "tensor<?x4xf32>",
		},
		{
			// low = [2, %a, 3, 3], high = [3, 3, %a, 2]
			name:   "runtime amounts make dimensions dynamic",
			source: shapes.Tensor(dtypes.Float32, 1, 2, 2, dyn),
			low:    []int64{2, dyn, 3, 3},
			high:   []int64{3, 3, dyn, 2},
			want:   "tensor<6x?x?x?xf32>",
		},
		{
			name:   "hint only for unresolved dimensions",
			source: shapes.Tensor(dtypes.Int32, 1, 2, 2, dyn),
			low:    []int64{2, dyn, 3, 3},
			high:   []int64{3, 3, dyn, 2},
			hint:   []int64{100, 8, dyn, 10},
			want:   "tensor<6x8x?x10xi32>",
		},
		{
			name:   "zero padding keeps the shape",
			source: shapes.Tensor(dtypes.Float32, 0, 3),
			low:    []int64{0, 0},
			high:   []int64{0, 0},
			want:   "tensor<0x3xf32>",
		},
		{
			name:        "low rank mismatch",
			source:      shapes.Tensor(dtypes.Float32, 2, 3),
			low:         []int64{1},
			high:        []int64{2, 4},
			shouldError: true,
		},
		{
			name:        "hint rank mismatch",
			source:      shapes.Tensor(dtypes.Float32, 2, 3),
			low:         []int64{1, 1},
			high:        []int64{2, 4},
			hint:        []int64{dyn},
			shouldError: true,
		},
		{
			name:        "negative amount",
			source:      shapes.Tensor(dtypes.Float32, 2, 3),
			low:         []int64{-1, 1},
			high:        []int64{2, 4},
			shouldError: true,
		},
		{
			name:   "largest static dimension",
			source: shapes.Tensor(dtypes.Float32, 1),
			low:    []int64{math.MaxInt64 - 1},
			high:   []int64{0},
			want:   "tensor<9223372036854775807xf32>",
		},
		{
			name:        "low overflows",
			source:      shapes.Tensor(dtypes.Float32, 1),
			low:         []int64{math.MaxInt64},
			high:        []int64{0},
			shouldError: true,
		},
		{
			name:        "high overflows",
			source:      shapes.Tensor(dtypes.Float32, 5, 2),
			low:         []int64{0, 0},
			high:        []int64{math.MaxInt64 - 4, 0},
			shouldError: true,
		},
		{
			name:        "memref source",
			source:      shapes.MemRef(dtypes.Float32, 2, 3),
			low:         []int64{1, 1},
			high:        []int64{2, 4},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := Pad(tt.source, tt.low, tt.high, tt.hint)
			if tt.shouldError {
				if err == nil {
					t.Fatalf("Expected error but got none, output: %s", output)
				}
				if !irerrors.IsConstruction(err) {
					t.Errorf("Expected a construction error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := output.ToMLIR(); got != tt.want {
				t.Errorf("Pad(%s)=%s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestInitTensor(t *testing.T) {
	output, err := InitTensor([]int64{4, dyn, 0}, 1, dtypes.Float32)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := output.ToMLIR(); got != "tensor<4x?x0xf32>" {
		t.Errorf("InitTensor()=%s", got)
	}
	if _, err = InitTensor([]int64{4, dyn}, 2, dtypes.Float32); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error for mismatched dynamic count, got %v", err)
	}
	if _, err = InitTensor([]int64{-2}, 0, dtypes.Float32); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error for negative size, got %v", err)
	}
}

func TestAlloc(t *testing.T) {
	if err := Alloc(shapes.MemRef(dtypes.Float32, dyn, 4, dyn), 2); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := Alloc(shapes.MemRef(dtypes.Float32, dyn, 4), 0); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error, got %v", err)
	}
	if err := Alloc(shapes.Tensor(dtypes.Float32, 4), 0); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error for tensor, got %v", err)
	}
}

func TestTiledLoop(t *testing.T) {
	index := []shapes.Type{dtypes.Index, dtypes.Index}
	buffer := shapes.MemRef(dtypes.Float32, 8, 8)
	tensorA := shapes.Tensor(dtypes.Float32, 8, dyn)
	tensorB := shapes.Tensor(dtypes.Int8, 8)
	results, err := TiledLoop(index, index, index, []shapes.Type{buffer, tensorA, buffer, tensorB})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(results) != 2 || !shapes.TypesEqual(results[0], tensorA) || !shapes.TypesEqual(results[1], tensorB) {
		t.Errorf("Unexpected results %v", results)
	}

	if _, err = TiledLoop(index, index[:1], index, nil); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error for mismatched bounds, got %v", err)
	}
	if _, err = TiledLoop([]shapes.Type{dtypes.Int64}, index[:1], index[:1], nil); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error for non-index bound, got %v", err)
	}
	if _, err = TiledLoop(index, index, index, []shapes.Type{dtypes.Float32}); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error for scalar output, got %v", err)
	}
}

// TestDimsCompatible tests that dynamic dimensions match anything.
func TestDimsCompatible(t *testing.T) {
	tests := []struct {
		name       string
		a, b       []int64
		compatible bool
	}{
		{"exact match", []int64{1, 2, 3}, []int64{1, 2, 3}, true},
		{"dynamic matches static", []int64{dyn, dyn, dyn}, []int64{1, 2, 3}, true},
		{"static mismatch", []int64{1, 2, 3}, []int64{1, 2, 4}, false},
		{"different ranks", []int64{1, 2}, []int64{1, 2, 3}, false},
		{"scalars", []int64{}, []int64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DimsCompatible(tt.a, tt.b); got != tt.compatible {
				t.Errorf("DimsCompatible(%v, %v)=%v, want %v", tt.a, tt.b, got, tt.compatible)
			}
		})
	}
}

func TestDim(t *testing.T) {
	if _, err := Dim(shapes.Tensor(dtypes.Float32, 2, dyn), 1); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, err := Dim(shapes.Tensor(dtypes.Float32, 2), 1); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error for out-of-range axis, got %v", err)
	}
	if _, err := Dim(shapes.Vector(dtypes.Float32, 2), 0); !irerrors.IsConstruction(err) {
		t.Errorf("Expected construction error for vector, got %v", err)
	}
}
