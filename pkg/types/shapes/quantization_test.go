package shapes

import (
	"testing"

	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
)

func TestQuantization_ToMLIR(t *testing.T) {
	tests := []struct {
		name string
		q    *Quantization
		want string
	}{
		{
			name: "Nil Quantization",
			q:    nil,
			want: "<nil>",
		},
		{
			name: "Per-Tensor",
			q:    UniformQuantization(dtypes.Int8, dtypes.Float32, 0.025, 0),
			want: "!quant.uniform<i8:f32, 0.025:0>",
		},
		{
			name: "Per-Axis",
			q: &Quantization{
				StorageType:   dtypes.Int8,
				ExpressedType: dtypes.Float32,
				QuantizedAxes: []int{0},
				Scales:        []float64{0.1, 0.2, 0.15},
				ZeroPoints:    []int64{0, 2, -1},
			},
			want: "!quant.uniform<i8:f32:0, {0.1:0, 0.2:2, 0.15:-1}>",
		},
		{
			name: "Blockwise",
			q: &Quantization{
				StorageType:   dtypes.Uint8,
				ExpressedType: dtypes.Float16,
				QuantizedAxes: []int{1},
				BlockSizes:    []int64{32},
				Scales:        []float64{0.5, 0.6},
				ZeroPoints:    []int64{8, 8},
			},
			want: "!quant.uniform<ui8:f16:{1:32}, {0.5:8, 0.6:8}>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.ToMLIR(); got != tt.want {
				t.Errorf("Quantization.ToMLIR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuantizationAsElementType(t *testing.T) {
	q := UniformQuantization(dtypes.Int8, dtypes.Float32, 0.1, 0)
	tensor, err := NewRankedTensor(q, []int64{1, 10}, nil)
	if err != nil {
		t.Fatalf("NewRankedTensor: %+v", err)
	}
	want := "tensor<1x10x!quant.uniform<i8:f32, 0.1:0>>"
	if got := tensor.ToMLIR(); got != want {
		t.Errorf("ToMLIR() = %q, want %q", got, want)
	}

	// A clone of the quantization is a different pointer, but the same type.
	other := Tensor(q.Clone(), 1, 10)
	if !TypesEqual(tensor, other) {
		t.Errorf("expected %s and %s to be equal", tensor, other)
	}
	differentScale := Tensor(UniformQuantization(dtypes.Int8, dtypes.Float32, 0.2, 0), 1, 10)
	if TypesEqual(tensor, differentScale) {
		t.Errorf("expected %s and %s to differ", tensor, differentScale)
	}
}
