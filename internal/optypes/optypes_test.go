package optypes

import "testing"

func TestToMLIR(t *testing.T) {
	for op := Invalid + 1; op < Last; op++ {
		if _, found := mlirNames[op]; !found {
			t.Errorf("OpType %s has no textual name", op)
		}
	}
	if got := PadTensor.ToMLIR(); got != "linalg.pad_tensor" {
		t.Errorf("PadTensor.ToMLIR()=%q", got)
	}
	if got := Invalid.ToMLIR(); got != "unknown.Invalid" {
		t.Errorf("Invalid.ToMLIR()=%q", got)
	}
	if !Yield.IsTerminator() || TiledLoop.IsTerminator() {
		t.Error("IsTerminator() mismatch")
	}
	if op, err := OpTypeString("tiledloop"); err != nil || op != TiledLoop {
		t.Errorf("OpTypeString(\"tiledloop\")=%s, %v", op, err)
	}
}
