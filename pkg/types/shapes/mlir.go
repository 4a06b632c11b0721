package shapes

import (
	"fmt"
	"io"
	"strings"
)

func toMLIR(t ShapedType) string {
	var sb strings.Builder
	_ = WriteMLIR(&sb, t)
	return sb.String()
}

// WriteMLIR writes the textual representation of the shaped type to the given writer.
func WriteMLIR(writer io.Writer, t ShapedType) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}
	writeDims := func(dims []int64, numScalable int) {
		for i, dim := range dims {
			scalable := i >= len(dims)-numScalable
			if scalable {
				w("[")
			}
			if dim == DimDynamic {
				w("?")
			} else {
				w("%d", dim)
			}
			if scalable {
				w("]")
			}
			w("x")
		}
	}

	switch st := t.(type) {
	case *RankedTensorType:
		w("tensor<")
		writeDims(st.dims, 0)
		w("%s", st.elementType.ToMLIR())
		if st.encoding != nil {
			w(", %s", st.encoding.ToMLIR())
		}
		w(">")
	case *UnrankedTensorType:
		w("tensor<*x%s>", st.elementType.ToMLIR())
	case *MemRefType:
		w("memref<")
		writeDims(st.dims, 0)
		w("%s", st.elementType.ToMLIR())
		if st.layout != nil {
			w(", %s", st.layout.ToMLIR())
		}
		if st.memorySpace != nil {
			w(", %s", st.memorySpace.ToMLIR())
		}
		w(">")
	case *UnrankedMemRefType:
		w("memref<*x%s", st.elementType.ToMLIR())
		if st.memorySpace != nil {
			w(", %s", st.memorySpace.ToMLIR())
		}
		w(">")
	case *VectorType:
		w("vector<")
		writeDims(st.dims, st.numScalableDims)
		w("%s>", st.elementType.ToMLIR())
	default:
		w("<unknown shaped type %T>", t)
	}
	return err
}
