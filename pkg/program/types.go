package program

import (
	"strconv"
	"strings"

	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/pkg/errors"
)

// ParseType parses a type in textual format: a scalar ("f32", "index", ...), or a tensor, memref or
// vector type ("tensor<?x3xf32>", "tensor<*xi8>", "memref<4x?xf16>", "vector<4xf32>").
//
// Memref layouts and memory spaces, tensor encodings and scalable vectors are not supported.
func ParseType(text string) (shapes.Type, error) {
	text = strings.TrimSpace(text)
	kind, body, found := strings.Cut(text, "<")
	if !found {
		dtype, err := dtypes.FromMLIR(text)
		if err != nil {
			return nil, err
		}
		return dtype, nil
	}
	if !strings.HasSuffix(body, ">") {
		return nil, errors.Errorf("type %q: missing closing '>'", text)
	}
	body = body[:len(body)-1]

	// The dimensions come first, separated by "x", followed by the element type, which may contain "x"s.
	parts := strings.Split(body, "x")
	unranked := false
	dims := make([]int64, 0, len(parts))
	numDims := 0
	for _, part := range parts[:len(parts)-1] {
		if part == "*" && numDims == 0 && !unranked {
			unranked = true
			numDims++
			continue
		}
		if part == "?" {
			dims = append(dims, shapes.DimDynamic)
			numDims++
			continue
		}
		dim, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			break
		}
		dims = append(dims, dim)
		numDims++
	}
	elementText := strings.Join(parts[numDims:], "x")
	element, err := ParseType(elementText)
	if err != nil {
		return nil, errors.WithMessagef(err, "type %q: element type", text)
	}
	if unranked && len(dims) > 0 {
		return nil, errors.Errorf("type %q: unranked types can't have dimensions", text)
	}

	var t shapes.Type
	switch kind {
	case "tensor":
		if unranked {
			t, err = shapes.NewUnrankedTensor(element)
		} else {
			t, err = shapes.NewRankedTensor(element, dims, nil)
		}
	case "memref":
		if unranked {
			t, err = shapes.NewUnrankedMemRef(element, nil)
		} else {
			t, err = shapes.NewMemRef(element, dims, nil, nil)
		}
	case "vector":
		if unranked {
			return nil, errors.Errorf("type %q: vectors must be ranked", text)
		}
		t, err = shapes.NewVector(element, dims, 0)
	default:
		return nil, errors.Errorf("type %q: unknown kind %q", text, kind)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "type %q", text)
	}
	return t, nil
}
