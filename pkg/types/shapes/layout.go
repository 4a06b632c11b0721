package shapes

import (
	"fmt"
	"strings"

	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/pkg/errors"
)

// Layout maps the logical index tuple of a memref to its physical position.
// Its domain rank (NumDims) must match the rank of the memref.
type Layout interface {
	ToMLIR() string

	// NumDims is the number of logical indices the layout takes.
	NumDims() int

	// IsIdentity returns whether the layout is the default row-major identity, which is normalized away.
	IsIdentity() bool
}

// LayoutsEqual compares two optional layouts by value. A nil layout equals an identity layout.
func LayoutsEqual(a, b Layout) bool {
	if a != nil && a.IsIdentity() {
		a = nil
	}
	if b != nil && b.IsIdentity() {
		b = nil
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ToMLIR() == b.ToMLIR()
}

// AffineExpr is one result expression of an AffineMap.
type AffineExpr interface {
	fmt.Stringer
	isAffineExpr()
}

type affineDim int

func (d affineDim) String() string { return fmt.Sprintf("d%d", int(d)) }
func (affineDim) isAffineExpr()    {}

type affineSymbol int

func (s affineSymbol) String() string { return fmt.Sprintf("s%d", int(s)) }
func (affineSymbol) isAffineExpr()    {}

type affineConstant int64

func (c affineConstant) String() string { return fmt.Sprintf("%d", int64(c)) }
func (affineConstant) isAffineExpr()    {}

type affineBinary struct {
	op       byte // '+' or '*'
	lhs, rhs AffineExpr
}

func (b affineBinary) String() string {
	lhs, rhs := b.lhs.String(), b.rhs.String()
	if b.op == '*' {
		// Additions bind weaker than multiplications.
		if inner, ok := b.lhs.(affineBinary); ok && inner.op == '+' {
			lhs = "(" + lhs + ")"
		}
		if inner, ok := b.rhs.(affineBinary); ok && inner.op == '+' {
			rhs = "(" + rhs + ")"
		}
	}
	return fmt.Sprintf("%s %c %s", lhs, b.op, rhs)
}
func (affineBinary) isAffineExpr() {}

// AffineDim returns the expression for the logical index at position pos.
func AffineDim(pos int) AffineExpr { return affineDim(pos) }

// AffineSymbol returns the expression for the symbol at position pos.
func AffineSymbol(pos int) AffineExpr { return affineSymbol(pos) }

// AffineConstant returns a constant expression.
func AffineConstant(value int64) AffineExpr { return affineConstant(value) }

// AffineAdd returns lhs + rhs.
func AffineAdd(lhs, rhs AffineExpr) AffineExpr { return affineBinary{op: '+', lhs: lhs, rhs: rhs} }

// AffineMul returns lhs * rhs.
func AffineMul(lhs, rhs AffineExpr) AffineExpr { return affineBinary{op: '*', lhs: lhs, rhs: rhs} }

// AffineMap is a Layout given by a list of affine expressions of the logical indices (d0, d1, ...)
// and symbols (s0, s1, ...).
type AffineMap struct {
	numDims, numSymbols int
	results             []AffineExpr
}

var _ Layout = (*AffineMap)(nil)

// NewAffineMap creates an affine map. It checks that the expressions only refer to existing dims and symbols.
func NewAffineMap(numDims, numSymbols int, results ...AffineExpr) (*AffineMap, error) {
	if numDims < 0 || numSymbols < 0 {
		return nil, irerrors.Constructionf("affine map with negative number of dims (%d) or symbols (%d)", numDims, numSymbols)
	}
	for i, expr := range results {
		if err := checkAffineExpr(expr, numDims, numSymbols); err != nil {
			return nil, irerrors.Constructionf("affine map result #%d (%v): %v", i, expr, err)
		}
	}
	return &AffineMap{numDims: numDims, numSymbols: numSymbols, results: append([]AffineExpr(nil), results...)}, nil
}

func checkAffineExpr(expr AffineExpr, numDims, numSymbols int) error {
	switch e := expr.(type) {
	case nil:
		return errors.Errorf("nil expression")
	case affineDim:
		if int(e) < 0 || int(e) >= numDims {
			return errors.Errorf("dim %s out of range for %d dims", e, numDims)
		}
	case affineSymbol:
		if int(e) < 0 || int(e) >= numSymbols {
			return errors.Errorf("symbol %s out of range for %d symbols", e, numSymbols)
		}
	case affineBinary:
		if err := checkAffineExpr(e.lhs, numDims, numSymbols); err != nil {
			return err
		}
		return checkAffineExpr(e.rhs, numDims, numSymbols)
	}
	return nil
}

// IdentityMap returns the identity layout for the given rank.
func IdentityMap(rank int) *AffineMap {
	results := make([]AffineExpr, rank)
	for i := range results {
		results[i] = affineDim(i)
	}
	return &AffineMap{numDims: rank, results: results}
}

// PermutationMap returns the layout that stores the logical axes in the given order.
// It returns a construction error if permutation is not a permutation of [0, len(permutation)).
func PermutationMap(permutation ...int) (*AffineMap, error) {
	seen := make([]bool, len(permutation))
	results := make([]AffineExpr, len(permutation))
	for i, axis := range permutation {
		if axis < 0 || axis >= len(permutation) || seen[axis] {
			return nil, irerrors.Constructionf("invalid permutation %v", permutation)
		}
		seen[axis] = true
		results[i] = affineDim(axis)
	}
	return &AffineMap{numDims: len(permutation), results: results}, nil
}

// StridedMap returns the linear layout `offset + sum(d_i * strides[i])`.
func StridedMap(offset int64, strides ...int64) *AffineMap {
	var expr AffineExpr
	for i, stride := range strides {
		var term AffineExpr = affineDim(i)
		if stride != 1 {
			term = AffineMul(term, affineConstant(stride))
		}
		if expr == nil {
			expr = term
		} else {
			expr = AffineAdd(expr, term)
		}
	}
	switch {
	case expr == nil:
		expr = affineConstant(offset)
	case offset != 0:
		expr = AffineAdd(expr, affineConstant(offset))
	}
	return &AffineMap{numDims: len(strides), results: []AffineExpr{expr}}
}

// NumDims implements Layout.
func (m *AffineMap) NumDims() int { return m.numDims }

// NumSymbols returns the number of symbols of the map.
func (m *AffineMap) NumSymbols() int { return m.numSymbols }

// Results returns a copy of the result expressions.
func (m *AffineMap) Results() []AffineExpr { return append([]AffineExpr(nil), m.results...) }

// IsIdentity implements Layout.
func (m *AffineMap) IsIdentity() bool {
	if m.numSymbols != 0 || len(m.results) != m.numDims {
		return false
	}
	for i, expr := range m.results {
		if dim, ok := expr.(affineDim); !ok || int(dim) != i {
			return false
		}
	}
	return true
}

// ToMLIR implements Layout, e.g.: `affine_map<(d0, d1)[s0] -> (d1, d0 + s0)>`.
func (m *AffineMap) ToMLIR() string {
	var sb strings.Builder
	sb.WriteString("affine_map<(")
	for i := range m.numDims {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(affineDim(i).String())
	}
	sb.WriteString(")")
	if m.numSymbols > 0 {
		sb.WriteString("[")
		for i := range m.numSymbols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(affineSymbol(i).String())
		}
		sb.WriteString("]")
	}
	sb.WriteString(" -> (")
	for i, expr := range m.results {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(expr.String())
	}
	sb.WriteString(")>")
	return sb.String()
}

// String implements fmt.Stringer.
func (m *AffineMap) String() string { return m.ToMLIR() }
