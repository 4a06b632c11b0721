package ir

import (
	"slices"

	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
)

// operandSegments views the flat operand list of a statement as contiguous variadic groups, whose sizes are
// recorded in the AttrOperandSegmentSizes attribute.
//
// Edits are computed on copies by the "with*" methods, and then applied at once with commit, so the operand
// list and the recorded sizes never go out of sync.
type operandSegments struct {
	stmt *Statement
}

func (s operandSegments) sizes() []int64 {
	return s.stmt.int64sAttr(AttrOperandSegmentSizes)
}

// groupRange returns the range of operand indices of the group.
func (s operandSegments) groupRange(group int) (start, end int) {
	sizes := s.sizes()
	for _, size := range sizes[:group] {
		start += int(size)
	}
	return start, start + int(sizes[group])
}

// group returns the operands of the group.
func (s operandSegments) group(group int) []*Value {
	start, end := s.groupRange(group)
	return slices.Clone(s.stmt.Inputs[start:end])
}

// groupOf returns the group of the operand index, and its position within the group.
func (s operandSegments) groupOf(operandIndex int) (group, pos int, err error) {
	if operandIndex < 0 || operandIndex >= len(s.stmt.Inputs) {
		return 0, 0, irerrors.Preconditionf("operand index %d out-of-range for %s with %d operands",
			operandIndex, s.stmt.Name(), len(s.stmt.Inputs))
	}
	start := 0
	for group, size := range s.sizes() {
		if operandIndex < start+int(size) {
			return group, operandIndex - start, nil
		}
		start += int(size)
	}
	return 0, 0, irerrors.Preconditionf("operand index %d not covered by %s=%s of %s",
		operandIndex, AttrOperandSegmentSizes, mixed.FormatStatic(s.sizes()), s.stmt.Name())
}

// check verifies that the recorded sizes are non-negative and cover exactly the operands.
func (s operandSegments) check(numGroups int) error {
	sizes, found := s.stmt.Attributes[AttrOperandSegmentSizes].([]int64)
	if !found {
		return irerrors.Verificationf("%s: missing %s attribute", s.stmt.Name(), AttrOperandSegmentSizes)
	}
	if len(sizes) != numGroups {
		return irerrors.Verificationf("%s: %s=%s must have %d groups",
			s.stmt.Name(), AttrOperandSegmentSizes, mixed.FormatStatic(sizes), numGroups)
	}
	var sum int64
	for _, size := range sizes {
		if size < 0 {
			return irerrors.Verificationf("%s: %s=%s has negative sizes", s.stmt.Name(), AttrOperandSegmentSizes, mixed.FormatStatic(sizes))
		}
		sum += size
	}
	if sum != int64(len(s.stmt.Inputs)) {
		return irerrors.Verificationf("%s: %s=%s sums to %d, but the operation has %d operands",
			s.stmt.Name(), AttrOperandSegmentSizes, mixed.FormatStatic(sizes), sum, len(s.stmt.Inputs))
	}
	return nil
}

// withAppended returns the operands and sizes resulting from appending v at the end of the group, and the
// operand index v would take.
func (s operandSegments) withAppended(group int, v *Value) (operands []*Value, sizes []int64, operandIndex int) {
	_, end := s.groupRange(group)
	operands = slices.Insert(slices.Clone(s.stmt.Inputs), end, v)
	sizes = slices.Clone(s.sizes())
	sizes[group]++
	return operands, sizes, end
}

// withErased returns the operands and sizes resulting from removing the operand at operandIndex.
func (s operandSegments) withErased(operandIndex int) (operands []*Value, sizes []int64, err error) {
	group, _, err := s.groupOf(operandIndex)
	if err != nil {
		return nil, nil, err
	}
	operands = slices.Delete(slices.Clone(s.stmt.Inputs), operandIndex, operandIndex+1)
	sizes = slices.Clone(s.sizes())
	sizes[group]--
	return operands, sizes, nil
}

// commit replaces the operands and the recorded sizes.
func (s operandSegments) commit(operands []*Value, sizes []int64) {
	s.stmt.Inputs = operands
	s.stmt.Attributes[AttrOperandSegmentSizes] = sizes
}
