package ir

import (
	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
)

// Names of the attributes of the operations.
const (
	AttrStaticSizes         = "static_sizes"
	AttrStaticLow           = "static_low"
	AttrStaticHigh          = "static_high"
	AttrNoFold              = "nofold"
	AttrOperandSegmentSizes = "operand_segment_sizes"
	AttrIteratorTypes       = "iterator_types"
	AttrDistributionTypes   = "distribution_types"
	AttrDim                 = "dim"
	AttrValue               = "value"
)

// Statement represents a single operation of a function: its operands (Inputs), its results (Outputs),
// its attributes and the bodies of its regions.
//
// Attribute values are one of: []int64, []string, int64, bool or, for constants, a Go scalar value.
type Statement struct {
	Builder  *Builder
	Function *Function
	OpType   optypes.OpType

	// Inputs is the flat list of operands. For operations with variadic groups of operands, the groups are
	// recorded in the AttrOperandSegmentSizes attribute.
	Inputs []*Value

	// Outputs are the results of the operation.
	Outputs []*Value

	Attributes map[string]any

	// Regions are the bodies owned by the operation, each a closure of Function.
	Regions []*Function
}

// addOp adds a new operation to the function.
func (fn *Function) addOp(opType optypes.OpType, outputTypes []shapes.Type, inputs ...*Value) *Statement {
	stmt := &Statement{
		Builder:    fn.Builder,
		Function:   fn,
		OpType:     opType,
		Inputs:     inputs,
		Attributes: make(map[string]any),
	}
	stmt.Outputs = make([]*Value, len(outputTypes))
	for i, t := range outputTypes {
		stmt.Outputs[i] = stmt.newResult(i, t)
	}
	fn.Statements = append(fn.Statements, stmt)
	return stmt
}

// newResult creates a new result value for the statement, with the given result number.
func (stmt *Statement) newResult(index int, t shapes.Type) *Value {
	v := stmt.Function.newValue(t)
	v.stmt = stmt
	v.index = index
	return v
}

// renumberOutputs resets the result numbers after a change in stmt.Outputs.
func (stmt *Statement) renumberOutputs() {
	for i, v := range stmt.Outputs {
		v.index = i
	}
}

// addRegion attaches the closure body as a region of the statement.
func (stmt *Statement) addRegion(body *Function) {
	body.Owner = stmt
	stmt.Regions = append(stmt.Regions, body)
}

// Name returns the textual name of the operation, e.g. "linalg.pad_tensor".
func (stmt *Statement) Name() string {
	return stmt.OpType.ToMLIR()
}

// int64sAttr returns an []int64 attribute, or nil if not set.
func (stmt *Statement) int64sAttr(key string) []int64 {
	values, _ := stmt.Attributes[key].([]int64)
	return values
}

// stringsAttr returns a []string attribute, or nil if not set.
func (stmt *Statement) stringsAttr(key string) []string {
	values, _ := stmt.Attributes[key].([]string)
	return values
}

// usesValue returns whether the statement, or any statement in its regions, uses v as an operand.
func (stmt *Statement) usesValue(v *Value) bool {
	for _, input := range stmt.Inputs {
		if input == v {
			return true
		}
	}
	for _, region := range stmt.Regions {
		if region.usesValue(v) {
			return true
		}
	}
	return false
}

// usesValue returns whether any statement of fn, including nested regions and the terminator, uses v.
func (fn *Function) usesValue(v *Value) bool {
	for _, stmt := range fn.Statements {
		if stmt.usesValue(v) {
			return true
		}
	}
	return false
}
