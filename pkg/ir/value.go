package ir

import (
	"fmt"
	"io"

	"github.com/gomlx/go-shapedir/pkg/types/shapes"
)

// Value represents a value in a program, like `%0` or `%arg0`.
// These values can be inputs (block arguments) of functions and region bodies, or results of operations.
//
// It is always associated with the function where it is defined, and it is uniquely named within its
// top-level function, including the region bodies nested in it.
//
// It also carries its type.
type Value struct {
	fn   *Function
	name string
	typ  shapes.Type

	// stmt is the statement that created this value. It is nil for block arguments.
	stmt *Statement

	// index is the position of this value in stmt.Outputs, or in fn.Inputs for block arguments.
	index int
}

// Type of the value.
func (v *Value) Type() shapes.Type {
	return v.typ
}

// ShapedType returns the type of the value as a shapes.ShapedType, if it is one.
func (v *Value) ShapedType() (shapes.ShapedType, bool) {
	st, ok := v.typ.(shapes.ShapedType)
	return st, ok
}

// Function where the value is defined.
func (v *Value) Function() *Function {
	return v.fn
}

// Statement that created the value, or nil for block arguments.
func (v *Value) Statement() *Statement {
	return v.stmt
}

// IsBlockArgument returns whether the value is an input of a function or of a region body.
func (v *Value) IsBlockArgument() bool {
	return v.stmt == nil
}

// ArgNumber returns the position of a block argument in its function inputs, or -1 for operation results.
func (v *Value) ArgNumber() int {
	if v.stmt != nil {
		return -1
	}
	return v.index
}

// ResultNumber returns the position of an operation result in the statement outputs, or -1 for block arguments.
func (v *Value) ResultNumber() int {
	if v.stmt == nil {
		return -1
	}
	return v.index
}

// Write writes the value name in textual format to the given writer.
func (v *Value) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%%%s", v.name)
	return err
}

// String implements fmt.Stringer.
func (v *Value) String() string {
	return "%" + v.name
}

// valuesTypes returns the types of the values.
func valuesTypes(values []*Value) []shapes.Type {
	types := make([]shapes.Type, len(values))
	for i, v := range values {
		types[i] = v.typ
	}
	return types
}
