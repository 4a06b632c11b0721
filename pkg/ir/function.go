package ir

import (
	"fmt"
	"slices"

	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/internal/utils"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
)

// Function represents a top-level function of a program, or the body of a region of an operation
// (a closure).
type Function struct {
	Builder *Builder

	// Name of a top-level function. It is empty for closures.
	Name string

	// Parent of a closure. It is nil for top-level functions.
	Parent *Function

	// Owner is the statement whose region is this closure. It is nil for top-level functions, and for
	// closures not yet given to an operation.
	Owner *Statement

	// Inputs are the block arguments of the function.
	Inputs []*Value

	// Outputs are the values returned (or yielded, for closures) by the function.
	Outputs []*Value

	// Statements of the function, in order. If the function has returned, the last one is the terminator.
	Statements []*Statement

	// Returned indicates the function has been terminated with Return or Yield, and no more operations
	// can be added.
	Returned bool

	// names in use by values of the top-level function, including its closures. Only set for top-level functions.
	names           utils.Set[string]
	nextID, nextArg int
}

// Closure creates a new function to be used as the body of a region of an operation of fn.
// Values of fn (and of its ancestors) can be used in the closure.
func (fn *Function) Closure() *Function {
	return &Function{
		Builder: fn.Builder,
		Parent:  fn,
	}
}

// IsClosure returns whether fn is the body of a region, as opposed to a top-level function.
func (fn *Function) IsClosure() bool {
	return fn.Parent != nil
}

// root returns the top-level function of fn.
func (fn *Function) root() *Function {
	for fn.Parent != nil {
		fn = fn.Parent
	}
	return fn
}

// describe fn for error messages.
func (fn *Function) describe() string {
	if !fn.IsClosure() {
		return fmt.Sprintf("function %q", fn.Name)
	}
	if fn.Owner != nil {
		return fmt.Sprintf("region of %s in function %q", fn.Owner.OpType.ToMLIR(), fn.root().Name)
	}
	return fmt.Sprintf("closure in function %q", fn.root().Name)
}

// isAncestorOrSelf returns whether other is fn or one of its ancestors.
func (fn *Function) isAncestorOrSelf(other *Function) bool {
	for f := fn; f != nil; f = f.Parent {
		if f == other {
			return true
		}
	}
	return false
}

// newValue creates a new result value, uniquely named within the top-level function.
func (fn *Function) newValue(t shapes.Type) *Value {
	root := fn.root()
	var name string
	for {
		name = fmt.Sprintf("%d", root.nextID)
		root.nextID++
		if !root.names.Has(name) {
			break
		}
	}
	root.names.Insert(name)
	return &Value{fn: fn, name: name, typ: t}
}

// newArgument creates a new block argument, not yet inserted in fn.Inputs.
func (fn *Function) newArgument(name string, t shapes.Type) *Value {
	root := fn.root()
	if name == "" {
		for {
			name = fmt.Sprintf("arg%d", root.nextArg)
			root.nextArg++
			if !root.names.Has(name) {
				break
			}
		}
	}
	root.names.Insert(name)
	return &Value{fn: fn, name: name, typ: t, index: -1}
}

// insertInputs inserts block arguments at position pos, and renumbers the following ones.
func (fn *Function) insertInputs(pos int, args ...*Value) {
	fn.Inputs = slices.Insert(slices.Clone(fn.Inputs), pos, args...)
	fn.renumberInputs()
}

// eraseInput removes the block argument at position pos, and renumbers the following ones.
func (fn *Function) eraseInput(pos int) {
	arg := fn.Inputs[pos]
	fn.Inputs = slices.Delete(slices.Clone(fn.Inputs), pos, pos+1)
	fn.renumberInputs()
	arg.index = -1
}

func (fn *Function) renumberInputs() {
	for i, arg := range fn.Inputs {
		arg.index = i
	}
}

// checkCanAddInput returns an error if fn cannot get new block arguments.
func (fn *Function) checkCanAddInput() error {
	if fn.Returned || len(fn.Statements) > 0 {
		return irerrors.Constructionf("cannot add inputs to %s after operations were added", fn.describe())
	}
	if fn.Owner != nil {
		return irerrors.Constructionf("cannot add inputs to %s: its arguments are managed by the operation", fn.describe())
	}
	return nil
}

// Input creates a new input (block argument) of the given type for the function.
// All inputs must be created before any operation is added to the function.
func (fn *Function) Input(t shapes.Type) (*Value, error) {
	return fn.NamedInput("", t)
}

// NamedInput creates a new input with the given name, normalized to contain only letters, digits and
// underscores. If name is empty, a unique name is generated.
func (fn *Function) NamedInput(name string, t shapes.Type) (*Value, error) {
	if err := fn.checkCanAddInput(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, irerrors.Constructionf("cannot add an input of nil type to %s", fn.describe())
	}
	name = utils.NormalizeIdentifier(name)
	if name != "" && fn.root().names.Has(name) {
		return nil, irerrors.Constructionf("input name %q already in use in %s", name, fn.describe())
	}
	arg := fn.newArgument(name, t)
	fn.insertInputs(len(fn.Inputs), arg)
	return arg, nil
}

// checkOperands returns an error if fn can't take new operations, or if the operands can't be used in fn.
func (fn *Function) checkOperands(op optypes.OpType, operands ...*Value) error {
	if fn.Returned {
		return irerrors.Constructionf("cannot add operation %s after returning, in %s", op.ToMLIR(), fn.describe())
	}
	for i, operand := range operands {
		if operand == nil {
			return irerrors.Constructionf("operation %s in %s: operand #%d is nil", op.ToMLIR(), fn.describe(), i)
		}
		if !fn.isAncestorOrSelf(operand.fn) {
			return irerrors.Constructionf("cannot add operation %s to %s, because operand #%d (%s) is defined in %s, out of scope",
				op.ToMLIR(), fn.describe(), i, operand, operand.fn.describe())
		}
	}
	return nil
}

// innerMostFunction returns the innermost function among the functions of the values.
// The functions must all be in the same ancestry line, otherwise an error is returned.
func innerMostFunction(values ...*Value) (*Function, error) {
	var fn *Function
	for i, v := range values {
		if v == nil {
			return nil, irerrors.Constructionf("value #%d is nil", i)
		}
		switch {
		case fn == nil || v.fn.isAncestorOrSelf(fn):
			fn = v.fn
		case fn.isAncestorOrSelf(v.fn):
		default:
			return nil, irerrors.Constructionf("values %s and %s are defined in incompatible functions (%s and %s)",
				values[0], v, fn.describe(), v.fn.describe())
		}
	}
	if fn == nil {
		return nil, irerrors.Constructionf("no values given")
	}
	return fn, nil
}

// terminate adds the terminator statement of fn.
func (fn *Function) terminate(op optypes.OpType, values []*Value) error {
	if err := fn.checkOperands(op, values...); err != nil {
		return err
	}
	fn.addOp(op, nil, slices.Clone(values)...)
	fn.Outputs = slices.Clone(values)
	fn.Returned = true
	return nil
}

// Return terminates a top-level function, returning the given values.
// Use Yield to terminate closures.
func (fn *Function) Return(values ...*Value) error {
	if fn.IsClosure() {
		return irerrors.Constructionf("%s must be terminated with Yield, not Return", fn.describe())
	}
	return fn.terminate(optypes.Return, values)
}

// Yield terminates the body of a region (a closure), yielding the given values to the operation that
// owns the region. The number and types of yielded values required depend on the owner operation, and
// are checked by Verify:
//
//   - Pad: exactly one value of the element type of the source.
//   - TiledLoop: one value per tensor output (none if all outputs are memrefs), of the output types.
func (fn *Function) Yield(values ...*Value) error {
	if !fn.IsClosure() {
		return irerrors.Constructionf("%s is not a region body, it must be terminated with Return", fn.describe())
	}
	return fn.terminate(optypes.Yield, values)
}

// Index returns the current iteration index of the given dimension of the operation enclosing the region
// body fn. The result is of type index.
//
// The dimension must be non-negative, and less than the rank of the padding or the number of loops
// of the tiled loop, which is checked by Verify.
func (fn *Function) Index(dim int) (*Value, error) {
	op := optypes.Index
	if err := fn.checkOperands(op); err != nil {
		return nil, err
	}
	if !fn.IsClosure() {
		return nil, irerrors.Constructionf("%s can only be used in a region body, not in %s", op.ToMLIR(), fn.describe())
	}
	if dim < 0 {
		return nil, irerrors.Constructionf("%s: dimension must be non-negative, got %d", op.ToMLIR(), dim)
	}
	stmt := fn.addOp(op, []shapes.Type{dtypes.Index})
	stmt.Attributes[AttrDim] = int64(dim)
	return stmt.Outputs[0], nil
}
