// Package ir builds programs of structured operations over shaped values (tensors and memrefs), whose
// dimensions, padding amounts and loop bounds mix values known at compile time and values only known
// at run time.
//
// Programs are built with a Builder, that holds top-level functions. Operations are added to a Function
// with the functions of this package (InitTensor, Pad, TiledLoop, ...), that validate their inputs, infer
// the result types and return the resulting values.
//
// Operations with region bodies (Pad, TiledLoop) use child functions, created with Function.Closure, and
// terminated with Function.Yield.
//
// Errors are classified with the package irerrors: malformed arguments given to a builder are construction
// errors; structural invariants violated by a constructed program are verification errors, detected by
// Builder.Verify; and queries or mutations outside their documented domain are precondition errors.
//
// Example:
//
//	b := ir.New("pad")
//	fn := b.Main()
//	x := must.M1(fn.Input(shapes.Tensor(dtypes.Float32, 1, dyn)))
//	n := must.M1(fn.Input(dtypes.Index))
//	zero := must.M1(fn.Constant(float32(0)))
//	low := mixed.FromEntries([]mixed.Entry[*ir.Value]{mixed.Static[*ir.Value](1), mixed.Dynamic(n)})
//	high := mixed.FromStatic[*ir.Value](2, 0)
//	pad := must.M1(ir.PadWithValue(x, low, high, zero).Done())
//	must.M(fn.Return(pad.Result()))
//	program := must.M1(b.Build())
package ir

import (
	"bytes"
	"io"
	"slices"

	"github.com/gomlx/go-shapedir/internal/utils"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Builder is used to construct a program of structured operations.
//
// It holds the top-level functions of the program. See New, Builder.Main and Builder.NewFunction.
type Builder struct {
	name      string
	functions []*Function
}

// New creates a new Builder for a program with the given name.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Name of the program being built.
func (b *Builder) Name() string {
	return b.name
}

// MainName is the name of the function returned by Builder.Main.
const MainName = "main"

// Main returns the "main" function of the program, creating it if it doesn't exist yet.
func (b *Builder) Main() *Function {
	for _, fn := range b.functions {
		if fn.Name == MainName {
			return fn
		}
	}
	return b.NewFunction(MainName)
}

// NewFunction creates a new top-level function with the given name.
// The name is normalized to contain only letters, digits and underscores.
func (b *Builder) NewFunction(name string) *Function {
	fn := &Function{
		Builder: b,
		Name:    utils.NormalizeIdentifier(name),
		names:   make(utils.Set[string]),
	}
	b.functions = append(b.functions, fn)
	return fn
}

// Functions returns the top-level functions of the program, in order of creation.
func (b *Builder) Functions() []*Function {
	return slices.Clone(b.functions)
}

// Verify checks the structural invariants of every function of the program.
// It returns the first verification error found.
func (b *Builder) Verify() error {
	names := make(utils.Set[string])
	for _, fn := range b.functions {
		if names.Has(fn.Name) {
			return irerrors.Verificationf("program %q has more than one function named %q", b.name, fn.Name)
		}
		names.Insert(fn.Name)
		if err := fn.Verify(); err != nil {
			return errors.WithMessagef(err, "program %q", b.name)
		}
	}
	klog.V(2).Infof("program %q verified: %d functions", b.name, len(b.functions))
	return nil
}

// Write the program in textual format to w.
func (b *Builder) Write(w io.Writer, options ...PrintOption) error {
	p := newPrinter(w, options)
	for i, fn := range b.functions {
		if i > 0 {
			p.printf("\n")
		}
		p.function(fn)
	}
	return p.err
}

// Build verifies the program and returns it in textual format.
func (b *Builder) Build(options ...PrintOption) ([]byte, error) {
	if err := b.Verify(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := b.Write(&buf, options...); err != nil {
		return nil, errors.Wrapf(err, "failed to write program %q", b.name)
	}
	return buf.Bytes(), nil
}
