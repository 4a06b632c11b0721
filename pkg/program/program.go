// Package program describes programs of structured operations in YAML files, and translates them to the
// ir package.
//
// A program file lists top-level functions. Each function has typed inputs, a body of statements and the
// names of the values it returns. Statements refer to values by name: function inputs, results of previous
// statements (named with "id", or "ids" for tiled loops) and, inside region bodies, the region arguments
// (named with "args").
//
// Example:
//
//	name: pad_example
//	functions:
//	  - name: main
//	    inputs:
//	      - {name: x, type: "tensor<1x2x2x?xf32>"}
//	      - {name: a, type: index}
//	    body:
//	      - {id: zero, op: constant, value: 0, dtype: f32}
//	      - {id: padded, op: pad, source: x, low: [2, a, 3, 3], high: [3, 3, a, 2], pad_value: zero}
//	    return: [padded]
package program

import (
	"bytes"
	"os"

	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Program is the description of a program loaded from YAML.
type Program struct {
	// Name of the program.
	Name string `yaml:"name"`

	// Functions are the top-level functions, the first one is usually "main".
	Functions []*Function `yaml:"functions"`
}

// Function is a top-level function of a Program.
type Function struct {
	Name   string       `yaml:"name"`
	Inputs []Input      `yaml:"inputs,omitempty"`
	Body   []*Statement `yaml:"body,omitempty"`

	// Return lists the names of the returned values.
	Return []string `yaml:"return,omitempty"`
}

// Input is a named and typed function input.
type Input struct {
	Name string `yaml:"name"`

	// Type in textual format, e.g. "index", "f32", "tensor<?x3xf32>" or "memref<4xi8>".
	Type string `yaml:"type"`
}

// Statement describes one operation. Which fields are used depends on the operation:
//
//   - constant: value, dtype.
//   - init_tensor: sizes, dtype (the element type).
//   - alloc: type (a memref), sizes (the names of the dynamic sizes).
//   - pad: source, low, high, either pad_value or args+body+yield, and optionally nofold and hint.
//   - dim: source, axis.
//   - index: axis (the loop or padding dimension).
//   - tiled_loop: lower, upper, step, ins, outs, iterators, distribution, args, body, yield; and ids to
//     name its results.
//
// The mixed lists (sizes, low, high) hold integers for static entries and value names for runtime ones.
// The hint holds integers, or "?" for axes without a hint.
type Statement struct {
	ID  string   `yaml:"id,omitempty"`
	IDs []string `yaml:"ids,omitempty"`
	Op  string   `yaml:"op"`

	Value any    `yaml:"value,omitempty"`
	DType string `yaml:"dtype,omitempty"`
	Type  string `yaml:"type,omitempty"`
	Sizes []any  `yaml:"sizes,omitempty"`

	Source   string `yaml:"source,omitempty"`
	Low      []any  `yaml:"low,omitempty"`
	High     []any  `yaml:"high,omitempty"`
	PadValue string `yaml:"pad_value,omitempty"`
	NoFold   bool   `yaml:"nofold,omitempty"`
	Hint     []any  `yaml:"hint,omitempty"`
	Axis     int    `yaml:"axis,omitempty"`

	Lower        []string `yaml:"lower,omitempty"`
	Upper        []string `yaml:"upper,omitempty"`
	Step         []string `yaml:"step,omitempty"`
	Ins          []string `yaml:"ins,omitempty"`
	Outs         []string `yaml:"outs,omitempty"`
	Iterators    []string `yaml:"iterators,omitempty"`
	Distribution []string `yaml:"distribution,omitempty"`

	// Args names the region arguments, Body and Yield are the statements and yielded values of the region.
	Args  []string     `yaml:"args,omitempty"`
	Body  []*Statement `yaml:"body,omitempty"`
	Yield []string     `yaml:"yield,omitempty"`
}

// Load reads and parses a program file. See Parse.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read program file %q", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "program file %q", path)
	}
	return p, nil
}

// Parse parses a program in YAML format. Unknown fields are rejected, and the program is validated.
func Parse(data []byte) (*Program, error) {
	var p Program
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}
	if err := p.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid program")
	}
	return &p, nil
}

// Validate checks the required fields and the operation names. Everything else is checked when the
// program is built.
func (p *Program) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Functions) == 0 {
		return errors.New("functions list is required and must be non-empty")
	}
	for i, fn := range p.Functions {
		if fn == nil || fn.Name == "" {
			return errors.Errorf("function #%d: name is required", i)
		}
		for j, input := range fn.Inputs {
			if input.Name == "" || input.Type == "" {
				return errors.Errorf("function %q input #%d: name and type are required", fn.Name, j)
			}
		}
		if err := validateStatements(fn.Body); err != nil {
			return errors.WithMessagef(err, "function %q", fn.Name)
		}
	}
	return nil
}

func validateStatements(stmts []*Statement) error {
	for i, stmt := range stmts {
		if stmt == nil {
			return errors.Errorf("statement #%d is empty", i)
		}
		op, err := ParseOp(stmt.Op)
		if err != nil {
			return errors.WithMessagef(err, "statement #%d", i)
		}
		if stmt.ID != "" && len(stmt.IDs) > 0 {
			return errors.Errorf("statement #%d (%s): use either id or ids, not both", i, stmt.Op)
		}
		if !op.HasRegions() && (len(stmt.Body) > 0 || len(stmt.Args) > 0 || len(stmt.Yield) > 0) {
			return errors.Errorf("statement #%d (%s) has no region, it can't have args, body or yield", i, stmt.Op)
		}
		if err := validateStatements(stmt.Body); err != nil {
			return errors.WithMessagef(err, "statement #%d (%s) body", i, stmt.Op)
		}
	}
	return nil
}

// opNames maps the names accepted in program files to operations. Both the full name (e.g.
// "linalg.pad_tensor") and the short names below are accepted.
var opNames = map[string]optypes.OpType{
	"constant":    optypes.Constant,
	"init_tensor": optypes.InitTensor,
	"alloc":       optypes.Alloc,
	"pad":         optypes.PadTensor,
	"pad_tensor":  optypes.PadTensor,
	"dim":         optypes.TensorDim,
	"index":       optypes.Index,
	"tiled_loop":  optypes.TiledLoop,
}

func init() {
	for _, op := range optypes.OpTypeValues() {
		if op == optypes.Invalid || op == optypes.Last || op.IsTerminator() {
			continue
		}
		opNames[op.ToMLIR()] = op
	}
}

// ParseOp returns the operation of a statement. Terminators are not statements: they are given by the
// "return" and "yield" fields.
func ParseOp(name string) (optypes.OpType, error) {
	op, found := opNames[name]
	if !found {
		return optypes.Invalid, errors.Errorf("unknown operation %q", name)
	}
	return op, nil
}
