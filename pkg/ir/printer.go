package ir

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/x448/float16"
)

// PrintOption configures how programs are written, see Builder.Write.
type PrintOption func(*printOptions)

type printOptions struct {
	attributes  bool
	opNameStyle func(string) string
}

// WithAttributes includes the attributes dictionary of every operation in the output.
func WithAttributes() PrintOption {
	return func(opts *printOptions) { opts.attributes = true }
}

// WithOpNameStyle sets a function to decorate the operation names, e.g. to colorize them in a terminal.
func WithOpNameStyle(style func(name string) string) PrintOption {
	return func(opts *printOptions) { opts.opNameStyle = style }
}

// printer writes functions in textual format. The first error is kept, and subsequent writes are skipped.
type printer struct {
	w    io.Writer
	opts printOptions
	err  error
}

func newPrinter(w io.Writer, options []PrintOption) *printer {
	p := &printer{w: w}
	for _, option := range options {
		option(&p.opts)
	}
	return p
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// fail records err, unless an earlier error was already recorded.
func (p *printer) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *printer) opName(op optypes.OpType) string {
	if p.opts.opNameStyle != nil {
		return p.opts.opNameStyle(op.ToMLIR())
	}
	return op.ToMLIR()
}

// Write the function in textual format.
func (fn *Function) Write(w io.Writer, options ...PrintOption) error {
	p := newPrinter(w, options)
	p.function(fn)
	return p.err
}

// String implements fmt.Stringer, returning the function in textual format.
func (fn *Function) String() string {
	var sb strings.Builder
	_ = fn.Write(&sb)
	return sb.String()
}

func (p *printer) function(fn *Function) {
	p.printf("func.func @%s(%s)", fn.Name, typedValues(fn.Inputs))
	switch len(fn.Outputs) {
	case 0:
	case 1:
		p.printf(" -> %s", fn.Outputs[0].typ.ToMLIR())
	default:
		p.printf(" -> (%s)", joinTypes(valuesTypes(fn.Outputs)))
	}
	p.printf(" {\n")
	p.body(fn, "  ")
	p.printf("}\n")
}

func (p *printer) body(fn *Function, indent string) {
	for _, stmt := range fn.Statements {
		p.statement(stmt, indent)
	}
}

// typedValues returns the values with their types, e.g. "%arg0: tensor<?xf32>, %arg1: index".
func typedValues(values []*Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%s: %s", v, v.typ.ToMLIR())
	}
	return strings.Join(parts, ", ")
}

func joinValues(values []*Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func joinTypes(types []shapes.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = shapes.Describe(t)
	}
	return strings.Join(parts, ", ")
}

// mixedList formats a mixed list with the names of the runtime values, e.g. "[2, %arg1, 3]".
func mixedList(list mixed.List[*Value]) string {
	entries := list.Entries()
	parts := make([]string, len(entries))
	for i, entry := range entries {
		if entry.IsDynamic {
			parts[i] = entry.Value.String()
		} else {
			parts[i] = strconv.FormatInt(entry.Static, 10)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (p *printer) statement(stmt *Statement, indent string) {
	p.printf("%s", indent)
	if len(stmt.Outputs) > 0 {
		p.printf("%s = ", joinValues(stmt.Outputs))
	}
	p.printf("%s", p.opName(stmt.OpType))
	attrs := ""
	if p.opts.attributes && len(stmt.Attributes) > 0 {
		attrs = " " + formatAttributes(stmt.Attributes)
	}

	switch stmt.OpType {
	case optypes.InitTensor:
		sizes, err := (&InitTensorOp{stmt: stmt}).Sizes()
		if err != nil {
			p.fail(err)
			return
		}
		p.printf(" %s%s : %s\n", mixedList(sizes), attrs, stmt.Outputs[0].typ.ToMLIR())

	case optypes.Alloc:
		p.printf("(%s)%s : %s\n", joinValues(stmt.Inputs), attrs, stmt.Outputs[0].typ.ToMLIR())

	case optypes.PadTensor:
		op := &PadOp{stmt: stmt}
		low, err := op.Low()
		if err != nil {
			p.fail(err)
			return
		}
		high, err := op.High()
		if err != nil {
			p.fail(err)
			return
		}
		p.printf(" %s", op.Source())
		if op.NoFold() {
			p.printf(" nofold")
		}
		p.printf(" low%s high%s%s {\n", mixedList(low), mixedList(high), attrs)
		body := op.Body()
		p.printf("%s^bb0(%s):\n", indent, typedValues(body.Inputs))
		p.body(body, indent+"  ")
		p.printf("%s} : %s to %s\n", indent, op.Source().typ.ToMLIR(), op.Result().typ.ToMLIR())

	case optypes.TiledLoop:
		op := &TiledLoopOp{stmt: stmt}
		p.printf(" (%s) = (%s) to (%s) step (%s)", joinValues(op.InductionVars()),
			joinValues(op.LowerBounds()), joinValues(op.UpperBounds()), joinValues(op.Steps()))
		if op.NumInputs() > 0 {
			p.printf(" ins (%s)", tiedValues(op.RegionInputArgs(), op.Inputs()))
		}
		if op.NumOutputs() > 0 {
			p.printf(" outs (%s)", tiedValues(op.RegionOutputArgs(), op.Outputs()))
		}
		p.printf(" iterators%s", quotedList(stmt.stringsAttr(AttrIteratorTypes)))
		if distribution, found := stmt.Attributes[AttrDistributionTypes].([]string); found {
			p.printf(" distribution%s", quotedList(distribution))
		}
		p.printf("%s {\n", attrs)
		p.body(op.Body(), indent+"  ")
		p.printf("%s}", indent)
		if len(stmt.Outputs) > 0 {
			p.printf(" -> (%s)", joinTypes(valuesTypes(stmt.Outputs)))
		}
		p.printf("\n")

	case optypes.Yield, optypes.Return:
		if len(stmt.Inputs) == 0 {
			p.printf("%s\n", attrs)
			return
		}
		p.printf(" %s%s : %s\n", joinValues(stmt.Inputs), attrs, joinTypes(valuesTypes(stmt.Inputs)))

	case optypes.Index:
		p.printf(" %d%s : %s\n", stmt.Attributes[AttrDim], attrs, stmt.Outputs[0].typ.ToMLIR())

	case optypes.Constant:
		p.printf(" %s%s : %s\n", formatScalar(stmt.Attributes[AttrValue]), attrs, stmt.Outputs[0].typ.ToMLIR())

	default:
		p.printf(" %s%s : %s\n", joinValues(stmt.Inputs), attrs, joinTypes(valuesTypes(stmt.Inputs[:1])))
	}
}

// tiedValues formats body arguments tied to operands, e.g. "%arg3 = %0: tensor<4xf32>".
func tiedValues(args, operands []*Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("%s = %s: %s", arg, operands[i], operands[i].typ.ToMLIR())
	}
	return strings.Join(parts, ", ")
}

func quotedList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Quote(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatAttributes returns the attributes dictionary, sorted by name, e.g. "{dim = 0}".
func formatAttributes(attrs map[string]any) string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, key := range keys {
		var value string
		switch v := attrs[key].(type) {
		case []int64:
			value = mixed.FormatStatic(v)
		case []string:
			value = quotedList(v)
		case int64:
			value = strconv.FormatInt(v, 10)
		default:
			value = formatScalar(v)
		}
		parts[i] = key + " = " + value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatScalar formats a Go scalar as a literal. Floats always include a decimal point.
func formatScalar(value any) string {
	switch v := value.(type) {
	case float16.Float16:
		return formatFloat(float64(v.Float32()), 32)
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(v float64, bitSize int) string {
	s := strconv.FormatFloat(v, 'g', -1, bitSize)
	if strings.ContainsAny(s, ".nN") {
		return s
	}
	if pos := strings.IndexByte(s, 'e'); pos >= 0 {
		return s[:pos] + ".0" + s[pos:]
	}
	return s + ".0"
}
