package program

import (
	"math"

	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/pkg/ir"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/mixed"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"k8s.io/klog/v2"
)

// scope maps names used in the program file to values. Region bodies get a child scope.
type scope struct {
	parent *scope
	values map[string]*ir.Value
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, values: make(map[string]*ir.Value)}
}

func (s *scope) lookup(name string) (*ir.Value, error) {
	for current := s; current != nil; current = current.parent {
		if v, found := current.values[name]; found {
			return v, nil
		}
	}
	return nil, irerrors.Constructionf("unknown value %q", name)
}

func (s *scope) lookupAll(names []string) ([]*ir.Value, error) {
	values := make([]*ir.Value, len(names))
	for i, name := range names {
		v, err := s.lookup(name)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// define binds name to v. Names can't be redefined, not even in a region body.
func (s *scope) define(name string, v *ir.Value) error {
	if name == "" {
		return nil
	}
	if _, err := s.lookup(name); err == nil {
		return irerrors.Constructionf("value %q is already defined", name)
	}
	s.values[name] = v
	return nil
}

// mixedList converts a list of integers and value names to a mixed.List.
func (s *scope) mixedList(items []any) (mixed.List[*ir.Value], error) {
	entries := make([]mixed.Entry[*ir.Value], len(items))
	for i, item := range items {
		switch v := item.(type) {
		case int:
			if int64(v) == shapes.DimDynamic {
				return mixed.List[*ir.Value]{}, irerrors.Constructionf("entry #%d (%d) is reserved for dynamic entries, use a value name", i, v)
			}
			entries[i] = mixed.Static[*ir.Value](int64(v))
		case string:
			value, err := s.lookup(v)
			if err != nil {
				return mixed.List[*ir.Value]{}, err
			}
			entries[i] = mixed.Dynamic(value)
		default:
			return mixed.List[*ir.Value]{}, irerrors.Constructionf("entry #%d (%v) must be an integer or a value name", i, item)
		}
	}
	return mixed.FromEntries(entries), nil
}

// Build translates the program to an ir.Builder. The returned program is not verified: see
// ir.Builder.Verify and ir.Builder.Build.
func Build(p *Program) (*ir.Builder, error) {
	b := ir.New(p.Name)
	for _, fnDesc := range p.Functions {
		fn := b.NewFunction(fnDesc.Name)
		sc := newScope(nil)
		for _, input := range fnDesc.Inputs {
			t, err := ParseType(input.Type)
			if err != nil {
				return nil, errors.WithMessagef(err, "function %q input %q", fnDesc.Name, input.Name)
			}
			v, err := fn.NamedInput(input.Name, t)
			if err != nil {
				return nil, errors.WithMessagef(err, "function %q", fnDesc.Name)
			}
			if err := sc.define(input.Name, v); err != nil {
				return nil, errors.WithMessagef(err, "function %q", fnDesc.Name)
			}
		}
		if err := buildStatements(fn, sc, fnDesc.Body); err != nil {
			return nil, errors.WithMessagef(err, "function %q", fnDesc.Name)
		}
		returned, err := sc.lookupAll(fnDesc.Return)
		if err == nil {
			err = fn.Return(returned...)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "function %q return", fnDesc.Name)
		}
		klog.V(1).Infof("program %q: built function %q with %d statements", p.Name, fnDesc.Name, len(fn.Statements))
	}
	return b, nil
}

func buildStatements(fn *ir.Function, sc *scope, stmts []*Statement) error {
	for i, stmt := range stmts {
		if err := buildStatement(fn, sc, stmt); err != nil {
			return errors.WithMessagef(err, "statement #%d (%s)", i, stmt.Op)
		}
	}
	return nil
}

func buildStatement(fn *ir.Function, sc *scope, stmt *Statement) error {
	op, err := ParseOp(stmt.Op)
	if err != nil {
		return err
	}
	if op != optypes.TiledLoop && len(stmt.IDs) > 0 {
		return irerrors.Constructionf("ids can only name the results of tiled loops, use id")
	}
	var result *ir.Value
	switch op {
	case optypes.Constant:
		result, err = buildConstant(fn, stmt)

	case optypes.InitTensor:
		var elem shapes.Type
		elem, err = ParseType(stmt.DType)
		if err != nil {
			return err
		}
		var sizes mixed.List[*ir.Value]
		if sizes, err = sc.mixedList(stmt.Sizes); err != nil {
			return err
		}
		var initOp *ir.InitTensorOp
		if initOp, err = ir.InitTensor(fn, sizes, elem); err == nil {
			result = initOp.Result()
		}

	case optypes.Alloc:
		result, err = buildAlloc(fn, sc, stmt)

	case optypes.PadTensor:
		result, err = buildPad(fn, sc, stmt)

	case optypes.TensorDim, optypes.MemRefDim:
		var source *ir.Value
		if source, err = sc.lookup(stmt.Source); err != nil {
			return err
		}
		result, err = ir.Dim(source, stmt.Axis)

	case optypes.Index:
		result, err = fn.Index(stmt.Axis)

	case optypes.TiledLoop:
		return buildTiledLoop(fn, sc, stmt)

	default:
		return irerrors.Constructionf("operation %s can't be used as a statement", op.ToMLIR())
	}
	if err != nil {
		return err
	}
	return sc.define(stmt.ID, result)
}

func buildAlloc(fn *ir.Function, sc *scope, stmt *Statement) (*ir.Value, error) {
	t, err := ParseType(stmt.Type)
	if err != nil {
		return nil, err
	}
	memref, ok := t.(*shapes.MemRefType)
	if !ok {
		return nil, irerrors.Constructionf("alloc type must be a ranked memref, got %s", shapes.Describe(t))
	}
	sizes := make([]*ir.Value, len(stmt.Sizes))
	for i, item := range stmt.Sizes {
		name, ok := item.(string)
		if !ok {
			return nil, irerrors.Constructionf("alloc size #%d (%v) must be the name of a value, static sizes are given by the type", i, item)
		}
		if sizes[i], err = sc.lookup(name); err != nil {
			return nil, err
		}
	}
	return ir.Alloc(fn, memref, sizes...)
}

// buildRegion names the arguments of body after stmt.Args, builds its statements and yields stmt.Yield.
// Args can name only the first arguments.
func buildRegion(sc *scope, stmt *Statement, body *ir.Function) error {
	if len(stmt.Args) > len(body.Inputs) {
		return irerrors.Constructionf("%d region arguments named, but the region only has %d", len(stmt.Args), len(body.Inputs))
	}
	child := newScope(sc)
	for i, name := range stmt.Args {
		if err := child.define(name, body.Inputs[i]); err != nil {
			return err
		}
	}
	if err := buildStatements(body, child, stmt.Body); err != nil {
		return errors.WithMessage(err, "region")
	}
	yielded, err := child.lookupAll(stmt.Yield)
	if err != nil {
		return errors.WithMessage(err, "region yield")
	}
	return body.Yield(yielded...)
}

func buildPad(fn *ir.Function, sc *scope, stmt *Statement) (*ir.Value, error) {
	source, err := sc.lookup(stmt.Source)
	if err != nil {
		return nil, err
	}
	low, err := sc.mixedList(stmt.Low)
	if err != nil {
		return nil, errors.WithMessage(err, "low")
	}
	high, err := sc.mixedList(stmt.High)
	if err != nil {
		return nil, errors.WithMessage(err, "high")
	}

	var builder *ir.PadBuilder
	if stmt.PadValue != "" {
		if len(stmt.Body) > 0 || len(stmt.Yield) > 0 {
			return nil, irerrors.Constructionf("use either pad_value or a body, not both")
		}
		padValue, err := sc.lookup(stmt.PadValue)
		if err != nil {
			return nil, err
		}
		builder = ir.PadWithValue(source, low, high, padValue)
	} else {
		body := fn.Closure()
		if st, ok := source.ShapedType(); ok && st.HasRank() {
			for range st.Rank() {
				if _, err := body.Input(dtypes.Index); err != nil {
					return nil, err
				}
			}
		}
		if err := buildRegion(sc, stmt, body); err != nil {
			return nil, err
		}
		builder = ir.Pad(source, low, high).Body(body)
	}
	if stmt.NoFold {
		builder.NoFold()
	}
	if stmt.Hint != nil {
		hint, err := parseHint(stmt.Hint)
		if err != nil {
			return nil, err
		}
		builder.ResultShapeHint(hint...)
	}
	padOp, err := builder.Done()
	if err != nil {
		return nil, err
	}
	return padOp.Result(), nil
}

func parseHint(items []any) ([]int64, error) {
	hint := make([]int64, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case int:
			hint[i] = int64(v)
		case string:
			if v != "?" {
				return nil, irerrors.Constructionf("hint #%d must be an integer or \"?\", got %q", i, v)
			}
			hint[i] = shapes.DimDynamic
		default:
			return nil, irerrors.Constructionf("hint #%d must be an integer or \"?\", got %v", i, item)
		}
	}
	return hint, nil
}

func buildTiledLoop(fn *ir.Function, sc *scope, stmt *Statement) error {
	if stmt.ID != "" {
		return irerrors.Constructionf("tiled loops can have many results, name them with ids")
	}
	var groups [5][]*ir.Value
	for i, names := range [][]string{stmt.Lower, stmt.Upper, stmt.Step, stmt.Ins, stmt.Outs} {
		values, err := sc.lookupAll(names)
		if err != nil {
			return err
		}
		groups[i] = values
	}
	builder := ir.TiledLoop(groups[0], groups[1], groups[2], groups[3], groups[4])
	if stmt.Iterators != nil {
		iterators, err := types.ParseIteratorTypes(stmt.Iterators...)
		if err != nil {
			return irerrors.Constructionf("iterators: %v", err)
		}
		builder.Iterators(iterators...)
	}
	if stmt.Distribution != nil {
		distribution, err := types.ParseDistributionTypes(stmt.Distribution...)
		if err != nil {
			return irerrors.Constructionf("distribution: %v", err)
		}
		builder.Distribution(distribution...)
	}
	loop, err := builder.Done()
	if err != nil {
		return err
	}
	if err := buildRegion(sc, stmt, loop.Body()); err != nil {
		return err
	}
	results := loop.Results()
	if len(stmt.IDs) > len(results) {
		return irerrors.Constructionf("%d ids given, but the loop has %d results", len(stmt.IDs), len(results))
	}
	for i, id := range stmt.IDs {
		if err := sc.define(id, results[i]); err != nil {
			return err
		}
	}
	return nil
}

// buildConstant converts the YAML value (a bool, an int or a float64) to the Go type of the dtype.
func buildConstant(fn *ir.Function, stmt *Statement) (*ir.Value, error) {
	dtype := dtypes.Index
	if stmt.DType != "" {
		var err error
		if dtype, err = dtypes.FromMLIR(stmt.DType); err != nil {
			return nil, irerrors.Constructionf("constant: %v", err)
		}
	}
	var f float64
	switch v := stmt.Value.(type) {
	case bool:
		if dtype != dtypes.Bool {
			return nil, irerrors.Constructionf("constant: boolean value for dtype %s", dtype)
		}
		return fn.Constant(v)
	case int:
		f = float64(v)
	case float64:
		f = v
	case nil:
	default:
		return nil, irerrors.Constructionf("constant: unsupported value %v (%T)", v, v)
	}
	if (dtype.IsInt() || dtype == dtypes.Index) && f != math.Trunc(f) {
		return nil, irerrors.Constructionf("constant: value %g is not an integer, for dtype %s", f, dtype)
	}
	var value any
	switch dtype {
	case dtypes.Index:
		value = int(f)
	case dtypes.Int8:
		value = int8(f)
	case dtypes.Int16:
		value = int16(f)
	case dtypes.Int32:
		value = int32(f)
	case dtypes.Int64:
		value = int64(f)
	case dtypes.Uint8:
		value = uint8(f)
	case dtypes.Uint16:
		value = uint16(f)
	case dtypes.Uint32:
		value = uint32(f)
	case dtypes.Uint64:
		value = uint64(f)
	case dtypes.Float16:
		value = float16.Fromfloat32(float32(f))
	case dtypes.Float32:
		value = float32(f)
	case dtypes.Float64:
		value = f
	case dtypes.Bool:
		value = f != 0
	default:
		return nil, irerrors.Constructionf("constant: unsupported dtype %s", dtype)
	}
	return fn.Constant(value)
}
