package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/go-shapedir/internal/optypes"
	"github.com/gomlx/go-shapedir/pkg/ir"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
)

// Allocation is a tensor materialized or a buffer allocated by the program.
type Allocation struct {
	Function string
	Value    string
	Op       string
	Type     string

	// Bytes is the size of the allocation, if Static.
	Bytes  uint64
	Static bool
}

// collectAllocations lists the init_tensor and alloc statements of the program, including those in
// region bodies.
func collectAllocations(b *ir.Builder) []Allocation {
	var allocations []Allocation
	var walk func(fnName string, fn *ir.Function)
	walk = func(fnName string, fn *ir.Function) {
		for _, stmt := range fn.Statements {
			for _, region := range stmt.Regions {
				walk(fnName, region)
			}
			if stmt.OpType != optypes.InitTensor && stmt.OpType != optypes.Alloc {
				continue
			}
			result := stmt.Outputs[0]
			allocation := Allocation{
				Function: fnName,
				Value:    result.String(),
				Op:       stmt.Name(),
				Type:     result.Type().ToMLIR(),
			}
			allocation.Bytes, allocation.Static = staticBytes(result.Type())
			allocations = append(allocations, allocation)
		}
	}
	for _, fn := range b.Functions() {
		walk(fn.Name, fn)
	}
	return allocations
}

// staticBytes returns the memory used by a value of type t, if its shape is static and its element
// type is a scalar.
func staticBytes(t shapes.Type) (uint64, bool) {
	st, ok := t.(shapes.ShapedType)
	if !ok || !st.HasStaticShape() {
		return 0, false
	}
	dtype, ok := st.ElementType().(dtypes.DType)
	if !ok {
		return 0, false
	}
	size := uint64(dtype.Memory())
	for _, dim := range st.Shape() {
		size *= uint64(dim)
	}
	return size, true
}

// writeAllocations writes a table with the allocations and the total static size.
func writeAllocations(w io.Writer, allocations []Allocation, styled bool) error {
	if len(allocations) == 0 {
		return nil
	}
	table := lgtable.New().Headers("function", "value", "op", "type", "size")
	if styled {
		table = table.
			Border(lipgloss.RoundedBorder()).
			BorderStyle(tableBorder).
			StyleFunc(func(row, col int) lipgloss.Style {
				if col == 4 {
					return rightAligned
				}
				return normalStyle
			})
	} else {
		table = table.Border(lipgloss.ASCIIBorder())
	}
	var total uint64
	numDynamic := 0
	for _, a := range allocations {
		size := "dynamic"
		if a.Static {
			size = humanize.Bytes(a.Bytes)
			total += a.Bytes
		} else {
			numDynamic++
		}
		table.Row(a.Function, a.Value, a.Op, a.Type, size)
	}
	title := "Allocations"
	if styled {
		title = titleStyle.Render(title)
	}
	_, err := fmt.Fprintf(w, "\n%s:\n%s\nTotal static size: %s (%s bytes), %d dynamic allocation(s)\n",
		title, table.Render(), humanize.Bytes(total), humanize.Comma(int64(total)), numDynamic)
	return err
}
