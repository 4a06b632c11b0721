// Package mixed implements lists of per-dimension parameters where some entries are known at compile time
// and others only at run time.
//
// A List is stored compactly: a static list with one entry per position, where shapes.DimDynamic marks the
// positions known only at run time, plus the list of runtime values for those positions only, in order.
// This is the representation of the sizes of a materialized tensor, and of the low/high padding amounts.
//
// Example: the sizes [4, %n, 8, %m] are stored as static=[4, ?, 8, ?] and dynamic=[%n, %m].
//
// The type parameter V is the type of the runtime values, typically *ir.Value.
package mixed

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/go-shapedir/pkg/irerrors"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"golang.org/x/exp/constraints"
)

// List is a list of mixed static/dynamic entries. The zero value is an empty list.
//
// A List is immutable: its methods never modify it and return copies of its internal slices.
type List[V any] struct {
	static  []int64
	dynamic []V
}

// New creates a List from its compact form.
// It returns a construction error if the number of shapes.DimDynamic entries in static is different from len(dynamic).
func New[V any](static []int64, dynamic []V) (List[V], error) {
	numDynamic := countDynamic(static)
	if numDynamic != len(dynamic) {
		return List[V]{}, irerrors.Constructionf("mixed list %s has %d dynamic entries, but %d runtime values were given",
			shapes.FormatDims(static), numDynamic, len(dynamic))
	}
	return List[V]{static: slices.Clone(static), dynamic: slices.Clone(dynamic)}, nil
}

// FromStatic returns a List with only static entries.
// It panics if a value is shapes.DimDynamic: use FromEntries or New to mix static and dynamic entries.
func FromStatic[V any](values ...int64) List[V] {
	for i, v := range values {
		if v == shapes.DimDynamic {
			exceptions.Panicf("mixed.FromStatic(%s): entry #%d is dynamic, but no runtime value was given",
				FormatStatic(values), i)
		}
	}
	return List[V]{static: slices.Clone(values)}
}

// FromInts returns a List with only static entries, converted from any integer type.
// Like FromStatic, it panics if a value is shapes.DimDynamic.
func FromInts[V any, T constraints.Integer](values ...T) List[V] {
	static := make([]int64, len(values))
	for i, v := range values {
		static[i] = int64(v)
	}
	return FromStatic[V](static...)
}

// FromDynamic returns a List where every entry is given by a runtime value.
func FromDynamic[V any](values ...V) List[V] {
	static := make([]int64, len(values))
	for i := range static {
		static[i] = shapes.DimDynamic
	}
	return List[V]{static: static, dynamic: slices.Clone(values)}
}

// FromEntries normalizes a list of per-position entries into the compact form.
// It panics if a static entry holds shapes.DimDynamic: runtime entries are created with Dynamic.
func FromEntries[V any](entries []Entry[V]) List[V] {
	l := List[V]{static: make([]int64, len(entries))}
	for i, entry := range entries {
		if entry.IsDynamic {
			l.static[i] = shapes.DimDynamic
			l.dynamic = append(l.dynamic, entry.Value)
			continue
		}
		if entry.Static == shapes.DimDynamic {
			exceptions.Panicf("mixed.FromEntries: static entry #%d holds the dynamic marker, use mixed.Dynamic", i)
		}
		l.static[i] = entry.Static
	}
	return l
}

// Validate returns a construction error if the number of shapes.DimDynamic entries doesn't match the
// number of runtime values. Lists created by this package are always valid.
func (l List[V]) Validate() error {
	if numDynamic := countDynamic(l.static); numDynamic != len(l.dynamic) {
		return irerrors.Constructionf("mixed list %s has %d dynamic entries, but %d runtime values",
			shapes.FormatDims(l.static), numDynamic, len(l.dynamic))
	}
	return nil
}

func countDynamic(static []int64) int {
	count := 0
	for _, v := range static {
		if v == shapes.DimDynamic {
			count++
		}
	}
	return count
}

// Len returns the number of positions.
func (l List[V]) Len() int { return len(l.static) }

// NumDynamic returns the number of positions given by runtime values.
func (l List[V]) NumDynamic() int { return len(l.dynamic) }

// IsAllStatic returns whether every position is known at compile time.
func (l List[V]) IsAllStatic() bool { return len(l.dynamic) == 0 }

// StaticValues returns a copy of the static list, with shapes.DimDynamic for runtime positions.
func (l List[V]) StaticValues() []int64 {
	if l.static == nil {
		return []int64{}
	}
	return slices.Clone(l.static)
}

// DynamicValues returns a copy of the runtime values, in position order.
func (l List[V]) DynamicValues() []V { return slices.Clone(l.dynamic) }

// IsDynamicAt returns whether the entry at position i is given by a runtime value.
// It returns false for out-of-range positions.
func (l List[V]) IsDynamicAt(i int) bool {
	return i >= 0 && i < len(l.static) && l.static[i] == shapes.DimDynamic
}

// DynamicIndex returns the index in DynamicValues of the runtime value of position i, that is, the number
// of dynamic entries before i.
// It returns a precondition error if position i is static or out-of-range.
func (l List[V]) DynamicIndex(i int) (int, error) {
	if i < 0 || i >= len(l.static) {
		return 0, irerrors.Preconditionf("position %d out-of-range for mixed list of length %d", i, len(l.static))
	}
	if l.static[i] != shapes.DimDynamic {
		return 0, irerrors.Preconditionf("position %d of mixed list %s is static (%d), it has no runtime value",
			i, shapes.FormatDims(l.static), l.static[i])
	}
	return countDynamic(l.static[:i]), nil
}

// StaticValueAt returns the static value of position i.
// It returns a precondition error if position i is dynamic or out-of-range.
func (l List[V]) StaticValueAt(i int) (int64, error) {
	if i < 0 || i >= len(l.static) {
		return 0, irerrors.Preconditionf("position %d out-of-range for mixed list of length %d", i, len(l.static))
	}
	if l.static[i] == shapes.DimDynamic {
		return 0, irerrors.Preconditionf("position %d of mixed list %s is dynamic, it has no static value",
			i, shapes.FormatDims(l.static))
	}
	return l.static[i], nil
}

// DynamicValueAt returns the runtime value of position i.
// It returns a precondition error if position i is static or out-of-range.
func (l List[V]) DynamicValueAt(i int) (V, error) {
	idx, err := l.DynamicIndex(i)
	if err != nil {
		var zero V
		return zero, err
	}
	return l.dynamic[idx], nil
}

// AllStaticEqual returns whether every entry is static and equal to value.
// A dynamic entry is never considered equal, whatever its runtime value is.
func (l List[V]) AllStaticEqual(value int64) bool {
	for _, v := range l.static {
		if v != value || v == shapes.DimDynamic {
			return false
		}
	}
	return true
}

// String returns the static part in the "[1, ?, 3]" format.
func (l List[V]) String() string {
	return FormatStatic(l.static)
}
