package mixed

import (
	"strconv"
	"strings"

	"github.com/gomlx/go-shapedir/pkg/types/shapes"
)

// Entry is one position of a List: either a static integer or a runtime value.
type Entry[V any] struct {
	IsDynamic bool
	Static    int64
	Value     V
}

// Static returns a static Entry.
func Static[V any](value int64) Entry[V] {
	return Entry[V]{Static: value}
}

// Dynamic returns an Entry given by a runtime value.
func Dynamic[V any](value V) Entry[V] {
	return Entry[V]{IsDynamic: true, Static: shapes.DimDynamic, Value: value}
}

// Entries returns the merged view of the list: for each position either the static value or the next
// runtime value, in order of appearance.
//
// It is a pure function of the list, it doesn't change it.
func (l List[V]) Entries() []Entry[V] {
	entries := make([]Entry[V], len(l.static))
	next := 0
	for i, v := range l.static {
		if v == shapes.DimDynamic {
			entries[i] = Dynamic(l.dynamic[next])
			next++
		} else {
			entries[i] = Static[V](v)
		}
	}
	return entries
}

// At returns the entry at position i. It panics if i is out-of-range, like a slice index.
func (l List[V]) At(i int) Entry[V] {
	if l.static[i] != shapes.DimDynamic {
		return Static[V](l.static[i])
	}
	return Dynamic(l.dynamic[countDynamic(l.static[:i])])
}

// FormatStatic formats a static list, with "?" for dynamic entries, e.g.: "[2, ?, 3]".
func FormatStatic(static []int64) string {
	parts := make([]string, len(static))
	for i, v := range static {
		if v == shapes.DimDynamic {
			parts[i] = "?"
		} else {
			parts[i] = strconv.FormatInt(v, 10)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
