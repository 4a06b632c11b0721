package shapes

import (
	"strconv"
)

// Attribute is a compile-time constant qualifier attached to a type, like a memref memory space or a
// tensor encoding.
type Attribute interface {
	ToMLIR() string
}

// IntegerAttr is an integer attribute, typically a numeric memory space.
type IntegerAttr int64

// ToMLIR implements Attribute.
func (a IntegerAttr) ToMLIR() string {
	return strconv.FormatInt(int64(a), 10)
}

// StringAttr is a string attribute, for instance a named memory space or a sparse tensor encoding name.
type StringAttr string

// ToMLIR implements Attribute.
func (a StringAttr) ToMLIR() string {
	return strconv.Quote(string(a))
}

// AttributesEqual compares two optional attributes by value.
func AttributesEqual(a, b Attribute) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ToMLIR() == b.ToMLIR()
}

// normalizeMemorySpace drops the default memory space (integer 0), so it compares equal to no memory space.
func normalizeMemorySpace(memorySpace Attribute) Attribute {
	if intAttr, ok := memorySpace.(IntegerAttr); ok && intAttr == 0 {
		return nil
	}
	return memorySpace
}
