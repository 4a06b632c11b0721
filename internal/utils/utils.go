// Package utils holds small helpers shared by the IR builder packages.
package utils

// NormalizeIdentifier converts the name of an identifier (function name or block argument
// name) to a valid one: only letters, digits, and underscores are allowed.
//
// Invalid characters are replaced with underscores.
// If the name starts with a digit, it is prefixed with an underscore.
func NormalizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	result := make([]rune, 0, len(name)+1)
	if name[0] >= '0' && name[0] <= '9' {
		result = append(result, '_')
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}

// Set implements a Set for the key type T.
type Set[T comparable] map[T]struct{}

// SetWith creates a Set[T] with the given elements inserted.
func SetWith[T comparable](elements ...T) Set[T] {
	s := make(Set[T], len(elements))
	for _, element := range elements {
		s.Insert(element)
	}
	return s
}

// Insert element in the set.
func (s Set[T]) Insert(element T) {
	s[element] = struct{}{}
}

// Has returns true if Set s has the given element.
func (s Set[T]) Has(element T) bool {
	_, found := s[element]
	return found
}
