package serdx

// Set is the set convention: a map with empty-struct elements. The serializer
// turns any such map into a sequence of its elements, and a sequence
// deserializes back into one. Element order through a round trip is not
// guaranteed; serialization sorts elements by textual form only to keep the
// output deterministic.
type Set[T comparable] map[T]struct{}

// NewSet builds a set from the given elements.
func NewSet[T comparable](elements ...T) Set[T] {
	s := make(Set[T], len(elements))
	for _, el := range elements {
		s[el] = struct{}{}
	}
	return s
}

// Add inserts an element.
func (s Set[T]) Add(el T) { s[el] = struct{}{} }

// Remove deletes an element if present.
func (s Set[T]) Remove(el T) { delete(s, el) }

// Contains reports membership.
func (s Set[T]) Contains(el T) bool {
	_, ok := s[el]
	return ok
}

// Len returns the number of elements.
func (s Set[T]) Len() int { return len(s) }

// Elements returns the elements in unspecified order.
func (s Set[T]) Elements() []T {
	out := make([]T, 0, len(s))
	for el := range s {
		out = append(out, el)
	}
	return out
}
