package set

import (
	"iter"
)

// Set is a set that remembers insertion order.
type Set[T comparable] struct {
	index map[T]int
	items []T
}

func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{index: make(map[T]int, len(items))}
	s.Add(items...)
	return s
}

// Add appends items that are not already present and reports whether any was added.
func (s *Set[T]) Add(items ...T) bool {
	if s.index == nil {
		s.index = map[T]int{}
	}
	added := false
	for _, item := range items {
		if _, ok := s.index[item]; ok {
			continue
		}
		s.index[item] = len(s.items)
		s.items = append(s.items, item)
		added = true
	}
	return added
}

// Remove removes an item, preserving the order of the rest.
func (s *Set[T]) Remove(item T) {
	i, ok := s.index[item]
	if !ok {
		return
	}
	delete(s.index, item)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
}

func (s *Set[T]) Contains(item T) bool {
	_, exists := s.index[item]
	return exists
}

// IndexOf returns the insertion position of item, or -1.
func (s *Set[T]) IndexOf(item T) int {
	if i, ok := s.index[item]; ok {
		return i
	}
	return -1
}

func (s *Set[T]) ContainsAll(items ...T) bool {
	for _, item := range items {
		if !s.Contains(item) {
			return false
		}
	}
	return true
}

func (s *Set[T]) Size() int {
	return len(s.items)
}

// Items returns all items in insertion order
func (s *Set[T]) Items() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range s.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Union returns a new set with the items of s followed by the new items of other
func (s *Set[T]) Union(other *Set[T]) *Set[T] {
	result := New(s.items...)
	result.Add(other.items...)
	return result
}
