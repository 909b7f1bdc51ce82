// Package ordering maintains sequences whose elements carry an explicit
// position. After every operation element i reports order i; the stored order
// is never trusted as input except to pick an insertion index.
package ordering

import (
	"errors"
	"slices"
)

var (
	ErrNotFound     = errors.New("ordering: element not found")
	ErrInvalidIndex = errors.New("ordering: invalid index")
)

// Element is satisfied by a pointer to an ordered value. Key identifies the
// element independently of its position.
type Element[T any] interface {
	*T
	Key() string
	SetOrder(int)
}

// Reindex sets every element's order to its position.
func Reindex[T any, P Element[T]](s []T) {
	for i := range s {
		P(&s[i]).SetOrder(i)
	}
}

// IndexOf returns the position of the element with key, or -1.
func IndexOf[T any, P Element[T]](s []T, key string) int {
	for i := range s {
		if P(&s[i]).Key() == key {
			return i
		}
	}
	return -1
}

// Insert places el at index at, clamped to [0, len(s)], and re-indexes.
func Insert[T any, P Element[T]](s []T, at int, el T) []T {
	if at < 0 {
		at = 0
	}
	if at > len(s) {
		at = len(s)
	}
	s = slices.Insert(s, at, el)
	Reindex[T, P](s)
	return s
}

// Append inserts el at the end.
func Append[T any, P Element[T]](s []T, el T) []T {
	return Insert[T, P](s, len(s), el)
}

// Move relocates the element with key to index to. The relative order of
// the other elements is preserved.
func Move[T any, P Element[T]](s []T, key string, to int) ([]T, error) {
	from := IndexOf[T, P](s, key)
	if from < 0 {
		return s, ErrNotFound
	}
	if to < 0 || to >= len(s) {
		return s, ErrInvalidIndex
	}
	el := s[from]
	s = slices.Delete(s, from, from+1)
	s = slices.Insert(s, to, el)
	Reindex[T, P](s)
	return s, nil
}

// Remove drops the element with key and re-indexes the survivors.
func Remove[T any, P Element[T]](s []T, key string) ([]T, error) {
	i := IndexOf[T, P](s, key)
	if i < 0 {
		return s, ErrNotFound
	}
	s = slices.Delete(s, i, i+1)
	Reindex[T, P](s)
	return s, nil
}
