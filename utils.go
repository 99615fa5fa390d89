package souko

import "fmt"

// growTo reallocates s with at least the requested capacity, preserving
// length and contents. No-op when the capacity is already there.
func growTo[T any](s []T, capacity int) []T {
	if cap(s) >= capacity {
		return s
	}
	ns := make([]T, len(s), capacity)
	copy(ns, s)
	return ns
}

func panicf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
