package textutil

// Ternary picks a when cond holds and b otherwise. It keeps flag-driven
// labels and directions on one line.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
