package tenary

// If returns a when cond holds and b otherwise. Both sides are evaluated.
func If[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
