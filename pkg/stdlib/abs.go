package stdlib

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Abs returns the magnitude of a. The most negative value of T maps to itself.
func Abs[T Signed](a T) T {
	if a < 0 {
		return -a
	}
	return a
}
