package stdlib

// Memset is a conversion of C's memset function for Go slices.
func Memset[T any](data []T, value T) {
	for i := range data {
		data[i] = value
	}
}
